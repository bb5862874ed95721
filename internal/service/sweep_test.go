package service

import (
	"context"
	"deadtab/reminder-api/internal/model"
	"deadtab/reminder-api/internal/store"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUserStore struct {
	mu      sync.Mutex
	users   map[string]*model.User
	listErr error
	markErr map[string]error
}

func newStubUserStore(users ...*model.User) *stubUserStore {
	s := &stubUserStore{users: map[string]*model.User{}, markErr: map[string]error{}}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *stubUserStore) Insert(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return nil
}

func (s *stubUserStore) GetUser(_ context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *stubUserStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *stubUserStore) ListNonPurged(_ context.Context) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []model.User
	for _, u := range s.users {
		if !u.Purged {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (s *stubUserStore) MarkPurged(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.markErr[id]; err != nil {
		return err
	}
	u := s.users[id]
	u.Purged = true
	u.PurgedAt = &at
	return nil
}

func (s *stubUserStore) MarkEmailSent(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id].LastEmailSentAt = &at
	return nil
}

func (s *stubUserStore) MarkVerified(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[id]
	u.Verified = true
	u.LastVerifiedAt = &at
	return nil
}

type stubActivityLog struct {
	recent map[string]*time.Time
	err    error
}

func (l *stubActivityLog) Append(_ context.Context, _ *model.ActivityEvent) error { return nil }

func (l *stubActivityLog) MostRecent(_ context.Context, userID string) (*time.Time, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.recent[userID], nil
}

func (l *stubActivityLog) ListByUser(_ context.Context, _ string) ([]model.ActivityEvent, error) {
	return nil, nil
}

type stubNotifier struct {
	reminders []string
	fail      bool
}

func (n *stubNotifier) SendReminder(email string, _ int, _ bool) error {
	if n.fail {
		return errors.New("smtp unavailable")
	}
	n.reminders = append(n.reminders, email)
	return nil
}

func (n *stubNotifier) SendWelcome(string, int) error {
	return nil
}

func (n *stubNotifier) SendVerification(string, string, string) error {
	return nil
}

func newTestSweeper(users *stubUserStore, activity *stubActivityLog, mail *stubNotifier, now time.Time) *Sweeper {
	s := NewSweeper(users, activity, mail)
	s.Now = func() time.Time { return now }
	return s
}

func TestSweepPurgesExpiredUsers(t *testing.T) {
	t.Parallel()

	users := newStubUserStore(
		&model.User{ID: "a", Email: "a@x.dev", PurgeAfterDays: 7, CreatedAt: t0},
		&model.User{ID: "b", Email: "b@x.dev", PurgeAfterDays: 30, CreatedAt: t0},
	)
	mail := &stubNotifier{}

	s := newTestSweeper(users, &stubActivityLog{}, mail, t0.Add(10*24*time.Hour))

	res, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Purged)
	assert.Equal(t, 1, res.Emailed)

	a, _ := users.GetUser(context.Background(), "a")
	assert.True(t, a.Purged)
	require.NotNil(t, a.PurgedAt)

	b, _ := users.GetUser(context.Background(), "b")
	assert.False(t, b.Purged)
	assert.Equal(t, []string{"b@x.dev"}, mail.reminders)
}

func TestSweepIsIdempotent(t *testing.T) {
	t.Parallel()

	now := t0.Add(3 * 24 * time.Hour)
	users := newStubUserStore(
		&model.User{ID: "a", Email: "a@x.dev", PurgeAfterDays: 7, CreatedAt: t0},
		&model.User{ID: "b", Email: "b@x.dev", PurgeAfterDays: 2, CreatedAt: t0},
	)
	mail := &stubNotifier{}

	s := newTestSweeper(users, &stubActivityLog{}, mail, now)

	_, err := s.Run(context.Background())
	require.NoError(t, err)

	// Immediate second run: the cadence gate must block a resend and
	// the purged user must stay purged
	res, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, res.Purged)
	assert.Equal(t, 0, res.Emailed)
	assert.Equal(t, 1, res.Skipped)
	assert.Len(t, mail.reminders, 1)

	b, _ := users.GetUser(context.Background(), "b")
	assert.True(t, b.Purged)
}

func TestSweepCadenceGate(t *testing.T) {
	t.Parallel()

	now := t0.Add(3 * 24 * time.Hour)

	recent := now.Add(-2 * time.Hour)
	stale := now.Add(-25 * time.Hour)

	users := newStubUserStore(
		&model.User{ID: "recent", Email: "r@x.dev", PurgeAfterDays: 10, CreatedAt: t0, LastEmailSentAt: &recent},
		&model.User{ID: "stale", Email: "s@x.dev", PurgeAfterDays: 10, CreatedAt: t0, LastEmailSentAt: &stale},
	)
	mail := &stubNotifier{}

	s := newTestSweeper(users, &stubActivityLog{}, mail, now)

	res, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Emailed)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, []string{"s@x.dev"}, mail.reminders)
}

func TestSweepActivityResetsCountdown(t *testing.T) {
	t.Parallel()

	now := t0.Add(10 * 24 * time.Hour)
	lastClick := now.Add(-24 * time.Hour)

	users := newStubUserStore(
		&model.User{ID: "a", Email: "a@x.dev", PurgeAfterDays: 7, CreatedAt: t0},
	)

	s := newTestSweeper(users, &stubActivityLog{recent: map[string]*time.Time{"a": &lastClick}}, &stubNotifier{}, now)

	res, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, res.Purged)
	a, _ := users.GetUser(context.Background(), "a")
	assert.False(t, a.Purged)
}

func TestSweepIsolatesPerUserFailures(t *testing.T) {
	t.Parallel()

	users := newStubUserStore(
		&model.User{ID: "bad", Email: "bad@x.dev", PurgeAfterDays: 1, CreatedAt: t0},
		&model.User{ID: "broken", Email: "broken@x.dev", PurgeAfterDays: 5}, // no timestamps at all
		&model.User{ID: "ok", Email: "ok@x.dev", PurgeAfterDays: 1, CreatedAt: t0},
	)
	users.markErr["bad"] = errors.New("db write failed")

	s := newTestSweeper(users, &stubActivityLog{}, &stubNotifier{}, t0.Add(48*time.Hour))

	res, err := s.Run(context.Background())
	require.NoError(t, err, "per-user failures must not abort the batch")

	assert.Equal(t, 1, res.Purged)
	assert.Equal(t, 2, res.Errors)

	ok, _ := users.GetUser(context.Background(), "ok")
	assert.True(t, ok.Purged)
}

func TestSweepNotifierFailureLeavesCadenceUntouched(t *testing.T) {
	t.Parallel()

	users := newStubUserStore(
		&model.User{ID: "a", Email: "a@x.dev", PurgeAfterDays: 10, CreatedAt: t0},
	)
	mail := &stubNotifier{fail: true}

	s := newTestSweeper(users, &stubActivityLog{}, mail, t0.Add(24*time.Hour))

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Errors)

	a, _ := users.GetUser(context.Background(), "a")
	assert.Nil(t, a.LastEmailSentAt, "failed sends must not consume the cadence window")

	// Next sweep retries once the notifier recovers
	mail.fail = false
	res, err = s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Emailed)
}

func TestSweepFatalOnListFailure(t *testing.T) {
	t.Parallel()

	users := newStubUserStore()
	users.listErr = errors.New("connection refused")

	s := newTestSweeper(users, &stubActivityLog{}, &stubNotifier{}, t0)

	_, err := s.Run(context.Background())
	assert.Error(t, err)
}

func TestPurgeOne(t *testing.T) {
	t.Parallel()

	users := newStubUserStore(
		&model.User{ID: "due", Email: "due@x.dev", PurgeAfterDays: 2, CreatedAt: t0},
		&model.User{ID: "early", Email: "early@x.dev", PurgeAfterDays: 30, CreatedAt: t0},
	)

	s := newTestSweeper(users, &stubActivityLog{}, &stubNotifier{}, t0.Add(5*24*time.Hour))

	purged, err := s.PurgeOne(context.Background(), "due")
	require.NoError(t, err)
	assert.True(t, purged)

	purged, err = s.PurgeOne(context.Background(), "early")
	require.NoError(t, err)
	assert.False(t, purged)

	// Already purged users report no-op instead of re-purging
	purged, err = s.PurgeOne(context.Background(), "due")
	require.NoError(t, err)
	assert.False(t, purged)

	_, err = s.PurgeOne(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
