package store

import (
	"context"
	"deadtab/reminder-api/internal/model"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(model.User{}, model.ActivityEvent{}, model.VerificationToken{}))

	return db
}

func TestUserStoreRoundTrip(t *testing.T) {
	db := testDB(t)
	s := NewGormUserStore(db)
	ctx := context.Background()

	u := &model.User{ID: "u1", Email: "u1@x.dev", PurgeAfterDays: 7}
	require.NoError(t, s.Insert(ctx, u))

	got, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1@x.dev", got.Email)
	assert.Equal(t, 7, got.PurgeAfterDays)
	assert.False(t, got.Purged)

	byEmail, err := s.GetUserByEmail(ctx, "u1@x.dev")
	require.NoError(t, err)
	assert.Equal(t, "u1", byEmail.ID)

	_, err = s.GetUser(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetUserByEmail(ctx, "nope@x.dev")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserStoreMarkers(t *testing.T) {
	db := testDB(t)
	s := NewGormUserStore(db)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, &model.User{ID: "u1", Email: "u1@x.dev", PurgeAfterDays: 7}))

	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.MarkVerified(ctx, "u1", at))
	u, _ := s.GetUser(ctx, "u1")
	assert.True(t, u.Verified)
	require.NotNil(t, u.LastVerifiedAt)

	require.NoError(t, s.MarkEmailSent(ctx, "u1", at))
	u, _ = s.GetUser(ctx, "u1")
	require.NotNil(t, u.LastEmailSentAt)

	require.NoError(t, s.MarkPurged(ctx, "u1", at))
	u, _ = s.GetUser(ctx, "u1")
	assert.True(t, u.Purged)
	require.NotNil(t, u.PurgedAt)

	// Purged is terminal: activity/email markers no longer apply
	later := at.Add(24 * time.Hour)
	require.NoError(t, s.MarkEmailSent(ctx, "u1", later))
	require.NoError(t, s.MarkVerified(ctx, "u1", later))

	u, _ = s.GetUser(ctx, "u1")
	assert.Equal(t, at.Unix(), u.LastEmailSentAt.Unix())
	assert.Equal(t, at.Unix(), u.LastVerifiedAt.Unix())
}

func TestUserStoreListNonPurged(t *testing.T) {
	db := testDB(t)
	s := NewGormUserStore(db)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, &model.User{ID: "a", Email: "a@x.dev", PurgeAfterDays: 7}))
	require.NoError(t, s.Insert(ctx, &model.User{ID: "b", Email: "b@x.dev", PurgeAfterDays: 7}))
	require.NoError(t, s.MarkPurged(ctx, "b", time.Now()))

	users, err := s.ListNonPurged(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "a", users[0].ID)
}

func TestActivityLogOrdering(t *testing.T) {
	db := testDB(t)
	l := NewGormActivityLog(db)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	// Insert out of order on purpose
	for _, offset := range []time.Duration{2 * time.Hour, 0, time.Hour} {
		require.NoError(t, l.Append(ctx, &model.ActivityEvent{
			UserID:    "u1",
			Timestamp: base.Add(offset),
			Origin:    "10.0.0.1",
		}))
	}

	events, err := l.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.True(t, events[0].Timestamp.Before(events[1].Timestamp))
	assert.True(t, events[1].Timestamp.Before(events[2].Timestamp))

	recent, err := l.MostRecent(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, recent)
	assert.Equal(t, base.Add(2*time.Hour).Unix(), recent.Unix())
}

func TestActivityLogMostRecentEmpty(t *testing.T) {
	db := testDB(t)
	l := NewGormActivityLog(db)

	recent, err := l.MostRecent(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, recent)
}
