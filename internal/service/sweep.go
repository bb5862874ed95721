package service

import (
	"context"
	"deadtab/reminder-api/internal/model"
	"deadtab/reminder-api/internal/store"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// reminderCooldown is the cadence gate: at most one reminder per user
// per 24 hours, however often the sweep runs.
const reminderCooldown = 24 * time.Hour

// Notifier sends the outgoing mail the sweep and the register flow need.
type Notifier interface {
	SendReminder(email string, daysRemaining int, verified bool) error
	SendWelcome(email string, purgeAfterDays int) error
	SendVerification(email, userID, token string) error
}

// Result holds the aggregate counts of one sweep invocation.
type Result struct {
	Purged  int `json:"purged"`
	Emailed int `json:"emailed"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// Sweeper runs the periodic evaluation over all non-purged users and
// applies the resulting decisions.
type Sweeper struct {
	Users    store.UserStore
	Activity store.ActivityLog
	Mail     Notifier

	// Now is swappable for tests, defaults to time.Now
	Now func() time.Time
}

func NewSweeper(users store.UserStore, activity store.ActivityLog, mail Notifier) *Sweeper {
	return &Sweeper{
		Users:    users,
		Activity: activity,
		Mail:     mail,
		Now:      time.Now,
	}
}

// Run executes one sweep. A failure to load the user list is fatal for
// the invocation; anything that goes wrong on a single user is logged,
// counted and the batch moves on.
func (s *Sweeper) Run(ctx context.Context) (Result, error) {
	var res Result

	now := s.Now()

	users, err := s.Users.ListNonPurged(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to load users for sweep, %w", err)
	}

	for i := range users {
		s.processUser(ctx, &users[i], now, &res)
	}

	zap.L().Info("Sweep finished",
		zap.Int("purged", res.Purged),
		zap.Int("emailed", res.Emailed),
		zap.Int("skipped", res.Skipped),
		zap.Int("errors", res.Errors),
	)

	return res, nil
}

func (s *Sweeper) processUser(ctx context.Context, u *model.User, now time.Time, res *Result) {
	lastActivity, err := s.Activity.MostRecent(ctx, u.ID)
	if err != nil {
		zap.L().Error("Failed to load last activity", zap.String("userID", u.ID), zap.Error(err))
		res.Errors++
		return
	}

	decision, err := Evaluate(u, lastActivity, now)
	if err != nil {
		zap.L().Warn("Skipping user with invalid state", zap.String("userID", u.ID), zap.Error(err))
		res.Errors++
		return
	}

	if decision.Kind == Purge {
		if err := s.Users.MarkPurged(ctx, u.ID, now); err != nil {
			zap.L().Error("Failed to mark user purged", zap.String("userID", u.ID), zap.Error(err))
			res.Errors++
			return
		}

		zap.L().Info("User purged", zap.String("userID", u.ID))
		res.Purged++
		return
	}

	// Cadence gate. No reminder if one already went out within the
	// last 24 hours, so retried or overlapping sweeps never double-send.
	if u.LastEmailSentAt != nil && now.Sub(*u.LastEmailSentAt) < reminderCooldown {
		res.Skipped++
		return
	}

	if err := s.Mail.SendReminder(u.Email, decision.DaysRemaining, u.Verified); err != nil {
		// last_email_sent_at stays untouched so the next sweep retries
		zap.L().Error("Failed to send reminder", zap.String("userID", u.ID), zap.Error(err))
		res.Errors++
		return
	}

	if err := s.Users.MarkEmailSent(ctx, u.ID, now); err != nil {
		zap.L().Error("Failed to record reminder dispatch", zap.String("userID", u.ID), zap.Error(err))
		res.Errors++
		return
	}

	zap.L().Debug("Reminder sent", zap.String("userID", u.ID), zap.Int("days_remaining", decision.DaysRemaining))
	res.Emailed++
}

// PurgeOne runs the same evaluation as the sweep for a single user,
// synchronously. It reports whether a purge actually happened.
func (s *Sweeper) PurgeOne(ctx context.Context, userID string) (bool, error) {
	u, err := s.Users.GetUser(ctx, userID)
	if err != nil {
		return false, err
	}

	lastActivity, err := s.Activity.MostRecent(ctx, u.ID)
	if err != nil {
		return false, err
	}

	decision, err := Evaluate(u, lastActivity, s.Now())
	if err != nil {
		return false, err
	}

	if decision.Kind != Purge {
		return false, nil
	}

	if err := s.Users.MarkPurged(ctx, u.ID, s.Now()); err != nil {
		return false, err
	}

	return true, nil
}
