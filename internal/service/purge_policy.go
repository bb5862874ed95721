package service

import (
	"deadtab/reminder-api/internal/model"
	"errors"
	"time"
)

// DecisionKind says what the sweep should do with a user.
type DecisionKind int

const (
	NoAction DecisionKind = iota
	SendReminder
	Purge
)

type Decision struct {
	Kind          DecisionKind
	DaysRemaining int
}

// ErrInvalidUserState means a user has no usable timestamp to measure
// inactivity from. The sweep logs and skips such users instead of
// aborting the whole batch.
var ErrInvalidUserState = errors.New("user has no usable anchor timestamp")

const day = 24 * time.Hour

// Anchor returns the reference point inactivity is measured from: the
// most recent of the last tracked activity and the last explicit
// verification, falling back to the account creation time when the
// user never did either. Among activity and verification the newest
// available timestamp always wins.
func Anchor(u *model.User, lastActivity *time.Time) (time.Time, error) {
	var a time.Time

	if lastActivity != nil && !lastActivity.IsZero() {
		a = *lastActivity
	}

	if u.LastVerifiedAt != nil && !u.LastVerifiedAt.IsZero() && u.LastVerifiedAt.After(a) {
		a = *u.LastVerifiedAt
	}

	if a.IsZero() {
		a = u.CreatedAt
	}

	if a.IsZero() {
		return time.Time{}, ErrInvalidUserState
	}

	return a, nil
}

// Evaluate is the purge policy. It is pure: same inputs, same decision,
// no side effects. A purged user always evaluates to NoAction(0) so
// callers can never flip the terminal state back. The evaluator itself
// only ever answers Purge or NoAction, reminder cadence is the sweep's
// call.
func Evaluate(u *model.User, lastActivity *time.Time, now time.Time) (Decision, error) {
	if u.Purged {
		return Decision{Kind: NoAction, DaysRemaining: 0}, nil
	}

	anchor, err := Anchor(u, lastActivity)
	if err != nil {
		return Decision{}, err
	}

	since := now.Sub(anchor)
	if since < 0 {
		// Anchor in the future, clock skew. Treat as fresh
		since = 0
	}

	daysSince := int(since / day)

	remaining := u.PurgeAfterDays - daysSince
	if remaining <= 0 {
		return Decision{Kind: Purge, DaysRemaining: 0}, nil
	}

	return Decision{Kind: NoAction, DaysRemaining: remaining}, nil
}
