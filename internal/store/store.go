// Package store defines the data-access contracts the rest of the
// application works against. Handlers and the sweep never touch gorm
// directly, they go through these interfaces so the policy code can be
// tested against stubs.
package store

import (
	"context"
	"deadtab/reminder-api/internal/model"
	"errors"
	"time"
)

var ErrNotFound = errors.New("record not found")

type UserStore interface {
	Insert(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListNonPurged(ctx context.Context) ([]model.User, error)
	MarkPurged(ctx context.Context, id string, at time.Time) error
	MarkEmailSent(ctx context.Context, id string, at time.Time) error
	MarkVerified(ctx context.Context, id string, at time.Time) error
}

type ActivityLog interface {
	Append(ctx context.Context, ev *model.ActivityEvent) error
	MostRecent(ctx context.Context, userID string) (*time.Time, error)
	ListByUser(ctx context.Context, userID string) ([]model.ActivityEvent, error)
}
