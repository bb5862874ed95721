package store

import (
	"context"
	"deadtab/reminder-api/internal/model"
	"errors"
	"time"

	"gorm.io/gorm"
)

type GormUserStore struct {
	db *gorm.DB
}

func NewGormUserStore(db *gorm.DB) *GormUserStore {
	return &GormUserStore{db: db}
}

func (s *GormUserStore) Insert(ctx context.Context, u *model.User) error {
	return s.db.WithContext(ctx).Create(u).Error
}

func (s *GormUserStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	var u model.User

	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&u).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &u, nil
}

func (s *GormUserStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User

	err := s.db.WithContext(ctx).
		Where("email = ?", email).
		First(&u).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &u, nil
}

func (s *GormUserStore) ListNonPurged(ctx context.Context) ([]model.User, error) {
	var users []model.User

	err := s.db.WithContext(ctx).
		Where("purged = ?", false).
		Find(&users).
		Error
	if err != nil {
		return nil, err
	}

	return users, nil
}

// MarkPurged flips a user into the terminal purged state. Setting
// purged unconditionally keeps overlapping sweeps idempotent.
func (s *GormUserStore) MarkPurged(ctx context.Context, id string, at time.Time) error {
	return s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"purged":    true,
			"purged_at": at,
		}).Error
}

func (s *GormUserStore) MarkEmailSent(ctx context.Context, id string, at time.Time) error {
	return s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND purged = ?", id, false).
		Update("last_email_sent_at", at).
		Error
}

func (s *GormUserStore) MarkVerified(ctx context.Context, id string, at time.Time) error {
	return s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND purged = ?", id, false).
		Updates(map[string]any{
			"verified":         true,
			"last_verified_at": at,
		}).Error
}
