package store

import (
	"context"
	"deadtab/reminder-api/internal/model"
	"errors"
	"time"

	"gorm.io/gorm"
)

type GormActivityLog struct {
	db *gorm.DB
}

func NewGormActivityLog(db *gorm.DB) *GormActivityLog {
	return &GormActivityLog{db: db}
}

func (l *GormActivityLog) Append(ctx context.Context, ev *model.ActivityEvent) error {
	return l.db.WithContext(ctx).Create(ev).Error
}

func (l *GormActivityLog) MostRecent(ctx context.Context, userID string) (*time.Time, error) {
	var ev model.ActivityEvent

	err := l.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp desc").
		First(&ev).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &ev.Timestamp, nil
}

func (l *GormActivityLog) ListByUser(ctx context.Context, userID string) ([]model.ActivityEvent, error) {
	var events []model.ActivityEvent

	err := l.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp asc").
		Find(&events).
		Error
	if err != nil {
		return nil, err
	}

	return events, nil
}
