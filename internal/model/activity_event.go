package model

import "time"

// ActivityEvent is one tracked link visit. Rows are append-only and
// ordered by timestamp ascending per user.
type ActivityEvent struct {
	ID        int    `gorm:"primaryKey;autoIncrement"`
	UserID    string `gorm:"index;not null"`
	Timestamp time.Time
	Origin    string
}
