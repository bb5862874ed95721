package model

import "time"

type User struct {
	ID              string `gorm:"primaryKey"`
	Email           string `gorm:"uniqueIndex;not null"`
	PurgeAfterDays  int    `gorm:"not null"`
	Verified        bool   `gorm:"default:false"`
	LastVerifiedAt  *time.Time
	LastEmailSentAt *time.Time
	Purged          bool `gorm:"default:false;index"`
	PurgedAt        *time.Time
	CreatedAt       time.Time

	VerificationTokens []VerificationToken `gorm:"foreignKey:UserID"`
	ActivityEvents     []ActivityEvent     `gorm:"foreignKey:UserID"`
}
