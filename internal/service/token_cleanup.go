package service

import (
	"deadtab/reminder-api/internal/model"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TokenCleanup defines a function used to periodically cleanup old
// verification tokens that aren't needed anymore
func TokenCleanup(t time.Duration, db *gorm.DB) {
	ticker := time.NewTicker(t)

	zap.L().Debug("Token cleanup attached", zap.Duration("tick_every", t))

	go func() {
		for range ticker.C {
			var toCleanIds []int

			err := db.
				Model(model.VerificationToken{}).
				Where("cleanup_at < ?", time.Now()).
				Select("id").
				Find(&toCleanIds).
				Error
			if err != nil {
				zap.L().Error("Failed to query db for tokens to clean", zap.Error(err))
				continue
			}

			if len(toCleanIds) > 0 {
				zap.L().Debug("Cleaning up expired tokens")

				err = db.
					Where("id IN ?", toCleanIds).
					Delete(model.VerificationToken{}).
					Error
				if err != nil {
					zap.L().Error("Failed to cleanup database", zap.Error(err))
				}
			}
		}
	}()
}
