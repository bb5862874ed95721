package user

import (
	"deadtab/reminder-api/internal"
	"deadtab/reminder-api/internal/model"
	"deadtab/reminder-api/internal/service"
	"deadtab/reminder-api/internal/store"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserStatus answers "what is this user's current state" using the
// same evaluation the sweep runs, without any side effects.
func UserStatus(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	userID := c.Query("userId")
	email := c.Query("email")

	if userID == "" && email == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Missing userId or email parameter",
			"requestID": requestID,
		})
		return
	}

	var (
		u   *model.User
		err error
	)

	if userID != "" {
		u, err = d.Users.GetUser(c.Request.Context(), userID)
	} else {
		u, err = d.Users.GetUserByEmail(c.Request.Context(), email)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "User not found",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch user", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	lastActivity, err := d.Activity.MostRecent(c.Request.Context(), u.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch last activity", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	decision, err := service.Evaluate(u, lastActivity, time.Now())
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":     "User record has no usable timestamps",
			"requestID": requestID,
		})

		zap.L().Warn("Invalid user state", zap.Error(err), zap.String("userID", u.ID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"shouldPurge":     decision.Kind == service.Purge,
		"daysRemaining":   decision.DaysRemaining,
		"isVerified":      u.Verified,
		"id":              u.ID,
		"email":           u.Email,
		"purgeAfterDays":  u.PurgeAfterDays,
		"createdAt":       u.CreatedAt,
		"lastVerifiedAt":  u.LastVerifiedAt,
		"lastEmailSentAt": u.LastEmailSentAt,
		"purged":          u.Purged,
		"purgedAt":        u.PurgedAt,
	})
}
