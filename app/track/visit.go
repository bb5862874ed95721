package track

import (
	"deadtab/reminder-api/internal"
	"deadtab/reminder-api/internal/model"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TrackVisit records one tracked link visit for a user. Every visit
// resets the inactivity anchor, so this is the "I'm alive" signal that
// doesn't need an email round trip.
func TrackVisit(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Missing userId parameter",
			"requestID": requestID,
		})
		return
	}

	origin := c.GetHeader("X-Forwarded-For")
	if origin == "" {
		origin = c.ClientIP()
	}

	err := d.Activity.Append(c.Request.Context(), &model.ActivityEvent{
		UserID:    userID,
		Timestamp: time.Now(),
		Origin:    origin,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to log link visit", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}
