package user

import (
	"deadtab/reminder-api/internal"
	"deadtab/reminder-api/internal/service"
	"deadtab/reminder-api/internal/store"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserPurge is the manual trigger: evaluate one user now and purge
// when eligible. It never purges early, the same policy the sweep
// runs decides.
func UserPurge(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	userID := c.Param("id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Missing userId",
			"requestID": requestID,
		})
		return
	}

	purged, err := d.Sweeper.PurgeOne(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "User not found",
				"requestID": requestID,
			})
			return
		}

		if errors.Is(err, service.ErrInvalidUserState) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":     "User record has no usable timestamps",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Failed to update purge status",
			"requestID": requestID,
		})

		zap.L().Error("Manual purge failed", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if purged {
		c.JSON(http.StatusOK, gin.H{
			"message":   "User purged successfully",
			"purged":    true,
			"requestID": requestID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Purge not needed yet",
		"purged":    false,
		"requestID": requestID,
	})
}
