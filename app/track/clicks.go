package track

import (
	"deadtab/reminder-api/internal"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TrackClicks returns a user's tracked visits, oldest first.
func TrackClicks(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Missing userId parameter",
			"requestID": requestID,
		})
		return
	}

	events, err := d.Activity.ListByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch clicks", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, events)
}
