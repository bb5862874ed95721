package sweep

import (
	"deadtab/reminder-api/internal"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Trigger runs one sweep on demand and reports the aggregate counts.
// The scheduled run goes through the exact same code path.
func Trigger(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	res, err := d.Sweeper.Run(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Sweep failed",
			"requestID": requestID,
		})

		zap.L().Error("On-demand sweep failed", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, res)
}
