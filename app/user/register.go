package user

import (
	"deadtab/reminder-api/internal"
	"deadtab/reminder-api/internal/model"
	"deadtab/reminder-api/internal/store"
	"deadtab/reminder-api/pkg/security"
	"deadtab/reminder-api/pkg/validators"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

type registerBody struct {
	Email          string `json:"email"`
	PurgeAfterDays int    `json:"purgeAfterDays"`
}

func UserRegister(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data registerBody
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Email and purgeAfterDays are required",
			"requestID": requestID,
		})

		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if err := validators.EmailValidator(data.Email); err != nil {
		zap.L().Debug("Invalid email", zap.Error(err), zap.String("requestID", requestID))

		c.JSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	if err := validators.PurgeDaysValidator(data.PurgeAfterDays); err != nil {
		zap.L().Debug("Invalid purgeAfterDays", zap.Error(err), zap.String("requestID", requestID))

		c.JSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	_, err := d.Users.GetUserByEmail(c.Request.Context(), data.Email)
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{
			"error":     "This email is already registered. Please use a different email",
			"requestID": requestID,
		})
		return
	}
	if !errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to check if user is registered", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	userID, err := gonanoid.Generate(charset, 16)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to generate user ID", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	expireAt := time.Now().Add(time.Hour * 24)
	cleanAt := time.Now().Add(time.Hour * 24 * 60)

	verifToken, err := security.MakeVerificationToken(&security.VerificationTokenOpts{
		UserID:    userID,
		Purpose:   "email_verify",
		ExpiresAt: &expireAt, // Expire after 24 hours
		CleanupAt: &cleanAt,  // Cleanup after 60 days
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to generate verification token", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if err := d.Users.Insert(c.Request.Context(), &model.User{
		ID:             userID,
		Email:          data.Email,
		PurgeAfterDays: data.PurgeAfterDays,
		VerificationTokens: []model.VerificationToken{
			*verifToken,
		},
	}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to create user", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if err := d.Mail.SendWelcome(data.Email, data.PurgeAfterDays); err != nil {
		zap.L().Error("Failed to send welcome email", zap.Error(err), zap.String("requestID", requestID))
	}

	if err := d.Mail.SendVerification(data.Email, userID, verifToken.Token); err != nil {
		zap.L().Error("Failed to send verification email", zap.Error(err), zap.String("requestID", requestID))
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"userID":  userID,
	})
}
