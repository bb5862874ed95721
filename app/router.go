// Package app contains the HTTP surface and its wiring
package app

import (
	"context"
	"deadtab/reminder-api/app/root"
	"deadtab/reminder-api/app/sweep"
	"deadtab/reminder-api/app/track"
	"deadtab/reminder-api/app/user"
	"deadtab/reminder-api/db"
	"deadtab/reminder-api/internal"
	"deadtab/reminder-api/internal/service"
	"deadtab/reminder-api/internal/store"
	"deadtab/reminder-api/pkg/middleware"
	"fmt"
	"time"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

var cacheStore = persist.NewMemoryStore(time.Minute)

func NewRouter() (*gin.Engine, error) {
	makeLogger()

	d := &internal.Deps{}

	conn, err := db.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}
	d.DB = conn

	d.Users = store.NewGormUserStore(conn)
	d.Activity = store.NewGormActivityLog(conn)
	d.Mail = service.NewMailer()
	d.Sweeper = service.NewSweeper(d.Users, d.Activity, d.Mail)

	router := gin.New()

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     viper.GetStringSlice("host.cors"),
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true

	rateLimit := viper.GetInt("security.rate_limit")
	rateLimiter := middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: rateLimit,
		Burst:             rateLimit * 2,
		CleanupInterval:   time.Second,
	})

	m := router.Group("/api", rateLimiter, middleware.BodySizeLimiter(1<<20))
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		m.HEAD("/heartbeat", root.Heartbeat)

		// POST /api/sweep		-> Runs one sweep on demand
		m.POST("/sweep", func(c *gin.Context) { sweep.Trigger(c, d) })
	}

	u := m.Group("/users")
	{
		// POST /api/users 		-> Registers a new user
		u.POST("", func(c *gin.Context) { user.UserRegister(c, d) })

		// GET /api/users/verify	-> Consumes a verification token
		u.GET("/verify", func(c *gin.Context) { user.UserVerify(c, d) })

		// GET /api/users/status	-> Returns a user's purge status
		u.GET("/status", func(c *gin.Context) { user.UserStatus(c, d) })

		// POST /api/users/:id/purge	-> Purges a single user if eligible
		u.POST("/:id/purge", func(c *gin.Context) { user.UserPurge(c, d) })
	}

	t := m.Group("/track")
	{
		// GET /api/track		-> Logs a tracked link visit
		t.GET("", func(c *gin.Context) { track.TrackVisit(c, d) })

		// GET /api/track/clicks	-> Returns a user's visits
		t.GET("/clicks", cacheFor(15), func(c *gin.Context) { track.TrackClicks(c, d) })
	}

	// Check for useless tokens every day because they expire rarely
	service.TokenCleanup(time.Hour*time.Duration(viper.GetInt("purge.token_cleanup_hours")), conn)

	if err := attachSweep(d); err != nil {
		return nil, err
	}

	return router, nil
}

// attachSweep schedules the daily sweep. The on-demand trigger and the
// cron entry share one Sweeper, so both get the same cadence gate.
func attachSweep(d *internal.Deps) error {
	expr := viper.GetString("purge.sweep_cron")

	c := cron.New()
	_, err := c.AddFunc(expr, func() {
		if _, err := d.Sweeper.Run(context.Background()); err != nil {
			zap.L().Error("Scheduled sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sweep, %w", err)
	}

	c.Start()
	zap.L().Debug("Sweep attached", zap.String("cron", expr))

	return nil
}

func makeLogger() {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	cfg.DisableStacktrace = true

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}

func cacheFor(sec int) gin.HandlerFunc {
	return cache.CacheByRequestURI(cacheStore, time.Second*time.Duration(sec))
}
