// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/robfig/cron/v3"
	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	dryRunMail     = pflag.Bool("dry-run-mail", false, "Logs outgoing mail instead of dialing SMTP")
	validLogLevels = []string{"debug", "info", "warn", "error", "fatal"}
	validDBDrivers = []string{"sqlite", "postgres"}
)

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	v.AutomaticEnv()

	//
	// ENVS
	//
	v.BindEnv("app.log_level", "app_log_level")

	v.BindEnv("host.port", "host_port")
	v.BindEnv("host.domain", "host_domain")
	v.BindEnv("host.cors", "host_cors")

	v.BindEnv("host.ssl.enabled", "host_ssl_enabled")

	v.BindEnv("db.driver", "db_driver")
	v.BindEnv("db.dsn", "db_dsn")

	v.BindEnv("smtp.host", "smtp_host")
	v.BindEnv("smtp.port", "smtp_port")
	v.BindEnv("smtp.username", "smtp_username")
	v.BindEnv("smtp.password", "smtp_password")
	v.BindEnv("smtp.sender", "smtp_sender")

	v.BindEnv("purge.sweep_cron", "purge_sweep_cron")
	v.BindEnv("purge.token_cleanup_hours", "purge_token_cleanup_hours")

	v.BindEnv("security.rate_limit", "security_rate_limit")

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.domain", "localhost")
	v.SetDefault("host.cors", []string{"http://localhost:5173"})

	v.SetDefault("host.ssl.enabled", false)

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "database.db")

	v.SetDefault("smtp.port", 587)

	// Matches the old daily purge schedule, five past midnight UTC
	v.SetDefault("purge.sweep_cron", "5 0 * * *")
	v.SetDefault("purge.token_cleanup_hours", 24)

	v.SetDefault("security.rate_limit", 10)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(v.ConfigFileNotFoundError); ok {
			return errors.New("config.toml file is missing")
		}

		return fmt.Errorf("failed to read config file, %w", err)
	}

	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if !slices.Contains(validDBDrivers, v.GetString("db.driver")) {
		return errors.New("invalid database driver provided")
	}

	if v.GetString("db.dsn") == "" {
		return errors.New("database dsn can't be empty")
	}

	if _, err := cron.ParseStandard(v.GetString("purge.sweep_cron")); err != nil {
		return fmt.Errorf("invalid purge.sweep_cron expression, %w", err)
	}

	if v.GetInt("purge.token_cleanup_hours") <= 0 {
		return errors.New("purge.token_cleanup_hours must be bigger than 0")
	}

	if v.GetInt("security.rate_limit") <= 0 {
		return errors.New("security.rate_limit must be bigger than 0")
	}

	if *dryRunMail {
		v.Set("smtp.dry_run", true)
	}

	if v.GetString("smtp.host") == "" && !v.GetBool("smtp.dry_run") {
		zap.L().Warn("No smtp.host configured, outgoing mail will only be logged")
		v.Set("smtp.dry_run", true)
	}

	return nil
}
