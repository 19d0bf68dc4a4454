package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	App struct {
		ENV string
	}

	Log struct {
		Level     string
		Format    string
		Component string
		Source    bool
	}

	DB struct {
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	Gemini struct {
		APIKey  string
		Model   string
		Timeout time.Duration
	}

	SendGrid struct {
		APIKey    string
		FromEmail string
		FromName  string
	}

	Matcher struct {
		Workers      int
		QueueSize    int
		Sync         bool
		SweepOnStart bool
	}
}

func New() *Config {
	cfg := &Config{}

	// App
	cfg.App.ENV = getEnvDefault("APP_ENV", "development")

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "matching_server")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.DSN = os.Getenv("MYSQL_DSN")
	if cfg.DB.DSN == "" {
		cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
		cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
		cfg.DB.User = getEnvDefault("DB_USER", "root")
		cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
		cfg.DB.Name = getEnvDefault("DB_NAME", "getvolunteers")

		cfg.DB.DSN = fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
		)
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	if dbStr := getEnvDefault("REDIS_DB", "0"); dbStr != "" {
		if dbInt, err := strconv.Atoi(dbStr); err == nil {
			cfg.Redis.DB = dbInt
		}
	}

	// Gemini
	cfg.Gemini.APIKey = os.Getenv("GOOGLE_API_KEY")
	cfg.Gemini.Model = getEnvDefault("GEMINI_MODEL", "gemini-2.5-flash")
	cfg.Gemini.Timeout = getEnvDuration("GEMINI_TIMEOUT", 60*time.Second)

	// SendGrid, optional: an empty key disables match notifications
	cfg.SendGrid.APIKey = os.Getenv("SENDGRID_API_KEY")
	cfg.SendGrid.FromEmail = getEnvDefault("MAIL_SENDER_EMAIL", "no-reply@getvolunteers.org")
	cfg.SendGrid.FromName = getEnvDefault("MAIL_SENDER_NAME", "getVolunteers Team")

	// Matcher pipeline
	cfg.Matcher.Workers = getEnvInt("MATCHER_WORKERS", 2)
	cfg.Matcher.QueueSize = getEnvInt("MATCHER_QUEUE_SIZE", 64)
	cfg.Matcher.Sync = isTruthy(os.Getenv("MATCHER_SYNC"))
	cfg.Matcher.SweepOnStart = isTruthy(os.Getenv("MATCHER_SWEEP_ON_START"))

	return cfg
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func getEnvDuration(k string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
