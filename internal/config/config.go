package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	// HTTP server
	Port              string
	SessionCookieName string
	SessionTTL        time.Duration
	BcryptCost        int
	// LoginRateLimit is the number of login attempts per client per minute.
	LoginRateLimit int

	// Database
	SQLiteDBPath string

	// AMQP; an empty URL disables state.saved events.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Report cache
	CacheSize int
	CacheTTL  time.Duration

	// Recurring worker
	RecurringInterval    time.Duration
	RecurringConcurrency int

	LogLevel string

	// Google Sheets report export; an empty spreadsheet id disables it.
	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	GoogleReportSheetName    string
}

func Load() *Config {
	return &Config{
		Port:              getEnv("PORT", "8080"),
		SessionCookieName: getEnv("SESSION_COOKIE_NAME", "planner_session"),
		SessionTTL:        getEnvDuration("SESSION_TTL", 30*24*time.Hour),
		BcryptCost:        getEnvInt("BCRYPT_COST", bcrypt.DefaultCost),
		LoginRateLimit:    getEnvInt("LOGIN_RATE_LIMIT", 10),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/planner.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "planner"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "state_saved"),

		CacheSize: getEnvInt("CACHE_SIZE", 512),
		CacheTTL:  getEnvDuration("CACHE_TTL", 5*time.Minute),

		RecurringInterval:    getEnvDuration("RECURRING_PROCESSOR_INTERVAL", time.Hour),
		RecurringConcurrency: getEnvInt("RECURRING_CONCURRENCY", 4),

		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleReportSheetName:    getEnv("GOOGLE_REPORT_SHEET_NAME", "Budget report"),
	}
}

// AMQPEnabled reports whether state.saved events are published and consumed.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// SheetsEnabled reports whether month reports can be exported.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errs = append(errs, "SQLite database path cannot be empty")
	}

	if c.SessionCookieName == "" {
		errs = append(errs, "session cookie name cannot be empty")
	}
	if c.SessionTTL < time.Minute {
		errs = append(errs, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Sprintf("invalid bcrypt cost %d: must be between %d and %d", c.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.LoginRateLimit < 1 {
		errs = append(errs, fmt.Sprintf("invalid login rate limit %d: must be at least 1", c.LoginRateLimit))
	}

	if c.AMQPEnabled() {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.CacheSize < 1 {
		errs = append(errs, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}
	if c.CacheTTL < time.Second {
		errs = append(errs, fmt.Sprintf("invalid cache TTL %v: must be at least 1 second", c.CacheTTL))
	}

	if c.RecurringInterval < time.Minute {
		errs = append(errs, fmt.Sprintf("invalid recurring interval %v: must be at least 1 minute", c.RecurringInterval))
	} else if c.RecurringInterval > 24*time.Hour {
		errs = append(errs, fmt.Sprintf("invalid recurring interval %v: must be at most 24 hours", c.RecurringInterval))
	}
	if c.RecurringConcurrency < 1 || c.RecurringConcurrency > 64 {
		errs = append(errs, fmt.Sprintf("invalid recurring concurrency %d: must be between 1 and 64", c.RecurringConcurrency))
	}

	levels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(levels, c.LogLevel) {
		errs = append(errs, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, levels))
	}

	if c.SheetsEnabled() {
		if c.GoogleReportSheetName == "" {
			errs = append(errs, "Google report sheet name is required when a spreadsheet is configured")
		}
		hasJSON := c.GoogleServiceAccountJSON != ""
		hasFile := c.GoogleServiceAccountFile != ""
		if !hasJSON && !hasFile {
			errs = append(errs, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for report export")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errs = append(errs, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
