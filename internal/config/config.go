package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"carteira/internal/report"
)

// Backends selectable through DATA_BACKEND.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

var validBackends = []string{BackendMemory, BackendFile, BackendSQLite}

type Config struct {
	// HTTP Server
	Port            string
	ShutdownTimeout time.Duration

	// Storage
	DataBackend  string
	DataDir      string
	SQLiteDBPath string
	SessionFile  string

	// AMQP change feed, disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Gemini advisor, disabled when GeminiAPIKey is empty
	GeminiAPIKey             string
	GeminiModel              string
	GeminiImageModel         string
	AdvisorTimeout           time.Duration
	AdvisorRequestsPerMinute int

	// Presentation
	Locale   string
	TimeZone string

	// Memoization
	CacheSize int
	CacheTTL  time.Duration

	// Worker
	WarmInterval time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Port:            getEnv("PORT", "8081"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		DataBackend:  getEnv("DATA_BACKEND", BackendSQLite),
		DataDir:      getEnv("DATA_DIR", "./data"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/carteira.db"),
		SessionFile:  getEnv("SESSION_FILE", filepath.Join(home, ".carteira", "session")),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "carteira"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_changes"),

		GeminiAPIKey:             getEnv("GEMINI_API_KEY", os.Getenv("API_KEY")),
		GeminiModel:              getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiImageModel:         getEnv("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),
		AdvisorTimeout:           getEnvDuration("ADVISOR_TIMEOUT", 60*time.Second),
		AdvisorRequestsPerMinute: getEnvInt("ADVISOR_REQUESTS_PER_MINUTE", 20),

		Locale:   getEnv("LOCALE", "pt-BR"),
		TimeZone: getEnv("TIME_ZONE", "Local"),

		CacheSize: getEnvInt("CACHE_SIZE", 256),
		CacheTTL:  getEnvDuration("CACHE_TTL", 10*time.Minute),

		WarmInterval: getEnvDuration("WARM_INTERVAL", 5*time.Minute),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// Validate validates the configuration and returns an error listing every
// problem found.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if msg := ensureDir(filepath.Dir(c.SQLiteDBPath)); msg != "" {
			errors = append(errors, fmt.Sprintf("cannot create SQLite database directory: %s", msg))
		}
	case BackendFile:
		if c.DataDir == "" {
			errors = append(errors, "data directory cannot be empty when using file backend")
		} else if msg := ensureDir(c.DataDir); msg != "" {
			errors = append(errors, fmt.Sprintf("cannot create data directory: %s", msg))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if _, err := report.LocaleByName(c.Locale); err != nil {
		errors = append(errors, fmt.Sprintf("invalid locale '%s': must be one of %v", c.Locale, report.LocaleNames()))
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid time zone '%s': %v", c.TimeZone, err))
	}

	if c.CacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	} else if c.CacheSize > 100000 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at most 100000", c.CacheSize))
	}
	errors = appendDurationCheck(errors, "cache TTL", c.CacheTTL, time.Second, 24*time.Hour)
	errors = appendDurationCheck(errors, "advisor timeout", c.AdvisorTimeout, time.Second, 5*time.Minute)
	errors = appendDurationCheck(errors, "warm interval", c.WarmInterval, time.Second, 24*time.Hour)
	errors = appendDurationCheck(errors, "shutdown timeout", c.ShutdownTimeout, time.Second, 5*time.Minute)

	if c.AdvisorRequestsPerMinute < 1 || c.AdvisorRequestsPerMinute > 1000 {
		errors = append(errors, fmt.Sprintf("invalid advisor rate %d: must be between 1 and 1000 requests per minute", c.AdvisorRequestsPerMinute))
	}

	if f := strings.ToLower(c.LogFormat); f != "text" && f != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// Location returns the configured time zone, falling back to time.Local.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}

// ReportLocale returns the configured locale, falling back to pt-BR.
func (c *Config) ReportLocale() report.Locale {
	l, err := report.LocaleByName(c.Locale)
	if err != nil {
		return report.DefaultLocale
	}
	return l
}

// AdvisorEnabled reports whether a Gemini key is configured.
func (c *Config) AdvisorEnabled() bool { return c.GeminiAPIKey != "" }

// AMQPEnabled reports whether the change feed is configured.
func (c *Config) AMQPEnabled() bool { return c.AMQPURL != "" }

func appendDurationCheck(errors []string, name string, d, lo, hi time.Duration) []string {
	if d < lo {
		return append(errors, fmt.Sprintf("invalid %s %v: must be at least %v", name, d, lo))
	}
	if d > hi {
		return append(errors, fmt.Sprintf("invalid %s %v: must be at most %v", name, d, hi))
	}
	return errors
}

func ensureDir(dir string) string {
	if dir == "." || dir == "" {
		return ""
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Sprintf("'%s': %v", dir, err)
		}
	}
	return ""
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
