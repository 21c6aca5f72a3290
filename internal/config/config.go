package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

var ErrNoGoogleCredentials = errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")

type Config struct {
	// HTTP Server
	Port               string
	CORSAllowedOrigins []string

	// Data backend
	DataBackend  string
	DataDir      string
	SQLiteDBPath string
	PostgresDSN  string

	// AMQP; an empty URL disables publishing
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google (Sheets report and Cloud Storage)
	GoogleSpreadsheetID      string
	ReportSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	GoogleAppCredentials     string

	// Blob storage for payment proofs
	BlobBackend string
	BlobDir     string
	BlobBaseURL string
	BlobBucket  string

	// Session
	SessionSecret     string
	SessionTTL        time.Duration
	SecureCookie      bool
	AdminEmail        string
	AdminPasswordHash string

	// Aggregation
	Timezone           string
	UpcomingWindowDays int
	RevenueMonths      int
	DashboardCacheTTL  time.Duration
	ReportInterval     time.Duration

	// Logging
	LogLevel  string
	LogFormat string
	LogFile   string
}

func Load() *Config {
	cfg := &Config{
		Port:               getEnv("PORT", "8081"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),

		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		DataDir:      getEnv("DATA_DIR", "./data"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/portal.db"),
		PostgresDSN:  getEnv("POSTGRES_DSN", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "portal"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "finance_events"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		ReportSheetName:          getEnv("REPORT_SHEET_NAME", "Receita"),
		GoogleServiceAccountJSON: strings.TrimSpace(getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", "")),
		GoogleServiceAccountFile: strings.TrimSpace(getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", "")),
		GoogleAppCredentials:     strings.TrimSpace(getEnv("GOOGLE_APPLICATION_CREDENTIALS", "")),

		BlobBackend: getEnv("BLOB_BACKEND", "local"),
		BlobDir:     getEnv("BLOB_DIR", "./data/blobs"),
		BlobBaseURL: getEnv("BLOB_BASE_URL", "/files"),
		BlobBucket:  getEnv("BLOB_BUCKET", "payment-proofs"),

		SessionSecret:     getEnv("SESSION_SECRET", ""),
		SessionTTL:        getEnvDuration("SESSION_TTL", 12*time.Hour),
		SecureCookie:      getEnvBool("SESSION_SECURE_COOKIE", false),
		AdminEmail:        getEnv("ADMIN_EMAIL", ""),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),

		Timezone:           getEnv("TIMEZONE", "America/Sao_Paulo"),
		UpcomingWindowDays: getEnvInt("UPCOMING_WINDOW_DAYS", 15),
		RevenueMonths:      getEnvInt("REVENUE_MONTHS", 6),
		DashboardCacheTTL:  getEnvDuration("DASHBOARD_CACHE_TTL", 30*time.Second),
		ReportInterval:     getEnvDuration("REPORT_INTERVAL", 15*time.Minute),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
		LogFile:   getEnv("LOG_FILE", ""),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{"memory", "sqlite", "postgres"}
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}
	if c.DataBackend == "sqlite" && c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
	}
	if c.DataBackend == "postgres" && c.PostgresDSN == "" {
		errors = append(errors, "POSTGRES_DSN is required when using postgres backend")
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

	switch c.BlobBackend {
	case "local":
		if c.BlobDir == "" {
			errors = append(errors, "BLOB_DIR cannot be empty when using local blob backend")
		}
	case "gcs":
		if !c.HasGoogleCredentials() {
			errors = append(errors, "Google service account credentials are required when using gcs blob backend")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid blob backend '%s': must be one of [local gcs]", c.BlobBackend))
	}
	if c.BlobBucket == "" {
		errors = append(errors, "BLOB_BUCKET cannot be empty")
	}
	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}

	if c.AdminEmail != "" && len(c.SessionSecret) < 16 {
		errors = append(errors, "SESSION_SECRET must be at least 16 characters when ADMIN_EMAIL is set")
	}
	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}
	if c.UpcomingWindowDays < 1 || c.UpcomingWindowDays > 365 {
		errors = append(errors, fmt.Sprintf("invalid upcoming window %d: must be between 1 and 365 days", c.UpcomingWindowDays))
	}
	if c.RevenueMonths < 1 || c.RevenueMonths > 36 {
		errors = append(errors, fmt.Sprintf("invalid revenue months %d: must be between 1 and 36", c.RevenueMonths))
	}
	if c.DashboardCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid dashboard cache TTL %v: must not be negative", c.DashboardCacheTTL))
	}
	if c.ReportInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid report interval %v: must be at least 1 second", c.ReportInterval))
	} else if c.ReportInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid report interval %v: must be at most 24 hours", c.ReportInterval))
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Location returns the configured time zone, or UTC when it cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) HasGoogleCredentials() bool {
	return c.GoogleServiceAccountJSON != "" || c.GoogleServiceAccountFile != "" || c.GoogleAppCredentials != ""
}

// GoogleCredentials returns the service account JSON, preferring the inline
// value, then GOOGLE_SERVICE_ACCOUNT_FILE, then GOOGLE_APPLICATION_CREDENTIALS.
func (c *Config) GoogleCredentials() ([]byte, error) {
	switch {
	case c.GoogleServiceAccountJSON != "":
		return []byte(c.GoogleServiceAccountJSON), nil
	case c.GoogleServiceAccountFile != "":
		return readCredentials(c.GoogleServiceAccountFile)
	case c.GoogleAppCredentials != "":
		return readCredentials(c.GoogleAppCredentials)
	}
	return nil, ErrNoGoogleCredentials
}

func readCredentials(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return data, nil
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
