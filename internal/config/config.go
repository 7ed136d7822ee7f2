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

	"github.com/BurntSushi/toml"
)

type Config struct {
	// HTTP Server
	Port               string `toml:"port"`
	RateLimitPerMinute int    `toml:"rate_limit_per_minute"`

	// Logging
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`

	// Day keys and range windows are computed in this zone.
	Timezone string `toml:"timezone"`

	// Backend selection
	DataBackend string `toml:"data_backend"`

	SQLiteDBPath string `toml:"sqlite_db_path"`
	PostgresURL  string `toml:"postgres_url"`

	FirestoreProjectID       string `toml:"firestore_project_id"`
	FirestoreCredentialsFile string `toml:"firestore_credentials_file"`
	FirestoreCredentialsJSON string `toml:"firestore_credentials_json"`

	// Read cache in front of the store
	CacheBackend string        `toml:"cache_backend"`
	CacheSize    int           `toml:"cache_size"`
	CacheTTL     time.Duration `toml:"cache_ttl"`

	// Auth
	JWTSecret     string        `toml:"jwt_secret"`
	SessionTTL    time.Duration `toml:"session_ttl"`
	ResetTokenTTL time.Duration `toml:"reset_token_ttl"`

	// AMQP
	AMQPURL      string `toml:"amqp_url"`
	AMQPExchange string `toml:"amqp_exchange"`
	AMQPQueue    string `toml:"amqp_queue"`

	// Google Sheets mirror
	GoogleSpreadsheetID   string `toml:"google_spreadsheet_id"`
	GoogleSheetName       string `toml:"google_sheet_name"`
	GoogleOAuthClientFile string `toml:"google_oauth_client_file"`
	GoogleOAuthTokenFile  string `toml:"google_oauth_token_file"`
	GoogleOAuthClientJSON string `toml:"google_oauth_client_json"`
	GoogleOAuthTokenJSON  string `toml:"google_oauth_token_json"`

	// Worker
	WorkerPrefetch int `toml:"worker_prefetch"`
}

var (
	validBackends      = []string{"memory", "sqlite", "postgres", "firestore"}
	validCacheBackends = []string{"none", "lru", "ristretto"}
	validLogLevels     = []string{"debug", "info", "warn", "error"}
	validLogFormats    = []string{"text", "json"}
)

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		Port:               "8081",
		RateLimitPerMinute: 60,
		LogLevel:           "info",
		LogFormat:          "text",
		Timezone:           "Local",
		DataBackend:        "memory",
		SQLiteDBPath:       "./data/fintrack.db",
		CacheBackend:       "lru",
		CacheSize:          1000,
		CacheTTL:           5 * time.Minute,
		SessionTTL:         24 * time.Hour,
		ResetTokenTTL:      30 * time.Minute,
		AMQPExchange:       "fintrack",
		AMQPQueue:          "ledger_events",
		WorkerPrefetch:     10,
	}
}

// Load builds the configuration from defaults, then the TOML file named by
// CONFIG_FILE (if any), then the environment. Later sources win.
func Load() (*Config, error) {
	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", c.RateLimitPerMinute)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	c.Timezone = getEnv("APP_TIMEZONE", c.Timezone)

	c.DataBackend = getEnv("DATA_BACKEND", c.DataBackend)
	c.SQLiteDBPath = getEnv("SQLITE_DB_PATH", c.SQLiteDBPath)
	c.PostgresURL = getEnv("DATABASE_URL", c.PostgresURL)
	c.FirestoreProjectID = getEnv("FIRESTORE_PROJECT_ID", c.FirestoreProjectID)
	c.FirestoreCredentialsFile = getEnv("FIRESTORE_CREDENTIALS_FILE", c.FirestoreCredentialsFile)
	c.FirestoreCredentialsJSON = getEnv("FIRESTORE_CREDENTIALS_JSON", c.FirestoreCredentialsJSON)

	c.CacheBackend = getEnv("CACHE_BACKEND", c.CacheBackend)
	c.CacheSize = getEnvInt("CACHE_SIZE", c.CacheSize)
	c.CacheTTL = getEnvDuration("CACHE_TTL", c.CacheTTL)

	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.SessionTTL = getEnvDuration("SESSION_TTL", c.SessionTTL)
	c.ResetTokenTTL = getEnvDuration("RESET_TOKEN_TTL", c.ResetTokenTTL)

	c.AMQPURL = getEnv("AMQP_URL", c.AMQPURL)
	c.AMQPExchange = getEnv("AMQP_EXCHANGE", c.AMQPExchange)
	c.AMQPQueue = getEnv("AMQP_QUEUE", c.AMQPQueue)

	c.GoogleSpreadsheetID = getEnv("GOOGLE_SPREADSHEET_ID", c.GoogleSpreadsheetID)
	c.GoogleSheetName = getEnv("GOOGLE_SHEET_NAME", c.GoogleSheetName)
	c.GoogleOAuthClientFile = getEnv("GOOGLE_OAUTH_CLIENT_FILE", c.GoogleOAuthClientFile)
	c.GoogleOAuthTokenFile = getEnv("GOOGLE_OAUTH_TOKEN_FILE", c.GoogleOAuthTokenFile)
	c.GoogleOAuthClientJSON = getEnv("GOOGLE_OAUTH_CLIENT_JSON", c.GoogleOAuthClientJSON)
	c.GoogleOAuthTokenJSON = getEnv("GOOGLE_OAUTH_TOKEN_JSON", c.GoogleOAuthTokenJSON)

	c.WorkerPrefetch = getEnvInt("WORKER_PREFETCH", c.WorkerPrefetch)
}

// Location resolves Timezone. Validate reports a bad zone name.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimitPerMinute))
	}

	if !slices.Contains(validLogLevels, strings.ToLower(c.LogLevel)) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLogLevels))
	}
	if !slices.Contains(validLogFormats, strings.ToLower(c.LogFormat)) {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be one of %v", c.LogFormat, validLogFormats))
	}

	if c.Timezone != "" && c.Timezone != "Local" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
		}
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	case "postgres":
		if c.PostgresURL == "" {
			errors = append(errors, "DATABASE_URL is required when using postgres backend")
		} else if u, err := url.Parse(c.PostgresURL); err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
			errors = append(errors, "invalid DATABASE_URL: scheme must be 'postgres' or 'postgresql'")
		}
	case "firestore":
		if c.FirestoreProjectID == "" {
			errors = append(errors, "FIRESTORE_PROJECT_ID is required when using firestore backend")
		}
		if c.FirestoreCredentialsFile != "" {
			if _, err := os.Stat(c.FirestoreCredentialsFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Firestore credentials file does not exist: %s", c.FirestoreCredentialsFile))
			}
		}
	}

	if !slices.Contains(validCacheBackends, c.CacheBackend) {
		errors = append(errors, fmt.Sprintf("invalid cache backend '%s': must be one of %v", c.CacheBackend, validCacheBackends))
	}
	if c.CacheBackend != "none" {
		if c.CacheSize < 1 {
			errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
		}
		if c.CacheTTL < time.Second {
			errors = append(errors, fmt.Sprintf("invalid cache ttl %v: must be at least 1 second", c.CacheTTL))
		}
	}

	if len(c.JWTSecret) < 32 {
		errors = append(errors, "JWT_SECRET must be at least 32 characters")
	}
	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session ttl %v: must be at least 1 minute", c.SessionTTL))
	}
	if c.ResetTokenTTL < time.Minute || c.ResetTokenTTL > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid reset token ttl %v: must be between 1 minute and 24 hours", c.ResetTokenTTL))
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

	if c.WorkerPrefetch < 1 || c.WorkerPrefetch > 1000 {
		errors = append(errors, fmt.Sprintf("invalid worker prefetch %d: must be between 1 and 1000", c.WorkerPrefetch))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// ValidateSheets checks the settings the spreadsheet mirror needs.
func (c *Config) ValidateSheets() error {
	var errors []string
	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "GOOGLE_SPREADSHEET_ID is required for the sheets mirror")
	}
	if c.GoogleSheetName == "" {
		errors = append(errors, "GOOGLE_SHEET_NAME is required for the sheets mirror")
	}
	if c.GoogleOAuthClientFile == "" && c.GoogleOAuthClientJSON == "" {
		errors = append(errors, "either GOOGLE_OAUTH_CLIENT_FILE or GOOGLE_OAUTH_CLIENT_JSON must be provided")
	}
	if c.GoogleOAuthTokenFile == "" && c.GoogleOAuthTokenJSON == "" {
		errors = append(errors, "either GOOGLE_OAUTH_TOKEN_FILE or GOOGLE_OAUTH_TOKEN_JSON must be provided")
	}
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required for the worker")
	}
	if len(errors) > 0 {
		return fmt.Errorf("sheets configuration invalid:\n- %s", strings.Join(errors, "\n- "))
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
