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
)

type Config struct {
	// HTTP Server
	Port string

	// Backend selection: memory or sheets
	DataBackend string
	// Seed file for the memory backend; missing file means an empty trip.
	MemorySeedFile string

	// Local cache mirror; empty disables it
	SQLiteDBPath   string
	MirrorInterval time.Duration

	// AMQP; empty URL disables mutation events
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets
	GoogleSpreadsheetID   string
	GoogleCredentialsFile string
	GoogleCredentialsJSON string
	GoogleSheetCacheTTL   time.Duration

	// Query cache
	CacheMaxEntries int
	CacheTTL        time.Duration
	QueryStaleTime  time.Duration

	// Trip
	BudgetOrigins       []string
	TripCountries       []string
	LegacyExpenseOrigin bool
	// Renumber the source partition when an entry changes country; off
	// leaves gaps the next refetch closes.
	PartitionRenumberOnMigration bool

	// Worker
	MutationLogRetention time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8081"),

		DataBackend:    getEnv("DATA_BACKEND", "memory"),
		MemorySeedFile: getEnv("MEMORY_SEED_FILE", "./data/trip.json"),

		SQLiteDBPath:   getEnvOrEmpty("SQLITE_DB_PATH", "./data/viagem.db"),
		MirrorInterval: getEnvDuration("MIRROR_INTERVAL", time.Minute),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "viagem"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "trip_mutations"),

		GoogleSpreadsheetID:   getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleCredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", ""),
		GoogleCredentialsJSON: getEnv("GOOGLE_CREDENTIALS_JSON", ""),
		GoogleSheetCacheTTL:   getEnvDuration("GOOGLE_SHEET_CACHE_TTL", 10*time.Minute),

		CacheMaxEntries: getEnvInt("CACHE_MAX_ENTRIES", 256),
		CacheTTL:        getEnvDuration("CACHE_TTL", 24*time.Hour),
		QueryStaleTime:  getEnvDuration("QUERY_STALE_TIME", 5*time.Minute),

		BudgetOrigins:       getEnvList("BUDGET_ORIGINS"),
		TripCountries:       getEnvList("TRIP_COUNTRIES"),
		LegacyExpenseOrigin: getEnvBool("LEGACY_EXPENSE_ORIGIN", false),

		PartitionRenumberOnMigration: getEnvBool("PARTITION_RENUMBER_ON_MIGRATION", true),

		MutationLogRetention: getEnvDuration("MUTATION_LOG_RETENTION", 7*24*time.Hour),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	return cfg
}

// MirrorEnabled reports whether the SQLite cache mirror is configured.
func (c *Config) MirrorEnabled() bool {
	return c.SQLiteDBPath != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{"memory", "sheets"}
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.MirrorEnabled() {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
		if c.MirrorInterval < time.Second {
			errors = append(errors, fmt.Sprintf("invalid mirror interval %v: must be at least 1 second", c.MirrorInterval))
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

	if c.DataBackend == "sheets" {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleCredentialsFile != "" {
			if _, err := os.Stat(c.GoogleCredentialsFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google credentials file does not exist: %s", c.GoogleCredentialsFile))
			}
		}
	}

	if c.CacheMaxEntries < 1 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheMaxEntries))
	}
	if c.QueryStaleTime < 0 {
		errors = append(errors, fmt.Sprintf("invalid query stale time %v: must not be negative", c.QueryStaleTime))
	}
	if c.CacheTTL > 0 && c.CacheTTL < c.QueryStaleTime {
		errors = append(errors, fmt.Sprintf("cache TTL %v is shorter than query stale time %v", c.CacheTTL, c.QueryStaleTime))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrEmpty honours a variable set to "", which getEnv treats as unset.
func getEnvOrEmpty(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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

// getEnvList splits a comma-separated variable, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
