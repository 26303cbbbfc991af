package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finassist/internal/log"
)

// Backends accepted by DATA_BACKEND.
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
	StorageKey   string

	// Assistant
	MonthlyIncome  decimal.Decimal
	CurrencySymbol string

	// Logging
	LogLevel  string
	LogFormat string

	// Cache
	SummaryCacheTTL time.Duration

	// Values that could not be parsed; reported by Validate.
	parseErrors []string
}

func Load() *Config {
	cfg := &Config{
		Port:           getEnv("PORT", "8081"),
		DataBackend:    strings.ToLower(getEnv("DATA_BACKEND", BackendFile)),
		DataDir:        getEnv("DATA_DIR", "./data"),
		SQLiteDBPath:   getEnv("SQLITE_DB_PATH", "./data/finassist.db"),
		StorageKey:     getEnv("STORAGE_KEY", "finassist_expenses"),
		CurrencySymbol: getEnv("CURRENCY_SYMBOL", "₹"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", log.FormatText),
	}
	cfg.MonthlyIncome = cfg.getEnvDecimal("MONTHLY_INCOME", decimal.NewFromInt(50000))
	cfg.SummaryCacheTTL = cfg.getEnvDuration("SUMMARY_CACHE_TTL", 5*time.Minute)
	cfg.ShutdownTimeout = cfg.getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second)
	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	errors := append([]string(nil), c.parseErrors...)

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case BackendFile:
		if c.DataDir == "" {
			errors = append(errors, "data directory cannot be empty when using file backend")
		}
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if strings.TrimSpace(c.StorageKey) == "" {
		errors = append(errors, "storage key cannot be empty")
	}

	if c.MonthlyIncome.IsNegative() {
		errors = append(errors, fmt.Sprintf("invalid monthly income %s: must not be negative", c.MonthlyIncome))
	}
	if c.CurrencySymbol == "" {
		errors = append(errors, "currency symbol cannot be empty")
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}
	if _, err := log.ParseFormat(c.LogFormat); err != nil {
		errors = append(errors, err.Error())
	}

	if c.SummaryCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid summary cache TTL %v: must not be negative", c.SummaryCacheTTL))
	}
	if c.ShutdownTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at least 1 second", c.ShutdownTimeout))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		c.parseErrors = append(c.parseErrors, fmt.Sprintf("invalid %s '%s': must be a number", key, value))
		return defaultValue
	}
	return d
}

func (c *Config) getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		c.parseErrors = append(c.parseErrors, fmt.Sprintf("invalid %s '%s': must be a duration", key, value))
		return defaultValue
	}
	return d
}
