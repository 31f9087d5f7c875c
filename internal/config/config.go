package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Telegram
	TelegramToken       string
	TelegramPollTimeout time.Duration

	// Backend selection
	DataBackend string

	// Notion
	NotionToken            string
	NotionDatabaseID       string
	NotionTitleProperty    string
	NotionDateProperty     string
	NotionCategoryProperty string
	NotionAmountProperty   string

	// Google Sheets
	GoogleSpreadsheetID       string
	GoogleSheetName           string
	GoogleCategoriesSheetName string
	GoogleServiceAccountJSON  string
	GoogleServiceAccountFile  string

	// SQLite
	SQLiteDBPath string

	// Memory
	MemorySeedDir string

	// Presentation
	Timezone       string
	AmountLocale   string
	CurrencySymbol string

	CategoryCacheTTL time.Duration

	// Per-chat throttling
	RateLimitPerMinute int
	RateLimitBurst     int

	// AMQP (optional)
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string
	AMQPQueue      string

	// Mirror worker archive
	MirrorDBPath string

	// Ops HTTP server, empty disables it
	OpsPort string

	LogLevel string
}

func Load() *Config {
	cfg := &Config{
		TelegramToken:       getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramPollTimeout: getEnvDuration("TELEGRAM_POLL_TIMEOUT", 10*time.Second),

		DataBackend: getEnv("DATA_BACKEND", "notion"),

		NotionToken:            getEnv("NOTION_TOKEN", ""),
		NotionDatabaseID:       getEnv("NOTION_DB_ID", ""),
		NotionTitleProperty:    getEnv("NOTION_TITLE_PROPERTY", "Title"),
		NotionDateProperty:     getEnv("NOTION_DATE_PROPERTY", "Date"),
		NotionCategoryProperty: getEnv("NOTION_CATEGORY_PROPERTY", "Category"),
		NotionAmountProperty:   getEnv("NOTION_AMOUNT_PROPERTY", "Amount"),

		GoogleSpreadsheetID:       getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:           getEnv("GOOGLE_SHEET_NAME", "Expenses"),
		GoogleCategoriesSheetName: getEnv("GOOGLE_CATEGORIES_SHEET_NAME", "Categories"),
		GoogleServiceAccountJSON:  getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile:  getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", getEnv("GOOGLE_APPLICATION_CREDENTIALS", "")),

		SQLiteDBPath:  getEnv("SQLITE_DB_PATH", "./data/catat.db"),
		MemorySeedDir: getEnv("MEMORY_SEED_DIR", "data"),

		Timezone:       getEnv("BOT_TIMEZONE", "UTC"),
		AmountLocale:   getEnv("AMOUNT_LOCALE", "id"),
		CurrencySymbol: getEnv("CURRENCY_SYMBOL", "Rp"),

		CategoryCacheTTL: getEnvDuration("CATEGORY_CACHE_TTL", 5*time.Minute),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 10),

		AMQPURL:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "catat"),
		AMQPRoutingKey: getEnv("AMQP_ROUTING_KEY", "expense.recorded"),
		AMQPQueue:      getEnv("AMQP_QUEUE", "catat.mirror"),

		MirrorDBPath: getEnv("MIRROR_DB_PATH", "./data/catat-mirror.db"),

		OpsPort: os.Getenv("OPS_PORT"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
	if _, set := os.LookupEnv("OPS_PORT"); !set {
		cfg.OpsPort = "8081"
	}

	return cfg
}

// Location resolves Timezone, falling back to UTC. Validate reports an
// unknown zone before this is used.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if strings.TrimSpace(c.TelegramToken) == "" {
		errors = append(errors, "TELEGRAM_BOT_TOKEN is required")
	}
	if c.TelegramPollTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid poll timeout %v: must be at least 1 second", c.TelegramPollTimeout))
	}

	validBackends := []string{"notion", "sheets", "sqlite", "memory"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case "notion":
		if c.NotionToken == "" {
			errors = append(errors, "NOTION_TOKEN is required when using notion backend")
		}
		if c.NotionDatabaseID == "" {
			errors = append(errors, "NOTION_DB_ID is required when using notion backend")
		}
		props := []struct{ name, value string }{
			{"NOTION_TITLE_PROPERTY", c.NotionTitleProperty},
			{"NOTION_DATE_PROPERTY", c.NotionDateProperty},
			{"NOTION_CATEGORY_PROPERTY", c.NotionCategoryProperty},
			{"NOTION_AMOUNT_PROPERTY", c.NotionAmountProperty},
		}
		for _, p := range props {
			if strings.TrimSpace(p.value) == "" {
				errors = append(errors, fmt.Sprintf("%s cannot be empty", p.name))
			}
		}

	case "sheets":
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when using sheets backend")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets backend")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}

	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0o755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}

	if c.CategoryCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid category cache TTL %v: must not be negative", c.CategoryCacheTTL))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 per minute", c.RateLimitPerMinute))
	}
	if c.RateLimitBurst < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit burst %d: must be at least 1", c.RateLimitBurst))
	}

	if c.AMQPURL != "" {
		errors = append(errors, c.amqpErrors()...)
	}

	if c.OpsPort != "" {
		if port, err := strconv.Atoi(c.OpsPort); err != nil {
			errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.OpsPort))
		} else if port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
		}
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateMirror checks the settings used by the mirror worker.
func (c *Config) ValidateMirror() error {
	var errors []string

	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required for the mirror worker")
	} else {
		errors = append(errors, c.amqpErrors()...)
	}
	if c.AMQPQueue == "" {
		errors = append(errors, "AMQP queue name cannot be empty")
	}
	if c.MirrorDBPath == "" {
		errors = append(errors, "MIRROR_DB_PATH cannot be empty")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func (c *Config) amqpErrors() []string {
	var errors []string
	if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
	} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
		errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
	}
	if c.AMQPExchange == "" {
		errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
	}
	if c.AMQPRoutingKey == "" {
		errors = append(errors, "AMQP routing key cannot be empty when AMQP URL is provided")
	}
	return errors
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
