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
	TelegramToken string
	PollTimeout   int

	// Oracle
	GeminiAPIKey     string
	GeminiModel      string
	OracleStrictJSON bool

	// Database
	SQLiteDBPath string

	// Authorization
	SecretWord string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Export worker
	ExportBatchSize int
	ExportInterval  time.Duration

	// Abuse protection
	MessagesPerMinute int
	UserCacheTTL      time.Duration
}

func Load() *Config {
	return &Config{
		TelegramToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		PollTimeout:   getEnvInt("TELEGRAM_POLL_TIMEOUT", 60),

		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		OracleStrictJSON: getEnvBool("ORACLE_STRICT_JSON", false),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/ledgerbot.db"),

		SecretWord: getEnv("SECRET_WORD", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "ledgerbot"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "export_transactions"),

		ExportBatchSize: getEnvInt("EXPORT_BATCH_SIZE", 10),
		ExportInterval:  getEnvDuration("EXPORT_INTERVAL", 30*time.Second),

		MessagesPerMinute: getEnvInt("MESSAGES_PER_MINUTE", 20),
		UserCacheTTL:      getEnvDuration("USER_CACHE_TTL", 30*time.Second),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.PollTimeout < 1 || c.PollTimeout > 300 {
		errors = append(errors, fmt.Sprintf("invalid poll timeout %d: must be between 1 and 300 seconds", c.PollTimeout))
	}

	if c.GeminiModel == "" {
		errors = append(errors, "Gemini model name cannot be empty")
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

	if c.ExportBatchSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid export batch size %d: must be at least 1", c.ExportBatchSize))
	} else if c.ExportBatchSize > 1000 {
		errors = append(errors, fmt.Sprintf("invalid export batch size %d: must be at most 1000", c.ExportBatchSize))
	}

	if c.ExportInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid export interval %v: must be at least 1 second", c.ExportInterval))
	} else if c.ExportInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid export interval %v: must be at most 24 hours", c.ExportInterval))
	}

	if c.MessagesPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid messages per minute %d: must be at least 1", c.MessagesPerMinute))
	}

	if c.SecretWord != "" && len(strings.Fields(c.SecretWord)) != 1 {
		errors = append(errors, "secret word must be a single word")
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
