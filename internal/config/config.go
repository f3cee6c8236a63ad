package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds all configuration for the application
type Config struct {
	Version  string
	LogLevel string

	OpenAIKey     string
	OpenAITimeout int // OpenAI API timeout in seconds

	SendGridAPIKey string
	FromName       string // Display name used on outgoing email
	FromEmail      string // Address used on outgoing email and in the signature

	IMAPHost     string
	IMAPPort     string
	IMAPUsername string
	IMAPPassword string

	DataDir          string // Directory holding the JSON state files
	CustomerListFile string // Allow-list of customer addresses, one per line

	ThreadExpirationDays int // Threads inactive longer than this are expired
	FirstRunMessageLimit int // Unread-fetch cap on the very first cycle
	MinResponseDelay     int // Minimum seconds to wait before sending a reply
	MaxResponseDelay     int // Maximum seconds to wait before sending a reply
	MaxSendRetries       int
	SendRetryDelay       int // Seconds between send attempts

	MeetingKeywords []string // Phrases that mark a thread terminal when present in a sent reply
}

// defaultMeetingKeywords are matched case-insensitively against outgoing
// reply text to detect that a meeting was scheduled.
var defaultMeetingKeywords = []string{
	"zoom meeting scheduled",
	"calendar invite sent",
	"meeting confirmed",
	"see you on zoom",
	"zoom link:",
	"meeting id:",
	"join zoom meeting",
}

// Load initializes and returns application configuration
func Load() *Config {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Version:  getEnv("VERSION", "1.0.0"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAITimeout: getEnvInt("OPENAI_TIMEOUT", 60),

		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		FromName:       getEnv("FROM_NAME", "MailPilot"),
		FromEmail:      os.Getenv("FROM_EMAIL"),

		IMAPHost:     os.Getenv("IMAP_HOST"),
		IMAPPort:     getEnv("IMAP_PORT", "993"),
		IMAPUsername: os.Getenv("IMAP_USERNAME"),
		IMAPPassword: os.Getenv("IMAP_PASSWORD"),

		DataDir:          getEnv("DATA_DIR", "data"),
		CustomerListFile: getEnv("CUSTOMER_LIST_FILE", "config/customers.txt"),

		ThreadExpirationDays: getEnvInt("THREAD_EXPIRATION_DAYS", 30),
		FirstRunMessageLimit: getEnvInt("FIRST_RUN_MESSAGE_LIMIT", 10),
		MinResponseDelay:     getEnvInt("MIN_RESPONSE_DELAY", 30),
		MaxResponseDelay:     getEnvInt("MAX_RESPONSE_DELAY", 120),
		MaxSendRetries:       getEnvInt("MAX_SEND_RETRIES", 3),
		SendRetryDelay:       getEnvInt("SEND_RETRY_DELAY", 1),

		MeetingKeywords: getEnvList("MEETING_KEYWORDS", defaultMeetingKeywords),
	}

	return config
}

// ThreadStoreFile returns the path of the persisted thread store
func (c *Config) ThreadStoreFile() string {
	return filepath.Join(c.DataDir, "thread_memory.json")
}

// LedgerFile returns the path of the persisted campaign ledger
func (c *Config) LedgerFile() string {
	return filepath.Join(c.DataDir, "marketing_sent.json")
}

// CursorFile returns the path of the persisted response-cycle cursor
func (c *Config) CursorFile() string {
	return filepath.Join(c.DataDir, "last_processed.json")
}

// ThreadExpiration returns the retention window as a duration
func (c *Config) ThreadExpiration() time.Duration {
	return time.Duration(c.ThreadExpirationDays) * 24 * time.Hour
}

// getEnv gets an environment variable with a default fallback
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as integer with a default fallback
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvList gets a comma-separated environment variable with a default fallback
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}

// SetupLogger configures zerolog with JSON output and single-line format
func (c *Config) SetupLogger() zerolog.Logger {
	// Configure zerolog to output JSON without newlines
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	// Create logger with JSON output to stdout
	logger := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", "mailpilot").
		Str("version", c.Version).
		Logger()

	// Set log level based on configuration
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger = logger.Level(level)

	return logger
}
