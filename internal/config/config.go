package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port        string
	Environment string

	// Database
	DatabaseURL string

	// Firebase: either a credentials file or the raw service-account JSON
	FirebaseCredentialsPath string
	FirebaseCredentialsJSON string

	// Reminder scan
	ReminderSchedule string // cron expression
	TimezoneName     string // IANA name; empty means process-local
	SchedulerEnabled bool
	QueryLimit       int
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("ℹ️  No .env file found, reading environment variables from the system")
	}

	return &Config{
		Port:        getEnvWithDefault("PORT", "8080"),
		Environment: getEnvWithDefault("ENVIRONMENT", "development"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		FirebaseCredentialsPath: os.Getenv("FIREBASE_CREDENTIALS_PATH"),
		FirebaseCredentialsJSON: os.Getenv("FIREBASE_CREDENTIALS_JSON"),

		ReminderSchedule: getEnvWithDefault("REMINDER_SCHEDULE", "*/5 * * * *"),
		TimezoneName:     os.Getenv("TZ_NAME"),
		SchedulerEnabled: getEnvBool("SCHEDULER_ENABLED", true),
		QueryLimit:       getEnvInt("QUERY_LIMIT", 500),
	}, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intValue int
		if _, err := fmt.Sscanf(value, "%d", &intValue); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

// Validate checks that the required configuration is present
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.FirebaseCredentialsPath == "" && c.FirebaseCredentialsJSON == "" {
		return fmt.Errorf("FIREBASE_CREDENTIALS_PATH or FIREBASE_CREDENTIALS_JSON is required")
	}

	if c.ReminderSchedule == "" {
		return fmt.Errorf("REMINDER_SCHEDULE must not be empty")
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	return nil
}

// Location resolves the reminder calendar timezone. Empty TZ_NAME means the
// process-local zone.
func (c *Config) Location() (*time.Location, error) {
	if c.TimezoneName == "" {
		return time.Local, nil
	}

	loc, err := time.LoadLocation(c.TimezoneName)
	if err != nil {
		return nil, fmt.Errorf("invalid TZ_NAME %q: %w", c.TimezoneName, err)
	}
	return loc, nil
}

// ServiceAccountJSON returns the inline credential JSON with escaped newlines
// repaired. Service-account JSON pasted into an env var usually arrives with
// the private key's newlines as literal "\n".
func (c *Config) ServiceAccountJSON() []byte {
	if c.FirebaseCredentialsJSON == "" {
		return nil
	}
	return []byte(strings.ReplaceAll(c.FirebaseCredentialsJSON, `\n`, "\n"))
}
