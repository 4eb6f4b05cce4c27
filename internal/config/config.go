package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"hikelog/internal/models"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabasePath string
	Port         string
	Environment  string
	LogLevel     string
	BaseURL      string

	// GearEditMode controls whether editing a trip replaces or merges its
	// gear associations. See models.GearEditMode.
	GearEditMode models.GearEditMode

	// RateLimitPerSecond is the sustained per-IP request rate in production.
	RateLimitPerSecond int

	MailgunDomain       string
	MailgunAPIKey       string
	MailgunSenderEmail  string
	MailgunSenderName   string
	ReviewReminderEmail string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	rate, err := strconv.Atoi(getEnv("RATE_LIMIT_PER_SECOND", "20"))
	if err != nil || rate <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_PER_SECOND must be a positive integer")
	}

	cfg := &Config{
		DatabasePath:        getEnv("DATABASE_PATH", "hikelog.db"),
		Port:                getEnv("PORT", "8080"),
		Environment:         strings.ToLower(getEnv("ENVIRONMENT", "development")),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		BaseURL:             strings.TrimRight(getEnv("BASE_URL", "http://localhost:8080"), "/"),
		GearEditMode:        models.GearEditMode(strings.ToLower(getEnv("GEAR_EDIT_MODE", string(models.GearEditReplace)))),
		RateLimitPerSecond:  rate,
		MailgunDomain:       os.Getenv("MAILGUN_DOMAIN"),
		MailgunAPIKey:       os.Getenv("MAILGUN_API_KEY"),
		MailgunSenderEmail:  getEnv("MAILGUN_SENDER_EMAIL", "noreply@localhost"),
		MailgunSenderName:   getEnv("MAILGUN_SENDER_NAME", "Hike Log"),
		ReviewReminderEmail: os.Getenv("REVIEW_REMINDER_EMAIL"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.GearEditMode {
	case models.GearEditReplace, models.GearEditMerge:
	default:
		return fmt.Errorf("GEAR_EDIT_MODE must be %q or %q, got %q", models.GearEditReplace, models.GearEditMerge, c.GearEditMode)
	}

	switch c.Environment {
	case "development", "production":
	default:
		return fmt.Errorf("ENVIRONMENT must be development or production, got %q", c.Environment)
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
