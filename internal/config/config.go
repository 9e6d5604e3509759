package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

type Config struct {
	// Server
	Port               string
	GinMode            string
	CORSAllowedOrigins []string
	ShutdownTimeout    time.Duration

	// Storage. An empty DatabaseURL selects the in-memory store.
	DatabaseURL    string
	SeedSampleData bool

	// Demo user every request acts as
	DemoUserEmail string
	Timezone      string

	// LLM
	GeminiAPIKey string
	GeminiModel  string

	// Auto-apply
	AutoApplyEnabled         bool
	AutoApplyTimeout         time.Duration
	AutoApplySimulateLatency bool

	// Scraping. An empty ScrapeSchedule disables the scheduler.
	ScrapeSchedule string
	ScrapeTerms    []string
	ScrapeLocation string

	// Email sync. An empty GmailCredentialsFile disables it.
	GmailCredentialsFile string
	GmailTokenFile       string
	EmailPollInterval    time.Duration

	// Logging
	LogLevel string
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment variables
// win over it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		// Defaults
		Port:                     "8080",
		GinMode:                  "release",
		CORSAllowedOrigins:       []string{"*"},
		ShutdownTimeout:          10 * time.Second,
		SeedSampleData:           true,
		DemoUserEmail:            "sarah.j@email.com",
		Timezone:                 "Local",
		GeminiModel:              "gemini-2.5-flash",
		AutoApplyEnabled:         true,
		AutoApplyTimeout:         45 * time.Second,
		AutoApplySimulateLatency: true,
		ScrapeSchedule:           "@every 1h",
		ScrapeTerms:              []string{"frontend", "react"},
		GmailTokenFile:           "token.json",
		EmailPollInterval:        5 * time.Minute,
		LogLevel:                 "info",
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		cfg.GinMode = mode
	}
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		cfg.CORSAllowedOrigins = splitList(origins)
	}
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if email := os.Getenv("DEMO_USER_EMAIL"); email != "" {
		cfg.DemoUserEmail = email
	}
	if tz := os.Getenv("TIMEZONE"); tz != "" {
		cfg.Timezone = tz
	}
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	if model := os.Getenv("GEMINI_MODEL"); model != "" {
		cfg.GeminiModel = model
	}
	if schedule, ok := os.LookupEnv("SCRAPE_SCHEDULE"); ok {
		cfg.ScrapeSchedule = strings.TrimSpace(schedule)
	}
	if terms := os.Getenv("SCRAPE_TERMS"); terms != "" {
		cfg.ScrapeTerms = splitList(terms)
	}
	cfg.ScrapeLocation = os.Getenv("SCRAPE_LOCATION")
	cfg.GmailCredentialsFile = os.Getenv("GMAIL_CREDENTIALS_FILE")
	if tokenFile := os.Getenv("GMAIL_TOKEN_FILE"); tokenFile != "" {
		cfg.GmailTokenFile = tokenFile
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	var err error
	if cfg.SeedSampleData, err = envBool("SEED_SAMPLE_DATA", cfg.SeedSampleData); err != nil {
		return nil, err
	}
	if cfg.AutoApplyEnabled, err = envBool("AUTO_APPLY_ENABLED", cfg.AutoApplyEnabled); err != nil {
		return nil, err
	}
	if cfg.AutoApplySimulateLatency, err = envBool("AUTO_APPLY_SIMULATE_LATENCY", cfg.AutoApplySimulateLatency); err != nil {
		return nil, err
	}
	if cfg.AutoApplyTimeout, err = envDuration("AUTO_APPLY_TIMEOUT", cfg.AutoApplyTimeout); err != nil {
		return nil, err
	}
	if cfg.EmailPollInterval, err = envDuration("EMAIL_POLL_INTERVAL", cfg.EmailPollInterval); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = envDuration("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port: %s", c.Port)
	}

	switch c.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("invalid gin mode: %s", c.GinMode)
	}

	if c.DemoUserEmail == "" {
		return fmt.Errorf("demo user email is empty")
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	if c.AutoApplyTimeout <= 0 {
		return fmt.Errorf("auto-apply timeout must be positive: %v", c.AutoApplyTimeout)
	}

	if c.ScrapeSchedule != "" {
		if _, err := cron.ParseStandard(c.ScrapeSchedule); err != nil {
			return fmt.Errorf("invalid scrape schedule %q: %w", c.ScrapeSchedule, err)
		}
	}

	if c.GmailCredentialsFile != "" && c.EmailPollInterval < time.Minute {
		return fmt.Errorf("email poll interval too small: %v", c.EmailPollInterval)
	}

	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive: %v", c.ShutdownTimeout)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	return nil
}

// Location resolves Timezone. It decides where "today" begins for the
// dashboard and how applications are bucketed by calendar date.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
