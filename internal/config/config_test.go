package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "8080", cfg.Port)
	assert.Empty(t, cfg.DatabaseURL)
	assert.True(t, cfg.SeedSampleData)
	assert.Equal(t, "sarah.j@email.com", cfg.DemoUserEmail)
	assert.Equal(t, 45*time.Second, cfg.AutoApplyTimeout)
	assert.Equal(t, "@every 1h", cfg.ScrapeSchedule)
	assert.Equal(t, []string{"frontend", "react"}, cfg.ScrapeTerms)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SEED_SAMPLE_DATA", "false")
	t.Setenv("AUTO_APPLY_TIMEOUT", "5s")
	t.Setenv("SCRAPE_SCHEDULE", "")
	t.Setenv("SCRAPE_TERMS", "golang, backend ,")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:5173,https://jobs.example.com")
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "9090", cfg.Port)
	assert.False(t, cfg.SeedSampleData)
	assert.Equal(t, 5*time.Second, cfg.AutoApplyTimeout)
	assert.Empty(t, cfg.ScrapeSchedule)
	assert.Equal(t, []string{"golang", "backend"}, cfg.ScrapeTerms)
	assert.Len(t, cfg.CORSAllowedOrigins, 2)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	t.Setenv("AUTO_APPLY_ENABLED", "maybe")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load()
		require.NoError(t, err)
		return cfg
	}

	cfg := base()
	cfg.Port = "http"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.ScrapeSchedule = "every hour please"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Timezone = "Mars/Olympus_Mons"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.LogLevel = "verbose"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.GmailCredentialsFile = "credentials.json"
	cfg.EmailPollInterval = time.Second
	assert.Error(t, cfg.Validate())
}
