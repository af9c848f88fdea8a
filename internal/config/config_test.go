package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "engine.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/finance")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 9090, cfg.OpsPort)
	assert.Equal(t, time.Minute, cfg.Schedule.RegularInterval)
	assert.Equal(t, time.Minute, cfg.Schedule.SubscriptionInterval)
	assert.Equal(t, time.Hour, cfg.Schedule.MonthlyInterval)
	assert.Equal(t, 100, cfg.Engine.CatchUpLimit)
	assert.InDelta(t, 0.05, cfg.Engine.PenaltyRate, 1e-9)
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	os.Unsetenv("DATABASE_URL")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_FileOverlay(t *testing.T) {
	path := writeFile(t, `
[schedule]
monthly_interval = "24h"

[engine]
penalty_rate = 0.1
`)
	t.Setenv("DATABASE_URL", "postgres://localhost/finance")
	t.Setenv("CATCH_UP_LIMIT", "20")
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 24*time.Hour, cfg.Schedule.MonthlyInterval)
	assert.Equal(t, time.Minute, cfg.Schedule.RegularInterval)
	assert.Equal(t, 20, cfg.Engine.CatchUpLimit)
	assert.InDelta(t, 0.1, cfg.Engine.PenaltyRate, 1e-9)
}

func TestLoadFile_UnknownKey(t *testing.T) {
	path := writeFile(t, `
[engine]
penalty = 0.1
`)
	cfg := &Config{}

	err := cfg.LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown keys")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Schedule: Schedule{
				RegularInterval:      time.Minute,
				SubscriptionInterval: time.Minute,
				MonthlyInterval:      time.Hour,
			},
			Engine: Engine{CatchUpLimit: 100, PenaltyRate: 0.05},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "zero interval", mutate: func(c *Config) { c.Schedule.MonthlyInterval = 0 }, wantErr: true},
		{name: "zero catch-up limit", mutate: func(c *Config) { c.Engine.CatchUpLimit = 0 }, wantErr: true},
		{name: "negative penalty rate", mutate: func(c *Config) { c.Engine.PenaltyRate = -0.01 }, wantErr: true},
		{name: "zero penalty rate", mutate: func(c *Config) { c.Engine.PenaltyRate = 0 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
