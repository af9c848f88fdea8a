package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	env "github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string `env:"APP_ENV" envDefault:"production"`
	OpsPort     int    `env:"OPS_PORT" envDefault:"9090"`
	ConfigFile  string `env:"CONFIG_FILE"`

	Schedule Schedule
	Engine   Engine

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
}

// Schedule holds how often the scheduler triggers each entry point.
type Schedule struct {
	RegularInterval      time.Duration `env:"REGULAR_INTERVAL" envDefault:"1m" toml:"regular_interval"`
	SubscriptionInterval time.Duration `env:"SUBSCRIPTION_INTERVAL" envDefault:"1m" toml:"subscription_interval"`
	MonthlyInterval      time.Duration `env:"MONTHLY_INTERVAL" envDefault:"1h" toml:"monthly_interval"`
}

type Engine struct {
	CatchUpLimit int     `env:"CATCH_UP_LIMIT" envDefault:"100" toml:"catch_up_limit"`
	PenaltyRate  float64 `env:"PENALTY_RATE" envDefault:"0.05" toml:"penalty_rate"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	if cfg.ConfigFile != "" {
		if err := cfg.LoadFile(cfg.ConfigFile); err != nil {
			return nil, fmt.Errorf("config.Load: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// LoadFile overlays the [schedule] and [engine] tables of a TOML file on top
// of the current values. Keys absent from the file keep their value.
func (c *Config) LoadFile(path string) error {
	file := struct {
		Schedule *Schedule `toml:"schedule"`
		Engine   *Engine   `toml:"engine"`
	}{
		Schedule: &c.Schedule,
		Engine:   &c.Engine,
	}

	md, err := toml.DecodeFile(path, &file)
	if err != nil {
		return fmt.Errorf("LoadFile %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("LoadFile %s: unknown keys %v", path, undecoded)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Schedule.RegularInterval <= 0 || c.Schedule.SubscriptionInterval <= 0 || c.Schedule.MonthlyInterval <= 0 {
		return fmt.Errorf("schedule intervals must be positive")
	}
	if c.Engine.CatchUpLimit <= 0 {
		return fmt.Errorf("catch_up_limit must be positive, got %d", c.Engine.CatchUpLimit)
	}
	if c.Engine.PenaltyRate < 0 {
		return fmt.Errorf("penalty_rate must not be negative, got %v", c.Engine.PenaltyRate)
	}
	return nil
}
