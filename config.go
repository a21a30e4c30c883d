package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is read from the environment, after an optional .env file.
type Config struct {
	Port                 string        `env:"PORT" envDefault:"8080"`
	GinMode              string        `env:"GIN_MODE"`
	Env                  string        `env:"ENV" envDefault:"development"`
	LogLevel             string        `env:"LOG_LEVEL"`
	TemplateDir          string        `env:"TEMPLATE_DIR"`
	CookieMaxAge         time.Duration `env:"COOKIE_MAX_AGE" envDefault:"2h"`
	StaticCacheAge       time.Duration `env:"STATIC_CACHE_AGE" envDefault:"5m"`
	RateLimitRPS         int           `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst       int           `env:"RATE_LIMIT_BURST" envDefault:"10"`
	RateLimiterTTL       time.Duration `env:"RATE_LIMITER_TTL" envDefault:"1h"`
	LimiterSweepInterval time.Duration `env:"LIMITER_SWEEP_INTERVAL" envDefault:"30m"`
	LimiterSoftCap       int           `env:"LIMITER_SOFT_CAP" envDefault:"10000"`
	LimiterHardCap       int           `env:"LIMITER_HARD_CAP" envDefault:"50000"`
	SessionTTL           time.Duration `env:"SESSION_TTL" envDefault:"3h"`
	SessionSweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"10m"`
}

func (c Config) IsProduction() bool {
	return c.GinMode == "release" || c.Env == "production"
}

func (c Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("PORT must not be empty"))
	}
	if c.RateLimitRPS <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_RPS must be positive, got %d", c.RateLimitRPS))
	}
	if c.RateLimitBurst <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_BURST must be positive, got %d", c.RateLimitBurst))
	}
	if c.LimiterSoftCap <= 0 || c.LimiterHardCap < c.LimiterSoftCap {
		errs = append(errs, fmt.Errorf("LIMITER_SOFT_CAP (%d) must be positive and at most LIMITER_HARD_CAP (%d)", c.LimiterSoftCap, c.LimiterHardCap))
	}
	for name, d := range map[string]time.Duration{
		"COOKIE_MAX_AGE":         c.CookieMaxAge,
		"RATE_LIMITER_TTL":       c.RateLimiterTTL,
		"LIMITER_SWEEP_INTERVAL": c.LimiterSweepInterval,
		"SESSION_TTL":            c.SessionTTL,
		"SESSION_SWEEP_INTERVAL": c.SessionSweepInterval,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", name, d))
		}
	}
	return errors.Join(errs...)
}

func loadConfig() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
