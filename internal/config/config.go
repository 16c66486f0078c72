// Package config loads runtime configuration from file and environment.
package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"weighttrend/internal/domain"
	"weighttrend/internal/forecast"
)

// Config holds everything the server needs to start.
type Config struct {
	Addr   string `mapstructure:"addr"`
	WebDir string `mapstructure:"webDir"`

	// Driver selects the storage backend: postgres, sqlite or memory.
	Driver string `mapstructure:"driver"`
	// DSN is the postgres connection string or the sqlite file path.
	DSN string `mapstructure:"dsn"`

	// Unit is the default display unit, kg or lb.
	Unit string `mapstructure:"unit"`
	// Users lists the usernames allowed to register, at most two.
	Users []string `mapstructure:"users"`

	ForecastEnabled bool                     `mapstructure:"forecastEnabled"`
	HorizonDays     int                      `mapstructure:"horizonDays"`
	MinObservations int                      `mapstructure:"minObservations"`
	Model           forecast.Hyperparameters `mapstructure:"model"`
}

// Load reads configuration from an optional file plus WEIGHTTREND_*
// environment variables. Pass an empty path to use environment and
// defaults only.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("WEIGHTTREND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("addr", ":8080")
	v.SetDefault("webDir", "web")
	v.SetDefault("driver", "sqlite")
	v.SetDefault("dsn", "weighttrend.db")
	v.SetDefault("unit", domain.UnitKg)
	v.SetDefault("users", []string{})
	v.SetDefault("forecastEnabled", true)
	v.SetDefault("horizonDays", forecast.MaxHorizonDays)
	v.SetDefault("minObservations", forecast.DefaultMinObservations)
	v.SetDefault("model.nEstimators", 0)
	v.SetDefault("model.maxDepth", 0)
	v.SetDefault("model.learningRate", 0)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, "read config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}

	if cfg.Model == (forecast.Hyperparameters{}) {
		cfg.Model = forecast.DefaultHyperparameters()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	switch c.Driver {
	case "postgres", "sqlite", "memory":
	default:
		return errors.Errorf("unknown driver %q", c.Driver)
	}
	if !domain.ValidUnit(c.Unit) {
		return errors.Errorf("unknown unit %q", c.Unit)
	}
	if len(c.Users) == 0 || len(c.Users) > 2 {
		return errors.Errorf("users must list one or two usernames, got %d", len(c.Users))
	}
	if c.HorizonDays < forecast.MinHorizonDays || c.HorizonDays > forecast.MaxHorizonDays {
		return errors.Errorf("horizonDays must be between %d and %d, got %d",
			forecast.MinHorizonDays, forecast.MaxHorizonDays, c.HorizonDays)
	}
	if c.MinObservations < 1 {
		return errors.Errorf("minObservations must be positive, got %d", c.MinObservations)
	}
	if err := c.Model.Validate(); err != nil {
		return errors.Wrap(err, "model")
	}
	return nil
}
