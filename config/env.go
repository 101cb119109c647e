package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvOverrides holds settings read from the environment.
// Zero values mean "not set".
type EnvOverrides struct {
	Seed    string `env:"EQUILIBRIUM_SEED"`
	Mode    string `env:"EQUILIBRIUM_MODE"`
	DB      string `env:"EQUILIBRIUM_DB"`
	HardCap int    `env:"EQUILIBRIUM_HARD_CAP"`
	SoftCap int    `env:"EQUILIBRIUM_SOFT_CAP"`
}

// ParseEnv loads overrides from environment variables.
func ParseEnv() (EnvOverrides, error) {
	var o EnvOverrides
	if err := env.Parse(&o); err != nil {
		return EnvOverrides{}, fmt.Errorf("parse env: %w", err)
	}
	return o, nil
}

// ApplyEnv overlays the numeric overrides onto c and re-finalizes it.
func (c *Config) ApplyEnv(o EnvOverrides) error {
	if o.HardCap > 0 {
		c.Population.HardCap = o.HardCap
	}
	if o.SoftCap > 0 {
		c.Population.SoftCap = o.SoftCap
	}
	if err := c.Finalize(); err != nil {
		return fmt.Errorf("applying env overrides: %w", err)
	}
	return nil
}
