package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PASSDOWN"

// Env holds overrides read from PASSDOWN_* variables. Empty values are unset.
type Env struct {
	Input    string `envconfig:"INPUT"`
	DB       string `envconfig:"DB"`
	Workers  int    `envconfig:"WORKERS" validate:"gte=0"`
	LogLevel string `envconfig:"LOG_LEVEL" validate:"omitempty,oneof=debug info warn error DEBUG INFO WARN ERROR"`
}

// LoadEnv reads and validates the environment overrides.
func LoadEnv() (Env, error) {
	var env Env
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return Env{}, fmt.Errorf("failed to load config from env: %w", err)
	}
	if err := validator.New().Struct(env); err != nil {
		return Env{}, fmt.Errorf("invalid %s_ environment: %w", EnvPrefix, err)
	}
	return env, nil
}

// Apply lays the environment over the file config, so flags still win
// over both.
func (e Env) Apply(fc *FileConfig) {
	if e.Input != "" {
		input := e.Input
		fc.Build.Input = &input
	}
	if e.Workers > 0 {
		workers := e.Workers
		fc.Build.Workers = &workers
	}
	if e.LogLevel != "" {
		level := e.LogLevel
		fc.Log.Level = &level
	}
}

// DBPath returns the database override or the XDG default.
func (e Env) DBPath() string {
	if e.DB != "" {
		return e.DB
	}
	return DefaultDBPath()
}
