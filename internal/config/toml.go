// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Build  BuildConfig  `toml:"build"`
	Layout LayoutConfig `toml:"layout"`
	Mail   MailConfig   `toml:"mail"`
	Log    LogConfig    `toml:"log"`
}

// BuildConfig maps dataset build settings.
type BuildConfig struct {
	Input       *string `toml:"input"`
	Workers     *int    `toml:"workers"`
	CSV         *string `toml:"csv"`
	XLSX        *string `toml:"xlsx"`
	MetricsFile *string `toml:"metrics-file"`
}

// LayoutConfig maps report layout overrides.
type LayoutConfig struct {
	File             *string `toml:"layout-file"`
	NotOnFileCombine *string `toml:"not-on-file-combine"`
	SortIDBasis      *string `toml:"sort-id-basis"`
	SortIDOffset     *int    `toml:"sort-id-offset"`
	SortIDWidth      *int    `toml:"sort-id-width"`
}

// MailConfig maps the mailbox the reports arrive in.
type MailConfig struct {
	Root   *string `toml:"root"`
	Folder *string `toml:"folder"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
