// Package config loads the optional user configuration file. Values from the
// file sit beneath environment variables and explicit flags in the defaults
// layering, so an empty or missing file is never an error.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"

	imagegen "github.com/wolfmcnally/image-gen"
)

// Models holds per-backend model overrides.
type Models struct {
	GPT    string `yaml:"gpt,omitempty"`
	Gemini string `yaml:"gemini,omitempty"`
}

// Config carries the user's defaults from ~/.config/image-gen/config.yaml.
type Config struct {
	API        string `yaml:"api,omitempty"`
	Quality    string `yaml:"quality,omitempty"`
	Size       string `yaml:"size,omitempty"`
	Moderation string `yaml:"moderation,omitempty"`
	Models     Models `yaml:"models,omitempty"`
}

// Model returns the configured model override for the given backend, or the
// empty string when none is set.
func (c *Config) Model(api imagegen.API) string {
	switch api {
	case imagegen.APIGPT:
		return c.Models.GPT
	case imagegen.APIGemini:
		return c.Models.Gemini
	}
	return ""
}

// Path returns the location of the user configuration file.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "image-gen", "config.yaml"), nil
}

// Load reads the configuration from Path. When the home directory cannot be
// resolved the file is treated as absent.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return &Config{}, nil
	}
	return LoadFile(path)
}

// LoadFile reads the configuration at path. A missing file yields a zero
// config; a file that cannot be read or parsed is a configuration error.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, imagegen.NewConfigError("config file %s: %v", path, err)
	}
	return Parse(data, path)
}

// Parse decodes YAML configuration data. Unknown keys and invalid enum
// values are configuration errors so that typos surface at startup rather
// than as puzzling request behavior.
func Parse(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.UnmarshalWithOptions(data, &cfg, yaml.Strict()); err != nil {
		return nil, imagegen.NewConfigError("config file %s: %v", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, imagegen.NewConfigError("config file %s: %v", path, err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.API != "" {
		if _, err := imagegen.ParseAPI(c.API); err != nil {
			return err
		}
	}
	if c.Quality != "" {
		if _, err := imagegen.ParseQuality(c.Quality); err != nil {
			return err
		}
	}
	if c.Moderation != "" {
		if _, err := imagegen.ParseModeration(c.Moderation); err != nil {
			return err
		}
	}
	return nil
}
