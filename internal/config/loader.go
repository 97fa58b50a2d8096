package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/hello-nrfcloud/backend-sub002/internal/constants"
	"github.com/hello-nrfcloud/backend-sub002/internal/safe"
)

// ConfigEnvVar overrides the default config file location.
const ConfigEnvVar = "HELLO_CONFIG"

// DefaultPath returns $HELLO_CONFIG or ~/.hello-nrfcloud/config.yaml.
func DefaultPath() string {
	if p := os.Getenv(ConfigEnvVar); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, constants.DefaultDir, constants.ConfigFile)
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides and validates the result. A missing file at the default location
// is not an error. A missing file that was asked for explicitly is.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	cfg := Default()
	if path != "" {
		data, err := safe.ReadFile(path, &safe.ReadOptions{AllowSymlinks: true})
		switch {
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	if err := MergeFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv returns the defaults with environment overrides applied, the way
// the Lambda handlers are configured.
func FromEnv() (*Config, error) {
	cfg := Default()
	if err := MergeFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path as YAML, creating the directory if needed.
func Save(path string, cfg *Config) error {
	//nolint:gosec // G301: directory needs standard permissions for traversal.
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
