package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// Load reads and merges configuration from global and project paths.
// Order of precedence (highest to lowest): project config, global config, defaults.
// Files may contain comments and trailing commas. Missing files are not
// errors; malformed ones are.
func Load(globalPath, projectPath string) (*Config, error) {
	cfg := DefaultConfig()

	if globalPath != "" {
		if err := mergeConfigFile(cfg, globalPath); err != nil {
			return nil, fmt.Errorf("loading global config: %w", err)
		}
	}

	if projectPath != "" {
		if err := mergeConfigFile(cfg, projectPath); err != nil {
			return nil, fmt.Errorf("loading project config: %w", err)
		}
	}

	if _, err := cfg.PollPolicy(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DefaultPaths returns the conventional config locations.
// Global: ~/.taskfuture/config.json
// Project: .taskfuture/config.json (relative to cwd)
func DefaultPaths() (globalPath, projectPath string, err error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(homeDir, ".taskfuture", "config.json"), filepath.Join(".taskfuture", "config.json"), nil
}

// LoadDefault loads configuration from DefaultPaths.
func LoadDefault() (*Config, error) {
	globalPath, projectPath, err := DefaultPaths()
	if err != nil {
		return nil, err
	}
	return Load(globalPath, projectPath)
}

// mergeConfigFile overlays the fields present in path onto base.
func mergeConfigFile(base *Config, path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	std, err := hujson.Standardize(data)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	// Unmarshalling into base only touches keys present in the file
	if err := json.Unmarshal(std, base); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	return nil
}
