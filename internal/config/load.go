package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// LegacyFile is the JSON config written by earlier releases.
const LegacyFile = "sc2fla_config.json"

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	cfg := Default()

	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	applyFlags(cfg)

	return cfg, nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		"./" + LegacyFile,
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "sc2fla")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "sc2fla")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "sc2fla")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "sc2fla")
	}
}

// loadFromFile loads config from a file, merging with existing values.
// .json files use the legacy layout.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return loadLegacy(cfg, data)
	}
	return yaml.Unmarshal(data, cfg)
}

type legacyConfig struct {
	ToolPaths map[string]*string `json:"tool_paths"`
	Settings  struct {
		UseWine      *bool `json:"use_wine"`
		PreferNative *bool `json:"prefer_native"`
		Verbose      *bool `json:"verbose"`
	} `json:"settings"`
}

// loadLegacy merges the legacy JSON layout. Comments and trailing commas
// are tolerated.
func loadLegacy(cfg *Config, data []byte) error {
	var legacy legacyConfig
	if err := json.Unmarshal(jsonc.ToJSON(data), &legacy); err != nil {
		return err
	}

	if cfg.Tools.Paths == nil {
		cfg.Tools.Paths = map[string]string{}
	}
	for id, path := range legacy.ToolPaths {
		if path != nil && *path != "" {
			cfg.Tools.Paths[id] = *path
		}
	}
	if v := legacy.Settings.UseWine; v != nil {
		cfg.Tools.UseWine = *v
	}
	if v := legacy.Settings.PreferNative; v != nil {
		cfg.Tools.PreferNative = *v
	}
	if v := legacy.Settings.Verbose; v != nil && *v {
		cfg.Logging.Level = "debug"
	}
	return nil
}

// EnsureBinDirs creates the per-platform tool directories under BinDir.
func (c *Config) EnsureBinDirs() error {
	for _, sub := range []string{"windows", "macos", "linux"} {
		if err := os.MkdirAll(filepath.Join(c.Tools.BinDir, sub), 0755); err != nil {
			return err
		}
	}
	return nil
}
