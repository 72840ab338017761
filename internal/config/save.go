package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where Save writes when no YAML config file was given.
func DefaultPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// Save writes the config to the --config file when that is a YAML file,
// otherwise to DefaultPath. A legacy JSON config is never rewritten. It
// returns the path written.
func (c *Config) Save() (string, error) {
	path := DefaultPath()
	if p := ConfigPath(); p != "" && !strings.EqualFold(filepath.Ext(p), ".json") {
		path = p
	}
	return path, c.SaveTo(path)
}

// SaveTo writes the config as YAML to path.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("# sc2fla configuration\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}
