// Package config handles converter configuration loading and management.
package config

import "time"

// Config holds all converter settings.
type Config struct {
	Tools    ToolsConfig    `yaml:"tools"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ToolsConfig controls how external tools are located and run.
type ToolsConfig struct {
	// Paths maps a tool id (sc_downgrade, sctx_converter, pvr_tex_tool,
	// sc_tex) to an explicit executable path.
	Paths map[string]string `yaml:"paths"`

	BinDir       string        `yaml:"bin_dir"`     // Holds windows/, macos/ and linux/ subdirectories
	LegacyDirs   []string      `yaml:"legacy_dirs"` // Searched last, for .exe builds
	UseWine      bool          `yaml:"use_wine"`
	PreferNative bool          `yaml:"prefer_native"`
	Timeout      time.Duration `yaml:"timeout"`
}

// PipelineConfig holds conversion settings.
type PipelineConfig struct {
	Workers      int    `yaml:"workers"`
	SortLayers   bool   `yaml:"sort_layers"`
	Overwrite    bool   `yaml:"overwrite"`
	OutputFormat string `yaml:"output_format"` // fla or xfl
	KeepTemp     bool   `yaml:"keep_temp"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Tools: ToolsConfig{
			Paths:        map[string]string{},
			BinDir:       "lib/bin",
			LegacyDirs:   []string{"lib", "user-scripts"},
			UseWine:      true,
			PreferNative: true,
			Timeout:      2 * time.Minute,
		},
		Pipeline: PipelineConfig{
			Workers:      1,
			SortLayers:   false,
			Overwrite:    true,
			OutputFormat: "fla",
			KeepTemp:     false,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
