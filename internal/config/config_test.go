package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Test tool defaults
	if cfg.Tools.BinDir != "lib/bin" {
		t.Errorf("expected bin dir lib/bin, got %s", cfg.Tools.BinDir)
	}
	if len(cfg.Tools.LegacyDirs) != 2 {
		t.Errorf("expected 2 legacy dirs, got %v", cfg.Tools.LegacyDirs)
	}
	if !cfg.Tools.UseWine {
		t.Error("expected use_wine to be true by default")
	}
	if cfg.Tools.Timeout != 2*time.Minute {
		t.Errorf("expected timeout 2m, got %v", cfg.Tools.Timeout)
	}

	// Test pipeline defaults
	if cfg.Pipeline.Workers != 1 {
		t.Errorf("expected 1 worker, got %d", cfg.Pipeline.Workers)
	}
	if cfg.Pipeline.SortLayers {
		t.Error("expected sort_layers to be false by default")
	}
	if !cfg.Pipeline.Overwrite {
		t.Error("expected overwrite to be true by default")
	}
	if cfg.Pipeline.OutputFormat != "fla" {
		t.Errorf("expected output format fla, got %s", cfg.Pipeline.OutputFormat)
	}

	// Test logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
tools:
  paths:
    sctx_converter: /opt/tools/SctxConverter
  bin_dir: /opt/sc2fla/bin
  use_wine: false
  timeout: 30s

pipeline:
  workers: 4
  sort_layers: true
  overwrite: false
  output_format: xfl

logging:
  level: "debug"
  log_file: "sc2fla.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if got := cfg.Tools.Paths["sctx_converter"]; got != "/opt/tools/SctxConverter" {
		t.Errorf("expected sctx_converter path, got %q", got)
	}
	if cfg.Tools.BinDir != "/opt/sc2fla/bin" {
		t.Errorf("expected bin dir /opt/sc2fla/bin, got %s", cfg.Tools.BinDir)
	}
	if cfg.Tools.UseWine {
		t.Error("expected use_wine to be false")
	}
	if !cfg.Tools.PreferNative {
		t.Error("expected prefer_native to keep its default")
	}
	if cfg.Tools.Timeout != 30*time.Second {
		t.Errorf("expected timeout 30s, got %v", cfg.Tools.Timeout)
	}

	if cfg.Pipeline.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Pipeline.Workers)
	}
	if !cfg.Pipeline.SortLayers {
		t.Error("expected sort_layers to be true")
	}
	if cfg.Pipeline.Overwrite {
		t.Error("expected overwrite to be false")
	}
	if cfg.Pipeline.OutputFormat != "xfl" {
		t.Errorf("expected output format xfl, got %s", cfg.Pipeline.OutputFormat)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "sc2fla.log" {
		t.Errorf("expected log file 'sc2fla.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadLegacyJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, LegacyFile)

	jsonContent := `{
  // written by the old setup script
  "tool_paths": {
    "sc_downgrade": "C:/tools/ScDowngrade.exe",
    "sctx_converter": null,
  },
  "settings": {
    "use_wine": false,
    "prefer_native": false,
    "verbose": true,
    "auto_download_tools": false
  }
}`

	if err := os.WriteFile(configPath, []byte(jsonContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load legacy config: %v", err)
	}

	if got := cfg.Tools.Paths["sc_downgrade"]; got != "C:/tools/ScDowngrade.exe" {
		t.Errorf("expected sc_downgrade path, got %q", got)
	}
	if _, ok := cfg.Tools.Paths["sctx_converter"]; ok {
		t.Error("null tool path should not be set")
	}
	if cfg.Tools.UseWine || cfg.Tools.PreferNative {
		t.Error("expected wine and native preference to be disabled")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected verbose to select debug level, got %s", cfg.Logging.Level)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
pipeline:
  workers: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	os.Chdir(tmpDir)

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	if err := os.WriteFile(filepath.Join(tmpDir, LegacyFile), []byte("{}"), 0644); err != nil {
		t.Fatalf("failed to create legacy config: %v", err)
	}
	if path := findConfigFile(); filepath.Base(path) != LegacyFile {
		t.Errorf("expected to find legacy config, got %q", path)
	}

	if err := os.WriteFile(filepath.Join(tmpDir, "config.yaml"), []byte("pipeline:\n  workers: 2\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	if path := findConfigFile(); filepath.Base(path) != "config.yaml" {
		t.Errorf("expected config.yaml to win over the legacy file, got %q", path)
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name   string
		setup  func()
		verify func(*testing.T, *Config)
	}{
		{
			name:  "verbose flag",
			setup: func() { *flagVerbose = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
		},
		{
			name:  "jobs flag",
			setup: func() { *flagJobs = 8 },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Pipeline.Workers != 8 {
					t.Errorf("expected 8 workers, got %d", cfg.Pipeline.Workers)
				}
			},
		},
		{
			name:  "no-overwrite flag",
			setup: func() { *flagKeep = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Pipeline.Overwrite {
					t.Error("expected overwrite to be disabled")
				}
			},
		},
		{
			name:  "sort layers and format",
			setup: func() { *flagSortLayers = true; *flagFormat = "xfl" },
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Pipeline.SortLayers {
					t.Error("expected sort_layers to be enabled")
				}
				if cfg.Pipeline.OutputFormat != "xfl" {
					t.Errorf("expected xfl, got %s", cfg.Pipeline.OutputFormat)
				}
			},
		},
		{
			name:  "tool flags",
			setup: func() { *flagBinDir = "/bin/sc"; *flagTimeout = time.Second; *flagNoWine = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Tools.BinDir != "/bin/sc" || cfg.Tools.Timeout != time.Second || cfg.Tools.UseWine {
					t.Errorf("unexpected tools config: %+v", cfg.Tools)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer resetFlags()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
pipeline:
  workers: 2
  output_format: xfl
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagJobs = 6
	defer resetFlags()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Workers should be from flag (6), not file (2)
	if cfg.Pipeline.Workers != 6 {
		t.Errorf("expected 6 workers from flag, got %d", cfg.Pipeline.Workers)
	}

	// Output format should be from file since no flag override
	if cfg.Pipeline.OutputFormat != "xfl" {
		t.Errorf("expected xfl from file, got %s", cfg.Pipeline.OutputFormat)
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Pipeline.Workers = 3
	cfg.Tools.Paths["sc_tex"] = "/usr/local/bin/SCTex"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to reload saved config: %v", err)
	}
	if loaded.Pipeline.Workers != 3 {
		t.Errorf("expected 3 workers after reload, got %d", loaded.Pipeline.Workers)
	}
	if loaded.Tools.Paths["sc_tex"] != "/usr/local/bin/SCTex" {
		t.Errorf("expected sc_tex path after reload, got %q", loaded.Tools.Paths["sc_tex"])
	}
}

func TestEnsureBinDirs(t *testing.T) {
	cfg := Default()
	cfg.Tools.BinDir = filepath.Join(t.TempDir(), "bin")
	if err := cfg.EnsureBinDirs(); err != nil {
		t.Fatalf("EnsureBinDirs failed: %v", err)
	}
	for _, sub := range []string{"windows", "macos", "linux"} {
		if info, err := os.Stat(filepath.Join(cfg.Tools.BinDir, sub)); err != nil || !info.IsDir() {
			t.Errorf("expected %s directory", sub)
		}
	}
}

func TestSaveUsesConfigFlag(t *testing.T) {
	resetFlags()
	defer resetFlags()

	path := filepath.Join(t.TempDir(), "mine.yaml")
	*flagConfig = path

	got, err := Default().Save()
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if got != path {
		t.Errorf("expected save to %s, got %s", path, got)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if !strings.HasPrefix(string(data), "# sc2fla configuration\n") {
		t.Errorf("missing header comment: %q", data)
	}
}
