package config

import (
	"time"

	"github.com/spf13/pflag"
)

var (
	flagConfig     = pflag.String("config", "", "Path to config file (YAML, or the legacy sc2fla_config.json)")
	flagVerbose    = pflag.BoolP("verbose", "v", false, "Enable debug logging")
	flagLogFile    = pflag.String("log-file", "", "Also write logs to this file")
	flagSortLayers = pflag.BoolP("sort-layers", "s", false, "Sort layers by draw priority")
	flagJobs       = pflag.IntP("jobs", "j", 0, "Number of files converted in parallel")
	flagOverwrite  = pflag.BoolP("overwrite", "o", false, "Overwrite existing outputs")
	flagKeep       = pflag.Bool("no-overwrite", false, "Skip inputs whose output already exists")
	flagFormat     = pflag.String("format", "", "Output format: fla or xfl")
	flagBinDir     = pflag.String("bin-dir", "", "Directory holding platform tool binaries")
	flagTimeout    = pflag.Duration("tool-timeout", 0, "Timeout for each external tool call")
	flagNoWine     = pflag.Bool("no-wine", false, "Never run Windows tools through Wine")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags(args []string) error {
	return pflag.CommandLine.Parse(args)
}

// Args returns the positional arguments left after flag parsing.
func Args() []string {
	return pflag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagVerbose {
		cfg.Logging.Level = "debug"
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
	if *flagSortLayers {
		cfg.Pipeline.SortLayers = true
	}
	if *flagJobs > 0 {
		cfg.Pipeline.Workers = *flagJobs
	}
	if *flagOverwrite {
		cfg.Pipeline.Overwrite = true
	}
	if *flagKeep {
		cfg.Pipeline.Overwrite = false
	}
	if *flagFormat != "" {
		cfg.Pipeline.OutputFormat = *flagFormat
	}
	if *flagBinDir != "" {
		cfg.Tools.BinDir = *flagBinDir
	}
	if *flagTimeout > 0 {
		cfg.Tools.Timeout = *flagTimeout
	}
	if *flagNoWine {
		cfg.Tools.UseWine = false
	}
}

// resetFlags restores flag defaults. Used by tests.
func resetFlags() {
	*flagConfig = ""
	*flagVerbose = false
	*flagLogFile = ""
	*flagSortLayers = false
	*flagJobs = 0
	*flagOverwrite = false
	*flagKeep = false
	*flagFormat = ""
	*flagBinDir = ""
	*flagTimeout = time.Duration(0)
	*flagNoWine = false
}
