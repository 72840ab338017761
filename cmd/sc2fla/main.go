// sc2fla converts Supercell .sc files into Adobe Animate projects.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/Faultbox/sc2fla/internal/config"
	"github.com/Faultbox/sc2fla/internal/logger"
	"github.com/Faultbox/sc2fla/internal/pipeline"
	"github.com/Faultbox/sc2fla/internal/platform"
	"github.com/Faultbox/sc2fla/internal/tools"
	"github.com/Faultbox/sc2fla/pkg/sc/codec"
)

var (
	flagProcess      = pflag.StringP("process", "p", "", "Process an .sc file or a directory of them")
	flagDumpRaw      = pflag.Bool("dump-raw", false, "Dump textures as raw pixel data (-dr)")
	flagDumpPNG      = pflag.Bool("dump-png", false, "Dump textures as PNG images (-dp)")
	flagDecompress   = pflag.String("decompress", "", "Decompress an .sc file to <file>.dec (-dx)")
	flagCompress     = pflag.String("compress", "", "Compress a file to <file>.cmp (-cx)")
	flagKind         = pflag.String("kind", "", "Compression kind for --compress: LZMA, SC or V1")
	flagPlatform     = pflag.Bool("platform", false, "Show platform information")
	flagTools        = pflag.Bool("tools", false, "Show tool status and paths")
	flagConfigStatus = pflag.Bool("config-status", false, "Show the effective configuration")
	flagSaveConfig   = pflag.Bool("save-config", false, "Write the effective configuration as YAML")
	flagHelp         = pflag.BoolP("help", "h", false, "Show this help message")
)

// shortForms maps the two-letter flags of the legacy command line to
// their long names. pflag only knows single-letter shorthands.
var shortForms = map[string]string{
	"-dr": "--dump-raw",
	"-dp": "--dump-png",
	"-dx": "--decompress",
	"-cx": "--compress",
}

var errUsage = errors.New("nothing to do")

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if err := config.ParseFlags(normalizeArgs(args)); err != nil {
		fmt.Fprintln(os.Stderr, failStyle.Render("error:"), err)
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, failStyle.Render("error:"), err)
		return 1
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintln(os.Stderr, failStyle.Render("error:"), err)
		return 1
	}
	defer logger.Sync()

	if err := cfg.EnsureBinDirs(); err != nil {
		logger.Warn("could not create tool directories", zap.Error(err))
	}

	host := platform.Detect()
	resolver := tools.NewResolver(cfg.Tools, host)

	switch {
	case *flagPlatform:
		printPlatform(host)
		return 0
	case *flagTools:
		printTools(resolver.Status())
		return 0
	case *flagConfigStatus:
		return printConfig(cfg)
	case *flagSaveConfig:
		path, err := cfg.Save()
		if err != nil {
			fmt.Fprintln(os.Stderr, failStyle.Render("error:"), err)
			return 1
		}
		fmt.Println(okStyle.Render("saved"), path)
		return 0
	case *flagHelp || len(args) == 0:
		printUsage(host)
		return 0
	}

	mode, path, kind, err := selectMode(currentFlags(), config.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, failStyle.Render("error:"), err)
		if errors.Is(err, errUsage) {
			printUsage(host)
		}
		return 2
	}

	opts := pipeline.OptionsFromConfig(cfg.Pipeline, mode)
	opts.Kind = kind
	runner := tools.NewRunner(resolver, cfg.Tools.Timeout, logger.Named("tools"))
	p, err := pipeline.New(runner, opts, logger.Named("pipeline"))
	if err != nil {
		fmt.Fprintln(os.Stderr, failStyle.Render("error:"), err)
		return 2
	}

	targets, err := pipeline.Targets(path, mode)
	if err != nil {
		fmt.Fprintln(os.Stderr, failStyle.Render("error:"), err)
		return 1
	}
	if len(targets) == 0 {
		fmt.Println(skipStyle.Render("no input files found in " + path))
		return 0
	}

	printSettings(mode, opts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	sum := p.Run(ctx, targets, printResult)
	printSummary(sum)

	if err := sum.Err(); err != nil {
		logger.Debug("batch finished with failures", zap.Error(err))
		return 1
	}
	return 0
}

// normalizeArgs rewrites two-letter short flags to their long names.
func normalizeArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		name, value, hasValue := strings.Cut(a, "=")
		if long, ok := shortForms[name]; ok {
			a = long
			if hasValue {
				a += "=" + value
			}
		}
		out = append(out, a)
	}
	return out
}

type cliFlags struct {
	process    string
	dumpRaw    bool
	dumpPNG    bool
	decompress string
	compress   string
	kind       string
}

func currentFlags() cliFlags {
	return cliFlags{
		process:    *flagProcess,
		dumpRaw:    *flagDumpRaw,
		dumpPNG:    *flagDumpPNG,
		decompress: *flagDecompress,
		compress:   *flagCompress,
		kind:       *flagKind,
	}
}

// selectMode picks the pipeline mode and input path. A positional argument
// stands in for --process, or names the kind after --compress FILE.
func selectMode(f cliFlags, positional []string) (pipeline.Mode, string, codec.Kind, error) {
	if f.dumpRaw && f.dumpPNG {
		return 0, "", codec.KindNone, errors.New("--dump-raw and --dump-png cannot be used together")
	}

	switch {
	case f.decompress != "":
		return pipeline.Decompress, f.decompress, codec.KindNone, nil

	case f.compress != "":
		name := f.kind
		if len(positional) > 0 {
			name = positional[0]
		}
		if name == "" {
			return 0, "", codec.KindNone, fmt.Errorf("%w: --compress needs a kind (LZMA, SC or V1)", errUsage)
		}
		kind, err := codec.ParseKind(name)
		if err != nil {
			return 0, "", codec.KindNone, err
		}
		return pipeline.Compress, f.compress, kind, nil
	}

	path := f.process
	if path == "" && len(positional) > 0 {
		path = positional[0]
	}
	if path == "" {
		return 0, "", codec.KindNone, errUsage
	}

	mode := pipeline.Process
	if f.dumpRaw {
		mode = pipeline.DumpRaw
	} else if f.dumpPNG {
		mode = pipeline.DumpPNG
	}
	return mode, path, codec.KindNone, nil
}
