// Package pipeline runs conversions over single files or directories.
// Every file is converted independently; one file failing never stops
// the others.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/sc2fla/internal/config"
	"github.com/Faultbox/sc2fla/internal/dump"
	"github.com/Faultbox/sc2fla/internal/logger"
	"github.com/Faultbox/sc2fla/internal/texture"
	"github.com/Faultbox/sc2fla/internal/tools"
	"github.com/Faultbox/sc2fla/pkg/sc/codec"
)

// ErrUnsupportedInput is returned for files a mode does not accept.
var ErrUnsupportedInput = errors.New("unsupported input")

// Mode selects the stages run per file.
type Mode uint8

const (
	Process Mode = iota
	DumpRaw
	DumpPNG
	Decompress
	Compress
)

func (m Mode) String() string {
	switch m {
	case Process:
		return "process"
	case DumpRaw:
		return "dump-raw"
	case DumpPNG:
		return "dump-png"
	case Decompress:
		return "decompress"
	case Compress:
		return "compress"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// Status is the outcome of one file.
type Status uint8

const (
	Success Status = iota
	Skipped
	Failed
)

func (s Status) String() string {
	switch s {
	case Success:
		return "ok"
	case Skipped:
		return "skipped"
	default:
		return "failed"
	}
}

// Result is the outcome of one file.
type Result struct {
	Path   string
	Status Status

	// Reason explains a Skipped result.
	Reason string

	// Err is set for Failed results.
	Err error

	// Outputs lists the files or directories written.
	Outputs  []string
	Duration time.Duration

	// Dump is set in dump modes.
	Dump *dump.Report
}

// Output formats for Process.
const (
	FormatFLA = "fla"
	FormatXFL = "xfl"
)

// Options configures a Pipeline.
type Options struct {
	Mode Mode

	// Kind is the container written by Compress.
	Kind codec.Kind

	SortLayers bool

	// Workers bounds how many files are converted at once. Values below 1
	// mean sequential.
	Workers int

	// Overwrite replaces existing outputs. Without it a file whose output
	// exists is skipped.
	Overwrite bool

	// OutputFormat is FormatFLA or FormatXFL.
	OutputFormat string

	// TempDir holds scratch files; the system temp directory when empty.
	TempDir  string
	KeepTemp bool
}

// OptionsFromConfig fills Options from the pipeline section of the config.
func OptionsFromConfig(cfg config.PipelineConfig, mode Mode) Options {
	return Options{
		Mode:         mode,
		SortLayers:   cfg.SortLayers,
		Workers:      cfg.Workers,
		Overwrite:    cfg.Overwrite,
		OutputFormat: cfg.OutputFormat,
		KeepTemp:     cfg.KeepTemp,
	}
}

// Pipeline converts files. It is safe for concurrent use.
type Pipeline struct {
	opts     Options
	invoker  tools.Invoker
	textures *texture.Resolver
	log      *zap.Logger
}

// New creates a pipeline. invoker runs external tools and may be nil when
// none are available.
func New(invoker tools.Invoker, opts Options, log *zap.Logger) (*Pipeline, error) {
	log = logger.OrNop(log)
	switch strings.ToLower(opts.OutputFormat) {
	case "":
		opts.OutputFormat = FormatFLA
	case FormatFLA, FormatXFL:
		opts.OutputFormat = strings.ToLower(opts.OutputFormat)
	default:
		return nil, fmt.Errorf("unknown output format %q (expected fla or xfl)", opts.OutputFormat)
	}
	if opts.Mode == Compress {
		switch opts.Kind {
		case codec.KindLZMA, codec.KindSC, codec.KindV1:
		default:
			return nil, fmt.Errorf("%w: %v", codec.ErrUnsupportedKind, opts.Kind)
		}
	}

	return &Pipeline{
		opts:    opts,
		invoker: invoker,
		textures: texture.NewResolver(invoker, texture.Options{
			TempDir:  opts.TempDir,
			KeepTemp: opts.KeepTemp,
			Log:      log.Named("texture"),
		}),
		log: log,
	}, nil
}

// Summary collects the results of a run in input order.
type Summary struct {
	Results []Result
	Elapsed time.Duration
}

// Count returns the number of results with status s.
func (s *Summary) Count(st Status) int {
	n := 0
	for _, r := range s.Results {
		if r.Status == st {
			n++
		}
	}
	return n
}

// Err combines the errors of all failed files, or returns nil.
func (s *Summary) Err() error {
	var err error
	for _, r := range s.Results {
		if r.Status == Failed {
			err = multierr.Append(err, fmt.Errorf("%s: %w", filepath.Base(r.Path), r.Err))
		}
	}
	return err
}

// Run converts paths with at most Workers files in flight. report, when
// set, is called once per file as it completes; calls are serialized.
func (p *Pipeline) Run(ctx context.Context, paths []string, report func(Result)) *Summary {
	start := time.Now()
	results := make([]Result, len(paths))

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(max(1, p.opts.Workers))
	for i, path := range paths {
		i, path := i, path // per-iteration copies (module targets go 1.21)
		g.Go(func() error {
			r := p.File(ctx, path)
			results[i] = r
			if report != nil {
				mu.Lock()
				report(r)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return &Summary{Results: results, Elapsed: time.Since(start)}
}

// File converts a single file.
func (p *Pipeline) File(ctx context.Context, path string) Result {
	start := time.Now()
	log := p.log.With(zap.String("file", filepath.Base(path)))

	var r Result
	if err := ctx.Err(); err != nil {
		r = failed(err)
	} else if p.opts.Mode != Compress && !Accepts(p.opts.Mode, path) {
		r = skipped(fmt.Sprintf("%v for %s", ErrUnsupportedInput, p.opts.Mode))
	} else {
		switch p.opts.Mode {
		case Process:
			r = p.process(ctx, path, log)
		case DumpRaw:
			r = p.dump(ctx, path, dump.Raw, log)
		case DumpPNG:
			r = p.dump(ctx, path, dump.PNG, log)
		case Decompress:
			r = p.decompress(path, log)
		case Compress:
			r = p.compress(path, log)
		default:
			r = failed(fmt.Errorf("unknown mode %v", p.opts.Mode))
		}
	}

	r.Path = path
	r.Duration = time.Since(start)
	switch r.Status {
	case Failed:
		log.Error("conversion failed", zap.Stringer("mode", p.opts.Mode), zap.Error(r.Err))
	case Skipped:
		log.Warn("skipped", zap.String("reason", r.Reason))
	default:
		log.Debug("done", zap.Strings("outputs", r.Outputs), zap.Duration("took", r.Duration))
	}
	return r
}

func failed(err error) Result {
	return Result{Status: Failed, Err: err}
}

func skipped(reason string) Result {
	return Result{Status: Skipped, Reason: reason}
}
