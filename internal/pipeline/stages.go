package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/sc2fla/internal/assemble"
	"github.com/Faultbox/sc2fla/internal/dump"
	"github.com/Faultbox/sc2fla/internal/logger"
	"github.com/Faultbox/sc2fla/internal/texture"
	"github.com/Faultbox/sc2fla/internal/tools"
	"github.com/Faultbox/sc2fla/pkg/sc"
	"github.com/Faultbox/sc2fla/pkg/sc/codec"
	"github.com/Faultbox/sc2fla/pkg/xfl"
)

// exists reports whether path is present and may not be replaced.
func (p *Pipeline) exists(path string) bool {
	if p.opts.Overwrite {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// load reads, downgrades when needed, decompresses and parses a main file.
func (p *Pipeline) load(ctx context.Context, path string, log *zap.Logger) (*sc.Stream, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if v, ok := codec.FileVersion(data); ok && codec.IsSC2(v) {
		log.Info("SC2 file detected, downgrading", zap.Uint32("version", v))
		if data, err = p.downgrade(ctx, path); err != nil {
			return nil, fmt.Errorf("downgrading: %w", err)
		}
	}

	container, err := codec.Decompress(data)
	if err != nil {
		return nil, err
	}
	log.Debug("decompressed",
		zap.Stringer("kind", container.Kind),
		logger.Bytes("compressed", len(data)),
		logger.Bytes("raw", len(container.Data)))

	return sc.Parse(container.Data)
}

// downgrade converts an SC2 file to SC1 into a scratch file and returns its
// contents. The input is left untouched.
func (p *Pipeline) downgrade(ctx context.Context, path string) ([]byte, error) {
	if p.invoker == nil {
		return nil, &tools.NotFoundError{Tool: tools.ScDowngrade}
	}
	dir, err := os.MkdirTemp(p.opts.TempDir, "sc2fla-downgrade-*")
	if err != nil {
		return nil, err
	}
	if !p.opts.KeepTemp {
		defer os.RemoveAll(dir)
	}

	out := filepath.Join(dir, filepath.Base(path))
	if err := p.invoker.Invoke(ctx, tools.ScDowngrade, path, out); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(out)
	if err != nil {
		return nil, err
	}
	if v, ok := codec.FileVersion(data); ok && codec.IsSC2(v) {
		return nil, fmt.Errorf("still version %d after downgrade", v)
	}
	return data, nil
}

func (p *Pipeline) process(ctx context.Context, path string, log *zap.Logger) Result {
	out := OutputPath(path, p.opts.OutputFormat)
	if p.exists(out) {
		return skipped("output exists: " + filepath.Base(out))
	}

	stream, err := p.load(ctx, path, log)
	if err != nil {
		return failed(err)
	}

	sess := p.textures.Open(path, stream)
	defer sess.Close()
	resolved, unresolved := sess.ResolveAll(ctx, true)

	doc, err := assemble.Assemble(stream, resolved, assemble.Options{
		SortLayers: p.opts.SortLayers,
		Name:       "Scene 1",
		Log:        log,
	})
	if err != nil {
		// Report why the texture could not be resolved rather than which
		// shape needed it.
		var ue *texture.UnresolvedError
		if errors.As(err, &ue) && unresolved[ue.ID] != nil {
			err = unresolved[ue.ID]
		}
		return failed(err)
	}

	if p.opts.OutputFormat == FormatXFL {
		err = xfl.WriteXFL(out, doc)
	} else {
		err = xfl.WriteFLA(out, doc)
	}
	if err != nil {
		return failed(err)
	}
	return Result{Status: Success, Outputs: []string{out}}
}

func (p *Pipeline) dump(ctx context.Context, path string, format dump.Format, log *zap.Logger) Result {
	stream, err := p.load(ctx, path, log)
	if err != nil {
		return failed(err)
	}

	sess := p.textures.Open(path, stream)
	defer sess.Close()

	count := len(stream.Textures())
	report, err := dump.Run(ctx, sess, path, count, dump.Options{
		Format:    format,
		Overwrite: p.opts.Overwrite,
		Log:       log,
	})
	if err != nil {
		return failed(err)
	}
	for _, s := range report.Skipped {
		log.Warn("texture not dumped", zap.Int("index", s.Index), zap.String("reason", s.Reason))
	}

	r := Result{Status: Success, Dump: report}
	for _, o := range report.Written {
		r.Outputs = append(r.Outputs, o.Path)
	}
	if count > 0 && len(report.Written) == 0 {
		r.Status = Skipped
		r.Reason = fmt.Sprintf("none of %d textures could be dumped", count)
	}
	return r
}

func (p *Pipeline) decompress(path string, log *zap.Logger) Result {
	out := path + DecompressedExt
	if p.exists(out) {
		return skipped("output exists: " + filepath.Base(out))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return failed(err)
	}
	container, err := codec.Decompress(data)
	if err != nil {
		return failed(err)
	}
	if err := os.WriteFile(out, container.Data, 0644); err != nil {
		return failed(err)
	}
	log.Debug("decompressed", zap.Stringer("kind", container.Kind), logger.Bytes("raw", len(container.Data)))
	return Result{Status: Success, Outputs: []string{out}}
}

func (p *Pipeline) compress(path string, log *zap.Logger) Result {
	out := path + CompressedExt
	if p.exists(out) {
		return skipped("output exists: " + filepath.Base(out))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return failed(err)
	}
	packed, err := codec.Compress(data, p.opts.Kind)
	if err != nil {
		return failed(err)
	}
	if err := os.WriteFile(out, packed, 0644); err != nil {
		return failed(err)
	}
	log.Debug("compressed", zap.Stringer("kind", p.opts.Kind), logger.Bytes("packed", len(packed)))
	return Result{Status: Success, Outputs: []string{out}}
}
