package texture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/sc2fla/internal/tools"
	"github.com/Faultbox/sc2fla/pkg/sc"
	"github.com/Faultbox/sc2fla/pkg/sc/codec"
)

// CompanionSuffix is appended to a main file's base name to form its
// texture companion.
const CompanionSuffix = "_tex.sc"

var errNoSource = errors.New("no embedded, companion or external data")

// Options configures a Resolver.
type Options struct {
	// TempDir is where scratch files for external tools are created. The
	// system temp directory is used when empty.
	TempDir string

	// KeepTemp leaves scratch files in place after Close.
	KeepTemp bool

	Log *zap.Logger
}

// Resolver creates per-file resolution sessions. It is safe for concurrent
// use; sessions are not.
type Resolver struct {
	invoker tools.Invoker
	opts    Options
	log     *zap.Logger
}

// NewResolver creates a resolver. invoker may be nil, in which case only
// natively decodable textures resolve to images.
func NewResolver(invoker tools.Invoker, opts Options) *Resolver {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{invoker: invoker, opts: opts, log: log}
}

// Session resolves the textures of one main .sc file.
type Session struct {
	r      *Resolver
	path   string
	stream *sc.Stream
	log    *zap.Logger

	companionOnce sync.Once
	companion     map[int]*sc.TextureRef
	companionPath string
	companionErr  error

	tempDir string
}

// Open starts a session for the stream parsed from path.
func (r *Resolver) Open(path string, stream *sc.Stream) *Session {
	return &Session{
		r:      r,
		path:   path,
		stream: stream,
		log:    r.log.With(zap.String("file", filepath.Base(path))),
	}
}

// Close removes scratch files.
func (s *Session) Close() error {
	if s.tempDir == "" || s.r.opts.KeepTemp {
		return nil
	}
	return os.RemoveAll(s.tempDir)
}

func (s *Session) scratch() (string, error) {
	if s.tempDir != "" {
		return s.tempDir, nil
	}
	dir, err := os.MkdirTemp(s.r.opts.TempDir, "sc2fla-tex-*")
	if err != nil {
		return "", fmt.Errorf("creating scratch directory: %w", err)
	}
	s.tempDir = dir
	return dir, nil
}

// base returns the input path without its .sc extension.
func (s *Session) base() string {
	return strings.TrimSuffix(s.path, filepath.Ext(s.path))
}

// CompanionPath returns the texture companion path for a main file.
func CompanionPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + CompanionSuffix
}

// loadCompanion reads and parses the _tex.sc companion once.
func (s *Session) loadCompanion() (map[int]*sc.TextureRef, string, error) {
	s.companionOnce.Do(func() {
		path := CompanionPath(s.path)
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				s.companionErr = err
			}
			return
		}
		container, err := codec.Decompress(data)
		if err != nil {
			s.companionErr = fmt.Errorf("%s: %w", filepath.Base(path), err)
			return
		}
		stream, err := sc.ParseTextures(container.Data)
		if err != nil {
			s.companionErr = fmt.Errorf("%s: %w", filepath.Base(path), err)
			return
		}
		s.companion = make(map[int]*sc.TextureRef)
		for _, t := range stream.Textures() {
			s.companion[t.Index] = t
		}
		s.companionPath = path
		s.log.Debug("loaded texture companion",
			zap.String("companion", filepath.Base(path)),
			zap.Int("textures", len(s.companion)))
	})
	return s.companion, s.companionPath, s.companionErr
}

// externalCandidates lists external files that may hold texture ref, in
// lookup order.
func (s *Session) externalCandidates(ref *sc.TextureRef) []string {
	dir := filepath.Dir(s.path)
	var out []string
	if name := ref.ExternalFile; name != "" {
		p := filepath.Join(dir, filepath.FromSlash(name))
		out = append(out, p)
		stem := strings.TrimSuffix(p, filepath.Ext(p))
		for _, ext := range []string{".sctx", ".ktx"} {
			if !strings.EqualFold(filepath.Ext(p), ext) {
				out = append(out, stem+ext)
			}
		}
	}
	prefix := s.base() + "_tex_" + strconv.Itoa(ref.Index)
	return append(out, prefix+".sctx", prefix+".ktx")
}

// Resolve binds one texture record. With decode unset, no external tool is
// run and Image stays nil.
func (s *Session) Resolve(ctx context.Context, ref *sc.TextureRef, decode bool) (*Resolved, error) {
	res := &Resolved{
		Index:     ref.Index,
		PixelType: ref.PixelType,
		Width:     int(ref.Width),
		Height:    int(ref.Height),
	}
	fail := func(err error) (*Resolved, error) {
		return nil, &UnresolvedError{ID: ref.Index, Cause: err}
	}

	// (a) same stream
	if ref.HasPixels() {
		res.Source, res.Origin = Embedded, s.path
		return s.finish(ctx, res, ref, decode, fail)
	}

	// (b) _tex.sc companion, matched by texture index. A companion that
	// cannot be read is only reported when no external file matches either.
	companion, path, companionErr := s.loadCompanion()
	if t, ok := companion[ref.Index]; ok && t.HasPixels() {
		res.Source, res.Origin = Companion, path
		res.PixelType = t.PixelType
		if res.Width == 0 || res.Height == 0 {
			res.Width, res.Height = int(t.Width), int(t.Height)
		}
		return s.finish(ctx, res, t, decode, fail)
	}

	// (c) external texture files
	for _, p := range s.externalCandidates(ref) {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		res.Source, res.Origin, res.Raw = External, p, data
		if !decode {
			return res, nil
		}
		img, err := s.decodeFile(ctx, p, ref.Index)
		if err != nil {
			return fail(err)
		}
		res.Image = fitSize(img, res.Width, res.Height)
		res.Width, res.Height = res.Image.Rect.Dx(), res.Image.Rect.Dy()
		return res, nil
	}

	if companionErr != nil {
		return fail(companionErr)
	}
	return fail(errNoSource)
}

func (s *Session) finish(ctx context.Context, res *Resolved, ref *sc.TextureRef, decode bool,
	fail func(error) (*Resolved, error)) (*Resolved, error) {
	if !decode {
		res.Raw = ref.Pixels
		if len(ref.KTX) > 0 {
			res.Raw = ref.KTX
		}
		return res, nil
	}
	img, raw, err := s.decodeRecord(ctx, ref)
	if err != nil {
		return fail(err)
	}
	res.Raw = raw
	res.Image = fitSize(img, res.Width, res.Height)
	return res, nil
}

// ResolveAll resolves every texture of the stream in index order. Failures
// are returned per index and do not stop the walk.
func (s *Session) ResolveAll(ctx context.Context, decode bool) (map[int]*Resolved, map[int]error) {
	resolved := make(map[int]*Resolved)
	failed := make(map[int]error)
	for _, ref := range s.stream.Textures() {
		if err := ctx.Err(); err != nil {
			failed[ref.Index] = err
			continue
		}
		res, err := s.Resolve(ctx, ref, decode)
		if err != nil {
			s.log.Debug("texture unresolved", zap.Int("index", ref.Index), zap.Error(err))
			failed[ref.Index] = err
			continue
		}
		s.log.Debug("texture resolved",
			zap.Int("index", ref.Index),
			zap.Stringer("source", res.Source),
			zap.Stringer("pixel_type", res.PixelType))
		resolved[ref.Index] = res
	}
	return resolved, failed
}
