// Package dump writes the textures of an SC file as raw blobs or PNG
// images next to the source file.
package dump

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/zeebo/blake3"
	"go.uber.org/zap"

	"github.com/Faultbox/sc2fla/internal/texture"
)

// Format selects the dump output.
type Format uint8

const (
	Raw Format = iota
	PNG
)

// Ext returns the output file extension.
func (f Format) Ext() string {
	if f == PNG {
		return ".png"
	}
	return ".raw"
}

func (f Format) String() string {
	if f == PNG {
		return "png"
	}
	return "raw"
}

// Output is one written file.
type Output struct {
	Index  int
	Path   string
	Size   int
	Digest string // blake3, hex
}

// Skip is a texture that produced no file.
type Skip struct {
	Index  int
	Reason string
}

// Report lists what a dump wrote and skipped, each in index order.
type Report struct {
	Written []Output
	Skipped []Skip
}

// Options configures a dump.
type Options struct {
	Format    Format
	Overwrite bool
	Log       *zap.Logger
}

// Path returns the dump path of texture index for source file src.
func Path(src string, index int, f Format) string {
	base := strings.TrimSuffix(src, filepath.Ext(src))
	return base + "_" + strconv.Itoa(index) + f.Ext()
}

// Run resolves every texture of the session's stream and writes them.
// Raw dumps never run external tools.
func Run(ctx context.Context, sess *texture.Session, src string, count int, opts Options) (*Report, error) {
	resolved, failed := sess.ResolveAll(ctx, opts.Format == PNG)
	return Write(src, count, resolved, failed, opts)
}

// Write dumps count textures of src. Indexes missing from resolved are
// reported as skipped with the reason from failed.
func Write(src string, count int, resolved map[int]*texture.Resolved, failed map[int]error, opts Options) (*Report, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	report := &Report{}
	for i := 0; i < count; i++ {
		res, ok := resolved[i]
		if !ok {
			reason := "unresolved"
			if err := failed[i]; err != nil {
				reason = err.Error()
			}
			report.Skipped = append(report.Skipped, Skip{Index: i, Reason: reason})
			continue
		}

		data, err := encode(res, opts.Format)
		if err != nil {
			report.Skipped = append(report.Skipped, Skip{Index: i, Reason: err.Error()})
			continue
		}

		path := Path(src, i, opts.Format)
		if !opts.Overwrite {
			if _, err := os.Stat(path); err == nil {
				report.Skipped = append(report.Skipped, Skip{Index: i, Reason: "output exists"})
				continue
			}
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return report, fmt.Errorf("writing %s: %w", filepath.Base(path), err)
		}

		sum := blake3.Sum256(data)
		out := Output{Index: i, Path: path, Size: len(data), Digest: hex.EncodeToString(sum[:])}
		report.Written = append(report.Written, out)
		log.Debug("dumped texture", zap.Int("index", i), zap.String("path", path), zap.Int("bytes", len(data)))
	}
	return report, nil
}

func encode(res *texture.Resolved, f Format) ([]byte, error) {
	if f == Raw {
		if len(res.Raw) == 0 {
			return nil, fmt.Errorf("texture %d has no raw data", res.Index)
		}
		return res.Raw, nil
	}
	if res.Image == nil {
		return nil, fmt.Errorf("texture %d was not decoded", res.Index)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, res.Image); err != nil {
		return nil, fmt.Errorf("encoding texture %d: %w", res.Index, err)
	}
	return buf.Bytes(), nil
}
