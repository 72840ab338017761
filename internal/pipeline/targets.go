package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/sc2fla/internal/texture"
)

// Extensions of the files written by Decompress and Compress.
const (
	DecompressedExt = ".dec"
	CompressedExt   = ".cmp"
)

// Accepts reports whether mode converts the file at path. Texture
// companions are never converted on their own. Compress takes .dec files
// from directories but any file named explicitly.
func Accepts(mode Mode, path string) bool {
	name := strings.ToLower(filepath.Base(path))
	switch mode {
	case Decompress:
		return strings.HasSuffix(name, ".sc") || strings.HasSuffix(name, ".sctx")
	case Compress:
		return strings.HasSuffix(name, DecompressedExt)
	default:
		return strings.HasSuffix(name, ".sc") && !strings.HasSuffix(name, texture.CompanionSuffix)
	}
}

// Targets lists the files to convert for path. A file is returned as is;
// a directory yields its accepted files in name order, without recursing.
func Targets(path string, mode Mode) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("input: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		full := filepath.Join(path, e.Name())
		if Accepts(mode, full) {
			out = append(out, full)
		}
	}
	return out, nil
}

// OutputPath returns where Process writes the project for input.
func OutputPath(input, format string) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	if format == FormatXFL {
		return base
	}
	return base + ".fla"
}
