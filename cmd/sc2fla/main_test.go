package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/sc2fla/internal/pipeline"
	"github.com/Faultbox/sc2fla/pkg/sc/codec"
)

func TestNormalizeArgs(t *testing.T) {
	got := normalizeArgs([]string{"-p", "dir", "-dr", "-dx=a.sc", "-cx", "b.dec", "-s", "-dp"})
	assert.Equal(t, []string{"-p", "dir", "--dump-raw", "--decompress=a.sc", "--compress", "b.dec", "-s", "--dump-png"}, got)
}

func TestSelectMode(t *testing.T) {
	tests := []struct {
		name       string
		flags      cliFlags
		positional []string
		mode       pipeline.Mode
		path       string
		kind       codec.Kind
	}{
		{"process", cliFlags{process: "in"}, nil, pipeline.Process, "in", codec.KindNone},
		{"positional", cliFlags{}, []string{"in"}, pipeline.Process, "in", codec.KindNone},
		{"dump raw", cliFlags{process: "in", dumpRaw: true}, nil, pipeline.DumpRaw, "in", codec.KindNone},
		{"dump png", cliFlags{dumpPNG: true}, []string{"in"}, pipeline.DumpPNG, "in", codec.KindNone},
		{"decompress", cliFlags{decompress: "a.sc"}, nil, pipeline.Decompress, "a.sc", codec.KindNone},
		{"compress flag kind", cliFlags{compress: "a.dec", kind: "lzma"}, nil, pipeline.Compress, "a.dec", codec.KindLZMA},
		{"compress positional kind", cliFlags{compress: "a.dec", kind: "SC"}, []string{"V1"}, pipeline.Compress, "a.dec", codec.KindV1},
		{"compress positional only", cliFlags{compress: "a.dec"}, []string{"sc"}, pipeline.Compress, "a.dec", codec.KindSC},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, path, kind, err := selectMode(tt.flags, tt.positional)
			require.NoError(t, err)
			assert.Equal(t, tt.mode, mode)
			assert.Equal(t, tt.path, path)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestSelectModeErrors(t *testing.T) {
	_, _, _, err := selectMode(cliFlags{process: "in", dumpRaw: true, dumpPNG: true}, nil)
	assert.Error(t, err)

	_, _, _, err = selectMode(cliFlags{}, nil)
	assert.ErrorIs(t, err, errUsage)

	_, _, _, err = selectMode(cliFlags{compress: "a.dec", kind: "gzip"}, nil)
	assert.ErrorIs(t, err, codec.ErrUnsupportedKind)

	_, _, _, err = selectMode(cliFlags{compress: "a.dec"}, nil)
	assert.ErrorIs(t, err, errUsage, "compress has no default kind")
}
