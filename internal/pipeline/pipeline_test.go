package pipeline

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/sc2fla/internal/texture"
	"github.com/Faultbox/sc2fla/internal/tools"
	"github.com/Faultbox/sc2fla/pkg/sc/codec"
	"github.com/Faultbox/sc2fla/pkg/sc/sctest"
)

type invokeFunc func(ctx context.Context, tool tools.ID, input, output string) error

func (f invokeFunc) Invoke(ctx context.Context, tool tools.ID, input, output string) error {
	return f(ctx, tool, input, output)
}

func sample() []byte {
	return sctest.New().
		Export(2, "hero").
		Texture(2, 2, sctest.Solid(2, 2, 255, 0, 0, 255)).
		Shape(1, 0, sctest.Quad(0, 0, 2, 2, 0, 0, 2, 2)).
		MovieClip(2, 24, []uint16{1}, []string{"body"}, []sctest.Frame{
			{Elements: []sctest.Element{{Bind: 0, Matrix: 0xFFFF, Color: 0xFFFF}}},
		}).
		Bytes()
}

func writeSC(t *testing.T, dir, name string, raw []byte) string {
	t.Helper()
	data, err := codec.Compress(raw, codec.KindSC)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func newPipeline(t *testing.T, inv tools.Invoker, opts Options) *Pipeline {
	t.Helper()
	opts.TempDir = t.TempDir()
	p, err := New(inv, opts, nil)
	require.NoError(t, err)
	return p
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
}

func TestTargets(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.sc", "a.sc", "a_tex.sc", "notes.txt", "c.sc.dec", "sub/d.sc"} {
		touch(t, filepath.Join(dir, name))
	}
	join := func(names ...string) []string {
		var out []string
		for _, n := range names {
			out = append(out, filepath.Join(dir, n))
		}
		return out
	}

	tests := []struct {
		mode Mode
		want []string
	}{
		{Process, join("a.sc", "b.sc")},
		{DumpPNG, join("a.sc", "b.sc")},
		{Decompress, join("a.sc", "a_tex.sc", "b.sc")},
		{Compress, join("c.sc.dec")},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			got, err := Targets(dir, tt.mode)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	single, err := Targets(filepath.Join(dir, "notes.txt"), Process)
	require.NoError(t, err)
	assert.Len(t, single, 1)

	_, err = Targets(filepath.Join(dir, "missing"), Process)
	assert.Error(t, err)
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, "/a/hero.fla", OutputPath("/a/hero.sc", FormatFLA))
	assert.Equal(t, "/a/hero", OutputPath("/a/hero.sc", FormatXFL))
}

func TestBatchIsolation(t *testing.T) {
	dir := t.TempDir()
	valid := writeSC(t, dir, "valid.sc", sample())
	corrupt := filepath.Join(dir, "corrupt.sc")
	require.NoError(t, os.WriteFile(corrupt, []byte("definitely not a container"), 0644))

	paths, err := Targets(dir, Process)
	require.NoError(t, err)
	require.Equal(t, []string{corrupt, valid}, paths)

	p := newPipeline(t, nil, Options{Mode: Process, Workers: 2, Overwrite: true})
	var reported int
	sum := p.Run(context.Background(), paths, func(Result) { reported++ })

	assert.Equal(t, 2, reported)
	require.Len(t, sum.Results, 2)
	assert.Equal(t, Failed, sum.Results[0].Status)
	assert.ErrorIs(t, sum.Results[0].Err, codec.ErrUnknownFormat)
	assert.Equal(t, Success, sum.Results[1].Status)

	assert.FileExists(t, filepath.Join(dir, "valid.fla"))
	assert.NoFileExists(t, filepath.Join(dir, "corrupt.fla"))

	assert.Equal(t, 1, sum.Count(Success))
	assert.Equal(t, 1, sum.Count(Failed))
	require.Error(t, sum.Err())
	assert.Contains(t, sum.Err().Error(), "corrupt.sc")
}

func TestProcessUnresolvedTexture(t *testing.T) {
	dir := t.TempDir()
	raw := sctest.New().
		TextureRef(2, 2).
		Shape(1, 0, sctest.Quad(0, 0, 2, 2, 0, 0, 2, 2)).
		Bytes()
	path := writeSC(t, dir, "hero.sc", raw)

	p := newPipeline(t, nil, Options{Mode: Process, Overwrite: true})
	r := p.File(context.Background(), path)

	assert.Equal(t, Failed, r.Status)
	assert.ErrorIs(t, r.Err, texture.ErrUnresolvedTexture)
	assert.NoFileExists(t, filepath.Join(dir, "hero.fla"))
}

func TestProcessUnreferencedUnresolvedTexture(t *testing.T) {
	dir := t.TempDir()
	raw := sctest.New().
		Export(2, "hero").
		Texture(2, 2, sctest.Solid(2, 2, 255, 0, 0, 255)).
		TextureRef(4, 4).
		Shape(1, 0, sctest.Quad(0, 0, 2, 2, 0, 0, 2, 2)).
		MovieClip(2, 24, []uint16{1}, nil, []sctest.Frame{
			{Elements: []sctest.Element{{Bind: 0, Matrix: 0xFFFF, Color: 0xFFFF}}},
		}).
		Bytes()
	path := writeSC(t, dir, "hero.sc", raw)

	p := newPipeline(t, nil, Options{Mode: Process, Overwrite: true})
	r := p.File(context.Background(), path)

	assert.Equal(t, Failed, r.Status)
	var ue *texture.UnresolvedError
	require.ErrorAs(t, r.Err, &ue)
	assert.Equal(t, 1, ue.ID)
	assert.NoFileExists(t, filepath.Join(dir, "hero.fla"))
}

func TestProcessNoOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := writeSC(t, dir, "hero.sc", sample())
	out := filepath.Join(dir, "hero.fla")
	require.NoError(t, os.WriteFile(out, []byte("old"), 0644))

	p := newPipeline(t, nil, Options{Mode: Process})
	r := p.File(context.Background(), path)
	assert.Equal(t, Skipped, r.Status)
	assert.Contains(t, r.Reason, "output exists")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
}

func TestProcessXFL(t *testing.T) {
	dir := t.TempDir()
	path := writeSC(t, dir, "hero.sc", sample())

	p := newPipeline(t, nil, Options{Mode: Process, Overwrite: true, OutputFormat: "XFL"})
	r := p.File(context.Background(), path)
	require.Equal(t, Success, r.Status, r.Err)

	assert.FileExists(t, filepath.Join(dir, "hero", "DOMDocument.xml"))
	assert.FileExists(t, filepath.Join(dir, "hero", "hero.xfl"))
}

func TestProcessUnsupportedInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	touch(t, path)

	p := newPipeline(t, nil, Options{Mode: Process})
	r := p.File(context.Background(), path)
	assert.Equal(t, Skipped, r.Status)
	assert.Contains(t, r.Reason, "unsupported input")
}

func TestProcessDowngradesSC2(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hero.sc")
	sc2 := []byte("SC")
	sc2 = binary.BigEndian.AppendUint32(sc2, 5)
	sc2 = append(sc2, "flatbuffers"...)
	require.NoError(t, os.WriteFile(path, sc2, 0644))

	downgraded, err := codec.Compress(sample(), codec.KindSC)
	require.NoError(t, err)

	var calls []tools.ID
	inv := invokeFunc(func(_ context.Context, tool tools.ID, input, output string) error {
		calls = append(calls, tool)
		assert.Equal(t, path, input)
		return os.WriteFile(output, downgraded, 0644)
	})

	p := newPipeline(t, inv, Options{Mode: Process, Overwrite: true})
	r := p.File(context.Background(), path)
	require.Equal(t, Success, r.Status, r.Err)
	assert.Equal(t, []tools.ID{tools.ScDowngrade}, calls)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sc2, data, "input is left untouched")
}

func TestProcessSC2WithoutTools(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hero.sc")
	require.NoError(t, os.WriteFile(path, binary.BigEndian.AppendUint32([]byte("SC"), 6), 0644))

	p := newPipeline(t, nil, Options{Mode: Process, Overwrite: true})
	r := p.File(context.Background(), path)
	assert.Equal(t, Failed, r.Status)
	assert.ErrorIs(t, r.Err, tools.ErrToolNotFound)
}

func TestDumpCompleteness(t *testing.T) {
	dir := t.TempDir()
	raw := sctest.New().
		Texture(1, 1, sctest.Solid(1, 1, 1, 2, 3, 4)).
		TextureRef(2, 2).
		Texture(1, 1, sctest.Solid(1, 1, 5, 6, 7, 8)).
		Bytes()
	path := writeSC(t, dir, "hero.sc", raw)

	p := newPipeline(t, nil, Options{Mode: DumpRaw, Overwrite: true})
	r := p.File(context.Background(), path)

	require.Equal(t, Success, r.Status, r.Err)
	require.NotNil(t, r.Dump)
	assert.Len(t, r.Dump.Written, 2)
	require.Len(t, r.Dump.Skipped, 1)
	assert.Equal(t, 1, r.Dump.Skipped[0].Index)

	assert.FileExists(t, filepath.Join(dir, "hero_0.raw"))
	assert.NoFileExists(t, filepath.Join(dir, "hero_1.raw"))
	assert.FileExists(t, filepath.Join(dir, "hero_2.raw"))
	assert.NoFileExists(t, filepath.Join(dir, "hero.fla"), "dumping never assembles")
}

func TestDumpNothingResolvable(t *testing.T) {
	path := writeSC(t, t.TempDir(), "hero.sc", sctest.New().TextureRef(2, 2).Bytes())

	p := newPipeline(t, nil, Options{Mode: DumpPNG, Overwrite: true})
	r := p.File(context.Background(), path)
	assert.Equal(t, Skipped, r.Status)
	assert.Contains(t, r.Reason, "none of 1 textures")
}

func TestDecompressCompress(t *testing.T) {
	dir := t.TempDir()
	raw := sample()
	path := writeSC(t, dir, "hero.sc", raw)

	dec := newPipeline(t, nil, Options{Mode: Decompress})
	r := dec.File(context.Background(), path)
	require.Equal(t, Success, r.Status, r.Err)
	require.Equal(t, []string{path + DecompressedExt}, r.Outputs)

	data, err := os.ReadFile(path + DecompressedExt)
	require.NoError(t, err)
	assert.Equal(t, raw, data)

	cmp := newPipeline(t, nil, Options{Mode: Compress, Kind: codec.KindV1})
	r = cmp.File(context.Background(), path+DecompressedExt)
	require.Equal(t, Success, r.Status, r.Err)

	packed, err := os.ReadFile(path + DecompressedExt + CompressedExt)
	require.NoError(t, err)
	c, err := codec.Decompress(packed)
	require.NoError(t, err)
	assert.Equal(t, codec.KindV1, c.Kind)
	assert.Equal(t, raw, c.Data)
}

func TestNewRejectsBadOptions(t *testing.T) {
	_, err := New(nil, Options{Mode: Process, OutputFormat: "swf"}, nil)
	assert.Error(t, err)

	_, err = New(nil, Options{Mode: Compress, Kind: codec.KindNone}, nil)
	assert.ErrorIs(t, err, codec.ErrUnsupportedKind)
}

func TestCancelledContext(t *testing.T) {
	path := writeSC(t, t.TempDir(), "hero.sc", sample())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := newPipeline(t, nil, Options{Mode: Process, Overwrite: true})
	r := p.File(ctx, path)
	assert.Equal(t, Failed, r.Status)
	assert.ErrorIs(t, r.Err, context.Canceled)
}
