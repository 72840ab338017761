// sctool inspects Supercell .sc containers.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/Faultbox/sc2fla/pkg/sc"
	"github.com/Faultbox/sc2fla/pkg/sc/codec"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "info":
		err = cmdInfo(args)
	case "tags":
		err = cmdTags(args)
	case "textures", "tex":
		err = cmdTextures(args)
	case "exports":
		err = cmdExports(args)
	case "decompress", "dx":
		err = cmdDecompress(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`sctool - Supercell .sc container utility

Usage:
  sctool <command> [options]

Commands:
  info <file.sc>                     Show container and header information
  tags <file.sc>                     Count records by tag
  textures <file.sc>                 List texture records
  exports <file.sc> [pattern]        List exported symbol names
  decompress <file.sc> [output]      Write the decompressed stream

Examples:
  sctool info hero.sc
  sctool tags -v hero_tex.sc
  sctool exports ui.sc "*button*"`)
}

// open reads and decompresses a container and parses its stream. Texture
// companions are parsed without a header.
func open(path string) (*codec.Container, *sc.Stream, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, 0, err
	}
	if v, ok := codec.FileVersion(data); ok && codec.IsSC2(v) {
		return nil, nil, 0, fmt.Errorf("%s is an SC2 file (version %d); downgrade it first", filepath.Base(path), v)
	}
	c, err := codec.Decompress(data)
	if err != nil {
		return nil, nil, 0, err
	}

	parse := sc.Parse
	if strings.HasSuffix(strings.ToLower(path), "_tex.sc") {
		parse = sc.ParseTextures
	}
	s, err := parse(c.Data)
	if err != nil {
		return c, nil, len(data), err
	}
	return c, s, len(data), nil
}

func fileArg(name string, args []string) (*pflag.FlagSet, error) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.BoolP("verbose", "v", false, "Show every record")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() < 1 {
		return nil, fmt.Errorf("usage: sctool %s <file.sc>", name)
	}
	return fs, nil
}

func cmdInfo(args []string) error {
	fs, err := fileArg("info", args)
	if err != nil {
		return err
	}
	c, s, size, err := open(fs.Arg(0))
	if err != nil {
		return err
	}

	fmt.Printf("File:        %s\n", fs.Arg(0))
	fmt.Printf("Container:   %s", c.Kind)
	if c.Version > 0 {
		fmt.Printf(" (version %d)", c.Version)
	}
	fmt.Println()
	fmt.Printf("Size:        %s compressed, %s raw\n", humanize.Bytes(uint64(size)), humanize.Bytes(uint64(len(c.Data))))
	if len(c.Hash) > 0 {
		fmt.Printf("Hash:        %x\n", c.Hash)
	}
	if len(c.Metadata) > 0 {
		fmt.Printf("Metadata:    %s\n", humanize.Bytes(uint64(len(c.Metadata))))
	}
	fmt.Printf("Records:     %d\n", len(s.Records))

	if h := s.Header; h != nil {
		fmt.Println()
		fmt.Printf("Shapes:           %d\n", h.ShapeCount)
		fmt.Printf("Movie clips:      %d\n", h.MovieClipCount)
		fmt.Printf("Textures:         %d\n", h.TextureCount)
		fmt.Printf("Text fields:      %d\n", h.TextFieldCount)
		fmt.Printf("Matrices:         %d\n", h.MatrixCount)
		fmt.Printf("Color transforms: %d\n", h.ColorTransformCount)
		fmt.Printf("Exports:          %d\n", len(h.Exports))
	}
	if !s.Terminated {
		fmt.Println("\nwarning: stream has no end tag")
	}
	return nil
}

func cmdTags(args []string) error {
	fs, err := fileArg("tags", args)
	if err != nil {
		return err
	}
	_, s, _, err := open(fs.Arg(0))
	if err != nil {
		return err
	}
	verbose, _ := fs.GetBool("verbose")

	type tagStat struct {
		tag   uint8
		kind  string
		count int
		bytes int
	}
	stats := make(map[uint8]*tagStat)
	for _, rec := range s.Records {
		h := rec.Header()
		if verbose {
			fmt.Printf("%8d  tag %-3d %-14s %s\n", h.Offset, h.Tag, recordKind(rec), humanize.Bytes(uint64(h.Length)))
		}
		st, ok := stats[h.Tag]
		if !ok {
			st = &tagStat{tag: h.Tag, kind: recordKind(rec)}
			stats[h.Tag] = st
		}
		st.count++
		st.bytes += h.Length
	}

	var sorted []*tagStat
	for _, st := range stats {
		sorted = append(sorted, st)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].tag < sorted[j].tag
	})

	if verbose {
		fmt.Println()
	}
	for _, st := range sorted {
		fmt.Printf("  tag %-3d %-14s %6d  %s\n", st.tag, st.kind, st.count, humanize.Bytes(uint64(st.bytes)))
	}
	return nil
}

func recordKind(rec sc.Record) string {
	switch r := rec.(type) {
	case *sc.TextureRef:
		return "texture"
	case *sc.ShapeDef:
		return "shape"
	case *sc.MovieClipDef:
		return "movie_clip"
	case *sc.MetadataBlock:
		return r.Kind.String()
	default:
		return "unknown"
	}
}

func cmdTextures(args []string) error {
	fs, err := fileArg("textures", args)
	if err != nil {
		return err
	}
	_, s, _, err := open(fs.Arg(0))
	if err != nil {
		return err
	}

	for _, t := range s.Textures() {
		where := "companion"
		switch {
		case len(t.KTX) > 0:
			where = "ktx " + humanize.Bytes(uint64(len(t.KTX)))
		case len(t.Pixels) > 0:
			where = "embedded " + humanize.Bytes(uint64(len(t.Pixels)))
		case t.ExternalFile != "":
			where = "external " + t.ExternalFile
		}
		tiled := ""
		if t.Tiled {
			tiled = " tiled"
		}
		fmt.Printf("  #%-3d tag %-3d %-12s %5dx%-5d %s%s\n", t.Index, t.Tag, t.PixelType, t.Width, t.Height, where, tiled)
	}
	return nil
}

func cmdExports(args []string) error {
	fs, err := fileArg("exports", args)
	if err != nil {
		return err
	}
	_, s, _, err := open(fs.Arg(0))
	if err != nil {
		return err
	}
	if s.Header == nil {
		return fmt.Errorf("%s has no export table", filepath.Base(fs.Arg(0)))
	}

	pattern := ""
	if fs.NArg() > 1 {
		pattern = strings.ToLower(fs.Arg(1))
	}

	count := 0
	for _, e := range s.Header.Exports {
		if pattern != "" {
			matched, _ := filepath.Match(pattern, strings.ToLower(e.Name))
			if !matched && !strings.Contains(strings.ToLower(e.Name), pattern) {
				continue
			}
		}
		fmt.Printf("%6d  %s\n", e.ID, e.Name)
		count++
	}

	if pattern != "" {
		fmt.Fprintf(os.Stderr, "\n(%d exports matched)\n", count)
	}
	return nil
}

func cmdDecompress(args []string) error {
	fs := pflag.NewFlagSet("decompress", pflag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: sctool decompress <file.sc> [output]")
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	c, err := codec.Decompress(data)
	if err != nil {
		return err
	}

	out := fs.Arg(0) + ".dec"
	if fs.NArg() > 1 {
		out = fs.Arg(1)
	}
	if err := os.WriteFile(out, c.Data, 0644); err != nil {
		return err
	}
	fmt.Printf("Decompressed %s (%s) -> %s (%s)\n",
		filepath.Base(fs.Arg(0)), c.Kind, out, humanize.Bytes(uint64(len(c.Data))))
	return nil
}
