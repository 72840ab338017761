package tools

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/sc2fla/internal/config"
	"github.com/Faultbox/sc2fla/internal/platform"
)

// Location is a resolved tool executable.
type Location struct {
	Tool ID
	Path string
	Mode Mode

	// Source names the candidate that matched: config, native, wine or
	// legacy.
	Source string
}

// candidate produces the paths one search strategy would use for a tool.
type candidate struct {
	name  string
	paths func(id ID) []string
}

// Resolver maps tool ids to executables. Candidates are tried in order and
// the first usable file wins. Results are cached for the resolver's
// lifetime.
type Resolver struct {
	cfg   config.ToolsConfig
	host  platform.Info
	cache *Cache

	candidates []candidate
}

// NewResolver creates a resolver for the given settings and host.
func NewResolver(cfg config.ToolsConfig, host platform.Info) *Resolver {
	r := &Resolver{cfg: cfg, host: host, cache: NewCache()}

	explicit := candidate{"config", func(id ID) []string {
		if p := cfg.Paths[string(id)]; p != "" {
			return []string{p}
		}
		return nil
	}}
	native := candidate{"native", func(id ID) []string {
		return []string{filepath.Join(cfg.BinDir, host.BinDir(), id.BinaryName()+host.BinaryExt())}
	}}
	wine := candidate{"wine", func(id ID) []string {
		if host.OS == platform.Windows {
			return nil
		}
		return []string{filepath.Join(cfg.BinDir, "windows", id.BinaryName()+".exe")}
	}}
	legacy := candidate{"legacy", func(id ID) []string {
		var out []string
		for _, dir := range cfg.LegacyDirs {
			out = append(out, filepath.Join(dir, id.BinaryName()+".exe"))
			if ext := host.BinaryExt(); ext != ".exe" {
				out = append(out, filepath.Join(dir, id.BinaryName()+ext))
			}
		}
		return out
	}}

	r.candidates = []candidate{explicit, native, wine, legacy}
	if !cfg.PreferNative {
		r.candidates = []candidate{explicit, wine, native, legacy}
	}
	return r
}

// Resolve returns the executable for id, or a *NotFoundError.
func (r *Resolver) Resolve(id ID) (Location, error) {
	if e, ok := r.cache.Get(id); ok {
		return e.Location, e.Err
	}
	loc, err := r.search(id)
	e := r.cache.Set(id, Entry{Location: loc, Err: err})
	return e.Location, e.Err
}

func (r *Resolver) search(id ID) (Location, error) {
	var searched []string
	for _, c := range r.candidates {
		for _, p := range c.paths(id) {
			searched = append(searched, p)
			if mode := r.usable(p); mode != Unavailable {
				return Location{Tool: id, Path: p, Mode: mode, Source: c.name}, nil
			}
		}
	}
	return Location{Tool: id, Mode: Unavailable}, &NotFoundError{Tool: id, Searched: searched}
}

// usable reports how path could be executed on this host.
func (r *Resolver) usable(path string) Mode {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return Unavailable
	}
	isExe := strings.EqualFold(filepath.Ext(path), ".exe")

	switch {
	case r.host.OS == platform.Windows:
		return Native
	case isExe:
		if r.cfg.UseWine && r.host.Wine != "" {
			return Wine
		}
		return Unavailable
	case info.Mode()&0111 != 0:
		return Native
	default:
		return Unavailable
	}
}

// Status is the availability of one tool.
type Status struct {
	Location
	Err error
}

// Available reports whether the tool can be run.
func (s Status) Available() bool {
	return s.Err == nil
}

// Status resolves every known tool.
func (r *Resolver) Status() []Status {
	out := make([]Status, 0, len(All))
	for _, id := range All {
		loc, err := r.Resolve(id)
		loc.Tool = id
		out = append(out, Status{Location: loc, Err: err})
	}
	return out
}

// Host returns the platform the resolver was built for.
func (r *Resolver) Host() platform.Info {
	return r.host
}

// CacheStats returns resolution cache statistics.
func (r *Resolver) CacheStats() (hits, misses int) {
	return r.cache.Stats()
}
