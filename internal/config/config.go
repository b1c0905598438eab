// Package config loads scopealloc.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/dustin/go-humanize"

	"scopealloc/internal/callgraph"
	"scopealloc/internal/trace"
)

// FileName is the name searched for in the input's directory and its parents.
const FileName = "scopealloc.toml"

// Config is the merged view of defaults and the config file.
type Config struct {
	Analysis    Analysis    `toml:"analysis"`
	Diagnostics Diagnostics `toml:"diagnostics"`
	Cache       Cache       `toml:"cache"`
	Trace       Trace       `toml:"trace"`

	// Path is the file the values came from; empty for defaults.
	Path string `toml:"-"`
}

type Analysis struct {
	Roots       []string `toml:"roots"`
	Unreachable string   `toml:"unreachable"`
}

type Diagnostics struct {
	Max   int  `toml:"max"`
	Dedup bool `toml:"dedup"`
}

type Cache struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
	// MaxSize is a human size such as "64MiB"; empty means no limit.
	MaxSize string `toml:"max_size"`
}

type Trace struct {
	Level string `toml:"level"`
}

// Default returns the configuration used when no file is found.
func Default() Config {
	return Config{
		Analysis:    Analysis{Unreachable: callgraph.UnreachableVisit.String()},
		Diagnostics: Diagnostics{Max: 100, Dedup: true},
		Trace:       Trace{Level: trace.LevelOff.String()},
	}
}

// Find walks from startDir towards the filesystem root looking for FileName.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

// Load reads path on top of Default. Keys missing from the file keep their
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	if meta.IsDefined("analysis", "roots") {
		for i, r := range cfg.Analysis.Roots {
			if r == "" {
				return Config{}, fmt.Errorf("%s: [analysis].roots[%d] is empty", path, i)
			}
		}
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.Cache.Dir != "" && !filepath.IsAbs(cfg.Cache.Dir) {
		cfg.Cache.Dir = filepath.Join(filepath.Dir(path), cfg.Cache.Dir)
	}
	return cfg, nil
}

// Discover finds and loads the config for an input path, or returns the
// defaults when there is none. explicit, when set, skips the search.
func Discover(input, explicit string) (Config, error) {
	if explicit != "" {
		return Load(explicit)
	}
	start := input
	if info, err := os.Stat(input); err == nil && !info.IsDir() {
		start = filepath.Dir(input)
	}
	path, ok, err := Find(start)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks values that the TOML decoder cannot.
func (c Config) Validate() error {
	var errs []error
	if _, err := callgraph.ParseUnreachable(c.Analysis.Unreachable); err != nil {
		errs = append(errs, fmt.Errorf("[analysis].unreachable: %w", err))
	}
	if c.Diagnostics.Max < 0 {
		errs = append(errs, fmt.Errorf("[diagnostics].max must be >= 0, got %d", c.Diagnostics.Max))
	}
	if _, err := c.CacheMaxBytes(); err != nil {
		errs = append(errs, fmt.Errorf("[cache].max_size: %w", err))
	}
	if _, err := trace.ParseLevel(c.Trace.Level); err != nil {
		errs = append(errs, fmt.Errorf("[trace].level: %w", err))
	}
	return errors.Join(errs...)
}

// CacheMaxBytes parses [cache].max_size; 0 means no limit.
func (c Config) CacheMaxBytes() (uint64, error) {
	if strings.TrimSpace(c.Cache.MaxSize) == "" {
		return 0, nil
	}
	return humanize.ParseBytes(c.Cache.MaxSize)
}

// Unreachable returns the parsed unreachable policy.
func (c Config) Unreachable() callgraph.Unreachable {
	u, err := callgraph.ParseUnreachable(c.Analysis.Unreachable)
	if err != nil {
		return callgraph.UnreachableVisit
	}
	return u
}

// Salt describes the settings that change cached results, diagnostics
// included; it is mixed into cache keys.
func (c Config) Salt() string {
	return fmt.Sprintf("roots=%q unreachable=%s dedup=%t", c.Analysis.Roots, c.Unreachable(), c.Diagnostics.Dedup)
}
