// Package cache stores per-file allocation results on disk, keyed by the
// content of the IR file and the settings that influence the result.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"scopealloc/internal/report"
)

// SchemaVersion is bumped whenever Entry changes shape; entries written
// with another version read as misses.
const SchemaVersion uint16 = 1

// Key identifies one cached result.
type Key [32]byte

// String returns the hex form used as file name.
func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

// KeyOf hashes the file content together with a salt describing the
// settings the result depends on.
func KeyOf(content []byte, salt string) Key {
	h := sha256.New()
	fmt.Fprintf(h, "scopealloc/v%d\x00%s\x00", SchemaVersion, salt)
	h.Write(content)
	var k Key
	copy(k[:], h.Sum(nil))
	return k
}

// Entry is what gets stored for one file.
type Entry struct {
	Schema      uint16
	Summary     report.Summary
	Diagnostics []Diagnostic
}

// Cache is a directory of msgpack-encoded, lz4-compressed entries. Safe for
// concurrent use.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// DefaultDir returns $XDG_CACHE_HOME/<app>, falling back to ~/.cache/<app>.
func DefaultDir(app string) (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, app), nil
}

// Open creates dir if needed and returns a cache rooted there.
func Open(dir string) (*Cache, error) {
	if dir == "" {
		return nil, errors.New("cache: empty directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *Cache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *Cache) pathFor(key Key) string {
	return filepath.Join(c.dir, "results", key.String()+".mp")
}

// Put writes an entry atomically: a reader sees the old entry or the new
// one, never a partial file.
func (c *Cache) Put(key Key, e *Entry) error {
	if c == nil || e == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	stored := *e
	stored.Schema = SchemaVersion
	raw, err := msgpack.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	payload, err := compress(raw)
	if err != nil {
		return fmt.Errorf("cache: compress %s: %w", key, err)
	}

	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(payload); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, p); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// Get loads the entry for key. A missing entry or one written with another
// schema version reports false without an error.
func (c *Cache) Get(key Key) (*Entry, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	payload, err := os.ReadFile(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	raw, err := decompress(payload)
	if err != nil {
		return nil, false, fmt.Errorf("cache: decompress %s: %w", key, err)
	}

	var e Entry
	if err := msgpack.Unmarshal(raw, &e); err != nil {
		return nil, false, fmt.Errorf("cache: decode %s: %w", key, err)
	}
	if e.Schema != SchemaVersion {
		return nil, false, nil
	}
	// hits count as use for Prune
	now := time.Now()
	_ = os.Chtimes(c.pathFor(key), now, now)
	return &e, true, nil
}

// DropAll removes every entry. The directory is renamed first so a
// concurrent process never reads from a half-deleted tree.
func (c *Cache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := os.Stat(c.dir); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	old := c.dir + ".old-" + time.Now().Format("20060102150405.000000000")
	if err := os.Rename(c.dir, old); err != nil {
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}

// Stats describes the stored entries.
type Stats struct {
	Entries int
	Bytes   uint64
}

type storedFile struct {
	path    string
	size    uint64
	modTime time.Time
}

func (c *Cache) list() ([]storedFile, error) {
	dir := filepath.Join(c.dir, "results")
	des, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]storedFile, 0, len(des))
	for _, de := range des {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".mp") {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		size := info.Size()
		if size < 0 {
			size = 0
		}
		out = append(out, storedFile{
			path:    filepath.Join(dir, de.Name()),
			size:    uint64(size),
			modTime: info.ModTime(),
		})
	}
	return out, nil
}

// Stats counts the entries and their size on disk.
func (c *Cache) Stats() (Stats, error) {
	if c == nil {
		return Stats{}, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	files, err := c.list()
	if err != nil {
		return Stats{}, err
	}
	st := Stats{Entries: len(files)}
	for _, f := range files {
		st.Bytes += f.size
	}
	return st, nil
}

// Prune removes the least recently used entries until the cache holds at
// most maxBytes. maxBytes 0 means no limit. It returns what was removed.
func (c *Cache) Prune(maxBytes uint64) (Stats, error) {
	if c == nil || maxBytes == 0 {
		return Stats{}, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	files, err := c.list()
	if err != nil {
		return Stats{}, err
	}
	var total uint64
	for _, f := range files {
		total += f.size
	}
	slices.SortFunc(files, func(a, b storedFile) int {
		return a.modTime.Compare(b.modTime)
	})
	var removed Stats
	for _, f := range files {
		if total <= maxBytes {
			break
		}
		if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, err
		}
		total -= f.size
		removed.Entries++
		removed.Bytes += f.size
	}
	return removed, nil
}
