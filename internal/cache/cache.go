// Package cache stores compiled artifacts on disk keyed by a digest of
// the toolchain version and the source text.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"whistle/internal/artifact"
)

// Current schema version - increment when Entry format changes
const schemaVersion uint16 = 1

// Key identifies one cached compilation.
type Key [sha256.Size]byte

func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

// KeyFor hashes the toolchain version and source text.
func KeyFor(toolVersion, source string) Key {
	h := sha256.New()
	h.Write([]byte(toolVersion))
	h.Write([]byte{0})
	h.Write([]byte(source))
	var k Key
	copy(k[:], h.Sum(nil))
	return k
}

// Entry is the on-disk payload.
type Entry struct {
	Schema   uint16
	Path     string
	Module   []byte
	Digest   string
	StoredAt time.Time
}

// Cache is safe for concurrent use.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// DefaultDir returns $XDG_CACHE_HOME/app or ~/.cache/app.
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

// Open creates the cache directory if needed.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
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
	return filepath.Join(c.dir, "artifacts", key.String()+".mp")
}

// Put stores a under key. The write is atomic.
func (c *Cache) Put(key Key, path string, a *artifact.Artifact) error {
	if c == nil || a == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(f.Name())
	}()

	entry := Entry{
		Schema:   schemaVersion,
		Path:     path,
		Module:   artifact.ToBinary(a),
		Digest:   a.Digest(),
		StoredAt: time.Now().UTC(),
	}
	if err := msgpack.NewEncoder(f).Encode(&entry); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get loads the artifact stored under key. Entries with an old schema or
// a digest that does not match their bytes count as misses.
func (c *Cache) Get(key Key) (*artifact.Artifact, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var entry Entry
	if err := msgpack.NewDecoder(f).Decode(&entry); err != nil {
		return nil, false, fmt.Errorf("corrupt cache entry %s: %w", key, err)
	}
	if entry.Schema != schemaVersion {
		return nil, false, nil
	}
	a := artifact.New(entry.Module)
	if a.Digest() != entry.Digest {
		return nil, false, nil
	}
	return a, true, nil
}

// DropAll removes every entry.
func (c *Cache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o750)
}
