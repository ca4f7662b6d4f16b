package cache

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whistle/internal/artifact"
)

func TestKeyFor(t *testing.T) {
	a := KeyFor("1.0", "fn main() {}")
	assert.Equal(t, a, KeyFor("1.0", "fn main() {}"))
	assert.NotEqual(t, a, KeyFor("1.1", "fn main() {}"))
	assert.NotEqual(t, a, KeyFor("1.0", "fn main() { }"))
	assert.NotEqual(t, KeyFor("ab", "c"), KeyFor("a", "bc"))
	assert.Len(t, a.String(), 64)
}

func TestPutGet(t *testing.T) {
	c, err := Open(t.TempDir())
	require.NoError(t, err)
	key := KeyFor("v", "src")

	_, ok, err := c.Get(key)
	require.NoError(t, err)
	assert.False(t, ok)

	a := artifact.New([]byte("\x00asm\x01\x00\x00\x00"))
	require.NoError(t, c.Put(key, "main.wh", a))

	got, ok, err := c.Get(key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, artifact.ToBinary(a), artifact.ToBinary(got))
}

func TestCorruptEntry(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir)
	require.NoError(t, err)
	key := KeyFor("v", "src")
	p := c.pathFor(key)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte{0xc1, 0xff}, 0o600))

	_, ok, err := c.Get(key)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestDropAll(t *testing.T) {
	c, err := Open(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)
	key := KeyFor("v", "src")
	require.NoError(t, c.Put(key, "x", artifact.New([]byte{1, 2, 3})))
	require.NoError(t, c.DropAll())
	_, ok, err := c.Get(key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConcurrentAccess(t *testing.T) {
	c, err := Open(t.TempDir())
	require.NoError(t, err)
	key := KeyFor("v", "shared")
	a := artifact.New([]byte{9, 9, 9})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, c.Put(key, "x", a))
		}()
		go func() {
			defer wg.Done()
			_, _, err := c.Get(key)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}

func TestDefaultDirHonorsXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	dir, err := DefaultDir("whistle")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg", "whistle"), dir)
}
