package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, ManifestName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFindsManifestInParents(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, `
[package]
name = "demo"
path = "src/main.wh"
version = "1.0.0"
author = "someone"
`)
	nested := filepath.Join(root, "src", "deep")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	m, err := Load(nested)
	require.NoError(t, err)
	assert.Equal(t, root, m.Root)
	assert.Equal(t, "demo", m.Package.Name)
	assert.Equal(t, "someone", m.Package.Author)
	assert.Equal(t, filepath.Join(root, "src", "main.wh"), m.EntryPath())
	assert.Equal(t, filepath.Join(root, "target", "demo.wasm"), m.OutputPath(false))
	assert.Equal(t, filepath.Join(root, "target", "demo.wat"), m.OutputPath(true))
}

func TestLoadMissingManifest(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.ErrorIs(t, err, ErrNoManifest)
}

func TestLoadFileValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"no package", `title = "x"`, "missing [package]"},
		{"no name", "[package]\npath = \"main.wh\"", "missing [package].name"},
		{"bad name", "[package]\nname = \"9lives\"\npath = \"main.wh\"", "invalid [package].name"},
		{"no path", "[package]\nname = \"demo\"", "missing [package].path"},
		{"unknown key", "[package]\nname = \"demo\"\npath = \"main.wh\"\nflavour = \"mint\"", "unknown key"},
		{"bad toml", "[package", "failed to parse TOML"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeManifest(t, t.TempDir(), tt.body)
			_, err := LoadFile(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestInit(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "hello")
	res, err := Init(dir)
	require.NoError(t, err)
	assert.Equal(t, "hello", res.Name)
	assert.True(t, res.CreatedMain)

	m, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "main.wh", m.Package.Path)
	_, err = os.Stat(m.EntryPath())
	require.NoError(t, err)

	_, err = Init(dir)
	assert.ErrorContains(t, err, "already initialized")
}

func TestInitKeepsExistingMainAndFixesName(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "1 bad name")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.wh"), []byte("fn main() { return 7; }"), 0o600))

	res, err := Init(dir)
	require.NoError(t, err)
	assert.False(t, res.CreatedMain)
	assert.Equal(t, defaultName, res.Name)
	body, err := os.ReadFile(filepath.Join(dir, "main.wh"))
	require.NoError(t, err)
	assert.Equal(t, "fn main() { return 7; }", string(body))
}

func TestIsValidName(t *testing.T) {
	for _, ok := range []string{"demo", "_x", "my-app2"} {
		assert.True(t, IsValidName(ok), ok)
	}
	for _, bad := range []string{"", "-x", "9x", "a b", "é"} {
		assert.False(t, IsValidName(bad), bad)
	}
}
