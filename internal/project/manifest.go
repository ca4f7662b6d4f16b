// Package project loads whistle.toml manifests and lays out project
// directories.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/BurntSushi/toml"
)

const (
	// ManifestName is the file that marks a project root.
	ManifestName = "whistle.toml"
	// TargetDirName holds build outputs below the project root.
	TargetDirName = "target"
	// SourceExt is the extension of whistle source files.
	SourceExt = ".wh"
)

// ErrNoManifest is returned when no whistle.toml exists in the directory
// or any of its parents.
var ErrNoManifest = errors.New("no " + ManifestName + " found")

// Manifest is a parsed whistle.toml.
type Manifest struct {
	Path    string
	Root    string
	Package PackageConfig
}

type manifestFile struct {
	Package PackageConfig `toml:"package"`
}

// PackageConfig is the [package] table. Name and Path are required.
type PackageConfig struct {
	Name        string `toml:"name"`
	Path        string `toml:"path"`
	Version     string `toml:"version"`
	Description string `toml:"description"`
	Author      string `toml:"author"`
	License     string `toml:"license"`
}

// FindManifest walks up from startDir to locate whistle.toml.
func FindManifest(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load finds and parses the manifest governing startDir.
func Load(startDir string) (*Manifest, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w in %s or any parent directory", ErrNoManifest, startDir)
	}
	return LoadFile(path)
}

// LoadFile parses the manifest at path.
func LoadFile(path string) (*Manifest, error) {
	var cfg manifestFile
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package") {
		return nil, fmt.Errorf("%s: missing [package]", path)
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return nil, fmt.Errorf("%s: missing [package].name", path)
	}
	if !IsValidName(cfg.Package.Name) {
		return nil, fmt.Errorf("%s: invalid [package].name %q", path, cfg.Package.Name)
	}
	if !meta.IsDefined("package", "path") || strings.TrimSpace(cfg.Package.Path) == "" {
		return nil, fmt.Errorf("%s: missing [package].path", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	return &Manifest{
		Path:    path,
		Root:    filepath.Dir(path),
		Package: cfg.Package,
	}, nil
}

// EntryPath is the source file named by [package].path.
func (m *Manifest) EntryPath() string {
	return filepath.Join(m.Root, filepath.FromSlash(m.Package.Path))
}

// TargetDir is where builds are written.
func (m *Manifest) TargetDir() string {
	return filepath.Join(m.Root, TargetDirName)
}

// OutputPath is the artifact path for a build; text selects .wat.
func (m *Manifest) OutputPath(text bool) string {
	ext := ".wasm"
	if text {
		ext = ".wat"
	}
	return filepath.Join(m.TargetDir(), m.Package.Name+ext)
}

// IsValidName reports whether name can be used as a package name: ASCII
// letters, digits, '_' and '-', starting with a letter or '_'.
func IsValidName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if r > unicode.MaxASCII {
			return false
		}
		if i == 0 && r != '_' && !unicode.IsLetter(r) {
			return false
		}
		if i > 0 && r != '_' && r != '-' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
