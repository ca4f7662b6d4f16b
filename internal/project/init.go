package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const defaultName = "whistle-project"

// InitResult lists what Init created.
type InitResult struct {
	Root        string
	Name        string
	CreatedMain bool
}

// Init creates dir when needed and writes a manifest and a hello-world
// entry point. An existing manifest is an error; an existing main.wh is
// kept.
func Init(dir string) (InitResult, error) {
	target, err := filepath.Abs(dir)
	if err != nil {
		return InitResult{}, err
	}
	if st, err := os.Stat(target); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return InitResult{}, err
		}
		if err := os.MkdirAll(target, 0o755); err != nil {
			return InitResult{}, fmt.Errorf("failed to create directory %q: %w", target, err)
		}
	} else if !st.IsDir() {
		return InitResult{}, fmt.Errorf("%q is not a directory", target)
	}

	name := strings.TrimSpace(filepath.Base(target))
	if !IsValidName(name) {
		name = defaultName
	}

	manifestPath := filepath.Join(target, ManifestName)
	if _, err := os.Stat(manifestPath); err == nil {
		return InitResult{}, fmt.Errorf("project already initialized: %s exists", manifestPath)
	}
	if err := os.WriteFile(manifestPath, []byte(defaultManifest(name)), 0o600); err != nil {
		return InitResult{}, fmt.Errorf("failed to write manifest: %w", err)
	}

	res := InitResult{Root: target, Name: name}
	mainPath := filepath.Join(target, "main"+SourceExt)
	if _, err := os.Stat(mainPath); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(mainPath, []byte(defaultMain), 0o600); err != nil {
			return InitResult{}, fmt.Errorf("failed to write %s: %w", mainPath, err)
		}
		res.CreatedMain = true
	}
	return res, nil
}

func defaultManifest(name string) string {
	return fmt.Sprintf(`# whistle project manifest
[package]
name = %q
path = "main.wh"
version = "0.1.0"
`, name)
}

const defaultMain = `#define GREETING "Hello, whistle!\n"

fn main() {
	print(GREETING);
	return 0;
}
`
