// Package artifact holds compiled modules and converts them to their
// binary and text forms.
package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"whistle/internal/wasm"
)

// ErrMalformedArtifact is returned when bytes cannot be disassembled.
// Errors wrap both this and wasm.ErrMalformed.
var ErrMalformedArtifact = errors.New("malformed artifact")

// Artifact is an immutable compiled module.
type Artifact struct {
	bytes []byte
}

// New copies b into a new Artifact.
func New(b []byte) *Artifact {
	return &Artifact{bytes: append([]byte(nil), b...)}
}

// Len returns the size of the binary encoding.
func (a *Artifact) Len() int {
	if a == nil {
		return 0
	}
	return len(a.bytes)
}

// Digest returns the hex SHA-256 of the binary encoding.
func (a *Artifact) Digest() string {
	sum := sha256.Sum256(a.Bytes())
	return hex.EncodeToString(sum[:])
}

// Bytes returns a copy of the binary encoding.
func (a *Artifact) Bytes() []byte {
	if a == nil {
		return nil
	}
	return append([]byte(nil), a.bytes...)
}

// ToBinary returns the artifact's bytes unchanged.
func ToBinary(a *Artifact) []byte {
	return a.Bytes()
}

// ToText renders the artifact in the WebAssembly text format. The result
// is deterministic. Ill-formed bytes yield ErrMalformedArtifact.
func ToText(a *Artifact) (string, error) {
	if a == nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedArtifact, wasm.ErrMalformed)
	}
	text, err := wasm.ToText(a.bytes)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedArtifact, err)
	}
	return text, nil
}

// Format selects the serialization written to disk.
type Format uint8

const (
	FormatBinary Format = iota
	FormatText
)

func (f Format) String() string {
	if f == FormatText {
		return "text"
	}
	return "binary"
}

// FormatForPath picks text for .wat, .wast and .txt and binary otherwise.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wat", ".wast", ".txt":
		return FormatText
	}
	return FormatBinary
}

// Encode serializes a in the given format.
func Encode(a *Artifact, f Format) ([]byte, error) {
	if f == FormatText {
		text, err := ToText(a)
		if err != nil {
			return nil, err
		}
		return []byte(text), nil
	}
	return ToBinary(a), nil
}

// WriteFile writes a to path in the format implied by its extension. The
// file is replaced atomically.
func WriteFile(path string, a *Artifact) (Format, error) {
	f := FormatForPath(path)
	data, err := Encode(a, f)
	if err != nil {
		return f, err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return f, fmt.Errorf("failed to create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".whistle-*")
	if err != nil {
		return f, fmt.Errorf("failed to write %q: %w", path, err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return f, fmt.Errorf("failed to write %q: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return f, fmt.Errorf("failed to write %q: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return f, fmt.Errorf("failed to write %q: %w", path, err)
	}
	return f, nil
}
