package source

import (
	"crypto/sha256"
	"fmt"
	"os"
)

// Unit is one piece of source text handed to the compiler together with the
// path or URI it came from. A Unit is never modified after construction.
type Unit struct {
	path string
	text string
}

// NewUnit wraps text with its identifying path or URI.
func NewUnit(path, text string) Unit {
	return Unit{path: path, text: text}
}

// ReadUnit loads a Unit from disk, normalising CRLF line endings and a
// leading BOM.
func ReadUnit(path string) (Unit, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return Unit{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	content, _ = removeBOM(content)
	content, _ = normalizeCRLF(content)
	return Unit{path: path, text: string(content)}, nil
}

func (u Unit) Path() string { return u.path }

func (u Unit) Text() string { return u.text }

// Hash returns the SHA-256 digest of the unit text.
func (u Unit) Hash() [32]byte {
	return sha256.Sum256([]byte(u.text))
}
