package diagfmt

import (
	"path/filepath"

	"whistle/internal/source"
)

func displayPath(f *source.File, mode PathMode) string {
	if f == nil {
		return "<unknown>"
	}
	switch mode {
	case PathModeAbsolute:
		return f.Path
	case PathModeBasename:
		return filepath.Base(f.Path)
	default:
		return f.DisplayPath()
	}
}

func limit(n, max int) int {
	if max > 0 && max < n {
		return max
	}
	return n
}
