package main

import (
	"io"

	"github.com/fatih/color"

	"whistle/internal/config"
	"whistle/internal/diag"
	"whistle/internal/diagfmt"
	"whistle/internal/source"
)

func printDiagnostics(w io.Writer, diags []diag.Diagnostic, fs *source.FileSet, s config.Settings) {
	if len(diags) == 0 || fs == nil {
		return
	}
	diagfmt.Pretty(w, diags, fs, diagfmt.PrettyOpts{
		Color:   !color.NoColor,
		Context: 1,
		Max:     s.MaxDiagnostics,
	})
}

func countErrors(diags []diag.Diagnostic) int {
	n := 0
	for _, d := range diags {
		if d.IsError() {
			n++
		}
	}
	return n
}
