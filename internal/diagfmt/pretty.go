package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"whistle/internal/diag"
	"whistle/internal/source"
)

type palette struct {
	err, warn, info, code, gutter, caret *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		code:   color.New(color.Bold),
		gutter: color.New(color.FgBlue),
		caret:  color.New(color.FgGreen, color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.code, p.gutter, p.caret} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty writes diagnostics in emission order, each as
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//
// followed by the source line with the span underlined. Diagnostics without
// a location print the unit path only.
func Pretty(w io.Writer, diags []diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) {
	p := newPalette(opts.Color)
	n := limit(len(diags), opts.Max)
	for i := range n {
		prettyOne(w, p, diags[i], fs, opts)
	}
	if n < len(diags) {
		fmt.Fprintf(w, "... and %d more\n", len(diags)-n)
	}
}

func prettyOne(w io.Writer, p palette, d diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) {
	header := fmt.Sprintf("%s %s: %s",
		p.severity(d.Severity).Sprint(d.Severity.String()),
		p.code.Sprint(d.Code.ID()),
		d.Message)

	var file *source.File
	if fs != nil {
		if d.Located {
			file = fs.Get(d.Primary.File)
		} else if fs.Len() > 0 {
			file = fs.Get(0)
		}
	}
	if file == nil {
		fmt.Fprintln(w, header)
		return
	}
	path := displayPath(file, opts.PathMode)
	if !d.Located {
		fmt.Fprintf(w, "%s: %s\n", path, header)
		return
	}

	start, end := fs.Resolve(d.Primary)
	fmt.Fprintf(w, "%s:%d:%d: %s\n", path, start.Line, start.Col, header)

	first := uint32(1)
	if ctx := uint32(max(opts.Context, 0)); start.Line > ctx {
		first = start.Line - ctx
	}
	width := len(fmt.Sprint(start.Line))
	for line := first; line <= start.Line; line++ {
		fmt.Fprintf(w, "%s %s\n", p.gutter.Sprintf("%*d |", width, line), file.GetLine(line))
	}

	text := file.GetLine(start.Line)
	from := int(start.Col - 1)
	to := len(text)
	if end.Line == start.Line {
		to = int(end.Col - 1)
	}
	from = min(from, len(text))
	to = max(min(to, len(text)), from)
	fmt.Fprintf(w, "%s %s%s\n",
		p.gutter.Sprintf("%*s |", width, ""),
		indentLike(text[:from]),
		p.caret.Sprint(underline(to-from)))
}

// indentLike keeps tabs so the caret lines up with the source line.
func indentLike(prefix string) string {
	var b strings.Builder
	for _, r := range prefix {
		if r == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

func underline(n int) string {
	if n <= 1 {
		return "^"
	}
	return "^" + strings.Repeat("~", n-1)
}
