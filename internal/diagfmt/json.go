package diagfmt

import (
	"encoding/json"
	"io"

	"whistle/internal/diag"
	"whistle/internal/source"
)

// LocationJSON is the location of a diagnostic.
type LocationJSON struct {
	File      string `json:"file"`
	StartByte uint32 `json:"start_byte"`
	EndByte   uint32 `json:"end_byte"`
	StartLine uint32 `json:"start_line,omitempty"`
	StartCol  uint32 `json:"start_col,omitempty"`
	EndLine   uint32 `json:"end_line,omitempty"`
	EndCol    uint32 `json:"end_col,omitempty"`
}

// DiagnosticJSON is one diagnostic.
type DiagnosticJSON struct {
	Stage    string        `json:"stage"`
	Severity string        `json:"severity"`
	Code     string        `json:"code"`
	Message  string        `json:"message"`
	Location *LocationJSON `json:"location,omitempty"`
}

// DiagnosticsOutput is the root JSON object.
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
}

// BuildDiagnosticsOutput builds the JSON structure without encoding it.
func BuildDiagnosticsOutput(diags []diag.Diagnostic, fs *source.FileSet, opts JSONOpts) DiagnosticsOutput {
	n := limit(len(diags), opts.Max)
	out := DiagnosticsOutput{Diagnostics: make([]DiagnosticJSON, 0, n), Count: len(diags)}
	for _, d := range diags[:n] {
		dj := DiagnosticJSON{
			Stage:    d.Stage.String(),
			Severity: d.Severity.String(),
			Code:     d.Code.ID(),
			Message:  d.Message,
		}
		if d.Located && fs != nil {
			loc := &LocationJSON{
				File:      displayPath(fs.Get(d.Primary.File), opts.PathMode),
				StartByte: d.Primary.Start,
				EndByte:   d.Primary.End,
			}
			if opts.IncludePositions {
				start, end := fs.Resolve(d.Primary)
				loc.StartLine, loc.StartCol = start.Line, start.Col
				loc.EndLine, loc.EndCol = end.Line, end.Col
			}
			dj.Location = loc
		}
		out.Diagnostics = append(out.Diagnostics, dj)
	}
	return out
}

// JSON writes diagnostics as one indented JSON document.
func JSON(w io.Writer, diags []diag.Diagnostic, fs *source.FileSet, opts JSONOpts) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildDiagnosticsOutput(diags, fs, opts))
}
