package lsp

import (
	"fortio.org/safecast"

	"whistle/internal/diag"
)

// toLSPDiagnostics converts at most limit diagnostics. Spans are byte
// offsets into text.
func toLSPDiagnostics(text string, diags []diag.Diagnostic, limit int) []lspDiagnostic {
	if len(diags) > limit {
		diags = diags[:limit]
	}
	li := newLineIndex(text)
	out := make([]lspDiagnostic, 0, len(diags))
	for _, d := range diags {
		var rng lspRange
		if d.Located {
			rng = li.rangeOf(offset(d.Primary.Start), offset(d.Primary.End))
		}
		out = append(out, lspDiagnostic{
			Range:    rng,
			Severity: severityFor(d.Severity),
			Code:     d.Code.ID(),
			Source:   "whistle",
			Message:  d.Message,
		})
	}
	return out
}

func offset(v uint32) int {
	n, err := safecast.Conv[int](v)
	if err != nil {
		return 0
	}
	return n
}

func severityFor(sev diag.Severity) int {
	switch sev {
	case diag.SevError:
		return severityError
	case diag.SevWarning:
		return severityWarning
	default:
		return severityInformation
	}
}
