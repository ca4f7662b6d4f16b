package diag

import "whistle/internal/source"

// Reporter is the minimal contract stages use to emit diagnostics.
type Reporter interface {
	Report(sev Severity, code Code, primary source.Span, msg string)
}

// BagReporter writes into a Bag, stamping every diagnostic with Stage.
type BagReporter struct {
	Bag   *Bag
	Stage Stage
}

func (r BagReporter) Report(sev Severity, code Code, primary source.Span, msg string) {
	if r.Bag == nil {
		return
	}
	r.Bag.Add(New(r.Stage, sev, code, primary, msg))
}

// Errorf is a shortcut for SevError diagnostics.
func Errorf(r Reporter, code Code, primary source.Span, format string, args ...any) {
	if r == nil {
		return
	}
	r.Report(SevError, code, primary, sprintf(format, args...))
}

// Warnf is a shortcut for SevWarning diagnostics.
func Warnf(r Reporter, code Code, primary source.Span, format string, args ...any) {
	if r == nil {
		return
	}
	r.Report(SevWarning, code, primary, sprintf(format, args...))
}
