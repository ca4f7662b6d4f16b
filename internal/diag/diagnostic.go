package diag

import (
	"whistle/internal/source"
)

// Diagnostic is a single finding produced by a stage. Primary is only
// meaningful when Located is true.
type Diagnostic struct {
	Stage    Stage
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Located  bool
}

func New(stage Stage, sev Severity, code Code, primary source.Span, msg string) Diagnostic {
	return Diagnostic{
		Stage:    stage,
		Severity: sev,
		Code:     code,
		Message:  msg,
		Primary:  primary,
		Located:  true,
	}
}

// NewUnlocated builds a diagnostic that does not point into the source.
func NewUnlocated(stage Stage, sev Severity, code Code, msg string) Diagnostic {
	return Diagnostic{
		Stage:    stage,
		Severity: sev,
		Code:     code,
		Message:  msg,
	}
}

func (d Diagnostic) IsError() bool {
	return d.Severity.AtLeast(SevError)
}
