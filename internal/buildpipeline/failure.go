package buildpipeline

import (
	"fmt"

	"whistle/internal/diag"
)

// PipelineFailure is returned by Compile when no artifact can be handed
// back. Diagnostics hold everything reported, in emission order.
type PipelineFailure struct {
	Path        string
	Stage       diag.Stage
	Diagnostics []diag.Diagnostic
}

func (e *PipelineFailure) Error() string {
	errs := 0
	var first *diag.Diagnostic
	for i := range e.Diagnostics {
		if e.Diagnostics[i].IsError() {
			if first == nil {
				first = &e.Diagnostics[i]
			}
			errs++
		}
	}
	name := e.Path
	if name == "" {
		name = "<input>"
	}
	if first == nil {
		return fmt.Sprintf("%s: compilation failed in %s", name, e.Stage)
	}
	return fmt.Sprintf("%s: %d error(s), first: %s %s", name, errs, first.Code.ID(), first.Message)
}

// ErrorCount returns the number of error diagnostics.
func (e *PipelineFailure) ErrorCount() int {
	n := 0
	for _, d := range e.Diagnostics {
		if d.IsError() {
			n++
		}
	}
	return n
}
