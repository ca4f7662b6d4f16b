// Package stage wraps the four compilation stages behind one result shape
// so the pipeline never branches on which stage it is running.
package stage

import (
	"context"

	"whistle/internal/diag"
)

// Kind classifies a stage result.
type Kind uint8

const (
	// Success: output is usable and no error diagnostics were produced.
	// Warnings may still be attached.
	Success Kind = iota
	// Recoverable: output is best-effort and at least one error was
	// reported. Later stages may still run for more diagnostics.
	Recoverable
	// Fatal: there is no output.
	Fatal
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Recoverable:
		return "recoverable"
	case Fatal:
		return "fatal"
	}
	return "unknown"
}

// Result is the outcome of one stage run.
type Result[T any] struct {
	Kind        Kind
	Output      T
	Diagnostics []diag.Diagnostic
}

// OK reports whether the output may be used.
func (r Result[T]) OK() bool {
	return r.Kind != Fatal
}

// Func is the body of a stage: it reports through the reporter and
// returns its output and whether it produced one at all.
type Func[In, Out any] func(ctx context.Context, in In, r diag.Reporter) (Out, bool)

// Stage is one named pipeline step.
type Stage[In, Out any] struct {
	ID diag.Stage
	Fn Func[In, Out]
	// PartialOnError marks stages whose output remains meaningful after
	// errors. Error diagnostics then make the result Recoverable instead
	// of Fatal.
	PartialOnError bool
}

// Run executes the stage and classifies the outcome:
//
//	no output                         -> Fatal
//	output, errors, partial allowed   -> Recoverable
//	output, errors, otherwise         -> Fatal
//	output, no errors                 -> Success
//
// Cancellation of ctx before the stage starts yields Fatal without
// diagnostics.
func (s Stage[In, Out]) Run(ctx context.Context, in In) Result[Out] {
	if err := ctx.Err(); err != nil {
		return Result[Out]{Kind: Fatal}
	}
	bag := diag.NewBag()
	out, ok := s.Fn(ctx, in, diag.BagReporter{Bag: bag, Stage: s.ID})
	res := Result[Out]{Diagnostics: bag.Snapshot()}
	switch {
	case !ok:
		res.Kind = Fatal
	case bag.HasErrors() && s.PartialOnError:
		res.Kind = Recoverable
		res.Output = out
	case bag.HasErrors():
		res.Kind = Fatal
	default:
		res.Kind = Success
		res.Output = out
	}
	return res
}
