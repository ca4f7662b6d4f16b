package host

import (
	"fmt"
)

// Kind classifies how a run ended.
type Kind uint8

const (
	// Exited: the entry point returned or the program requested an exit.
	Exited Kind = iota
	// Trapped: a runtime fault ended the run.
	Trapped
	// SetupFailed: the run never reached the entry point.
	SetupFailed
)

func (k Kind) String() string {
	switch k {
	case Exited:
		return "exited"
	case Trapped:
		return "trapped"
	case SetupFailed:
		return "setup failed"
	}
	return "unknown"
}

// Phase names the setup step that failed.
type Phase uint8

const (
	PhaseNone Phase = iota
	// PhaseEnvironment: building the system-interface context.
	PhaseEnvironment
	// PhaseArtifact: compiling or instantiating the module.
	PhaseArtifact
	// PhaseMemory: binding linear memory into the context.
	PhaseMemory
	// PhaseEntrypoint: locating the entry function.
	PhaseEntrypoint
)

func (p Phase) String() string {
	switch p {
	case PhaseEnvironment:
		return "environment"
	case PhaseArtifact:
		return "artifact"
	case PhaseMemory:
		return "memory"
	case PhaseEntrypoint:
		return "entrypoint"
	}
	return "none"
}

// Outcome is the result of one Execute call.
type Outcome struct {
	Kind Kind
	// Code is the exit status when Kind is Exited.
	Code uint32
	// Phase is set when Kind is SetupFailed.
	Phase  Phase
	Reason string
	// Cause is the underlying error for Trapped and SetupFailed.
	Cause error
}

func exited(code uint32) Outcome {
	return Outcome{Kind: Exited, Code: code}
}

func trapped(reason string, cause error) Outcome {
	return Outcome{Kind: Trapped, Reason: reason, Cause: cause}
}

func setupFailed(phase Phase, cause error) Outcome {
	return Outcome{Kind: SetupFailed, Phase: phase, Reason: firstLine(cause.Error()), Cause: cause}
}

func (o Outcome) String() string {
	switch o.Kind {
	case Exited:
		return fmt.Sprintf("exited with code %d", o.Code)
	case Trapped:
		return "trapped: " + o.Reason
	case SetupFailed:
		return fmt.Sprintf("setup failed (%s): %s", o.Phase, o.Reason)
	}
	return o.Kind.String()
}

// Err converts a non-exit outcome into an error. Exited yields nil
// whatever the code.
func (o Outcome) Err() error {
	switch o.Kind {
	case Trapped:
		return &TrapError{Reason: o.Reason, Err: o.Cause}
	case SetupFailed:
		return &SetupError{Phase: o.Phase, Err: o.Cause}
	}
	return nil
}

// SetupError reports a run that never reached its entry point.
type SetupError struct {
	Phase Phase
	Err   error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("execution setup failed (%s): %v", e.Phase, e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }

// TrapError reports a runtime fault.
type TrapError struct {
	Reason string
	Err    error
}

func (e *TrapError) Error() string {
	return "trap: " + e.Reason
}

func (e *TrapError) Unwrap() error { return e.Err }
