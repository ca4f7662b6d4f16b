// Package host runs compiled whistle artifacts on the wazero runtime.
//
// Every Execute call walks the same steps and maps each failure to its own
// outcome:
//
//	identity + sandbox context   SetupFailed(environment)
//	compile + instantiate        SetupFailed(artifact)
//	bind linear memory           SetupFailed(memory)
//	look up _start (or main)     SetupFailed(entrypoint)
//	call entry                   Exited(0) | Exited(n) | Trapped
//
// Runs share nothing but the compilation cache, so concurrent calls need
// no coordination.
package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/sys"

	"whistle/internal/artifact"
	"whistle/internal/codegen"
	"whistle/internal/sandbox"
)

var (
	// ErrNoMemory means the module exports no linear memory.
	ErrNoMemory = errors.New("module has no linear memory")
	// ErrNoEntry means neither _start nor main is exported.
	ErrNoEntry = errors.New("module exports no entry point")
	// ErrEntrySignature means the entry point expects arguments.
	ErrEntrySignature = errors.New("entry point must take no arguments")
)

// Options configure a Host.
type Options struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// Env is added to the guest environment in KEY=VALUE form.
	Env        []string
	InheritEnv bool
	// Timeout bounds the wall-clock time of a run. Zero means no limit.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Host executes artifacts. It is safe for concurrent use.
type Host struct {
	opts  Options
	cache wazero.CompilationCache
}

// New returns a Host with an in-memory compilation cache.
func New(opts Options) *Host {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Host{opts: opts, cache: wazero.NewCompilationCache()}
}

// Close releases the compilation cache.
func (h *Host) Close(ctx context.Context) error {
	return h.cache.Close(ctx)
}

// Execute runs a to completion. It never returns an error: every failure
// is folded into the Outcome.
func (h *Host) Execute(ctx context.Context, a *artifact.Artifact) Outcome {
	began := time.Now()
	out := h.execute(ctx, a)
	h.opts.Logger.Debug("execution finished",
		"outcome", out.Kind,
		"code", out.Code,
		"phase", out.Phase,
		"elapsed", time.Since(began))
	return out
}

func (h *Host) execute(ctx context.Context, a *artifact.Artifact) Outcome {
	if h.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opts.Timeout)
		defer cancel()
	}

	id, err := sandbox.NewIdentity()
	if err != nil {
		return setupFailed(PhaseEnvironment, err)
	}
	sc, err := sandbox.New(id, sandbox.Config{
		Stdin:      h.opts.Stdin,
		Stdout:     h.opts.Stdout,
		Stderr:     h.opts.Stderr,
		Env:        h.opts.Env,
		InheritEnv: h.opts.InheritEnv,
	})
	if err != nil {
		return setupFailed(PhaseEnvironment, err)
	}
	defer sc.Close()
	ctx = sandbox.WithContext(ctx, sc)

	rt := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().
		WithCompilationCache(h.cache).
		WithCloseOnContextDone(true))
	defer func() {
		_ = rt.Close(context.WithoutCancel(ctx))
	}()

	if err := instantiateImports(ctx, rt); err != nil {
		return setupFailed(PhaseEnvironment, err)
	}

	if a == nil {
		return setupFailed(PhaseArtifact, artifact.ErrMalformedArtifact)
	}
	h.opts.Logger.Debug("loading artifact", "digest", a.Digest(), "size", a.Len())
	compiled, err := rt.CompileModule(ctx, artifact.ToBinary(a))
	if err != nil {
		return setupFailed(PhaseArtifact, fmt.Errorf("%w: %w", artifact.ErrMalformedArtifact, err))
	}
	mod, err := rt.InstantiateModule(ctx, compiled, moduleConfig(sc))
	if err != nil {
		if out, ok := exitOutcome(ctx, err); ok {
			return out
		}
		return setupFailed(PhaseArtifact, err)
	}

	mem := mod.ExportedMemory(codegen.MemoryName)
	if mem == nil {
		mem = mod.Memory()
	}
	if mem == nil {
		return setupFailed(PhaseMemory, ErrNoMemory)
	}
	if err := sc.BindMemory(mem); err != nil {
		return setupFailed(PhaseMemory, err)
	}

	entry, err := lookupEntry(mod)
	if err != nil {
		return setupFailed(PhaseEntrypoint, err)
	}

	if _, err := entry.Call(ctx); err != nil {
		if out, ok := exitOutcome(ctx, err); ok {
			return out
		}
		return trapped(firstLine(err.Error()), err)
	}
	return exited(0)
}

func moduleConfig(sc *sandbox.Context) wazero.ModuleConfig {
	cfg := wazero.NewModuleConfig().
		WithName("").
		WithStdin(sc.Stdin()).
		WithStdout(sc.Stdout()).
		WithStderr(sc.Stderr()).
		WithSysNanotime().
		WithStartFunctions()
	for _, kv := range sc.Env() {
		k, v, _ := strings.Cut(kv, "=")
		cfg = cfg.WithEnv(k, v)
	}
	return cfg
}

func lookupEntry(mod api.Module) (api.Function, error) {
	for _, name := range []string{codegen.EntryName, codegen.MainName} {
		fn := mod.ExportedFunction(name)
		if fn == nil {
			continue
		}
		if len(fn.Definition().ParamTypes()) != 0 {
			return nil, fmt.Errorf("%w: %s", ErrEntrySignature, name)
		}
		return fn, nil
	}
	return nil, ErrNoEntry
}

// exitOutcome maps a proc_exit or a context-driven close to an Outcome.
func exitOutcome(ctx context.Context, err error) (Outcome, bool) {
	var exitErr *sys.ExitError
	if !errors.As(err, &exitErr) {
		return Outcome{}, false
	}
	code := exitErr.ExitCode()
	if ctxErr := ctx.Err(); ctxErr != nil {
		switch {
		case code == sys.ExitCodeDeadlineExceeded && errors.Is(ctxErr, context.DeadlineExceeded):
			return trapped("wall-clock budget exceeded", ctxErr), true
		case code == sys.ExitCodeContextCanceled && errors.Is(ctxErr, context.Canceled):
			return trapped("execution canceled", ctxErr), true
		}
	}
	return exited(code), true
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
