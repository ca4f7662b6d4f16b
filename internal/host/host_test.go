package host

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"whistle/internal/artifact"
	"whistle/internal/buildpipeline"
	"whistle/internal/source"
	"whistle/internal/wasm"
)

func compileSource(t *testing.T, src string) *artifact.Artifact {
	t.Helper()
	res, err := buildpipeline.Compile(context.Background(), &buildpipeline.CompileRequest{
		Unit: source.NewUnit("test.wh", src),
	})
	require.NoError(t, err)
	return res.Artifact
}

type rawDef struct {
	memory bool
	entry  string
	params []wasm.ValType
	body   []byte
}

// rawModule builds a module by hand for shapes the compiler never emits.
func rawModule(def rawDef) *artifact.Artifact {
	m := &wasm.Module{}
	m.Funcs = append(m.Funcs, m.AddType(wasm.FuncType{Params: def.params}))
	m.Codes = append(m.Codes, wasm.Code{Body: def.body})
	if def.memory {
		m.Memories = append(m.Memories, wasm.Limits{Min: 1})
		m.Exports = append(m.Exports, wasm.Export{Name: "memory", Kind: wasm.ExternMemory})
	}
	if def.entry != "" {
		m.Exports = append(m.Exports, wasm.Export{Name: def.entry, Kind: wasm.ExternFunc})
	}
	return artifact.New(m.Encode())
}

func run(t *testing.T, opts Options, a *artifact.Artifact) Outcome {
	t.Helper()
	h := New(opts)
	t.Cleanup(func() { _ = h.Close(context.Background()) })
	return h.Execute(context.Background(), a)
}

func TestExecuteReturnZero(t *testing.T) {
	out := run(t, Options{}, compileSource(t, "fn main() { return 0; }"))
	assert.Equal(t, Exited, out.Kind, out.String())
	assert.Equal(t, uint32(0), out.Code)
	assert.NoError(t, out.Err())
}

func TestExecuteWritesStreams(t *testing.T) {
	var stdout, stderr bytes.Buffer
	a := compileSource(t, `fn main() {
	print("hello, ");
	print("world\n");
	eprint("oops");
	print_i32(6 * 7);
	return 1;
}`)
	out := run(t, Options{Stdout: &stdout, Stderr: &stderr}, a)
	require.Equal(t, Exited, out.Kind, out.String())
	assert.Equal(t, uint32(0), out.Code, "main's return value is not the exit code")
	assert.Equal(t, "hello, world\n42\n", stdout.String())
	assert.Equal(t, "oops", stderr.String())
}

func TestExecuteExitCode(t *testing.T) {
	var stdout bytes.Buffer
	a := compileSource(t, `fn main() { print("before"); exit(3); print("after"); return 0; }`)
	out := run(t, Options{Stdout: &stdout}, a)
	require.Equal(t, Exited, out.Kind, out.String())
	assert.Equal(t, uint32(3), out.Code)
	assert.Equal(t, "before", stdout.String())
	assert.Equal(t, "exited with code 3", out.String())
}

func TestExecuteClock(t *testing.T) {
	var stdout bytes.Buffer
	a := compileSource(t, `fn main() { if clock_ms() >= 0 { print("ok"); } return 0; }`)
	out := run(t, Options{Stdout: &stdout}, a)
	require.Equal(t, Exited, out.Kind, out.String())
	assert.Equal(t, "ok", stdout.String())
}

func TestExecuteTraps(t *testing.T) {
	a := rawModule(rawDef{memory: true, entry: "_start", body: []byte{wasm.OpUnreachable, wasm.OpEnd}})
	out := run(t, Options{}, a)
	require.Equal(t, Trapped, out.Kind, out.String())
	assert.Contains(t, out.Reason, "unreachable")
	var trap *TrapError
	require.ErrorAs(t, out.Err(), &trap)
	assert.Equal(t, out.Reason, trap.Reason)

	div := compileSource(t, "fn main() { val zero = 0; return 1 / zero; }")
	out = run(t, Options{}, div)
	assert.Equal(t, Trapped, out.Kind, out.String())
}

func TestExecuteOutOfBoundsWriteTraps(t *testing.T) {
	m := &wasm.Module{}
	write := m.AddType(wasm.FuncType{Params: []wasm.ValType{wasm.I32, wasm.I32, wasm.I32}, Results: []wasm.ValType{wasm.I32}})
	m.Imports = append(m.Imports, wasm.Import{Module: "whistle", Name: "write", Kind: wasm.ExternFunc, TypeIndex: write})
	m.Funcs = append(m.Funcs, m.AddType(wasm.FuncType{}))
	var body wasm.Body
	body.I32Const(1).I32Const(wasm.PageSize - 2).I32Const(10).Call(0).Op(wasm.OpDrop).End()
	m.Codes = append(m.Codes, wasm.Code{Body: body.Bytes()})
	m.Memories = append(m.Memories, wasm.Limits{Min: 1})
	m.Exports = append(m.Exports,
		wasm.Export{Name: "memory", Kind: wasm.ExternMemory},
		wasm.Export{Name: "_start", Kind: wasm.ExternFunc, Index: 1})

	out := run(t, Options{}, artifact.New(m.Encode()))
	require.Equal(t, Trapped, out.Kind, out.String())
	assert.Contains(t, out.Reason, "out of bounds")
}

func TestExecuteSetupFailures(t *testing.T) {
	tests := []struct {
		name  string
		opts  Options
		a     *artifact.Artifact
		phase Phase
		is    error
	}{
		{
			name:  "bad environment",
			opts:  Options{Env: []string{"NOEQUALS"}},
			a:     rawModule(rawDef{memory: true, entry: "_start", body: []byte{wasm.OpEnd}}),
			phase: PhaseEnvironment,
		},
		{
			name:  "garbage artifact",
			a:     artifact.New([]byte("definitely not wasm")),
			phase: PhaseArtifact,
			is:    artifact.ErrMalformedArtifact,
		},
		{
			name:  "nil artifact",
			phase: PhaseArtifact,
			is:    artifact.ErrMalformedArtifact,
		},
		{
			name:  "no memory",
			a:     rawModule(rawDef{entry: "_start", body: []byte{wasm.OpEnd}}),
			phase: PhaseMemory,
			is:    ErrNoMemory,
		},
		{
			name:  "no entry",
			a:     rawModule(rawDef{memory: true, body: []byte{wasm.OpEnd}}),
			phase: PhaseEntrypoint,
			is:    ErrNoEntry,
		},
		{
			name:  "entry takes arguments",
			a:     rawModule(rawDef{memory: true, entry: "_start", params: []wasm.ValType{wasm.I32}, body: []byte{wasm.OpEnd}}),
			phase: PhaseEntrypoint,
			is:    ErrEntrySignature,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := run(t, tt.opts, tt.a)
			require.Equal(t, SetupFailed, out.Kind, out.String())
			assert.Equal(t, tt.phase, out.Phase)
			var setup *SetupError
			require.ErrorAs(t, out.Err(), &setup)
			assert.Equal(t, tt.phase, setup.Phase)
			if tt.is != nil {
				assert.ErrorIs(t, out.Err(), tt.is)
			}
		})
	}
}

func TestExecuteFallsBackToMain(t *testing.T) {
	a := rawModule(rawDef{memory: true, entry: "main", body: []byte{wasm.OpEnd}})
	out := run(t, Options{}, a)
	assert.Equal(t, Exited, out.Kind, out.String())
}

func TestExecuteTimeout(t *testing.T) {
	a := compileSource(t, "fn main() { while true { } return 0; }")
	out := run(t, Options{Timeout: 50 * time.Millisecond}, a)
	require.Equal(t, Trapped, out.Kind, out.String())
	assert.Contains(t, out.Reason, "budget")
	assert.True(t, errors.Is(out.Cause, context.DeadlineExceeded))
}

func TestExecuteConcurrentRunsAreIsolated(t *testing.T) {
	h := New(Options{})
	defer h.Close(context.Background())

	const runs = 8
	outputs := make([]bytes.Buffer, runs)
	var g errgroup.Group
	for i := range runs {
		a := compileSource(t, fmt.Sprintf("fn main() { print_i32(%d); exit(%d); return 0; }", i, i))
		g.Go(func() error {
			runner := New(Options{Stdout: &outputs[i]})
			runner.cache = h.cache
			out := runner.Execute(context.Background(), a)
			if out.Kind != Exited || out.Code != uint32(i) {
				return fmt.Errorf("run %d: %s", i, out)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	for i := range runs {
		assert.Equal(t, fmt.Sprintf("%d\n", i), outputs[i].String())
	}
}
