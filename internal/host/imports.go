package host

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"whistle/internal/codegen"
	"whistle/internal/sandbox"
)

// instantiateImports registers the host functions codegen imports.
// Faults panic with an error; wazero turns the panic into the error
// returned from the guest call.
func instantiateImports(ctx context.Context, rt wazero.Runtime) error {
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		return err
	}
	_, err := rt.NewHostModuleBuilder(codegen.HostModule).
		NewFunctionBuilder().WithFunc(hostWrite).Export("write").
		NewFunctionBuilder().WithFunc(hostPrintI32).Export("print_i32").
		NewFunctionBuilder().WithFunc(hostClockMs).Export("clock_ms").
		Instantiate(ctx)
	return err
}

func current(ctx context.Context) *sandbox.Context {
	sc, err := sandbox.FromContext(ctx)
	if err != nil {
		panic(err)
	}
	return sc
}

func hostWrite(ctx context.Context, fd, ptr, n uint32) int32 {
	written, err := current(ctx).Write(fd, ptr, n)
	if err != nil {
		panic(err)
	}
	return written
}

func hostPrintI32(ctx context.Context, v int32) {
	current(ctx).PrintI32(v)
}

func hostClockMs(ctx context.Context) int32 {
	return current(ctx).ClockMs()
}
