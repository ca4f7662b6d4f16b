package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whistle/internal/ast"
	"whistle/internal/check"
	"whistle/internal/diag"
	"whistle/internal/parser"
	"whistle/internal/preprocess"
	"whistle/internal/wasm"
)

func frontend(t *testing.T, src string) (*ast.File, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag()
	stream := preprocess.New(diag.BagReporter{Bag: bag, Stage: diag.StagePreprocess}).Process(0, src)
	file, ok := parser.ParseFile(stream, diag.BagReporter{Bag: bag, Stage: diag.StageParse})
	require.True(t, ok, "%v", bag.Items())
	check.Check(file, check.Options{Reporter: diag.BagReporter{Bag: bag, Stage: diag.StageCheck}})
	return file, bag
}

func generate(t *testing.T, src string) (*wasm.Module, *diag.Bag) {
	t.Helper()
	file, bag := frontend(t, src)
	require.False(t, bag.HasErrors(), "%v", bag.Items())
	out, ok := Generate(file, Options{Reporter: diag.BagReporter{Bag: bag, Stage: diag.StageGenerate}})
	require.True(t, ok, "%v", bag.Items())
	m, err := wasm.Decode(out)
	require.NoError(t, err)
	return m, bag
}

func TestMinimalModule(t *testing.T) {
	m, bag := generate(t, "fn main() { return 0; }")
	assert.Equal(t, 0, bag.Len())

	require.Len(t, m.Imports, 4)
	assert.Equal(t, "write", m.Imports[0].Name)
	assert.Equal(t, WASIModule, m.Imports[3].Module)
	assert.Equal(t, "proc_exit", m.Imports[3].Name)

	start, ok := m.Export(EntryName)
	require.True(t, ok)
	ft, ok := m.FuncTypeOf(start.Index)
	require.True(t, ok)
	assert.Empty(t, ft.Params)
	assert.Empty(t, ft.Results)

	_, ok = m.Export(MemoryName)
	assert.True(t, ok)
	require.Len(t, m.Memories, 1)
	assert.Equal(t, uint32(1), m.Memories[0].Min)
	assert.Empty(t, m.Data)
}

func TestStringsGoToDataSegment(t *testing.T) {
	m, _ := generate(t, `fn main(): none { print("hello\n"); eprint("oops"); print("hello\n"); }`)
	require.Len(t, m.Data, 1)
	assert.Equal(t, []byte("hello\noops"), m.Data[0].Init)
	assert.Equal(t, wasm.ConstI32(DataBase), m.Data[0].Offset)

	text, err := m.Text()
	require.NoError(t, err)
	assert.Contains(t, text, "i32.const 2\n    i32.const 22\n    i32.const 4\n    call 0")
}

func TestExportedFunctions(t *testing.T) {
	m, _ := generate(t, "export fn add(a: i32, b: i32): i32 { return a + b; } fn main() { return add(1, 2); }")
	e, ok := m.Export("add")
	require.True(t, ok)
	assert.Equal(t, numImports, e.Index)
	ft, _ := m.FuncTypeOf(e.Index)
	assert.Equal(t, []wasm.ValType{wasm.I32, wasm.I32}, ft.Params)
	assert.Equal(t, []wasm.ValType{wasm.I32}, ft.Results)
}

func TestControlFlowLowering(t *testing.T) {
	m, _ := generate(t, `
fn main() {
	var i = 0;
	while i < 10 {
		i = i + 1;
		if i == 5 { continue; }
		if i > 8 && !false { break; }
	}
	return i;
}`)
	text, err := m.Text()
	require.NoError(t, err)
	for _, want := range []string{"block  ;; label = @1", "loop  ;; label = @2", "br_if 1", "br 1", "br 2", "br 0", "if (result i32)"} {
		assert.Contains(t, text, want)
	}
}

func TestEntryErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code diag.Code
	}{
		{"missing main", "fn other() { return 0; }", diag.GenMissingEntry},
		{"main with params", "fn main(a: i32) { return a; }", diag.GenBadEntry},
		{"bool main", "fn main(): bool { return true; }", diag.GenBadEntry},
		{"reserved export", "export fn memory() { return 0; } fn main() { return 0; }", diag.GenBadEntry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, bag := frontend(t, tt.src)
			require.False(t, bag.HasErrors())
			out, ok := Generate(file, Options{Reporter: diag.BagReporter{Bag: bag, Stage: diag.StageGenerate}})
			assert.False(t, ok)
			assert.Nil(t, out)
			require.Equal(t, 1, bag.Len())
			assert.Equal(t, tt.code, bag.Items()[0].Code)
			assert.Equal(t, diag.StageGenerate, bag.Items()[0].Stage)
		})
	}
}

func TestInvalidNodesLowerToUnreachable(t *testing.T) {
	file, bag := frontend(t, `
fn f(a: i32) { return a; }
fn main() {
	val x = missing;
	var y: i32 = true;
	undefined_fn(1);
	print(3);
	return x + f() + y;
}`)
	errs := bag.ErrorCount()
	require.Positive(t, errs)

	genBag := diag.NewBag()
	out, ok := Generate(file, Options{Reporter: diag.BagReporter{Bag: genBag, Stage: diag.StageGenerate}})
	require.True(t, ok)
	assert.Equal(t, 0, genBag.Len(), "generation adds nothing for checked errors")

	text, err := wasm.ToText(out)
	require.NoError(t, err)
	assert.Contains(t, text, "unreachable")
}
