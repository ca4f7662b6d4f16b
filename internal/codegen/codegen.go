// Package codegen lowers a checked syntax tree to a WebAssembly module.
//
// Module layout:
//
//	imports  whistle.write(fd, ptr, len) -> i32
//	         whistle.print_i32(v)
//	         whistle.clock_ms() -> i32
//	         wasi_snapshot_preview1.proc_exit(code)
//	funcs    every declared function in source order, then _start
//	memory   one page, exported as "memory"; string literals live in an
//	         active data segment starting at DataBase
//	exports  memory, _start and every `export fn`
//
// Nodes the checker marked invalid lower to `unreachable`, so a tree with
// check errors still yields a well-formed module and no extra diagnostics.
package codegen

import (
	"fmt"

	"fortio.org/safecast"

	"whistle/internal/ast"
	"whistle/internal/diag"
	"whistle/internal/source"
	"whistle/internal/wasm"
)

const (
	// HostModule is the import namespace of the whistle host functions.
	HostModule = "whistle"
	// WASIModule provides proc_exit.
	WASIModule = "wasi_snapshot_preview1"

	// EntryName is the exported entry point.
	EntryName = "_start"
	// MainName is the user function _start calls.
	MainName = "main"
	// MemoryName is the exported linear memory.
	MemoryName = "memory"

	// DataBase is the address of the first string literal.
	DataBase = 16

	maxLocals = 50000
)

// Indices of the imported functions.
const (
	importWrite uint32 = iota
	importPrintI32
	importClockMs
	importProcExit
	numImports
)

// Options configure generation.
type Options struct {
	Reporter diag.Reporter
}

type generator struct {
	opts    Options
	file    *ast.File
	mod     *wasm.Module
	strings map[string]uint32
	data    []byte
	failed  bool
}

// Generate lowers file. ok is false when a generation error was reported;
// the returned bytes are nil in that case.
func Generate(file *ast.File, opts Options) ([]byte, bool) {
	g := &generator{
		opts:    opts,
		file:    file,
		mod:     &wasm.Module{},
		strings: make(map[string]uint32),
	}
	main := g.entry()
	if g.failed {
		return nil, false
	}
	g.collectStrings()
	g.imports()
	for _, fn := range file.Funcs {
		g.function(fn)
	}
	g.start(main)
	if g.failed {
		return nil, false
	}
	g.exports()
	g.mod.Memories = []wasm.Limits{{Min: 1}}
	if len(g.data) > 0 {
		g.mod.Data = []wasm.Data{{Offset: wasm.ConstI32(DataBase), Init: g.data}}
	}
	return g.mod.Encode(), true
}

func (g *generator) errorf(code diag.Code, sp source.Span, format string, args ...any) {
	g.failed = true
	diag.Errorf(g.opts.Reporter, code, sp, format, args...)
}

// entry validates main and reserved export names.
func (g *generator) entry() *ast.FuncDecl {
	for _, fn := range g.file.Funcs {
		if fn.Export && (fn.Name.Name == EntryName || fn.Name.Name == MemoryName) {
			g.errorf(diag.GenBadEntry, fn.Name.Span, "export name %q is reserved", fn.Name.Name)
		}
	}
	main := g.file.Func(MainName)
	if main == nil {
		g.failed = true
		if g.opts.Reporter != nil {
			g.opts.Reporter.Report(diag.SevError, diag.GenMissingEntry, g.file.Span, "no function named main")
		}
		return nil
	}
	if len(main.Params) != 0 {
		g.errorf(diag.GenBadEntry, main.Name.Span, "main must not take parameters")
	}
	if main.ResultType == ast.TypeBool {
		g.errorf(diag.GenBadEntry, main.Result.Span, "main must return i32 or none")
	}
	return main
}

func (g *generator) collectStrings() {
	for _, fn := range g.file.Funcs {
		ast.Inspect(fn, func(node any) bool {
			lit, ok := node.(*ast.StringLit)
			if !ok || lit.Type() != ast.TypeStr {
				return true
			}
			if _, seen := g.strings[lit.Value]; seen {
				return true
			}
			if DataBase+len(g.data)+len(lit.Value) > wasm.PageSize {
				if !g.failed {
					g.errorf(diag.GenDataOverflow, lit.Span, "string literals exceed %d bytes of linear memory", wasm.PageSize-DataBase)
				}
				return true
			}
			g.strings[lit.Value] = u32(DataBase + len(g.data))
			g.data = append(g.data, lit.Value...)
			return true
		})
	}
}

func (g *generator) imports() {
	add := func(module, name string, ft wasm.FuncType) {
		g.mod.Imports = append(g.mod.Imports, wasm.Import{
			Module:    module,
			Name:      name,
			Kind:      wasm.ExternFunc,
			TypeIndex: g.mod.AddType(ft),
		})
	}
	i32 := wasm.I32
	add(HostModule, "write", wasm.FuncType{Params: []wasm.ValType{i32, i32, i32}, Results: []wasm.ValType{i32}})
	add(HostModule, "print_i32", wasm.FuncType{Params: []wasm.ValType{i32}})
	add(HostModule, "clock_ms", wasm.FuncType{Results: []wasm.ValType{i32}})
	add(WASIModule, "proc_exit", wasm.FuncType{Params: []wasm.ValType{i32}})
}

func funcType(fn *ast.FuncDecl) wasm.FuncType {
	ft := wasm.FuncType{Params: make([]wasm.ValType, len(fn.Params))}
	for i := range fn.Params {
		ft.Params[i] = wasm.I32
	}
	if fn.ResultType != ast.TypeNone {
		ft.Results = []wasm.ValType{wasm.I32}
	}
	return ft
}

func funcIndex(fn *ast.FuncDecl) uint32 {
	return numImports + fn.Index
}

func (g *generator) function(fn *ast.FuncDecl) {
	if len(fn.Locals) > maxLocals {
		g.errorf(diag.GenTooManyLocals, fn.Name.Span, "function %q declares %d locals (limit %d)", fn.Name.Name, len(fn.Locals), maxLocals)
		return
	}
	fg := &funcGen{g: g, fn: fn}
	fg.block(fn.Body)
	if fn.ResultType != ast.TypeNone {
		// falling off the end returns zero
		fg.body.I32Const(0)
	}
	code := wasm.Code{Body: fg.body.Bytes()}
	if n := len(fn.Locals); n > 0 {
		code.Locals = []wasm.LocalEntry{{Count: u32(n), Type: wasm.I32}}
	}
	g.mod.Funcs = append(g.mod.Funcs, g.mod.AddType(funcType(fn)))
	g.mod.Codes = append(g.mod.Codes, code)
}

// start emits _start, which calls main and discards its result.
func (g *generator) start(main *ast.FuncDecl) {
	var body wasm.Body
	body.Call(funcIndex(main))
	if main.ResultType != ast.TypeNone {
		body.Op(wasm.OpDrop)
	}
	g.mod.Funcs = append(g.mod.Funcs, g.mod.AddType(wasm.FuncType{}))
	g.mod.Codes = append(g.mod.Codes, wasm.Code{Body: body.Bytes()})
}

func (g *generator) exports() {
	g.mod.Exports = append(g.mod.Exports,
		wasm.Export{Name: MemoryName, Kind: wasm.ExternMemory, Index: 0},
		wasm.Export{Name: EntryName, Kind: wasm.ExternFunc, Index: numImports + u32(len(g.file.Funcs))},
	)
	seen := map[string]bool{MemoryName: true, EntryName: true}
	for _, fn := range g.file.Funcs {
		if !fn.Export || seen[fn.Name.Name] {
			continue
		}
		seen[fn.Name.Name] = true
		g.mod.Exports = append(g.mod.Exports, wasm.Export{Name: fn.Name.Name, Kind: wasm.ExternFunc, Index: funcIndex(fn)})
	}
}

func u32(n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("codegen: index overflow: %w", err))
	}
	return v
}
