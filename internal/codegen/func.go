package codegen

import (
	"math"

	"whistle/internal/ast"
	"whistle/internal/token"
	"whistle/internal/wasm"
)

type loopLabels struct {
	brk, cont int
}

type funcGen struct {
	g     *generator
	fn    *ast.FuncDecl
	body  wasm.Body
	depth int
	loops []loopLabels
}

// open starts a structured instruction and returns its label level.
func (f *funcGen) open(op byte, result *wasm.ValType) int {
	f.body.Block(op, result)
	lvl := f.depth
	f.depth++
	return lvl
}

func (f *funcGen) end() {
	f.body.End()
	f.depth--
}

// rel converts a label level to a relative branch depth.
func (f *funcGen) rel(lvl int) uint32 {
	return u32(f.depth - 1 - lvl)
}

func (f *funcGen) trap() {
	f.body.Op(wasm.OpUnreachable)
}

func (f *funcGen) block(b *ast.Block) {
	for _, st := range b.Stmts {
		f.stmt(st)
	}
}

func (f *funcGen) stmt(st ast.Stmt) {
	switch st := st.(type) {
	case *ast.Block:
		f.block(st)
	case *ast.VarStmt:
		f.value(st.Init)
		f.body.LocalSet(st.Slot)
	case *ast.AssignStmt:
		if !st.Target.Resolved {
			f.trap()
			return
		}
		f.value(st.Value)
		f.body.LocalSet(st.Target.Slot)
	case *ast.IfStmt:
		f.value(st.Cond)
		f.open(wasm.OpIf, nil)
		f.block(st.Then)
		if st.Else != nil {
			f.body.Else()
			f.stmt(st.Else)
		}
		f.end()
	case *ast.WhileStmt:
		brk := f.open(wasm.OpBlock, nil)
		cont := f.open(wasm.OpLoop, nil)
		f.value(st.Cond)
		f.body.Op(wasm.OpI32Eqz)
		f.body.BrIf(f.rel(brk))
		f.loops = append(f.loops, loopLabels{brk: brk, cont: cont})
		f.block(st.Body)
		f.loops = f.loops[:len(f.loops)-1]
		f.body.Br(f.rel(cont))
		f.end()
		f.end()
	case *ast.BreakStmt:
		if len(f.loops) == 0 {
			f.trap()
			return
		}
		f.body.Br(f.rel(f.loops[len(f.loops)-1].brk))
	case *ast.ContinueStmt:
		if len(f.loops) == 0 {
			f.trap()
			return
		}
		f.body.Br(f.rel(f.loops[len(f.loops)-1].cont))
	case *ast.ReturnStmt:
		f.ret(st)
	case *ast.ExprStmt:
		f.expr(st.X)
		if st.X.Type().IsValue() {
			f.body.Op(wasm.OpDrop)
		}
	}
}

func (f *funcGen) ret(st *ast.ReturnStmt) {
	if f.fn.ResultType == ast.TypeNone {
		if st.Value != nil {
			f.expr(st.Value)
			if st.Value.Type().IsValue() {
				f.body.Op(wasm.OpDrop)
			}
		}
		f.body.Op(wasm.OpReturn)
		return
	}
	if st.Value == nil {
		f.trap()
		return
	}
	f.value(st.Value)
	f.body.Op(wasm.OpReturn)
}

// value emits e where exactly one i32 is expected.
func (f *funcGen) value(e ast.Expr) {
	f.expr(e)
	if !e.Type().IsValue() {
		f.trap()
	}
}

// expr emits e. Value-typed expressions leave one i32 on the stack; none
// typed calls leave nothing; invalid expressions trap.
func (f *funcGen) expr(e ast.Expr) {
	if t := e.Type(); t == ast.TypeInvalid || t == ast.TypeUnknown {
		f.trap()
		return
	}
	switch e := e.(type) {
	case *ast.IntLit:
		f.body.I32Const(int32(e.Value))
	case *ast.BoolLit:
		if e.Value {
			f.body.I32Const(1)
		} else {
			f.body.I32Const(0)
		}
	case *ast.Name:
		f.body.LocalGet(e.Slot)
	case *ast.Unary:
		f.unary(e)
	case *ast.Binary:
		f.binary(e)
	case *ast.Call:
		f.call(e)
	default:
		f.trap()
	}
}

func (f *funcGen) unary(e *ast.Unary) {
	if e.Op == token.Bang {
		f.value(e.X)
		f.body.Op(wasm.OpI32Eqz)
		return
	}
	if lit, ok := e.X.(*ast.IntLit); ok && lit.Value == math.MaxInt32+1 {
		f.body.I32Const(math.MinInt32)
		return
	}
	f.body.I32Const(0)
	f.value(e.X)
	f.body.Op(wasm.OpI32Sub)
}

var binaryOps = map[token.Kind]byte{
	token.Plus:    wasm.OpI32Add,
	token.Minus:   wasm.OpI32Sub,
	token.Star:    wasm.OpI32Mul,
	token.Slash:   wasm.OpI32DivS,
	token.Percent: wasm.OpI32RemS,
	token.EqEq:    wasm.OpI32Eq,
	token.BangEq:  wasm.OpI32Ne,
	token.Lt:      wasm.OpI32LtS,
	token.LtEq:    wasm.OpI32LeS,
	token.Gt:      wasm.OpI32GtS,
	token.GtEq:    wasm.OpI32GeS,
}

func (f *funcGen) binary(e *ast.Binary) {
	i32 := wasm.I32
	switch e.Op {
	case token.AndAnd:
		f.value(e.X)
		f.open(wasm.OpIf, &i32)
		f.value(e.Y)
		f.body.Else()
		f.body.I32Const(0)
		f.end()
		return
	case token.OrOr:
		f.value(e.X)
		f.open(wasm.OpIf, &i32)
		f.body.I32Const(1)
		f.body.Else()
		f.value(e.Y)
		f.end()
		return
	}
	op, ok := binaryOps[e.Op]
	if !ok {
		f.trap()
		return
	}
	f.value(e.X)
	f.value(e.Y)
	f.body.Op(op)
}

func (f *funcGen) call(e *ast.Call) {
	switch e.Builtin {
	case ast.BuiltinPrint, ast.BuiltinEprint:
		fd := int32(1)
		if e.Builtin == ast.BuiltinEprint {
			fd = 2
		}
		lit, ok := e.Args[0].(*ast.StringLit)
		if !ok {
			f.trap()
			return
		}
		ptr, ok := f.g.strings[lit.Value]
		if !ok {
			f.trap()
			return
		}
		f.body.I32Const(fd)
		f.body.I32Const(int32(ptr))
		f.body.I32Const(int32(len(lit.Value)))
		f.body.Call(importWrite)
		f.body.Op(wasm.OpDrop)
		return
	case ast.BuiltinPrintI32:
		f.value(e.Args[0])
		f.body.Call(importPrintI32)
		return
	case ast.BuiltinExit:
		f.value(e.Args[0])
		f.body.Call(importProcExit)
		return
	case ast.BuiltinClockMs:
		f.body.Call(importClockMs)
		return
	}
	if e.Target == nil {
		f.trap()
		return
	}
	for _, arg := range e.Args {
		f.value(arg)
	}
	f.body.Call(funcIndex(e.Target))
}
