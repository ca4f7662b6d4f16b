// Package check resolves names and types and annotates the syntax tree in
// place.
//
// Every error is reported once at its root cause. Nodes whose type cannot
// be determined get ast.TypeInvalid and anything built on top of them stays
// silent.
package check

import (
	"fmt"

	"fortio.org/safecast"

	"whistle/internal/ast"
	"whistle/internal/diag"
	"whistle/internal/source"
)

// Options configure a pass over a file.
type Options struct {
	Reporter diag.Reporter
	// NoUnusedWarnings disables the unused-variable warning.
	NoUnusedWarnings bool
}

type binding struct {
	name    string
	slot    uint32
	typ     ast.Type
	mutable bool
	used    bool
	span    source.Span
}

type scope struct {
	names map[string]*binding
	order []*binding
}

type checker struct {
	opts   Options
	funcs  map[string]*ast.FuncDecl
	fn     *ast.FuncDecl
	scopes []*scope
	loops  int
}

// Check annotates file. Errors are reported through opts.Reporter; the
// tree is always fully annotated afterwards.
func Check(file *ast.File, opts Options) {
	if file == nil {
		return
	}
	c := &checker{opts: opts, funcs: make(map[string]*ast.FuncDecl, len(file.Funcs))}
	c.declare(file)
	for _, fn := range file.Funcs {
		c.checkFunc(fn)
	}
}

func (c *checker) errorf(code diag.Code, sp source.Span, format string, args ...any) {
	diag.Errorf(c.opts.Reporter, code, sp, format, args...)
}

// declare registers every function signature so calls may precede
// definitions.
func (c *checker) declare(file *ast.File) {
	for i, fn := range file.Funcs {
		fn.Index = u32(i)
		for _, p := range fn.Params {
			p.T = c.resolveValueType(p.Type)
		}
		fn.ResultType = ast.TypeI32
		if fn.Result != nil {
			fn.ResultType = c.resolveResultType(fn.Result)
		}

		name := fn.Name.Name
		if _, ok := ast.LookupBuiltin(name); ok {
			c.errorf(diag.SemaBuiltinRedeclared, fn.Name.Span, "cannot redeclare builtin function %q", name)
			continue
		}
		if prev, ok := c.funcs[name]; ok {
			c.errorf(diag.SemaDuplicateSymbol, fn.Name.Span, "function %q already declared at offset %d", name, prev.Name.Span.Start)
			continue
		}
		c.funcs[name] = fn
	}
}

func (c *checker) resolveValueType(ref *ast.TypeRef) ast.Type {
	switch ref.Name {
	case "i32":
		return ast.TypeI32
	case "bool":
		return ast.TypeBool
	case "none", "str":
		c.errorf(diag.SemaUnknownType, ref.Span, "type %s cannot be used for a variable or parameter", ref.Name)
		return ast.TypeInvalid
	}
	c.errorf(diag.SemaUnknownType, ref.Span, "unknown type %q", ref.Name)
	return ast.TypeInvalid
}

func (c *checker) resolveResultType(ref *ast.TypeRef) ast.Type {
	if ref.Name == "none" {
		return ast.TypeNone
	}
	return c.resolveValueType(ref)
}

func (c *checker) checkFunc(fn *ast.FuncDecl) {
	c.fn = fn
	c.loops = 0
	fn.Locals = fn.Locals[:0]
	c.push()
	for i, p := range fn.Params {
		p.Slot = u32(i)
		if !c.bind(&binding{name: p.Name.Name, slot: p.Slot, typ: p.T, mutable: false, used: true, span: p.Name.Span}) {
			c.errorf(diag.SemaDuplicateSymbol, p.Name.Span, "duplicate parameter %q", p.Name.Name)
		}
	}
	c.checkStmts(fn.Body.Stmts)
	c.pop()
	c.fn = nil
}

func (c *checker) push() {
	c.scopes = append(c.scopes, &scope{names: make(map[string]*binding)})
}

func (c *checker) pop() {
	top := c.scopes[len(c.scopes)-1]
	c.scopes = c.scopes[:len(c.scopes)-1]
	if c.opts.NoUnusedWarnings {
		return
	}
	for _, b := range top.order {
		if !b.used && b.name != "" && b.name[0] != '_' {
			diag.Warnf(c.opts.Reporter, diag.SemaUnusedVariable, b.span, "variable %q is never used", b.name)
		}
	}
}

// bind adds b to the innermost scope; false if the name is taken there.
func (c *checker) bind(b *binding) bool {
	top := c.scopes[len(c.scopes)-1]
	if _, ok := top.names[b.name]; ok {
		return false
	}
	top.names[b.name] = b
	top.order = append(top.order, b)
	return true
}

func (c *checker) lookup(name string) *binding {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if b, ok := c.scopes[i].names[name]; ok {
			return b
		}
	}
	return nil
}

// newSlot allocates a local after the parameters. Invalid locals are kept
// as i32 so slot numbering stays dense.
func (c *checker) newSlot(t ast.Type) uint32 {
	slot := u32(len(c.fn.Params) + len(c.fn.Locals))
	c.fn.Locals = append(c.fn.Locals, t)
	return slot
}

func u32(n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("slot overflow: %w", err))
	}
	return v
}
