package check

import (
	"math"

	"whistle/internal/ast"
	"whistle/internal/diag"
	"whistle/internal/token"
)

// builtinSig describes a host function. Params of type str accept only
// string literals.
type builtinSig struct {
	params []ast.Type
	result ast.Type
}

var builtinSigs = map[ast.Builtin]builtinSig{
	ast.BuiltinPrint:    {params: []ast.Type{ast.TypeStr}, result: ast.TypeNone},
	ast.BuiltinEprint:   {params: []ast.Type{ast.TypeStr}, result: ast.TypeNone},
	ast.BuiltinPrintI32: {params: []ast.Type{ast.TypeI32}, result: ast.TypeNone},
	ast.BuiltinExit:     {params: []ast.Type{ast.TypeI32}, result: ast.TypeNone},
	ast.BuiltinClockMs:  {params: []ast.Type{}, result: ast.TypeI32},
}

func (c *checker) checkExpr(e ast.Expr) ast.Type {
	t := c.exprType(e)
	e.SetType(t)
	return t
}

func (c *checker) exprType(e ast.Expr) ast.Type {
	switch e := e.(type) {
	case *ast.IntLit:
		if e.Overflow || e.Value > math.MaxInt32 {
			c.errorf(diag.SemaIntOverflow, e.Span, "integer literal %s does not fit in i32", e.Text)
			return ast.TypeInvalid
		}
		return ast.TypeI32
	case *ast.BoolLit:
		return ast.TypeBool
	case *ast.StringLit:
		c.errorf(diag.SemaStringContext, e.Span, "string literals may only be passed to print or eprint")
		return ast.TypeInvalid
	case *ast.Name:
		b := c.resolveName(e)
		if b == nil {
			return ast.TypeInvalid
		}
		return b.typ
	case *ast.Unary:
		return c.checkUnary(e)
	case *ast.Binary:
		return c.checkBinary(e)
	case *ast.Call:
		return c.checkCall(e)
	}
	return ast.TypeInvalid
}

// resolveName binds n to its local and marks it used. Unresolved names are
// reported here and nowhere else.
func (c *checker) resolveName(n *ast.Name) *binding {
	b := c.lookup(n.Name)
	if b == nil {
		if _, ok := c.funcs[n.Name]; ok {
			c.errorf(diag.SemaTypeMismatch, n.Ident.Span, "function %q used as a value", n.Name)
		} else {
			c.errorf(diag.SemaUnresolvedSymbol, n.Ident.Span, "unresolved identifier %q", n.Name)
		}
		n.SetType(ast.TypeInvalid)
		return nil
	}
	b.used = true
	n.Slot = b.slot
	n.Mutable = b.mutable
	n.Resolved = true
	n.SetType(b.typ)
	return b
}

func (c *checker) checkUnary(e *ast.Unary) ast.Type {
	if lit, ok := e.X.(*ast.IntLit); ok && e.Op == token.Minus && !lit.Overflow && lit.Value == math.MaxInt32+1 {
		// -2147483648 is representable
		lit.SetType(ast.TypeI32)
		return ast.TypeI32
	}
	x := c.checkExpr(e.X)
	want := ast.TypeI32
	if e.Op == token.Bang {
		want = ast.TypeBool
	}
	switch x {
	case ast.TypeInvalid:
		return ast.TypeInvalid
	case want:
		return want
	}
	c.errorf(diag.SemaTypeMismatch, e.Span, "operator %s expects %s, got %s", e.Op, want, x)
	return ast.TypeInvalid
}

func (c *checker) checkBinary(e *ast.Binary) ast.Type {
	x := c.checkExpr(e.X)
	y := c.checkExpr(e.Y)
	if x == ast.TypeInvalid || y == ast.TypeInvalid {
		return ast.TypeInvalid
	}
	for _, side := range []struct {
		e ast.Expr
		t ast.Type
	}{{e.X, x}, {e.Y, y}} {
		if side.t == ast.TypeNone {
			c.errorf(diag.SemaVoidValue, side.e.Pos(), "value of type none used as operand of %s", e.Op)
			return ast.TypeInvalid
		}
	}

	var operand, result ast.Type
	switch e.Op {
	case token.Plus, token.Minus, token.Star, token.Slash, token.Percent:
		operand, result = ast.TypeI32, ast.TypeI32
	case token.Lt, token.LtEq, token.Gt, token.GtEq:
		operand, result = ast.TypeI32, ast.TypeBool
	case token.AndAnd, token.OrOr:
		operand, result = ast.TypeBool, ast.TypeBool
	case token.EqEq, token.BangEq:
		if x != y {
			c.errorf(diag.SemaTypeMismatch, e.Span, "cannot compare %s with %s", x, y)
			return ast.TypeInvalid
		}
		return ast.TypeBool
	default:
		return ast.TypeInvalid
	}
	if x != operand || y != operand {
		c.errorf(diag.SemaTypeMismatch, e.Span, "operator %s expects %s operands, got %s and %s", e.Op, operand, x, y)
		return ast.TypeInvalid
	}
	return result
}

func (c *checker) checkCall(e *ast.Call) ast.Type {
	name := e.Callee.Name
	if b := c.lookup(name); b != nil {
		b.used = true
		c.checkArgs(e, nil)
		c.errorf(diag.SemaNotCallable, e.Callee.Span, "%q is a variable, not a function", name)
		return ast.TypeInvalid
	}
	if builtin, ok := ast.LookupBuiltin(name); ok {
		sig := builtinSigs[builtin]
		e.Builtin = builtin
		if !c.checkArgs(e, sig.params) {
			return ast.TypeInvalid
		}
		return sig.result
	}
	fn, ok := c.funcs[name]
	if !ok {
		c.checkArgs(e, nil)
		c.errorf(diag.SemaUnresolvedSymbol, e.Callee.Span, "unresolved function %q", name)
		return ast.TypeInvalid
	}
	e.Target = fn
	params := make([]ast.Type, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = p.T
	}
	if !c.checkArgs(e, params) {
		return ast.TypeInvalid
	}
	return fn.ResultType
}

// checkArgs checks every argument. A nil params skips type comparison.
// It returns false when the argument count is wrong.
func (c *checker) checkArgs(e *ast.Call, params []ast.Type) bool {
	ok := true
	if params != nil && len(params) != len(e.Args) {
		c.errorf(diag.SemaArgCount, e.Span, "%s expects %d argument(s), got %d", e.Callee.Name, len(params), len(e.Args))
		params = nil
		ok = false
	}
	for i, arg := range e.Args {
		var want ast.Type
		if params != nil {
			want = params[i]
		}
		if want == ast.TypeStr {
			if _, ok := arg.(*ast.StringLit); ok {
				arg.SetType(ast.TypeStr)
				continue
			}
		}
		got := c.checkExpr(arg)
		if params == nil || want == ast.TypeInvalid || got == ast.TypeInvalid || got == want {
			continue
		}
		if want == ast.TypeStr {
			c.errorf(diag.SemaTypeMismatch, arg.Pos(), "%s expects a string literal", e.Callee.Name)
			continue
		}
		c.mismatch(arg, want, got)
	}
	return ok
}
