package check

import (
	"whistle/internal/ast"
	"whistle/internal/diag"
)

func (c *checker) checkStmts(stmts []ast.Stmt) {
	for _, st := range stmts {
		c.checkStmt(st)
	}
}

func (c *checker) checkStmt(st ast.Stmt) {
	switch st := st.(type) {
	case *ast.Block:
		c.push()
		c.checkStmts(st.Stmts)
		c.pop()
	case *ast.VarStmt:
		c.checkVar(st)
	case *ast.AssignStmt:
		c.checkAssign(st)
	case *ast.IfStmt:
		c.checkCond(st.Cond)
		c.checkStmt(st.Then)
		if st.Else != nil {
			c.checkStmt(st.Else)
		}
	case *ast.WhileStmt:
		c.checkCond(st.Cond)
		c.loops++
		c.checkStmt(st.Body)
		c.loops--
	case *ast.BreakStmt:
		if c.loops == 0 {
			c.errorf(diag.SemaBreakOutsideLoop, st.Span, "break outside of a loop")
		}
	case *ast.ContinueStmt:
		if c.loops == 0 {
			c.errorf(diag.SemaBreakOutsideLoop, st.Span, "continue outside of a loop")
		}
	case *ast.ReturnStmt:
		c.checkReturn(st)
	case *ast.ExprStmt:
		c.checkExpr(st.X)
	}
}

func (c *checker) checkVar(st *ast.VarStmt) {
	got := c.checkExpr(st.Init)
	if st.Type != nil {
		st.T = c.resolveValueType(st.Type)
		if st.T != ast.TypeInvalid && got != ast.TypeInvalid && got != st.T {
			c.mismatch(st.Init, st.T, got)
		}
	} else {
		st.T = got
		if got == ast.TypeNone {
			c.errorf(diag.SemaVoidValue, st.Init.Pos(), "cannot initialize %q with a value of type none", st.Name.Name)
			st.T = ast.TypeInvalid
		}
	}
	slotType := st.T
	if !slotType.IsValue() {
		slotType = ast.TypeI32
	}
	st.Slot = c.newSlot(slotType)
	b := &binding{name: st.Name.Name, slot: st.Slot, typ: st.T, mutable: st.Mutable, span: st.Name.Span}
	if !c.bind(b) {
		c.errorf(diag.SemaDuplicateSymbol, st.Name.Span, "%q already declared in this scope", st.Name.Name)
	}
}

func (c *checker) checkAssign(st *ast.AssignStmt) {
	got := c.checkExpr(st.Value)
	b := c.resolveName(st.Target)
	if b == nil {
		return
	}
	if !b.mutable {
		c.errorf(diag.SemaAssignImmutable, st.Target.Ident.Span, "cannot assign to %q: declared with val", b.name)
		return
	}
	if b.typ != ast.TypeInvalid && got != ast.TypeInvalid && got != b.typ {
		c.mismatch(st.Value, b.typ, got)
	}
}

func (c *checker) checkCond(cond ast.Expr) {
	got := c.checkExpr(cond)
	if got != ast.TypeInvalid && got != ast.TypeBool {
		c.mismatch(cond, ast.TypeBool, got)
	}
}

func (c *checker) checkReturn(st *ast.ReturnStmt) {
	want := c.fn.ResultType
	if st.Value == nil {
		if want != ast.TypeNone && want != ast.TypeInvalid {
			c.errorf(diag.SemaReturnMismatch, st.Span, "missing return value of type %s", want)
		}
		return
	}
	got := c.checkExpr(st.Value)
	if want == ast.TypeInvalid || got == ast.TypeInvalid || got == want {
		return
	}
	if want == ast.TypeNone {
		c.errorf(diag.SemaReturnMismatch, st.Value.Pos(), "function %q does not return a value", c.fn.Name.Name)
		return
	}
	c.errorf(diag.SemaReturnMismatch, st.Value.Pos(), "cannot return %s from function returning %s", got, want)
}

func (c *checker) mismatch(e ast.Expr, want, got ast.Type) {
	if got == ast.TypeNone {
		c.errorf(diag.SemaVoidValue, e.Pos(), "expression of type none used as %s", want)
		return
	}
	c.errorf(diag.SemaTypeMismatch, e.Pos(), "expected %s, got %s", want, got)
}
