package ast

// Inspect walks the statements of fn depth-first, calling visit for every
// statement and expression. Returning false from visit skips children.
func Inspect(fn *FuncDecl, visit func(node any) bool) {
	if fn == nil || fn.Body == nil {
		return
	}
	inspectStmt(fn.Body, visit)
}

func inspectStmt(s Stmt, visit func(any) bool) {
	if s == nil || !visit(s) {
		return
	}
	switch s := s.(type) {
	case *Block:
		for _, st := range s.Stmts {
			inspectStmt(st, visit)
		}
	case *VarStmt:
		inspectExpr(s.Init, visit)
	case *AssignStmt:
		inspectExpr(s.Target, visit)
		inspectExpr(s.Value, visit)
	case *IfStmt:
		inspectExpr(s.Cond, visit)
		inspectStmt(s.Then, visit)
		if s.Else != nil {
			inspectStmt(s.Else, visit)
		}
	case *WhileStmt:
		inspectExpr(s.Cond, visit)
		inspectStmt(s.Body, visit)
	case *ReturnStmt:
		inspectExpr(s.Value, visit)
	case *ExprStmt:
		inspectExpr(s.X, visit)
	}
}

func inspectExpr(e Expr, visit func(any) bool) {
	if e == nil || !visit(e) {
		return
	}
	switch e := e.(type) {
	case *Unary:
		inspectExpr(e.X, visit)
	case *Binary:
		inspectExpr(e.X, visit)
		inspectExpr(e.Y, visit)
	case *Call:
		for _, a := range e.Args {
			inspectExpr(a, visit)
		}
	}
}
