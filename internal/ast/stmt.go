package ast

import "whistle/internal/source"

type Stmt interface {
	Pos() source.Span
	stmtNode()
}

type Block struct {
	Stmts []Stmt
	Span  source.Span
}

// VarStmt declares a local. Mutable is false for val.
type VarStmt struct {
	Mutable bool
	Name    Ident
	Type    *TypeRef
	Init    Expr
	Span    source.Span

	T    Type
	Slot uint32
}

type AssignStmt struct {
	Target *Name
	Value  Expr
	Span   source.Span
}

// IfStmt's Else is nil, a *Block or an *IfStmt.
type IfStmt struct {
	Cond Expr
	Then *Block
	Else Stmt
	Span source.Span
}

type WhileStmt struct {
	Cond Expr
	Body *Block
	Span source.Span
}

type BreakStmt struct{ Span source.Span }

type ContinueStmt struct{ Span source.Span }

// ReturnStmt's Value is nil for a bare return.
type ReturnStmt struct {
	Value Expr
	Span  source.Span
}

type ExprStmt struct {
	X    Expr
	Span source.Span
}

func (s *Block) Pos() source.Span        { return s.Span }
func (s *VarStmt) Pos() source.Span      { return s.Span }
func (s *AssignStmt) Pos() source.Span   { return s.Span }
func (s *IfStmt) Pos() source.Span       { return s.Span }
func (s *WhileStmt) Pos() source.Span    { return s.Span }
func (s *BreakStmt) Pos() source.Span    { return s.Span }
func (s *ContinueStmt) Pos() source.Span { return s.Span }
func (s *ReturnStmt) Pos() source.Span   { return s.Span }
func (s *ExprStmt) Pos() source.Span     { return s.Span }

func (*Block) stmtNode()        {}
func (*VarStmt) stmtNode()      {}
func (*AssignStmt) stmtNode()   {}
func (*IfStmt) stmtNode()       {}
func (*WhileStmt) stmtNode()    {}
func (*BreakStmt) stmtNode()    {}
func (*ContinueStmt) stmtNode() {}
func (*ReturnStmt) stmtNode()   {}
func (*ExprStmt) stmtNode()     {}
