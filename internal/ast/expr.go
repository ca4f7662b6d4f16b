package ast

import (
	"whistle/internal/source"
	"whistle/internal/token"
)

type Expr interface {
	Pos() source.Span
	// Type is the checker's annotation.
	Type() Type
	SetType(Type)
	exprNode()
}

type typed struct{ T Type }

func (t *typed) Type() Type      { return t.T }
func (t *typed) SetType(ty Type) { t.T = ty }

// IntLit holds the literal digits; Value is meaningful unless Overflow.
type IntLit struct {
	typed
	Text     string
	Value    uint64
	Overflow bool
	Span     source.Span
}

type BoolLit struct {
	typed
	Value bool
	Span  source.Span
}

// StringLit holds the decoded literal.
type StringLit struct {
	typed
	Value string
	Span  source.Span
}

// Name is a use of a parameter or local.
type Name struct {
	typed
	Ident

	// Slot and Mutable are filled in by the checker when the name resolves.
	Slot     uint32
	Resolved bool
	Mutable  bool
}

type Unary struct {
	typed
	Op   token.Kind
	X    Expr
	Span source.Span
}

type Binary struct {
	typed
	Op   token.Kind
	X, Y Expr
	Span source.Span
}

// Call is a direct call. Exactly one of Target and Builtin is set once
// checked.
type Call struct {
	typed
	Callee  Ident
	Args    []Expr
	Span    source.Span
	Target  *FuncDecl
	Builtin Builtin
}

func (e *IntLit) Pos() source.Span    { return e.Span }
func (e *BoolLit) Pos() source.Span   { return e.Span }
func (e *StringLit) Pos() source.Span { return e.Span }
func (e *Name) Pos() source.Span      { return e.Ident.Span }
func (e *Unary) Pos() source.Span     { return e.Span }
func (e *Binary) Pos() source.Span    { return e.Span }
func (e *Call) Pos() source.Span      { return e.Span }

func (*IntLit) exprNode()    {}
func (*BoolLit) exprNode()   {}
func (*StringLit) exprNode() {}
func (*Name) exprNode()      {}
func (*Unary) exprNode()     {}
func (*Binary) exprNode()    {}
func (*Call) exprNode()      {}
