package ast

import "whistle/internal/source"

// File is the root of a parsed unit.
type File struct {
	ID    source.FileID
	Funcs []*FuncDecl
	Span  source.Span
}

// Func returns the function declared as name, or nil.
func (f *File) Func(name string) *FuncDecl {
	if f == nil {
		return nil
	}
	for _, fn := range f.Funcs {
		if fn.Name.Name == name {
			return fn
		}
	}
	return nil
}

// Ident is a name with its location.
type Ident struct {
	Name string
	Span source.Span
}

// TypeRef is a type as written in the source.
type TypeRef struct {
	Name string
	Span source.Span
}

type Param struct {
	Name Ident
	Type *TypeRef
	Span source.Span

	// set by the checker
	T    Type
	Slot uint32
}

// FuncDecl is a top-level function. Result is nil when the result type is
// omitted, which means i32.
type FuncDecl struct {
	Export bool
	Name   Ident
	Params []*Param
	Result *TypeRef
	Body   *Block
	Span   source.Span

	// set by the checker
	ResultType Type
	// Locals lists the types of every slot after the parameters.
	Locals []Type
	// Index orders the function among all declarations of the file.
	Index uint32
}

// NumSlots returns params plus locals.
func (fn *FuncDecl) NumSlots() int {
	return len(fn.Params) + len(fn.Locals)
}
