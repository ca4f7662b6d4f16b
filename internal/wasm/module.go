package wasm

import (
	"errors"
)

// ErrMalformed is wrapped by every decoding error.
var ErrMalformed = errors.New("malformed wasm module")

var (
	magic   = []byte{0x00, 0x61, 0x73, 0x6d}
	version = []byte{0x01, 0x00, 0x00, 0x00}
)

// PageSize is the size of one linear memory page.
const PageSize = 65536

type ValType byte

const (
	I32       ValType = 0x7f
	I64       ValType = 0x7e
	F32       ValType = 0x7d
	F64       ValType = 0x7c
	V128      ValType = 0x7b
	FuncRef   ValType = 0x70
	ExternRef ValType = 0x6f
)

func (v ValType) String() string {
	switch v {
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	case V128:
		return "v128"
	case FuncRef:
		return "funcref"
	case ExternRef:
		return "externref"
	}
	return "unknown"
}

func validValType(b byte) bool {
	switch ValType(b) {
	case I32, I64, F32, F64, V128, FuncRef, ExternRef:
		return true
	}
	return false
}

func validRefType(b byte) bool {
	return ValType(b) == FuncRef || ValType(b) == ExternRef
}

type FuncType struct {
	Params  []ValType
	Results []ValType
}

func (ft FuncType) equal(other FuncType) bool {
	if len(ft.Params) != len(other.Params) || len(ft.Results) != len(other.Results) {
		return false
	}
	for i := range ft.Params {
		if ft.Params[i] != other.Params[i] {
			return false
		}
	}
	for i := range ft.Results {
		if ft.Results[i] != other.Results[i] {
			return false
		}
	}
	return true
}

// ExternKind tags imports and exports.
type ExternKind byte

const (
	ExternFunc   ExternKind = 0x00
	ExternTable  ExternKind = 0x01
	ExternMemory ExternKind = 0x02
	ExternGlobal ExternKind = 0x03
)

func (k ExternKind) String() string {
	switch k {
	case ExternFunc:
		return "func"
	case ExternTable:
		return "table"
	case ExternMemory:
		return "memory"
	case ExternGlobal:
		return "global"
	}
	return "unknown"
}

type Limits struct {
	Min    uint32
	Max    uint32
	HasMax bool
}

type Table struct {
	Elem   ValType
	Limits Limits
}

type GlobalType struct {
	Type    ValType
	Mutable bool
}

// Import's descriptor fields are used according to Kind.
type Import struct {
	Module string
	Name   string
	Kind   ExternKind

	TypeIndex uint32
	Table     Table
	Memory    Limits
	Global    GlobalType
}

type Export struct {
	Name  string
	Kind  ExternKind
	Index uint32
}

// Global's Init is a constant expression including the final end opcode.
type Global struct {
	Type GlobalType
	Init []byte
}

// Elem keeps element segments in encoded form; they are carried through
// decoding and re-encoding but not interpreted.
type Elem struct {
	Raw []byte
}

type LocalEntry struct {
	Count uint32
	Type  ValType
}

// Code is one function body. Body holds the instructions including the
// final end opcode.
type Code struct {
	Locals []LocalEntry
	Body   []byte
}

// Data is a data segment. Active segments have an Offset constant
// expression (including end); passive segments have none.
type Data struct {
	Passive bool
	Memory  uint32
	Offset  []byte
	Init    []byte
}

type Custom struct {
	Name string
	Data []byte
}

// Module is a decoded or to-be-encoded module. Slices follow section
// order; Funcs holds the type index of every defined function.
type Module struct {
	Types     []FuncType
	Imports   []Import
	Funcs     []uint32
	Tables    []Table
	Memories  []Limits
	Globals   []Global
	Exports   []Export
	Start     *uint32
	Elems     []Elem
	DataCount *uint32
	Codes     []Code
	Data      []Data
	Customs   []Custom
}

// NumImported counts imports of kind k.
func (m *Module) NumImported(k ExternKind) int {
	n := 0
	for _, imp := range m.Imports {
		if imp.Kind == k {
			n++
		}
	}
	return n
}

// FuncTypeOf returns the signature of function index idx, counting
// imported functions first.
func (m *Module) FuncTypeOf(idx uint32) (FuncType, bool) {
	i := int(idx)
	for _, imp := range m.Imports {
		if imp.Kind != ExternFunc {
			continue
		}
		if i == 0 {
			if int(imp.TypeIndex) >= len(m.Types) {
				return FuncType{}, false
			}
			return m.Types[imp.TypeIndex], true
		}
		i--
	}
	if i < 0 || i >= len(m.Funcs) || int(m.Funcs[i]) >= len(m.Types) {
		return FuncType{}, false
	}
	return m.Types[m.Funcs[i]], true
}

// Export returns the export named name.
func (m *Module) Export(name string) (Export, bool) {
	for _, e := range m.Exports {
		if e.Name == name {
			return e, true
		}
	}
	return Export{}, false
}

// AddType interns ft and returns its index.
func (m *Module) AddType(ft FuncType) uint32 {
	for i, t := range m.Types {
		if t.equal(ft) {
			return u32(i)
		}
	}
	m.Types = append(m.Types, ft)
	return u32(len(m.Types) - 1)
}
