package ast

// Type is a resolved value type.
type Type uint8

const (
	// TypeUnknown marks nodes the checker has not visited.
	TypeUnknown Type = iota
	// TypeInvalid marks nodes whose type could not be determined. An error
	// has already been reported for them; consumers stay quiet.
	TypeInvalid
	TypeI32
	TypeBool
	TypeNone
	TypeStr
)

func (t Type) String() string {
	switch t {
	case TypeInvalid:
		return "<invalid>"
	case TypeI32:
		return "i32"
	case TypeBool:
		return "bool"
	case TypeNone:
		return "none"
	case TypeStr:
		return "str"
	}
	return "<unknown>"
}

// IsValue reports whether values of t can be stored in a local.
func (t Type) IsValue() bool {
	return t == TypeI32 || t == TypeBool
}

// Builtin identifies a host-provided function.
type Builtin uint8

const (
	BuiltinNone Builtin = iota
	BuiltinPrint
	BuiltinEprint
	BuiltinPrintI32
	BuiltinExit
	BuiltinClockMs
)

var builtinNames = map[string]Builtin{
	"print":     BuiltinPrint,
	"eprint":    BuiltinEprint,
	"print_i32": BuiltinPrintI32,
	"exit":      BuiltinExit,
	"clock_ms":  BuiltinClockMs,
}

// LookupBuiltin returns the builtin registered under name.
func LookupBuiltin(name string) (Builtin, bool) {
	b, ok := builtinNames[name]
	return b, ok
}

func (b Builtin) String() string {
	for name, v := range builtinNames {
		if v == b {
			return name
		}
	}
	return ""
}
