package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// lexical and preprocessing
	LexUnknownChar        Code = 1001
	LexUnterminatedString Code = 1002
	LexUnterminatedBlock  Code = 1003
	LexBadNumber          Code = 1004
	LexBadEscape          Code = 1005
	PreUnknownDirective   Code = 1101
	PreMalformedDefine    Code = 1102
	PreMacroRedefined     Code = 1103
	PreUndefUnknown       Code = 1104

	// syntax
	SynUnexpectedToken  Code = 2001
	SynExpectIdentifier Code = 2002
	SynExpectType       Code = 2003
	SynExpectExpression Code = 2004
	SynExpectSemicolon  Code = 2005
	SynUnclosedBrace    Code = 2006
	SynUnclosedParen    Code = 2007
	SynInvalidAssign    Code = 2008

	// semantic
	SemaDuplicateSymbol   Code = 3002
	SemaUnresolvedSymbol  Code = 3005
	SemaUnknownType       Code = 3006
	SemaTypeMismatch      Code = 3007
	SemaArgCount          Code = 3008
	SemaNotCallable       Code = 3009
	SemaAssignImmutable   Code = 3010
	SemaReturnMismatch    Code = 3011
	SemaBreakOutsideLoop  Code = 3012
	SemaIntOverflow       Code = 3013
	SemaStringContext     Code = 3014
	SemaVoidValue         Code = 3015
	SemaUnusedVariable    Code = 3016
	SemaBuiltinRedeclared Code = 3017

	// code generation
	GenMissingEntry   Code = 4001
	GenBadEntry       Code = 4002
	GenDataOverflow   Code = 4003
	GenTooManyLocals  Code = 4004
	GenInternal       Code = 4005
)

var codeDescription = map[Code]string{
	UnknownCode:           "Unknown error",
	LexUnknownChar:        "Unknown character",
	LexUnterminatedString: "Unterminated string literal",
	LexUnterminatedBlock:  "Unterminated block comment",
	LexBadNumber:          "Malformed integer literal",
	LexBadEscape:          "Unknown escape sequence",
	PreUnknownDirective:   "Unknown preprocessor directive",
	PreMalformedDefine:    "Malformed macro definition",
	PreMacroRedefined:     "Macro redefined",
	PreUndefUnknown:       "Undefining an unknown macro",
	SynUnexpectedToken:    "Unexpected token",
	SynExpectIdentifier:   "Expected identifier",
	SynExpectType:         "Expected type",
	SynExpectExpression:   "Expected expression",
	SynExpectSemicolon:    "Expected semicolon",
	SynUnclosedBrace:      "Unclosed brace",
	SynUnclosedParen:      "Unclosed parenthesis",
	SynInvalidAssign:      "Invalid assignment target",
	SemaDuplicateSymbol:   "Duplicate symbol",
	SemaUnresolvedSymbol:  "Unresolved symbol",
	SemaUnknownType:       "Unknown type",
	SemaTypeMismatch:      "Type mismatch",
	SemaArgCount:          "Wrong number of arguments",
	SemaNotCallable:       "Not callable",
	SemaAssignImmutable:   "Assignment to immutable binding",
	SemaReturnMismatch:    "Return type mismatch",
	SemaBreakOutsideLoop:  "Loop control outside of loop",
	SemaIntOverflow:       "Integer literal out of range",
	SemaStringContext:     "String literal in value position",
	SemaVoidValue:         "Value of type none used",
	SemaUnusedVariable:    "Unused variable",
	SemaBuiltinRedeclared: "Builtin redeclared",
	GenMissingEntry:       "Missing entry point",
	GenBadEntry:           "Invalid entry point signature",
	GenDataOverflow:       "Static data exceeds linear memory",
	GenTooManyLocals:      "Too many locals",
	GenInternal:           "Internal code generation error",
}

// ID returns the stable textual identifier, e.g. SEM3005.
func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 1100:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 1100 && ic < 2000:
		return fmt.Sprintf("PRE%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("GEN%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
