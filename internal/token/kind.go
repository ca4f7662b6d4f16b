package token

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota
	// EOF marks the end of the source input.
	EOF
	// Directive is a whole `#...` preprocessor line.
	Directive

	Ident
	IntLit
	StringLit

	KwFn       // fn
	KwExport   // export
	KwVar      // var
	KwVal      // val
	KwIf       // if
	KwElse     // else
	KwWhile    // while
	KwBreak    // break
	KwContinue // continue
	KwReturn   // return
	KwTrue     // true
	KwFalse    // false

	Plus      // +
	Minus     // -
	Star      // *
	Slash     // /
	Percent   // %
	Assign    // =
	EqEq      // ==
	Bang      // !
	BangEq    // !=
	Lt        // <
	LtEq      // <=
	Gt        // >
	GtEq      // >=
	AndAnd    // &&
	OrOr      // ||
	Colon     // :
	Semicolon // ;
	Comma     // ,
	LParen    // (
	RParen    // )
	LBrace    // {
	RBrace    // }
)

var kindNames = [...]string{
	Invalid:    "invalid",
	EOF:        "end of file",
	Directive:  "directive",
	Ident:      "identifier",
	IntLit:     "integer literal",
	StringLit:  "string literal",
	KwFn:       "fn",
	KwExport:   "export",
	KwVar:      "var",
	KwVal:      "val",
	KwIf:       "if",
	KwElse:     "else",
	KwWhile:    "while",
	KwBreak:    "break",
	KwContinue: "continue",
	KwReturn:   "return",
	KwTrue:     "true",
	KwFalse:    "false",
	Plus:       "+",
	Minus:      "-",
	Star:       "*",
	Slash:      "/",
	Percent:    "%",
	Assign:     "=",
	EqEq:       "==",
	Bang:       "!",
	BangEq:     "!=",
	Lt:         "<",
	LtEq:       "<=",
	Gt:         ">",
	GtEq:       ">=",
	AndAnd:     "&&",
	OrOr:       "||",
	Colon:      ":",
	Semicolon:  ";",
	Comma:      ",",
	LParen:     "(",
	RParen:     ")",
	LBrace:     "{",
	RBrace:     "}",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}
