package token

var keywords = map[string]Kind{
	"fn":       KwFn,
	"export":   KwExport,
	"var":      KwVar,
	"val":      KwVal,
	"if":       KwIf,
	"else":     KwElse,
	"while":    KwWhile,
	"break":    KwBreak,
	"continue": KwContinue,
	"return":   KwReturn,
	"true":     KwTrue,
	"false":    KwFalse,
}

// LookupKeyword maps an identifier spelling to its keyword kind.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}
