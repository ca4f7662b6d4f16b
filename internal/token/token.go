package token

import (
	"whistle/internal/source"
)

// Token represents a single source token with its location.
type Token struct {
	Kind Kind
	Span source.Span
	Text string
}

// IsLiteral reports whether the token is an integer, boolean, or string literal.
func (t Token) IsLiteral() bool {
	switch t.Kind {
	case IntLit, StringLit, KwTrue, KwFalse:
		return true
	default:
		return false
	}
}

// IsKeyword reports whether the token is a language keyword.
func (t Token) IsKeyword() bool {
	return t.Kind >= KwFn && t.Kind <= KwFalse
}

// IsIdent reports whether the token is an identifier.
func (t Token) IsIdent() bool { return t.Kind == Ident }

// Stream is the ordered token sequence handed from preprocessing to parsing.
// It always ends with exactly one EOF token.
type Stream struct {
	Tokens []Token
	File   source.FileID
}

// Len returns the number of tokens including the trailing EOF.
func (s *Stream) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Tokens)
}
