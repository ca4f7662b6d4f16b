// Package lexer turns whistle source text into tokens.
package lexer

import (
	"fmt"

	"fortio.org/safecast"

	"whistle/internal/diag"
	"whistle/internal/source"
	"whistle/internal/token"
)

type Lexer struct {
	file     source.FileID
	src      string
	base     uint32
	off      int
	reporter diag.Reporter
	lineHead bool
}

// New creates a lexer over src. Token spans are offset by base so a lexer can
// run over a slice of a larger file (macro bodies).
func New(file source.FileID, src string, base uint32, reporter diag.Reporter) *Lexer {
	return &Lexer{
		file:     file,
		src:      src,
		base:     base,
		reporter: reporter,
		lineHead: true,
	}
}

// All lexes the remaining input, including the trailing EOF token.
func (lx *Lexer) All() []token.Token {
	out := make([]token.Token, 0, len(lx.src)/4+1)
	for {
		tok := lx.Next()
		out = append(out, tok)
		if tok.Kind == token.EOF {
			return out
		}
	}
}

// Next returns the next significant token. After EOF it keeps returning EOF.
func (lx *Lexer) Next() token.Token {
	lx.skipTrivia()
	if lx.off >= len(lx.src) {
		return lx.make(token.EOF, lx.off)
	}
	start := lx.off
	ch := lx.src[lx.off]
	atLineHead := lx.lineHead
	lx.lineHead = false

	switch {
	case ch == '#' && atLineHead:
		return lx.scanDirective(start)
	case isIdentStart(ch):
		return lx.scanIdent(start)
	case isDigit(ch):
		return lx.scanNumber(start)
	case ch == '"':
		return lx.scanString(start)
	}
	return lx.scanOperator(start)
}

func (lx *Lexer) skipTrivia() {
	for lx.off < len(lx.src) {
		ch := lx.src[lx.off]
		switch {
		case ch == '\n':
			lx.lineHead = true
			lx.off++
		case ch == ' ' || ch == '\t' || ch == '\r':
			lx.off++
		case ch == '/' && lx.peekAt(1) == '/':
			for lx.off < len(lx.src) && lx.src[lx.off] != '\n' {
				lx.off++
			}
		case ch == '/' && lx.peekAt(1) == '*':
			start := lx.off
			lx.off += 2
			closed := false
			for lx.off < len(lx.src) {
				if lx.src[lx.off] == '*' && lx.peekAt(1) == '/' {
					lx.off += 2
					closed = true
					break
				}
				if lx.src[lx.off] == '\n' {
					lx.lineHead = true
				}
				lx.off++
			}
			if !closed {
				lx.errorf(diag.LexUnterminatedBlock, start, lx.off, "unterminated block comment")
			}
		default:
			return
		}
	}
}

func (lx *Lexer) scanDirective(start int) token.Token {
	for lx.off < len(lx.src) && lx.src[lx.off] != '\n' {
		lx.off++
	}
	return lx.make(token.Directive, start)
}

func (lx *Lexer) scanIdent(start int) token.Token {
	for lx.off < len(lx.src) && isIdentContinue(lx.src[lx.off]) {
		lx.off++
	}
	tok := lx.make(token.Ident, start)
	if kw, ok := token.LookupKeyword(tok.Text); ok {
		tok.Kind = kw
	}
	return tok
}

func (lx *Lexer) scanNumber(start int) token.Token {
	for lx.off < len(lx.src) && (isDigit(lx.src[lx.off]) || lx.src[lx.off] == '_') {
		lx.off++
	}
	if lx.off < len(lx.src) && isIdentStart(lx.src[lx.off]) {
		for lx.off < len(lx.src) && isIdentContinue(lx.src[lx.off]) {
			lx.off++
		}
		lx.errorf(diag.LexBadNumber, start, lx.off, "malformed integer literal %q", lx.src[start:lx.off])
		return lx.make(token.Invalid, start)
	}
	return lx.make(token.IntLit, start)
}

func (lx *Lexer) scanString(start int) token.Token {
	lx.off++ // opening quote
	for lx.off < len(lx.src) {
		switch lx.src[lx.off] {
		case '"':
			lx.off++
			tok := lx.make(token.StringLit, start)
			if _, err := Unquote(tok.Text); err != nil {
				lx.errorf(diag.LexBadEscape, start, lx.off, "%v", err)
			}
			return tok
		case '\\':
			lx.off += 2
		case '\n':
			lx.errorf(diag.LexUnterminatedString, start, lx.off, "unterminated string literal")
			return lx.make(token.Invalid, start)
		default:
			lx.off++
		}
	}
	if lx.off > len(lx.src) {
		lx.off = len(lx.src)
	}
	lx.errorf(diag.LexUnterminatedString, start, lx.off, "unterminated string literal")
	return lx.make(token.Invalid, start)
}

func (lx *Lexer) scanOperator(start int) token.Token {
	ch := lx.src[lx.off]
	next := lx.peekAt(1)
	two := func(k token.Kind) token.Token {
		lx.off += 2
		return lx.make(k, start)
	}
	one := func(k token.Kind) token.Token {
		lx.off++
		return lx.make(k, start)
	}
	switch ch {
	case '+':
		return one(token.Plus)
	case '-':
		return one(token.Minus)
	case '*':
		return one(token.Star)
	case '/':
		return one(token.Slash)
	case '%':
		return one(token.Percent)
	case '=':
		if next == '=' {
			return two(token.EqEq)
		}
		return one(token.Assign)
	case '!':
		if next == '=' {
			return two(token.BangEq)
		}
		return one(token.Bang)
	case '<':
		if next == '=' {
			return two(token.LtEq)
		}
		return one(token.Lt)
	case '>':
		if next == '=' {
			return two(token.GtEq)
		}
		return one(token.Gt)
	case '&':
		if next == '&' {
			return two(token.AndAnd)
		}
	case '|':
		if next == '|' {
			return two(token.OrOr)
		}
	case ':':
		return one(token.Colon)
	case ';':
		return one(token.Semicolon)
	case ',':
		return one(token.Comma)
	case '(':
		return one(token.LParen)
	case ')':
		return one(token.RParen)
	case '{':
		return one(token.LBrace)
	case '}':
		return one(token.RBrace)
	}
	lx.off++
	for lx.off < len(lx.src) && lx.src[lx.off]&0xC0 == 0x80 {
		lx.off++ // keep multi-byte runes in one token
	}
	lx.errorf(diag.LexUnknownChar, start, lx.off, "unknown character %q", lx.src[start:lx.off])
	return lx.make(token.Invalid, start)
}

func (lx *Lexer) make(kind token.Kind, start int) token.Token {
	return token.Token{
		Kind: kind,
		Span: lx.span(start, lx.off),
		Text: lx.src[start:lx.off],
	}
}

func (lx *Lexer) span(start, end int) source.Span {
	s, err := safecast.Conv[uint32](start)
	if err != nil {
		panic(fmt.Errorf("token offset overflow: %w", err))
	}
	e, err := safecast.Conv[uint32](end)
	if err != nil {
		panic(fmt.Errorf("token offset overflow: %w", err))
	}
	return source.Span{File: lx.file, Start: lx.base + s, End: lx.base + e}
}

func (lx *Lexer) errorf(code diag.Code, start, end int, format string, args ...any) {
	diag.Errorf(lx.reporter, code, lx.span(start, end), format, args...)
}

func (lx *Lexer) peekAt(n int) byte {
	if lx.off+n < len(lx.src) {
		return lx.src[lx.off+n]
	}
	return 0
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentContinue(b byte) bool {
	return isIdentStart(b) || isDigit(b)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
