// Package parser builds an ast.File from a preprocessed token stream.
//
// Parsing stops at the first syntax error: the error is reported and the
// caller gets ok == false. There is no recovery; a tree is either complete
// or absent.
package parser

import (
	"slices"

	"whistle/internal/ast"
	"whistle/internal/diag"
	"whistle/internal/source"
	"whistle/internal/token"
)

// Parser is the state for one stream.
type Parser struct {
	toks     []token.Token
	pos      int
	reporter diag.Reporter
	lastSpan source.Span
	failed   bool
}

// ParseFile parses the whole stream. The returned file is nil when ok is
// false.
func ParseFile(stream *token.Stream, reporter diag.Reporter) (*ast.File, bool) {
	toks := stream.Tokens
	if len(toks) == 0 || toks[len(toks)-1].Kind != token.EOF {
		toks = append(slices.Clip(toks), token.Token{Kind: token.EOF, Span: source.Span{File: stream.File}})
	}
	p := &Parser{toks: toks, reporter: reporter}
	file := &ast.File{ID: stream.File, Span: p.peek().Span}
	for !p.at(token.EOF) {
		fn, ok := p.parseFunc()
		if !ok {
			return nil, false
		}
		file.Funcs = append(file.Funcs, fn)
	}
	file.Span = file.Span.Cover(p.lastSpan)
	return file, true
}

func (p *Parser) peek() token.Token {
	return p.toks[p.pos]
}

func (p *Parser) peekN(n int) token.Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *Parser) at(k token.Kind) bool {
	return p.peek().Kind == k
}

func (p *Parser) atOr(kinds ...token.Kind) bool {
	return slices.Contains(kinds, p.peek().Kind)
}

func (p *Parser) advance() token.Token {
	tok := p.toks[p.pos]
	if tok.Kind != token.EOF {
		p.pos++
		p.lastSpan = tok.Span
	}
	return tok
}

// diagSpan points at the current token, or just past the last consumed
// token when the stream is exhausted.
func (p *Parser) diagSpan() source.Span {
	peek := p.peek()
	if peek.Kind == token.EOF && p.lastSpan.End > 0 {
		return source.Span{File: p.lastSpan.File, Start: p.lastSpan.End, End: p.lastSpan.End}
	}
	return peek.Span
}

func (p *Parser) expect(k token.Kind, code diag.Code, what string) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	p.errorf(code, p.diagSpan(), "expected %s, got %s", what, describe(p.peek()))
	return token.Token{}, false
}

func (p *Parser) errorf(code diag.Code, sp source.Span, format string, args ...any) {
	if p.failed {
		return
	}
	p.failed = true
	diag.Errorf(p.reporter, code, sp, format, args...)
}

func (p *Parser) parseIdent() (ast.Ident, bool) {
	tok, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "identifier")
	if !ok {
		return ast.Ident{}, false
	}
	return ast.Ident{Name: tok.Text, Span: tok.Span}, true
}

func (p *Parser) parseType() (*ast.TypeRef, bool) {
	tok, ok := p.expect(token.Ident, diag.SynExpectType, "type")
	if !ok {
		return nil, false
	}
	return &ast.TypeRef{Name: tok.Text, Span: tok.Span}, true
}

func describe(tok token.Token) string {
	switch tok.Kind {
	case token.EOF:
		return "end of file"
	case token.Ident, token.IntLit, token.StringLit:
		return tok.Kind.String() + " \"" + tok.Text + "\""
	}
	return "\"" + tok.Text + "\""
}
