// Package preprocess lexes a compilation unit and expands object-like
// macros introduced with #define.
//
// Supported directives (must start a line):
//
//	#define NAME tokens...   define or redefine NAME
//	#undef NAME              forget NAME
//
// Macros are expanded after their definition point. Expansion is recursive;
// a macro never expands inside its own expansion. Expanded tokens carry the
// span of the macro use so later diagnostics point at source the user wrote.
package preprocess

import (
	"whistle/internal/diag"
	"whistle/internal/lexer"
	"whistle/internal/source"
	"whistle/internal/token"
)

// maxTokens bounds macro expansion growth.
const maxTokens = 1 << 20

type macro struct {
	name string
	body []token.Token
	def  source.Span
}

// Preprocessor holds the macro table for one unit.
type Preprocessor struct {
	reporter diag.Reporter
	macros   map[string]*macro
	out      []token.Token
	overflow bool
}

func New(reporter diag.Reporter) *Preprocessor {
	return &Preprocessor{
		reporter: reporter,
		macros:   make(map[string]*macro),
	}
}

// Process lexes src and returns the expanded token stream. Problems are
// reported through the Preprocessor's reporter; the stream is always
// terminated by EOF.
func (p *Preprocessor) Process(file source.FileID, src string) *token.Stream {
	raw := lexer.New(file, src, 0, p.reporter).All()
	p.out = make([]token.Token, 0, len(raw))
	for _, tok := range raw {
		switch tok.Kind {
		case token.EOF:
			p.out = append(p.out, tok)
		case token.Directive:
			p.directive(file, tok)
		case token.Ident:
			p.expand(tok, tok.Span, nil)
		default:
			p.emit(tok)
		}
	}
	return &token.Stream{Tokens: p.out, File: file}
}

// Defined reports whether name is currently a macro.
func (p *Preprocessor) Defined(name string) bool {
	_, ok := p.macros[name]
	return ok
}

func (p *Preprocessor) directive(file source.FileID, tok token.Token) {
	// lex everything after '#'
	toks := lexer.New(file, tok.Text[1:], tok.Span.Start+1, p.reporter).All()
	if len(toks) == 0 || toks[0].Kind != token.Ident {
		diag.Errorf(p.reporter, diag.PreUnknownDirective, tok.Span, "malformed directive %q", tok.Text)
		return
	}
	switch toks[0].Text {
	case "define":
		p.define(tok, toks[1:len(toks)-1])
	case "undef":
		p.undef(tok, toks[1:len(toks)-1])
	default:
		diag.Errorf(p.reporter, diag.PreUnknownDirective, toks[0].Span, "unknown directive #%s", toks[0].Text)
	}
}

func (p *Preprocessor) define(dir token.Token, args []token.Token) {
	if len(args) == 0 || args[0].Kind != token.Ident {
		diag.Errorf(p.reporter, diag.PreMalformedDefine, dir.Span, "#define expects a macro name")
		return
	}
	name := args[0]
	body := args[1:]
	if len(body) > 0 && body[0].Kind == token.LParen && body[0].Span.Start == name.Span.End {
		diag.Errorf(p.reporter, diag.PreMalformedDefine, body[0].Span, "function-like macro %q is not supported", name.Text)
		return
	}
	for _, t := range body {
		if t.Kind == token.Invalid {
			return // already reported by the lexer
		}
	}
	if prev, ok := p.macros[name.Text]; ok {
		diag.Warnf(p.reporter, diag.PreMacroRedefined, name.Span, "macro %q redefined (previous definition at offset %d)", name.Text, prev.def.Start)
	}
	p.macros[name.Text] = &macro{name: name.Text, body: body, def: name.Span}
}

func (p *Preprocessor) undef(dir token.Token, args []token.Token) {
	if len(args) != 1 || args[0].Kind != token.Ident {
		diag.Errorf(p.reporter, diag.PreMalformedDefine, dir.Span, "#undef expects exactly one macro name")
		return
	}
	if _, ok := p.macros[args[0].Text]; !ok {
		diag.Warnf(p.reporter, diag.PreUndefUnknown, args[0].Span, "macro %q is not defined", args[0].Text)
		return
	}
	delete(p.macros, args[0].Text)
}

func (p *Preprocessor) expand(tok token.Token, use source.Span, hidden []string) {
	m, ok := p.macros[tok.Text]
	if tok.Kind != token.Ident || !ok || contains(hidden, tok.Text) {
		tok.Span = use
		p.emit(tok)
		return
	}
	hidden = append(hidden, m.name)
	for _, bt := range m.body {
		p.expand(bt, use, hidden)
	}
}

func (p *Preprocessor) emit(tok token.Token) {
	if len(p.out) >= maxTokens {
		if !p.overflow {
			p.overflow = true
			diag.Errorf(p.reporter, diag.PreMalformedDefine, tok.Span, "macro expansion exceeds %d tokens", maxTokens)
		}
		return
	}
	p.out = append(p.out, tok)
}

func contains(list []string, name string) bool {
	for _, s := range list {
		if s == name {
			return true
		}
	}
	return false
}
