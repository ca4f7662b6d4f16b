package parser

import (
	"whistle/internal/ast"
	"whistle/internal/diag"
	"whistle/internal/token"
)

// parseFunc parses
//
//	["export"] "fn" ident "(" [param {"," param} [","]] ")" [":" type] block
func (p *Parser) parseFunc() (*ast.FuncDecl, bool) {
	start := p.peek().Span
	fn := &ast.FuncDecl{}
	if p.at(token.KwExport) {
		p.advance()
		fn.Export = true
	}
	if !p.at(token.KwFn) {
		p.errorf(diag.SynUnexpectedToken, p.diagSpan(), "expected function declaration, got %s", describe(p.peek()))
		return nil, false
	}
	p.advance()

	var ok bool
	if fn.Name, ok = p.parseIdent(); !ok {
		return nil, false
	}
	open, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "\"(\"")
	if !ok {
		return nil, false
	}
	for !p.at(token.RParen) {
		param, ok := p.parseParam()
		if !ok {
			return nil, false
		}
		fn.Params = append(fn.Params, param)
		if !p.at(token.Comma) {
			break
		}
		p.advance()
	}
	if !p.at(token.RParen) {
		if p.at(token.EOF) {
			p.errorf(diag.SynUnclosedParen, open.Span, "unclosed parameter list")
		} else {
			p.errorf(diag.SynUnexpectedToken, p.diagSpan(), "expected \",\" or \")\", got %s", describe(p.peek()))
		}
		return nil, false
	}
	p.advance()

	if p.at(token.Colon) {
		p.advance()
		if fn.Result, ok = p.parseType(); !ok {
			return nil, false
		}
	}
	if fn.Body, ok = p.parseBlock(); !ok {
		return nil, false
	}
	fn.Span = start.Cover(fn.Body.Span)
	return fn, true
}

func (p *Parser) parseParam() (*ast.Param, bool) {
	name, ok := p.parseIdent()
	if !ok {
		return nil, false
	}
	if _, ok := p.expect(token.Colon, diag.SynExpectType, "\":\" and parameter type"); !ok {
		return nil, false
	}
	typ, ok := p.parseType()
	if !ok {
		return nil, false
	}
	return &ast.Param{Name: name, Type: typ, Span: name.Span.Cover(typ.Span)}, true
}
