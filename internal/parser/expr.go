package parser

import (
	"strconv"
	"strings"

	"whistle/internal/ast"
	"whistle/internal/diag"
	"whistle/internal/lexer"
	"whistle/internal/token"
)

const (
	precLogicalOr      = 1 // ||
	precLogicalAnd     = 2 // &&
	precEquality       = 3 // == !=
	precComparison     = 4 // < <= > >=
	precAdditive       = 5 // + -
	precMultiplicative = 6 // * / %
)

// binaryPrec returns the precedence of a binary operator, or 0.
// All binary operators are left-associative.
func binaryPrec(kind token.Kind) int {
	switch kind {
	case token.OrOr:
		return precLogicalOr
	case token.AndAnd:
		return precLogicalAnd
	case token.EqEq, token.BangEq:
		return precEquality
	case token.Lt, token.LtEq, token.Gt, token.GtEq:
		return precComparison
	case token.Plus, token.Minus:
		return precAdditive
	case token.Star, token.Slash, token.Percent:
		return precMultiplicative
	}
	return 0
}

func (p *Parser) parseExpr() (ast.Expr, bool) {
	return p.parseBinary(precLogicalOr)
}

func (p *Parser) parseBinary(minPrec int) (ast.Expr, bool) {
	left, ok := p.parseUnary()
	if !ok {
		return nil, false
	}
	for {
		op := p.peek()
		prec := binaryPrec(op.Kind)
		if prec == 0 || prec < minPrec {
			return left, true
		}
		p.advance()
		right, ok := p.parseBinary(prec + 1)
		if !ok {
			return nil, false
		}
		left = &ast.Binary{Op: op.Kind, X: left, Y: right, Span: left.Pos().Cover(right.Pos())}
	}
}

func (p *Parser) parseUnary() (ast.Expr, bool) {
	if p.atOr(token.Minus, token.Bang) {
		op := p.advance()
		x, ok := p.parseUnary()
		if !ok {
			return nil, false
		}
		return &ast.Unary{Op: op.Kind, X: x, Span: op.Span.Cover(x.Pos())}, true
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (ast.Expr, bool) {
	tok := p.peek()
	switch tok.Kind {
	case token.IntLit:
		p.advance()
		lit := &ast.IntLit{Text: tok.Text, Span: tok.Span}
		v, err := strconv.ParseUint(strings.ReplaceAll(tok.Text, "_", ""), 10, 64)
		if err != nil {
			lit.Overflow = true
		}
		lit.Value = v
		return lit, true
	case token.KwTrue, token.KwFalse:
		p.advance()
		return &ast.BoolLit{Value: tok.Kind == token.KwTrue, Span: tok.Span}, true
	case token.StringLit:
		p.advance()
		// escapes were validated by the lexer
		value, _ := lexer.Unquote(tok.Text)
		return &ast.StringLit{Value: value, Span: tok.Span}, true
	case token.Ident:
		p.advance()
		id := ast.Ident{Name: tok.Text, Span: tok.Span}
		if p.at(token.LParen) {
			return p.parseCall(id)
		}
		return &ast.Name{Ident: id}, true
	case token.LParen:
		open := p.advance()
		x, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		if !p.at(token.RParen) {
			p.unclosedParen(open)
			return nil, false
		}
		p.advance()
		return x, true
	}
	p.errorf(diag.SynExpectExpression, p.diagSpan(), "expected expression, got %s", describe(tok))
	return nil, false
}

func (p *Parser) parseCall(callee ast.Ident) (ast.Expr, bool) {
	open := p.advance()
	call := &ast.Call{Callee: callee}
	for !p.at(token.RParen) {
		arg, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		call.Args = append(call.Args, arg)
		if !p.at(token.Comma) {
			break
		}
		p.advance()
	}
	if !p.at(token.RParen) {
		p.unclosedParen(open)
		return nil, false
	}
	closing := p.advance()
	call.Span = callee.Span.Cover(closing.Span)
	return call, true
}

func (p *Parser) unclosedParen(open token.Token) {
	if p.at(token.EOF) {
		p.errorf(diag.SynUnclosedParen, open.Span, "unclosed parenthesis")
		return
	}
	p.errorf(diag.SynUnexpectedToken, p.diagSpan(), "expected \")\", got %s", describe(p.peek()))
}
