package parser

import (
	"whistle/internal/ast"
	"whistle/internal/diag"
	"whistle/internal/token"
)

func (p *Parser) parseBlock() (*ast.Block, bool) {
	open, ok := p.expect(token.LBrace, diag.SynUnexpectedToken, "\"{\"")
	if !ok {
		return nil, false
	}
	block := &ast.Block{}
	for !p.at(token.RBrace) {
		if p.at(token.EOF) {
			p.errorf(diag.SynUnclosedBrace, open.Span, "unclosed block")
			return nil, false
		}
		st, ok := p.parseStmt()
		if !ok {
			return nil, false
		}
		block.Stmts = append(block.Stmts, st)
	}
	closing := p.advance()
	block.Span = open.Span.Cover(closing.Span)
	return block, true
}

func (p *Parser) parseStmt() (ast.Stmt, bool) {
	switch p.peek().Kind {
	case token.KwVar, token.KwVal:
		return p.parseVar()
	case token.KwIf:
		return p.parseIf()
	case token.KwWhile:
		return p.parseWhile()
	case token.KwBreak:
		tok := p.advance()
		end, ok := p.expectSemicolon()
		if !ok {
			return nil, false
		}
		return &ast.BreakStmt{Span: tok.Span.Cover(end.Span)}, true
	case token.KwContinue:
		tok := p.advance()
		end, ok := p.expectSemicolon()
		if !ok {
			return nil, false
		}
		return &ast.ContinueStmt{Span: tok.Span.Cover(end.Span)}, true
	case token.KwReturn:
		return p.parseReturn()
	case token.LBrace:
		return p.parseBlock()
	default:
		return p.parseSimpleStmt()
	}
}

func (p *Parser) expectSemicolon() (token.Token, bool) {
	return p.expect(token.Semicolon, diag.SynExpectSemicolon, "\";\"")
}

// parseVar parses ("var" | "val") ident [":" type] "=" expr ";".
func (p *Parser) parseVar() (ast.Stmt, bool) {
	kw := p.advance()
	st := &ast.VarStmt{Mutable: kw.Kind == token.KwVar}
	var ok bool
	if st.Name, ok = p.parseIdent(); !ok {
		return nil, false
	}
	if p.at(token.Colon) {
		p.advance()
		if st.Type, ok = p.parseType(); !ok {
			return nil, false
		}
	}
	if _, ok = p.expect(token.Assign, diag.SynUnexpectedToken, "\"=\""); !ok {
		return nil, false
	}
	if st.Init, ok = p.parseExpr(); !ok {
		return nil, false
	}
	end, ok := p.expectSemicolon()
	if !ok {
		return nil, false
	}
	st.Span = kw.Span.Cover(end.Span)
	return st, true
}

func (p *Parser) parseIf() (ast.Stmt, bool) {
	kw := p.advance()
	st := &ast.IfStmt{}
	var ok bool
	if st.Cond, ok = p.parseExpr(); !ok {
		return nil, false
	}
	if st.Then, ok = p.parseBlock(); !ok {
		return nil, false
	}
	st.Span = kw.Span.Cover(st.Then.Span)
	if !p.at(token.KwElse) {
		return st, true
	}
	p.advance()
	if p.at(token.KwIf) {
		st.Else, ok = p.parseIf()
	} else {
		st.Else, ok = p.parseBlock()
	}
	if !ok {
		return nil, false
	}
	st.Span = st.Span.Cover(st.Else.Pos())
	return st, true
}

func (p *Parser) parseWhile() (ast.Stmt, bool) {
	kw := p.advance()
	st := &ast.WhileStmt{}
	var ok bool
	if st.Cond, ok = p.parseExpr(); !ok {
		return nil, false
	}
	if st.Body, ok = p.parseBlock(); !ok {
		return nil, false
	}
	st.Span = kw.Span.Cover(st.Body.Span)
	return st, true
}

func (p *Parser) parseReturn() (ast.Stmt, bool) {
	kw := p.advance()
	st := &ast.ReturnStmt{}
	if !p.at(token.Semicolon) {
		var ok bool
		if st.Value, ok = p.parseExpr(); !ok {
			return nil, false
		}
	}
	end, ok := p.expectSemicolon()
	if !ok {
		return nil, false
	}
	st.Span = kw.Span.Cover(end.Span)
	return st, true
}

// parseSimpleStmt parses an expression statement or an assignment.
func (p *Parser) parseSimpleStmt() (ast.Stmt, bool) {
	x, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	if p.at(token.Assign) {
		eq := p.advance()
		target, isName := x.(*ast.Name)
		if !isName {
			p.errorf(diag.SynInvalidAssign, x.Pos().Cover(eq.Span), "left side of assignment must be a variable")
			return nil, false
		}
		value, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		end, ok := p.expectSemicolon()
		if !ok {
			return nil, false
		}
		return &ast.AssignStmt{Target: target, Value: value, Span: x.Pos().Cover(end.Span)}, true
	}
	end, ok := p.expectSemicolon()
	if !ok {
		return nil, false
	}
	return &ast.ExprStmt{X: x, Span: x.Pos().Cover(end.Span)}, true
}
