// Statement parsing, per spec §4.2's statement grammar.
//
// Grounded on the teacher's internal/parser/parser.go parseStatement/
// parseBlockStatement dispatch table — one case per leading keyword,
// falling through to an expression-statement — generalized here for
// C++'s richer statement set (ranged-for, switch/case, try/catch).
package parser

import (
	"github.com/cxxfront/parser/internal/ast"
	"github.com/cxxfront/parser/internal/cursor"
	"github.com/cxxfront/parser/internal/diagnostics"
	"github.com/cxxfront/parser/internal/intern"
	"github.com/cxxfront/parser/internal/symbols"
	"github.com/cxxfront/parser/internal/token"
)

func (p *Parser) parseBlockStatement() ast.Ref {
	return p.withRecursionGuard("block", p.parseBlockStatementImpl)
}

func (p *Parser) parseBlockStatementImpl() ast.Ref {
	tok := p.curTok()
	p.expect(token.LBRACE)
	p.sym.PushScope(symbols.ScopeBlock)
	var stmts []ast.Ref
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		s := p.parseStatement()
		if s != ast.NoRef {
			stmts = append(stmts, s)
		} else if !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
			p.advance()
		}
	}
	p.expect(token.RBRACE)
	p.sym.Pop()
	return p.arena.Add(ast.Node{Kind: ast.KindBlock, Token: tok, Payload: ast.Block{Statements: stmts}})
}

func (p *Parser) parseStatement() ast.Ref {
	switch p.curTok().Kind {
	case token.LBRACE:
		return p.parseBlockStatement()
	case token.KW_IF:
		return p.parseIfStatement()
	case token.KW_FOR:
		return p.parseForStatement()
	case token.KW_WHILE:
		return p.parseWhileStatement()
	case token.KW_DO:
		return p.parseDoWhileStatement()
	case token.KW_SWITCH:
		return p.parseSwitchStatement()
	case token.KW_RETURN:
		return p.parseReturnStatement()
	case token.KW_BREAK:
		tok := p.curTok()
		p.advance()
		p.expect(token.SEMI)
		return p.arena.Add(ast.Node{Kind: ast.KindBreak, Token: tok, Payload: ast.Break{}})
	case token.KW_CONTINUE:
		tok := p.curTok()
		p.advance()
		p.expect(token.SEMI)
		return p.arena.Add(ast.Node{Kind: ast.KindContinue, Token: tok, Payload: ast.Continue{}})
	case token.KW_GOTO:
		tok := p.curTok()
		p.advance()
		name := p.identNameHandle()
		p.advance()
		p.expect(token.SEMI)
		return p.arena.Add(ast.Node{Kind: ast.KindGoto, Token: tok, Payload: ast.Goto{Label: name}})
	case token.KW_TRY:
		return p.parseTryStatement()
	case token.KW_THROW:
		return p.parseThrowStatement()
	case token.KW_STATIC_ASSERT:
		return p.parseStaticAssert()
	case token.SEMI:
		p.advance()
		return ast.NoRef
	case token.IDENT:
		if p.peekIs(token.COLON) {
			return p.parseLabelStatement()
		}
	}

	if startsTypeSpecifier(p.curTok().Kind) {
		if decl, ok := p.trySpeculativeLocalDeclaration(); ok {
			return decl
		}
	}
	return p.parseExpressionStatement()
}

func (p *Parser) parseLabelStatement() ast.Ref {
	tok := p.curTok()
	name := p.identNameHandle()
	p.advance()
	p.advance() // ':'
	return p.arena.Add(ast.Node{Kind: ast.KindLabel, Token: tok, Payload: ast.Label{Name: name}})
}

func (p *Parser) parseExpressionStatement() ast.Ref {
	tok := p.curTok()
	expr := p.parseExpression(LOWEST)
	p.expect(token.SEMI)
	return p.arena.Add(ast.Node{Kind: ast.KindExpressionWrapper, Token: tok, Payload: ast.ExpressionWrapper{Expr: expr}})
}

func (p *Parser) parseIfStatement() ast.Ref {
	tok := p.curTok()
	p.advance()
	p.expect(token.LPAREN)
	cond := p.parseExpression(LOWEST)
	p.expect(token.RPAREN)
	then := p.parseStatement()
	els := ast.Ref(ast.NoRef)
	if p.curIs(token.KW_ELSE) {
		p.advance()
		els = p.parseStatement()
	}
	return p.arena.Add(ast.Node{Kind: ast.KindIf, Token: tok, Payload: ast.If{Cond: cond, Then: then, Else: els}})
}

// parseForStatement disambiguates a ranged-for (`for (T x : range)`) from
// a classic three-clause for loop by speculatively parsing the
// init-declarator and checking for a following `:` (spec §4.2).
func (p *Parser) parseForStatement() ast.Ref {
	tok := p.curTok()
	p.advance()
	p.expect(token.LPAREN)

	if ranged, ok := p.tryRangedFor(); ok {
		return ranged
	}

	p.sym.PushScope(symbols.ScopeBlock)
	defer p.sym.Pop()

	var init ast.Ref = ast.NoRef
	if !p.curIs(token.SEMI) {
		if decl, ok := p.trySpeculativeLocalDeclaration(); ok {
			init = decl
		} else {
			init = p.parseExpressionStatement()
		}
	} else {
		p.advance()
	}

	var cond ast.Ref = ast.NoRef
	if !p.curIs(token.SEMI) {
		cond = p.parseExpression(LOWEST)
	}
	p.expect(token.SEMI)

	var post ast.Ref = ast.NoRef
	if !p.curIs(token.RPAREN) {
		post = p.parseExpression(LOWEST)
	}
	p.expect(token.RPAREN)

	body := p.parseStatement()
	return p.arena.Add(ast.Node{Kind: ast.KindFor, Token: tok, Payload: ast.For{Init: init, Cond: cond, Post: post, Body: body}})
}

func (p *Parser) tryRangedFor() (ast.Ref, bool) {
	if p.splitRshift || p.injected != nil {
		return ast.NoRef, false
	}
	// A plain cursor save/restore suffices here (no split-angle state can
	// arise parsing a declarator), so the scoped guard is used directly.
	from := cursor.NewScoped(p.cur)
	defer from.Close()

	var varType ast.Ref = ast.NoRef
	if p.curIs(token.KW_AUTO) {
		varType = p.parseTypeSpecifier()
	} else if startsTypeSpecifier(p.curTok().Kind) {
		varType = p.parseTypeSpecifier()
	} else {
		return ast.NoRef, false
	}
	if !p.curIs(token.IDENT) {
		return ast.NoRef, false
	}
	name := p.identNameHandle()
	p.advance()
	if !p.curIs(token.COLON) {
		return ast.NoRef, false
	}
	p.advance() // ':'
	from.Discard()

	p.sym.PushScope(symbols.ScopeBlock)
	p.sym.Current().Define(p.it.Text(name), symbols.Symbol{Name: name, Kind: symbols.EntityVariable})
	rangeExpr := p.parseExpression(LOWEST)
	p.expect(token.RPAREN)
	body := p.parseStatement()
	p.sym.Pop()

	tok := p.curTok()
	ref := p.arena.Add(ast.Node{Kind: ast.KindRangedFor, Token: tok, Payload: ast.RangedFor{
		VarName: name, VarType: varType, Range: rangeExpr, Body: body,
	}})
	return ref, true
}

func (p *Parser) parseWhileStatement() ast.Ref {
	tok := p.curTok()
	p.advance()
	p.expect(token.LPAREN)
	cond := p.parseExpression(LOWEST)
	p.expect(token.RPAREN)
	body := p.parseStatement()
	return p.arena.Add(ast.Node{Kind: ast.KindWhile, Token: tok, Payload: ast.While{Cond: cond, Body: body}})
}

func (p *Parser) parseDoWhileStatement() ast.Ref {
	tok := p.curTok()
	p.advance()
	body := p.parseStatement()
	p.expect(token.KW_WHILE)
	p.expect(token.LPAREN)
	cond := p.parseExpression(LOWEST)
	p.expect(token.RPAREN)
	p.expect(token.SEMI)
	return p.arena.Add(ast.Node{Kind: ast.KindDoWhile, Token: tok, Payload: ast.DoWhile{Body: body, Cond: cond}})
}

func (p *Parser) parseSwitchStatement() ast.Ref {
	tok := p.curTok()
	p.advance()
	p.expect(token.LPAREN)
	subject := p.parseExpression(LOWEST)
	p.expect(token.RPAREN)
	p.expect(token.LBRACE)
	p.sym.PushScope(symbols.ScopeBlock)

	var cases []ast.SwitchCase
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		var value ast.Ref = ast.NoRef
		if p.curIs(token.KW_CASE) {
			p.advance()
			value = p.parseExpression(TERNARY_PREC)
			p.expect(token.COLON)
		} else if p.curIs(token.KW_DEFAULT) {
			p.advance()
			p.expect(token.COLON)
		} else {
			p.addError(diagnostics.ErrP004InvalidDeclarator, diagnostics.PhaseParse, "expected case or default")
			p.advance()
			continue
		}
		var body []ast.Ref
		for !p.curIs(token.KW_CASE) && !p.curIs(token.KW_DEFAULT) && !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
			s := p.parseStatement()
			if s != ast.NoRef {
				body = append(body, s)
			}
		}
		cases = append(cases, ast.SwitchCase{Value: value, Body: body})
	}
	p.expect(token.RBRACE)
	p.sym.Pop()
	return p.arena.Add(ast.Node{Kind: ast.KindSwitch, Token: tok, Payload: ast.Switch{Subject: subject, Cases: cases}})
}

func (p *Parser) parseReturnStatement() ast.Ref {
	tok := p.curTok()
	p.advance()
	var value ast.Ref = ast.NoRef
	if !p.curIs(token.SEMI) {
		value = p.parseExpression(LOWEST)
	}
	p.expect(token.SEMI)
	return p.arena.Add(ast.Node{Kind: ast.KindReturn, Token: tok, Payload: ast.Return{Value: value}})
}

func (p *Parser) parseThrowStatement() ast.Ref {
	tok := p.curTok()
	p.advance()
	var value ast.Ref = ast.NoRef
	if !p.curIs(token.SEMI) {
		value = p.parseExpression(LOWEST)
	}
	p.expect(token.SEMI)
	return p.arena.Add(ast.Node{Kind: ast.KindThrow, Token: tok, Payload: ast.Throw{Value: value}})
}

func (p *Parser) parseTryStatement() ast.Ref {
	tok := p.curTok()
	p.advance()
	body := p.parseBlockStatement()
	var catches []ast.CatchClause
	for p.curIs(token.KW_CATCH) {
		p.advance()
		p.expect(token.LPAREN)
		var paramType ast.Ref = ast.NoRef
		var paramName intern.Handle
		if p.curIs(token.ELLIPSIS) {
			p.advance()
		} else {
			paramType = p.parseTypeSpecifier()
			if p.curIs(token.IDENT) {
				paramName = p.identNameHandle()
				p.advance()
			}
		}
		p.expect(token.RPAREN)
		p.sym.PushScope(symbols.ScopeBlock)
		if paramName != 0 {
			p.sym.Current().Define(p.it.Text(paramName), symbols.Symbol{Name: paramName, Kind: symbols.EntityVariable})
		}
		catchBody := p.parseBlockStatement()
		p.sym.Pop()
		catches = append(catches, ast.CatchClause{ParamType: paramType, ParamName: paramName, Body: catchBody})
	}
	return p.arena.Add(ast.Node{Kind: ast.KindTry, Token: tok, Payload: ast.Try{Body: body, Catches: catches}})
}

// trySpeculativeLocalDeclaration attempts to read the upcoming tokens as
// a local variable declaration (`Type name (= init)? ;`), restoring the
// cursor on failure so the caller can fall back to an expression
// statement — the same speculative-parse discipline used for C-style
// casts (spec §4.1, §4.3). Only a single declarator per declaration is
// supported; a comma after the first declarator is diagnosed rather than
// silently mishandled.
func (p *Parser) trySpeculativeLocalDeclaration() (ast.Ref, bool) {
	if p.splitRshift || p.injected != nil {
		return ast.NoRef, false
	}
	guard := cursor.NewScoped(p.cur)
	defer guard.Close()

	tok := p.curTok()
	ty := p.parseTypeSpecifier()
	if ty == ast.NoRef || !p.curIs(token.IDENT) {
		return ast.NoRef, false
	}
	name := p.identNameHandle()
	p.advance()

	if node := p.arena.Get(ty); node.Kind == ast.KindTypeSpecifier {
		spec := node.Payload.(ast.TypeSpecifier)
		if p.curIs(token.LBRACKET) {
			p.parseArrayDims(&spec)
			ty = p.arena.Add(ast.Node{Kind: ast.KindTypeSpecifier, Token: node.Token, Payload: spec})
		}
	}

	var init ast.Ref = ast.NoRef
	switch {
	case p.curIs(token.ASSIGN):
		p.advance()
		init = p.parseExpression(ASSIGNMENT - 1)
	case p.curIs(token.LPAREN):
		p.advance()
		init = p.parseExpression(LOWEST)
		p.expect(token.RPAREN)
	case p.curIs(token.LBRACE):
		init = p.parseBraceInit()
	case p.curIs(token.SEMI):
		// no initializer
	default:
		return ast.NoRef, false
	}
	p.expect(token.SEMI)
	guard.Discard()

	p.sym.Current().Define(p.it.Text(name), symbols.Symbol{Name: name, Kind: symbols.EntityVariable, Type: p.resolveSpecIndex(ty)})
	decl := ast.VariableDeclaration{Name: name, Type: ty, Init: init}
	return p.arena.Add(ast.Node{Kind: ast.KindVariableDeclaration, Token: tok, Payload: decl}), true
}
