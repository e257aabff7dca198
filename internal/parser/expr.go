// Expression parsing: Pratt/operator-precedence parsing over the table
// in parser.go, per spec §4.3.
//
// Grounded on the teacher's internal/parser/parser.go registerPrefix/
// registerInfix calls in New() and its parseExpression(precedence) loop
// — the registration-table shape is kept as-is. parseLessThan below,
// disambiguating `<` as comparison vs. the opening angle of an explicit
// template-argument list on a call (`f<int>(x)`), is the direct
// descendant of the teacher's own generic-instantiation-vs-comparison
// disambiguation at the same operator slot.
package parser

import (
	"math/big"

	"github.com/cxxfront/parser/internal/ast"
	"github.com/cxxfront/parser/internal/cursor"
	"github.com/cxxfront/parser/internal/diagnostics"
	"github.com/cxxfront/parser/internal/intern"
	"github.com/cxxfront/parser/internal/symbols"
	"github.com/cxxfront/parser/internal/token"
)

func (p *Parser) registerExpressionParsers() {
	p.prefixFns = map[token.Kind]prefixParseFn{
		token.IDENT:      p.parseIdentifierExpr,
		token.INT_LIT:    p.parseNumericLiteral,
		token.FLOAT_LIT:  p.parseNumericLiteral,
		token.STRING_LIT: p.parseStringLiteralExpr,
		token.CHAR_LIT:   p.parseNumericLiteral,
		token.KW_TRUE:    p.parseBoolLiteral,
		token.KW_FALSE:   p.parseBoolLiteral,
		token.KW_NULLPTR: p.parseNullptr,
		token.KW_THIS:    p.parseThis,
		token.MINUS:      p.parseUnaryPrefix,
		token.PLUS:       p.parseUnaryPrefix,
		token.BANG:       p.parseUnaryPrefix,
		token.TILDE:      p.parseUnaryPrefix,
		token.STAR:       p.parseUnaryPrefix, // dereference
		token.AMP:        p.parseUnaryPrefix, // address-of
		token.INCR:       p.parseUnaryPrefix,
		token.DECR:       p.parseUnaryPrefix,
		token.LPAREN:     p.parseParenOrCast,
		token.LBRACE:     p.parseBraceInit,
		token.KW_SIZEOF:  p.parseSizeof,
		token.KW_ALIGNOF: p.parseAlignof,
		token.KW_TYPEID:  p.parseTypeid,
		token.KW_NOEXCEPT:         p.parseNoexceptExpr,
		token.KW_NEW:              p.parseNew,
		token.KW_DELETE:           p.parseDelete,
		token.KW_STATIC_CAST:      p.parseNamedCast,
		token.KW_DYNAMIC_CAST:     p.parseNamedCast,
		token.KW_CONST_CAST:       p.parseNamedCast,
		token.KW_REINTERPRET_CAST: p.parseNamedCast,
		token.COLONCOLON:          p.parseGlobalQualified,
	}

	p.infixFns = map[token.Kind]infixParseFn{
		token.PLUS: p.parseBinary, token.MINUS: p.parseBinary, token.STAR: p.parseBinary,
		token.SLASH: p.parseBinary, token.PERCENT: p.parseBinary,
		token.AMP: p.parseBinary, token.PIPE: p.parseBinary, token.CARET: p.parseBinary,
		token.SHL: p.parseBinary, token.SHR: p.parseBinary,
		token.ANDAND: p.parseBinary, token.OROR: p.parseBinary,
		token.EQ: p.parseBinary, token.NE: p.parseBinary,
		token.LT: p.parseLessThan, token.GT: p.parseBinary,
		token.LE: p.parseBinary, token.GE: p.parseBinary, token.SPACESHIP: p.parseBinary,
		token.ASSIGN:         p.parseAssign,
		token.PLUS_ASSIGN:    p.parseCompoundAssign,
		token.MINUS_ASSIGN:   p.parseCompoundAssign,
		token.STAR_ASSIGN:    p.parseCompoundAssign,
		token.SLASH_ASSIGN:   p.parseCompoundAssign,
		token.PERCENT_ASSIGN: p.parseCompoundAssign,
		token.AMP_ASSIGN:     p.parseCompoundAssign,
		token.PIPE_ASSIGN:    p.parseCompoundAssign,
		token.CARET_ASSIGN:   p.parseCompoundAssign,
		token.SHL_ASSIGN:     p.parseCompoundAssign,
		token.SHR_ASSIGN:     p.parseCompoundAssign,
		token.QUESTION:       p.parseTernary,
		token.LPAREN:         p.parseCall,
		token.LBRACKET:       p.parseSubscript,
		token.DOT:            p.parseMember,
		token.ARROW:          p.parseMember,
		token.DOTSTAR:        p.parsePointerToMember,
		token.ARROWSTAR:      p.parsePointerToMember,
		token.INCR:           p.parsePostfixIncrDecr,
		token.DECR:           p.parsePostfixIncrDecr,
		token.COLONCOLON:     p.parseScopedInfix,
	}
}

// parseExpression is the Pratt loop: parse one prefix expression, then
// keep absorbing infix operators whose precedence exceeds minPrec (spec
// §4.3).
func (p *Parser) parseExpression(minPrec int) ast.Ref {
	return p.withRecursionGuard("expression", func() ast.Ref {
		prefix, ok := p.prefixFns[p.curTok().Kind]
		if !ok {
			p.addError(diagnostics.ErrP002NoPrefixParseFn, diagnostics.PhaseParse, string(p.curTok().Kind))
			return ast.NoRef
		}
		left := prefix()

		for !p.curIs(token.SEMI) && minPrec < p.curPrecedence() {
			infix, ok := p.infixFns[p.curTok().Kind]
			if !ok {
				break
			}
			left = infix(left)
		}
		return left
	})
}

// --- prefix parsers --------------------------------------------------------

func (p *Parser) parseIdentifierExpr() ast.Ref {
	tok := p.curTok()
	name := p.identNameHandle()
	p.advance()

	ident := ast.Identifier{Name: name}
	if sym, ok := p.sym.Lookup(p.it.Text(name)); ok {
		ident.Decl = sym.Decl
	} else if p.sfinaeDepth == 0 {
		p.addError(diagnostics.ErrS001UndeclaredIdentifier, diagnostics.PhaseSema, p.it.Text(name))
	}
	return p.arena.Add(ast.Node{Kind: ast.KindIdentifier, Token: tok, Payload: ident})
}

func (p *Parser) parseGlobalQualified() ast.Ref {
	// A leading `::name` is global-scope qualification; represented as a
	// QualifiedIdentifier with an empty qualifier path.
	tok := p.curTok()
	p.advance()
	name := p.identNameHandle()
	p.advance()
	q := ast.QualifiedIdentifier{Name: name}
	return p.arena.Add(ast.Node{Kind: ast.KindQualifiedIdentifier, Token: tok, Payload: q})
}

func (p *Parser) parseNumericLiteral() ast.Ref {
	tok := p.curTok()
	p.advance()
	lit := ast.NumericLiteral{}
	switch v := tok.Literal.(type) {
	case int64:
		lit.Kind = ast.NumInt
		lit.IVal = v
	case float64:
		lit.Kind = ast.NumFloat
		lit.FVal = v
	case *big.Int:
		lit.Kind = ast.NumBigInt
		lit.Text = p.it.Intern(v.String())
		lit.IVal = v.Int64()
	case string:
		// A char literal carried as raw decoded text; take its first byte
		// as the code point.
		lit.Kind = ast.NumInt
		if len(v) > 0 {
			lit.IVal = int64(v[0])
		}
	}
	return p.arena.Add(ast.Node{Kind: ast.KindNumericLiteral, Token: tok, Payload: lit})
}

func (p *Parser) parseStringLiteralExpr() ast.Ref {
	tok := p.curTok()
	var parts []intern.Handle
	text := ""
	for p.curIs(token.STRING_LIT) {
		s, _ := p.curTok().Literal.(string)
		parts = append(parts, p.it.Intern(s))
		text += s
		p.advance()
	}
	lit := ast.StringLiteral{Parts: parts, Value: p.it.Intern(text)}
	return p.arena.Add(ast.Node{Kind: ast.KindStringLiteral, Token: tok, Payload: lit})
}

func (p *Parser) parseBoolLiteral() ast.Ref {
	tok := p.curTok()
	val := p.curIs(token.KW_TRUE)
	p.advance()
	return p.arena.Add(ast.Node{Kind: ast.KindBoolLiteral, Token: tok, Payload: ast.BoolLiteral{Value: val}})
}

func (p *Parser) parseNullptr() ast.Ref {
	tok := p.curTok()
	p.advance()
	return p.arena.Add(ast.Node{Kind: ast.KindIdentifier, Token: tok, Payload: ast.Identifier{Name: p.it.Intern("nullptr")}})
}

func (p *Parser) parseThis() ast.Ref {
	tok := p.curTok()
	p.advance()
	return p.arena.Add(ast.Node{Kind: ast.KindIdentifier, Token: tok, Payload: ast.Identifier{Name: p.it.Intern("this")}})
}

func (p *Parser) parseUnaryPrefix() ast.Ref {
	tok := p.curTok()
	op := tok.Kind
	p.advance()
	operand := p.parseExpression(PREFIX)
	return p.arena.Add(ast.Node{Kind: ast.KindUnaryOp, Token: tok, Payload: ast.UnaryOp{Op: op, Operand: operand, IsPrefix: true}})
}

func (p *Parser) parsePostfixIncrDecr(left ast.Ref) ast.Ref {
	tok := p.curTok()
	op := tok.Kind
	p.advance()
	return p.arena.Add(ast.Node{Kind: ast.KindUnaryOp, Token: tok, Payload: ast.UnaryOp{Op: op, Operand: left, IsPrefix: false}})
}

// parseParenOrCast speculatively tries a C-style cast `(Type) expr`
// before falling back to a parenthesized expression, per spec §4.3's
// "C-style-cast-vs-parenthesized-expression" disambiguation.
func (p *Parser) parseParenOrCast() ast.Ref {
	tok := p.curTok()
	if ty, ok := p.trySpeculativeCStyleCast(); ok {
		operand := p.parseExpression(PREFIX)
		return p.arena.Add(ast.Node{Kind: ast.KindStaticCast, Token: tok, Payload: ast.CastExpr{TargetType: ty, Operand: operand}})
	}
	p.advance() // '('
	expr := p.parseExpression(LOWEST)
	p.expect(token.RPAREN)
	return expr
}

// trySpeculativeCStyleCast attempts to parse `(TypeSpecifier)` starting
// at the current `(`, succeeding only if a type specifier fully consumes
// up to a matching `)` immediately followed by a token that can start a
// unary expression. On failure the cursor is restored to its entry
// position (spec §4.1 ScopedTokenPosition, §4.3).
func (p *Parser) trySpeculativeCStyleCast() (ast.Ref, bool) {
	if p.splitRshift || p.injected != nil {
		// A pending split-angle can't be safely snapshotted by the cursor's
		// save point; skip speculation in that rare overlap.
		return ast.NoRef, false
	}
	guard := cursor.NewScoped(p.cur)
	defer guard.Close()

	p.advance() // '('
	if !startsTypeSpecifier(p.curTok().Kind) {
		return ast.NoRef, false
	}
	ty := p.parseTypeSpecifier()
	if ty == ast.NoRef || !p.curIs(token.RPAREN) {
		return ast.NoRef, false
	}
	p.advance() // ')'
	if !startsUnaryExpression(p.curTok().Kind) {
		return ast.NoRef, false
	}
	guard.Discard()
	return ty, true
}

func startsTypeSpecifier(k token.Kind) bool {
	switch k {
	case token.KW_VOID, token.KW_BOOL, token.KW_CHAR, token.KW_INT, token.KW_LONG,
		token.KW_SHORT, token.KW_SIGNED, token.KW_UNSIGNED, token.KW_FLOAT, token.KW_DOUBLE,
		token.KW_CONST, token.KW_STRUCT, token.KW_CLASS, token.KW_UNION, token.KW_ENUM,
		token.KW_AUTO, token.IDENT:
		return true
	}
	return false
}

func startsUnaryExpression(k token.Kind) bool {
	switch k {
	case token.IDENT, token.INT_LIT, token.FLOAT_LIT, token.STRING_LIT, token.CHAR_LIT,
		token.LPAREN, token.MINUS, token.PLUS, token.BANG, token.TILDE, token.STAR, token.AMP,
		token.KW_TRUE, token.KW_FALSE, token.KW_NULLPTR, token.KW_THIS, token.KW_SIZEOF,
		token.INCR, token.DECR:
		return true
	}
	return false
}

func (p *Parser) parseBraceInit() ast.Ref {
	tok := p.curTok()
	p.advance()
	var args []ast.Ref
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		args = append(args, p.parseExpression(ASSIGNMENT))
		if p.curIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RBRACE)
	return p.arena.Add(ast.Node{Kind: ast.KindConstructorCall, Token: tok, Payload: ast.ConstructorCall{Args: args, BraceInit: true}})
}

func (p *Parser) parseSizeof() ast.Ref {
	tok := p.curTok()
	p.advance()
	if p.curIs(token.ELLIPSIS) {
		p.advance()
		p.expect(token.LPAREN)
		name := p.identNameHandle()
		p.advance()
		p.expect(token.RPAREN)
		return p.arena.Add(ast.Node{Kind: ast.KindSizeofPack, Token: tok, Payload: ast.SizeofPack{PackName: name}})
	}
	if p.curIs(token.LPAREN) {
		if ty, ok := p.trySpeculativeTypeInParens(); ok {
			return p.arena.Add(ast.Node{Kind: ast.KindSizeofExpr, Token: tok, Payload: ast.SizeofExpr{Type: ty}})
		}
	}
	operand := p.parseExpression(PREFIX)
	return p.arena.Add(ast.Node{Kind: ast.KindSizeofExpr, Token: tok, Payload: ast.SizeofExpr{Operand: operand}})
}

func (p *Parser) parseAlignof() ast.Ref {
	tok := p.curTok()
	p.advance()
	p.expect(token.LPAREN)
	ty := p.parseTypeSpecifier()
	p.expect(token.RPAREN)
	return p.arena.Add(ast.Node{Kind: ast.KindAlignofExpr, Token: tok, Payload: ast.AlignofExpr{Type: ty}})
}

func (p *Parser) parseTypeid() ast.Ref {
	tok := p.curTok()
	p.advance()
	p.expect(token.LPAREN)
	if ty, ok := p.trySpeculativeTypeInParens(); ok {
		return p.arena.Add(ast.Node{Kind: ast.KindTypeidExpr, Token: tok, Payload: ast.TypeidExpr{Type: ty}})
	}
	operand := p.parseExpression(LOWEST)
	p.expect(token.RPAREN)
	return p.arena.Add(ast.Node{Kind: ast.KindTypeidExpr, Token: tok, Payload: ast.TypeidExpr{Operand: operand}})
}

func (p *Parser) parseNoexceptExpr() ast.Ref {
	tok := p.curTok()
	p.advance()
	p.expect(token.LPAREN)
	operand := p.parseExpression(LOWEST)
	p.expect(token.RPAREN)
	return p.arena.Add(ast.Node{Kind: ast.KindNoexceptExpr, Token: tok, Payload: ast.NoexceptExpr{Operand: operand}})
}

// trySpeculativeTypeInParens parses `(TypeSpecifier)` with the cursor
// already positioned at `(`, restoring on failure. Used by sizeof/typeid
// where the operand may be either an expression or a bare type.
func (p *Parser) trySpeculativeTypeInParens() (ast.Ref, bool) {
	if p.splitRshift || p.injected != nil {
		return ast.NoRef, false
	}
	guard := cursor.NewScoped(p.cur)
	defer guard.Close()
	p.advance() // '('
	if !startsTypeSpecifier(p.curTok().Kind) {
		return ast.NoRef, false
	}
	ty := p.parseTypeSpecifier()
	if ty == ast.NoRef || !p.curIs(token.RPAREN) {
		return ast.NoRef, false
	}
	p.advance() // ')'
	guard.Discard()
	return ty, true
}

func (p *Parser) parseNamedCast() ast.Ref {
	tok := p.curTok()
	kind := tok.Kind
	p.advance()
	p.expect(token.LT)
	ty := p.parseTypeSpecifier()
	if p.curIs(token.SHR) {
		p.splitGT()
	}
	p.expect(token.GT)
	p.expect(token.LPAREN)
	operand := p.parseExpression(LOWEST)
	p.expect(token.RPAREN)

	nodeKind := ast.KindStaticCast
	switch kind {
	case token.KW_DYNAMIC_CAST:
		nodeKind = ast.KindDynamicCast
	case token.KW_CONST_CAST:
		nodeKind = ast.KindConstCast
	case token.KW_REINTERPRET_CAST:
		nodeKind = ast.KindReinterpretCast
	}
	return p.arena.Add(ast.Node{Kind: nodeKind, Token: tok, Payload: ast.CastExpr{TargetType: ty, Operand: operand}})
}

func (p *Parser) parseNew() ast.Ref {
	tok := p.curTok()
	p.advance()
	var placement []ast.Ref
	if p.curIs(token.LPAREN) {
		p.advance()
		for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
			placement = append(placement, p.parseExpression(ASSIGNMENT))
			if p.curIs(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
		p.expect(token.RPAREN)
	}
	ty := p.parseTypeSpecifier()
	var arraySize ast.Ref = ast.NoRef
	if p.curIs(token.LBRACKET) {
		p.advance()
		arraySize = p.parseExpression(LOWEST)
		p.expect(token.RBRACKET)
	}
	var ctorArgs []ast.Ref
	if p.curIs(token.LPAREN) {
		p.advance()
		for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
			ctorArgs = append(ctorArgs, p.parseExpression(ASSIGNMENT))
			if p.curIs(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
		p.expect(token.RPAREN)
	}
	return p.arena.Add(ast.Node{Kind: ast.KindNewExpression, Token: tok, Payload: ast.NewExpression{
		Type: ty, PlacementArgs: placement, CtorArgs: ctorArgs, ArraySize: arraySize,
	}})
}

func (p *Parser) parseDelete() ast.Ref {
	tok := p.curTok()
	p.advance()
	arrayForm := false
	if p.curIs(token.LBRACKET) {
		p.advance()
		p.expect(token.RBRACKET)
		arrayForm = true
	}
	operand := p.parseExpression(PREFIX)
	return p.arena.Add(ast.Node{Kind: ast.KindDeleteExpression, Token: tok, Payload: ast.DeleteExpression{Operand: operand, IsArrayForm: arrayForm}})
}

// --- infix parsers ----------------------------------------------------------

func (p *Parser) parseBinary(left ast.Ref) ast.Ref {
	tok := p.curTok()
	op := tok.Kind
	prec := p.curPrecedence()
	p.advance()
	right := p.parseExpression(prec)
	resolvedRef := p.resolveOperatorOverload(tok, op, []ast.Ref{left, right})
	return p.arena.Add(ast.Node{Kind: ast.KindBinaryOp, Token: tok, Payload: ast.BinaryOp{
		Op: op, Left: left, Right: right, ResolvedOverload: resolvedRef,
	}})
}

// parseLessThan disambiguates `<` as a relational operator vs. the
// opening angle of an explicit template-argument list on a call, e.g.
// `f<int>(x)` (spec §4.3). It speculatively scans ahead for a balancing
// `>`, and only takes the template-argument reading when the callee is
// already known to name a declared template; otherwise it falls back to
// ordinary relational parsing. If no `(` follows the `>`, the argument
// list is consumed and left is returned without a call node.
func (p *Parser) parseLessThan(left ast.Ref) ast.Ref {
	if !p.looksLikeExplicitTemplateArgs(left) {
		return p.parseBinary(left)
	}

	tok := p.curTok()
	p.advance() // '<'
	var explicitArgs []ast.Ref
	for !p.curIs(token.GT) && !p.curIs(token.SHR) && !p.curIs(token.EOF) {
		explicitArgs = append(explicitArgs, p.parseTypeSpecifier())
		if p.curIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	if p.curIs(token.SHR) {
		p.splitGT()
	}
	p.expect(token.GT)

	if !p.curIs(token.LPAREN) {
		return left
	}
	p.advance() // '('
	var args []ast.Ref
	for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
		args = append(args, p.parseExpression(ASSIGNMENT))
		if p.curIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RPAREN)

	var instRef ast.Ref = ast.NoRef
	if ident, ok := p.arena.Get(left).Payload.(ast.Identifier); ok {
		instRef = p.instantiateFunctionTemplate(tok, ident.Name, explicitArgs)
	}
	return p.arena.Add(ast.Node{Kind: ast.KindFunctionCall, Token: tok, Payload: ast.FunctionCall{
		Callee: left, Args: args, ExplicitArgs: explicitArgs, Instantiation: instRef,
	}})
}

// callCandidateName reads back the interned name of left when it's a
// plain (non-qualified) identifier, for use in the non-explicit-template
// call paths below (deduction, overload resolution); the empty
// ast.Identifier zero value reports ok=false for any other callee shape.
func (p *Parser) callCandidateName(left ast.Ref) (intern.Handle, bool) {
	ident, ok := p.arena.Get(left).Payload.(ast.Identifier)
	if !ok {
		return 0, false
	}
	return ident.Name, true
}

// looksLikeExplicitTemplateArgs reports whether the `<` immediately
// after left can be read as the opening angle of an explicit
// template-argument list: left must be an identifier naming a declared
// template, and scanning ahead (tracking nested angle depth, including
// `>>` closing two levels at once) must reach a balancing `>` before a
// statement terminator or block. The scan runs inside a cursor save
// point so it never consumes tokens on failure.
func (p *Parser) looksLikeExplicitTemplateArgs(left ast.Ref) bool {
	node := p.arena.Get(left)
	if node.Kind != ast.KindIdentifier {
		return false
	}
	ident := node.Payload.(ast.Identifier)
	if _, ok := p.tmpl.Primary(ident.Name); !ok {
		return false
	}
	if p.splitRshift || p.injected != nil {
		return false
	}

	guard := cursor.NewScoped(p.cur)
	defer guard.Close()

	p.advance() // '<'
	depth := 1
	for depth > 0 && !p.curIs(token.EOF) {
		switch p.curTok().Kind {
		case token.LT:
			depth++
		case token.GT:
			depth--
		case token.SHR:
			depth -= 2
		case token.SEMI, token.LBRACE:
			return false
		}
		if depth <= 0 {
			break
		}
		p.advance()
	}
	return depth <= 0
}

func (p *Parser) parseAssign(left ast.Ref) ast.Ref {
	tok := p.curTok()
	p.advance()
	right := p.parseExpression(ASSIGNMENT - 1) // right-associative
	resolvedRef := p.resolveOperatorOverload(tok, token.ASSIGN, []ast.Ref{left, right})
	return p.arena.Add(ast.Node{Kind: ast.KindBinaryOp, Token: tok, Payload: ast.BinaryOp{
		Op: token.ASSIGN, Left: left, Right: right, ResolvedOverload: resolvedRef,
	}})
}

func (p *Parser) parseCompoundAssign(left ast.Ref) ast.Ref {
	tok := p.curTok()
	op := tok.Kind
	p.advance()
	right := p.parseExpression(ASSIGNMENT - 1)
	resolvedRef := p.resolveOperatorOverload(tok, op, []ast.Ref{left, right})
	return p.arena.Add(ast.Node{Kind: ast.KindBinaryOp, Token: tok, Payload: ast.BinaryOp{
		Op: op, Left: left, Right: right, ResolvedOverload: resolvedRef,
	}})
}

func (p *Parser) parseTernary(left ast.Ref) ast.Ref {
	tok := p.curTok()
	p.advance()
	then := p.parseExpression(ASSIGNMENT)
	p.expect(token.COLON)
	els := p.parseExpression(ASSIGNMENT - 1)
	return p.arena.Add(ast.Node{Kind: ast.KindTernary, Token: tok, Payload: ast.Ternary{Cond: left, Then: then, Else: els}})
}

func (p *Parser) parseCall(left ast.Ref) ast.Ref {
	tok := p.curTok()
	p.advance() // '('
	var args []ast.Ref
	for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
		args = append(args, p.parseExpression(ASSIGNMENT))
		if p.curIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RPAREN)

	// A plain call `id(42)` (no explicit `<...>` template-argument list,
	// which parseLessThan already handles on its own path) is the
	// deduced entry point of function-template instantiation (spec
	// §4.5), and otherwise the point where a multi-overload free
	// function's call gets resolved (spec §4.6/§4.7).
	instRef, resolvedRef := ast.NoRef, ast.NoRef
	if name, ok := p.callCandidateName(left); ok {
		instRef = p.instantiateFromCallArgs(tok, name, args)
		if instRef == ast.NoRef {
			if sym, ok := p.sym.Lookup(p.it.Text(name)); ok && sym.Kind == symbols.EntityFunction {
				resolvedRef = p.resolveFreeOverload(tok, name, sym.Overloads, args)
			}
		}
	}
	return p.arena.Add(ast.Node{Kind: ast.KindFunctionCall, Token: tok, Payload: ast.FunctionCall{
		Callee: left, Args: args, Instantiation: instRef, ResolvedOverload: resolvedRef,
	}})
}

func (p *Parser) parseSubscript(left ast.Ref) ast.Ref {
	tok := p.curTok()
	p.advance()
	idx := p.parseExpression(LOWEST)
	p.expect(token.RBRACKET)
	return p.arena.Add(ast.Node{Kind: ast.KindArraySubscript, Token: tok, Payload: ast.ArraySubscript{Array: left, Index: idx}})
}

func (p *Parser) parseMember(left ast.Ref) ast.Ref {
	tok := p.curTok()
	arrow := p.curIs(token.ARROW)
	p.advance()
	if p.curIs(token.TILDE) {
		// Pseudo-destructor call: obj.~T() / obj->~T().
		p.advance()
		ty := p.identNameHandle()
		p.advance()
		p.expect(token.LPAREN)
		p.expect(token.RPAREN)
		return p.arena.Add(ast.Node{Kind: ast.KindPseudoDestructorCall, Token: tok, Payload: ast.PseudoDestructorCall{Object: left, Type: ty}})
	}
	name := p.identNameHandle()
	p.advance()
	if p.curIs(token.LPAREN) {
		p.advance()
		var args []ast.Ref
		for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
			args = append(args, p.parseExpression(ASSIGNMENT))
			if p.curIs(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
		p.expect(token.RPAREN)
		resolvedRef := p.resolveMemberCallOverload(tok, left, arrow, name, args)
		return p.arena.Add(ast.Node{Kind: ast.KindMemberFunctionCall, Token: tok, Payload: ast.MemberFunctionCall{
			Object: left, Method: name, Args: args, ArrowStyle: arrow, ResolvedOverload: resolvedRef,
		}})
	}
	return p.arena.Add(ast.Node{Kind: ast.KindMemberAccess, Token: tok, Payload: ast.MemberAccess{Object: left, Member: name, Arrow: arrow}})
}

func (p *Parser) parsePointerToMember(left ast.Ref) ast.Ref {
	tok := p.curTok()
	arrow := p.curIs(token.ARROWSTAR)
	p.advance()
	member := p.parseExpression(POINTER_TO_MEMBER)
	return p.arena.Add(ast.Node{Kind: ast.KindPointerToMemberAccess, Token: tok, Payload: ast.PointerToMemberAccess{Object: left, Member: member, Arrow: arrow}})
}

func (p *Parser) parseScopedInfix(left ast.Ref) ast.Ref {
	// `Namespace::member` chaining onto a preceding (possibly already
	// qualified) name.
	tok := p.curTok()
	p.advance()
	name := p.identNameHandle()
	p.advance()
	node := p.arena.Get(left)
	switch node.Kind {
	case ast.KindIdentifier:
		ident := node.Payload.(ast.Identifier)
		q := ast.QualifiedIdentifier{Qualifiers: []intern.Handle{ident.Name}, Name: name}
		return p.arena.Add(ast.Node{Kind: ast.KindQualifiedIdentifier, Token: tok, Payload: q})
	case ast.KindQualifiedIdentifier:
		q := node.Payload.(ast.QualifiedIdentifier)
		q.Qualifiers = append(append([]intern.Handle{}, q.Qualifiers...), q.Name)
		q.Name = name
		return p.arena.Add(ast.Node{Kind: ast.KindQualifiedIdentifier, Token: tok, Payload: q})
	default:
		return left
	}
}
