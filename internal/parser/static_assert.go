// static_assert parsing and immediate evaluation, per spec §4.4's
// deferral policy: a non-dependent static_assert is evaluated the moment
// it's parsed (consteval.Eval over Cond), while one inside a template
// declaration or a struct/class/union body is recorded but left
// unevaluated, since its condition may depend on a template parameter
// that isn't bound yet.
//
// Grounded on the teacher's parser.go dispatch-then-delegate shape (one
// case in the statement/declaration switch, one dedicated parse
// function) and on internal/diagnostics' error-as-value reporting for
// the failure case.
package parser

import (
	"github.com/cxxfront/parser/internal/ast"
	"github.com/cxxfront/parser/internal/consteval"
	"github.com/cxxfront/parser/internal/diagnostics"
	"github.com/cxxfront/parser/internal/token"
)

func (p *Parser) parseStaticAssert() ast.Ref {
	tok := p.curTok()
	p.advance() // 'static_assert'
	p.expect(token.LPAREN)
	cond := p.parseExpression(LOWEST)
	message := ast.NoRef
	if p.curIs(token.COMMA) {
		p.advance()
		message = p.parseExpression(LOWEST)
	}
	p.expect(token.RPAREN)
	p.expect(token.SEMI)

	deferred := p.templateDepth > 0 || p.structDepth > 0
	if !deferred {
		p.evaluateStaticAssert(tok, cond, message)
	}

	return p.arena.Add(ast.Node{Kind: ast.KindStaticAssertDeclaration, Token: tok, Payload: ast.StaticAssertDeclaration{
		Cond: cond, Message: message, Deferred: deferred,
	}})
}

// evaluateStaticAssert runs the constant-expression evaluator over cond
// and records a diagnostic if it evaluates to a false/zero value. A
// condition the evaluator can't reduce to a constant (consteval.Error) is
// skipped without a diagnostic, since spec §4.4 notes the evaluator is
// intentionally incomplete; the declaration keeps Deferred=false and the
// condition is not evaluated again later.
func (p *Parser) evaluateStaticAssert(tok token.Token, cond, message ast.Ref) {
	val, err := consteval.Eval(p.arena, cond, p.lookupConstant)
	if err != nil {
		return
	}
	if val.AsInt() != 0 {
		return
	}
	msg := "false"
	if message != ast.NoRef {
		if lit, ok := p.arena.Get(message).Payload.(ast.StringLiteral); ok {
			msg = p.it.Text(lit.Value)
		}
	}
	p.errors = append(p.errors, diagnostics.New(diagnostics.ErrC004StaticAssertFailed, diagnostics.PhaseParse, tok, msg))
}

// lookupConstant resolves an Identifier's already-bound Decl ref to a
// Value. Enumerator symbols are the only EntityKind whose Decl is wired
// up to a constant-foldable node (a synthetic NumericLiteral stamped
// with the enumerator's value when the enum is declared, see
// parseEnumDeclaration) until sema grows full constexpr-variable
// tracking, so recursing through Eval itself is sufficient: it will
// simply fail ErrNotConstant for every other Decl shape.
func (p *Parser) lookupConstant(ref ast.Ref) (consteval.Value, bool) {
	val, err := consteval.Eval(p.arena, ref, p.lookupConstant)
	if err != nil {
		return consteval.Value{}, false
	}
	return val, true
}
