// Package parser implements the single-pass recursive-descent parser:
// the Declaration Parser, Expression Parser (Pratt/operator-precedence),
// Type Parser, and the semantic actions that interleave with them (name
// lookup, type binding, template instantiation) described across spec
// §4.
//
// Grounded on the teacher's internal/parser/parser.go: the Parser struct
// shape (stream + current/lookahead tokens + registered prefix/infix
// parse-function maps), the splitRshift synthetic-token technique for
// `>>` disambiguation, and the precedence-table-driven parseExpression
// loop are kept nearly verbatim in structure; curToken/peekToken are
// replaced by a cursor.Cursor so that template-argument-vs-comparison
// and C-style-cast-vs-parenthesized-expression disambiguation can
// speculatively parse and backtrack (spec §4.3), which the teacher's
// plain two-token lookahead never needed to do.
package parser

import (
	"github.com/cxxfront/parser/internal/ast"
	"github.com/cxxfront/parser/internal/config"
	"github.com/cxxfront/parser/internal/cursor"
	"github.com/cxxfront/parser/internal/diagnostics"
	"github.com/cxxfront/parser/internal/intern"
	"github.com/cxxfront/parser/internal/symbols"
	"github.com/cxxfront/parser/internal/templates"
	"github.com/cxxfront/parser/internal/token"
)

type prefixParseFn func() ast.Ref
type infixParseFn func(left ast.Ref) ast.Ref

// Precedence levels, low to high, per spec §4.3's operator table.
const (
	LOWEST = iota
	ASSIGNMENT    // = += -= ...
	TERNARY_PREC  // ?:
	LOGIC_OR      // ||
	LOGIC_AND     // &&
	BITWISE_OR    // |
	BITWISE_XOR   // ^
	BITWISE_AND   // &
	EQUALITY      // == !=
	RELATIONAL    // < > <= >= <=>
	SHIFT         // << >>
	ADDITIVE      // + -
	MULTIPLICATIVE // * / %
	POINTER_TO_MEMBER // .* ->*
	PREFIX        // unary - ! ~ ++ -- * & sizeof
	POSTFIX       // ++ -- () [] . -> static_cast<>()
	SCOPE         // ::
)

var precedences = map[token.Kind]int{
	token.ASSIGN: ASSIGNMENT, token.PLUS_ASSIGN: ASSIGNMENT, token.MINUS_ASSIGN: ASSIGNMENT,
	token.STAR_ASSIGN: ASSIGNMENT, token.SLASH_ASSIGN: ASSIGNMENT, token.PERCENT_ASSIGN: ASSIGNMENT,
	token.AMP_ASSIGN: ASSIGNMENT, token.PIPE_ASSIGN: ASSIGNMENT, token.CARET_ASSIGN: ASSIGNMENT,
	token.SHL_ASSIGN: ASSIGNMENT, token.SHR_ASSIGN: ASSIGNMENT,
	token.QUESTION: TERNARY_PREC,
	token.OROR:     LOGIC_OR,
	token.ANDAND:   LOGIC_AND,
	token.PIPE:     BITWISE_OR,
	token.CARET:    BITWISE_XOR,
	token.AMP:      BITWISE_AND,
	token.EQ:       EQUALITY,
	token.NE:       EQUALITY,
	token.LT:       RELATIONAL,
	token.GT:       RELATIONAL,
	token.LE:       RELATIONAL,
	token.GE:       RELATIONAL,
	token.SPACESHIP: RELATIONAL,
	token.SHL:      SHIFT,
	token.SHR:      SHIFT,
	token.PLUS:     ADDITIVE,
	token.MINUS:    ADDITIVE,
	token.STAR:     MULTIPLICATIVE,
	token.SLASH:    MULTIPLICATIVE,
	token.PERCENT:  MULTIPLICATIVE,
	token.DOTSTAR:  POINTER_TO_MEMBER,
	token.ARROWSTAR: POINTER_TO_MEMBER,
	token.LPAREN:   POSTFIX,
	token.LBRACKET: POSTFIX,
	token.DOT:      POSTFIX,
	token.ARROW:    POSTFIX,
	token.INCR:     POSTFIX,
	token.DECR:     POSTFIX,
	token.COLONCOLON: SCOPE,
}

// Parser holds all mutable parsing state for one translation unit.
type Parser struct {
	cur *cursor.Cursor
	it  *intern.Table
	arena *ast.Arena
	sym   *symbols.Table
	tmpl  *templates.Registry
	opts  config.CompileOptions

	errors []*diagnostics.DiagnosticError

	prefixFns map[token.Kind]prefixParseFn
	infixFns  map[token.Kind]infixParseFn

	// splitRshift mirrors the teacher's technique exactly: once true, the
	// next Advance() synthesizes a standalone `>` instead of reading a
	// fresh token, letting `Foo<Bar<Baz>>` close two template-argument
	// lists from one `>>` token (spec §4.3).
	splitRshift bool
	// injected holds a synthetic token manufactured by splitGT/advance,
	// returned by the very next advance() call before the underlying
	// cursor is consulted again.
	injected *token.Token

	// sfinaeDepth > 0 means a lookup/substitution failure inside the
	// current expression must be folded into "requirement not satisfied"
	// rather than a hard diagnostic (spec §4.4's SFINAE context).
	sfinaeDepth int

	// recursionDepth guards against runaway recursive-descent recursion
	// (spec §8's "recursion depth 256" boundary case).
	recursionDepth int

	// delayed is the FIFO of in-class member-function bodies skipped
	// during class-body parsing and requeued once the class is complete
	// (spec §4.2).
	delayed []delayedBody

	// currentAccess is the access specifier in effect inside the
	// class body currently being parsed ("private" by default for
	// `class`, "public" for `struct`/`union`).
	currentAccess ast.AccessSpecifier

	// linkage is a stack of the active extern "C"/"C++" linkage-
	// specification contexts (spec §4.2).
	linkage []ast.LinkageKind

	// packStack holds the active #pragma pack(N) values; the top of the
	// stack is the pack in effect for struct layout (spec §4.2).
	packStack []int

	// templateDepth > 0 means the parser is currently inside a template
	// declaration's parameter scope; static_assert parsing consults it to
	// decide whether a failing check is deferred rather than reported
	// immediately (spec §4.4).
	templateDepth int

	// structDepth > 0 means the parser is currently inside a struct/class/
	// union body, the other context (besides templateDepth) spec §4.4
	// names for static_assert deferral.
	structDepth int
}

type delayedBody struct {
	fnDecl    ast.Ref // the FunctionDeclaration node whose Body field gets filled in
	tokStart  int
	tokEnd    int // exclusive; points just past the closing '}'
	className intern.Handle
}

// New builds a Parser over tokens, ready to parse one translation unit.
func New(tokens []token.Token, it *intern.Table, arena *ast.Arena, sym *symbols.Table, tmpl *templates.Registry, opts config.CompileOptions) *Parser {
	p := &Parser{
		cur:   cursor.New(tokens),
		it:    it,
		arena: arena,
		sym:   sym,
		tmpl:  tmpl,
		opts:  opts,
	}
	p.registerExpressionParsers()
	return p
}

// Errors returns every diagnostic accumulated so far.
func (p *Parser) Errors() []*diagnostics.DiagnosticError { return p.errors }

func (p *Parser) addError(code diagnostics.ErrorCode, phase diagnostics.Phase, args ...interface{}) {
	p.errors = append(p.errors, diagnostics.New(code, phase, p.cur.Current(), args...))
}

// --- token helpers, mirroring the teacher's curTokenIs/peekTokenIs/expectPeek ---

// curTok returns the logical current token: a pending split `>>` or an
// already-injected synthetic `>` takes priority over the underlying
// cursor (see splitGT/advance).
func (p *Parser) curTok() token.Token {
	if p.splitRshift {
		return syntheticGT(p.cur.Current(), 0)
	}
	if p.injected != nil {
		return *p.injected
	}
	return p.cur.Current()
}

// peekTok returns the token after the logical current one.
func (p *Parser) peekTok() token.Token {
	if p.splitRshift {
		return syntheticGT(p.cur.Current(), 1)
	}
	if p.injected != nil {
		return p.cur.Current()
	}
	return p.cur.Peek(1)
}

func (p *Parser) curIs(k token.Kind) bool  { return p.curTok().Kind == k }
func (p *Parser) peekIs(k token.Kind) bool { return p.peekTok().Kind == k }

func syntheticGT(real token.Token, colOffset int) token.Token {
	return token.Token{Kind: token.GT, Pos: token.Position{
		File: real.Pos.File, Line: real.Pos.Line, Column: real.Pos.Column + colOffset,
	}}
}

// advance consumes and returns the logical current token, honoring the
// teacher's splitRshift technique: once splitGT has flagged the current
// `>>` as two closing angle brackets, the first advance() call consumes
// the real `>>` token from the underlying cursor but only yields the
// first synthetic `>`, queuing the second as p.injected; the next
// advance() call yields that queued `>` without touching the cursor
// again.
func (p *Parser) advance() token.Token {
	if p.splitRshift {
		p.splitRshift = false
		first := syntheticGT(p.cur.Current(), 0)
		second := syntheticGT(p.cur.Current(), 1)
		p.cur.Advance() // consume the real >> token
		p.injected = &second
		return first
	}
	if p.injected != nil {
		tok := *p.injected
		p.injected = nil
		return tok
	}
	return p.cur.Advance()
}

// expect consumes the current token if it matches k, else records a
// diagnostic and leaves the cursor unmoved (teacher: expectPeek).
func (p *Parser) expect(k token.Kind) (token.Token, bool) {
	if p.curIs(k) {
		return p.advance(), true
	}
	p.addError(diagnostics.ErrP001ExpectedToken, diagnostics.PhaseParse, string(k), string(p.curTok().Kind))
	return p.curTok(), false
}

// splitGT flags the current `>>` token to be consumed as a single `>`
// for closing a nested template-argument list (spec §4.3's ambiguous-
// token handling), without moving the cursor — the split actually
// happens inside the next advance() call.
func (p *Parser) splitGT() bool {
	if p.curIs(token.SHR) {
		p.splitRshift = true
		return true
	}
	return false
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curTok().Kind]; ok {
		return prec
	}
	return LOWEST
}

// withRecursionGuard runs fn while incrementing the recursion depth
// counter, recording ErrP005RecursionLimitExceeded instead of recursing
// further once CompileOptions.MaxParserRecursionDepth is reached (spec
// §8).
func (p *Parser) withRecursionGuard(what string, fn func() ast.Ref) ast.Ref {
	p.recursionDepth++
	defer func() { p.recursionDepth-- }()
	if p.recursionDepth > p.opts.MaxParserRecursionDepth {
		p.addError(diagnostics.ErrP005RecursionLimitExceeded, diagnostics.PhaseParse, what)
		return ast.NoRef
	}
	return fn()
}

// ParseTranslationUnit is the top-level entry point: it parses every
// declaration at file scope, in source order, until EOF (spec §5's
// ordering guarantee).
func (p *Parser) ParseTranslationUnit() ast.Ref {
	var decls []ast.Ref
	for !p.curIs(token.EOF) {
		d := p.parseTopLevelDeclaration()
		if d != ast.NoRef {
			decls = append(decls, d)
		} else if !p.curIs(token.EOF) {
			// Parsing this declaration failed to make progress; force
			// forward motion so a single bad token can't loop forever.
			p.advance()
		}
	}
	p.runDelayedBodies()
	return p.arena.Add(ast.Node{Kind: ast.KindDeclaration, Payload: ast.TranslationUnit{Declarations: decls}})
}
