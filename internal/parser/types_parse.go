// Type parsing: decl-specifier-seq + declarator, per spec §4.2's type
// grammar. Grounded on the teacher's internal/parser/types.go
// parseType/parseTypeApplication, especially its `>>`-splitting
// technique for closing nested generic-argument lists, reused here
// (via Parser.splitGT) for C++'s template-argument-list closing angle.
package parser

import (
	"github.com/cxxfront/parser/internal/ast"
	"github.com/cxxfront/parser/internal/diagnostics"
	"github.com/cxxfront/parser/internal/intern"
	"github.com/cxxfront/parser/internal/token"
	"github.com/cxxfront/parser/internal/types"
)

// parseTypeSpecifier parses a full type: cv-qualifiers, a base type
// (builtin, elaborated struct/enum name, or a user-defined/template
// name), then any pointer/reference declarator pieces that immediately
// follow (spec §4.2). It does not parse `[N]` array suffixes (callers use
// parseArrayDims after the declarator name) or a trailing function
// declarator `(params)`; callers that need one (parseFunctionRest)
// handle it themselves after calling this for the return type.
func (p *Parser) parseTypeSpecifier() ast.Ref {
	return p.withRecursionGuard("type-specifier", p.parseTypeSpecifierImpl)
}

func (p *Parser) parseTypeSpecifierImpl() ast.Ref {
	spec := ast.TypeSpecifier{TypeIndex: -1}

	leadingConst := false
	for p.curIs(token.KW_CONST) || p.curIs(token.KW_VOLATILE) {
		if p.curIs(token.KW_CONST) {
			leadingConst = true
		}
		p.advance()
	}

	switch {
	case p.curIs(token.KW_VOID):
		spec.Base = ast.BaseVoid
		p.advance()
	case p.curIs(token.KW_BOOL):
		spec.Base = ast.BaseBool
		p.advance()
	case p.curIs(token.KW_AUTO):
		spec.Base = ast.BaseAuto
		p.advance()
	case p.curIs(token.KW_CHAR), p.curIs(token.KW_INT), p.curIs(token.KW_LONG),
		p.curIs(token.KW_SHORT), p.curIs(token.KW_SIGNED), p.curIs(token.KW_UNSIGNED),
		p.curIs(token.KW_FLOAT), p.curIs(token.KW_DOUBLE):
		p.parseArithmeticBase(&spec)
	case p.curIs(token.KW_STRUCT), p.curIs(token.KW_CLASS), p.curIs(token.KW_UNION):
		spec.Base = ast.BaseStruct
		p.advance() // struct/class/union keyword (elaborated-type-specifier)
		name, _ := p.expect(token.IDENT)
		spec.Name = p.internLiteral(name)
		p.maybeParseTemplateArgs(&spec)
	case p.curIs(token.KW_ENUM):
		spec.Base = ast.BaseEnum
		p.advance()
		if p.curIs(token.KW_CLASS) {
			p.advance()
		}
		name, _ := p.expect(token.IDENT)
		spec.Name = p.internLiteral(name)
	case p.curIs(token.KW_DECLTYPE):
		p.advance()
		p.expect(token.LPAREN)
		p.parseExpression(LOWEST)
		p.expect(token.RPAREN)
		spec.Base = ast.BaseAuto // decltype's resolved type is filled in by sema; treated as deduced here
		spec.IsDependent = true
	case p.curIs(token.IDENT):
		spec.Base = ast.BaseUserDefined
		spec.Name = p.identNameHandle()
		p.advance()
		for p.curIs(token.COLONCOLON) {
			p.advance()
			spec.Name = p.it.Intern(p.it.Text(spec.Name) + "::" + p.literalText(p.curTok()))
			p.advance()
		}
		p.maybeParseTemplateArgs(&spec)
		if sym, ok := p.sym.Lookup(p.it.Text(spec.Name)); ok {
			if idx, ok2 := p.sym.Types.Lookup(spec.Name); ok2 {
				spec.TypeIndex = int(idx)
			}
			_ = sym
		}
	default:
		p.addError(diagnostics.ErrP004InvalidDeclarator, diagnostics.PhaseParse, "expected a type")
		return ast.NoRef
	}

	if leadingConst {
		spec.CV = ast.CVConst
	}
	for p.curIs(token.KW_CONST) {
		spec.CV = mergeCV(spec.CV, ast.CVConst)
		p.advance()
	}

	p.parsePointerAndRefSuffixes(&spec)

	return p.arena.Add(ast.Node{Kind: ast.KindTypeSpecifier, Token: p.curTok(), Payload: spec})
}

func mergeCV(a, b ast.CVQualifier) ast.CVQualifier {
	if a == ast.CVConst && b == ast.CVConst {
		return ast.CVConst
	}
	if a == ast.CVNone {
		return b
	}
	return ast.CVConstVolatile
}

// parseArithmeticBase consumes a run of char/int/long/short/signed/
// unsigned/float/double keywords and resolves the combination to a
// concrete width per spec §4.2's arithmetic-type rules (e.g. `unsigned
// long long` is 64 bits unsigned).
func (p *Parser) parseArithmeticBase(spec *ast.TypeSpecifier) {
	longCount := 0
	sawChar, sawFloat, sawDouble, sawShort := false, false, false, false
	for {
		switch p.curTok().Kind {
		case token.KW_LONG:
			longCount++
		case token.KW_SHORT:
			sawShort = true
		case token.KW_CHAR:
			sawChar = true
		case token.KW_FLOAT:
			sawFloat = true
		case token.KW_DOUBLE:
			sawDouble = true
		case token.KW_SIGNED:
			spec.IsSigned = true
		case token.KW_UNSIGNED:
			spec.IsUnsigned = true
		default:
			goto done
		}
		p.advance()
	}
done:
	switch {
	case sawFloat:
		spec.Base = ast.BaseFloat
		spec.SizeBits = 32
	case sawDouble:
		if longCount > 0 {
			spec.Base = ast.BaseLongDouble
			spec.SizeBits = 128
		} else {
			spec.Base = ast.BaseDouble
			spec.SizeBits = 64
		}
	case sawChar:
		spec.Base = ast.BaseChar
		spec.SizeBits = 8
	case sawShort:
		spec.Base = ast.BaseShort
		spec.SizeBits = 16
	case longCount >= 2:
		spec.Base = ast.BaseLongLong
		spec.SizeBits = 64
	case longCount == 1:
		spec.Base = ast.BaseLong
		spec.SizeBits = p.opts.LongBits()
	default:
		spec.Base = ast.BaseInt
		spec.SizeBits = 32
	}
}

// maybeParseTemplateArgs parses an optional `<Arg, Arg, ...>` suffix,
// using splitGT to close nested lists sharing a trailing `>>` (spec
// §4.3). When spec.Name already names a declared class template, the
// argument list is also used to drive instantiation immediately
// (spec §4.5): spec.TypeIndex is set to the instantiation's concrete
// struct TypeInfo index, so a use like `Box<int> b;` gets a fully laid
// out type the same way a plain struct name does.
func (p *Parser) maybeParseTemplateArgs(spec *ast.TypeSpecifier) {
	if !p.curIs(token.LT) {
		return
	}
	tok := p.curTok()
	p.advance()
	for !p.curIs(token.GT) && !p.curIs(token.SHR) && !p.curIs(token.EOF) {
		arg := p.parseTypeSpecifier()
		spec.TemplateArgs = append(spec.TemplateArgs, arg)
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

	if _, ok := p.tmpl.Primary(spec.Name); ok {
		if idx := p.instantiateClassTemplate(tok, spec.Name, spec.TemplateArgs); idx != types.Invalid {
			spec.TypeIndex = int(idx)
		} else {
			spec.IsDependent = true
		}
	}
}

// parsePointerAndRefSuffixes consumes trailing `*`/`&`/`&&` declarator
// pieces immediately following the base type (spec §4.2); `[N]` array
// suffixes are left to parseArrayDims. The declarator name and any
// function-parameter-list are handled by the callers, since the same
// base type parsing is shared between abstract (sizeof(T*)) and named
// (T* p;) declarator contexts.
func (p *Parser) parsePointerAndRefSuffixes(spec *ast.TypeSpecifier) {
	for p.curIs(token.STAR) {
		p.advance()
		level := ast.PointerLevel{}
		for p.curIs(token.KW_CONST) {
			level.CV = ast.CVConst
			p.advance()
		}
		spec.Pointers = append(spec.Pointers, level)
	}
	if p.curIs(token.AMP) {
		spec.Ref = ast.RefLValue
		p.advance()
	} else if p.curIs(token.ANDAND) {
		spec.Ref = ast.RefRValue
		p.advance()
	}
}

// parseArrayDims consumes zero or more trailing `[expr]`/`[]` suffixes
// after a declarator name, wrapping spec in array-of layers.
func (p *Parser) parseArrayDims(spec *ast.TypeSpecifier) {
	for p.curIs(token.LBRACKET) {
		p.advance()
		if p.curIs(token.RBRACKET) {
			spec.ArrayDims = append(spec.ArrayDims, ast.NoRef)
		} else {
			dim := p.parseExpression(LOWEST)
			spec.ArrayDims = append(spec.ArrayDims, dim)
		}
		p.expect(token.RBRACKET)
	}
}

// literalText safely extracts a token's string Literal, returning "" for
// a malformed/missing literal rather than panicking.
func (p *Parser) literalText(t token.Token) string {
	s, _ := t.Literal.(string)
	return s
}

// internLiteral interns t's string Literal.
func (p *Parser) internLiteral(t token.Token) intern.Handle {
	return p.it.Intern(p.literalText(t))
}

// identNameHandle interns the current IDENT token's lexeme text.
func (p *Parser) identNameHandle() intern.Handle {
	return p.internLiteral(p.curTok())
}
