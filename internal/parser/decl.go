// Declaration parsing: the Declaration Parser half of the single pass,
// per spec §4.2. Namespaces, using-directives, struct/class/union bodies,
// enums, variables, functions (including constructors/destructors/
// operators), templates and concepts are all produced here; expressions
// and statements are handled by expr.go/stmt.go.
//
// Grounded on the teacher's internal/parser/parser.go parseStatement
// dispatch table, generalized from one flat statement grammar into the
// declaration/statement split C++ requires, and on its delayed evaluation
// of lazily-bound names — the same "skip now, resolve later" idea behind
// the member-function body queue below.
package parser

import (
	"github.com/cxxfront/parser/internal/ast"
	"github.com/cxxfront/parser/internal/diagnostics"
	"github.com/cxxfront/parser/internal/intern"
	"github.com/cxxfront/parser/internal/namespace"
	"github.com/cxxfront/parser/internal/symbols"
	"github.com/cxxfront/parser/internal/templates"
	"github.com/cxxfront/parser/internal/token"
	"github.com/cxxfront/parser/internal/types"
)

// parseTopLevelDeclaration parses one declaration at namespace/global
// scope, dispatching on the leading token (spec §4.2).
func (p *Parser) parseTopLevelDeclaration() ast.Ref {
	return p.withRecursionGuard("declaration", p.parseTopLevelDeclarationImpl)
}

func (p *Parser) parseTopLevelDeclarationImpl() ast.Ref {
	switch p.curTok().Kind {
	case token.SEMI:
		p.advance()
		return ast.NoRef
	case token.KW_NAMESPACE:
		return p.parseNamespace()
	case token.KW_USING:
		return p.parseUsing()
	case token.KW_TEMPLATE:
		return p.parseTemplateDeclaration()
	case token.KW_CONCEPT:
		return p.parseConceptDeclaration()
	case token.KW_STRUCT, token.KW_CLASS, token.KW_UNION:
		return p.parseClassOrForwardDecl(accessDefaultFor(p.curTok().Kind))
	case token.KW_ENUM:
		return p.parseEnumDeclaration()
	case token.KW_EXTERN:
		if p.peekIs(token.STRING_LIT) {
			return p.parseLinkageSpec()
		}
	case token.KW_STATIC_ASSERT:
		return p.parseStaticAssert()
	case token.HASH:
		return p.parsePragma()
	}
	return p.parseSimpleDeclaration(ast.AccessDefault, 0)
}

// --- namespaces -------------------------------------------------------

func (p *Parser) parseNamespace() ast.Ref {
	tok := p.curTok()
	p.advance()
	isInline := false
	if p.curIs(token.KW_INLINE) {
		isInline = true
		p.advance()
	}

	// `namespace Alias = Qualified::Target;`
	if p.curIs(token.IDENT) && p.peekIs(token.ASSIGN) {
		name := p.identNameHandle()
		p.advance()
		p.advance() // '='
		target := p.parseQualifiedNameText()
		p.expect(token.SEMI)
		return p.arena.Add(ast.Node{Kind: ast.KindNamespaceAlias, Token: tok, Payload: ast.NamespaceAlias{
			Name: name, Target: p.it.Intern(target),
		}})
	}

	// Anonymous namespace: `namespace { ... }`.
	if p.curIs(token.LBRACE) {
		return p.parseNamespaceBody(tok, "", isInline)
	}

	// Named (possibly nested, `namespace A::B::C { ... }`) namespace.
	var segs []string
	for {
		name, _ := p.expect(token.IDENT)
		segs = append(segs, p.literalText(name))
		if p.curIs(token.COLONCOLON) {
			p.advance()
			continue
		}
		break
	}
	return p.parseNamespaceBody(tok, segs[len(segs)-1], isInline, segs[:len(segs)-1]...)
}

// parseNamespaceBody opens (or reopens) the named namespace, pushing
// intermediate segments of a nested-namespace-definition first, parses
// its member list, then pops back to the enclosing scope.
func (p *Parser) parseNamespaceBody(tok token.Token, innerName string, isInline bool, outerSegs ...string) ast.Ref {
	depth := 0
	for _, seg := range outerSegs {
		p.sym.PushNamespace(seg, false)
		depth++
	}
	id := p.sym.PushNamespace(innerName, isInline)
	depth++

	p.expect(token.LBRACE)
	var members []ast.Ref
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		d := p.parseTopLevelDeclaration()
		if d != ast.NoRef {
			members = append(members, d)
		} else if !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
			p.advance()
		}
	}
	p.expect(token.RBRACE)
	for i := 0; i < depth; i++ {
		p.sym.Pop()
	}

	node := p.sym.Namespaces.Get(id)
	return p.arena.Add(ast.Node{Kind: ast.KindNamespaceDeclaration, Token: tok, Payload: ast.NamespaceDeclaration{
		Name:        p.it.Intern(innerName),
		IsInline:    isInline,
		Members:     members,
		IsAnonymous: node.Anonymous,
		LinkageTag:  node.LinkageTag,
	}})
}

// parseQualifiedNameText reads a `A::B::C` path as plain text, used where
// the grammar wants a name rather than a bindable TypeSpecifier (using-
// directives, namespace aliases).
func (p *Parser) parseQualifiedNameText() string {
	name, _ := p.expect(token.IDENT)
	text := p.literalText(name)
	for p.curIs(token.COLONCOLON) {
		p.advance()
		seg, _ := p.expect(token.IDENT)
		text += "::" + p.literalText(seg)
	}
	return text
}

// --- using ----------------------------------------------------------------

func (p *Parser) parseUsing() ast.Ref {
	tok := p.curTok()
	p.advance()

	if p.curIs(token.KW_NAMESPACE) {
		p.advance()
		path := p.parseQualifiedNameText()
		p.expect(token.SEMI)
		p.resolveUsingDirective(path)
		return p.arena.Add(ast.Node{Kind: ast.KindUsingDirective, Token: tok, Payload: ast.UsingDirective{
			Namespace: p.it.Intern(path),
		}})
	}

	if p.curIs(token.KW_ENUM) {
		p.advance()
		name, _ := p.expect(token.IDENT)
		p.expect(token.SEMI)
		return p.arena.Add(ast.Node{Kind: ast.KindUsingEnum, Token: tok, Payload: ast.UsingEnum{
			EnumName: p.internLiteral(name),
		}})
	}

	// `using Name = Type;` (alias-declaration, a template-less TemplateAlias).
	if p.curIs(token.IDENT) && p.peekIs(token.ASSIGN) {
		name := p.identNameHandle()
		p.advance()
		p.advance() // '='
		target := p.parseTypeSpecifier()
		p.expect(token.SEMI)
		p.sym.Current().Define(p.it.Text(name), symbols.Symbol{Name: name, Kind: symbols.EntityType})
		return p.arena.Add(ast.Node{Kind: ast.KindTemplateAlias, Token: tok, Payload: ast.TemplateAlias{
			Name: name, Target: target,
		}})
	}

	// `using NS::name;` (using-declaration).
	path := p.parseQualifiedNameText()
	p.expect(token.SEMI)
	local := path
	if idx := lastSep(path); idx >= 0 {
		local = path[idx+2:]
	}
	qualified := p.it.Intern(path)
	localHandle := p.it.Intern(local)
	p.sym.Current().UsingDeclarations[local] = symbols.QualifiedRef{Namespace: p.sym.Current().Namespace, Name: path}
	return p.arena.Add(ast.Node{Kind: ast.KindUsingDeclaration, Token: tok, Payload: ast.UsingDeclaration{
		QualifiedName: qualified, LocalName: localHandle,
	}})
}

func lastSep(s string) int {
	for i := len(s) - 2; i >= 0; i-- {
		if s[i] == ':' && s[i+1] == ':' {
			return i
		}
	}
	return -1
}

// resolveUsingDirective records the using-directive edge in the namespace
// DAG once the target path has been split and (best-effort) resolved
// relative to the current namespace.
func (p *Parser) resolveUsingDirective(path string) {
	cur := p.sym.Current().Namespace
	target := cur
	seg := path
	start := namespace.Global
	if idx := firstSep(path); idx >= 0 {
		seg = path[:idx]
	}
	target = p.sym.Namespaces.Enter(start, seg, false)
	rest := path
	if idx := firstSep(path); idx >= 0 {
		rest = path[idx+2:]
		for {
			if idx2 := firstSep(rest); idx2 >= 0 {
				target = p.sym.Namespaces.Enter(target, rest[:idx2], false)
				rest = rest[idx2+2:]
				continue
			}
			break
		}
	}
	p.sym.Namespaces.AddUsingDirective(cur, target)
}

func firstSep(s string) int {
	for i := 0; i+1 < len(s); i++ {
		if s[i] == ':' && s[i+1] == ':' {
			return i
		}
	}
	return -1
}

// --- enums ------------------------------------------------------------

func (p *Parser) parseEnumDeclaration() ast.Ref {
	tok := p.curTok()
	p.advance()
	scoped := false
	if p.curIs(token.KW_CLASS) {
		scoped = true
		p.advance()
	}
	name, _ := p.expect(token.IDENT)
	nameHandle := p.internLiteral(name)

	var underlying ast.Ref = ast.NoRef
	if p.curIs(token.COLON) {
		p.advance()
		underlying = p.parseTypeSpecifier()
	}

	underlyingIdx := types.Invalid
	if underlying != ast.NoRef {
		if spec, ok := p.arena.Get(underlying).Payload.(ast.TypeSpecifier); ok && spec.TypeIndex >= 0 {
			underlyingIdx = types.Index(spec.TypeIndex)
		}
	} else {
		underlyingIdx = p.sym.Types.Builtin("int")
	}
	typeIdx := p.sym.Types.DeclareEnum(nameHandle, scoped, underlyingIdx)

	if p.curIs(token.SEMI) {
		p.advance()
		return p.arena.Add(ast.Node{Kind: ast.KindEnumDeclaration, Token: tok, Payload: ast.EnumDeclaration{
			Name: nameHandle, IsScoped: scoped, UnderlyingType: underlying, TypeIndex: int(typeIdx),
		}})
	}

	p.expect(token.LBRACE)
	var enumerators []ast.EnumeratorDecl
	detail := p.sym.Types.EnumDetail(typeIdx)
	nextValue := int64(0)
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		enName, _ := p.expect(token.IDENT)
		enHandle := p.internLiteral(enName)
		var value ast.Ref = ast.NoRef
		val := nextValue
		if p.curIs(token.ASSIGN) {
			p.advance()
			value = p.parseExpression(ASSIGNMENT - 1)
			if node := p.arena.Get(value); node.Kind == ast.KindNumericLiteral {
				if lit, ok := node.Payload.(ast.NumericLiteral); ok && lit.Kind == ast.NumInt {
					val = lit.IVal
				}
			}
		}
		enumerators = append(enumerators, ast.EnumeratorDecl{Name: enHandle, Value: value})
		detail.Enumerators = append(detail.Enumerators, types.EnumeratorInfo{Name: enHandle, Value: val})
		nextValue = val + 1

		// A synthetic NumericLiteral node carries the enumerator's resolved
		// value as the symbol's Decl, so a later reference to this
		// enumerator resolves to a constant the same way consteval.Eval
		// already handles any other NumericLiteral (see lookupConstant).
		constRef := p.arena.Add(ast.Node{Kind: ast.KindNumericLiteral, Token: enName, Payload: ast.NumericLiteral{Kind: ast.NumInt, IVal: val}})
		if !scoped {
			p.sym.Current().Define(p.it.Text(enHandle), symbols.Symbol{Name: enHandle, Kind: symbols.EntityEnumerator, Type: typeIdx, Decl: constRef})
		}
		if p.curIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RBRACE)
	p.expect(token.SEMI)

	p.sym.Current().Define(p.it.Text(nameHandle), symbols.Symbol{Name: nameHandle, Kind: symbols.EntityType, Type: typeIdx})
	if scoped {
		// A scoped enum opens its own lookup scope for `Name::Enumerator`;
		// modeled here by defining each enumerator under the synthetic key
		// "Enumerator::via::EnumName" in the current scope, since this
		// registry has no qualified member lookup within non-namespace,
		// non-class scopes. The enumerators are not defined unqualified.
		for _, e := range enumerators {
			p.sym.Current().Define(p.it.Text(e.Name)+"::via::"+p.it.Text(nameHandle), symbols.Symbol{Name: e.Name, Kind: symbols.EntityEnumerator, Type: typeIdx})
		}
	}

	return p.arena.Add(ast.Node{Kind: ast.KindEnumDeclaration, Token: tok, Payload: ast.EnumDeclaration{
		Name: nameHandle, IsScoped: scoped, UnderlyingType: underlying, Enumerators: enumerators, TypeIndex: int(typeIdx),
	}})
}

// --- concepts ---------------------------------------------------------

func (p *Parser) parseConceptDeclaration() ast.Ref {
	tok := p.curTok()
	p.advance()
	name, _ := p.expect(token.IDENT)
	nameHandle := p.internLiteral(name)
	p.expect(token.ASSIGN)
	body := p.parseExpression(LOWEST)
	p.expect(token.SEMI)
	p.sym.Current().Define(p.it.Text(nameHandle), symbols.Symbol{Name: nameHandle, Kind: symbols.EntityConcept})
	return p.arena.Add(ast.Node{Kind: ast.KindConceptDeclaration, Token: tok, Payload: ast.ConceptDeclaration{
		Name: nameHandle, Body: body,
	}})
}

// --- classes/structs/unions --------------------------------------------

func accessDefaultFor(k token.Kind) ast.AccessSpecifier {
	if k == token.KW_CLASS {
		return ast.AccessPrivate
	}
	return ast.AccessPublic
}

func (p *Parser) parseClassOrForwardDecl(_ ast.AccessSpecifier) ast.Ref {
	tok := p.curTok()
	isUnion := p.curIs(token.KW_UNION)
	defaultAccess := accessDefaultFor(p.curTok().Kind)
	p.advance() // struct/class/union

	isAnonymous := !p.curIs(token.IDENT)
	var nameHandle intern.Handle
	if !isAnonymous {
		name, _ := p.expect(token.IDENT)
		nameHandle = p.internLiteral(name)
	}

	isFinal := false
	if p.curIs(token.KW_FINAL) {
		isFinal = true
		p.advance()
	}

	var bases []ast.BaseClass
	if p.curIs(token.COLON) {
		p.advance()
		bases = p.parseBaseClauseList()
	}

	if p.curIs(token.SEMI) {
		p.advance()
		if !isAnonymous {
			p.sym.Types.DeclareStruct(nameHandle, isUnion)
			p.sym.Current().Define(p.it.Text(nameHandle), symbols.Symbol{Name: nameHandle, Kind: symbols.EntityType, IsPending: true})
		}
		return p.arena.Add(ast.Node{Kind: ast.KindStructDeclaration, Token: tok, Payload: ast.StructDeclaration{
			Name: nameHandle, IsUnion: isUnion, IsFinal: isFinal, Bases: bases, TypeIndex: -1, IsAnonymous: isAnonymous,
		}})
	}

	typeIdx := p.sym.Types.DeclareStruct(nameHandle, isUnion)
	detail := p.sym.Types.StructDetail(typeIdx)
	for _, b := range bases {
		if baseIdx, ok := p.sym.Types.Lookup(b.Name); ok {
			detail.Bases = append(detail.Bases, baseIdx)
		}
	}

	if !isAnonymous {
		p.sym.Current().Define(p.it.Text(nameHandle), symbols.Symbol{Name: nameHandle, Kind: symbols.EntityType, Type: typeIdx})
	}

	members, pack := p.parseClassBody(nameHandle, isUnion, defaultAccess, typeIdx)
	p.expect(token.SEMI)

	sizeBits, alignBits := p.layoutStruct(typeIdx, pack)
	p.sym.Types.CompleteStruct(typeIdx, sizeBits, alignBits)

	return p.arena.Add(ast.Node{Kind: ast.KindStructDeclaration, Token: tok, Payload: ast.StructDeclaration{
		Name: nameHandle, IsUnion: isUnion, IsFinal: isFinal, Bases: bases, Members: members,
		TypeIndex: int(typeIdx), IsAnonymous: isAnonymous,
	}})
}

func (p *Parser) parseBaseClauseList() []ast.BaseClass {
	var bases []ast.BaseClass
	for {
		access := ast.AccessPrivate
		isVirtual := false
		for p.curIs(token.KW_PUBLIC) || p.curIs(token.KW_PRIVATE) || p.curIs(token.KW_PROTECTED) || p.curIs(token.KW_VIRTUAL) {
			switch p.curTok().Kind {
			case token.KW_PUBLIC:
				access = ast.AccessPublic
			case token.KW_PRIVATE:
				access = ast.AccessPrivate
			case token.KW_PROTECTED:
				access = ast.AccessProtected
			case token.KW_VIRTUAL:
				isVirtual = true
			}
			p.advance()
		}
		name := p.it.Intern(p.parseQualifiedNameText())
		bases = append(bases, ast.BaseClass{Name: name, Access: access, IsVirtual: isVirtual})
		if p.curIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	return bases
}

// parseClassBody parses the member-declaration-list of a class/struct/
// union between its braces (already expects to see '{'), returning the
// members in source order and the #pragma pack value in effect for
// layout (0 if none).
func (p *Parser) parseClassBody(className intern.Handle, isUnion bool, defaultAccess ast.AccessSpecifier, typeIdx types.Index) ([]ast.Ref, int) {
	p.expect(token.LBRACE)
	p.sym.PushScope(symbols.ScopeClass)
	p.structDepth++
	defer func() { p.structDepth-- }()
	access := defaultAccess
	var members []ast.Ref
	pack := 0
	if len(p.packStack) > 0 {
		pack = p.packStack[len(p.packStack)-1]
	}

	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		switch p.curTok().Kind {
		case token.KW_PUBLIC:
			access = ast.AccessPublic
			p.advance()
			p.expect(token.COLON)
			continue
		case token.KW_PRIVATE:
			access = ast.AccessPrivate
			p.advance()
			p.expect(token.COLON)
			continue
		case token.KW_PROTECTED:
			access = ast.AccessProtected
			p.advance()
			p.expect(token.COLON)
			continue
		case token.SEMI:
			p.advance()
			continue
		case token.KW_FRIEND:
			p.advance()
			// A friend declaration grants access but does not itself become
			// a member; parse and discard the declaration it introduces.
			p.parseSimpleDeclaration(access, 0)
			continue
		case token.KW_STRUCT, token.KW_CLASS, token.KW_UNION:
			members = append(members, p.parseClassOrForwardDecl(access))
			continue
		case token.KW_ENUM:
			members = append(members, p.parseEnumDeclaration())
			continue
		case token.KW_USING:
			members = append(members, p.parseUsing())
			continue
		case token.KW_TEMPLATE:
			members = append(members, p.parseTemplateDeclaration())
			continue
		case token.KW_STATIC_ASSERT:
			members = append(members, p.parseStaticAssert())
			continue
		}

		m := p.parseSimpleDeclaration(access, className)
		if m != ast.NoRef {
			members = append(members, m)
			p.registerMember(typeIdx, isUnion, m)
		} else if !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
			p.advance()
		}
	}
	p.expect(token.RBRACE)
	p.sym.Pop()
	return members, pack
}

// registerMember appends a data member's FieldInfo to the struct's layout
// detail, and a function member's MethodInfo (name, mangled name, decl
// and resolved parameter types) for member overload resolution.
func (p *Parser) registerMember(typeIdx types.Index, isUnion bool, ref ast.Ref) {
	node := p.arena.Get(ref)
	detail := p.sym.Types.StructDetail(typeIdx)
	switch payload := node.Payload.(type) {
	case ast.VariableDeclaration:
		fieldType := types.Invalid
		if spec, ok := p.arena.Get(payload.Type).Payload.(ast.TypeSpecifier); ok && spec.TypeIndex >= 0 {
			fieldType = types.Index(spec.TypeIndex)
		}
		width := 0
		if payload.Bitfield != ast.NoRef {
			if n, ok := p.arena.Get(payload.Bitfield).Payload.(ast.NumericLiteral); ok {
				width = int(n.IVal)
			}
		}
		detail.Fields = append(detail.Fields, types.FieldInfo{
			Name: payload.Name, Type: fieldType, OffsetBits: -1, BitfieldWidth: width, IsStatic: payload.IsStatic,
		})
	case ast.FunctionDeclaration:
		params := make([]types.Index, len(payload.Params))
		for i, prm := range payload.Params {
			params[i] = p.resolveSpecIndex(prm.Type)
		}
		detail.Methods = append(detail.Methods, types.MethodInfo{
			Name: payload.Name, MangledName: payload.MangledName, Decl: ref, Params: params,
		})
	}
}

// layoutStruct computes a naive sequential layout: fields are packed in
// declaration order at their natural alignment (or packBits if a
// #pragma pack is active), matching the ABI model spec §4.2 names as the
// default (Itanium-style sequential layout, no reordering).
func (p *Parser) layoutStruct(typeIdx types.Index, pack int) (sizeBits, alignBits int) {
	detail := p.sym.Types.StructDetail(typeIdx)
	detail.PackBits = pack
	offset := 0
	maxAlign := 8
	for i := range detail.Fields {
		f := &detail.Fields[i]
		if f.IsStatic {
			continue
		}
		fieldBits := 32
		fieldAlign := 32
		if f.Type != types.Invalid {
			info := p.sym.Types.Get(f.Type)
			fieldBits = p.sizeOfType(info)
			fieldAlign = fieldBits
			if fieldAlign > 64 {
				fieldAlign = 64
			}
		}
		if pack > 0 && fieldAlign > pack*8 {
			fieldAlign = pack * 8
		}
		if detail.IsUnion {
			f.OffsetBits = 0
			if fieldBits > offset {
				offset = fieldBits
			}
		} else {
			if fieldAlign > 0 && offset%fieldAlign != 0 {
				offset += fieldAlign - offset%fieldAlign
			}
			f.OffsetBits = offset
			offset += fieldBits
		}
		if fieldAlign > maxAlign {
			maxAlign = fieldAlign
		}
	}
	if maxAlign > 0 && offset%maxAlign != 0 {
		offset += maxAlign - offset%maxAlign
	}
	if offset == 0 {
		offset = 8 // spec §4.2: an empty class still has non-zero size
	}
	return offset, maxAlign
}

func (p *Parser) sizeOfType(info types.TypeInfo) int {
	switch info.Category {
	case types.CategoryBuiltin:
		if info.BuiltinSizeBits == 0 {
			return 8
		}
		return info.BuiltinSizeBits
	case types.CategoryPointer, types.CategoryLValueRef, types.CategoryRValueRef:
		return p.opts.PointerBits()
	case types.CategoryStruct:
		// A nested struct member's own size isn't known until its
		// CompleteStruct call runs; conservatively treat it as pointer-sized
		// rather than force an ordering dependency between member layouts.
		return p.opts.PointerBits()
	default:
		return p.opts.PointerBits()
	}
}

// --- linkage / pragma ---------------------------------------------------

func (p *Parser) parseLinkageSpec() ast.Ref {
	p.advance() // extern
	lang, _ := p.expect(token.STRING_LIT)
	kind := ast.LinkageCPP
	if p.literalText(lang) == "C" {
		kind = ast.LinkageC
	}
	p.linkage = append(p.linkage, kind)
	defer func() { p.linkage = p.linkage[:len(p.linkage)-1] }()

	if p.curIs(token.LBRACE) {
		p.advance()
		var decls []ast.Ref
		for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
			d := p.parseTopLevelDeclaration()
			if d != ast.NoRef {
				decls = append(decls, d)
			}
		}
		p.expect(token.RBRACE)
		return p.arena.Add(ast.Node{Kind: ast.KindDeclaration, Payload: ast.TranslationUnit{Declarations: decls}})
	}
	return p.parseTopLevelDeclaration()
}

// parsePragma implements the #pragma pack(N)/#pragma pack() state machine
// (spec §4.2): push/pop a pack value honored by layoutStruct.
func (p *Parser) parsePragma() ast.Ref {
	p.advance() // '#'
	if !p.curIs(token.IDENT) || p.literalText(p.curTok()) != "pragma" {
		p.addError(diagnostics.ErrL001UnexpectedToken, diagnostics.PhaseLex, "pragma")
		p.advance()
		return ast.NoRef
	}
	p.advance()
	if p.curIs(token.IDENT) && p.literalText(p.curTok()) == "pack" {
		p.advance()
		p.expect(token.LPAREN)
		switch {
		case p.curIs(token.IDENT) && p.literalText(p.curTok()) == "push":
			p.advance()
			val := 0
			if p.curIs(token.COMMA) {
				p.advance()
				if n, ok := p.arena.Get(p.parseExpression(LOWEST)).Payload.(ast.NumericLiteral); ok {
					val = int(n.IVal)
				}
			}
			p.packStack = append(p.packStack, val)
		case p.curIs(token.IDENT) && p.literalText(p.curTok()) == "pop":
			p.advance()
			if len(p.packStack) > 0 {
				p.packStack = p.packStack[:len(p.packStack)-1]
			}
		case p.curIs(token.RPAREN):
			// bare `#pragma pack()` resets to the default.
			if len(p.packStack) > 0 {
				p.packStack[len(p.packStack)-1] = 0
			}
		default:
			expr := p.parseExpression(LOWEST)
			val := 0
			if n, ok := p.arena.Get(expr).Payload.(ast.NumericLiteral); ok {
				val = int(n.IVal)
			}
			if len(p.packStack) == 0 {
				p.packStack = append(p.packStack, val)
			} else {
				p.packStack[len(p.packStack)-1] = val
			}
		}
		p.expect(token.RPAREN)
	} else {
		// Unrecognized pragmas are skipped to end of line is not
		// representable at the token level here; skip to the next
		// statement-like boundary instead.
		for !p.curIs(token.SEMI) && !p.curIs(token.EOF) && !p.curIs(token.HASH) {
			p.advance()
		}
	}
	return ast.NoRef
}

// --- templates ----------------------------------------------------------

func (p *Parser) parseTemplateParams() []ast.TemplateParameter {
	p.expect(token.LT)
	var params []ast.TemplateParameter
	for !p.curIs(token.GT) && !p.curIs(token.SHR) && !p.curIs(token.EOF) {
		var param ast.TemplateParameter
		switch {
		case p.curIs(token.KW_TYPENAME) || p.curIs(token.KW_CLASS):
			p.advance()
			param.Kind = ast.TemplateParamType
			if p.curIs(token.ELLIPSIS) {
				param.IsPack = true
				p.advance()
			}
			if p.curIs(token.IDENT) {
				param.Name = p.identNameHandle()
				p.advance()
			}
			if p.curIs(token.ASSIGN) {
				p.advance()
				param.Default = p.parseTypeSpecifier()
			}
		case p.curIs(token.KW_TEMPLATE):
			p.advance()
			p.parseTemplateParams()
			p.expect(token.KW_CLASS)
			param.Kind = ast.TemplateParamTemplateTemplate
			if p.curIs(token.IDENT) {
				param.Name = p.identNameHandle()
				p.advance()
			}
		default:
			param.Kind = ast.TemplateParamNonType
			param.Type = p.parseTypeSpecifier()
			if p.curIs(token.ELLIPSIS) {
				param.IsPack = true
				p.advance()
			}
			if p.curIs(token.IDENT) {
				param.Name = p.identNameHandle()
				p.advance()
			}
			if p.curIs(token.ASSIGN) {
				p.advance()
				param.Default = p.parseExpression(ASSIGNMENT - 1)
			}
		}
		params = append(params, param)
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
	return params
}

func (p *Parser) parseTemplateDeclaration() ast.Ref {
	tok := p.curTok()
	p.advance() // 'template'
	params := p.parseTemplateParams()

	p.templateDepth++
	defer func() { p.templateDepth-- }()

	// `template<> Foo<int> name() { ... }` / `template<typename T> struct
	// Foo<T*> { ... }` are (partial) specializations; for class templates
	// parseTemplateClass detects one by a `<` argument list directly after
	// the class name, without checking that the primary is declared.
	switch p.curTok().Kind {
	case token.KW_STRUCT, token.KW_CLASS, token.KW_UNION:
		return p.parseTemplateClass(tok, params)
	case token.KW_USING:
		return p.parseTemplateAlias(tok, params)
	case token.KW_CONCEPT:
		p.advance()
		name, _ := p.expect(token.IDENT)
		nameHandle := p.internLiteral(name)
		p.expect(token.ASSIGN)
		body := p.parseExpression(LOWEST)
		p.expect(token.SEMI)
		p.sym.Current().Define(p.it.Text(nameHandle), symbols.Symbol{Name: nameHandle, Kind: symbols.EntityConcept})
		return p.arena.Add(ast.Node{Kind: ast.KindConceptDeclaration, Token: tok, Payload: ast.ConceptDeclaration{
			Name: nameHandle, Params: params, Body: body,
		}})
	default:
		return p.parseTemplateFunctionOrVariable(tok, params)
	}
}

func (p *Parser) parseTemplateClass(tok token.Token, params []ast.TemplateParameter) ast.Ref {
	isUnion := p.curIs(token.KW_UNION)
	defaultAccess := accessDefaultFor(p.curTok().Kind)
	p.advance()
	name, _ := p.expect(token.IDENT)
	nameHandle := p.internLiteral(name)

	if p.curIs(token.LT) {
		// Partial/full specialization: `template<...> struct Foo<Args...>`.
		specParams := params
		pattern := p.parseTemplateArgPattern()
		p.skipUntilBraceOrSemi()
		var inner ast.Ref = ast.NoRef
		if p.curIs(token.LBRACE) {
			shellIdx := p.sym.Types.DeclareStruct(nameHandle, isUnion)
			members, pack := p.parseClassBody(nameHandle, isUnion, defaultAccess, shellIdx)
			p.expect(token.SEMI)
			sizeBits, alignBits := p.layoutStruct(shellIdx, pack)
			p.sym.Types.CompleteStruct(shellIdx, sizeBits, alignBits)
			inner = p.arena.Add(ast.Node{Kind: ast.KindStructDeclaration, Token: tok, Payload: ast.StructDeclaration{
				Name: nameHandle, IsUnion: isUnion, Members: members, TypeIndex: int(shellIdx),
			}})
		} else {
			p.expect(token.SEMI)
		}
		p.tmpl.AddSpecialization(nameHandle, templates.Specialization{Params: specParams, Pattern: pattern, Decl: inner})
		return inner
	}

	var bases []ast.BaseClass
	if p.curIs(token.COLON) {
		p.advance()
		bases = p.parseBaseClauseList()
	}

	primary := p.tmpl.DeclarePrimary(templates.Primary{Name: nameHandle, Kind: templates.KindClass, Params: params})
	p.sym.Current().Define(p.it.Text(nameHandle), symbols.Symbol{Name: nameHandle, Kind: symbols.EntityTemplate})

	if p.curIs(token.SEMI) {
		p.advance()
		ref := p.arena.Add(ast.Node{Kind: ast.KindStructDeclaration, Token: tok, Payload: ast.StructDeclaration{
			Name: nameHandle, IsUnion: isUnion, Bases: bases, TypeIndex: -1,
		}})
		primary.Decl = ref
		return p.arena.Add(ast.Node{Kind: ast.KindTemplateClassDeclaration, Token: tok, Payload: ast.TemplateClassDeclaration{
			Params: params, Inner: ref,
		}})
	}

	// Parse the template's own parameter scope so in-body references to a
	// type parameter resolve (spec §4.4): bound as dependent type-alias
	// symbols for the duration of the body.
	p.sym.PushScope(symbols.ScopeClass)
	for _, tp := range params {
		if tp.Kind == ast.TemplateParamType {
			p.sym.Current().Define(p.it.Text(tp.Name), symbols.Symbol{Name: tp.Name, Kind: symbols.EntityType})
		}
	}
	shellIdx := p.sym.Types.DeclareStruct(nameHandle, isUnion)
	members, pack := p.parseClassBody(nameHandle, isUnion, defaultAccess, shellIdx)
	p.sym.Pop()
	p.expect(token.SEMI)
	sizeBits, alignBits := p.layoutStruct(shellIdx, pack)
	p.sym.Types.CompleteStruct(shellIdx, sizeBits, alignBits)

	inner := p.arena.Add(ast.Node{Kind: ast.KindStructDeclaration, Token: tok, Payload: ast.StructDeclaration{
		Name: nameHandle, IsUnion: isUnion, Bases: bases, Members: members, TypeIndex: int(shellIdx),
	}})
	primary.Decl = inner
	return p.arena.Add(ast.Node{Kind: ast.KindTemplateClassDeclaration, Token: tok, Payload: ast.TemplateClassDeclaration{
		Params: params, Inner: inner,
	}})
}

// parseTemplateArgPattern parses the `<Pattern, ...>` immediately
// following a specialization's class name.
func (p *Parser) parseTemplateArgPattern() []ast.Ref {
	p.expect(token.LT)
	var args []ast.Ref
	for !p.curIs(token.GT) && !p.curIs(token.SHR) && !p.curIs(token.EOF) {
		args = append(args, p.parseTypeSpecifier())
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
	return args
}

func (p *Parser) skipUntilBraceOrSemi() {
	for !p.curIs(token.LBRACE) && !p.curIs(token.SEMI) && !p.curIs(token.EOF) {
		p.advance()
	}
}

func (p *Parser) parseTemplateAlias(tok token.Token, params []ast.TemplateParameter) ast.Ref {
	p.advance() // 'using'
	name := p.identNameHandle()
	p.advance()
	p.expect(token.ASSIGN)
	target := p.parseTypeSpecifier()
	p.expect(token.SEMI)
	p.sym.Current().Define(p.it.Text(name), symbols.Symbol{Name: name, Kind: symbols.EntityTemplate})
	return p.arena.Add(ast.Node{Kind: ast.KindTemplateAlias, Token: tok, Payload: ast.TemplateAlias{
		Params: params, Name: name, Target: target,
	}})
}

func (p *Parser) parseTemplateFunctionOrVariable(tok token.Token, params []ast.TemplateParameter) ast.Ref {
	p.sym.PushScope(symbols.ScopeFunction)
	for _, tp := range params {
		if tp.Kind == ast.TemplateParamType {
			p.sym.Current().Define(p.it.Text(tp.Name), symbols.Symbol{Name: tp.Name, Kind: symbols.EntityType})
		}
	}
	p.sym.Pop()

	inner := p.parseSimpleDeclaration(ast.AccessDefault, 0)
	if inner == ast.NoRef {
		return ast.NoRef
	}
	switch payload := p.arena.Get(inner).Payload.(type) {
	case ast.FunctionDeclaration:
		p.tmpl.DeclarePrimary(templates.Primary{Name: payload.Name, Kind: templates.KindFunction, Params: params, Decl: inner})
		return p.arena.Add(ast.Node{Kind: ast.KindTemplateFunctionDeclaration, Token: tok, Payload: ast.TemplateFunctionDeclaration{
			Params: params, Inner: inner,
		}})
	case ast.VariableDeclaration:
		p.tmpl.DeclarePrimary(templates.Primary{Name: payload.Name, Kind: templates.KindVariable, Params: params, Decl: inner})
		return p.arena.Add(ast.Node{Kind: ast.KindTemplateVariableDeclaration, Token: tok, Payload: ast.TemplateVariableDeclaration{
			Params: params, Inner: inner,
		}})
	}
	return inner
}

// --- variables and functions --------------------------------------------

// declSpecifiers accumulates the storage-class and function-specifier
// keywords that may precede a type-specifier (spec §4.2).
type declSpecifiers struct {
	isStatic, isExtern, isConstexpr, isConsteval bool
	isInline, isVirtual, isExplicit, isTypedef   bool
}

func (p *Parser) parseDeclSpecifiers() declSpecifiers {
	var d declSpecifiers
	for {
		switch p.curTok().Kind {
		case token.KW_STATIC:
			d.isStatic = true
		case token.KW_EXTERN:
			d.isExtern = true
		case token.KW_CONSTEXPR:
			d.isConstexpr = true
		case token.KW_CONSTEVAL:
			d.isConsteval = true
		case token.KW_INLINE:
			d.isInline = true
		case token.KW_VIRTUAL:
			d.isVirtual = true
		case token.KW_EXPLICIT:
			d.isExplicit = true
		case token.KW_MUTABLE:
			// Not separately modeled on VariableDeclaration; consumed so
			// layout parsing of the rest of the declarator proceeds.
		case token.KW_TYPEDEF:
			d.isTypedef = true
		default:
			return d
		}
		p.advance()
	}
}

// parseSimpleDeclaration parses one declaration-specifier-seq followed by
// a single declarator (spec §4.2): a variable, a function (with ctor/
// dtor/operator-name handling when className != 0), or a typedef.
func (p *Parser) parseSimpleDeclaration(access ast.AccessSpecifier, className intern.Handle) ast.Ref {
	tok := p.curTok()
	spec := p.parseDeclSpecifiers()

	linkage := ast.LinkageNone
	if len(p.linkage) > 0 {
		linkage = p.linkage[len(p.linkage)-1]
	}

	if spec.isTypedef {
		ty := p.parseTypeSpecifier()
		name := p.identNameHandle()
		p.advance()
		p.expect(token.SEMI)
		p.sym.Current().Define(p.it.Text(name), symbols.Symbol{Name: name, Kind: symbols.EntityType})
		return p.arena.Add(ast.Node{Kind: ast.KindTemplateAlias, Token: tok, Payload: ast.TemplateAlias{Name: name, Target: ty}})
	}

	// Constructor / destructor (only meaningful as a class member).
	if className != 0 {
		if p.curIs(token.IDENT) && p.it.Text(p.identNameHandle()) == p.it.Text(className) && p.peekIs(token.LPAREN) {
			p.advance() // consume the class-name token standing in for the constructor's name
			return p.parseFunctionRest(tok, className, className, nil, access, linkage, spec, true, false)
		}
		if p.curIs(token.TILDE) {
			p.advance()
			p.expect(token.IDENT) // destructor name, expected to repeat the class name
			return p.parseFunctionRest(tok, p.it.Intern("~"+p.it.Text(className)), className, nil, access, linkage, spec, false, true)
		}
	}

	if p.curIs(token.KW_OPERATOR) {
		opTok := p.curTok()
		p.advance()
		name := p.parseOperatorName()
		return p.parseFunctionRest(opTok, name, className, nil, access, linkage, spec, false, false)
	}

	if !startsTypeSpecifier(p.curTok().Kind) {
		p.addError(diagnostics.ErrP004InvalidDeclarator, diagnostics.PhaseParse, string(p.curTok().Kind))
		return ast.NoRef
	}

	ty := p.parseTypeSpecifier()
	if !p.curIs(token.IDENT) {
		// An elaborated type used purely to register a struct/enum without
		// a following declarator, e.g. `struct Foo;` already handled
		// elsewhere; here, a bare `int;` is a malformed declaration.
		p.expect(token.SEMI)
		return ast.NoRef
	}
	name := p.identNameHandle()
	p.advance()

	if p.curIs(token.LPAREN) {
		return p.parseFunctionRest(tok, name, className, &ty, access, linkage, spec, false, false)
	}

	return p.parseVariableRest(tok, name, ty, access, linkage, spec, className != 0)
}

// parseOperatorName consumes the operator-id following `operator` and
// interns a canonical spelling for it (spec §4.2's operator-function-id).
func (p *Parser) parseOperatorName() intern.Handle {
	switch {
	case p.curIs(token.LPAREN) && p.peekIs(token.RPAREN):
		p.advance()
		p.advance()
		return p.it.Intern("operator()")
	case p.curIs(token.LBRACKET) && p.peekIs(token.RBRACKET):
		p.advance()
		p.advance()
		return p.it.Intern("operator[]")
	case p.curIs(token.KW_NEW):
		p.advance()
		if p.curIs(token.LBRACKET) {
			p.advance()
			p.expect(token.RBRACKET)
			return p.it.Intern("operator new[]")
		}
		return p.it.Intern("operator new")
	case p.curIs(token.KW_DELETE):
		p.advance()
		if p.curIs(token.LBRACKET) {
			p.advance()
			p.expect(token.RBRACKET)
			return p.it.Intern("operator delete[]")
		}
		return p.it.Intern("operator delete")
	case startsTypeSpecifier(p.curTok().Kind):
		ty := p.parseTypeSpecifier()
		spec, _ := p.arena.Get(ty).Payload.(ast.TypeSpecifier)
		return p.it.Intern("operator " + p.it.Text(spec.Name))
	default:
		sym := string(p.curTok().Kind)
		p.advance()
		return p.it.Intern("operator" + sym)
	}
}

func (p *Parser) parseVariableRest(tok token.Token, name intern.Handle, ty ast.Ref, access ast.AccessSpecifier, linkage ast.LinkageKind, spec declSpecifiers, isMember bool) ast.Ref {
	if tnode := p.arena.Get(ty); tnode.Kind == ast.KindTypeSpecifier {
		tspec := tnode.Payload.(ast.TypeSpecifier)
		if p.curIs(token.LBRACKET) {
			p.parseArrayDims(&tspec)
			ty = p.arena.Add(ast.Node{Kind: ast.KindTypeSpecifier, Token: tnode.Token, Payload: tspec})
		}
	}

	var bitfield ast.Ref = ast.NoRef
	if isMember && p.curIs(token.COLON) {
		p.advance()
		bitfield = p.parseExpression(TERNARY_PREC)
	}

	var init ast.Ref = ast.NoRef
	switch {
	case p.curIs(token.ASSIGN):
		p.advance()
		init = p.parseExpression(ASSIGNMENT - 1)
	case p.curIs(token.LBRACE):
		init = p.parseBraceInit()
	}

	if p.curIs(token.COMMA) {
		p.addError(diagnostics.ErrP004InvalidDeclarator, diagnostics.PhaseParse, "multiple declarators in one declaration are not supported")
		for !p.curIs(token.SEMI) && !p.curIs(token.EOF) {
			p.advance()
		}
	}
	p.expect(token.SEMI)

	decl := ast.VariableDeclaration{
		Name: name, Type: ty, Init: init, Bitfield: bitfield,
		IsStatic: spec.isStatic, IsConst: false, IsConstexpr: spec.isConstexpr,
		Access: access, Linkage: linkage,
	}
	if tnode := p.arena.Get(ty); tnode.Kind == ast.KindTypeSpecifier {
		decl.IsConst = tnode.Payload.(ast.TypeSpecifier).CV == ast.CVConst || tnode.Payload.(ast.TypeSpecifier).CV == ast.CVConstVolatile
	}
	p.sym.Current().Define(p.it.Text(name), symbols.Symbol{Name: name, Kind: symbols.EntityVariable, Type: p.resolveSpecIndex(ty)})
	return p.arena.Add(ast.Node{Kind: ast.KindVariableDeclaration, Token: tok, Payload: decl})
}

func (p *Parser) parseFunctionParameterList() []ast.FunctionParameter {
	p.expect(token.LPAREN)
	var params []ast.FunctionParameter
	if p.curIs(token.KW_VOID) && p.peekIs(token.RPAREN) {
		p.advance()
		p.expect(token.RPAREN)
		return params
	}
	for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
		var param ast.FunctionParameter
		if p.curIs(token.ELLIPSIS) {
			param.IsPack = true
			p.advance()
			params = append(params, param)
			break
		}
		param.Type = p.parseTypeSpecifier()
		if p.curIs(token.ELLIPSIS) {
			param.IsPack = true
			p.advance()
		}
		if p.curIs(token.IDENT) {
			param.Name = p.identNameHandle()
			p.advance()
		}
		if p.curIs(token.ASSIGN) {
			p.advance()
			param.Default = p.parseExpression(ASSIGNMENT - 1)
		}
		params = append(params, param)
		if p.curIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RPAREN)
	return params
}

// parseFunctionRest parses everything after a function declarator's name
// (or, for constructors/operators, after the synthesized name): the
// parameter list, trailing qualifiers, optional body (parsed immediately
// at namespace scope, deferred via the delayed-body queue inside a class
// body), and registers the resulting overload.
func (p *Parser) parseFunctionRest(tok token.Token, name intern.Handle, className intern.Handle, returnType *ast.Ref, access ast.AccessSpecifier, linkage ast.LinkageKind, spec declSpecifiers, isCtor, isDtor bool) ast.Ref {
	params := p.parseFunctionParameterList()

	isConst := false
	for p.curIs(token.KW_CONST) {
		isConst = true
		p.advance()
	}
	refQual := ast.RefNone
	if p.curIs(token.AMP) {
		refQual = ast.RefLValue
		p.advance()
	} else if p.curIs(token.ANDAND) {
		refQual = ast.RefRValue
		p.advance()
	}
	_ = isConst
	_ = refQual

	isNoexcept := false
	var noexceptExpr ast.Ref = ast.NoRef
	if p.curIs(token.KW_NOEXCEPT) {
		isNoexcept = true
		p.advance()
		if p.curIs(token.LPAREN) {
			p.advance()
			noexceptExpr = p.parseExpression(LOWEST)
			p.expect(token.RPAREN)
		}
	}

	var trailingReturn ast.Ref = ast.NoRef
	if p.curIs(token.ARROW) {
		p.advance()
		trailingReturn = p.parseTypeSpecifier()
	}

	isOverride, isFinal := false, false
	for p.curIs(token.KW_OVERRIDE) || p.curIs(token.KW_FINAL) {
		if p.curIs(token.KW_OVERRIDE) {
			isOverride = true
		} else {
			isFinal = true
		}
		p.advance()
	}

	var requiresClause ast.Ref = ast.NoRef
	if p.curIs(token.KW_REQUIRES) {
		p.advance()
		requiresClause = p.parseExpression(LOGIC_OR)
	}

	isDeleted, isDefaulted, isPureVirtual := false, false, false
	var ctorInit []ast.CtorInitializer
	if isCtor && p.curIs(token.COLON) {
		p.advance()
		ctorInit = p.parseCtorInitList()
	}

	fnRef := ast.NoRef

	ret := ast.NoRef
	if returnType != nil {
		ret = *returnType
	}
	if trailingReturn != ast.NoRef {
		ret = trailingReturn
	}

	fn := ast.FunctionDeclaration{
		Name: name, Params: params, ReturnType: ret, Body: ast.NoRef,
		IsVirtual: spec.isVirtual, IsStatic: spec.isStatic, IsConstexpr: spec.isConstexpr,
		IsConsteval: spec.isConsteval, IsNoexcept: isNoexcept, NoexceptExpr: noexceptExpr,
		IsOverride: isOverride, IsFinal: isFinal, IsConstructor: isCtor, IsDestructor: isDtor,
		CtorInitList: ctorInit, Access: access, Linkage: linkage,
		TrailingReturn: trailingReturn, RequiresClause: requiresClause,
		MangledName: p.mangle(name, className, params),
	}

	switch {
	case p.curIs(token.ASSIGN):
		p.advance()
		if p.curIs(token.INT_LIT) {
			isPureVirtual = true
			p.advance()
		} else if p.curIs(token.IDENT) && p.literalText(p.curTok()) == "delete" {
			isDeleted = true
			p.advance()
		} else if p.curIs(token.IDENT) && p.literalText(p.curTok()) == "default" {
			isDefaulted = true
			p.advance()
		}
		p.expect(token.SEMI)
	case p.curIs(token.SEMI):
		p.advance()
	case p.curIs(token.LBRACE):
		fn.IsPureVirtual = isPureVirtual
		fn.IsDeleted = isDeleted
		fn.IsDefaulted = isDefaulted
		fnRef = p.arena.Add(ast.Node{Kind: ast.KindFunctionDeclaration, Token: tok, Payload: fn})
		if className != 0 {
			start, end := p.skipBraceBody()
			p.delayed = append(p.delayed, delayedBody{fnDecl: fnRef, tokStart: start, tokEnd: end, className: className})
		} else {
			body := p.parseFunctionBody(params)
			fn = p.arena.Get(fnRef).Payload.(ast.FunctionDeclaration)
			fn.Body = body
			p.arena.Set(fnRef, ast.Node{Kind: ast.KindFunctionDeclaration, Token: tok, Payload: fn})
		}
		p.defineFunctionOverload(name, fnRef)
		return fnRef
	default:
		p.expect(token.SEMI)
	}

	fn.IsPureVirtual = isPureVirtual
	fn.IsDeleted = isDeleted
	fn.IsDefaulted = isDefaulted
	fnRef = p.arena.Add(ast.Node{Kind: ast.KindFunctionDeclaration, Token: tok, Payload: fn})
	p.defineFunctionOverload(name, fnRef)
	return fnRef
}

func (p *Parser) defineFunctionOverload(name intern.Handle, ref ast.Ref) {
	p.sym.Current().DefineOverload(p.it.Text(name), name, ref)
}

// parseFunctionBody pushes a Function scope binding every parameter,
// parses the block, and pops back out — shared by free-function bodies
// (parsed immediately) and runDelayedBodies' re-entrant parse of a
// skipped member-function body.
func (p *Parser) parseFunctionBody(params []ast.FunctionParameter) ast.Ref {
	p.sym.PushScope(symbols.ScopeFunction)
	for _, prm := range params {
		if prm.Name != 0 {
			p.sym.Current().Define(p.it.Text(prm.Name), symbols.Symbol{Name: prm.Name, Kind: symbols.EntityVariable, Type: p.resolveSpecIndex(prm.Type)})
		}
	}
	body := p.parseBlockStatement()
	p.sym.Pop()
	return body
}

func (p *Parser) parseCtorInitList() []ast.CtorInitializer {
	var inits []ast.CtorInitializer
	for {
		name := p.it.Intern(p.parseQualifiedNameText())
		p.expect(token.LPAREN)
		var args []ast.Ref
		for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
			args = append(args, p.parseExpression(ASSIGNMENT-1))
			if p.curIs(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
		p.expect(token.RPAREN)
		inits = append(inits, ast.CtorInitializer{Member: name, Args: args})
		if p.curIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	return inits
}

// mangle produces a deterministic Itanium-flavored mangled name good
// enough to disambiguate overloads and instantiations (spec §4.6); it is
// not a conforming Itanium mangler.
func (p *Parser) mangle(name, className intern.Handle, params []ast.FunctionParameter) intern.Handle {
	s := "_Z"
	if className != 0 {
		cn := p.it.Text(className)
		s += "N" + itoa(len(cn)) + cn
	}
	nm := p.it.Text(name)
	s += itoa(len(nm)) + nm
	if className != 0 {
		s += "E"
	}
	if len(params) == 0 {
		s += "v"
	}
	for _, prm := range params {
		tn := "i"
		if tnode, ok := p.arena.Get(prm.Type).Payload.(ast.TypeSpecifier); ok {
			tn = p.it.Text(tnode.Name)
			if tn == "" {
				tn = "i"
			}
		}
		s += itoa(len(tn)) + tn
	}
	return p.it.Intern(s)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// --- delayed member-function bodies -------------------------------------

// skipBraceBody assumes the current token is the body's opening '{' and
// advances the raw cursor past the matching '}', recording the token
// range so runDelayedBodies can re-parse it once the enclosing class is
// complete (spec §4.2).
func (p *Parser) skipBraceBody() (start, end int) {
	start = p.cur.Mark()
	depth := 0
	for {
		t := p.cur.Current()
		switch t.Kind {
		case token.LBRACE:
			depth++
			p.cur.Advance()
		case token.RBRACE:
			depth--
			p.cur.Advance()
			if depth == 0 {
				end = p.cur.Mark()
				return start, end
			}
		case token.EOF:
			end = p.cur.Mark()
			return start, end
		default:
			p.cur.Advance()
		}
	}
}

// runDelayedBodies drains the FIFO of skipped member-function bodies,
// re-parsing each one against a sub-cursor over its recorded token range
// now that every member of its class is visible (spec §4.2: a member
// function body may reference any member of the class, declared before
// or after it).
func (p *Parser) runDelayedBodies() {
	for len(p.delayed) > 0 {
		d := p.delayed[0]
		p.delayed = p.delayed[1:]

		savedCur := p.cur
		p.cur = savedCur.Sub(d.tokStart, d.tokEnd)

		node := p.arena.Get(d.fnDecl)
		fn := node.Payload.(ast.FunctionDeclaration)

		p.sym.PushScope(symbols.ScopeFunction)
		for _, prm := range fn.Params {
			if prm.Name != 0 {
				p.sym.Current().Define(p.it.Text(prm.Name), symbols.Symbol{Name: prm.Name, Kind: symbols.EntityVariable, Type: p.resolveSpecIndex(prm.Type)})
			}
		}
		body := p.parseBlockStatement()
		p.sym.Pop()

		fn.Body = body
		p.arena.Set(d.fnDecl, ast.Node{Kind: ast.KindFunctionDeclaration, Token: node.Token, Payload: fn})

		p.cur = savedCur
	}
}
