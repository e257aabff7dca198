// Overload resolution wiring: routes free-function and member-function
// calls with more than one declared overload through internal/overload's
// Resolve, per spec §4.6/§4.7. A callee with exactly one declaration
// never needs resolution and is left alone, matching how the rest of
// this front end only pays for machinery a construct actually uses.
//
// Grounded on internal/overload's own Candidate/Resolve contract and on
// this file's sibling instantiate.go for the "resolve argument types,
// then drive a registry lookup, then report a diagnostic on failure"
// shape every call-resolution path in this parser follows.
package parser

import (
	"github.com/cxxfront/parser/internal/ast"
	"github.com/cxxfront/parser/internal/diagnostics"
	"github.com/cxxfront/parser/internal/intern"
	"github.com/cxxfront/parser/internal/overload"
	"github.com/cxxfront/parser/internal/symbols"
	"github.com/cxxfront/parser/internal/token"
	"github.com/cxxfront/parser/internal/types"
)

// argTypes resolves each call argument to its static type via
// inferArgType, for feeding to overload.Resolve.
func (p *Parser) argTypes(args []ast.Ref) []types.Index {
	out := make([]types.Index, len(args))
	for i, a := range args {
		out[i] = p.inferArgType(a)
	}
	return out
}

// resolveFreeOverload resolves a call to name (an EntityFunction symbol)
// against args when the symbol has more than one declared overload,
// reporting ErrO001NoViableOverload/ErrO002AmbiguousCall on failure. It
// returns NoRef when resolution isn't attempted (fewer than two
// overloads) or a type couldn't be inferred for one of the arguments.
func (p *Parser) resolveFreeOverload(tok token.Token, calleeName intern.Handle, overloads []ast.Ref, args []ast.Ref) ast.Ref {
	if len(overloads) < 2 {
		return ast.NoRef
	}
	candidates := make([]overload.Candidate, 0, len(overloads))
	for _, decl := range overloads {
		fn, ok := p.arena.Get(decl).Payload.(ast.FunctionDeclaration)
		if !ok {
			continue
		}
		candidates = append(candidates, p.functionCandidate(decl, fn))
	}
	return p.runOverloadResolution(tok, calleeName, candidates, args)
}

// resolveMemberOverload resolves a call to method on an object of struct
// type structIdx against args, when the struct declares more than one
// overload of that name.
func (p *Parser) resolveMemberOverload(tok token.Token, structIdx types.Index, method intern.Handle, args []ast.Ref) ast.Ref {
	info := p.sym.Types.Get(structIdx)
	if info.Category != types.CategoryStruct {
		return ast.NoRef
	}
	detail := p.sym.Types.StructDetail(structIdx)
	var matching []types.MethodInfo
	for _, m := range detail.Methods {
		if m.Name == method {
			matching = append(matching, m)
		}
	}
	if len(matching) < 2 {
		return ast.NoRef
	}
	candidates := make([]overload.Candidate, 0, len(matching))
	for _, m := range matching {
		candidates = append(candidates, overload.Candidate{Decl: m.Decl, Params: m.Params})
	}
	return p.runOverloadResolution(tok, method, candidates, args)
}

// functionCandidate builds an overload.Candidate for fn. Candidates built
// here always come from concretely declared overloads (symbols.Overloads
// and struct Methods never hold an uninstantiated function template, those
// live in the separate templates.Registry), so IsForwardingTemplate is
// always false: there is no bare-T&& forwarding parameter to mark since T
// doesn't exist on a non-template declaration.
func (p *Parser) functionCandidate(decl ast.Ref, fn ast.FunctionDeclaration) overload.Candidate {
	params := make([]types.Index, len(fn.Params))
	for i, prm := range fn.Params {
		params[i] = p.resolveSpecIndex(prm.Type)
	}
	return overload.Candidate{Decl: decl, Params: params}
}

// resolveMemberCallOverload infers object's static type (following one
// pointer indirection for `obj->method()`) and, if it names a struct,
// resolves a multi-overload call to method against it.
func (p *Parser) resolveMemberCallOverload(tok token.Token, object ast.Ref, arrow bool, method intern.Handle, args []ast.Ref) ast.Ref {
	objType := p.inferArgType(object)
	if objType == types.Invalid {
		return ast.NoRef
	}
	if arrow {
		if info := p.sym.Types.Get(objType); info.Category == types.CategoryPointer {
			objType = info.Elem
		}
	}
	return p.resolveMemberOverload(tok, objType, method, args)
}

// resolveOperatorOverload resolves an infix operator expression (`a op b`)
// to one of an `operatorOP`-named function's declared overloads, when one
// has actually been declared with that spelling (spec §4.4's operator-
// function-id grammar feeds the same DefineOverload path an ordinary
// named function does, so this is resolveFreeOverload driven from the
// synthesized "operator+"-style name instead of a written callee
// identifier). Returns ast.NoRef for any built-in operator use with no
// user-declared operator function of that name in scope.
func (p *Parser) resolveOperatorOverload(tok token.Token, op token.Kind, args []ast.Ref) ast.Ref {
	opName := p.it.Intern("operator" + string(op))
	sym, ok := p.sym.Lookup(p.it.Text(opName))
	if !ok || sym.Kind != symbols.EntityFunction {
		return ast.NoRef
	}
	return p.resolveFreeOverload(tok, opName, sym.Overloads, args)
}

// runOverloadResolution calls overload.Resolve over candidates for args
// and reports the appropriate diagnostic when resolution doesn't yield
// exactly one winner.
func (p *Parser) runOverloadResolution(tok token.Token, name intern.Handle, candidates []overload.Candidate, args []ast.Ref) ast.Ref {
	res := overload.Resolve(p.sym.Types, candidates, p.argTypes(args))
	if res.Ambiguous {
		p.errors = append(p.errors, diagnostics.New(diagnostics.ErrO002AmbiguousCall, diagnostics.PhaseOverload, tok, p.it.Text(name)))
		return ast.NoRef
	}
	if res.Best == nil {
		p.errors = append(p.errors, diagnostics.New(diagnostics.ErrO001NoViableOverload, diagnostics.PhaseOverload, tok, p.it.Text(name)))
		return ast.NoRef
	}
	return res.Best.Decl
}
