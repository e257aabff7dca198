// Package symbols implements the Symbol Table: a scope tree covering
// Global/Namespace/Class/Function/Block scopes, with unqualified and
// qualified name lookup through the namespace DAG and using-directives
// (spec §3, §4.2).
//
// Grounded on the teacher's internal/symbols/symbol_table.go: the
// store map[string]Symbol / outer *SymbolTable scope-chain shape is kept
// verbatim as the core of Scope below, and the teacher's many
// special-purpose registries (traitMethods, extensionMethods,
// genericTypeParams, ...) are the template this package's using-
// declaration and overload-set registries follow — one small map per
// concern, no single catch-all structure.
package symbols

import (
	"github.com/cxxfront/parser/internal/ast"
	"github.com/cxxfront/parser/internal/intern"
	"github.com/cxxfront/parser/internal/namespace"
	"github.com/cxxfront/parser/internal/types"
)

// ScopeKind tags what kind of C++ scope a Scope node represents (spec
// §3, §4.2).
type ScopeKind int

const (
	ScopeGlobal ScopeKind = iota
	ScopeNamespace
	ScopeClass
	ScopeFunction
	ScopeBlock
)

// EntityKind distinguishes what a Symbol denotes.
type EntityKind int

const (
	EntityVariable EntityKind = iota
	EntityFunction
	EntityType // struct/class/enum/typedef/using-alias target
	EntityTemplate
	EntityNamespaceAlias
	EntityEnumerator
	EntityConcept
)

// Symbol is one bound name. Mirrors the teacher's Symbol struct
// (Name/Type/Kind/IsPending) with OriginModule generalized to
// OriginNamespace and UnderlyingType kept for typedef/using-alias
// resolution.
type Symbol struct {
	Name            intern.Handle
	Kind            EntityKind
	Type            types.Index
	Decl            ast.Ref
	IsPending       bool // forward-declared, not yet defined
	UnderlyingType  types.Index // for EntityType aliases: the aliased type
	OriginNamespace namespace.ID
	// Overloads holds every FunctionDeclaration Ref sharing this name in
	// this scope, for EntityFunction symbols (spec §4.6 overload sets).
	Overloads []ast.Ref
}

// IsTypeAlias reports whether s is a using/typedef alias rather than the
// type's own definition (teacher: Symbol.IsTypeAlias).
func (s Symbol) IsTypeAlias() bool {
	return s.Kind == EntityType && s.UnderlyingType != types.Invalid
}

// Scope is one node of the lexical scope chain (teacher: SymbolTable's
// store+outer pair, generalized with an explicit Kind and a link to the
// owning namespace for qualified lookup).
type Scope struct {
	Kind      ScopeKind
	Outer     *Scope
	Namespace namespace.ID // meaningful for ScopeNamespace and ScopeGlobal
	store     map[string]*Symbol

	// UsingDeclarations brings a single qualified name into this scope
	// under a possibly different local name (spec §4.2 using-declaration,
	// as opposed to using-directive which namespace.Registry already
	// models as a graph edge).
	UsingDeclarations map[string]QualifiedRef
}

// QualifiedRef names a symbol by its fully-qualified path, for using-
// declarations resolved lazily against the namespace registry.
type QualifiedRef struct {
	Namespace namespace.ID
	Name      string
}

// NewGlobalScope creates the outermost scope, tied to namespace.Global.
func NewGlobalScope() *Scope {
	return &Scope{
		Kind:              ScopeGlobal,
		Namespace:         namespace.Global,
		store:             make(map[string]*Symbol),
		UsingDeclarations: make(map[string]QualifiedRef),
	}
}

// NewChild opens a nested scope of kind k. Namespace scopes need the
// namespace.ID they correspond to; Class/Function/Block scopes don't own
// a namespace node, and Table.PushScope passes them the enclosing
// namespace's ID, which Lookup does not consult for those kinds (lookup
// falls through to the nearest enclosing namespace scope).
func (s *Scope) NewChild(k ScopeKind, ns namespace.ID) *Scope {
	return &Scope{
		Kind:              k,
		Outer:             s,
		Namespace:         ns,
		store:             make(map[string]*Symbol),
		UsingDeclarations: make(map[string]QualifiedRef),
	}
}

// Define binds name in this scope, returning false if name is already
// bound here (a redeclaration the caller must turn into a diagnostic,
// unless it is an overload — see DefineOverload).
func (s *Scope) Define(name string, sym Symbol) bool {
	if _, exists := s.store[name]; exists {
		return false
	}
	cp := sym
	s.store[name] = &cp
	return true
}

// DefineOverload adds decl to name's overload set in this scope,
// creating an EntityFunction Symbol if name is not yet bound, or
// appending to Overloads if it already denotes a function (spec §4.6:
// multiple declarations of the same name with different parameter lists
// coexist as one overload set per scope).
func (s *Scope) DefineOverload(name string, nameHandle intern.Handle, decl ast.Ref) *Symbol {
	if existing, ok := s.store[name]; ok && existing.Kind == EntityFunction {
		existing.Overloads = append(existing.Overloads, decl)
		return existing
	}
	sym := &Symbol{Name: nameHandle, Kind: EntityFunction, Decl: decl, Overloads: []ast.Ref{decl}}
	s.store[name] = sym
	return sym
}

// LookupLocal finds name bound directly in this scope, without
// consulting Outer.
func (s *Scope) LookupLocal(name string) (*Symbol, bool) {
	sym, ok := s.store[name]
	return sym, ok
}

// Lookup performs unqualified name lookup (spec §4.2): the block/
// function/class scope chain is searched innermost-out first; once the
// search reaches a namespace scope, namespace.Registry.VisibleFrom
// extends it across using-directives. nsReg is consulted only at that
// point, so block-scope lookups that never leave the function don't pay
// for it.
func (s *Scope) Lookup(name string, nsReg *namespace.Registry, nsScopes map[namespace.ID]*Scope) (*Symbol, bool) {
	for cur := s; cur != nil; cur = cur.Outer {
		if sym, ok := cur.store[name]; ok {
			return sym, true
		}
		if cur.Kind == ScopeNamespace || cur.Kind == ScopeGlobal {
			for _, visible := range nsReg.VisibleFrom(cur.Namespace) {
				if visible == cur.Namespace {
					continue
				}
				if nsScope, ok := nsScopes[visible]; ok {
					if sym, ok := nsScope.store[name]; ok {
						return sym, true
					}
				}
			}
			// Namespace scopes have no further Outer walk beyond Global;
			// stop here rather than falling through to cur.Outer again
			// with the enclosing *lexical* scope, since spec §4.2 treats
			// namespace nesting purely through the namespace DAG.
			break
		}
	}
	return nil, false
}

// Table is the parser-facing façade bundling the active scope chain with
// the registries it must consult.
type Table struct {
	Types      *types.Registry
	Namespaces *namespace.Registry
	Global     *Scope

	// nsScopes maps each namespace ID to the Scope that holds its
	// members, so Scope.Lookup can cross into sibling/using namespaces.
	nsScopes map[namespace.ID]*Scope

	current *Scope
}

// NewTable creates a fresh symbol table wired to new Types/Namespaces
// registries.
func NewTable(it *intern.Table) *Table {
	typeReg := types.NewRegistry(it)
	nsReg := namespace.NewRegistry(it)
	global := NewGlobalScope()
	t := &Table{
		Types:      typeReg,
		Namespaces: nsReg,
		Global:     global,
		nsScopes:   map[namespace.ID]*Scope{namespace.Global: global},
		current:    global,
	}
	return t
}

// Current returns the innermost active scope.
func (t *Table) Current() *Scope { return t.current }

// PushNamespace enters (creating if new) the namespace named name under
// the current namespace scope, pushing its Scope as current.
func (t *Table) PushNamespace(name string, inline bool) namespace.ID {
	parentNS := t.enclosingNamespace()
	id := t.Namespaces.Enter(parentNS, name, inline)
	scope, ok := t.nsScopes[id]
	if !ok {
		scope = t.current.NewChild(ScopeNamespace, id)
		t.nsScopes[id] = scope
	}
	t.current = scope
	return id
}

// PushScope enters a new Class/Function/Block scope under current.
func (t *Table) PushScope(k ScopeKind) *Scope {
	child := t.current.NewChild(k, t.enclosingNamespace())
	t.current = child
	return child
}

// Pop leaves the current scope, returning to its Outer. Popping the
// global scope is a programming error.
func (t *Table) Pop() {
	if t.current.Outer == nil {
		panic("symbols: attempted to pop the global scope")
	}
	t.current = t.current.Outer
}

func (t *Table) enclosingNamespace() namespace.ID {
	for cur := t.current; cur != nil; cur = cur.Outer {
		if cur.Kind == ScopeNamespace || cur.Kind == ScopeGlobal {
			return cur.Namespace
		}
	}
	return namespace.Global
}

// Lookup resolves name from the current scope outward, per spec §4.2.
func (t *Table) Lookup(name string) (*Symbol, bool) {
	return t.current.Lookup(name, t.Namespaces, t.nsScopes)
}
