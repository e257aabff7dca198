// Package templates implements the Template Registry: primary templates,
// their partial specializations, and an instantiation cache keyed by
// (template handle, argument fingerprint), plus the Lazy Instantiation
// Registry that tracks each instantiation's progress through
// Declaration < Layout < Full (spec §4.5, §8).
//
// Grounded on the teacher's internal/typesystem/unify.go Unify/
// unifyInternal (the specialization-matching logic here is the same
// "try to unify, fall back to the next candidate" shape as the teacher's
// TApp partial-application unification) and internal/typesystem/types.go
// ApplyWithCycleCheck (the substitution walker types.Registry.Substitute
// already implements is driven from here exactly the way the teacher's
// Type.Apply(Subst) is driven from its own callers).
package templates

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/cxxfront/parser/internal/ast"
	"github.com/cxxfront/parser/internal/diagnostics"
	"github.com/cxxfront/parser/internal/intern"
	"github.com/cxxfront/parser/internal/token"
	"github.com/cxxfront/parser/internal/types"
)

// Progress tracks how far one instantiation has been materialized, per
// spec §4.5's lazy/deferred member instantiation rule: only the parts of
// a class template actually used get instantiated, in this order.
type Progress int

const (
	ProgressDeclaration Progress = iota // the shell exists, layout unknown
	ProgressLayout                      // data members laid out, size/align known
	ProgressFull                        // every member function body instantiated
)

// Kind distinguishes which of the three template categories an entry is.
type Kind int

const (
	KindFunction Kind = iota
	KindClass
	KindVariable
)

// Primary is one primary-template declaration (the unspecialized form).
type Primary struct {
	Name   intern.Handle
	Kind   Kind
	Params []ast.TemplateParameter
	Decl   ast.Ref
}

// Specialization is one partial (or full) specialization of a primary
// template, matched against instantiation arguments before falling back
// to the primary (spec §4.5).
type Specialization struct {
	// Pattern holds the specialization's own template parameter list
	// (possibly empty, for a full specialization) together with the
	// argument TypeSpecifier pattern it matches against, e.g.
	// `template<typename T> Foo<T*>` has Params=[T] and Pattern=[T*].
	Params  []ast.TemplateParameter
	Pattern []ast.Ref // TypeSpecifier nodes, one per primary template parameter
	Decl    ast.Ref
}

// Instantiation is one cached instantiation result.
type Instantiation struct {
	Progress    Progress
	Decl        ast.Ref   // the instantiated FunctionDeclaration/StructDeclaration/VariableDeclaration
	TypeIndex   types.Index // for class templates, once ProgressLayout is reached
	MangledName intern.Handle
}

// Registry owns every template declared, and caches every instantiation
// performed, while processing one translation unit.
type Registry struct {
	types *types.Registry
	it    *intern.Table

	primaries       map[intern.Handle]*Primary
	specializations map[intern.Handle][]*Specialization

	// cache maps "templateName#fingerprint" to its Instantiation. The
	// fingerprint is a sha256 digest of the canonicalized argument list
	// (see Fingerprint) truncated to 16 hex digits, matching spec §4.5's
	// mangled-name convention.
	cache map[string]*Instantiation

	// depth tracks the current recursive instantiation nesting, to catch
	// runaway recursive templates (spec §4.5, §8) against
	// CompileOptions.MaxTemplateDepth at the call site.
	depth int

	// pending is the FIFO of class-template member bodies deferred until
	// the enclosing instantiation's layout is known — the template
	// analogue of the parser's delayed-body queue (spec §4.2, §4.5).
	pending []PendingMember

	// keyNames recovers a cache key's template name, since cacheKey embeds
	// only the numeric intern.Handle. Populated alongside every Store, and
	// consulted only by Snapshot (internal/instcache's persistence path).
	keyNames map[string]intern.Handle
}

// PendingMember is one member-function body whose instantiation was
// deferred because it wasn't needed to compute the class's layout.
type PendingMember struct {
	InstantiationKey string
	Member           ast.Ref
}

// NewRegistry creates an empty template registry bound to typeReg for
// type-index substitution.
func NewRegistry(typeReg *types.Registry, it *intern.Table) *Registry {
	return &Registry{
		types:           typeReg,
		it:              it,
		primaries:       make(map[intern.Handle]*Primary),
		specializations: make(map[intern.Handle][]*Specialization),
		cache:           make(map[string]*Instantiation),
		keyNames:        make(map[string]intern.Handle),
	}
}

// DeclarePrimary registers (or, on a redeclaration, returns the existing)
// primary template.
func (r *Registry) DeclarePrimary(p Primary) *Primary {
	if existing, ok := r.primaries[p.Name]; ok {
		return existing
	}
	cp := p
	r.primaries[p.Name] = &cp
	return &cp
}

// Primary looks up a declared primary template by name.
func (r *Registry) Primary(name intern.Handle) (*Primary, bool) {
	p, ok := r.primaries[name]
	return p, ok
}

// AddSpecialization registers a partial (or full) specialization of an
// already-declared primary template.
func (r *Registry) AddSpecialization(primaryName intern.Handle, spec Specialization) {
	r.specializations[primaryName] = append(r.specializations[primaryName], &spec)
}

// Specializations returns every specialization registered for name, in
// declaration order (most-recently-declared last; callers select the
// most-specialized match themselves, per spec §4.5's partial-ordering
// requirement).
func (r *Registry) Specializations(name intern.Handle) []*Specialization {
	return r.specializations[name]
}

// Fingerprint canonicalizes an argument list (type names plus non-type
// argument literal text, in order) into a 16-hex-digit digest used as the
// cache key and as the basis for MangledName (spec §4.5).
func Fingerprint(it *intern.Table, typeReg *types.Registry, args []types.Index, nonTypeArgs []string) string {
	var b strings.Builder
	for _, a := range args {
		info := typeReg.Get(a)
		fmt.Fprintf(&b, "T%d:%s|", info.Category, it.Text(info.Name))
	}
	for _, nt := range nonTypeArgs {
		fmt.Fprintf(&b, "N:%s|", nt)
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])[:16]
}

// cacheKey joins a template name with its instantiation fingerprint.
func cacheKey(name intern.Handle, fp string) string {
	return fmt.Sprintf("%d#%s", name, fp)
}

// Lookup returns a previously cached instantiation, if present.
func (r *Registry) Lookup(name intern.Handle, fp string) (*Instantiation, bool) {
	inst, ok := r.cache[cacheKey(name, fp)]
	return inst, ok
}

// Store records a new (or updated) instantiation in the cache.
// Re-storing under the same key with a higher Progress is the normal way
// lazy instantiation advances a cache entry from Declaration to Layout to
// Full; storing a strictly lower Progress than what's cached is a
// programming error.
func (r *Registry) Store(name intern.Handle, fp string, inst Instantiation) error {
	key := cacheKey(name, fp)
	if existing, ok := r.cache[key]; ok && inst.Progress < existing.Progress {
		return fmt.Errorf("templates: regressive instantiation progress for %s (%v after %v)", key, inst.Progress, existing.Progress)
	}
	r.cache[key] = &inst
	r.keyNames[key] = name
	return nil
}

// SnapshotEntry is one cached instantiation resolved back to its
// template's textual name, for handing to a persistent store.
type SnapshotEntry struct {
	TemplateName string
	Fingerprint  string
	Progress     Progress
	MangledName  string
}

// Snapshot returns every instantiation currently cached, resolved through
// it for the template name and mangled name text. Used by cmd/cxxfront to
// persist the run's instantiations via internal/instcache.
func (r *Registry) Snapshot(it *intern.Table) []SnapshotEntry {
	out := make([]SnapshotEntry, 0, len(r.cache))
	for key, inst := range r.cache {
		name, fp, ok := splitCacheKey(key)
		if !ok {
			continue
		}
		nameHandle, ok := r.keyNames[key]
		if !ok {
			nameHandle = name
		}
		out = append(out, SnapshotEntry{
			TemplateName: it.Text(nameHandle),
			Fingerprint:  fp,
			Progress:     inst.Progress,
			MangledName:  it.Text(inst.MangledName),
		})
	}
	return out
}

// splitCacheKey recovers the "name#fingerprint" halves cacheKey joined;
// name is returned as its raw numeric handle (callers resolve text via
// keyNames, since intern.Handle alone round-trips from the key's digits).
func splitCacheKey(key string) (intern.Handle, string, bool) {
	idx := strings.IndexByte(key, '#')
	if idx < 0 {
		return 0, "", false
	}
	var n int
	if _, err := fmt.Sscanf(key[:idx], "%d", &n); err != nil {
		return 0, "", false
	}
	return intern.Handle(n), key[idx+1:], true
}

// EnterInstantiation increments the recursion depth and reports whether
// maxDepth was exceeded (spec §4.5/§8); callers must pair this with
// LeaveInstantiation.
func (r *Registry) EnterInstantiation(maxDepth int, tok token.Token, name string) *diagnostics.DiagnosticError {
	r.depth++
	if r.depth > maxDepth {
		return diagnostics.New(diagnostics.ErrT002InstantiationDepthExceeded, diagnostics.PhaseTemplate, tok, name)
	}
	return nil
}

// LeaveInstantiation balances a prior EnterInstantiation.
func (r *Registry) LeaveInstantiation() {
	if r.depth > 0 {
		r.depth--
	}
}

// DeferMember queues a member-function body for later instantiation
// (spec §4.5's lazy instantiation: only members actually odr-used get
// their bodies instantiated).
func (r *Registry) DeferMember(key string, member ast.Ref) {
	r.pending = append(r.pending, PendingMember{InstantiationKey: key, Member: member})
}

// DrainPending removes and returns every deferred member queued so far,
// in FIFO order, clearing the queue. The caller (internal/parser's
// template-instantiation driver) is responsible for actually
// instantiating each one.
func (r *Registry) DrainPending() []PendingMember {
	out := r.pending
	r.pending = nil
	return out
}

// SortedPrimaryNames returns every declared primary template name sorted
// by its interned handle, for deterministic iteration in diagnostics and
// tests.
func (r *Registry) SortedPrimaryNames() []intern.Handle {
	names := maps.Keys(r.primaries)
	slices.Sort(names)
	return names
}
