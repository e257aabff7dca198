// Package namespace implements the Namespace Registry: a DAG of
// namespace scopes supporting nesting, inline namespaces, anonymous
// namespaces, and using-directives/aliases (spec §3, §4.2).
//
// Grounded on the teacher's module-alias resolution in
// internal/symbols/symbol_table.go (moduleAliases map + qualified-name
// splitting) and internal/modules/loader.go's package-name resolution —
// the closest teacher analogue to resolving one name through a graph of
// named containers. The graph shape itself (parent pointer + using-edge
// list, rather than a flat alias map) is new, since C++ namespaces can
// reopen and directionally "using" each other in ways the teacher's
// single-level module-alias map never had to model.
package namespace

import (
	"github.com/google/uuid"

	"github.com/cxxfront/parser/internal/intern"
)

// ID identifies one namespace node in a Registry.
type ID int

// Global is the translation unit's implicit outermost namespace.
const Global ID = 0

// Node is one namespace in the DAG.
type Node struct {
	Name     intern.Handle // empty for anonymous namespaces
	Parent   ID
	Inline   bool
	Anonymous bool
	// LinkageTag is a process-unique identifier minted for an anonymous
	// namespace so two anonymous namespaces in different translation
	// units never collide when their symbols are later linked (spec
	// §4.2: "entities in an anonymous namespace have internal, but
	// unique, linkage"). Named namespaces leave this empty.
	LinkageTag string

	// Using holds the IDs of namespaces reached via a using-directive
	// inside this namespace (spec §4.2's unqualified-lookup fallthrough).
	Using []ID

	// Children maps a direct child name to its ID, so reopening
	// `namespace foo { ... }` a second time finds the existing node
	// instead of creating a duplicate (spec §4.2: "reopening a namespace
	// extends it, the two occurrences denote the same entity").
	Children map[string]ID
}

// Registry owns every namespace node produced while processing one
// translation unit.
type Registry struct {
	nodes []Node
	it    *intern.Table
}

// NewRegistry creates a registry containing only the Global namespace.
func NewRegistry(it *intern.Table) *Registry {
	r := &Registry{it: it}
	r.nodes = append(r.nodes, Node{Parent: Global, Children: make(map[string]ID)})
	return r
}

// Enter resolves (creating if necessary) the child namespace named name
// under parent. An empty name always creates a fresh anonymous namespace
// node with its own linkage tag, so two `namespace { }` blocks in the
// same enclosing scope become two distinct anonymous namespaces rather
// than one reopened entity.
func (r *Registry) Enter(parent ID, name string, inline bool) ID {
	if name == "" {
		return r.newAnonymous(parent, inline)
	}
	p := &r.nodes[parent]
	if existing, ok := p.Children[name]; ok {
		// Reopening: an `inline` qualifier on any occurrence makes the
		// whole namespace inline (spec §4.2).
		if inline {
			r.nodes[existing].Inline = true
		}
		return existing
	}
	id := ID(len(r.nodes))
	r.nodes = append(r.nodes, Node{
		Name:     r.it.Intern(name),
		Parent:   parent,
		Inline:   inline,
		Children: make(map[string]ID),
	})
	p.Children[name] = id
	return id
}

func (r *Registry) newAnonymous(parent ID, inline bool) ID {
	id := ID(len(r.nodes))
	r.nodes = append(r.nodes, Node{
		Parent:     parent,
		Inline:     inline,
		Anonymous:  true,
		LinkageTag: uuid.NewString(),
		Children:   make(map[string]ID),
	})
	// An anonymous namespace behaves as if followed by a using-directive
	// bringing its members into the enclosing scope (spec §4.2).
	r.nodes[parent].Using = append(r.nodes[parent].Using, id)
	return id
}

// AddUsingDirective records that names inside from are visible, via
// unqualified lookup, from within into.
func (r *Registry) AddUsingDirective(into, from ID) {
	r.nodes[into].Using = append(r.nodes[into].Using, from)
}

// Get dereferences id.
func (r *Registry) Get(id ID) Node { return r.nodes[id] }

// Parent returns id's enclosing namespace. Global's parent is itself.
func (r *Registry) Parent(id ID) ID {
	if id == Global {
		return Global
	}
	return r.nodes[id].Parent
}

// Path reconstructs the fully-qualified "A::B::C" spelling of id, for
// diagnostics and mangling. The global namespace's path is "".
func (r *Registry) Path(id ID) string {
	if id == Global {
		return ""
	}
	n := r.nodes[id]
	parentPath := r.Path(n.Parent)
	seg := r.it.Text(n.Name)
	if n.Anonymous {
		seg = "(anonymous namespace)"
	}
	if parentPath == "" {
		return seg
	}
	return parentPath + "::" + seg
}

// VisibleFrom enumerates every namespace ID reachable from id by
// following enclosing scopes outward plus using-directive edges at each
// level — the full search order unqualified name lookup must try (spec
// §4.2), without duplicates. The order is depth-first: id itself, then
// everything reachable through its using-edges, then its parent (which
// repeats the same walk outward).
func (r *Registry) VisibleFrom(id ID) []ID {
	seen := map[ID]bool{}
	var order []ID
	var walk func(ID)
	walk = func(cur ID) {
		if seen[cur] {
			return
		}
		seen[cur] = true
		order = append(order, cur)
		for _, u := range r.nodes[cur].Using {
			walk(u)
		}
		if cur != Global {
			walk(r.nodes[cur].Parent)
		}
	}
	walk(id)
	return order
}
