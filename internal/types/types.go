// Package types implements the Type Registry: an append-only vector of
// TypeInfo records addressed by integer type_index, per spec §3.
//
// Grounded on the teacher's internal/typesystem/types.go: the Type
// interface (String/Apply(Subst)/FreeTypeVariables) is the direct
// ancestor of Substitute below, with TCon/TApp/TRecord playing the role
// our Struct/Enum/Pointer/Array variants play here. What's new is the
// append-only registry itself (spec §3's "type_index must remain stable
// for the translation unit's lifetime"): the teacher holds Type values
// directly with no index layer, so Registry is a spec-mandated addition
// built in the teacher's general "slice + map" storage style (see
// symbols.SymbolTable.types in the teacher).
package types

import (
	"github.com/cxxfront/parser/internal/ast"
	"github.com/cxxfront/parser/internal/intern"
)

// Index identifies a TypeInfo inside a Registry. Indices are stable for
// the registry's lifetime; nothing is ever removed or renumbered.
type Index int

// Invalid marks "no type yet" (e.g. a dependent type awaiting
// instantiation).
const Invalid Index = -1

// Category tags the shape of a TypeInfo.
type Category int

const (
	CategoryBuiltin Category = iota
	CategoryPointer
	CategoryLValueRef
	CategoryRValueRef
	CategoryArray
	CategoryFunction
	CategoryStruct
	CategoryEnum
	CategoryPointerToMember
)

// TypeInfo is one entry of the registry.
type TypeInfo struct {
	Category Category
	Name     intern.Handle // empty for anonymous/structural types

	// Builtin
	BuiltinSizeBits int
	IsUnsigned      bool
	IsFloat         bool

	// Pointer / LValueRef / RValueRef / Array
	Elem      Index
	ArrayLen  int64 // -1 for an unbounded/incomplete array
	HasLen    bool

	// Function
	Func *FunctionTypeInfo

	// Struct / Enum detail, looked up by Detail index below when Category
	// is CategoryStruct or CategoryEnum.
	Detail int

	// PointerToMember
	MemberOf Index
	PointeeMember Index
}

// FunctionTypeInfo describes a function type's signature shape, shared
// between plain function types and function-pointer types.
type FunctionTypeInfo struct {
	Params     []Index
	ReturnType Index
	IsVariadic bool
}

// FieldInfo is one data member of a StructTypeInfo, carrying the layout
// facts the spec's constant evaluator and overload resolver both need.
type FieldInfo struct {
	Name       intern.Handle
	Type       Index
	OffsetBits int // -1 until layout is computed
	BitfieldWidth int // 0 when not a bit-field
	IsStatic   bool
}

// MethodInfo is one member-function overload declared directly on a
// struct, carrying enough of its resolved signature for the overload
// resolver to rank a call against it (spec §4.6's overload sets, §4.7's
// resolution over member calls).
type MethodInfo struct {
	Name        intern.Handle
	MangledName intern.Handle
	Decl        ast.Ref
	Params      []Index
}

// StructTypeInfo is the layout/member detail for a CategoryStruct entry.
type StructTypeInfo struct {
	Name        intern.Handle
	Bases       []Index // base class TypeInfo indices, in declaration order
	Fields      []FieldInfo
	Methods     []MethodInfo
	IsUnion     bool
	SizeBits    int // -1 until layout is computed
	AlignBits   int
	PackBits    int // 0 means "no explicit #pragma pack in effect"
	IsComplete  bool
}

// EnumeratorInfo is one enumerator of an EnumTypeInfo.
type EnumeratorInfo struct {
	Name  intern.Handle
	Value int64
}

// EnumTypeInfo is the detail for a CategoryEnum entry.
type EnumTypeInfo struct {
	Name           intern.Handle
	IsScoped       bool
	UnderlyingType Index
	Enumerators    []EnumeratorInfo
}

// Registry owns every TypeInfo produced while processing one translation
// unit, plus the struct/enum detail records they point into.
type Registry struct {
	infos   []TypeInfo
	structs []StructTypeInfo
	enums   []EnumTypeInfo
	byName  map[intern.Handle]Index

	// builtins caches the small set of canonical builtin TypeInfo indices
	// (spec §3's fixed built-in type table) so repeated lookups of `int`,
	// `bool`, etc. don't grow the registry.
	builtins map[string]Index
}

// NewRegistry creates a registry pre-populated with the builtin types
// named in spec §3 (void, bool, char variants, integer widths, float,
// double, long double, nullptr_t).
func NewRegistry(it *intern.Table) *Registry {
	r := &Registry{byName: make(map[intern.Handle]Index), builtins: make(map[string]Index)}
	r.seedBuiltins(it)
	return r
}

type builtinSpec struct {
	name     string
	bits     int
	unsigned bool
	float    bool
}

var builtinTable = []builtinSpec{
	{"void", 0, false, false},
	{"bool", 8, false, false},
	{"char", 8, false, false},
	{"signed char", 8, false, false},
	{"unsigned char", 8, true, false},
	{"short", 16, false, false},
	{"unsigned short", 16, true, false},
	{"int", 32, false, false},
	{"unsigned int", 32, true, false},
	{"long", 64, false, false},
	{"unsigned long", 64, true, false},
	{"long long", 64, false, false},
	{"unsigned long long", 64, true, false},
	{"float", 32, false, true},
	{"double", 64, false, true},
	{"long double", 128, false, true},
	{"nullptr_t", 64, false, false},
}

func (r *Registry) seedBuiltins(it *intern.Table) {
	for _, b := range builtinTable {
		idx := r.add(TypeInfo{
			Category:        CategoryBuiltin,
			Name:            it.Intern(b.name),
			BuiltinSizeBits: b.bits,
			IsUnsigned:      b.unsigned,
			IsFloat:         b.float,
		})
		r.builtins[b.name] = idx
	}
}

// Builtin looks up a canonical builtin TypeInfo index by its spelling
// (e.g. "unsigned int"); panics if name isn't one of spec §3's builtins —
// callers are expected to normalize signed/unsigned/long combinations
// before calling this.
func (r *Registry) Builtin(name string) Index {
	idx, ok := r.builtins[name]
	if !ok {
		panic("types: unknown builtin " + name)
	}
	return idx
}

func (r *Registry) add(info TypeInfo) Index {
	r.infos = append(r.infos, info)
	idx := Index(len(r.infos) - 1)
	if info.Name != 0 {
		if _, exists := r.byName[info.Name]; !exists {
			r.byName[info.Name] = idx
		}
	}
	return idx
}

// Get dereferences idx.
func (r *Registry) Get(idx Index) TypeInfo { return r.infos[idx] }

// Lookup finds a previously registered named type (struct/enum/typedef
// target), returning (Invalid, false) if unknown.
func (r *Registry) Lookup(name intern.Handle) (Index, bool) {
	idx, ok := r.byName[name]
	if !ok {
		return Invalid, false
	}
	return idx, true
}

// Pointer interns (or creates) the pointer-to-elem type, so that two
// parses of `T*` in the same translation unit share one TypeInfo —
// matching spec §3's requirement that type_index identity can be used
// for fast equality checks.
func (r *Registry) Pointer(elem Index) Index {
	return r.unaryCached(CategoryPointer, elem)
}

// LValueRef / RValueRef mirror Pointer for reference types.
func (r *Registry) LValueRef(elem Index) Index { return r.unaryCached(CategoryLValueRef, elem) }
func (r *Registry) RValueRef(elem Index) Index { return r.unaryCached(CategoryRValueRef, elem) }

func (r *Registry) unaryCached(cat Category, elem Index) Index {
	for i, info := range r.infos {
		if info.Category == cat && info.Elem == elem {
			return Index(i)
		}
	}
	return r.add(TypeInfo{Category: cat, Elem: elem})
}

// Array creates an array-of-elem type. Unlike Pointer/Ref, arrays are not
// de-duplicated across different bound expressions because ArrayLen may
// depend on a deferred constant evaluation (spec §4.5); each call site
// gets its own TypeInfo.
func (r *Registry) Array(elem Index, length int64, hasLen bool) Index {
	return r.add(TypeInfo{Category: CategoryArray, Elem: elem, ArrayLen: length, HasLen: hasLen})
}

// Function registers a function-type TypeInfo.
func (r *Registry) Function(params []Index, ret Index, variadic bool) Index {
	return r.add(TypeInfo{Category: CategoryFunction, Func: &FunctionTypeInfo{
		Params: params, ReturnType: ret, IsVariadic: variadic,
	}})
}

// DeclareStruct reserves a TypeInfo + StructTypeInfo pair for a
// forward-declared or being-parsed struct/class/union, returning its
// Index. The StructTypeInfo starts incomplete (spec §4.2: a class is
// incomplete within its own member-declaration list until the closing
// brace, per the "class is complete inside member function bodies"
// invariant which this registry enforces by flipping IsComplete only
// once CompleteStruct is called).
func (r *Registry) DeclareStruct(name intern.Handle, isUnion bool) Index {
	detailIdx := len(r.structs)
	r.structs = append(r.structs, StructTypeInfo{Name: name, IsUnion: isUnion, SizeBits: -1})
	return r.add(TypeInfo{Category: CategoryStruct, Name: name, Detail: detailIdx})
}

// StructDetail returns a pointer to the mutable StructTypeInfo behind idx
// so the parser can append fields/bases as it walks the member list.
func (r *Registry) StructDetail(idx Index) *StructTypeInfo {
	info := r.infos[idx]
	return &r.structs[info.Detail]
}

// CompleteStruct marks a struct's layout as finished, after every member
// has been appended and layout has been computed.
func (r *Registry) CompleteStruct(idx Index, sizeBits, alignBits int) {
	d := r.StructDetail(idx)
	d.SizeBits = sizeBits
	d.AlignBits = alignBits
	d.IsComplete = true
}

// DeclareEnum registers an enum type.
func (r *Registry) DeclareEnum(name intern.Handle, scoped bool, underlying Index) Index {
	detailIdx := len(r.enums)
	r.enums = append(r.enums, EnumTypeInfo{Name: name, IsScoped: scoped, UnderlyingType: underlying})
	return r.add(TypeInfo{Category: CategoryEnum, Name: name, Detail: detailIdx})
}

// EnumDetail returns the mutable EnumTypeInfo behind idx.
func (r *Registry) EnumDetail(idx Index) *EnumTypeInfo {
	info := r.infos[idx]
	return &r.enums[info.Detail]
}

// Len reports the number of registered TypeInfo entries.
func (r *Registry) Len() int { return len(r.infos) }

// Subst maps template-parameter names to the Index they're bound to
// during one instantiation (spec §4.5). It plays the role the teacher's
// typesystem.Subst plays for Hindley-Milner-style type variables.
type Subst map[intern.Handle]Index

// Substitute returns the TypeInfo index resulting from replacing every
// template-parameter occurrence inside a dependent TypeInfo with its
// binding in s. Non-dependent indices (no template parameter anywhere in
// their structure) are returned unchanged — mirroring the teacher's
// ApplyWithCycleCheck fast paths for already-concrete types.
//
// dependentName, when non-zero, names the template parameter that idx
// itself directly denotes (i.e. idx is a placeholder TypeInfo minted for
// a bare `T` occurrence); Substitute resolves it via a direct lookup in
// s rather than walking Pointer/Array/Function structure.
func (r *Registry) Substitute(idx Index, dependentName intern.Handle, s Subst) Index {
	if dependentName != 0 {
		if bound, ok := s[dependentName]; ok {
			return bound
		}
		return idx
	}
	info := r.Get(idx)
	switch info.Category {
	case CategoryPointer:
		return r.Pointer(r.Substitute(info.Elem, 0, s))
	case CategoryLValueRef:
		return r.LValueRef(r.Substitute(info.Elem, 0, s))
	case CategoryRValueRef:
		return r.RValueRef(r.Substitute(info.Elem, 0, s))
	case CategoryArray:
		return r.Array(r.Substitute(info.Elem, 0, s), info.ArrayLen, info.HasLen)
	case CategoryFunction:
		params := make([]Index, len(info.Func.Params))
		for i, p := range info.Func.Params {
			params[i] = r.Substitute(p, 0, s)
		}
		ret := r.Substitute(info.Func.ReturnType, 0, s)
		return r.Function(params, ret, info.Func.IsVariadic)
	default:
		// Builtins, completed structs and enums are never dependent by
		// themselves; a dependent class template argument is represented
		// by a placeholder TypeInfo with dependentName set at the call
		// site instead of reaching this branch.
		return idx
	}
}
