// Package config holds the translation-unit-wide constants and
// compile-time options spec §3/§6 describe: name-mangling style, target
// data-model widths, the default #pragma pack, and source-file
// conventions.
//
// Grounded on the teacher's internal/config/constants.go (a flat package
// of named consts grouped by concern) and internal/config/operators.go
// (a single AllOperators table feeding both lexer and parser) — the same
// "one source of truth table" shape is reused below for BuiltinSizes. The
// operator precedence table lives in internal/parser, not here.
package config

// SourceFileExtensions lists the file suffixes the driver recognizes as
// C++ translation units.
var SourceFileExtensions = []string{".cpp", ".cc", ".cxx", ".hpp", ".hh", ".h"}

// LongModel names the width of `long` relative to `int`/`long long`,
// since it differs between platform ABIs (spec §6).
type LongModel int

const (
	LP64 LongModel = iota // long == 64 bits (Linux/macOS LP64)
	LLP64                 // long == 32 bits (Windows LLP64)
)

// ManglingStyle names a name-mangling scheme. CompileOptions.Mangling is
// not read anywhere: mangled names are built the same way for either
// value.
type ManglingStyle int

const (
	ManglingItanium ManglingStyle = iota // the Itanium C++ ABI scheme (GCC/Clang)
	ManglingMSVC                          // MSVC's scheme
)

// CompileOptions bundles every target/ABI decision the parser's semantic
// actions need (layout computation, mangling, default pack) — the
// C++-front-end analogue of the teacher's single global config package.
type CompileOptions struct {
	Mangling          ManglingStyle
	TargetPointerBits int
	TargetLongModel   LongModel
	DefaultPack       int // 0 means natural alignment, no #pragma pack in effect
	// DebugBreakLine names a source line for a debugging stop. The parser
	// does not read it: setting it has no effect on parsing, and no panic
	// or trap is raised at that line.
	DebugBreakLine int
	// MaxTemplateDepth bounds recursive instantiation (spec §4.5).
	MaxTemplateDepth int
	// MaxParserRecursionDepth bounds recursive-descent call depth (spec
	// §8's boundary case "recursion depth 256").
	MaxParserRecursionDepth int
}

// Default returns the options used when the driver is given no explicit
// target flags: LP64, Itanium mangling, 64-bit pointers, natural
// alignment.
func Default() CompileOptions {
	return CompileOptions{
		Mangling:                ManglingItanium,
		TargetPointerBits:       64,
		TargetLongModel:         LP64,
		DefaultPack:             0,
		MaxTemplateDepth:        1024,
		MaxParserRecursionDepth: 256,
	}
}

// BuiltinSize describes one entry of the builtin-type size/alignment
// table used by struct layout computation.
type BuiltinSize struct {
	Name      string
	Bits      int
	AlignBits int
}

// BuiltinSizes is the LP64 builtin width table; LLP64 only changes
// `long`, handled by callers consulting opts.TargetLongModel.
var BuiltinSizes = []BuiltinSize{
	{"void", 0, 0},
	{"bool", 8, 8},
	{"char", 8, 8},
	{"short", 16, 16},
	{"int", 32, 32},
	{"long", 64, 64},
	{"long long", 64, 64},
	{"float", 32, 32},
	{"double", 64, 64},
	{"long double", 128, 128},
}

// PointerBits returns the width of a pointer/reference for opts' target.
func (o CompileOptions) PointerBits() int { return o.TargetPointerBits }

// LongBits returns the width of `long` under opts' target long model.
func (o CompileOptions) LongBits() int {
	if o.TargetLongModel == LLP64 {
		return 32
	}
	return 64
}
