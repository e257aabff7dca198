// Package pipeline wires together the token stream, arena, type/symbol/
// namespace registries and diagnostics list into one TranslationUnit
// context, and runs the ordered list of Processors over it.
//
// Grounded on the teacher's internal/pipeline/{interfaces,context,
// pipeline}.go: the Processor interface, the TokenStream interface
// (Next/Peek), and the single PipelineContext struct threading every
// shared registry through the run are kept as-is in shape; the fields
// inside PipelineContext are swapped for this front-end's own registries
// (ast.Arena, types.Registry, symbols.Table, namespace.Registry in place
// of the teacher's AstRoot/SymbolTable/TypeMap/TraitImplementations).
package pipeline

import (
	"github.com/cxxfront/parser/internal/ast"
	"github.com/cxxfront/parser/internal/config"
	"github.com/cxxfront/parser/internal/diagnostics"
	"github.com/cxxfront/parser/internal/intern"
	"github.com/cxxfront/parser/internal/symbols"
	"github.com/cxxfront/parser/internal/templates"
	"github.com/cxxfront/parser/internal/token"
	"github.com/cxxfront/parser/internal/types"
)

// TokenStream is the contract the lexer/preprocessor must satisfy; the
// parser only ever Peeks and Nexts, never mutates the source.
type TokenStream interface {
	Next() token.Token
	Peek(n int) token.Token
}

// Processor is one stage of the pipeline (parse, template-instantiate,
// const-eval-pending-statics, ...).
type Processor interface {
	Process(tu *TranslationUnit) error
}

// TranslationUnit bundles everything a single C++ source file's
// processing needs, shared across every Processor stage.
type TranslationUnit struct {
	FilePath string
	Stream   TokenStream
	Opts     config.CompileOptions

	Interner  *intern.Table
	Arena     *ast.Arena
	Symbols   *symbols.Table
	Templates *templates.Registry

	Root ast.Ref // the TranslationUnit node once parsing completes

	Errors []*diagnostics.DiagnosticError
}

// NewTranslationUnit wires up a fresh Arena/Symbols/Templates set for one
// file, ready for the first pipeline stage to consume.
func NewTranslationUnit(filePath string, stream TokenStream, opts config.CompileOptions) *TranslationUnit {
	it := intern.New()
	arena := ast.NewArena()
	symTable := symbols.NewTable(it)
	return &TranslationUnit{
		FilePath:  filePath,
		Stream:    stream,
		Opts:      opts,
		Interner:  it,
		Arena:     arena,
		Symbols:   symTable,
		Templates: templates.NewRegistry(symTable.Types, it),
	}
}

// AddError records a diagnostic without aborting the run; the pipeline
// keeps processing so a single source file can report more than one
// error per invocation, matching spec §7's non-fatal diagnostic model.
func (tu *TranslationUnit) AddError(err *diagnostics.DiagnosticError) {
	tu.Errors = append(tu.Errors, err)
}

// OK reports whether the translation unit accumulated no errors.
func (tu *TranslationUnit) OK() bool { return len(tu.Errors) == 0 }

// Pipeline runs an ordered list of Processors over one TranslationUnit,
// stopping at the first stage that returns a non-nil error (a pipeline-
// fatal condition, as opposed to a recorded diagnostic).
type Pipeline struct {
	stages []Processor
}

// New builds a Pipeline from stages, run in order.
func New(stages ...Processor) *Pipeline {
	return &Pipeline{stages: stages}
}

// Run executes every stage in order against tu.
func (p *Pipeline) Run(tu *TranslationUnit) error {
	for _, stage := range p.stages {
		if err := stage.Process(tu); err != nil {
			return err
		}
	}
	return nil
}
