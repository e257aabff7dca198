package parser_test

import (
	"strings"
	"testing"

	"github.com/cxxfront/parser/internal/ast"
	"github.com/cxxfront/parser/internal/config"
	"github.com/cxxfront/parser/internal/intern"
	"github.com/cxxfront/parser/internal/lexer"
	"github.com/cxxfront/parser/internal/parser"
	"github.com/cxxfront/parser/internal/pipeline"
	"github.com/cxxfront/parser/internal/symbols"
	"github.com/cxxfront/parser/internal/templates"
)

func runSource(t *testing.T, src string) *pipeline.TranslationUnit {
	t.Helper()
	it := intern.New()
	lex := lexer.New(src, it, 0)
	arena := ast.NewArena()
	symTable := symbols.NewTable(it)
	tu := &pipeline.TranslationUnit{
		FilePath:  "test.cpp",
		Stream:    lex,
		Opts:      config.Default(),
		Interner:  it,
		Arena:     arena,
		Symbols:   symTable,
		Templates: templates.NewRegistry(symTable.Types, it),
	}
	if err := pipeline.New(parser.ParseStage{}).Run(tu); err != nil {
		t.Fatalf("pipeline error: %s", err)
	}
	return tu
}

func errorMessages(tu *pipeline.TranslationUnit) []string {
	var out []string
	for _, e := range tu.Errors {
		out = append(out, e.Error())
	}
	return out
}

func TestStaticAssertPassesSilently(t *testing.T) {
	tu := runSource(t, `static_assert(1 + 1 == 2, "math still works");`)
	if len(tu.Errors) != 0 {
		t.Fatalf("expected no errors, got: %v", errorMessages(tu))
	}
}

func TestStaticAssertFailureReportsDiagnostic(t *testing.T) {
	tu := runSource(t, `static_assert(1 == 2, "oops");`)
	if len(tu.Errors) == 0 {
		t.Fatal("expected a diagnostic for a failing static_assert, got none")
	}
	found := false
	for _, msg := range errorMessages(tu) {
		if strings.Contains(msg, "static_assert failed") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a static_assert failed diagnostic, got: %v", errorMessages(tu))
	}
}

func TestStaticAssertDeferredInsideStructBody(t *testing.T) {
	tu := runSource(t, `struct S { static_assert(1 == 2, "deferred"); };`)
	if len(tu.Errors) != 0 {
		t.Fatalf("a static_assert inside a struct body should be deferred, not reported; got: %v", errorMessages(tu))
	}
}

func TestStaticAssertDeferredInsideTemplate(t *testing.T) {
	tu := runSource(t, `template<typename T> void f() { static_assert(1 == 2, "deferred"); }`)
	if len(tu.Errors) != 0 {
		t.Fatalf("a static_assert inside a template should be deferred, not reported; got: %v", errorMessages(tu))
	}
}

func TestStaticAssertOverEnumeratorConstant(t *testing.T) {
	tu := runSource(t, `enum Color { Red = 4, Green, Blue }; static_assert(Green == 5, "enumerators auto-increment");`)
	if len(tu.Errors) != 0 {
		t.Fatalf("expected no errors resolving an enumerator constant, got: %v", errorMessages(tu))
	}
}

func TestStaticAssertOverEnumeratorConstantFails(t *testing.T) {
	tu := runSource(t, `enum Color { Red = 4, Green, Blue }; static_assert(Green == 99, "wrong");`)
	found := false
	for _, msg := range errorMessages(tu) {
		if strings.Contains(msg, "static_assert failed") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a static_assert failed diagnostic, got: %v", errorMessages(tu))
	}
}
