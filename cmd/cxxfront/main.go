// Command cxxfront is the thin CLI driver over internal/pipeline: it reads
// one or more C++ translation units, lexes and parses each through
// internal/lexer and internal/parser.ParseStage, and prints either the
// accumulated diagnostics or an AST/type-table dump.
//
// Grounded on the teacher's cmd/funxy/main.go: no flag package, os.Args
// inspected directly by a chain of handleX() dispatchers tried in turn from
// main, panics recovered and reported as "Internal error" unless DEBUG=1.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/cxxfront/parser/internal/ast"
	"github.com/cxxfront/parser/internal/config"
	"github.com/cxxfront/parser/internal/instcache"
	"github.com/cxxfront/parser/internal/intern"
	"github.com/cxxfront/parser/internal/lexer"
	"github.com/cxxfront/parser/internal/parser"
	"github.com/cxxfront/parser/internal/pipeline"
	"github.com/cxxfront/parser/internal/prettyprinter"
	"github.com/cxxfront/parser/internal/symbols"
	"github.com/cxxfront/parser/internal/templates"
)

func isSourceFile(path string) bool {
	for _, ext := range config.SourceFileExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

func handleHelp() bool {
	if len(os.Args) < 2 {
		return false
	}
	if os.Args[1] != "-help" && os.Args[1] != "--help" && os.Args[1] != "help" {
		return false
	}
	fmt.Println("usage: cxxfront [-dump-ast] [-dump-types] [-cache=path] <file.cpp> [file2.cpp ...]")
	fmt.Println()
	fmt.Println("Parses each translation unit and reports diagnostics on stderr.")
	fmt.Println("-dump-ast writes an indented AST dump to stdout per file.")
	fmt.Println("-dump-types writes the resolved type table to stdout per file.")
	return true
}

// processFile runs one source file through the lex/parse pipeline and
// returns whether it parsed with zero diagnostics. When cache is non-nil,
// every instantiation performed is recorded into it (an audit trail of
// instantiation work across runs; since ast.Ref/types.Index are only
// meaningful within one run's Arena, this does not skip re-instantiating
// on a later run — see internal/instcache's doc comment).
func processFile(path string, dumpAST, dumpTypes bool, cache *instcache.Store) bool {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %s\n", path, err)
		return false
	}

	// Build the interner first and hand it to both the lexer and the
	// translation unit's symbol/template registries, so identifier handles
	// the lexer minted line up with the ones the parser's semantic actions
	// look up later. NewTranslationUnit mints its own interner when given
	// none of this context, which is why the wiring is done by hand here
	// rather than through that constructor.
	it := intern.New()
	lex := lexer.New(string(source), it, 0)
	arena := ast.NewArena()
	symTable := symbols.NewTable(it)
	tu := &pipeline.TranslationUnit{
		FilePath:  path,
		Stream:    lex,
		Opts:      config.Default(),
		Interner:  it,
		Arena:     arena,
		Symbols:   symTable,
		Templates: templates.NewRegistry(symTable.Types, it),
	}

	proc := pipeline.New(parser.ParseStage{})
	if err := proc.Run(tu); err != nil {
		fmt.Fprintf(os.Stderr, "%s: pipeline error: %s\n", path, err)
		return false
	}

	for _, derr := range tu.Errors {
		fmt.Fprintf(os.Stderr, "%s\n", derr.Error())
	}

	if dumpAST {
		printer := prettyprinter.New(os.Stdout, tu.Arena, tu.Interner, tu.Symbols.Types)
		printer.DumpNode(tu.Root, 0)
	}
	if dumpTypes {
		printer := prettyprinter.New(os.Stdout, tu.Arena, tu.Interner, tu.Symbols.Types)
		printer.DumpTypeTable()
	}

	if cache != nil {
		for _, entry := range tu.Templates.Snapshot(tu.Interner) {
			if err := cache.Put(instcache.Entry{
				TemplateName: entry.TemplateName,
				Fingerprint:  entry.Fingerprint,
				Progress:     int(entry.Progress),
				MangledName:  entry.MangledName,
			}); err != nil {
				fmt.Fprintf(os.Stderr, "%s: %s\n", path, err)
			}
		}
	}

	return len(tu.Errors) == 0
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r)
			}
			fmt.Fprintf(os.Stderr, "Internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "This is a bug. Please report it.")
			os.Exit(1)
		}
	}()

	if handleHelp() {
		return
	}

	var dumpAST, dumpTypes bool
	var cachePath string
	var files []string
	for i := 1; i < len(os.Args); i++ {
		arg := os.Args[i]
		switch {
		case arg == "-dump-ast":
			dumpAST = true
		case arg == "-dump-types":
			dumpTypes = true
		case strings.HasPrefix(arg, "-cache="):
			cachePath = strings.TrimPrefix(arg, "-cache=")
		case strings.HasPrefix(arg, "-"):
			continue
		default:
			files = append(files, arg)
		}
	}

	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "usage: cxxfront [-dump-ast] [-dump-types] [-cache=path] <file.cpp> [file2.cpp ...]")
		os.Exit(1)
	}

	var cache *instcache.Store
	if cachePath != "" {
		c, err := instcache.Open(cachePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err)
			os.Exit(1)
		}
		defer c.Close()
		cache = c
	}

	ok := true
	for _, f := range files {
		if !isSourceFile(f) {
			fmt.Fprintf(os.Stderr, "%s: not a recognized C++ source extension\n", f)
			ok = false
			continue
		}
		if !processFile(f, dumpAST, dumpTypes, cache) {
			ok = false
		}
	}

	if !ok {
		os.Exit(1)
	}
}
