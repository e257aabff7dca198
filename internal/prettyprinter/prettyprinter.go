// Package prettyprinter renders the parsed Arena, Type Registry, and
// Symbol Table into a human-readable debug dump, the way cmd/cxxfront
// -dump-ast is expected to behave.
//
// Grounded on the teacher's general CLI-output conventions (cmd/funxy's
// driver prints diagnostics/results directly to stdout with no templating
// engine); struct sizes are rendered with dustin/go-humanize.Bytes rather
// than a bare byte count, the same "format raw numbers for a human
// reader" role go-humanize plays for modernc.org/sqlite's own error
// messages in the teacher's dependency graph.
package prettyprinter

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/cxxfront/parser/internal/ast"
	"github.com/cxxfront/parser/internal/intern"
	"github.com/cxxfront/parser/internal/types"
)

// Printer renders debug dumps against one translation unit's arena,
// interner, and type registry.
type Printer struct {
	Arena    *ast.Arena
	Interner *intern.Table
	Types    *types.Registry
	w        io.Writer
}

// New creates a Printer writing to w.
func New(w io.Writer, arena *ast.Arena, it *intern.Table, typeReg *types.Registry) *Printer {
	return &Printer{Arena: arena, Interner: it, Types: typeReg, w: w}
}

// DumpNode writes a one-line, indented description of ref and recurses
// into the children of translation units, namespaces, structs,
// functions, blocks, ifs, binary operators and static_asserts, mirroring
// a typical `-ast-dump` tool. Children of other node kinds are not
// printed.
func (p *Printer) DumpNode(ref ast.Ref, depth int) {
	if ref == ast.NoRef {
		return
	}
	node := p.Arena.Get(ref)
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(p.w, "%s%s @%s\n", indent, node.Kind, node.Token.Pos)

	switch payload := node.Payload.(type) {
	case ast.TranslationUnit:
		for _, d := range payload.Declarations {
			p.DumpNode(d, depth+1)
		}
	case ast.NamespaceDeclaration:
		for _, m := range payload.Members {
			p.DumpNode(m, depth+1)
		}
	case ast.StructDeclaration:
		fmt.Fprintf(p.w, "%s  name=%s\n", indent, p.Interner.Text(payload.Name))
		for _, m := range payload.Members {
			p.DumpNode(m, depth+1)
		}
	case ast.FunctionDeclaration:
		fmt.Fprintf(p.w, "%s  name=%s params=%d\n", indent, p.Interner.Text(payload.Name), len(payload.Params))
		p.DumpNode(payload.Body, depth+1)
	case ast.Block:
		for _, s := range payload.Statements {
			p.DumpNode(s, depth+1)
		}
	case ast.If:
		p.DumpNode(payload.Cond, depth+1)
		p.DumpNode(payload.Then, depth+1)
		p.DumpNode(payload.Else, depth+1)
	case ast.BinaryOp:
		p.DumpNode(payload.Left, depth+1)
		p.DumpNode(payload.Right, depth+1)
	case ast.StaticAssertDeclaration:
		fmt.Fprintf(p.w, "%s  deferred=%v\n", indent, payload.Deferred)
		p.DumpNode(payload.Cond, depth+1)
	}
}

// DumpTypeTable writes one line per registered TypeInfo, with struct
// and builtin sizes humanized into byte counts a reviewer can read at a
// glance.
func (p *Printer) DumpTypeTable() {
	for i := 0; i < p.Types.Len(); i++ {
		idx := types.Index(i)
		info := p.Types.Get(idx)
		name := p.Interner.Text(info.Name)
		if name == "" {
			name = "<anonymous>"
		}
		switch info.Category {
		case types.CategoryStruct:
			detail := p.Types.StructDetail(idx)
			sizeStr := "incomplete"
			if detail.IsComplete {
				sizeStr = humanize.Bytes(uint64(detail.SizeBits / 8))
			}
			fmt.Fprintf(p.w, "#%d struct %s size=%s fields=%d\n", i, name, sizeStr, len(detail.Fields))
		case types.CategoryEnum:
			detail := p.Types.EnumDetail(idx)
			fmt.Fprintf(p.w, "#%d enum %s enumerators=%d\n", i, name, len(detail.Enumerators))
		case types.CategoryBuiltin:
			fmt.Fprintf(p.w, "#%d builtin %s (%s)\n", i, name, humanize.Bytes(uint64(info.BuiltinSizeBits/8)))
		default:
			fmt.Fprintf(p.w, "#%d %v\n", i, info.Category)
		}
	}
}
