package parser

import (
	"github.com/cxxfront/parser/internal/pipeline"
	"github.com/cxxfront/parser/internal/token"
)

// ParseStage is the pipeline.Processor that drains a translation unit's
// TokenStream and runs the Declaration/Expression/Type parsers over it,
// filling in tu.Root and tu.Errors. It is the first stage of any real
// pipeline.Pipeline — template instantiation and member-body deferral
// both happen inline during this same stage (see instantiate.go), since
// this front end resolves templates as soon as a concrete-argument use is
// parsed rather than in a separate later stage.
type ParseStage struct{}

// Process implements pipeline.Processor.
func (ParseStage) Process(tu *pipeline.TranslationUnit) error {
	tokens := drain(tu.Stream)
	p := New(tokens, tu.Interner, tu.Arena, tu.Symbols, tu.Templates, tu.Opts)
	tu.Root = p.ParseTranslationUnit()
	tu.Errors = append(tu.Errors, p.Errors()...)
	return nil
}

// drain pulls every token out of stream up to and including EOF.
func drain(stream pipeline.TokenStream) []token.Token {
	var toks []token.Token
	for {
		t := stream.Next()
		toks = append(toks, t)
		if t.Kind == token.EOF {
			return toks
		}
	}
}
