// Package diagnostics implements the error taxonomy spec §7 requires:
// an ErrorCode enum, a Phase the error was raised in, and a
// DiagnosticError renderer — no exceptions-as-control-flow, errors are
// values returned up the call stack like everything else in Go.
//
// Grounded on the teacher's internal/diagnostics/diagnostics.go:
// Phase/ErrorCode enums, an errorTemplates map keyed by ErrorCode, and
// DiagnosticError{Code,Phase,Args,Token,File,Hint} rendering
// "file: [phase] error at line:col [CODE]: message" are kept verbatim in
// shape; the code table itself is replaced with spec §7's C++-front-end
// taxonomy (lexical/parse/template/constant-eval/overload phases instead
// of the teacher's lex/parse/analyze/runtime phases).
package diagnostics

import (
	"fmt"
	"strings"

	"github.com/cxxfront/parser/internal/token"
)

// Phase names which pipeline stage raised an error.
type Phase int

const (
	PhaseLex Phase = iota
	PhaseParse
	PhaseTemplate
	PhaseConstEval
	PhaseOverload
	PhaseSema
)

func (p Phase) String() string {
	switch p {
	case PhaseLex:
		return "lex"
	case PhaseParse:
		return "parse"
	case PhaseTemplate:
		return "template"
	case PhaseConstEval:
		return "consteval"
	case PhaseOverload:
		return "overload"
	case PhaseSema:
		return "sema"
	default:
		return "?"
	}
}

// ErrorCode identifies one diagnosable condition.
type ErrorCode int

const (
	// Lexical / token-stream
	ErrL001UnexpectedToken ErrorCode = iota
	ErrL002UnterminatedConstruct

	// Parse-phase structural errors
	ErrP001ExpectedToken
	ErrP002NoPrefixParseFn
	ErrP003UnbalancedAngleBrackets
	ErrP004InvalidDeclarator
	ErrP005RecursionLimitExceeded
	ErrP006DelayedBodyNeverClosed

	// Template instantiation
	ErrT001NoMatchingSpecialization
	ErrT002InstantiationDepthExceeded
	ErrT003SubstitutionFailure
	ErrT004AmbiguousPartialSpecialization

	// Constant-expression evaluation
	ErrC001NotAConstantExpression
	ErrC002DivisionByZero
	ErrC003OverflowInConstantExpression
	ErrC004StaticAssertFailed

	// Overload resolution
	ErrO001NoViableOverload
	ErrO002AmbiguousCall

	// Semantic / name lookup
	ErrS001UndeclaredIdentifier
	ErrS002Redefinition
	ErrS003IncompleteType
)

var errorTemplates = map[ErrorCode]string{
	ErrL001UnexpectedToken:               "unexpected token %s",
	ErrL002UnterminatedConstruct:         "unterminated %s",
	ErrP001ExpectedToken:                 "expected %s, got %s",
	ErrP002NoPrefixParseFn:               "no prefix parse function for %s",
	ErrP003UnbalancedAngleBrackets:       "unbalanced angle brackets in %s",
	ErrP004InvalidDeclarator:             "invalid declarator: %s",
	ErrP005RecursionLimitExceeded:        "recursion limit exceeded while parsing %s",
	ErrP006DelayedBodyNeverClosed:        "delayed member body for %s was never closed",
	ErrT001NoMatchingSpecialization:      "no matching specialization of %s for the given template arguments",
	ErrT002InstantiationDepthExceeded:    "template instantiation depth exceeded while instantiating %s",
	ErrT003SubstitutionFailure:           "substitution failure in %s",
	ErrT004AmbiguousPartialSpecialization: "ambiguous partial specialization of %s",
	ErrC001NotAConstantExpression:        "expression is not a constant expression: %s",
	ErrC002DivisionByZero:                "division by zero in constant expression",
	ErrC003OverflowInConstantExpression:  "overflow in constant expression evaluating %s",
	ErrC004StaticAssertFailed:            "static_assert failed: %s",
	ErrO001NoViableOverload:              "no viable overload for call to %s",
	ErrO002AmbiguousCall:                 "ambiguous call to %s",
	ErrS001UndeclaredIdentifier:          "use of undeclared identifier %s",
	ErrS002Redefinition:                  "redefinition of %s",
	ErrS003IncompleteType:                "incomplete type %s used where a complete type is required",
}

// DiagnosticError is the one error type every phase returns.
type DiagnosticError struct {
	Code  ErrorCode
	Phase Phase
	Args  []interface{}
	Token token.Token
	File  string
	Hint  string
}

func (e *DiagnosticError) Error() string {
	tmpl, ok := errorTemplates[e.Code]
	if !ok {
		tmpl = "unknown diagnostic"
	}
	msg := fmt.Sprintf(tmpl, e.Args...)
	var b strings.Builder
	if e.File != "" {
		fmt.Fprintf(&b, "%s: ", e.File)
	}
	fmt.Fprintf(&b, "[%s] error at %s [E%04d]: %s", e.Phase, e.Token.Pos, int(e.Code), msg)
	if e.Hint != "" {
		fmt.Fprintf(&b, " (%s)", e.Hint)
	}
	return b.String()
}

// New builds a DiagnosticError at tok.
func New(code ErrorCode, phase Phase, tok token.Token, args ...interface{}) *DiagnosticError {
	return &DiagnosticError{Code: code, Phase: phase, Args: args, Token: tok}
}

// WithHint attaches a short remediation hint, mirroring the teacher's
// builder-style error annotation.
func (e *DiagnosticError) WithHint(hint string) *DiagnosticError {
	e.Hint = hint
	return e
}

// WithFile attaches the originating file path.
func (e *DiagnosticError) WithFile(file string) *DiagnosticError {
	e.File = file
	return e
}
