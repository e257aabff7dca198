// Package token defines the lexical token vocabulary consumed by the parser.
//
// Per spec, the lexer/preprocessor is an external collaborator: tokens
// arrive already preprocessed, with macros expanded and #include resolved.
// This package only describes the contract tokens must satisfy.
package token

import (
	"fmt"

	"github.com/cxxfront/parser/internal/intern"
)

// Kind identifies the lexical category of a Token.
type Kind string

// Position locates a token in the original source.
type Position struct {
	File   int // index into the translation unit's file table (for #line bookkeeping)
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token is an immutable tagged record. The parser never rewrites tokens.
type Token struct {
	Kind   Kind
	Lexeme intern.Handle // interned lexeme
	Pos    Position

	// Literal carries the decoded value for literal tokens: int64, float64,
	// *big.Int, string (for string/char literals), or nil otherwise.
	Literal interface{}
}

func (t Token) String() string {
	return fmt.Sprintf("%s %s '%v'", t.Pos, t.Kind, t.Literal)
}

const (
	ILLEGAL Kind = "ILLEGAL"
	EOF     Kind = "EOF"

	// Identifiers and literals.
	IDENT       Kind = "IDENT"
	INT_LIT     Kind = "INT_LIT"
	FLOAT_LIT   Kind = "FLOAT_LIT"
	CHAR_LIT    Kind = "CHAR_LIT"
	STRING_LIT  Kind = "STRING_LIT"

	// Punctuators.
	LBRACE    Kind = "{"
	RBRACE    Kind = "}"
	LPAREN    Kind = "("
	RPAREN    Kind = ")"
	LBRACKET  Kind = "["
	RBRACKET  Kind = "]"
	SEMI      Kind = ";"
	COLON     Kind = ":"
	COLONCOLON Kind = "::"
	COMMA     Kind = ","
	DOT       Kind = "."
	DOTSTAR   Kind = ".*"
	ARROW     Kind = "->"
	ARROWSTAR Kind = "->*"
	ELLIPSIS  Kind = "..."
	QUESTION  Kind = "?"

	ASSIGN      Kind = "="
	PLUS        Kind = "+"
	MINUS       Kind = "-"
	STAR        Kind = "*"
	SLASH       Kind = "/"
	PERCENT     Kind = "%"
	AMP         Kind = "&"
	PIPE        Kind = "|"
	CARET       Kind = "^"
	TILDE       Kind = "~"
	BANG        Kind = "!"
	LT          Kind = "<"
	GT          Kind = ">"
	LE          Kind = "<="
	GE          Kind = ">="
	EQ          Kind = "=="
	NE          Kind = "!="
	ANDAND      Kind = "&&"
	OROR        Kind = "||"
	SHL         Kind = "<<"
	SHR         Kind = ">>"
	SPACESHIP   Kind = "<=>"
	INCR        Kind = "++"
	DECR        Kind = "--"

	PLUS_ASSIGN    Kind = "+="
	MINUS_ASSIGN   Kind = "-="
	STAR_ASSIGN    Kind = "*="
	SLASH_ASSIGN   Kind = "/="
	PERCENT_ASSIGN Kind = "%="
	AMP_ASSIGN     Kind = "&="
	PIPE_ASSIGN    Kind = "|="
	CARET_ASSIGN   Kind = "^="
	SHL_ASSIGN     Kind = "<<="
	SHR_ASSIGN     Kind = ">>="

	HASH Kind = "#" // routed to the pragma state machine

	// Keywords.
	KW_NAMESPACE   Kind = "namespace"
	KW_INLINE      Kind = "inline"
	KW_USING       Kind = "using"
	KW_TEMPLATE    Kind = "template"
	KW_TYPENAME    Kind = "typename"
	KW_CLASS       Kind = "class"
	KW_STRUCT      Kind = "struct"
	KW_UNION       Kind = "union"
	KW_ENUM        Kind = "enum"
	KW_PUBLIC      Kind = "public"
	KW_PRIVATE     Kind = "private"
	KW_PROTECTED   Kind = "protected"
	KW_VIRTUAL     Kind = "virtual"
	KW_OVERRIDE    Kind = "override"
	KW_FINAL       Kind = "final"
	KW_FRIEND      Kind = "friend"
	KW_STATIC      Kind = "static"
	KW_EXTERN      Kind = "extern"
	KW_CONST       Kind = "const"
	KW_VOLATILE    Kind = "volatile"
	KW_CONSTEXPR   Kind = "constexpr"
	KW_CONSTEVAL   Kind = "consteval"
	KW_CONCEPT     Kind = "concept"
	KW_REQUIRES    Kind = "requires"
	KW_TYPEDEF     Kind = "typedef"
	KW_STATIC_ASSERT Kind = "static_assert"
	KW_AUTO        Kind = "auto"
	KW_DECLTYPE    Kind = "decltype"
	KW_VOID        Kind = "void"
	KW_BOOL        Kind = "bool"
	KW_CHAR        Kind = "char"
	KW_INT         Kind = "int"
	KW_LONG        Kind = "long"
	KW_SHORT       Kind = "short"
	KW_SIGNED      Kind = "signed"
	KW_UNSIGNED    Kind = "unsigned"
	KW_FLOAT       Kind = "float"
	KW_DOUBLE      Kind = "double"
	KW_TRUE        Kind = "true"
	KW_FALSE       Kind = "false"
	KW_NULLPTR     Kind = "nullptr"
	KW_IF          Kind = "if"
	KW_ELSE        Kind = "else"
	KW_FOR         Kind = "for"
	KW_WHILE       Kind = "while"
	KW_DO          Kind = "do"
	KW_SWITCH      Kind = "switch"
	KW_CASE        Kind = "case"
	KW_DEFAULT     Kind = "default"
	KW_BREAK       Kind = "break"
	KW_CONTINUE    Kind = "continue"
	KW_RETURN      Kind = "return"
	KW_GOTO        Kind = "goto"
	KW_TRY         Kind = "try"
	KW_CATCH       Kind = "catch"
	KW_THROW       Kind = "throw"
	KW_NEW         Kind = "new"
	KW_DELETE      Kind = "delete"
	KW_SIZEOF      Kind = "sizeof"
	KW_ALIGNOF     Kind = "alignof"
	KW_ALIGNAS     Kind = "alignas"
	KW_TYPEID      Kind = "typeid"
	KW_NOEXCEPT    Kind = "noexcept"
	KW_STATIC_CAST Kind = "static_cast"
	KW_DYNAMIC_CAST Kind = "dynamic_cast"
	KW_CONST_CAST  Kind = "const_cast"
	KW_REINTERPRET_CAST Kind = "reinterpret_cast"
	KW_OPERATOR    Kind = "operator"
	KW_EXPLICIT    Kind = "explicit"
	KW_MUTABLE     Kind = "mutable"
	KW_THIS        Kind = "this"
	KW_PACKAGE     Kind = "package" // non-standard; reserved, unused by grammar below
)

var keywords = map[string]Kind{
	"namespace": KW_NAMESPACE, "inline": KW_INLINE, "using": KW_USING,
	"template": KW_TEMPLATE, "typename": KW_TYPENAME, "class": KW_CLASS,
	"struct": KW_STRUCT, "union": KW_UNION, "enum": KW_ENUM,
	"public": KW_PUBLIC, "private": KW_PRIVATE, "protected": KW_PROTECTED,
	"virtual": KW_VIRTUAL, "override": KW_OVERRIDE, "final": KW_FINAL,
	"friend": KW_FRIEND, "static": KW_STATIC, "extern": KW_EXTERN,
	"const": KW_CONST, "volatile": KW_VOLATILE, "constexpr": KW_CONSTEXPR, "consteval": KW_CONSTEVAL,
	"concept": KW_CONCEPT, "requires": KW_REQUIRES, "typedef": KW_TYPEDEF,
	"static_assert": KW_STATIC_ASSERT,
	"auto": KW_AUTO, "decltype": KW_DECLTYPE, "void": KW_VOID, "bool": KW_BOOL,
	"char": KW_CHAR, "int": KW_INT, "long": KW_LONG, "short": KW_SHORT,
	"signed": KW_SIGNED, "unsigned": KW_UNSIGNED, "float": KW_FLOAT,
	"double": KW_DOUBLE, "true": KW_TRUE, "false": KW_FALSE,
	"nullptr": KW_NULLPTR, "if": KW_IF, "else": KW_ELSE, "for": KW_FOR,
	"while": KW_WHILE, "do": KW_DO, "switch": KW_SWITCH, "case": KW_CASE,
	"default": KW_DEFAULT, "break": KW_BREAK, "continue": KW_CONTINUE,
	"return": KW_RETURN, "goto": KW_GOTO, "try": KW_TRY, "catch": KW_CATCH,
	"throw": KW_THROW, "new": KW_NEW, "delete": KW_DELETE, "sizeof": KW_SIZEOF,
	"alignof": KW_ALIGNOF, "alignas": KW_ALIGNAS, "typeid": KW_TYPEID,
	"noexcept": KW_NOEXCEPT, "static_cast": KW_STATIC_CAST,
	"dynamic_cast": KW_DYNAMIC_CAST, "const_cast": KW_CONST_CAST,
	"reinterpret_cast": KW_REINTERPRET_CAST, "operator": KW_OPERATOR,
	"explicit": KW_EXPLICIT, "mutable": KW_MUTABLE, "this": KW_THIS,
}

// LookupIdent classifies an identifier lexeme as a keyword or a plain IDENT.
func LookupIdent(ident string) Kind {
	if k, ok := keywords[ident]; ok {
		return k
	}
	return IDENT
}
