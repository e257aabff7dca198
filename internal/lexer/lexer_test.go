package lexer_test

import (
	"testing"

	"github.com/cxxfront/parser/internal/intern"
	"github.com/cxxfront/parser/internal/lexer"
	"github.com/cxxfront/parser/internal/token"
)

func tokenize(src string) []token.Token {
	return lexer.New(src, intern.New(), 0).Tokenize()
}

// A hex literal ending in a digit that also happens to be a valid integer
// suffix letter (F in 0x1F) must not have that digit mistaken for a
// trailing suffix and stripped off.
func TestHexLiteralTrailingFIsNotMistakenForSuffix(t *testing.T) {
	toks := tokenize("0x1F;")
	if len(toks) < 1 || toks[0].Kind != token.INT_LIT {
		t.Fatalf("expected a single INT_LIT token, got %v", toks)
	}
	iv, ok := toks[0].Literal.(int64)
	if !ok {
		t.Fatalf("expected int64 literal, got %T (%v)", toks[0].Literal, toks[0].Literal)
	}
	if iv != 0x1F {
		t.Fatalf("0x1F decoded as %d, want %d", iv, int64(0x1F))
	}
}

func TestIntegerSuffixesAreStripped(t *testing.T) {
	cases := []struct {
		src  string
		want int64
	}{
		{"42u", 42},
		{"42U", 42},
		{"42l", 42},
		{"42ull", 42},
		{"0x10", 16},
		{"010", 8}, // octal
	}
	for _, c := range cases {
		toks := tokenize(c.src + ";")
		if len(toks) < 1 || toks[0].Kind != token.INT_LIT {
			t.Fatalf("%s: expected INT_LIT, got %v", c.src, toks)
		}
		iv, ok := toks[0].Literal.(int64)
		if !ok {
			t.Fatalf("%s: expected int64 literal, got %T", c.src, toks[0].Literal)
		}
		if iv != c.want {
			t.Fatalf("%s decoded as %d, want %d", c.src, iv, c.want)
		}
	}
}

func TestFloatLiteralWithNoFractionalDigits(t *testing.T) {
	toks := tokenize("1.;")
	if len(toks) < 1 || toks[0].Kind != token.FLOAT_LIT {
		t.Fatalf("expected FLOAT_LIT for '1.', got %v", toks)
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	lex := lexer.New("a + b", intern.New(), 0)
	first := lex.Peek(0)
	again := lex.Peek(0)
	if first.Kind != again.Kind || first.Lexeme != again.Lexeme {
		t.Fatalf("Peek(0) should be stable across calls: %v vs %v", first, again)
	}
	next := lex.Next()
	if next.Kind != first.Kind {
		t.Fatalf("Next() after Peek(0) should return the same token: %v vs %v", next, first)
	}
}

func TestNextPastEOFKeepsReturningEOF(t *testing.T) {
	lex := lexer.New("", intern.New(), 0)
	first := lex.Next()
	if first.Kind != token.EOF {
		t.Fatalf("expected EOF for empty input, got %v", first)
	}
	second := lex.Next()
	if second.Kind != token.EOF {
		t.Fatalf("expected a second Next() past EOF to still return EOF, got %v", second)
	}
}
