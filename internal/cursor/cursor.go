// Package cursor implements the Token Cursor: positioned lookahead over an
// immutable token sequence with save/restore/discard for backtracking.
//
// Grounded on the teacher's two-token lookahead in parser.Parser
// (curToken/peekToken/nextToken, internal/parser/parser.go) generalized to
// arbitrary-depth backtracking via an explicit position stack, since the
// C++ grammar needs real speculative parses (C-style cast vs parenthesized
// expression, template-arguments vs comparison) that the teacher's
// language never required.
package cursor

import "github.com/cxxfront/parser/internal/token"

// Cursor is positioned lookahead over a fixed token slice.
type Cursor struct {
	tokens []token.Token
	pos    int

	// saved is the LIFO stack of outstanding save_position() handles.
	// Restoring out of order is a fatal invariant violation (spec §4.1):
	// "Save handles are LIFO-balanced". Discard pops any handles saved
	// after its own without panicking.
	saved []int
}

// SavePoint is an opaque handle returned by Save.
type SavePoint int

// New wraps tokens. The last token must be an EOF token; callers (the
// lexer/token producer) are responsible for that per spec §6.
func New(tokens []token.Token) *Cursor {
	return &Cursor{tokens: tokens}
}

// Peek returns the token offset positions ahead of the current one without
// consuming anything. Peeking past the end of the stream returns the final
// (EOF) token repeatedly.
func (c *Cursor) Peek(offset int) token.Token {
	i := c.pos + offset
	if i < 0 {
		i = 0
	}
	if i >= len(c.tokens) {
		return c.tokens[len(c.tokens)-1]
	}
	return c.tokens[i]
}

// PeekInfo is an alias kept for symmetry with spec §4.1's peek_info; in
// this token model Token already carries full source position, so it is
// identical to Peek.
func (c *Cursor) PeekInfo(offset int) token.Token { return c.Peek(offset) }

// Current returns the token at the cursor without consuming it. Invariant
// (spec §3): Current() always equals tokens[position].
func (c *Cursor) Current() token.Token { return c.Peek(0) }

// Advance consumes and returns the current token, then moves forward
// unless already at EOF.
func (c *Cursor) Advance() token.Token {
	t := c.Current()
	if t.Kind != token.EOF {
		c.pos++
	}
	return t
}

// Consume advances past the current token iff it has the expected kind,
// reporting whether it matched.
func (c *Cursor) Consume(expected token.Kind) (token.Token, bool) {
	t := c.Current()
	if t.Kind != expected {
		return t, false
	}
	c.Advance()
	return t, true
}

// AtEOF reports whether the cursor has reached the end of the stream.
func (c *Cursor) AtEOF() bool { return c.Current().Kind == token.EOF }

// Mark returns the raw token-index position, for capturing a
// [start,end) token range to re-parse later (the delayed-body queue's
// skip-then-requeue technique, spec §4.2).
func (c *Cursor) Mark() int { return c.pos }

// Sub returns a fresh Cursor over tokens[start:end] plus a synthetic EOF,
// so a previously-skipped token range can be parsed on its own once its
// enclosing class is complete.
func (c *Cursor) Sub(start, end int) *Cursor {
	eof := token.Token{Kind: token.EOF}
	if end <= len(c.tokens) {
		eof.Pos = c.tokens[end-1].Pos
	}
	sub := make([]token.Token, 0, end-start+1)
	sub = append(sub, c.tokens[start:end]...)
	sub = append(sub, eof)
	return New(sub)
}

// Save records the current position and returns a handle that must later
// be passed to exactly one of Restore or Discard.
func (c *Cursor) Save() SavePoint {
	c.saved = append(c.saved, c.pos)
	return SavePoint(len(c.saved) - 1)
}

// Restore rewinds the cursor to the position recorded by sp and pops it
// off the stack. Restoring out of LIFO order — i.e. sp is not the most
// recently unresolved save — is a fatal invariant violation and panics,
// per spec §4.1/§8 (save/restore must be exact, byte-equivalent resume).
func (c *Cursor) Restore(sp SavePoint) {
	idx := int(sp)
	if idx < 0 || idx >= len(c.saved) {
		panic("cursor: restore of unknown save point")
	}
	if idx != len(c.saved)-1 {
		panic("cursor: out-of-order restore")
	}
	c.pos = c.saved[idx]
	c.saved = c.saved[:idx]
}

// Discard pops sp (and anything saved after it, which should be none in
// correct usage) off the stack without moving the cursor — the wrapped
// operation succeeded and its backtracking guard is no longer needed.
func (c *Cursor) Discard(sp SavePoint) {
	idx := int(sp)
	if idx < 0 || idx >= len(c.saved) {
		panic("cursor: discard of unknown save point")
	}
	c.saved = c.saved[:idx]
}

// ScopedTokenPosition is an RAII-style guard: acquires a save on
// construction and, unless Discard has been called, restores on Close.
// Typical use:
//
//	g := cursor.NewScoped(c)
//	defer g.Close()
//	... speculative parse ...
//	if ok { g.Discard() }
type ScopedTokenPosition struct {
	c         *Cursor
	sp        SavePoint
	discarded bool
}

// NewScoped opens a new backtracking guard over c.
func NewScoped(c *Cursor) *ScopedTokenPosition {
	return &ScopedTokenPosition{c: c, sp: c.Save()}
}

// Discard marks the guard as successful: Close will not rewind the cursor.
func (g *ScopedTokenPosition) Discard() {
	if g.discarded {
		return
	}
	g.discarded = true
	g.c.Discard(g.sp)
}

// Close restores the cursor to the save point unless Discard was called.
// Safe to call multiple times.
func (g *ScopedTokenPosition) Close() {
	if g.discarded {
		return
	}
	g.discarded = true
	g.c.Restore(g.sp)
}
