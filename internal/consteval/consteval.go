// Package consteval implements the Constant-Expression Evaluator: a
// structured Value-or-Error evaluation of non-dependent constant
// expressions (spec §4.4). The parser calls it for static_assert
// conditions only; array bounds, enumerator values and template non-type
// arguments are not evaluated through it.
//
// Grounded on the teacher's internal/diagnostics error-as-value shape
// (no exceptions-as-control-flow: Eval returns (Value, *EvalError)
// exactly the way diagnostics.DiagnosticError is returned rather than
// panicked) and, for the evaluation switch itself, the general
// "recursive walk over an expression AST producing a tagged result"
// structure the teacher's evaluator package uses for its own expression
// evaluation (builtins_uuid.go et al. wrap Go values behind a small
// tagged Value, which this package's Value mirrors for constant ints,
// bools, and floats instead of runtime language values).
package consteval

import (
	"fmt"

	"github.com/cxxfront/parser/internal/ast"
	"github.com/cxxfront/parser/internal/token"
)

// ValueKind tags a Value's payload.
type ValueKind int

const (
	ValueInt ValueKind = iota
	ValueBool
	ValueFloat
)

// Value is the result of evaluating a non-dependent constant expression.
type Value struct {
	Kind  ValueKind
	Int   int64
	Bool  bool
	Float float64
}

func (v Value) AsInt() int64 {
	switch v.Kind {
	case ValueInt:
		return v.Int
	case ValueBool:
		if v.Bool {
			return 1
		}
		return 0
	case ValueFloat:
		return int64(v.Float)
	}
	return 0
}

func (v Value) String() string {
	switch v.Kind {
	case ValueBool:
		return fmt.Sprintf("%t", v.Bool)
	case ValueFloat:
		return fmt.Sprintf("%g", v.Float)
	default:
		return fmt.Sprintf("%d", v.Int)
	}
}

// ErrorKind classifies why evaluation failed.
type ErrorKind int

const (
	ErrNotConstant ErrorKind = iota
	ErrDivisionByZero
	ErrOverflow
	ErrUnsupportedOperator
)

// Error is the evaluator's dedicated error value (spec §4.4: evaluation
// failures are data, not fatal — the caller decides whether a
// non-constant subexpression is itself an error, e.g. SFINAE context).
type Error struct {
	Kind    ErrorKind
	Message string
	Tok     token.Token
}

func (e *Error) Error() string { return e.Message }

func fail(kind ErrorKind, tok token.Token, format string, args ...interface{}) (Value, *Error) {
	return Value{}, &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Tok: tok}
}

// Lookup resolves an Identifier/QualifiedIdentifier Ref to a constant
// Value (e.g. a prior enumerator or a `constexpr` variable's initializer)
// — implemented by the caller (internal/parser has the symbol table),
// since this package has no dependency on internal/symbols to keep the
// constant evaluator reusable outside a full parse.
type Lookup func(ref ast.Ref) (Value, bool)

// Eval recursively evaluates the expression at ref within arena, using
// lookup to resolve named constants.
func Eval(arena *ast.Arena, ref ast.Ref, lookup Lookup) (Value, *Error) {
	if ref == ast.NoRef {
		return fail(ErrNotConstant, token.Token{}, "missing constant expression")
	}
	node := arena.Get(ref)
	switch node.Kind {
	case ast.KindNumericLiteral:
		lit := node.Payload.(ast.NumericLiteral)
		switch lit.Kind {
		case ast.NumFloat:
			return Value{Kind: ValueFloat, Float: lit.FVal}, nil
		default:
			return Value{Kind: ValueInt, Int: lit.IVal}, nil
		}
	case ast.KindBoolLiteral:
		lit := node.Payload.(ast.BoolLiteral)
		return Value{Kind: ValueBool, Bool: lit.Value}, nil
	case ast.KindIdentifier:
		ident := node.Payload.(ast.Identifier)
		if ident.Decl != ast.NoRef {
			if v, ok := lookup(ident.Decl); ok {
				return v, nil
			}
		}
		return fail(ErrNotConstant, node.Token, "identifier is not a constant expression")
	case ast.KindUnaryOp:
		return evalUnary(arena, node, lookup)
	case ast.KindBinaryOp:
		return evalBinary(arena, node, lookup)
	case ast.KindTernary:
		return evalTernary(arena, node, lookup)
	case ast.KindSizeofExpr, ast.KindAlignofExpr:
		// Resolving sizeof/alignof requires the type registry's layout
		// information, which this package intentionally doesn't depend
		// on. The parser does not fold them into NumericLiteral nodes, so
		// any sizeof/alignof reaching Eval is reported as not constant.
		return fail(ErrNotConstant, node.Token, "sizeof/alignof must be pre-folded before constant evaluation")
	default:
		return fail(ErrNotConstant, node.Token, "expression is not a constant expression")
	}
}

func evalUnary(arena *ast.Arena, node ast.Node, lookup Lookup) (Value, *Error) {
	u := node.Payload.(ast.UnaryOp)
	v, err := Eval(arena, u.Operand, lookup)
	if err != nil {
		return Value{}, err
	}
	switch u.Op {
	case token.MINUS:
		if v.Kind == ValueFloat {
			return Value{Kind: ValueFloat, Float: -v.Float}, nil
		}
		return Value{Kind: ValueInt, Int: -v.Int}, nil
	case token.PLUS:
		return v, nil
	case token.BANG:
		return Value{Kind: ValueBool, Bool: v.AsInt() == 0}, nil
	case token.TILDE:
		return Value{Kind: ValueInt, Int: ^v.AsInt()}, nil
	default:
		return fail(ErrUnsupportedOperator, node.Token, "unsupported unary operator %s in constant expression", u.Op)
	}
}

func evalTernary(arena *ast.Arena, node ast.Node, lookup Lookup) (Value, *Error) {
	t := node.Payload.(ast.Ternary)
	cond, err := Eval(arena, t.Cond, lookup)
	if err != nil {
		return Value{}, err
	}
	if cond.AsInt() != 0 {
		return Eval(arena, t.Then, lookup)
	}
	return Eval(arena, t.Else, lookup)
}

func evalBinary(arena *ast.Arena, node ast.Node, lookup Lookup) (Value, *Error) {
	b := node.Payload.(ast.BinaryOp)

	// Short-circuit && / || evaluate the right side only when needed,
	// matching spec §4.4's requirement that short-circuit semantics hold
	// even at constant-evaluation time (a non-constant RHS of a
	// short-circuited `false && rhs` must not be an error).
	if b.Op == token.ANDAND || b.Op == token.OROR {
		left, err := Eval(arena, b.Left, lookup)
		if err != nil {
			return Value{}, err
		}
		if b.Op == token.ANDAND && left.AsInt() == 0 {
			return Value{Kind: ValueBool, Bool: false}, nil
		}
		if b.Op == token.OROR && left.AsInt() != 0 {
			return Value{Kind: ValueBool, Bool: true}, nil
		}
		right, err := Eval(arena, b.Right, lookup)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: ValueBool, Bool: right.AsInt() != 0}, nil
	}

	left, err := Eval(arena, b.Left, lookup)
	if err != nil {
		return Value{}, err
	}
	right, err := Eval(arena, b.Right, lookup)
	if err != nil {
		return Value{}, err
	}

	if left.Kind == ValueFloat || right.Kind == ValueFloat {
		return evalFloatBinary(node.Token, b.Op, toFloat(left), toFloat(right))
	}
	return evalIntBinary(node.Token, b.Op, left.AsInt(), right.AsInt())
}

func toFloat(v Value) float64 {
	if v.Kind == ValueFloat {
		return v.Float
	}
	return float64(v.AsInt())
}

func evalFloatBinary(tok token.Token, op token.Kind, l, r float64) (Value, *Error) {
	switch op {
	case token.PLUS:
		return Value{Kind: ValueFloat, Float: l + r}, nil
	case token.MINUS:
		return Value{Kind: ValueFloat, Float: l - r}, nil
	case token.STAR:
		return Value{Kind: ValueFloat, Float: l * r}, nil
	case token.SLASH:
		if r == 0 {
			return fail(ErrDivisionByZero, tok, "division by zero in constant expression")
		}
		return Value{Kind: ValueFloat, Float: l / r}, nil
	case token.LT:
		return Value{Kind: ValueBool, Bool: l < r}, nil
	case token.GT:
		return Value{Kind: ValueBool, Bool: l > r}, nil
	case token.LE:
		return Value{Kind: ValueBool, Bool: l <= r}, nil
	case token.GE:
		return Value{Kind: ValueBool, Bool: l >= r}, nil
	case token.EQ:
		return Value{Kind: ValueBool, Bool: l == r}, nil
	case token.NE:
		return Value{Kind: ValueBool, Bool: l != r}, nil
	default:
		return fail(ErrUnsupportedOperator, tok, "operator %s not supported for floating-point constant expressions", op)
	}
}

func evalIntBinary(tok token.Token, op token.Kind, l, r int64) (Value, *Error) {
	switch op {
	case token.PLUS:
		return checkOverflow(tok, l+r, l, r, op)
	case token.MINUS:
		return checkOverflow(tok, l-r, l, r, op)
	case token.STAR:
		return checkOverflow(tok, l*r, l, r, op)
	case token.SLASH:
		if r == 0 {
			return fail(ErrDivisionByZero, tok, "division by zero in constant expression")
		}
		return Value{Kind: ValueInt, Int: l / r}, nil
	case token.PERCENT:
		if r == 0 {
			return fail(ErrDivisionByZero, tok, "division by zero in constant expression")
		}
		return Value{Kind: ValueInt, Int: l % r}, nil
	case token.AMP:
		return Value{Kind: ValueInt, Int: l & r}, nil
	case token.PIPE:
		return Value{Kind: ValueInt, Int: l | r}, nil
	case token.CARET:
		return Value{Kind: ValueInt, Int: l ^ r}, nil
	case token.SHL:
		return Value{Kind: ValueInt, Int: l << uint(r)}, nil
	case token.SHR:
		return Value{Kind: ValueInt, Int: l >> uint(r)}, nil
	case token.LT:
		return Value{Kind: ValueBool, Bool: l < r}, nil
	case token.GT:
		return Value{Kind: ValueBool, Bool: l > r}, nil
	case token.LE:
		return Value{Kind: ValueBool, Bool: l <= r}, nil
	case token.GE:
		return Value{Kind: ValueBool, Bool: l >= r}, nil
	case token.EQ:
		return Value{Kind: ValueBool, Bool: l == r}, nil
	case token.NE:
		return Value{Kind: ValueBool, Bool: l != r}, nil
	default:
		return fail(ErrUnsupportedOperator, tok, "operator %s not supported for integer constant expressions", op)
	}
}

// checkOverflow reports ErrOverflow once the result leaves int64 range in
// a way the naive Go operator wouldn't itself detect (spec §4.4:
// overflow in a constant expression is ill-formed, not wraparound).
func checkOverflow(tok token.Token, result, l, r int64, op token.Kind) (Value, *Error) {
	switch op {
	case token.PLUS:
		if (r > 0 && result < l) || (r < 0 && result > l) {
			return fail(ErrOverflow, tok, "overflow in constant expression %d + %d", l, r)
		}
	case token.MINUS:
		if (r < 0 && result < l) || (r > 0 && result > l) {
			return fail(ErrOverflow, tok, "overflow in constant expression %d - %d", l, r)
		}
	case token.STAR:
		if l != 0 && result/l != r {
			return fail(ErrOverflow, tok, "overflow in constant expression %d * %d", l, r)
		}
	}
	return Value{Kind: ValueInt, Int: result}, nil
}
