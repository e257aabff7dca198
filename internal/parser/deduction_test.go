package parser_test

import (
	"strings"
	"testing"

	"github.com/cxxfront/parser/internal/ast"
)

// findFunctionCalls walks the whole arena and returns every FunctionCall
// payload parsed from src, in arena order.
func findFunctionCalls(t *testing.T, arena *ast.Arena) []ast.FunctionCall {
	t.Helper()
	var out []ast.FunctionCall
	for i := 0; i < arena.Len(); i++ {
		if node := arena.Get(ast.Ref(i)); node.Kind == ast.KindFunctionCall {
			out = append(out, node.Payload.(ast.FunctionCall))
		}
	}
	return out
}

func findMemberCalls(t *testing.T, arena *ast.Arena) []ast.MemberFunctionCall {
	t.Helper()
	var out []ast.MemberFunctionCall
	for i := 0; i < arena.Len(); i++ {
		if node := arena.Get(ast.Ref(i)); node.Kind == ast.KindMemberFunctionCall {
			out = append(out, node.Payload.(ast.MemberFunctionCall))
		}
	}
	return out
}

func TestDeducedCallInstantiatesFunctionTemplate(t *testing.T) {
	tu := runSource(t, `template<class T> T id(T x) { return x; } int y = id(42);`)
	if len(tu.Errors) != 0 {
		t.Fatalf("expected no errors, got: %v", errorMessages(tu))
	}
	calls := findFunctionCalls(t, tu.Arena)
	if len(calls) != 1 {
		t.Fatalf("expected one call, got %d", len(calls))
	}
	if calls[0].Instantiation == ast.NoRef {
		t.Fatal("expected id(42) to deduce T=int and instantiate, got NoRef")
	}
}

func TestDeducedCallDoesNotInstantiateForOrdinaryFunction(t *testing.T) {
	tu := runSource(t, `int plain(int x) { return x; } int y = plain(42);`)
	if len(tu.Errors) != 0 {
		t.Fatalf("expected no errors, got: %v", errorMessages(tu))
	}
	calls := findFunctionCalls(t, tu.Arena)
	if len(calls) != 1 {
		t.Fatalf("expected one call, got %d", len(calls))
	}
	if calls[0].Instantiation != ast.NoRef {
		t.Fatal("a call to a non-template function must never produce an instantiation")
	}
}

func TestDeducedCallSharesInstantiationCacheWithExplicitCall(t *testing.T) {
	tu := runSource(t, `
template<class T> T id(T x) { return x; }
int a = id(1);
int b = id<int>(2);
`)
	if len(tu.Errors) != 0 {
		t.Fatalf("expected no errors, got: %v", errorMessages(tu))
	}
	calls := findFunctionCalls(t, tu.Arena)
	if len(calls) != 2 {
		t.Fatalf("expected two calls, got %d", len(calls))
	}
	if calls[0].Instantiation == ast.NoRef || calls[1].Instantiation == ast.NoRef {
		t.Fatalf("expected both calls to instantiate, got %+v", calls)
	}
	if calls[0].Instantiation != calls[1].Instantiation {
		t.Fatalf("id(1) and id<int>(2) should share one cached instantiation, got %v vs %v",
			calls[0].Instantiation, calls[1].Instantiation)
	}
}

func TestForwardingReferenceDeducesLvalueAsReference(t *testing.T) {
	tu := runSource(t, `
template<class T> void fwd(T&& x) {}
int main() { int v = 1; fwd(v); }
`)
	if len(tu.Errors) != 0 {
		t.Fatalf("expected no errors, got: %v", errorMessages(tu))
	}
	calls := findFunctionCalls(t, tu.Arena)
	if len(calls) != 1 {
		t.Fatalf("expected one call, got %d", len(calls))
	}
	if calls[0].Instantiation == ast.NoRef {
		t.Fatal("expected fwd(v) to deduce T=int& via the forwarding-reference rule and instantiate")
	}
}

func TestFreeOverloadResolvesViableCandidate(t *testing.T) {
	tu := runSource(t, `
void pick(int x) {}
void pick(double x) {}
void caller() { pick(1); }
`)
	if len(tu.Errors) != 0 {
		t.Fatalf("expected no errors, got: %v", errorMessages(tu))
	}
	calls := findFunctionCalls(t, tu.Arena)
	if len(calls) != 1 {
		t.Fatalf("expected one call, got %d", len(calls))
	}
	if calls[0].ResolvedOverload == ast.NoRef {
		t.Fatal("expected pick(1) to resolve to one of the two declared overloads")
	}
}

func TestFreeOverloadSingleDeclarationSkipsResolution(t *testing.T) {
	tu := runSource(t, `
void solo(int x) {}
void caller() { solo(1); }
`)
	if len(tu.Errors) != 0 {
		t.Fatalf("expected no errors, got: %v", errorMessages(tu))
	}
	calls := findFunctionCalls(t, tu.Arena)
	if len(calls) != 1 {
		t.Fatalf("expected one call, got %d", len(calls))
	}
	if calls[0].ResolvedOverload != ast.NoRef {
		t.Fatal("a single (non-overloaded) declaration should never be routed through resolution")
	}
}

func TestMemberOverloadResolvesViableCandidate(t *testing.T) {
	tu := runSource(t, `
struct S {
	void pick(int x) {}
	void pick(double x) {}
};
void caller() { S s; s.pick(1); }
`)
	if len(tu.Errors) != 0 {
		t.Fatalf("expected no errors, got: %v", errorMessages(tu))
	}
	calls := findMemberCalls(t, tu.Arena)
	if len(calls) != 1 {
		t.Fatalf("expected one member call, got %d", len(calls))
	}
	if calls[0].ResolvedOverload == ast.NoRef {
		t.Fatal("expected s.pick(1) to resolve to one of the two declared member overloads")
	}
}

func findBinaryOps(t *testing.T, arena *ast.Arena) []ast.BinaryOp {
	t.Helper()
	var out []ast.BinaryOp
	for i := 0; i < arena.Len(); i++ {
		if node := arena.Get(ast.Ref(i)); node.Kind == ast.KindBinaryOp {
			out = append(out, node.Payload.(ast.BinaryOp))
		}
	}
	return out
}

func TestOperatorOverloadResolvesDeclaredOperatorFunction(t *testing.T) {
	tu := runSource(t, `
struct S {};
S operator+(S a, int b) { return a; }
S operator+(S a, double b) { return a; }
void caller() { S s; s + 1; }
`)
	if len(tu.Errors) != 0 {
		t.Fatalf("expected no errors, got: %v", errorMessages(tu))
	}
	ops := findBinaryOps(t, tu.Arena)
	found := false
	for _, op := range ops {
		if op.Op == "+" && op.ResolvedOverload != ast.NoRef {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected `s + 1` to resolve against the declared operator+ overloads, got: %+v", ops)
	}
}

func TestOperatorWithoutUserOverloadLeavesUnresolved(t *testing.T) {
	tu := runSource(t, `void caller() { int a = 1; int b = 2; int c = a + b; }`)
	if len(tu.Errors) != 0 {
		t.Fatalf("expected no errors, got: %v", errorMessages(tu))
	}
	ops := findBinaryOps(t, tu.Arena)
	for _, op := range ops {
		if op.Op == "+" && op.ResolvedOverload != ast.NoRef {
			t.Fatalf("a built-in `+` with no declared operator+ must not resolve, got: %+v", op)
		}
	}
}

func TestSpecializationAmbiguityReportsDiagnostic(t *testing.T) {
	tu := runSource(t, `
template<class T, class U> struct Box {};
template<class T> struct Box<T, int> {};
template<class U> struct Box<int, U> {};
Box<int, int> b;
`)
	found := false
	for _, msg := range errorMessages(tu) {
		if strings.Contains(msg, "mbiguous") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an ambiguous-partial-specialization diagnostic, got: %v", errorMessages(tu))
	}
}
