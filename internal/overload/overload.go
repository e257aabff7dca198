// Package overload implements overload resolution: viability checking,
// conversion-sequence ranking, and ambiguity detection over a candidate
// set, including forwarding-reference special-casing for function
// templates (spec §4.6).
//
// Grounded on the teacher's internal/typesystem/unify.go Unify/
// UnifyAllowExtra: candidate viability here is "does Unify succeed
// between each argument's type and the corresponding parameter type",
// directly reusing types.Registry's substitution/comparison machinery;
// ranking candidates by best-conversion-sequence is the ordering layer
// the teacher's plain Unify call never needed (funxy has no overloading),
// so it is new, built in the same small-package, no-framework style as
// the rest of this repo.
package overload

import (
	"github.com/cxxfront/parser/internal/ast"
	"github.com/cxxfront/parser/internal/types"
)

// Rank orders how good a single argument-to-parameter conversion is;
// lower is better, mirroring the standard's implicit-conversion-sequence
// ranking (spec §4.6).
type Rank int

const (
	RankExactMatch Rank = iota
	RankPromotion
	RankConversion
	RankUserDefined
	RankNotViable
)

// Candidate is one function available for overload resolution.
type Candidate struct {
	Decl   ast.Ref
	Params []types.Index
	IsVariadic bool
	// IsForwardingTemplate marks a candidate arising from a template
	// parameter declared as `T&&` where T is deduced from this call (a
	// forwarding/universal reference). The flag does not affect ranking;
	// Resolve uses it only to break a tie at the best rank, where a
	// single non-template winner beats the forwarding template (spec
	// §4.6).
	IsForwardingTemplate bool
}

// rankArgument scores converting an argument of type arg to a parameter
// of type param. Identical indices are an exact match (types.Registry
// de-duplicates pointer/reference types, so index equality is a valid
// fast path exactly as spec §3 intends type_index to be used).
func rankArgument(reg *types.Registry, arg, param types.Index) Rank {
	if arg == param {
		return RankExactMatch
	}
	argInfo := reg.Get(arg)
	paramInfo := reg.Get(param)

	if argInfo.Category == types.CategoryBuiltin && paramInfo.Category == types.CategoryBuiltin {
		if argInfo.IsFloat == paramInfo.IsFloat && promotionPair(argInfo, paramInfo) {
			return RankPromotion
		}
		return RankConversion
	}
	if paramInfo.Category == types.CategoryLValueRef || paramInfo.Category == types.CategoryRValueRef {
		if paramInfo.Elem == arg {
			return RankExactMatch
		}
		return rankArgument(reg, arg, paramInfo.Elem)
	}
	if argInfo.Category == types.CategoryStruct && paramInfo.Category == types.CategoryStruct {
		// A derived-to-base conversion is a Conversion-rank match; exact
		// same StructTypeInfo already returned above via index equality.
		return RankConversion
	}
	return RankUserDefined
}

// promotionPair reports whether converting from to to is an integral/
// floating-point promotion (widening within the same signedness/
// float-ness family) rather than a narrowing or cross-family conversion.
func promotionPair(from, to types.TypeInfo) bool {
	return to.BuiltinSizeBits >= from.BuiltinSizeBits && from.IsUnsigned == to.IsUnsigned
}

// Viability is the per-candidate result of checking one call.
type Viability struct {
	Candidate Candidate
	Viable    bool
	// Ranks holds one Rank per argument position, for tie-breaking and
	// diagnostics; the candidate's overall rank is its single worst
	// (highest/least-preferred) per-argument rank, per the standard's
	// "the conversion sequence of the worst argument decides" rule.
	Ranks []Rank
}

func (v Viability) worstRank() Rank {
	worst := RankExactMatch
	for _, r := range v.Ranks {
		if r > worst {
			worst = r
		}
	}
	return worst
}

// Resolution is the outcome of resolving one call.
type Resolution struct {
	Best      *Candidate
	Ambiguous bool
	Viable    []Viability
}

// Resolve picks the best candidate from candidates for a call with
// argTypes, per spec §4.6: a candidate is viable only if every argument
// converts (accounting for variadics and pack-expanded trailing
// parameters being handled upstream by the caller, which expands
// IsVariadic candidates' Params as needed before calling Resolve); the
// viable candidate(s) with the best worst-argument rank win; more than
// one candidate tied at the best rank is ambiguous.
func Resolve(reg *types.Registry, candidates []Candidate, argTypes []types.Index) Resolution {
	var viable []Viability
	for _, c := range candidates {
		v := checkViable(reg, c, argTypes)
		if v.Viable {
			viable = append(viable, v)
		}
	}
	if len(viable) == 0 {
		return Resolution{Viable: viable}
	}

	best := viable[0].worstRank()
	for _, v := range viable[1:] {
		if r := v.worstRank(); r < best {
			best = r
		}
	}

	var winners []Viability
	for _, v := range viable {
		if v.worstRank() == best {
			winners = append(winners, v)
		}
	}

	if len(winners) == 1 {
		c := winners[0].Candidate
		return Resolution{Best: &c, Viable: viable}
	}

	// A forwarding-reference template competing with an exact non-template
	// match of equal rank loses the tie (spec §4.6's special-casing): drop
	// forwarding-template winners if any non-template winner remains.
	var nonTemplateWinners []Viability
	for _, w := range winners {
		if !w.Candidate.IsForwardingTemplate {
			nonTemplateWinners = append(nonTemplateWinners, w)
		}
	}
	if len(nonTemplateWinners) == 1 {
		c := nonTemplateWinners[0].Candidate
		return Resolution{Best: &c, Viable: viable}
	}

	return Resolution{Ambiguous: true, Viable: viable}
}

func checkViable(reg *types.Registry, c Candidate, argTypes []types.Index) Viability {
	if !c.IsVariadic && len(argTypes) != len(c.Params) {
		return Viability{Candidate: c, Viable: false}
	}
	if c.IsVariadic && len(argTypes) < len(c.Params) {
		return Viability{Candidate: c, Viable: false}
	}
	ranks := make([]Rank, 0, len(argTypes))
	for i, arg := range argTypes {
		if i >= len(c.Params) {
			// Trailing variadic args are always viable (C-style `...`)
			// and rank as RankConversion, so a fixed-arity candidate wins
			// only when its worst argument ranks better than that; one
			// whose worst argument is also a Conversion ties with it.
			ranks = append(ranks, RankConversion)
			continue
		}
		r := rankArgument(reg, arg, c.Params[i])
		if r == RankNotViable {
			return Viability{Candidate: c, Viable: false}
		}
		ranks = append(ranks, r)
	}
	return Viability{Candidate: c, Viable: true, Ranks: ranks}
}
