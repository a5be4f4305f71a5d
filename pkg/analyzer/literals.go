package analyzer

import "github.com/perbu/rxlint/pkg/ast"

// LiteralSet carries the literal strings a pattern is guaranteed to
// begin and end with, together with whether those sets exhaustively
// enumerate every possible match (Complete) or merely bound it.
type LiteralSet struct {
	Prefixes []string
	Suffixes []string
	Complete bool
}

// EmptyLiteralSet is the algebra's bottom element and unite's
// identity: no known prefix or suffix, and never complete.
func EmptyLiteralSet() LiteralSet {
	return LiteralSet{}
}

// FromString is the algebra's single-string injection: a set that
// matches exactly s.
func FromString(s string) LiteralSet {
	return LiteralSet{Prefixes: []string{s}, Suffixes: []string{s}, Complete: true}
}

// IsVoid reports whether a carries no information at all.
func (a LiteralSet) IsVoid() bool {
	return len(a.Prefixes) == 0 && len(a.Suffixes) == 0
}

// LongestPrefix returns a's longest known prefix, the first one seen
// on ties.
func (a LiteralSet) LongestPrefix() string { return longest(a.Prefixes) }

// LongestSuffix returns a's longest known suffix, the first one seen
// on ties.
func (a LiteralSet) LongestSuffix() string { return longest(a.Suffixes) }

func longest(xs []string) string {
	best := ""
	for _, x := range xs {
		if len(x) > len(best) {
			best = x
		}
	}
	return best
}

// Confidence collapses a LiteralSet to a single score a caller can
// threshold on: 0 for void, 1 for a complete enumeration, 0.5 for a
// non-empty but partial bound.
func (a LiteralSet) Confidence() float64 {
	switch {
	case a.IsVoid():
		return 0
	case a.Complete:
		return 1
	default:
		return 0.5
	}
}

// ConcatLiteralSets combines two adjacent sets: prefixes extend past A
// only when A is a complete enumeration (otherwise later content can't
// be characterized), and symmetrically for suffixes extending past B.
func ConcatLiteralSets(a, b LiteralSet) LiteralSet {
	prefixes := append([]string(nil), a.Prefixes...)
	if a.Complete && len(b.Prefixes) > 0 {
		prefixes = cross(a.Prefixes, b.Prefixes)
	}
	suffixes := append([]string(nil), b.Suffixes...)
	if b.Complete && len(a.Suffixes) > 0 {
		suffixes = cross(a.Suffixes, b.Suffixes)
	}
	return LiteralSet{
		Prefixes: dedupStrings(prefixes),
		Suffixes: dedupStrings(suffixes),
		Complete: a.Complete && b.Complete,
	}
}

// UniteLiteralSets implements unite(A, B): the union of both sides'
// prefixes and suffixes. A void operand is the union's identity — the
// other side comes back unchanged, Complete flag included.
func UniteLiteralSets(a, b LiteralSet) LiteralSet {
	if a.IsVoid() {
		return b
	}
	if b.IsVoid() {
		return a
	}
	return LiteralSet{
		Prefixes: dedupStrings(append(append([]string(nil), a.Prefixes...), b.Prefixes...)),
		Suffixes: dedupStrings(append(append([]string(nil), a.Suffixes...), b.Suffixes...)),
		Complete: a.Complete && b.Complete,
	}
}

func cross(xs, ys []string) []string {
	out := make([]string, 0, len(xs)*len(ys))
	for _, x := range xs {
		for _, y := range ys {
			out = append(out, x+y)
		}
	}
	return out
}

func dedupStrings(xs []string) []string {
	if len(xs) == 0 {
		return xs
	}
	seen := make(map[string]bool, len(xs))
	out := make([]string, 0, len(xs))
	for _, x := range xs {
		if !seen[x] {
			seen[x] = true
			out = append(out, x)
		}
	}
	return out
}

// isLookaroundGroup reports whether kind is one of the four lookaround
// group kinds, the only Group kinds that don't consume input and so
// lose literal completeness when propagated through.
func isLookaroundGroup(kind string) bool {
	switch kind {
	case ast.GroupLookahead, ast.GroupNegLookahead, ast.GroupLookbehind, ast.GroupNegLookbehind:
		return true
	}
	return false
}

// ExtractLiterals folds root into a LiteralSet. Sequence is the one
// case needing a fold strategy beyond the bare algebra: a naive
// left-to-right concat across every child would grow prefixes and
// suffixes all the way to a fully concatenated string even across an
// alternation, which isn't a useful "definite prefix" once the match
// has branched. Instead, prefix accumulation stops at the first child
// whose own prefix set has already diverged (or isn't complete), and
// suffix accumulation stops symmetrically scanning from the right.
func ExtractLiterals(n ast.Node) LiteralSet {
	if n == nil {
		return EmptyLiteralSet()
	}
	switch v := n.(type) {
	case *ast.Regex:
		return ExtractLiterals(v.Pattern)
	case *ast.Literal:
		return FromString(v.Value)
	case *ast.Sequence:
		return extractSequence(v.Children)
	case *ast.Alternation:
		return extractAlternation(v.Alternatives)
	case *ast.Quantifier:
		return extractQuantifier(v)
	case *ast.Group:
		child := ExtractLiterals(v.Child)
		if isLookaroundGroup(v.Kind) {
			return LiteralSet{
				Prefixes: append([]string(nil), child.Prefixes...),
				Suffixes: append([]string(nil), child.Suffixes...),
				Complete: false,
			}
		}
		return child
	default:
		// All other atoms (Dot, CharClass, Assertion, PcreVerb, Keep,
		// Backref, Subroutine, Conditional, Define, Comment, Callout, …)
		// carry no literal content.
		return EmptyLiteralSet()
	}
}

func extractAlternation(alts []ast.Node) LiteralSet {
	var set LiteralSet
	sawVoid := false
	for i, a := range alts {
		as := ExtractLiterals(a)
		if as.IsVoid() {
			// A branch with no literal content (Dot, a class, ...) can
			// match strings the union doesn't enumerate, so the result
			// can't claim completeness even though unite's identity
			// passes the other side through.
			sawVoid = true
		}
		if i == 0 {
			set = as
			continue
		}
		set = UniteLiteralSets(set, as)
	}
	if sawVoid {
		set.Complete = false
	}
	return set
}

func extractQuantifier(v *ast.Quantifier) LiteralSet {
	child := ExtractLiterals(v.Child)
	if v.Min == 0 {
		return LiteralSet{
			Prefixes: append([]string(nil), child.Prefixes...),
			Suffixes: append([]string(nil), child.Suffixes...),
			Complete: false,
		}
	}
	set := child
	for i := 1; i < v.Min; i++ {
		set = ConcatLiteralSets(set, child)
	}
	if v.Max != v.Min {
		set.Complete = false
	}
	return set
}

func extractSequence(children []ast.Node) LiteralSet {
	sets := make([]LiteralSet, len(children))
	for i, c := range children {
		sets[i] = ExtractLiterals(c)
	}

	complete := true
	for _, s := range sets {
		if !s.Complete {
			complete = false
		}
	}

	prefix := FromString("")
	for _, s := range sets {
		prefix = ConcatLiteralSets(prefix, s)
		if len(s.Prefixes) != 1 || !s.Complete {
			break
		}
	}

	suffix := FromString("")
	for i := len(sets) - 1; i >= 0; i-- {
		s := sets[i]
		suffix = ConcatLiteralSets(s, suffix)
		if len(s.Suffixes) != 1 || !s.Complete {
			break
		}
	}

	return LiteralSet{
		Prefixes: dedupStrings(prefix.Prefixes),
		Suffixes: dedupStrings(suffix.Suffixes),
		Complete: complete,
	}
}
