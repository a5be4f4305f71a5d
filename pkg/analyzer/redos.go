package analyzer

import (
	"github.com/perbu/rxlint/pkg/ast"
	"github.com/perbu/rxlint/pkg/rxerr"
)

// Severity is the ordered ReDoS severity ladder:
// SAFE < LOW < MEDIUM < HIGH < CRITICAL.
type Severity int

const (
	SeveritySafe Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

var severityNames = [...]string{"SAFE", "LOW", "MEDIUM", "HIGH", "CRITICAL"}

func (s Severity) String() string {
	if int(s) < 0 || int(s) >= len(severityNames) {
		return "UNKNOWN"
	}
	return severityNames[s]
}

// severityScore is the fixed 0-10 table: one number per rung of the
// ladder, defined once here rather than computed from some other
// formula.
var severityScore = [...]int{SeveritySafe: 0, SeverityLow: 2, SeverityMedium: 5, SeverityHigh: 8, SeverityCritical: 10}

// ReDoSAnalysis is AnalyzeReDoS's result.
type ReDoSAnalysis struct {
	Severity          Severity
	Score             int
	VulnerableOffset  int
	VulnerableSnippet string
	Recommendations   []string
}

// AnalyzeReDoS walks root looking for nested unbounded quantifiers and
// ambiguous alternations under them, the shapes that induce
// catastrophic backtracking. source is matched against ignoredPatterns
// by exact equality before any walking happens.
func AnalyzeReDoS(source string, root ast.Node, ignoredPatterns []string) ReDoSAnalysis {
	for _, ignored := range ignoredPatterns {
		if ignored == source {
			return ReDoSAnalysis{Severity: SeveritySafe, Score: severityScore[SeveritySafe]}
		}
	}

	w := &redosWalker{source: source}
	w.walk(root, false)
	return w.result()
}

type redosWalker struct {
	source     string
	severity   Severity
	vulnerable ast.Node
}

func (w *redosWalker) walk(n ast.Node, insideUnbounded bool) {
	if n == nil {
		return
	}
	if q, ok := n.(*ast.Quantifier); ok {
		unbounded := q.Max == -1
		if unbounded {
			switch {
			case insideUnbounded:
				sev := SeverityHigh
				if containsAmbiguousAlternation(q.Child) {
					sev = SeverityCritical
				}
				w.raise(sev, q)
			case containsAmbiguousAlternation(q.Child):
				w.raise(SeverityMedium, q)
			default:
				w.raise(SeverityLow, q)
			}
		}
		w.walk(q.Child, insideUnbounded || unbounded)
		return
	}
	for _, c := range ast.Children(n) {
		w.walk(c, insideUnbounded)
	}
}

func (w *redosWalker) raise(sev Severity, n ast.Node) {
	if sev > w.severity {
		w.severity = sev
		w.vulnerable = n
	}
}

func (w *redosWalker) result() ReDoSAnalysis {
	res := ReDoSAnalysis{
		Severity:        w.severity,
		Score:           severityScore[w.severity],
		Recommendations: recommendationsFor(w.severity),
	}
	if w.vulnerable != nil {
		res.VulnerableOffset = w.vulnerable.Start().Offset
		res.VulnerableSnippet = rxerr.Snippet(w.source, w.vulnerable.Start().Offset)
	}
	return res
}

func recommendationsFor(sev Severity) []string {
	switch sev {
	case SeverityCritical:
		return []string{
			"rewrite the nested unbounded quantifiers as a single bounded repetition",
			"make the outer repetition possessive or wrap it in an atomic group to block backtracking",
			"disambiguate the overlapping alternatives so at most one can match a given input",
		}
	case SeverityHigh:
		return []string{
			"make the outer repetition possessive or wrap it in an atomic group to block backtracking",
			"replace the inner unbounded quantifier with a bounded one if a realistic maximum length exists",
		}
	case SeverityMedium:
		return []string{
			"disambiguate the alternation so its branches don't share a common prefix",
		}
	default:
		return nil
	}
}

// containsAmbiguousAlternation reports whether n contains an
// Alternation whose branches can start with the same input, a
// necessary condition for catastrophic backtracking once that
// alternation sits under a quantifier.
func containsAmbiguousAlternation(n ast.Node) bool {
	found := false
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		if n == nil || found {
			return
		}
		if alt, ok := n.(*ast.Alternation); ok && alternativesOverlap(alt.Alternatives) {
			found = true
			return
		}
		for _, c := range ast.Children(n) {
			walk(c)
		}
	}
	walk(n)
	return found
}

// alternativesOverlap conservatively reports whether two or more of
// alts could match the same leading byte: any branch whose first
// literal byte can't be determined is treated as potentially
// overlapping with everything else, since a linter that under-reports
// ReDoS risk is worse than one that over-reports it.
func alternativesOverlap(alts []ast.Node) bool {
	seen := make(map[byte]bool, len(alts))
	for _, a := range alts {
		b, ok := firstLiteralByte(a)
		if !ok {
			return true
		}
		if seen[b] {
			return true
		}
		seen[b] = true
	}
	return false
}

func firstLiteralByte(n ast.Node) (byte, bool) {
	switch v := n.(type) {
	case *ast.Literal:
		if v.Value != "" {
			return v.Value[0], true
		}
		return 0, false
	case *ast.Sequence:
		if len(v.Children) > 0 {
			return firstLiteralByte(v.Children[0])
		}
		return 0, false
	case *ast.Group:
		return firstLiteralByte(v.Child)
	case *ast.Quantifier:
		if v.Min > 0 {
			return firstLiteralByte(v.Child)
		}
		return 0, false
	default:
		return 0, false
	}
}
