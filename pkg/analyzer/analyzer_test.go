package analyzer

import (
	"testing"

	"github.com/perbu/rxlint/pkg/ast"
	"github.com/perbu/rxlint/pkg/parser"
)

func mustParse(t *testing.T, body string) ast.Node {
	t.Helper()
	node, errs := parser.Parse(body, false, false, nil)
	if len(errs) != 0 {
		t.Fatalf("parser.Parse(%q): %v", body, errs)
	}
	return node
}

func TestValidate_DanglingBackref(t *testing.T) {
	node := mustParse(t, `(a)\2`)
	numbering := ast.CollectGroupNumbering(node)
	result := Validate(`(a)\2`, node, numbering, DefaultValidatorConfig())
	if result.Valid {
		t.Fatal("expected Valid=false for a dangling backreference")
	}
	if len(result.Problems) != 1 || result.Problems[0].Kind != "dangling-backref" {
		t.Fatalf("Problems = %+v, want a single dangling-backref", result.Problems)
	}
}

func TestValidate_ResolvedBackrefIsClean(t *testing.T) {
	node := mustParse(t, `(a)\1`)
	numbering := ast.CollectGroupNumbering(node)
	result := Validate(`(a)\1`, node, numbering, DefaultValidatorConfig())
	if !result.Valid {
		t.Fatalf("expected Valid=true, got Problems=%+v", result.Problems)
	}
}

func TestValidate_UnknownVerbWarns(t *testing.T) {
	node := mustParse(t, `(*BOGUS)a`)
	numbering := ast.CollectGroupNumbering(node)
	result := Validate(`(*BOGUS)a`, node, numbering, DefaultValidatorConfig())
	if !result.Valid {
		t.Fatal("an unknown verb is a warning, not an error: Valid should stay true")
	}
	if len(result.Problems) != 1 || result.Problems[0].Severity != SeverityWarning {
		t.Fatalf("Problems = %+v, want a single warning", result.Problems)
	}
}

func TestValidate_LookbehindTooLong(t *testing.T) {
	node := mustParse(t, `(?<=aaaaaaaaaa)x`)
	numbering := ast.CollectGroupNumbering(node)
	cfg := ValidatorConfig{MaxLookbehindLength: 5}
	result := Validate(`(?<=aaaaaaaaaa)x`, node, numbering, cfg)
	if result.Valid {
		t.Fatal("expected Valid=false for an overlong lookbehind")
	}
	if len(result.Problems) != 1 || result.Problems[0].Kind != "lookbehind-too-long" {
		t.Fatalf("Problems = %+v, want a single lookbehind-too-long", result.Problems)
	}
}

func TestComplexity_PlainLiteralIsOnePerAtom(t *testing.T) {
	node := mustParse(t, "abc")
	// "abc" lexes as a single literal run -> one atom.
	if got := Complexity(node); got != 1 {
		t.Errorf("Complexity(abc) = %d, want 1", got)
	}
}

func TestComplexity_NestedQuantifiersOutscoreBounded(t *testing.T) {
	nested := Complexity(mustParse(t, "(a+)+"))
	bounded := Complexity(mustParse(t, "a{2,4}"))
	if nested <= bounded {
		t.Errorf("Complexity(nested quantifiers) = %d, want > Complexity(bounded) = %d", nested, bounded)
	}
}

func TestExtractLiterals_PlainLiteral(t *testing.T) {
	set := ExtractLiterals(mustParse(t, "abc"))
	if !set.Complete || set.LongestPrefix() != "abc" || set.LongestSuffix() != "abc" {
		t.Errorf("ExtractLiterals(abc) = %+v", set)
	}
}

func TestExtractLiterals_AlternationInsideSequence(t *testing.T) {
	set := ExtractLiterals(mustParse(t, "foo(bar|baz)qux"))
	if !set.Complete {
		t.Fatalf("expected Complete=true, got %+v", set)
	}
	wantPrefixes := map[string]bool{"foobar": true, "foobaz": true}
	for _, p := range set.Prefixes {
		if !wantPrefixes[p] {
			t.Errorf("unexpected prefix %q in %+v", p, set.Prefixes)
		}
		delete(wantPrefixes, p)
	}
	if len(wantPrefixes) != 0 {
		t.Errorf("missing prefixes %+v", wantPrefixes)
	}
	wantSuffixes := map[string]bool{"barqux": true, "bazqux": true}
	for _, s := range set.Suffixes {
		if !wantSuffixes[s] {
			t.Errorf("unexpected suffix %q in %+v", s, set.Suffixes)
		}
		delete(wantSuffixes, s)
	}
	if len(wantSuffixes) != 0 {
		t.Errorf("missing suffixes %+v", wantSuffixes)
	}
}

func TestExtractLiterals_UnboundedQuantifierIsIncomplete(t *testing.T) {
	set := ExtractLiterals(mustParse(t, "ab*"))
	if set.Complete {
		t.Error("a '*' quantifier should never yield Complete=true")
	}
}

func TestLiteralSetAlgebra_ConcatWithEmptyStringIsIdentity(t *testing.T) {
	a := FromString("abc")
	got := ConcatLiteralSets(a, FromString(""))
	if len(got.Prefixes) != 1 || got.Prefixes[0] != "abc" {
		t.Errorf("concat(abc, \"\") = %+v, want unchanged", got)
	}
}

func TestLiteralSetAlgebra_ConcatOfTwoStringsIsTheirConcatenation(t *testing.T) {
	got := ConcatLiteralSets(FromString("foo"), FromString("bar"))
	if len(got.Prefixes) != 1 || got.Prefixes[0] != "foobar" {
		t.Errorf("concat(foo, bar) = %+v, want fromString(foobar)", got)
	}
	if !got.Complete {
		t.Error("concat of two complete sets should stay complete")
	}
}

func TestLiteralSetAlgebra_UniteOfEmptyIsIdentity(t *testing.T) {
	a := FromString("x")
	got := UniteLiteralSets(EmptyLiteralSet(), a)
	if len(got.Prefixes) != 1 || got.Prefixes[0] != "x" {
		t.Errorf("unite(empty, x) = %+v, want x", got)
	}
	if !got.Complete {
		t.Error("unite(empty, x) lost the Complete flag; identity must return x unchanged")
	}
	got = UniteLiteralSets(a, EmptyLiteralSet())
	if len(got.Prefixes) != 1 || got.Prefixes[0] != "x" || !got.Complete {
		t.Errorf("unite(x, empty) = %+v, want x unchanged", got)
	}
}

func TestAnalyzeReDoS_NestedUnboundedQuantifiersAreHighOrWorse(t *testing.T) {
	res := AnalyzeReDoS("(a+)+", mustParse(t, "(a+)+"), nil)
	if res.Severity < SeverityHigh {
		t.Errorf("Severity = %v, want >= HIGH", res.Severity)
	}
}

func TestAnalyzeReDoS_BoundedQuantifiersAreSafeOrLow(t *testing.T) {
	res := AnalyzeReDoS("a{2,4}", mustParse(t, "a{2,4}"), nil)
	if res.Severity > SeverityLow {
		t.Errorf("Severity = %v, want <= LOW", res.Severity)
	}
}

func TestAnalyzeReDoS_IgnoredPatternIsAlwaysSafe(t *testing.T) {
	res := AnalyzeReDoS("(a+)+", mustParse(t, "(a+)+"), []string{"(a+)+"})
	if res.Severity != SeveritySafe {
		t.Errorf("Severity = %v, want SAFE for an ignored pattern", res.Severity)
	}
}

func TestAnalyzeReDoS_RecommendationsAccompanyNonSafeSeverity(t *testing.T) {
	res := AnalyzeReDoS("(a+)+", mustParse(t, "(a+)+"), nil)
	if len(res.Recommendations) == 0 {
		t.Error("expected at least one recommendation for a HIGH/CRITICAL finding")
	}
}
