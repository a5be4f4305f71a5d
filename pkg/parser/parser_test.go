package parser

import (
	"testing"

	"github.com/perbu/rxlint/pkg/ast"
	"github.com/perbu/rxlint/pkg/rxerr"
)

func mustParse(t *testing.T, body string, xMode bool) ast.Node {
	t.Helper()
	node, errs := Parse(body, xMode, false, nil)
	if len(errs) != 0 {
		t.Fatalf("Parse(%q) returned unexpected errors: %v", body, errs)
	}
	return node
}

func firstErrorKind(errs []*rxerr.Error) rxerr.Kind {
	if len(errs) == 0 {
		return rxerr.Generic
	}
	return errs[0].Kind
}

func TestParse_EmptyPatternIsEpsilonLiteral(t *testing.T) {
	node := mustParse(t, "", false)
	lit, ok := node.(*ast.Literal)
	if !ok {
		t.Fatalf("expected *ast.Literal, got %T", node)
	}
	if lit.Value != "" {
		t.Errorf("expected empty literal value, got %q", lit.Value)
	}
}

func TestParse_PlainLiteralRun(t *testing.T) {
	node := mustParse(t, "abc", false)
	lit, ok := node.(*ast.Literal)
	if !ok {
		t.Fatalf("expected *ast.Literal, got %T", node)
	}
	if lit.Value != "abc" {
		t.Errorf("got %q, want %q", lit.Value, "abc")
	}
}

func TestParse_Alternation(t *testing.T) {
	node := mustParse(t, "a|b|c", false)
	alt, ok := node.(*ast.Alternation)
	if !ok {
		t.Fatalf("expected *ast.Alternation, got %T", node)
	}
	if len(alt.Alternatives) != 3 {
		t.Fatalf("expected 3 alternatives, got %d", len(alt.Alternatives))
	}
}

func TestParse_QuantifierBindsToPrecedingAtom(t *testing.T) {
	node := mustParse(t, "ab*", false)
	seq, ok := node.(*ast.Sequence)
	if !ok {
		t.Fatalf("expected *ast.Sequence, got %T", node)
	}
	if len(seq.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(seq.Children))
	}
	lit, ok := seq.Children[0].(*ast.Literal)
	if !ok || lit.Value != "a" {
		t.Fatalf("expected first child Literal(a), got %#v", seq.Children[0])
	}
	q, ok := seq.Children[1].(*ast.Quantifier)
	if !ok {
		t.Fatalf("expected second child *ast.Quantifier, got %T", seq.Children[1])
	}
	if q.Min != 0 || q.Max != -1 || q.Kind != ast.QuantGreedy {
		t.Errorf("got min=%d max=%d kind=%s, want min=0 max=-1 kind=greedy", q.Min, q.Max, q.Kind)
	}
	inner, ok := q.Child.(*ast.Literal)
	if !ok || inner.Value != "b" {
		t.Fatalf("expected quantifier child Literal(b), got %#v", q.Child)
	}
}

func TestParse_QuantifierBounds(t *testing.T) {
	cases := []struct {
		pattern  string
		min, max int
		kind     string
	}{
		{"a{2,5}", 2, 5, ast.QuantGreedy},
		{"a{3}", 3, 3, ast.QuantGreedy},
		{"a{2,}", 2, -1, ast.QuantGreedy},
		{"a*?", 0, -1, ast.QuantLazy},
		{"a++", 1, -1, ast.QuantPossessive},
	}
	for _, c := range cases {
		node := mustParse(t, c.pattern, false)
		// A single quantified atom is stored directly, not wrapped in a
		// one-child Sequence.
		q, ok := node.(*ast.Quantifier)
		if !ok {
			t.Fatalf("%s: expected *ast.Quantifier, got %T", c.pattern, node)
		}
		if lit, ok := q.Child.(*ast.Literal); !ok || lit.Value != "a" {
			t.Fatalf("%s: expected quantifier child Literal a, got %#v", c.pattern, q.Child)
		}
		if q.Min != c.min || q.Max != c.max || q.Kind != c.kind {
			t.Errorf("%s: got min=%d max=%d kind=%s, want min=%d max=%d kind=%s",
				c.pattern, q.Min, q.Max, q.Kind, c.min, c.max, c.kind)
		}
	}
}

func TestParse_QuantifierWithNoTargetIsAnError(t *testing.T) {
	_, errs := Parse("^*", false, false, nil)
	if firstErrorKind(errs) != rxerr.QuantifierTargetError {
		t.Fatalf("expected QuantifierTargetError, got %v", errs)
	}
}

func TestParse_CharClassRange(t *testing.T) {
	node := mustParse(t, "[a-z]", false)
	cc, ok := node.(*ast.CharClass)
	if !ok {
		t.Fatalf("expected *ast.CharClass, got %T", node)
	}
	if cc.Negated {
		t.Error("expected Negated=false")
	}
	if len(cc.Parts) != 1 {
		t.Fatalf("expected 1 part, got %d", len(cc.Parts))
	}
	rng, ok := cc.Parts[0].(*ast.Range)
	if !ok {
		t.Fatalf("expected *ast.Range, got %T", cc.Parts[0])
	}
	from, ok := rng.From.(*ast.Literal)
	if !ok || from.Value != "a" {
		t.Errorf("expected range From Literal(a), got %#v", rng.From)
	}
	to, ok := rng.To.(*ast.Literal)
	if !ok || to.Value != "z" {
		t.Errorf("expected range To Literal(z), got %#v", rng.To)
	}
}

func TestParse_CharClassNegated(t *testing.T) {
	node := mustParse(t, "[^abc]", false)
	cc, ok := node.(*ast.CharClass)
	if !ok {
		t.Fatalf("expected *ast.CharClass, got %T", node)
	}
	if !cc.Negated {
		t.Error("expected Negated=true")
	}
	if len(cc.Parts) != 3 {
		t.Errorf("expected 3 parts, got %d", len(cc.Parts))
	}
}

func TestParse_CharClassOperation(t *testing.T) {
	node := mustParse(t, "[a-z&&aeiou]", false)
	cc, ok := node.(*ast.CharClass)
	if !ok {
		t.Fatalf("expected *ast.CharClass, got %T", node)
	}
	if cc.Operation == nil {
		t.Fatalf("expected Operation to be set, Parts=%v", cc.Parts)
	}
	if cc.Operation.Kind != ast.ClassIntersection {
		t.Errorf("got kind %s, want intersection", cc.Operation.Kind)
	}
	if len(cc.Operation.Left.Parts) != 1 {
		t.Errorf("expected left operand to carry 1 part (the a-z range), got %d", len(cc.Operation.Left.Parts))
	}
	if len(cc.Operation.Right.Parts) != 5 {
		t.Errorf("expected right operand to carry 5 literal parts, got %d", len(cc.Operation.Right.Parts))
	}
}

func TestParse_CharClassNestedOperand(t *testing.T) {
	node := mustParse(t, "[a-z&&[^aeiou]]", false)
	cc, ok := node.(*ast.CharClass)
	if !ok {
		t.Fatalf("expected *ast.CharClass, got %T", node)
	}
	if cc.Operation == nil {
		t.Fatalf("expected Operation to be set, Parts=%v", cc.Parts)
	}
	if cc.Operation.Kind != ast.ClassIntersection {
		t.Errorf("got kind %s, want intersection", cc.Operation.Kind)
	}
	if len(cc.Operation.Left.Parts) != 1 {
		t.Fatalf("expected left operand to carry the a-z range, got %v", cc.Operation.Left.Parts)
	}
	if _, ok := cc.Operation.Left.Parts[0].(*ast.Range); !ok {
		t.Errorf("left part is %T, want *ast.Range", cc.Operation.Left.Parts[0])
	}
	right := cc.Operation.Right
	if !right.Negated {
		t.Error("expected the nested class operand to keep its negation")
	}
	if len(right.Parts) != 5 {
		t.Errorf("expected 5 vowel parts in the nested class, got %d", len(right.Parts))
	}
}

func TestParse_RangeEndpointCharTypeIsAccepted(t *testing.T) {
	node := mustParse(t, `[\d-z]`, false)
	cc, ok := node.(*ast.CharClass)
	if !ok || len(cc.Parts) != 1 {
		t.Fatalf("expected a single-part CharClass, got %#v", node)
	}
	rng, ok := cc.Parts[0].(*ast.Range)
	if !ok {
		t.Fatalf("expected *ast.Range, got %T", cc.Parts[0])
	}
	if _, ok := rng.From.(*ast.CharType); !ok {
		t.Errorf("range From is %T, want *ast.CharType", rng.From)
	}
}

func TestParse_RangeEndpointClassIsRejected(t *testing.T) {
	_, errs := Parse("[[^a]-z]", false, false, nil)
	if firstErrorKind(errs) != rxerr.CharClassRangeError {
		t.Fatalf("expected CharClassRangeError, got %v", errs)
	}
}

func TestParse_QuantifierBoundsOutOfOrder(t *testing.T) {
	_, errs := Parse("a{5,2}", false, false, nil)
	if firstErrorKind(errs) != rxerr.QuantifierSyntaxError {
		t.Fatalf("expected QuantifierSyntaxError, got %v", errs)
	}
}

func TestParse_CharClassUnterminatedIsAnError(t *testing.T) {
	_, errs := Parse("[abc", false, false, nil)
	if firstErrorKind(errs) != rxerr.UnterminatedClassError {
		t.Fatalf("expected UnterminatedClassError, got %v", errs)
	}
}

func TestParse_PlainCapturingGroup(t *testing.T) {
	node := mustParse(t, "(a)", false)
	g, ok := node.(*ast.Group)
	if !ok {
		t.Fatalf("expected *ast.Group, got %T", node)
	}
	if g.Kind != ast.GroupCapturing {
		t.Errorf("got kind %s, want capturing", g.Kind)
	}
}

func TestParse_GroupKindDispatch(t *testing.T) {
	cases := []struct {
		pattern string
		kind    string
	}{
		{"(?:a)", ast.GroupNonCapturing},
		{"(?>a)", ast.GroupAtomic},
		{"(?=a)", ast.GroupLookahead},
		{"(?!a)", ast.GroupNegLookahead},
		{"(?<=a)", ast.GroupLookbehind},
		{"(?<!a)", ast.GroupNegLookbehind},
		{"(?|(a)|(b))", ast.GroupBranchReset},
		{"(?i:a)", ast.GroupModifierSpan},
	}
	for _, c := range cases {
		node := mustParse(t, c.pattern, false)
		g, ok := node.(*ast.Group)
		if !ok {
			t.Fatalf("%s: expected *ast.Group, got %T", c.pattern, node)
		}
		if g.Kind != c.kind {
			t.Errorf("%s: got kind %s, want %s", c.pattern, g.Kind, c.kind)
		}
	}
}

func TestParse_NamedGroupSyntaxes(t *testing.T) {
	for _, pattern := range []string{"(?<name>a)", "(?P<name>a)", "(?'name'a)"} {
		node := mustParse(t, pattern, false)
		g, ok := node.(*ast.Group)
		if !ok {
			t.Fatalf("%s: expected *ast.Group, got %T", pattern, node)
		}
		if g.Kind != ast.GroupNamed || g.Name != "name" {
			t.Errorf("%s: got kind=%s name=%s, want named/name", pattern, g.Kind, g.Name)
		}
	}
}

func TestParse_InlineFlagsBareSpan(t *testing.T) {
	node := mustParse(t, "(?i)abc", false)
	seq, ok := node.(*ast.Sequence)
	if !ok {
		t.Fatalf("expected *ast.Sequence, got %T", node)
	}
	g, ok := seq.Children[0].(*ast.Group)
	if !ok || g.Kind != ast.GroupInlineFlags || g.Flags != "i" {
		t.Fatalf("expected leading inline-flags group, got %#v", seq.Children[0])
	}
}

func TestParse_InlineFlagOutsideAlphabetIsRejected(t *testing.T) {
	_, errs := Parse("(?r)a", false, false, nil)
	if firstErrorKind(errs) != rxerr.UnknownGroupModifierError {
		t.Fatalf("expected UnknownGroupModifierError for the gated 'r' flag, got %v", errs)
	}
}

func TestParse_InlineRFlagAcceptedWhenEnabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.REnabled = true
	_, errs := Parse("(?r)a", false, false, cfg)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors with REnabled: %v", errs)
	}
}

func TestParse_SubroutineAndRecursionForms(t *testing.T) {
	cases := []struct {
		pattern string
		ref     string
	}{
		{"(?&name)", "name"},
		{"(?1)", "1"},
		{"(?-1)", "-1"},
		{"(?R)", "0"},
	}
	for _, c := range cases {
		node := mustParse(t, c.pattern, false)
		s, ok := node.(*ast.Subroutine)
		if !ok {
			t.Fatalf("%s: expected *ast.Subroutine, got %T", c.pattern, node)
		}
		if s.Reference != c.ref {
			t.Errorf("%s: got reference %q, want %q", c.pattern, s.Reference, c.ref)
		}
	}
}

func TestParse_ConditionalNumericBackref(t *testing.T) {
	node := mustParse(t, "(?(1)a|b)", false)
	cond, ok := node.(*ast.Conditional)
	if !ok {
		t.Fatalf("expected *ast.Conditional, got %T", node)
	}
	ref, ok := cond.Condition.(*ast.Backref)
	if !ok || ref.IsNamed || ref.Number != 1 {
		t.Fatalf("expected numeric Backref(1) condition, got %#v", cond.Condition)
	}
	if cond.No == nil {
		t.Error("expected a No branch")
	}
}

func TestParse_ConditionalNamedBackref(t *testing.T) {
	node := mustParse(t, "(?(<name>)a)", false)
	cond, ok := node.(*ast.Conditional)
	if !ok {
		t.Fatalf("expected *ast.Conditional, got %T", node)
	}
	ref, ok := cond.Condition.(*ast.Backref)
	if !ok || !ref.IsNamed || ref.Name != "name" {
		t.Fatalf("expected named Backref condition, got %#v", cond.Condition)
	}
	if cond.No != nil {
		t.Error("expected no No branch")
	}
}

func TestParse_ConditionalBareName(t *testing.T) {
	node := mustParse(t, "(?(foo)a|b)", false)
	cond, ok := node.(*ast.Conditional)
	if !ok {
		t.Fatalf("expected *ast.Conditional, got %T", node)
	}
	ref, ok := cond.Condition.(*ast.Backref)
	if !ok || !ref.IsNamed || ref.Name != "foo" {
		t.Fatalf("expected named Backref(foo) condition, got %#v", cond.Condition)
	}
	if cond.No == nil {
		t.Error("expected a No branch")
	}
}

func TestParse_ConditionalLookaround(t *testing.T) {
	node := mustParse(t, "(?(?=a)b|c)", false)
	cond, ok := node.(*ast.Conditional)
	if !ok {
		t.Fatalf("expected *ast.Conditional, got %T", node)
	}
	g, ok := cond.Condition.(*ast.Group)
	if !ok || g.Kind != ast.GroupLookahead {
		t.Fatalf("expected lookahead Group condition, got %#v", cond.Condition)
	}
}

func TestParse_Define(t *testing.T) {
	node := mustParse(t, "(?(DEFINE)(?<num>[0-9]+))", false)
	def, ok := node.(*ast.Define)
	if !ok {
		t.Fatalf("expected *ast.Define, got %T", node)
	}
	g, ok := def.Content.(*ast.Group)
	if !ok || g.Kind != ast.GroupNamed || g.Name != "num" {
		t.Fatalf("expected named group content, got %#v", def.Content)
	}
}

func TestParse_DuplicateGroupNameRejectedByDefault(t *testing.T) {
	_, errs := Parse("(?<n>a)(?<n>b)", false, false, nil)
	if firstErrorKind(errs) != rxerr.NameError {
		t.Fatalf("expected NameError, got %v", errs)
	}
}

func TestParse_DuplicateGroupNameAllowedUnderJModifier(t *testing.T) {
	node, errs := Parse("(?<n>a)(?<n>b)", false, true, nil)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors under J modifier: %v", errs)
	}
	if node == nil {
		t.Fatal("expected a parsed node")
	}
}

func TestParse_BackreferenceNumericAndNamed(t *testing.T) {
	node := mustParse(t, `(a)\1`, false)
	seq, ok := node.(*ast.Sequence)
	if !ok {
		t.Fatalf("expected *ast.Sequence, got %T", node)
	}
	ref, ok := seq.Children[1].(*ast.Backref)
	if !ok || ref.IsNamed || ref.Number != 1 {
		t.Fatalf("expected numeric Backref(1), got %#v", seq.Children[1])
	}

	node = mustParse(t, `(?<n>a)\k<n>`, false)
	seq, ok = node.(*ast.Sequence)
	if !ok {
		t.Fatalf("expected *ast.Sequence, got %T", node)
	}
	named, ok := seq.Children[1].(*ast.Backref)
	if !ok || !named.IsNamed || named.Name != "n" {
		t.Fatalf("expected named Backref(n), got %#v", seq.Children[1])
	}
}

func TestParse_UnicodeAndControlEscapes(t *testing.T) {
	node := mustParse(t, `\x41`, false)
	cl, ok := node.(*ast.CharLiteral)
	if !ok || cl.Kind != ast.CharUnicode || cl.CodePoint != 0x41 {
		t.Fatalf("expected CharLiteral(unicode, 0x41), got %#v", node)
	}

	node = mustParse(t, `\cA`, false)
	cc, ok := node.(*ast.ControlChar)
	if !ok || cc.CodePoint != rune('A'^0x40) {
		t.Fatalf("expected ControlChar with codepoint 1, got %#v", node)
	}
}

func TestParse_PosixClassInsideCharClass(t *testing.T) {
	node := mustParse(t, "[[:alpha:]]", false)
	cc, ok := node.(*ast.CharClass)
	if !ok || len(cc.Parts) != 1 {
		t.Fatalf("expected a single-part CharClass, got %#v", node)
	}
	posix, ok := cc.Parts[0].(*ast.PosixClass)
	if !ok || posix.Name != "alpha" || posix.Negated {
		t.Fatalf("expected PosixClass(alpha), got %#v", cc.Parts[0])
	}
}

func TestParse_ResourceLimitRecursionDepth(t *testing.T) {
	pattern := ""
	for i := 0; i < 50; i++ {
		pattern += "("
	}
	for i := 0; i < 50; i++ {
		pattern += ")"
	}
	cfg := DefaultConfig()
	cfg.MaxRecursionDepth = 5
	_, errs := Parse(pattern, false, false, cfg)
	if firstErrorKind(errs) != rxerr.RecursionLimitError {
		t.Fatalf("expected RecursionLimitError, got %v", errs)
	}
}

func TestParse_ResourceLimitMaxNodes(t *testing.T) {
	pattern := ""
	for i := 0; i < 50; i++ {
		pattern += "a|"
	}
	pattern += "a"
	cfg := DefaultConfig()
	cfg.MaxNodes = 10
	_, errs := Parse(pattern, false, false, cfg)
	if firstErrorKind(errs) != rxerr.ResourceLimitError {
		t.Fatalf("expected ResourceLimitError, got %v", errs)
	}
}

func TestParse_ExtendedModeTriviaBecomesComments(t *testing.T) {
	node := mustParse(t, "a # trailing note\nb", true)
	seq, ok := node.(*ast.Sequence)
	if !ok {
		t.Fatalf("expected *ast.Sequence, got %T", node)
	}
	var sawComment bool
	for _, c := range seq.Children {
		if cm, ok := c.(*ast.Comment); ok {
			sawComment = true
			if cm.Text == "" {
				t.Error("expected non-empty comment text")
			}
		}
	}
	if !sawComment {
		t.Errorf("expected at least one Comment child, got %#v", seq.Children)
	}
}

func TestParse_QuoteModeIsPlainLiteral(t *testing.T) {
	node := mustParse(t, `\Qa.b\E.c`, false)
	seq, ok := node.(*ast.Sequence)
	if !ok {
		t.Fatalf("expected *ast.Sequence, got %T", node)
	}
	lit, ok := seq.Children[0].(*ast.Literal)
	if !ok || lit.Value != "a.b" {
		t.Fatalf("expected quoted span as Literal(a.b), got %#v", seq.Children[0])
	}
	if _, ok := seq.Children[1].(*ast.Dot); !ok {
		t.Fatalf("expected unescaped dot after \\E, got %#v", seq.Children[1])
	}
}
