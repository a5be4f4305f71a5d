package analyzer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/perbu/rxlint/pkg/ast"
	"github.com/perbu/rxlint/pkg/rxerr"
)

// ValidatorConfig holds the limits Validate enforces beyond what the
// parser itself already rejects.
type ValidatorConfig struct {
	// MaxLookbehindLength bounds a lookbehind's rendered width, in
	// codepoints; PCRE2's variable-length lookbehind support still caps
	// the total span.
	MaxLookbehindLength int
}

// DefaultValidatorConfig mirrors config.Default()'s MaxLookbehindLength
// without importing pkg/config, which would create an import cycle
// with the facade that constructs both.
func DefaultValidatorConfig() ValidatorConfig {
	return ValidatorConfig{MaxLookbehindLength: 255}
}

// ValidationResult is the facade-level outcome of Validate: Valid is
// false whenever any reported Problem is SeverityError.
type ValidationResult struct {
	Valid      bool
	Complexity int
	Problems   []Problem
}

// knownVerbs is the closed set of PCRE2 control/callout verb names
// Validate recognizes inside "(*NAME)" or "(*NAME:ARG)".
var knownVerbs = map[string]bool{
	"FAIL": true, "F": true, "ACCEPT": true, "COMMIT": true,
	"PRUNE": true, "SKIP": true, "THEN": true, "MARK": true,
	"NOTEMPTY": true, "NOTEMPTY_ATSTART": true,
	"NO_AUTO_POSSESS": true, "NO_START_OPT": true,
	"UTF": true, "UCP": true, "CR": true, "LF": true,
	"CRLF": true, "ANYCRLF": true, "ANY": true,
	"LIMIT_MATCH": true, "LIMIT_RECURSION": true, "LIMIT_DEPTH": true,
}

// Validate walks root reporting every non-fatal structural Problem:
// dangling backreferences and subroutine calls, lookbehinds
// over MaxLookbehindLength, conflicting inline flags, unrecognized
// control verbs, and malformed conditional conditions. It never
// raises; an internal inconsistency surfaces as a Problem instead of a
// panic escaping to the caller.
func Validate(source string, root ast.Node, numbering ast.GroupNumbering, cfg ValidatorConfig) ValidationResult {
	v := &validator{source: source, numbering: numbering, cfg: cfg}
	v.walk(root)

	valid := true
	for _, p := range v.problems {
		if p.Severity == SeverityError {
			valid = false
			break
		}
	}
	return ValidationResult{Valid: valid, Problems: v.problems}
}

type validator struct {
	source    string
	numbering ast.GroupNumbering
	cfg       ValidatorConfig
	problems  []Problem
}

func (v *validator) report(kind string, sev ProblemSeverity, message string, offset int, suggestion string) {
	v.problems = append(v.problems, Problem{
		Kind:       kind,
		Severity:   sev,
		Message:    message,
		Offset:     offset,
		Snippet:    rxerr.Snippet(v.source, offset),
		Suggestion: suggestion,
	})
}

func (v *validator) walk(n ast.Node) {
	if n == nil {
		return
	}
	switch node := n.(type) {
	case *ast.Group:
		v.checkGroup(node)
		v.walk(node.Child)
		return
	case *ast.Backref:
		v.checkBackref(node)
		return
	case *ast.Subroutine:
		v.checkSubroutine(node)
		return
	case *ast.PcreVerb:
		v.checkVerb(node)
		return
	case *ast.Conditional:
		v.checkConditional(node)
		v.walk(node.Yes)
		v.walk(node.No)
		return
	}
	for _, c := range ast.Children(n) {
		v.walk(c)
	}
}

func (v *validator) checkGroup(g *ast.Group) {
	switch g.Kind {
	case ast.GroupLookbehind, ast.GroupNegLookbehind:
		width := utf8.RuneCountInString(ast.Render(g.Child))
		if width > v.cfg.MaxLookbehindLength {
			v.report("lookbehind-too-long", SeverityError,
				fmt.Sprintf("lookbehind is %d codepoints wide, exceeds the configured maximum of %d", width, v.cfg.MaxLookbehindLength),
				g.Start().Offset,
				"shorten the lookbehind or raise MaxLookbehindLength")
		}
	case ast.GroupInlineFlags, ast.GroupModifierSpan:
		added, removed := splitFlagDelta(g.Flags)
		if conflict := flagIntersection(added, removed); conflict != "" {
			v.report("conflicting-inline-flags", SeverityError,
				fmt.Sprintf("flag(s) %q are both set and unset in the same group", conflict),
				g.Start().Offset,
				"remove the conflicting letter from one side of the '-'")
		}
	}
}

func (v *validator) checkBackref(b *ast.Backref) {
	ref := backrefRef(b)
	if _, ok := v.numbering.Lookup(ref); !ok {
		v.report("dangling-backref", SeverityError,
			fmt.Sprintf("backreference to %q does not refer to any capturing group", ref),
			b.Start().Offset,
			"check the group number or name, or remove the backreference")
	}
}

func (v *validator) checkSubroutine(s *ast.Subroutine) {
	if !v.subroutineResolves(s.Reference) {
		v.report("dangling-subroutine", SeverityError,
			fmt.Sprintf("subroutine call %q does not refer to any capturing group", s.Reference),
			s.Start().Offset,
			"check the group number or name")
	}
}

func (v *validator) checkVerb(p *ast.PcreVerb) {
	name := p.Verb
	if i := strings.IndexByte(name, ':'); i >= 0 {
		name = name[:i]
	}
	if !knownVerbs[name] {
		v.report("unknown-verb", SeverityWarning,
			fmt.Sprintf("(*%s) is not a recognized PCRE control verb", name),
			p.Start().Offset,
			"check for a typo in the verb name")
	}
}

func (v *validator) checkConditional(c *ast.Conditional) {
	if !v.validCondition(c.Condition) {
		v.report("invalid-condition", SeverityError,
			"a conditional's condition must be a group reference, lookaround, recursion test, or DEFINE",
			c.Start().Offset, "")
		return
	}
	if ref, ok := c.Condition.(*ast.Backref); ok {
		if _, ok := v.numbering.Lookup(backrefRef(ref)); !ok {
			v.report("dangling-condition-reference", SeverityError,
				fmt.Sprintf("conditional references group %q, which does not exist", backrefRef(ref)),
				c.Start().Offset, "")
		}
	}
}

func (v *validator) validCondition(n ast.Node) bool {
	switch node := n.(type) {
	case *ast.Backref:
		return true
	case *ast.Subroutine:
		return true
	case *ast.Group:
		switch node.Kind {
		case ast.GroupLookahead, ast.GroupNegLookahead, ast.GroupLookbehind, ast.GroupNegLookbehind:
			return true
		}
		return false
	case *ast.Define:
		return true
	default:
		return false
	}
}

func (v *validator) subroutineResolves(ref string) bool {
	if ref == "0" || ref == "R" {
		return true
	}
	if strings.HasPrefix(ref, "+") || strings.HasPrefix(ref, "-") {
		// Relative subroutine references ((?+1), (?-1)) are resolved
		// against the enclosing group's position, which GroupNumbering
		// doesn't track; accept them rather than false-positive.
		return true
	}
	if _, err := strconv.Atoi(ref); err == nil {
		_, ok := v.numbering.Lookup(ref)
		return ok
	}
	_, ok := v.numbering.Lookup(ref)
	return ok
}

func backrefRef(b *ast.Backref) string {
	if b.IsNamed {
		return b.Name
	}
	return strconv.Itoa(b.Number)
}

// splitFlagDelta splits a group-header flags string such as "i-ms"
// into the letters being added ("i") and the letters being removed
// ("ms"), ignoring the unicode/leading "^" marker some group kinds use.
func splitFlagDelta(flags string) (added, removed string) {
	adding := true
	for i := 0; i < len(flags); i++ {
		switch flags[i] {
		case '^':
			continue
		case '-':
			adding = false
		default:
			if adding {
				added += string(flags[i])
			} else {
				removed += string(flags[i])
			}
		}
	}
	return added, removed
}

func flagIntersection(a, b string) string {
	var out []byte
	for i := 0; i < len(a); i++ {
		if strings.IndexByte(b, a[i]) >= 0 {
			out = append(out, a[i])
		}
	}
	return string(out)
}
