// Package analyzer implements the four independent analyzers that run
// over a parsed AST: the structural validator, a complexity scorer,
// the literal extractor, and the ReDoS profiler. None of them raise —
// analyzers observe and report findings; only the parser raises.
package analyzer

// ProblemSeverity classifies a Problem the Validator reports.
type ProblemSeverity string

const (
	SeverityInfo    ProblemSeverity = "info"
	SeverityWarning ProblemSeverity = "warning"
	SeverityError   ProblemSeverity = "error"
)

// Problem is one finding the Validator reports against a pattern: a
// typed kind, a severity, a human message, the byte offset it
// concerns, a rendered snippet, and an optional fix suggestion.
type Problem struct {
	Kind       string
	Severity   ProblemSeverity
	Message    string
	Offset     int
	Snippet    string
	Suggestion string
}
