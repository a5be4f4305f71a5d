package rxlint

import (
	"fmt"
	"strings"

	"github.com/perbu/rxlint/pkg/analyzer"
	"github.com/perbu/rxlint/pkg/ast"
	"github.com/perbu/rxlint/pkg/cache"
	"github.com/perbu/rxlint/pkg/config"
	"github.com/perbu/rxlint/pkg/lexer"
	"github.com/perbu/rxlint/pkg/parser"
	"github.com/perbu/rxlint/pkg/rxerr"
	"github.com/perbu/rxlint/pkg/splitter"
	"github.com/perbu/rxlint/pkg/token"
)

// New validates cfg and builds a Facade. A nil Options falls back to
// config.Default(); a nil Logger is rejected rather than silently
// defaulted, so misconfiguration surfaces at construction.
func New(cfg *Config) (*Facade, error) {
	if cfg == nil {
		return nil, fmt.Errorf("rxlint: config cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("rxlint: logger cannot be nil")
	}
	opts := cfg.Options
	if opts == nil {
		opts = config.Default()
	}
	if opts.Cache == config.CachePersistent && (cfg.Store == nil || cfg.Broker == nil) {
		return nil, fmt.Errorf("rxlint: cache mode %q requires a Store and a Broker", opts.Cache)
	}

	var pc *cache.ParseCache
	if opts.Cache != config.CacheNone {
		pc = cache.New(cfg.Store, cfg.Broker, cfg.Logger)
	}

	return &Facade{
		opts:      opts,
		cache:     pc,
		logger:    cfg.Logger,
		validator: analyzer.ValidatorConfig{MaxLookbehindLength: opts.MaxLookbehindLength},
	}, nil
}

func (f *Facade) parserConfig() *parser.Config {
	return &parser.Config{
		MaxRecursionDepth:  f.opts.MaxRecursionDepth,
		MaxNodes:           f.opts.MaxNodes,
		InlineFlagAlphabet: f.opts.AllowedGroupModifierFlags,
		REnabled:           f.opts.RModifierEnabled(),
	}
}

func (f *Facade) allowedFlags() string {
	if f.opts.AllowedFlags != "" {
		return f.opts.AllowedFlags
	}
	return splitter.DefaultAllowedFlags
}

// split runs the pattern splitter plus the facade's own
// MaxPatternLength gate, ahead of even handing the body to the lexer.
func (f *Facade) split(source string) (splitter.Result, error) {
	if len(source) > f.opts.MaxPatternLength {
		return splitter.Result{}, rxerr.At(rxerr.ResourceLimitError,
			fmt.Sprintf("source is %d bytes, exceeds the configured maximum of %d", len(source), f.opts.MaxPatternLength),
			source, f.opts.MaxPatternLength)
	}
	return splitter.Split(source, f.allowedFlags())
}

// wrap builds the Regex root node every parse returns, wrapping the
// parsed pattern body with the split's flags and delimiter.
func wrap(source string, r splitter.Result, pattern ast.Node) *ast.Regex {
	start := token.Position{Offset: 0}
	end := token.Position{Offset: len(source)}
	return &ast.Regex{
		BaseNode:  ast.BaseNode{StartPos: start, EndPos: end},
		Pattern:   pattern,
		Flags:     r.Flags,
		Delimiter: r.Delimiter,
		Length:    len(r.Pattern),
	}
}

func hasFlag(flags string, c byte) bool {
	return strings.IndexByte(flags, c) >= 0
}

// parsePatternBody runs the lexer/parser stage alone, given an already
// split (or directly supplied) pattern body and flags.
func (f *Facade) parsePatternBody(pattern, flags string) (ast.Node, []*rxerr.Error) {
	xMode := hasFlag(flags, 'x')
	jMod := hasFlag(flags, 'J')
	return parser.Parse(pattern, xMode, jMod, f.parserConfig())
}

// Parse turns a delimited source into a Regex AST, routed through
// ParseCache when caching is enabled.
func (f *Facade) Parse(source string) (ast.Node, error) {
	if f.cache == nil {
		return f.parseUncached(source)
	}
	return f.cache.Get(cache.Key(source), func() (ast.Node, error) {
		return f.parseUncached(source)
	})
}

func (f *Facade) parseUncached(source string) (ast.Node, error) {
	r, err := f.split(source)
	if err != nil {
		return nil, err
	}
	pattern, errs := f.parsePatternBody(r.Pattern, r.Flags)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return wrap(source, r, pattern), nil
}

// ParseTolerant is the best-effort variant of Parse: on any failure it
// still returns a Regex AST, whose Pattern is a single Literal holding
// the valid prefix up to the first error's offset, alongside every
// captured error.
func (f *Facade) ParseTolerant(source string) (ast.Node, []*rxerr.Error) {
	r, splitErr := f.split(source)
	if splitErr != nil {
		rxe := asRxerr(splitErr)
		offset := 0
		if rxe.Offset != nil && *rxe.Offset <= len(source) {
			offset = *rxe.Offset
		}
		f.logger.Warn("tolerant parse recovered from split failure", "error", rxe.Message)
		return fallbackRegex(source, source[:offset], offset), []*rxerr.Error{rxe}
	}

	pattern, errs := f.parsePatternBody(r.Pattern, r.Flags)
	if len(errs) == 0 {
		return wrap(source, r, pattern), nil
	}
	offset := errs[0].Offset
	truncateAt := len(r.Pattern)
	if offset != nil && *offset < truncateAt {
		truncateAt = *offset
	}
	f.logger.Warn("tolerant parse recovered from parse failure", "errors", len(errs), "offset", truncateAt)
	return fallbackRegex(source, r.Pattern[:truncateAt], truncateAt), errs
}

func asRxerr(err error) *rxerr.Error {
	if rxe, ok := err.(*rxerr.Error); ok {
		return rxe
	}
	return rxerr.New(rxerr.Generic, err.Error())
}

func fallbackRegex(source, prefix string, truncateAt int) *ast.Regex {
	pos := token.Position{Offset: 0}
	endPos := token.Position{Offset: truncateAt}
	lit := &ast.Literal{BaseNode: ast.BaseNode{StartPos: pos, EndPos: endPos}, Value: prefix}
	return &ast.Regex{
		BaseNode: ast.BaseNode{StartPos: pos, EndPos: token.Position{Offset: len(source)}},
		Pattern:  lit,
		Length:   len(prefix),
	}
}

// regexBody returns the Pattern child of root when root is a
// *ast.Regex, or root itself otherwise (callers may also pass a bare
// pattern node built by parsePattern).
func regexBody(root ast.Node) ast.Node {
	if r, ok := root.(*ast.Regex); ok {
		return r.Pattern
	}
	return root
}

// Validate parses source and runs the structural validator plus the
// complexity scorer over the result. A failed parse surfaces as a
// failed-state result rather than propagating as an error.
func (f *Facade) Validate(source string) analyzer.ValidationResult {
	root, err := f.Parse(source)
	if err != nil {
		return analyzer.ValidationResult{Valid: false, Problems: []analyzer.Problem{
			{Kind: "parse-error", Severity: analyzer.SeverityError, Message: err.Error()},
		}}
	}
	numbering := ast.CollectGroupNumbering(regexBody(root))
	result := analyzer.Validate(source, regexBody(root), numbering, f.validator)
	result.Complexity = analyzer.Complexity(regexBody(root))
	return result
}

// Literals extracts the guaranteed prefix/suffix literal sets of
// source's matches.
func (f *Facade) Literals(source string) (analyzer.LiteralSet, error) {
	root, err := f.Parse(source)
	if err != nil {
		return analyzer.EmptyLiteralSet(), err
	}
	return analyzer.ExtractLiterals(regexBody(root)), nil
}

// ReDoS profiles source for catastrophic-backtracking shapes.
// threshold is optional; pass -1 to omit it. When given, the second
// return reports whether the severity meets or exceeds it.
func (f *Facade) ReDoS(source string, threshold analyzer.Severity) (analyzer.ReDoSAnalysis, bool, error) {
	root, err := f.Parse(source)
	if err != nil {
		return analyzer.ReDoSAnalysis{}, false, err
	}
	result := analyzer.AnalyzeReDoS(source, regexBody(root), f.opts.RedosIgnoredPatterns)
	exceedsThreshold := threshold >= 0 && result.Severity >= threshold
	return result, exceedsThreshold, nil
}

// Tokenize splits source and runs the lexer alone, without the parser,
// returning the resulting token stream.
func (f *Facade) Tokenize(source string) (*token.Stream, error) {
	r, err := f.split(source)
	if err != nil {
		return nil, err
	}
	return token.NewStream(lexer.TokenizeAll(r.Pattern, hasFlag(r.Flags, 'x'))), nil
}

// ParsePattern parses an already-split (body, flags, delimiter) triple
// through the same pipeline Parse uses, bypassing the splitter.
func (f *Facade) ParsePattern(body, flags string, delimiter byte) (ast.Node, error) {
	pattern, errs := f.parsePatternBody(body, flags)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	r := splitter.Result{Pattern: body, Flags: flags, Delimiter: delimiter}
	source := string(delimiter) + body + string(splitter.ClosingDelimiter(delimiter)) + flags
	return wrap(source, r, pattern), nil
}
