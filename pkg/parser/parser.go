// Package parser implements a recursive-descent PCRE grammar: it
// consumes a token.Stream (and, for the handful of constructs the
// lexer can't tokenize unambiguously — "(?..." group headers and
// conditionals — the raw pattern source directly) and produces a typed
// ast.Node tree. Errors accumulate rather than abort: a malformed atom
// is reported and skipped so the rest of the pattern still parses.
package parser

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/perbu/rxlint/pkg/ast"
	"github.com/perbu/rxlint/pkg/lexer"
	"github.com/perbu/rxlint/pkg/rxerr"
	"github.com/perbu/rxlint/pkg/token"
)

// Parser holds all per-parse state. A Parser is not reused across
// calls to Parse; group-name registries and resource counters are
// strictly per-operation.
type Parser struct {
	source string
	xMode  bool
	cfg    *Config
	stream *token.Stream

	errors  []*rxerr.Error
	aborted bool // set once a resource limit fires; short-circuits further recursion
	depth   int
	nodes   int

	jModifier  bool
	groupNames map[string]bool
}

// Parse tokenizes and parses body (the pattern text between
// delimiters, as PatternSplitter returns it) under xMode and jModifier
// (whether the 'x' and 'J' top-level flags were set) and returns the
// top-level node plus any errors collected along the way. A non-empty
// error list does not necessarily mean node is nil — panic-mode
// recovery may still produce a partial tree.
func Parse(body string, xMode, jModifier bool, cfg *Config) (ast.Node, []*rxerr.Error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	toks := lexer.TokenizeAll(body, xMode)
	p := &Parser{
		source:     body,
		xMode:      xMode,
		jModifier:  jModifier,
		cfg:        cfg,
		stream:     token.NewStream(toks),
		groupNames: make(map[string]bool),
	}
	node := p.parseAlternation()
	if !p.curIs(token.EOF) && !p.aborted {
		p.errorAt(rxerr.ParserError, fmt.Sprintf("unexpected %s after pattern", p.cur().Type))
	}
	return node, p.errors
}

func (p *Parser) cur() token.Token        { return p.stream.Current() }
func (p *Parser) curIs(t token.Type) bool { return p.cur().Type == t }
func (p *Parser) advance()                { p.stream.Advance() }

// resyncAt discards the remainder of the current token stream and
// relexes p.source from byte offset, preserving xMode. Used after
// hand-scanning a raw "(?..." header whose length the lexer could not
// have known about.
func (p *Parser) resyncAt(offset int) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(p.source) {
		offset = len(p.source)
	}
	toks := lexer.TokenizeAll(p.source[offset:], p.xMode)
	for i := range toks {
		toks[i].Pos.Offset += offset
		toks[i].Pos.Column += offset
	}
	p.stream = token.NewStream(toks)
}

func (p *Parser) errorAt(kind rxerr.Kind, message string) {
	p.errors = append(p.errors, rxerr.At(kind, message, p.source, p.cur().Pos.Offset))
}

func (p *Parser) errorAtOffset(kind rxerr.Kind, message string, offset int) {
	p.errors = append(p.errors, rxerr.At(kind, message, p.source, offset))
}

// fail records a resource-limit error and aborts the remainder of the
// parse: no further node construction is attempted, so a limit trip
// can never hand the caller a corrupt tree.
func (p *Parser) fail(kind rxerr.Kind, message string) {
	p.errorAt(kind, message)
	p.aborted = true
}

// enter bumps the recursion-depth counter on entry to any production
// that can recurse, returning false (and recording RecursionLimitError)
// once the configured bound is exceeded.
func (p *Parser) enter() bool {
	if p.aborted {
		return false
	}
	p.depth++
	if p.depth > p.cfg.MaxRecursionDepth {
		p.fail(rxerr.RecursionLimitError, fmt.Sprintf("recursion depth exceeds %d", p.cfg.MaxRecursionDepth))
		return false
	}
	return true
}

func (p *Parser) leave() { p.depth-- }

// mk registers one node construction against the node-count budget and
// returns n unchanged, so call sites can wrap every node literal:
// return p.mk(&ast.Dot{...}).
func (p *Parser) mk(n ast.Node) ast.Node {
	p.nodes++
	if p.nodes > p.cfg.MaxNodes && !p.aborted {
		p.fail(rxerr.ResourceLimitError, fmt.Sprintf("node count exceeds %d", p.cfg.MaxNodes))
	}
	return n
}

func epsilonLiteral(pos token.Position) *ast.Literal {
	return &ast.Literal{BaseNode: ast.BaseNode{StartPos: pos, EndPos: pos}}
}

// parseAlternation implements "alternation := sequence ('|' sequence)*".
func (p *Parser) parseAlternation() ast.Node {
	if !p.enter() {
		return epsilonLiteral(p.cur().Pos)
	}
	defer p.leave()

	start := p.cur().Pos
	alts := []ast.Node{p.parseSequence()}
	for p.curIs(token.T_ALTERNATION) && !p.aborted {
		p.advance()
		alts = append(alts, p.parseSequence())
	}
	if len(alts) == 1 {
		return alts[0]
	}
	end := alts[len(alts)-1].End()
	return p.mk(&ast.Alternation{BaseNode: ast.BaseNode{StartPos: start, EndPos: end}, Alternatives: alts})
}

// atSequenceEnd reports whether the current token ends a sequence: the
// top-level EOF, an alternation bar, or a group/conditional closer
// that belongs to an enclosing production.
func (p *Parser) atSequenceEnd() bool {
	switch p.cur().Type {
	case token.EOF, token.T_ALTERNATION, token.T_GROUP_CLOSE:
		return true
	default:
		return false
	}
}

// parseSequence implements "sequence := (quantified_atom | comment_x |
// quoted_silent)*"; \Q...\E is fully resolved at the lexer level so
// there is no separate quoted_silent production here.
func (p *Parser) parseSequence() ast.Node {
	start := p.cur().Pos
	var children []ast.Node
	for !p.atSequenceEnd() && !p.aborted {
		n := p.parseSequenceItem()
		if n == nil {
			if !p.aborted {
				p.synchronize()
			}
			continue
		}
		if q, ok := n.(*ast.Quantifier); ok {
			if lit, ok := q.Child.(*ast.Literal); ok && utf8.RuneCountInString(lit.Value) > 1 {
				// A quantifier binds to the last character of a literal
				// run only; the rest of the run stays a plain literal.
				_, w := utf8.DecodeLastRuneInString(lit.Value)
				cut := len(lit.Value) - w
				mid := lit.StartPos
				mid.Offset += cut
				mid.Column += cut
				children = append(children, p.mk(&ast.Literal{BaseNode: ast.BaseNode{StartPos: lit.StartPos, EndPos: mid}, Value: lit.Value[:cut]}))
				lit.Value, lit.StartPos, q.StartPos = lit.Value[cut:], mid, mid
			}
		}
		children = append(children, n)
	}
	if len(children) == 0 {
		return epsilonLiteral(start)
	}
	if len(children) == 1 {
		return children[0]
	}
	return p.mk(&ast.Sequence{
		BaseNode: ast.BaseNode{StartPos: children[0].Start(), EndPos: children[len(children)-1].End()},
		Children: children,
	})
}

// synchronize skips one token to make progress after a sequence item
// failed to parse, so a single malformed atom doesn't stall the loop.
func (p *Parser) synchronize() {
	if !p.curIs(token.EOF) {
		p.advance()
	}
}

func (p *Parser) parseSequenceItem() ast.Node {
	if isTriviaToken(p.xMode, p.cur()) {
		tok := p.cur()
		p.advance()
		return p.mk(&ast.Comment{
			BaseNode: ast.BaseNode{StartPos: tok.Pos, EndPos: endOf(tok)},
			Text:     trimTrivia(tok.Value),
		})
	}
	return p.parseQuantifiedAtom()
}

// parseQuantifiedAtom implements "quantified_atom := atom ([ /x trivia
// ] quantifier)?": a following quantifier binds to the atom just
// parsed, transparently skipping /x trivia in between.
func (p *Parser) parseQuantifiedAtom() ast.Node {
	atomNode := p.parseAtom()
	if atomNode == nil {
		return nil
	}

	save := p.stream.GetPosition()
	for p.xMode && isTriviaToken(p.xMode, p.cur()) {
		p.advance()
	}
	if !p.curIs(token.T_QUANTIFIER) {
		p.stream.SetPosition(save)
		return atomNode
	}

	qTok := p.cur()
	if err := quantifierTargetError(atomNode); err != "" {
		p.errorAtOffset(rxerr.QuantifierTargetError, err, qTok.Pos.Offset)
		p.advance() // skip the orphaned quantifier so it isn't reported twice
		return atomNode
	}
	p.advance()
	min, max, kind := decodeQuantifier(qTok.Value)
	if max != -1 && min > max {
		p.errorAtOffset(rxerr.QuantifierSyntaxError,
			fmt.Sprintf("quantifier bounds out of order: {%d,%d}", min, max), qTok.Pos.Offset)
	}
	return p.mk(&ast.Quantifier{
		BaseNode: ast.BaseNode{StartPos: atomNode.Start(), EndPos: endOf(qTok)},
		Child:    atomNode,
		Token:    qTok.Value,
		Kind:     kind,
		Min:      min,
		Max:      max,
	})
}

// quantifierTargetError reports why atomNode may not take a quantifier
// (nothing zero-width or empty can), or "" if it may.
func quantifierTargetError(n ast.Node) string {
	switch v := n.(type) {
	case *ast.Literal:
		if v.Value == "" {
			return "quantifier has no target: preceding literal is empty"
		}
	case *ast.Anchor:
		return "quantifier cannot apply to an anchor"
	case *ast.Assertion:
		return "quantifier cannot apply to an assertion"
	case *ast.PcreVerb:
		return "quantifier cannot apply to a PCRE verb"
	case *ast.Keep:
		return "quantifier cannot apply to \\K"
	case *ast.Sequence:
		if len(v.Children) == 0 {
			return "quantifier has no target: preceding sequence is empty"
		}
	case *ast.Group:
		if v.Child == nil {
			return "quantifier has no target: preceding group is empty"
		}
	}
	return ""
}

// decodeQuantifier maps a quantifier token's raw text to (min, max,
// kind): * is (0,∞), + is (1,∞), ? is (0,1), {m}/{m,}/{m,n} read their
// digits, and a trailing '?' or '+' selects lazy or possessive.
func decodeQuantifier(text string) (min, max int, kind string) {
	kind = ast.QuantGreedy
	body := text
	if len(body) > 0 {
		switch body[len(body)-1] {
		case '?':
			kind = ast.QuantLazy
			body = body[:len(body)-1]
		case '+':
			kind = ast.QuantPossessive
			body = body[:len(body)-1]
		}
	}
	switch {
	case body == "*":
		return 0, -1, kind
	case body == "+":
		return 1, -1, kind
	case body == "?":
		return 0, 1, kind
	case len(body) >= 2 && body[0] == '{':
		inner := body[1 : len(body)-1]
		if i := indexByte(inner, ','); i >= 0 {
			lo := atoiOr(inner[:i], 0)
			if i == len(inner)-1 {
				return lo, -1, kind
			}
			return lo, atoiOr(inner[i+1:], lo), kind
		}
		n := atoiOr(inner, 0)
		return n, n, kind
	}
	return 0, -1, kind
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

func atoiOr(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func endOf(t token.Token) token.Position {
	p := t.Pos
	p.Offset += t.Width()
	p.Column += t.Width()
	return p
}

// isTriviaToken reports whether tok is /x-mode whitespace or a
// '#'-comment the lexer folded into a T_LITERAL (see pkg/lexer's
// lexTrivia): xMode guarantees a real literal run can never itself be
// pure whitespace or start with '#', so the text alone disambiguates.
func isTriviaToken(xMode bool, tok token.Token) bool {
	if !xMode || tok.Type != token.T_LITERAL || tok.Value == "" {
		return false
	}
	if tok.Value[0] == '#' {
		return true
	}
	for i := 0; i < len(tok.Value); i++ {
		switch tok.Value[i] {
		case ' ', '\t', '\n', '\r', '\f', '\v':
		default:
			return false
		}
	}
	return true
}

func trimTrivia(s string) string {
	if len(s) > 0 && s[0] == '#' {
		return s[1:]
	}
	return s
}
