// Package lexer implements a stateful PCRE tokenizer: a
// single-threaded, restartable scanner over a UTF-8 pattern body that
// tracks character-class and \Q...\E quote-mode state and emits a
// position-monotonic token sequence terminated by T_EOF. A
// readRune/peekRune pair drives a dispatch switch in NextToken; the
// class and quote states select entirely different token vocabularies
// before that switch is ever consulted.
package lexer

import (
	"unicode/utf8"

	"github.com/perbu/rxlint/pkg/token"
)

const eof = rune(-1)

// Illegal-token tags. The lexer never raises; on a lexical failure it
// emits a single token.ILLEGAL token whose Value is one of these tags,
// and the parser (the only component that raises) turns it into the
// matching typed rxerr.Error.
const (
	IllegalTrailingEscape    = "trailing-escape"
	IllegalUnterminatedClass = "unterminated-class"
	IllegalEncoding          = "invalid-utf8"
	IllegalQuantifierSyntax  = "bad-quantifier"
)

// Lexer tokenizes a PCRE pattern body.
type Lexer struct {
	src   string
	off   int  // byte offset of the next unread rune
	cur   int  // byte offset of r
	r     rune // rune under examination, or eof
	width int

	xMode bool // static: whether the 'x' flag is active for this parse

	inCharClass bool // inside "[...]"
	inQuoteMode bool // inside \Q...\E

	classDepth    int  // bracket nesting while inCharClass ("[a&&[^b]]" nests)
	classFirst    bool // cursor sits right after an opening '['
	classAfterNeg bool // cursor sits right after a leading '[^'
}

// New creates a lexer over body, the pattern text between delimiters
// (not including the delimiters or flags). xMode reflects whether the
// 'x' (extended) flag was present on this pattern: unlike inCharClass
// and inQuoteMode it never changes mid-scan, so it is configured once
// at construction rather than carried as a dynamic state bit.
func New(body string, xMode bool) *Lexer {
	l := &Lexer{src: body, xMode: xMode}
	l.readRune()
	return l
}

func (l *Lexer) readRune() {
	if l.off >= len(l.src) {
		l.cur = l.off
		l.r = eof
		l.width = 0
		return
	}
	r, w := utf8.DecodeRuneInString(l.src[l.off:])
	l.cur = l.off
	l.r = r
	l.width = w
	l.off += w
}

func (l *Lexer) peekRune() rune {
	if l.off >= len(l.src) {
		return eof
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.off:])
	return r
}

// peekRuneAt looks n runes ahead of the current one (n>=1), decoding
// forward from l.off. Used sparingly, for the handful of 3-character
// lookaheads PCRE's grammar needs (e.g. distinguishing "(?#" from "(?").
func (l *Lexer) peekRuneAt(n int) rune {
	o := l.off
	var r rune
	var w int
	for i := 0; i < n; i++ {
		if o >= len(l.src) {
			return eof
		}
		r, w = utf8.DecodeRuneInString(l.src[o:])
		o += w
	}
	return r
}

func (l *Lexer) pos() token.Position {
	return token.Position{Offset: l.cur, Line: 1, Column: l.cur + 1}
}

func (l *Lexer) tok(typ token.Type, value string, start token.Position) token.Token {
	return token.Token{Type: typ, Value: value, Pos: start}
}

// TokenizeAll scans the full body and returns every token, the last of
// which is always T_EOF.
func TokenizeAll(body string, xMode bool) []token.Token {
	l := New(body, xMode)
	var toks []token.Token
	for {
		t := l.NextToken()
		toks = append(toks, t)
		if t.Type == token.EOF {
			break
		}
	}
	return toks
}

// NextToken scans and returns the next token.
func (l *Lexer) NextToken() token.Token {
	if l.r == utf8.RuneError && l.width == 1 {
		start := l.pos()
		l.readRune()
		return l.tok(token.ILLEGAL, IllegalEncoding, start)
	}
	if l.inQuoteMode {
		return l.lexQuoted()
	}
	if l.inCharClass {
		return l.lexInClass()
	}
	return l.lexDefault()
}

func (l *Lexer) lexDefault() token.Token {
	start := l.pos()

	if l.xMode {
		if isPatternSpace(l.r) {
			return l.lexTrivia(start, true)
		}
		if l.r == '#' {
			return l.lexTrivia(start, false)
		}
	}

	switch l.r {
	case eof:
		return l.tok(token.EOF, "", start)
	case '(':
		return l.lexParenOpen(start)
	case ')':
		r := l.tok(token.T_GROUP_CLOSE, ")", start)
		l.readRune()
		return r
	case '[':
		l.inCharClass = true
		l.classDepth = 1
		l.classFirst = true
		r := l.tok(token.T_CHAR_CLASS_OPEN, "[", start)
		l.readRune()
		return r
	case '|':
		r := l.tok(token.T_ALTERNATION, "|", start)
		l.readRune()
		return r
	case '.':
		r := l.tok(token.T_DOT, ".", start)
		l.readRune()
		return r
	case '^', '$':
		v := string(l.r)
		r := l.tok(token.T_ANCHOR, v, start)
		l.readRune()
		return r
	case '*', '+', '?':
		return l.lexQuantifier(start)
	case '{':
		if tok, ok := l.tryLexBraceQuantifier(start); ok {
			return tok
		}
		return l.lexLiteralRun(start)
	case '\\':
		return l.lexEscape(start, false)
	default:
		return l.lexLiteralRun(start)
	}
}

// lexParenOpen disambiguates '(' into T_GROUP_OPEN, T_GROUP_MODIFIER_OPEN,
// T_COMMENT_OPEN, T_CALLOUT or T_PCRE_VERB, consuming whichever full
// construct applies.
func (l *Lexer) lexParenOpen(start token.Position) token.Token {
	n1 := l.peekRune()
	if n1 != '?' && n1 != '*' {
		l.readRune()
		return l.tok(token.T_GROUP_OPEN, "(", start)
	}
	if n1 == '?' {
		n2 := l.peekRuneAt(2)
		switch n2 {
		case '#':
			return l.lexParenthesizedBody(start, token.T_COMMENT_OPEN, 3)
		case 'C':
			return l.lexParenthesizedBody(start, token.T_CALLOUT, 3)
		default:
			l.readRune() // consume '('
			l.readRune() // consume '?'
			return l.tok(token.T_GROUP_MODIFIER_OPEN, "(?", start)
		}
	}
	// n1 == '*': try to lex a PCRE verb; fall back to a bare '(' + literal '*'
	// if it doesn't close cleanly (a verb never contains nested parens).
	save := l.snapshot()
	l.readRune() // '('
	l.readRune() // '*'
	nameStart := l.cur
	for l.r != ')' && l.r != eof && l.r != '(' {
		l.readRune()
	}
	if l.r == ')' {
		value := l.src[nameStart:l.cur]
		l.readRune() // consume ')'
		return l.tok(token.T_PCRE_VERB, value, start)
	}
	l.restore(save)
	l.readRune()
	return l.tok(token.T_GROUP_OPEN, "(", start)
}

// lexParenthesizedBody scans a "(?#...)" or "(?C...)" construct from
// start, skipping skip bytes ("(?#" or "(?C"), through the first
// ')' (a backslash does not escape it), and returns a single token of typ whose Value is the
// text strictly between the opener and the closing paren.
func (l *Lexer) lexParenthesizedBody(start token.Position, typ token.Type, skip int) token.Token {
	for i := 0; i < skip; i++ {
		l.readRune()
	}
	bodyStart := l.cur
	for l.r != ')' && l.r != eof {
		l.readRune()
	}
	value := l.src[bodyStart:l.cur]
	if l.r == ')' {
		l.readRune()
	}
	return l.tok(typ, value, start)
}

type lexSnapshot struct {
	off, cur, width int
	r               rune
}

func (l *Lexer) snapshot() lexSnapshot {
	return lexSnapshot{l.off, l.cur, l.width, l.r}
}

func (l *Lexer) restore(s lexSnapshot) {
	l.off, l.cur, l.width, l.r = s.off, s.cur, s.width, s.r
}

// lexQuantifier handles *, +, ? each optionally followed by a lazy '?'
// or possessive '+' modifier.
func (l *Lexer) lexQuantifier(start token.Position) token.Token {
	base := l.cur
	l.readRune()
	if l.r == '?' || l.r == '+' {
		l.readRune()
	}
	value := l.src[base:l.cur]
	return l.tok(token.T_QUANTIFIER, value, start)
}

// tryLexBraceQuantifier attempts to lex "{m}", "{m,}" or "{m,n}" (each
// optionally followed by '?' or '+'). Returns ok=false, consuming
// nothing, if the brace isn't a well-formed quantifier — PCRE treats a
// malformed "{...}" as a literal run instead of an error.
func (l *Lexer) tryLexBraceQuantifier(start token.Position) (token.Token, bool) {
	save := l.snapshot()
	base := l.cur
	l.readRune() // consume '{'
	sawDigit := false
	for isDigit(l.r) {
		l.readRune()
		sawDigit = true
	}
	if l.r == ',' {
		l.readRune()
		for isDigit(l.r) {
			l.readRune()
			sawDigit = true
		}
	}
	if l.r != '}' || !sawDigit {
		l.restore(save)
		return token.Token{}, false
	}
	l.readRune() // consume '}'
	if l.r == '?' || l.r == '+' {
		l.readRune()
	}
	value := l.src[base:l.cur]
	return l.tok(token.T_QUANTIFIER, value, start), true
}

// lexLiteralRun consumes a maximal run of ordinary (non-meta,
// non-escape) characters and emits it as a single T_LITERAL token.
func (l *Lexer) lexLiteralRun(start token.Position) token.Token {
	base := l.cur
	if l.r == '{' {
		// A '{' that didn't open a quantifier starts an ordinary run.
		l.readRune()
	}
	for isOrdinary(l.r, l.xMode) && !(l.r == utf8.RuneError && l.width == 1) {
		l.readRune()
	}
	if l.cur == base {
		// A lone metacharacter that reached here unhandled (e.g. a bare
		// ']' outside any class); treat it as a one-rune literal so
		// the lexer always makes forward progress.
		l.readRune()
		return l.tok(token.T_LITERAL, l.src[base:l.cur], start)
	}
	return l.tok(token.T_LITERAL, l.src[base:l.cur], start)
}

// lexTrivia consumes a run of /x whitespace or a '#'-to-end-of-line
// comment (the newline itself is left for the next token) and emits it as its own T_LITERAL token, distinct from
// surrounding ordinary literal runs. The parser recognizes trivia by
// inspecting the token's text (see pkg/parser's isTriviaToken) and
// turns it into an explicit Comment node rather than a Literal.
func (l *Lexer) lexTrivia(start token.Position, whitespace bool) token.Token {
	base := l.cur
	if whitespace {
		for isPatternSpace(l.r) {
			l.readRune()
		}
	} else {
		for l.r != '\n' && l.r != eof {
			l.readRune()
		}
	}
	return l.tok(token.T_LITERAL, l.src[base:l.cur], start)
}

func isPatternSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f' || r == '\v'
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isIdentRune(r rune) bool {
	return r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// isOrdinary reports whether r belongs to a literal run outside a
// character class: anything that isn't one of PCRE's top-level
// metacharacters. In xMode, whitespace and '#' are also excluded so
// lexTrivia gets a chance to run instead.
func isOrdinary(r rune, xMode bool) bool {
	switch r {
	case eof, '\\', '.', '^', '$', '|', '(', ')', '[', ']', '*', '+', '?', '{':
		return false
	}
	if xMode && (isPatternSpace(r) || r == '#') {
		return false
	}
	return true
}
