package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/perbu/rxlint/pkg/ast"
	"github.com/perbu/rxlint/pkg/rxerr"
	"github.com/perbu/rxlint/pkg/token"
)

// parseGroupModifier dispatches everything that can follow a bare
// T_GROUP_MODIFIER_OPEN ("(?"): named captures, lookaround, the
// non-capturing/atomic/branch-reset forms, conditionals, subroutine
// calls, and inline-flags spans. The lexer hands the parser only the
// 2-byte "(?" token — the header's own punctuation (name delimiters,
// "=", "!", ":", digits...) is all "ordinary" to the lexer's top-level
// dispatch, so every form here is read directly off p.source and the
// token stream is resynced once the header's extent is known.
func (p *Parser) parseGroupModifier() ast.Node {
	openTok := p.cur()
	headerStart := openTok.Pos.Offset
	afterQ := headerStart + 2 // offset just past "(?"

	if afterQ >= len(p.source) {
		p.errorAtOffset(rxerr.UnknownGroupModifierError, "group header is never closed", headerStart)
		p.advance()
		return nil
	}

	c0 := p.source[afterQ]
	switch {
	case c0 == 'P':
		return p.parsePNamedForm(openTok, afterQ)
	case c0 == '<':
		return p.parseAngleForm(openTok, afterQ)
	case c0 == '\'':
		return p.parseQuoteNamedForm(openTok, afterQ)
	case c0 == '=':
		return p.parseKindGroup(openTok, ast.GroupLookahead, afterQ+1)
	case c0 == '!':
		return p.parseKindGroup(openTok, ast.GroupNegLookahead, afterQ+1)
	case c0 == ':':
		return p.parseKindGroup(openTok, ast.GroupNonCapturing, afterQ+1)
	case c0 == '>':
		return p.parseKindGroup(openTok, ast.GroupAtomic, afterQ+1)
	case c0 == '|':
		return p.parseKindGroup(openTok, ast.GroupBranchReset, afterQ+1)
	case c0 == '(':
		return p.parseConditional(openTok, afterQ)
	case c0 == '&':
		return p.parseSubroutineCall(openTok, afterQ)
	case c0 == 'R' && afterQ+1 < len(p.source) && p.source[afterQ+1] == ')':
		return p.parseRecursionCall(openTok, afterQ)
	case isDigitByte(c0) || c0 == '-' || c0 == '+':
		return p.parseNumberedSubroutineCall(openTok, afterQ)
	default:
		return p.parseInlineFlagsOrModifierSpan(openTok, afterQ)
	}
}

// parseKindGroup resyncs to contentStart and parses an alternation
// body through the matching close paren, wrapping it as a Group of kind.
func (p *Parser) parseKindGroup(openTok token.Token, kind string, contentStart int) ast.Node {
	p.resyncAt(contentStart)
	child := p.parseAlternation()
	end := p.expectGroupClose(openTok)
	return p.mk(&ast.Group{BaseNode: ast.BaseNode{StartPos: openTok.Pos, EndPos: end}, Child: child, Kind: kind})
}

// parseNamedCapture resyncs past a recognized "name>"/"name'" opener
// and parses the capture body. A repeated name is only legal under the
// 'J' (duplicate names) modifier.
func (p *Parser) parseNamedCapture(openTok token.Token, name string, contentStart int) ast.Node {
	if p.groupNames[name] && !p.jModifier {
		// Reported at the name's opening '<' or quote, which sits just
		// before the name (contentStart is past the closing delimiter).
		p.errorAtOffset(rxerr.NameError, "duplicate group name \""+name+"\" without the duplicate-names modifier", contentStart-len(name)-2)
	}
	p.groupNames[name] = true
	p.resyncAt(contentStart)
	child := p.parseAlternation()
	end := p.expectGroupClose(openTok)
	return p.mk(&ast.Group{
		BaseNode: ast.BaseNode{StartPos: openTok.Pos, EndPos: end},
		Child:    child,
		Kind:     ast.GroupNamed,
		Name:     name,
	})
}

// parseAngleForm handles "(?<=...)", "(?<!...)" and "(?<name>...)".
func (p *Parser) parseAngleForm(openTok token.Token, afterQ int) ast.Node {
	next := afterQ + 1
	if next < len(p.source) {
		switch p.source[next] {
		case '=':
			return p.parseKindGroup(openTok, ast.GroupLookbehind, next+1)
		case '!':
			return p.parseKindGroup(openTok, ast.GroupNegLookbehind, next+1)
		}
	}
	name, i := scanName(p.source, next)
	if name == "" || i >= len(p.source) || p.source[i] != '>' {
		return p.malformedHeader(openTok, afterQ, "malformed group name")
	}
	return p.parseNamedCapture(openTok, name, i+1)
}

// parseQuoteNamedForm handles the "(?'name'...)" capture syntax.
func (p *Parser) parseQuoteNamedForm(openTok token.Token, afterQ int) ast.Node {
	next := afterQ + 1
	name, i := scanName(p.source, next)
	if name == "" || i >= len(p.source) || p.source[i] != '\'' {
		return p.malformedHeader(openTok, afterQ, "malformed group name")
	}
	return p.parseNamedCapture(openTok, name, i+1)
}

// parsePNamedForm handles "(?P<name>...)", "(?P'name'...)",
// "(?P=name)" (named backreference) and "(?P>name)" (named subroutine
// call).
func (p *Parser) parsePNamedForm(openTok token.Token, afterQ int) ast.Node {
	pPos := afterQ + 1
	if pPos >= len(p.source) {
		return p.malformedHeader(openTok, afterQ, "malformed (?P construct")
	}
	switch p.source[pPos] {
	case '<':
		name, i := scanName(p.source, pPos+1)
		if name == "" || i >= len(p.source) || p.source[i] != '>' {
			return p.malformedHeader(openTok, pPos, "malformed group name")
		}
		return p.parseNamedCapture(openTok, name, i+1)
	case '\'':
		name, i := scanName(p.source, pPos+1)
		if name == "" || i >= len(p.source) || p.source[i] != '\'' {
			return p.malformedHeader(openTok, pPos, "malformed group name")
		}
		return p.parseNamedCapture(openTok, name, i+1)
	case '=':
		name, i := scanName(p.source, pPos+1)
		return p.finishNamedBackref(openTok, name, i)
	case '>':
		name, i := scanName(p.source, pPos+1)
		return p.finishNamedSubroutine(openTok, name, i, "(?P>"+name+")")
	default:
		return p.malformedHeader(openTok, afterQ, "unrecognized (?P construct")
	}
}

// parseSubroutineCall handles "(?&name)".
func (p *Parser) parseSubroutineCall(openTok token.Token, afterQ int) ast.Node {
	name, i := scanName(p.source, afterQ+1)
	return p.finishNamedSubroutine(openTok, name, i, "(?&"+name+")")
}

// parseRecursionCall handles whole-pattern "(?R)" recursion.
func (p *Parser) parseRecursionCall(openTok token.Token, afterQ int) ast.Node {
	closeIdx := afterQ + 1 // already verified to be ')'
	p.resyncAt(closeIdx + 1)
	return p.mk(&ast.Subroutine{
		BaseNode:  ast.BaseNode{StartPos: openTok.Pos, EndPos: token.Position{Offset: closeIdx + 1, Column: closeIdx + 1}},
		Reference: "0",
		SyntaxTag: "(?R)",
	})
}

// parseNumberedSubroutineCall handles "(?1)", "(?-1)", "(?+1)", "(?0)".
func (p *Parser) parseNumberedSubroutineCall(openTok token.Token, afterQ int) ast.Node {
	start := afterQ
	i := afterQ
	if i < len(p.source) && (p.source[i] == '-' || p.source[i] == '+') {
		i++
	}
	numStart := i
	for i < len(p.source) && isDigitByte(p.source[i]) {
		i++
	}
	if i == numStart || i >= len(p.source) || p.source[i] != ')' {
		return p.malformedHeader(openTok, afterQ, "malformed numbered subroutine call")
	}
	ref := p.source[start:i]
	p.resyncAt(i + 1)
	return p.mk(&ast.Subroutine{
		BaseNode:  ast.BaseNode{StartPos: openTok.Pos, EndPos: token.Position{Offset: i + 1, Column: i + 1}},
		Reference: ref,
		SyntaxTag: "(?" + ref + ")",
	})
}

func (p *Parser) finishNamedBackref(openTok token.Token, name string, closeIdx int) ast.Node {
	if name == "" || closeIdx >= len(p.source) || p.source[closeIdx] != ')' {
		return p.malformedHeader(openTok, openTok.Pos.Offset, "malformed named backreference")
	}
	p.resyncAt(closeIdx + 1)
	return p.mk(&ast.Backref{
		BaseNode: ast.BaseNode{StartPos: openTok.Pos, EndPos: token.Position{Offset: closeIdx + 1, Column: closeIdx + 1}},
		IsNamed:  true,
		Name:     name,
	})
}

func (p *Parser) finishNamedSubroutine(openTok token.Token, name string, closeIdx int, syntaxTag string) ast.Node {
	if name == "" || closeIdx >= len(p.source) || p.source[closeIdx] != ')' {
		return p.malformedHeader(openTok, openTok.Pos.Offset, "malformed subroutine call")
	}
	p.resyncAt(closeIdx + 1)
	return p.mk(&ast.Subroutine{
		BaseNode:  ast.BaseNode{StartPos: openTok.Pos, EndPos: token.Position{Offset: closeIdx + 1, Column: closeIdx + 1}},
		Reference: name,
		SyntaxTag: syntaxTag,
	})
}

// malformedHeader records a NameError (whatever the caller's message
// describes) and resyncs the stream to just past the opener so parsing
// can keep making progress on the rest of the pattern.
func (p *Parser) malformedHeader(openTok token.Token, at int, message string) ast.Node {
	p.errorAtOffset(rxerr.NameError, message, at)
	p.resyncAt(openTok.Pos.Offset + 2)
	return nil
}

// parseInlineFlagsOrModifierSpan handles "(?flags)" (applies to the
// rest of the enclosing group) and "(?flags:...)" (scoped to the
// group body), including a leading "^" (reset to default) and a "-"
// separating added from removed letters.
func (p *Parser) parseInlineFlagsOrModifierSpan(openTok token.Token, afterQ int) ast.Node {
	i := afterQ
	for i < len(p.source) && isFlagByte(p.source[i]) {
		i++
	}
	flags := p.source[afterQ:i]
	if i >= len(p.source) || (p.source[i] != ')' && p.source[i] != ':') {
		return p.malformedHeader(openTok, afterQ, "unrecognized group modifier")
	}
	if bad := disallowedInlineFlags(flags, p.cfg.flagAlphabet()); bad != "" {
		p.errorAtOffset(rxerr.UnknownGroupModifierError,
			fmt.Sprintf("inline flag(s) %q are not accepted by this configuration", bad), afterQ)
	}

	if p.source[i] == ')' {
		p.applyInlineFlags(flags)
		p.resyncAt(i + 1)
		return p.mk(&ast.Group{
			BaseNode: ast.BaseNode{StartPos: openTok.Pos, EndPos: token.Position{Offset: i + 1, Column: i + 1}},
			Kind:     ast.GroupInlineFlags,
			Flags:    flags,
		})
	}

	saved := p.xMode
	p.applyInlineFlags(flags)
	p.resyncAt(i + 1)
	child := p.parseAlternation()
	p.xMode = saved
	end := p.expectGroupClose(openTok)
	return p.mk(&ast.Group{
		BaseNode: ast.BaseNode{StartPos: openTok.Pos, EndPos: end},
		Child:    child,
		Kind:     ast.GroupModifierSpan,
		Flags:    flags,
	})
}

func isFlagByte(b byte) bool {
	switch b {
	case '^', '-', 'i', 'm', 's', 'x', 'U', 'J', 'n', 'A', 'D', 'S', 'X', 'u', 'r':
		return true
	}
	return false
}

// disallowedInlineFlags returns the letters in flags that fall outside
// alphabet, ignoring the '^' reset marker and the '-' separator. The
// feature-gated 'r' only appears in alphabet when Config.REnabled is
// set.
func disallowedInlineFlags(flags, alphabet string) string {
	var bad []byte
	for i := 0; i < len(flags); i++ {
		c := flags[i]
		if c == '^' || c == '-' {
			continue
		}
		if !strings.ContainsRune(alphabet, rune(c)) {
			bad = append(bad, c)
		}
	}
	return string(bad)
}

// applyInlineFlags updates the two pieces of parser state an inline
// flag span can actually change: xMode, which governs how the lexer
// treats whitespace and "#", and jModifier ('J'), which permits
// duplicate group names. The other letters (i, m, s,
// ...) describe matcher behavior a downstream engine would apply, not
// this tree's shape, so the parser only tracks 'x' and 'J'. Because the whole
// pattern is tokenized once upfront (see pkg/lexer's xMode doc
// comment), this only affects tokens lexed after the resync a group
// modifier triggers — an inline "(?x)" can't retroactively reclassify
// tokens the lexer already emitted earlier in the same scope.
func (p *Parser) applyInlineFlags(flags string) {
	adding := true
	for i := 0; i < len(flags); i++ {
		switch flags[i] {
		case '-':
			adding = false
		case '^':
			p.xMode = false
		case 'x':
			p.xMode = adding
		case 'J':
			p.jModifier = adding
		}
	}
}

// parseConditional handles "(?(COND)YES|NO)" and "(?(DEFINE)...)".
// COND's raw span is located with findMatchingParen, then
// classified by direct string matching for the simple forms; a
// lookaround COND is resynced to its own opening paren and parsed
// through the ordinary atom path, since "(?=foo)" is syntactically an
// ordinary lookahead group once its parens are located.
func (p *Parser) parseConditional(openTok token.Token, afterQ int) ast.Node {
	condOpen := afterQ
	condClose := findMatchingParen(p.source, condOpen)
	if condClose < 0 {
		return p.malformedHeader(openTok, condOpen, "conditional's condition is never closed")
	}
	condInner := p.source[condOpen+1 : condClose]

	if condInner == "DEFINE" {
		p.resyncAt(condClose + 1)
		content := p.parseAlternation()
		end := p.expectGroupClose(openTok)
		return p.mk(&ast.Define{BaseNode: ast.BaseNode{StartPos: openTok.Pos, EndPos: end}, Content: content})
	}

	condNode := p.classifyCondition(condOpen, condClose, condInner)
	p.resyncAt(condClose + 1)
	yes := p.parseSequence()
	var no ast.Node
	if p.curIs(token.T_ALTERNATION) {
		p.advance()
		no = p.parseSequence()
	}
	end := p.expectGroupClose(openTok)
	return p.mk(&ast.Conditional{
		BaseNode:  ast.BaseNode{StartPos: openTok.Pos, EndPos: end},
		Condition: condNode,
		Yes:       yes,
		No:        no,
	})
}

// classifyCondition builds the Condition node for a non-DEFINE
// conditional: a lookaround resyncs to its own "(" and defers to the
// normal atom parser; every other recognized form (numeric backref,
// named backref, recursion test) is read straight off condInner.
func (p *Parser) classifyCondition(condOpen, condClose int, condInner string) ast.Node {
	span := ast.BaseNode{
		StartPos: token.Position{Offset: condOpen, Column: condOpen},
		EndPos:   token.Position{Offset: condClose + 1, Column: condClose + 1},
	}

	if len(condInner) > 0 && condInner[0] == '?' {
		p.resyncAt(condOpen)
		return p.parseAtom()
	}
	if n, err := strconv.Atoi(condInner); err == nil {
		return p.mk(&ast.Backref{BaseNode: span, Number: n})
	}
	if isBracketedName(condInner, '<', '>') || isBracketedName(condInner, '\'', '\'') || isBracketedName(condInner, '{', '}') {
		return p.mk(&ast.Backref{BaseNode: span, IsNamed: true, Name: condInner[1 : len(condInner)-1]})
	}
	if isRecursionCondition(condInner) {
		return p.mk(&ast.Subroutine{BaseNode: span, Reference: condInner, SyntaxTag: "(" + condInner + ")"})
	}
	if isBareName(condInner) {
		// "(?(name)yes|no)": an unbracketed group name.
		return p.mk(&ast.Backref{BaseNode: span, IsNamed: true, Name: condInner})
	}
	p.errorAtOffset(rxerr.ConditionalSyntaxError, "unrecognized conditional condition", condOpen)
	return p.mk(&ast.Literal{BaseNode: span})
}

func isBracketedName(s string, open, close byte) bool {
	return len(s) >= 2 && s[0] == open && s[len(s)-1] == close
}

// isRecursionCondition matches the recursion-test condition forms:
// "R", "RN", "R-N", and "R&name". A bare name that merely starts with
// 'R' ("Rfoo") is not one — it classifies as a named condition instead.
func isRecursionCondition(s string) bool {
	if s == "" || s[0] != 'R' {
		return false
	}
	rest := s[1:]
	if rest == "" {
		return true
	}
	if rest[0] == '&' {
		return isBareName(rest[1:])
	}
	if rest[0] == '-' {
		rest = rest[1:]
	}
	if rest == "" {
		return false
	}
	for i := 0; i < len(rest); i++ {
		if !isDigitByte(rest[i]) {
			return false
		}
	}
	return true
}

// isBareName reports whether s is a plain group name: a leading letter
// or underscore followed by name characters. Digits-only strings never
// reach here (they parse as numeric conditions first).
func isBareName(s string) bool {
	if s == "" || isDigitByte(s[0]) {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isNameByte(s[i]) {
			return false
		}
	}
	return true
}
