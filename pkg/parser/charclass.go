package parser

import (
	"unicode/utf8"

	"github.com/perbu/rxlint/pkg/ast"
	"github.com/perbu/rxlint/pkg/rxerr"
	"github.com/perbu/rxlint/pkg/token"
)

// parseCharClass parses a "[...]" character class, including a leading
// "^" negation and any "&&"/"--" binary operators between bracketed
// groupings. Operators chain left-associatively: each
// combined result becomes the Left operand of the next operator, which
// CharClass's node shape supports since Left/Right are themselves
// *CharClass values that may carry their own nested Operation.
func (p *Parser) parseCharClass() ast.Node {
	if !p.enter() {
		return nil
	}
	defer p.leave()

	openTok := p.cur()
	p.advance()

	negated := false
	if p.curIs(token.T_NEGATION) {
		negated = true
		p.advance()
	}

	left := p.parseClassOperand()
	for p.curIs(token.T_CLASS_INTERSECTION) || p.curIs(token.T_CLASS_SUBTRACTION) {
		kind := ast.ClassIntersection
		if p.curIs(token.T_CLASS_SUBTRACTION) {
			kind = ast.ClassSubtraction
		}
		p.advance()
		right := p.parseClassOperand()
		op := &ast.ClassOperation{
			BaseNode: ast.BaseNode{StartPos: left.Start(), EndPos: right.End()},
			Kind:     kind,
			Left:     unwrapClassOperand(left),
			Right:    unwrapClassOperand(right),
		}
		left = &ast.CharClass{
			BaseNode:  ast.BaseNode{StartPos: left.Start(), EndPos: right.End()},
			Operation: op,
		}
	}

	var end token.Position
	if p.curIs(token.T_CHAR_CLASS_CLOSE) {
		end = endOf(p.cur())
		p.advance()
	} else {
		p.errorAtOffset(rxerr.UnterminatedClassError, "character class is never closed", openTok.Pos.Offset)
		end = p.cur().Pos
	}

	left.StartPos = openTok.Pos
	left.EndPos = end
	left.Negated = negated
	return p.mk(left)
}

// parseClassOperand parses a flat grouping of parts and ranges,
// stopping at the class's close bracket or a "&&"/"--" operator.
func (p *Parser) parseClassOperand() *ast.CharClass {
	start := p.cur().Pos
	var parts []ast.Node
	for !p.curIs(token.T_CHAR_CLASS_CLOSE) && !p.curIs(token.T_CLASS_INTERSECTION) &&
		!p.curIs(token.T_CLASS_SUBTRACTION) && !p.curIs(token.EOF) && !p.aborted {
		part := p.parseClassPart()
		if part == nil {
			p.advance()
			continue
		}
		if p.curIs(token.T_RANGE) {
			part = p.finishRange(part)
		}
		parts = append(parts, part)
	}
	end := start
	if len(parts) > 0 {
		end = parts[len(parts)-1].End()
	}
	cc := &ast.CharClass{BaseNode: ast.BaseNode{StartPos: start, EndPos: end}, Parts: parts}
	p.mk(cc)
	return cc
}

// finishRange consumes a pending T_RANGE after from and parses its
// second endpoint, validating both sides against validRangeEndpoint.
func (p *Parser) finishRange(from ast.Node) ast.Node {
	rangeTok := p.cur()
	p.advance()
	to := p.parseClassPart()
	if to == nil {
		p.errorAtOffset(rxerr.CharClassRangeError, "range is missing its end endpoint", rangeTok.Pos.Offset)
		return from
	}
	if !validRangeEndpoint(from) || !validRangeEndpoint(to) {
		p.errorAtOffset(rxerr.CharClassRangeError, "range endpoints must each be a single character", rangeTok.Pos.Offset)
	}
	return p.mk(&ast.Range{BaseNode: ast.BaseNode{StartPos: from.Start(), EndPos: to.End()}, From: from, To: to})
}

// unwrapClassOperand strips the single-part grouping wrapper off an
// operand whose whole content is itself a bracketed class, so
// "[a-z&&[^aeiou]]" carries the inner negated class directly as the
// operation's right side rather than a wrapper around it.
func unwrapClassOperand(c *ast.CharClass) *ast.CharClass {
	if len(c.Parts) == 1 && c.Operation == nil {
		if inner, ok := c.Parts[0].(*ast.CharClass); ok {
			return inner
		}
	}
	return c
}

// validRangeEndpoint admits the single-codepoint-yielding parts
// allowed on either side of '-': a one-rune literal, an encoded
// codepoint, a control character, or a shorthand/POSIX/Unicode class.
// A nested bracketed class is not a valid endpoint.
func validRangeEndpoint(n ast.Node) bool {
	switch v := n.(type) {
	case *ast.Literal:
		return utf8.RuneCountInString(v.Value) == 1
	case *ast.CharLiteral, *ast.ControlChar, *ast.CharType, *ast.UnicodeProp, *ast.PosixClass:
		return true
	}
	return false
}

// parseClassPart parses a single part inside a character class: a
// literal rune, a shorthand type, a POSIX class, a Unicode property,
// or an encoded codepoint. Ranges are assembled by the caller once it
// sees a following T_RANGE.
func (p *Parser) parseClassPart() ast.Node {
	tok := p.cur()
	switch tok.Type {
	case token.T_CHAR_CLASS_OPEN:
		return p.parseCharClass()
	case token.T_LITERAL, token.T_LITERAL_ESCAPED:
		p.advance()
		return p.mk(&ast.Literal{BaseNode: ast.BaseNode{StartPos: tok.Pos, EndPos: endOf(tok)}, Value: tok.Value})
	case token.T_CHAR_TYPE:
		p.advance()
		return p.mk(&ast.CharType{BaseNode: ast.BaseNode{StartPos: tok.Pos, EndPos: endOf(tok)}, Char: tok.Value[0]})
	case token.T_POSIX_CLASS:
		p.advance()
		return p.mk(buildPosixClass(tok))
	case token.T_UNICODE_PROP:
		p.advance()
		return p.mk(buildUnicodeProp(tok))
	case token.T_UNICODE:
		p.advance()
		return p.mk(buildCharLiteral(tok, ast.CharUnicode))
	case token.T_UNICODE_NAMED:
		p.advance()
		return p.mk(buildCharLiteral(tok, ast.CharUnicodeNamed))
	case token.T_OCTAL:
		p.advance()
		return p.mk(buildCharLiteral(tok, ast.CharOctal))
	case token.T_OCTAL_LEGACY:
		p.advance()
		return p.mk(buildCharLiteral(tok, ast.CharOctalLegacy))
	case token.T_CONTROL_CHAR:
		p.advance()
		return p.mk(buildControlChar(tok))
	case token.ILLEGAL:
		p.advance()
		p.errorAt(illegalKind(tok.Value), illegalMessage(tok.Value))
		return nil
	default:
		return nil
	}
}
