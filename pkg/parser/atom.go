package parser

import (
	"strconv"

	"github.com/perbu/rxlint/pkg/ast"
	"github.com/perbu/rxlint/pkg/lexer"
	"github.com/perbu/rxlint/pkg/rxerr"
	"github.com/perbu/rxlint/pkg/token"
)

// parseAtom parses a single grammar atom — everything the atom
// production covers apart from the trivia/quantifier wrapping that
// parseSequenceItem/parseQuantifiedAtom own.
func (p *Parser) parseAtom() ast.Node {
	if !p.enter() {
		return nil
	}
	defer p.leave()

	tok := p.cur()
	switch tok.Type {
	case token.T_LITERAL, token.T_LITERAL_ESCAPED:
		p.advance()
		return p.mk(&ast.Literal{BaseNode: ast.BaseNode{StartPos: tok.Pos, EndPos: endOf(tok)}, Value: tok.Value})
	case token.T_DOT:
		p.advance()
		return p.mk(&ast.Dot{BaseNode: ast.BaseNode{StartPos: tok.Pos, EndPos: endOf(tok)}})
	case token.T_ANCHOR:
		p.advance()
		return p.mk(&ast.Anchor{BaseNode: ast.BaseNode{StartPos: tok.Pos, EndPos: endOf(tok)}, Char: tok.Value[0]})
	case token.T_ASSERTION:
		p.advance()
		return p.mk(&ast.Assertion{BaseNode: ast.BaseNode{StartPos: tok.Pos, EndPos: endOf(tok)}, Kind: tok.Value})
	case token.T_KEEP:
		p.advance()
		return p.mk(&ast.Keep{BaseNode: ast.BaseNode{StartPos: tok.Pos, EndPos: endOf(tok)}})
	case token.T_CHAR_TYPE:
		p.advance()
		return p.mk(&ast.CharType{BaseNode: ast.BaseNode{StartPos: tok.Pos, EndPos: endOf(tok)}, Char: tok.Value[0]})
	case token.T_BACKREF:
		p.advance()
		return p.mk(buildBackref(tok))
	case token.T_G_REFERENCE:
		p.advance()
		return p.mk(buildSubroutineFromGRef(tok))
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
	case token.T_UNICODE_PROP:
		p.advance()
		return p.mk(buildUnicodeProp(tok))
	case token.T_PCRE_VERB:
		p.advance()
		return p.mk(&ast.PcreVerb{BaseNode: ast.BaseNode{StartPos: tok.Pos, EndPos: endOf(tok)}, Verb: tok.Value})
	case token.T_CALLOUT:
		p.advance()
		return p.mk(buildCallout(tok))
	case token.T_COMMENT_OPEN:
		p.advance()
		return p.mk(&ast.Comment{BaseNode: ast.BaseNode{StartPos: tok.Pos, EndPos: endOf(tok)}, Text: tok.Value})
	case token.T_CHAR_CLASS_OPEN:
		return p.parseCharClass()
	case token.T_GROUP_OPEN:
		return p.parsePlainGroup()
	case token.T_GROUP_MODIFIER_OPEN:
		return p.parseGroupModifier()
	case token.T_QUANTIFIER:
		p.errorAt(rxerr.QuantifierTargetError, "quantifier has no preceding atom to apply to")
		p.advance()
		return nil
	case token.ILLEGAL:
		p.advance()
		p.errorAt(illegalKind(tok.Value), illegalMessage(tok.Value))
		return nil
	case token.EOF, token.T_ALTERNATION, token.T_GROUP_CLOSE:
		return nil
	default:
		p.errorAt(rxerr.ParserError, "unexpected "+tok.Type.String())
		p.advance()
		return nil
	}
}

// parsePlainGroup parses a bare "(...)" capturing group.
func (p *Parser) parsePlainGroup() ast.Node {
	openTok := p.cur()
	p.advance()
	child := p.parseAlternation()
	end := p.expectGroupClose(openTok)
	return p.mk(&ast.Group{
		BaseNode: ast.BaseNode{StartPos: openTok.Pos, EndPos: end},
		Child:    child,
		Kind:     ast.GroupCapturing,
	})
}

// expectGroupClose consumes a T_GROUP_CLOSE belonging to openTok,
// recording a ParserError and leaving the stream untouched if one
// isn't there.
func (p *Parser) expectGroupClose(openTok token.Token) token.Position {
	if p.curIs(token.T_GROUP_CLOSE) {
		end := endOf(p.cur())
		p.advance()
		return end
	}
	p.errorAtOffset(rxerr.ParserError, "group opened here is never closed", openTok.Pos.Offset)
	return p.cur().Pos
}

func illegalKind(tag string) rxerr.Kind {
	switch tag {
	case lexer.IllegalTrailingEscape:
		return rxerr.TrailingEscapeError
	case lexer.IllegalUnterminatedClass:
		return rxerr.UnterminatedClassError
	case lexer.IllegalEncoding:
		return rxerr.EncodingError
	case lexer.IllegalQuantifierSyntax:
		return rxerr.QuantifierSyntaxError
	default:
		return rxerr.ParserError
	}
}

func illegalMessage(tag string) string {
	switch tag {
	case lexer.IllegalTrailingEscape:
		return "pattern ends with a trailing unescaped backslash"
	case lexer.IllegalUnterminatedClass:
		return "character class is never closed"
	case lexer.IllegalEncoding:
		return "pattern contains invalid UTF-8"
	case lexer.IllegalQuantifierSyntax:
		return "malformed quantifier"
	default:
		return "lexical error"
	}
}

func buildBackref(tok token.Token) *ast.Backref {
	n := ast.BaseNode{StartPos: tok.Pos, EndPos: endOf(tok)}
	if num, err := strconv.Atoi(tok.Value); err == nil {
		return &ast.Backref{BaseNode: n, Number: num}
	}
	return &ast.Backref{BaseNode: n, IsNamed: true, Name: tok.Value}
}

// buildSubroutineFromGRef converts a "\g..." T_G_REFERENCE token into
// a Subroutine node, stripping the "\g" prefix and any brace/angle
// delimiters to recover the bare reference text.
func buildSubroutineFromGRef(tok token.Token) *ast.Subroutine {
	body := tok.Value[2:] // strip "\g"
	ref := body
	if len(body) >= 2 {
		switch body[0] {
		case '{', '<':
			ref = body[1 : len(body)-1]
		}
	}
	return &ast.Subroutine{
		BaseNode:  ast.BaseNode{StartPos: tok.Pos, EndPos: endOf(tok)},
		Reference: ref,
		SyntaxTag: tok.Value,
	}
}

func buildCallout(tok token.Token) *ast.Callout {
	isString := len(tok.Value) > 0 && isCalloutStringDelim(tok.Value[0])
	return &ast.Callout{
		BaseNode:   ast.BaseNode{StartPos: tok.Pos, EndPos: endOf(tok)},
		Identifier: tok.Value,
		IsString:   isString,
	}
}

func isCalloutStringDelim(b byte) bool {
	switch b {
	case '\'', '"', '`', '^', '%', '#', '$':
		return true
	}
	return false
}
