package parser

import (
	"strconv"
	"strings"

	"github.com/perbu/rxlint/pkg/ast"
	"github.com/perbu/rxlint/pkg/token"
)

// buildCharLiteral converts a T_UNICODE, T_UNICODE_NAMED, T_OCTAL or
// T_OCTAL_LEGACY token (full escape text, backslash included) into a
// CharLiteral node.
func buildCharLiteral(tok token.Token, kind string) *ast.CharLiteral {
	return &ast.CharLiteral{
		BaseNode:       ast.BaseNode{StartPos: tok.Pos, EndPos: endOf(tok)},
		Representation: tok.Value,
		CodePoint:      decodeCodePoint(tok.Value, kind),
		Kind:           kind,
	}
}

// decodeCodePoint extracts the numeric value out of an escape's raw
// text. A \N{NAME} body names a Unicode character by name rather than
// codepoint, so it decodes to 0 here; resolving the name is a job for
// a downstream matcher, not this tree.
func decodeCodePoint(text, kind string) rune {
	switch kind {
	case ast.CharUnicode:
		body := strings.TrimPrefix(strings.TrimPrefix(text, "\\x"), "\\u")
		body = strings.Trim(body, "{}")
		if n, err := strconv.ParseInt(body, 16, 32); err == nil {
			return rune(n)
		}
	case ast.CharOctal:
		body := strings.Trim(strings.TrimPrefix(text, "\\o"), "{}")
		if n, err := strconv.ParseInt(body, 8, 32); err == nil {
			return rune(n)
		}
	case ast.CharOctalLegacy:
		body := strings.TrimPrefix(text, "\\0")
		if n, err := strconv.ParseInt("0"+body, 8, 32); err == nil {
			return rune(n)
		}
	}
	return 0
}

// buildUnicodeProp converts a T_UNICODE_PROP token ("\pL", "\p{Name}",
// "\PL", "\P{Name}") into a UnicodeProp node.
func buildUnicodeProp(tok token.Token) *ast.UnicodeProp {
	negated := strings.HasPrefix(tok.Value, "\\P")
	body := tok.Value[2:]
	braced := strings.HasPrefix(body, "{")
	return &ast.UnicodeProp{
		BaseNode: ast.BaseNode{StartPos: tok.Pos, EndPos: endOf(tok)},
		Name:     strings.Trim(body, "{}"),
		Braced:   braced,
		Negated:  negated,
	}
}

// buildControlChar converts a T_CONTROL_CHAR token ("\cX") into a
// ControlChar node; PCRE computes the control code as the target byte
// XORed with 0x40.
func buildControlChar(tok token.Token) *ast.ControlChar {
	var ch byte
	if len(tok.Value) >= 3 {
		ch = tok.Value[2]
	}
	return &ast.ControlChar{
		BaseNode:  ast.BaseNode{StartPos: tok.Pos, EndPos: endOf(tok)},
		Char:      ch,
		CodePoint: rune(ch ^ 0x40),
	}
}

// buildPosixClass converts a T_POSIX_CLASS token ("[:name:]" or
// "[:^name:]", brackets included) into a PosixClass node.
func buildPosixClass(tok token.Token) *ast.PosixClass {
	body := strings.TrimSuffix(strings.TrimPrefix(tok.Value, "[:"), ":]")
	negated := strings.HasPrefix(body, "^")
	return &ast.PosixClass{
		BaseNode: ast.BaseNode{StartPos: tok.Pos, EndPos: endOf(tok)},
		Name:     strings.TrimPrefix(body, "^"),
		Negated:  negated,
	}
}
