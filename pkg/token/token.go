// Package token defines the closed token vocabulary produced by the
// PCRE lexer (pkg/lexer) and consumed by the parser (pkg/parser).
package token

import "fmt"

// Type is the closed set of token kinds a PCRE pattern body can lex into.
type Type int

const (
	// ILLEGAL marks a byte sequence the lexer could not classify.
	ILLEGAL Type = iota
	EOF

	T_LITERAL
	T_LITERAL_ESCAPED
	T_CHAR_TYPE
	T_DOT
	T_ANCHOR
	T_ASSERTION
	T_KEEP
	T_BACKREF
	T_G_REFERENCE
	T_UNICODE
	T_UNICODE_NAMED
	T_UNICODE_PROP
	T_OCTAL
	T_OCTAL_LEGACY
	T_CONTROL_CHAR
	T_POSIX_CLASS
	T_QUANTIFIER
	T_ALTERNATION
	T_GROUP_OPEN
	T_GROUP_CLOSE
	T_GROUP_MODIFIER_OPEN
	T_COMMENT_OPEN
	T_CHAR_CLASS_OPEN
	T_CHAR_CLASS_CLOSE
	T_NEGATION
	T_RANGE
	T_CLASS_INTERSECTION
	T_CLASS_SUBTRACTION
	T_PCRE_VERB
	T_CALLOUT
	T_QUOTE_MODE_START
	T_QUOTE_MODE_END
)

var typeNames = map[Type]string{
	ILLEGAL:               "ILLEGAL",
	EOF:                   "EOF",
	T_LITERAL:             "T_LITERAL",
	T_LITERAL_ESCAPED:     "T_LITERAL_ESCAPED",
	T_CHAR_TYPE:           "T_CHAR_TYPE",
	T_DOT:                 "T_DOT",
	T_ANCHOR:              "T_ANCHOR",
	T_ASSERTION:           "T_ASSERTION",
	T_KEEP:                "T_KEEP",
	T_BACKREF:             "T_BACKREF",
	T_G_REFERENCE:         "T_G_REFERENCE",
	T_UNICODE:             "T_UNICODE",
	T_UNICODE_NAMED:       "T_UNICODE_NAMED",
	T_UNICODE_PROP:        "T_UNICODE_PROP",
	T_OCTAL:               "T_OCTAL",
	T_OCTAL_LEGACY:        "T_OCTAL_LEGACY",
	T_CONTROL_CHAR:        "T_CONTROL_CHAR",
	T_POSIX_CLASS:         "T_POSIX_CLASS",
	T_QUANTIFIER:          "T_QUANTIFIER",
	T_ALTERNATION:         "T_ALTERNATION",
	T_GROUP_OPEN:          "T_GROUP_OPEN",
	T_GROUP_CLOSE:         "T_GROUP_CLOSE",
	T_GROUP_MODIFIER_OPEN: "T_GROUP_MODIFIER_OPEN",
	T_COMMENT_OPEN:        "T_COMMENT_OPEN",
	T_CHAR_CLASS_OPEN:     "T_CHAR_CLASS_OPEN",
	T_CHAR_CLASS_CLOSE:    "T_CHAR_CLASS_CLOSE",
	T_NEGATION:            "T_NEGATION",
	T_RANGE:               "T_RANGE",
	T_CLASS_INTERSECTION:  "T_CLASS_INTERSECTION",
	T_CLASS_SUBTRACTION:   "T_CLASS_SUBTRACTION",
	T_PCRE_VERB:           "T_PCRE_VERB",
	T_CALLOUT:             "T_CALLOUT",
	T_QUOTE_MODE_START:    "T_QUOTE_MODE_START",
	T_QUOTE_MODE_END:      "T_QUOTE_MODE_END",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Position is a 0-based byte offset into the pattern body. Line/Column
// are carried for diagnostics even though PCRE patterns are usually
// single-line; /x mode and multi-line literals make them useful.
type Position struct {
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d(@%d)", p.Line, p.Column, p.Offset)
}

// Token is a single lexical unit: a type, its semantically significant
// payload, and the position of its first byte.
type Token struct {
	Type  Type
	Value string
	Pos   Position
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%d", t.Type, t.Value, t.Pos.Offset)
}

// Width reports the byte length of the token's source text.
func (t Token) Width() int {
	return len(t.Value)
}

// EOFToken synthesizes a T_EOF token at the given position, used both to
// terminate a token stream and to answer out-of-range TokenStream peeks.
func EOFToken(pos Position) Token {
	return Token{Type: EOF, Value: "", Pos: pos}
}
