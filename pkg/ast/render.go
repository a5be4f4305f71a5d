package ast

import (
	"strconv"
	"strings"
)

// Render reconstructs a pattern-body string from an AST. It is a
// debugging/testing aid only — not a transpiler, and not guaranteed to
// byte-for-byte reproduce the original source (e.g. it always renders
// named groups as "(?P<name>...)" and /x-mode trivia as "(?#...)"
// comments; quantifiers keep their original token text).
func Render(n Node) string {
	var r renderer
	r.node(n)
	return r.b.String()
}

type renderer struct {
	b strings.Builder
}

func (r *renderer) node(n Node) {
	if n == nil {
		return
	}
	switch v := n.(type) {
	case *Regex:
		r.node(v.Pattern)
	case *Sequence:
		for _, c := range v.Children {
			r.node(c)
		}
	case *Alternation:
		for i, a := range v.Alternatives {
			if i > 0 {
				r.b.WriteByte('|')
			}
			r.node(a)
		}
	case *Literal:
		r.b.WriteString(v.Value)
	case *Dot:
		r.b.WriteByte('.')
	case *Anchor:
		r.b.WriteByte(v.Char)
	case *Assertion:
		r.b.WriteByte('\\')
		r.b.WriteString(v.Kind)
	case *CharType:
		r.b.WriteByte('\\')
		r.b.WriteByte(v.Char)
	case *CharClass:
		r.b.WriteByte('[')
		if v.Negated {
			r.b.WriteByte('^')
		}
		if v.Operation != nil {
			r.classOperation(v.Operation)
		} else {
			for _, p := range v.Parts {
				r.node(p)
			}
		}
		r.b.WriteByte(']')
	case *Range:
		r.node(v.From)
		r.b.WriteByte('-')
		r.node(v.To)
	case *PosixClass:
		r.b.WriteString("[:")
		if v.Negated {
			r.b.WriteByte('^')
		}
		r.b.WriteString(v.Name)
		r.b.WriteString(":]")
	case *UnicodeProp:
		if v.Negated {
			r.b.WriteString("\\P")
		} else {
			r.b.WriteString("\\p")
		}
		if v.Braced {
			r.b.WriteByte('{')
			r.b.WriteString(v.Name)
			r.b.WriteByte('}')
		} else {
			r.b.WriteString(v.Name)
		}
	case *CharLiteral:
		r.b.WriteString(v.Representation)
	case *ControlChar:
		r.b.WriteString("\\c")
		r.b.WriteByte(v.Char)
	case *Backref:
		if v.IsNamed {
			r.b.WriteString("\\k<")
			r.b.WriteString(v.Name)
			r.b.WriteByte('>')
		} else {
			r.b.WriteByte('\\')
			r.b.WriteString(strconv.Itoa(v.Number))
		}
	case *Subroutine:
		r.b.WriteString(v.SyntaxTag)
	case *Group:
		r.group(v)
	case *Conditional:
		r.b.WriteString("(?(")
		r.node(v.Condition)
		r.b.WriteByte(')')
		r.node(v.Yes)
		if v.No != nil {
			r.b.WriteByte('|')
			r.node(v.No)
		}
		r.b.WriteByte(')')
	case *Define:
		r.b.WriteString("(?(DEFINE)")
		r.node(v.Content)
		r.b.WriteByte(')')
	case *Quantifier:
		r.node(v.Child)
		r.b.WriteString(v.Token)
	case *Comment:
		r.b.WriteString("(?#")
		r.b.WriteString(v.Text)
		r.b.WriteByte(')')
	case *PcreVerb:
		r.b.WriteString("(*")
		r.b.WriteString(v.Verb)
		r.b.WriteByte(')')
	case *Keep:
		r.b.WriteString("\\K")
	case *Callout:
		r.b.WriteString("(?C")
		r.b.WriteString(v.Identifier)
		r.b.WriteByte(')')
	case *ClassOperation:
		r.classOperation(v)
	}
}

func (r *renderer) classOperation(op *ClassOperation) {
	r.classSide(op.Left)
	if op.Kind == ClassSubtraction {
		r.b.WriteString("--")
	} else {
		r.b.WriteString("&&")
	}
	r.classSide(op.Right)
}

func (r *renderer) classSide(c *CharClass) {
	for _, p := range c.Parts {
		r.node(p)
	}
}

func (r *renderer) group(g *Group) {
	switch g.Kind {
	case GroupCapturing:
		r.b.WriteByte('(')
		r.node(g.Child)
		r.b.WriteByte(')')
	case GroupNamed:
		r.b.WriteString("(?P<")
		r.b.WriteString(g.Name)
		r.b.WriteByte('>')
		r.node(g.Child)
		r.b.WriteByte(')')
	case GroupNonCapturing:
		r.b.WriteString("(?:")
		r.node(g.Child)
		r.b.WriteByte(')')
	case GroupAtomic:
		r.b.WriteString("(?>")
		r.node(g.Child)
		r.b.WriteByte(')')
	case GroupLookahead:
		r.b.WriteString("(?=")
		r.node(g.Child)
		r.b.WriteByte(')')
	case GroupNegLookahead:
		r.b.WriteString("(?!")
		r.node(g.Child)
		r.b.WriteByte(')')
	case GroupLookbehind:
		r.b.WriteString("(?<=")
		r.node(g.Child)
		r.b.WriteByte(')')
	case GroupNegLookbehind:
		r.b.WriteString("(?<!")
		r.node(g.Child)
		r.b.WriteByte(')')
	case GroupBranchReset:
		r.b.WriteString("(?|")
		r.node(g.Child)
		r.b.WriteByte(')')
	case GroupInlineFlags:
		r.b.WriteString("(?")
		r.b.WriteString(g.Flags)
		if g.Child != nil {
			r.b.WriteByte(':')
			r.node(g.Child)
		}
		r.b.WriteByte(')')
	case GroupModifierSpan:
		r.b.WriteString("(?")
		r.b.WriteString(g.Flags)
		r.b.WriteByte(':')
		r.node(g.Child)
		r.b.WriteByte(')')
	default:
		r.b.WriteByte('(')
		r.node(g.Child)
		r.b.WriteByte(')')
	}
}
