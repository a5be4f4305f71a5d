package analyzer

import "github.com/perbu/rxlint/pkg/ast"

// Complexity folds root into a weighted score: atoms and groups
// contribute a flat weight, quantifiers and nested unbounded
// quantifiers compound, and character classes scale with their part
// count. Walked with ast.Children rather than a Visitor — the scorer
// treats every node kind uniformly except for the handful that carry
// their own weight.
func Complexity(root ast.Node) int {
	return score(root, 0)
}

func score(n ast.Node, quantifierDepth int) int {
	if n == nil {
		return 0
	}
	switch v := n.(type) {
	case *ast.Quantifier:
		weight := 3
		if v.Max == -1 {
			weight *= 2
		}
		total := weight * nestingMultiplier(quantifierDepth+1)
		return total + score(v.Child, quantifierDepth+1)
	case *ast.Group:
		return 2 + score(v.Child, quantifierDepth)
	case *ast.CharClass:
		if v.Operation != nil {
			return score(v.Operation, quantifierDepth)
		}
		total := len(v.Parts)
		for _, p := range v.Parts {
			total += score(p, quantifierDepth)
		}
		return total
	case *ast.Assertion:
		return 2
	case *ast.Backref:
		return 2
	case *ast.Subroutine:
		return 2
	default:
		total := 0
		children := ast.Children(n)
		if len(children) == 0 {
			return 1 // a plain atom: Literal, Dot, Anchor, CharType, etc.
		}
		for _, c := range children {
			total += score(c, quantifierDepth)
		}
		return total
	}
}

// nestingMultiplier grows quantifier weight multiplicatively as it
// nests inside other quantifiers, flat at depth 0 or 1.
func nestingMultiplier(depth int) int {
	if depth <= 1 {
		return 1
	}
	return depth
}
