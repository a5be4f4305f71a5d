package ast

// Children returns n's direct child nodes in source order. Analyzers
// that don't need per-kind behavior (the complexity scorer, the ReDoS
// profiler) recurse generically over this instead of implementing a
// full Visitor.
func Children(n Node) []Node {
	switch v := n.(type) {
	case *Regex:
		if v.Pattern == nil {
			return nil
		}
		return []Node{v.Pattern}
	case *Sequence:
		return v.Children
	case *Alternation:
		return v.Alternatives
	case *CharClass:
		if v.Operation != nil {
			return []Node{v.Operation}
		}
		return v.Parts
	case *ClassOperation:
		return []Node{v.Left, v.Right}
	case *Range:
		return []Node{v.From, v.To}
	case *Group:
		if v.Child == nil {
			return nil
		}
		return []Node{v.Child}
	case *Conditional:
		children := []Node{v.Condition}
		if v.Yes != nil {
			children = append(children, v.Yes)
		}
		if v.No != nil {
			children = append(children, v.No)
		}
		return children
	case *Define:
		return []Node{v.Content}
	case *Quantifier:
		return []Node{v.Child}
	default:
		return nil
	}
}
