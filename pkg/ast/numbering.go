package ast

import "strconv"

// GroupNumbering is the derived value CollectGroupNumbering produces:
// the highest assigned capture number, the numbers in source order,
// and the name-to-numbers map for named captures.
type GroupNumbering struct {
	MaxGroupNumber  int
	CaptureSequence []int
	NamedGroups     map[string][]int
}

// Lookup resolves a backreference target, either a decimal group
// number or a group name, to its capture number (the first one
// assigned, for a duplicate name). This is a convenience built on top
// of the bare GroupNumbering fields; pkg/analyzer's Validator resolves
// backreferences and subroutine calls through it.
func (gn GroupNumbering) Lookup(nameOrNumber string) (int, bool) {
	if n, err := strconv.Atoi(nameOrNumber); err == nil {
		for _, c := range gn.CaptureSequence {
			if c == n {
				return n, true
			}
		}
		return 0, false
	}
	nums, ok := gn.NamedGroups[nameOrNumber]
	if !ok || len(nums) == 0 {
		return 0, false
	}
	return nums[0], true
}

// CollectGroupNumbering walks root and assigns PCRE capture numbers,
// honoring branch-reset groups: every alternative of a
// "(?|...)" group restarts numbering from the same base, and the
// group as a whole advances nextGroupNumber past whichever alternative
// used the most numbers.
func CollectGroupNumbering(root Node) GroupNumbering {
	c := &numberingCollector{next: 1, namedGroups: map[string][]int{}}
	c.walk(root)
	for name, nums := range c.namedGroups {
		c.namedGroups[name] = dedupInts(nums)
	}
	return GroupNumbering{
		MaxGroupNumber:  c.max,
		CaptureSequence: c.captureSequence,
		NamedGroups:     c.namedGroups,
	}
}

type numberingCollector struct {
	next            int
	max             int
	captureSequence []int
	namedGroups     map[string][]int
}

func (c *numberingCollector) walk(n Node) {
	if n == nil {
		return
	}
	if g, ok := n.(*Group); ok {
		switch g.Kind {
		case GroupCapturing, GroupNamed:
			num := c.next
			c.next++
			c.captureSequence = append(c.captureSequence, num)
			if num > c.max {
				c.max = num
			}
			if g.Kind == GroupNamed {
				c.namedGroups[g.Name] = append(c.namedGroups[g.Name], num)
			}
			c.walk(g.Child)
			return
		case GroupBranchReset:
			base := c.next
			maxExtra := 0
			for _, alt := range branchAlternatives(g.Child) {
				c.next = base
				c.walk(alt)
				if extra := c.next - base; extra > maxExtra {
					maxExtra = extra
				}
			}
			c.next = base + maxExtra
			return
		}
	}
	for _, child := range Children(n) {
		c.walk(child)
	}
}

// branchAlternatives returns the alternatives of a branch-reset
// group's body: the body's own Alternation children if it is one, or
// a single-element slice otherwise (a branch-reset group with no "|").
func branchAlternatives(child Node) []Node {
	if alt, ok := child.(*Alternation); ok {
		return alt.Alternatives
	}
	return []Node{child}
}

func dedupInts(nums []int) []int {
	seen := make(map[int]bool, len(nums))
	out := make([]int, 0, len(nums))
	for _, n := range nums {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
