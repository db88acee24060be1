package css

import "fmt"

// Weight returns the number of selectors node contributes toward a size
// bound. A rule counts its selectors, an at-rule with a block counts one for
// itself plus the weight of everything inside, anything else counts zero.
func Weight(node Node) int {
	switch n := node.(type) {
	case *Rule:
		return len(n.Selectors)
	case *AtRule:
		if !n.HasBlock() {
			return 0
		}
		w := 1
		for _, child := range n.Children {
			w += Weight(child)
		}
		return w
	case *Other:
		return 0
	default:
		// Node is sealed, this should never happen
		panic(fmt.Sprintf("css: unexpected node type %T", node))
	}
}
