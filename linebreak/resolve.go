package linebreak

import "github.com/ByLCY/galley/box"

// Split cuts list at the given breaks and resolves every discretionary:
// a chosen one contributes its pre-break to the end of its line and its
// post-break to the start of the next, every other one is replaced by its
// no-break material (or dropped when that is empty). The break nodes
// themselves and the discardable nodes after them are removed.
func Split(list []box.Node, breaks []Breakpoint) [][]box.Node {
	lines := make([][]box.Node, 0, len(breaks))
	var carry box.Node
	for _, bp := range breaks {
		var line []box.Node
		if carry != nil {
			line = append(line, carry)
			carry = nil
		}
		start := min(bp.Start, bp.Pos)
		line = appendResolved(line, list[start:min(bp.Pos, len(list))])
		if bp.Pos < len(list) {
			if d, ok := list[bp.Pos].(*box.Discretionary); ok {
				if d.PreBreak != nil {
					line = append(line, d.PreBreak)
				}
				carry = d.PostBreak
			}
		}
		lines = append(lines, line)
	}
	return lines
}

// Resolve replaces every discretionary in nodes by its no-break material.
func Resolve(nodes []box.Node) []box.Node {
	return appendResolved(make([]box.Node, 0, len(nodes)), nodes)
}

func appendResolved(dst, nodes []box.Node) []box.Node {
	for _, n := range nodes {
		d, ok := n.(*box.Discretionary)
		if !ok {
			dst = append(dst, n)
			continue
		}
		if d.NoBreak != nil {
			dst = append(dst, d.NoBreak)
		}
	}
	return dst
}
