package tree

// traversalSpan is the synthetic bounds edge used when computing the
// geometry that guides directional descent. Only relative positions
// matter, so any comfortably large span works.
const traversalSpan = 1 << 16

// Neighbor returns the leaf reached by moving from leaf in dir, or
// NoNode when the tree edge is hit. The search ascends to the nearest
// ancestor split along dir's axis with a sibling on that side, steps to
// the sibling, then descends: matching-axis splits contribute their
// nearest-edge child, perpendicular splits the child overlapping the
// origin leaf's center.
func (t *Tree) Neighbor(leaf NodeID, dir Direction) NodeID {
	n, ok := t.nodes[leaf]
	if !ok || n.kind != kindLeaf {
		return NoNode
	}

	rects := t.Layout(Rect{Width: traversalSpan, Height: traversalSpan}, 0)
	origin := rects[leaf]
	center := origin.Y + origin.Height/2
	if dir.Orientation() == Horizontal {
		center = origin.X + origin.Width/2
	}

	child := leaf
	for {
		cn := t.nodes[child]
		if cn.parent == NoNode {
			return NoNode
		}
		p := t.nodes[cn.parent]
		if p.kind == kindSplit && p.orient == dir.Orientation() {
			idx := childIndex(p, child)
			if dir.forward() && idx+1 < len(p.children) {
				return t.descend(p.children[idx+1], dir, center, rects)
			}
			if !dir.forward() && idx > 0 {
				return t.descend(p.children[idx-1], dir, center, rects)
			}
		}
		child = cn.parent
	}
}

// descend walks a subtree down to the leaf nearest the movement origin.
func (t *Tree) descend(id NodeID, dir Direction, center int, rects map[NodeID]Rect) NodeID {
	for {
		n := t.nodes[id]
		if n.kind == kindLeaf {
			return id
		}
		if n.orient == dir.Orientation() {
			// Entering along the split axis: take the edge facing the
			// origin.
			if dir.forward() {
				id = n.children[0]
			} else {
				id = n.children[len(n.children)-1]
			}
			continue
		}
		// Perpendicular split: take the child whose span sits closest to
		// the origin leaf's center on that axis.
		best := n.children[0]
		bestDist := -1
		for _, c := range n.children {
			r := rects[c]
			var cc int
			if n.orient == Vertical {
				cc = r.X + r.Width/2
			} else {
				cc = r.Y + r.Height/2
			}
			d := cc - center
			if d < 0 {
				d = -d
			}
			if bestDist < 0 || d < bestDist {
				best = c
				bestDist = d
			}
		}
		id = best
	}
}
