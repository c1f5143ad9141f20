package tree

import "math"

// Rect is a pixel rectangle in display coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Layout computes the rectangle of every container when the tree fills
// bounds. Padding is applied once as an outer margin and once between
// each pair of siblings. Child extents follow the split ratios with
// rounding applied at the boundaries; the last child absorbs the
// remainder so siblings tile their split exactly. The function is pure:
// the same tree, bounds and padding always produce the same map.
func (t *Tree) Layout(bounds Rect, padding int) map[NodeID]Rect {
	out := make(map[NodeID]Rect, len(t.nodes))
	inner := Rect{
		X:      bounds.X + padding,
		Y:      bounds.Y + padding,
		Width:  bounds.Width - 2*padding,
		Height: bounds.Height - 2*padding,
	}
	if inner.Width < 0 {
		inner.Width = 0
	}
	if inner.Height < 0 {
		inner.Height = 0
	}
	t.layoutNode(t.root, inner, padding, out)
	return out
}

func (t *Tree) layoutNode(id NodeID, r Rect, padding int, out map[NodeID]Rect) {
	n, ok := t.nodes[id]
	if !ok {
		return
	}
	out[id] = r
	if n.kind != kindSplit {
		return
	}

	total := r.Width
	if n.orient == Horizontal {
		total = r.Height
	}
	sizes := divide(total, padding, n.ratios)

	offset := 0
	for i, child := range n.children {
		cr := r
		if n.orient == Vertical {
			cr.X = r.X + offset
			cr.Width = sizes[i]
		} else {
			cr.Y = r.Y + offset
			cr.Height = sizes[i]
		}
		t.layoutNode(child, cr, padding, out)
		offset += sizes[i] + padding
	}
}

// divide splits total pixels among len(ratios) children separated by
// gutters of padding pixels. Boundaries are rounded; the last child
// takes whatever remains of the available span.
func divide(total, padding int, ratios []float64) []int {
	n := len(ratios)
	avail := total - (n-1)*padding
	if avail < 0 {
		avail = 0
	}
	sizes := make([]int, n)
	acc := 0.0
	prev := 0
	for i := 0; i < n-1; i++ {
		acc += ratios[i]
		edge := int(math.Round(acc * float64(avail)))
		sizes[i] = edge - prev
		prev = edge
	}
	sizes[n-1] = avail - prev
	return sizes
}
