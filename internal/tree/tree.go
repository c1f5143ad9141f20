// Package tree implements the container tree that tiles windows on a
// logical display: splits with weighted children, leaves holding at most
// one window, and pure layout/traversal over the structure.
package tree

import (
	"fmt"
	"math"
)

// NodeID is a stable handle into a tree's container table. IDs are never
// reused within the lifetime of a tree.
type NodeID int

// NoNode is returned where no container applies.
const NoNode NodeID = -1

// WindowID identifies a platform window. Zero means no window.
type WindowID uint32

// Orientation is the divider direction of a split. A vertical split lays
// its children out left to right; a horizontal split stacks them top to
// bottom.
type Orientation int

const (
	Vertical Orientation = iota
	Horizontal
)

func (o Orientation) String() string {
	if o == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// Direction is a movement direction for focus and window navigation.
type Direction int

const (
	DirLeft Direction = iota
	DirRight
	DirUp
	DirDown
)

func (d Direction) String() string {
	switch d {
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	case DirUp:
		return "up"
	default:
		return "down"
	}
}

// Orientation returns the split orientation that arranges children along
// this direction's axis.
func (d Direction) Orientation() Orientation {
	if d == DirLeft || d == DirRight {
		return Vertical
	}
	return Horizontal
}

// forward reports whether the direction points toward higher child
// indices within a matching split.
func (d Direction) forward() bool {
	return d == DirRight || d == DirDown
}

// minRatio is the smallest share of a split any child may hold. Resize
// requests are clamped so no sibling drops below it.
const minRatio = 0.10

const ratioEpsilon = 1e-9

type nodeKind int

const (
	kindLeaf nodeKind = iota
	kindSplit
)

type node struct {
	kind   nodeKind
	parent NodeID

	// leaf
	window WindowID

	// split
	orient   Orientation
	children []NodeID
	ratios   []float64
}

// Tree is a container tree for one logical display. The table owns every
// node; children slices own the child IDs while parent links are
// back-references only. Not safe for concurrent use.
type Tree struct {
	nodes map[NodeID]*node
	root  NodeID
	next  NodeID
}

// New returns a tree holding a single empty root leaf.
func New() *Tree {
	t := &Tree{nodes: make(map[NodeID]*node)}
	t.root = t.alloc(&node{kind: kindLeaf, parent: NoNode})
	return t
}

func (t *Tree) alloc(n *node) NodeID {
	id := t.next
	t.next++
	t.nodes[id] = n
	return id
}

// Root returns the root container.
func (t *Tree) Root() NodeID { return t.root }

// Len returns the number of containers in the tree.
func (t *Tree) Len() int { return len(t.nodes) }

// Parent returns the parent of id, or NoNode for the root or an unknown id.
func (t *Tree) Parent(id NodeID) NodeID {
	n, ok := t.nodes[id]
	if !ok {
		return NoNode
	}
	return n.parent
}

// IsLeaf reports whether id names a leaf container.
func (t *Tree) IsLeaf(id NodeID) bool {
	n, ok := t.nodes[id]
	return ok && n.kind == kindLeaf
}

// Window returns the window held by leaf id. ok is false for empty
// leaves, splits and unknown ids.
func (t *Tree) Window(id NodeID) (WindowID, bool) {
	n, ok := t.nodes[id]
	if !ok || n.kind != kindLeaf || n.window == 0 {
		return 0, false
	}
	return n.window, true
}

// Children returns the child ids of a split in layout order.
func (t *Tree) Children(id NodeID) []NodeID {
	n, ok := t.nodes[id]
	if !ok || n.kind != kindSplit {
		return nil
	}
	out := make([]NodeID, len(n.children))
	copy(out, n.children)
	return out
}

// Ratios returns the child ratios of a split in layout order.
func (t *Tree) Ratios(id NodeID) []float64 {
	n, ok := t.nodes[id]
	if !ok || n.kind != kindSplit {
		return nil
	}
	out := make([]float64, len(n.ratios))
	copy(out, n.ratios)
	return out
}

// Orientation returns the orientation of split id.
func (t *Tree) Orientation(id NodeID) (Orientation, bool) {
	n, ok := t.nodes[id]
	if !ok || n.kind != kindSplit {
		return 0, false
	}
	return n.orient, true
}

// Leaves returns every leaf in depth-first layout order.
func (t *Tree) Leaves() []NodeID {
	var out []NodeID
	t.walk(t.root, func(id NodeID, n *node) {
		if n.kind == kindLeaf {
			out = append(out, id)
		}
	})
	return out
}

// Windows returns every window in depth-first layout order.
func (t *Tree) Windows() []WindowID {
	var out []WindowID
	t.walk(t.root, func(_ NodeID, n *node) {
		if n.kind == kindLeaf && n.window != 0 {
			out = append(out, n.window)
		}
	})
	return out
}

// Empty reports whether the tree holds no windows.
func (t *Tree) Empty() bool {
	return len(t.Windows()) == 0
}

// FindWindow returns the leaf holding w, or NoNode.
func (t *Tree) FindWindow(w WindowID) NodeID {
	found := NoNode
	t.walk(t.root, func(id NodeID, n *node) {
		if n.kind == kindLeaf && n.window == w && w != 0 {
			found = id
		}
	})
	return found
}

func (t *Tree) walk(id NodeID, fn func(NodeID, *node)) {
	n, ok := t.nodes[id]
	if !ok {
		return
	}
	fn(id, n)
	for _, c := range n.children {
		t.walk(c, fn)
	}
}

// InsertWindow places w in the tree relative to target. An empty target
// leaf is filled in place. An occupied target whose parent split already
// runs along o gains the new window as the next sibling; otherwise the
// target leaf is wrapped in a new split along o with the new window
// beside it at equal share.
func (t *Tree) InsertWindow(target NodeID, w WindowID, o Orientation) (NodeID, error) {
	if w == 0 {
		return NoNode, fmt.Errorf("insert: zero window id")
	}
	if t.FindWindow(w) != NoNode {
		return NoNode, fmt.Errorf("insert: window %d already managed", w)
	}
	n, ok := t.nodes[target]
	if !ok || n.kind != kindLeaf {
		return NoNode, fmt.Errorf("insert: target %d is not a leaf", target)
	}

	if n.window == 0 {
		n.window = w
		return target, nil
	}

	if p, pok := t.nodes[n.parent]; pok && p.kind == kindSplit && p.orient == o {
		leaf := t.alloc(&node{kind: kindLeaf, parent: n.parent, window: w})
		idx := childIndex(p, target)
		p.children = insertAt(p.children, idx+1, leaf)
		p.ratios = rescaleForNewChild(p.ratios, idx+1)
		return leaf, nil
	}

	return t.wrapInSplit(target, w, o), nil
}

// wrapInSplit replaces leaf with a split along o holding leaf and a new
// leaf for w, each at half share.
func (t *Tree) wrapInSplit(leaf NodeID, w WindowID, o Orientation) NodeID {
	old := t.nodes[leaf]
	split := t.alloc(&node{kind: kindSplit, parent: old.parent, orient: o})
	neu := t.alloc(&node{kind: kindLeaf, parent: split, window: w})

	if old.parent == NoNode {
		t.root = split
	} else {
		p := t.nodes[old.parent]
		p.children[childIndex(p, leaf)] = split
	}
	old.parent = split
	s := t.nodes[split]
	s.children = []NodeID{leaf, neu}
	s.ratios = []float64{0.5, 0.5}
	return neu
}

// SplitLeaf wraps an occupied leaf in a split along o with a new empty
// sibling and returns the empty leaf. Splitting an empty leaf is
// reported as an error so callers can treat it as a no-op.
func (t *Tree) SplitLeaf(id NodeID, o Orientation) (NodeID, error) {
	n, ok := t.nodes[id]
	if !ok || n.kind != kindLeaf {
		return NoNode, fmt.Errorf("split: target %d is not a leaf", id)
	}
	if n.window == 0 {
		return NoNode, fmt.Errorf("split: leaf %d is empty", id)
	}
	return t.wrapInSplit(id, 0, o), nil
}

// RemoveWindow unlinks the leaf holding w, collapsing any split left with
// a single child. The returned id is the leaf that should take focus
// next, NoNode when the tree is now empty. ok is false when w is not
// managed.
func (t *Tree) RemoveWindow(w WindowID) (NodeID, bool) {
	leaf := t.FindWindow(w)
	if leaf == NoNode {
		return NoNode, false
	}
	return t.RemoveLeaf(leaf)
}

// RemoveLeaf unlinks leaf id and collapses upward. Removing the last
// leaf leaves the tree as a single empty root leaf.
func (t *Tree) RemoveLeaf(id NodeID) (NodeID, bool) {
	n, ok := t.nodes[id]
	if !ok || n.kind != kindLeaf {
		return NoNode, false
	}

	if n.parent == NoNode {
		// Root leaf: the tree stays as an empty leaf.
		n.window = 0
		return NoNode, true
	}

	next := t.focusAfterRemoval(id)

	p := t.nodes[n.parent]
	idx := childIndex(p, id)
	p.children = removeAt(p.children, idx)
	p.ratios = renormalize(removeFloatAt(p.ratios, idx))
	delete(t.nodes, id)

	t.collapse(n.parent)
	return next, true
}

// collapse replaces any split holding a single child with that child,
// repeating toward the root.
func (t *Tree) collapse(id NodeID) {
	for id != NoNode {
		n, ok := t.nodes[id]
		if !ok || n.kind != kindSplit || len(n.children) != 1 {
			return
		}
		child := n.children[0]
		c := t.nodes[child]
		c.parent = n.parent
		if n.parent == NoNode {
			t.root = child
		} else {
			p := t.nodes[n.parent]
			p.children[childIndex(p, id)] = child
		}
		delete(t.nodes, id)
		id = c.parent
	}
}

// focusAfterRemoval picks the leaf to focus once id is gone: the deepest
// leaf of the nearest sibling subtree, on the side facing the removed
// leaf, searching outward through ancestors.
func (t *Tree) focusAfterRemoval(id NodeID) NodeID {
	child := id
	for {
		n := t.nodes[child]
		if n.parent == NoNode {
			return NoNode
		}
		p := t.nodes[n.parent]
		idx := childIndex(p, child)
		if idx > 0 {
			return t.edgeLeaf(p.children[idx-1], true)
		}
		if idx+1 < len(p.children) {
			return t.edgeLeaf(p.children[idx+1], false)
		}
		child = n.parent
	}
}

// edgeLeaf descends to the last (or first) leaf of a subtree.
func (t *Tree) edgeLeaf(id NodeID, last bool) NodeID {
	for {
		n := t.nodes[id]
		if n.kind == kindLeaf {
			return id
		}
		if last {
			id = n.children[len(n.children)-1]
		} else {
			id = n.children[0]
		}
	}
}

// SwapWindows exchanges the windows held by two leaves. Either leaf may
// be empty.
func (t *Tree) SwapWindows(a, b NodeID) bool {
	na, aok := t.nodes[a]
	nb, bok := t.nodes[b]
	if !aok || !bok || na.kind != kindLeaf || nb.kind != kindLeaf || a == b {
		return false
	}
	na.window, nb.window = nb.window, na.window
	return true
}

// Resize grows (positive delta) or shrinks the share of id within its
// parent split when the parent runs along dir's axis. The adjacent
// sibling in dir gives up the difference, falling back to the opposite
// neighbor at the edge. Shares are clamped to the minimum floor and
// renormalized. Returns false when the request is a structural no-op.
func (t *Tree) Resize(id NodeID, dir Direction, delta float64) bool {
	n, ok := t.nodes[id]
	if !ok || n.parent == NoNode {
		return false
	}
	p := t.nodes[n.parent]
	if p.orient != dir.Orientation() {
		return false
	}
	idx := childIndex(p, id)

	other := idx - 1
	if dir.forward() {
		other = idx + 1
	}
	if other < 0 || other >= len(p.children) {
		other = idx - 1
		if other < 0 {
			other = idx + 1
		}
	}

	// Clamp the transfer so neither side crosses the floor.
	d := delta
	if d > p.ratios[other]-minRatio {
		d = p.ratios[other] - minRatio
	}
	if -d > p.ratios[idx]-minRatio {
		d = minRatio - p.ratios[idx]
	}
	// A clamp against a side already below the floor must not flip the
	// transfer's sign; such a request is a no-op, never a reversal.
	if d*delta < 0 || math.Abs(d) < ratioEpsilon {
		return false
	}
	p.ratios[idx] += d
	p.ratios[other] -= d
	p.ratios = renormalize(p.ratios)
	return true
}

// Validate checks the structural invariants of the tree: every split has
// at least two children with positive ratios summing to one, parent and
// child links agree, and no window appears in more than one leaf.
func (t *Tree) Validate() error {
	if _, ok := t.nodes[t.root]; !ok {
		return fmt.Errorf("root %d missing from table", t.root)
	}
	if t.nodes[t.root].parent != NoNode {
		return fmt.Errorf("root %d has a parent", t.root)
	}
	seen := make(map[WindowID]NodeID)
	reached := 0
	var err error
	t.walk(t.root, func(id NodeID, n *node) {
		reached++
		if err != nil {
			return
		}
		switch n.kind {
		case kindLeaf:
			if n.window == 0 {
				return
			}
			if prev, dup := seen[n.window]; dup {
				err = fmt.Errorf("window %d in leaves %d and %d", n.window, prev, id)
				return
			}
			seen[n.window] = id
		case kindSplit:
			if len(n.children) < 2 {
				err = fmt.Errorf("split %d has %d children", id, len(n.children))
				return
			}
			if len(n.ratios) != len(n.children) {
				err = fmt.Errorf("split %d: %d ratios for %d children", id, len(n.ratios), len(n.children))
				return
			}
			sum := 0.0
			for i, r := range n.ratios {
				if r <= 0 {
					err = fmt.Errorf("split %d: ratio[%d]=%g not positive", id, i, r)
					return
				}
				sum += r
			}
			if math.Abs(sum-1.0) > 1e-6 {
				err = fmt.Errorf("split %d: ratios sum to %g", id, sum)
				return
			}
			for _, c := range n.children {
				cn, ok := t.nodes[c]
				if !ok {
					err = fmt.Errorf("split %d: child %d missing", id, c)
					return
				}
				if cn.parent != id {
					err = fmt.Errorf("child %d: parent link %d, expected %d", c, cn.parent, id)
					return
				}
			}
		}
	})
	if err != nil {
		return err
	}
	if reached != len(t.nodes) {
		return fmt.Errorf("table holds %d nodes, %d reachable from root", len(t.nodes), reached)
	}
	return nil
}

func childIndex(p *node, child NodeID) int {
	for i, c := range p.children {
		if c == child {
			return i
		}
	}
	return -1
}

func insertAt(s []NodeID, i int, v NodeID) []NodeID {
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

func removeAt(s []NodeID, i int) []NodeID {
	return append(s[:i], s[i+1:]...)
}

func removeFloatAt(s []float64, i int) []float64 {
	return append(s[:i], s[i+1:]...)
}

// rescaleForNewChild shrinks existing ratios to make room for one new
// child at index i with an equal 1/(n+1) share.
func rescaleForNewChild(ratios []float64, i int) []float64 {
	n := len(ratios)
	scale := float64(n) / float64(n+1)
	out := make([]float64, 0, n+1)
	for _, r := range ratios {
		out = append(out, r*scale)
	}
	out = insertFloatAt(out, i, 1.0/float64(n+1))
	return renormalize(out)
}

func insertFloatAt(s []float64, i int, v float64) []float64 {
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

func renormalize(ratios []float64) []float64 {
	sum := 0.0
	for _, r := range ratios {
		sum += r
	}
	if sum <= 0 {
		even := 1.0 / float64(len(ratios))
		for i := range ratios {
			ratios[i] = even
		}
		return ratios
	}
	for i := range ratios {
		ratios[i] /= sum
	}
	return ratios
}
