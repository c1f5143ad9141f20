package wm

import (
	"github.com/tilewm/tilewm/internal/tree"
)

// Snapshot is a read-only view of the manager state, serialized over
// IPC for the CLI and MCP surfaces.
type Snapshot struct {
	Physical []PhysicalSnapshot `json:"physical"`
	Logical  []LogicalSnapshot  `json:"logical"`
	Focus    *FocusSnapshot     `json:"focus,omitempty"`
	Padding  int                `json:"padding"`
}

// PhysicalSnapshot describes one connected display.
type PhysicalSnapshot struct {
	ID      int          `json:"id"`
	Name    string       `json:"name"`
	Bounds  RectSnapshot `json:"bounds"`
	Primary bool         `json:"primary,omitempty"`
	Shown   int          `json:"shown"`
}

// LogicalSnapshot describes one logical display and its container tree.
type LogicalSnapshot struct {
	ID      int           `json:"id"`
	Visible bool          `json:"visible"`
	ShownOn int           `json:"shown_on,omitempty"`
	Windows int           `json:"windows"`
	Tree    *NodeSnapshot `json:"tree,omitempty"`
}

// FocusSnapshot names the focused leaf.
type FocusSnapshot struct {
	Logical int    `json:"logical"`
	Node    int    `json:"node"`
	Window  uint32 `json:"window,omitempty"`
}

// NodeSnapshot is one container of a tree.
type NodeSnapshot struct {
	ID          int            `json:"id"`
	Type        string         `json:"type"`
	Window      uint32         `json:"window,omitempty"`
	Orientation string         `json:"orientation,omitempty"`
	Ratios      []float64      `json:"ratios,omitempty"`
	Rect        *RectSnapshot  `json:"rect,omitempty"`
	Children    []NodeSnapshot `json:"children,omitempty"`
}

// RectSnapshot is a serializable rectangle.
type RectSnapshot struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// State captures the current manager state. Rects are included for
// trees that are visible on a physical display.
func (m *Manager) State() Snapshot {
	snap := Snapshot{Padding: m.padding}

	for _, pd := range m.reg.Physicals() {
		snap.Physical = append(snap.Physical, PhysicalSnapshot{
			ID:      pd.ID,
			Name:    pd.Name,
			Bounds:  RectSnapshot{X: pd.Bounds.X, Y: pd.Bounds.Y, Width: pd.Bounds.Width, Height: pd.Bounds.Height},
			Primary: pd.Primary,
			Shown:   int(pd.Shown),
		})
	}

	for _, ld := range m.reg.Logicals() {
		ls := LogicalSnapshot{
			ID:      int(ld.ID),
			Windows: len(ld.Tree.Windows()),
		}
		var rects map[tree.NodeID]tree.Rect
		if pd, shown := m.reg.PhysicalShowing(ld.ID); shown {
			ls.Visible = true
			ls.ShownOn = pd.ID
			rects = ld.Tree.Layout(tree.Rect{
				X: pd.Bounds.X, Y: pd.Bounds.Y,
				Width: pd.Bounds.Width, Height: pd.Bounds.Height,
			}, m.padding)
		}
		node := m.snapshotNode(ld, ld.Tree.Root(), rects)
		ls.Tree = &node
		snap.Logical = append(snap.Logical, ls)
	}

	if m.focus.Focused {
		fs := &FocusSnapshot{Logical: int(m.focus.Logical), Node: int(m.focus.Leaf)}
		if ld, err := m.reg.Logical(m.focus.Logical); err == nil {
			if w, ok := ld.Tree.Window(m.focus.Leaf); ok {
				fs.Window = uint32(w)
			}
		}
		snap.Focus = fs
	}

	return snap
}

func (m *Manager) snapshotNode(ld *LogicalDisplay, id tree.NodeID, rects map[tree.NodeID]tree.Rect) NodeSnapshot {
	ns := NodeSnapshot{ID: int(id)}
	if rects != nil {
		if r, ok := rects[id]; ok {
			ns.Rect = &RectSnapshot{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
		}
	}
	if ld.Tree.IsLeaf(id) {
		ns.Type = "leaf"
		if w, ok := ld.Tree.Window(id); ok {
			ns.Window = uint32(w)
		}
		return ns
	}
	ns.Type = "split"
	if o, ok := ld.Tree.Orientation(id); ok {
		ns.Orientation = o.String()
	}
	ns.Ratios = ld.Tree.Ratios(id)
	for _, c := range ld.Tree.Children(id) {
		ns.Children = append(ns.Children, m.snapshotNode(ld, c, rects))
	}
	return ns
}
