// Package wm holds the window manager core: the registry binding
// physical displays to logical displays, the focus state and the
// manager that serializes every mutation of the container trees.
package wm

import (
	"fmt"
	"sort"

	"github.com/tilewm/tilewm/internal/platform"
	"github.com/tilewm/tilewm/internal/tree"
)

// LogicalID names a logical display. Ten slots exist, 0 through 9.
type LogicalID int

const (
	MinLogicalID LogicalID = 0
	MaxLogicalID LogicalID = 9
)

// Valid reports whether the id is inside the logical display range.
func (id LogicalID) Valid() bool {
	return id >= MinLogicalID && id <= MaxLogicalID
}

// LogicalDisplay is a virtual workspace: a container tree plus the
// orientation applied to the next insert and the leaf that last held
// focus while the display was visible.
type LogicalDisplay struct {
	ID        LogicalID
	Tree      *tree.Tree
	NextSplit tree.Orientation
	LastFocus tree.NodeID
}

// PhysicalDisplay tracks a connected display and the logical display it
// currently shows.
type PhysicalDisplay struct {
	ID      int
	Name    string
	Bounds  platform.Rect
	Primary bool
	Shown   LogicalID
}

// Registry owns the physical and logical display tables. A logical
// display is shown on at most one physical display at a time, and every
// physical display always shows exactly one logical display.
type Registry struct {
	physical map[int]*PhysicalDisplay
	logical  map[LogicalID]*LogicalDisplay
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		physical: make(map[int]*PhysicalDisplay),
		logical:  make(map[LogicalID]*LogicalDisplay),
	}
}

// Logical returns the logical display with the given id, creating it on
// first use. Ids outside 0..9 yield an error.
func (r *Registry) Logical(id LogicalID) (*LogicalDisplay, error) {
	if !id.Valid() {
		return nil, fmt.Errorf("logical display %d out of range 0..9", id)
	}
	ld, ok := r.logical[id]
	if !ok {
		ld = &LogicalDisplay{
			ID:        id,
			Tree:      tree.New(),
			NextSplit: tree.Vertical,
			LastFocus: tree.NoNode,
		}
		r.logical[id] = ld
	}
	return ld, nil
}

// Physical returns the physical display with the given id.
func (r *Registry) Physical(id int) (*PhysicalDisplay, bool) {
	pd, ok := r.physical[id]
	return pd, ok
}

// Physicals returns the connected physical displays ordered by id.
func (r *Registry) Physicals() []*PhysicalDisplay {
	out := make([]*PhysicalDisplay, 0, len(r.physical))
	for _, pd := range r.physical {
		out = append(out, pd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Logicals returns the known logical displays ordered by id.
func (r *Registry) Logicals() []*LogicalDisplay {
	out := make([]*LogicalDisplay, 0, len(r.logical))
	for _, ld := range r.logical {
		out = append(out, ld)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PhysicalShowing returns the physical display currently showing the
// logical display, if any.
func (r *Registry) PhysicalShowing(id LogicalID) (*PhysicalDisplay, bool) {
	for _, pd := range r.physical {
		if pd.Shown == id {
			return pd, true
		}
	}
	return nil, false
}

// Primary returns the primary physical display, falling back to the
// lowest id when none is marked primary. ok is false with no displays
// connected.
func (r *Registry) Primary() (*PhysicalDisplay, bool) {
	ps := r.Physicals()
	if len(ps) == 0 {
		return nil, false
	}
	for _, pd := range ps {
		if pd.Primary {
			return pd, true
		}
	}
	return ps[0], true
}

// LogicalOfWindow returns the logical display whose tree holds w.
func (r *Registry) LogicalOfWindow(w tree.WindowID) (*LogicalDisplay, bool) {
	for _, ld := range r.Logicals() {
		if ld.Tree.FindWindow(w) != tree.NoNode {
			return ld, true
		}
	}
	return nil, false
}

// Switch points a physical display at a different logical display and
// returns the one previously shown. The previous logical display keeps
// its tree even when empty. Showing a logical display that is already
// visible on another physical display is refused; callers jump focus
// there instead.
func (r *Registry) Switch(physicalID int, to LogicalID) (LogicalID, error) {
	pd, ok := r.physical[physicalID]
	if !ok {
		return 0, fmt.Errorf("physical display %d not connected", physicalID)
	}
	if !to.Valid() {
		return 0, fmt.Errorf("logical display %d out of range 0..9", to)
	}
	if other, shown := r.PhysicalShowing(to); shown && other.ID != physicalID {
		return 0, fmt.Errorf("logical display %d already shown on %s", to, other.Name)
	}
	if _, err := r.Logical(to); err != nil {
		return 0, err
	}
	prev := pd.Shown
	pd.Shown = to
	return prev, nil
}

// SyncDisplays reconciles the physical table against the connected
// displays: bounds of known displays are refreshed, new displays are
// bound to the lowest free logical display, and vanished displays are
// dropped while their logical displays and windows stay intact.
func (r *Registry) SyncDisplays(displays []platform.Display) error {
	seen := make(map[int]bool, len(displays))
	for _, d := range displays {
		seen[d.ID] = true
		if pd, ok := r.physical[d.ID]; ok {
			pd.Name = d.Name
			pd.Bounds = d.Bounds
			pd.Primary = d.Primary
			continue
		}
		lid, err := r.freeLogical()
		if err != nil {
			return err
		}
		if _, err := r.Logical(lid); err != nil {
			return err
		}
		r.physical[d.ID] = &PhysicalDisplay{
			ID:      d.ID,
			Name:    d.Name,
			Bounds:  d.Bounds,
			Primary: d.Primary,
			Shown:   lid,
		}
	}
	for id := range r.physical {
		if !seen[id] {
			delete(r.physical, id)
		}
	}
	return nil
}

// freeLogical returns the lowest logical id not shown on any physical
// display, preferring ids that have never been used.
func (r *Registry) freeLogical() (LogicalID, error) {
	for id := MinLogicalID; id <= MaxLogicalID; id++ {
		if _, shown := r.PhysicalShowing(id); shown {
			continue
		}
		if _, used := r.logical[id]; !used {
			return id, nil
		}
	}
	// Every id exists already; settle for one that is merely hidden.
	for id := MinLogicalID; id <= MaxLogicalID; id++ {
		if _, shown := r.PhysicalShowing(id); !shown {
			return id, nil
		}
	}
	return 0, fmt.Errorf("no free logical display for new physical display")
}
