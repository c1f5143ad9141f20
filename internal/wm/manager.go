package wm

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/tilewm/tilewm/internal/platform"
	"github.com/tilewm/tilewm/internal/tree"
)

// Focus is the explicit focus state: either nothing is focused or one
// leaf of one logical display is.
type Focus struct {
	Focused bool
	Logical LogicalID
	Leaf    tree.NodeID
}

// Options configures a Manager.
type Options struct {
	// Padding is the pixel gap applied as outer margin and between
	// tiled windows.
	Padding int
	// ResizeStep is the default ratio delta for resize requests that do
	// not carry one.
	ResizeStep float64
	// Spawn launches a new terminal window. Optional.
	Spawn func() error
	// Logger receives structured manager logs. Defaults to slog.Default.
	Logger *slog.Logger
}

// Manager is the single dispatch point of the tiler. All operations
// mutate the registry and trees and then push frames through the
// backend. Manager is not safe for concurrent use; the daemon loop
// serializes access.
type Manager struct {
	backend platform.Backend
	reg     *Registry
	focus   Focus
	padding int
	step    float64
	spawn   func() error
	log     *slog.Logger

	// physical display operations act on; follows focus.
	active int

	debugChecks bool
}

// NewManager builds a manager over a backend.
func NewManager(backend platform.Backend, opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	step := opts.ResizeStep
	if step <= 0 {
		step = 0.05
	}
	return &Manager{
		backend:     backend,
		reg:         NewRegistry(),
		padding:     opts.Padding,
		step:        step,
		spawn:       opts.Spawn,
		log:         logger,
		active:      -1,
		debugChecks: os.Getenv("TILEWM_DEBUG") != "",
	}
}

// Registry exposes the display registry for read-only consumers.
func (m *Manager) Registry() *Registry { return m.reg }

// Focused returns the current focus state.
func (m *Manager) Focused() Focus { return m.focus }

// Step returns the configured default resize step.
func (m *Manager) Step() float64 { return m.step }

// Init discovers displays and adopts the windows that already exist,
// tiling each one onto the logical display shown on the physical
// display containing its center.
func (m *Manager) Init() error {
	displays, err := m.backend.Displays()
	if err != nil {
		return fmt.Errorf("display discovery failed: %w", err)
	}
	if err := m.reg.SyncDisplays(displays); err != nil {
		return err
	}
	if pd, ok := m.reg.Primary(); ok {
		m.active = pd.ID
	}

	windows, err := m.backend.ListWindows()
	if err != nil {
		m.log.Warn("window adoption skipped", "error", err)
		windows = nil
	}
	for _, w := range windows {
		pd := m.physicalForPoint(w.Bounds.X+w.Bounds.Width/2, w.Bounds.Y+w.Bounds.Height/2)
		if pd == nil {
			pd, _ = m.reg.Primary()
		}
		if pd == nil {
			break
		}
		ld, err := m.reg.Logical(pd.Shown)
		if err != nil {
			return err
		}
		if err := m.insertInto(ld, tree.WindowID(w.ID)); err != nil {
			m.log.Warn("adoption failed", "window", w.ID, "error", err)
		}
	}

	for _, pd := range m.reg.Physicals() {
		m.applyShown(pd)
	}
	m.log.Info("manager initialized",
		"displays", len(displays), "windows", len(windows))
	return nil
}

// OpenTerminal asks the configured spawner for a new terminal window.
// The window joins the tree once the platform reports it open.
func (m *Manager) OpenTerminal() error {
	if m.spawn == nil {
		return fmt.Errorf("no terminal command configured")
	}
	return m.spawn()
}

// WindowOpened tiles a newly mapped window onto the focused logical
// display, or the one shown on the active physical display when nothing
// is focused. Windows already managed are left alone.
func (m *Manager) WindowOpened(w platform.WindowID) {
	win := tree.WindowID(w)
	if _, managed := m.reg.LogicalOfWindow(win); managed {
		return
	}
	ld := m.targetLogical()
	if ld == nil {
		m.log.Debug("window opened with no display connected", "window", w)
		return
	}
	if err := m.insertInto(ld, win); err != nil {
		m.log.Warn("window insert failed", "window", w, "error", err)
		return
	}
	m.focus = Focus{Focused: true, Logical: ld.ID, Leaf: ld.Tree.FindWindow(win)}
	ld.LastFocus = m.focus.Leaf
	m.followFocusDisplay(ld.ID)
	m.applyLogical(ld.ID)
	m.focusNative()
	m.check(ld)
	m.log.Debug("window tiled", "window", w, "display", int(ld.ID))
}

// insertInto places a window at the logical display's focused leaf, or
// its first leaf when focus is elsewhere, honoring the pending split
// orientation.
func (m *Manager) insertInto(ld *LogicalDisplay, w tree.WindowID) error {
	target := tree.NoNode
	if m.focus.Focused && m.focus.Logical == ld.ID {
		target = m.focus.Leaf
	} else if ld.LastFocus != tree.NoNode && ld.Tree.IsLeaf(ld.LastFocus) {
		target = ld.LastFocus
	}
	if target == tree.NoNode || !ld.Tree.IsLeaf(target) {
		leaves := ld.Tree.Leaves()
		target = leaves[len(leaves)-1]
	}
	_, err := ld.Tree.InsertWindow(target, w, ld.NextSplit)
	return err
}

// WindowClosed drops a window from whatever tree holds it. Unknown
// windows are ignored, so repeated notifications are harmless.
func (m *Manager) WindowClosed(w platform.WindowID) {
	win := tree.WindowID(w)
	ld, ok := m.reg.LogicalOfWindow(win)
	if !ok {
		return
	}
	closedLeaf := ld.Tree.FindWindow(win)
	next, _ := ld.Tree.RemoveWindow(win)

	if ld.LastFocus == closedLeaf {
		ld.LastFocus = next
	}
	if m.focus.Focused && m.focus.Logical == ld.ID && m.focus.Leaf == closedLeaf {
		if next == tree.NoNode {
			m.focus = Focus{}
		} else {
			m.focus = Focus{Focused: true, Logical: ld.ID, Leaf: next}
			ld.LastFocus = next
		}
		m.focusNative()
	}
	m.applyLogical(ld.ID)
	m.check(ld)
	m.log.Debug("window removed", "window", w, "display", int(ld.ID))
}

// WindowFocused records a native focus change, such as a mouse click,
// retargeting the active display and focus state to the window's leaf.
// Unmanaged windows and windows on hidden logical displays are ignored.
func (m *Manager) WindowFocused(w platform.WindowID) {
	win := tree.WindowID(w)
	ld, ok := m.reg.LogicalOfWindow(win)
	if !ok {
		return
	}
	pd, shown := m.reg.PhysicalShowing(ld.ID)
	if !shown {
		return
	}
	leaf := ld.Tree.FindWindow(win)
	if leaf == tree.NoNode {
		return
	}
	m.active = pd.ID
	m.focus = Focus{Focused: true, Logical: ld.ID, Leaf: leaf}
	ld.LastFocus = leaf
	m.log.Debug("native focus", "window", w, "display", int(ld.ID))
}

// MoveFocus shifts focus to the neighboring leaf in the given
// direction. At the edge of the tree the request is a no-op; focus
// never wraps or crosses displays.
func (m *Manager) MoveFocus(dir tree.Direction) {
	if !m.focus.Focused {
		return
	}
	ld, err := m.reg.Logical(m.focus.Logical)
	if err != nil {
		return
	}
	next := ld.Tree.Neighbor(m.focus.Leaf, dir)
	if next == tree.NoNode {
		m.log.Debug("focus at edge", "direction", dir.String())
		return
	}
	m.focus.Leaf = next
	ld.LastFocus = next
	m.focusNative()
}

// MoveWindow swaps the focused window with the occupant of the
// neighboring leaf in the given direction, focus following the window.
// A no-op at the tree edge or when the focused leaf is empty.
func (m *Manager) MoveWindow(dir tree.Direction) {
	if !m.focus.Focused {
		return
	}
	ld, err := m.reg.Logical(m.focus.Logical)
	if err != nil {
		return
	}
	if _, occupied := ld.Tree.Window(m.focus.Leaf); !occupied {
		return
	}
	next := ld.Tree.Neighbor(m.focus.Leaf, dir)
	if next == tree.NoNode {
		return
	}
	ld.Tree.SwapWindows(m.focus.Leaf, next)
	m.focus.Leaf = next
	ld.LastFocus = next
	m.applyLogical(ld.ID)
	m.focusNative()
	m.check(ld)
}

// Split wraps the focused leaf in a split along o and moves focus to
// the fresh empty half; the next window opened lands there. On an empty
// leaf only the pending orientation is updated.
func (m *Manager) Split(o tree.Orientation) {
	if !m.focus.Focused {
		return
	}
	ld, err := m.reg.Logical(m.focus.Logical)
	if err != nil {
		return
	}
	ld.NextSplit = o
	empty, err := ld.Tree.SplitLeaf(m.focus.Leaf, o)
	if err != nil {
		// Empty or vanished leaf: orientation context still updated.
		m.log.Debug("split no-op", "error", err)
		return
	}
	m.focus.Leaf = empty
	ld.LastFocus = empty
	m.applyLogical(ld.ID)
	m.check(ld)
}

// Resize grows the focused container by delta of its parent split's
// span in the given direction, shrinking the adjacent sibling. Zero
// delta uses the configured step. Structural no-ops are silent.
func (m *Manager) Resize(dir tree.Direction, delta float64) {
	if !m.focus.Focused {
		return
	}
	ld, err := m.reg.Logical(m.focus.Logical)
	if err != nil {
		return
	}
	if delta == 0 {
		delta = m.step
	}
	if !ld.Tree.Resize(m.focus.Leaf, dir, delta) {
		m.log.Debug("resize no-op", "direction", dir.String())
		return
	}
	m.applyLogical(ld.ID)
	m.check(ld)
}

// SwitchLogicalDisplay shows logical display n on the active physical
// display, hiding the one previously shown. When n is already visible
// on another physical display, focus jumps there instead.
func (m *Manager) SwitchLogicalDisplay(n LogicalID) {
	if !n.Valid() {
		m.log.Debug("switch to invalid logical display", "display", int(n))
		return
	}
	if pd, shown := m.reg.PhysicalShowing(n); shown {
		m.active = pd.ID
		m.focusLogical(n)
		return
	}
	pd, ok := m.activePhysical()
	if !ok {
		return
	}
	prev, err := m.reg.Switch(pd.ID, n)
	if err != nil {
		m.log.Warn("switch failed", "display", int(n), "error", err)
		return
	}
	if prev != n {
		m.setTreeVisible(prev, false)
	}
	m.applyLogical(n)
	m.focusLogical(n)
	m.log.Info("logical display switched",
		"physical", pd.Name, "from", int(prev), "to", int(n))
}

// MoveFocusedToLogicalDisplay sends the focused window to logical
// display n. The window leaves the source tree, joins the target tree,
// and focus stays behind on the source display.
func (m *Manager) MoveFocusedToLogicalDisplay(n LogicalID) {
	if !m.focus.Focused || !n.Valid() {
		return
	}
	src, err := m.reg.Logical(m.focus.Logical)
	if err != nil || src.ID == n {
		return
	}
	w, occupied := src.Tree.Window(m.focus.Leaf)
	if !occupied {
		return
	}
	dst, err := m.reg.Logical(n)
	if err != nil {
		m.log.Warn("move to display failed", "display", int(n), "error", err)
		return
	}

	next, _ := src.Tree.RemoveWindow(w)
	if err := m.insertInto(dst, w); err != nil {
		// Unreachable for a window just removed from its only tree.
		m.log.Error("insert after move failed", "window", uint32(w), "error", err)
		return
	}
	dst.LastFocus = dst.Tree.FindWindow(w)

	if next == tree.NoNode {
		m.focus = Focus{}
	} else {
		m.focus = Focus{Focused: true, Logical: src.ID, Leaf: next}
		src.LastFocus = next
	}

	m.applyLogical(src.ID)
	if _, shown := m.reg.PhysicalShowing(n); shown {
		m.applyLogical(n)
	} else {
		m.setVisible(w, false)
	}
	m.focusNative()
	m.check(src)
	m.check(dst)
	m.log.Debug("window moved to display", "window", uint32(w), "display", int(n))
}

// DisplaysChanged re-reads the display topology and retiles everything.
func (m *Manager) DisplaysChanged() {
	displays, err := m.backend.Displays()
	if err != nil {
		m.log.Warn("display query failed", "error", err)
		return
	}
	if err := m.reg.SyncDisplays(displays); err != nil {
		m.log.Warn("display sync failed", "error", err)
		return
	}
	if _, ok := m.reg.Physical(m.active); !ok {
		if pd, ok := m.reg.Primary(); ok {
			m.active = pd.ID
		} else {
			m.active = -1
		}
	}
	for _, pd := range m.reg.Physicals() {
		m.applyShown(pd)
	}
	m.log.Info("display topology changed", "displays", len(displays))
}

// Reconfigure applies new layout settings and retiles.
func (m *Manager) Reconfigure(padding int, step float64) {
	m.padding = padding
	if step > 0 {
		m.step = step
	}
	for _, pd := range m.reg.Physicals() {
		m.applyShown(pd)
	}
	m.log.Info("layout reconfigured", "padding", padding)
}

// ReconcileWindows drops managed windows the platform no longer knows
// about. The close path already handles live notifications; this sweep
// catches anything missed while the daemon was busy.
func (m *Manager) ReconcileWindows() {
	windows, err := m.backend.ListWindows()
	if err != nil {
		return
	}
	alive := make(map[tree.WindowID]bool, len(windows))
	for _, w := range windows {
		alive[tree.WindowID(w.ID)] = true
	}
	for _, ld := range m.reg.Logicals() {
		for _, w := range ld.Tree.Windows() {
			if !alive[w] {
				m.log.Debug("reaping stale window", "window", uint32(w))
				m.WindowClosed(platform.WindowID(w))
			}
		}
	}
}

func (m *Manager) targetLogical() *LogicalDisplay {
	if m.focus.Focused {
		if ld, err := m.reg.Logical(m.focus.Logical); err == nil {
			return ld
		}
	}
	if pd, ok := m.activePhysical(); ok {
		if ld, err := m.reg.Logical(pd.Shown); err == nil {
			return ld
		}
	}
	return nil
}

func (m *Manager) activePhysical() (*PhysicalDisplay, bool) {
	if pd, ok := m.reg.Physical(m.active); ok {
		return pd, true
	}
	return m.reg.Primary()
}

func (m *Manager) physicalForPoint(x, y int) *PhysicalDisplay {
	for _, pd := range m.reg.Physicals() {
		b := pd.Bounds
		if x >= b.X && x < b.X+b.Width && y >= b.Y && y < b.Y+b.Height {
			return pd
		}
	}
	return nil
}

// focusLogical restores focus to a logical display's remembered leaf,
// falling back to its first leaf, or Unfocused on an empty display.
func (m *Manager) focusLogical(n LogicalID) {
	ld, err := m.reg.Logical(n)
	if err != nil {
		return
	}
	leaf := ld.LastFocus
	if leaf == tree.NoNode || !ld.Tree.IsLeaf(leaf) {
		leaves := ld.Tree.Leaves()
		leaf = leaves[0]
	}
	if _, occupied := ld.Tree.Window(leaf); !occupied && ld.Tree.Empty() {
		m.focus = Focus{}
		return
	}
	m.focus = Focus{Focused: true, Logical: n, Leaf: leaf}
	ld.LastFocus = leaf
	m.focusNative()
}

// followFocusDisplay keeps the active physical display in step with
// wherever focus lands.
func (m *Manager) followFocusDisplay(n LogicalID) {
	if pd, shown := m.reg.PhysicalShowing(n); shown {
		m.active = pd.ID
	}
}

// applyShown retiles the logical display a physical display shows.
func (m *Manager) applyShown(pd *PhysicalDisplay) {
	m.applyLogical(pd.Shown)
}

// applyLogical pushes frames for a logical display when it is visible
// somewhere. Hidden displays stay untouched; their windows were hidden
// when they left the screen.
func (m *Manager) applyLogical(n LogicalID) {
	pd, shown := m.reg.PhysicalShowing(n)
	if !shown {
		return
	}
	ld, err := m.reg.Logical(n)
	if err != nil {
		return
	}
	bounds := tree.Rect{
		X:      pd.Bounds.X,
		Y:      pd.Bounds.Y,
		Width:  pd.Bounds.Width,
		Height: pd.Bounds.Height,
	}
	rects := ld.Tree.Layout(bounds, m.padding)
	for _, leaf := range ld.Tree.Leaves() {
		w, occupied := ld.Tree.Window(leaf)
		if !occupied {
			continue
		}
		r := rects[leaf]
		m.setVisible(w, true)
		if err := m.backend.SetFrame(platform.WindowID(w), platform.Rect{
			X: r.X, Y: r.Y, Width: r.Width, Height: r.Height,
		}); err != nil {
			m.log.Warn("frame update failed", "window", uint32(w), "error", err)
		}
	}
}

// setTreeVisible shows or hides every window of a logical display.
func (m *Manager) setTreeVisible(n LogicalID, visible bool) {
	ld, err := m.reg.Logical(n)
	if err != nil {
		return
	}
	for _, w := range ld.Tree.Windows() {
		m.setVisible(w, visible)
	}
}

func (m *Manager) setVisible(w tree.WindowID, visible bool) {
	if err := m.backend.SetVisible(platform.WindowID(w), visible); err != nil {
		m.log.Warn("visibility update failed", "window", uint32(w), "error", err)
	}
}

// focusNative pushes the focused leaf's window to the platform. Focus
// on an empty leaf leaves native focus alone.
func (m *Manager) focusNative() {
	if !m.focus.Focused {
		return
	}
	ld, err := m.reg.Logical(m.focus.Logical)
	if err != nil {
		return
	}
	w, occupied := ld.Tree.Window(m.focus.Leaf)
	if !occupied {
		return
	}
	if err := m.backend.Focus(platform.WindowID(w)); err != nil {
		m.log.Warn("native focus failed", "window", uint32(w), "error", err)
	}
}

// check validates tree invariants when debug checks are on. A violation
// is a bug in the tiler, so it aborts rather than limping on.
func (m *Manager) check(ld *LogicalDisplay) {
	if !m.debugChecks || ld == nil {
		return
	}
	if err := ld.Tree.Validate(); err != nil {
		m.log.Error("tree invariant violated", "display", int(ld.ID), "error", err)
		panic(err)
	}
}
