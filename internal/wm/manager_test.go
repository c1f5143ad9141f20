package wm

import (
	"log/slog"
	"testing"

	"github.com/tilewm/tilewm/internal/platform"
	"github.com/tilewm/tilewm/internal/tree"
)

// fakeBackend records every frame, visibility and focus request.
type fakeBackend struct {
	displays []platform.Display
	windows  []platform.Window
	frames   map[platform.WindowID]platform.Rect
	visible  map[platform.WindowID]bool
	focused  platform.WindowID
	events   chan platform.Event
}

var _ platform.Backend = (*fakeBackend)(nil)

func newFakeBackend(displays ...platform.Display) *fakeBackend {
	return &fakeBackend{
		displays: displays,
		frames:   make(map[platform.WindowID]platform.Rect),
		visible:  make(map[platform.WindowID]bool),
		events:   make(chan platform.Event, 16),
	}
}

func (b *fakeBackend) Displays() ([]platform.Display, error)  { return b.displays, nil }
func (b *fakeBackend) ListWindows() ([]platform.Window, error) { return b.windows, nil }

func (b *fakeBackend) SetFrame(id platform.WindowID, r platform.Rect) error {
	b.frames[id] = r
	return nil
}

func (b *fakeBackend) SetVisible(id platform.WindowID, visible bool) error {
	b.visible[id] = visible
	return nil
}

func (b *fakeBackend) Focus(id platform.WindowID) error {
	b.focused = id
	return nil
}

func (b *fakeBackend) Events() <-chan platform.Event { return b.events }
func (b *fakeBackend) Close()                        {}

var testDisplay = platform.Display{
	ID:      0,
	Name:    "TEST-0",
	Bounds:  platform.Rect{X: 0, Y: 0, Width: 1000, Height: 800},
	Primary: true,
}

func newTestManager(t *testing.T, b *fakeBackend) *Manager {
	t.Helper()
	m := NewManager(b, Options{
		Padding: 10,
		Logger:  slog.New(slog.DiscardHandler),
	})
	if err := m.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	return m
}

func TestSingleWindowFillsPaddedDisplay(t *testing.T) {
	b := newFakeBackend(testDisplay)
	m := newTestManager(t, b)

	m.WindowOpened(100)

	want := platform.Rect{X: 10, Y: 10, Width: 980, Height: 780}
	if b.frames[100] != want {
		t.Fatalf("expected frame %+v, got %+v", want, b.frames[100])
	}
	if b.focused != 100 {
		t.Fatalf("expected native focus on 100, got %d", b.focused)
	}
	if !b.visible[100] {
		t.Fatalf("window should be visible")
	}
}

func TestSecondWindowTilesSideBySide(t *testing.T) {
	b := newFakeBackend(testDisplay)
	m := newTestManager(t, b)

	m.WindowOpened(100)
	m.WindowOpened(200)

	wantA := platform.Rect{X: 10, Y: 10, Width: 485, Height: 780}
	wantB := platform.Rect{X: 505, Y: 10, Width: 485, Height: 780}
	if b.frames[100] != wantA {
		t.Errorf("left window: expected %+v, got %+v", wantA, b.frames[100])
	}
	if b.frames[200] != wantB {
		t.Errorf("right window: expected %+v, got %+v", wantB, b.frames[200])
	}
	if b.focused != 200 {
		t.Errorf("focus should follow the new window, got %d", b.focused)
	}
}

func TestResizeGrowsFocusedColumn(t *testing.T) {
	b := newFakeBackend(testDisplay)
	m := newTestManager(t, b)

	m.WindowOpened(100)
	m.WindowOpened(200)
	m.MoveFocus(tree.DirLeft)
	m.Resize(tree.DirRight, 0.1)

	// 0.6/0.4 of the 970 px span between the gutters.
	wantA := platform.Rect{X: 10, Y: 10, Width: 582, Height: 780}
	wantB := platform.Rect{X: 602, Y: 10, Width: 388, Height: 780}
	if b.frames[100] != wantA {
		t.Errorf("expected %+v, got %+v", wantA, b.frames[100])
	}
	if b.frames[200] != wantB {
		t.Errorf("expected %+v, got %+v", wantB, b.frames[200])
	}
}

func TestCloseRestoresRemainingWindow(t *testing.T) {
	b := newFakeBackend(testDisplay)
	m := newTestManager(t, b)

	m.WindowOpened(100)
	m.WindowOpened(200)
	m.WindowClosed(200)

	want := platform.Rect{X: 10, Y: 10, Width: 980, Height: 780}
	if b.frames[100] != want {
		t.Fatalf("expected %+v, got %+v", want, b.frames[100])
	}
	if b.focused != 100 {
		t.Fatalf("focus should fall back to the survivor, got %d", b.focused)
	}
}

func TestCloseStaleWindowIsIdempotent(t *testing.T) {
	b := newFakeBackend(testDisplay)
	m := newTestManager(t, b)

	m.WindowOpened(100)
	m.WindowClosed(999)
	m.WindowClosed(100)
	m.WindowClosed(100)

	if f := m.Focused(); f.Focused {
		t.Fatalf("expected unfocused state, got %+v", f)
	}
}

func TestMoveFocusStopsAtEdge(t *testing.T) {
	b := newFakeBackend(testDisplay)
	m := newTestManager(t, b)

	m.WindowOpened(100)
	m.WindowOpened(200)

	m.MoveFocus(tree.DirLeft)
	if b.focused != 100 {
		t.Fatalf("expected focus on 100, got %d", b.focused)
	}
	m.MoveFocus(tree.DirLeft)
	if b.focused != 100 {
		t.Fatalf("focus should not wrap at the edge, got %d", b.focused)
	}
	m.MoveFocus(tree.DirUp)
	if b.focused != 100 {
		t.Fatalf("focus should ignore the perpendicular edge, got %d", b.focused)
	}
}

func TestMoveWindowSwapsOccupants(t *testing.T) {
	b := newFakeBackend(testDisplay)
	m := newTestManager(t, b)

	m.WindowOpened(100)
	m.WindowOpened(200)
	m.MoveWindow(tree.DirLeft)

	// 200 now holds the left column, 100 the right.
	wantLeft := platform.Rect{X: 10, Y: 10, Width: 485, Height: 780}
	wantRight := platform.Rect{X: 505, Y: 10, Width: 485, Height: 780}
	if b.frames[200] != wantLeft {
		t.Errorf("expected 200 on the left %+v, got %+v", wantLeft, b.frames[200])
	}
	if b.frames[100] != wantRight {
		t.Errorf("expected 100 on the right %+v, got %+v", wantRight, b.frames[100])
	}
	if b.focused != 200 {
		t.Errorf("focus should follow the moved window, got %d", b.focused)
	}
}

func TestSplitDirectsNextWindow(t *testing.T) {
	b := newFakeBackend(testDisplay)
	m := newTestManager(t, b)

	m.WindowOpened(100)
	m.Split(tree.Horizontal)
	m.WindowOpened(200)

	// The split reserved the lower half for the next window.
	wantA := platform.Rect{X: 10, Y: 10, Width: 980, Height: 385}
	wantB := platform.Rect{X: 10, Y: 405, Width: 980, Height: 385}
	if b.frames[100] != wantA {
		t.Errorf("expected %+v, got %+v", wantA, b.frames[100])
	}
	if b.frames[200] != wantB {
		t.Errorf("expected %+v, got %+v", wantB, b.frames[200])
	}
}

func TestMoveToLogicalDisplayHidesWindow(t *testing.T) {
	b := newFakeBackend(testDisplay)
	m := newTestManager(t, b)

	m.WindowOpened(100)
	m.MoveFocusedToLogicalDisplay(2)

	if b.visible[100] {
		t.Fatalf("window moved to a hidden display should be hidden")
	}
	if f := m.Focused(); f.Focused {
		t.Fatalf("source display emptied, expected unfocused state, got %+v", f)
	}
}

func TestSwitchShowsMovedWindowFullBounds(t *testing.T) {
	b := newFakeBackend(testDisplay)
	m := newTestManager(t, b)

	m.WindowOpened(100)
	m.MoveFocusedToLogicalDisplay(2)
	m.SwitchLogicalDisplay(2)

	if !b.visible[100] {
		t.Fatalf("window should be visible after switching to its display")
	}
	want := platform.Rect{X: 10, Y: 10, Width: 980, Height: 780}
	if b.frames[100] != want {
		t.Fatalf("expected %+v, got %+v", want, b.frames[100])
	}
	if b.focused != 100 {
		t.Fatalf("expected native focus on 100, got %d", b.focused)
	}
}

func TestSwitchHidesPreviousDisplayWindows(t *testing.T) {
	b := newFakeBackend(testDisplay)
	m := newTestManager(t, b)

	m.WindowOpened(100)
	m.WindowOpened(200)
	m.SwitchLogicalDisplay(3)

	if b.visible[100] || b.visible[200] {
		t.Fatalf("windows of the hidden display should be hidden")
	}
	if f := m.Focused(); f.Focused {
		t.Fatalf("empty display should leave focus empty, got %+v", f)
	}

	// Switching back restores both.
	m.SwitchLogicalDisplay(0)
	if !b.visible[100] || !b.visible[200] {
		t.Fatalf("windows should reappear on switch back")
	}
}

func TestSwitchRetainsHiddenTreeShape(t *testing.T) {
	b := newFakeBackend(testDisplay)
	m := newTestManager(t, b)

	m.WindowOpened(100)
	m.WindowOpened(200)
	m.Resize(tree.DirLeft, 0.15)
	before := b.frames[200]

	m.SwitchLogicalDisplay(5)
	m.SwitchLogicalDisplay(0)

	if b.frames[200] != before {
		t.Fatalf("hidden display lost its shape: %+v vs %+v", before, b.frames[200])
	}
}

func TestSwitchToInvalidDisplayIsNoop(t *testing.T) {
	b := newFakeBackend(testDisplay)
	m := newTestManager(t, b)

	m.WindowOpened(100)
	m.SwitchLogicalDisplay(12)

	if !b.visible[100] {
		t.Fatalf("invalid switch should leave the screen alone")
	}
	if f := m.Focused(); !f.Focused {
		t.Fatalf("invalid switch should not drop focus")
	}
}

func TestInitAdoptsExistingWindows(t *testing.T) {
	b := newFakeBackend(testDisplay)
	b.windows = []platform.Window{
		{ID: 100, Bounds: platform.Rect{X: 50, Y: 50, Width: 400, Height: 300}},
		{ID: 200, Bounds: platform.Rect{X: 500, Y: 50, Width: 400, Height: 300}},
	}
	m := newTestManager(t, b)

	snap := m.State()
	if len(snap.Logical) == 0 || snap.Logical[0].Windows != 2 {
		t.Fatalf("expected 2 adopted windows, got %+v", snap.Logical)
	}
	wantA := platform.Rect{X: 10, Y: 10, Width: 485, Height: 780}
	if b.frames[100] != wantA {
		t.Fatalf("adopted window not tiled: %+v", b.frames[100])
	}
}

func TestReconcileDropsVanishedWindows(t *testing.T) {
	b := newFakeBackend(testDisplay)
	m := newTestManager(t, b)

	m.WindowOpened(100)
	m.WindowOpened(200)
	b.windows = []platform.Window{{ID: 100, Bounds: platform.Rect{X: 0, Y: 0, Width: 10, Height: 10}}}

	m.ReconcileWindows()

	snap := m.State()
	if snap.Logical[0].Windows != 1 {
		t.Fatalf("expected 1 window after reconcile, got %d", snap.Logical[0].Windows)
	}
	want := platform.Rect{X: 10, Y: 10, Width: 980, Height: 780}
	if b.frames[100] != want {
		t.Fatalf("survivor not retiled: %+v", b.frames[100])
	}
}

func TestReconfigureRetiles(t *testing.T) {
	b := newFakeBackend(testDisplay)
	m := newTestManager(t, b)

	m.WindowOpened(100)
	m.Reconfigure(20, 0)

	want := platform.Rect{X: 20, Y: 20, Width: 960, Height: 760}
	if b.frames[100] != want {
		t.Fatalf("expected %+v, got %+v", want, b.frames[100])
	}
}

func TestDisplaysChangedRetilesNewBounds(t *testing.T) {
	b := newFakeBackend(testDisplay)
	m := newTestManager(t, b)

	m.WindowOpened(100)
	b.displays = []platform.Display{{
		ID:      0,
		Name:    "TEST-0",
		Bounds:  platform.Rect{X: 0, Y: 0, Width: 1280, Height: 1024},
		Primary: true,
	}}
	m.DisplaysChanged()

	want := platform.Rect{X: 10, Y: 10, Width: 1260, Height: 1004}
	if b.frames[100] != want {
		t.Fatalf("expected %+v, got %+v", want, b.frames[100])
	}
}

func TestSecondPhysicalDisplayGetsOwnLogical(t *testing.T) {
	second := platform.Display{
		ID:     1,
		Name:   "TEST-1",
		Bounds: platform.Rect{X: 1000, Y: 0, Width: 1280, Height: 1024},
	}
	b := newFakeBackend(testDisplay, second)
	m := newTestManager(t, b)

	pds := m.Registry().Physicals()
	if len(pds) != 2 {
		t.Fatalf("expected 2 physical displays, got %d", len(pds))
	}
	if pds[0].Shown == pds[1].Shown {
		t.Fatalf("both physical displays show logical %d", pds[0].Shown)
	}
}

func TestSwitchToDisplayShownElsewhereJumpsFocus(t *testing.T) {
	second := platform.Display{
		ID:     1,
		Name:   "TEST-1",
		Bounds: platform.Rect{X: 1000, Y: 0, Width: 1280, Height: 1024},
	}
	b := newFakeBackend(testDisplay, second)
	m := newTestManager(t, b)

	m.WindowOpened(100)
	m.MoveFocusedToLogicalDisplay(1)
	m.SwitchLogicalDisplay(1)

	f := m.Focused()
	if !f.Focused || f.Logical != 1 {
		t.Fatalf("expected focus to jump to logical 1, got %+v", f)
	}
	// The window stays framed inside the second display's bounds.
	r := b.frames[100]
	if r.X < 1000 {
		t.Fatalf("window should sit on the second display, got %+v", r)
	}
}

func TestNativeFocusChangeRetargetsActiveDisplay(t *testing.T) {
	second := platform.Display{
		ID:     1,
		Name:   "TEST-1",
		Bounds: platform.Rect{X: 1000, Y: 0, Width: 1280, Height: 1024},
	}
	b := newFakeBackend(testDisplay, second)
	m := newTestManager(t, b)

	m.WindowOpened(100)
	m.MoveFocusedToLogicalDisplay(1)
	m.WindowOpened(200)

	// 200 opened on the first display and took focus; a click on 100
	// moves focus and the active display to the second one.
	m.WindowFocused(100)
	f := m.Focused()
	if !f.Focused || f.Logical != 1 {
		t.Fatalf("expected focus on logical 1, got %+v", f)
	}
	if m.active != 1 {
		t.Fatalf("active display should follow native focus, got %d", m.active)
	}

	// Unmanaged windows leave the state untouched.
	m.WindowFocused(999)
	if got := m.Focused(); got != f {
		t.Fatalf("stale focus event changed state: %+v", got)
	}
}

func TestNativeFocusOnHiddenDisplayIgnored(t *testing.T) {
	b := newFakeBackend(testDisplay)
	m := newTestManager(t, b)

	m.WindowOpened(100)
	m.WindowOpened(200)
	m.MoveFocusedToLogicalDisplay(5)

	m.WindowFocused(200)
	f := m.Focused()
	if f.Focused && f.Logical == 5 {
		t.Fatalf("focus must not land on a hidden logical display: %+v", f)
	}
}

func TestStateSnapshotShape(t *testing.T) {
	b := newFakeBackend(testDisplay)
	m := newTestManager(t, b)

	m.WindowOpened(100)
	m.WindowOpened(200)

	snap := m.State()
	if len(snap.Physical) != 1 {
		t.Fatalf("expected 1 physical display, got %d", len(snap.Physical))
	}
	if snap.Focus == nil || snap.Focus.Window != 200 {
		t.Fatalf("unexpected focus snapshot %+v", snap.Focus)
	}
	lt := snap.Logical[0].Tree
	if lt == nil || lt.Type != "split" || len(lt.Children) != 2 {
		t.Fatalf("unexpected tree snapshot %+v", lt)
	}
	if lt.Children[0].Rect == nil {
		t.Fatalf("visible tree should carry rects")
	}
}
