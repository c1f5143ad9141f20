package daemon

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/tilewm/tilewm/internal/platform"
	"github.com/tilewm/tilewm/internal/wm"
)

type fakeBackend struct {
	mu     sync.Mutex
	frames map[platform.WindowID]platform.Rect
	events chan platform.Event
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		frames: make(map[platform.WindowID]platform.Rect),
		events: make(chan platform.Event, 16),
	}
}

func (b *fakeBackend) Displays() ([]platform.Display, error) {
	return []platform.Display{
		{ID: 0, Name: "TEST-0", Bounds: platform.Rect{Width: 1000, Height: 800}, Primary: true},
	}, nil
}

func (b *fakeBackend) ListWindows() ([]platform.Window, error) { return nil, nil }

func (b *fakeBackend) SetFrame(id platform.WindowID, bounds platform.Rect) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frames[id] = bounds
	return nil
}

func (b *fakeBackend) SetVisible(platform.WindowID, bool) error { return nil }
func (b *fakeBackend) Focus(platform.WindowID) error            { return nil }
func (b *fakeBackend) Events() <-chan platform.Event            { return b.events }
func (b *fakeBackend) Close()                                   {}

func (b *fakeBackend) frame(id platform.WindowID) (platform.Rect, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.frames[id]
	return r, ok
}

var _ platform.Backend = (*fakeBackend)(nil)

func newTestDaemon(t *testing.T, cfgPath string) (*Daemon, *fakeBackend, context.CancelFunc) {
	t.Helper()
	backend := newFakeBackend()
	logger := slog.New(slog.DiscardHandler)
	mgr := wm.NewManager(backend, wm.Options{Padding: 10, Logger: logger})
	if err := mgr.Init(); err != nil {
		t.Fatalf("init manager: %v", err)
	}
	d := New(mgr, backend, Options{ConfigPath: cfgPath, Logger: logger})

	ctx, cancel := context.WithCancel(context.Background())
	go d.Run(ctx)
	t.Cleanup(cancel)
	return d, backend, cancel
}

func TestDispatchRunsOnLoop(t *testing.T) {
	d, _, _ := newTestDaemon(t, "")

	var padding int
	if err := d.Dispatch(func(m *wm.Manager) {
		snap := m.State()
		padding = snap.Padding
	}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if padding != 10 {
		t.Errorf("padding = %d, want 10", padding)
	}
}

func TestWindowEventsTileThroughLoop(t *testing.T) {
	d, backend, _ := newTestDaemon(t, "")

	backend.events <- platform.Event{Kind: platform.EventWindowOpened, Window: 0x42}

	// The event and the dispatch go through the same loop, so a
	// dispatched no-op orders us after the event.
	if err := d.Dispatch(func(m *wm.Manager) {}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	r, ok := backend.frame(0x42)
	if !ok {
		t.Fatalf("window was not framed")
	}
	want := platform.Rect{X: 10, Y: 10, Width: 980, Height: 780}
	if r != want {
		t.Errorf("frame = %+v, want %+v", r, want)
	}
}

func TestDispatchAfterShutdownFails(t *testing.T) {
	d, _, cancel := newTestDaemon(t, "")
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if err := d.Dispatch(func(m *wm.Manager) {}); err != nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("dispatch still succeeding after shutdown")
}

func TestReloadAppliesConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("padding: 30\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	d, backend, _ := newTestDaemon(t, cfgPath)

	backend.events <- platform.Event{Kind: platform.EventWindowOpened, Window: 0x42}
	d.ReloadChan() <- struct{}{}
	if err := d.Dispatch(func(m *wm.Manager) {}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	r, ok := backend.frame(0x42)
	if !ok {
		t.Fatalf("window was not framed")
	}
	// 1000x800 display with padding 30.
	want := platform.Rect{X: 30, Y: 30, Width: 940, Height: 740}
	if r != want {
		t.Errorf("frame = %+v, want %+v", r, want)
	}
}

func TestReloadRejectsBadConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("padding: -5\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	d, backend, _ := newTestDaemon(t, cfgPath)

	backend.events <- platform.Event{Kind: platform.EventWindowOpened, Window: 0x42}
	d.ReloadChan() <- struct{}{}
	if err := d.Dispatch(func(m *wm.Manager) {}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	r, _ := backend.frame(0x42)
	want := platform.Rect{X: 10, Y: 10, Width: 980, Height: 780}
	if r != want {
		t.Errorf("frame = %+v, want %+v (reload should have been rejected)", r, want)
	}
}

func TestPanicInHandlerDoesNotKillLoop(t *testing.T) {
	d, _, _ := newTestDaemon(t, "")

	_ = d.Dispatch(func(m *wm.Manager) { panic("boom") })

	if err := d.Dispatch(func(m *wm.Manager) {}); err != nil {
		t.Fatalf("loop dead after panic: %v", err)
	}
}
