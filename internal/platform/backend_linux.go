//go:build linux

package platform

import (
	"fmt"
	"sort"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"

	"github.com/tilewm/tilewm/internal/x11"
)

// LinuxBackend drives windows over X11. Commands go out on one
// connection while a dedicated watcher connection feeds Events.
type LinuxBackend struct {
	conn    *x11.Connection
	watcher *x11.EventWatcher
	events  chan Event
}

var _ Backend = (*LinuxBackend)(nil)

// NewLinuxBackend opens the X11 connections and starts the event
// watcher.
func NewLinuxBackend() (*LinuxBackend, error) {
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}

	watcher, err := x11.NewEventWatcher()
	if err != nil {
		conn.Close()
		return nil, err
	}

	b := &LinuxBackend{
		conn:    conn,
		watcher: watcher,
		events:  make(chan Event, 64),
	}
	go watcher.Run()
	go b.translateEvents()
	return b, nil
}

// translateEvents converts raw watcher notifications into platform
// events, filtering out windows the tiler should never manage.
func (b *LinuxBackend) translateEvents() {
	defer close(b.events)
	for ev := range b.watcher.Events() {
		switch ev.Kind {
		case x11.WindowMapped:
			if !b.conn.IsNormalWindow(ev.Window) {
				continue
			}
			b.events <- Event{Kind: EventWindowOpened, Window: WindowID(ev.Window)}
		case x11.WindowDestroyed:
			b.events <- Event{Kind: EventWindowClosed, Window: WindowID(ev.Window)}
		case x11.WindowFocused:
			b.events <- Event{Kind: EventWindowFocused, Window: WindowID(ev.Window)}
		case x11.ScreenChanged:
			b.events <- Event{Kind: EventDisplaysChanged}
		}
	}
}

// XUtil returns the underlying xgbutil connection for X11-specific
// consumers such as the hotkey handler.
func (b *LinuxBackend) XUtil() *xgbutil.XUtil {
	if b == nil || b.conn == nil {
		return nil
	}
	return b.conn.XUtil
}

// RootWindow returns the X11 root window ID.
func (b *LinuxBackend) RootWindow() xproto.Window {
	if b == nil || b.conn == nil {
		return 0
	}
	return b.conn.Root
}

// EventLoop starts the X11 event loop for key grabs (blocking).
func (b *LinuxBackend) EventLoop() {
	b.conn.EventLoop()
}

// Displays returns all active displays.
func (b *LinuxBackend) Displays() ([]Display, error) {
	monitors, err := b.conn.GetMonitors()
	if err != nil {
		return nil, err
	}

	displays := make([]Display, 0, len(monitors))
	for _, m := range monitors {
		displays = append(displays, Display{
			ID:      m.ID,
			Name:    m.Name,
			Bounds:  Rect{X: m.X, Y: m.Y, Width: m.Width, Height: m.Height},
			Primary: m.Primary,
		})
	}

	sort.Slice(displays, func(i, j int) bool {
		return displays[i].ID < displays[j].ID
	})

	return displays, nil
}

// ListWindows returns the normal application windows currently known to
// the session.
func (b *LinuxBackend) ListWindows() ([]Window, error) {
	clients, err := b.conn.ClientWindows()
	if err != nil {
		return nil, err
	}

	windows := make([]Window, 0, len(clients))
	for _, windowID := range clients {
		x, y, w, h, ok := b.conn.WindowRect(windowID)
		if !ok {
			continue
		}
		windows = append(windows, Window{
			ID:     WindowID(windowID),
			PID:    b.conn.WindowPID(windowID),
			AppID:  b.conn.WindowAppID(windowID),
			Title:  b.conn.WindowTitle(windowID),
			Bounds: Rect{X: x, Y: y, Width: w, Height: h},
		})
	}

	sort.Slice(windows, func(i, j int) bool {
		return windows[i].ID < windows[j].ID
	})

	return windows, nil
}

// SetFrame moves and resizes a window.
func (b *LinuxBackend) SetFrame(id WindowID, bounds Rect) error {
	return b.conn.MoveResizeWindow(
		xproto.Window(id),
		bounds.X,
		bounds.Y,
		bounds.Width,
		bounds.Height,
	)
}

// SetVisible shows or hides a window.
func (b *LinuxBackend) SetVisible(id WindowID, visible bool) error {
	if visible {
		return b.conn.ShowWindow(xproto.Window(id))
	}
	return b.conn.HideWindow(xproto.Window(id))
}

// Focus gives a window input focus and raises it.
func (b *LinuxBackend) Focus(id WindowID) error {
	return b.conn.ActivateWindow(xproto.Window(id))
}

// Events delivers window and display notifications.
func (b *LinuxBackend) Events() <-chan Event {
	return b.events
}

// Close shuts down both X11 connections.
func (b *LinuxBackend) Close() {
	if b == nil {
		return
	}
	if b.watcher != nil {
		b.watcher.Close()
	}
	if b.conn != nil {
		b.conn.Close()
	}
}
