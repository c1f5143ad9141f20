package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
)

// WindowEventKind discriminates watcher notifications.
type WindowEventKind int

const (
	WindowMapped WindowEventKind = iota
	WindowDestroyed
	WindowFocused
	ScreenChanged
)

// WindowEvent is a raw X notification of interest to the tiler.
type WindowEvent struct {
	Kind   WindowEventKind
	Window xproto.Window
}

// EventWatcher listens for window and screen changes on its own X
// connection, keeping the blocking read loop away from the connection
// that issues commands and holds key grabs.
type EventWatcher struct {
	conn       *xgb.Conn
	root       xproto.Window
	activeAtom xproto.Atom
	ch         chan WindowEvent
}

// NewEventWatcher opens a watcher connection subscribed to substructure,
// root property and RandR change notifications on the root window.
func NewEventWatcher() (*EventWatcher, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}

	setup := xproto.Setup(conn)
	root := setup.DefaultScreen(conn).Root

	err = xproto.ChangeWindowAttributesChecked(conn, root, xproto.CwEventMask,
		[]uint32{xproto.EventMaskSubstructureNotify | xproto.EventMaskPropertyChange}).Check()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to select substructure events: %w", err)
	}

	if err := randr.Init(conn); err == nil {
		randr.SelectInput(conn, root, randr.NotifyMaskScreenChange)
	}

	// _NET_ACTIVE_WINDOW updates on the root signal native focus changes.
	var activeAtom xproto.Atom
	name := "_NET_ACTIVE_WINDOW"
	if reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply(); err == nil {
		activeAtom = reply.Atom
	}

	return &EventWatcher{
		conn:       conn,
		root:       root,
		activeAtom: activeAtom,
		ch:         make(chan WindowEvent, 64),
	}, nil
}

// Events returns the notification channel. It is closed when the
// watcher connection goes away.
func (w *EventWatcher) Events() <-chan WindowEvent {
	return w.ch
}

// Run reads X events until the connection closes (blocking).
func (w *EventWatcher) Run() {
	defer close(w.ch)
	for {
		ev, err := w.conn.WaitForEvent()
		if ev == nil && err == nil {
			return
		}
		if err != nil {
			continue
		}
		switch e := ev.(type) {
		case xproto.MapNotifyEvent:
			if e.OverrideRedirect {
				continue
			}
			w.ch <- WindowEvent{Kind: WindowMapped, Window: e.Window}
		case xproto.DestroyNotifyEvent:
			w.ch <- WindowEvent{Kind: WindowDestroyed, Window: e.Window}
		case xproto.PropertyNotifyEvent:
			if e.Window != w.root || w.activeAtom == 0 || e.Atom != w.activeAtom {
				continue
			}
			if active, ok := w.activeWindow(); ok {
				w.ch <- WindowEvent{Kind: WindowFocused, Window: active}
			}
		case randr.ScreenChangeNotifyEvent:
			w.ch <- WindowEvent{Kind: ScreenChanged}
		}
	}
}

// activeWindow reads _NET_ACTIVE_WINDOW from the root window.
func (w *EventWatcher) activeWindow() (xproto.Window, bool) {
	reply, err := xproto.GetProperty(w.conn, false, w.root, w.activeAtom,
		xproto.AtomWindow, 0, 1).Reply()
	if err != nil || reply == nil || len(reply.Value) < 4 {
		return 0, false
	}
	active := xproto.Window(xgb.Get32(reply.Value))
	return active, active != 0
}

// Close shuts the watcher connection down, ending Run.
func (w *EventWatcher) Close() {
	w.conn.Close()
}
