package platform

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Display describes a physical display.
type Display struct {
	ID      int
	Name    string
	Bounds  Rect
	Primary bool
}

// Window contains metadata for a top-level window.
type Window struct {
	ID     WindowID
	PID    int
	AppID  string
	Title  string
	Bounds Rect
}

// EventKind discriminates platform notifications.
type EventKind int

const (
	// EventWindowOpened fires when a manageable window appears.
	EventWindowOpened EventKind = iota
	// EventWindowClosed fires when a managed window goes away.
	EventWindowClosed
	// EventWindowFocused fires when a window gains input focus natively,
	// for example by a mouse click.
	EventWindowFocused
	// EventDisplaysChanged fires when the display topology changes.
	EventDisplaysChanged
)

func (k EventKind) String() string {
	switch k {
	case EventWindowOpened:
		return "window-opened"
	case EventWindowClosed:
		return "window-closed"
	case EventWindowFocused:
		return "window-focused"
	default:
		return "displays-changed"
	}
}

// Event is a platform notification delivered to the manager loop.
type Event struct {
	Kind   EventKind
	Window WindowID
}

// Backend is the narrow window-system surface the manager drives. It
// only places, shows and focuses windows; all tiling policy lives above
// it.
type Backend interface {
	// Displays returns the connected displays.
	Displays() ([]Display, error)
	// ListWindows returns the manageable top-level windows, used to
	// adopt windows that already exist at startup.
	ListWindows() ([]Window, error)
	// SetFrame moves and resizes a window.
	SetFrame(id WindowID, bounds Rect) error
	// SetVisible shows or hides a window.
	SetVisible(id WindowID, visible bool) error
	// Focus gives a window input focus and raises it.
	Focus(id WindowID) error
	// Events delivers window and display notifications. The channel is
	// closed when the backend shuts down.
	Events() <-chan Event
	// Close releases platform resources.
	Close()
}
