// Package hotkeys registers global keyboard chords on the X root
// window and turns them into manager operations.
package hotkeys

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"

	"github.com/tilewm/tilewm/internal/platform"
	"github.com/tilewm/tilewm/internal/tree"
	"github.com/tilewm/tilewm/internal/wm"
)

// Dispatcher hands a manager operation to the goroutine that owns the
// manager.
type Dispatcher interface {
	Dispatch(fn func(m *wm.Manager)) error
}

// x11Accessor is an optional interface for backends that expose X11 internals.
type x11Accessor interface {
	XUtil() *xgbutil.XUtil
	RootWindow() xproto.Window
}

// Handler manages global keyboard shortcuts.
type Handler struct {
	xu         *xgbutil.XUtil
	root       xproto.Window
	dispatcher Dispatcher
	logger     *slog.Logger
}

var ignoreModsOnce sync.Once

// NewHandler creates a hotkey handler bound to the backend's X
// connection. The backend must expose its X11 internals.
func NewHandler(backend platform.Backend, dispatcher Dispatcher, logger *slog.Logger) (*Handler, error) {
	accessor, ok := backend.(x11Accessor)
	if !ok {
		return nil, fmt.Errorf("backend does not expose an X11 connection")
	}
	if logger == nil {
		logger = slog.Default()
	}

	xu := accessor.XUtil()
	ignoreModsOnce.Do(func() {
		configureIgnoreMods(xu)
	})

	return &Handler{
		xu:         xu,
		root:       accessor.RootWindow(),
		dispatcher: dispatcher,
		logger:     logger,
	}, nil
}

// DefaultBindings maps hotkey actions to their default key chords.
func DefaultBindings() map[string]string {
	bindings := map[string]string{
		"open-terminal":    "Mod1-Return",
		"focus-left":       "Mod1-h",
		"focus-down":       "Mod1-j",
		"focus-up":         "Mod1-k",
		"focus-right":      "Mod1-l",
		"move-left":        "Mod1-Shift-h",
		"move-down":        "Mod1-Shift-j",
		"move-up":          "Mod1-Shift-k",
		"move-right":       "Mod1-Shift-l",
		"split-vertical":   "Mod1-v",
		"split-horizontal": "Mod1-s",
		"resize-shrink-h":  "Mod1-y",
		"resize-grow-v":    "Mod1-u",
		"resize-shrink-v":  "Mod1-i",
		"resize-grow-h":    "Mod1-o",
	}
	for n := 0; n <= 9; n++ {
		bindings[fmt.Sprintf("display-%d", n)] = fmt.Sprintf("Mod1-%d", n)
		bindings[fmt.Sprintf("move-to-display-%d", n)] = fmt.Sprintf("Mod1-Shift-%d", n)
	}
	return bindings
}

// RegisterAll binds the default chord set with the given overrides
// applied. An override with an empty chord unbinds the action.
func (h *Handler) RegisterAll(overrides map[string]string) error {
	bindings := DefaultBindings()
	for action, chord := range overrides {
		bindings[action] = chord
	}

	for action, chord := range bindings {
		if chord == "" {
			continue
		}
		fn, err := h.actionFunc(action)
		if err != nil {
			return err
		}
		if err := h.register(chord, action, fn); err != nil {
			return fmt.Errorf("failed to bind %s to %q: %w", action, chord, err)
		}
	}
	return nil
}

func (h *Handler) register(keySequence, action string, fn func(m *wm.Manager)) error {
	return keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		if err := h.dispatcher.Dispatch(fn); err != nil {
			h.logger.Warn("hotkey dropped", "action", action, "error", err)
		}
	}).Connect(h.xu, h.root, keySequence, true)
}

// actionFunc resolves an action name to the manager call it performs.
func (h *Handler) actionFunc(action string) (func(m *wm.Manager), error) {
	switch action {
	case "open-terminal":
		return func(m *wm.Manager) {
			if err := m.OpenTerminal(); err != nil {
				h.logger.Error("failed to open terminal", "error", err)
			}
		}, nil
	case "focus-left":
		return func(m *wm.Manager) { m.MoveFocus(tree.DirLeft) }, nil
	case "focus-right":
		return func(m *wm.Manager) { m.MoveFocus(tree.DirRight) }, nil
	case "focus-up":
		return func(m *wm.Manager) { m.MoveFocus(tree.DirUp) }, nil
	case "focus-down":
		return func(m *wm.Manager) { m.MoveFocus(tree.DirDown) }, nil
	case "move-left":
		return func(m *wm.Manager) { m.MoveWindow(tree.DirLeft) }, nil
	case "move-right":
		return func(m *wm.Manager) { m.MoveWindow(tree.DirRight) }, nil
	case "move-up":
		return func(m *wm.Manager) { m.MoveWindow(tree.DirUp) }, nil
	case "move-down":
		return func(m *wm.Manager) { m.MoveWindow(tree.DirDown) }, nil
	case "split-vertical":
		return func(m *wm.Manager) { m.Split(tree.Vertical) }, nil
	case "split-horizontal":
		return func(m *wm.Manager) { m.Split(tree.Horizontal) }, nil
	case "resize-grow-h":
		return func(m *wm.Manager) { m.Resize(tree.DirRight, 0) }, nil
	case "resize-shrink-h":
		return func(m *wm.Manager) { m.Resize(tree.DirRight, -m.Step()) }, nil
	case "resize-grow-v":
		return func(m *wm.Manager) { m.Resize(tree.DirDown, 0) }, nil
	case "resize-shrink-v":
		return func(m *wm.Manager) { m.Resize(tree.DirDown, -m.Step()) }, nil
	}

	if n, ok := displaySuffix(action, "display-"); ok {
		return func(m *wm.Manager) { m.SwitchLogicalDisplay(wm.LogicalID(n)) }, nil
	}
	if n, ok := displaySuffix(action, "move-to-display-"); ok {
		return func(m *wm.Manager) { m.MoveFocusedToLogicalDisplay(wm.LogicalID(n)) }, nil
	}
	return nil, fmt.Errorf("unknown hotkey action %q", action)
}

func displaySuffix(action, prefix string) (int, bool) {
	if !strings.HasPrefix(action, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(action, prefix))
	if err != nil || n < 0 || n > 9 {
		return 0, false
	}
	return n, true
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	unique := make(map[uint16]struct{})
	add := func(mask uint16) {
		unique[mask] = struct{}{}
	}

	add(0)
	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		add(mask)
	}

	ignore := make([]uint16, 0, len(unique))
	for mask := range unique {
		ignore = append(ignore, mask)
	}

	xevent.IgnoreMods = ignore
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
