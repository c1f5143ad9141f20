package hotkeys

import (
	"log/slog"
	"testing"
)

func TestDefaultBindingsCoverKnownActions(t *testing.T) {
	bindings := DefaultBindings()

	want := []string{
		"open-terminal",
		"focus-left", "focus-right", "focus-up", "focus-down",
		"move-left", "move-right", "move-up", "move-down",
		"split-vertical", "split-horizontal",
		"resize-grow-h", "resize-shrink-h", "resize-grow-v", "resize-shrink-v",
		"display-0", "display-9",
		"move-to-display-0", "move-to-display-9",
	}
	for _, action := range want {
		if bindings[action] == "" {
			t.Errorf("no default chord for %s", action)
		}
	}

	seen := make(map[string]string)
	for action, chord := range bindings {
		if prev, ok := seen[chord]; ok {
			t.Errorf("chord %q bound to both %s and %s", chord, prev, action)
		}
		seen[chord] = action
	}
}

func TestActionFuncResolvesAllDefaults(t *testing.T) {
	h := &Handler{logger: slog.New(slog.DiscardHandler)}
	for action := range DefaultBindings() {
		if _, err := h.actionFunc(action); err != nil {
			t.Errorf("actionFunc(%q): %v", action, err)
		}
	}
	if _, err := h.actionFunc("summon-dragon"); err == nil {
		t.Errorf("expected error for unknown action")
	}
}

func TestDisplaySuffix(t *testing.T) {
	tests := []struct {
		action string
		prefix string
		n      int
		ok     bool
	}{
		{"display-0", "display-", 0, true},
		{"display-9", "display-", 9, true},
		{"display-10", "display-", 0, false},
		{"display-x", "display-", 0, false},
		{"move-to-display-3", "move-to-display-", 3, true},
		{"move-to-display-3", "display-", 0, false},
	}
	for _, tt := range tests {
		n, ok := displaySuffix(tt.action, tt.prefix)
		if n != tt.n || ok != tt.ok {
			t.Errorf("displaySuffix(%q, %q) = %d, %v; want %d, %v",
				tt.action, tt.prefix, n, ok, tt.n, tt.ok)
		}
	}
}
