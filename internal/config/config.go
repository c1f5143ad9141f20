// Package config loads and validates the tiler's YAML configuration.
package config

import (
	"fmt"
	"strings"
)

// Config is the effective daemon configuration.
type Config struct {
	// Padding is the pixel gap around the tiled area and between
	// windows.
	Padding int `yaml:"padding"`

	// Terminal is the command used to spawn a new terminal window,
	// command name first.
	Terminal []string `yaml:"terminal"`

	// ResizeStep is the share of a split transferred by one resize
	// request without an explicit delta.
	ResizeStep float64 `yaml:"resize_step"`

	// LogLevel selects daemon log verbosity: debug, info, warn or
	// error.
	LogLevel string `yaml:"log_level"`

	// Hotkeys maps actions to key chords, overriding the defaults.
	// Set an action to the empty string to unbind it.
	Hotkeys map[string]string `yaml:"hotkeys"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Padding:    10,
		Terminal:   []string{"x-terminal-emulator"},
		ResizeStep: 0.05,
		LogLevel:   "info",
		Hotkeys:    map[string]string{},
	}
}

// ValidationError describes a rejected configuration value.
type ValidationError struct {
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

var logLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks the configuration for values the daemon cannot run
// with.
func (c *Config) Validate() error {
	if c.Padding < 0 {
		return &ValidationError{Path: "padding", Message: fmt.Sprintf("must not be negative, got %d", c.Padding)}
	}
	if c.Padding > 200 {
		return &ValidationError{Path: "padding", Message: fmt.Sprintf("unreasonably large, got %d", c.Padding)}
	}
	if len(c.Terminal) == 0 || strings.TrimSpace(c.Terminal[0]) == "" {
		return &ValidationError{Path: "terminal", Message: "terminal command must not be empty"}
	}
	if c.ResizeStep <= 0 || c.ResizeStep > 0.5 {
		return &ValidationError{Path: "resize_step", Message: fmt.Sprintf("must be in (0, 0.5], got %g", c.ResizeStep)}
	}
	if !logLevels[c.LogLevel] {
		return &ValidationError{Path: "log_level", Message: fmt.Sprintf("unknown level %q", c.LogLevel)}
	}
	for action := range c.Hotkeys {
		if !knownAction(action) {
			return &ValidationError{Path: "hotkeys." + action, Message: "unknown action"}
		}
	}
	return nil
}

// knownAction reports whether the hotkey action name is one the daemon
// dispatches.
func knownAction(action string) bool {
	switch action {
	case "open-terminal",
		"focus-left", "focus-right", "focus-up", "focus-down",
		"move-left", "move-right", "move-up", "move-down",
		"split-vertical", "split-horizontal",
		"resize-grow-h", "resize-shrink-h", "resize-grow-v", "resize-shrink-v":
		return true
	}
	if strings.HasPrefix(action, "display-") || strings.HasPrefix(action, "move-to-display-") {
		return true
	}
	return false
}
