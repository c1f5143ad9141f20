package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultsValidate(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Padding != 10 || cfg.ResizeStep != 0.05 || cfg.LogLevel != "info" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
padding: 24
terminal: ["kitty", "--single-instance"]
log_level: debug
`)
	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Padding != 24 {
		t.Errorf("padding = %d, expected 24", cfg.Padding)
	}
	if len(cfg.Terminal) != 2 || cfg.Terminal[0] != "kitty" {
		t.Errorf("terminal = %v", cfg.Terminal)
	}
	// Untouched keys keep their defaults.
	if cfg.ResizeStep != 0.05 {
		t.Errorf("resize_step = %g, expected default 0.05", cfg.ResizeStep)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "paddign: 5\n")
	if _, err := LoadFromPath(path); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"negative padding", func(c *Config) { c.Padding = -1 }, "padding"},
		{"huge padding", func(c *Config) { c.Padding = 500 }, "padding"},
		{"empty terminal", func(c *Config) { c.Terminal = nil }, "terminal"},
		{"blank terminal", func(c *Config) { c.Terminal = []string{"  "} }, "terminal"},
		{"zero resize step", func(c *Config) { c.ResizeStep = 0 }, "resize_step"},
		{"oversized resize step", func(c *Config) { c.ResizeStep = 0.9 }, "resize_step"},
		{"bad log level", func(c *Config) { c.LogLevel = "chatty" }, "log_level"},
		{"unknown hotkey action", func(c *Config) { c.Hotkeys = map[string]string{"teleport": "Mod4-t"} }, "hotkeys.teleport"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.path) {
				t.Fatalf("error %q does not mention %q", err, tc.path)
			}
		})
	}
}

func TestHotkeyActionsAccepted(t *testing.T) {
	cfg := Default()
	cfg.Hotkeys = map[string]string{
		"open-terminal":     "Mod1-Return",
		"focus-left":        "Mod1-h",
		"display-3":         "Mod1-3",
		"move-to-display-7": "Mod1-Shift-7",
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid hotkeys rejected: %v", err)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
