package terminals

import (
	"log/slog"
	"testing"
)

func TestSpawnRequiresCommand(t *testing.T) {
	s := NewSpawner(nil, slog.New(slog.DiscardHandler))
	if err := s.Spawn(); err == nil {
		t.Fatalf("expected error with no command configured")
	}

	s = NewSpawner([]string{"   "}, slog.New(slog.DiscardHandler))
	if err := s.Spawn(); err == nil {
		t.Fatalf("expected error with blank command")
	}
}

func TestSpawnRunsCommand(t *testing.T) {
	s := NewSpawner([]string{"true"}, slog.New(slog.DiscardHandler))
	if err := s.Spawn(); err != nil {
		t.Fatalf("spawn: %v", err)
	}
}

func TestSpawnReportsMissingBinary(t *testing.T) {
	s := NewSpawner([]string{"definitely-not-a-terminal-binary"}, slog.New(slog.DiscardHandler))
	if err := s.Spawn(); err == nil {
		t.Fatalf("expected error for missing binary")
	}
}

func TestUpdateSwapsCommand(t *testing.T) {
	s := NewSpawner([]string{"definitely-not-a-terminal-binary"}, slog.New(slog.DiscardHandler))
	s.Update([]string{"true"})
	if err := s.Spawn(); err != nil {
		t.Fatalf("spawn after update: %v", err)
	}
}
