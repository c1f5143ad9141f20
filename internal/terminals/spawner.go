// Package terminals launches terminal emulator processes for the
// tiler. The spawned window reaches the tree through the normal
// platform window-opened notification.
package terminals

import (
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"syscall"
)

// Spawner launches the configured terminal command.
type Spawner struct {
	mu      sync.Mutex
	command []string
	logger  *slog.Logger
}

// NewSpawner creates a spawner for the given command line, command
// name first.
func NewSpawner(command []string, logger *slog.Logger) *Spawner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Spawner{command: command, logger: logger}
}

// Update replaces the terminal command, used on config reload.
func (s *Spawner) Update(command []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.command = command
}

// Spawn starts a terminal in its own session so it survives the
// daemon and never inherits its controlling terminal.
func (s *Spawner) Spawn() error {
	s.mu.Lock()
	command := s.command
	s.mu.Unlock()

	if len(command) == 0 || strings.TrimSpace(command[0]) == "" {
		return fmt.Errorf("no terminal command configured")
	}

	cmd := exec.Command(command[0], command[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to launch terminal %q: %w", command[0], err)
	}
	s.logger.Debug("terminal spawned", "command", command[0], "pid", cmd.Process.Pid)

	// Reap the child when it exits.
	go cmd.Wait()
	return nil
}
