// Package daemon runs the tiler's dispatch loop: one goroutine owns
// the manager and serializes platform events, IPC commands, hotkeys
// and config reloads.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tilewm/tilewm/internal/config"
	"github.com/tilewm/tilewm/internal/platform"
	"github.com/tilewm/tilewm/internal/wm"
)

// reconcileInterval is how often the loop sweeps for windows the
// platform dropped without a close notification.
const reconcileInterval = 10 * time.Second

type command struct {
	fn   func(m *wm.Manager)
	done chan struct{}
}

// Daemon owns the manager and the loop that drives it.
type Daemon struct {
	mgr      *wm.Manager
	backend  platform.Backend
	cfgPath  string
	logger   *slog.Logger
	onReload func(cfg *config.Config)

	cmds   chan command
	reload chan struct{}
	closed chan struct{}
}

// Options configures a Daemon.
type Options struct {
	// ConfigPath is re-read on reload requests. Empty disables reload.
	ConfigPath string
	Logger     *slog.Logger
	// OnReload is called with each successfully reloaded config.
	OnReload func(cfg *config.Config)
}

// New builds a daemon around a manager.
func New(mgr *wm.Manager, backend platform.Backend, opts Options) *Daemon {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Daemon{
		mgr:      mgr,
		backend:  backend,
		cfgPath:  opts.ConfigPath,
		logger:   logger,
		onReload: opts.OnReload,
		cmds:     make(chan command),
		reload:   make(chan struct{}, 1),
		closed:   make(chan struct{}),
	}
}

// ReloadChan returns the channel reload requests are posted to.
func (d *Daemon) ReloadChan() chan<- struct{} {
	return d.reload
}

// Dispatch runs fn on the loop goroutine and waits for it to finish.
// This is the only way the IPC server and hotkey handler touch the
// manager.
func (d *Daemon) Dispatch(fn func(m *wm.Manager)) error {
	cmd := command{fn: fn, done: make(chan struct{})}
	select {
	case d.cmds <- cmd:
	case <-d.closed:
		return fmt.Errorf("daemon is shutting down")
	}
	select {
	case <-cmd.done:
		return nil
	case <-d.closed:
		return fmt.Errorf("daemon is shutting down")
	}
}

// Run drives the dispatch loop until the context is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	defer close(d.closed)

	ticker := time.NewTicker(reconcileInterval)
	defer ticker.Stop()

	d.logger.Info("dispatch loop started")

	events := d.backend.Events()
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("dispatch loop stopped")
			return ctx.Err()

		case ev, ok := <-events:
			if !ok {
				d.logger.Error("platform event stream closed")
				return fmt.Errorf("platform connection lost")
			}
			d.handleEvent(ev)

		case cmd := <-d.cmds:
			d.runCommand(cmd)

		case <-d.reload:
			d.reloadConfig()

		case <-ticker.C:
			d.safely(func() { d.mgr.ReconcileWindows() })
		}
	}
}

func (d *Daemon) handleEvent(ev platform.Event) {
	d.safely(func() {
		switch ev.Kind {
		case platform.EventWindowOpened:
			d.mgr.WindowOpened(ev.Window)
		case platform.EventWindowClosed:
			d.mgr.WindowClosed(ev.Window)
		case platform.EventWindowFocused:
			d.mgr.WindowFocused(ev.Window)
		case platform.EventDisplaysChanged:
			d.mgr.DisplaysChanged()
		}
	})
}

func (d *Daemon) runCommand(cmd command) {
	defer close(cmd.done)
	d.safely(func() { cmd.fn(d.mgr) })
}

// reloadConfig re-reads the config file and applies layout settings.
// Hotkey changes need a daemon restart.
func (d *Daemon) reloadConfig() {
	if d.cfgPath == "" {
		return
	}
	cfg, err := config.LoadFromPath(d.cfgPath)
	if err != nil {
		d.logger.Warn("config reload rejected", "error", err)
		return
	}
	d.safely(func() { d.mgr.Reconfigure(cfg.Padding, cfg.ResizeStep) })
	if d.onReload != nil {
		d.safely(func() { d.onReload(cfg) })
	}
	d.logger.Info("config reloaded", "path", d.cfgPath)
}

// safely keeps a panicking handler from taking the whole daemon down.
func (d *Daemon) safely(fn func()) {
	defer func() {
		if err := recover(); err != nil {
			d.logger.Error("panic recovered in dispatch loop", "error", err)
		}
	}()
	fn()
}
