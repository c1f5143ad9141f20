package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/tilewm/tilewm/internal/config"
	"github.com/tilewm/tilewm/internal/daemon"
	"github.com/tilewm/tilewm/internal/hotkeys"
	"github.com/tilewm/tilewm/internal/ipc"
	"github.com/tilewm/tilewm/internal/platform"
	"github.com/tilewm/tilewm/internal/terminals"
	"github.com/tilewm/tilewm/internal/wm"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "state":
		os.Exit(runState(os.Args[2:]))
	case "focus":
		os.Exit(runDirectional("focus", os.Args[2:]))
	case "move":
		os.Exit(runDirectional("move", os.Args[2:]))
	case "resize":
		os.Exit(runResize(os.Args[2:]))
	case "split":
		os.Exit(runSplit(os.Args[2:]))
	case "display":
		os.Exit(runDisplay(os.Args[2:]))
	case "move-to-display":
		os.Exit(runMoveToDisplay(os.Args[2:]))
	case "term":
		os.Exit(runTerm(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "version":
		fmt.Println("tilewm " + version)
		os.Exit(0)
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: tilewm <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon                  Start the tiling daemon (foreground)")
	fmt.Fprintln(w, "  state [--json]          Show displays, trees and focus")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  focus <direction>       Move focus left, right, up or down")
	fmt.Fprintln(w, "  move <direction>        Move the focused window in a direction")
	fmt.Fprintln(w, "  resize <direction>      Resize the focused window")
	fmt.Fprintln(w, "  split <orientation>     Split the focused window (vertical|horizontal)")
	fmt.Fprintln(w, "  display <n>             Switch to logical display 0-9")
	fmt.Fprintln(w, "  move-to-display <n>     Move the focused window to logical display 0-9")
	fmt.Fprintln(w, "  term                    Open a new terminal window")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate         Validate configuration")
	fmt.Fprintln(w, "  config print            Print effective configuration")
	fmt.Fprintln(w, "  config path             Print the config file path")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve               Start MCP server (stdio transport)")
	fmt.Fprintln(w, "  version                 Print version")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'tilewm <command> --help' for command-specific options.")
}

func runDaemon(args []string) int {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: tilewm daemon [--config PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Start the tiling daemon in the foreground.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	cfgPath := fs.String("config", "", "Config file path (default: ~/.config/tilewm/config.yaml)")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "daemon takes no arguments")
		fs.Usage()
		return 2
	}

	path := *cfgPath
	if path == "" {
		p, err := config.DefaultConfigPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to resolve config path: %v\n", err)
			return 1
		}
		path = p
	}

	cfg, err := config.LoadFromPath(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	logger.Info("configuration loaded", "path", path, "padding", cfg.Padding)

	backend, err := platform.NewLinuxBackend()
	if err != nil {
		logger.Error("failed to connect to display", "error", err)
		return 1
	}
	defer backend.Close()

	spawner := terminals.NewSpawner(cfg.Terminal, logger)

	mgr := wm.NewManager(backend, wm.Options{
		Padding:    cfg.Padding,
		ResizeStep: cfg.ResizeStep,
		Spawn:      spawner.Spawn,
		Logger:     logger,
	})
	if err := mgr.Init(); err != nil {
		logger.Error("failed to initialize manager", "error", err)
		return 1
	}

	d := daemon.New(mgr, backend, daemon.Options{
		ConfigPath: path,
		Logger:     logger,
		OnReload: func(cfg *config.Config) {
			spawner.Update(cfg.Terminal)
		},
	})

	ipcServer, err := ipc.NewServer(d, d.ReloadChan())
	if err != nil {
		logger.Error("failed to create IPC server", "error", err)
		return 1
	}
	if err := ipcServer.Start(); err != nil {
		logger.Error("failed to start IPC server", "error", err)
		return 1
	}
	defer ipcServer.Stop()

	hotkeyHandler, err := hotkeys.NewHandler(backend, d, logger)
	if err != nil {
		logger.Error("failed to create hotkey handler", "error", err)
		return 1
	}
	if err := hotkeyHandler.RegisterAll(cfg.Hotkeys); err != nil {
		logger.Error("failed to register hotkeys", "error", err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		for sig := range sigCh {
			if sig == syscall.SIGHUP {
				logger.Info("received SIGHUP, reloading config")
				select {
				case d.ReloadChan() <- struct{}{}:
				default:
				}
				continue
			}
			logger.Info("shutting down", "signal", sig.String())
			cancel()
			return
		}
	}()

	go func() {
		if err := daemon.WatchConfig(ctx, path, d.ReloadChan(), logger); err != nil {
			logger.Warn("config watcher unavailable", "error", err)
		}
	}()

	// Key press events are delivered by the X event loop.
	go backend.EventLoop()

	logger.Info("tilewm daemon started")
	if err := d.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("daemon stopped", "error", err)
		return 1
	}
	return 0
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func runDirectional(name string, args []string) int {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tilewm %s <left|right|up|down>\n", name)
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "%s requires a direction\n", name)
		fs.Usage()
		return 2
	}
	direction := fs.Arg(0)
	if _, err := ipc.ParseDirection(direction); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	client := ipc.NewClient()
	var err error
	if name == "focus" {
		err = client.Focus(direction)
	} else {
		err = client.Move(direction)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runResize(args []string) int {
	fs := flag.NewFlagSet("resize", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: tilewm resize [--delta N] <left|right|up|down>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Transfer a share of the parent split toward the given direction.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	delta := fs.Float64("delta", 0, "Ratio to transfer, negative shrinks (default: configured step)")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "resize requires a direction")
		fs.Usage()
		return 2
	}
	direction := fs.Arg(0)
	if _, err := ipc.ParseDirection(direction); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if *delta < -0.5 || *delta > 0.5 {
		fmt.Fprintf(os.Stderr, "delta must be within [-0.5, 0.5], got %g\n", *delta)
		return 2
	}

	client := ipc.NewClient()
	if err := client.Resize(direction, *delta); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runSplit(args []string) int {
	fs := flag.NewFlagSet("split", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: tilewm split <vertical|horizontal>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Split the focused window. Vertical places the next window beside")
		fmt.Fprintln(os.Stderr, "it, horizontal places it below.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "split requires an orientation")
		fs.Usage()
		return 2
	}
	orientation := fs.Arg(0)
	if _, err := ipc.ParseOrientation(orientation); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	client := ipc.NewClient()
	if err := client.Split(orientation); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runDisplay(args []string) int {
	n, code := parseDisplayArg("display", args)
	if code >= 0 {
		return code
	}
	client := ipc.NewClient()
	if err := client.SwitchDisplay(n); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runMoveToDisplay(args []string) int {
	n, code := parseDisplayArg("move-to-display", args)
	if code >= 0 {
		return code
	}
	client := ipc.NewClient()
	if err := client.MoveToDisplay(n); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// parseDisplayArg returns code -1 when parsing succeeded and the
// command should proceed.
func parseDisplayArg(name string, args []string) (int, int) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tilewm %s <0-9>\n", name)
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0, 0
		}
		return 0, 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "%s requires a display number\n", name)
		fs.Usage()
		return 0, 2
	}
	var n int
	if _, err := fmt.Sscanf(fs.Arg(0), "%d", &n); err != nil || n < 0 || n > 9 {
		fmt.Fprintf(os.Stderr, "display must be a number 0-9, got %q\n", fs.Arg(0))
		return 0, 2
	}
	return n, -1
}

func runTerm(args []string) int {
	fs := flag.NewFlagSet("term", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: tilewm term")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Open a new terminal window in the focused container.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "term takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	if err := client.OpenTerminal(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
