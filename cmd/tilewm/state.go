package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/tilewm/tilewm/internal/ipc"
	"github.com/tilewm/tilewm/internal/wm"
)

func runState(args []string) int {
	fs := flag.NewFlagSet("state", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: tilewm state [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show displays, container trees and the focused window.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	jsonOut := fs.Bool("json", false, "Output the full snapshot as JSON")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "state takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	snapshot, err := client.State()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	// Pipes get JSON so the output stays scriptable.
	if *jsonOut || !term.IsTerminal(int(os.Stdout.Fd())) {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snapshot); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	printSnapshot(snapshot)
	return 0
}

func printSnapshot(s *wm.Snapshot) {
	for _, pd := range s.Physical {
		label := ""
		if pd.Primary {
			label = " (primary)"
		}
		fmt.Printf("monitor %d%s %q %s  showing logical %d\n",
			pd.ID, label, pd.Name, formatRect(pd.Bounds), pd.Shown)
	}

	for _, ld := range s.Logical {
		where := "hidden"
		if ld.Visible {
			where = fmt.Sprintf("visible on monitor %d", ld.ShownOn)
		}
		fmt.Printf("\nlogical %d  %s  %d window(s)\n", ld.ID, where, ld.Windows)
		if ld.Tree != nil {
			printNode(ld.Tree, s.Focus, 1)
		}
	}

	if s.Focus != nil {
		fmt.Printf("\nfocus: logical %d node %d window 0x%x\n",
			s.Focus.Logical, s.Focus.Node, s.Focus.Window)
	} else {
		fmt.Println("\nfocus: none")
	}
}

func printNode(n *wm.NodeSnapshot, focus *wm.FocusSnapshot, depth int) {
	indent := strings.Repeat("  ", depth)

	if n.Type == "leaf" {
		mark := ""
		if focus != nil && focus.Node == n.ID {
			mark = "  *focused"
		}
		if n.Window == 0 {
			fmt.Printf("%sempty%s%s\n", indent, rectSuffix(n.Rect), mark)
			return
		}
		fmt.Printf("%swindow 0x%x%s%s\n", indent, n.Window, rectSuffix(n.Rect), mark)
		return
	}

	ratios := make([]string, len(n.Ratios))
	for i, r := range n.Ratios {
		ratios[i] = fmt.Sprintf("%.2f", r)
	}
	fmt.Printf("%ssplit %s [%s]%s\n", indent, n.Orientation, strings.Join(ratios, " "), rectSuffix(n.Rect))
	for i := range n.Children {
		printNode(&n.Children[i], focus, depth+1)
	}
}

func formatRect(r wm.RectSnapshot) string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

func rectSuffix(r *wm.RectSnapshot) string {
	if r == nil {
		return ""
	}
	return " " + formatRect(*r)
}
