// Package mcp exposes the tiler's operations as MCP tools over stdio,
// forwarding each call to the running daemon through the IPC socket.
package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tilewm/tilewm/internal/ipc"
)

const (
	ServerName    = "tilewm"
	ServerVersion = "0.1.0"
)

// Server is the MCP server for window management tools.
type Server struct {
	mcpServer *mcpsdk.Server
	client    *ipc.Client
}

// NewServer creates an MCP server that talks to the daemon via IPC.
func NewServer() *Server {
	s := &Server{
		mcpServer: mcpsdk.NewServer(&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		}, nil),
		client: ipc.NewClient(),
	}
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "wm_state",
		Description: "Get the tiler's current state: physical displays, logical displays 0-9, the window tree of each logical display with computed window rectangles, and the focused window.",
	}, s.handleState)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "wm_focus",
		Description: "Move focus to the nearest window in a direction (left, right, up, down). Does nothing at the edge of the display.",
	}, s.handleFocus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "wm_move_window",
		Description: "Swap the focused window with the nearest window in a direction (left, right, up, down). Focus follows the window.",
	}, s.handleMoveWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "wm_split",
		Description: "Split the focused window. Vertical places the next window beside it; horizontal places the next window below it. The next opened window or terminal fills the new slot.",
	}, s.handleSplit)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "wm_resize",
		Description: "Resize the focused window by transferring a share of its parent split to or from the adjacent window in a direction. Positive delta grows the focused window; negative shrinks it. Shares never drop below 10%.",
	}, s.handleResize)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "wm_switch_display",
		Description: "Show a logical display (0-9) on the active physical display, hiding the one currently shown. If the logical display is already visible on another monitor, focus jumps there instead.",
	}, s.handleSwitchDisplay)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "wm_move_to_display",
		Description: "Move the focused window to a logical display (0-9). The window is hidden unless that display is visible on some monitor.",
	}, s.handleMoveToDisplay)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "wm_open_terminal",
		Description: "Open a new terminal window. It is tiled into the focused container according to the pending split orientation.",
	}, s.handleOpenTerminal)
}
