package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tilewm/tilewm/internal/ipc"
)

func okResult() (*mcpsdk.CallToolResult, ActionOutput, error) {
	return nil, ActionOutput{Status: "ok"}, nil
}

func (s *Server) handleState(_ context.Context, _ *mcpsdk.CallToolRequest, _ StateInput) (*mcpsdk.CallToolResult, StateOutput, error) {
	snapshot, err := s.client.State()
	if err != nil {
		return nil, StateOutput{}, err
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, StateOutput{}, fmt.Errorf("failed to encode state: %w", err)
	}
	return nil, StateOutput{State: string(data)}, nil
}

func (s *Server) handleFocus(_ context.Context, _ *mcpsdk.CallToolRequest, args FocusInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	if _, err := ipc.ParseDirection(args.Direction); err != nil {
		return nil, ActionOutput{}, err
	}
	if err := s.client.Focus(args.Direction); err != nil {
		return nil, ActionOutput{}, err
	}
	return okResult()
}

func (s *Server) handleMoveWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args MoveWindowInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	if _, err := ipc.ParseDirection(args.Direction); err != nil {
		return nil, ActionOutput{}, err
	}
	if err := s.client.Move(args.Direction); err != nil {
		return nil, ActionOutput{}, err
	}
	return okResult()
}

func (s *Server) handleSplit(_ context.Context, _ *mcpsdk.CallToolRequest, args SplitInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	if _, err := ipc.ParseOrientation(args.Orientation); err != nil {
		return nil, ActionOutput{}, err
	}
	if err := s.client.Split(args.Orientation); err != nil {
		return nil, ActionOutput{}, err
	}
	return okResult()
}

func (s *Server) handleResize(_ context.Context, _ *mcpsdk.CallToolRequest, args ResizeInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	if _, err := ipc.ParseDirection(args.Direction); err != nil {
		return nil, ActionOutput{}, err
	}
	if args.Delta < -0.5 || args.Delta > 0.5 {
		return nil, ActionOutput{}, fmt.Errorf("delta must be within [-0.5, 0.5], got %g", args.Delta)
	}
	if err := s.client.Resize(args.Direction, args.Delta); err != nil {
		return nil, ActionOutput{}, err
	}
	return okResult()
}

func (s *Server) handleSwitchDisplay(_ context.Context, _ *mcpsdk.CallToolRequest, args SwitchDisplayInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	if err := validDisplay(args.Display); err != nil {
		return nil, ActionOutput{}, err
	}
	if err := s.client.SwitchDisplay(args.Display); err != nil {
		return nil, ActionOutput{}, err
	}
	return okResult()
}

func (s *Server) handleMoveToDisplay(_ context.Context, _ *mcpsdk.CallToolRequest, args MoveToDisplayInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	if err := validDisplay(args.Display); err != nil {
		return nil, ActionOutput{}, err
	}
	if err := s.client.MoveToDisplay(args.Display); err != nil {
		return nil, ActionOutput{}, err
	}
	return okResult()
}

func (s *Server) handleOpenTerminal(_ context.Context, _ *mcpsdk.CallToolRequest, _ OpenTerminalInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	if err := s.client.OpenTerminal(); err != nil {
		return nil, ActionOutput{}, err
	}
	return okResult()
}

func validDisplay(n int) error {
	if n < 0 || n > 9 {
		return fmt.Errorf("display must be within 0-9, got %d", n)
	}
	return nil
}
