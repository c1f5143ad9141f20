package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/tilewm/tilewm/internal/tree"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandPing          CommandType = "PING"
	CommandGetState      CommandType = "GET_STATE"
	CommandFocus         CommandType = "FOCUS"
	CommandMove          CommandType = "MOVE"
	CommandResize        CommandType = "RESIZE"
	CommandSplit         CommandType = "SPLIT"
	CommandSwitchDisplay CommandType = "SWITCH_DISPLAY"
	CommandMoveToDisplay CommandType = "MOVE_TO_DISPLAY"
	CommandOpenTerminal  CommandType = "OPEN_TERMINAL"
	CommandReload        CommandType = "RELOAD"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// DirectionPayload carries a movement direction for FOCUS and MOVE.
type DirectionPayload struct {
	Direction string `json:"direction"`
}

// ResizePayload carries a resize request. Delta zero means the
// daemon's configured step.
type ResizePayload struct {
	Direction string  `json:"direction"`
	Delta     float64 `json:"delta,omitempty"`
}

// SplitPayload carries a split orientation.
type SplitPayload struct {
	Orientation string `json:"orientation"`
}

// DisplayPayload names a logical display for SWITCH_DISPLAY and
// MOVE_TO_DISPLAY.
type DisplayPayload struct {
	Display int `json:"display"`
}

// PingData is returned by PING.
type PingData struct {
	UptimeSeconds int64 `json:"uptime_seconds"`
	Windows       int   `json:"windows"`
}

// ParseDirection maps a wire direction to a tree direction.
func ParseDirection(s string) (tree.Direction, error) {
	switch s {
	case "left":
		return tree.DirLeft, nil
	case "right":
		return tree.DirRight, nil
	case "up":
		return tree.DirUp, nil
	case "down":
		return tree.DirDown, nil
	}
	return 0, fmt.Errorf("unknown direction %q (want left, right, up or down)", s)
}

// ParseOrientation maps a wire orientation to a tree orientation.
func ParseOrientation(s string) (tree.Orientation, error) {
	switch s {
	case "vertical", "v":
		return tree.Vertical, nil
	case "horizontal", "h":
		return tree.Horizontal, nil
	}
	return 0, fmt.Errorf("unknown orientation %q (want vertical or horizontal)", s)
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
