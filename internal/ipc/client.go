package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/tilewm/tilewm/internal/runtimepath"
	"github.com/tilewm/tilewm/internal/wm"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	pathErr    error
	timeout    time.Duration
}

// NewClient creates a new IPC client. Path resolution failures are kept
// and surfaced on the first request.
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	return &Client{
		socketPath: socketPath,
		pathErr:    err,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	if c.pathErr != nil {
		return nil, fmt.Errorf("failed to resolve daemon socket: %w", c.pathErr)
	}
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

func (c *Client) sendPayload(cmd CommandType, payload interface{}) error {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		raw = data
	}
	_, err := c.sendRequest(&Request{Command: cmd, Payload: raw})
	return err
}

// Ping checks if the daemon is responding.
func (c *Client) Ping() (*PingData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandPing})
	if err != nil {
		return nil, err
	}
	var data PingData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse ping data: %w", err)
	}
	return &data, nil
}

// State retrieves the full manager state.
func (c *Client) State() (*wm.Snapshot, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetState})
	if err != nil {
		return nil, err
	}
	var snap wm.Snapshot
	if err := json.Unmarshal(resp.Data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse state data: %w", err)
	}
	return &snap, nil
}

// Focus moves focus in a direction.
func (c *Client) Focus(direction string) error {
	return c.sendPayload(CommandFocus, DirectionPayload{Direction: direction})
}

// Move moves the focused window in a direction.
func (c *Client) Move(direction string) error {
	return c.sendPayload(CommandMove, DirectionPayload{Direction: direction})
}

// Resize adjusts the focused container's share. Delta zero means the
// daemon's configured step.
func (c *Client) Resize(direction string, delta float64) error {
	return c.sendPayload(CommandResize, ResizePayload{Direction: direction, Delta: delta})
}

// Split prepares a split of the focused leaf.
func (c *Client) Split(orientation string) error {
	return c.sendPayload(CommandSplit, SplitPayload{Orientation: orientation})
}

// SwitchDisplay shows a logical display on the active physical display.
func (c *Client) SwitchDisplay(display int) error {
	return c.sendPayload(CommandSwitchDisplay, DisplayPayload{Display: display})
}

// MoveToDisplay sends the focused window to a logical display.
func (c *Client) MoveToDisplay(display int) error {
	return c.sendPayload(CommandMoveToDisplay, DisplayPayload{Display: display})
}

// OpenTerminal spawns a terminal window.
func (c *Client) OpenTerminal() error {
	return c.sendPayload(CommandOpenTerminal, nil)
}

// Reload asks the daemon to re-read its configuration.
func (c *Client) Reload() error {
	return c.sendPayload(CommandReload, nil)
}
