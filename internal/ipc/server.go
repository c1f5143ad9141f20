package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/tilewm/tilewm/internal/runtimepath"
	"github.com/tilewm/tilewm/internal/wm"
)

// Dispatcher runs a function on the goroutine that owns the manager.
// Every tree mutation travels through it, so IPC requests are
// serialized with hotkeys and platform events.
type Dispatcher interface {
	Dispatch(fn func(m *wm.Manager)) error
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	dispatcher   Dispatcher
	reloadChan   chan<- struct{}
	startTime    time.Time
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server
func NewServer(dispatcher Dispatcher, reloadChan chan<- struct{}) (*Server, error) {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}

	// Remove existing socket if present
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		dispatcher: dispatcher,
		reloadChan: reloadChan,
		startTime:  time.Now(),
	}, nil
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	log.Printf("IPC server listening on %s", s.socketPath)

	// Accept connections
	go s.acceptLoop()

	return nil
}

// Stop closes the listener and removes the socket.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			log.Printf("IPC accept error: %v", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		log.Printf("IPC read error: %v", err)
		return
	}

	// Parse request
	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	// Handle command
	resp := s.handleCommand(req)

	// Send response
	respData, err := resp.Marshal()
	if err != nil {
		log.Printf("Failed to marshal response: %v", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		log.Printf("Failed to send response: %v", err)
	}
}

func (s *Server) sendError(conn net.Conn, msg string) {
	resp := NewErrorResponse(msg)
	if data, err := resp.Marshal(); err == nil {
		conn.Write(append(data, '\n'))
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandPing:
		return s.handlePing()
	case CommandGetState:
		return s.handleGetState()
	case CommandFocus:
		return s.handleFocus(req.Payload)
	case CommandMove:
		return s.handleMove(req.Payload)
	case CommandResize:
		return s.handleResize(req.Payload)
	case CommandSplit:
		return s.handleSplit(req.Payload)
	case CommandSwitchDisplay:
		return s.handleSwitchDisplay(req.Payload)
	case CommandMoveToDisplay:
		return s.handleMoveToDisplay(req.Payload)
	case CommandOpenTerminal:
		return s.handleOpenTerminal()
	case CommandReload:
		return s.handleReload()
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handlePing() *Response {
	windows := 0
	err := s.dispatcher.Dispatch(func(m *wm.Manager) {
		for _, ld := range m.Registry().Logicals() {
			windows += len(ld.Tree.Windows())
		}
	})
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(PingData{
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Windows:       windows,
	})
	return resp
}

func (s *Server) handleGetState() *Response {
	var snap wm.Snapshot
	err := s.dispatcher.Dispatch(func(m *wm.Manager) {
		snap = m.State()
	})
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, err := NewOKResponse(snap)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) handleFocus(payload json.RawMessage) *Response {
	var p DirectionPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid focus payload: %v", err))
	}
	dir, err := ParseDirection(p.Direction)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return s.dispatchOK(func(m *wm.Manager) { m.MoveFocus(dir) })
}

func (s *Server) handleMove(payload json.RawMessage) *Response {
	var p DirectionPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid move payload: %v", err))
	}
	dir, err := ParseDirection(p.Direction)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return s.dispatchOK(func(m *wm.Manager) { m.MoveWindow(dir) })
}

func (s *Server) handleResize(payload json.RawMessage) *Response {
	var p ResizePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid resize payload: %v", err))
	}
	dir, err := ParseDirection(p.Direction)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	if p.Delta < -0.5 || p.Delta > 0.5 {
		return NewErrorResponse(fmt.Sprintf("resize delta %g out of range", p.Delta))
	}
	return s.dispatchOK(func(m *wm.Manager) { m.Resize(dir, p.Delta) })
}

func (s *Server) handleSplit(payload json.RawMessage) *Response {
	var p SplitPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid split payload: %v", err))
	}
	o, err := ParseOrientation(p.Orientation)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return s.dispatchOK(func(m *wm.Manager) { m.Split(o) })
}

func (s *Server) handleSwitchDisplay(payload json.RawMessage) *Response {
	var p DisplayPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid display payload: %v", err))
	}
	if !wm.LogicalID(p.Display).Valid() {
		return NewErrorResponse(fmt.Sprintf("display %d out of range 0..9", p.Display))
	}
	return s.dispatchOK(func(m *wm.Manager) { m.SwitchLogicalDisplay(wm.LogicalID(p.Display)) })
}

func (s *Server) handleMoveToDisplay(payload json.RawMessage) *Response {
	var p DisplayPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid display payload: %v", err))
	}
	if !wm.LogicalID(p.Display).Valid() {
		return NewErrorResponse(fmt.Sprintf("display %d out of range 0..9", p.Display))
	}
	return s.dispatchOK(func(m *wm.Manager) { m.MoveFocusedToLogicalDisplay(wm.LogicalID(p.Display)) })
}

func (s *Server) handleOpenTerminal() *Response {
	var spawnErr error
	err := s.dispatcher.Dispatch(func(m *wm.Manager) {
		spawnErr = m.OpenTerminal()
	})
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	if spawnErr != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to spawn terminal: %v", spawnErr))
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

// handleReload asks the daemon to re-read its configuration.
func (s *Server) handleReload() *Response {
	log.Println("IPC: Received RELOAD command")

	select {
	case s.reloadChan <- struct{}{}:
	default:
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) dispatchOK(fn func(m *wm.Manager)) *Response {
	if err := s.dispatcher.Dispatch(fn); err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(nil)
	return resp
}
