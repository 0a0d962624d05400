package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/winbridge/internal/compositor"
	"github.com/1broseidon/winbridge/internal/daemon"
	"github.com/1broseidon/winbridge/internal/platform"
	"github.com/1broseidon/winbridge/internal/runtimepath"
)

// Controller runs work against the window system on its owning goroutine.
// *daemon.Loop implements it.
type Controller interface {
	Do(ctx context.Context, fn func(*compositor.System) error) error
	Status() daemon.Status
}

// ServerOptions configures a Server.
type ServerOptions struct {
	// SocketPath overrides the runtime socket path.
	SocketPath string
	// Frame returns the last composited frame. It is called on the
	// controller goroutine. SNAPSHOT fails when it is nil.
	Frame func() image.Image
	// CommandTimeout bounds each dispatched command.
	CommandTimeout time.Duration
	Logger         *slog.Logger
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	ctrl         Controller
	frame        func() image.Image
	timeout      time.Duration
	logger       *slog.Logger
	startTime    time.Time
	shuttingDown bool
	shutdownMu   sync.Mutex
	wg           sync.WaitGroup
}

// NewServer creates a new IPC server
func NewServer(ctrl Controller, opts ServerOptions) (*Server, error) {
	socketPath := opts.SocketPath
	if socketPath == "" {
		var err error
		socketPath, err = runtimepath.SocketPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	timeout := opts.CommandTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Server{
		socketPath: socketPath,
		ctrl:       ctrl,
		frame:      opts.Frame,
		timeout:    timeout,
		logger:     logger,
		startTime:  time.Now(),
	}, nil
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Start begins listening for IPC connections. A live socket owned by
// another daemon is reported as an error; a stale one is replaced.
func (s *Server) Start() error {
	if conn, err := net.DialTimeout("unix", s.socketPath, 200*time.Millisecond); err == nil {
		conn.Close()
		return fmt.Errorf("another daemon is listening on %s", s.socketPath)
	}
	os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", "socket", s.socketPath)

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			stopping := s.shuttingDown
			s.shutdownMu.Unlock()
			if stopping || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("IPC accept error", "error", err)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// One JSON request per line.
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("IPC read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	resp := s.handleCommand(req)

	respData, err := resp.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal response", "error", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.logger.Warn("failed to send response", "error", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	s.logger.Debug("IPC command", "command", req.Command)
	switch req.Command {
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandListWindows:
		return s.handleListWindows()
	case CommandListSurfaces:
		return s.handleListSurfaces()
	case CommandMoveSurface:
		return s.handleMoveSurface(req.Payload)
	case CommandSetOpacity:
		return s.handleSetOpacity(req.Payload)
	case CommandSetLabel:
		return s.handleSetLabel(req.Payload)
	case CommandRemoveSurface:
		return s.handleRemoveSurface(req.Payload)
	case CommandCloseWindow:
		return s.handleCloseWindow(req.Payload)
	case CommandPointer:
		return s.handlePointer(req.Payload)
	case CommandSnapshot:
		return s.handleSnapshot(req.Payload)
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

// do dispatches fn to the controller with the per-command timeout.
func (s *Server) do(fn func(*compositor.System) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.ctrl.Do(ctx, fn)
}

// reply turns the outcome of a dispatched command into a response.
func reply(data interface{}, err error) *Response {
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func decodePayload(payload json.RawMessage, v interface{}, name string) *Response {
	if len(payload) == 0 {
		return NewErrorResponse(fmt.Sprintf("%s payload is required", name))
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid %s payload: %v", name, err))
	}
	return nil
}

func (s *Server) handleGetStatus() *Response {
	var data StatusData
	err := s.do(func(sys *compositor.System) error {
		for _, id := range sys.Windows() {
			w, err := sys.Window(id)
			if err != nil {
				continue
			}
			data.Windows++
			data.Surfaces += w.SurfaceCount()
		}
		return nil
	})
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	st := s.ctrl.Status()
	data.Frames = st.Frames
	data.Reaped = st.Reaped
	data.UptimeSeconds = int64(time.Since(s.startTime).Seconds())
	data.DaemonRunning = true
	return reply(data, nil)
}

func (s *Server) handleListWindows() *Response {
	data := WindowsData{Windows: []WindowInfo{}}
	err := s.do(func(sys *compositor.System) error {
		for _, id := range sys.Windows() {
			w, err := sys.Window(id)
			if err != nil {
				continue
			}
			data.Windows = append(data.Windows, WindowInfo{
				ID:       id,
				Width:    w.Width(),
				Height:   w.Height(),
				Pointer:  w.PointerEnabled(),
				Closing:  w.Closing(),
				Surfaces: w.SurfaceCount(),
			})
		}
		return nil
	})
	return reply(data, err)
}

func (s *Server) handleListSurfaces() *Response {
	data := SurfacesData{Surfaces: []SurfaceInfo{}}
	err := s.do(func(sys *compositor.System) error {
		for _, win := range sys.Windows() {
			ids, err := sys.Surfaces(win)
			if err != nil {
				continue
			}
			for _, id := range ids {
				surf, err := sys.Surface(id)
				if err != nil {
					continue
				}
				area := surf.Area()
				data.Surfaces = append(data.Surfaces, SurfaceInfo{
					ID:        id,
					Label:     surf.Label(),
					TextureID: surf.TextureID(),
					X:         area.X1,
					Y:         area.Y1,
					Width:     area.Width(),
					Height:    area.Height(),
					Opacity:   surf.Opacity(),
					Pointer:   surf.HasPointer(),
				})
			}
		}
		return nil
	})
	return reply(data, err)
}

func (s *Server) handleMoveSurface(payload json.RawMessage) *Response {
	var req MoveSurfacePayload
	if resp := decodePayload(payload, &req, "move"); resp != nil {
		return resp
	}
	err := s.do(func(sys *compositor.System) error {
		if err := sys.SetX(req.ID, req.X); err != nil {
			return err
		}
		return sys.SetY(req.ID, req.Y)
	})
	return reply(nil, err)
}

func (s *Server) handleSetOpacity(payload json.RawMessage) *Response {
	var req SetOpacityPayload
	if resp := decodePayload(payload, &req, "opacity"); resp != nil {
		return resp
	}
	if req.Opacity < 0 || req.Opacity > 255 {
		return NewErrorResponse(fmt.Sprintf("opacity %d out of range 0..255", req.Opacity))
	}
	err := s.do(func(sys *compositor.System) error {
		return sys.SetOpacity(req.ID, uint8(req.Opacity))
	})
	return reply(nil, err)
}

func (s *Server) handleSetLabel(payload json.RawMessage) *Response {
	var req SetLabelPayload
	if resp := decodePayload(payload, &req, "label"); resp != nil {
		return resp
	}
	err := s.do(func(sys *compositor.System) error {
		return sys.SetLabel(req.ID, req.Label)
	})
	return reply(nil, err)
}

func (s *Server) handleRemoveSurface(payload json.RawMessage) *Response {
	var req SurfacePayload
	if resp := decodePayload(payload, &req, "remove"); resp != nil {
		return resp
	}
	err := s.do(func(sys *compositor.System) error {
		return sys.RemoveSurface(req.ID)
	})
	return reply(nil, err)
}

func (s *Server) handleCloseWindow(payload json.RawMessage) *Response {
	var req WindowPayload
	if resp := decodePayload(payload, &req, "close"); resp != nil {
		return resp
	}
	err := s.do(func(sys *compositor.System) error {
		return sys.RequestClose(req.ID)
	})
	return reply(nil, err)
}

func (s *Server) handlePointer(payload json.RawMessage) *Response {
	var req PointerPayload
	if resp := decodePayload(payload, &req, "pointer"); resp != nil {
		return resp
	}
	err := s.do(func(sys *compositor.System) error {
		if err := sys.MouseMove(req.Window, req.X, req.Y); err != nil {
			return err
		}
		if req.Press == nil {
			return nil
		}
		action := platform.ActionRelease
		if *req.Press {
			action = platform.ActionPress
		}
		return sys.MouseButton(req.Window, platform.ButtonLeft, action, 0)
	})
	return reply(nil, err)
}

func (s *Server) handleSnapshot(payload json.RawMessage) *Response {
	if s.frame == nil {
		return NewErrorResponse("snapshots are not available")
	}
	var req SnapshotPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &req); err != nil {
			return NewErrorResponse(fmt.Sprintf("Invalid snapshot payload: %v", err))
		}
	}
	path := req.Path
	if path == "" {
		var err error
		path, err = runtimepath.SnapshotPath()
		if err != nil {
			return NewErrorResponse(err.Error())
		}
	}

	var img image.Image
	err := s.do(func(*compositor.System) error {
		img = s.frame()
		return nil
	})
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	if img == nil {
		return NewErrorResponse("no frame has been composited yet")
	}
	if err := writePNG(path, img); err != nil {
		return NewErrorResponse(err.Error())
	}

	b := img.Bounds()
	return reply(SnapshotData{Path: path, Width: b.Dx(), Height: b.Dy()}, nil)
}

func writePNG(path string, img image.Image) error {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// sendError sends an error response
func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	os.Remove(s.socketPath)
}
