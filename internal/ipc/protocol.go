package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/winbridge/internal/compositor"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandGetStatus     CommandType = "GET_STATUS"
	CommandListWindows   CommandType = "LIST_WINDOWS"
	CommandListSurfaces  CommandType = "LIST_SURFACES"
	CommandMoveSurface   CommandType = "MOVE_SURFACE"
	CommandSetOpacity    CommandType = "SET_OPACITY"
	CommandSetLabel      CommandType = "SET_LABEL"
	CommandRemoveSurface CommandType = "REMOVE_SURFACE"
	CommandCloseWindow   CommandType = "CLOSE_WINDOW"
	CommandPointer       CommandType = "POINTER"
	CommandSnapshot      CommandType = "SNAPSHOT"
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

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	Windows       int    `json:"windows"`
	Surfaces      int    `json:"surfaces"`
	Frames        uint64 `json:"frames"`
	Reaped        int    `json:"reaped"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	DaemonRunning bool   `json:"daemon_running"`
}

// WindowInfo describes one window.
type WindowInfo struct {
	ID       compositor.WindowID `json:"id"`
	Width    int                 `json:"width"`
	Height   int                 `json:"height"`
	Pointer  bool                `json:"pointer"`
	Closing  bool                `json:"closing"`
	Surfaces int                 `json:"surfaces"`
}

// WindowsData represents the data returned by LIST_WINDOWS
type WindowsData struct {
	Windows []WindowInfo `json:"windows"`
}

// SurfaceInfo describes one surface.
type SurfaceInfo struct {
	ID        compositor.SurfaceID `json:"id"`
	Label     string               `json:"label,omitempty"`
	TextureID uint32               `json:"texture_id"`
	X         int                  `json:"x"`
	Y         int                  `json:"y"`
	Width     int                  `json:"width"`
	Height    int                  `json:"height"`
	Opacity   uint8                `json:"opacity"`
	Pointer   bool                 `json:"pointer"`
}

// SurfacesData represents the data returned by LIST_SURFACES
type SurfacesData struct {
	Surfaces []SurfaceInfo `json:"surfaces"`
}

type MoveSurfacePayload struct {
	ID compositor.SurfaceID `json:"id"`
	X  int                  `json:"x"`
	Y  int                  `json:"y"`
}

type SetOpacityPayload struct {
	ID      compositor.SurfaceID `json:"id"`
	Opacity int                  `json:"opacity"`
}

type SetLabelPayload struct {
	ID    compositor.SurfaceID `json:"id"`
	Label string               `json:"label"`
}

type SurfacePayload struct {
	ID compositor.SurfaceID `json:"id"`
}

type WindowPayload struct {
	ID compositor.WindowID `json:"id"`
}

// PointerPayload injects pointer input into a window as if it came from
// the host. Press nil only moves the pointer.
type PointerPayload struct {
	Window compositor.WindowID `json:"window"`
	X      float64             `json:"x"`
	Y      float64             `json:"y"`
	Press  *bool               `json:"press,omitempty"`
}

type SnapshotPayload struct {
	Path string `json:"path,omitempty"`
}

type SnapshotData struct {
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
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
