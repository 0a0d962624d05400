package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/winbridge/internal/compositor"
	"github.com/1broseidon/winbridge/internal/runtimepath"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client for the default socket path.
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientAt(socketPath)
}

// NewClientAt creates a client for an explicit socket path.
func NewClientAt(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
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

// call sends command with an optional payload and decodes the response data
// into out when out is non-nil.
func (c *Client) call(command CommandType, payload interface{}, out interface{}) error {
	req := &Request{Command: command}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal %s payload: %w", command, err)
		}
		req.Payload = raw
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", command, err)
	}
	return nil
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	var status StatusData
	if err := c.call(CommandGetStatus, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ListWindows retrieves the live windows.
func (c *Client) ListWindows() (*WindowsData, error) {
	var data WindowsData
	if err := c.call(CommandListWindows, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// ListSurfaces retrieves every surface of every window.
func (c *Client) ListSurfaces() (*SurfacesData, error) {
	var data SurfacesData
	if err := c.call(CommandListSurfaces, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// MoveSurface places the surface's top-left corner at (x, y).
func (c *Client) MoveSurface(id compositor.SurfaceID, x, y int) error {
	return c.call(CommandMoveSurface, MoveSurfacePayload{ID: id, X: x, Y: y}, nil)
}

// SetOpacity sets the surface's blend opacity (0..255).
func (c *Client) SetOpacity(id compositor.SurfaceID, opacity int) error {
	return c.call(CommandSetOpacity, SetOpacityPayload{ID: id, Opacity: opacity}, nil)
}

// SetLabel renames a surface.
func (c *Client) SetLabel(id compositor.SurfaceID, label string) error {
	return c.call(CommandSetLabel, SetLabelPayload{ID: id, Label: label}, nil)
}

// RemoveSurface removes a surface and its input devices.
func (c *Client) RemoveSurface(id compositor.SurfaceID) error {
	return c.call(CommandRemoveSurface, SurfacePayload{ID: id}, nil)
}

// CloseWindow asks the daemon to close a window on its next frame.
func (c *Client) CloseWindow(id compositor.WindowID) error {
	return c.call(CommandCloseWindow, WindowPayload{ID: id}, nil)
}

// Pointer moves the pointer in a window and optionally presses or releases
// the left button.
func (c *Client) Pointer(win compositor.WindowID, x, y float64, press *bool) error {
	return c.call(CommandPointer, PointerPayload{Window: win, X: x, Y: y, Press: press}, nil)
}

// Snapshot writes the last composited frame as PNG. An empty path uses the
// runtime directory.
func (c *Client) Snapshot(path string) (*SnapshotData, error) {
	var data SnapshotData
	if err := c.call(CommandSnapshot, SnapshotPayload{Path: path}, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
