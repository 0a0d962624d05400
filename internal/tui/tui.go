// Package tui is an interactive inspector for a running winbridge daemon.
package tui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/1broseidon/winbridge/internal/compositor"
	"github.com/1broseidon/winbridge/internal/ipc"
)

// Client is the subset of the IPC client the inspector uses.
type Client interface {
	GetStatus() (*ipc.StatusData, error)
	ListSurfaces() (*ipc.SurfacesData, error)
	MoveSurface(id compositor.SurfaceID, x, y int) error
	SetOpacity(id compositor.SurfaceID, opacity int) error
	SetLabel(id compositor.SurfaceID, label string) error
	RemoveSurface(id compositor.SurfaceID) error
	CloseWindow(id compositor.WindowID) error
}

// Run starts the inspector and blocks until the user quits.
func Run(client Client) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tui requires an interactive terminal (stdin/stdout must be TTYs)")
	}
	_, err := tea.NewProgram(newModel(client), tea.WithAltScreen()).Run()
	return err
}
