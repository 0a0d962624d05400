package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/winbridge/internal/ipc"
)

const (
	refreshInterval = time.Second
	moveStep        = 10
	opacityStep     = 16
)

// surfaceItem implements list.Item for the surface sidebar.
type surfaceItem struct {
	info ipc.SurfaceInfo
}

func (i surfaceItem) Title() string {
	name := i.info.Label
	if name == "" {
		name = i.info.ID.String()
	}
	return name
}

func (i surfaceItem) Description() string {
	return fmt.Sprintf("%s  %dx%d @ %d,%d", i.info.ID, i.info.Width, i.info.Height, i.info.X, i.info.Y)
}

func (i surfaceItem) FilterValue() string { return i.info.Label }

// snapshotMsg carries a fresh view of the daemon.
type snapshotMsg struct {
	status   *ipc.StatusData
	surfaces []ipc.SurfaceInfo
	err      error
}

// actionMsg is sent after an IPC action completes.
type actionMsg struct {
	text string
	err  error
}

// tickMsg triggers a periodic refresh.
type tickMsg struct{}

// clearStatusMsg clears the status message after a delay.
type clearStatusMsg struct{}

// editValues backs the edit form. It lives on the heap so the form's
// bound pointers survive model copies.
type editValues struct {
	label   string
	x       string
	y       string
	opacity string
}

// model is the root bubbletea model for the inspector.
type model struct {
	client Client
	list   list.Model

	connected bool
	status    ipc.StatusData
	surfaces  []ipc.SurfaceInfo

	statusText string
	lastError  string

	editing bool
	form    *huh.Form
	edit    *editValues

	width  int
	height int
}

func newModel(client Client) model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.Color("15")).
		BorderForeground(lipgloss.Color("62"))
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.Color("250")).
		BorderForeground(lipgloss.Color("62"))

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Surfaces"
	l.Styles.Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("62")).
		Padding(0, 1)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.KeyMap.Quit.SetEnabled(false)

	return model{client: client, list: l}
}

func (m model) fetch() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		status, err := client.GetStatus()
		if err != nil {
			return snapshotMsg{err: err}
		}
		data, err := client.ListSurfaces()
		if err != nil {
			return snapshotMsg{err: err}
		}
		return snapshotMsg{status: status, surfaces: data.Surfaces}
	}
}

func scheduleRefresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg { return tickMsg{} })
}

func clearStatusLater() tea.Cmd {
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg { return clearStatusMsg{} })
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return tea.Batch(m.fetch(), scheduleRefresh())
}

// selected returns the highlighted surface.
func (m model) selected() (ipc.SurfaceInfo, bool) {
	item, ok := m.list.SelectedItem().(surfaceItem)
	if !ok {
		return ipc.SurfaceInfo{}, false
	}
	return item.info, true
}

func (m *model) applySnapshot(msg snapshotMsg) tea.Cmd {
	if msg.err != nil {
		m.connected = false
		m.lastError = msg.err.Error()
		return nil
	}
	m.connected = true
	m.lastError = ""
	if msg.status != nil {
		m.status = *msg.status
	}

	prev, hadPrev := m.selected()
	m.surfaces = msg.surfaces
	items := make([]list.Item, len(msg.surfaces))
	sel := 0
	for i, s := range msg.surfaces {
		items[i] = surfaceItem{info: s}
		if hadPrev && s.ID == prev.ID {
			sel = i
		}
	}
	cmd := m.list.SetItems(items)
	if len(items) > 0 {
		m.list.Select(sel)
	}
	return cmd
}

// act runs fn against the selected surface and reports the result.
func (m model) act(text string, fn func(ipc.SurfaceInfo) error) tea.Cmd {
	s, ok := m.selected()
	if !ok {
		return nil
	}
	return func() tea.Msg {
		return actionMsg{text: text, err: fn(s)}
	}
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(listWidth(m.width), m.contentHeight())
		return m, nil
	case snapshotMsg:
		cmd := m.applySnapshot(msg)
		return m, cmd
	case tickMsg:
		return m, tea.Batch(m.fetch(), scheduleRefresh())
	case actionMsg:
		if msg.err != nil {
			m.statusText = "Error: " + msg.err.Error()
		} else {
			m.statusText = msg.text
		}
		return m, tea.Batch(m.fetch(), clearStatusLater())
	case clearStatusMsg:
		m.statusText = ""
		return m, nil
	}

	if m.editing {
		return m.updateEditing(msg)
	}

	if km, ok := msg.(tea.KeyMsg); ok {
		if cmd, handled := m.handleKey(km); handled {
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *model) handleKey(km tea.KeyMsg) (tea.Cmd, bool) {
	c := m.client
	switch km.String() {
	case "ctrl+c", "q":
		return tea.Quit, true
	case "r":
		return m.fetch(), true
	case "shift+left":
		return m.act("moved", func(s ipc.SurfaceInfo) error { return c.MoveSurface(s.ID, s.X-moveStep, s.Y) }), true
	case "shift+right":
		return m.act("moved", func(s ipc.SurfaceInfo) error { return c.MoveSurface(s.ID, s.X+moveStep, s.Y) }), true
	case "shift+up":
		return m.act("moved", func(s ipc.SurfaceInfo) error { return c.MoveSurface(s.ID, s.X, s.Y-moveStep) }), true
	case "shift+down":
		return m.act("moved", func(s ipc.SurfaceInfo) error { return c.MoveSurface(s.ID, s.X, s.Y+moveStep) }), true
	case "+", "=":
		return m.act("opacity raised", func(s ipc.SurfaceInfo) error {
			return c.SetOpacity(s.ID, clampOpacity(int(s.Opacity)+opacityStep))
		}), true
	case "-":
		return m.act("opacity lowered", func(s ipc.SurfaceInfo) error {
			return c.SetOpacity(s.ID, clampOpacity(int(s.Opacity)-opacityStep))
		}), true
	case "x":
		return m.act("surface removed", func(s ipc.SurfaceInfo) error { return c.RemoveSurface(s.ID) }), true
	case "c":
		return m.act("window closing", func(s ipc.SurfaceInfo) error { return c.CloseWindow(s.ID.Window) }), true
	case "e":
		s, ok := m.selected()
		if !ok {
			return nil, true
		}
		return m.startEditing(s), true
	}
	return nil, false
}

func clampOpacity(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

func (m *model) startEditing(s ipc.SurfaceInfo) tea.Cmd {
	m.edit = &editValues{
		label:   s.Label,
		x:       strconv.Itoa(s.X),
		y:       strconv.Itoa(s.Y),
		opacity: strconv.Itoa(int(s.Opacity)),
	}

	w := m.width - listWidth(m.width) - 4
	if w < 30 {
		w = 30
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("label").
				Title("Label").
				Value(&m.edit.label),
			huh.NewInput().
				Key("x").
				Title("X").
				Validate(validateInt).
				Value(&m.edit.x),
			huh.NewInput().
				Key("y").
				Title("Y").
				Validate(validateInt).
				Value(&m.edit.y),
			huh.NewInput().
				Key("opacity").
				Title("Opacity").
				Description("0 hides the surface, 255 covers").
				Validate(validateOpacity).
				Value(&m.edit.opacity),
		),
	).WithWidth(w).WithShowHelp(true).WithShowErrors(true)

	m.editing = true
	return m.form.Init()
}

func validateInt(s string) error {
	if _, err := strconv.Atoi(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("must be an integer")
	}
	return nil
}

func validateOpacity(s string) error {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 0 || v > 255 {
		return fmt.Errorf("must be between 0 and 255")
	}
	return nil
}

func (m model) updateEditing(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			m.editing = false
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.editing = false
		m.form = nil
		return m, m.applyForm()
	}
	return m, cmd
}

// applyForm sends the edited values of the selected surface to the daemon.
func (m model) applyForm() tea.Cmd {
	if m.edit == nil {
		return nil
	}
	x, _ := strconv.Atoi(strings.TrimSpace(m.edit.x))
	y, _ := strconv.Atoi(strings.TrimSpace(m.edit.y))
	opa, _ := strconv.Atoi(strings.TrimSpace(m.edit.opacity))
	label := strings.TrimSpace(m.edit.label)
	c := m.client
	return m.act("surface updated", func(s ipc.SurfaceInfo) error {
		if err := c.MoveSurface(s.ID, x, y); err != nil {
			return err
		}
		if err := c.SetOpacity(s.ID, clampOpacity(opa)); err != nil {
			return err
		}
		if label != s.Label {
			return c.SetLabel(s.ID, label)
		}
		return nil
	})
}
