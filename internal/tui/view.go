package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/winbridge/internal/ipc"
)

var (
	detailLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("250")).
				Width(12).
				Align(lipgloss.Right).
				MarginRight(1)

	detailValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	paneStyle = lipgloss.NewStyle().
			Padding(1, 2)
)

// listWidth returns the width of the surface sidebar.
func listWidth(total int) int {
	w := total / 3
	if w < 24 {
		w = 24
	}
	return w
}

// contentHeight returns the height available between the bars.
func (m model) contentHeight() int {
	h := m.height - 2
	if h < 1 {
		h = 1
	}
	return h
}

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	statusBar := renderStatusBar(m.connected, m.status, m.width)
	helpBar := renderHelpBar(m.editing, m.statusText, m.width)

	right := m.renderDetail()
	if m.editing && m.form != nil {
		right = m.form.View()
	}
	rightWidth := m.width - listWidth(m.width)
	if rightWidth < 1 {
		rightWidth = 1
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.list.View(),
		paneStyle.Width(rightWidth).Height(m.contentHeight()).Render(right),
	)

	return lipgloss.JoinVertical(lipgloss.Left, statusBar, body, helpBar)
}

func (m model) renderDetail() string {
	if !m.connected {
		msg := "daemon not running"
		if m.lastError != "" {
			msg = m.lastError
		}
		return dimStyle.Render(msg)
	}
	s, ok := m.selected()
	if !ok {
		return dimStyle.Render("no surfaces")
	}
	return renderSurface(s)
}

func renderSurface(s ipc.SurfaceInfo) string {
	label := s.Label
	if label == "" {
		label = "-"
	}
	input := "none"
	if s.Pointer {
		input = "pointer + keypad"
	}
	rows := [][2]string{
		{"id", s.ID.String()},
		{"window", s.ID.Window.String()},
		{"label", label},
		{"position", fmt.Sprintf("%d, %d", s.X, s.Y)},
		{"size", fmt.Sprintf("%d x %d", s.Width, s.Height)},
		{"opacity", fmt.Sprintf("%d / 255", s.Opacity)},
		{"texture", fmt.Sprintf("%d", s.TextureID)},
		{"input", input},
	}
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = detailLabelStyle.Render(r[0]) + detailValueStyle.Render(r[1])
	}
	return strings.Join(lines, "\n")
}

// renderStatusBar renders the daemon connection status bar.
func renderStatusBar(connected bool, st ipc.StatusData, width int) string {
	var status string
	if connected {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("●")
		status = strings.Join([]string{
			dot + " daemon connected",
			fmt.Sprintf("windows:%d", st.Windows),
			fmt.Sprintf("surfaces:%d", st.Surfaces),
			fmt.Sprintf("frames:%d", st.Frames),
		}, "  ")
	} else {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("●")
		status = dot + " daemon not running"
	}

	style := lipgloss.NewStyle().
		Width(width).
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("250")).
		Padding(0, 1)
	return style.Render(status)
}

// renderHelpBar renders the bottom help/keybinding bar, or the last action
// result when there is one.
func renderHelpBar(editing bool, statusText string, width int) string {
	help := "↑/↓: select  shift+arrows: move  +/-: opacity  e: edit  x: remove  c: close window  r: refresh  q: quit"
	if editing {
		help = "enter: next/submit  esc: cancel  ctrl-c: quit"
	}
	if statusText != "" {
		help = statusText
	}
	style := lipgloss.NewStyle().
		Width(width).
		Foreground(lipgloss.Color("241")).
		Padding(0, 1)
	return style.Render(help)
}
