package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Width(16)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	onStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

// styled reports whether stdout is a terminal and output should be
// decorated.
func styled() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// terminalWidth returns the stdout width, or 0 when it cannot be
// determined.
func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0
	}
	return w
}

// printFields prints key/value rows, aligned and colored on a terminal and
// as plain "key: value" lines otherwise.
func printFields(w io.Writer, pretty bool, rows [][2]string) {
	for _, r := range rows {
		if pretty {
			fmt.Fprintln(w, labelStyle.Render(r[0])+valueStyle.Render(r[1]))
			continue
		}
		fmt.Fprintf(w, "%s: %s\n", r[0], r[1])
	}
}

// printTable prints a header and rows separated by two spaces. On a
// terminal the header is highlighted and lines are cut to the terminal
// width.
func printTable(w io.Writer, pretty bool, header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	format := func(cells []string) string {
		parts := make([]string, len(cells))
		for i, c := range cells {
			parts[i] = c + strings.Repeat(" ", widths[i]-len(c))
		}
		return strings.TrimRight(strings.Join(parts, "  "), " ")
	}

	limit := 0
	if pretty {
		limit = terminalWidth()
	}
	clip := func(s string) string {
		if limit > 0 && len(s) > limit {
			return s[:limit]
		}
		return s
	}

	line := clip(format(header))
	if pretty {
		line = headerStyle.Render(line)
	}
	fmt.Fprintln(w, line)
	for _, row := range rows {
		fmt.Fprintln(w, clip(format(row)))
	}
}

func yesNo(pretty, v bool) string {
	if !pretty {
		if v {
			return "yes"
		}
		return "no"
	}
	if v {
		return onStyle.Render("yes")
	}
	return dimStyle.Render("no")
}
