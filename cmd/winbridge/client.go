package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/1broseidon/winbridge/internal/compositor"
	"github.com/1broseidon/winbridge/internal/ipc"
	"github.com/1broseidon/winbridge/internal/tui"
)

func newClient(socket string) *ipc.Client {
	if socket == "" {
		return ipc.NewClient()
	}
	return ipc.NewClientAt(socket)
}

func clientFlags(name, usage string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	socket := fs.String("socket", "", "Control socket path")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: "+usage)
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	return fs, socket
}

// parseArgs parses fs and checks the positional argument count. It returns
// an exit code when the command should stop.
func parseArgs(fs *flag.FlagSet, args []string, want int) (int, bool) {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0, false
		}
		return 2, false
	}
	if fs.NArg() != want {
		fmt.Fprintf(os.Stderr, "%s takes %d argument(s)\n", fs.Name(), want)
		fs.Usage()
		return 2, false
	}
	return 0, true
}

func printJSON(v any) int {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println(string(data))
	return 0
}

func runStatus(args []string) int {
	fs, socket := clientFlags("status", "winbridge status [--json]")
	asJSON := fs.Bool("json", false, "Output JSON")
	if code, ok := parseArgs(fs, args, 0); !ok {
		return code
	}

	status, err := newClient(*socket).GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *asJSON {
		return printJSON(status)
	}
	pretty := styled()
	printFields(os.Stdout, pretty, [][2]string{
		{"daemon_running", yesNo(pretty, status.DaemonRunning)},
		{"windows", strconv.Itoa(status.Windows)},
		{"surfaces", strconv.Itoa(status.Surfaces)},
		{"frames", strconv.FormatUint(status.Frames, 10)},
		{"reaped", strconv.Itoa(status.Reaped)},
		{"uptime_seconds", strconv.FormatInt(status.UptimeSeconds, 10)},
	})
	return 0
}

func runWindows(args []string) int {
	fs, socket := clientFlags("windows", "winbridge windows [--json]")
	asJSON := fs.Bool("json", false, "Output JSON")
	if code, ok := parseArgs(fs, args, 0); !ok {
		return code
	}

	data, err := newClient(*socket).ListWindows()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *asJSON {
		return printJSON(data)
	}
	pretty := styled()
	rows := make([][]string, 0, len(data.Windows))
	for _, w := range data.Windows {
		rows = append(rows, []string{
			w.ID.String(),
			fmt.Sprintf("%dx%d", w.Width, w.Height),
			yesNo(false, w.Pointer),
			yesNo(false, w.Closing),
			strconv.Itoa(w.Surfaces),
		})
	}
	printTable(os.Stdout, pretty, []string{"ID", "SIZE", "POINTER", "CLOSING", "SURFACES"}, rows)
	return 0
}

func runSurfaces(args []string) int {
	fs, socket := clientFlags("surfaces", "winbridge surfaces [--json]")
	asJSON := fs.Bool("json", false, "Output JSON")
	if code, ok := parseArgs(fs, args, 0); !ok {
		return code
	}

	data, err := newClient(*socket).ListSurfaces()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *asJSON {
		return printJSON(data)
	}
	writeSurfaces(os.Stdout, styled(), data.Surfaces)
	return 0
}

func writeSurfaces(w io.Writer, pretty bool, surfaces []ipc.SurfaceInfo) {
	rows := make([][]string, 0, len(surfaces))
	for _, s := range surfaces {
		label := s.Label
		if label == "" {
			label = "-"
		}
		rows = append(rows, []string{
			s.ID.String(),
			label,
			fmt.Sprintf("%d,%d", s.X, s.Y),
			fmt.Sprintf("%dx%d", s.Width, s.Height),
			strconv.Itoa(int(s.Opacity)),
			strconv.FormatUint(uint64(s.TextureID), 10),
			yesNo(false, s.Pointer),
		})
	}
	printTable(w, pretty, []string{"ID", "LABEL", "POS", "SIZE", "OPA", "TEXTURE", "INPUT"}, rows)
}

func printSurfaceUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  winbridge surface move <id> <x> <y>")
	fmt.Fprintln(w, "  winbridge surface opacity <id> <0-255>")
	fmt.Fprintln(w, "  winbridge surface label <id> <label>")
	fmt.Fprintln(w, "  winbridge surface remove <id>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Surface ids look like w0.1/s2.1 (see 'winbridge surfaces').")
}

func runSurface(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printSurfaceUsage(os.Stderr)
		if len(args) == 0 {
			return 2
		}
		return 0
	}

	switch args[0] {
	case "move":
		fs, socket := clientFlags("move", "winbridge surface move <id> <x> <y>")
		if code, ok := parseArgs(fs, args[1:], 3); !ok {
			return code
		}
		id, err := compositor.ParseSurfaceID(fs.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		x, errX := strconv.Atoi(fs.Arg(1))
		y, errY := strconv.Atoi(fs.Arg(2))
		if errX != nil || errY != nil {
			fmt.Fprintln(os.Stderr, "x and y must be integers")
			return 2
		}
		if err := newClient(*socket).MoveSurface(id, x, y); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0

	case "opacity":
		fs, socket := clientFlags("opacity", "winbridge surface opacity <id> <0-255>")
		if code, ok := parseArgs(fs, args[1:], 2); !ok {
			return code
		}
		id, err := compositor.ParseSurfaceID(fs.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		opa, err := strconv.Atoi(fs.Arg(1))
		if err != nil || opa < 0 || opa > 255 {
			fmt.Fprintln(os.Stderr, "opacity must be an integer between 0 and 255")
			return 2
		}
		if err := newClient(*socket).SetOpacity(id, opa); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0

	case "label":
		fs, socket := clientFlags("label", "winbridge surface label <id> <label>")
		if code, ok := parseArgs(fs, args[1:], 2); !ok {
			return code
		}
		id, err := compositor.ParseSurfaceID(fs.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		if err := newClient(*socket).SetLabel(id, fs.Arg(1)); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0

	case "remove":
		fs, socket := clientFlags("remove", "winbridge surface remove <id>")
		if code, ok := parseArgs(fs, args[1:], 1); !ok {
			return code
		}
		id, err := compositor.ParseSurfaceID(fs.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		if err := newClient(*socket).RemoveSurface(id); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown surface command: %s\n\n", args[0])
		printSurfaceUsage(os.Stderr)
		return 2
	}
}

func runWindow(args []string) int {
	if len(args) == 0 || args[0] != "close" {
		fmt.Fprintln(os.Stderr, "Usage: winbridge window close <id>")
		return 2
	}
	fs, socket := clientFlags("close", "winbridge window close <id>")
	if code, ok := parseArgs(fs, args[1:], 1); !ok {
		return code
	}
	id, err := compositor.ParseWindowID(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if err := newClient(*socket).CloseWindow(id); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runPointer(args []string) int {
	fs, socket := clientFlags("pointer", "winbridge pointer [--press|--release] <window> <x> <y>")
	press := fs.Bool("press", false, "Press the left button after moving")
	release := fs.Bool("release", false, "Release the left button after moving")
	if code, ok := parseArgs(fs, args, 3); !ok {
		return code
	}
	if *press && *release {
		fmt.Fprintln(os.Stderr, "--press and --release are mutually exclusive")
		return 2
	}
	win, err := compositor.ParseWindowID(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	x, errX := strconv.ParseFloat(fs.Arg(1), 64)
	y, errY := strconv.ParseFloat(fs.Arg(2), 64)
	if errX != nil || errY != nil {
		fmt.Fprintln(os.Stderr, "x and y must be numbers")
		return 2
	}

	var state *bool
	switch {
	case *press:
		v := true
		state = &v
	case *release:
		v := false
		state = &v
	}
	if err := newClient(*socket).Pointer(win, x, y, state); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runSnapshot(args []string) int {
	fs, socket := clientFlags("snapshot", "winbridge snapshot [--out PATH]")
	out := fs.String("out", "", "Output PNG path (default: runtime directory)")
	if code, ok := parseArgs(fs, args, 0); !ok {
		return code
	}
	path := *out
	if path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		path = abs
	}
	data, err := newClient(*socket).Snapshot(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("%s (%dx%d)\n", data.Path, data.Width, data.Height)
	return 0
}

func runTUI(args []string) int {
	fs, socket := clientFlags("tui", "winbridge tui [--socket PATH]")
	if code, ok := parseArgs(fs, args, 0); !ok {
		return code
	}
	if err := tui.Run(newClient(*socket)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
