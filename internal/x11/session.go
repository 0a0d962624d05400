package x11

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/xgbutil"
)

var (
	runCommandOutputFn        = runCommandOutput
	readFileFn                = os.ReadFile
	readDirFn                 = os.ReadDir
	detectSessionEnvFn        = detectSessionEnv
	detectDisplayFromSocketFn = detectDisplayFromSockets
)

// Session identifies the X server to connect to.
type Session struct {
	Display    string
	XAuthority string
}

// ResolveSession picks DISPLAY and XAUTHORITY for a connection. The process
// environment wins, then the configured values, then the user's login
// session, then the highest-numbered local X socket.
func ResolveSession(env []string, display, xauthority string) (Session, error) {
	d := strings.TrimSpace(envLookup(env, "DISPLAY"))
	xa := strings.TrimSpace(envLookup(env, "XAUTHORITY"))

	if d == "" {
		d = strings.TrimSpace(display)
	}
	if xa == "" {
		xa = strings.TrimSpace(xauthority)
	}

	if d == "" || xa == "" {
		detectedDisplay, detectedXAuthority := detectSessionEnvFn()
		if d == "" {
			d = strings.TrimSpace(detectedDisplay)
		}
		if xa == "" {
			xa = strings.TrimSpace(detectedXAuthority)
		}
	}

	if d == "" {
		d = detectDisplayFromSocketFn("/tmp/.X11-unix")
	}
	if d == "" {
		return Session{}, fmt.Errorf("no X display found; export DISPLAY, set display in config (e.g. display: \":1\"), or run with --headless")
	}

	if xa == "" {
		home := strings.TrimSpace(envLookup(env, "HOME"))
		if home == "" {
			if detectedHome, err := os.UserHomeDir(); err == nil {
				home = detectedHome
			}
		}
		if home != "" {
			candidate := filepath.Join(home, ".Xauthority")
			if _, err := os.Stat(candidate); err == nil {
				xa = candidate
			}
		}
	}

	return Session{Display: d, XAuthority: xa}, nil
}

// Connect opens a connection to the session's X server. XAUTHORITY is
// exported for the duration of the process since the protocol library
// reads it from the environment.
func (s Session) Connect() (*Connection, error) {
	if s.XAuthority != "" {
		if err := os.Setenv("XAUTHORITY", s.XAuthority); err != nil {
			return nil, fmt.Errorf("failed to set XAUTHORITY: %w", err)
		}
	}
	xu, err := xgbutil.NewConnDisplay(s.Display)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", s.Display, err)
	}
	return newConnection(xu), nil
}

func runCommandOutput(name string, args ...string) (string, error) {
	out, err := exec.Command(name, args...).Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func detectSessionEnv() (display string, xauthority string) {
	uid := strconv.Itoa(os.Getuid())
	out, err := runCommandOutputFn("loginctl", "list-sessions", "--no-legend")
	if err != nil {
		return "", ""
	}
	for _, sessionID := range parseLoginctlSessions(out, uid) {
		d := strings.TrimSpace(loginctlShowSessionProp(sessionID, "Display"))
		if d == "" || strings.EqualFold(d, "n/a") {
			continue
		}

		xauth := ""
		leader := strings.TrimSpace(loginctlShowSessionProp(sessionID, "Leader"))
		if leader != "" && leader != "0" {
			if envMap, err := readProcEnviron(leader); err == nil {
				if ed := strings.TrimSpace(envMap["DISPLAY"]); ed != "" {
					d = ed
				}
				xauth = strings.TrimSpace(envMap["XAUTHORITY"])
			}
		}
		return d, xauth
	}
	return "", ""
}

func parseLoginctlSessions(output string, uid string) []string {
	var sessions []string
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) < 2 {
			continue
		}
		if fields[1] == uid {
			sessions = append(sessions, fields[0])
		}
	}
	return sessions
}

func loginctlShowSessionProp(sessionID string, prop string) string {
	out, err := runCommandOutputFn("loginctl", "show-session", sessionID, "-p", prop, "--value")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

func readProcEnviron(pid string) (map[string]string, error) {
	data, err := readFileFn(filepath.Join("/proc", pid, "environ"))
	if err != nil {
		return nil, err
	}

	env := make(map[string]string)
	for _, part := range strings.Split(string(data), "\x00") {
		k, v, ok := strings.Cut(part, "=")
		if !ok || k == "" {
			continue
		}
		env[k] = v
	}
	return env, nil
}

func detectDisplayFromSockets(dir string) string {
	entries, err := readDirFn(dir)
	if err != nil {
		return ""
	}

	var displays []int
	for _, entry := range entries {
		name := entry.Name()
		if len(name) < 2 || name[0] != 'X' {
			continue
		}
		n, err := strconv.Atoi(name[1:])
		if err != nil {
			continue
		}
		displays = append(displays, n)
	}
	if len(displays) == 0 {
		return ""
	}
	sort.Ints(displays)
	return fmt.Sprintf(":%d", displays[len(displays)-1])
}

func envLookup(env []string, key string) string {
	prefix := key + "="
	for _, e := range env {
		if v, ok := strings.CutPrefix(e, prefix); ok {
			return v
		}
	}
	return ""
}
