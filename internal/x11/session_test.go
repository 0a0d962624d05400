package x11

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func stubDetectFns(
	detectSession func() (string, string),
	detectSocket func(string) string,
) func() {
	origSession := detectSessionEnvFn
	origSocket := detectDisplayFromSocketFn
	detectSessionEnvFn = detectSession
	detectDisplayFromSocketFn = detectSocket
	return func() {
		detectSessionEnvFn = origSession
		detectDisplayFromSocketFn = origSocket
	}
}

func TestResolveSession_EnvironmentWins(t *testing.T) {
	restore := stubDetectFns(
		func() (string, string) { return ":99", "/tmp/should-not-be-used" },
		func(string) string { return ":88" },
	)
	defer restore()

	env := []string{"HOME=" + t.TempDir(), "DISPLAY=:7", "XAUTHORITY=/tmp/xauth-existing"}
	s, err := ResolveSession(env, ":1", "/tmp/cfg")
	if err != nil {
		t.Fatalf("ResolveSession returned error: %v", err)
	}
	if s.Display != ":7" || s.XAuthority != "/tmp/xauth-existing" {
		t.Fatalf("unexpected session %+v", s)
	}
}

func TestResolveSession_ConfigAndHomeXAuthority(t *testing.T) {
	restore := stubDetectFns(
		func() (string, string) { return "", "" },
		func(string) string { return "" },
	)
	defer restore()

	home := t.TempDir()
	xauth := filepath.Join(home, ".Xauthority")
	if err := os.WriteFile(xauth, []byte("cookie"), 0600); err != nil {
		t.Fatalf("write xauthority: %v", err)
	}

	s, err := ResolveSession([]string{"HOME=" + home}, ":1", "")
	if err != nil {
		t.Fatalf("ResolveSession returned error: %v", err)
	}
	if s.Display != ":1" {
		t.Fatalf("Display = %q, want %q", s.Display, ":1")
	}
	if s.XAuthority != xauth {
		t.Fatalf("XAuthority = %q, want %q", s.XAuthority, xauth)
	}
}

func TestResolveSession_DetectedValues(t *testing.T) {
	restore := stubDetectFns(
		func() (string, string) { return ":5", "/tmp/xauth-detected" },
		func(string) string { return ":9" },
	)
	defer restore()

	s, err := ResolveSession([]string{"HOME=" + t.TempDir()}, "", "")
	if err != nil {
		t.Fatalf("ResolveSession returned error: %v", err)
	}
	if s.Display != ":5" || s.XAuthority != "/tmp/xauth-detected" {
		t.Fatalf("unexpected session %+v", s)
	}
}

func TestResolveSession_FallsBackToSockets(t *testing.T) {
	restore := stubDetectFns(
		func() (string, string) { return "", "" },
		func(string) string { return ":3" },
	)
	defer restore()

	s, err := ResolveSession([]string{"HOME=" + t.TempDir()}, "", "")
	if err != nil {
		t.Fatalf("ResolveSession returned error: %v", err)
	}
	if s.Display != ":3" {
		t.Fatalf("Display = %q, want %q", s.Display, ":3")
	}
}

func TestResolveSession_ClearErrorWhenNoDisplay(t *testing.T) {
	restore := stubDetectFns(
		func() (string, string) { return "", "" },
		func(string) string { return "" },
	)
	defer restore()

	_, err := ResolveSession([]string{"HOME=" + t.TempDir()}, "", "")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "no X display found") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDetectDisplayFromSockets(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"X0", "X2", "not-a-display"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte{}, 0600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	if got := detectDisplayFromSockets(dir); got != ":2" {
		t.Fatalf("detectDisplayFromSockets = %q, want %q", got, ":2")
	}
}

func TestParseLoginctlSessions(t *testing.T) {
	out := strings.Join([]string{
		"1 1000 george seat0",
		"2 1001 alice seat0",
		"3 1000 george seat1",
		"",
	}, "\n")
	got := parseLoginctlSessions(out, "1000")
	if len(got) != 2 || got[0] != "1" || got[1] != "3" {
		t.Fatalf("parseLoginctlSessions = %v, want [1 3]", got)
	}
}

func TestDetectSessionEnv_ReadsLeaderEnvironment(t *testing.T) {
	origRun, origRead := runCommandOutputFn, readFileFn
	defer func() {
		runCommandOutputFn = origRun
		readFileFn = origRead
	}()

	uid := strconv.Itoa(os.Getuid())
	runCommandOutputFn = func(name string, args ...string) (string, error) {
		if args[0] == "list-sessions" {
			return "4 " + uid + " user seat0\n", nil
		}
		// show-session ID -p PROP --value
		switch args[3] {
		case "Display":
			return ":4\n", nil
		case "Leader":
			return "1234\n", nil
		}
		return "", nil
	}
	readFileFn = func(path string) ([]byte, error) {
		if path != filepath.Join("/proc", "1234", "environ") {
			t.Fatalf("unexpected read of %s", path)
		}
		return []byte("DISPLAY=:4.0\x00XAUTHORITY=/run/user/xauth\x00"), nil
	}

	d, xa := detectSessionEnv()
	if d != ":4.0" || xa != "/run/user/xauth" {
		t.Fatalf("detectSessionEnv = (%q, %q)", d, xa)
	}
}
