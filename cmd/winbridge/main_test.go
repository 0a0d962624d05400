package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/1broseidon/winbridge/internal/compositor"
	"github.com/1broseidon/winbridge/internal/config"
	"github.com/1broseidon/winbridge/internal/ipc"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestRunConfigValidate(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	good := writeConfig(t, "window:\n  width: 320\n  height: 200\n")
	if rc := runConfig([]string{"validate", "--path", good}); rc != 0 {
		t.Fatalf("validate good rc=%d, want 0", rc)
	}

	bad := writeConfig(t, "tick_interval: 0s\n")
	if rc := runConfig([]string{"validate", "--path", bad}); rc != 1 {
		t.Fatalf("validate bad rc=%d, want 1", rc)
	}

	if rc := runConfig([]string{"bogus"}); rc != 2 {
		t.Fatalf("unknown config command rc=%d, want 2", rc)
	}
}

func TestRunConfigExplainRequiresPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if rc := runConfig([]string{"explain"}); rc != 2 {
		t.Fatalf("explain without path rc=%d, want 2", rc)
	}
}

func TestSurfaceCommandsRejectBadArguments(t *testing.T) {
	if rc := runSurface(nil); rc != 2 {
		t.Fatalf("surface without args rc=%d, want 2", rc)
	}
	if rc := runSurface([]string{"move", "not-an-id", "1", "2"}); rc != 2 {
		t.Fatalf("move with bad id rc=%d, want 2", rc)
	}
	if rc := runSurface([]string{"opacity", "w0.1/s0.1", "300"}); rc != 2 {
		t.Fatalf("opacity out of range rc=%d, want 2", rc)
	}
	if rc := runWindow([]string{"open"}); rc != 2 {
		t.Fatalf("window open rc=%d, want 2", rc)
	}
	if rc := runPointer([]string{"--press", "--release", "w0.1", "1", "1"}); rc != 2 {
		t.Fatalf("pointer with both flags rc=%d, want 2", rc)
	}
}

func TestClientCommandsFailWithoutDaemon(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "none.sock")
	if rc := runStatus([]string{"--socket", socket}); rc != 1 {
		t.Fatalf("status without daemon rc=%d, want 1", rc)
	}
}

func TestWriteSurfacesPlain(t *testing.T) {
	id, err := compositor.ParseSurfaceID("w0.1/s1.1")
	if err != nil {
		t.Fatalf("ParseSurfaceID: %v", err)
	}
	var buf bytes.Buffer
	writeSurfaces(&buf, false, []ipc.SurfaceInfo{
		{ID: id, Label: "panel", X: 50, Y: 60, Width: 200, Height: 120, Opacity: 230, TextureID: 2, Pointer: true},
		{ID: id, Width: 1, Height: 1},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %q, want header and 2 rows", lines)
	}
	if !strings.HasPrefix(lines[0], "ID") || !strings.Contains(lines[0], "TEXTURE") {
		t.Fatalf("header = %q", lines[0])
	}
	for _, want := range []string{"w0.1/s1.1", "panel", "50,60", "200x120", "230", "yes"} {
		if !strings.Contains(lines[1], want) {
			t.Fatalf("row %q missing %q", lines[1], want)
		}
	}
	if !strings.Contains(lines[2], " - ") {
		t.Fatalf("unlabelled row %q should show '-'", lines[2])
	}
}

func TestWriteSourcesListsFileValues(t *testing.T) {
	path := writeConfig(t, "window:\n  width: 320\nlog_level: debug\n")
	res, err := config.LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	var buf bytes.Buffer
	writeSources(&buf, res)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("lines = %q, want header and 3 rows", lines)
	}
	if !strings.HasPrefix(lines[1], "log_level") || !strings.Contains(lines[1], path+":3:12") {
		t.Fatalf("row = %q, want log_level from %s:3:12", lines[1], path)
	}
	if !strings.HasPrefix(lines[3], "window.width") || !strings.Contains(lines[3], path+":2:10") {
		t.Fatalf("row = %q, want window.width from %s:2:10", lines[3], path)
	}
}

func TestRunConfigPrintRejectsConflictingModes(t *testing.T) {
	if rc := runConfig([]string{"print", "--defaults", "--sources"}); rc != 2 {
		t.Fatalf("print with both modes rc=%d, want 2", rc)
	}
}
