package compositor

import (
	"errors"
	"fmt"
	"image"
	"testing"

	"github.com/1broseidon/winbridge/internal/display"
	"github.com/1broseidon/winbridge/internal/geom"
	"github.com/1broseidon/winbridge/internal/indev"
	"github.com/1broseidon/winbridge/internal/platform"
)

type recordingBackend struct {
	textures *display.Registry
	calls    []string
}

func (b *recordingBackend) DisplayForTexture(id uint32) *display.Display {
	return b.textures.DisplayForTexture(id)
}

func (b *recordingBackend) Refresh(d *display.Display) {
	b.calls = append(b.calls, fmt.Sprintf("refresh:%d", d.TextureID()))
	d.RefreshNow()
}

func (b *recordingBackend) Viewport(x, y, width, height int) {
	b.calls = append(b.calls, fmt.Sprintf("viewport:%dx%d", width, height))
}

func (b *recordingBackend) Clear() {
	b.calls = append(b.calls, "clear")
}

func (b *recordingBackend) DrawTexture(id uint32, area geom.Area, opa uint8, viewW, viewH int) {
	b.calls = append(b.calls, fmt.Sprintf("draw:%d@%d,%d/%d", id, area.X1, area.Y1, opa))
}

func (b *recordingBackend) Frame() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 1, 1))
}

type harness struct {
	sys      *System
	host     *platform.Headless
	backend  *recordingBackend
	textures *display.Registry
	inputs   *indev.Manager
}

func newHarness(t *testing.T, maxDevices int, opts Options) *harness {
	t.Helper()
	inputs := indev.NewManager(maxDevices, nil)
	textures := display.NewRegistry(inputs, nil)
	h := &harness{
		host:     platform.NewHeadless(),
		backend:  &recordingBackend{textures: textures},
		textures: textures,
		inputs:   inputs,
	}
	h.sys = New(h.host, h.backend, inputs, opts)
	t.Cleanup(h.sys.Shutdown)
	return h
}

func (h *harness) display(t *testing.T, w, ht int) *display.Display {
	t.Helper()
	d, err := h.textures.CreateDisplay(w, ht)
	if err != nil {
		t.Fatalf("create display: %v", err)
	}
	return d
}

func (h *harness) window(t *testing.T, w, ht int, pointer bool) WindowID {
	t.Helper()
	id, err := h.sys.openWindow(w, ht, pointer)
	if err != nil {
		t.Fatalf("open window: %v", err)
	}
	return id
}

func (h *harness) surface(t *testing.T, win WindowID, tex uint32, w, ht int) SurfaceID {
	t.Helper()
	id, err := h.sys.AddSurface(win, tex, w, ht)
	if err != nil {
		t.Fatalf("add surface: %v", err)
	}
	return id
}

func mustSurface(t *testing.T, s *System, id SurfaceID) *Surface {
	t.Helper()
	surf, err := s.Surface(id)
	if err != nil {
		t.Fatalf("surface %s: %v", id, err)
	}
	return surf
}

func TestCreateWindow_SecondCallFailsAndFirstKeepsWorking(t *testing.T) {
	h := newHarness(t, 0, Options{})

	first, err := h.sys.CreateWindow(800, 480, true)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := h.sys.CreateWindow(800, 480, true); !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("expected ErrAlreadyInitialized, got %v", err)
	}

	other := New(platform.NewHeadless(), h.backend, h.inputs, Options{})
	if _, err := other.CreateWindow(10, 10, false); !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("expected gate to be process-wide, got %v", err)
	}

	if got := h.sys.Windows(); len(got) != 1 || got[0] != first {
		t.Fatalf("expected only the first window, got %v", got)
	}
	d := h.display(t, 10, 10)
	sid := h.surface(t, first, d.TextureID(), 10, 10)
	if err := h.sys.MouseMove(first, 5, 5); err != nil {
		t.Fatalf("move: %v", err)
	}
	if p := mustSurface(t, h.sys, sid).LastPoint(); p != (geom.Point{X: 5, Y: 5}) {
		t.Fatalf("expected routing on the first window, got %+v", p)
	}
	if stats := h.sys.Tick(); stats.Windows != 1 {
		t.Fatalf("expected first window composited, got %+v", stats)
	}
}

func TestShutdown_ReleasesGate(t *testing.T) {
	h := newHarness(t, 0, Options{})
	win, err := h.sys.CreateWindow(10, 10, false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	handle := mustWindow(t, h.sys, win).Handle()

	h.sys.Shutdown()
	if len(h.sys.Windows()) != 0 {
		t.Fatalf("expected no windows after shutdown")
	}
	if h.host.Open(handle) {
		t.Fatalf("expected host window closed on shutdown")
	}
	if _, err := h.sys.CreateWindow(10, 10, false); err != nil {
		t.Fatalf("expected create after shutdown to succeed, got %v", err)
	}
}

func TestCreateWindow_FailuresRegisterNothing(t *testing.T) {
	h := newHarness(t, 0, Options{})

	if _, err := h.sys.CreateWindow(0, 10, false); !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("expected ErrInvalidSize, got %v", err)
	}
	boom := errors.New("no display")
	h.host.FailOpen = boom
	if _, err := h.sys.CreateWindow(10, 10, false); !errors.Is(err, boom) {
		t.Fatalf("expected host error, got %v", err)
	}
	if len(h.sys.Windows()) != 0 {
		t.Fatalf("expected empty registry")
	}
	if gateHeld() {
		t.Fatalf("expected gate untouched by failed creation")
	}
}

func mustWindow(t *testing.T, s *System, id WindowID) *Window {
	t.Helper()
	w, err := s.Window(id)
	if err != nil {
		t.Fatalf("window %s: %v", id, err)
	}
	return w
}

func TestAddSurface_AreaAndDefaults(t *testing.T) {
	h := newHarness(t, 0, Options{})
	win := h.window(t, 100, 100, true)
	d := h.display(t, 30, 20)

	sid := h.surface(t, win, d.TextureID(), 30, 20)
	surf := mustSurface(t, h.sys, sid)
	if surf.Area() != geom.NewArea(0, 0, 29, 19) {
		t.Fatalf("unexpected initial area %+v", surf.Area())
	}
	if surf.Opacity() != OpaCover {
		t.Fatalf("expected OpaCover, got %d", surf.Opacity())
	}
	if surf.Window() != win || sid.Window != win {
		t.Fatalf("expected back-reference to window %s", win)
	}

	steps := []struct{ x, y int }{{5, 0}, {5, 7}, {-3, 7}, {-3, -4}}
	for _, st := range steps {
		if err := h.sys.SetX(sid, st.x); err != nil {
			t.Fatalf("set x: %v", err)
		}
		if err := h.sys.SetY(sid, st.y); err != nil {
			t.Fatalf("set y: %v", err)
		}
		got := mustSurface(t, h.sys, sid).Area()
		want := geom.NewArea(st.x, st.y, st.x+29, st.y+19)
		if got != want {
			t.Fatalf("after move to (%d,%d): expected %+v, got %+v", st.x, st.y, want, got)
		}
	}

	if err := h.sys.SetOpacity(sid, 128); err != nil {
		t.Fatalf("set opacity: %v", err)
	}
	if mustSurface(t, h.sys, sid).Opacity() != 128 {
		t.Fatalf("expected opacity 128")
	}

	if _, err := h.sys.AddSurface(win, d.TextureID(), 0, 5); !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("expected ErrInvalidSize, got %v", err)
	}
}

func TestAddSurface_DevicesOnlyForPointerWindowsAndDisplays(t *testing.T) {
	h := newHarness(t, 0, Options{})
	withPointer := h.window(t, 100, 100, true)
	noPointer := h.window(t, 100, 100, false)
	d := h.display(t, 10, 10)
	static := h.textures.AddTexture(image.NewRGBA(image.Rect(0, 0, 10, 10)))

	bound := h.surface(t, withPointer, d.TextureID(), 10, 10)
	ptr, _ := h.sys.PointerDevice(bound)
	kbd, _ := h.sys.KeyboardDevice(bound)
	if ptr == nil || kbd == nil {
		t.Fatalf("expected pointer and keyboard devices")
	}
	if ptr.Type() != indev.TypePointer || kbd.Type() != indev.TypeKeypad {
		t.Fatalf("unexpected device types %v/%v", ptr.Type(), kbd.Type())
	}
	if ptr.Mode() != indev.ModeEvent || kbd.Mode() != indev.ModeEvent {
		t.Fatalf("expected event-driven devices")
	}
	if ptr.Target() != d || kbd.Target() != d {
		t.Fatalf("expected devices bound to the display")
	}
	if ptr.DriverData() != bound {
		t.Fatalf("expected driver data to carry the surface id")
	}

	for _, sid := range []SurfaceID{
		h.surface(t, withPointer, static, 10, 10),
		h.surface(t, noPointer, d.TextureID(), 10, 10),
	} {
		if dev, _ := h.sys.PointerDevice(sid); dev != nil {
			t.Fatalf("surface %s: expected no pointer device", sid)
		}
		if dev, _ := h.sys.KeyboardDevice(sid); dev != nil {
			t.Fatalf("surface %s: expected no keyboard device", sid)
		}
	}
	if h.inputs.Count() != 2 {
		t.Fatalf("expected 2 devices, got %d", h.inputs.Count())
	}
}

func TestAddSurface_DeviceLimitRollsBack(t *testing.T) {
	h := newHarness(t, 1, Options{})
	win := h.window(t, 100, 100, true)
	d := h.display(t, 10, 10)

	if _, err := h.sys.AddSurface(win, d.TextureID(), 10, 10); !errors.Is(err, indev.ErrDeviceLimit) {
		t.Fatalf("expected ErrDeviceLimit, got %v", err)
	}
	if h.inputs.Count() != 0 {
		t.Fatalf("expected pointer device rolled back, %d left", h.inputs.Count())
	}
	if ids, _ := h.sys.Surfaces(win); len(ids) != 0 {
		t.Fatalf("expected no surfaces after rollback, got %v", ids)
	}
}

func TestAddSurface_SurfaceLimit(t *testing.T) {
	h := newHarness(t, 0, Options{MaxSurfaces: 2})
	win := h.window(t, 100, 100, false)

	h.surface(t, win, 1, 10, 10)
	h.surface(t, win, 2, 10, 10)
	if _, err := h.sys.AddSurface(win, 3, 10, 10); !errors.Is(err, ErrSurfaceLimit) {
		t.Fatalf("expected ErrSurfaceLimit, got %v", err)
	}
	if ids, _ := h.sys.Surfaces(win); len(ids) != 2 {
		t.Fatalf("expected 2 surfaces, got %d", len(ids))
	}
}

func TestRemoveSurface_RoundTripAndDeviceTeardown(t *testing.T) {
	h := newHarness(t, 0, Options{})
	win := h.window(t, 100, 100, true)
	d := h.display(t, 10, 10)

	a := h.surface(t, win, d.TextureID(), 10, 10)
	b := h.surface(t, win, d.TextureID(), 10, 10)
	before, _ := h.sys.Surfaces(win)
	devicesBefore := h.inputs.Count()

	c := h.surface(t, win, d.TextureID(), 10, 10)
	ptr, _ := h.sys.PointerDevice(c)
	kbd, _ := h.sys.KeyboardDevice(c)
	if err := h.sys.RemoveSurface(c); err != nil {
		t.Fatalf("remove: %v", err)
	}

	after, _ := h.sys.Surfaces(win)
	if len(after) != len(before) || after[0] != a || after[1] != b {
		t.Fatalf("expected %v after round trip, got %v", before, after)
	}
	if h.inputs.Count() != devicesBefore {
		t.Fatalf("expected %d devices, got %d", devicesBefore, h.inputs.Count())
	}
	if !ptr.Deleted() || !kbd.Deleted() {
		t.Fatalf("expected both pointer and keyboard devices deleted")
	}

	if err := h.sys.RemoveSurface(c); !errors.Is(err, ErrStaleHandle) {
		t.Fatalf("expected ErrStaleHandle on second remove, got %v", err)
	}
	if err := h.sys.SetX(c, 1); !errors.Is(err, ErrStaleHandle) {
		t.Fatalf("expected ErrStaleHandle from SetX, got %v", err)
	}
	if _, err := h.sys.PointerDevice(c); !errors.Is(err, ErrStaleHandle) {
		t.Fatalf("expected ErrStaleHandle from PointerDevice, got %v", err)
	}
}

func TestStaleHandlesAfterSlotReuse(t *testing.T) {
	h := newHarness(t, 0, Options{})
	win := h.window(t, 100, 100, false)

	old := h.surface(t, win, 1, 10, 10)
	if err := h.sys.RemoveSurface(old); err != nil {
		t.Fatalf("remove: %v", err)
	}
	fresh := h.surface(t, win, 2, 10, 10)
	if fresh.slot.index() != old.slot.index() {
		t.Fatalf("expected slot reuse")
	}
	if _, err := h.sys.Surface(old); !errors.Is(err, ErrStaleHandle) {
		t.Fatalf("expected old id to be stale after reuse, got %v", err)
	}

	oldWin := h.window(t, 10, 10, false)
	if err := h.sys.DeleteWindow(oldWin); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := h.sys.DeleteWindow(oldWin); !errors.Is(err, ErrStaleHandle) {
		t.Fatalf("expected ErrStaleHandle, got %v", err)
	}
	if err := h.sys.MouseMove(oldWin, 1, 1); !errors.Is(err, ErrStaleHandle) {
		t.Fatalf("expected ErrStaleHandle from MouseMove, got %v", err)
	}
	if _, err := h.sys.AddSurface(oldWin, 1, 1, 1); !errors.Is(err, ErrStaleHandle) {
		t.Fatalf("expected ErrStaleHandle from AddSurface, got %v", err)
	}
}

func TestDeleteWindow_TearsDownEveryDevice(t *testing.T) {
	h := newHarness(t, 0, Options{})
	win := h.window(t, 100, 100, true)
	d := h.display(t, 10, 10)

	var devices []*indev.Device
	var ids []SurfaceID
	for i := 0; i < 3; i++ {
		sid := h.surface(t, win, d.TextureID(), 10, 10)
		ids = append(ids, sid)
		p, _ := h.sys.PointerDevice(sid)
		k, _ := h.sys.KeyboardDevice(sid)
		devices = append(devices, p, k)
	}
	handle := mustWindow(t, h.sys, win).Handle()

	if err := h.sys.DeleteWindow(win); err != nil {
		t.Fatalf("delete: %v", err)
	}
	for _, dev := range devices {
		if !dev.Deleted() {
			t.Fatalf("device %d survived window deletion", dev.ID())
		}
	}
	if h.inputs.Count() != 0 {
		t.Fatalf("expected no devices, got %d", h.inputs.Count())
	}
	for _, sid := range ids {
		if _, err := h.sys.Surface(sid); !errors.Is(err, ErrStaleHandle) {
			t.Fatalf("expected surface %s gone, got %v", sid, err)
		}
	}
	if h.host.Open(handle) {
		t.Fatalf("expected host window closed")
	}
	if _, ok := h.sys.WindowByHandle(handle); ok {
		t.Fatalf("expected handle mapping dropped")
	}
}

func TestRoutePointer_ScenarioOverlappingSurfaces(t *testing.T) {
	h := newHarness(t, 0, Options{})
	win, err := h.sys.CreateWindow(800, 480, true)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	bg := h.display(t, 800, 480)
	panel := h.display(t, 100, 100)

	var bgEvents, panelEvents []indev.Data
	bg.OnInput(func(ev indev.Event) { bgEvents = append(bgEvents, ev.Data) })
	panel.OnInput(func(ev indev.Event) { panelEvents = append(panelEvents, ev.Data) })

	s1 := h.surface(t, win, bg.TextureID(), 800, 480)
	s2 := h.surface(t, win, panel.TextureID(), 100, 100)
	_ = h.sys.SetX(s2, 50)
	_ = h.sys.SetY(s2, 50)

	if err := h.sys.MouseMove(win, 60, 60); err != nil {
		t.Fatalf("move: %v", err)
	}
	if err := h.sys.MouseButton(win, platform.ButtonLeft, platform.ActionPress, 0); err != nil {
		t.Fatalf("press: %v", err)
	}

	if len(panelEvents) != 2 || len(bgEvents) != 0 {
		t.Fatalf("expected both events on S2 only, got s1=%d s2=%d", len(bgEvents), len(panelEvents))
	}
	last := panelEvents[1]
	if last.Point != (geom.Point{X: 10, Y: 10}) || last.State != indev.StatePressed {
		t.Fatalf("expected (10,10) pressed on S2, got %+v", last)
	}

	if err := h.sys.MouseMove(win, 700, 400); err != nil {
		t.Fatalf("move: %v", err)
	}
	if len(bgEvents) != 1 || len(panelEvents) != 2 {
		t.Fatalf("expected the move to reach S1 only, got s1=%d s2=%d", len(bgEvents), len(panelEvents))
	}
	if bgEvents[0].Point != (geom.Point{X: 700, Y: 400}) {
		t.Fatalf("expected S1 local point (700,400), got %+v", bgEvents[0].Point)
	}
	if p := mustSurface(t, h.sys, s1).LastPoint(); p != (geom.Point{X: 700, Y: 400}) {
		t.Fatalf("expected stored S1 point (700,400), got %+v", p)
	}
	if p := mustSurface(t, h.sys, s2).LastPoint(); p != (geom.Point{X: 10, Y: 10}) {
		t.Fatalf("expected S2 to keep its last point, got %+v", p)
	}
}

func TestRoutePointer_TopmostWinsAndTranslates(t *testing.T) {
	h := newHarness(t, 0, Options{})
	win := h.window(t, 200, 200, true)

	type placed struct {
		id     SurfaceID
		events *int
	}
	origins := []geom.Point{{X: 0, Y: 0}, {X: 20, Y: 30}, {X: 25, Y: 35}, {X: 150, Y: 150}}
	var surfaces []placed
	for _, o := range origins {
		d := h.display(t, 40, 40)
		count := new(int)
		d.OnInput(func(indev.Event) { *count++ })
		sid := h.surface(t, win, d.TextureID(), 40, 40)
		_ = h.sys.SetX(sid, o.X)
		_ = h.sys.SetY(sid, o.Y)
		surfaces = append(surfaces, placed{id: sid, events: count})
	}

	cases := []struct {
		p    geom.Point
		want int
	}{
		{geom.Point{X: 5, Y: 5}, 0},
		{geom.Point{X: 22, Y: 32}, 1},
		{geom.Point{X: 30, Y: 39}, 2},
		{geom.Point{X: 64, Y: 74}, 2},
		{geom.Point{X: 189, Y: 189}, 3},
		{geom.Point{X: 100, Y: 100}, -1},
	}
	for _, tc := range cases {
		before := make([]int, len(surfaces))
		for i, s := range surfaces {
			before[i] = *s.events
		}
		_ = h.sys.MouseMove(win, float64(tc.p.X), float64(tc.p.Y))

		for i, s := range surfaces {
			delta := *s.events - before[i]
			if i == tc.want && delta != 1 {
				t.Fatalf("point %+v: expected surface %d to receive one event, got %d", tc.p, i, delta)
			}
			if i != tc.want && delta != 0 {
				t.Fatalf("point %+v: surface %d should not receive input", tc.p, i)
			}
		}
		if tc.want >= 0 {
			o := origins[tc.want]
			got := mustSurface(t, h.sys, surfaces[tc.want].id).LastPoint()
			if got != (geom.Point{X: tc.p.X - o.X, Y: tc.p.Y - o.Y}) {
				t.Fatalf("point %+v: wrong local point %+v", tc.p, got)
			}
		}
	}
}

func TestRoutePointer_SurfaceWithoutDeviceStillConsumes(t *testing.T) {
	h := newHarness(t, 0, Options{})
	win := h.window(t, 100, 100, true)
	below := h.display(t, 100, 100)
	events := 0
	below.OnInput(func(indev.Event) { events++ })
	h.surface(t, win, below.TextureID(), 100, 100)

	static := h.textures.AddTexture(image.NewRGBA(image.Rect(0, 0, 20, 20)))
	top := h.surface(t, win, static, 20, 20)

	_ = h.sys.MouseMove(win, 10.9, 10.2)
	if events != 0 {
		t.Fatalf("expected covered surface to receive nothing, got %d", events)
	}
	if p := mustSurface(t, h.sys, top).LastPoint(); p != (geom.Point{X: 10, Y: 10}) {
		t.Fatalf("expected truncated point on the top surface, got %+v", p)
	}
}

func TestMouseButton_OnlyLeftButtonIsTracked(t *testing.T) {
	h := newHarness(t, 0, Options{})
	win := h.window(t, 50, 50, true)
	d := h.display(t, 50, 50)
	events := 0
	d.OnInput(func(indev.Event) { events++ })
	h.surface(t, win, d.TextureID(), 50, 50)

	_ = h.sys.MouseButton(win, platform.ButtonRight, platform.ActionPress, 0)
	_ = h.sys.MouseButton(win, platform.ButtonMiddle, platform.ActionPress, 0)
	if events != 0 || mustWindow(t, h.sys, win).LastState() != indev.StateReleased {
		t.Fatalf("expected non-left buttons ignored")
	}

	_ = h.sys.MouseButton(win, platform.ButtonLeft, platform.ActionPress, platform.ModShift)
	if mustWindow(t, h.sys, win).LastState() != indev.StatePressed {
		t.Fatalf("expected pressed state")
	}
	_ = h.sys.MouseButton(win, platform.ButtonLeft, platform.ActionRelease, 0)
	if mustWindow(t, h.sys, win).LastState() != indev.StateReleased || events != 2 {
		t.Fatalf("expected release routed, events=%d", events)
	}
}

func TestRoutePointer_AfterDisplayDeletedIsSafe(t *testing.T) {
	h := newHarness(t, 0, Options{})
	win := h.window(t, 50, 50, true)
	d := h.display(t, 50, 50)
	sid := h.surface(t, win, d.TextureID(), 50, 50)
	ptr, _ := h.sys.PointerDevice(sid)

	h.textures.DeleteDisplay(d)
	if !ptr.Deleted() {
		t.Fatalf("expected display deletion to cascade to its devices")
	}
	_ = h.sys.MouseMove(win, 5, 5)
	if err := h.sys.RemoveSurface(sid); err != nil {
		t.Fatalf("remove after cascade: %v", err)
	}
}

func TestKeyboardReadReportsLastKey(t *testing.T) {
	h := newHarness(t, 0, Options{})
	win := h.window(t, 50, 50, true)
	d := h.display(t, 50, 50)
	sid := h.surface(t, win, d.TextureID(), 50, 50)

	kbd, _ := h.sys.KeyboardDevice(sid)
	kbd.Read()
	if got := kbd.Last(); got.Key != 0 || got.State != indev.StateReleased {
		t.Fatalf("expected idle keyboard sample, got %+v", got)
	}
	surf, err := h.sys.Surface(sid)
	if err != nil {
		t.Fatalf("surface: %v", err)
	}
	if key, state := surf.LastKey(); key != 0 || state != indev.StateReleased {
		t.Fatalf("expected no key delivered, got %d %v", key, state)
	}
}

func TestTick_ReapsOnlyClosingWindows(t *testing.T) {
	for _, closing := range [][]int{{0}, {1}, {2}, {0, 2}, {2, 0}} {
		t.Run(fmt.Sprint(closing), func(t *testing.T) {
			h := newHarness(t, 0, Options{})
			var wins []WindowID
			for i := 0; i < 3; i++ {
				win := h.window(t, 10, 10, false)
				h.surface(t, win, uint32(100+i), 5, 5)
				h.surface(t, win, uint32(200+i), 5, 5)
				wins = append(wins, win)
			}
			doomed := map[WindowID]bool{}
			for _, i := range closing {
				h.host.QueueClose(mustWindow(t, h.sys, wins[i]).Handle())
				doomed[wins[i]] = true
			}

			stats := h.sys.Tick()
			if stats.Reaped != len(closing) {
				t.Fatalf("expected %d reaped, got %d", len(closing), stats.Reaped)
			}
			for _, win := range wins {
				_, err := h.sys.Window(win)
				if doomed[win] {
					if !errors.Is(err, ErrStaleHandle) {
						t.Fatalf("expected %s reaped, got %v", win, err)
					}
					continue
				}
				if err != nil {
					t.Fatalf("expected %s to survive: %v", win, err)
				}
				if ids, _ := h.sys.Surfaces(win); len(ids) != 2 {
					t.Fatalf("expected %s surfaces untouched, got %d", win, len(ids))
				}
			}
			if len(h.host.Closed()) != len(closing) {
				t.Fatalf("expected %d host closes, got %v", len(closing), h.host.Closed())
			}
			if stats.Windows != 3-len(closing) {
				t.Fatalf("expected %d composited windows, got %d", 3-len(closing), stats.Windows)
			}
		})
	}
}

func TestTick_CompositesInOrderWithRefreshBeforeDraw(t *testing.T) {
	h := newHarness(t, 0, Options{})
	win := h.window(t, 64, 32, true)
	d1 := h.display(t, 10, 10)
	static := h.textures.AddTexture(image.NewRGBA(image.Rect(0, 0, 4, 4)))
	d2 := h.display(t, 10, 10)

	h.surface(t, win, d1.TextureID(), 10, 10)
	sStatic := h.surface(t, win, static, 4, 4)
	s2 := h.surface(t, win, d2.TextureID(), 10, 10)
	_ = h.sys.SetX(sStatic, 3)
	_ = h.sys.SetY(s2, 7)
	_ = h.sys.SetOpacity(s2, 77)

	stats := h.sys.Tick()

	want := []string{
		"viewport:64x32",
		"clear",
		fmt.Sprintf("refresh:%d", d1.TextureID()),
		fmt.Sprintf("draw:%d@0,0/255", d1.TextureID()),
		fmt.Sprintf("draw:%d@3,0/255", static),
		fmt.Sprintf("refresh:%d", d2.TextureID()),
		fmt.Sprintf("draw:%d@0,7/77", d2.TextureID()),
	}
	if len(h.backend.calls) != len(want) {
		t.Fatalf("expected calls %v, got %v", want, h.backend.calls)
	}
	for i := range want {
		if h.backend.calls[i] != want[i] {
			t.Fatalf("call %d: expected %q, got %q (all: %v)", i, want[i], h.backend.calls[i], h.backend.calls)
		}
	}
	if stats.Surfaces != 3 || stats.Refreshed != 2 || stats.Presented != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if d1.Dirty() || d2.Dirty() {
		t.Fatalf("expected displays refreshed")
	}
}

func TestTick_PresentHook(t *testing.T) {
	h := newHarness(t, 0, Options{Present: true})
	win := h.window(t, 10, 10, false)
	handle := mustWindow(t, h.sys, win).Handle()

	if stats := h.sys.Tick(); stats.Presented != 1 {
		t.Fatalf("expected one present, got %+v", stats)
	}
	if _, ok := h.host.Frame(handle); !ok {
		t.Fatalf("expected frame presented to host window")
	}
}

func TestTick_HostEventsDrivePointerAndClose(t *testing.T) {
	h := newHarness(t, 0, Options{})
	win := h.window(t, 50, 50, true)
	d := h.display(t, 50, 50)
	sid := h.surface(t, win, d.TextureID(), 50, 50)
	handle := mustWindow(t, h.sys, win).Handle()

	h.host.QueueMouseMove(handle, 12, 13)
	h.host.QueueMouseButton(handle, platform.ButtonLeft, platform.ActionPress, 0)
	h.host.QueueMouseMove(platform.Handle(9999), 1, 1)
	h.sys.Tick()

	surf := mustSurface(t, h.sys, sid)
	if surf.LastPoint() != (geom.Point{X: 12, Y: 13}) || surf.LastState() != indev.StatePressed {
		t.Fatalf("expected routed host input, got %+v %v", surf.LastPoint(), surf.LastState())
	}

	h.host.QueueClose(handle)
	if stats := h.sys.Tick(); stats.Reaped != 1 || stats.Windows != 0 {
		t.Fatalf("expected window reaped, got %+v", stats)
	}
}

func TestIDTextRoundTrip(t *testing.T) {
	h := newHarness(t, 0, Options{})
	win := h.window(t, 10, 10, false)
	sid := h.surface(t, win, 1, 5, 5)

	parsedWin, err := ParseWindowID(win.String())
	if err != nil || parsedWin != win {
		t.Fatalf("window id round trip: %v %v", parsedWin, err)
	}
	parsed, err := ParseSurfaceID(sid.String())
	if err != nil || parsed != sid {
		t.Fatalf("surface id round trip: %v %v", parsed, err)
	}
	if _, err := ParseSurfaceID("w1.1"); err == nil {
		t.Fatalf("expected error for window id passed as surface id")
	}
}
