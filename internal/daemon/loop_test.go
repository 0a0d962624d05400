package daemon

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/1broseidon/winbridge/internal/compositor"
	"github.com/1broseidon/winbridge/internal/display"
	"github.com/1broseidon/winbridge/internal/indev"
	"github.com/1broseidon/winbridge/internal/platform"
	"github.com/1broseidon/winbridge/internal/render"
)

type countingPoller struct{ n int }

func (p *countingPoller) Poll() { p.n++ }

func newSystem(t *testing.T) (*compositor.System, *platform.Headless) {
	t.Helper()
	inputs := indev.NewManager(0, nil)
	textures := display.NewRegistry(inputs, nil)
	host := platform.NewHeadless()
	sys := compositor.New(host, render.New(textures, render.Options{}), inputs, compositor.Options{})
	t.Cleanup(sys.Shutdown)
	return sys, host
}

func startLoop(t *testing.T, cfg LoopConfig, sys *compositor.System) (*Loop, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	loop := NewLoop(cfg, sys)
	go loop.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-loop.Done()
	})
	return loop, cancel
}

func TestLoop_DoRunsOnLoop(t *testing.T) {
	sys, _ := newSystem(t)
	loop, _ := startLoop(t, LoopConfig{Interval: time.Hour}, sys)

	var win compositor.WindowID
	err := loop.Do(context.Background(), func(s *compositor.System) error {
		var err error
		win, err = s.CreateWindow(32, 32, false)
		return err
	})
	if err != nil {
		t.Fatalf("do: %v", err)
	}

	boom := errors.New("boom")
	if err := loop.Do(context.Background(), func(*compositor.System) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected command error, got %v", err)
	}

	var count int
	_ = loop.Do(context.Background(), func(s *compositor.System) error {
		count = len(s.Windows())
		return nil
	})
	if count != 1 || win == 0 {
		t.Fatalf("expected one window, got %d", count)
	}
}

func TestLoop_TickNowUpdatesStatus(t *testing.T) {
	sys, _ := newSystem(t)
	poller := &countingPoller{}
	loop, _ := startLoop(t, LoopConfig{Interval: time.Hour, Poller: poller}, sys)

	_ = loop.Do(context.Background(), func(s *compositor.System) error {
		_, err := s.CreateWindow(16, 16, false)
		return err
	})
	for i := 0; i < 3; i++ {
		if err := loop.TickNow(context.Background()); err != nil {
			t.Fatalf("tick: %v", err)
		}
	}

	st := loop.Status()
	if st.Frames != 3 || st.LastFrame.Windows != 1 {
		t.Fatalf("unexpected status %+v", st)
	}
	if st.Started.IsZero() {
		t.Fatalf("expected start time recorded")
	}
	if poller.n != 3 {
		t.Fatalf("expected poller called per frame, got %d", poller.n)
	}
}

func TestLoop_RecoversPanics(t *testing.T) {
	sys, _ := newSystem(t)
	loop, _ := startLoop(t, LoopConfig{Interval: time.Hour}, sys)

	err := loop.Do(context.Background(), func(*compositor.System) error {
		panic("bad command")
	})
	if err == nil {
		t.Fatalf("expected panic to surface as error")
	}
	if err := loop.TickNow(context.Background()); err != nil {
		t.Fatalf("expected loop alive after panic, got %v", err)
	}
}

func TestLoop_ExitWhenEmpty(t *testing.T) {
	sys, host := newSystem(t)
	loop, _ := startLoop(t, LoopConfig{Interval: time.Millisecond, ExitWhenEmpty: true}, sys)

	var handle platform.Handle
	err := loop.Do(context.Background(), func(s *compositor.System) error {
		win, err := s.CreateWindow(8, 8, false)
		if err != nil {
			return err
		}
		w, _ := s.Window(win)
		handle = w.Handle()
		return nil
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	host.QueueClose(handle)

	select {
	case <-loop.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("expected loop to stop once the window was reaped")
	}
	if loop.Status().Reaped != 1 {
		t.Fatalf("expected one reaped window, got %+v", loop.Status())
	}
	if err := loop.Do(context.Background(), func(*compositor.System) error { return nil }); !errors.Is(err, ErrLoopStopped) {
		t.Fatalf("expected ErrLoopStopped, got %v", err)
	}
}
