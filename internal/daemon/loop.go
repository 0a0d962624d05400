package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/1broseidon/winbridge/internal/compositor"
)

// ErrLoopStopped is returned by Do once the loop has exited.
var ErrLoopStopped = errors.New("frame loop stopped")

// Poller is polled once per frame before the tick. The input device manager
// implements it for timer-mode devices.
type Poller interface {
	Poll()
}

// LoopConfig holds configuration for the frame loop.
type LoopConfig struct {
	Interval time.Duration
	// ExitWhenEmpty stops the loop after a frame that leaves no windows,
	// once at least one window has been seen.
	ExitWhenEmpty bool
	Poller        Poller
	Logger        *slog.Logger
}

type command struct {
	fn   func(*compositor.System) error
	done chan error
}

// Status is a snapshot of the loop's progress.
type Status struct {
	Frames    uint64
	LastFrame compositor.FrameStats
	Reaped    int
	Started   time.Time
}

// Loop drives a compositor.System on a fixed cadence. The System is only
// touched from the goroutine running Run; other goroutines go through Do.
type Loop struct {
	sys      *compositor.System
	interval time.Duration
	exit     bool
	seen     bool
	poller   Poller
	logger   *slog.Logger

	cmds    chan command
	stopped chan struct{}

	mu     sync.Mutex
	status Status
}

// NewLoop creates a frame loop for sys.
func NewLoop(cfg LoopConfig, sys *compositor.System) *Loop {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loop{
		sys:      sys,
		interval: interval,
		exit:     cfg.ExitWhenEmpty,
		poller:   cfg.Poller,
		logger:   logger,
		cmds:     make(chan command),
		stopped:  make(chan struct{}),
	}
}

// Run ticks the system until ctx is cancelled or, with ExitWhenEmpty, the
// last window is gone. Run must be called at most once.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.stopped)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.mu.Lock()
	l.status.Started = time.Now()
	l.mu.Unlock()

	l.logger.Info("frame loop started", "interval", l.interval)

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("frame loop stopped")
			return
		case cmd := <-l.cmds:
			cmd.done <- l.run(cmd.fn)
		case <-ticker.C:
			l.seen = l.seen || len(l.sys.Windows()) > 0
			l.tick()
			if l.exit && l.seen && len(l.sys.Windows()) == 0 {
				l.logger.Info("frame loop stopped: no windows left")
				return
			}
		}
	}
}

// tick runs a single frame.
func (l *Loop) tick() {
	// Recover from panics to keep the loop alive
	defer func() {
		if err := recover(); err != nil {
			l.logger.Error("frame panic recovered", "error", err)
		}
	}()

	if l.poller != nil {
		l.poller.Poll()
	}
	stats := l.sys.Tick()

	l.mu.Lock()
	l.status.Frames++
	l.status.LastFrame = stats
	l.status.Reaped += stats.Reaped
	l.mu.Unlock()

	if stats.Reaped > 0 {
		l.logger.Info("windows reaped", "count", stats.Reaped, "remaining", stats.Windows)
	}
}

func (l *Loop) run(fn func(*compositor.System) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("command panic recovered", "error", r)
			err = fmt.Errorf("command panicked: %v", r)
		}
	}()
	return fn(l.sys)
}

// Do runs fn on the loop goroutine between frames and returns its error.
func (l *Loop) Do(ctx context.Context, fn func(*compositor.System) error) error {
	cmd := command{fn: fn, done: make(chan error, 1)}
	select {
	case l.cmds <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		return ErrLoopStopped
	}
	select {
	case err := <-cmd.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TickNow runs one frame immediately on the loop goroutine.
func (l *Loop) TickNow(ctx context.Context) error {
	return l.Do(ctx, func(*compositor.System) error {
		l.tick()
		return nil
	})
}

// Status returns a snapshot of the loop's counters.
func (l *Loop) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.stopped
}
