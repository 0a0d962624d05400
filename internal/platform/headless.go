package platform

import (
	"errors"
	"fmt"
	"image"
	"sync"
)

// ErrUnknownWindow is returned for operations on a handle the host never
// opened or already closed.
var ErrUnknownWindow = errors.New("unknown window handle")

type headlessEvent func(EventSink)

// Headless is an in-memory Host. Events are queued by the caller and
// delivered on the next PollEvents; presented frames are recorded.
type Headless struct {
	mu      sync.Mutex
	next    Handle
	open    map[Handle]headlessWindow
	queue   []headlessEvent
	frames  map[Handle]image.Image
	closed  []Handle
	present int

	// FailOpen makes the next OpenWindow call fail with this error.
	FailOpen error
}

type headlessWindow struct {
	width, height int
	title         string
}

var _ Host = (*Headless)(nil)

// NewHeadless creates an empty headless host.
func NewHeadless() *Headless {
	return &Headless{
		open:   make(map[Handle]headlessWindow),
		frames: make(map[Handle]image.Image),
	}
}

// OpenWindow implements Host.
func (h *Headless) OpenWindow(width, height int, title string) (Handle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.FailOpen != nil {
		err := h.FailOpen
		h.FailOpen = nil
		return 0, err
	}
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("invalid window size %dx%d", width, height)
	}
	h.next++
	h.open[h.next] = headlessWindow{width: width, height: height, title: title}
	return h.next, nil
}

// CloseWindow implements Host.
func (h *Headless) CloseWindow(handle Handle) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.open[handle]; !ok {
		return
	}
	delete(h.open, handle)
	delete(h.frames, handle)
	h.closed = append(h.closed, handle)
}

// PollEvents implements Host. Events queued while polling are delivered on
// the next call.
func (h *Headless) PollEvents(sink EventSink) {
	h.mu.Lock()
	pending := h.queue
	h.queue = nil
	h.mu.Unlock()

	for _, ev := range pending {
		ev(sink)
	}
}

// Present implements Host.
func (h *Headless) Present(handle Handle, frame image.Image) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.open[handle]; !ok {
		return fmt.Errorf("present to %d: %w", handle, ErrUnknownWindow)
	}
	h.frames[handle] = frame
	h.present++
	return nil
}

// QueueMouseMove schedules a cursor move for the next poll.
func (h *Headless) QueueMouseMove(handle Handle, x, y float64) {
	h.enqueue(func(s EventSink) { s.MouseMove(handle, x, y) })
}

// QueueMouseButton schedules a button transition for the next poll.
func (h *Headless) QueueMouseButton(handle Handle, button Button, action Action, mods Mod) {
	h.enqueue(func(s EventSink) { s.MouseButton(handle, button, action, mods) })
}

// QueueClose schedules a close request for the next poll.
func (h *Headless) QueueClose(handle Handle) {
	h.enqueue(func(s EventSink) { s.CloseRequested(handle) })
}

func (h *Headless) enqueue(ev headlessEvent) {
	h.mu.Lock()
	h.queue = append(h.queue, ev)
	h.mu.Unlock()
}

// Frame returns the last frame presented to handle.
func (h *Headless) Frame(handle Handle) (image.Image, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	img, ok := h.frames[handle]
	return img, ok
}

// Presented returns the total number of successful presents.
func (h *Headless) Presented() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.present
}

// Open reports whether handle is currently open.
func (h *Headless) Open(handle Handle) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.open[handle]
	return ok
}

// Closed returns the handles closed so far, in order.
func (h *Headless) Closed() []Handle {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Handle(nil), h.closed...)
}
