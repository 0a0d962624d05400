package compositor

import (
	"fmt"
	"strconv"
	"strings"
)

// ref addresses an arena slot. The high 32 bits hold the slot index and the
// low 32 bits the generation; generation 0 is never issued so the zero ref
// is always invalid.
type ref uint64

func makeRef(index, gen uint32) ref {
	return ref(uint64(index)<<32 | uint64(gen))
}

func (r ref) index() uint32 { return uint32(r >> 32) }
func (r ref) gen() uint32   { return uint32(r) }

func (r ref) format(prefix string) string {
	return fmt.Sprintf("%s%d.%d", prefix, r.index(), r.gen())
}

func parseRef(s, prefix string) (ref, error) {
	body, ok := strings.CutPrefix(s, prefix)
	if !ok {
		return 0, fmt.Errorf("invalid id %q: missing %q prefix", s, prefix)
	}
	idxStr, genStr, ok := strings.Cut(body, ".")
	if !ok {
		return 0, fmt.Errorf("invalid id %q: expected %sINDEX.GEN", s, prefix)
	}
	idx, err := strconv.ParseUint(idxStr, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", s, err)
	}
	gen, err := strconv.ParseUint(genStr, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return makeRef(uint32(idx), uint32(gen)), nil
}

type slot[T any] struct {
	gen  uint32
	live bool
	val  T
}

// arena stores values in reusable slots and remembers insertion order.
// Removing a value bumps the slot generation so refs to it go stale.
type arena[T any] struct {
	slots []slot[T]
	free  []uint32
	order []ref
}

func (a *arena[T]) insert(v T) ref {
	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		a.slots = append(a.slots, slot[T]{})
		idx = uint32(len(a.slots) - 1)
	}
	s := &a.slots[idx]
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	s.live = true
	s.val = v
	r := makeRef(idx, s.gen)
	a.order = append(a.order, r)
	return r
}

func (a *arena[T]) get(r ref) (T, bool) {
	var zero T
	idx := r.index()
	if r.gen() == 0 || int(idx) >= len(a.slots) {
		return zero, false
	}
	s := &a.slots[idx]
	if !s.live || s.gen != r.gen() {
		return zero, false
	}
	return s.val, true
}

func (a *arena[T]) remove(r ref) bool {
	if _, ok := a.get(r); !ok {
		return false
	}
	idx := r.index()
	var zero T
	a.slots[idx].live = false
	a.slots[idx].val = zero
	a.free = append(a.free, idx)
	for i, cur := range a.order {
		if cur == r {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
	return true
}

// refs returns live refs in insertion order. The slice is a copy.
func (a *arena[T]) refs() []ref {
	return append([]ref(nil), a.order...)
}

func (a *arena[T]) len() int {
	return len(a.order)
}

// WindowID addresses a window in a System.
type WindowID ref

// String renders the id as "wINDEX.GEN".
func (id WindowID) String() string { return ref(id).format("w") }

// MarshalText implements encoding.TextMarshaler.
func (id WindowID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *WindowID) UnmarshalText(b []byte) error {
	r, err := parseRef(string(b), "w")
	if err != nil {
		return err
	}
	*id = WindowID(r)
	return nil
}

// ParseWindowID parses the String form of a WindowID.
func ParseWindowID(s string) (WindowID, error) {
	var id WindowID
	err := id.UnmarshalText([]byte(s))
	return id, err
}

// SurfaceID addresses a surface. It embeds the id of the owning window.
type SurfaceID struct {
	Window WindowID
	slot   ref
}

// String renders the id as "wINDEX.GEN/sINDEX.GEN".
func (id SurfaceID) String() string {
	return id.Window.String() + "/" + id.slot.format("s")
}

// MarshalText implements encoding.TextMarshaler.
func (id SurfaceID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *SurfaceID) UnmarshalText(b []byte) error {
	winPart, surfPart, ok := strings.Cut(string(b), "/")
	if !ok {
		return fmt.Errorf("invalid surface id %q: expected WINDOW/SURFACE", b)
	}
	win, err := ParseWindowID(winPart)
	if err != nil {
		return err
	}
	r, err := parseRef(surfPart, "s")
	if err != nil {
		return err
	}
	*id = SurfaceID{Window: win, slot: r}
	return nil
}

// ParseSurfaceID parses the String form of a SurfaceID.
func ParseSurfaceID(s string) (SurfaceID, error) {
	var id SurfaceID
	err := id.UnmarshalText([]byte(s))
	return id, err
}
