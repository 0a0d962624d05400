package indev

import (
	"errors"
	"log/slog"

	"github.com/1broseidon/winbridge/internal/geom"
)

// ErrDeviceLimit is returned by Create when the manager is at capacity.
var ErrDeviceLimit = errors.New("input device limit reached")

// Type identifies what kind of input a device produces.
type Type int

const (
	TypeNone Type = iota
	TypePointer
	TypeKeypad
)

func (t Type) String() string {
	switch t {
	case TypePointer:
		return "pointer"
	case TypeKeypad:
		return "keypad"
	default:
		return "none"
	}
}

// Mode controls when a device is read.
type Mode int

const (
	// ModeTimer devices are read on every Manager.Poll.
	ModeTimer Mode = iota
	// ModeEvent devices are only read when Read is called explicitly.
	ModeEvent
)

// State is the pressed/released state reported by a device.
type State int

const (
	StateReleased State = iota
	StatePressed
)

func (s State) String() string {
	if s == StatePressed {
		return "pressed"
	}
	return "released"
}

// Data is one sample produced by a device's read callback.
type Data struct {
	Point geom.Point
	State State
	Key   uint32
}

// Event pairs a sample with the device that produced it.
type Event struct {
	Device *Device
	Data   Data
}

// Target receives the samples read from devices bound to it. Displays
// implement Target.
type Target interface {
	HandleInput(ev Event)
}

// ReadFunc fills data with the device's current state.
type ReadFunc func(d *Device, data *Data)

// Device is a single input device registered with a Manager.
type Device struct {
	id         uint32
	typ        Type
	mode       Mode
	read       ReadFunc
	driverData any
	target     Target
	last       Data
	deleted    bool
}

func (d *Device) ID() uint32              { return d.id }
func (d *Device) Type() Type              { return d.typ }
func (d *Device) SetType(t Type)          { d.typ = t }
func (d *Device) Mode() Mode              { return d.mode }
func (d *Device) SetMode(m Mode)          { d.mode = m }
func (d *Device) SetReadFunc(fn ReadFunc) { d.read = fn }
func (d *Device) DriverData() any         { return d.driverData }
func (d *Device) SetDriverData(v any)     { d.driverData = v }
func (d *Device) Target() Target          { return d.target }
func (d *Device) SetTarget(t Target)      { d.target = t }
func (d *Device) Deleted() bool           { return d.deleted }

// Last returns the most recent sample delivered by Read.
func (d *Device) Last() Data {
	return d.last
}

// Read invokes the read callback synchronously and hands the sample to the
// bound target before returning. Reading a deleted device is a no-op.
func (d *Device) Read() {
	if d == nil || d.deleted || d.read == nil {
		return
	}
	var data Data
	d.read(d, &data)
	d.last = data
	if d.target != nil {
		d.target.HandleInput(Event{Device: d, Data: data})
	}
}

// Manager owns every input device in the process.
type Manager struct {
	devices []*Device
	nextID  uint32
	max     int
	logger  *slog.Logger
}

// NewManager creates a manager holding at most max devices. A max of zero or
// less means unlimited.
func NewManager(max int, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{max: max, logger: logger}
}

// Create registers a new device with no type, timer mode and no callback.
func (m *Manager) Create() (*Device, error) {
	if m.max > 0 && len(m.devices) >= m.max {
		return nil, ErrDeviceLimit
	}
	m.nextID++
	d := &Device{id: m.nextID}
	m.devices = append(m.devices, d)
	m.logger.Debug("input device created", "device", d.id)
	return d, nil
}

// Delete unregisters d. Deleting a device twice is harmless.
func (m *Manager) Delete(d *Device) {
	if d == nil || d.deleted {
		return
	}
	for i, cur := range m.devices {
		if cur == d {
			m.devices = append(m.devices[:i], m.devices[i+1:]...)
			break
		}
	}
	d.deleted = true
	d.target = nil
	d.driverData = nil
	m.logger.Debug("input device deleted", "device", d.id, "type", d.typ.String())
}

// DeleteForTarget deletes every device bound to t and returns how many were
// removed.
func (m *Manager) DeleteForTarget(t Target) int {
	var doomed []*Device
	for _, d := range m.devices {
		if d.target == t {
			doomed = append(doomed, d)
		}
	}
	for _, d := range doomed {
		m.Delete(d)
	}
	return len(doomed)
}

// Poll reads every timer-mode device. Event-mode devices are skipped.
func (m *Manager) Poll() {
	for _, d := range append([]*Device(nil), m.devices...) {
		if d.mode == ModeTimer {
			d.Read()
		}
	}
}

// Count returns the number of live devices.
func (m *Manager) Count() int {
	return len(m.devices)
}

// Devices returns a snapshot of the live devices in creation order.
func (m *Manager) Devices() []*Device {
	return append([]*Device(nil), m.devices...)
}
