// Package motherboard implements the core of a simulated computer: a host
// that aggregates a fixed-capacity collection of pluggable device modules
// and coordinates their lifecycle, memory-mapped address space, and
// inter-device interrupts.
//
// Device modules participate through Descriptor, a plain, copy-by-value
// record of raw C-calling-convention function pointers (see internal/abi).
// That boundary is deliberate: device modules may be written in any
// language capable of producing a function pointer, and must keep working
// across process and language boundaries without relying on Go's own
// interface dispatch.
package motherboard

import (
	"sync"

	"github.com/bridgesim/motherboard/internal/debug"
)

// State is a lifecycle state of the Motherboard (§3).
type State int

const (
	StateConstructed State = iota
	StateConfiguring
	StateBooting
	StateRunning
	StateRebooting
	StateHaltPending
	StateCleanedUp
)

func (s State) String() string {
	switch s {
	case StateConstructed:
		return "constructed"
	case StateConfiguring:
		return "configuring"
	case StateBooting:
		return "booting"
	case StateRunning:
		return "running"
	case StateRebooting:
		return "rebooting"
	case StateHaltPending:
		return "halt-pending"
	case StateCleanedUp:
		return "cleaned-up"
	default:
		return "unknown"
	}
}

// controlMsg is the small sum type carried on the control channel (§9).
type controlMsg int

const (
	msgHalt controlMsg = iota
	msgReboot
)

// Motherboard aggregates the device list, the RAM mapping table, the
// info-block buffer, and the lifecycle control channel (§3).
type Motherboard struct {
	capacity int

	// mu guards devices, ramMappings, infoBlock, and state. Per §5, all
	// three tables are finalized before any device thread is spawned and
	// are read-only for the duration of a run; mu is only ever contended
	// pre-boot (add_device) and during the brief per-iteration rebuild
	// passes, never by concurrent device callbacks racing a run.
	mu          sync.RWMutex
	devices     []Descriptor
	ramMappings []int
	infoBlock   []byte
	state       State

	// controlMu guards controlCh. Present only while booted; absence is
	// ErrNotBooted per §4.4/§4.6.
	controlMu sync.Mutex
	controlCh chan controlMsg

	// callbacks keeps the motherboard's own callback table reachable for
	// the lifetime of a boot session, since device modules hold raw
	// pointers into it rather than a Go reference.
	callbacks *CallbackTable
}

// New returns a Constructed motherboard with the given slot budget (§4.1).
func New(capacity uint32) *Motherboard {
	return &Motherboard{
		capacity: int(capacity),
		state:    StateConstructed,
	}
}

// NumSlots returns the slot budget fixed at construction.
func (m *Motherboard) NumSlots() uint32 {
	return uint32(m.capacity)
}

// SlotsFilled returns the number of devices currently registered.
func (m *Motherboard) SlotsFilled() uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return uint32(len(m.devices))
}

// IsFull reports whether slots_filled >= capacity.
func (m *Motherboard) IsFull() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.devices) >= m.capacity
}

// State returns the motherboard's current lifecycle state.
func (m *Motherboard) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Motherboard) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// AddDevice appends a copy of d to the device list (§4.1). It fails with
// ErrFull when the motherboard is full, and with ErrNotConfigurable once a
// boot session has started.
func (m *Motherboard) AddDevice(d Descriptor) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateConstructed && m.state != StateConfiguring {
		return ErrNotConfigurable
	}
	if len(m.devices) >= m.capacity {
		return ErrFull
	}

	m.devices = append(m.devices, d)
	m.state = StateConfiguring
	debug.Writef("motherboard.add_device", "device_type=%#x device_id=%d export_memory_size=%d mapped=%t",
		uint64(d.DeviceType), d.DeviceID, d.ExportMemorySize, d.DeviceType.MemoryMapped())
	return nil
}

// snapshotDevices returns a defensive copy of the device list, safe to
// range over without holding mu.
func (m *Motherboard) snapshotDevices() []Descriptor {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Descriptor, len(m.devices))
	copy(out, m.devices)
	return out
}

func (m *Motherboard) deviceAt(index uint32) (Descriptor, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if int(index) >= len(m.devices) {
		return Descriptor{}, false
	}
	return m.devices[index], true
}

func (m *Motherboard) ramMappingLen() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ramMappings)
}

// ramMappedDevice resolves a RAM mapping index to the underlying device,
// per the address decoder's "idx < ram_mappings.len()" branch (§4.2/§4.3).
func (m *Motherboard) ramMappedDevice(idx uint32) (Descriptor, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if int(idx) >= len(m.ramMappings) {
		return Descriptor{}, false
	}
	return m.devices[m.ramMappings[idx]], true
}
