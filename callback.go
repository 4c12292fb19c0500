package motherboard

import (
	"unsafe"

	"github.com/bridgesim/motherboard/internal/abi"
	"github.com/bridgesim/motherboard/internal/debug"
)

// CallbackTable is the set of callbacks the motherboard hands to each
// device during registration (§2, §4.6 step 3). Each field is a raw
// C-calling-convention function pointer in the same shape a device's own
// descriptor callbacks take, minted with abi.NewCallback so foreign device
// modules can call straight into it without knowing this is Go underneath.
//
// Devices must copy the table's contents during register_motherboard; the
// motherboard does not guarantee the pointer to the table stays valid past
// that call (in practice it does, for the lifetime of the boot session,
// but the contract is "copy, don't alias" per §9).
type CallbackTable struct {
	// ReadBytes: int32 fn(void *mb, uint64 addr, uint8 *dest, uint32 n)
	ReadBytes abi.Func
	// WriteBytes: int32 fn(void *mb, uint64 addr, const uint8 *src, uint32 n)
	WriteBytes abi.Func
	// SendInterrupt: int32 fn(void *mb, uint32 target, uint32 code)
	SendInterrupt abi.Func
}

// newCallbackTable builds a fresh CallbackTable bound to m (§4.6 step 3).
// The motherboard pointer devices receive alongside this table is not
// consulted by these closures — they already capture m — but it is part
// of the wire shape so devices built against a real multi-motherboard host
// can distinguish callers.
func (m *Motherboard) newCallbackTable() *CallbackTable {
	table := &CallbackTable{
		ReadBytes: abi.NewCallback(func(_ uintptr, addr uint64, dest uintptr, n uint32) int32 {
			if n == 0 || dest == 0 {
				status, _ := m.ReadBytes(addr, nil)
				return status
			}
			buf := unsafe.Slice((*byte)(unsafe.Pointer(dest)), n)
			status, _ := m.ReadBytes(addr, buf)
			return status
		}),
		WriteBytes: abi.NewCallback(func(_ uintptr, addr uint64, src uintptr, n uint32) int32 {
			if n == 0 || src == 0 {
				status, _ := m.WriteBytes(addr, nil)
				return status
			}
			buf := unsafe.Slice((*byte)(unsafe.Pointer(src)), n)
			status, _ := m.WriteBytes(addr, buf)
			return status
		}),
		SendInterrupt: abi.NewCallback(func(_ uintptr, target uint32, code uint32) int32 {
			status, _ := m.SendInterrupt(target, code)
			return status
		}),
	}
	// Keep the table reachable for the duration of the boot session: device
	// modules hold a raw pointer into it, not a Go reference.
	m.callbacks = table
	return table
}

// registerDevices runs §4.6 step 3 for every device that supplies
// register_motherboard, handing each a pointer to m and to table.
func (m *Motherboard) registerDevices(table *CallbackTable) {
	mbPtr := uintptr(unsafe.Pointer(m))
	tablePtr := uintptr(unsafe.Pointer(table))

	for _, dev := range m.snapshotDevices() {
		if dev.RegisterMotherboard == 0 {
			continue
		}
		status, err := dev.callRegisterMotherboard(mbPtr, tablePtr)
		debug.Writef("motherboard.boot", "device %d register_motherboard status=%d err=%v", dev.DeviceID, status, err)
	}
}
