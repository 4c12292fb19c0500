package motherboard

import (
	"fmt"
	"unsafe"

	"github.com/bridgesim/motherboard/internal/abi"
)

// DeviceType is the 64-bit device class tag (§3). The low 32 bits are
// flags; bit 0 declares memory-mapping participation. The upper 32 bits
// identify the device class and are opaque to the motherboard.
type DeviceType uint64

// flagMemoryMapped is bit 0 of the low 32 bits of a DeviceType.
const flagMemoryMapped DeviceType = 1

// MemoryMapped reports whether the type declares memory-mapping participation.
func (t DeviceType) MemoryMapped() bool {
	return t&flagMemoryMapped != 0
}

// Class returns the device-class tag carried in the upper 32 bits.
func (t DeviceType) Class() uint32 {
	return uint32(t >> 32)
}

// Descriptor is the stable, copy-by-value record a device supplies to
// describe itself (§3, §6.2). Function-pointer fields are raw C-calling-
// convention pointers (see internal/abi); a zero value means the callback
// is absent.
type Descriptor struct {
	// Handle is the opaque device implementation pointer. The motherboard
	// never dereferences it; it is only ever passed back to the device's
	// own callbacks.
	Handle unsafe.Pointer

	DeviceType       DeviceType
	DeviceID         uint32
	ExportMemorySize uint32

	// LoadBytes: int32 fn(void *handle, uint32 local, uint32 count, uint8 *dest)
	LoadBytes abi.Func
	// WriteBytes: int32 fn(void *handle, uint32 local, uint32 count, const uint8 *src)
	WriteBytes abi.Func
	// Init: int32 fn(void *handle)
	Init abi.Func
	// Reset: int32 fn(void *handle)
	Reset abi.Func
	// Cleanup: int32 fn(void *handle)
	Cleanup abi.Func
	// Boot: int32 fn(void *handle)
	Boot abi.Func
	// Halt: int32 fn(void *handle)
	Halt abi.Func
	// Interrupt: int32 fn(void *handle, uint32 code)
	Interrupt abi.Func
	// RegisterMotherboard: int32 fn(void *handle, void *motherboard, void *callbackTable)
	RegisterMotherboard abi.Func
}

// validate checks the two descriptor invariants from §3: a memory-mapped
// device must supply both byte-range callbacks, and a device offering boot
// must offer halt.
func (d Descriptor) validate() error {
	if d.DeviceType.MemoryMapped() {
		if d.LoadBytes == 0 || d.WriteBytes == 0 {
			return fmt.Errorf("device type=%#x id=%d: %w", uint64(d.DeviceType), d.DeviceID, ErrMemoryMappingIncomplete)
		}
	}
	if d.Boot != 0 && d.Halt == 0 {
		return fmt.Errorf("device type=%#x id=%d: %w", uint64(d.DeviceType), d.DeviceID, ErrMissingHalt)
	}
	return nil
}

func (d Descriptor) handleArg() uintptr {
	return uintptr(d.Handle)
}

func (d Descriptor) callLoadBytes(local, count uint32, dest []byte) (int32, error) {
	if d.LoadBytes == 0 {
		return 0, nil
	}
	if count == 0 {
		return abi.Invoke(d.LoadBytes, d.handleArg(), uintptr(local), 0, 0)
	}
	return abi.Invoke(d.LoadBytes, d.handleArg(), uintptr(local), uintptr(count), abi.BytePtr(dest))
}

func (d Descriptor) callWriteBytes(local, count uint32, src []byte) (int32, error) {
	if d.WriteBytes == 0 {
		return 0, nil
	}
	if count == 0 {
		return abi.Invoke(d.WriteBytes, d.handleArg(), uintptr(local), 0, 0)
	}
	return abi.Invoke(d.WriteBytes, d.handleArg(), uintptr(local), uintptr(count), abi.BytePtr(src))
}

func (d Descriptor) callInit() (int32, error) {
	if d.Init == 0 {
		return 0, nil
	}
	return abi.Invoke(d.Init, d.handleArg())
}

func (d Descriptor) callReset() (int32, error) {
	if d.Reset == 0 {
		return 0, nil
	}
	return abi.Invoke(d.Reset, d.handleArg())
}

func (d Descriptor) callCleanup() (int32, error) {
	if d.Cleanup == 0 {
		return 0, nil
	}
	return abi.Invoke(d.Cleanup, d.handleArg())
}

func (d Descriptor) callBoot() (int32, error) {
	if d.Boot == 0 {
		return 0, nil
	}
	return abi.Invoke(d.Boot, d.handleArg())
}

func (d Descriptor) callHalt() (int32, error) {
	if d.Halt == 0 {
		return 0, nil
	}
	return abi.Invoke(d.Halt, d.handleArg())
}

func (d Descriptor) callInterrupt(code uint32) (int32, error) {
	if d.Interrupt == 0 {
		return 0, nil
	}
	return abi.Invoke(d.Interrupt, d.handleArg(), uintptr(code))
}

func (d Descriptor) callRegisterMotherboard(mb, table uintptr) (int32, error) {
	if d.RegisterMotherboard == 0 {
		return 0, nil
	}
	return abi.Invoke(d.RegisterMotherboard, d.handleArg(), mb, table)
}
