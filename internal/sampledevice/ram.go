// Package sampledevice provides trivial, Go-backed device implementations
// that exercise the motherboard's ABI the same way a foreign device module
// would: real C-calling-convention function pointers minted with
// abi.NewCallback, not shortcuts through Go interfaces. Used by the
// monitor CLI and by package-level tests that need a working device
// without a real dlopen'd module.
package sampledevice

import (
	"sync"
	"unsafe"

	"github.com/bridgesim/motherboard"
	"github.com/bridgesim/motherboard/internal/abi"
)

// RAM is a byte-addressable memory device: the "simple byte-array model"
// the base spec's round-trip property is defined against (§8).
type RAM struct {
	mu   sync.Mutex
	data []byte
}

// NewRAM returns a RAM device exporting size addressable bytes.
func NewRAM(size uint32) *RAM {
	return &RAM{data: make([]byte, size)}
}

// Descriptor returns a motherboard.Descriptor for this RAM, tagged with
// deviceType (the low bit must be set for the device to be memory-mapped;
// NewDescriptor below does this for callers that just want a RAM slot).
func (r *RAM) Descriptor(deviceType uint64, deviceID uint32) motherboard.Descriptor {
	return motherboard.Descriptor{
		Handle:           unsafe.Pointer(r),
		DeviceType:       motherboard.DeviceType(deviceType),
		DeviceID:         deviceID,
		ExportMemorySize: uint32(len(r.data)),
		LoadBytes: abi.NewCallback(func(_ uintptr, local uint32, count uint32, dest uintptr) int32 {
			return r.load(local, count, dest)
		}),
		WriteBytes: abi.NewCallback(func(_ uintptr, local uint32, count uint32, src uintptr) int32 {
			return r.write(local, count, src)
		}),
	}
}

// NewDescriptor is a convenience for the common case: a RAM device with the
// memory-mapped flag already set.
func NewDescriptor(size uint32, deviceID uint32) (*RAM, motherboard.Descriptor) {
	ram := NewRAM(size)
	return ram, ram.Descriptor(1, deviceID)
}

func (r *RAM) load(local, count uint32, dest uintptr) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if count == 0 || dest == 0 || int(local) >= len(r.data) {
		return 0
	}
	n := clampedLen(local, count, len(r.data))
	buf := unsafe.Slice((*byte)(unsafe.Pointer(dest)), n)
	copy(buf, r.data[local:int(local)+int(n)])
	return 0
}

func (r *RAM) write(local, count uint32, src uintptr) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if count == 0 || src == 0 || int(local) >= len(r.data) {
		return 0
	}
	n := clampedLen(local, count, len(r.data))
	buf := unsafe.Slice((*byte)(unsafe.Pointer(src)), n)
	copy(r.data[local:int(local)+int(n)], buf)
	return 0
}

func clampedLen(local, count uint32, dataLen int) uint32 {
	if int(local)+int(count) > dataLen {
		return uint32(dataLen - int(local))
	}
	return count
}
