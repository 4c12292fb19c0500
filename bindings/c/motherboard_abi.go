// Package main builds the stable C-compatible ABI described in §6.1: a
// shared library foreign device modules and test harnesses link against
// without touching Go at all. Handles are opaque uint64 tokens minted from
// the shard table in handles.go, not raw pointers — the same discipline
// the original bscomp_motherboard CFFI layer got from boxing a pointer,
// without the use-after-free/double-free undefined behavior that came
// with it.
package main

/*
#include <stdint.h>

typedef struct {
	void *handle;
	uint64_t device_type;
	uint32_t device_id;
	uint32_t export_memory_size;

	void *load_bytes;
	void *write_bytes;
	void *init;
	void *reset;
	void *cleanup;
	void *boot;
	void *halt;
	void *interrupt;
	void *register_motherboard;
} bscomp_device;
*/
import "C"

import (
	"errors"
	"unsafe"

	"github.com/bridgesim/motherboard"
)

//export motherboard_new
func motherboard_new(capacity C.uint32_t) C.uint64_t {
	mb := motherboard.New(uint32(capacity))
	return C.uint64_t(newHandle(mb))
}

//export motherboard_destroy
func motherboard_destroy(handle C.uint64_t) {
	freeHandle(uint64(handle))
}

//export motherboard_num_slots
func motherboard_num_slots(handle C.uint64_t) C.uint32_t {
	mb, ok := getHandleTyped[*motherboard.Motherboard](uint64(handle))
	if !ok {
		return 0
	}
	return C.uint32_t(mb.NumSlots())
}

//export motherboard_slots_filled
func motherboard_slots_filled(handle C.uint64_t) C.uint32_t {
	mb, ok := getHandleTyped[*motherboard.Motherboard](uint64(handle))
	if !ok {
		return 0
	}
	return C.uint32_t(mb.SlotsFilled())
}

//export motherboard_is_full
func motherboard_is_full(handle C.uint64_t) C.int32_t {
	mb, ok := getHandleTyped[*motherboard.Motherboard](uint64(handle))
	if !ok {
		return 1
	}
	if mb.IsFull() {
		return 1
	}
	return 0
}

//export motherboard_add_device
func motherboard_add_device(handle C.uint64_t, device *C.bscomp_device) C.int32_t {
	mb, ok := getHandleTyped[*motherboard.Motherboard](uint64(handle))
	if !ok {
		return -1
	}
	if device == nil {
		return -2
	}

	if err := mb.AddDevice(descriptorFromC(device)); err != nil {
		return -3
	}
	return 0
}

//export motherboard_boot
func motherboard_boot(handle C.uint64_t) C.int32_t {
	mb, ok := getHandleTyped[*motherboard.Motherboard](uint64(handle))
	if !ok {
		return -1
	}
	if err := mb.Boot(); err != nil {
		if errors.Is(err, motherboard.ErrMemoryMappingIncomplete) || errors.Is(err, motherboard.ErrMissingHalt) {
			return -2
		}
		return -1
	}
	return 0
}

//export motherboard_halt
func motherboard_halt(handle C.uint64_t) C.int32_t {
	mb, ok := getHandleTyped[*motherboard.Motherboard](uint64(handle))
	if !ok {
		return -1
	}
	if err := mb.Halt(); err != nil {
		return -1
	}
	return 0
}

//export motherboard_reboot
func motherboard_reboot(handle C.uint64_t) C.int32_t {
	mb, ok := getHandleTyped[*motherboard.Motherboard](uint64(handle))
	if !ok {
		return -1
	}
	if err := mb.Reboot(); err != nil {
		return -1
	}
	return 0
}

//export motherboard_load_bytes
func motherboard_load_bytes(handle C.uint64_t, addr C.uint64_t, count C.uint32_t, dest *C.uint8_t) C.int32_t {
	mb, ok := getHandleTyped[*motherboard.Motherboard](uint64(handle))
	if !ok {
		return -1
	}
	status, err := mb.ReadBytes(uint64(addr), cBytes(unsafe.Pointer(dest), uint32(count)))
	if err != nil {
		return -10
	}
	return C.int32_t(status)
}

//export motherboard_write_bytes
func motherboard_write_bytes(handle C.uint64_t, addr C.uint64_t, count C.uint32_t, src *C.uint8_t) C.int32_t {
	mb, ok := getHandleTyped[*motherboard.Motherboard](uint64(handle))
	if !ok {
		return -1
	}
	status, err := mb.WriteBytes(uint64(addr), cBytes(unsafe.Pointer(src), uint32(count)))
	if err != nil {
		return -10
	}
	return C.int32_t(status)
}

//export motherboard_send_interrupt
func motherboard_send_interrupt(handle C.uint64_t, target C.uint32_t, code C.uint32_t) C.int32_t {
	mb, ok := getHandleTyped[*motherboard.Motherboard](uint64(handle))
	if !ok {
		return -1
	}
	status, err := mb.SendInterrupt(uint32(target), uint32(code))
	if err != nil {
		return -1
	}
	return C.int32_t(status)
}

func cBytes(ptr unsafe.Pointer, count uint32) []byte {
	if ptr == nil || count == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(ptr), count)
}

func main() {}

func descriptorFromC(d *C.bscomp_device) motherboard.Descriptor {
	return motherboard.Descriptor{
		Handle:              unsafe.Pointer(d.handle),
		DeviceType:          motherboard.DeviceType(uint64(d.device_type)),
		DeviceID:            uint32(d.device_id),
		ExportMemorySize:    uint32(d.export_memory_size),
		LoadBytes:           uintptr(d.load_bytes),
		WriteBytes:          uintptr(d.write_bytes),
		Init:                uintptr(d.init),
		Reset:               uintptr(d.reset),
		Cleanup:             uintptr(d.cleanup),
		Boot:                uintptr(d.boot),
		Halt:                uintptr(d.halt),
		Interrupt:           uintptr(d.interrupt),
		RegisterMotherboard: uintptr(d.register_motherboard),
	}
}
