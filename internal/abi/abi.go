// Package abi invokes raw C-calling-convention function pointers handed to
// the motherboard by device modules, and mints C-callable function pointers
// the motherboard hands back to those same modules. It is the mechanism
// behind the stable ABI described for device descriptors and the
// motherboard callback table: no cgo, no per-platform build tag, just
// purego's trampolines over whatever function pointer value the caller
// supplies.
package abi

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/ebitengine/purego"
)

// ErrNilFunction is returned by Invoke when called with a null function
// pointer. Callers that model "optional callback" semantics should check
// for a zero Func before calling Invoke rather than relying on this error.
var ErrNilFunction = errors.New("abi: nil function pointer")

// Func is a raw C-calling-convention function pointer, as handed across the
// ABI boundary by a device module (a dlopen'd symbol, a cgo export, or any
// other value the host's loader produced). A zero Func means "absent".
type Func = uintptr

// Invoke calls fn with args using the platform's native calling convention
// and returns its 32-bit result truncated from the first return register.
// Device callbacks are specified to return a signed 32-bit status, so
// everything here narrows to int32 at the boundary.
func Invoke(fn Func, args ...uintptr) (int32, error) {
	if fn == 0 {
		return 0, ErrNilFunction
	}
	r1, _, errno := purego.SyscallN(fn, args...)
	if errno != 0 {
		return int32(r1), fmt.Errorf("abi: invoke: errno %d", errno)
	}
	return int32(r1), nil
}

// NewCallback mints a C-callable function pointer from a Go function. Used
// to hand the motherboard's own read_bytes/write_bytes/send_interrupt
// entry points to device modules in the same function-pointer shape their
// own callbacks take.
func NewCallback(fn any) Func {
	return purego.NewCallback(fn)
}

// BytePtr returns a pointer to the first element of b, or 0 for an empty
// slice. Zero is never a valid Go slice address, so it doubles as "no
// buffer" the way a null pointer would in C.
func BytePtr(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}
