package motherboard

import (
	"bytes"
	"testing"

	"github.com/bridgesim/motherboard/internal/sampledevice"
)

// bootForDecode brings a motherboard through enough of the lifecycle to
// populate ram_mappings and info_block without running the full device
// thread loop, which decode_test.go does not need.
func bootForDecode(t *testing.T, mb *Motherboard) {
	t.Helper()
	if err := mb.validateDevices(); err != nil {
		t.Fatalf("validateDevices() = %v", err)
	}
	mb.rebuildRAMMappings()
	mb.rebuildInfoBlock()
}

func TestReadWriteRoundTripOnSingleRAMDevice(t *testing.T) {
	mb := New(1)
	_, desc := sampledevice.NewDescriptor(16, 7)
	if err := mb.AddDevice(desc); err != nil {
		t.Fatalf("AddDevice() = %v", err)
	}
	bootForDecode(t, mb)

	addr := uint64(0) << 32 // device index 0, local offset 0
	payload := []byte("hello, bridgesim!")[:16]

	if status, err := mb.WriteBytes(addr, payload); err != nil || status != 0 {
		t.Fatalf("WriteBytes() = (%d, %v), want (0, nil)", status, err)
	}

	got := make([]byte, 16)
	if status, err := mb.ReadBytes(addr, got); err != nil || status != 0 {
		t.Fatalf("ReadBytes() = (%d, %v), want (0, nil)", status, err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("ReadBytes() = %q, want %q", got, payload)
	}
}

func TestWriteClampsAtExportMemorySize(t *testing.T) {
	mb := New(1)
	ram, desc := sampledevice.NewDescriptor(4, 1)
	if err := mb.AddDevice(desc); err != nil {
		t.Fatalf("AddDevice() = %v", err)
	}
	bootForDecode(t, mb)

	oversized := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	if status, err := mb.WriteBytes(0, oversized); err != nil || status != 0 {
		t.Fatalf("WriteBytes() = (%d, %v), want (0, nil)", status, err)
	}

	got := make([]byte, 4)
	if status, err := mb.ReadBytes(0, got); err != nil || status != 0 {
		t.Fatalf("ReadBytes() = (%d, %v), want (0, nil)", status, err)
	}
	if !bytes.Equal(got, []byte{1, 2, 3, 4}) {
		t.Fatalf("ReadBytes() = %v, want first 4 bytes of the write", got)
	}
	_ = ram
}

func TestWriteLocalPastSizeSaturatesInsteadOfUnderflowing(t *testing.T) {
	mb := New(1)
	_, desc := sampledevice.NewDescriptor(4, 1)
	if err := mb.AddDevice(desc); err != nil {
		t.Fatalf("AddDevice() = %v", err)
	}
	bootForDecode(t, mb)

	// local offset 10 is already past export_memory_size=4; remainingWindow
	// must saturate at zero rather than wrap around.
	addr := uint64(10)
	if status, err := mb.WriteBytes(addr, []byte{9, 9}); err != nil || status != 0 {
		t.Fatalf("WriteBytes() = (%d, %v), want (0, nil)", status, err)
	}
}

func TestReadEmptyDestAndClampToCount(t *testing.T) {
	mb := New(1)
	if _, err := mb.ReadBytes(0, make([]byte, 0)); err != nil {
		t.Fatalf("ReadBytes() with empty dest = %v, want nil", err)
	}
	// maxRequestLen is 2^32-1; constructing an actual oversized slice isn't
	// practical in a test, so the oversized-request rejection is not
	// exercised here: this covers the accepted path above plus the
	// clampToCount helper in isolation.
	if clampToCount(10, 4) != 4 {
		t.Fatal("clampToCount should clamp to the lower limit")
	}
	if clampToCount(2, 4) != 2 {
		t.Fatal("clampToCount should pass through values under the limit")
	}
}

func TestRemainingWindowSaturatesAtZero(t *testing.T) {
	if got := remainingWindow(10, 4); got != 0 {
		t.Fatalf("remainingWindow(10, 4) = %d, want 0", got)
	}
	if got := remainingWindow(1, 4); got != 3 {
		t.Fatalf("remainingWindow(1, 4) = %d, want 3", got)
	}
}

func TestReadUnmappedAddressIsSilentNoOp(t *testing.T) {
	mb := New(1)
	_, desc := sampledevice.NewDescriptor(4, 1)
	if err := mb.AddDevice(desc); err != nil {
		t.Fatalf("AddDevice() = %v", err)
	}
	bootForDecode(t, mb)

	unmapped := uint64(5) << 32
	dest := make([]byte, 4)
	if status, err := mb.ReadBytes(unmapped, dest); err != nil || status != 0 {
		t.Fatalf("ReadBytes(unmapped) = (%d, %v), want (0, nil)", status, err)
	}
	if !bytes.Equal(dest, make([]byte, 4)) {
		t.Fatal("ReadBytes(unmapped) wrote into dest, want untouched")
	}
}

func TestInfoRegionSelfDescribesRAMCount(t *testing.T) {
	mb := New(2)
	_, first := sampledevice.NewDescriptor(8, 1)
	_, second := sampledevice.NewDescriptor(16, 2)
	if err := mb.AddDevice(first); err != nil {
		t.Fatalf("AddDevice() = %v", err)
	}
	if err := mb.AddDevice(second); err != nil {
		t.Fatalf("AddDevice() = %v", err)
	}
	bootForDecode(t, mb)

	header := make([]byte, 4)
	if status, err := mb.ReadBytes(globalInfoAddr(0x10), header); err != nil || status != 0 {
		t.Fatalf("ReadBytes(info ram_count) = (%d, %v), want (0, nil)", status, err)
	}
	ramCount := uint32(header[0]) | uint32(header[1])<<8 | uint32(header[2])<<16 | uint32(header[3])<<24
	if ramCount != 2 {
		t.Fatalf("ram_count = %d, want 2", ramCount)
	}
}

func TestInfoRegionWritesAreSilentlyDiscarded(t *testing.T) {
	mb := New(1)
	_, desc := sampledevice.NewDescriptor(8, 1)
	if err := mb.AddDevice(desc); err != nil {
		t.Fatalf("AddDevice() = %v", err)
	}
	bootForDecode(t, mb)

	if status, err := mb.WriteBytes(globalInfoAddr(0x10), []byte{1, 2, 3, 4}); err != nil || status != 0 {
		t.Fatalf("WriteBytes(info region) = (%d, %v), want (0, nil)", status, err)
	}
}
