package motherboard

import (
	"errors"
	"testing"

	"github.com/bridgesim/motherboard/internal/sampledevice"
)

func TestNewMotherboardStartsConstructed(t *testing.T) {
	mb := New(4)
	if got := mb.State(); got != StateConstructed {
		t.Fatalf("State() = %v, want %v", got, StateConstructed)
	}
	if mb.NumSlots() != 4 {
		t.Fatalf("NumSlots() = %d, want 4", mb.NumSlots())
	}
	if mb.SlotsFilled() != 0 {
		t.Fatalf("SlotsFilled() = %d, want 0", mb.SlotsFilled())
	}
	if mb.IsFull() {
		t.Fatal("IsFull() = true on an empty motherboard")
	}
}

func TestAddDeviceFillsSlotsAndRejectsOverflow(t *testing.T) {
	mb := New(1)

	_, desc := sampledevice.NewDescriptor(16, 1)
	if err := mb.AddDevice(desc); err != nil {
		t.Fatalf("AddDevice() = %v, want nil", err)
	}
	if !mb.IsFull() {
		t.Fatal("IsFull() = false after filling the only slot")
	}
	if mb.State() != StateConfiguring {
		t.Fatalf("State() = %v, want %v", mb.State(), StateConfiguring)
	}

	_, second := sampledevice.NewDescriptor(16, 2)
	if err := mb.AddDevice(second); !errors.Is(err, ErrFull) {
		t.Fatalf("AddDevice() on a full motherboard = %v, want ErrFull", err)
	}
}

func TestValidateRejectsMemoryMappingWithoutBothCallbacks(t *testing.T) {
	mb := New(1)
	desc := Descriptor{DeviceType: flagMemoryMapped, DeviceID: 1}
	if err := desc.validate(); !errors.Is(err, ErrMemoryMappingIncomplete) {
		t.Fatalf("validate() = %v, want ErrMemoryMappingIncomplete", err)
	}
	// AddDevice itself does not validate (validation happens at boot, §4.6
	// step 2); confirm it still accepts the descriptor here.
	if err := mb.AddDevice(desc); err != nil {
		t.Fatalf("AddDevice() = %v, want nil", err)
	}
}

func TestValidateRejectsBootWithoutHalt(t *testing.T) {
	desc := Descriptor{Boot: 1}
	if err := desc.validate(); !errors.Is(err, ErrMissingHalt) {
		t.Fatalf("validate() = %v, want ErrMissingHalt", err)
	}
}

func TestAddDeviceAfterBootSessionFails(t *testing.T) {
	mb := New(2)
	mb.setState(StateRunning)
	_, desc := sampledevice.NewDescriptor(16, 1)
	if err := mb.AddDevice(desc); !errors.Is(err, ErrNotConfigurable) {
		t.Fatalf("AddDevice() during a run = %v, want ErrNotConfigurable", err)
	}
}

func TestStateString(t *testing.T) {
	cases := map[State]string{
		StateConstructed:  "constructed",
		StateConfiguring:  "configuring",
		StateBooting:      "booting",
		StateRunning:      "running",
		StateRebooting:    "rebooting",
		StateHaltPending:  "halt-pending",
		StateCleanedUp:    "cleaned-up",
		State(99):         "unknown",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}
