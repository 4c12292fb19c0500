package motherboard

import "github.com/bridgesim/motherboard/internal/debug"

// Interrupt codes recognized when the target is the motherboard itself
// (§6.4).
const (
	InterruptHalt   uint32 = 0
	InterruptReboot uint32 = 1
)

// SendInterrupt routes a (target, code) pair to either a device's
// interrupt callback or the motherboard's own control channel (§4.4). The
// returned int32 is the target device's own interrupt status, forwarded
// unchanged; it is 0 for motherboard targets, unmapped targets, and
// devices without an interrupt callback. The error is non-nil only when
// the target is the motherboard and no boot session is active.
func (m *Motherboard) SendInterrupt(target uint32, code uint32) (int32, error) {
	if target == infoTag {
		switch code {
		case InterruptHalt:
			return 0, m.postControl(msgHalt)
		case InterruptReboot:
			return 0, m.postControl(msgReboot)
		default:
			debug.Writef("motherboard.interrupt", "unknown motherboard interrupt code=%d ignored", code)
			return 0, nil
		}
	}

	dev, ok := m.deviceAt(target)
	if !ok {
		return 0, nil
	}

	status, err := dev.callInterrupt(code)
	debug.Writef("motherboard.interrupt", "target=%d code=%d status=%d err=%v", target, code, status, err)
	return status, nil
}

// Halt requests a halt of a booted motherboard (§4.6). Thread-safe; callable
// from any device thread or external caller.
func (m *Motherboard) Halt() error {
	return m.postControl(msgHalt)
}

// Reboot requests a reboot of a booted motherboard (§4.6). Thread-safe.
func (m *Motherboard) Reboot() error {
	return m.postControl(msgReboot)
}

// postControl posts msg to the control channel, returning ErrNotBooted if
// no boot session is active. The channel is buffered by one slot: a
// pending, not-yet-consumed message is treated as "still booted, request
// already in flight" rather than a failure, which is what keeps repeated
// Halt idempotent (§8) without an unbounded channel.
func (m *Motherboard) postControl(msg controlMsg) error {
	m.controlMu.Lock()
	ch := m.controlCh
	m.controlMu.Unlock()

	if ch == nil {
		return ErrNotBooted
	}

	select {
	case ch <- msg:
	default:
		// A control message is already pending; the session is still
		// booted, so this counts as success rather than NotBooted.
	}
	return nil
}
