package motherboard

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/bridgesim/motherboard/internal/debug"
)

// Boot drives the full lifecycle: channel install, validation,
// registration, mapping, info block, init, then a reset/boot/halt loop
// that repeats on Reboot and exits on Halt, followed by cleanup and
// teardown (§4.6). It blocks until the motherboard halts.
func (m *Motherboard) Boot() error {
	if err := m.installControl(); err != nil {
		return err
	}

	m.setState(StateBooting)
	debug.Writef("motherboard.boot", "boot starting with %d device(s)", m.SlotsFilled())

	if err := m.validateDevices(); err != nil {
		m.clearControl()
		m.setState(StateConfiguring)
		debug.Writef("motherboard.boot", "validation failed: %v", err)
		return err
	}

	table := m.newCallbackTable()
	m.registerDevices(table)

	m.rebuildRAMMappings()
	m.rebuildInfoBlock()

	m.initDevices()

	for {
		m.setState(StateRunning)
		m.resetDevices()

		msg, joinBootThreads := m.spawnBootThreads()

		m.setState(StateHaltPending)
		m.haltDevices()
		joinBootThreads()

		if msg == msgReboot {
			m.setState(StateRebooting)
			debug.Writef("motherboard.boot", "rebooting")
			continue
		}
		break
	}

	debug.Writef("motherboard.boot", "halting, running cleanup pass")
	m.cleanupDevices()

	m.clearControl()
	m.setState(StateCleanedUp)
	return nil
}

// installControl creates a fresh control channel and publishes it, failing
// if a boot session is already active (§4.6 step 1).
func (m *Motherboard) installControl() error {
	m.controlMu.Lock()
	defer m.controlMu.Unlock()
	if m.controlCh != nil {
		return ErrAlreadyBooted
	}
	m.controlCh = make(chan controlMsg, 1)
	return nil
}

func (m *Motherboard) clearControl() {
	m.controlMu.Lock()
	m.controlCh = nil
	m.controlMu.Unlock()
}

// validateDevices runs §4.6 step 2 over a snapshot of the device list.
func (m *Motherboard) validateDevices() error {
	for _, d := range m.snapshotDevices() {
		if err := d.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (m *Motherboard) initDevices() {
	for _, d := range m.snapshotDevices() {
		status, err := d.callInit()
		// Init failures are logged, not fatal: devices signal fatal
		// problems via interrupts during run, not via init's return (§7).
		debug.Writef("motherboard.boot", "device %d init status=%d err=%v", d.DeviceID, status, err)
	}
}

func (m *Motherboard) resetDevices() {
	for _, d := range m.snapshotDevices() {
		status, err := d.callReset()
		debug.Writef("motherboard.boot", "device %d reset status=%d err=%v", d.DeviceID, status, err)
	}
}

func (m *Motherboard) haltDevices() {
	for _, d := range m.snapshotDevices() {
		if d.Boot == 0 {
			continue
		}
		status, err := d.callHalt()
		debug.Writef("motherboard.boot", "device %d halt status=%d err=%v", d.DeviceID, status, err)
	}
}

func (m *Motherboard) cleanupDevices() {
	for _, d := range m.snapshotDevices() {
		status, err := d.callCleanup()
		debug.Writef("motherboard.boot", "device %d cleanup status=%d err=%v", d.DeviceID, status, err)
	}
}

// spawnBootThreads spawns one goroutine per device that implements boot and
// blocks on the control channel, returning the message that ended the
// iteration together with a join function. Per §4.6 step 7 and §5/§9, a
// booting device is modeled as running until its own halt callback tells it
// to stop, so the caller MUST invoke every device's halt (step d) between
// receiving this message (step c) and calling the returned join function
// (step e) — joining first would deadlock against any device whose boot
// loop actually waits on halt.
func (m *Motherboard) spawnBootThreads() (controlMsg, func()) {
	g, _ := errgroup.WithContext(context.Background())

	for _, d := range m.snapshotDevices() {
		if d.Boot == 0 {
			continue
		}
		d := d
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					debug.Writef("motherboard.boot", "device %d boot thread panicked: %v", d.DeviceID, r)
					err = nil
				}
			}()
			status, callErr := d.callBoot()
			debug.Writef("motherboard.boot", "device %d boot thread returned status=%d err=%v", d.DeviceID, status, callErr)
			return callErr
		})
	}

	m.controlMu.Lock()
	ch := m.controlCh
	m.controlMu.Unlock()

	msg, ok := <-ch
	if !ok {
		msg = msgHalt
	}

	join := func() {
		if err := g.Wait(); err != nil {
			debug.Writef("motherboard.boot", "device boot group returned error: %v", err)
		}
	}

	return msg, join
}
