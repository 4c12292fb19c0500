package motherboard

import "github.com/bridgesim/motherboard/internal/debug"

// infoTag is the reserved "ram index" value that selects the info region
// rather than a mapped device (§3, §9: this spec adopts the info region at
// upper 32 bits 0xFFFFFFFF, not address 0).
const infoTag = 0xFFFFFFFF

// maxRequestLen is the largest read/write length the decoder accepts, 2^32-1
// bytes (§4.2/§4.3).
const maxRequestLen = 0xFFFFFFFF

func splitGlobalAddr(addr uint64) (idx uint32, local uint32) {
	return uint32(addr >> 32), uint32(addr)
}

// ReadBytes implements the address decoder's read path (§4.2). The returned
// int32 is the target device's own load_bytes status, forwarded unchanged;
// it is 0 for the info region, for unmapped addresses, and for devices that
// don't implement load_bytes. The error is non-nil only for the
// simulator-plane OversizedRequest failure.
func (m *Motherboard) ReadBytes(addr uint64, dest []byte) (int32, error) {
	if uint64(len(dest)) > maxRequestLen {
		return 0, ErrOversizedRequest
	}

	idx, local := splitGlobalAddr(addr)

	if idx == infoTag {
		m.readInfoRegion(local, dest)
		return 0, nil
	}

	dev, ok := m.ramMappedDevice(idx)
	if !ok {
		return 0, nil
	}

	n := clampToCount(uint32(len(dest)), dev.ExportMemorySize)
	status, err := dev.callLoadBytes(local, n, dest)
	debug.Writef("motherboard.decode", "read addr=%#x idx=%d local=%d n=%d status=%d err=%v", addr, idx, local, n, status, err)
	return status, nil
}

// WriteBytes implements the address decoder's write path (§4.3). Writes to
// the info region are silently discarded. The returned int32 is the
// device's own write_bytes status, forwarded unchanged.
func (m *Motherboard) WriteBytes(addr uint64, src []byte) (int32, error) {
	if uint64(len(src)) > maxRequestLen {
		return 0, ErrOversizedRequest
	}

	idx, local := splitGlobalAddr(addr)

	if idx == infoTag {
		return 0, nil
	}

	dev, ok := m.ramMappedDevice(idx)
	if !ok {
		return 0, nil
	}

	// Clamp to the remaining local window. Saturates at zero rather than
	// underflowing when local is already past export_memory_size (§9,
	// resolved open question).
	n := clampToCount(uint32(len(src)), remainingWindow(local, dev.ExportMemorySize))
	status, err := dev.callWriteBytes(local, n, src)
	debug.Writef("motherboard.decode", "write addr=%#x idx=%d local=%d n=%d status=%d err=%v", addr, idx, local, n, status, err)
	return status, nil
}

func clampToCount(requested, limit uint32) uint32 {
	if requested > limit {
		return limit
	}
	return requested
}

// remainingWindow returns the number of addressable bytes left in a
// device's export window starting at local, saturating at zero instead of
// wrapping when local has already run past size.
func remainingWindow(local, size uint32) uint32 {
	if local >= size {
		return 0
	}
	return size - local
}

// readInfoRegion copies info_block[local..min(local+n, len(info_block))]
// into dest, leaving any remaining destination bytes untouched (§4.2, §8).
func (m *Motherboard) readInfoRegion(local uint32, dest []byte) {
	m.mu.RLock()
	block := m.infoBlock
	m.mu.RUnlock()

	if int(local) >= len(block) {
		return
	}
	copy(dest, block[local:])
}
