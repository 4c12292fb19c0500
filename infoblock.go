package motherboard

import "encoding/binary"

// globalInfoAddr renders an offset within the info block as a global
// address, tagged with the info-region marker in the upper 32 bits (§6.3).
func globalInfoAddr(offset uint32) uint64 {
	return uint64(infoTag)<<32 | uint64(offset)
}

// rebuildRAMMappings resets ram_mappings and appends each memory-mapping
// device's index in iteration order (§4.6 step 4).
func (m *Motherboard) rebuildRAMMappings() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ramMappings = m.ramMappings[:0]
	for i, d := range m.devices {
		if d.DeviceType.MemoryMapped() {
			m.ramMappings = append(m.ramMappings, i)
		}
	}
}

// rebuildInfoBlock rebuilds info_block from devices and the freshly built
// ram_mappings, per the binary layout in §6.3. It must run after
// rebuildRAMMappings.
func (m *Motherboard) rebuildInfoBlock() {
	m.mu.Lock()
	defer m.mu.Unlock()

	ramCount := uint32(len(m.ramMappings))
	devCount := uint32(len(m.devices))

	ramTableOffset := uint32(0x10)
	devTableOffset := ramTableOffset + 4 + 4*ramCount

	size := 8 + 8 + 4 + 4*int(ramCount) + 4 + (8+4+4)*int(devCount)
	buf := make([]byte, size)

	binary.LittleEndian.PutUint64(buf[0x00:0x08], globalInfoAddr(ramTableOffset))
	binary.LittleEndian.PutUint64(buf[0x08:0x10], globalInfoAddr(devTableOffset))
	binary.LittleEndian.PutUint32(buf[0x10:0x14], ramCount)

	off := 0x14
	for _, devIdx := range m.ramMappings {
		binary.LittleEndian.PutUint32(buf[off:off+4], m.devices[devIdx].ExportMemorySize)
		off += 4
	}

	binary.LittleEndian.PutUint32(buf[off:off+4], devCount)
	off += 4

	ramIndex := make(map[int]uint32, len(m.ramMappings))
	for i, devIdx := range m.ramMappings {
		ramIndex[devIdx] = uint32(i)
	}

	for i, d := range m.devices {
		binary.LittleEndian.PutUint64(buf[off:off+8], uint64(d.DeviceType))
		off += 8
		binary.LittleEndian.PutUint32(buf[off:off+4], d.DeviceID)
		off += 4
		// ram_index is the 0-based position within the RAM mapping table,
		// or 0 for non-mapping devices. This collides with a genuine
		// index 0 on the wire; preserved deliberately (§9).
		binary.LittleEndian.PutUint32(buf[off:off+4], ramIndex[i])
		off += 4
	}

	m.infoBlock = buf
}
