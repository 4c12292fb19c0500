package motherboard

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest describes a motherboard to construct from a host-side device
// configuration file: a slot budget and the set of RAM-backed sample
// devices to attach before boot. Concrete non-RAM device modules (CPUs,
// peripherals) are out of scope for this repo (§1) and are attached by the
// host directly through AddDevice.
type Manifest struct {
	Capacity uint32       `yaml:"capacity"`
	Devices  []DeviceSpec `yaml:"devices"`
}

// DeviceSpec describes one RAM-backed sample device slot in a manifest.
type DeviceSpec struct {
	Name             string `yaml:"name"`
	DeviceID         uint32 `yaml:"device_id"`
	ExportMemorySize uint32 `yaml:"export_memory_size"`
}

// LoadManifest reads and parses a device manifest from path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("motherboard: load manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("motherboard: load manifest %s: %w", path, err)
	}
	return &m, nil
}
