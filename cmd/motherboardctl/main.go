// Command motherboardctl builds a motherboard from a device manifest, boots
// it, halts it, and prints how many slots are filled and the info block's
// ram_count. It does not print per-device rows or the rest of the info
// block. It exists to exercise the library end to end; it is not part of
// the ABI.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/bridgesim/motherboard"
	"github.com/bridgesim/motherboard/internal/debug"
	"github.com/bridgesim/motherboard/internal/sampledevice"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "motherboardctl: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	manifestPath := flag.String("manifest", "", "path to a device manifest YAML file")
	logPath := flag.String("log", "", "optional path to write a structured debug log")
	flag.Parse()

	if *manifestPath == "" {
		return errors.New("missing -manifest")
	}

	if *logPath != "" {
		if err := debug.OpenFile(*logPath); err != nil {
			return fmt.Errorf("open debug log: %w", err)
		}
		defer debug.Close()
	}

	manifest, err := motherboard.LoadManifest(*manifestPath)
	if err != nil {
		return err
	}

	mb := motherboard.New(manifest.Capacity)

	var rams []*sampledevice.RAM
	for _, spec := range manifest.Devices {
		ram, desc := sampledevice.NewDescriptor(spec.ExportMemorySize, spec.DeviceID)
		if err := mb.AddDevice(desc); err != nil {
			return fmt.Errorf("add device %q: %w", spec.Name, err)
		}
		rams = append(rams, ram)
		slog.Info("attached device", "name", spec.Name, "device_id", spec.DeviceID, "export_memory_size", spec.ExportMemorySize)
	}

	bar := progressbar.Default(int64(len(manifest.Devices)), "booting")
	for range rams {
		_ = bar.Add(1)
	}

	done := make(chan error, 1)
	go func() {
		done <- mb.Boot()
	}()

	// Give the boot loop a moment to spin up device threads before we halt
	// it; this is a demo, not a long-running host.
	time.Sleep(50 * time.Millisecond)
	if err := mb.Halt(); err != nil {
		return fmt.Errorf("halt: %w", err)
	}
	if err := <-done; err != nil {
		return fmt.Errorf("boot: %w", err)
	}

	printDeviceTable(mb)
	return nil
}

func printDeviceTable(mb *motherboard.Motherboard) {
	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	}

	fmt.Printf("motherboard: %d/%d slots filled\n", mb.SlotsFilled(), mb.NumSlots())
	fmt.Println(repeat('-', width))

	header := make([]byte, 4)
	if status, err := mb.ReadBytes(0xFFFFFFFF00000010, header); err == nil && status == 0 {
		ramCount := uint32(header[0]) | uint32(header[1])<<8 | uint32(header[2])<<16 | uint32(header[3])<<24
		fmt.Printf("ram_count: %d\n", ramCount)
	}
}

func repeat(b byte, n int) string {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return string(out)
}
