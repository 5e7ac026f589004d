package backlight

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const sysfsRoot = "/sys/class/backlight"

// StripDevice is the opened strip backlight: the writable brightness
// attribute plus the range and current value read at discovery time.
type StripDevice struct {
	File    *os.File
	Max     int
	Current int
}

func (d *StripDevice) Close() error {
	return d.File.Close()
}

// OpenStrip locates the strip's backlight (the device name carries
// "display-pipe") and opens its brightness attribute for writing. Missing
// device is a fatal startup error for the daemon.
func OpenStrip() (*StripDevice, error) {
	dir, err := findDevice(func(name string) bool {
		return strings.Contains(name, "display-pipe")
	})
	if err != nil {
		return nil, fmt.Errorf("no strip backlight device found: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "brightness"), os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open brightness: %w", err)
	}
	max, err := readAttr(dir, "max_brightness")
	if err != nil {
		f.Close()
		return nil, err
	}
	current, err := readAttr(dir, "brightness")
	if err != nil {
		f.Close()
		return nil, err
	}
	return &StripDevice{File: f, Max: max, Current: current}, nil
}

// OpenDisplayReader locates the built-in display's backlight (apple-panel-bl)
// and returns a reader for its current brightness. Adaptive mode re-reads the
// attribute on every tick so external brightness changes are tracked.
func OpenDisplayReader() (func() (int, error), error) {
	dir, err := findDevice(func(name string) bool {
		return name == "apple-panel-bl"
	})
	if err != nil {
		return nil, fmt.Errorf("no built-in display backlight device found: %w", err)
	}
	return func() (int, error) {
		return readAttr(dir, "brightness")
	}, nil
}

func findDevice(match func(string) bool) (string, error) {
	entries, err := os.ReadDir(sysfsRoot)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if match(e.Name()) {
			return filepath.Join(sysfsRoot, e.Name()), nil
		}
	}
	return "", fmt.Errorf("no matching device under %s", sysfsRoot)
}

func readAttr(dir, attr string) (int, error) {
	b, err := os.ReadFile(filepath.Join(dir, attr))
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", attr, err)
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", attr, err)
	}
	return v, nil
}
