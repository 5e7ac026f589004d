//go:build linux

// Package uinput creates the virtual input device that carries the strip's
// key presses into the rest of the system.
package uinput

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// uinput ioctl requests (linux/uinput.h).
const (
	uiSetEvBit   = 0x40045564 // _IOW('U', 100, int)
	uiSetKeyBit  = 0x40045565 // _IOW('U', 101, int)
	uiDevSetup   = 0x405c5503 // _IOW('U', 3, struct uinput_setup)
	uiDevCreate  = 0x00005501 // _IO('U', 1)
	uiDevDestroy = 0x00005502 // _IO('U', 2)
)

// Event type and code constants (linux/input-event-codes.h).
const (
	evSyn     = 0x00
	evKey     = 0x01
	synReport = 0
)

const devicePath = "/dev/uinput"

type inputID struct {
	Bustype uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

// uinputSetup mirrors struct uinput_setup.
type uinputSetup struct {
	ID           inputID
	Name         [80]byte
	FFEffectsMax uint32
}

// inputEvent mirrors struct input_event on 64-bit Linux.
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

// Device is a created uinput keyboard. It emits key-down/key-up pairs each
// followed by a SYN_REPORT.
type Device struct {
	f *os.File
}

// Create opens /dev/uinput, declares every key code the layers can emit, and
// registers the virtual device with the kernel. Creation failure is a fatal
// startup error for the daemon.
func Create(name string, keys []Key) (*Device, error) {
	f, err := os.OpenFile(devicePath, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", devicePath, err)
	}

	fd := f.Fd()
	if err := ioctl(fd, uiSetEvBit, evKey); err != nil {
		f.Close()
		return nil, fmt.Errorf("UI_SET_EVBIT: %w", err)
	}
	for _, k := range keys {
		if err := ioctl(fd, uiSetKeyBit, uintptr(k)); err != nil {
			f.Close()
			return nil, fmt.Errorf("UI_SET_KEYBIT %d: %w", k, err)
		}
	}

	setup := uinputSetup{
		ID: inputID{
			Bustype: 0x19, // BUS_HOST
			Vendor:  0x1209,
			Product: 0x316e,
			Version: 1,
		},
	}
	copy(setup.Name[:len(setup.Name)-1], name)

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, &setup); err != nil {
		f.Close()
		return nil, fmt.Errorf("encode uinput_setup: %w", err)
	}
	if err := ioctlPtr(fd, uiDevSetup, buf.Bytes()); err != nil {
		f.Close()
		return nil, fmt.Errorf("UI_DEV_SETUP: %w", err)
	}
	if err := ioctl(fd, uiDevCreate, 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("UI_DEV_CREATE: %w", err)
	}

	return &Device{f: f}, nil
}

// ToggleKey emits a key event (pressed or released) followed by a sync event.
func (d *Device) ToggleKey(code Key, pressed bool) error {
	value := int32(0)
	if pressed {
		value = 1
	}
	if err := d.emit(evKey, uint16(code), value); err != nil {
		return err
	}
	return d.emit(evSyn, synReport, 0)
}

func (d *Device) emit(typ, code uint16, value int32) error {
	ev := inputEvent{Type: typ, Code: code, Value: value}
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, &ev); err != nil {
		return err
	}
	if _, err := d.f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write input event: %w", err)
	}
	return nil
}

// Close destroys the virtual device.
func (d *Device) Close() error {
	_ = ioctl(d.f.Fd(), uiDevDestroy, 0)
	return d.f.Close()
}

func ioctl(fd uintptr, req uintptr, arg uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, req, arg)
	if errno != 0 {
		return errno
	}
	return nil
}

func ioctlPtr(fd uintptr, req uintptr, data []byte) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, req, uintptr(unsafe.Pointer(&data[0])))
	if errno != 0 {
		return errno
	}
	return nil
}
