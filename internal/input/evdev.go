//go:build linux

package input

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"
)

// inputEvent mirrors struct input_event on 64-bit Linux.
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

const inputEventSize = 24

// absInfo mirrors struct input_absinfo.
type absInfo struct {
	Value      int32
	Minimum    int32
	Maximum    int32
	Fuzz       int32
	Flat       int32
	Resolution int32
}

// ioctl request encoding for the evdev 'E' ioctls (_IOC with _IOC_READ).
func eviocRead(nr, size uintptr) uintptr {
	const (
		iocNRShift   = 0
		iocTypeShift = 8
		iocSizeShift = 16
		iocDirShift  = 30
		iocReadDir   = 2
	)
	return iocReadDir<<iocDirShift | size<<iocSizeShift | 'E'<<iocTypeShift | nr<<iocNRShift
}

func eviocgname(size uintptr) uintptr { return eviocRead(0x06, size) }
func eviocgsw(size uintptr) uintptr   { return eviocRead(0x1b, size) }
func eviocgbit(ev, size uintptr) uintptr {
	return eviocRead(0x20+ev, size)
}
func eviocgabs(abs uintptr) uintptr {
	return eviocRead(0x40+abs, unsafe.Sizeof(absInfo{}))
}

// device is one opened evdev node.
type device struct {
	f    *os.File
	name string
	seat Seat
	mt   *mtDecoder // non-nil for the touch digitizer
	lid  bool       // carries a lid switch
}

// openDevice opens an event node nonblocking and classifies it by its
// advertised capabilities.
func openDevice(path string, stripW, stripH int) (*device, error) {
	f, err := os.OpenFile(path, os.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, err
	}
	fd := f.Fd()

	var nameBuf [256]byte
	if err := ioctlBuf(fd, eviocgname(uintptr(len(nameBuf))), nameBuf[:]); err != nil {
		f.Close()
		return nil, fmt.Errorf("EVIOCGNAME %s: %w", path, err)
	}
	name := string(bytes.TrimRight(nameBuf[:], "\x00"))

	var evBits [4]byte // EV_MAX is 0x1f
	if err := ioctlBuf(fd, eviocgbit(0, uintptr(len(evBits))), evBits[:]); err != nil {
		f.Close()
		return nil, fmt.Errorf("EVIOCGBIT %s: %w", path, err)
	}

	d := &device{f: f, name: name}
	switch {
	case strings.Contains(name, " Touch Bar") && bitSet(evBits[:], evAbs):
		d.seat = SeatTouchBar
		ranges, err := touchRanges(fd)
		if err != nil {
			f.Close()
			return nil, err
		}
		d.mt = newMTDecoder(ranges, stripW, stripH)
	case bitSet(evBits[:], evSw):
		d.seat = SeatMain
		d.lid = true
	case bitSet(evBits[:], evKey) || bitSet(evBits[:], evRel):
		d.seat = SeatMain
	default:
		f.Close()
		return nil, fmt.Errorf("%s (%s): no usable capabilities", path, name)
	}
	return d, nil
}

// currentLidClosed reads the present switch state so a daemon started with
// the lid already shut does not light the strip.
func (d *device) currentLidClosed() (bool, error) {
	var swBits [2]byte
	if err := ioctlBuf(d.f.Fd(), eviocgsw(uintptr(len(swBits))), swBits[:]); err != nil {
		return false, err
	}
	return bitSet(swBits[:], swLid), nil
}

func touchRanges(fd uintptr) (mtRanges, error) {
	var x, y absInfo
	if err := ioctlPtr(fd, eviocgabs(absMtPositionX), unsafe.Pointer(&x)); err != nil {
		return mtRanges{}, fmt.Errorf("EVIOCGABS x: %w", err)
	}
	if err := ioctlPtr(fd, eviocgabs(absMtPositionY), unsafe.Pointer(&y)); err != nil {
		return mtRanges{}, fmt.Errorf("EVIOCGABS y: %w", err)
	}
	return mtRanges{
		xMin: x.Minimum, xMax: x.Maximum,
		yMin: y.Minimum, yMax: y.Maximum,
	}, nil
}

func bitSet(bits []byte, bit int) bool {
	if bit/8 >= len(bits) {
		return false
	}
	return bits[bit/8]&(1<<(bit%8)) != 0
}

func ioctlBuf(fd, req uintptr, buf []byte) error {
	return ioctlPtr(fd, req, unsafe.Pointer(&buf[0]))
}

func ioctlPtr(fd, req uintptr, p unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, req, uintptr(p))
	if errno != 0 {
		return errno
	}
	return nil
}

// decode parses as many complete input events as the buffer holds.
func decodeEvents(buf []byte) []inputEvent {
	n := len(buf) / inputEventSize
	events := make([]inputEvent, 0, n)
	reader := bytes.NewReader(buf)
	for i := 0; i < n; i++ {
		var ev inputEvent
		if err := binary.Read(reader, binary.LittleEndian, &ev); err != nil {
			break
		}
		events = append(events, ev)
	}
	return events
}
