//go:build linux

package display

import (
	"encoding/binary"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"unsafe"

	"golang.org/x/sys/unix"
)

const fbiogetVscreeninfo = 0x4600 // FBIOGET_VSCREENINFO

// varScreeninfoSize is sizeof(struct fb_var_screeninfo); only the leading
// fields are decoded.
const varScreeninfoSize = 160

// Framebuffer drives the strip through a Linux framebuffer device. The panel
// mode-setting handshake has already happened by the time the node exists;
// all that is left is writing pixels. The kernel may expose the panel in its
// native portrait orientation; rendering stays landscape and Present rotates.
type Framebuffer struct {
	f        *os.File
	width    int // logical landscape
	height   int
	portrait bool
}

// OpenFramebuffer scans /dev/fb* for a strip-shaped panel (much longer than
// wide, either orientation). No matching device is a fatal startup error.
func OpenFramebuffer() (*Framebuffer, error) {
	paths, err := filepath.Glob("/dev/fb*")
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	for _, path := range paths {
		fb, err := tryOpen(path)
		if err == nil {
			return fb, nil
		}
	}
	return nil, fmt.Errorf("no strip display device found")
}

// stripGeometry classifies a mode as a strip panel and normalizes it to
// landscape. Anything squarer than 20:1 is the main display.
func stripGeometry(xres, yres int) (width, height int, portrait, ok bool) {
	long, short := xres, yres
	if yres > xres {
		long, short = yres, xres
	}
	if short == 0 || long/short < 20 {
		return 0, 0, false, false
	}
	return long, short, yres > xres, true
}

func tryOpen(path string) (*Framebuffer, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	var info [varScreeninfoSize]byte
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), fbiogetVscreeninfo, uintptr(unsafe.Pointer(&info[0])))
	if errno != 0 {
		f.Close()
		return nil, errno
	}
	xres := int(binary.LittleEndian.Uint32(info[0:]))
	yres := int(binary.LittleEndian.Uint32(info[4:]))
	bpp := int(binary.LittleEndian.Uint32(info[24:]))

	if bpp != 32 {
		f.Close()
		return nil, fmt.Errorf("%s: unsupported depth %d", path, bpp)
	}
	width, height, portrait, ok := stripGeometry(xres, yres)
	if !ok {
		f.Close()
		return nil, fmt.Errorf("%s: %dx%d does not look like a strip", path, xres, yres)
	}

	return &Framebuffer{f: f, width: width, height: height, portrait: portrait}, nil
}

func (fb *Framebuffer) Size() (int, int) {
	return fb.width, fb.height
}

// portraitOffset maps a logical landscape pixel to its byte offset in a
// portrait device buffer of width deviceW: the content is rotated a quarter
// turn, logical x running down the device rows.
func portraitOffset(deviceW, x, y int) int {
	return (x*deviceW + deviceW - 1 - y) * 4
}

// Present maps the device buffer, copies the dirty regions in BGRA order
// (rotating when the device is portrait), and releases the mapping. Copying
// only the submitted regions is what keeps incremental redraws cheap.
func (fb *Framebuffer) Present(frame *image.RGBA, dirty []image.Rectangle) error {
	mem, err := unix.Mmap(int(fb.f.Fd()), 0, fb.width*fb.height*4, unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("map framebuffer: %w", err)
	}
	defer unix.Munmap(mem)

	bounds := image.Rect(0, 0, fb.width, fb.height)
	for _, r := range dirty {
		r = r.Intersect(bounds)
		if fb.portrait {
			fb.copyPortrait(mem, frame, r)
		} else {
			fb.copyLandscape(mem, frame, r)
		}
	}
	return nil
}

func (fb *Framebuffer) copyLandscape(mem []byte, frame *image.RGBA, r image.Rectangle) {
	stride := fb.width * 4
	for y := r.Min.Y; y < r.Max.Y; y++ {
		src := frame.PixOffset(r.Min.X, y)
		dst := y*stride + r.Min.X*4
		for x := r.Min.X; x < r.Max.X; x++ {
			mem[dst] = frame.Pix[src+2] // B
			mem[dst+1] = frame.Pix[src+1]
			mem[dst+2] = frame.Pix[src] // R
			mem[dst+3] = 0xff
			src += 4
			dst += 4
		}
	}
}

func (fb *Framebuffer) copyPortrait(mem []byte, frame *image.RGBA, r image.Rectangle) {
	deviceW := fb.height
	for y := r.Min.Y; y < r.Max.Y; y++ {
		src := frame.PixOffset(r.Min.X, y)
		for x := r.Min.X; x < r.Max.X; x++ {
			dst := portraitOffset(deviceW, x, y)
			mem[dst] = frame.Pix[src+2] // B
			mem[dst+1] = frame.Pix[src+1]
			mem[dst+2] = frame.Pix[src] // R
			mem[dst+3] = 0xff
			src += 4
		}
	}
}

func (fb *Framebuffer) Close() error {
	return fb.f.Close()
}
