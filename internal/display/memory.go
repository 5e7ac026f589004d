package display

import (
	"image"
	"image/draw"
	"sync"
)

// Memory is an in-process backend used by tests and the desktop emulator. It
// keeps the last presented frame and records every dirty region submitted.
type Memory struct {
	mu     sync.Mutex
	frame  *image.RGBA
	dirty  []image.Rectangle
	width  int
	height int
}

func NewMemory(width, height int) *Memory {
	return &Memory{
		frame:  image.NewRGBA(image.Rect(0, 0, width, height)),
		width:  width,
		height: height,
	}
}

func (m *Memory) Size() (int, int) {
	return m.width, m.height
}

func (m *Memory) Present(frame *image.RGBA, dirty []image.Rectangle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	bounds := m.frame.Bounds()
	for _, r := range dirty {
		r = r.Intersect(bounds)
		draw.Draw(m.frame, r, frame, r.Min, draw.Src)
		m.dirty = append(m.dirty, r)
	}
	return nil
}

// Snapshot returns a copy of the current frame.
func (m *Memory) Snapshot() *image.RGBA {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := image.NewRGBA(m.frame.Bounds())
	copy(out.Pix, m.frame.Pix)
	return out
}

// DirtyLog returns every region presented so far and clears the log.
func (m *Memory) DirtyLog() []image.Rectangle {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.dirty
	m.dirty = nil
	return out
}

func (m *Memory) Close() error {
	return nil
}
