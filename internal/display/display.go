// Package display abstracts the strip's panel as a writable pixel buffer plus
// a dirty-region submission operation. The real backend maps a framebuffer
// device; the memory backend backs tests and the desktop emulator.
package display

import "image"

// Backend is the opaque display the coordinator renders into.
//
// Present copies the given regions of the frame into the device's pixel
// buffer and marks them dirty. The device mapping is acquired and released
// within the call; nothing outside the implementation holds it.
type Backend interface {
	Size() (width, height int)
	Present(frame *image.RGBA, dirty []image.Rectangle) error
	Close() error
}
