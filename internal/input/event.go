// Package input reads the kernel evdev streams for the two logical seats,
// decodes multitouch and keyboard traffic, and hands normalized events to the
// event loop over a channel.
package input

// Seat identifies which logical input seat an event arrived on.
type Seat int

const (
	SeatTouchBar Seat = iota
	SeatMain
)

// Type discriminates Event payloads.
type Type int

const (
	// DeviceAdded reports a newly opened input device by name.
	DeviceAdded Type = iota
	// KeyPress is a keyboard key state change on any device.
	KeyPress
	// Pointer is relative pointer or gesture traffic; it carries no payload
	// and exists only to stamp backlight activity.
	Pointer
	// TouchDown, TouchMotion and TouchUp are per-slot digitizer contacts
	// with positions scaled to strip pixel coordinates.
	TouchDown
	TouchMotion
	TouchUp
	// LidSwitch reports the lid state.
	LidSwitch
)

// Event is one normalized input event.
type Event struct {
	Seat Seat
	Type Type

	Name string // DeviceAdded

	Code    uint16 // KeyPress: key code
	Pressed bool   // KeyPress

	Slot int     // Touch*
	X, Y float64 // Touch*: strip pixel coordinates

	LidClosed bool // LidSwitch
}

// Linux input event type/code constants (input-event-codes.h).
const (
	evSyn = 0x00
	evKey = 0x01
	evRel = 0x02
	evAbs = 0x03
	evSw  = 0x05

	synReport = 0x00
	swLid     = 0x00

	absMtSlot       = 0x2f
	absMtPositionX  = 0x35
	absMtPositionY  = 0x36
	absMtTrackingID = 0x39
)
