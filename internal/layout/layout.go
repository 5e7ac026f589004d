// Package layout holds the button/layer model for the strip: stretch-aware
// placement, touch hit-testing, and dirty-rectangle rendering. It performs no
// device I/O; key emission goes through the KeyEmitter interface.
package layout

import (
	"fmt"
	"image"
	"log/slog"
	"math"

	"github.com/fnbar/fnbard/internal/pixelshift"
	"github.com/fnbar/fnbard/internal/uinput"
)

// KeyEmitter is the virtual input device a button reports presses through.
type KeyEmitter interface {
	ToggleKey(code uinput.Key, pressed bool) error
}

const (
	// buttonSpacing is the gap between adjacent buttons in pixels.
	buttonSpacing = 16.0

	// shiftReserve is the horizontal headroom left for anti-burn-in shifting.
	shiftReserve = pixelshift.ShiftWidth

	// Touches within 10% of the strip's top or bottom edge never hit.
	hitMarginFrac = 0.1
)

// Button is one virtual function key. Width is proportional to Stretch in
// virtual units, so a single button can span several unit slots.
type Button struct {
	Action  uinput.Key
	Text    string
	Icon    *Icon
	Stretch int

	virtualStart int
	active       bool
	changed      bool
	lastRect     image.Rectangle
}

// NewTextButton builds a label button.
func NewTextButton(text string, action uinput.Key, stretch int) *Button {
	return &Button{Text: text, Action: action, Stretch: stretch}
}

// NewIconButton builds an icon button.
func NewIconButton(icon *Icon, action uinput.Key, stretch int) *Button {
	return &Button{Icon: icon, Action: action, Stretch: stretch}
}

// SetActive flips the pressed state and emits the matching key event. It is
// idempotent: repeating the current state emits nothing.
func (b *Button) SetActive(emitter KeyEmitter, pressed bool) error {
	if b.active == pressed {
		return nil
	}
	b.active = pressed
	b.changed = true
	return emitter.ToggleKey(b.Action, pressed)
}

// Active reports whether the button is currently pressed.
func (b *Button) Active() bool {
	return b.active
}

// Layer is one full row of buttons, ordered left to right.
type Layer struct {
	Buttons      []*Button
	virtualCount int
}

// NewLayer validates the button row and precomputes virtual positions.
// An empty layer is a configuration error; stretch values below 1 are
// clamped with a warning.
func NewLayer(logger *slog.Logger, buttons []*Button) (*Layer, error) {
	if len(buttons) == 0 {
		return nil, fmt.Errorf("layer has no buttons")
	}
	start := 0
	for i, b := range buttons {
		if b.Stretch < 1 {
			logger.Warn("button stretch below 1, clamping", "button", i, "stretch", b.Stretch)
			b.Stretch = 1
		}
		b.virtualStart = start
		start += b.Stretch
	}
	return &Layer{Buttons: buttons, virtualCount: start}, nil
}

// VirtualCount returns the layer's total width in virtual units.
func (l *Layer) VirtualCount() int {
	return l.virtualCount
}

// NeedsRedraw reports whether any button changed since the last draw.
func (l *Layer) NeedsRedraw() bool {
	for _, b := range l.Buttons {
		if b.changed {
			return true
		}
	}
	return false
}

// hitSpan is the horizontal span a button occupies for touch purposes.
// Touch geometry ignores the pixel-shift offset: buttons are a full unit
// column wide regardless of where the content currently sits.
func (l *Layer) hitSpan(i int, width int) (left, right float64) {
	unit := (float64(width) - buttonSpacing*float64(l.virtualCount-1)) / float64(l.virtualCount)
	b := l.Buttons[i]
	left = float64(b.virtualStart) * (unit + buttonSpacing)
	right = left + unit*float64(b.Stretch) + buttonSpacing*float64(b.Stretch-1)
	return left, right
}

// Hit resolves a touch position to a button index, or -1.
//
// With a hint (motion or release on a tracked touch), only the hinted
// button's current span is re-tested; its bounds may have moved if the layer
// was rebuilt with different stretches. Without a hint, the virtual unit
// column under x is resolved to the owning button.
func (l *Layer) Hit(x, y float64, width, height int, hint int) int {
	if y < hitMarginFrac*float64(height) || y > (1-hitMarginFrac)*float64(height) {
		return -1
	}

	if hint >= 0 {
		if hint >= len(l.Buttons) {
			return -1
		}
		left, right := l.hitSpan(hint, width)
		if x >= left && x <= right {
			return hint
		}
		return -1
	}

	unit := (float64(width) - buttonSpacing*float64(l.virtualCount-1)) / float64(l.virtualCount)
	col := int(x / (unit + buttonSpacing))
	if col < 0 || col >= l.virtualCount {
		return -1
	}
	// Owning button: the one with the largest virtualStart <= col.
	idx := -1
	for i, b := range l.Buttons {
		if b.virtualStart <= col {
			idx = i
		}
	}
	if idx < 0 {
		return -1
	}
	left, right := l.hitSpan(idx, width)
	if x < left || x > right {
		return -1 // in the spacing gap
	}
	return idx
}

// renderRect is the full-height column a button's pixels can land in,
// including pixel-shift headroom. Used as the erase footprint.
func (l *Layer) renderRect(i int, width, height int, shiftX float64) image.Rectangle {
	unit := (float64(width-shiftReserve) - buttonSpacing*float64(l.virtualCount-1)) / float64(l.virtualCount)
	b := l.Buttons[i]
	left := math.Floor(float64(b.virtualStart)*(unit+buttonSpacing)) + shiftX + shiftReserve/2
	w := math.Ceil(unit*float64(b.Stretch) + buttonSpacing*float64(b.Stretch-1))
	return image.Rect(int(left), 0, int(left+w), height)
}
