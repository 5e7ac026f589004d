// Package coordinator runs the daemon's single event loop: it owns the
// layers, the rendering surface and the touch tracker, multiplexes input
// against the config watcher and the independent subsystem timers, and drives
// rendering and the backlight once per iteration.
package coordinator

import (
	"context"
	"image"
	"log/slog"
	"time"

	"github.com/fnbar/fnbard/internal/backlight"
	"github.com/fnbar/fnbard/internal/config"
	"github.com/fnbar/fnbard/internal/display"
	"github.com/fnbar/fnbard/internal/input"
	"github.com/fnbar/fnbard/internal/layout"
	"github.com/fnbar/fnbard/internal/pixelshift"
	"github.com/fnbar/fnbard/internal/touch"
	"github.com/fnbar/fnbard/internal/uinput"
)

// PollInterval is the base idle wake period. The backlight timeouts are
// defined as multiples of it.
const PollInterval = 10 * time.Second

// Params wires the coordinator to its collaborators. Every device handle is
// opened by the caller during startup; the coordinator never discovers
// hardware itself, which is what makes it testable against fakes.
type Params struct {
	Display   display.Backend
	Emitter   layout.KeyEmitter
	Backlight *backlight.Manager
	Events    <-chan input.Event
	Config    config.Config
	Watcher   *config.Manager // optional; nil disables hot reload
	Logger    *slog.Logger
}

// Coordinator is the real-time engine. All mutable state below is owned by
// the Run goroutine exclusively.
type Coordinator struct {
	display display.Backend
	emitter layout.KeyEmitter
	bl      *backlight.Manager
	events  <-chan input.Event
	watcher *config.Manager
	logger  *slog.Logger

	cfg      config.Config
	layers   [2]*layout.Layer
	renderer *layout.Renderer
	surface  *image.RGBA
	width    int
	height   int

	tracker     *touch.Tracker
	shift       *pixelshift.Manager // nil when disabled
	activeLayer int
	fullRedraw  bool

	// Layer-toggle modifier state. baseLayer is what the strip shows while
	// the modifier is up; with fn_lock_toggle a tap (no touch during the
	// hold) flips it persistently.
	fnHeld        bool
	touchedDuring bool
	baseLayer     int
}

// New builds the coordinator and its rendering surface from an already
// validated configuration.
func New(p Params) (*Coordinator, error) {
	w, h := p.Display.Size()
	renderer, err := layout.NewRenderer(h)
	if err != nil {
		return nil, err
	}
	layers, err := p.Config.BuildLayers(p.Logger)
	if err != nil {
		return nil, err
	}
	c := &Coordinator{
		display:    p.Display,
		emitter:    p.Emitter,
		bl:         p.Backlight,
		events:     p.Events,
		watcher:    p.Watcher,
		logger:     p.Logger,
		cfg:        p.Config,
		layers:     layers,
		renderer:   renderer,
		surface:    image.NewRGBA(image.Rect(0, 0, w, h)),
		width:      w,
		height:     h,
		tracker:    touch.NewTracker(),
		fullRedraw: true,
	}
	if p.Config.EnablePixelShift {
		c.shift = pixelshift.New(time.Now())
	}
	return c, nil
}

// Run executes the loop until the context is cancelled. Each iteration:
// advance pixel shift, redraw if needed, sleep until the earliest deadline or
// the next event, drain and dispatch everything pending, then update the
// backlight. There is no normal termination path besides cancellation.
func (c *Coordinator) Run(ctx context.Context) error {
	var changes <-chan struct{}
	if c.watcher != nil {
		changes = c.watcher.Changes()
	}

	timer := time.NewTimer(PollInterval)
	defer timer.Stop()

	for {
		timeout := PollInterval
		if c.shift != nil {
			changed, due := c.shift.Update(time.Now())
			if changed {
				c.fullRedraw = true
			}
			if due < timeout {
				timeout = due
			}
		}

		if c.fullRedraw || c.layers[c.activeLayer].NeedsRedraw() {
			c.render()
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(timeout)

		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			c.reload()
		case ev := <-c.events:
			c.handle(ev, time.Now())
			c.drain()
		case <-timer.C:
		}

		if err := c.bl.Update(time.Now()); err != nil {
			c.logger.Warn("backlight update", "error", err)
		}
	}
}

// drain empties the event channel so a frame always reflects every input
// that had arrived before the redraw decision.
func (c *Coordinator) drain() {
	for {
		select {
		case ev := <-c.events:
			c.handle(ev, time.Now())
		default:
			return
		}
	}
}

func (c *Coordinator) render() {
	var shiftX, shiftY float64
	if c.shift != nil {
		shiftX, shiftY = c.shift.Get()
	}
	full := c.fullRedraw
	c.fullRedraw = false
	dirty := c.layers[c.activeLayer].Draw(
		c.renderer, c.surface, c.width, c.height,
		shiftX, shiftY, c.cfg.ShowButtonOutlines, full,
	)
	if len(dirty) == 0 {
		return
	}
	if err := c.display.Present(c.surface, dirty); err != nil {
		c.logger.Warn("present frame", "error", err)
	}
}

func (c *Coordinator) handle(ev input.Event, now time.Time) {
	switch ev.Type {
	case input.KeyPress, input.Pointer:
		c.bl.Stamp(now)
	case input.TouchDown, input.TouchMotion, input.TouchUp:
		// A touch on a dark strip wakes it but must not activate anything.
		c.bl.Stamp(now)
	case input.LidSwitch:
		c.bl.SetLid(ev.LidClosed, now)
		return
	case input.DeviceAdded:
		c.logger.Debug("device added", "seat", ev.Seat, "name", ev.Name)
		return
	}

	switch ev.Type {
	case input.KeyPress:
		if uinput.Key(ev.Code) == uinput.KeyFn {
			c.handleModifier(ev.Pressed)
		}
	case input.TouchDown:
		if c.bl.Current() == 0 {
			return
		}
		if c.fnHeld {
			c.touchedDuring = true
		}
		layer := c.layers[c.activeLayer]
		idx := layer.Hit(ev.X, ev.Y, c.width, c.height, -1)
		if idx < 0 {
			return
		}
		c.tracker.Track(ev.Slot, touch.Ref{Layer: c.activeLayer, Button: idx})
		c.setButton(c.activeLayer, idx, true)
	case input.TouchMotion:
		if c.bl.Current() == 0 {
			return
		}
		ref, ok := c.tracker.Lookup(ev.Slot)
		if !ok {
			return
		}
		hit := c.layers[ref.Layer].Hit(ev.X, ev.Y, c.width, c.height, ref.Button)
		c.setButton(ref.Layer, ref.Button, hit == ref.Button)
	case input.TouchUp:
		ref, ok := c.tracker.Release(ev.Slot)
		if !ok {
			return
		}
		c.setButton(ref.Layer, ref.Button, false)
	}
}

// releaseAll emits a key-up for every button currently held. SetActive is
// idempotent, so released buttons contribute nothing.
func (c *Coordinator) releaseAll() {
	for _, layer := range c.layers {
		for _, b := range layer.Buttons {
			if err := b.SetActive(c.emitter, false); err != nil {
				c.logger.Warn("emit key", "error", err)
			}
		}
	}
}

func (c *Coordinator) setButton(layer, idx int, pressed bool) {
	if idx >= len(c.layers[layer].Buttons) {
		return
	}
	if err := c.layers[layer].Buttons[idx].SetActive(c.emitter, pressed); err != nil {
		c.logger.Warn("emit key", "error", err)
	}
}

// handleModifier implements the layer toggle. Momentary behavior shows the
// secondary layer while held; with fn_lock_toggle a tap with no touch during
// the hold swaps which layer is the resting one.
func (c *Coordinator) handleModifier(pressed bool) {
	if pressed == c.fnHeld {
		return // duplicate edge
	}
	c.fnHeld = pressed
	if pressed {
		c.touchedDuring = false
		c.setLayer(1 - c.baseLayer)
		return
	}
	if c.cfg.FnLockToggle && !c.touchedDuring {
		c.baseLayer = 1 - c.baseLayer
	}
	c.setLayer(c.baseLayer)
}

func (c *Coordinator) setLayer(layer int) {
	if c.activeLayer == layer {
		return
	}
	c.activeLayer = layer
	c.fullRedraw = true
}

// reload swaps in a fresh configuration: new layers, layer 0 active, tracked
// touches from the old arena abandoned, everything repainted. Buttons held
// down at that moment are released first; dropping them with the old arena
// would leave their virtual keys stuck in the kernel.
func (c *Coordinator) reload() {
	cfg, err := c.watcher.Load()
	if err != nil {
		c.logger.Error("config reload failed, keeping previous", "error", err)
		return
	}
	layers, err := cfg.BuildLayers(c.logger)
	if err != nil {
		c.logger.Error("config reload failed, keeping previous", "error", err)
		return
	}
	c.releaseAll()
	c.cfg = cfg
	c.layers = layers
	c.activeLayer = 0
	c.baseLayer = 0
	c.fnHeld = false
	c.tracker.Clear()
	c.fullRedraw = true
	c.bl.Reconfigure(cfg.ActiveBrightness, cfg.AdaptiveBrightness)
	if cfg.EnablePixelShift && c.shift == nil {
		c.shift = pixelshift.New(time.Now())
	} else if !cfg.EnablePixelShift {
		c.shift = nil
	}
	c.logger.Info("configuration reloaded")
}
