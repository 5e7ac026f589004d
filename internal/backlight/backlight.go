// Package backlight tracks user activity and lid state and drives the strip's
// backlight brightness through dim and off timeouts, optionally tracking the
// main display's brightness through a perceptual curve.
package backlight

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"
)

const (
	// MaxDisplayBrightness is the main panel's brightness range upper bound,
	// the domain of the adaptive lookup table.
	MaxDisplayBrightness = 509

	// MaxStripBrightness is the strip backlight's native range upper bound.
	MaxStripBrightness = 255

	// DimmedBrightness is the level used between the dim and off timeouts.
	DimmedBrightness = 1

	// Both timeouts are integer multiples of the coordinator's poll interval.
	DimTimeout = 30 * time.Second
	OffTimeout = 60 * time.Second
)

// Params configures a Manager. The brightness handle is opened by the caller
// before privileges are dropped; the Manager only writes to it.
type Params struct {
	Strip            io.Writer
	MaxBrightness    int // device-reported maximum, clamps every write
	ActiveBrightness int // level while active (curve peak in adaptive mode)
	Initial          int // brightness at startup, suppresses the first write

	// ReadDisplay returns the main display's current brightness. Required
	// when Adaptive is set.
	ReadDisplay func() (int, error)
	Adaptive    bool

	Logger *slog.Logger
}

// Manager is the backlight state machine. It is driven once per event loop
// tick and stamped on every input event.
type Manager struct {
	strip       io.Writer
	max         int
	active      int
	adaptive    bool
	readDisplay func() (int, error)
	logger      *slog.Logger

	lookup     [MaxDisplayBrightness + 1]int
	lastActive time.Time
	lidClosed  bool
	current    int
}

// New builds a Manager and precomputes the adaptive lookup table.
func New(p Params, now time.Time) *Manager {
	m := &Manager{
		strip:       p.Strip,
		max:         p.MaxBrightness,
		active:      p.ActiveBrightness,
		adaptive:    p.Adaptive && p.ReadDisplay != nil,
		readDisplay: p.ReadDisplay,
		logger:      p.Logger,
		lastActive:  now,
		current:     p.Initial,
	}
	if m.max <= 0 {
		m.max = MaxStripBrightness
	}
	m.rebuildLookup()
	return m
}

// Reconfigure applies reloaded brightness settings: a new active level and
// whether adaptive tracking is on. The display reader handle itself is opened
// once at startup and kept.
func (m *Manager) Reconfigure(activeBrightness int, adaptive bool) {
	m.active = activeBrightness
	m.adaptive = adaptive && m.readDisplay != nil
	m.rebuildLookup()
}

func (m *Manager) rebuildLookup() {
	for i := 0; i <= MaxDisplayBrightness; i++ {
		normalized := float64(i) / MaxDisplayBrightness
		// The square root compensates for the perceptual mismatch between
		// the two panels; the +1 keeps the strip from reading exactly 0
		// while active, since 0 is reserved as the "ignore touches" state.
		adjusted := int(math.Round(math.Sqrt(normalized)*float64(m.active))) + 1
		m.lookup[i] = clamp(adjusted, 1, MaxStripBrightness)
	}
}

// Stamp records user activity at the given time.
func (m *Manager) Stamp(now time.Time) {
	m.lastActive = now
}

// SetLid updates the lid state. Opening the lid counts as activity.
func (m *Manager) SetLid(closed bool, now time.Time) {
	m.lidClosed = closed
	m.logger.Info("lid switch", "closed", closed)
	if !closed {
		m.lastActive = now
	}
}

// Update recomputes the target brightness and writes it to the device if it
// differs from the last written value.
func (m *Manager) Update(now time.Time) error {
	target := m.target(now)
	if target == m.current {
		return nil
	}
	m.current = target
	if _, err := fmt.Fprintf(m.strip, "%d\n", target); err != nil {
		return fmt.Errorf("write brightness: %w", err)
	}
	return nil
}

func (m *Manager) target(now time.Time) int {
	if m.lidClosed {
		return 0
	}
	idle := now.Sub(m.lastActive)
	switch {
	case idle < DimTimeout:
		level := m.active
		if m.adaptive {
			display, err := m.readDisplay()
			if err != nil {
				m.logger.Warn("read display brightness", "error", err)
			} else {
				level = m.lookup[clamp(display, 0, MaxDisplayBrightness)]
			}
		}
		return min(level, m.max)
	case idle < OffTimeout:
		return min(DimmedBrightness, m.max)
	default:
		return 0
	}
}

// Current returns the last written brightness. The coordinator treats 0 as an
// authoritative "the strip is dark, ignore touches" signal.
func (m *Manager) Current() int {
	return m.current
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
