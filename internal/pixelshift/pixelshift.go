// Package pixelshift slowly sweeps the rendered strip content back and forth
// so that no panel pixel stays statically lit. The sweep is slow enough that
// it never reads as animation: one whole-pixel step takes several seconds,
// spread across sub-pixel increments.
package pixelshift

import (
	"math"
	"math/rand"
	"time"
)

// ShiftWidth is the total x range pixels travel over time, half of it to each
// side. The renderer reserves this many pixels of horizontal headroom. The
// minimum safe value is the width of the largest continuous lit run; larger
// values put less strain on the panel.
const ShiftWidth = 22

// shiftHeight is the y range. Icons still need to look centered, so anything
// beyond two pixels each way is too visible.
const shiftHeight = 4

const (
	interval          = 10 * time.Second
	prolongedInterval = 5 * interval // hold time at either sweep boundary
	animationInterval = 200 * time.Millisecond
	animationDuration = 4 * time.Second
)

type state int

const (
	stateNormal state = iota
	stateShiftingSubpixel
	stateWaitingAtEnd
)

// Manager is the free-running anti-burn-in state machine. It is purely
// time-driven; the caller passes the current time into Update.
type Manager struct {
	lastActive       time.Time
	yConstant        float64
	pixelProgress    int
	subpixelProgress float64
	direction        int
	state            state
}

func waitFor(s state) time.Duration {
	switch s {
	case stateShiftingSubpixel:
		return animationInterval
	case stateWaitingAtEnd:
		return prolongedInterval
	default:
		return interval
	}
}

// New seeds the sweep at a random position and with a random x/y phase
// relationship, so the 2-D path differs between runs.
func New(now time.Time) *Manager {
	return &Manager{
		lastActive:    now,
		yConstant:     float64(rand.Intn(shiftHeight * 2)),
		pixelProgress: rand.Intn(ShiftWidth),
		direction:     1,
		state:         stateNormal,
	}
}

// Update advances the state machine. It reports whether the offset changed
// (the caller must redraw) and how long until the next transition is due,
// which the event loop folds into its poll timeout.
func (m *Manager) Update(now time.Time) (bool, time.Duration) {
	wait := waitFor(m.state)
	elapsed := now.Sub(m.lastActive)
	if elapsed < wait {
		return false, wait - elapsed
	}
	m.lastActive = now

	switch m.state {
	case stateNormal:
		m.state = stateShiftingSubpixel
	case stateShiftingSubpixel:
		step := float64(animationInterval) / float64(animationDuration)
		m.subpixelProgress += step * float64(m.direction)
		if m.subpixelProgress <= -0.99 || m.subpixelProgress >= 0.99 {
			m.pixelProgress += m.direction
			m.subpixelProgress = 0
			m.state = stateNormal
			if m.pixelProgress <= 0 || m.pixelProgress >= ShiftWidth {
				m.state = stateWaitingAtEnd
				m.direction = -m.direction
			}
		}
	case stateWaitingAtEnd:
		m.state = stateNormal
		m.subpixelProgress = 0
	}
	return true, waitFor(m.state)
}

// Get projects the current progress into an (x, y) offset pair. X is centered
// on zero; y follows a reflected phase of x so the two never trace the same
// 2-D path twice.
func (m *Manager) Get() (float64, float64) {
	x := float64(m.pixelProgress) + m.subpixelProgress
	y := math.Mod(x+m.yConstant, shiftHeight*2)
	if y > shiftHeight {
		y = shiftHeight*2 - y
	}
	return x - ShiftWidth/2, y - shiftHeight/2
}
