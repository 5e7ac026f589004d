package pixelshift

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateNotDueReturnsRemaining(t *testing.T) {
	now := time.Now()
	m := New(now)

	changed, due := m.Update(now.Add(3 * time.Second))
	assert.False(t, changed)
	assert.Equal(t, 7*time.Second, due)
}

func TestUpdateEntersAnimationAfterInterval(t *testing.T) {
	now := time.Now()
	m := New(now)

	changed, due := m.Update(now.Add(interval))
	require.True(t, changed)
	assert.Equal(t, animationInterval, due)
	assert.Equal(t, stateShiftingSubpixel, m.state)
}

// TestSweepStaysInBounds runs the state machine through several full sweeps
// and checks that the projected offsets never leave the reserved headroom.
func TestSweepStaysInBounds(t *testing.T) {
	now := time.Now()
	m := New(now)

	for i := 0; i < 20000; i++ {
		_, due := m.Update(now)
		now = now.Add(due)

		x, y := m.Get()
		assert.GreaterOrEqual(t, x, float64(-ShiftWidth/2)-1)
		assert.LessOrEqual(t, x, float64(ShiftWidth/2)+1)
		assert.GreaterOrEqual(t, y, float64(-shiftHeight/2)-1)
		assert.LessOrEqual(t, y, float64(shiftHeight/2)+1)

		require.GreaterOrEqual(t, m.pixelProgress, 0)
		require.LessOrEqual(t, m.pixelProgress, ShiftWidth)
	}
}

// TestSweepReversesAtBoundary drives the machine until it reaches a boundary
// and checks the direction flips and the prolonged wait kicks in.
func TestSweepReversesAtBoundary(t *testing.T) {
	now := time.Now()
	m := New(now)
	m.pixelProgress = ShiftWidth - 1
	m.direction = 1

	for i := 0; i < 1000 && m.state != stateWaitingAtEnd; i++ {
		_, due := m.Update(now)
		now = now.Add(due)
	}
	require.Equal(t, stateWaitingAtEnd, m.state)
	assert.Equal(t, ShiftWidth, m.pixelProgress)
	assert.Equal(t, -1, m.direction)

	// The loop already advanced now past the prolonged hold, so the next
	// update resumes the sweep in the opposite direction.
	changed, _ := m.Update(now)
	require.True(t, changed)
	assert.Equal(t, stateNormal, m.state)
}
