package backlight

import (
	"bytes"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestIdleTimeouts(t *testing.T) {
	start := time.Now()

	tests := []struct {
		name string
		idle time.Duration
		want int
	}{
		{name: "fresh activity", idle: 0, want: 128},
		{name: "just before dim", idle: DimTimeout - time.Second, want: 128},
		{name: "dimmed", idle: 45 * time.Second, want: DimmedBrightness},
		{name: "off", idle: 70 * time.Second, want: 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			m := New(Params{
				Strip:            &buf,
				MaxBrightness:    MaxStripBrightness,
				ActiveBrightness: 128,
				Initial:          -1, // force the first write
				Logger:           testLogger(),
			}, start)

			require.NoError(t, m.Update(start.Add(tc.idle)))
			assert.Equal(t, tc.want, m.Current())
		})
	}
}

func TestLidClosedForcesOff(t *testing.T) {
	start := time.Now()
	var buf bytes.Buffer
	m := New(Params{
		Strip:            &buf,
		MaxBrightness:    MaxStripBrightness,
		ActiveBrightness: 128,
		Initial:          128,
		Logger:           testLogger(),
	}, start)

	m.SetLid(true, start)
	require.NoError(t, m.Update(start))
	assert.Equal(t, 0, m.Current())
	assert.Equal(t, "0\n", buf.String())

	// Opening the lid counts as activity and restores the active level.
	m.SetLid(false, start.Add(90*time.Second))
	require.NoError(t, m.Update(start.Add(90*time.Second)))
	assert.Equal(t, 128, m.Current())
}

func TestAdaptiveTracksDisplay(t *testing.T) {
	start := time.Now()
	display := 0

	var buf bytes.Buffer
	m := New(Params{
		Strip:            &buf,
		MaxBrightness:    MaxStripBrightness,
		ActiveBrightness: 200,
		Initial:          -1,
		ReadDisplay:      func() (int, error) { return display, nil },
		Adaptive:         true,
		Logger:           testLogger(),
	}, start)

	// Display fully bright: sqrt(1)*200 + 1.
	display = MaxDisplayBrightness
	require.NoError(t, m.Update(start))
	assert.Equal(t, 201, m.Current())

	// Display dark: the strip still never drops to zero while active.
	display = 0
	require.NoError(t, m.Update(start))
	assert.Equal(t, 1, m.Current())

	// Quarter display brightness maps through the perceptual curve.
	display = MaxDisplayBrightness / 4
	require.NoError(t, m.Update(start))
	assert.InDelta(t, 101, m.Current(), 2)
}

func TestWriteSuppression(t *testing.T) {
	start := time.Now()
	var buf bytes.Buffer
	m := New(Params{
		Strip:            &buf,
		MaxBrightness:    MaxStripBrightness,
		ActiveBrightness: 128,
		Initial:          -1,
		Logger:           testLogger(),
	}, start)

	require.NoError(t, m.Update(start))
	require.NoError(t, m.Update(start.Add(time.Second)))
	require.NoError(t, m.Update(start.Add(2*time.Second)))

	assert.Equal(t, "128\n", buf.String())
}

func TestStampResetsIdle(t *testing.T) {
	start := time.Now()
	var buf bytes.Buffer
	m := New(Params{
		Strip:            &buf,
		MaxBrightness:    MaxStripBrightness,
		ActiveBrightness: 128,
		Initial:          128,
		Logger:           testLogger(),
	}, start)

	m.Stamp(start.Add(50 * time.Second))
	require.NoError(t, m.Update(start.Add(60*time.Second)))
	assert.Equal(t, 128, m.Current())
}

func TestReconfigureRebuildsCurve(t *testing.T) {
	start := time.Now()
	var buf bytes.Buffer
	m := New(Params{
		Strip:            &buf,
		MaxBrightness:    MaxStripBrightness,
		ActiveBrightness: 100,
		Initial:          -1,
		ReadDisplay:      func() (int, error) { return MaxDisplayBrightness, nil },
		Adaptive:         true,
		Logger:           testLogger(),
	}, start)

	require.NoError(t, m.Update(start))
	assert.Equal(t, 101, m.Current())

	m.Reconfigure(50, true)
	require.NoError(t, m.Update(start))
	assert.Equal(t, 51, m.Current())

	m.Reconfigure(50, false)
	require.NoError(t, m.Update(start))
	assert.Equal(t, 50, m.Current())
}
