package layout

import (
	"image"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fnbar/fnbard/internal/uinput"
)

const (
	testWidth  = 1004
	testHeight = 64
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeEmitter struct {
	events []struct {
		key     uinput.Key
		pressed bool
	}
}

func (f *fakeEmitter) ToggleKey(code uinput.Key, pressed bool) error {
	f.events = append(f.events, struct {
		key     uinput.Key
		pressed bool
	}{code, pressed})
	return nil
}

func stretchLayer(t *testing.T, stretches ...int) *Layer {
	t.Helper()
	buttons := make([]*Button, 0, len(stretches))
	for i, s := range stretches {
		buttons = append(buttons, NewTextButton("B", uinput.Key(59+i), s))
	}
	l, err := NewLayer(testLogger(), buttons)
	require.NoError(t, err)
	return l
}

func TestNewLayerEmpty(t *testing.T) {
	_, err := NewLayer(testLogger(), nil)
	assert.Error(t, err)
}

func TestNewLayerClampsStretch(t *testing.T) {
	l := stretchLayer(t, 0, 1)
	assert.Equal(t, 1, l.Buttons[0].Stretch)
	assert.Equal(t, 2, l.VirtualCount())
}

func TestHit(t *testing.T) {
	// Stretches 1,2,1: four virtual units. unit = (1004 - 3*16)/4 = 239.
	// Button 0 spans [0,239], button 1 [255,749], button 2 [765,1004].
	l := stretchLayer(t, 1, 2, 1)

	tests := []struct {
		name string
		x, y float64
		want int
	}{
		{name: "first button", x: 100, y: 32, want: 0},
		{name: "stretch button left half", x: 300, y: 32, want: 1},
		{name: "stretch button right half", x: 700, y: 32, want: 1},
		{name: "stretch button spans its gap", x: 500, y: 32, want: 1},
		{name: "last button", x: 900, y: 32, want: 2},
		{name: "gap between buttons", x: 245, y: 32, want: -1},
		{name: "top margin", x: 100, y: 5, want: -1},
		{name: "bottom margin", x: 100, y: 60, want: -1},
		{name: "past right edge", x: 1500, y: 32, want: -1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, l.Hit(tc.x, tc.y, testWidth, testHeight, -1))
		})
	}
}

func TestHitWithHint(t *testing.T) {
	l := stretchLayer(t, 1, 2, 1)

	// A hinted test only checks the hinted button's span: sliding off it
	// reports a miss even over a neighbor.
	assert.Equal(t, 1, l.Hit(300, 32, testWidth, testHeight, 1))
	assert.Equal(t, -1, l.Hit(100, 32, testWidth, testHeight, 1))
	assert.Equal(t, -1, l.Hit(300, 2, testWidth, testHeight, 1))

	// Stale hints from before a reload are rejected, not indexed.
	assert.Equal(t, -1, l.Hit(300, 32, testWidth, testHeight, 7))
}

func TestSetActiveIdempotent(t *testing.T) {
	em := &fakeEmitter{}
	b := NewTextButton("F1", uinput.KeyF1, 1)

	require.NoError(t, b.SetActive(em, true))
	require.NoError(t, b.SetActive(em, true))
	require.NoError(t, b.SetActive(em, false))
	require.NoError(t, b.SetActive(em, false))

	require.Len(t, em.events, 2)
	assert.Equal(t, uinput.KeyF1, em.events[0].key)
	assert.True(t, em.events[0].pressed)
	assert.False(t, em.events[1].pressed)
}

func TestDrawFullCoversSurface(t *testing.T) {
	r, err := NewRenderer(testHeight)
	require.NoError(t, err)
	l := stretchLayer(t, 1, 1, 1)
	surface := image.NewRGBA(image.Rect(0, 0, testWidth, testHeight))

	dirty := l.Draw(r, surface, testWidth, testHeight, 0, 0, true, true)
	require.Len(t, dirty, 1)
	assert.Equal(t, image.Rect(0, 0, testWidth, testHeight), dirty[0])
	assert.False(t, l.NeedsRedraw())
}

func TestDrawIncremental(t *testing.T) {
	r, err := NewRenderer(testHeight)
	require.NoError(t, err)
	l := stretchLayer(t, 1, 1, 1)
	surface := image.NewRGBA(image.Rect(0, 0, testWidth, testHeight))
	l.Draw(r, surface, testWidth, testHeight, 0, 0, true, true)

	em := &fakeEmitter{}
	require.NoError(t, l.Buttons[1].SetActive(em, true))
	require.True(t, l.NeedsRedraw())

	dirty := l.Draw(r, surface, testWidth, testHeight, 0, 0, true, false)
	require.NotEmpty(t, dirty)
	for _, d := range dirty {
		assert.False(t, d.Empty())
	}
	assert.False(t, l.NeedsRedraw())

	// Nothing changed since: no dirty regions.
	assert.Empty(t, l.Draw(r, surface, testWidth, testHeight, 0, 0, true, false))
}

func TestFallbackSize(t *testing.T) {
	img := Fallback(testWidth, testHeight)
	require.NotNil(t, img)
	assert.Equal(t, image.Rect(0, 0, testWidth, testHeight), img.Bounds())
}
