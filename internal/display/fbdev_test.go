//go:build linux

package display

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripGeometry(t *testing.T) {
	tests := []struct {
		name          string
		xres, yres    int
		width, height int
		portrait      bool
		ok            bool
	}{
		{name: "landscape strip", xres: 2008, yres: 64, width: 2008, height: 64, ok: true},
		{name: "portrait strip", xres: 64, yres: 2008, width: 2008, height: 64, portrait: true, ok: true},
		{name: "main display", xres: 2560, yres: 1600, ok: false},
		{name: "main display portrait", xres: 1600, yres: 2560, ok: false},
		{name: "zero height", xres: 2008, yres: 0, ok: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			width, height, portrait, ok := stripGeometry(tc.xres, tc.yres)
			require.Equal(t, tc.ok, ok)
			if !tc.ok {
				return
			}
			assert.Equal(t, tc.width, width)
			assert.Equal(t, tc.height, height)
			assert.Equal(t, tc.portrait, portrait)
		})
	}
}

func TestPortraitOffset(t *testing.T) {
	// Device 64 wide, logical strip 2008x64. The logical origin lands in
	// the top-right device corner and logical x advances down device rows.
	const deviceW = 64

	assert.Equal(t, (deviceW-1)*4, portraitOffset(deviceW, 0, 0))
	assert.Equal(t, (deviceW+deviceW-1)*4, portraitOffset(deviceW, 1, 0))
	assert.Equal(t, 0, portraitOffset(deviceW, 0, deviceW-1))
	assert.Equal(t, (2007*deviceW)*4, portraitOffset(deviceW, 2007, deviceW-1))

	// Every logical pixel maps to a distinct in-range offset on one row.
	seen := map[int]bool{}
	for y := 0; y < deviceW; y++ {
		off := portraitOffset(deviceW, 5, y)
		assert.False(t, seen[off])
		seen[off] = true
		assert.GreaterOrEqual(t, off, 5*deviceW*4)
		assert.Less(t, off, 6*deviceW*4)
	}
}
