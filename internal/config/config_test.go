package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fnbar/fnbard/internal/uinput"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.Len(t, cfg.PrimaryLayerKeys, 12)
	assert.Len(t, cfg.MediaLayerKeys, 12)
	assert.Equal(t, 128, cfg.ActiveBrightness)
	assert.True(t, cfg.EnablePixelShift)
	assert.True(t, cfg.AdaptiveBrightness)
	assert.False(t, cfg.MediaLayerDefault)
	assert.Equal(t, "F1", cfg.PrimaryLayerKeys[0].Action)
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
active_brightness: 42
enable_pixel_shift: false
media_layer_default: true
primary_layer_keys:
  - text: Esc
    action: Esc
  - text: Play
    action: PlayPause
    stretch: 2
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.ActiveBrightness)
	assert.False(t, cfg.EnablePixelShift)
	assert.True(t, cfg.MediaLayerDefault)
	require.Len(t, cfg.PrimaryLayerKeys, 2)
	assert.Equal(t, 2, cfg.PrimaryLayerKeys[1].Stretch)
	// Untouched sections keep their defaults.
	assert.Len(t, cfg.MediaLayerKeys, 12)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "activ_brightness: 42\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{name: "defaults", mutate: func(*Config) {}, ok: true},
		{name: "brightness too low", mutate: func(c *Config) { c.ActiveBrightness = 0 }, ok: false},
		{name: "brightness too high", mutate: func(c *Config) { c.ActiveBrightness = 256 }, ok: false},
		{name: "empty layer", mutate: func(c *Config) { c.PrimaryLayerKeys = nil }, ok: false},
		{name: "unknown action", mutate: func(c *Config) {
			c.MediaLayerKeys[0] = ButtonConfig{Text: "X", Action: "Bogus"}
		}, ok: false},
		{name: "no label", mutate: func(c *Config) {
			c.PrimaryLayerKeys[0] = ButtonConfig{Action: "F1"}
		}, ok: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func textOnlyConfig() Config {
	cfg := DefaultConfig()
	cfg.MediaLayerKeys = []ButtonConfig{
		{Text: "Play", Action: "PlayPause"},
		{Text: "Vol+", Action: "VolumeUp"},
	}
	return cfg
}

func TestBuildLayers(t *testing.T) {
	cfg := textOnlyConfig()

	layers, err := cfg.BuildLayers(testLogger())
	require.NoError(t, err)
	assert.Len(t, layers[0].Buttons, 12)
	assert.Len(t, layers[1].Buttons, 2)
	assert.Equal(t, uinput.KeyF1, layers[0].Buttons[0].Action)
	assert.Equal(t, uinput.KeyPlayPause, layers[1].Buttons[0].Action)
}

func TestBuildLayersMediaDefaultSwapsOrder(t *testing.T) {
	cfg := textOnlyConfig()
	cfg.MediaLayerDefault = true

	layers, err := cfg.BuildLayers(testLogger())
	require.NoError(t, err)
	assert.Equal(t, uinput.KeyPlayPause, layers[0].Buttons[0].Action)
	assert.Equal(t, uinput.KeyF1, layers[1].Buttons[0].Action)
}

func TestKeysDeduplicates(t *testing.T) {
	cfg := textOnlyConfig()
	cfg.PrimaryLayerKeys = []ButtonConfig{
		{Text: "A", Action: "VolumeUp"},
		{Text: "B", Action: "VolumeUp"},
	}

	keys := cfg.Keys()
	assert.ElementsMatch(t, []uinput.Key{uinput.KeyVolumeUp, uinput.KeyPlayPause}, keys)
}
