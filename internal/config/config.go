// Package config loads the daemon configuration from YAML, builds the two
// button layers from it, and watches the file for hot reload.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fnbar/fnbard/internal/layout"
	"github.com/fnbar/fnbard/internal/uinput"
)

// DefaultPath is where the daemon looks for user configuration.
const DefaultPath = "/etc/fnbard/config.yaml"

// DefaultIconDir holds the built-in media icons.
const DefaultIconDir = "/usr/share/fnbard"

// ButtonConfig describes one button: an action key plus either a text label
// or an icon name, and an optional stretch factor in virtual units.
type ButtonConfig struct {
	Text    string `yaml:"text,omitempty"`
	Icon    string `yaml:"icon,omitempty"`
	Action  string `yaml:"action"`
	Stretch int    `yaml:"stretch,omitempty"`
}

// Config is the user-facing YAML configuration. Defaults are centralized in
// DefaultConfig so the rest of the code can assume a well-formed value.
type Config struct {
	MediaLayerDefault  bool   `yaml:"media_layer_default"`
	ShowButtonOutlines bool   `yaml:"show_button_outlines"`
	EnablePixelShift   bool   `yaml:"enable_pixel_shift"`
	AdaptiveBrightness bool   `yaml:"adaptive_brightness"`
	ActiveBrightness   int    `yaml:"active_brightness"`
	FnLockToggle       bool   `yaml:"fn_lock_toggle"`
	IconDir            string `yaml:"icon_dir"`
	LogLevel           string `yaml:"log_level"`

	PrimaryLayerKeys []ButtonConfig `yaml:"primary_layer_keys"`
	MediaLayerKeys   []ButtonConfig `yaml:"media_layer_keys"`
}

// DefaultConfig returns the stock configuration: F1-F12 on the primary layer
// and the usual media controls on the secondary one.
func DefaultConfig() Config {
	primary := make([]ButtonConfig, 0, 12)
	for i := 1; i <= 12; i++ {
		name := fmt.Sprintf("F%d", i)
		primary = append(primary, ButtonConfig{Text: name, Action: name})
	}
	media := []ButtonConfig{
		{Icon: "brightness_low", Action: "BrightnessDown"},
		{Icon: "brightness_high", Action: "BrightnessUp"},
		{Icon: "mic_off", Action: "MicMute"},
		{Icon: "search", Action: "Search"},
		{Icon: "backlight_low", Action: "IllumDown"},
		{Icon: "backlight_high", Action: "IllumUp"},
		{Icon: "fast_rewind", Action: "PreviousSong"},
		{Icon: "play_pause", Action: "PlayPause"},
		{Icon: "fast_forward", Action: "NextSong"},
		{Icon: "volume_off", Action: "Mute"},
		{Icon: "volume_down", Action: "VolumeDown"},
		{Icon: "volume_up", Action: "VolumeUp"},
	}
	return Config{
		ShowButtonOutlines: true,
		EnablePixelShift:   true,
		AdaptiveBrightness: true,
		ActiveBrightness:   128,
		IconDir:            DefaultIconDir,
		LogLevel:           "info",
		PrimaryLayerKeys:   primary,
		MediaLayerKeys:     media,
	}
}

// Load reads the config file over the defaults. A missing file is fine; the
// defaults stand. Unknown fields are rejected to catch typos.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks config invariants. Empty layers and unknown actions are
// fatal; stretch clamping happens at layer construction with a warning.
func (c *Config) Validate() error {
	if c.ActiveBrightness < 1 || c.ActiveBrightness > 255 {
		return errors.New("active_brightness must be between 1 and 255")
	}
	for name, buttons := range map[string][]ButtonConfig{
		"primary_layer_keys": c.PrimaryLayerKeys,
		"media_layer_keys":   c.MediaLayerKeys,
	} {
		if len(buttons) == 0 {
			return fmt.Errorf("%s must not be empty", name)
		}
		for i, b := range buttons {
			if _, ok := uinput.LookupKey(b.Action); !ok {
				return fmt.Errorf("%s[%d]: unknown action %q", name, i, b.Action)
			}
			if b.Text == "" && b.Icon == "" {
				return fmt.Errorf("%s[%d]: needs a text label or an icon", name, i)
			}
		}
	}
	return nil
}

// BuildLayers constructs the two layers. Layer 0 is the default layer;
// MediaLayerDefault puts the media controls there and the function keys
// behind the modifier.
func (c *Config) BuildLayers(logger *slog.Logger) ([2]*layout.Layer, error) {
	primary, err := c.buildLayer(logger, c.PrimaryLayerKeys)
	if err != nil {
		return [2]*layout.Layer{}, fmt.Errorf("primary_layer_keys: %w", err)
	}
	media, err := c.buildLayer(logger, c.MediaLayerKeys)
	if err != nil {
		return [2]*layout.Layer{}, fmt.Errorf("media_layer_keys: %w", err)
	}
	if c.MediaLayerDefault {
		return [2]*layout.Layer{media, primary}, nil
	}
	return [2]*layout.Layer{primary, media}, nil
}

func (c *Config) buildLayer(logger *slog.Logger, buttons []ButtonConfig) (*layout.Layer, error) {
	built := make([]*layout.Button, 0, len(buttons))
	for i, bc := range buttons {
		action, ok := uinput.LookupKey(bc.Action)
		if !ok {
			return nil, fmt.Errorf("button %d: unknown action %q", i, bc.Action)
		}
		stretch := bc.Stretch
		if stretch == 0 {
			stretch = 1
		}
		if bc.Icon != "" {
			icon, err := layout.LoadIcon(c.IconDir, bc.Icon)
			if err != nil {
				return nil, fmt.Errorf("button %d: %w", i, err)
			}
			built = append(built, layout.NewIconButton(icon, action, stretch))
			continue
		}
		built = append(built, layout.NewTextButton(bc.Text, action, stretch))
	}
	return layout.NewLayer(logger, built)
}

// Keys returns every key code the configured layers can emit, for declaring
// the virtual device's capabilities.
func (c *Config) Keys() []uinput.Key {
	seen := make(map[uinput.Key]bool)
	var keys []uinput.Key
	for _, buttons := range [][]ButtonConfig{c.PrimaryLayerKeys, c.MediaLayerKeys} {
		for _, b := range buttons {
			if k, ok := uinput.LookupKey(b.Action); ok && !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	return keys
}
