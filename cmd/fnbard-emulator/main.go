// fnbard-emulator runs the real coordinator against an in-memory display and
// synthetic input events, so layouts and touch behavior can be exercised
// without the strip hardware. The mouse acts as a single touch contact and
// holding F stands in for the layer-toggle modifier.
package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/fnbar/fnbard/internal/backlight"
	"github.com/fnbar/fnbard/internal/config"
	"github.com/fnbar/fnbard/internal/coordinator"
	"github.com/fnbar/fnbard/internal/display"
	"github.com/fnbar/fnbard/internal/input"
	"github.com/fnbar/fnbard/internal/uinput"
)

const (
	stripWidth  = 1004
	stripHeight = 64
)

// logEmitter prints key events instead of injecting them into the kernel.
type logEmitter struct {
	logger *slog.Logger
}

func (e *logEmitter) ToggleKey(code uinput.Key, pressed bool) error {
	e.logger.Info("key event", "code", code, "pressed", pressed)
	return nil
}

type game struct {
	mem     *display.Memory
	events  chan<- input.Event
	pressed bool
}

func (g *game) Update() error {
	x, y := ebiten.CursorPosition()
	down := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)

	switch {
	case down && !g.pressed:
		g.send(input.TouchDown, x, y)
	case down && g.pressed:
		g.send(input.TouchMotion, x, y)
	case !down && g.pressed:
		g.send(input.TouchUp, x, y)
	}
	g.pressed = down

	if inpututil.IsKeyJustPressed(ebiten.KeyF) {
		g.sendKey(true)
	}
	if inpututil.IsKeyJustReleased(ebiten.KeyF) {
		g.sendKey(false)
	}
	return nil
}

func (g *game) send(t input.Type, x, y int) {
	select {
	case g.events <- input.Event{
		Seat: input.SeatTouchBar,
		Type: t,
		Slot: 0,
		X:    float64(x),
		Y:    float64(y),
	}:
	default:
	}
}

func (g *game) sendKey(pressed bool) {
	select {
	case g.events <- input.Event{
		Seat:    input.SeatMain,
		Type:    input.KeyPress,
		Code:    uint16(uinput.KeyFn),
		Pressed: pressed,
	}:
	default:
	}
}

func (g *game) Draw(screen *ebiten.Image) {
	frame := ebiten.NewImageFromImage(g.mem.Snapshot())
	screen.DrawImage(frame, nil)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return stripWidth, stripHeight
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// No icon assets on a dev machine; run the stock layout with text
	// stand-ins for the media glyphs.
	cfg := config.DefaultConfig()
	cfg.AdaptiveBrightness = false
	cfg.MediaLayerKeys = []config.ButtonConfig{
		{Text: "BrDn", Action: "BrightnessDown"},
		{Text: "BrUp", Action: "BrightnessUp"},
		{Text: "Mic", Action: "MicMute"},
		{Text: "Prev", Action: "PreviousSong"},
		{Text: "Play", Action: "PlayPause", Stretch: 2},
		{Text: "Next", Action: "NextSong"},
		{Text: "Mute", Action: "Mute"},
		{Text: "Vol-", Action: "VolumeDown"},
		{Text: "Vol+", Action: "VolumeUp"},
	}

	mem := display.NewMemory(stripWidth, stripHeight)
	events := make(chan input.Event, 64)

	bl := backlight.New(backlight.Params{
		Strip:            io.Discard,
		MaxBrightness:    backlight.MaxStripBrightness,
		ActiveBrightness: cfg.ActiveBrightness,
		Initial:          cfg.ActiveBrightness, // pretend the strip is lit
		Logger:           logger,
	}, time.Now())

	coord, err := coordinator.New(coordinator.Params{
		Display:   mem,
		Emitter:   &logEmitter{logger: logger},
		Backlight: bl,
		Events:    events,
		Config:    cfg,
		Logger:    logger,
	})
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := coord.Run(ctx); err != nil {
			logger.Error("coordinator stopped", "error", err)
		}
	}()

	ebiten.SetWindowSize(stripWidth, stripHeight*2)
	ebiten.SetWindowTitle("fnbard emulator")
	if err := ebiten.RunGame(&game{mem: mem, events: events}); err != nil {
		log.Fatal(err)
	}
}
