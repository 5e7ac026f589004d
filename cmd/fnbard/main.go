package main

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fnbar/fnbard/internal/backlight"
	"github.com/fnbar/fnbard/internal/config"
	"github.com/fnbar/fnbard/internal/coordinator"
	"github.com/fnbar/fnbard/internal/display"
	"github.com/fnbar/fnbard/internal/input"
	"github.com/fnbar/fnbard/internal/layout"
	"github.com/fnbar/fnbard/internal/uinput"
)

const virtualDeviceName = "Function Row Virtual Input Device"

var (
	flagConfig   string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "fnbard",
	Short: "Daemon that renders a virtual function key row on the touch strip",
	RunE:  runDaemon,
	// The daemon has no positional arguments.
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var checkConfigCmd = &cobra.Command{
	Use:   "check-config",
	Short: "Validate the configuration file and exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return err
		}
		fmt.Printf("%s: ok (%d + %d buttons)\n", flagConfig,
			len(cfg.PrimaryLayerKeys), len(cfg.MediaLayerKeys))
		return nil
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", config.DefaultPath, "configuration file path")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level override (error, warn, info, debug)")
	rootCmd.AddCommand(checkConfigCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fnbard: %v\n", err)
		os.Exit(1)
	}
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}

	level := cfg.LogLevel
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	logger, err := setupLogger(level)
	if err != nil {
		return err
	}

	// Everything below is a fatal startup error: nothing has been rendered
	// yet, so aborting with a diagnostic is the right failure mode.
	disp, err := display.OpenFramebuffer()
	if err != nil {
		return err
	}
	defer disp.Close()
	width, height := disp.Size()
	logger.Info("strip display", "width", width, "height", height)

	strip, err := backlight.OpenStrip()
	if err != nil {
		return err
	}
	defer strip.Close()

	var readDisplay func() (int, error)
	if cfg.AdaptiveBrightness {
		readDisplay, err = backlight.OpenDisplayReader()
		if err != nil {
			return err
		}
	}

	emitter, err := uinput.Create(virtualDeviceName, uinput.AllKeys())
	if err != nil {
		return err
	}
	defer emitter.Close()

	sources, err := input.Open(width, height, logger)
	if err != nil {
		return err
	}
	defer sources.Close()

	// Hot reload is best effort: a missing config directory just means no
	// reload notifications.
	watcher, err := config.NewManager(flagConfig, logger)
	if err != nil {
		logger.Warn("config watch disabled", "error", err)
		watcher = nil
	} else {
		defer watcher.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bl := backlight.New(backlight.Params{
		Strip:            strip.File,
		MaxBrightness:    strip.Max,
		ActiveBrightness: cfg.ActiveBrightness,
		Initial:          strip.Current,
		ReadDisplay:      readDisplay,
		Adaptive:         cfg.AdaptiveBrightness,
		Logger:           logger,
	}, time.Now())

	coord, err := coordinator.New(coordinator.Params{
		Display:   disp,
		Emitter:   emitter,
		Backlight: bl,
		Events:    sources.Events(),
		Config:    cfg,
		Watcher:   watcher,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	logger.Info("fnbard running", "config", flagConfig)
	if err := runGuarded(ctx, coord); err != nil {
		// The loop died unexpectedly. Show the fallback frame so the strip
		// is visibly dead rather than blank or garbled, then park until the
		// supervisor sends a termination signal. Exiting here would just
		// make the supervisor respawn a crash loop.
		logger.Error("event loop failed", "error", err)
		presentFallback(disp, logger)
		<-ctx.Done()
		return err
	}
	return nil
}

// runGuarded is the top-level error boundary around the loop: a panic inside
// is converted into an error instead of unwinding past the fallback path.
func runGuarded(ctx context.Context, coord *coordinator.Coordinator) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in event loop: %v", r)
		}
	}()
	return coord.Run(ctx)
}

func presentFallback(disp display.Backend, logger *slog.Logger) {
	w, h := disp.Size()
	img := layout.Fallback(w, h)
	if err := disp.Present(img, []image.Rectangle{img.Bounds()}); err != nil {
		logger.Error("present fallback frame", "error", err)
	}
}
