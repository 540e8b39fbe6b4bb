package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/camsession/cmd"
	"github.com/smazurov/camsession/internal/api"
	"github.com/smazurov/camsession/internal/capture"
	"github.com/smazurov/camsession/internal/config"
	"github.com/smazurov/camsession/internal/events"
	"github.com/smazurov/camsession/internal/led"
	"github.com/smazurov/camsession/internal/logging"
	"github.com/smazurov/camsession/internal/metrics/exporters"
	"github.com/smazurov/camsession/internal/simulator"
	"github.com/smazurov/camsession/internal/version"
	"github.com/spf13/cobra"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port       string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`
	CORSOrigin string `help:"Allowed CORS origin" default:"*" toml:"server.cors_origin" env:"SERVER_CORS_ORIGIN"`

	// Camera settings
	ProfileFile string `help:"Camera profile file" default:"camera.toml" toml:"camera.profile_file" env:"CAMERA_PROFILE_FILE"`
	AutoStart   bool   `help:"Open the camera on startup" default:"true" toml:"camera.auto_start" env:"CAMERA_AUTO_START"`

	// Capture settings
	CaptureReacquireDelay       string `help:"Wait before reopening a disconnected camera" default:"2s" toml:"capture.reacquire_delay" env:"CAPTURE_REACQUIRE_DELAY"`
	CaptureMaxReacquireAttempts int    `help:"Consecutive reopen attempts, 0 disables" default:"5" toml:"capture.max_reacquire_attempts" env:"CAPTURE_MAX_REACQUIRE_ATTEMPTS"`

	// Simulator settings
	SimulatorFrameInterval string `help:"Interval between simulated frames" default:"33ms" toml:"simulator.frame_interval" env:"SIMULATOR_FRAME_INTERVAL"`
	SimulatorBlackFrames   int    `help:"Black frames at the start of each stream" default:"0" toml:"simulator.black_frames" env:"SIMULATOR_BLACK_FRAMES"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:"admin" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"password" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Features settings
	FeaturesLEDControl bool `help:"Enable LED control" default:"false" toml:"features.led_control_enabled" env:"FEATURES_LED_CONTROL"`

	// Logging settings
	LoggingLevel     string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat    string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingCamera    string `help:"Camera session logging level" default:"info" toml:"logging.camera" env:"LOGGING_CAMERA"`
	LoggingCapture   string `help:"Capture service logging level" default:"info" toml:"logging.capture" env:"LOGGING_CAPTURE"`
	LoggingAPI       string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingHTTP      string `help:"HTTP request logging level" default:"info" toml:"logging.http" env:"LOGGING_HTTP"`
	LoggingLED       string `help:"LED logging level" default:"info" toml:"logging.led" env:"LOGGING_LED"`
	LoggingConfig    string `help:"Config watcher logging level" default:"info" toml:"logging.config" env:"LOGGING_CONFIG"`
	LoggingSimulator string `help:"Simulator logging level" default:"info" toml:"logging.simulator" env:"LOGGING_SIMULATOR"`
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"camera":    opts.LoggingCamera,
				"capture":   opts.LoggingCapture,
				"api":       opts.LoggingAPI,
				"http":      opts.LoggingHTTP,
				"led":       opts.LoggingLED,
				"config":    opts.LoggingConfig,
				"simulator": opts.LoggingSimulator,
			},
		})

		logger := logging.GetLogger("main")
		logger.Info("Starting camsession", "version", version.String())

		eventBus := events.New()

		// Forward log lines to SSE clients
		logging.SetLogCallback(func(entry logging.LogEntry) {
			eventBus.Publish(events.LogEntryEvent{
				Seq:        entry.Seq,
				Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
				Level:      entry.Level,
				Module:     entry.Module,
				Message:    entry.Message,
				Attributes: entry.Attributes,
			})
		})

		var ledManager *led.Manager
		var ledController led.Controller
		var ledIndicator api.LEDIndicator
		if opts.FeaturesLEDControl {
			ledLogger := logging.GetLogger("led")
			ledLogger.Info("LED control enabled, initializing")
			controller, indicator := led.New(ledLogger)
			ledController = controller
			ledManager = led.NewManager(controller, indicator, eventBus, ledLogger)
			ledIndicator = ledManager
		}

		profile, err := config.LoadProfile(opts.ProfileFile)
		if err != nil {
			logger.Warn("Using default camera profile", "path", opts.ProfileFile, "error", err)
			profile = config.DefaultProfile()
		}

		platform := simulator.New(simulator.Options{
			FrameInterval: parseDuration(opts.SimulatorFrameInterval, 33*time.Millisecond),
			BlackFrames:   opts.SimulatorBlackFrames,
		})

		service, err := capture.NewService(platform, profile, eventBus, capture.Config{
			ReacquireDelay:       parseDuration(opts.CaptureReacquireDelay, 2*time.Second),
			MaxReacquireAttempts: opts.CaptureMaxReacquireAttempts,
		})
		if err != nil {
			logger.Error("Failed to create capture service", "error", err)
			os.Exit(1)
		}

		watcher := config.NewConfigWatcher(opts.ProfileFile, config.LoadProfile, logging.GetLogger("config"),
			config.WithErrorHandler[config.Profile](func(err error) {
				logger.Warn("Ignoring invalid camera profile", "path", opts.ProfileFile, "error", err)
			}),
		)
		watcher.OnReload(func(p config.Profile) {
			if applyErr := service.ApplyProfile(p); applyErr != nil {
				logger.Warn("Failed to apply camera profile", "error", applyErr)
			}
		})

		sseExporter := exporters.NewSSEExporter(eventBus)

		server := api.NewServer(&api.Options{
			AuthUsername:      opts.AuthUsername,
			AuthPassword:      opts.AuthPassword,
			CORSOrigin:        opts.CORSOrigin,
			Capture:           service,
			EventBus:          eventBus,
			LEDController:     ledController,
			LEDIndicator:      ledIndicator,
			PrometheusHandler: exporters.HTTPHandler(),
		})

		ctx, cancel := context.WithCancel(context.Background())

		hooks.OnStart(func() {
			if ledManager != nil {
				ledManager.Start()
			}
			sseExporter.Start(ctx)

			if watchErr := watcher.Start(); watchErr != nil {
				logger.Warn("Camera profile hot reload disabled", "path", opts.ProfileFile, "error", watchErr)
			}

			if opts.AutoStart {
				if startErr := service.Start(); startErr != nil {
					logger.Error("Failed to start capture", "error", startErr)
				}
			}

			if _, notifyErr := daemon.SdNotify(false, daemon.SdNotifyReady); notifyErr != nil {
				logger.Debug("sd_notify failed", "error", notifyErr)
			}

			logger.Info("Starting HTTP server", "port", opts.Port)
			if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down server")
			_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}

			// Close the camera after the API stops accepting requests
			service.Close()

			if stopErr := watcher.Stop(); stopErr != nil {
				logger.Warn("Error stopping profile watcher", "error", stopErr)
			}
			sseExporter.Stop()
			cancel()

			if ledManager != nil {
				ledManager.Stop()
			}
		})
	})

	cli.Root().Use = "camsession"
	cli.Root().Version = version.String()
	cli.Root().AddCommand(cmd.CreateProfileCmd())
	cli.Root().AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(c *cobra.Command, _ []string) {
			info := version.Get()
			fmt.Fprintf(c.OutOrStdout(), "camsession %s\ncommit %s\nbuilt %s\n%s %s\n",
				info.Version, info.GitCommit, info.BuildDate, info.GoVersion, info.Platform)
		},
	})

	cli.Run()
}
