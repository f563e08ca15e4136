package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/dkovalev/camdvr/cmd"
	"github.com/dkovalev/camdvr/internal/api"
	"github.com/dkovalev/camdvr/internal/config"
	"github.com/dkovalev/camdvr/internal/events"
	"github.com/dkovalev/camdvr/internal/logging"
	"github.com/dkovalev/camdvr/internal/metrics/exporters"
	"github.com/dkovalev/camdvr/internal/recorder"
	"github.com/dkovalev/camdvr/internal/retention"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`

	// Recorder settings
	RecordOnStart bool `help:"Begin recording as soon as the appliance starts" default:"true" toml:"recorder.record_on_start" env:"RECORD_ON_START"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:"admin" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"password" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Logging settings
	LoggingLevel     string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat    string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingRecorder  string `help:"Recorder logging level" default:"info" toml:"logging.recorder" env:"LOGGING_RECORDER"`
	LoggingCapture   string `help:"Capture logging level" default:"info" toml:"logging.capture" env:"LOGGING_CAPTURE"`
	LoggingPipeline  string `help:"Encoding pipeline logging level" default:"info" toml:"logging.pipeline" env:"LOGGING_PIPELINE"`
	LoggingRetention string `help:"Retention logging level" default:"info" toml:"logging.retention" env:"LOGGING_RETENTION"`
	LoggingAPI       string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
}

func main() {
	// Create Huma CLI
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, nil); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		// Initialize logging system
		loggingConfig := logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"recorder":  opts.LoggingRecorder,
				"capture":   opts.LoggingCapture,
				"pipeline":  opts.LoggingPipeline,
				"retention": opts.LoggingRetention,
				"api":       opts.LoggingAPI,
			},
		}
		logging.Initialize(loggingConfig)

		logger := logging.GetLogger("main")

		// Create event bus for in-process event handling
		eventBus := events.New()

		// Forward log entries to SSE clients
		logging.SetLogCallback(func(entry logging.LogEntry) {
			eventBus.Publish(events.LogEntryEvent{
				Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
				Level:      entry.Level,
				Module:     entry.Module,
				Message:    entry.Message,
				Attributes: entry.Attributes,
			})
		})

		// Load recorder/retention tunables
		settings, err := config.LoadSettings(opts.Config)
		if err != nil {
			logger.Error("Failed to load settings", "error", err)
			os.Exit(1)
		}

		// Storage retention watchdog
		storage := retention.NewManager(retention.Config{
			Root:           settings.Recorder.Root,
			MinFreePercent: settings.Retention.MinFreePercent,
			CheckInterval:  settings.Retention.CheckInterval(),
		}, eventBus)

		// Recorder service
		recorderService := recorder.New(cmd.RecorderConfig(settings), eventBus, storage)

		// Live metrics over SSE
		sseExporter := exporters.NewSSEExporter(eventBus)

		apiOpts := &api.Options{
			AuthUsername:      opts.AuthUsername,
			AuthPassword:      opts.AuthPassword,
			ConfigPath:        opts.Config,
			Recorder:          recorderService,
			Storage:           storage,
			EventBus:          eventBus,
			PrometheusHandler: exporters.HTTPHandler(),
		}

		server := api.NewServer(apiOpts)

		// Hot reload: capture/encoding values apply on the next session,
		// retention values on the next watchdog restart.
		watcher := config.NewConfigWatcher(
			opts.Config,
			config.LoadSettings,
			logger,
		)
		watcher.OnReload(func(fresh config.Settings) {
			logger.Info("Settings reloaded, applying to next session")
			recorderService.Reconfigure(cmd.RecorderConfig(fresh))
		})

		ctx, cancel := context.WithCancel(context.Background())

		hooks.OnStart(func() {
			// Background retention checks
			go storage.Run(ctx)

			// Push FPS updates to SSE clients while recording
			sseExporter.Start(ctx)

			// Config watcher is best-effort; a missing file just means no hot reload
			if watchErr := watcher.Start(); watchErr != nil {
				logger.Warn("Failed to start config watcher, hot-reload disabled", "error", watchErr)
			}

			if opts.RecordOnStart {
				if startErr := recorderService.Start(); startErr != nil {
					logger.Error("Failed to start recording at boot", "error", startErr)
				}
			}

			logger.Info("Starting HTTP server", "port", opts.Port)
			if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}

			// Finalize the open segment before tearing anything else down
			if recorderService.Recording() {
				if _, stopErr := recorderService.Stop(); stopErr != nil {
					logger.Error("Error stopping recording", "error", stopErr)
				}
			}

			_ = watcher.Stop()
			sseExporter.Stop()
			cancel()
		})
	})

	// Add devices command
	devicesCmd := cmd.CreateDevicesCmd()
	cli.Root().AddCommand(devicesCmd)

	// Add record command
	recordCmd := cmd.CreateRecordCmd()
	cli.Root().AddCommand(recordCmd)

	// Run the CLI
	cli.Run()
}
