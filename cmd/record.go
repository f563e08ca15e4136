package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dkovalev/camdvr/internal/config"
	"github.com/dkovalev/camdvr/internal/events"
	"github.com/dkovalev/camdvr/internal/logging"
	"github.com/dkovalev/camdvr/internal/recorder"
	"github.com/dkovalev/camdvr/internal/retention"
	"github.com/spf13/cobra"
)

// RecorderConfig maps file settings onto the recorder service config.
func RecorderConfig(settings config.Settings) recorder.Config {
	cfg := recorder.DefaultConfig()
	cfg.DevicePath = settings.Recorder.Device
	cfg.Root = settings.Recorder.Root
	cfg.SegmentDuration = settings.Recorder.SegmentDuration()
	cfg.Width = uint32(settings.Recorder.Width)
	cfg.Height = uint32(settings.Recorder.Height)
	cfg.Framerate = uint32(settings.Recorder.Framerate)
	cfg.BufferCount = uint32(settings.Recorder.BufferCount)
	cfg.BitRate = int64(settings.Recorder.Bitrate)
	return cfg
}

// CreateRecordCmd creates the record command.
func CreateRecordCmd() *cobra.Command {
	var configFile string
	var device string
	var root string
	var duration time.Duration
	var logJSON bool

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record without the API server",
		Long: `Opens the capture device and records segmented MP4 files until ` +
			`interrupted, or for a fixed --duration. Storage retention runs in the ` +
			`background exactly as it does under the full appliance.`,
		Run: func(_ *cobra.Command, _ []string) {
			loggingConfig := config.LoadLoggingConfig(configFile)
			if logJSON {
				loggingConfig.Format = "json"
			}
			logging.Initialize(loggingConfig)
			logger := logging.GetLogger("record")

			settings, err := config.LoadSettings(configFile)
			if err != nil {
				logger.Error("Failed to load settings", "error", err, "config", configFile)
				os.Exit(1)
			}
			if device != "" {
				settings.Recorder.Device = device
			}
			if root != "" {
				settings.Recorder.Root = root
			}

			bus := events.New()
			storage := retention.NewManager(retention.Config{
				Root:           settings.Recorder.Root,
				MinFreePercent: settings.Retention.MinFreePercent,
				CheckInterval:  settings.Retention.CheckInterval(),
			}, bus)
			rec := recorder.New(RecorderConfig(settings), bus, storage)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			go storage.Run(ctx)

			if err := rec.Start(); err != nil {
				logger.Error("Failed to start recording", "error", err)
				os.Exit(1)
			}
			logger.Info("Recording", "device", settings.Recorder.Device, "root", settings.Recorder.Root)

			if duration > 0 {
				select {
				case <-ctx.Done():
				case <-time.After(duration):
					logger.Info("Requested duration reached", "duration", duration)
				}
			} else {
				<-ctx.Done()
			}

			frames, err := rec.Stop()
			if err != nil {
				logger.Error("Failed to stop recording", "error", err)
				os.Exit(1)
			}
			logger.Info("Recording finished", "frames", frames)
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "config.toml", "Path to configuration file")
	cmd.Flags().StringVar(&device, "device", "", "Capture device (overrides config)")
	cmd.Flags().StringVar(&root, "root", "", "Recording root directory (overrides config)")
	cmd.Flags().DurationVar(&duration, "duration", 0, "Stop after this long (0 records until interrupted)")
	cmd.Flags().BoolVar(&logJSON, "log-json", false, "Use JSON log format")

	return cmd
}
