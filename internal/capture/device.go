//go:build linux

package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dkovalev/camdvr/internal/logging"
	"github.com/dkovalev/camdvr/pkg/linuxav/v4l2"
)

// dequeuePollMs bounds each wait on the driver so context cancellation
// is observed promptly.
const dequeuePollMs = 500

// Config describes the capture format to negotiate with the device.
type Config struct {
	DevicePath  string
	Width       uint32
	Height      uint32
	BufferCount uint32
	Framerate   uint32 // frames per second requested from the driver
}

// DefaultConfig returns the capture settings for the built-in camera
// path: VGA RGB565 at 30 fps with a three-buffer pool.
func DefaultConfig(devicePath string) Config {
	return Config{
		DevicePath:  devicePath,
		Width:       640,
		Height:      480,
		BufferCount: 3,
		Framerate:   30,
	}
}

// Frame is a single captured image, already expanded to packed 24-bit
// RGB. Data is owned by the receiver.
type Frame struct {
	Data     []byte
	Width    uint32
	Height   uint32
	Sequence uint64
	Captured time.Time
}

// Camera owns an open V4L2 device configured for streaming RGB565
// capture. Frames are converted to RGB888 as they are dequeued.
// Methods other than Close must be called from a single goroutine.
type Camera struct {
	dev      *v4l2.Device
	cfg      Config
	logger   *slog.Logger
	rateHint v4l2.Framerate
	seq      uint64
	started  bool
}

// Open opens and fully configures the device: capability check, format
// negotiation, frame interval, and buffer pool mapping. The device is
// left ready for Start. The driver may substitute nearby dimensions;
// Width and Height report what it actually delivers.
func Open(cfg Config) (*Camera, error) {
	dev, err := v4l2.OpenDevice(cfg.DevicePath)
	if err != nil {
		return nil, err
	}

	if err := dev.SetFormat(cfg.Width, cfg.Height, v4l2.PixFmtRGB565); err != nil {
		dev.Close()
		return nil, err
	}

	// The driver may silently substitute a nearby resolution; only a
	// refused pixel encoding is fatal. The substituted dimensions are
	// adopted and reported through Width/Height.
	w, h, pf := dev.Format()
	cfg, err = acceptFormat(cfg, w, h, pf)
	if err != nil {
		dev.Close()
		return nil, err
	}

	rate, err := dev.SetFrameInterval(1, cfg.Framerate)
	if err != nil {
		dev.Close()
		return nil, err
	}

	if err := dev.RequestBuffers(cfg.BufferCount); err != nil {
		dev.Close()
		return nil, err
	}

	logger := logging.GetLogger("capture")
	logger.Info("camera configured",
		"device", cfg.DevicePath,
		"card", dev.Card(),
		"width", w,
		"height", h,
		"fps", rate.FPS(),
		"buffers", dev.BufferCount())

	return &Camera{
		dev:      dev,
		cfg:      cfg,
		logger:   logger,
		rateHint: rate,
	}, nil
}

// acceptFormat reconciles the requested capture format with what the
// driver negotiated. Substituted dimensions are taken over; any pixel
// encoding other than RGB565 is refused.
func acceptFormat(cfg Config, w, h, pf uint32) (Config, error) {
	if pf != v4l2.PixFmtRGB565 {
		return cfg, fmt.Errorf("device %s negotiated pixel format %s instead of RGBP",
			cfg.DevicePath, v4l2.FormatFourCC(pf))
	}
	if w == 0 || h == 0 {
		return cfg, fmt.Errorf("device %s negotiated invalid resolution %dx%d",
			cfg.DevicePath, w, h)
	}
	cfg.Width = w
	cfg.Height = h
	return cfg, nil
}

// DevicePath returns the device node the camera was opened on.
func (c *Camera) DevicePath() string { return c.cfg.DevicePath }

// Width returns the frame width the driver actually negotiated.
func (c *Camera) Width() uint32 { return c.cfg.Width }

// Height returns the frame height the driver actually negotiated.
func (c *Camera) Height() uint32 { return c.cfg.Height }

// Card returns the driver-reported device name.
func (c *Camera) Card() string { return c.dev.Card() }

// Framerate returns the rate the driver reported when the interval was
// negotiated.
func (c *Camera) Framerate() v4l2.Framerate { return c.rateHint }

// Start queues the buffer pool and begins streaming.
func (c *Camera) Start() error {
	if c.started {
		return nil
	}
	if err := c.dev.StreamOn(); err != nil {
		return err
	}
	c.started = true
	c.logger.Info("streaming started", "device", c.cfg.DevicePath)
	return nil
}

// Stop halts streaming. The camera can be started again.
func (c *Camera) Stop() error {
	if !c.started {
		return nil
	}
	c.started = false
	if err := c.dev.StreamOff(); err != nil {
		return err
	}
	c.logger.Info("streaming stopped", "device", c.cfg.DevicePath)
	return nil
}

// NextFrame blocks until the driver delivers a frame, converts it to
// RGB888, and requeues the kernel buffer. Returns ctx.Err() once the
// context is cancelled.
func (c *Camera) NextFrame(ctx context.Context) (Frame, error) {
	if !c.started {
		return Frame{}, errors.New("camera is not streaming")
	}

	rawLen := int(c.cfg.Width) * int(c.cfg.Height) * 2
	for {
		if err := ctx.Err(); err != nil {
			return Frame{}, err
		}

		raw, idx, err := c.dev.DequeueBuffer(dequeuePollMs)
		if err != nil {
			if errors.Is(err, v4l2.ErrTimeout) || errors.Is(err, v4l2.ErrNoFrame) {
				continue
			}
			return Frame{}, err
		}

		if len(raw) < rawLen {
			c.logger.Warn("short frame from driver, dropping",
				"got", len(raw), "want", rawLen)
			if qerr := c.dev.QueueBuffer(idx); qerr != nil {
				return Frame{}, qerr
			}
			continue
		}

		rgb := make([]byte, int(c.cfg.Width)*int(c.cfg.Height)*3)
		convErr := ExpandRGB565(rgb, raw[:rawLen])

		// The mapped buffer goes back to the driver before the frame
		// is handed out; rgb no longer aliases it.
		if err := c.dev.QueueBuffer(idx); err != nil {
			return Frame{}, err
		}
		if convErr != nil {
			return Frame{}, convErr
		}

		c.seq++
		return Frame{
			Data:     rgb,
			Width:    c.cfg.Width,
			Height:   c.cfg.Height,
			Sequence: c.seq,
			Captured: time.Now(),
		}, nil
	}
}

// Close stops streaming and releases the device. Safe to call more
// than once.
func (c *Camera) Close() error {
	c.started = false
	return c.dev.Close()
}
