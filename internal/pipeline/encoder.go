package pipeline

import (
	"errors"
	"fmt"

	"github.com/asticode/go-astiav"
)

// EncoderConfig holds the H.264 encoding parameters for one segment.
type EncoderConfig struct {
	Width       int
	Height      int
	TimeBaseDen int // encoder ticks per second, also the muxed frame rate
	BitRate     int64
	ThreadCount int
	Preset      string
	Tune        string
}

// DefaultEncoderConfig returns the recording parameters used for the
// appliance: 8 fps H.264 at 800 kbit/s tuned for low encoding cost.
func DefaultEncoderConfig(width, height int) EncoderConfig {
	return EncoderConfig{
		Width:       width,
		Height:      height,
		TimeBaseDen: 8,
		BitRate:     800_000,
		ThreadCount: 4,
		Preset:      "ultrafast",
		Tune:        "zerolatency",
	}
}

// Encoder writes RGB frames into a single H.264/MP4 file. Presentation
// timestamps are assigned from a frame counter, so every accepted frame
// advances the output by exactly one tick regardless of capture jitter.
// Not safe for concurrent use.
type Encoder struct {
	path string
	cfg  EncoderConfig

	oc       *astiav.FormatContext
	pb       *astiav.IOContext
	cc       *astiav.CodecContext
	stream   *astiav.Stream
	scaler   *astiav.SoftwareScaleContext
	rgbFrame *astiav.Frame
	yuvFrame *astiav.Frame
	pkt      *astiav.Packet

	frameCount int64
	closed     bool
}

// NewEncoder opens path for writing and sets up the full encoding
// chain. On any failure everything allocated so far is released.
func NewEncoder(path string, cfg EncoderConfig) (*Encoder, error) {
	e := &Encoder{path: path, cfg: cfg}
	if err := e.init(); err != nil {
		e.release()
		return nil, err
	}
	return e, nil
}

func (e *Encoder) init() error {
	codec := astiav.FindEncoder(astiav.CodecIDH264)
	if codec == nil {
		return errors.New("h264 encoder not found")
	}

	oc, err := astiav.AllocOutputFormatContext(nil, "mp4", e.path)
	if err != nil {
		return fmt.Errorf("failed to allocate output context for %s: %w", e.path, err)
	}
	e.oc = oc

	cc := astiav.AllocCodecContext(codec)
	if cc == nil {
		return errors.New("failed to allocate codec context")
	}
	e.cc = cc

	cc.SetWidth(e.cfg.Width)
	cc.SetHeight(e.cfg.Height)
	cc.SetTimeBase(astiav.NewRational(1, e.cfg.TimeBaseDen))
	cc.SetFramerate(astiav.NewRational(e.cfg.TimeBaseDen, 1))
	cc.SetPixelFormat(astiav.PixelFormatYuv420P)
	cc.SetBitRate(e.cfg.BitRate)
	if e.cfg.ThreadCount > 0 {
		cc.SetThreadCount(e.cfg.ThreadCount)
	}

	// MP4 wants codec parameters in the container header, not inline.
	if e.oc.OutputFormat().Flags().Has(astiav.IOFormatFlagGlobalheader) {
		cc.SetFlags(cc.Flags().Add(astiav.CodecContextFlagGlobalHeader))
	}

	opts := astiav.NewDictionary()
	defer opts.Free()
	if e.cfg.Preset != "" {
		_ = opts.Set("preset", e.cfg.Preset, 0)
	}
	if e.cfg.Tune != "" {
		_ = opts.Set("tune", e.cfg.Tune, 0)
	}
	if err := cc.Open(codec, opts); err != nil {
		return fmt.Errorf("failed to open h264 encoder: %w", err)
	}

	stream := e.oc.NewStream(codec)
	if stream == nil {
		return errors.New("failed to create output stream")
	}
	e.stream = stream
	if err := cc.ToCodecParameters(stream.CodecParameters()); err != nil {
		return fmt.Errorf("failed to copy codec parameters: %w", err)
	}
	stream.SetTimeBase(cc.TimeBase())

	pb, err := astiav.OpenIOContext(e.path, astiav.NewIOContextFlags(astiav.IOContextFlagWrite), nil, nil)
	if err != nil {
		return fmt.Errorf("failed to open %s for writing: %w", e.path, err)
	}
	e.pb = pb
	e.oc.SetPb(pb)

	if err := e.oc.WriteHeader(nil); err != nil {
		return fmt.Errorf("failed to write container header: %w", err)
	}

	scaler, err := astiav.CreateSoftwareScaleContext(
		e.cfg.Width, e.cfg.Height, astiav.PixelFormatRgb24,
		e.cfg.Width, e.cfg.Height, astiav.PixelFormatYuv420P,
		astiav.NewSoftwareScaleContextFlags())
	if err != nil {
		return fmt.Errorf("failed to create scale context: %w", err)
	}
	e.scaler = scaler

	e.rgbFrame = astiav.AllocFrame()
	e.rgbFrame.SetWidth(e.cfg.Width)
	e.rgbFrame.SetHeight(e.cfg.Height)
	e.rgbFrame.SetPixelFormat(astiav.PixelFormatRgb24)
	if err := e.rgbFrame.AllocBuffer(1); err != nil {
		return fmt.Errorf("failed to allocate rgb frame buffer: %w", err)
	}

	e.yuvFrame = astiav.AllocFrame()
	e.yuvFrame.SetWidth(e.cfg.Width)
	e.yuvFrame.SetHeight(e.cfg.Height)
	e.yuvFrame.SetPixelFormat(astiav.PixelFormatYuv420P)
	if err := e.yuvFrame.AllocBuffer(1); err != nil {
		return fmt.Errorf("failed to allocate yuv frame buffer: %w", err)
	}

	e.pkt = astiav.AllocPacket()
	return nil
}

// Path returns the file the encoder writes to.
func (e *Encoder) Path() string { return e.path }

// FrameCount returns the number of frames written so far.
func (e *Encoder) FrameCount() int64 { return e.frameCount }

// WriteFrame encodes one packed RGB888 image into the segment.
func (e *Encoder) WriteFrame(rgb []byte) error {
	if e.closed {
		return errors.New("encoder is closed")
	}
	if want := e.cfg.Width * e.cfg.Height * 3; len(rgb) != want {
		return fmt.Errorf("frame has %d bytes, want %d", len(rgb), want)
	}

	if err := e.rgbFrame.MakeWritable(); err != nil {
		return fmt.Errorf("failed to make rgb frame writable: %w", err)
	}
	if err := e.rgbFrame.Data().SetBytes(rgb, 1); err != nil {
		return fmt.Errorf("failed to fill rgb frame: %w", err)
	}

	if err := e.yuvFrame.MakeWritable(); err != nil {
		return fmt.Errorf("failed to make yuv frame writable: %w", err)
	}
	if err := e.scaler.ScaleFrame(e.rgbFrame, e.yuvFrame); err != nil {
		return fmt.Errorf("failed to convert frame to yuv420p: %w", err)
	}

	e.yuvFrame.SetPts(e.frameCount)
	e.frameCount++

	return e.encode(e.yuvFrame)
}

// encode sends one frame (nil to flush) and drains all pending packets
// into the container.
func (e *Encoder) encode(frame *astiav.Frame) error {
	if err := e.cc.SendFrame(frame); err != nil {
		return fmt.Errorf("failed to send frame to encoder: %w", err)
	}

	for {
		if err := e.cc.ReceivePacket(e.pkt); err != nil {
			if errors.Is(err, astiav.ErrEagain) || errors.Is(err, astiav.ErrEof) {
				return nil
			}
			return fmt.Errorf("failed to receive packet from encoder: %w", err)
		}

		e.pkt.SetStreamIndex(e.stream.Index())
		e.pkt.RescaleTs(e.cc.TimeBase(), e.stream.TimeBase())
		err := e.oc.WriteInterleavedFrame(e.pkt)
		e.pkt.Unref()
		if err != nil {
			return fmt.Errorf("failed to write packet: %w", err)
		}
	}
}

// Close flushes the encoder, writes the container trailer, and releases
// all FFmpeg state. Safe to call more than once.
func (e *Encoder) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true

	var firstErr error
	if e.cc != nil {
		if err := e.encode(nil); err != nil {
			firstErr = err
		}
	}
	if e.oc != nil {
		if err := e.oc.WriteTrailer(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to write container trailer: %w", err)
		}
	}
	e.release()
	return firstErr
}

func (e *Encoder) release() {
	if e.pkt != nil {
		e.pkt.Free()
		e.pkt = nil
	}
	if e.rgbFrame != nil {
		e.rgbFrame.Free()
		e.rgbFrame = nil
	}
	if e.yuvFrame != nil {
		e.yuvFrame.Free()
		e.yuvFrame = nil
	}
	if e.scaler != nil {
		e.scaler.Free()
		e.scaler = nil
	}
	if e.cc != nil {
		e.cc.Free()
		e.cc = nil
	}
	if e.pb != nil {
		_ = e.pb.Close()
		e.pb.Free()
		e.pb = nil
	}
	if e.oc != nil {
		e.oc.Free()
		e.oc = nil
	}
}
