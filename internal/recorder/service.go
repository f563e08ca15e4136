package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dkovalev/camdvr/internal/capture"
	"github.com/dkovalev/camdvr/internal/events"
	"github.com/dkovalev/camdvr/internal/logging"
	"github.com/dkovalev/camdvr/internal/metrics"
	"github.com/dkovalev/camdvr/internal/pipeline"
	"github.com/dkovalev/camdvr/internal/retention"
)

// Sentinel errors for session control.
var (
	ErrAlreadyRecording = errors.New("a recording session is already running")
	ErrNoSpace          = errors.New("not enough storage space to start recording")
)

// Stop reasons carried on RecordingStoppedEvent.
const (
	stopReasonRequested = "requested"
	stopReasonError     = "error"
)

// Config controls a recording session.
type Config struct {
	DevicePath      string
	Root            string        // recording root directory
	SegmentDuration time.Duration // length of one segment file
	QueueCapacity   int
	Width           uint32
	Height          uint32
	Framerate       uint32
	BufferCount     uint32
	BitRate         int64 // 0 uses the pipeline default
}

// DefaultConfig returns the appliance recording defaults.
func DefaultConfig() Config {
	return Config{
		DevicePath:      "/dev/video0",
		Root:            "/var/lib/camdvr",
		SegmentDuration: 30 * time.Minute,
		QueueCapacity:   pipeline.DefaultQueueCapacity,
		Width:           640,
		Height:          480,
		Framerate:       30,
		BufferCount:     3,
	}
}

// Status is a point-in-time view of the recorder for the API.
type Status struct {
	Recording     bool
	DevicePath    string
	Segment       string
	StartedAt     time.Time
	FPS           float64
	QueueDepth    int
	DroppedFrames uint64
	FramesWritten int64
}

// session holds the state of one active recording run. It carries its
// own copy of the config so a Reconfigure cannot change a session
// mid-flight.
type session struct {
	cfg    Config
	cam    *capture.Camera
	queue  *pipeline.Queue
	cancel context.CancelFunc
	done   chan struct{}
	start  time.Time
	meter  *Meter

	mu      sync.Mutex
	segPath string
	frames  int64
	reason  string
}

func (ss *session) setSegment(path string) {
	ss.mu.Lock()
	ss.segPath = path
	ss.mu.Unlock()
}

func (ss *session) segment() string {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.segPath
}

func (ss *session) addFrame() {
	ss.mu.Lock()
	ss.frames++
	ss.mu.Unlock()
}

func (ss *session) frameCount() int64 {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.frames
}

// setReason records why the session is ending; the first reason wins.
func (ss *session) setReason(reason string) {
	ss.mu.Lock()
	if ss.reason == "" {
		ss.reason = reason
	}
	ss.mu.Unlock()
}

func (ss *session) stopReason() string {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.reason == "" {
		return stopReasonRequested
	}
	return ss.reason
}

// Service runs recording sessions: capture feeds a bounded queue, an
// encode worker drains it into rotating segment files, and storage is
// checked before every new segment.
type Service struct {
	cfg     Config
	bus     *events.Bus
	storage *retention.Manager
	logger  *slog.Logger

	mu   sync.Mutex
	sess *session
}

// New creates a recorder service.
func New(cfg Config, bus *events.Bus, storage *retention.Manager) *Service {
	return &Service{
		cfg:     cfg,
		bus:     bus,
		storage: storage,
		logger:  logging.GetLogger("recorder"),
	}
}

func encoderConfig(cfg Config) pipeline.EncoderConfig {
	ec := pipeline.DefaultEncoderConfig(int(cfg.Width), int(cfg.Height))
	if cfg.BitRate > 0 {
		ec.BitRate = cfg.BitRate
	}
	return ec
}

// Reconfigure replaces the service settings. An active session keeps
// the settings it started with; new values apply from the next Start.
func (s *Service) Reconfigure(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
}

// Recording reports whether a session is active.
func (s *Service) Recording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess != nil
}

// Status returns the current session state.
func (s *Service) Status() Status {
	s.mu.Lock()
	sess := s.sess
	devicePath := s.cfg.DevicePath
	s.mu.Unlock()

	if sess == nil {
		return Status{DevicePath: devicePath}
	}

	snap := metrics.Recorder()
	return Status{
		Recording:     true,
		DevicePath:    sess.cfg.DevicePath,
		Segment:       sess.segment(),
		StartedAt:     sess.start,
		FPS:           snap.FPS,
		QueueDepth:    snap.QueueDepth,
		DroppedFrames: snap.Dropped,
		FramesWritten: sess.frameCount(),
	}
}

// Start begins a recording session. It fails when a session is already
// running or when the recording filesystem is out of space even after a
// cleanup attempt.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sess != nil {
		return ErrAlreadyRecording
	}

	// Reclaim space up front so a full disk surfaces here, not as a
	// write error mid-segment.
	if err := s.storage.EnsureCapacity(); err != nil {
		s.logger.Warn("storage pre-check failed", "error", err)
	}
	usage, ok, err := s.storage.CheckSpace()
	if err != nil {
		return err
	}
	if !ok {
		s.logger.Error("refusing to record, storage low",
			"free_percent", usage.FreePercent)
		return ErrNoSpace
	}

	cam, err := capture.Open(capture.Config{
		DevicePath:  s.cfg.DevicePath,
		Width:       s.cfg.Width,
		Height:      s.cfg.Height,
		BufferCount: s.cfg.BufferCount,
		Framerate:   s.cfg.Framerate,
	})
	if err != nil {
		s.publishCaptureError(s.cfg.DevicePath, err)
		return err
	}
	if err := cam.Start(); err != nil {
		cam.Close()
		s.publishCaptureError(s.cfg.DevicePath, err)
		return err
	}

	// The driver may have substituted another resolution; the session
	// and encoder must use what it actually delivers.
	cfg := s.cfg
	cfg.Width, cfg.Height = cam.Width(), cam.Height()
	if cfg.Width != s.cfg.Width || cfg.Height != s.cfg.Height {
		s.logger.Warn("driver substituted resolution",
			"requested", fmt.Sprintf("%dx%d", s.cfg.Width, s.cfg.Height),
			"actual", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height))
	}

	now := time.Now()
	seg, err := openSegment(cfg.Root, encoderConfig(cfg), now)
	if err != nil {
		cam.Close()
		return fmt.Errorf("failed to open first segment: %w", err)
	}
	metrics.IncSegments()

	ctx, cancel := context.WithCancel(context.Background())
	sess := &session{
		cfg:     cfg,
		cam:     cam,
		queue:   pipeline.NewQueue(cfg.QueueCapacity),
		cancel:  cancel,
		done:    make(chan struct{}),
		start:   now,
		meter:   NewMeter(),
		segPath: seg.path,
	}
	s.sess = sess

	var wg sync.WaitGroup
	wg.Add(2)
	go s.captureLoop(ctx, sess, &wg)
	go s.encodeLoop(sess, seg, &wg)
	go func() {
		wg.Wait()
		s.finish(sess)
	}()

	metrics.SetRecordingActive(true)
	s.bus.Publish(events.RecordingStartedEvent{
		DevicePath: cfg.DevicePath,
		Segment:    seg.path,
		Timestamp:  now.UTC().Format(time.RFC3339),
	})
	s.logger.Info("recording started",
		"device", s.cfg.DevicePath,
		"segment", seg.path)
	return nil
}

// Stop ends the active session and blocks until everything is
// finalized, returning the total frames the session wrote. Stopping an
// idle service is a no-op.
func (s *Service) Stop() (int64, error) {
	s.mu.Lock()
	sess := s.sess
	s.mu.Unlock()

	if sess == nil {
		return 0, nil
	}
	sess.cancel()
	<-sess.done
	return sess.frameCount(), nil
}

// captureLoop pulls frames from the device into the queue until the
// session is cancelled or the device fails.
func (s *Service) captureLoop(ctx context.Context, sess *session, wg *sync.WaitGroup) {
	defer wg.Done()
	defer sess.queue.Close()

	for {
		frame, err := sess.cam.NextFrame(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Error("capture failed", "error", err)
			sess.setReason(stopReasonError)
			s.publishCaptureError(sess.cfg.DevicePath, err)
			sess.cancel()
			return
		}

		metrics.IncFramesCaptured()
		metrics.SetCaptureFPS(sess.meter.Tick(frame.Captured))

		sess.queue.Enqueue(frame)
		metrics.SetQueueDepth(sess.queue.Len())
		metrics.SetFramesDropped(sess.queue.Dropped())
	}
}

// encodeLoop drains the queue into segment files, rotating when a
// segment reaches its maximum duration.
func (s *Service) encodeLoop(sess *session, seg *segment, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		frame, ok := sess.queue.Dequeue()
		if !ok {
			break
		}

		if time.Since(seg.started) >= sess.cfg.SegmentDuration {
			next, err := s.rotate(sess, seg)
			if err != nil {
				s.logger.Error("segment rotation failed", "error", err)
				sess.setReason(stopReasonError)
				s.publishRecordError(sess.segment(), fmt.Errorf("segment rotation failed: %w", err))
				sess.cancel()
				return
			}
			seg = next
		}

		if err := seg.enc.WriteFrame(frame.Data); err != nil {
			s.logger.Error("failed to encode frame", "error", err)
			sess.setReason(stopReasonError)
			s.publishRecordError(seg.path, fmt.Errorf("failed to encode frame: %w", err))
			sess.cancel()
			s.closeSegment(seg)
			return
		}
		metrics.IncFramesEncoded()
		sess.addFrame()
	}

	s.closeSegment(seg)
}

// rotate finalizes the current segment and opens the next one, checking
// storage in between.
func (s *Service) rotate(sess *session, seg *segment) (*segment, error) {
	s.closeSegment(seg)

	if err := s.storage.EnsureCapacity(); err != nil {
		s.logger.Warn("storage check during rotation failed", "error", err)
	}

	next, err := openSegment(sess.cfg.Root, encoderConfig(sess.cfg), time.Now())
	if err != nil {
		return nil, err
	}
	metrics.IncSegments()
	sess.setSegment(next.path)
	s.bus.Publish(events.SegmentOpenedEvent{
		Path:      next.path,
		Timestamp: next.started.UTC().Format(time.RFC3339),
	})
	s.logger.Info("segment rotated", "segment", next.path)
	return next, nil
}

// closeSegment finalizes a segment and announces it.
func (s *Service) closeSegment(seg *segment) {
	end := time.Now()
	final, frames, err := seg.finalize(end)
	if err != nil {
		s.logger.Error("failed to finalize segment",
			"segment", seg.path, "error", err)
		s.publishRecordError(seg.path, fmt.Errorf("failed to finalize segment: %w", err))
	}
	s.bus.Publish(events.SegmentClosedEvent{
		Path:      final,
		Frames:    frames,
		Timestamp: end.UTC().Format(time.RFC3339),
	})
	s.logger.Info("segment closed",
		"segment", final,
		"frames", frames)
}

// finish runs once both loops have exited: release the device, clear
// session state, and announce the stop.
func (s *Service) finish(sess *session) {
	if err := sess.cam.Close(); err != nil {
		s.logger.Warn("failed to close camera", "error", err)
	}

	s.mu.Lock()
	if s.sess == sess {
		s.sess = nil
	}
	s.mu.Unlock()

	metrics.SetRecordingActive(false)
	metrics.SetCaptureFPS(0)
	metrics.SetQueueDepth(0)

	s.bus.Publish(events.RecordingStoppedEvent{
		Reason:    sess.stopReason(),
		Frames:    sess.frameCount(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	s.logger.Info("recording stopped",
		"reason", sess.stopReason(),
		"frames", sess.frameCount())
	close(sess.done)
}

// publishRecordError surfaces encode and container failures to event
// listeners; the log line alone never reaches the API clients.
func (s *Service) publishRecordError(segment string, err error) {
	s.bus.Publish(events.RecordErrorEvent{
		Message:   err.Error(),
		Segment:   segment,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Service) publishCaptureError(devicePath string, err error) {
	s.bus.Publish(events.CaptureErrorEvent{
		DevicePath: devicePath,
		Error:      err.Error(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
}
