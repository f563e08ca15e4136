package recorder

import (
	"errors"
	"testing"
	"time"

	"github.com/dkovalev/camdvr/internal/events"
	"github.com/dkovalev/camdvr/internal/retention"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.SegmentDuration != 30*time.Minute {
		t.Errorf("SegmentDuration = %v, want 30m", cfg.SegmentDuration)
	}
	if cfg.Width != 640 || cfg.Height != 480 {
		t.Errorf("resolution = %dx%d, want 640x480", cfg.Width, cfg.Height)
	}
	if cfg.Framerate != 30 {
		t.Errorf("Framerate = %d, want 30", cfg.Framerate)
	}
	if cfg.BufferCount != 3 {
		t.Errorf("BufferCount = %d, want 3", cfg.BufferCount)
	}
}

func TestEncoderConfigBitRateOverride(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BitRate = 1_200_000

	enc := encoderConfig(cfg)
	if enc.BitRate != 1_200_000 {
		t.Errorf("BitRate = %d, want 1200000", enc.BitRate)
	}
	if enc.Width != 640 || enc.Height != 480 {
		t.Errorf("encoder size = %dx%d, want 640x480", enc.Width, enc.Height)
	}

	cfg.BitRate = 0
	if enc := encoderConfig(cfg); enc.BitRate != 800_000 {
		t.Errorf("default BitRate = %d, want 800000", enc.BitRate)
	}
}

func TestStatusIdle(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DevicePath = "/dev/video9"
	s := New(cfg, events.New(), retention.NewManager(retention.Config{Root: t.TempDir()}, nil))

	st := s.Status()
	if st.Recording {
		t.Error("idle service reports Recording = true")
	}
	if st.DevicePath != "/dev/video9" {
		t.Errorf("DevicePath = %q, want /dev/video9", st.DevicePath)
	}
	if s.Recording() {
		t.Error("Recording() = true on idle service")
	}
}

func TestStopIdleIsNoop(t *testing.T) {
	s := New(DefaultConfig(), events.New(), retention.NewManager(retention.Config{Root: t.TempDir()}, nil))
	frames, err := s.Stop()
	if err != nil {
		t.Errorf("Stop on idle service = %v, want nil", err)
	}
	if frames != 0 {
		t.Errorf("Stop on idle service reported %d frames, want 0", frames)
	}
}

func TestStopReportsFramesWrittenDuringDrain(t *testing.T) {
	s := New(DefaultConfig(), events.New(), retention.NewManager(retention.Config{Root: t.TempDir()}, nil))

	// A session whose loops already finished: frames includes
	// everything flushed from the queue before done closed.
	done := make(chan struct{})
	close(done)
	sess := &session{
		cancel: func() {},
		done:   done,
		frames: 42,
	}
	s.sess = sess

	frames, err := s.Stop()
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if frames != 42 {
		t.Errorf("Stop reported %d frames, want 42", frames)
	}
}

func TestStartWhileRecordingIsRejected(t *testing.T) {
	s := New(DefaultConfig(), events.New(), retention.NewManager(retention.Config{Root: t.TempDir()}, nil))

	active := &session{}
	s.sess = active

	if err := s.Start(); !errors.Is(err, ErrAlreadyRecording) {
		t.Fatalf("Start = %v, want ErrAlreadyRecording", err)
	}
	if s.sess != active {
		t.Error("rejected Start replaced the active session")
	}
}

func TestPublishRecordError(t *testing.T) {
	bus := events.New()
	received := make(chan events.RecordErrorEvent, 1)
	unsub := bus.Subscribe(func(e events.RecordErrorEvent) {
		received <- e
	})
	defer unsub()

	s := New(DefaultConfig(), bus, retention.NewManager(retention.Config{Root: t.TempDir()}, nil))
	s.publishRecordError("/var/lib/camdvr/20260829/record_103000.mp4", errors.New("broken pipe"))

	select {
	case e := <-received:
		if e.Message != "broken pipe" {
			t.Errorf("Message = %q, want %q", e.Message, "broken pipe")
		}
		if e.Segment != "/var/lib/camdvr/20260829/record_103000.mp4" {
			t.Errorf("Segment = %q", e.Segment)
		}
	case <-time.After(time.Second):
		t.Fatal("no record error event published")
	}
}

func TestStartRefusedWithoutSpace(t *testing.T) {
	// A retention root that cannot be stat'ed counts as out of space,
	// so Start must refuse before touching the device.
	cfg := DefaultConfig()
	cfg.Root = t.TempDir()
	storage := retention.NewManager(retention.Config{Root: "/nonexistent/camdvr"}, nil)
	s := New(cfg, events.New(), storage)

	err := s.Start()
	if err == nil {
		_, _ = s.Stop()
		t.Fatal("Start succeeded without storage")
	}
	if errors.Is(err, ErrAlreadyRecording) {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSessionReasonFirstWins(t *testing.T) {
	ss := &session{}
	if got := ss.stopReason(); got != stopReasonRequested {
		t.Errorf("default reason = %q, want %q", got, stopReasonRequested)
	}

	ss.setReason(stopReasonError)
	ss.setReason("later")
	if got := ss.stopReason(); got != stopReasonError {
		t.Errorf("reason = %q, want %q", got, stopReasonError)
	}
}
