// Package metrics provides Prometheus metrics for the recording
// pipeline and storage retention.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	captureFPS = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "camdvr",
		Subsystem: "recorder",
		Name:      "capture_fps",
		Help:      "Smoothed capture frame rate",
	})

	framesCaptured = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "camdvr",
		Subsystem: "recorder",
		Name:      "frames_captured_total",
		Help:      "Frames dequeued from the capture device",
	})

	framesEncoded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "camdvr",
		Subsystem: "recorder",
		Name:      "frames_encoded_total",
		Help:      "Frames written to segment files",
	})

	framesDropped = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "camdvr",
		Subsystem: "recorder",
		Name:      "frames_dropped_total",
		Help:      "Frames discarded because the encode queue was full",
	})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "camdvr",
		Subsystem: "recorder",
		Name:      "queue_depth",
		Help:      "Frames waiting in the encode queue",
	})

	segmentsOpened = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "camdvr",
		Subsystem: "recorder",
		Name:      "segments_total",
		Help:      "Segment files opened",
	})

	recordingActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "camdvr",
		Subsystem: "recorder",
		Name:      "recording_active",
		Help:      "Whether a recording session is running (0 or 1)",
	})

	// Local cache for SSE exporter access.
	recorderCache   RecorderSnapshot
	recorderCacheMu sync.RWMutex
)

// RecorderSnapshot holds current recorder metric values.
type RecorderSnapshot struct {
	FPS        float64
	QueueDepth int
	Dropped    uint64
	Recording  bool
}

// SetCaptureFPS sets the smoothed capture frame rate.
func SetCaptureFPS(fps float64) {
	captureFPS.Set(fps)
	updateRecorder(func(s *RecorderSnapshot) { s.FPS = fps })
}

// IncFramesCaptured counts one frame dequeued from the device.
func IncFramesCaptured() {
	framesCaptured.Inc()
}

// IncFramesEncoded counts one frame written to a segment.
func IncFramesEncoded() {
	framesEncoded.Inc()
}

// SetFramesDropped sets the cumulative queue drop count.
func SetFramesDropped(n uint64) {
	framesDropped.Set(float64(n))
	updateRecorder(func(s *RecorderSnapshot) { s.Dropped = n })
}

// SetQueueDepth sets the current encode queue depth.
func SetQueueDepth(n int) {
	queueDepth.Set(float64(n))
	updateRecorder(func(s *RecorderSnapshot) { s.QueueDepth = n })
}

// IncSegments counts one opened segment file.
func IncSegments() {
	segmentsOpened.Inc()
}

// SetRecordingActive flags whether a session is running.
func SetRecordingActive(active bool) {
	v := 0.0
	if active {
		v = 1.0
	}
	recordingActive.Set(v)
	updateRecorder(func(s *RecorderSnapshot) { s.Recording = active })
}

// Recorder returns the current cached recorder metric values.
func Recorder() RecorderSnapshot {
	recorderCacheMu.RLock()
	defer recorderCacheMu.RUnlock()
	return recorderCache
}

func updateRecorder(fn func(*RecorderSnapshot)) {
	recorderCacheMu.Lock()
	fn(&recorderCache)
	recorderCacheMu.Unlock()
}
