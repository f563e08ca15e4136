package events

// Event type constants for kelindar/event.
const (
	TypeRecordingStarted uint32 = iota + 1
	TypeRecordingStopped
	TypeSegmentOpened
	TypeSegmentClosed
	TypeCaptureError
	TypeStorageLow
	TypeStorageCleanup
	TypeFPSUpdate
	TypeLogEntry
	TypeRecordError
	TypeCleanupFailed
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// RecordingStartedEvent announces that a recording session began.
type RecordingStartedEvent struct {
	DevicePath string `json:"device_path" example:"/dev/video0" doc:"Path to the video device"`
	Segment    string `json:"segment" example:"/var/lib/camdvr/20260829/record_103000.mp4" doc:"First segment file"`
	Timestamp  string `json:"timestamp" example:"2026-08-29T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for RecordingStartedEvent.
func (e RecordingStartedEvent) Type() uint32 { return TypeRecordingStarted }

// RecordingStoppedEvent announces the end of a recording session.
type RecordingStoppedEvent struct {
	Reason    string `json:"reason" example:"requested" doc:"Why the session ended: requested, error"`
	Frames    int64  `json:"frames" example:"14400" doc:"Frames written during the session"`
	Timestamp string `json:"timestamp" example:"2026-08-29T11:00:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for RecordingStoppedEvent.
func (e RecordingStoppedEvent) Type() uint32 { return TypeRecordingStopped }

// SegmentOpenedEvent announces a new segment file.
type SegmentOpenedEvent struct {
	Path      string `json:"path" example:"/var/lib/camdvr/20260829/record_103000.mp4" doc:"Segment file path"`
	Timestamp string `json:"timestamp" example:"2026-08-29T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SegmentOpenedEvent.
func (e SegmentOpenedEvent) Type() uint32 { return TypeSegmentOpened }

// SegmentClosedEvent announces a finalized segment file.
type SegmentClosedEvent struct {
	Path      string `json:"path" example:"/var/lib/camdvr/20260829/10:30-11:00.mp4" doc:"Final segment file path"`
	Frames    int64  `json:"frames" example:"14400" doc:"Frames written to the segment"`
	Timestamp string `json:"timestamp" example:"2026-08-29T11:00:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SegmentClosedEvent.
func (e SegmentClosedEvent) Type() uint32 { return TypeSegmentClosed }

// CaptureErrorEvent represents a capture failure during recording.
type CaptureErrorEvent struct {
	DevicePath string `json:"device_path" example:"/dev/video0" doc:"Path to the video device"`
	Error      string `json:"error" example:"device disconnected" doc:"Detailed error description"`
	Timestamp  string `json:"timestamp" example:"2026-08-29T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for CaptureErrorEvent.
func (e CaptureErrorEvent) Type() uint32 { return TypeCaptureError }

// RecordErrorEvent carries an encode or container failure from the
// recording pipeline. The session usually stops right after.
type RecordErrorEvent struct {
	Message   string `json:"message" example:"failed to encode frame: broken pipe" doc:"Detailed error description"`
	Segment   string `json:"segment,omitempty" example:"/var/lib/camdvr/20260829/record_103000.mp4" doc:"Segment being written when the error occurred"`
	Timestamp string `json:"timestamp" example:"2026-08-29T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for RecordErrorEvent.
func (e RecordErrorEvent) Type() uint32 { return TypeRecordError }

// StorageLowEvent signals that the recording filesystem is below the
// free-space threshold. All fields are zero when the filesystem could
// not be queried at all.
type StorageLowEvent struct {
	TotalBytes     uint64  `json:"total_bytes" example:"31914983424" doc:"Filesystem size in bytes"`
	AvailableBytes uint64  `json:"available_bytes" example:"1276599337" doc:"Available bytes"`
	FreePercent    float64 `json:"free_percent" example:"4.2" doc:"Available space as a percentage"`
	Timestamp      string  `json:"timestamp" example:"2026-08-29T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for StorageLowEvent.
func (e StorageLowEvent) Type() uint32 { return TypeStorageLow }

// StorageCleanupEvent announces that a day directory was deleted to
// reclaim space.
type StorageCleanupEvent struct {
	Removed    string `json:"removed" example:"20221231" doc:"Deleted day directory name"`
	FreedBytes uint64 `json:"freed_bytes" example:"2147483648" doc:"Bytes reclaimed"`
	Timestamp  string `json:"timestamp" example:"2026-08-29T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for StorageCleanupEvent.
func (e StorageCleanupEvent) Type() uint32 { return TypeStorageCleanup }

// CleanupFailedEvent signals that a retention sweep could not reclaim
// space, either because nothing was left to delete or a deletion
// failed.
type CleanupFailedEvent struct {
	Message   string `json:"message" example:"no day directories to clean up" doc:"Why the cleanup failed"`
	Timestamp string `json:"timestamp" example:"2026-08-29T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for CleanupFailedEvent.
func (e CleanupFailedEvent) Type() uint32 { return TypeCleanupFailed }

// FPSUpdateEvent carries the smoothed capture rate for live status
// displays.
type FPSUpdateEvent struct {
	FPS       float64 `json:"fps" example:"29.7" doc:"Smoothed frames per second"`
	Timestamp string  `json:"timestamp" example:"2026-08-29T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for FPSUpdateEvent.
func (e FPSUpdateEvent) Type() uint32 { return TypeFPSUpdate }

// LogEntryEvent mirrors a log record for SSE streaming.
type LogEntryEvent struct {
	Timestamp  string         `json:"timestamp" example:"2026-08-29T10:30:00.123456789Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"recorder" doc:"Module that emitted the log"`
	Message    string         `json:"message" example:"Segment finalized" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }
