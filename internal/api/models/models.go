package models

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Recording status models
type StorageData struct {
	TotalBytes     uint64  `json:"total_bytes" example:"31914983424" doc:"Recording filesystem size in bytes"`
	AvailableBytes uint64  `json:"available_bytes" example:"12765993370" doc:"Available bytes"`
	FreePercent    float64 `json:"free_percent" example:"40.0" doc:"Available space as a percentage"`
}

type StatusData struct {
	Recording      bool        `json:"recording" example:"true" doc:"Whether a recording session is active"`
	DevicePath     string      `json:"device_path,omitempty" example:"/dev/video0" doc:"Capture device of the active session"`
	Segment        string      `json:"segment,omitempty" example:"/var/lib/camdvr/20260829/record_103000.mp4" doc:"Segment file currently being written"`
	ElapsedSeconds float64     `json:"elapsed_seconds,omitempty" example:"421.5" doc:"Seconds since the session started"`
	FPS            float64     `json:"fps,omitempty" example:"29.7" doc:"Smoothed capture rate"`
	Frames         int64       `json:"frames,omitempty" example:"12645" doc:"Frames encoded this session"`
	Dropped        uint64      `json:"dropped,omitempty" example:"0" doc:"Frames dropped by the queue this session"`
	Storage        StorageData `json:"storage" doc:"Recording volume usage"`
}

type StatusResponse struct {
	Body StatusData
}

// Device models
type FormatData struct {
	PixelFormat string `json:"pixel_format" example:"RGBP" doc:"FourCC of the pixel format"`
	Description string `json:"description" example:"16-bit RGB 5-6-5" doc:"Driver-provided format description"`
}

type DeviceData struct {
	Path     string       `json:"path" example:"/dev/video0" doc:"Device node path"`
	Name     string       `json:"name" example:"USB 2.0 Camera" doc:"Device card name"`
	DeviceID string       `json:"device_id,omitempty" example:"usb-0000:00:14.0-1" doc:"Stable USB bus/port identifier"`
	Formats  []FormatData `json:"formats,omitempty" doc:"Supported capture formats"`
}

type DeviceListData struct {
	Devices []DeviceData `json:"devices" doc:"Enumerated V4L2 capture devices"`
	Count   int          `json:"count" example:"1" doc:"Number of devices found"`
}

type DeviceListResponse struct {
	Body DeviceListData
}

// Recording control models
type StartRecordingData struct {
	Status     string `json:"status" example:"recording" doc:"Resulting recorder state"`
	DevicePath string `json:"device_path" example:"/dev/video0" doc:"Capture device"`
	Segment    string `json:"segment" example:"/var/lib/camdvr/20260829/record_103000.mp4" doc:"First segment file"`
}

type StartRecordingResponse struct {
	Body StartRecordingData
}

type StopRecordingData struct {
	Status string `json:"status" example:"stopped" doc:"Resulting recorder state"`
	Frames int64  `json:"frames" example:"14400" doc:"Frames written during the session"`
}

type StopRecordingResponse struct {
	Body StopRecordingData
}

// Retention models
type CleanupData struct {
	Removed    string `json:"removed,omitempty" example:"20221231" doc:"Deleted day directory name"`
	FreedBytes uint64 `json:"freed_bytes" example:"2147483648" doc:"Bytes reclaimed"`
	Message    string `json:"message" example:"Removed oldest day directory" doc:"Operation result"`
}

type CleanupResponse struct {
	Body CleanupData
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"dev" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc1234" doc:"Git commit SHA"`
	BuildDate string `json:"build_date" example:"2026-08-29 14:30" doc:"Build timestamp"`
	BuildID   string `json:"build_id" example:"a1b2c3d4" doc:"Unique build identifier"`
	GoVersion string `json:"go_version" example:"go1.23.0" doc:"Go compiler version"`
	Compiler  string `json:"compiler" example:"gc" doc:"Compiler used"`
	Platform  string `json:"platform" example:"linux/arm64" doc:"Platform"`
}

type VersionResponse struct {
	Body VersionData
}
