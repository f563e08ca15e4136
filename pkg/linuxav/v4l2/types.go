//go:build linux

package v4l2

// DeviceInfo contains information about a V4L2 device.
type DeviceInfo struct {
	DevicePath string
	DeviceName string
	DeviceID   string // Stable identifier (from /dev/v4l/by-id/ or synthetic)
	Caps       uint32
}

// FormatInfo contains information about a supported pixel format.
type FormatInfo struct {
	PixelFormat uint32
	FormatName  string
	Emulated    bool
}

// Resolution represents a supported video resolution.
type Resolution struct {
	Width  uint32
	Height uint32
}

// Framerate represents a supported framerate as a fraction.
type Framerate struct {
	Numerator   uint32
	Denominator uint32
}

// FPS returns the framerate as frames per second.
func (f Framerate) FPS() float64 {
	if f.Numerator == 0 {
		return 0
	}
	return float64(f.Denominator) / float64(f.Numerator)
}

// Capability flags.
const (
	CapVideoCapture = 0x00000001
	CapStreaming    = 0x04000000

	v4l2CapDeviceCaps = 0x80000000
)

// Format flags.
const (
	v4l2FmtFlagEmulated = 0x0002
)

// Common pixel formats.
const (
	PixFmtRGB565 = 0x50424752 // 'RGBP' - 16-bit RGB 5-6-5
	PixFmtYUYV   = 0x56595559 // 'YUYV'
	PixFmtMJPEG  = 0x47504A4D // 'MJPG'
	PixFmtH264   = 0x34363248 // 'H264'
	PixFmtNV12   = 0x3231564E // 'NV12'
)

// Frame size types.
const (
	v4l2FrmsizeTypeDiscrete   = 1
	v4l2FrmsizeTypeContinuous = 2
	v4l2FrmsizeTypeStepwise   = 3
)

// Frame interval types.
const (
	v4l2FrmivalTypeDiscrete   = 1
	v4l2FrmivalTypeContinuous = 2
	v4l2FrmivalTypeStepwise   = 3
)

// Buffer type, memory model, and field order.
const (
	v4l2BufTypeVideoCapture = 1
	v4l2FieldNone           = 1
	v4l2MemoryMmap          = 1
)

// Capture parm flags.
const (
	v4l2CapTimeperframe = 0x1000
)
