//go:build linux

package v4l2

import (
	"errors"
	"math"
	"syscall"
	"testing"
)

// TestErrnoComparison verifies that errors.Is works correctly with
// syscall.Errno, which the streaming paths rely on to classify EAGAIN
// and EINVAL results.
func TestErrnoComparison(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		target   error
		expected bool
	}{
		{
			name:     "EAGAIN matches EAGAIN",
			err:      syscall.EAGAIN,
			target:   syscall.EAGAIN,
			expected: true,
		},
		{
			name:     "EINVAL matches EINVAL",
			err:      syscall.EINVAL,
			target:   syscall.EINVAL,
			expected: true,
		},
		{
			name:     "ENOTTY matches ENOTTY",
			err:      syscall.ENOTTY,
			target:   syscall.ENOTTY,
			expected: true,
		},
		{
			name:     "ENODEV matches ENODEV",
			err:      syscall.ENODEV,
			target:   syscall.ENODEV,
			expected: true,
		},
		{
			name:     "EINTR matches EINTR",
			err:      syscall.EINTR,
			target:   syscall.EINTR,
			expected: true,
		},
		{
			name:     "EAGAIN does not match EINVAL",
			err:      syscall.EAGAIN,
			target:   syscall.EINVAL,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := errors.Is(tt.err, tt.target)
			if result != tt.expected {
				t.Errorf("errors.Is(%v, %v) = %v, want %v",
					tt.err, tt.target, result, tt.expected)
			}
		})
	}
}

func TestFormatFourCC(t *testing.T) {
	tests := []struct {
		name     string
		format   uint32
		expected string
	}{
		{
			name:     "RGB565 format",
			format:   PixFmtRGB565,
			expected: "RGBP",
		},
		{
			name:     "YUYV format",
			format:   PixFmtYUYV,
			expected: "YUYV",
		},
		{
			name:     "MJPEG format",
			format:   PixFmtMJPEG,
			expected: "MJPG",
		},
		{
			name:     "H264 format",
			format:   PixFmtH264,
			expected: "H264",
		},
		{
			name:     "NV12 format",
			format:   PixFmtNV12,
			expected: "NV12",
		},
		{
			name:     "null bytes",
			format:   0x00000000,
			expected: "\x00\x00\x00\x00",
		},
		{
			name:     "mixed bytes",
			format:   0x01020304,
			expected: "\x04\x03\x02\x01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatFourCC(tt.format)
			if result != tt.expected {
				t.Errorf("FormatFourCC(0x%08X) = %q, want %q", tt.format, result, tt.expected)
			}
		})
	}
}

func TestFramerateFPS(t *testing.T) {
	tests := []struct {
		name        string
		framerate   Framerate
		expectedFPS float64
	}{
		{
			name:        "60 fps (1/60)",
			framerate:   Framerate{Numerator: 1, Denominator: 60},
			expectedFPS: 60.0,
		},
		{
			name:        "30 fps (1/30)",
			framerate:   Framerate{Numerator: 1, Denominator: 30},
			expectedFPS: 30.0,
		},
		{
			name:        "29.97 fps (1001/30000)",
			framerate:   Framerate{Numerator: 1001, Denominator: 30000},
			expectedFPS: 30000.0 / 1001.0, // ~29.97
		},
		{
			name:        "zero numerator returns 0",
			framerate:   Framerate{Numerator: 0, Denominator: 60},
			expectedFPS: 0.0,
		},
		{
			name:        "zero denominator with non-zero numerator",
			framerate:   Framerate{Numerator: 1, Denominator: 0},
			expectedFPS: 0.0,
		},
		{
			name:        "both zero",
			framerate:   Framerate{Numerator: 0, Denominator: 0},
			expectedFPS: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.framerate.FPS()
			if math.Abs(result-tt.expectedFPS) > 0.001 {
				t.Errorf("Framerate{%d, %d}.FPS() = %f, want %f",
					tt.framerate.Numerator, tt.framerate.Denominator,
					result, tt.expectedFPS)
			}
		})
	}
}

func TestCstr(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "null terminated",
			input:    []byte{'v', 'i', 'd', 'e', 'o', 0, 'x', 'x'},
			expected: "video",
		},
		{
			name:     "no terminator",
			input:    []byte{'a', 'b', 'c'},
			expected: "abc",
		},
		{
			name:     "empty string",
			input:    []byte{0, 0, 0},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cstr(tt.input); got != tt.expected {
				t.Errorf("cstr(%v) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

// TestDequeueBufferClassification verifies the sentinel errors are
// distinguishable for callers retrying on transient conditions.
func TestDequeueBufferClassification(t *testing.T) {
	if errors.Is(ErrNoFrame, ErrTimeout) {
		t.Error("ErrNoFrame should not match ErrTimeout")
	}
	if !errors.Is(ErrNoFrame, ErrNoFrame) {
		t.Error("ErrNoFrame should match itself")
	}
}
