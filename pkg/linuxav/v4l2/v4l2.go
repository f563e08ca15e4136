//go:build linux

// Package v4l2 provides pure Go bindings to the Video4Linux2 (V4L2) API
// for device enumeration, format negotiation, and streaming capture with
// memory-mapped buffers.
//
// This package does not use cgo, enabling simple cross-compilation for
// different Linux architectures (amd64, arm64, arm).
//
// # Device Enumeration
//
// Use FindDevices to discover all V4L2 video capture devices:
//
//	devices, err := v4l2.FindDevices()
//	for _, dev := range devices {
//	    fmt.Printf("%s: %s\n", dev.DevicePath, dev.DeviceName)
//	}
//
// # Format Queries
//
// Query supported formats, resolutions, and framerates:
//
//	formats, _ := v4l2.GetFormats("/dev/video0")
//	for _, fmt := range formats {
//	    resolutions, _ := v4l2.GetResolutions("/dev/video0", fmt.PixelFormat)
//	    for _, res := range resolutions {
//	        framerates, _ := v4l2.GetFramerates("/dev/video0", fmt.PixelFormat, res.Width, res.Height)
//	    }
//	}
//
// # Streaming Capture
//
// Open a device, negotiate a format, map kernel buffers, and stream:
//
//	dev, _ := v4l2.OpenDevice("/dev/video0")
//	dev.SetFormat(640, 480, v4l2.PixFmtRGB565)
//	dev.SetFrameInterval(1, 30)
//	dev.RequestBuffers(3)
//	dev.StreamOn()
//	for {
//	    data, idx, _ := dev.DequeueBuffer(-1)
//	    // consume data, then hand the slot back to the driver
//	    dev.QueueBuffer(idx)
//	}
//	dev.StreamOff()
//	dev.Close()
package v4l2
