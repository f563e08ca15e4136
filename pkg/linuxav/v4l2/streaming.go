//go:build linux

package v4l2

import (
	"errors"
	"fmt"
	"syscall"
	"unsafe"
)

// Sentinel errors for streaming capture.
var (
	// ErrNoFrame is returned by DequeueBuffer when the driver has no
	// filled buffer yet. The caller should retry.
	ErrNoFrame = errors.New("v4l2: no frame available")

	// ErrTimeout is returned by DequeueBuffer when the wait deadline
	// expires before a buffer becomes ready.
	ErrTimeout = errors.New("v4l2: wait for frame timed out")
)

// Device is an open V4L2 capture device with optional memory-mapped
// streaming buffers. Methods are not safe for concurrent use; a single
// capture goroutine is expected to own the device.
type Device struct {
	fd        int
	path      string
	card      string
	buffers   [][]byte
	streaming bool
	closed    bool

	width        uint32
	height       uint32
	pixelFormat  uint32
	bytesPerLine uint32
	sizeImage    uint32
}

// OpenDevice opens a V4L2 device for streaming capture. The device must
// support both video capture and streaming I/O.
func OpenDevice(path string) (*Device, error) {
	fd, err := open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open device %s: %w", path, err)
	}

	cap := v4l2Capability{}
	if err := ioctlRetry(fd, vidiocQuerycap, unsafe.Pointer(&cap)); err != nil {
		close(fd)
		if errors.Is(err, syscall.ENOTTY) {
			return nil, fmt.Errorf("%s is not a V4L2 device", path)
		}
		return nil, fmt.Errorf("failed to query capabilities of %s: %w", path, err)
	}

	caps := cap.capabilities
	if caps&v4l2CapDeviceCaps != 0 {
		caps = cap.deviceCaps
	}
	if caps&CapVideoCapture == 0 {
		close(fd)
		return nil, fmt.Errorf("%s does not support video capture", path)
	}
	if caps&CapStreaming == 0 {
		close(fd)
		return nil, fmt.Errorf("%s does not support streaming I/O", path)
	}

	return &Device{
		fd:   fd,
		path: path,
		card: cstr(cap.card[:]),
	}, nil
}

// Path returns the device node path.
func (d *Device) Path() string { return d.path }

// Card returns the device name reported by the driver.
func (d *Device) Card() string { return d.card }

// SetFormat negotiates the capture format. The driver may adjust the
// requested values; the negotiated format is recorded on the device and
// returned via Format and SizeImage.
func (d *Device) SetFormat(width, height, pixelFormat uint32) error {
	format := v4l2Format{typ: v4l2BufTypeVideoCapture}
	format.pix.width = width
	format.pix.height = height
	format.pix.pixelformat = pixelFormat
	format.pix.field = v4l2FieldNone

	if err := ioctlRetry(d.fd, vidiocSFmt, unsafe.Pointer(&format)); err != nil {
		return fmt.Errorf("failed to set format on %s: %w", d.path, err)
	}

	d.width = format.pix.width
	d.height = format.pix.height
	d.pixelFormat = format.pix.pixelformat
	d.bytesPerLine = format.pix.bytesperline
	d.sizeImage = format.pix.sizeimage
	return nil
}

// Format returns the negotiated width, height, and pixel format.
func (d *Device) Format() (width, height, pixelFormat uint32) {
	return d.width, d.height, d.pixelFormat
}

// SizeImage returns the negotiated image size in bytes.
func (d *Device) SizeImage() uint32 { return d.sizeImage }

// BytesPerLine returns the negotiated line stride in bytes.
func (d *Device) BytesPerLine() uint32 { return d.bytesPerLine }

// SetFrameInterval requests a capture interval of num/den seconds per
// frame. Drivers that do not support timeperframe report success with
// their fixed rate; the rate actually in effect is returned.
func (d *Device) SetFrameInterval(num, den uint32) (Framerate, error) {
	parm := v4l2Streamparm{typ: v4l2BufTypeVideoCapture}
	if err := ioctlRetry(d.fd, vidiocGParm, unsafe.Pointer(&parm)); err != nil {
		return Framerate{}, fmt.Errorf("failed to get stream parameters of %s: %w", d.path, err)
	}

	if parm.capture.capability&v4l2CapTimeperframe == 0 {
		// Fixed-rate driver; report what it runs at.
		return Framerate{
			Numerator:   parm.capture.timeperframe.numerator,
			Denominator: parm.capture.timeperframe.denominator,
		}, nil
	}

	parm.capture.timeperframe.numerator = num
	parm.capture.timeperframe.denominator = den
	if err := ioctlRetry(d.fd, vidiocSParm, unsafe.Pointer(&parm)); err != nil {
		return Framerate{}, fmt.Errorf("failed to set frame interval on %s: %w", d.path, err)
	}

	return Framerate{
		Numerator:   parm.capture.timeperframe.numerator,
		Denominator: parm.capture.timeperframe.denominator,
	}, nil
}

// RequestBuffers asks the driver for count memory-mapped buffers and
// maps each into the process. Must be called after SetFormat.
func (d *Device) RequestBuffers(count uint32) error {
	req := v4l2RequestBuffers{
		count:  count,
		typ:    v4l2BufTypeVideoCapture,
		memory: v4l2MemoryMmap,
	}
	if err := ioctlRetry(d.fd, vidiocReqbufs, unsafe.Pointer(&req)); err != nil {
		if errors.Is(err, syscall.EINVAL) {
			return fmt.Errorf("%s does not support memory-mapped I/O", d.path)
		}
		return fmt.Errorf("failed to request buffers on %s: %w", d.path, err)
	}
	if req.count < 2 {
		return fmt.Errorf("insufficient buffer memory on %s: got %d buffers", d.path, req.count)
	}

	buffers := make([][]byte, 0, req.count)
	for i := uint32(0); i < req.count; i++ {
		buf := v4l2Buffer{
			index:  i,
			typ:    v4l2BufTypeVideoCapture,
			memory: v4l2MemoryMmap,
		}
		if err := ioctlRetry(d.fd, vidiocQuerybuf, unsafe.Pointer(&buf)); err != nil {
			unmapAll(buffers)
			return fmt.Errorf("failed to query buffer %d on %s: %w", i, d.path, err)
		}

		data, err := syscall.Mmap(d.fd, buf.mmapOffset(), int(buf.length),
			syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
		if err != nil {
			unmapAll(buffers)
			return fmt.Errorf("failed to mmap buffer %d on %s: %w", i, d.path, err)
		}
		buffers = append(buffers, data)
	}

	d.buffers = buffers
	return nil
}

// BufferCount returns the number of mapped streaming buffers.
func (d *Device) BufferCount() int { return len(d.buffers) }

// StreamOn queues all mapped buffers to the driver and starts streaming.
func (d *Device) StreamOn() error {
	if len(d.buffers) == 0 {
		return fmt.Errorf("no buffers mapped on %s", d.path)
	}
	for i := range d.buffers {
		if err := d.QueueBuffer(i); err != nil {
			return err
		}
	}

	typ := int32(v4l2BufTypeVideoCapture)
	if err := ioctlRetry(d.fd, vidiocStreamon, unsafe.Pointer(&typ)); err != nil {
		return fmt.Errorf("failed to start streaming on %s: %w", d.path, err)
	}
	d.streaming = true
	return nil
}

// StreamOff stops streaming. Buffers remain mapped and can be streamed
// again with StreamOn.
func (d *Device) StreamOff() error {
	if !d.streaming {
		return nil
	}
	typ := int32(v4l2BufTypeVideoCapture)
	if err := ioctlRetry(d.fd, vidiocStreamoff, unsafe.Pointer(&typ)); err != nil {
		return fmt.Errorf("failed to stop streaming on %s: %w", d.path, err)
	}
	d.streaming = false
	return nil
}

// QueueBuffer hands the buffer at index back to the driver for filling.
func (d *Device) QueueBuffer(index int) error {
	buf := v4l2Buffer{
		index:  uint32(index),
		typ:    v4l2BufTypeVideoCapture,
		memory: v4l2MemoryMmap,
	}
	if err := ioctlRetry(d.fd, vidiocQbuf, unsafe.Pointer(&buf)); err != nil {
		return fmt.Errorf("failed to queue buffer %d on %s: %w", index, d.path, err)
	}
	return nil
}

// DequeueBuffer waits for a filled buffer and returns its payload and
// index. The payload aliases the memory-mapped buffer and is only valid
// until the index is queued again with QueueBuffer. A negative timeout
// waits indefinitely; on expiry ErrTimeout is returned. ErrNoFrame
// signals a spurious wakeup and should be retried.
func (d *Device) DequeueBuffer(timeoutMs int) ([]byte, int, error) {
	if err := d.waitReadable(timeoutMs); err != nil {
		return nil, 0, err
	}

	buf := v4l2Buffer{
		typ:    v4l2BufTypeVideoCapture,
		memory: v4l2MemoryMmap,
	}
	if err := ioctlRetry(d.fd, vidiocDqbuf, unsafe.Pointer(&buf)); err != nil {
		if errors.Is(err, syscall.EAGAIN) {
			return nil, 0, ErrNoFrame
		}
		return nil, 0, fmt.Errorf("failed to dequeue buffer on %s: %w", d.path, err)
	}
	if int(buf.index) >= len(d.buffers) {
		return nil, 0, fmt.Errorf("driver returned out-of-range buffer index %d on %s", buf.index, d.path)
	}

	data := d.buffers[buf.index]
	if buf.bytesused > 0 && int(buf.bytesused) <= len(data) {
		data = data[:buf.bytesused]
	}
	return data, int(buf.index), nil
}

// waitReadable blocks until the device fd has a buffer ready. A negative
// timeout waits indefinitely.
func (d *Device) waitReadable(timeoutMs int) error {
	for {
		var readFds syscall.FdSet
		fdSet(d.fd, &readFds)

		var tv *syscall.Timeval
		if timeoutMs >= 0 {
			tv = makeTimeval(timeoutMs)
		}

		n, err := syscall.Select(d.fd+1, &readFds, nil, nil, tv)
		if err != nil {
			if errors.Is(err, syscall.EINTR) {
				continue
			}
			return fmt.Errorf("select failed on %s: %w", d.path, err)
		}
		if n == 0 {
			return ErrTimeout
		}
		return nil
	}
}

// Close stops streaming, unmaps all buffers, and closes the device.
// Close is idempotent.
func (d *Device) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true

	var firstErr error
	if d.streaming {
		if err := d.StreamOff(); err != nil {
			firstErr = err
		}
	}
	unmapAll(d.buffers)
	d.buffers = nil
	if err := close(d.fd); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to close %s: %w", d.path, err)
	}
	return firstErr
}

func unmapAll(buffers [][]byte) {
	for _, b := range buffers {
		if b != nil {
			syscall.Munmap(b)
		}
	}
}
