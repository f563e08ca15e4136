//go:build linux && arm && !arm64

package v4l2

import (
	"syscall"
	"unsafe"
)

// Compile-time struct size assertions for 32-bit ARM.
var (
	_ [204]byte = [unsafe.Sizeof(v4l2Format{})]byte{}
	_ [68]byte  = [unsafe.Sizeof(v4l2Buffer{})]byte{}
)

// IOCTL request codes whose argument structs differ in size between
// 32-bit and 64-bit architectures. v4l2_format embeds pointers through
// its union and v4l2_buffer embeds struct timeval.
const (
	vidiocGFmt     = 0xc0cc5604
	vidiocSFmt     = 0xc0cc5605
	vidiocQuerybuf = 0xc0445609
	vidiocQbuf     = 0xc044560f
	vidiocDqbuf    = 0xc0445611
)

// v4l2Format has size 204 bytes on 32-bit ARM. The fmt union is 200
// bytes; only the pix member is used here.
type v4l2Format struct {
	typ uint32        // offset 0
	pix v4l2PixFormat // offset 4 (union)
	_   [152]byte     // padding to union size
}

// v4l2Buffer has size 68 bytes on 32-bit ARM. struct timeval is 8 bytes
// and the m union is pointer-sized.
type v4l2Buffer struct {
	index     uint32          // offset 0
	typ       uint32          // offset 4
	bytesused uint32          // offset 8
	flags     uint32          // offset 12
	field     uint32          // offset 16
	timestamp syscall.Timeval // offset 20
	timecode  v4l2Timecode    // offset 28
	sequence  uint32          // offset 44
	memory    uint32          // offset 48
	m         uint32          // offset 52 - union: offset/userptr/fd
	length    uint32          // offset 56
	reserved2 uint32          // offset 60
	requestFD int32           // offset 64
}

// mmapOffset returns the driver-assigned mmap offset from the m union.
func (b *v4l2Buffer) mmapOffset() int64 {
	return int64(b.m)
}
