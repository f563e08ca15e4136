//go:build linux && (amd64 || arm64)

package v4l2

import (
	"syscall"
	"unsafe"
)

// Compile-time struct size assertions for 64-bit architectures.
var (
	_ [208]byte = [unsafe.Sizeof(v4l2Format{})]byte{}
	_ [88]byte  = [unsafe.Sizeof(v4l2Buffer{})]byte{}
)

// IOCTL request codes whose argument structs differ in size between
// 32-bit and 64-bit architectures. v4l2_format embeds pointers through
// its union and v4l2_buffer embeds struct timeval.
const (
	vidiocGFmt     = 0xc0d05604
	vidiocSFmt     = 0xc0d05605
	vidiocQuerybuf = 0xc0585609
	vidiocQbuf     = 0xc058560f
	vidiocDqbuf    = 0xc0585611
)

// v4l2Format has size 208 bytes on 64-bit. The fmt union is 200 bytes
// and 8-byte aligned; only the pix member is used here.
type v4l2Format struct {
	typ uint32        // offset 0
	_   [4]byte       // padding to union alignment
	pix v4l2PixFormat // offset 8 (union)
	_   [152]byte     // padding to union size
}

// v4l2Buffer has size 88 bytes on 64-bit.
type v4l2Buffer struct {
	index     uint32          // offset 0
	typ       uint32          // offset 4
	bytesused uint32          // offset 8
	flags     uint32          // offset 12
	field     uint32          // offset 16
	_         [4]byte         // padding to timeval alignment
	timestamp syscall.Timeval // offset 24
	timecode  v4l2Timecode    // offset 40
	sequence  uint32          // offset 56
	memory    uint32          // offset 60
	m         uint64          // offset 64 - union: offset/userptr/fd
	length    uint32          // offset 72
	reserved2 uint32          // offset 76
	requestFD int32           // offset 80
	_         [4]byte         // padding to struct alignment
}

// mmapOffset returns the driver-assigned mmap offset from the m union.
func (b *v4l2Buffer) mmapOffset() int64 {
	return int64(uint32(b.m))
}
