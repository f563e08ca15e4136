package capture

import "fmt"

// ExpandRGB565 converts little-endian RGB565 pixels in src to packed
// 24-bit RGB in dst. Each 5- and 6-bit channel is widened to 8 bits by
// replicating its high bits into the low bits, so that full-scale input
// maps to full-scale output (0x1F -> 0xFF, 0x3F -> 0xFF).
func ExpandRGB565(dst, src []byte) error {
	if len(src)%2 != 0 {
		return fmt.Errorf("rgb565 payload has odd length %d", len(src))
	}
	if want := len(src) / 2 * 3; len(dst) < want {
		return fmt.Errorf("rgb888 buffer too small: have %d, need %d", len(dst), want)
	}

	for i, j := 0, 0; i < len(src); i, j = i+2, j+3 {
		p := uint16(src[i]) | uint16(src[i+1])<<8
		r := (p >> 11) & 0x1F
		g := (p >> 5) & 0x3F
		b := p & 0x1F
		dst[j] = byte(r<<3 | r>>2)
		dst[j+1] = byte(g<<2 | g>>4)
		dst[j+2] = byte(b<<3 | b>>2)
	}
	return nil
}
