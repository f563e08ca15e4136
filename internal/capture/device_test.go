//go:build linux

package capture

import (
	"strings"
	"testing"

	"github.com/dkovalev/camdvr/pkg/linuxav/v4l2"
)

func TestAcceptFormat(t *testing.T) {
	requested := Config{
		DevicePath: "/dev/video0",
		Width:      640,
		Height:     480,
	}

	tests := []struct {
		name    string
		w, h    uint32
		pf      uint32
		wantW   uint32
		wantH   uint32
		wantErr string
	}{
		{
			name:  "exact match",
			w:     640,
			h:     480,
			pf:    v4l2.PixFmtRGB565,
			wantW: 640,
			wantH: 480,
		},
		{
			name:  "driver substitutes resolution",
			w:     352,
			h:     288,
			pf:    v4l2.PixFmtRGB565,
			wantW: 352,
			wantH: 288,
		},
		{
			name:    "driver refuses pixel encoding",
			w:       640,
			h:       480,
			pf:      v4l2.PixFmtYUYV,
			wantErr: "pixel format",
		},
		{
			name:    "zero dimensions rejected",
			w:       0,
			h:       480,
			pf:      v4l2.PixFmtRGB565,
			wantErr: "invalid resolution",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := acceptFormat(requested, tt.w, tt.h, tt.pf)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("acceptFormat accepted %dx%d %s", tt.w, tt.h, v4l2.FormatFourCC(tt.pf))
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error %q does not mention %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("acceptFormat failed: %v", err)
			}
			if got.Width != tt.wantW || got.Height != tt.wantH {
				t.Errorf("accepted %dx%d, want %dx%d", got.Width, got.Height, tt.wantW, tt.wantH)
			}
		})
	}
}
