package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/dkovalev/camdvr/internal/api/models"
	"github.com/dkovalev/camdvr/pkg/linuxav/v4l2"
)

// registerDeviceRoutes registers the V4L2 device enumeration endpoint.
func (s *Server) registerDeviceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-devices",
		Method:      http.MethodGet,
		Path:        "/api/devices",
		Summary:     "List Devices",
		Description: "Enumerate V4L2 capture devices and their supported formats",
		Tags:        []string{"devices"},
		Security:    withAuth(),
		Errors:      []int{401, 500},
	}, func(ctx context.Context, input *struct{}) (*models.DeviceListResponse, error) {
		devices, err := v4l2.FindDevices()
		if err != nil {
			return nil, huma.Error500InternalServerError("Device enumeration failed", err)
		}

		out := make([]models.DeviceData, 0, len(devices))
		for _, dev := range devices {
			item := models.DeviceData{
				Path:     dev.DevicePath,
				Name:     dev.DeviceName,
				DeviceID: dev.DeviceID,
			}

			// Format probing is best-effort; a busy device still shows up
			if formats, fmtErr := v4l2.GetFormats(dev.DevicePath); fmtErr == nil {
				for _, f := range formats {
					item.Formats = append(item.Formats, models.FormatData{
						PixelFormat: v4l2.FormatFourCC(f.PixelFormat),
						Description: f.FormatName,
					})
				}
			}

			out = append(out, item)
		}

		return &models.DeviceListResponse{
			Body: models.DeviceListData{
				Devices: out,
				Count:   len(out),
			},
		}, nil
	})
}
