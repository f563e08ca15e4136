package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/dkovalev/camdvr/internal/api/models"
	"github.com/dkovalev/camdvr/internal/recorder"
	"github.com/dkovalev/camdvr/internal/retention"
)

// registerRecordingRoutes registers recorder control and retention endpoints.
func (s *Server) registerRecordingRoutes() {
	// Combined recorder + storage status
	huma.Register(s.api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/api/status",
		Summary:     "Status",
		Description: "Get recording state, capture rate, and storage usage",
		Tags:        []string{"recording"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, input *struct{}) (*models.StatusResponse, error) {
		st := s.recorder.Status()

		body := models.StatusData{
			Recording:  st.Recording,
			DevicePath: st.DevicePath,
			Segment:    st.Segment,
			FPS:        st.FPS,
			Frames:     st.FramesWritten,
			Dropped:    st.DroppedFrames,
		}
		if st.Recording && !st.StartedAt.IsZero() {
			body.ElapsedSeconds = time.Since(st.StartedAt).Seconds()
		}

		// Storage figures are best-effort; a stat failure leaves zeros
		if usage, _, err := s.storage.CheckSpace(); err == nil {
			body.Storage = models.StorageData{
				TotalBytes:     usage.TotalBytes,
				AvailableBytes: usage.AvailableBytes,
				FreePercent:    usage.FreePercent,
			}
		}

		return &models.StatusResponse{Body: body}, nil
	})

	// Start recording
	huma.Register(s.api, huma.Operation{
		OperationID: "start-recording",
		Method:      http.MethodPost,
		Path:        "/api/recording/start",
		Summary:     "Start Recording",
		Description: "Open the capture device and begin a segmented recording session",
		Tags:        []string{"recording"},
		Security:    withAuth(),
		Errors:      []int{401, 409, 507, 500},
	}, func(ctx context.Context, input *struct{}) (*models.StartRecordingResponse, error) {
		if err := s.recorder.Start(); err != nil {
			switch {
			case errors.Is(err, recorder.ErrAlreadyRecording):
				return nil, huma.Error409Conflict("Recording already in progress", err)
			case errors.Is(err, recorder.ErrNoSpace):
				return nil, huma.NewError(http.StatusInsufficientStorage, "Not enough storage space", err)
			default:
				return nil, huma.Error500InternalServerError("Failed to start recording", err)
			}
		}

		st := s.recorder.Status()
		return &models.StartRecordingResponse{
			Body: models.StartRecordingData{
				Status:     "recording",
				DevicePath: st.DevicePath,
				Segment:    st.Segment,
			},
		}, nil
	})

	// Stop recording
	huma.Register(s.api, huma.Operation{
		OperationID: "stop-recording",
		Method:      http.MethodPost,
		Path:        "/api/recording/stop",
		Summary:     "Stop Recording",
		Description: "Stop the active session and finalize the current segment",
		Tags:        []string{"recording"},
		Security:    withAuth(),
		Errors:      []int{401, 409},
	}, func(ctx context.Context, input *struct{}) (*models.StopRecordingResponse, error) {
		if !s.recorder.Recording() {
			return nil, huma.Error409Conflict("No recording in progress")
		}

		// The frame count is read after Stop so frames flushed during
		// the drain are included.
		frames, err := s.recorder.Stop()
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to stop recording", err)
		}

		return &models.StopRecordingResponse{
			Body: models.StopRecordingData{
				Status: "stopped",
				Frames: frames,
			},
		}, nil
	})

	// Manual retention sweep
	huma.Register(s.api, huma.Operation{
		OperationID: "retention-cleanup",
		Method:      http.MethodPost,
		Path:        "/api/retention/cleanup",
		Summary:     "Cleanup Storage",
		Description: "Delete the oldest day directory from the recording volume",
		Tags:        []string{"retention"},
		Security:    withAuth(),
		Errors:      []int{401, 404, 500},
	}, func(ctx context.Context, input *struct{}) (*models.CleanupResponse, error) {
		removed, freed, err := s.storage.CleanupOldestDay()
		if err != nil {
			if errors.Is(err, retention.ErrNoCandidates) {
				return nil, huma.Error404NotFound("No day directories to delete", err)
			}
			return nil, huma.Error500InternalServerError("Cleanup failed", err)
		}

		return &models.CleanupResponse{
			Body: models.CleanupData{
				Removed:    removed,
				FreedBytes: freed,
				Message:    "Removed oldest day directory",
			},
		}, nil
	})
}
