package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/dkovalev/camdvr/internal/events"
)

// registerSSERoutes registers the native Huma SSE endpoint.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time event stream for recording lifecycle, segment rotation, capture errors, and storage state",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"recording-started": events.RecordingStartedEvent{},
		"recording-stopped": events.RecordingStoppedEvent{},
		"segment-opened":    events.SegmentOpenedEvent{},
		"segment-closed":    events.SegmentClosedEvent{},
		"capture-error":     events.CaptureErrorEvent{},
		"record-error":      events.RecordErrorEvent{},
		"storage-low":       events.StorageLowEvent{},
		"storage-cleanup":   events.StorageCleanupEvent{},
		"cleanup-failed":    events.CleanupFailedEvent{},
		"fps-update":        events.FPSUpdateEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		// Create event channel for this connection
		eventCh := make(chan any, 10)

		// Subscribe to all event types using event bus
		unsubscribers := []func(){
			events.SubscribeToChannel[events.RecordingStartedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.RecordingStoppedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.SegmentOpenedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.SegmentClosedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.CaptureErrorEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.RecordErrorEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.StorageLowEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.StorageCleanupEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.CleanupFailedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.FPSUpdateEvent](s.eventBus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		// Send initial connection confirmation
		if err := send.Data(events.FPSUpdateEvent{
			FPS:       0,
			Timestamp: time.Now().Format(time.RFC3339),
		}); err != nil {
			return
		}

		// Keep connection alive and forward events
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					// Connection failed, clean up and exit
					return
				}
			}
		}
	})
}
