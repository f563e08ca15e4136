package events

import (
	"encoding/json"
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan RecordingStartedEvent, 1)

	unsub := bus.Subscribe(func(e RecordingStartedEvent) {
		received <- e
	})
	defer unsub()

	event := RecordingStartedEvent{
		DevicePath: "/dev/video0",
		Segment:    "/var/lib/camdvr/20260829/record_103000.mp4",
		Timestamp:  "2026-08-29T10:30:00Z",
	}
	bus.Publish(event)

	got := <-received
	if got.DevicePath != event.DevicePath {
		t.Errorf("Expected device_path %s, got %s", event.DevicePath, got.DevicePath)
	}
	if got.Segment != event.Segment {
		t.Errorf("Expected segment %s, got %s", event.Segment, got.Segment)
	}
}

func TestBus_MultipleSubscribers(_ *testing.T) {
	bus := New()
	received1 := make(chan SegmentClosedEvent, 1)
	received2 := make(chan SegmentClosedEvent, 1)

	unsub1 := bus.Subscribe(func(e SegmentClosedEvent) {
		received1 <- e
	})
	defer unsub1()

	unsub2 := bus.Subscribe(func(e SegmentClosedEvent) {
		received2 <- e
	})
	defer unsub2()

	event := SegmentClosedEvent{
		Path:   "/var/lib/camdvr/20260829/10:30-11:00.mp4",
		Frames: 14400,
	}
	bus.Publish(event)

	<-received1
	<-received2
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	received := make(chan CaptureErrorEvent, 1)

	unsub := bus.Subscribe(func(e CaptureErrorEvent) {
		received <- e
	})

	bus.Publish(CaptureErrorEvent{DevicePath: "/dev/video0"})
	<-received

	unsub()

	bus.Publish(CaptureErrorEvent{DevicePath: "/dev/video1"})
	select {
	case <-received:
		t.Fatal("Should not have received event after unsubscribe")
	case <-time.After(10 * time.Millisecond):
		// Expected - no event
	}
}

func TestBus_TypeSafety(t *testing.T) {
	bus := New()

	storageReceived := make(chan bool, 1)
	segmentReceived := make(chan bool, 1)

	unsub1 := bus.Subscribe(func(_ StorageLowEvent) {
		storageReceived <- true
	})
	defer unsub1()

	unsub2 := bus.Subscribe(func(_ SegmentOpenedEvent) {
		segmentReceived <- true
	})
	defer unsub2()

	// Publish StorageLowEvent
	bus.Publish(StorageLowEvent{FreePercent: 4.2})
	<-storageReceived

	select {
	case <-segmentReceived:
		t.Fatal("Segment subscriber should NOT have received StorageLowEvent")
	case <-time.After(10 * time.Millisecond):
		// Expected
	}

	// Publish SegmentOpenedEvent
	bus.Publish(SegmentOpenedEvent{Path: "/var/lib/camdvr/20260829/record_103000.mp4"})
	<-segmentReceived

	select {
	case <-storageReceived:
		t.Fatal("Storage subscriber should NOT have received SegmentOpenedEvent")
	case <-time.After(10 * time.Millisecond):
		// Expected
	}
}

func TestBus_UnknownHandlerIsNoop(t *testing.T) {
	bus := New()

	unsub := bus.Subscribe(func(int) {})
	if unsub == nil {
		t.Fatal("Subscribe should return a no-op unsubscribe for unknown handler types")
	}
	unsub()
}

func TestSubscribeToChannel(t *testing.T) {
	bus := New()
	ch := make(chan any, 4)

	unsub := SubscribeToChannel[StorageCleanupEvent](bus, ch)
	defer unsub()

	bus.Publish(StorageCleanupEvent{Removed: "20221231", FreedBytes: 2048})

	select {
	case got := <-ch:
		e, ok := got.(StorageCleanupEvent)
		if !ok {
			t.Fatalf("received %T, want StorageCleanupEvent", got)
		}
		if e.Removed != "20221231" {
			t.Errorf("Removed = %q, want %q", e.Removed, "20221231")
		}
	case <-time.After(time.Second):
		t.Fatal("event never reached the channel")
	}
}

func TestEventJSONShape(t *testing.T) {
	e := StorageLowEvent{
		TotalBytes:     1000,
		AvailableBytes: 42,
		FreePercent:    4.2,
		Timestamp:      "2026-08-29T10:30:00Z",
	}

	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	for _, key := range []string{"total_bytes", "available_bytes", "free_percent", "timestamp"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("serialized event missing %q field", key)
		}
	}
}
