package pipeline

import (
	"sync"
	"testing"
	"time"

	"github.com/dkovalev/camdvr/internal/capture"
)

func testFrame(seq uint64) capture.Frame {
	return capture.Frame{
		Data:     []byte{0x00, 0x00, 0x00},
		Width:    1,
		Height:   1,
		Sequence: seq,
		Captured: time.Now(),
	}
}

func TestQueueEnqueueDequeue(t *testing.T) {
	q := NewQueue(4)

	for i := uint64(1); i <= 3; i++ {
		if !q.Enqueue(testFrame(i)) {
			t.Fatalf("Enqueue(%d) rejected", i)
		}
	}
	if q.Len() != 3 {
		t.Errorf("Len() = %d, want 3", q.Len())
	}

	for i := uint64(1); i <= 3; i++ {
		f, ok := q.Dequeue()
		if !ok {
			t.Fatalf("Dequeue() returned ok=false at %d", i)
		}
		if f.Sequence != i {
			t.Errorf("Dequeue() sequence = %d, want %d", f.Sequence, i)
		}
	}
}

func TestQueueRejectsEmptyFrame(t *testing.T) {
	q := NewQueue(4)
	if q.Enqueue(capture.Frame{}) {
		t.Error("Enqueue accepted a frame with no data")
	}
	if q.Len() != 0 {
		t.Errorf("Len() = %d, want 0", q.Len())
	}
}

func TestQueueRejectsAfterClose(t *testing.T) {
	q := NewQueue(4)
	q.Close()
	if q.Enqueue(testFrame(1)) {
		t.Error("Enqueue accepted a frame after Close")
	}
}

func TestQueueDropOldestWhenFull(t *testing.T) {
	q := NewQueue(2)

	for i := uint64(1); i <= 4; i++ {
		if !q.Enqueue(testFrame(i)) {
			t.Fatalf("Enqueue(%d) rejected", i)
		}
	}

	if got := q.Dropped(); got != 2 {
		t.Errorf("Dropped() = %d, want 2", got)
	}

	// The two newest frames survive.
	f, _ := q.Dequeue()
	if f.Sequence != 3 {
		t.Errorf("first surviving sequence = %d, want 3", f.Sequence)
	}
	f, _ = q.Dequeue()
	if f.Sequence != 4 {
		t.Errorf("second surviving sequence = %d, want 4", f.Sequence)
	}
}

func TestQueueDrainAfterClose(t *testing.T) {
	q := NewQueue(4)
	q.Enqueue(testFrame(1))
	q.Enqueue(testFrame(2))
	q.Close()

	if _, ok := q.Dequeue(); !ok {
		t.Fatal("queued frame lost after Close")
	}
	if _, ok := q.Dequeue(); !ok {
		t.Fatal("queued frame lost after Close")
	}
	if _, ok := q.Dequeue(); ok {
		t.Error("Dequeue() = ok on a closed empty queue")
	}
}

func TestQueueCloseWakesBlockedConsumer(t *testing.T) {
	q := NewQueue(4)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, ok := q.Dequeue(); ok {
			t.Error("Dequeue() = ok on an empty closed queue")
		}
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer still blocked after Close")
	}
}

func TestQueueConcurrentProducerConsumer(t *testing.T) {
	const total = 500
	q := NewQueue(total) // large enough that nothing is dropped

	var consumed int
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		prev := uint64(0)
		for {
			f, ok := q.Dequeue()
			if !ok {
				return
			}
			if f.Sequence <= prev {
				t.Errorf("out of order: %d after %d", f.Sequence, prev)
				return
			}
			prev = f.Sequence
			consumed++
		}
	}()

	for i := uint64(1); i <= total; i++ {
		if !q.Enqueue(testFrame(i)) {
			t.Fatalf("Enqueue(%d) rejected", i)
		}
	}
	q.Close()
	wg.Wait()

	if consumed != total {
		t.Errorf("consumed %d frames, want %d", consumed, total)
	}
	if q.Dropped() != 0 {
		t.Errorf("Dropped() = %d, want 0", q.Dropped())
	}
}
