package pipeline

import (
	"sync"

	"github.com/dkovalev/camdvr/internal/capture"
)

// DefaultQueueCapacity bounds the frame backlog between capture and
// encoding. At 30 fps this is roughly two seconds of video.
const DefaultQueueCapacity = 64

// Queue is a bounded FIFO of captured frames between the capture
// goroutine and the encoding worker. When full, the oldest frame is
// dropped so the producer never blocks behind a slow encoder.
type Queue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	frames  []capture.Frame
	cap     int
	closed  bool
	dropped uint64
}

// NewQueue creates a queue holding at most capacity frames. A
// non-positive capacity uses DefaultQueueCapacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	q := &Queue{cap: capacity}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue adds a frame. Frames with no pixel data and frames arriving
// after Close are rejected. Returns whether the frame was accepted.
func (q *Queue) Enqueue(f capture.Frame) bool {
	if len(f.Data) == 0 {
		return false
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}

	if len(q.frames) >= q.cap {
		// Drop the oldest frame rather than stall capture.
		q.frames = q.frames[1:]
		q.dropped++
	}
	q.frames = append(q.frames, f)
	q.cond.Signal()
	return true
}

// Dequeue blocks until a frame is available or the queue is closed and
// drained. The second return value is false only when no more frames
// will ever arrive.
func (q *Queue) Dequeue() (capture.Frame, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.frames) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.frames) == 0 {
		return capture.Frame{}, false
	}

	f := q.frames[0]
	q.frames = q.frames[1:]
	return f, true
}

// Close rejects further frames and wakes blocked consumers. Frames
// already queued can still be drained.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.cond.Broadcast()
}

// Len returns the number of frames currently queued.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.frames)
}

// Dropped returns how many frames were discarded because the queue was
// full.
func (q *Queue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
