package recorder

import "time"

// fpsAlpha weights each new instantaneous rate sample. The previous
// smoothed value keeps 80% of its weight, so the reading settles within
// a couple of seconds without jumping on a single slow frame.
const fpsAlpha = 0.2

// Meter smooths the capture frame rate with an exponential moving
// average of the instantaneous rate between consecutive frames.
type Meter struct {
	last time.Time
	fps  float64
}

// NewMeter returns a meter with no history.
func NewMeter() *Meter {
	return &Meter{}
}

// Tick records a frame arrival and returns the updated smoothed rate.
// The first tick only establishes the reference time.
func (m *Meter) Tick(now time.Time) float64 {
	if m.last.IsZero() {
		m.last = now
		return m.fps
	}

	elapsed := now.Sub(m.last).Seconds()
	m.last = now
	if elapsed <= 0 {
		return m.fps
	}

	instant := 1 / elapsed
	m.fps = (1-fpsAlpha)*m.fps + fpsAlpha*instant
	return m.fps
}

// FPS returns the current smoothed rate.
func (m *Meter) FPS() float64 { return m.fps }

// Reset clears all history.
func (m *Meter) Reset() {
	m.last = time.Time{}
	m.fps = 0
}
