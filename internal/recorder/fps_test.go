package recorder

import (
	"math"
	"testing"
	"time"
)

func TestMeterFirstTickEstablishesReference(t *testing.T) {
	m := NewMeter()
	if got := m.Tick(time.Unix(100, 0)); got != 0 {
		t.Errorf("first Tick = %v, want 0", got)
	}
	if m.FPS() != 0 {
		t.Errorf("FPS() after first tick = %v, want 0", m.FPS())
	}
}

func TestMeterSmoothing(t *testing.T) {
	m := NewMeter()
	base := time.Unix(100, 0)

	m.Tick(base)

	// One frame after 100ms: instantaneous rate 10 fps,
	// smoothed = 0.8*0 + 0.2*10 = 2.
	got := m.Tick(base.Add(100 * time.Millisecond))
	if math.Abs(got-2.0) > 1e-9 {
		t.Errorf("after one interval FPS = %v, want 2.0", got)
	}

	// Another 100ms interval: smoothed = 0.8*2 + 0.2*10 = 3.6.
	got = m.Tick(base.Add(200 * time.Millisecond))
	if math.Abs(got-3.6) > 1e-9 {
		t.Errorf("after two intervals FPS = %v, want 3.6", got)
	}
}

func TestMeterConvergesToSteadyRate(t *testing.T) {
	m := NewMeter()
	now := time.Unix(100, 0)
	m.Tick(now)

	// 30 fps steady input settles near 30.
	for i := 0; i < 200; i++ {
		now = now.Add(time.Second / 30)
		m.Tick(now)
	}
	if math.Abs(m.FPS()-30) > 0.1 {
		t.Errorf("steady-state FPS = %v, want ~30", m.FPS())
	}
}

func TestMeterIgnoresZeroElapsed(t *testing.T) {
	m := NewMeter()
	now := time.Unix(100, 0)
	m.Tick(now)
	m.Tick(now.Add(100 * time.Millisecond))

	before := m.FPS()
	if got := m.Tick(now.Add(100 * time.Millisecond)); got != before {
		t.Errorf("zero-elapsed Tick changed FPS from %v to %v", before, got)
	}
}

func TestMeterReset(t *testing.T) {
	m := NewMeter()
	now := time.Unix(100, 0)
	m.Tick(now)
	m.Tick(now.Add(time.Second))

	m.Reset()
	if m.FPS() != 0 {
		t.Errorf("FPS after Reset = %v, want 0", m.FPS())
	}
	if got := m.Tick(now.Add(2 * time.Second)); got != 0 {
		t.Errorf("first Tick after Reset = %v, want 0", got)
	}
}
