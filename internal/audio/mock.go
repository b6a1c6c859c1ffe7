package audio

import (
	"sync"
	"time"
)

// MockOutput is an Output that plays nothing. Streams advance with the wall
// clock, optionally sped up, so timing-dependent code can be tested without
// an audio device.
type MockOutput struct {
	// Speedup divides real playback time; 0 or 1 plays in real time.
	Speedup float64
	// Rate is reported by SampleRate.
	Rate int

	mu      sync.Mutex
	started []Clip
	closed  bool
}

// NewMockOutput returns a mock output that runs speedup times faster than real time.
func NewMockOutput(speedup float64) *MockOutput {
	return &MockOutput{Speedup: speedup, Rate: OutputSampleRate}
}

// Start records clip and returns a stream that finishes after its duration.
func (m *MockOutput) Start(clip Clip) (Stream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrPlayerClosed
	}
	if len(clip.Data) == 0 {
		return nil, ErrEmptyClip
	}
	m.started = append(m.started, clip)

	speedup := m.Speedup
	if speedup <= 0 {
		speedup = 1
	}
	s := &mockStream{
		start:    time.Now(),
		duration: clip.Duration(),
		speedup:  speedup,
		done:     make(chan struct{}),
	}
	s.timer = time.AfterFunc(time.Duration(float64(s.duration)/speedup), s.Stop)
	return s, nil
}

// SampleRate returns the configured rate.
func (m *MockOutput) SampleRate() int {
	if m.Rate == 0 {
		return OutputSampleRate
	}
	return m.Rate
}

// Close marks the output closed.
func (m *MockOutput) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Started returns every clip passed to Start.
func (m *MockOutput) Started() []Clip {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Clip, len(m.started))
	copy(out, m.started)
	return out
}

type mockStream struct {
	start    time.Time
	duration time.Duration
	speedup  float64
	timer    *time.Timer

	mu      sync.Mutex
	stopped bool
	stopPos time.Duration
	done    chan struct{}
}

func (s *mockStream) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return s.stopPos
	}
	pos := time.Duration(float64(time.Since(s.start)) * s.speedup)
	if pos > s.duration {
		pos = s.duration
	}
	return pos
}

func (s *mockStream) Duration() time.Duration { return s.duration }

func (s *mockStream) Done() <-chan struct{} { return s.done }

func (s *mockStream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	pos := time.Duration(float64(time.Since(s.start)) * s.speedup)
	if pos > s.duration {
		pos = s.duration
	}
	s.stopPos = pos
	s.stopped = true
	s.timer.Stop()
	close(s.done)
}
