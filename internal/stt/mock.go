package stt

import (
	"context"
	"sync"

	"github.com/tobysim/radiation/internal/audio"
)

// MockResult is one scripted transcription outcome.
type MockResult struct {
	Text string
	Err  error
}

// Mock returns scripted results in order. Once the script runs out it
// reports every phrase as not understood.
type Mock struct {
	mu      sync.Mutex
	results []MockResult
	clips   int
}

// NewMock returns a mock with the given script.
func NewMock(results ...MockResult) *Mock {
	return &Mock{results: results}
}

func (m *Mock) Transcribe(ctx context.Context, _ audio.Clip) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clips++
	if len(m.results) == 0 {
		return "", ErrNotUnderstood
	}
	r := m.results[0]
	m.results = m.results[1:]
	if r.Err == nil && r.Text == "" {
		return "", ErrNotUnderstood
	}
	return r.Text, r.Err
}

// Calls returns how many phrases were transcribed.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clips
}
