package engines

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/tobysim/radiation/internal/audio"
	"github.com/tobysim/radiation/internal/tts"
)

const mockSampleRate = 16000

// Mock synthesizes a short tone per word. It needs no external tools and
// its output depends only on the text and rate.
type Mock struct {
	// Err, when set, is returned by Synthesize.
	Err error

	mu    sync.Mutex
	voice string
	wpm   int
	calls []string
}

// NewMock returns a mock engine speaking at the default rate.
func NewMock() *Mock {
	return &Mock{voice: "Default", wpm: tts.DefaultRate}
}

func (m *Mock) Name() string { return tts.EngineMock }

func (m *Mock) Voices() []string { return []string{"Default", "Toby Fox"} }

func (m *Mock) Voice() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.voice
}

func (m *Mock) SetVoice(name string) error {
	for _, v := range m.Voices() {
		if v == name {
			m.mu.Lock()
			m.voice = name
			m.mu.Unlock()
			return nil
		}
	}
	return fmt.Errorf("%w: %s", tts.ErrUnknownVoice, name)
}

func (m *Mock) SetRate(wpm int) {
	if wpm <= 0 {
		wpm = tts.DefaultRate
	}
	m.mu.Lock()
	m.wpm = wpm
	m.mu.Unlock()
}

func (m *Mock) Available() error { return nil }

// Synthesize returns one tone per word, each lasting a minute divided by
// the rate.
func (m *Mock) Synthesize(ctx context.Context, text string) (audio.Clip, error) {
	if err := tts.CheckText(text); err != nil {
		return audio.Clip{}, err
	}
	if err := ctx.Err(); err != nil {
		return audio.Clip{}, err
	}

	m.mu.Lock()
	m.calls = append(m.calls, text)
	wpm, err := m.wpm, m.Err
	m.mu.Unlock()
	if err != nil {
		return audio.Clip{}, &tts.EngineError{Engine: m.Name(), Op: "synthesize", Err: err}
	}

	perWord := int(time.Minute/time.Duration(wpm)) / int(time.Second/mockSampleRate)
	var samples []int16
	for _, word := range strings.Fields(text) {
		freq := 220 + 40*float64(len(word)%8)
		for n := range perWord {
			v := 0.0
			if n < perWord*3/4 {
				v = math.Sin(2 * math.Pi * freq * float64(n) / mockSampleRate)
			}
			samples = append(samples, int16(v*8000))
		}
	}

	return audio.NewClip(audio.Format{SampleRate: mockSampleRate, Channels: 1}, samples), nil
}

// Calls returns every text passed to Synthesize.
func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}
