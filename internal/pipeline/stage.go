// Package pipeline connects speech capture, the utterance queue and speech
// synthesis, and publishes what is being said to the render loop.
package pipeline

import (
	"strings"
	"sync"
	"sync/atomic"
)

// Placeholder opens every caption while its first word is pending.
const Placeholder = "*"

// Reveal is the write side of the stage. Only the synthesis worker holds it.
type Reveal interface {
	// Reset replaces the revealed words with initial.
	Reset(initial ...string)
	// Append reveals one more word.
	Append(word string)
	// Len returns how many words are revealed, placeholder included.
	Len() int
	SetSpeaking(speaking bool)
}

// View is the read side of the stage, held by the render loop.
type View interface {
	Speaking() bool
	Listening() bool
	// Words returns a snapshot of the revealed words.
	Words() []string
	// Caption returns the revealed words joined by spaces.
	Caption() string
}

// Stage is the state shared between the workers and the render loop.
// Each field has a single writer.
type Stage struct {
	speaking  atomic.Bool
	listening atomic.Bool

	mu    sync.Mutex
	words []string
}

var (
	_ Reveal = (*Stage)(nil)
	_ View   = (*Stage)(nil)
)

// NewStage returns an empty, silent stage.
func NewStage() *Stage {
	return &Stage{}
}

func (s *Stage) Reset(initial ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.words = append(s.words[:0:0], initial...)
}

func (s *Stage) Append(word string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.words = append(s.words, word)
}

func (s *Stage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.words)
}

func (s *Stage) Words() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.words))
	copy(out, s.words)
	return out
}

func (s *Stage) Caption() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.words, " ")
}

func (s *Stage) SetSpeaking(speaking bool) { s.speaking.Store(speaking) }

func (s *Stage) Speaking() bool { return s.speaking.Load() }

// SetListening is written by the transcription worker.
func (s *Stage) SetListening(listening bool) { s.listening.Store(listening) }

func (s *Stage) Listening() bool { return s.listening.Load() }
