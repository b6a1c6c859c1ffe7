package tts

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tobysim/radiation/internal/audio"
	"github.com/tobysim/radiation/internal/cache"
)

// fakeEngine returns a fixed-length silent clip per call.
type fakeEngine struct {
	mu     sync.Mutex
	voices []string
	voice  string
	rate   int
	length time.Duration
	err    error
	calls  int
}

func newFakeEngine(length time.Duration) *fakeEngine {
	return &fakeEngine{
		voices: []string{"en_US-amy-medium", "en_GB-alan-low", "Toby Fox"},
		voice:  "en_US-amy-medium",
		length: length,
	}
}

func (f *fakeEngine) Name() string     { return "fake" }
func (f *fakeEngine) Voices() []string { return f.voices }
func (f *fakeEngine) Available() error { return nil }

func (f *fakeEngine) Voice() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.voice
}

func (f *fakeEngine) SetVoice(name string) error {
	for _, v := range f.voices {
		if v == name {
			f.mu.Lock()
			f.voice = name
			f.mu.Unlock()
			return nil
		}
	}
	return ErrUnknownVoice
}

func (f *fakeEngine) SetRate(wpm int) {
	f.mu.Lock()
	f.rate = wpm
	f.mu.Unlock()
}

func (f *fakeEngine) Synthesize(ctx context.Context, text string) (audio.Clip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return audio.Clip{}, f.err
	}
	format := audio.Format{SampleRate: 8000, Channels: 1}
	n := int(f.length.Seconds() * float64(format.SampleRate))
	return audio.NewClip(format, make([]int16, n)), nil
}

func (f *fakeEngine) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestSpeedForRate(t *testing.T) {
	tests := []struct {
		wpm  int
		want float64
	}{
		{170, 1.0},
		{0, float64(DefaultRate) / baselineRate},
		{-5, float64(DefaultRate) / baselineRate},
		{10, MinSpeed},
		{1000, MaxSpeed},
		{255, 1.5},
	}

	for _, tt := range tests {
		if got := SpeedForRate(tt.wpm); got != tt.want {
			t.Errorf("SpeedForRate(%d): expected %v, got %v", tt.wpm, tt.want, got)
		}
	}
}

func TestCheckText(t *testing.T) {
	if err := CheckText("  \n"); !errors.Is(err, ErrEmptyText) {
		t.Errorf("Expected ErrEmptyText, got %v", err)
	}
	if err := CheckText(strings.Repeat("a", MaxTextSize+1)); !errors.Is(err, ErrTextTooLong) {
		t.Errorf("Expected ErrTextTooLong, got %v", err)
	}
	if err := CheckText("hello"); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

func TestEngineError(t *testing.T) {
	base := errors.New("exit status 1")
	err := &EngineError{Engine: "piper", Op: "synthesize", Stderr: "bad model\n", Err: base}

	if !errors.Is(err, base) {
		t.Error("Expected EngineError to unwrap to its cause")
	}
	if got := err.Error(); got != "piper synthesize: exit status 1, stderr: bad model" {
		t.Errorf("Unexpected message: %q", got)
	}
}

func TestValidateEngineName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"piper", EnginePiper, false},
		{"", EnginePiper, false},
		{"GTTS", EngineGTTS, false},
		{"google", EngineGTTS, false},
		{" mock ", EngineMock, false},
		{"espeak", "", true},
	}

	for _, tt := range tests {
		got, err := ValidateEngineName(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidEngine) {
				t.Errorf("%q: expected ErrInvalidEngine, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("%q: expected %q, got %q (%v)", tt.in, tt.want, got, err)
		}
	}

	if Guidance(EnginePiper) == "" || Guidance(EngineGTTS) == "" {
		t.Error("Expected guidance for external engines")
	}

	for _, name := range SupportedEngines() {
		if got, err := ValidateEngineName(name); err != nil || got != name {
			t.Errorf("Expected supported engine %q to validate, got %q (%v)", name, got, err)
		}
	}
}

func TestMatchVoice(t *testing.T) {
	voices := []string{"en_US-amy-medium", "Toby Fox", "en_GB-alan-low"}

	tests := []struct {
		selector string
		want     string
		ok       bool
	}{
		{"toby fox", "Toby Fox", true},
		{"TOBY", "Toby Fox", true},
		{"alan", "en_GB-alan-low", true},
		{"en_", "en_US-amy-medium", true},
		{"sans", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := MatchVoice(voices, tt.selector)
		if ok != tt.ok || got != tt.want {
			t.Errorf("MatchVoice(%q): expected (%q, %v), got (%q, %v)", tt.selector, tt.want, tt.ok, got, ok)
		}
	}
}

func TestSuggestVoices(t *testing.T) {
	voices := []string{"en_US-amy-medium", "Toby Fox", "en_GB-alan-low"}

	got := SuggestVoices(voices, "tbyfx", 3)
	if len(got) == 0 || got[0] != "Toby Fox" {
		t.Errorf("Expected Toby Fox as first suggestion, got %v", got)
	}
	if got := SuggestVoices(voices, "e", 1); len(got) != 1 {
		t.Errorf("Expected suggestions capped at 1, got %v", got)
	}
}

func TestSelectVoice(t *testing.T) {
	e := newFakeEngine(time.Second)

	if !SelectVoice(e, "toby") {
		t.Fatal("Expected toby to select a voice")
	}
	if e.Voice() != "Toby Fox" {
		t.Errorf("Expected Toby Fox, got %q", e.Voice())
	}

	if SelectVoice(e, "gaster") {
		t.Error("Expected unknown voice to fail")
	}
	if e.Voice() != "Toby Fox" {
		t.Errorf("Expected voice unchanged after failed selection, got %q", e.Voice())
	}
}

func TestEstimateBoundaries(t *testing.T) {
	words := []string{"Chris", "is", "here"}
	got := EstimateBoundaries(words, 14*time.Second)

	// Weights 6, 3, 5 over 14 units.
	want := []time.Duration{0, 6 * time.Second, 9 * time.Second}
	if len(got) != len(want) {
		t.Fatalf("Expected %d boundaries, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].Index != i || got[i].Word != words[i] || got[i].Offset != want[i] {
			t.Errorf("Boundary %d: expected (%d, %q, %v), got %+v", i, i, words[i], want[i], got[i])
		}
	}

	if EstimateBoundaries(nil, time.Second) != nil {
		t.Error("Expected no boundaries for no words")
	}
}

func TestSpeaker_WordsInOrder(t *testing.T) {
	engine := newFakeEngine(600 * time.Millisecond)
	out := audio.NewMockOutput(4)
	s := NewSpeaker(engine, out, 150, WithPollInterval(time.Millisecond))

	if engine.rate != 150 {
		t.Errorf("Expected rate 150 applied to engine, got %d", engine.rate)
	}

	pb, err := s.Speak(context.Background(), "Chris is here")
	if err != nil {
		t.Fatalf("Speak failed: %v", err)
	}

	var got []string
	for b := range pb.Words(context.Background()) {
		if b.Index != len(got) {
			t.Errorf("Expected index %d, got %d", len(got), b.Index)
		}
		got = append(got, b.Word)
	}

	if strings.Join(got, " ") != "Chris is here" {
		t.Errorf("Expected all three words in order, got %v", got)
	}
	if len(out.Started()) != 1 {
		t.Errorf("Expected one clip played, got %d", len(out.Started()))
	}
}

func TestPlayback_WordsSingleUse(t *testing.T) {
	s := NewSpeaker(newFakeEngine(100*time.Millisecond), audio.NewMockOutput(10), 0,
		WithPollInterval(time.Millisecond))

	pb, err := s.Speak(context.Background(), "one two")
	if err != nil {
		t.Fatalf("Speak failed: %v", err)
	}

	first := 0
	for range pb.Words(context.Background()) {
		first++
	}
	second := 0
	for range pb.Words(context.Background()) {
		second++
	}

	if first != 2 {
		t.Errorf("Expected 2 words on first pass, got %d", first)
	}
	if second != 0 {
		t.Errorf("Expected no words on second pass, got %d", second)
	}
}

func TestPlayback_CancelStopsStream(t *testing.T) {
	s := NewSpeaker(newFakeEngine(10*time.Second), audio.NewMockOutput(1), 0,
		WithPollInterval(time.Millisecond))

	pb, err := s.Speak(context.Background(), "a very long sentence indeed")
	if err != nil {
		t.Fatalf("Speak failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	done := make(chan int)
	go func() {
		n := 0
		for range pb.Words(ctx) {
			n++
		}
		done <- n
	}()

	select {
	case n := <-done:
		if n != 1 {
			t.Errorf("Expected only the first word before cancellation, got %d", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Words did not return after cancellation")
	}
}

func TestPlayback_BreakStopsStream(t *testing.T) {
	out := audio.NewMockOutput(1)
	s := NewSpeaker(newFakeEngine(10*time.Second), out, 0, WithPollInterval(time.Millisecond))

	pb, err := s.Speak(context.Background(), "stop after me please")
	if err != nil {
		t.Fatalf("Speak failed: %v", err)
	}

	for range pb.Words(context.Background()) {
		break
	}

	if pb.Duration() != 10*time.Second {
		t.Errorf("Expected 10s duration, got %v", pb.Duration())
	}
}

func TestSpeaker_Errors(t *testing.T) {
	engine := newFakeEngine(time.Second)
	s := NewSpeaker(engine, audio.NewMockOutput(10), 0)

	if _, err := s.Speak(context.Background(), ""); !errors.Is(err, ErrEmptyText) {
		t.Errorf("Expected ErrEmptyText, got %v", err)
	}
	if engine.Calls() != 0 {
		t.Error("Expected engine not called for empty text")
	}

	engine.err = errors.New("boom")
	if _, err := s.Speak(context.Background(), "hi"); !errors.Is(err, ErrSynthesisFailed) {
		t.Errorf("Expected ErrSynthesisFailed, got %v", err)
	}
}

func TestSpeaker_Cache(t *testing.T) {
	store, err := cache.Open(cache.Config{MemoryCapacity: 1 << 20})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	engine := newFakeEngine(50 * time.Millisecond)
	s := NewSpeaker(engine, audio.NewMockOutput(10), 0, WithCache(store))

	for range 2 {
		pb, err := s.Speak(context.Background(), "heya")
		if err != nil {
			t.Fatalf("Speak failed: %v", err)
		}
		pb.Stop()
	}

	if engine.Calls() != 1 {
		t.Errorf("Expected one synthesis with cache, got %d", engine.Calls())
	}
}
