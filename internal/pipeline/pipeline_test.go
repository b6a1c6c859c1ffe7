package pipeline

import (
	"context"
	"errors"
	"io"
	"iter"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tobysim/radiation/internal/audio"
	"github.com/tobysim/radiation/internal/lexicon"
	"github.com/tobysim/radiation/internal/queue"
	"github.com/tobysim/radiation/internal/stt"
	"github.com/tobysim/radiation/internal/tts"
	"github.com/tobysim/radiation/internal/tts/engines"
)

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("Timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func mockSpeaker() (TTSSpeaker, *engines.Mock) {
	engine := engines.NewMock()
	speaker := tts.NewSpeaker(engine, audio.NewMockOutput(20), 120, tts.WithPollInterval(time.Millisecond))
	return TTSSpeaker{speaker}, engine
}

// fakeSpeaker records spoken text and reveals a fixed number of boundaries.
type fakeSpeaker struct {
	boundaries int
	err        error
	spoken     []string
}

func (f *fakeSpeaker) Speak(_ context.Context, text string) (Playback, error) {
	f.spoken = append(f.spoken, text)
	if f.err != nil {
		return nil, f.err
	}
	return fakePlayback(f.boundaries), nil
}

type fakePlayback int

func (n fakePlayback) Words(context.Context) iter.Seq[tts.Boundary] {
	return func(yield func(tts.Boundary) bool) {
		for i := range int(n) {
			if !yield(tts.Boundary{Index: i}) {
				return
			}
		}
	}
}

// recordingStage captures speaking transitions.
type recordingStage struct {
	*Stage
	mu       sync.Mutex
	speaking []bool
}

func (r *recordingStage) SetSpeaking(b bool) {
	r.mu.Lock()
	r.speaking = append(r.speaking, b)
	r.mu.Unlock()
	r.Stage.SetSpeaking(b)
}

func TestStage(t *testing.T) {
	s := NewStage()
	s.Reset(Placeholder)
	s.Append("Chris")

	words := s.Words()
	words[0] = "mutated"
	if got := s.Words(); !reflect.DeepEqual(got, []string{"*", "Chris"}) {
		t.Errorf("Expected snapshot isolation, got %v", got)
	}
	if s.Caption() != "* Chris" {
		t.Errorf("Expected caption '* Chris', got %q", s.Caption())
	}

	s.Reset()
	if s.Len() != 0 || s.Caption() != "" {
		t.Errorf("Expected empty stage, got %v", s.Words())
	}

	s.SetSpeaking(true)
	s.SetListening(true)
	if !s.Speaking() || !s.Listening() {
		t.Error("Expected speaking and listening flags set")
	}
}

func TestSynthesisWorker_RevealsWords(t *testing.T) {
	speaker, engine := mockSpeaker()
	stage := &recordingStage{Stage: NewStage()}
	w := NewSynthesisWorker(speaker, queue.New(0), stage)

	w.say(context.Background(), queue.NewUtterance("Chris is here", queue.SourceMic))

	if got := stage.Words(); !reflect.DeepEqual(got, []string{"*", "Chris", "is", "here"}) {
		t.Errorf("Expected all words revealed after the placeholder, got %v", got)
	}
	if !reflect.DeepEqual(stage.speaking, []bool{true, false}) {
		t.Errorf("Expected speaking true then false, got %v", stage.speaking)
	}
	if calls := engine.Calls(); len(calls) != 1 || calls[0] != "Chris is here" {
		t.Errorf("Unexpected synthesis calls %v", calls)
	}
}

func TestSynthesisWorker_SpeaksSanitizedShowsOriginal(t *testing.T) {
	fake := &fakeSpeaker{boundaries: 2}
	stage := NewStage()
	w := NewSynthesisWorker(fake, queue.New(0), stage)

	w.say(context.Background(), queue.NewUtterance("Hello, (Ralsei)!", queue.SourceConsole))

	if len(fake.spoken) != 1 || fake.spoken[0] != "Hello Ralsei" {
		t.Errorf("Expected punctuation stripped for speech, got %v", fake.spoken)
	}
	if got := stage.Caption(); got != "* Hello, (Ralsei)!" {
		t.Errorf("Expected punctuation kept on screen, got %q", got)
	}
}

func TestSynthesisWorker_ClampsExtraBoundaries(t *testing.T) {
	stage := NewStage()
	w := NewSynthesisWorker(&fakeSpeaker{boundaries: 10}, queue.New(0), stage)

	w.say(context.Background(), queue.NewUtterance("two words", queue.SourceMic))

	if got := stage.Words(); !reflect.DeepEqual(got, []string{"*", "two", "words"}) {
		t.Errorf("Expected reveal clamped to the word count, got %v", got)
	}
	if stage.Speaking() {
		t.Error("Expected speaking cleared")
	}
}

func TestSynthesisWorker_SkipsPunctuationOnlyWords(t *testing.T) {
	fake := &fakeSpeaker{boundaries: 2}
	stage := NewStage()
	w := NewSynthesisWorker(fake, queue.New(0), stage)

	w.say(context.Background(), queue.NewUtterance("wait ... what", queue.SourceConsole))

	if len(fake.spoken) != 1 || len(strings.Fields(fake.spoken[0])) != 2 {
		t.Errorf("Expected two spoken words, got %v", fake.spoken)
	}
	if got := stage.Words(); !reflect.DeepEqual(got, []string{"*", "wait", "what"}) {
		t.Errorf("Expected every spoken word revealed, got %v", got)
	}
}

func TestSynthesisWorker_EmptyUtteranceClears(t *testing.T) {
	fake := &fakeSpeaker{boundaries: 1}
	stage := NewStage()
	stage.Reset(Placeholder, "old")
	w := NewSynthesisWorker(fake, queue.New(0), stage)

	w.say(context.Background(), queue.NewUtterance("", queue.SourceKey))

	if stage.Len() != 0 {
		t.Errorf("Expected caption cleared, got %v", stage.Words())
	}
	if len(fake.spoken) != 0 {
		t.Error("Expected no synthesis for an empty utterance")
	}
	if stage.Speaking() {
		t.Error("Expected not speaking")
	}
}

func TestSynthesisWorker_SpeakFailure(t *testing.T) {
	stage := &recordingStage{Stage: NewStage()}
	w := NewSynthesisWorker(&fakeSpeaker{err: errors.New("no engine")}, queue.New(0), stage)

	w.say(context.Background(), queue.NewUtterance("hello", queue.SourceMic))

	if got := stage.Words(); !reflect.DeepEqual(got, []string{"*"}) {
		t.Errorf("Expected placeholder only, got %v", got)
	}
	if !reflect.DeepEqual(stage.speaking, []bool{true, false}) {
		t.Errorf("Expected speaking reset after failure, got %v", stage.speaking)
	}
}

func TestSynthesisWorker_RunInOrder(t *testing.T) {
	fake := &fakeSpeaker{boundaries: 3}
	q := queue.New(0)
	w := NewSynthesisWorker(fake, q, NewStage())

	_ = q.Enqueue(queue.NewUtterance("first", queue.SourceMic))
	_ = q.Enqueue(queue.NewUtterance("second", queue.SourceConsole))
	_ = q.Close()

	done := make(chan error)
	go func() { done <- w.Run(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected clean exit, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Worker did not exit on closed queue")
	}

	if !reflect.DeepEqual(fake.spoken, []string{"first", "second"}) {
		t.Errorf("Expected FIFO order, got %v", fake.spoken)
	}
}

type scriptedListener struct {
	mu    sync.Mutex
	errs  []error
	calls int
}

func (l *scriptedListener) Listen(ctx context.Context) (audio.Clip, error) {
	l.mu.Lock()
	l.calls++
	var err error
	if len(l.errs) > 0 {
		err, l.errs = l.errs[0], l.errs[1:]
	}
	l.mu.Unlock()

	if err != nil {
		return audio.Clip{}, err
	}
	select {
	case <-ctx.Done():
		return audio.Clip{}, ctx.Err()
	case <-time.After(time.Millisecond):
	}
	return audio.NewClip(audio.Format{SampleRate: 16000, Channels: 1}, make([]int16, 160)), nil
}

type panicTranscriber struct{}

func (panicTranscriber) Transcribe(context.Context, audio.Clip) (string, error) {
	panic("recognizer exploded")
}

func TestTranscriptionWorker_NormalizesAndQueues(t *testing.T) {
	q := queue.New(0)
	tr := stt.NewMock(
		stt.MockResult{Text: "Chris is here"},
		stt.MockResult{},
		stt.MockResult{Err: stt.ErrRequestFailed},
		stt.MockResult{Text: "Rossi"},
	)
	w := NewTranscriptionWorker(&scriptedListener{}, tr, lexicon.Default(), q)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- w.Run(ctx) }()

	waitFor(t, "two phrases", func() bool { return q.Len() == 2 })
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Expected nil on shutdown, got %v", err)
	}

	var got []string
	for q.Len() > 0 {
		u, _ := q.Dequeue(context.Background(), time.Millisecond)
		if u.Source != queue.SourceMic {
			t.Errorf("Expected mic source, got %s", u.Source)
		}
		got = append(got, u.Text)
	}
	if !reflect.DeepEqual(got, []string{"Kris is here", "Ralsei"}) {
		t.Errorf("Expected normalized phrases, got %v", got)
	}
}

func TestTranscriptionWorker_DropsEmptyAfterNormalize(t *testing.T) {
	q := queue.New(0)
	lex := lexicon.New([]lexicon.Rule{{Phrase: "um", Replacement: ""}})
	tr := stt.NewMock(
		stt.MockResult{Text: "um"},
		stt.MockResult{Text: "   "},
		stt.MockResult{Text: " um hello "},
	)
	w := NewTranscriptionWorker(&scriptedListener{}, tr, lex, q)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- w.Run(ctx) }()

	waitFor(t, "the spoken phrase", func() bool { return q.Len() > 0 })
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Expected nil on shutdown, got %v", err)
	}

	if q.Len() != 1 {
		t.Fatalf("Expected one queued phrase, got %d", q.Len())
	}
	if tr.Calls() < 3 {
		t.Errorf("Expected three transcriptions, got %d", tr.Calls())
	}
	u, _ := q.Dequeue(context.Background(), time.Millisecond)
	if u.Text != "hello" {
		t.Errorf("Expected trimmed %q, got %q", "hello", u.Text)
	}
}

func TestTranscriptionWorker_SurvivesFailures(t *testing.T) {
	q := queue.New(0)
	listener := &scriptedListener{errs: []error{errors.New("device busy"), errors.New("device busy")}}
	w := NewTranscriptionWorker(listener, panicTranscriber{}, lexicon.Default(), q)
	w.RetryDelay = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- w.Run(ctx) }()

	waitFor(t, "loop past failures", func() bool {
		listener.mu.Lock()
		defer listener.mu.Unlock()
		return listener.calls > 5
	})
	cancel()

	if err := <-done; err != nil {
		t.Errorf("Expected loop to survive failures, got %v", err)
	}
	if q.Len() != 0 {
		t.Errorf("Expected nothing queued, got %d", q.Len())
	}
}

func TestTranscriptionWorker_StopsOnClosedQueue(t *testing.T) {
	q := queue.New(0)
	_ = q.Close()
	w := NewTranscriptionWorker(&scriptedListener{}, stt.NewMock(stt.MockResult{Text: "hi"}), lexicon.Default(), q)

	select {
	case err := <-runAsync(w):
		if err != nil {
			t.Errorf("Expected nil, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Worker kept running on a closed queue")
	}
}

func runAsync(w Worker) <-chan error {
	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()
	return done
}

func TestConsoleInjector(t *testing.T) {
	q := queue.New(0)
	input := "  Chris is here  \n\n   \nRossi\n"
	c := NewConsoleInjector(strings.NewReader(input), q)

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var got []string
	for q.Len() > 0 {
		u, _ := q.Dequeue(context.Background(), time.Millisecond)
		if u.Source != queue.SourceConsole {
			t.Errorf("Expected console source, got %s", u.Source)
		}
		got = append(got, u.Text)
	}
	// Typed text is taken as written.
	if !reflect.DeepEqual(got, []string{"Chris is here", "Rossi"}) {
		t.Errorf("Expected trimmed, unnormalized lines, got %v", got)
	}
}

func TestRunner_StopJoinsWorkers(t *testing.T) {
	q := queue.New(0)
	stage := NewStage()
	speaker, _ := mockSpeaker()
	pr, pw := io.Pipe()

	runner := NewRunner(q,
		NewTranscriptionWorker(&scriptedListener{}, stt.NewMock(), lexicon.Default(), q),
		NewSynthesisWorker(speaker, q, stage),
		NewConsoleInjector(pr, q),
	)

	if err := runner.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := runner.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("Expected ErrAlreadyStarted, got %v", err)
	}

	go func() { _, _ = io.WriteString(pw, "Chris is here\n") }()
	waitFor(t, "console line spoken", func() bool {
		return stage.Caption() == "* Chris is here" && !stage.Speaking()
	})

	done := make(chan error)
	go func() { done <- runner.Stop() }()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected clean stop, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Stop did not join the workers")
	}

	if err := runner.Stop(); err != nil {
		t.Errorf("Expected second Stop to be a no-op, got %v", err)
	}
	if err := q.Enqueue(queue.NewUtterance("late", queue.SourceKey)); !errors.Is(err, queue.ErrQueueClosed) {
		t.Errorf("Expected closed queue after stop, got %v", err)
	}
}

func TestRunner_ConsoleEOFLeavesOthersRunning(t *testing.T) {
	q := queue.New(0)
	stage := NewStage()
	runner := NewRunner(q,
		NewSynthesisWorker(&fakeSpeaker{boundaries: 1}, q, stage),
		NewConsoleInjector(strings.NewReader(""), q),
	)
	if err := runner.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer runner.Stop() //nolint:errcheck

	time.Sleep(20 * time.Millisecond)
	_ = q.Enqueue(queue.NewUtterance("still here", queue.SourceKey))
	waitFor(t, "synthesis after console EOF", func() bool {
		return stage.Caption() == "* still"
	})
}
