package pipeline

import (
	"context"
	"errors"
	"iter"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tobysim/radiation/internal/lexicon"
	"github.com/tobysim/radiation/internal/queue"
	"github.com/tobysim/radiation/internal/tts"
)

// PollInterval bounds how long the synthesis worker waits on an empty
// queue before checking for shutdown.
const PollInterval = 100 * time.Millisecond

// Playback reports word boundaries while audio plays.
type Playback interface {
	Words(ctx context.Context) iter.Seq[tts.Boundary]
}

// Speaker starts speaking text.
type Speaker interface {
	Speak(ctx context.Context, text string) (Playback, error)
}

// TTSSpeaker adapts a tts.Speaker.
type TTSSpeaker struct {
	*tts.Speaker
}

func (s TTSSpeaker) Speak(ctx context.Context, text string) (Playback, error) {
	pb, err := s.Speaker.Speak(ctx, text)
	if err != nil {
		return nil, err
	}
	return pb, nil
}

// SynthesisWorker speaks queued utterances one at a time and reveals their
// words on the stage as the audio reaches them.
type SynthesisWorker struct {
	speaker Speaker
	queue   *queue.UtteranceQueue
	reveal  Reveal
}

// NewSynthesisWorker wires the output side of the pipeline. The worker is
// the only writer of reveal.
func NewSynthesisWorker(s Speaker, q *queue.UtteranceQueue, reveal Reveal) *SynthesisWorker {
	return &SynthesisWorker{speaker: s, queue: q, reveal: reveal}
}

// Name identifies the worker in logs.
func (w *SynthesisWorker) Name() string { return "synthesis" }

// Run consumes the queue until ctx is done or the queue is closed and
// drained.
func (w *SynthesisWorker) Run(ctx context.Context) error {
	for {
		u, err := w.queue.Dequeue(ctx, PollInterval)
		switch {
		case errors.Is(err, queue.ErrTimeout):
			continue
		case errors.Is(err, queue.ErrQueueClosed), ctx.Err() != nil:
			return nil
		case err != nil:
			return err
		}
		w.say(ctx, u)
	}
}

// say shows and speaks one utterance. Words come from the text as queued;
// the engine gets a copy with punctuation stripped.
func (w *SynthesisWorker) say(ctx context.Context, u queue.Utterance) {
	if len(lexicon.Words(u.Text)) == 0 {
		w.reveal.Reset()
		log.Debug("Cleared caption", "id", u.ID, "source", u.Source)
		return
	}
	words := speakable(lexicon.Words(u.Text))

	w.reveal.Reset(Placeholder)
	w.reveal.SetSpeaking(true)
	defer w.reveal.SetSpeaking(false)

	spoken := lexicon.SanitizeForSpeech(u.Text)
	if strings.TrimSpace(spoken) == "" {
		return
	}

	start := time.Now()
	pb, err := w.speaker.Speak(ctx, spoken)
	if err != nil {
		log.Warn("Unable to speak", "id", u.ID, "error", err)
		return
	}

	for range pb.Words(ctx) {
		idx := w.reveal.Len() - 1
		if idx >= 0 && idx < len(words) {
			w.reveal.Append(words[idx])
		}
	}
	log.Debug("Spoke utterance",
		"id", u.ID,
		"source", u.Source,
		"words", len(words),
		"took", time.Since(start).Round(time.Millisecond))
}

// speakable drops the words that sanitize to nothing, leaving one shown
// word per spoken word.
func speakable(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if strings.TrimSpace(lexicon.SanitizeForSpeech(w)) != "" {
			out = append(out, w)
		}
	}
	return out
}
