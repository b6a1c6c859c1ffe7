package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/tobysim/radiation/internal/audio"
	"github.com/tobysim/radiation/internal/lexicon"
	"github.com/tobysim/radiation/internal/queue"
	"github.com/tobysim/radiation/internal/stt"
)

// Listener captures one spoken phrase.
type Listener interface {
	Listen(ctx context.Context) (audio.Clip, error)
}

// TranscriptionWorker listens for phrases, transcribes them, corrects them
// with the lexicon and queues them for speech.
type TranscriptionWorker struct {
	listener    Listener
	transcriber stt.Transcriber
	lexicon     *lexicon.Lexicon
	queue       *queue.UtteranceQueue

	// RetryDelay is the wait after a capture failure. Recognition
	// failures move straight on to the next phrase.
	RetryDelay time.Duration

	failures rate.Sometimes
}

// NewTranscriptionWorker wires the capture side of the pipeline.
func NewTranscriptionWorker(l Listener, t stt.Transcriber, lex *lexicon.Lexicon, q *queue.UtteranceQueue) *TranscriptionWorker {
	return &TranscriptionWorker{
		listener:    l,
		transcriber: t,
		lexicon:     lex,
		queue:       q,
		RetryDelay:  time.Second,
		failures:    rate.Sometimes{First: 3, Interval: 30 * time.Second},
	}
}

// Name identifies the worker in logs.
func (w *TranscriptionWorker) Name() string { return "transcription" }

// Run loops until ctx is done or the queue is closed. Failures are logged
// and the loop carries on.
func (w *TranscriptionWorker) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		clip, err := w.listener.Listen(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.failures.Do(func() { log.Warn("Capture failed", "error", err) })
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(w.RetryDelay):
			}
			continue
		}

		text, err := w.transcribe(ctx, clip)
		switch {
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, stt.ErrNotUnderstood):
			log.Debug("Phrase not understood", "audio", clip.Duration())
			continue
		case err != nil:
			w.failures.Do(func() { log.Warn("Transcription failed", "error", err) })
			continue
		}

		normalized := strings.TrimSpace(w.lexicon.Normalize(text))
		if normalized == "" {
			log.Debug("Nothing left to say", "heard", text)
			continue
		}
		u := queue.NewUtterance(normalized, queue.SourceMic)
		if err := w.queue.Enqueue(u); err != nil {
			if errors.Is(err, queue.ErrQueueClosed) {
				return nil
			}
			log.Warn("Dropped phrase", "id", u.ID, "error", err)
			continue
		}
		log.Debug("Queued phrase", "id", u.ID, "heard", text, "text", normalized)
	}
	return nil
}

// transcribe treats a panicking recognizer as a failed request.
func (w *TranscriptionWorker) transcribe(ctx context.Context, clip audio.Clip) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: recognizer panic: %v", stt.ErrRequestFailed, r)
		}
	}()
	return w.transcriber.Transcribe(ctx, clip)
}
