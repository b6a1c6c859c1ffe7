package tts

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tobysim/radiation/internal/audio"
	"github.com/tobysim/radiation/internal/cache"
)

// Speaker synthesizes text with an engine and plays it on an output.
type Speaker struct {
	engine  Engine
	output  audio.Output
	cache   *cache.Store // optional
	rate    int
	poll    time.Duration
	timeout time.Duration
}

// SpeakerOption configures a Speaker.
type SpeakerOption func(*Speaker)

// WithCache serves repeated phrases from store.
func WithCache(store *cache.Store) SpeakerOption {
	return func(s *Speaker) { s.cache = store }
}

// WithPollInterval sets how often playback position is checked for word
// boundaries.
func WithPollInterval(d time.Duration) SpeakerOption {
	return func(s *Speaker) { s.poll = d }
}

// WithTimeout bounds each synthesis call.
func WithTimeout(d time.Duration) SpeakerOption {
	return func(s *Speaker) { s.timeout = d }
}

// NewSpeaker creates a speaker at the given rate in words per minute.
func NewSpeaker(engine Engine, output audio.Output, rate int, opts ...SpeakerOption) *Speaker {
	if rate <= 0 {
		rate = DefaultRate
	}
	engine.SetRate(rate)

	s := &Speaker{
		engine: engine,
		output: output,
		rate:   rate,
		poll:   10 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Engine returns the speaker's engine.
func (s *Speaker) Engine() Engine {
	return s.engine
}

// Speak synthesizes text and starts playing it. The returned playback
// reports word boundaries as the audio reaches them.
func (s *Speaker) Speak(ctx context.Context, text string) (*Playback, error) {
	if err := CheckText(text); err != nil {
		return nil, err
	}

	clip, err := s.synthesize(ctx, text)
	if err != nil {
		return nil, err
	}

	stream, err := s.output.Start(clip)
	if err != nil {
		return nil, fmt.Errorf("unable to start playback: %w", err)
	}

	return &Playback{
		stream:     stream,
		boundaries: EstimateBoundaries(strings.Fields(text), clip.Duration()),
		poll:       s.poll,
	}, nil
}

func (s *Speaker) synthesize(ctx context.Context, text string) (audio.Clip, error) {
	key := cache.Key{
		Engine: s.engine.Name(),
		Voice:  s.engine.Voice(),
		Rate:   s.rate,
		Text:   text,
	}

	if s.cache != nil {
		if clip, ok := s.cache.Get(key); ok {
			log.Debug("Speech cache hit", "engine", key.Engine, "bytes", len(clip.Data))
			return clip, nil
		}
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	clip, err := s.engine.Synthesize(ctx, text)
	if err != nil {
		return audio.Clip{}, fmt.Errorf("%w: %w", ErrSynthesisFailed, err)
	}
	if len(clip.Data) == 0 {
		return audio.Clip{}, fmt.Errorf("%w: engine produced no audio", ErrSynthesisFailed)
	}
	log.Debug("Synthesized speech",
		"engine", key.Engine,
		"chars", len(text),
		"audio", clip.Duration().Round(time.Millisecond),
		"took", time.Since(start).Round(time.Millisecond))

	if s.cache != nil {
		s.cache.Put(key, clip)
	}
	return clip, nil
}

// Playback is one utterance being spoken.
type Playback struct {
	stream     audio.Stream
	boundaries []Boundary
	poll       time.Duration
	consumed   atomic.Bool
}

// Duration is the length of the spoken clip.
func (p *Playback) Duration() time.Duration {
	return p.stream.Duration()
}

// Stop interrupts playback.
func (p *Playback) Stop() {
	p.stream.Stop()
}

// Words yields each word boundary once the audio reaches it, then waits for
// playback to finish. The sequence can be consumed only once; later
// iterations yield nothing. Breaking out of the loop or cancelling ctx stops
// playback.
func (p *Playback) Words(ctx context.Context) iter.Seq[Boundary] {
	return func(yield func(Boundary) bool) {
		if !p.consumed.CompareAndSwap(false, true) {
			return
		}

		ticker := time.NewTicker(p.poll)
		defer ticker.Stop()

		next := 0
		for {
			finished := false
			select {
			case <-p.stream.Done():
				finished = true
			default:
			}

			pos := p.stream.Position()
			for next < len(p.boundaries) && p.boundaries[next].Offset <= pos {
				if !yield(p.boundaries[next]) {
					p.stream.Stop()
					return
				}
				next++
			}
			if finished {
				return
			}

			select {
			case <-ctx.Done():
				p.stream.Stop()
				return
			case <-p.stream.Done():
			case <-ticker.C:
			}
		}
	}
}
