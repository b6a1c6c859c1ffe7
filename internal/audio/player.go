package audio

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"
)

var (
	// ErrPlayerClosed is returned when starting a clip on a closed output.
	ErrPlayerClosed = errors.New("player is closed")
	// ErrEmptyClip is returned when starting a clip with no audio.
	ErrEmptyClip = errors.New("audio data is empty")
)

// Stream is one clip being played.
type Stream interface {
	// Position reports how much of the clip has been heard.
	Position() time.Duration
	// Duration is the full length of the clip.
	Duration() time.Duration
	// Done is closed once playback has finished or been stopped.
	Done() <-chan struct{}
	// Stop ends playback early.
	Stop()
}

// Output plays clips.
type Output interface {
	Start(clip Clip) (Stream, error)
	SampleRate() int
	Close() error
}

// PlayerConfig contains configuration for the audio player.
type PlayerConfig struct {
	SampleRate int           `yaml:"sample_rate" mapstructure:"sample_rate"`
	BufferSize time.Duration `yaml:"buffer_size" mapstructure:"buffer_size"`
	// Poll is how often finished streams are detected.
	Poll time.Duration `yaml:"poll" mapstructure:"poll"`
}

// DefaultPlayerConfig returns the default player configuration.
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{
		SampleRate: OutputSampleRate,
		BufferSize: 50 * time.Millisecond,
		Poll:       10 * time.Millisecond,
	}
}

// oto allows a single context per process.
var (
	otoContext     *oto.Context
	otoContextRate int
	otoContextErr  error
	otoContextOnce sync.Once
)

func sharedContext(config PlayerConfig) (*oto.Context, error) {
	otoContextOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   config.SampleRate,
			ChannelCount: 1,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   config.BufferSize,
		}
		ctx, ready, err := oto.NewContext(op)
		if err != nil {
			otoContextErr = fmt.Errorf("failed to create oto context: %w", err)
			return
		}
		<-ready
		otoContext = ctx
		otoContextRate = config.SampleRate
	})
	if otoContextErr != nil {
		return nil, otoContextErr
	}
	if otoContextRate != config.SampleRate {
		return nil, fmt.Errorf("audio context already open at %d Hz", otoContextRate)
	}
	return otoContext, nil
}

// Player plays mono clips through oto. Clips at other rates are resampled.
type Player struct {
	context *oto.Context
	config  PlayerConfig

	mu      sync.Mutex
	streams map[*otoStream]struct{}
	closed  atomic.Bool
}

// NewPlayer opens the audio output.
func NewPlayer(config PlayerConfig) (*Player, error) {
	if config.SampleRate <= 0 {
		return nil, errors.New("sample rate must be positive")
	}
	if config.Poll <= 0 {
		config.Poll = DefaultPlayerConfig().Poll
	}

	ctx, err := sharedContext(config)
	if err != nil {
		return nil, err
	}

	return &Player{
		context: ctx,
		config:  config,
		streams: make(map[*otoStream]struct{}),
	}, nil
}

// SampleRate returns the output rate.
func (p *Player) SampleRate() int {
	return p.config.SampleRate
}

// Start begins playing clip and returns immediately.
func (p *Player) Start(clip Clip) (Stream, error) {
	if p.closed.Load() {
		return nil, ErrPlayerClosed
	}
	if len(clip.Data) == 0 {
		return nil, ErrEmptyClip
	}
	if err := clip.Validate(); err != nil {
		return nil, err
	}
	if clip.Format.SampleRate != p.config.SampleRate || clip.Format.Channels != 1 {
		clip = clip.Resample(p.config.SampleRate)
	}

	// The reader owns the data for the life of the stream.
	reader := newPositionTrackingReader(clip.Data)
	s := &otoStream{
		reader:   reader,
		format:   clip.Format,
		duration: clip.Duration(),
		done:     make(chan struct{}),
		owner:    p,
	}
	s.player = p.context.NewPlayer(reader)

	p.mu.Lock()
	p.streams[s] = struct{}{}
	p.mu.Unlock()

	s.player.Play()
	go s.watch(p.config.Poll)

	return s, nil
}

// Close stops every active stream.
func (p *Player) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}

	p.mu.Lock()
	streams := make([]*otoStream, 0, len(p.streams))
	for s := range p.streams {
		streams = append(streams, s)
	}
	p.mu.Unlock()

	for _, s := range streams {
		s.Stop()
	}
	return nil
}

func (p *Player) forget(s *otoStream) {
	p.mu.Lock()
	delete(p.streams, s)
	p.mu.Unlock()
}

// positionTrackingReader wraps a reader and counts bytes handed to oto.
type positionTrackingReader struct {
	reader   *bytes.Reader
	position atomic.Int64
	mu       sync.Mutex
}

func newPositionTrackingReader(data []byte) *positionTrackingReader {
	return &positionTrackingReader{reader: bytes.NewReader(data)}
}

func (r *positionTrackingReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, err := r.reader.Read(p)
	if n > 0 {
		r.position.Add(int64(n))
	}
	return n, err
}

type otoStream struct {
	player   *oto.Player
	reader   *positionTrackingReader
	format   Format
	duration time.Duration
	owner    *Player

	done     chan struct{}
	stopOnce sync.Once
}

// Position subtracts what oto has buffered but not yet played.
func (s *otoStream) Position() time.Duration {
	select {
	case <-s.done:
		return s.duration
	default:
	}

	played := s.reader.position.Load() - int64(s.player.BufferedSize())
	if played < 0 {
		played = 0
	}
	pos := time.Duration(played) * time.Second / time.Duration(s.format.BytesPerSecond())
	if pos > s.duration {
		pos = s.duration
	}
	return pos
}

func (s *otoStream) Duration() time.Duration { return s.duration }

func (s *otoStream) Done() <-chan struct{} { return s.done }

func (s *otoStream) Stop() {
	s.stopOnce.Do(func() {
		s.player.Pause()
		_ = s.player.Close()
		s.owner.forget(s)
		close(s.done)
	})
}

// watch closes the stream once oto has drained it.
func (s *otoStream) watch(poll time.Duration) {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if !s.player.IsPlaying() {
				s.Stop()
				return
			}
		}
	}
}
