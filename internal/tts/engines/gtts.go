package engines

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tobysim/radiation/internal/audio"
	"github.com/tobysim/radiation/internal/tts"
)

// gttsAccents maps voice names to the Google Translate domain that
// produces the accent.
var gttsAccents = map[string]string{
	"American":      "com",
	"Australian":    "com.au",
	"British":       "co.uk",
	"Canadian":      "ca",
	"Indian":        "co.in",
	"Irish":         "ie",
	"South African": "co.za",
}

// GTTS uses gtts-cli to fetch MP3 speech from Google Translate and ffmpeg
// to convert it to PCM. Requests are rate limited to avoid being blocked.
type GTTS struct {
	language string
	limiter  *rate.Limiter

	mu    sync.RWMutex
	voice string
	speed float64
}

// NewGTTS creates the engine.
func NewGTTS(config tts.GTTSConfig) *GTTS {
	lang := config.Language
	if lang == "" {
		lang = "en"
	}
	rpm := config.RequestsPerMinute
	if rpm <= 0 {
		rpm = 50
	}
	return &GTTS{
		language: lang,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
		voice:    "American",
		speed:    1.0,
	}
}

// Name returns "gtts".
func (g *GTTS) Name() string { return "gtts" }

// Voices returns the available accents.
func (g *GTTS) Voices() []string {
	voices := make([]string, 0, len(gttsAccents))
	for v := range gttsAccents {
		voices = append(voices, v)
	}
	sort.Strings(voices)
	return voices
}

// Voice returns the active accent.
func (g *GTTS) Voice() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.voice
}

// SetVoice selects an accent.
func (g *GTTS) SetVoice(name string) error {
	if _, ok := gttsAccents[name]; !ok {
		return fmt.Errorf("%w: %s", tts.ErrUnknownVoice, name)
	}
	g.mu.Lock()
	g.voice = name
	g.mu.Unlock()
	return nil
}

// SetRate maps words per minute onto ffmpeg's atempo filter.
func (g *GTTS) SetRate(wpm int) {
	g.mu.Lock()
	g.speed = tts.SpeedForRate(wpm)
	g.mu.Unlock()
}

// Available checks for gtts-cli and ffmpeg.
func (g *GTTS) Available() error {
	if _, err := exec.LookPath("gtts-cli"); err != nil {
		return fmt.Errorf("%w: gtts-cli not found in PATH; install with: pip install gtts", tts.ErrEngineNotAvailable)
	}
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("%w: ffmpeg not found in PATH; install ffmpeg for audio conversion", tts.ErrEngineNotAvailable)
	}
	return nil
}

// Synthesize fetches and decodes speech for text.
func (g *GTTS) Synthesize(ctx context.Context, text string) (audio.Clip, error) {
	if err := tts.CheckText(text); err != nil {
		return audio.Clip{}, err
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return audio.Clip{}, fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	g.mu.RLock()
	tld, speed := gttsAccents[g.voice], g.speed
	g.mu.RUnlock()

	mp3, err := runCommand(ctx, g.Name(), "fetch",
		[]string{"gtts-cli", text, "-l", g.language, "--tld", tld, "-o", "-"}, strings.NewReader(""))
	if err != nil {
		return audio.Clip{}, err
	}

	pcm, err := runCommand(ctx, g.Name(), "decode", ffmpegArgs(speed), bytes.NewReader(mp3))
	if err != nil {
		return audio.Clip{}, err
	}
	if len(pcm)%2 != 0 {
		pcm = pcm[:len(pcm)-1]
	}

	return audio.Clip{
		Format: audio.Format{SampleRate: audio.OutputSampleRate, Channels: 1},
		Data:   pcm,
	}, nil
}

// ffmpegArgs converts MP3 on stdin to 16-bit mono PCM on stdout.
func ffmpegArgs(speed float64) []string {
	args := []string{
		"ffmpeg",
		"-loglevel", "error",
		"-i", "pipe:0",
		"-f", "s16le",
		"-ar", fmt.Sprint(audio.OutputSampleRate),
		"-ac", "1",
	}
	if speed != 1.0 {
		args = append(args, "-filter:a", fmt.Sprintf("atempo=%.2f", speed))
	}
	return append(args, "pipe:1")
}
