// Package tts turns text into speech and reports, word by word, when each
// part of it is heard.
package tts

import (
	"context"
	"time"

	"github.com/tobysim/radiation/internal/audio"
)

// Engine synthesizes speech.
type Engine interface {
	// Name identifies the engine in logs and cache keys.
	Name() string
	// Synthesize renders text to a mono PCM clip.
	Synthesize(ctx context.Context, text string) (audio.Clip, error)
	// Voices lists the voices the engine can use.
	Voices() []string
	// Voice returns the active voice.
	Voice() string
	// SetVoice selects one of Voices.
	SetVoice(name string) error
	// SetRate sets the speaking rate in words per minute.
	SetRate(wpm int)
	// Available reports why the engine cannot run, or nil.
	Available() error
}

// Config selects and tunes the synthesis engine.
type Config struct {
	Engine string `yaml:"engine" mapstructure:"engine"`
	// Voice is matched case-insensitively as a substring of the engine's voices.
	Voice string `yaml:"voice" mapstructure:"voice"`
	// Rate is the speaking rate in words per minute.
	Rate int `yaml:"rate" mapstructure:"rate"`
	// Timeout bounds one synthesis call.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	Piper PiperConfig `yaml:"piper" mapstructure:"piper"`
	GTTS  GTTSConfig  `yaml:"gtts" mapstructure:"gtts"`
}

// PiperConfig configures the piper engine.
type PiperConfig struct {
	// Command is the piper command line, split with shell quoting rules.
	Command  string `yaml:"command" mapstructure:"command"`
	ModelDir string `yaml:"model_dir" mapstructure:"model_dir"`
	Model    string `yaml:"model" mapstructure:"model"`
}

// GTTSConfig configures the gTTS engine.
type GTTSConfig struct {
	Language          string `yaml:"language" mapstructure:"language"`
	RequestsPerMinute int    `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// DefaultConfig returns the default synthesis configuration.
func DefaultConfig() Config {
	return Config{
		Engine:  "piper",
		Voice:   "Toby Fox",
		Rate:    DefaultRate,
		Timeout: 30 * time.Second,
		Piper: PiperConfig{
			Command: "piper",
		},
		GTTS: GTTSConfig{
			Language:          "en",
			RequestsPerMinute: 50,
		},
	}
}
