// Package stt turns captured speech into text.
package stt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tobysim/radiation/internal/audio"
)

var (
	// ErrNotUnderstood means the audio held no recognizable speech.
	ErrNotUnderstood = errors.New("speech not understood")

	// ErrRequestFailed means the recognizer could not be reached or failed.
	ErrRequestFailed = errors.New("transcription request failed")

	// ErrInvalidBackend indicates an unknown backend was configured.
	ErrInvalidBackend = errors.New("invalid transcription backend")
)

// Transcriber converts a phrase to text.
type Transcriber interface {
	Transcribe(ctx context.Context, clip audio.Clip) (string, error)
}

// Config selects and configures the transcription backend.
type Config struct {
	// Backend is "http", "exec" or "mock".
	Backend string `yaml:"backend" mapstructure:"backend"`
	// URL is an OpenAI-compatible audio transcription endpoint.
	URL    string `yaml:"url" mapstructure:"url"`
	Model  string `yaml:"model" mapstructure:"model"`
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
	// Language is an optional ISO-639-1 hint.
	Language string `yaml:"language" mapstructure:"language"`
	// Command runs a local recognizer. "{file}" is replaced with the path
	// of a WAV file; without it the path is appended.
	Command string        `yaml:"command" mapstructure:"command"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// DefaultConfig returns the default transcription configuration.
func DefaultConfig() Config {
	return Config{
		Backend: "http",
		URL:     "https://api.openai.com/v1/audio/transcriptions",
		Model:   "whisper-1",
		Timeout: 30 * time.Second,
	}
}

// New builds the configured transcriber. An empty API key falls back to
// OPENAI_API_KEY.
func New(config Config) (Transcriber, error) {
	switch strings.ToLower(config.Backend) {
	case "http", "":
		if config.APIKey == "" {
			config.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		return NewHTTP(config), nil
	case "exec":
		return NewExec(config.Command, config.Timeout)
	case "mock":
		return NewMock(), nil
	default:
		return nil, fmt.Errorf("%w: %s (use http, exec or mock)", ErrInvalidBackend, config.Backend)
	}
}
