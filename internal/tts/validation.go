package tts

import (
	"fmt"
	"strings"
)

// Engine names accepted in configuration.
const (
	EnginePiper = "piper"
	EngineGTTS  = "gtts"
	EngineMock  = "mock"
)

// SupportedEngines lists the engine names in order of preference.
func SupportedEngines() []string {
	return []string{EnginePiper, EngineGTTS, EngineMock}
}

// ValidateEngineName normalizes an engine name from flags or config,
// accepting "google" as an alias for gtts.
func ValidateEngineName(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case EnginePiper, "":
		return EnginePiper, nil
	case EngineGTTS, "google":
		return EngineGTTS, nil
	case EngineMock:
		return EngineMock, nil
	default:
		return "", fmt.Errorf("%w: %s\n\nSupported engines:\n  - piper (offline)\n  - gtts (Google Translate, online)\n  - mock (silent test tones)", ErrInvalidEngine, name)
	}
}

// Guidance returns setup instructions for an engine that is not available.
func Guidance(name string) string {
	switch name {
	case EnginePiper:
		return `To set up Piper:
  1. Install piper: https://github.com/rhasspy/piper/releases
  2. Download a voice (.onnx and .onnx.json) into ~/.local/share/piper-voices
  3. Run: radiation voices`
	case EngineGTTS:
		return `To set up Google TTS:
  1. Install gTTS: pip install gtts
  2. Install ffmpeg: apt install ffmpeg (or brew install ffmpeg)
  3. Requires an internet connection`
	default:
		return ""
	}
}
