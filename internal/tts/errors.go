package tts

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidEngine indicates an unknown engine was specified
	ErrInvalidEngine = errors.New("invalid TTS engine specified")

	// ErrEngineNotAvailable indicates the selected engine is not available
	ErrEngineNotAvailable = errors.New("selected TTS engine is not available")

	// ErrSynthesisFailed indicates synthesis operation failed
	ErrSynthesisFailed = errors.New("text synthesis failed")

	// ErrEmptyText is returned when there is nothing to say
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrTextTooLong is returned for text over MaxTextSize
	ErrTextTooLong = errors.New("text too long")

	// ErrUnknownVoice is returned by SetVoice for a name the engine does not have
	ErrUnknownVoice = errors.New("unknown voice")
)

// MaxTextSize bounds a single synthesis request.
const MaxTextSize = 5000

// EngineError carries the output of a failed engine process.
type EngineError struct {
	Engine string
	Op     string
	Stderr string
	Err    error
}

func (e *EngineError) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Engine, e.Op, e.Err)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ", stderr: " + s
	}
	return msg
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// CheckText validates text before synthesis.
func CheckText(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	if len(text) > MaxTextSize {
		return fmt.Errorf("%w: %d characters (max %d)", ErrTextTooLong, len(text), MaxTextSize)
	}
	return nil
}
