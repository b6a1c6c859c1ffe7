// Package mic captures spoken phrases from an audio input.
package mic

import (
	"context"
	"errors"

	"github.com/tobysim/radiation/internal/audio"
)

// ErrClosed is returned by a source after Close.
var ErrClosed = errors.New("audio source closed")

// Source delivers 16-bit mono PCM in chunks. Start and Stop bracket each
// capture so the device is held only while listening.
type Source interface {
	Format() audio.Format
	Start() error
	// Read blocks until the next chunk is available or ctx is done.
	Read(ctx context.Context) ([]int16, error)
	Stop() error
	Close() error
}
