package audio

import (
	"errors"
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteWAV encodes clip as a 16-bit PCM WAV file.
func WriteWAV(w io.WriteSeeker, clip Clip) error {
	if err := clip.Validate(); err != nil {
		return err
	}

	samples := clip.Samples()
	buffer := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: clip.Format.Channels, SampleRate: clip.Format.SampleRate},
		Data:           make([]int, len(samples)),
		SourceBitDepth: BitDepth,
	}
	for i, s := range samples {
		buffer.Data[i] = int(s)
	}

	enc := wav.NewEncoder(w, clip.Format.SampleRate, BitDepth, clip.Format.Channels, 1)
	if err := enc.Write(buffer); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close wav encoder: %w", err)
	}
	return nil
}

// EncodeWAV returns clip as WAV file bytes.
func EncodeWAV(clip Clip) ([]byte, error) {
	var buf seekBuffer
	if err := WriteWAV(&buf, clip); err != nil {
		return nil, err
	}
	return buf.data, nil
}

// ReadWAV decodes a 16-bit PCM WAV stream.
func ReadWAV(r io.ReadSeeker) (Clip, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return Clip{}, errors.New("not a valid wav file")
	}
	if dec.BitDepth != BitDepth {
		return Clip{}, fmt.Errorf("unsupported wav bit depth %d", dec.BitDepth)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Clip{}, fmt.Errorf("read wav: %w", err)
	}

	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = int16(v)
	}
	return NewClip(Format{SampleRate: int(dec.SampleRate), Channels: int(dec.NumChans)}, samples), nil
}

// LoadWAV reads a WAV file from disk.
func LoadWAV(path string) (Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return Clip{}, fmt.Errorf("unable to open wav: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ReadWAV(f)
}

// seekBuffer is an in-memory io.WriteSeeker; the wav encoder seeks back to
// patch chunk sizes on Close.
type seekBuffer struct {
	data []byte
	pos  int
}

func (b *seekBuffer) Write(p []byte) (int, error) {
	end := b.pos + len(p)
	if end > len(b.data) {
		b.data = append(b.data, make([]byte, end-len(b.data))...)
	}
	copy(b.data[b.pos:], p)
	b.pos = end
	return len(p), nil
}

func (b *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(b.pos) + offset
	case io.SeekEnd:
		abs = int64(len(b.data)) + offset
	default:
		return 0, errors.New("invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("negative position")
	}
	b.pos = int(abs)
	return abs, nil
}
