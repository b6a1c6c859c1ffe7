package audio

import (
	"encoding/binary"
	"errors"
	"math"
	"time"
)

// ErrMisaligned is returned when PCM data is not a whole number of frames.
var ErrMisaligned = errors.New("pcm payload not aligned")

const (
	// OutputSampleRate is the rate the output device is opened at.
	OutputSampleRate = 44100
	// BitDepth is the only sample width handled: signed 16-bit little endian.
	BitDepth = 16
)

// Format describes interleaved signed 16-bit little-endian PCM.
type Format struct {
	SampleRate int
	Channels   int
}

// BytesPerSecond returns the data rate of the format.
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.Channels * BitDepth / 8
}

// Clip is a block of PCM audio.
type Clip struct {
	Format Format
	Data   []byte
}

// NewClip builds a clip from int16 samples.
func NewClip(format Format, samples []int16) Clip {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	return Clip{Format: format, Data: data}
}

// Validate checks the clip for a usable format and whole frames.
func (c Clip) Validate() error {
	if c.Format.SampleRate <= 0 || c.Format.Channels <= 0 {
		return errors.New("invalid clip format")
	}
	if len(c.Data)%(c.Format.Channels*2) != 0 {
		return ErrMisaligned
	}
	return nil
}

// Duration returns how long the clip plays.
func (c Clip) Duration() time.Duration {
	bps := c.Format.BytesPerSecond()
	if bps == 0 {
		return 0
	}
	return time.Duration(len(c.Data)) * time.Second / time.Duration(bps)
}

// Samples decodes the clip into int16 samples.
func (c Clip) Samples() []int16 {
	out := make([]int16, len(c.Data)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(c.Data[i*2:]))
	}
	return out
}

// Append returns a clip with other's data after c's. Formats must match.
func (c Clip) Append(other Clip) (Clip, error) {
	if c.Format != other.Format {
		return Clip{}, errors.New("cannot append clips of different formats")
	}
	data := make([]byte, 0, len(c.Data)+len(other.Data))
	data = append(data, c.Data...)
	data = append(data, other.Data...)
	return Clip{Format: c.Format, Data: data}, nil
}

// PadSilence returns a copy of c with d of silence appended.
func (c Clip) PadSilence(d time.Duration) Clip {
	frame := c.Format.Channels * 2
	n := int(d * time.Duration(c.Format.SampleRate) / time.Second)
	data := make([]byte, len(c.Data), len(c.Data)+n*frame)
	copy(data, c.Data)
	data = append(data, make([]byte, n*frame)...)
	return Clip{Format: c.Format, Data: data}
}

// RMS returns the root mean square amplitude of the clip.
func (c Clip) RMS() float64 {
	return RMS(c.Samples())
}

// RMS returns the root mean square amplitude of samples.
func RMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// Resample converts c to mono at rate using linear interpolation.
func (c Clip) Resample(rate int) Clip {
	mono := c.mono()
	if c.Format.SampleRate == rate || len(mono) == 0 {
		return NewClip(Format{SampleRate: rate, Channels: 1}, mono)
	}

	ratio := float64(c.Format.SampleRate) / float64(rate)
	n := int(float64(len(mono)) / ratio)
	out := make([]int16, n)
	for i := range out {
		pos := float64(i) * ratio
		j := int(pos)
		frac := pos - float64(j)
		a := float64(mono[j])
		b := a
		if j+1 < len(mono) {
			b = float64(mono[j+1])
		}
		out[i] = int16(a + (b-a)*frac)
	}
	return NewClip(Format{SampleRate: rate, Channels: 1}, out)
}

func (c Clip) mono() []int16 {
	samples := c.Samples()
	ch := c.Format.Channels
	if ch <= 1 {
		return samples
	}
	out := make([]int16, len(samples)/ch)
	for i := range out {
		var sum int
		for k := 0; k < ch; k++ {
			sum += int(samples[i*ch+k])
		}
		out[i] = int16(sum / ch)
	}
	return out
}
