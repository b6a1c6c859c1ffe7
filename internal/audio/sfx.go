package audio

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"
)

// Effect names a short sound played in response to a key press.
type Effect string

const (
	EffectFlip Effect = "flip"
	EffectHurt Effect = "hurt"
	EffectHeal Effect = "heal"
)

// Effects is the full set of sound effects.
var Effects = []Effect{EffectFlip, EffectHurt, EffectHeal}

// tone is one segment of a generated effect.
type tone struct {
	from, to float64 // Hz, swept linearly
	dur      time.Duration
	square   bool
}

var effectTones = map[Effect][]tone{
	EffectFlip: {
		{from: 300, to: 1200, dur: 180 * time.Millisecond},
		{from: 1200, to: 600, dur: 120 * time.Millisecond},
	},
	EffectHurt: {
		{from: 220, to: 110, dur: 90 * time.Millisecond, square: true},
		{from: 180, to: 90, dur: 140 * time.Millisecond, square: true},
	},
	EffectHeal: {
		{from: 523, to: 523, dur: 80 * time.Millisecond},
		{from: 659, to: 659, dur: 80 * time.Millisecond},
		{from: 784, to: 784, dur: 80 * time.Millisecond},
		{from: 1047, to: 1047, dur: 160 * time.Millisecond},
	},
}

// SynthEffect generates the built-in clip for e at rate.
func SynthEffect(e Effect, rate int) (Clip, error) {
	tones, ok := effectTones[e]
	if !ok {
		return Clip{}, fmt.Errorf("unknown effect %q", e)
	}

	var samples []int16
	for _, t := range tones {
		samples = append(samples, synthTone(t, rate)...)
	}
	return NewClip(Format{SampleRate: rate, Channels: 1}, samples), nil
}

func synthTone(t tone, rate int) []int16 {
	n := int(t.dur * time.Duration(rate) / time.Second)
	out := make([]int16, n)
	const amp = 0.35 * math.MaxInt16
	phase := 0.0
	for i := range out {
		p := float64(i) / float64(n)
		freq := t.from + (t.to-t.from)*p
		phase += 2 * math.Pi * freq / float64(rate)
		v := math.Sin(phase)
		if t.square {
			v = math.Copysign(0.6, v)
		}
		// Short linear fade at both ends avoids clicks.
		env := math.Min(1, math.Min(p*20, (1-p)*20))
		out[i] = int16(v * env * amp)
	}
	return out
}

// EffectBank holds one decoded clip per effect, ready to play.
type EffectBank map[Effect]Clip

// LoadEffects builds the effect bank at rate. A "<name>.wav" file in dir
// replaces the generated sound; a file that fails to decode is an error.
func LoadEffects(dir string, rate int) (EffectBank, error) {
	bank := make(EffectBank, len(Effects))
	for _, e := range Effects {
		if dir != "" {
			path := filepath.Join(dir, string(e)+".wav")
			if _, err := os.Stat(path); err == nil {
				clip, err := LoadWAV(path)
				if err != nil {
					return nil, fmt.Errorf("effect %s: %w", e, err)
				}
				bank[e] = clip.Resample(rate)
				continue
			}
		}

		clip, err := SynthEffect(e, rate)
		if err != nil {
			return nil, err
		}
		bank[e] = clip
	}
	return bank, nil
}
