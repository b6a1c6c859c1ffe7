package mic

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tobysim/radiation/internal/audio"
)

// dynamicRatio scales the ambient level into a speech threshold.
const dynamicRatio = 1.5

// Config tunes phrase detection. Energies are RMS of 16-bit samples.
type Config struct {
	// EnergyThreshold is the minimum level treated as speech.
	EnergyThreshold float64 `yaml:"energy_threshold" mapstructure:"energy_threshold"`
	// PauseThreshold is the silence that ends a phrase.
	PauseThreshold time.Duration `yaml:"pause_threshold" mapstructure:"pause_threshold"`
	// Calibration is how long ambient noise is sampled before each phrase.
	Calibration time.Duration `yaml:"calibration" mapstructure:"calibration"`
	// Padding is the silence appended to every captured phrase.
	Padding time.Duration `yaml:"padding" mapstructure:"padding"`
	// PreRoll is the audio kept from before speech starts; trailing
	// silence is trimmed to the same length.
	PreRoll time.Duration `yaml:"pre_roll" mapstructure:"pre_roll"`
}

// DefaultConfig returns the default phrase detection settings.
func DefaultConfig() Config {
	return Config{
		EnergyThreshold: 300,
		PauseThreshold:  1500 * time.Millisecond,
		Calibration:     500 * time.Millisecond,
		Padding:         time.Second,
		PreRoll:         500 * time.Millisecond,
	}
}

// Listener captures one phrase at a time from a source.
type Listener struct {
	src    Source
	config Config

	// OnListening, if set, is called with true once calibration is done
	// and with false when the phrase ends.
	OnListening func(bool)
}

// NewListener creates a listener over src.
func NewListener(src Source, config Config) *Listener {
	return &Listener{src: src, config: config}
}

// Listen calibrates against ambient noise, then blocks until a phrase has
// been spoken and followed by the pause threshold of silence. There is no
// limit on how long it waits for speech to begin.
func (l *Listener) Listen(ctx context.Context) (audio.Clip, error) {
	if err := l.src.Start(); err != nil {
		return audio.Clip{}, err
	}
	defer func() {
		if err := l.src.Stop(); err != nil {
			log.Debug("Failed to stop capture", "error", err)
		}
	}()

	format := l.src.Format()
	threshold, err := l.calibrate(ctx, format)
	if err != nil {
		return audio.Clip{}, err
	}
	log.Debug("Calibrated microphone", "threshold", int(threshold))

	if l.OnListening != nil {
		l.OnListening(true)
		defer l.OnListening(false)
	}

	samples, err := l.capture(ctx, format, threshold)
	if err != nil {
		return audio.Clip{}, err
	}

	clip := audio.NewClip(audio.Format{SampleRate: format.SampleRate, Channels: 1}, samples)
	return clip.PadSilence(l.config.Padding), nil
}

// calibrate returns the speech threshold for the current ambient level:
// the configured threshold, raised if the room is louder.
func (l *Listener) calibrate(ctx context.Context, format audio.Format) (float64, error) {
	want := samplesFor(l.config.Calibration, format)

	var sum float64
	var n int
	for n < want {
		chunk, err := l.src.Read(ctx)
		if err != nil {
			return 0, fmt.Errorf("calibration: %w", err)
		}
		rms := audio.RMS(chunk)
		sum += rms * rms * float64(len(chunk))
		n += len(chunk)
	}

	threshold := l.config.EnergyThreshold
	if n > 0 {
		ambient := math.Sqrt(sum/float64(n)) * dynamicRatio
		if ambient > threshold {
			threshold = ambient
		}
	}
	return threshold, nil
}

// capture reads chunks until speech is followed by enough silence.
func (l *Listener) capture(ctx context.Context, format audio.Format, threshold float64) ([]int16, error) {
	preRoll := samplesFor(l.config.PreRoll, format)
	pause := samplesFor(l.config.PauseThreshold, format)

	var phrase []int16
	speaking := false
	silent := 0

	for {
		chunk, err := l.src.Read(ctx)
		if err != nil {
			return nil, err
		}
		loud := audio.RMS(chunk) > threshold

		if !speaking {
			phrase = append(phrase, chunk...)
			if !loud {
				if len(phrase) > preRoll {
					phrase = phrase[len(phrase)-preRoll:]
				}
				continue
			}
			speaking = true
			continue
		}

		phrase = append(phrase, chunk...)
		if loud {
			silent = 0
			continue
		}
		silent += len(chunk)
		if silent >= pause {
			break
		}
	}

	if trim := silent - preRoll; trim > 0 {
		phrase = phrase[:len(phrase)-trim]
	}
	return phrase, nil
}

func samplesFor(d time.Duration, format audio.Format) int {
	return int(d * time.Duration(format.SampleRate) / time.Second)
}
