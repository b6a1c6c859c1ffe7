package tts

const (
	// DefaultRate is the speaking rate in words per minute.
	DefaultRate = 120

	// baselineRate is roughly what engines produce at speed 1.0.
	baselineRate = 170

	MinSpeed = 0.5
	MaxSpeed = 2.0
)

// SpeedForRate converts words per minute to an engine speed factor,
// clamped to the range engines accept.
func SpeedForRate(wpm int) float64 {
	if wpm <= 0 {
		wpm = DefaultRate
	}
	speed := float64(wpm) / baselineRate
	if speed < MinSpeed {
		return MinSpeed
	}
	if speed > MaxSpeed {
		return MaxSpeed
	}
	return speed
}
