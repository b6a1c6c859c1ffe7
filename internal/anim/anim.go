// Package anim drives the dog: its walk onto the stage, its mouth while
// speech plays, the flip and the poisoned look. The machine does no I/O;
// time is passed in and side effects are returned to the caller.
package anim

import (
	"math"
	"time"

	"github.com/tobysim/radiation/internal/audio"
)

// Timing.
const (
	WalkDuration      = 2500 * time.Millisecond
	WalkFrameInterval = 200 * time.Millisecond
	MouthInterval     = 100 * time.Millisecond
	FlipDuration      = 700 * time.Millisecond
)

// Geometry, in canvas pixels.
var (
	// Rest is where the dog's bottom center stands once it has walked in.
	Rest = Point{400, 580}
	// WalkStart is the bottom center when the walk begins, off screen.
	WalkStart = Point{-200, 580}
	// MarkerBottom is the bottom center of the poison marker.
	MarkerBottom = Point{600, 540}
)

// FlipRadius is how far above the dog's center the flip pivots.
const FlipRadius = 150

// Poison is the color that replaces near-white pixels while poisoned.
var Poison = [3]uint8{31, 192, 1}

// Point is a position on the canvas.
type Point struct {
	X, Y float64
}

// Frame selects a sprite.
type Frame int

const (
	FrameClosed Frame = iota
	FrameOpen
	FrameWalk1
	FrameWalk2
)

func (f Frame) String() string {
	switch f {
	case FrameOpen:
		return "open"
	case FrameWalk1:
		return "walk1"
	case FrameWalk2:
		return "walk2"
	default:
		return "closed"
	}
}

// State is the dog's primary state. Poisoned is tracked separately.
type State int

const (
	WalkingIn State = iota
	Idle
	Talking
	Flipping
)

func (s State) String() string {
	return [...]string{"walking in", "idle", "talking", "flipping"}[s]
}

// Pose is everything needed to draw one frame.
type Pose struct {
	State State
	Frame Frame
	// Bottom is the sprite's bottom center when it is not flipping.
	Bottom Point
	// Angle is the flip angle in degrees, from 180 to 540.
	Angle    float64
	Poisoned bool
}

// Effects are the side effects a key press asks for.
type Effects struct {
	Sounds       []audio.Effect
	ClearCaption bool
}

// None reports whether there is nothing to do.
func (e Effects) None() bool {
	return len(e.Sounds) == 0 && !e.ClearCaption
}

// Machine is the dog's animation state. It is not safe for concurrent use;
// the render loop owns it.
type Machine struct {
	start      time.Time
	now        time.Time
	frame      Frame
	lastToggle time.Time
	speaking   bool

	flipping  bool
	flipStart time.Time
	poisoned  bool
}

// New starts the walk-in at now.
func New(now time.Time) *Machine {
	return &Machine{
		start:      now,
		now:        now,
		frame:      FrameClosed,
		lastToggle: now,
	}
}

// WalkDone reports whether the walk-in has finished.
func (m *Machine) WalkDone(now time.Time) bool {
	return now.Sub(m.start) >= WalkDuration
}

// Tick advances the machine to now.
func (m *Machine) Tick(now time.Time, speaking bool) {
	m.now = now
	m.speaking = speaking

	if m.flipping && now.Sub(m.flipStart) >= FlipDuration {
		m.flipping = false
	}

	if !m.WalkDone(now) {
		if now.Sub(m.lastToggle) > WalkFrameInterval {
			if m.frame == FrameWalk2 {
				m.frame = FrameWalk1
			} else {
				m.frame = FrameWalk2
			}
			m.lastToggle = now
		}
		return
	}

	switch {
	case !speaking:
		m.frame = FrameClosed
	case now.Sub(m.lastToggle) > MouthInterval:
		if m.frame == FrameOpen {
			m.frame = FrameClosed
		} else {
			m.frame = FrameOpen
		}
		m.lastToggle = now
	}
}

// Flip handles the flip key. While speech plays it does nothing. Otherwise
// it clears the caption and plays the flip sound, and the dog flips unless
// it is poisoned or already flipping.
func (m *Machine) Flip(now time.Time, speaking bool) Effects {
	if !m.WalkDone(now) || speaking {
		return Effects{}
	}
	if !m.poisoned && !m.flipping {
		m.flipping = true
		m.flipStart = now
	}
	return Effects{
		Sounds:       []audio.Effect{audio.EffectFlip},
		ClearCaption: true,
	}
}

// TogglePoison handles the poison key. It is ignored mid-flip.
func (m *Machine) TogglePoison(now time.Time) Effects {
	if !m.WalkDone(now) || m.flipping {
		return Effects{}
	}
	m.poisoned = !m.poisoned
	if m.poisoned {
		return Effects{Sounds: []audio.Effect{audio.EffectHurt}}
	}
	return Effects{Sounds: []audio.Effect{audio.EffectHeal}}
}

// Poisoned reports the poison toggle.
func (m *Machine) Poisoned() bool { return m.poisoned }

// State returns the primary state as of the last tick.
func (m *Machine) State() State {
	switch {
	case !m.WalkDone(m.now):
		return WalkingIn
	case m.flipping:
		return Flipping
	case m.speaking:
		return Talking
	default:
		return Idle
	}
}

// Pose returns the pose as of the last tick.
func (m *Machine) Pose() Pose {
	p := Pose{
		State:    m.State(),
		Frame:    m.frame,
		Bottom:   Rest,
		Poisoned: m.poisoned,
	}

	switch p.State {
	case WalkingIn:
		t := float64(m.now.Sub(m.start)) / float64(WalkDuration)
		e := easeOutQuad(min(max(t, 0), 1))
		p.Bottom = Point{
			X: WalkStart.X + (Rest.X-WalkStart.X)*e,
			Y: WalkStart.Y + (Rest.Y-WalkStart.Y)*e,
		}
	case Flipping:
		t := float64(m.now.Sub(m.flipStart)) / float64(FlipDuration)
		p.Angle = 180 + 360*min(max(t, 0), 1)
	}
	return p
}

func easeOutQuad(t float64) float64 {
	return -t * (t - 2)
}

// FlipPlacement returns where to center a sprite rotated by angle degrees
// around a pivot FlipRadius above center, and the rotation to apply to the
// image (counterclockwise degrees).
func FlipPlacement(center Point, angle float64) (Point, float64) {
	pivot := Point{center.X, center.Y - FlipRadius}

	// (0, -FlipRadius) rotated by -angle in screen coordinates.
	rad := -angle * math.Pi / 180
	sin, cos := math.Sincos(rad)
	return Point{pivot.X + FlipRadius*sin, pivot.Y - FlipRadius*cos}, angle + 180
}
