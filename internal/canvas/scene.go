package canvas

import (
	"image/color"

	"github.com/tobysim/radiation/internal/anim"
)

// DrawDog draws the dog in pose, tinted and marked when poisoned.
func (s *Surface) DrawDog(sprites *Sprites, pose anim.Pose) {
	img := sprites.Frame(pose.Frame)

	if pose.Poisoned {
		img = Tint(img, color.RGBA{anim.Poison[0], anim.Poison[1], anim.Poison[2], 255})
		s.BlitMidBottom(sprites.Marker, anim.MarkerBottom)
	}

	if pose.State == anim.Flipping {
		h := float64(img.Bounds().Dy())
		center := anim.Point{X: anim.Rest.X, Y: anim.Rest.Y - h/2}
		at, rotation := anim.FlipPlacement(center, pose.Angle)
		s.BlitRotated(img, at, rotation)
		return
	}

	s.BlitMidBottom(img, pose.Bottom)
}
