// Package canvas draws the scene on a fixed 800x600 pixel surface and
// renders that surface into terminal cells.
package canvas

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/tobysim/radiation/internal/anim"
)

// Canvas size in pixels.
const (
	Width  = 800
	Height = 600
)

// Background fills the surface before each frame.
var Background = color.RGBA{0, 0, 0, 255}

// Surface is an opaque RGBA drawing target.
type Surface struct {
	*image.RGBA
}

// NewSurface allocates a surface of the given size.
func NewSurface(w, h int) *Surface {
	return &Surface{image.NewRGBA(image.Rect(0, 0, w, h))}
}

// Clear fills the surface with c.
func (s *Surface) Clear(c color.RGBA) {
	draw.Draw(s.RGBA, s.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

// Blit alpha-composites img with its top-left corner at (x, y).
func (s *Surface) Blit(img image.Image, x, y int) {
	b := img.Bounds()
	r := image.Rect(x, y, x+b.Dx(), y+b.Dy())
	draw.Draw(s.RGBA, r, img, b.Min, draw.Over)
}

// BlitMidBottom draws img so its bottom center sits at p.
func (s *Surface) BlitMidBottom(img image.Image, p anim.Point) {
	b := img.Bounds()
	x := int(math.Round(p.X)) - b.Dx()/2
	y := int(math.Round(p.Y)) - b.Dy()
	s.Blit(img, x, y)
}

// BlitRotated draws img rotated counterclockwise by degrees, centered on
// center. Transparent source pixels are skipped.
func (s *Surface) BlitRotated(img *image.RGBA, center anim.Point, degrees float64) {
	b := img.Bounds()
	hw, hh := float64(b.Dx())/2, float64(b.Dy())/2
	radius := math.Ceil(math.Hypot(hw, hh))

	sin, cos := math.Sincos(degrees * math.Pi / 180)
	dst := s.Bounds()
	y0 := max(dst.Min.Y, int(math.Floor(center.Y-radius)))
	y1 := min(dst.Max.Y, int(math.Ceil(center.Y+radius)))
	x0 := max(dst.Min.X, int(math.Floor(center.X-radius)))
	x1 := min(dst.Max.X, int(math.Ceil(center.X+radius)))

	for y := y0; y < y1; y++ {
		dy := float64(y) + 0.5 - center.Y
		for x := x0; x < x1; x++ {
			dx := float64(x) + 0.5 - center.X
			// Inverse of a counterclockwise rotation in y-down coordinates.
			sx := dx*cos - dy*sin + hw
			sy := dx*sin + dy*cos + hh
			if sx < 0 || sy < 0 || sx >= 2*hw || sy >= 2*hh {
				continue
			}
			c := img.RGBAAt(b.Min.X+int(sx), b.Min.Y+int(sy))
			if c.A == 0 {
				continue
			}
			s.blend(x, y, c)
		}
	}
}

func (s *Surface) blend(x, y int, c color.RGBA) {
	if c.A == 255 {
		s.SetRGBA(x, y, c)
		return
	}
	d := s.RGBAAt(x, y)
	a := uint32(c.A)
	mix := func(src, dst uint8) uint8 {
		return uint8((uint32(src)*255 + uint32(dst)*(255-a)) / 255)
	}
	s.SetRGBA(x, y, color.RGBA{mix(c.R, d.R), mix(c.G, d.G), mix(c.B, d.B), 255})
}

// Tint returns a copy of img where pixels with every channel above 200 are
// replaced by c. Alpha is kept.
func Tint(img *image.RGBA, c color.RGBA) *image.RGBA {
	out := image.NewRGBA(img.Bounds())
	copy(out.Pix, img.Pix)
	for i := 0; i+3 < len(out.Pix); i += 4 {
		if out.Pix[i] > 200 && out.Pix[i+1] > 200 && out.Pix[i+2] > 200 {
			out.Pix[i], out.Pix[i+1], out.Pix[i+2] = c.R, c.G, c.B
		}
	}
	return out
}
