package canvas

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
)

const (
	upperHalf = "▀"
	lowerHalf = "▄"
	fullBlock = "█"
)

// Caption is wrapped text placed on the canvas: lines centered on CenterX,
// the last one ending at Bottom.
type Caption struct {
	Lines   []string
	CenterX float64
	Bottom  float64
}

// cell is one terminal character covering two stacked pixels.
type cell struct {
	top, bottom color.RGBA
	text        string // overrides the pixels when set
	skip        bool   // covered by a wide rune to its left
}

// Renderer turns a surface into terminal text, two pixels per cell
// vertically using half blocks.
type Renderer struct {
	profile termenv.Profile
	fg, bg  map[color.RGBA]string
}

// NewRenderer creates a renderer for a color profile.
func NewRenderer(profile termenv.Profile) *Renderer {
	return &Renderer{
		profile: profile,
		fg:      make(map[color.RGBA]string),
		bg:      make(map[color.RGBA]string),
	}
}

// Cell returns the canvas size of one terminal cell for a grid.
func Cell(cols, rows int) (w, h float64) {
	return float64(Width) / float64(cols), float64(Height) / float64(rows)
}

// Render downsamples s into cols x rows cells and overlays caption text in
// white.
func (r *Renderer) Render(s *Surface, cols, rows int, caption Caption) string {
	if cols <= 0 || rows <= 0 {
		return ""
	}
	grid := sample(s, cols, rows)
	placeCaption(grid, cols, rows, caption)

	var b strings.Builder
	for y, row := range grid {
		var last string
		for _, c := range row {
			if c.skip {
				continue
			}
			glyph, fg, bg := r.glyph(c)
			if sgr := r.sgr(fg, bg); sgr != last {
				b.WriteString(sgr)
				last = sgr
			}
			b.WriteString(glyph)
		}
		b.WriteString(termenv.CSI + termenv.ResetSeq + "m")
		if y < len(grid)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (r *Renderer) glyph(c cell) (string, color.RGBA, color.RGBA) {
	white := color.RGBA{255, 255, 255, 255}
	if c.text != "" {
		return c.text, white, Background
	}
	if r.profile == termenv.Ascii {
		top, bottom := luma(c.top) > 127, luma(c.bottom) > 127
		switch {
		case top && bottom:
			return fullBlock, white, Background
		case top:
			return upperHalf, white, Background
		case bottom:
			return lowerHalf, white, Background
		default:
			return " ", white, Background
		}
	}
	return upperHalf, c.top, c.bottom
}

func (r *Renderer) sgr(fg, bg color.RGBA) string {
	f, ok := r.fg[fg]
	if !ok {
		f = r.profile.Color(hex(fg)).Sequence(false)
		r.fg[fg] = f
	}
	g, ok := r.bg[bg]
	if !ok {
		g = r.profile.Color(hex(bg)).Sequence(true)
		r.bg[bg] = g
	}

	var seqs []string
	if f != "" {
		seqs = append(seqs, f)
	}
	if g != "" {
		seqs = append(seqs, g)
	}
	if len(seqs) == 0 {
		return ""
	}
	return termenv.CSI + strings.Join(seqs, ";") + "m"
}

func hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func luma(c color.RGBA) int {
	return (299*int(c.R) + 587*int(c.G) + 114*int(c.B)) / 1000
}

// sample averages the pixels under each half cell.
func sample(s *Surface, cols, rows int) [][]cell {
	b := s.Bounds()
	grid := make([][]cell, rows)
	for y := range grid {
		grid[y] = make([]cell, cols)
		for x := range grid[y] {
			x0 := b.Min.X + x*b.Dx()/cols
			x1 := b.Min.X + (x+1)*b.Dx()/cols
			yTop := b.Min.Y + (2*y)*b.Dy()/(2*rows)
			yMid := b.Min.Y + (2*y+1)*b.Dy()/(2*rows)
			yEnd := b.Min.Y + (2*y+2)*b.Dy()/(2*rows)
			grid[y][x] = cell{
				top:    average(s, x0, yTop, x1, yMid),
				bottom: average(s, x0, yMid, x1, yEnd),
			}
		}
	}
	return grid
}

func average(s *Surface, x0, y0, x1, y1 int) color.RGBA {
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	var r, g, bl, n int
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			c := s.RGBAAt(x, y)
			r += int(c.R)
			g += int(c.G)
			bl += int(c.B)
			n++
		}
	}
	return color.RGBA{uint8(r / n), uint8(g / n), uint8(bl / n), 255}
}

// placeCaption writes caption lines into the grid, centered, with the last
// line in the row just above Bottom.
func placeCaption(grid [][]cell, cols, rows int, caption Caption) {
	if len(caption.Lines) == 0 {
		return
	}
	cw, ch := Cell(cols, rows)
	last := int(caption.Bottom/ch) - 1
	center := int(caption.CenterX / cw)

	for i, line := range caption.Lines {
		y := last - (len(caption.Lines) - 1 - i)
		if y < 0 || y >= rows {
			continue
		}
		x := center - runewidth.StringWidth(line)/2
		for _, r := range line {
			w := runewidth.RuneWidth(r)
			if w == 0 {
				continue
			}
			if x >= 0 && x+w <= cols {
				grid[y][x].text = string(r)
				for k := 1; k < w; k++ {
					grid[y][x+k].skip = true
				}
			}
			x += w
		}
	}
}
