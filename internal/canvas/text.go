package canvas

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Caption layout, in canvas pixels.
const (
	TextWidth   = 600
	TextCenterX = 400
	TextBottom  = 400
)

// Measurer reports the drawn width of a string in canvas pixels.
type Measurer interface {
	Width(s string) float64
}

// CellMeasurer measures text drawn in terminal cells, each CellWidth
// canvas pixels wide.
type CellMeasurer struct {
	CellWidth float64
}

func (m CellMeasurer) Width(s string) float64 {
	return float64(runewidth.StringWidth(s)) * m.CellWidth
}

// Wrap breaks text into lines no wider than width, greedily by word. A word
// wider than width gets a line of its own.
func Wrap(text string, width float64, m Measurer) []string {
	var lines []string
	line := ""
	for _, w := range strings.Fields(text) {
		if line == "" {
			line = w
			continue
		}
		if candidate := line + " " + w; m.Width(candidate) <= width {
			line = candidate
			continue
		}
		lines = append(lines, line)
		line = w
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}
