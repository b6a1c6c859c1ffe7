package canvas

import (
	"bufio"
	"bytes"
	"embed"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/mitchellh/go-homedir"

	"github.com/tobysim/radiation/internal/anim"
)

// Scale factors applied to sprite art.
const (
	DogScale    = 5
	MarkerScale = 2
)

//go:embed sprites/*.txt
var spriteArt embed.FS

// palette maps sprite art characters to colors; '.' is transparent.
var palette = map[rune]color.RGBA{
	'K': {0, 0, 0, 255},
	'W': {255, 255, 255, 255},
	'P': {230, 90, 110, 255},
	'G': {anim.Poison[0], anim.Poison[1], anim.Poison[2], 255},
}

// Sprites holds the scaled images the scene is drawn with.
type Sprites struct {
	frames map[anim.Frame]*image.RGBA
	Marker *image.RGBA
}

var spriteFiles = map[anim.Frame]string{
	anim.FrameClosed: "dog_closed",
	anim.FrameOpen:   "dog_open",
	anim.FrameWalk1:  "dog_walk_1",
	anim.FrameWalk2:  "dog_walk_2",
}

const markerFile = "poison_point"

// Frame returns the image for f.
func (s *Sprites) Frame(f anim.Frame) *image.RGBA {
	if img, ok := s.frames[f]; ok {
		return img
	}
	return s.frames[anim.FrameClosed]
}

// DefaultSprites returns the built-in art.
func DefaultSprites() (*Sprites, error) {
	return LoadSprites("")
}

// LoadSprites returns the built-in art with any PNG files found in dir
// used instead. PNG files are named like the built-in art (dog_closed.png,
// poison_point.png, ...), drawn facing left, and are mirrored to face
// right.
func LoadSprites(dir string) (*Sprites, error) {
	if dir != "" {
		expanded, err := homedir.Expand(dir)
		if err != nil {
			return nil, fmt.Errorf("unable to expand asset dir: %w", err)
		}
		dir = expanded
	}

	s := &Sprites{frames: make(map[anim.Frame]*image.RGBA)}
	for frame, name := range spriteFiles {
		img, err := loadSprite(dir, name, DogScale)
		if err != nil {
			return nil, err
		}
		s.frames[frame] = img
	}

	marker, err := loadSprite(dir, markerFile, MarkerScale)
	if err != nil {
		return nil, err
	}
	s.Marker = marker

	return s, nil
}

func loadSprite(dir, name string, scale int) (*image.RGBA, error) {
	if dir != "" {
		path := filepath.Join(dir, name+".png")
		img, err := loadPNG(path)
		switch {
		case err == nil:
			log.Debug("Loaded sprite override", "path", path)
			return Scale(Mirror(img), scale), nil
		case !errors.Is(err, fs.ErrNotExist):
			return nil, err
		}
	}

	data, err := spriteArt.ReadFile("sprites/" + name + ".txt")
	if err != nil {
		return nil, fmt.Errorf("missing built-in sprite %s: %w", name, err)
	}
	img, err := ParseArt(data)
	if err != nil {
		return nil, fmt.Errorf("sprite %s: %w", name, err)
	}
	return Scale(img, scale), nil
}

func loadPNG(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("unable to decode %s: %w", path, err)
	}
	out := image.NewRGBA(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out, nil
}

// ParseArt turns rows of palette characters into an image, one pixel per
// character.
func ParseArt(data []byte) (*image.RGBA, error) {
	var rows []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			rows = append(rows, line)
		}
	}
	if len(rows) == 0 {
		return nil, errors.New("empty sprite art")
	}

	w := len([]rune(rows[0]))
	img := image.NewRGBA(image.Rect(0, 0, w, len(rows)))
	for y, row := range rows {
		runes := []rune(row)
		if len(runes) != w {
			return nil, fmt.Errorf("row %d is %d wide, expected %d", y, len(runes), w)
		}
		for x, r := range runes {
			if r == '.' {
				continue
			}
			c, ok := palette[r]
			if !ok {
				return nil, fmt.Errorf("unknown color %q at %d,%d", r, x, y)
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img, nil
}

// Scale enlarges img by an integer factor without smoothing.
func Scale(img *image.RGBA, factor int) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	for y := 0; y < out.Bounds().Dy(); y++ {
		for x := 0; x < out.Bounds().Dx(); x++ {
			out.SetRGBA(x, y, img.RGBAAt(b.Min.X+x/factor, b.Min.Y+y/factor))
		}
	}
	return out
}

// Mirror flips img horizontally.
func Mirror(img *image.RGBA) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.SetRGBA(b.Dx()-1-x, y, img.RGBAAt(b.Min.X+x, b.Min.Y+y))
		}
	}
	return out
}
