package assets

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
)

// ErrInvalidText is returned for malformed text overlay parameters.
var ErrInvalidText = errors.New("invalid text overlay")

// Text overlay defaults.
const (
	DefaultFontSize  = 40.0
	DefaultTextAlpha = 100
)

// DefaultFont returns the Go Regular font shipped with x/image.
func DefaultFont() (*truetype.Font, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse default font: %w", err)
	}
	return f, nil
}

// LoadFont parses a TrueType font file.
func LoadFont(path string) (*truetype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font %s: %w", path, err)
	}

	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", path, err)
	}

	return f, nil
}

// TextOverlay renders a literal string as a watermark. It needs no decoded asset.
type TextOverlay struct {
	text   string
	font   *truetype.Font
	size   float64
	color  color.NRGBA
	width  int
	height int
}

// NewText builds a text overlay of the given point size. The RGB part of c is
// used as the text color and alpha replaces its alpha channel.
func NewText(f *truetype.Font, text string, size float64, c color.Color, alpha uint8) (*TextOverlay, error) {
	text = strings.TrimSpace(text)
	switch {
	case f == nil:
		return nil, fmt.Errorf("%w: no font", ErrInvalidText)
	case text == "":
		return nil, fmt.Errorf("%w: empty text", ErrInvalidText)
	case !(size > 0) || math.IsInf(size, 0):
		return nil, fmt.Errorf("%w: font size %v", ErrInvalidText, size)
	}

	nc := color.NRGBAModel.Convert(c).(color.NRGBA)
	nc.A = alpha

	face := truetype.NewFace(f, &truetype.Options{Size: size})
	defer face.Close()

	dc := gg.NewContext(1, 1)
	dc.SetFontFace(face)
	w, _ := dc.MeasureString(text)
	m := face.Metrics()

	return &TextOverlay{
		text:   text,
		font:   f,
		size:   size,
		color:  nc,
		width:  int(math.Ceil(w)),
		height: (m.Ascent + m.Descent).Ceil(),
	}, nil
}

// Size returns the measured text box at the configured point size.
func (t *TextOverlay) Size() (int, int) {
	return t.width, t.height
}

// Render draws the text centered in a width x height transparent box,
// scaling the font with the box height.
func (t *TextOverlay) Render(width, height int) image.Image {
	dc := gg.NewContext(width, height)

	size := t.size
	if t.height > 0 {
		size = t.size * float64(height) / float64(t.height)
	}
	face := truetype.NewFace(t.font, &truetype.Options{Size: size})
	defer face.Close()

	dc.SetFontFace(face)
	dc.SetColor(t.color)
	dc.DrawStringAnchored(t.text, float64(width)/2, float64(height)/2, 0.5, 0.5)

	return dc.Image()
}
