package assets

import (
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTextRejectsMalformedParameters(t *testing.T) {
	f, err := DefaultFont()
	require.NoError(t, err)

	tests := []struct {
		name string
		text string
		size float64
	}{
		{"empty", "", 40},
		{"blank", "   ", 40},
		{"zero size", "mark", 0},
		{"negative size", "mark", -3},
		{"nan size", "mark", math.NaN()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewText(f, tt.text, tt.size, color.Black, 100)
			assert.ErrorIs(t, err, ErrInvalidText)
		})
	}

	_, err = NewText(nil, "mark", 40, color.Black, 100)
	assert.ErrorIs(t, err, ErrInvalidText)
}

func TestTextOverlayRender(t *testing.T) {
	f, err := DefaultFont()
	require.NoError(t, err)

	o, err := NewText(f, "WATERMARK", DefaultFontSize, color.Black, DefaultTextAlpha)
	require.NoError(t, err)

	w, h := o.Size()
	img := o.Render(w, h)
	require.Equal(t, w, img.Bounds().Dx())
	require.Equal(t, h, img.Bounds().Dy())

	var inked int
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			_, _, _, a := img.At(x, y).RGBA()
			a8 := a >> 8
			assert.Less(t, a8, uint32(255), "text is translucent")
			if a8 > 0 {
				inked++
			}
		}
	}
	assert.Greater(t, inked, 0, "text must leave visible pixels")

	half := o.Render(w/2, h/2)
	assert.Equal(t, w/2, half.Bounds().Dx())
}

func TestLoadFontMissingFile(t *testing.T) {
	_, err := LoadFont("does/not/exist.ttf")
	assert.Error(t, err)
}
