package processor

import (
	"bytes"
	"fmt"
	"image"
	"path"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/aliskhannn/watermarker/internal/model"
)

const (
	outputPrefix    = "watermarked_"
	outputExtension = ".png"
)

// Overlay is a watermark that can be rasterized at a requested size.
type Overlay interface {
	// Size returns the natural overlay size in pixels.
	Size() (width, height int)
	// Render returns the overlay drawn at exactly width x height.
	Render(width, height int) image.Image
}

// ScaledSize returns floor(width*scale) x floor(height*scale).
func ScaledSize(width, height int, scale float64) (int, int) {
	return int(float64(width) * scale), int(float64(height) * scale)
}

// Origin returns the top-left corner of a w x h overlay anchored at pos
// inside a baseW x baseH image. Coordinates may be negative.
func Origin(pos model.Position, baseW, baseH, w, h int) image.Point {
	switch pos {
	case model.TopLeft:
		return image.Pt(0, 0)
	case model.TopRight:
		return image.Pt(baseW-w, 0)
	case model.BottomLeft:
		return image.Pt(0, baseH-h)
	case model.BottomRight:
		return image.Pt(baseW-w, baseH-h)
	default:
		return image.Pt((baseW-w)/2, (baseH-h)/2)
	}
}

// Composite draws overlay on a copy of base according to spec.
// The returned image always has the bounds size of base; base itself is left untouched.
func Composite(base image.Image, overlay Overlay, spec model.Spec) (*image.NRGBA, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	// Copy the base into a fresh buffer anchored at (0, 0).
	dst := imaging.Clone(base)
	bw, bh := dst.Bounds().Dx(), dst.Bounds().Dy()

	ow, oh := overlay.Size()
	w, h := ScaledSize(ow, oh, spec.Scale)
	if w <= 0 || h <= 0 {
		// Degenerate overlay, nothing to draw.
		return dst, nil
	}

	at := Origin(model.ParsePosition(string(spec.Position)), bw, bh, w, h)

	// imaging.Overlay blends source-over at the given opacity and clips to dst.
	return imaging.Overlay(dst, overlay.Render(w, h), at, spec.Opacity), nil
}

// Encode writes img as PNG.
func Encode(img image.Image) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode watermarked image: %w", err)
	}

	return buf.Bytes(), nil
}

// OutputFilename derives the download name: watermarked_<name without extension>.png.
func OutputFilename(original string) (string, error) {
	name := strings.TrimSpace(original)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		return "", ErrMissingFilename
	}

	if ext := path.Ext(name); len(ext) > 1 {
		name = strings.TrimSuffix(name, ext)
	}

	return outputPrefix + name + outputExtension, nil
}

// Watermark composites overlay onto base and encodes the result under the derived filename.
func Watermark(filename string, base image.Image, overlay Overlay, spec model.Spec) (model.CompositedResult, error) {
	name, err := OutputFilename(filename)
	if err != nil {
		return model.CompositedResult{}, err
	}

	out, err := Composite(base, overlay, spec)
	if err != nil {
		return model.CompositedResult{}, err
	}

	data, err := Encode(out)
	if err != nil {
		return model.CompositedResult{}, err
	}

	return model.CompositedResult{Filename: name, Data: data}, nil
}
