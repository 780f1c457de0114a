package assets

import (
	"image"

	"github.com/disintegration/imaging"
)

// ImageOverlay is a decoded overlay graphic.
type ImageOverlay struct {
	img image.Image
}

// NewImageOverlay wraps a decoded image as an overlay.
func NewImageOverlay(img image.Image) *ImageOverlay {
	return &ImageOverlay{img: img}
}

// Size returns the natural size of the graphic.
func (o *ImageOverlay) Size() (int, int) {
	b := o.img.Bounds()
	return b.Dx(), b.Dy()
}

// Render returns the graphic resized to width x height.
func (o *ImageOverlay) Render(width, height int) image.Image {
	if w, h := o.Size(); w == width && h == height {
		return o.img
	}

	return imaging.Resize(o.img, width, height, imaging.Lanczos)
}
