package assets

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"io"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/golang/freetype/truetype"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/watermarker/internal/model"
	"github.com/aliskhannn/watermarker/internal/processor"
)

// Packaged overlay asset names, one per color variant.
const (
	BlackAsset = "watermark_black.png"
	WhiteAsset = "watermark_white.png"
)

// ErrAssetLoad is returned when an overlay asset is missing or corrupt.
var ErrAssetLoad = errors.New("failed to load watermark asset")

// source defines the interface for reading overlay assets
// (embedded files, a local directory, or an object storage bucket).
type source interface {
	Load(ctx context.Context, name string) (io.ReadCloser, error)
}

// AssetName returns the asset file for a color variant.
func AssetName(v model.Variant) string {
	if v == model.White {
		return WhiteAsset
	}
	return BlackAsset
}

// Resolver picks the overlay for a watermark spec. Decoded graphics are cached
// per variant for the life of the process; failed loads are retried on the next call.
type Resolver struct {
	source   source
	font     *truetype.Font
	fontSize float64
	alpha    uint8
	strategy retry.Strategy

	fontOnce sync.Once
	fontErr  error

	mu    sync.Mutex
	cache map[model.Variant]*ImageOverlay
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithFont sets the font used for text overlays.
func WithFont(f *truetype.Font) Option {
	return func(r *Resolver) { r.font = f }
}

// WithTextStyle sets the point size and alpha of text overlays.
func WithTextStyle(size float64, alpha uint8) Option {
	return func(r *Resolver) {
		r.fontSize = size
		r.alpha = alpha
	}
}

// WithRetry sets the retry strategy for asset loads.
func WithRetry(s retry.Strategy) Option {
	return func(r *Resolver) { r.strategy = s }
}

// NewResolver creates a Resolver reading assets from src.
func NewResolver(src source, opts ...Option) *Resolver {
	r := &Resolver{
		source:   src,
		fontSize: DefaultFontSize,
		alpha:    DefaultTextAlpha,
		strategy: retry.Strategy{Attempts: 1},
		cache:    make(map[model.Variant]*ImageOverlay),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.strategy.Attempts < 1 {
		r.strategy.Attempts = 1
	}

	return r
}

// Overlay returns a text overlay when spec carries text, and the
// packaged graphic for spec's color variant otherwise.
func (r *Resolver) Overlay(ctx context.Context, spec model.Spec) (processor.Overlay, error) {
	if spec.Text != "" {
		f, err := r.textFont()
		if err != nil {
			return nil, err
		}

		t, err := NewText(f, spec.Text, r.fontSize, variantColor(spec.Variant), r.alpha)
		if err != nil {
			return nil, err
		}
		return t, nil
	}

	return r.Image(ctx, spec.Variant)
}

// Image returns the decoded graphic for a color variant, loading it on first use.
func (r *Resolver) Image(ctx context.Context, v model.Variant) (*ImageOverlay, error) {
	v = model.ParseVariant(string(v))

	r.mu.Lock()
	defer r.mu.Unlock()

	if o, ok := r.cache[v]; ok {
		return o, nil
	}

	name := AssetName(v)

	var o *ImageOverlay
	err := retry.Do(func() error {
		var loadErr error
		o, loadErr = r.load(ctx, name)
		return loadErr
	}, r.strategy)
	if err != nil {
		zlog.Logger.Err(err).Str("asset", name).Msg("failed to load watermark asset")
		return nil, fmt.Errorf("%w %s: %w", ErrAssetLoad, name, err)
	}

	r.cache[v] = o

	return o, nil
}

// Warm loads every packaged variant. Failures are logged and left for a later retry.
func (r *Resolver) Warm(ctx context.Context) {
	for _, v := range []model.Variant{model.Black, model.White} {
		if _, err := r.Image(ctx, v); err != nil {
			continue
		}
		zlog.Logger.Info().Str("variant", string(v)).Msg("watermark asset loaded")
	}
}

// textFont returns the configured font, falling back to Go Regular.
func (r *Resolver) textFont() (*truetype.Font, error) {
	r.fontOnce.Do(func() {
		if r.font == nil {
			r.font, r.fontErr = DefaultFont()
		}
	})
	return r.font, r.fontErr
}

func (r *Resolver) load(ctx context.Context, name string) (*ImageOverlay, error) {
	rc, err := r.source.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	img, err := imaging.Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode asset: %w", err)
	}

	return NewImageOverlay(img), nil
}

func variantColor(v model.Variant) color.Color {
	if model.ParseVariant(string(v)) == model.White {
		return color.White
	}
	return color.Black
}
