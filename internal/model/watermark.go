package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSpec is returned when a watermark spec carries an out-of-range scale or opacity.
var ErrInvalidSpec = errors.New("invalid watermark spec")

// Position is the anchor of the overlay on the base image.
type Position string

const (
	TopLeft     Position = "top-left"
	TopRight    Position = "top-right"
	BottomLeft  Position = "bottom-left"
	BottomRight Position = "bottom-right"
	Center      Position = "center"
)

// ParsePosition maps a request token to a Position.
// Both "top-left" and "topLeft" spellings are understood; anything else is Center.
func ParsePosition(token string) Position {
	switch strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(token)) {
	case "topleft":
		return TopLeft
	case "topright":
		return TopRight
	case "bottomleft":
		return BottomLeft
	case "bottomright":
		return BottomRight
	default:
		return Center
	}
}

// Variant selects the overlay color.
type Variant string

const (
	Black Variant = "black"
	White Variant = "white"
)

// ParseVariant returns White for "white" (any case) and Black otherwise.
func ParseVariant(token string) Variant {
	if strings.EqualFold(strings.TrimSpace(token), string(White)) {
		return White
	}
	return Black
}

// Default watermark parameters used when a request leaves them out.
const (
	DefaultScale   = 0.5
	DefaultOpacity = 1.0
)

// Spec describes how a watermark is laid over an image.
type Spec struct {
	Position Position `json:"position"`
	Scale    float64  `json:"scale"`   // (0, 1]
	Opacity  float64  `json:"opacity"` // (0, 1]
	Variant  Variant  `json:"variant"`
	Text     string   `json:"text,omitempty"` // non-empty switches to a text overlay
}

// DefaultSpec returns a spec with the request defaults applied.
func DefaultSpec() Spec {
	return Spec{
		Position: Center,
		Scale:    DefaultScale,
		Opacity:  DefaultOpacity,
		Variant:  Black,
	}
}

// Clamp pulls scale and opacity into (0, 1]. Non-positive values fall back to the defaults.
func (s Spec) Clamp() Spec {
	s.Scale = clampUnit(s.Scale, DefaultScale)
	s.Opacity = clampUnit(s.Opacity, DefaultOpacity)
	if s.Position == "" {
		s.Position = Center
	}
	if s.Variant == "" {
		s.Variant = Black
	}
	return s
}

// Validate reports whether scale and opacity are within (0, 1].
func (s Spec) Validate() error {
	if !(s.Scale > 0 && s.Scale <= 1) {
		return fmt.Errorf("%w: scale %v out of range (0, 1]", ErrInvalidSpec, s.Scale)
	}
	if !(s.Opacity > 0 && s.Opacity <= 1) {
		return fmt.Errorf("%w: opacity %v out of range (0, 1]", ErrInvalidSpec, s.Opacity)
	}
	return nil
}

func clampUnit(v, fallback float64) float64 {
	switch {
	case v != v || v <= 0: // NaN or non-positive
		return fallback
	case v > 1:
		return 1
	default:
		return v
	}
}
