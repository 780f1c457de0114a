package processor

import (
	"errors"
	"fmt"
)

var (
	// ErrNoValidInput is returned when a request has no usable upload left.
	ErrNoValidInput = errors.New("no valid image uploaded")
	// ErrDecode is returned when an upload cannot be decoded as an image.
	ErrDecode = errors.New("failed to decode image")
	// ErrMissingFilename is returned when an upload carries no filename.
	ErrMissingFilename = errors.New("missing filename")
)

// ValidationError describes an upload rejected before processing.
type ValidationError struct {
	Filename string
	Reason   string
}

func (e *ValidationError) Error() string {
	if e.Filename == "" {
		return fmt.Sprintf("invalid upload: %s", e.Reason)
	}
	return fmt.Sprintf("invalid upload %q: %s", e.Filename, e.Reason)
}
