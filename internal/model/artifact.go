package model

import "time"

// Kind tells what an artifact payload holds.
type Kind string

const (
	KindImage   Kind = "single-image"
	KindArchive Kind = "archive"
)

// ContentType returns the MIME type served for the kind.
func (k Kind) ContentType() string {
	if k == KindArchive {
		return "application/zip"
	}
	return "image/png"
}

// Artifact is a stored result waiting to be downloaded.
type Artifact struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Filename  string    `json:"filename"`
	Size      int       `json:"size"`
	Digest    string    `json:"digest"` // hex BLAKE3-256 of Payload
	CreatedAt time.Time `json:"created_at"`
	Payload   []byte    `json:"-"`
}
