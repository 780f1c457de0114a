package artifact

import (
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/aliskhannn/watermarker/internal/model"
)

// ErrNotFound is returned for an id that was never stored or has expired.
var ErrNotFound = errors.New("artifact not found")

// Digest returns the hex BLAKE3-256 digest of payload.
func Digest(payload []byte) string {
	sum := blake3.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// newArtifact mints an artifact with a fresh random id.
func newArtifact(payload []byte, kind model.Kind, filename string, now time.Time) model.Artifact {
	return model.Artifact{
		ID:        uuid.NewString(),
		Kind:      kind,
		Filename:  filename,
		Size:      len(payload),
		Digest:    Digest(payload),
		CreatedAt: now.UTC(),
		Payload:   payload,
	}
}
