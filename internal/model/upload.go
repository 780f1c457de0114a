package model

import "strings"

// Upload is a single file slot of a watermark request.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// IsImage reports whether the declared content type is an image type.
func (u Upload) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(u.ContentType), "image/")
}

// BatchRequest is an ordered set of uploads sharing one watermark spec.
type BatchRequest struct {
	Uploads []Upload
	Spec    Spec
}

// CompositedResult is one encoded, watermarked image.
type CompositedResult struct {
	Filename string
	Data     []byte
}

// Skip records an upload left out of an archive and why.
type Skip struct {
	Index    int    `json:"index"`
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

// BatchResult is the output of a batch run: one image or one archive.
type BatchResult struct {
	Kind      Kind
	Filename  string
	Payload   []byte
	Processed int
	Skipped   []Skip
}
