package processor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aliskhannn/watermarker/internal/model"
)

func readArchive(t *testing.T, payload []byte) []*zip.File {
	t.Helper()

	zr, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	require.NoError(t, err)
	return zr.File
}

func names(files []*zip.File) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Name)
	}
	return out
}

func newTestProcessor(workers int) (*Processor, *fakeResolver) {
	r := &fakeResolver{overlay: solid{w: 20, h: 10, c: red}}
	return New(r, workers), r
}

func TestProcessSingleImage(t *testing.T) {
	p, _ := newTestProcessor(1)

	res, err := p.Process(context.Background(), model.BatchRequest{
		Uploads: []model.Upload{pngUpload(t, "cat.jpg")},
		Spec:    model.DefaultSpec(),
	})
	require.NoError(t, err)

	assert.Equal(t, model.KindImage, res.Kind)
	assert.Equal(t, "watermarked_cat.png", res.Filename)
	assert.Equal(t, 1, res.Processed)

	img, err := imaging.Decode(bytes.NewReader(res.Payload))
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())
	assert.Equal(t, 30, img.Bounds().Dy())
}

func TestProcessSingleInvalid(t *testing.T) {
	tests := []struct {
		name   string
		upload model.Upload
		is     error
	}{
		{"not an image", model.Upload{Filename: "notes.txt", ContentType: "text/plain", Data: []byte("hello")}, ErrNoValidInput},
		{"empty", model.Upload{Filename: "empty.png", ContentType: "image/png"}, ErrNoValidInput},
		{"undecodable", model.Upload{Filename: "broken.png", ContentType: "image/png", Data: []byte("not a png")}, ErrDecode},
		{"no filename", model.Upload{ContentType: "image/png", Data: []byte{1}}, ErrMissingFilename},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newTestProcessor(1)

			_, err := p.Process(context.Background(), model.BatchRequest{
				Uploads: []model.Upload{tt.upload},
				Spec:    model.DefaultSpec(),
			})
			assert.ErrorIs(t, err, tt.is)
		})
	}
}

func TestProcessSingleValidationErrorDetails(t *testing.T) {
	p, r := newTestProcessor(1)

	_, err := p.Process(context.Background(), model.BatchRequest{
		Uploads: []model.Upload{{Filename: "doc.pdf", ContentType: "application/pdf", Data: []byte("%PDF")}},
		Spec:    model.DefaultSpec(),
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "doc.pdf", verr.Filename)
	assert.Equal(t, int32(0), r.calls.Load(), "overlay must not be resolved for rejected input")
}

func TestProcessArchiveSkipsInvalidInOrder(t *testing.T) {
	p, _ := newTestProcessor(1)

	res, err := p.Process(context.Background(), model.BatchRequest{
		Uploads: []model.Upload{
			pngUpload(t, "a.jpg"),
			{Filename: "b.txt", ContentType: "text/plain", Data: []byte("text")},
			pngUpload(t, "c.png"),
		},
		Spec: model.DefaultSpec(),
	})
	require.NoError(t, err)

	assert.Equal(t, model.KindArchive, res.Kind)
	assert.Equal(t, ArchiveFilename, res.Filename)
	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, []string{"watermarked_a.png", "watermarked_c.png"}, names(readArchive(t, res.Payload)))
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, 1, res.Skipped[0].Index)
	assert.Equal(t, "b.txt", res.Skipped[0].Filename)
}

func TestProcessArchiveWithOneSurvivor(t *testing.T) {
	p, _ := newTestProcessor(1)

	res, err := p.Process(context.Background(), model.BatchRequest{
		Uploads: []model.Upload{
			{Filename: "empty.png", ContentType: "image/png"},
			pngUpload(t, "only.png"),
		},
		Spec: model.DefaultSpec(),
	})
	require.NoError(t, err)

	assert.Equal(t, model.KindArchive, res.Kind)
	assert.Equal(t, []string{"watermarked_only.png"}, names(readArchive(t, res.Payload)))
}

func TestProcessArchiveSkipsUndecodableAndUnnamed(t *testing.T) {
	p, _ := newTestProcessor(1)

	res, err := p.Process(context.Background(), model.BatchRequest{
		Uploads: []model.Upload{
			{Filename: "broken.png", ContentType: "image/png", Data: []byte("garbage")},
			pngUpload(t, "good.png"),
			{ContentType: "image/png", Data: pngBytes(t, 4, 4, blue)},
		},
		Spec: model.DefaultSpec(),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, []string{"watermarked_good.png"}, names(readArchive(t, res.Payload)))
	require.Len(t, res.Skipped, 2)
	assert.Equal(t, ErrDecode.Error(), res.Skipped[0].Reason)
	assert.Equal(t, ErrMissingFilename.Error(), res.Skipped[1].Reason)
}

func TestProcessArchiveKeepsDuplicateNames(t *testing.T) {
	p, _ := newTestProcessor(1)

	res, err := p.Process(context.Background(), model.BatchRequest{
		Uploads: []model.Upload{pngUpload(t, "same.jpg"), pngUpload(t, "same.png")},
		Spec:    model.DefaultSpec(),
	})
	require.NoError(t, err)

	files := readArchive(t, res.Payload)
	assert.Equal(t, []string{"watermarked_same.png", "watermarked_same.png"}, names(files))

	rc, err := files[1].Open()
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	_, err = imaging.Decode(bytes.NewReader(data))
	assert.NoError(t, err)
}

func TestProcessAllInvalid(t *testing.T) {
	p, r := newTestProcessor(1)

	_, err := p.Process(context.Background(), model.BatchRequest{
		Uploads: []model.Upload{
			{Filename: "a.txt", ContentType: "text/plain", Data: []byte("a")},
			{Filename: "b.png", ContentType: "image/png"},
		},
		Spec: model.DefaultSpec(),
	})
	assert.ErrorIs(t, err, ErrNoValidInput)
	assert.Equal(t, int32(0), r.calls.Load())

	_, err = p.Process(context.Background(), model.BatchRequest{
		Uploads: []model.Upload{
			{Filename: "a.png", ContentType: "image/png", Data: []byte("bad")},
			{Filename: "b.png", ContentType: "image/png", Data: []byte("bad")},
		},
		Spec: model.DefaultSpec(),
	})
	assert.ErrorIs(t, err, ErrNoValidInput)
}

func TestProcessEmptyRequest(t *testing.T) {
	p, _ := newTestProcessor(1)

	_, err := p.Process(context.Background(), model.BatchRequest{Spec: model.DefaultSpec()})
	assert.ErrorIs(t, err, ErrNoValidInput)
}

func TestProcessInvalidSpec(t *testing.T) {
	p, _ := newTestProcessor(1)

	_, err := p.Process(context.Background(), model.BatchRequest{
		Uploads: []model.Upload{pngUpload(t, "a.png")},
		Spec:    model.Spec{Scale: 0, Opacity: 1},
	})
	assert.ErrorIs(t, err, model.ErrInvalidSpec)
}

func TestProcessResolverError(t *testing.T) {
	errAsset := errors.New("asset missing")
	p := New(&fakeResolver{err: errAsset}, 1)

	_, err := p.Process(context.Background(), model.BatchRequest{
		Uploads: []model.Upload{pngUpload(t, "a.png"), pngUpload(t, "b.png")},
		Spec:    model.DefaultSpec(),
	})
	assert.ErrorIs(t, err, errAsset)
}

func TestProcessWorkersPreserveOrder(t *testing.T) {
	p, r := newTestProcessor(4)

	uploads := make([]model.Upload, 0, 9)
	want := make([]string, 0, 9)
	for i := 0; i < 9; i++ {
		if i == 4 {
			uploads = append(uploads, model.Upload{Filename: "skip.txt", ContentType: "text/plain", Data: []byte("x")})
			continue
		}
		uploads = append(uploads, pngUpload(t, fmt.Sprintf("img%d.jpg", i)))
		want = append(want, fmt.Sprintf("watermarked_img%d.png", i))
	}

	res, err := p.Process(context.Background(), model.BatchRequest{Uploads: uploads, Spec: model.DefaultSpec()})
	require.NoError(t, err)

	assert.Equal(t, want, names(readArchive(t, res.Payload)))
	assert.Equal(t, 8, res.Processed)
	assert.Equal(t, int32(1), r.calls.Load(), "overlay is resolved once per batch")
}

func TestProcessCanceledContext(t *testing.T) {
	p, _ := newTestProcessor(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Process(ctx, model.BatchRequest{
		Uploads: []model.Upload{pngUpload(t, "a.png"), pngUpload(t, "b.png")},
		Spec:    model.DefaultSpec(),
	})
	assert.ErrorIs(t, err, context.Canceled)
}
