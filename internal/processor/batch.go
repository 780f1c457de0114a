package processor

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/klauspost/compress/zip"
	"github.com/wb-go/wbf/zlog"
	"golang.org/x/sync/errgroup"

	"github.com/aliskhannn/watermarker/internal/model"
)

// ArchiveFilename is the download name of a multi-image result.
const ArchiveFilename = "watermarked_images.zip"

// overlayResolver defines the interface for looking up the overlay of a spec.
type overlayResolver interface {
	Overlay(ctx context.Context, spec model.Spec) (Overlay, error)
}

// Processor runs watermark batches: one upload yields one PNG,
// several uploads yield one zip archive.
type Processor struct {
	resolver overlayResolver
	workers  int
}

// New creates a Processor. workers <= 1 processes uploads one at a time.
func New(r overlayResolver, workers int) *Processor {
	if workers < 1 {
		workers = 1
	}
	return &Processor{resolver: r, workers: workers}
}

// entry is the outcome of one upload in archive mode.
type entry struct {
	result model.CompositedResult
	err    error
}

// Process watermarks every upload of req.
//
// The output mode follows the number of submitted uploads, not the number
// that survive validation: two uploads with one bad file still produce an archive.
func (p *Processor) Process(ctx context.Context, req model.BatchRequest) (model.BatchResult, error) {
	if len(req.Uploads) == 0 {
		return model.BatchResult{}, ErrNoValidInput
	}
	if err := req.Spec.Validate(); err != nil {
		return model.BatchResult{}, err
	}

	if len(req.Uploads) == 1 {
		return p.single(ctx, req.Uploads[0], req.Spec)
	}

	return p.archive(ctx, req.Uploads, req.Spec)
}

// single processes a one-upload request. Any failure aborts it.
func (p *Processor) single(ctx context.Context, u model.Upload, spec model.Spec) (model.BatchResult, error) {
	if err := validate(u); err != nil {
		return model.BatchResult{}, fmt.Errorf("%w: %w", ErrNoValidInput, err)
	}

	overlay, err := p.resolver.Overlay(ctx, spec)
	if err != nil {
		return model.BatchResult{}, err
	}

	res, err := watermarkUpload(u, overlay, spec)
	if err != nil {
		return model.BatchResult{}, err
	}

	return model.BatchResult{
		Kind:      model.KindImage,
		Filename:  res.Filename,
		Payload:   res.Data,
		Processed: 1,
	}, nil
}

// archive processes a multi-upload request, skipping uploads that fail.
func (p *Processor) archive(ctx context.Context, uploads []model.Upload, spec model.Spec) (model.BatchResult, error) {
	entries := make([]entry, len(uploads))

	valid := 0
	for i, u := range uploads {
		if err := validate(u); err != nil {
			entries[i].err = err
			continue
		}
		valid++
	}
	if valid == 0 {
		return model.BatchResult{Skipped: skips(uploads, entries)}, ErrNoValidInput
	}

	overlay, err := p.resolver.Overlay(ctx, spec)
	if err != nil {
		return model.BatchResult{}, err
	}

	if err := p.run(ctx, uploads, entries, overlay, spec); err != nil {
		return model.BatchResult{}, err
	}

	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	processed := 0
	for i := range entries {
		if entries[i].err != nil {
			zlog.Logger.Warn().
				Err(entries[i].err).
				Int("index", i).
				Str("filename", uploads[i].Filename).
				Msg("skipping upload")
			continue
		}

		w, err := zw.Create(entries[i].result.Filename)
		if err != nil {
			return model.BatchResult{}, fmt.Errorf("failed to create archive entry: %w", err)
		}
		if _, err := w.Write(entries[i].result.Data); err != nil {
			return model.BatchResult{}, fmt.Errorf("failed to write archive entry: %w", err)
		}
		processed++
	}

	if processed == 0 {
		return model.BatchResult{Skipped: skips(uploads, entries)}, ErrNoValidInput
	}

	if err := zw.Close(); err != nil {
		return model.BatchResult{}, fmt.Errorf("failed to finalize archive: %w", err)
	}

	return model.BatchResult{
		Kind:      model.KindArchive,
		Filename:  ArchiveFilename,
		Payload:   buf.Bytes(),
		Processed: processed,
		Skipped:   skips(uploads, entries),
	}, nil
}

// run fills entries for every upload that passed validation. Results are stored
// by submission index so the archive keeps the request order.
func (p *Processor) run(ctx context.Context, uploads []model.Upload, entries []entry, overlay Overlay, spec model.Spec) error {
	if p.workers == 1 {
		for i, u := range uploads {
			if entries[i].err != nil {
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			entries[i].result, entries[i].err = watermarkUpload(u, overlay, spec)
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i, u := range uploads {
		if entries[i].err != nil {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			entries[i].result, entries[i].err = watermarkUpload(u, overlay, spec)
			return nil
		})
	}

	return g.Wait()
}

func validate(u model.Upload) error {
	if len(u.Data) == 0 {
		return &ValidationError{Filename: u.Filename, Reason: "file is empty"}
	}
	if !u.IsImage() {
		return &ValidationError{Filename: u.Filename, Reason: "not an image"}
	}
	return nil
}

// watermarkUpload decodes one upload and watermarks it.
func watermarkUpload(u model.Upload, overlay Overlay, spec model.Spec) (model.CompositedResult, error) {
	if _, err := OutputFilename(u.Filename); err != nil {
		return model.CompositedResult{}, err
	}

	img, err := imaging.Decode(bytes.NewReader(u.Data))
	if err != nil {
		return model.CompositedResult{}, fmt.Errorf("%w %q: %w", ErrDecode, u.Filename, err)
	}

	return Watermark(u.Filename, img, overlay, spec)
}

func skips(uploads []model.Upload, entries []entry) []model.Skip {
	var out []model.Skip
	for i := range entries {
		if entries[i].err == nil {
			continue
		}
		out = append(out, model.Skip{
			Index:    i,
			Filename: uploads[i].Filename,
			Reason:   reason(entries[i].err),
		})
	}
	return out
}

func reason(err error) string {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Reason
	case errors.Is(err, ErrMissingFilename):
		return ErrMissingFilename.Error()
	case errors.Is(err, ErrDecode):
		return ErrDecode.Error()
	default:
		return err.Error()
	}
}
