package watermark

import (
	"context"
	"fmt"

	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/watermarker/internal/model"
)

// batchProcessor defines the interface for watermarking a batch of uploads.
type batchProcessor interface {
	Process(ctx context.Context, req model.BatchRequest) (model.BatchResult, error)
}

// artifactStore defines the interface for keeping results until they are downloaded.
type artifactStore interface {
	Put(ctx context.Context, payload []byte, kind model.Kind, filename string) (model.Artifact, error)
	Get(ctx context.Context, id string) (model.Artifact, error)
}

// publisher defines the interface for announcing stored artifacts (e.g., Kafka).
type publisher interface {
	Produce(ctx context.Context, a model.Artifact) error
}

// Service provides business logic for watermark requests.
// It runs the batch, stores the result and hands back its id.
type Service struct {
	processor batchProcessor
	store     artifactStore
	publisher publisher
}

// NewService creates a new Service. pub may be nil to disable events.
func NewService(p batchProcessor, s artifactStore, pub publisher) *Service {
	return &Service{processor: p, store: s, publisher: pub}
}

// Result is what a caller gets back after a successful watermark request.
type Result struct {
	Artifact  model.Artifact
	Processed int
	Skipped   []model.Skip
}

// Watermark processes the uploads of req and stores the output.
// Nothing is stored when processing fails.
func (s *Service) Watermark(ctx context.Context, req model.BatchRequest) (Result, error) {
	res, err := s.processor.Process(ctx, req)
	if err != nil {
		return Result{Skipped: res.Skipped}, fmt.Errorf("watermark: %w", err)
	}

	a, err := s.store.Put(ctx, res.Payload, res.Kind, res.Filename)
	if err != nil {
		return Result{}, fmt.Errorf("watermark: failed to store result: %w", err)
	}

	zlog.Logger.Info().
		Str("id", a.ID).
		Str("kind", string(a.Kind)).
		Str("filename", a.Filename).
		Int("size", a.Size).
		Int("processed", res.Processed).
		Int("skipped", len(res.Skipped)).
		Msg("artifact stored")

	if s.publisher != nil {
		if err := s.publisher.Produce(ctx, a); err != nil {
			zlog.Logger.Err(err).Str("id", a.ID).Msg("failed to publish artifact event")
		}
	}

	return Result{
		Artifact:  a,
		Processed: res.Processed,
		Skipped:   res.Skipped,
	}, nil
}

// Retrieve returns the stored artifact for id.
func (s *Service) Retrieve(ctx context.Context, id string) (model.Artifact, error) {
	a, err := s.store.Get(ctx, id)
	if err != nil {
		return model.Artifact{}, fmt.Errorf("retrieve: %w", err)
	}

	return a, nil
}
