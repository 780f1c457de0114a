package watermark

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/watermarker/internal/artifact"
	"github.com/aliskhannn/watermarker/internal/model"
	"github.com/aliskhannn/watermarker/internal/processor"
)

func TestMain(m *testing.M) {
	zlog.Init()
	os.Exit(m.Run())
}

type fakeProcessor struct {
	result model.BatchResult
	err    error
}

func (f fakeProcessor) Process(context.Context, model.BatchRequest) (model.BatchResult, error) {
	return f.result, f.err
}

type fakePublisher struct {
	events []model.Artifact
	err    error
}

func (f *fakePublisher) Produce(_ context.Context, a model.Artifact) error {
	f.events = append(f.events, a)
	return f.err
}

func TestWatermarkStoresResult(t *testing.T) {
	ctx := context.Background()
	store := artifact.NewMemory(0)
	pub := &fakePublisher{}

	svc := NewService(fakeProcessor{result: model.BatchResult{
		Kind:      model.KindArchive,
		Filename:  processor.ArchiveFilename,
		Payload:   []byte("zip"),
		Processed: 2,
		Skipped:   []model.Skip{{Index: 1, Filename: "b.txt", Reason: "not an image"}},
	}}, store, pub)

	res, err := svc.Watermark(ctx, model.BatchRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Processed)
	assert.Len(t, res.Skipped, 1)

	got, err := svc.Retrieve(ctx, res.Artifact.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("zip"), got.Payload)
	assert.Equal(t, model.KindArchive, got.Kind)
	assert.Equal(t, processor.ArchiveFilename, got.Filename)

	require.Len(t, pub.events, 1)
	assert.Equal(t, res.Artifact.ID, pub.events[0].ID)
}

func TestWatermarkFailureStoresNothing(t *testing.T) {
	store := artifact.NewMemory(0)
	svc := NewService(fakeProcessor{err: processor.ErrNoValidInput}, store, nil)

	_, err := svc.Watermark(context.Background(), model.BatchRequest{})
	assert.ErrorIs(t, err, processor.ErrNoValidInput)
	assert.Equal(t, 0, store.Len())
}

func TestWatermarkIgnoresPublishErrors(t *testing.T) {
	svc := NewService(fakeProcessor{result: model.BatchResult{Kind: model.KindImage, Filename: "a.png", Payload: []byte("a")}},
		artifact.NewMemory(0), &fakePublisher{err: errors.New("broker down")})

	res, err := svc.Watermark(context.Background(), model.BatchRequest{})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Artifact.ID)
}

func TestRetrieveUnknown(t *testing.T) {
	svc := NewService(fakeProcessor{}, artifact.NewMemory(0), nil)

	_, err := svc.Retrieve(context.Background(), "nope")
	assert.ErrorIs(t, err, artifact.ErrNotFound)
}
