package processor

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"os"
	"sync/atomic"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/watermarker/internal/model"
)

func TestMain(m *testing.M) {
	zlog.Init()
	os.Exit(m.Run())
}

var (
	blue = color.NRGBA{0, 0, 255, 255}
	red  = color.NRGBA{255, 0, 0, 255}
)

// solid is an opaque single-color overlay.
type solid struct {
	w, h int
	c    color.NRGBA
}

func (s solid) Size() (int, int) { return s.w, s.h }

func (s solid) Render(w, h int) image.Image {
	return imaging.New(w, h, s.c)
}

type fakeResolver struct {
	overlay Overlay
	err     error
	calls   atomic.Int32
}

func (f *fakeResolver) Overlay(context.Context, model.Spec) (Overlay, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.overlay, nil
}

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, imaging.New(w, h, c), imaging.PNG); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func pngUpload(t *testing.T, name string) model.Upload {
	return model.Upload{Filename: name, ContentType: "image/png", Data: pngBytes(t, 40, 30, blue)}
}
