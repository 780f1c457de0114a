package watermark

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/watermarker/internal/api/respond"
	"github.com/aliskhannn/watermarker/internal/artifact"
	"github.com/aliskhannn/watermarker/internal/assets"
	"github.com/aliskhannn/watermarker/internal/model"
	"github.com/aliskhannn/watermarker/internal/processor"
	watermarksvc "github.com/aliskhannn/watermarker/internal/service/watermark"
)

// Multipart field names accepted for uploaded files.
const (
	fieldImages = "images"
	fieldLegacy = "imageFile"
)

// service defines the interface for watermark operations.
type service interface {
	Watermark(ctx context.Context, req model.BatchRequest) (watermarksvc.Result, error)
	Retrieve(ctx context.Context, id string) (model.Artifact, error)
}

// Handler provides HTTP handlers for watermark endpoints.
// It depends on a service interface to perform the business logic.
type Handler struct {
	service   service
	defaults  model.Spec
	maxMemory int64
	publicURL string
}

// NewHandler creates a new Handler. defaults fills in parameters a request leaves out.
func NewHandler(s service, defaults model.Spec, maxMemory int64, publicURL string) *Handler {
	if maxMemory <= 0 {
		maxMemory = 32 << 20
	}
	return &Handler{
		service:   s,
		defaults:  defaults.Clamp(),
		maxMemory: maxMemory,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// UploadResponse is returned after a successful upload.
type UploadResponse struct {
	ID          string       `json:"id"`
	Filename    string       `json:"filename"`
	Kind        model.Kind   `json:"kind"`
	DownloadURL string       `json:"download_url"`
	Processed   int          `json:"processed"`
	Skipped     []model.Skip `json:"skipped,omitempty"`
}

// Upload handles the HTTP request for watermarking one or more images.
// It reads the multipart form, runs the batch via the service and
// responds with the id to download the result with.
func (h *Handler) Upload(c *ginext.Context) {
	if err := c.Request.ParseMultipartForm(h.maxMemory); err != nil {
		zlog.Logger.Err(err).Msg("failed to parse multipart form")
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("parse multipart form failed: %v", err))
		return
	}

	var headers []*multipart.FileHeader
	if form := c.Request.MultipartForm; form != nil {
		headers = append(headers, form.File[fieldImages]...)
		headers = append(headers, form.File[fieldLegacy]...)
	}
	if len(headers) == 0 {
		zlog.Logger.Warn().Msg("no files uploaded")
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("select at least one image file"))
		return
	}

	uploads := make([]model.Upload, 0, len(headers))
	for _, fh := range headers {
		u, err := readUpload(fh)
		if err != nil {
			zlog.Logger.Err(err).Str("filename", fh.Filename).Msg("failed to read upload")
			respond.Fail(c, http.StatusBadRequest, fmt.Errorf("failed to read %q", fh.Filename))
			return
		}
		uploads = append(uploads, u)
	}

	req := model.BatchRequest{
		Uploads: uploads,
		Spec:    h.parseSpec(c),
	}

	res, err := h.service.Watermark(c.Request.Context(), req)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			zlog.Logger.Err(err).Msg("failed to watermark images")
		} else {
			zlog.Logger.Warn().Err(err).Msg("watermark request rejected")
		}
		respond.Fail(c, status, err)
		return
	}

	respond.Created(c, UploadResponse{
		ID:          res.Artifact.ID,
		Filename:    res.Artifact.Filename,
		Kind:        res.Artifact.Kind,
		DownloadURL: h.downloadURL(res.Artifact),
		Processed:   res.Processed,
		Skipped:     res.Skipped,
	})
}

// Download serves the stored payload for a given id.
func (h *Handler) Download(c *ginext.Context) {
	a, ok := h.lookup(c)
	if !ok {
		return
	}

	etag := strconv.Quote(a.Digest)
	c.Header("ETag", etag)
	c.Header("Cache-Control", "private, no-cache")

	if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
		c.Status(http.StatusNotModified)
		return
	}

	filename := a.Filename
	if name := c.Param("filename"); name != "" {
		filename = name
	}

	respond.Attachment(c, http.StatusOK, a.Kind.ContentType(), filename, a.Payload)
}

// Meta returns metadata about a stored result without its payload.
func (h *Handler) Meta(c *ginext.Context) {
	a, ok := h.lookup(c)
	if !ok {
		return
	}

	respond.OK(c, a)
}

func (h *Handler) lookup(c *ginext.Context) (model.Artifact, bool) {
	id := c.Param("id")
	if id == "" {
		zlog.Logger.Warn().Msg("missing id")
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("missing id"))
		return model.Artifact{}, false
	}

	a, err := h.service.Retrieve(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, artifact.ErrNotFound) {
			zlog.Logger.Warn().Str("id", id).Msg("artifact not found")
			respond.Fail(c, http.StatusNotFound, fmt.Errorf("artifact not found"))
			return model.Artifact{}, false
		}

		zlog.Logger.Err(err).Str("id", id).Msg("failed to get artifact")
		respond.Fail(c, http.StatusInternalServerError, fmt.Errorf("failed to get artifact: %v", err))
		return model.Artifact{}, false
	}

	return a, true
}

// parseSpec reads watermark parameters from the form, falling back to the
// handler defaults, and clamps them into range.
func (h *Handler) parseSpec(c *ginext.Context) model.Spec {
	spec := h.defaults

	if v := c.PostForm("position"); v != "" {
		spec.Position = model.ParsePosition(v)
	}
	if v, ok := formFloat(c, "scale"); ok {
		spec.Scale = v
	}
	if v, ok := formFloat(c, "opacity"); ok {
		spec.Opacity = v
	}
	if v := c.PostForm("color"); v != "" {
		spec.Variant = model.ParseVariant(v)
	}
	if v := strings.TrimSpace(c.PostForm("text")); v != "" {
		spec.Text = v
	}

	return spec.Clamp()
}

func (h *Handler) downloadURL(a model.Artifact) string {
	return fmt.Sprintf("%s/api/download/%s/%s", h.publicURL, a.ID, url.PathEscape(a.Filename))
}

func formFloat(c *ginext.Context, key string) (float64, bool) {
	raw := strings.TrimSpace(c.PostForm(key))
	if raw == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		zlog.Logger.Warn().Str(key, raw).Msg("ignoring malformed parameter")
		return 0, false
	}

	return v, true
}

func readUpload(fh *multipart.FileHeader) (model.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return model.Upload{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return model.Upload{}, err
	}

	return model.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// statusFor maps a service error to an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, processor.ErrNoValidInput),
		errors.Is(err, model.ErrInvalidSpec),
		errors.Is(err, assets.ErrInvalidText):
		return http.StatusBadRequest
	case errors.Is(err, processor.ErrDecode),
		errors.Is(err, processor.ErrMissingFilename):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled):
		return 499
	default:
		return http.StatusInternalServerError
	}
}
