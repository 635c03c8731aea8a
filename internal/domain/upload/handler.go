package upload

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jewelry/jewelry-api/internal/pkg/errorhandler"
	"github.com/jewelry/jewelry-api/internal/pkg/imagehost"
	"github.com/jewelry/jewelry-api/internal/pkg/response"
	"github.com/jewelry/jewelry-api/internal/pkg/storage"
)

// Pipeline is the image ingestion pipeline
type Pipeline interface {
	Upload(ctx context.Context, asset *imagehost.Asset) (*imagehost.Result, error)
	Providers() []string
}

// Handler handles image upload HTTP requests
type Handler struct {
	pipeline       Pipeline
	maxUploadBytes int64
}

// NewHandler creates upload handler
func NewHandler(pipeline Pipeline, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &Handler{pipeline: pipeline, maxUploadBytes: maxUploadBytes}
}

// Upload handles POST /images
// Multipart form: "image" (or "file")
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+1<<20)

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		response.BadRequest(w, "File too large or invalid form")
		return
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		file, header, err = r.FormFile("file")
	}
	if err != nil {
		response.BadRequest(w, ErrNoFile.Error())
		return
	}
	defer file.Close()

	data, contentType, err := storage.ValidateImage(file, h.maxUploadBytes)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrFileTooLarge):
			response.PayloadTooLarge(w, "Image exceeds maximum size")
		case errors.Is(err, storage.ErrInvalidMimeType):
			response.UnsupportedMediaType(w, "Image type not allowed")
		case errors.Is(err, storage.ErrEmptyFile):
			response.BadRequest(w, "Image file is empty")
		default:
			response.BadRequest(w, "Invalid image file")
		}
		return
	}

	result, err := h.pipeline.Upload(r.Context(), imagehost.NewAsset(header.Filename, contentType, data))
	if err != nil {
		errorhandler.HandleInternal(r.Context(), w, err)
		return
	}

	response.Created(w, NewImageResponse(result))
}

// Providers handles GET /images/providers
func (h *Handler) Providers(w http.ResponseWriter, r *http.Request) {
	response.OK(w, ProvidersResponse{Providers: h.pipeline.Providers()})
}

// Routes returns upload router; every route requires the admin chain
func (h *Handler) Routes(adminMiddleware ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(adminMiddleware...)

	r.Post("/", h.Upload)
	r.Get("/providers", h.Providers)

	return r
}
