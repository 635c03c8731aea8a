package jewelry

import (
	"context"
	"errors"
	"math"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jewelry/jewelry-api/internal/pkg/errorhandler"
	"github.com/jewelry/jewelry-api/internal/pkg/imagehost"
	"github.com/jewelry/jewelry-api/internal/pkg/realtime"
	"github.com/jewelry/jewelry-api/internal/pkg/response"
	"github.com/jewelry/jewelry-api/internal/pkg/storage"
	"github.com/jewelry/jewelry-api/internal/pkg/validator"
)

// Handler handles catalog HTTP requests
type Handler struct {
	service        *Service
	streamer       *realtime.Streamer
	maxUploadBytes int64
}

// NewHandler creates jewelry handler
func NewHandler(service *Service, streamer *realtime.Streamer, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &Handler{service: service, streamer: streamer, maxUploadBytes: maxUploadBytes}
}

// List handles GET /jewelry
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context(), filterFromQuery(r))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	response.List(w, NewJewelryList(items), len(items))
}

// GetByID handles GET /jewelry/{id}
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	j, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	response.OK(w, NewJewelryResponse(j))
}

// Stream handles GET /jewelry/stream (websocket)
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	filter := filterFromQuery(r)
	if filter.Category != "" && !filter.Category.IsValid() {
		response.BadRequest(w, "Invalid category")
		return
	}

	err := realtime.Serve(h.streamer, w, r, func(ctx context.Context) <-chan []JewelryResponse {
		out := make(chan []JewelryResponse)
		snapshots, err := h.service.Subscribe(ctx, filter)
		if err != nil {
			close(out)
			return out
		}
		go func() {
			defer close(out)
			for items := range snapshots {
				select {
				case out <- NewJewelryList(items):
				case <-ctx.Done():
					return
				}
			}
		}()
		return out
	})
	if err != nil {
		log.Debug().Err(err).Msg("catalog stream ended")
	}
}

// Categories handles GET /categories
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	pages := CategoryPages()
	response.List(w, pages, len(pages))
}

// CategoryPage handles GET /categories/{slug}
func (h *Handler) CategoryPage(w http.ResponseWriter, r *http.Request) {
	info, items, err := h.service.CategoryPage(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	response.OK(w, CategoryPageResponse{Category: info, Items: NewJewelryList(items)})
}

// Create handles POST /jewelry (JSON or multipart with an "image" file)
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	var image *imagehost.Asset

	if isMultipart(r) {
		form, asset, ok := h.readMultipart(w, r)
		if !ok {
			return
		}
		if !bindCreateForm(w, form, &req) {
			return
		}
		image = asset
		req.HasImage = asset != nil
	} else if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		errorhandler.LogValidationError(r.Context(), errs)
		response.ValidationError(w, errs)
		return
	}

	saved, err := h.service.Create(r.Context(), &req, image)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	response.Created(w, newSaveResponse(saved))
}

// Update handles PATCH /jewelry/{id} (JSON or multipart with an "image" file)
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req UpdateRequest
	var image *imagehost.Asset

	if isMultipart(r) {
		form, asset, ok := h.readMultipart(w, r)
		if !ok {
			return
		}
		if !bindUpdateForm(w, form, &req) {
			return
		}
		image = asset
	} else if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		errorhandler.LogValidationError(r.Context(), errs)
		response.ValidationError(w, errs)
		return
	}

	saved, err := h.service.Update(r.Context(), id, &req, image)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	response.OK(w, newSaveResponse(saved))
}

// SetStock handles PATCH /jewelry/{id}/stock
func (h *Handler) SetStock(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req StockRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	j, err := h.service.SetStock(r.Context(), id, *req.InStock)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	response.OK(w, NewJewelryResponse(j))
}

// Delete handles DELETE /jewelry/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.handleError(w, r, err)
		return
	}
	response.NoContent(w)
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrJewelryNotFound):
		response.NotFound(w, "Jewelry not found")
	case errors.Is(err, ErrInvalidCategory):
		response.ValidationError(w, map[string]string{"category": "Invalid category. Must be: " + strings.Join(validator.JewelryCategories, ", ")})
	case errors.Is(err, ErrNameRequired):
		response.ValidationError(w, map[string]string{"name": "This field is required"})
	case errors.Is(err, ErrImageRequired):
		response.ValidationError(w, map[string]string{"image_url": "This field is required"})
	case errors.Is(err, ErrNothingToUpdate):
		response.BadRequest(w, "No fields to update")
	case errors.Is(err, ErrImageUnreadable):
		response.BadRequest(w, "Image could not be read")
	default:
		errorhandler.HandleInternal(r.Context(), w, err)
	}
}

// readMultipart parses the form and reads the optional "image" file.
func (h *Handler) readMultipart(w http.ResponseWriter, r *http.Request) (map[string]string, *imagehost.Asset, bool) {
	// leave room for the text fields next to the file
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+1<<20)

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		response.BadRequest(w, "File too large or invalid form")
		return nil, nil, false
	}

	form := make(map[string]string)
	for key, values := range r.MultipartForm.Value {
		if len(values) > 0 {
			form[key] = values[0]
		}
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return form, nil, true
	}
	if err != nil {
		response.BadRequest(w, "Invalid image file")
		return nil, nil, false
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
		return nil, nil, false
	}

	return form, imagehost.NewAsset(header.Filename, contentType, data), true
}

func bindCreateForm(w http.ResponseWriter, form map[string]string, req *CreateRequest) bool {
	req.Name = form["name"]
	req.Description = form["description"]
	req.Category = form["category"]
	req.ImageURL = form["image_url"]

	price, inStock, ok := parseFormValues(w, form)
	req.Price = price
	req.InStock = inStock
	return ok
}

func bindUpdateForm(w http.ResponseWriter, form map[string]string, req *UpdateRequest) bool {
	str := func(key string) *string {
		if v, ok := form[key]; ok {
			return &v
		}
		return nil
	}
	req.Name = str("name")
	req.Description = str("description")
	req.Category = str("category")
	req.ImageURL = str("image_url")

	price, inStock, ok := parseFormValues(w, form)
	req.Price = price
	req.InStock = inStock
	return ok
}

// parseFormValues converts the non-string form fields. A comma is
// accepted as the decimal separator.
func parseFormValues(w http.ResponseWriter, form map[string]string) (*float64, *bool, bool) {
	var price *float64
	var inStock *bool

	if v := form["price"]; v != "" {
		p, err := strconv.ParseFloat(strings.Replace(v, ",", ".", 1), 64)
		if err != nil || math.IsNaN(p) || math.IsInf(p, 0) {
			response.ValidationError(w, map[string]string{"price": "Must be a number"})
			return nil, nil, false
		}
		price = &p
	}
	if v := form["in_stock"]; v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			response.ValidationError(w, map[string]string{"in_stock": "Must be true or false"})
			return nil, nil, false
		}
		inStock = &b
	}
	return price, inStock, true
}

func newSaveResponse(saved *Saved) SaveResponse {
	resp := SaveResponse{JewelryResponse: NewJewelryResponse(saved.Jewelry)}
	if saved.Image != nil {
		resp.Image = &ImageInfo{
			Provider:  saved.Image.Provider,
			Inline:    saved.Image.Inline,
			Processed: saved.Image.Processed,
		}
	}
	return resp
}

func filterFromQuery(r *http.Request) ListFilter {
	q := r.URL.Query()
	return ListFilter{
		Category: Category(q.Get("category")),
		Search:   q.Get("search"),
		Sort:     q.Get("sort"),
	}
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid jewelry ID")
		return uuid.Nil, false
	}
	return id, true
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}
