package jewelry

import (
	"time"

	"github.com/google/uuid"
)

// CreateRequest for POST /jewelry. ImageURL may be omitted when an image
// file is attached to a multipart request.
type CreateRequest struct {
	Name        string   `json:"name" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=5000"`
	Price       *float64 `json:"price" validate:"required,gte=0.01,lte=9999999999.99"`
	Category    string   `json:"category" validate:"required,jewelry_category"`
	ImageURL    string   `json:"image_url" validate:"required_without=HasImage,image_ref"`
	InStock     *bool    `json:"in_stock"`

	HasImage bool `json:"-"`
}

// UpdateRequest for PATCH /jewelry/{id}. Absent fields are left unchanged.
type UpdateRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string  `json:"description" validate:"omitempty,max=5000"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0.01,lte=9999999999.99"`
	Category    *string  `json:"category" validate:"omitempty,jewelry_category"`
	ImageURL    *string  `json:"image_url" validate:"omitempty,image_ref"`
	InStock     *bool    `json:"in_stock"`
}

// StockRequest for PATCH /jewelry/{id}/stock
type StockRequest struct {
	InStock *bool `json:"in_stock" validate:"required"`
}

// JewelryResponse represents a catalog item in API responses
type JewelryResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	ImageURL    string    `json:"image_url"`
	Category    Category  `json:"category"`
	InStock     bool      `json:"in_stock"`
	CreatedAt   string    `json:"created_at"`
	UpdatedAt   string    `json:"updated_at"`
}

// ImageInfo reports how an attached image was stored
type ImageInfo struct {
	Provider  string `json:"provider"`
	Inline    bool   `json:"inline"`
	Processed bool   `json:"processed"`
}

// SaveResponse is returned by create and update
type SaveResponse struct {
	JewelryResponse
	Image *ImageInfo `json:"image,omitempty"`
}

// CategoryPageResponse is a category page with its items
type CategoryPageResponse struct {
	Category CategoryInfo      `json:"category"`
	Items    []JewelryResponse `json:"items"`
}

// NewJewelryResponse maps an entity to its API shape
func NewJewelryResponse(j *Jewelry) JewelryResponse {
	return JewelryResponse{
		ID:          j.ID,
		Name:        j.Name,
		Description: j.Description,
		Price:       j.Price,
		ImageURL:    j.ImageURL,
		Category:    j.Category,
		InStock:     j.InStock,
		CreatedAt:   j.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   j.UpdatedAt.Format(time.RFC3339),
	}
}

// NewJewelryList maps a slice; never returns nil so it encodes as []
func NewJewelryList(items []*Jewelry) []JewelryResponse {
	out := make([]JewelryResponse, 0, len(items))
	for _, j := range items {
		out = append(out, NewJewelryResponse(j))
	}
	return out
}
