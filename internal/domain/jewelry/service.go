package jewelry

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/jewelry/jewelry-api/internal/pkg/imagehost"
	"github.com/jewelry/jewelry-api/internal/pkg/logger"
)

// Uploader turns an image into a reference stored in image_url
type Uploader interface {
	Upload(ctx context.Context, asset *imagehost.Asset) (*imagehost.Result, error)
}

// Service handles catalog business logic
type Service struct {
	repo     Repository
	uploader Uploader
	feed     *Feed
	policy   *bluemonday.Policy
}

// NewService creates jewelry service
func NewService(repo Repository, uploader Uploader, feed *Feed) *Service {
	if feed == nil {
		feed = NewFeed(nil)
	}
	return &Service{
		repo:     repo,
		uploader: uploader,
		feed:     feed,
		policy:   bluemonday.StrictPolicy(),
	}
}

// Saved is a written record and, when a file was attached, how it was stored
type Saved struct {
	Jewelry *Jewelry
	Image   *imagehost.Result
}

// Create uploads the attached image, if any, then writes the record.
// A failed write does not remove the uploaded image.
func (s *Service) Create(ctx context.Context, req *CreateRequest, image *imagehost.Asset) (*Saved, error) {
	name := s.clean(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	category := Category(req.Category)
	if !category.IsValid() {
		return nil, ErrInvalidCategory
	}

	saved := &Saved{}
	imageURL := strings.TrimSpace(req.ImageURL)
	if image != nil {
		result, err := s.upload(ctx, image)
		if err != nil {
			return nil, err
		}
		saved.Image = result
		imageURL = result.URL
	}
	if imageURL == "" {
		return nil, ErrImageRequired
	}

	inStock := true
	if req.InStock != nil {
		inStock = *req.InStock
	}

	j := &Jewelry{
		ID:          uuid.New(),
		Name:        name,
		Description: s.clean(req.Description),
		Price:       *req.Price,
		ImageURL:    imageURL,
		Category:    category,
		InStock:     inStock,
	}

	if err := s.repo.Create(ctx, j); err != nil {
		s.logOrphan(ctx, saved.Image, err)
		return nil, err
	}

	s.feed.Publish(ctx, Change{Op: OpCreated, ID: j.ID, Categories: []Category{j.Category}})
	saved.Jewelry = j
	return saved, nil
}

// GetByID returns a single item
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Jewelry, error) {
	j, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if j == nil {
		return nil, ErrJewelryNotFound
	}
	return j, nil
}

// List returns items matching filter
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Jewelry, error) {
	if filter.Category != "" && !filter.Category.IsValid() {
		return nil, ErrInvalidCategory
	}
	return s.repo.List(ctx, filter.Normalize())
}

// CategoryPage returns the display config for slug and its items, newest
// first. Unknown slugs get the generic page and no items.
func (s *Service) CategoryPage(ctx context.Context, slug string) (CategoryInfo, []*Jewelry, error) {
	info, ok := CategoryBySlug(slug)
	if !ok {
		return info, []*Jewelry{}, nil
	}
	items, err := s.repo.List(ctx, ListFilter{Category: info.Category, Sort: SortNewest})
	if err != nil {
		return info, nil, err
	}
	return info, items, nil
}

// Update applies a partial update. A new image is uploaded before the write.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *UpdateRequest, image *imagehost.Asset) (*Saved, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	patch := Patch{
		Price:   req.Price,
		InStock: req.InStock,
	}
	if req.Name != nil {
		name := s.clean(*req.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		patch.Name = &name
	}
	if req.Description != nil {
		description := s.clean(*req.Description)
		patch.Description = &description
	}
	if req.Category != nil {
		category := Category(*req.Category)
		if !category.IsValid() {
			return nil, ErrInvalidCategory
		}
		patch.Category = &category
	}
	if req.ImageURL != nil {
		imageURL := strings.TrimSpace(*req.ImageURL)
		if imageURL == "" {
			return nil, ErrImageRequired
		}
		patch.ImageURL = &imageURL
	}

	if patch.IsEmpty() && image == nil {
		return nil, ErrNothingToUpdate
	}

	saved := &Saved{}
	if image != nil {
		result, err := s.upload(ctx, image)
		if err != nil {
			return nil, err
		}
		saved.Image = result
		patch.ImageURL = &result.URL
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		s.logOrphan(ctx, saved.Image, err)
		return nil, err
	}

	s.feed.Publish(ctx, Change{Op: OpUpdated, ID: id, Categories: touched(current.Category, updated.Category)})
	saved.Jewelry = updated
	return saved, nil
}

// SetStock flips the availability flag
func (s *Service) SetStock(ctx context.Context, id uuid.UUID, inStock bool) (*Jewelry, error) {
	updated, err := s.repo.Update(ctx, id, Patch{InStock: &inStock})
	if err != nil {
		return nil, err
	}
	s.feed.Publish(ctx, Change{Op: OpUpdated, ID: id, Categories: []Category{updated.Category}})
	return updated, nil
}

// Delete removes an item. Its hosted image is left in place.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	s.feed.Publish(ctx, Change{Op: OpDeleted, ID: id, Categories: []Category{deleted.Category}})
	return nil
}

// Subscribe streams the listing for filter: the current snapshot first,
// then a fresh one after every change touching it. The channel is closed
// when ctx ends.
func (s *Service) Subscribe(ctx context.Context, filter ListFilter) (<-chan []*Jewelry, error) {
	filter = filter.Normalize()
	if filter.Category != "" && !filter.Category.IsValid() {
		return nil, ErrInvalidCategory
	}

	changes := s.feed.Subscribe(ctx, filter.matchesAny)

	out := make(chan []*Jewelry)
	go func() {
		defer close(out)

		send := func() bool {
			items, err := s.repo.List(ctx, filter)
			if err != nil {
				if ctx.Err() == nil {
					logger.FromContext(ctx).Error().Err(err).Msg("Catalog snapshot failed")
				}
				// keep the subscription, the next change retries
				return ctx.Err() == nil
			}
			select {
			case out <- items:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !send() {
			return
		}
		for range changes {
			if !send() {
				return
			}
		}
	}()

	return out, nil
}

func (s *Service) upload(ctx context.Context, image *imagehost.Asset) (*imagehost.Result, error) {
	result, err := s.uploader.Upload(ctx, image)
	if err != nil {
		if errors.Is(err, imagehost.ErrAssetUnreadable) {
			return nil, fmt.Errorf("%w: %w", ErrImageUnreadable, err)
		}
		return nil, err
	}
	return result, nil
}

func (s *Service) logOrphan(ctx context.Context, image *imagehost.Result, err error) {
	if image == nil {
		return
	}
	ref := image.URL
	if image.Inline {
		ref = "inline"
	}
	logger.FromContext(ctx).Warn().
		Err(err).
		Str("provider", image.Provider).
		Str("image_url", ref).
		Msg("Catalog write failed after image upload, image left orphaned")
}

// clean strips markup and surrounding whitespace from free text. The
// policy escapes what it keeps, so entities are decoded back to the
// literal characters the admin typed.
func (s *Service) clean(text string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(text)))
}

func touched(before, after Category) []Category {
	if before == after {
		return []Category{after}
	}
	return []Category{before, after}
}
