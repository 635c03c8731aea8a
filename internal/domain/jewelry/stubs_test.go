package jewelry

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jewelry/jewelry-api/internal/pkg/imagehost"
)

type repoStub struct {
	mu        sync.Mutex
	items     map[uuid.UUID]*Jewelry
	createErr error
	updateErr error
	listCalls int
	clock     time.Time
}

func newRepoStub(items ...*Jewelry) *repoStub {
	r := &repoStub{items: map[uuid.UUID]*Jewelry{}, clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	for _, j := range items {
		r.items[j.ID] = j
	}
	return r
}

func (r *repoStub) tick() time.Time {
	r.clock = r.clock.Add(time.Minute)
	return r.clock
}

func (r *repoStub) Create(ctx context.Context, j *Jewelry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	j.CreatedAt = r.tick()
	j.UpdatedAt = j.CreatedAt
	copied := *j
	r.items[j.ID] = &copied
	return nil
}

func (r *repoStub) GetByID(ctx context.Context, id uuid.UUID) (*Jewelry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	copied := *j
	return &copied, nil
}

func (r *repoStub) Update(ctx context.Context, id uuid.UUID, patch Patch) (*Jewelry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	if patch.IsEmpty() {
		return nil, ErrNothingToUpdate
	}
	j, ok := r.items[id]
	if !ok {
		return nil, ErrJewelryNotFound
	}
	if patch.Name != nil {
		j.Name = *patch.Name
	}
	if patch.Description != nil {
		j.Description = *patch.Description
	}
	if patch.Price != nil {
		j.Price = *patch.Price
	}
	if patch.Category != nil {
		j.Category = *patch.Category
	}
	if patch.ImageURL != nil {
		j.ImageURL = *patch.ImageURL
	}
	if patch.InStock != nil {
		j.InStock = *patch.InStock
	}
	j.UpdatedAt = r.tick()
	copied := *j
	return &copied, nil
}

func (r *repoStub) Delete(ctx context.Context, id uuid.UUID) (*Jewelry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.items[id]
	if !ok {
		return nil, ErrJewelryNotFound
	}
	delete(r.items, id)
	return j, nil
}

func (r *repoStub) List(ctx context.Context, filter ListFilter) ([]*Jewelry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++

	filter = filter.Normalize()
	search := strings.ToLower(filter.Search)
	out := []*Jewelry{}
	for _, j := range r.items {
		if filter.Category != "" && j.Category != filter.Category {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(j.Name), search) &&
			!strings.Contains(strings.ToLower(j.Description), search) {
			continue
		}
		copied := *j
		out = append(out, &copied)
	}

	sort.Slice(out, func(a, b int) bool {
		switch filter.Sort {
		case SortPriceAsc:
			return out[a].Price < out[b].Price
		case SortPriceDesc:
			return out[a].Price > out[b].Price
		case SortName:
			return strings.ToLower(out[a].Name) < strings.ToLower(out[b].Name)
		default:
			return out[a].CreatedAt.After(out[b].CreatedAt)
		}
	})
	return out, nil
}

type uploaderStub struct {
	mu     sync.Mutex
	calls  int
	result *imagehost.Result
	err    error
}

func (u *uploaderStub) Upload(ctx context.Context, asset *imagehost.Asset) (*imagehost.Result, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++
	if u.err != nil {
		return nil, u.err
	}
	if _, err := asset.Bytes(); err != nil {
		return nil, err
	}
	if u.result != nil {
		return u.result, nil
	}
	return &imagehost.Result{URL: "https://img.example/" + asset.Filename, Provider: "freeimage", Processed: true}, nil
}

var errDatabaseDown = errors.New("database down")

func ptr[T any](v T) *T { return &v }
