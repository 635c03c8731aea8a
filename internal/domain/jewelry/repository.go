package jewelry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Patch is a partial update; nil fields are left unchanged
type Patch struct {
	Name        *string
	Description *string
	Price       *float64
	Category    *Category
	ImageURL    *string
	InStock     *bool
}

// IsEmpty reports whether the patch changes nothing
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil &&
		p.Category == nil && p.ImageURL == nil && p.InStock == nil
}

// Repository defines jewelry data access interface
type Repository interface {
	Create(ctx context.Context, j *Jewelry) error
	GetByID(ctx context.Context, id uuid.UUID) (*Jewelry, error)
	Update(ctx context.Context, id uuid.UUID, patch Patch) (*Jewelry, error)
	Delete(ctx context.Context, id uuid.UUID) (*Jewelry, error)
	List(ctx context.Context, filter ListFilter) ([]*Jewelry, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates new jewelry repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const jewelryColumns = `id, name, description, price, image_url, category, in_stock, created_at, updated_at`

func (r *repository) Create(ctx context.Context, j *Jewelry) error {
	query := `
		INSERT INTO jewelry (id, name, description, price, image_url, category, in_stock)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		j.ID, j.Name, j.Description, j.Price, j.ImageURL, j.Category, j.InStock,
	).Scan(&j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return fmt.Errorf("jewelry repository create: %w", err)
	}
	return nil
}

// GetByID returns nil, nil when the item does not exist
func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Jewelry, error) {
	var j Jewelry
	query := `SELECT ` + jewelryColumns + ` FROM jewelry WHERE id = $1`
	if err := r.db.GetContext(ctx, &j, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("jewelry repository get: %w", err)
	}
	return &j, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, patch Patch) (*Jewelry, error) {
	if patch.IsEmpty() {
		return nil, ErrNothingToUpdate
	}

	query, args := updateQuery(id, patch)

	var j Jewelry
	if err := r.db.GetContext(ctx, &j, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJewelryNotFound
		}
		return nil, fmt.Errorf("jewelry repository update: %w", err)
	}
	return &j, nil
}

// updateQuery sets only the patched columns; $1 is always the id
func updateQuery(id uuid.UUID, patch Patch) (string, []interface{}) {
	sets := []string{}
	args := []interface{}{id}
	argIndex := 2

	add := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argIndex))
		args = append(args, value)
		argIndex++
	}

	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Price != nil {
		add("price", *patch.Price)
	}
	if patch.Category != nil {
		add("category", *patch.Category)
	}
	if patch.ImageURL != nil {
		add("image_url", *patch.ImageURL)
	}
	if patch.InStock != nil {
		add("in_stock", *patch.InStock)
	}
	sets = append(sets, "updated_at = NOW()")

	query := fmt.Sprintf(`UPDATE jewelry SET %s WHERE id = $1 RETURNING %s`,
		strings.Join(sets, ", "), jewelryColumns)
	return query, args
}

// Delete removes the item and returns what was deleted
func (r *repository) Delete(ctx context.Context, id uuid.UUID) (*Jewelry, error) {
	var j Jewelry
	query := `DELETE FROM jewelry WHERE id = $1 RETURNING ` + jewelryColumns
	if err := r.db.GetContext(ctx, &j, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJewelryNotFound
		}
		return nil, fmt.Errorf("jewelry repository delete: %w", err)
	}
	return &j, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]*Jewelry, error) {
	query, args := listQuery(filter)

	items := []*Jewelry{}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("jewelry repository list: %w", err)
	}
	return items, nil
}

func listQuery(filter ListFilter) (string, []interface{}) {
	filter = filter.Normalize()

	conditions := []string{}
	args := []interface{}{}
	argIndex := 1

	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argIndex))
		args = append(args, filter.Category)
		argIndex++
	}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(name ILIKE $%d OR description ILIKE $%d)",
			argIndex, argIndex,
		))
		args = append(args, "%"+escapeLike(filter.Search)+"%")
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	return fmt.Sprintf(`SELECT %s FROM jewelry %s ORDER BY %s`, jewelryColumns, where, filter.orderBy()), args
}
