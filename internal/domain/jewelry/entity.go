package jewelry

import (
	"time"

	"github.com/google/uuid"
)

// Category is the stored product category
type Category string

const (
	CategoryNecklace Category = "necklace"
	CategoryBracelet Category = "bracelet"
	CategoryRing     Category = "ring"
	CategoryEarrings Category = "earrings"
)

// IsValid reports whether c is a known category
func (c Category) IsValid() bool {
	switch c {
	case CategoryNecklace, CategoryBracelet, CategoryRing, CategoryEarrings:
		return true
	}
	return false
}

// Jewelry is a catalog item
type Jewelry struct {
	ID          uuid.UUID `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Price       float64   `db:"price"`
	ImageURL    string    `db:"image_url"`
	Category    Category  `db:"category"`
	InStock     bool      `db:"in_stock"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// CategoryInfo describes a public category page
type CategoryInfo struct {
	Slug        string   `json:"slug"`
	Category    Category `json:"category,omitempty"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Icon        string   `json:"icon"`
}

var categoryPages = []CategoryInfo{
	{Slug: "necklaces", Category: CategoryNecklace, Name: "Naszyjniki", Description: "Odkryj naszą wyjątkową kolekcję naszyjników", Icon: "diamond"},
	{Slug: "bracelets", Category: CategoryBracelet, Name: "Bransoletki", Description: "Eleganckie bransoletki na każdą okazję", Icon: "watch"},
	{Slug: "rings", Category: CategoryRing, Name: "Pierścionki", Description: "Piękne pierścionki o unikalnym designie", Icon: "circle"},
	{Slug: "earrings", Category: CategoryEarrings, Name: "Kolczyki", Description: "Subtelne i efektowne kolczyki", Icon: "auto_awesome"},
}

// fallbackPage is shown for slugs that match no category
var fallbackPage = CategoryInfo{Name: "Biżuteria", Description: "Nasza kolekcja biżuterii", Icon: "diamond"}

// CategoryPages returns the public category pages in menu order
func CategoryPages() []CategoryInfo {
	out := make([]CategoryInfo, len(categoryPages))
	copy(out, categoryPages)
	return out
}

// CategoryBySlug looks a page up by its URL slug. Unknown slugs return the
// generic page and false.
func CategoryBySlug(slug string) (CategoryInfo, bool) {
	for _, page := range categoryPages {
		if page.Slug == slug {
			return page, true
		}
	}
	info := fallbackPage
	info.Slug = slug
	return info, false
}
