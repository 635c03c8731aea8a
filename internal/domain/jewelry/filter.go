package jewelry

import "strings"

// Sort orders for list queries
const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortName      = "name"
)

var orderClauses = map[string]string{
	SortNewest:    "created_at DESC, id",
	SortPriceAsc:  "price ASC, created_at DESC",
	SortPriceDesc: "price DESC, created_at DESC",
	SortName:      "LOWER(name) ASC, created_at DESC",
}

// ListFilter narrows a catalog listing. Category is an exact match, Search
// a case-insensitive substring of name or description.
type ListFilter struct {
	Category Category
	Search   string
	Sort     string
}

// Normalize trims input and replaces an unknown sort with newest.
func (f ListFilter) Normalize() ListFilter {
	f.Search = strings.TrimSpace(f.Search)
	f.Sort = strings.TrimSpace(strings.ToLower(f.Sort))
	if _, ok := orderClauses[f.Sort]; !ok {
		f.Sort = SortNewest
	}
	return f
}

// Matches reports whether a change to category c can affect this listing.
func (f ListFilter) Matches(c Category) bool {
	return f.Category == "" || f.Category == c
}

func (f ListFilter) orderBy() string {
	if clause, ok := orderClauses[f.Sort]; ok {
		return clause
	}
	return orderClauses[SortNewest]
}

// escapeLike makes user input literal inside an ILIKE pattern.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// matchesAny reports whether any category touched by c is in the listing.
func (f ListFilter) matchesAny(c Change) bool {
	for _, category := range c.Categories {
		if f.Matches(category) {
			return true
		}
	}
	return false
}
