package jewelry

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "ring", want: "ring"},
		{in: "100%", want: `100\%`},
		{in: "white_gold", want: `white\_gold`},
		{in: `a\b`, want: `a\\b`},
		{in: `%_\`, want: `\%\_\\`},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			if got := escapeLike(tc.in); got != tc.want {
				t.Fatalf("escapeLike(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestListFilterOrderBy(t *testing.T) {
	tests := []struct {
		sort string
		want string
	}{
		{sort: "", want: "created_at DESC, id"},
		{sort: "newest", want: "created_at DESC, id"},
		{sort: "price_asc", want: "price ASC, created_at DESC"},
		{sort: " PRICE_DESC ", want: "price DESC, created_at DESC"},
		{sort: "name", want: "LOWER(name) ASC, created_at DESC"},
		{sort: "price; DROP TABLE jewelry", want: "created_at DESC, id"},
	}

	for _, tc := range tests {
		t.Run(tc.sort, func(t *testing.T) {
			f := ListFilter{Sort: tc.sort}.Normalize()
			if got := f.orderBy(); got != tc.want {
				t.Fatalf("orderBy(%q) = %q, want %q", tc.sort, got, tc.want)
			}
		})
	}
}

func TestListQuery(t *testing.T) {
	tests := []struct {
		name      string
		filter    ListFilter
		wantWhere string
		wantArgs  []interface{}
	}{
		{name: "no filter", filter: ListFilter{}, wantWhere: "FROM jewelry  ORDER BY"},
		{
			name:      "category",
			filter:    ListFilter{Category: CategoryRing},
			wantWhere: "WHERE category = $1 ORDER BY",
			wantArgs:  []interface{}{CategoryRing},
		},
		{
			name:      "search is escaped",
			filter:    ListFilter{Search: " 50% "},
			wantWhere: "WHERE (name ILIKE $1 OR description ILIKE $1) ORDER BY",
			wantArgs:  []interface{}{`%50\%%`},
		},
		{
			name:      "category and search",
			filter:    ListFilter{Category: CategoryNecklace, Search: "perła", Sort: "price_asc"},
			wantWhere: "WHERE category = $1 AND (name ILIKE $2 OR description ILIKE $2) ORDER BY price ASC",
			wantArgs:  []interface{}{CategoryNecklace, "%perła%"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			query, args := listQuery(tc.filter)
			if !strings.Contains(query, tc.wantWhere) {
				t.Fatalf("query %q does not contain %q", query, tc.wantWhere)
			}
			if len(args) != len(tc.wantArgs) {
				t.Fatalf("args = %v, want %v", args, tc.wantArgs)
			}
			for i := range args {
				if args[i] != tc.wantArgs[i] {
					t.Fatalf("args[%d] = %v, want %v", i, args[i], tc.wantArgs[i])
				}
			}
		})
	}
}

func TestUpdateQuerySetsOnlyPatchedColumns(t *testing.T) {
	id := uuid.New()
	category := CategoryEarrings

	query, args := updateQuery(id, Patch{Price: ptr(12.5), Category: &category, InStock: ptr(false)})

	want := "SET price = $2, category = $3, in_stock = $4, updated_at = NOW() WHERE id = $1"
	if !strings.Contains(query, want) {
		t.Fatalf("query %q does not contain %q", query, want)
	}
	if !strings.Contains(query, "RETURNING "+jewelryColumns) {
		t.Fatalf("query %q should return the updated row", query)
	}
	if len(args) != 4 || args[0] != id || args[1] != 12.5 || args[2] != category || args[3] != false {
		t.Fatalf("unexpected args %v", args)
	}
	for _, column := range []string{"name =", "description =", "image_url ="} {
		if strings.Contains(query, column) {
			t.Fatalf("query %q should not set %s", query, column)
		}
	}
}
