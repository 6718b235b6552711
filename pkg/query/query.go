// Package query filters and sorts an in-memory product collection. Every
// function here is pure: the input slice is never modified, no I/O is done
// and the same inputs always give the same ordered output.
package query

import (
	"math"
	"sort"
	"strings"

	"github.com/wakamono/shokuhi/pkg/catalog"
	"github.com/wakamono/shokuhi/pkg/collation"
)

// SortKey selects the ordering of query results.
type SortKey string

const (
	NameAsc      SortKey = "name_asc"
	NameDesc     SortKey = "name_desc"
	PriceAsc     SortKey = "price_asc"
	PriceDesc    SortKey = "price_desc"
	CategoryAsc  SortKey = "category_asc"
	CategoryDesc SortKey = "category_desc"
)

// DefaultSort is the ordering used when the filters are reset.
const DefaultSort = NameAsc

// SortKeys lists every supported key.
var SortKeys = []SortKey{NameAsc, NameDesc, PriceAsc, PriceDesc, CategoryAsc, CategoryDesc}

// PriceRange is an inclusive [min, max] bound on Product.Totals.
type PriceRange [2]float64

// Unbounded accepts every finite price.
var Unbounded = PriceRange{math.Inf(-1), math.Inf(1)}

// Filter describes which products a query keeps. An empty Category or
// SearchText places no constraint.
type Filter struct {
	Category      string
	PriceRange    PriceRange
	SearchText    string
	FavoritesOnly bool
}

// NewFilter returns a filter that keeps every product with a finite price.
func NewFilter() Filter {
	return Filter{PriceRange: Unbounded}
}

// Favorites answers favorite membership for FavoritesOnly filters.
type Favorites interface {
	IsFavorite(id string) bool
}

type noFavorites struct{}

func (noFavorites) IsFavorite(string) bool { return false }

// Engine runs queries with a fixed collator.
type Engine struct {
	col *collation.Collator
}

// New returns an Engine using col for name and category ordering. A nil col
// uses collation.Default().
func New(col *collation.Collator) *Engine {
	if col == nil {
		col = collation.Default()
	}
	return &Engine{col: col}
}

// Run filters products with f and orders the result by key.
func (e *Engine) Run(products []catalog.Product, f Filter, key SortKey, favs Favorites) []catalog.Product {
	return e.Sort(Apply(products, f, favs), key)
}

// Apply returns the products matching f, in input order. The result is a new
// slice and never longer than products.
func Apply(products []catalog.Product, f Filter, favs Favorites) []catalog.Product {
	if favs == nil {
		favs = noFavorites{}
	}
	search := strings.ToLower(strings.TrimSpace(f.SearchText))
	category := strings.TrimSpace(f.Category)
	low, high := f.PriceRange[0], f.PriceRange[1]

	out := make([]catalog.Product, 0, len(products))
	for _, p := range products {
		if f.FavoritesOnly && !favs.IsFavorite(p.ID) {
			continue
		}
		if !p.Totals.Finite() {
			continue
		}
		price := p.Totals.Float()
		if price < low || price > high {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		if search != "" && !matches(p, search) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matches(p catalog.Product, search string) bool {
	if strings.Contains(strings.ToLower(p.Name), search) ||
		strings.Contains(strings.ToLower(p.ID), search) ||
		strings.Contains(strings.ToLower(p.Detail), search) {
		return true
	}
	for _, it := range p.Items {
		if strings.Contains(strings.ToLower(it.Name), search) {
			return true
		}
	}
	return false
}

// Sort returns a new slice ordered by key. Descending keys are the exact
// reverse of their ascending counterpart; unknown keys keep input order.
func (e *Engine) Sort(products []catalog.Product, key SortKey) []catalog.Product {
	out := make([]catalog.Product, len(products))
	copy(out, products)

	cmp, desc := e.comparator(key)
	if cmp == nil {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		return cmp(out[i], out[j]) < 0
	})
	if desc {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

type comparator func(a, b catalog.Product) int

func (e *Engine) comparator(key SortKey) (comparator, bool) {
	switch key {
	case NameAsc, NameDesc:
		return func(a, b catalog.Product) int { return e.col.Compare(a.Name, b.Name) }, key == NameDesc
	case PriceAsc, PriceDesc:
		return comparePrice, key == PriceDesc
	case CategoryAsc, CategoryDesc:
		return func(a, b catalog.Product) int { return e.col.Compare(a.Category, b.Category) }, key == CategoryDesc
	}
	return nil, false
}

func comparePrice(a, b catalog.Product) int {
	d := priceOrZero(a) - priceOrZero(b)
	switch {
	case d < 0:
		return -1
	case d > 0:
		return 1
	}
	return 0
}

func priceOrZero(p catalog.Product) float64 {
	if !p.Totals.Finite() {
		return 0
	}
	return p.Totals.Float()
}

// ParseSortKey validates a user-supplied sort key.
func ParseSortKey(s string) (SortKey, bool) {
	for _, k := range SortKeys {
		if string(k) == s {
			return k, true
		}
	}
	return SortKey(s), false
}
