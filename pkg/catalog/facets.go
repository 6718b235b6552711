package catalog

import (
	"math"
	"sort"

	"github.com/samber/lo"

	"github.com/wakamono/shokuhi/pkg/collation"
)

// DefaultPriceBounds keeps a range control well-formed when no product has a
// usable price.
var DefaultPriceBounds = PriceBounds{Min: 0, Max: 1_000_000}

// PriceBounds is an inclusive [Min, Max] price interval.
type PriceBounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Facets are the summary values filter controls are built from.
type Facets struct {
	Categories []string    `json:"categories"`
	Price      PriceBounds `json:"price"`
}

// Categories returns the distinct category labels of products in collation
// order.
func Categories(products []Product, col *collation.Collator) []string {
	cats := lo.Uniq(lo.FilterMap(products, func(p Product, _ int) (string, bool) {
		return p.Category, p.Category != ""
	}))
	col.SortStrings(cats)
	return cats
}

// PriceRange returns the min and max Totals over products with a finite
// price, or DefaultPriceBounds when there are none.
func PriceRange(products []Product) PriceBounds {
	low, high := math.Inf(1), math.Inf(-1)
	for _, p := range products {
		if !p.Totals.Finite() {
			continue
		}
		low = math.Min(low, p.Totals.Float())
		high = math.Max(high, p.Totals.Float())
	}
	if math.IsInf(low, 1) {
		return DefaultPriceBounds
	}
	return PriceBounds{Min: low, Max: high}
}

// ComputeFacets derives every facet of products.
func ComputeFacets(products []Product, col *collation.Collator) Facets {
	return Facets{
		Categories: Categories(products, col),
		Price:      PriceRange(products),
	}
}

// CategoryIndex maps a product id to every distinct category the id was seen
// under. Ids are not unique across a catalog, so this is the authoritative
// category list for display.
type CategoryIndex map[string][]string

// BuildCategoryIndex scans products once and returns the sorted,
// de-duplicated category set per id.
func BuildCategoryIndex(products []Product, col *collation.Collator) CategoryIndex {
	seen := make(map[string]map[string]struct{})
	for _, p := range products {
		if p.Category == "" {
			continue
		}
		set, ok := seen[p.ID]
		if !ok {
			set = make(map[string]struct{})
			seen[p.ID] = set
		}
		set[p.Category] = struct{}{}
	}

	idx := make(CategoryIndex, len(seen))
	for id, set := range seen {
		cats := lo.Keys(set)
		// Byte order first so labels that collate equal land in a fixed order.
		sort.Strings(cats)
		col.SortStrings(cats)
		idx[id] = cats
	}
	return idx
}

// For returns the categories recorded for id, or nil.
func (ci CategoryIndex) For(id string) []string {
	return ci[id]
}

// Snapshot is an immutable view of an active product collection together
// with everything derived from it. A new Snapshot is built whenever the
// collection changes; queries never rebuild it.
type Snapshot struct {
	Products   []Product
	Provenance Provenance
	Facets     Facets
	Categories CategoryIndex
}

// NewSnapshot derives facets and the category index for products.
func NewSnapshot(products []Product, prov Provenance, col *collation.Collator) *Snapshot {
	return &Snapshot{
		Products:   products,
		Provenance: prov,
		Facets:     ComputeFacets(products, col),
		Categories: BuildCategoryIndex(products, col),
	}
}

// Lookup returns the first product with the given id.
func (s *Snapshot) Lookup(id string) (Product, bool) {
	if s == nil {
		return Product{}, false
	}
	return lo.Find(s.Products, func(p Product) bool { return p.ID == id })
}
