// Package catalog holds the product catalog data model, the validation of
// incoming catalog documents and the facets derived from a product collection.
package catalog

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Provenance tells a user-supplied catalog apart from the bundled sample.
type Provenance string

const (
	ProvenanceUser   Provenance = "user"
	ProvenanceSample Provenance = "sample"
)

// ParseProvenance maps a stored tag back to a Provenance.
func ParseProvenance(s string) (Provenance, bool) {
	switch Provenance(s) {
	case ProvenanceUser, ProvenanceSample:
		return Provenance(s), true
	}
	return "", false
}

// Price is a monetary value decoded leniently: JSON numbers and numeric
// strings are accepted, null and "" become 0, anything else becomes NaN.
type Price float64

// Float returns the price as a float64.
func (p Price) Float() float64 { return float64(p) }

// Finite reports whether the price is a usable number.
func (p Price) Finite() bool {
	f := float64(p)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = 0
		return nil
	}
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if s, ok := raw.(string); ok && strings.TrimSpace(s) == "" {
		*p = 0
		return nil
	}
	f, err := cast.ToFloat64E(raw)
	if err != nil {
		*p = Price(math.NaN())
		return nil
	}
	*p = Price(f)
	return nil
}

func (p Price) MarshalJSON() ([]byte, error) {
	if !p.Finite() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(p))
}

// Quantity is an item amount decoded leniently like Price. Values that cannot
// be coerced become 0.
type Quantity int

func (q *Quantity) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	n, err := cast.ToIntE(raw)
	if err != nil {
		n = 0
	}
	*q = Quantity(n)
	return nil
}

// ProductItem is a line item owned by a product. It has no identity of its
// own beyond its position in the product's item list.
type ProductItem struct {
	Name   string   `json:"name"`
	Price  Price    `json:"price"`
	Amount Quantity `json:"amount"`
	URL    string   `json:"url"`
}

// Subtotal is price times amount, or 0 when the price is unusable.
func (it ProductItem) Subtotal() float64 {
	if !it.Price.Finite() {
		return 0
	}
	return it.Price.Float() * float64(it.Amount)
}

// Product is a single catalog record. Totals is an externally supplied
// reference price and need not match ComputedTotal.
type Product struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Category  string        `json:"category"`
	Thumb     string        `json:"thumb"`
	Images    []string      `json:"images"`
	Detail    string        `json:"detail"`
	DetailURL string        `json:"detail_url"`
	Totals    Price         `json:"totals"`
	Items     []ProductItem `json:"items"`
}

// UnmarshalJSON decodes a product, leaving Totals as NaN when the field is
// absent so that such records are excluded from price-ranged queries.
func (p *Product) UnmarshalJSON(data []byte) error {
	type plain Product
	v := plain{Totals: Price(math.NaN())}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = Product(v)
	return nil
}

// ComputedTotal sums price*amount over the product's items.
func (p Product) ComputedTotal() float64 {
	var sum float64
	for _, it := range p.Items {
		sum += it.Subtotal()
	}
	return sum
}

// Document is the catalog document format: only Products is interpreted.
type Document struct {
	Products []Product `json:"products"`
}

// NormalizedItem is the persisted form of a ProductItem: it carries a
// back-reference to its owning product and its original position.
type NormalizedItem struct {
	ProductItem
	ProductID string
	Index     int
}

// Normalize flattens the items of products into NormalizedItems, in
// document order.
func Normalize(products []Product) []NormalizedItem {
	n := 0
	for _, p := range products {
		n += len(p.Items)
	}
	out := make([]NormalizedItem, 0, n)
	for _, p := range products {
		for i, it := range p.Items {
			out = append(out, NormalizedItem{ProductItem: it, ProductID: p.ID, Index: i})
		}
	}
	return out
}

// Counts holds the number of stored products and items.
type Counts struct {
	Products int `json:"products"`
	Items    int `json:"items"`
}

// Metadata describes the currently persisted catalog.
type Metadata struct {
	LastIngestedAt time.Time  `json:"last_ingested_at"`
	Provenance     Provenance `json:"provenance"`
	Counts         Counts     `json:"counts"`
	IngestID       string     `json:"ingest_id"`
	SchemaVersion  int        `json:"schema_version"`
}
