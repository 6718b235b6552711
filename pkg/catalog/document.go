package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

var requiredFields = []string{"name", "id", "category"}

// ParseDocument checks the raw shape of a catalog document and decodes it.
// Shape violations are reported as *MalformedCatalogError naming the first
// offending product and field; invalid JSON is reported as a plain error.
func ParseDocument(data []byte) (*Document, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("parse catalog document: invalid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, &MalformedCatalogError{Index: -1, Field: "products", Reason: "document is not an object"}
	}
	products := root.Get("products")
	if !products.IsArray() {
		return nil, &MalformedCatalogError{Index: -1, Field: "products", Reason: "missing products list"}
	}

	var malformed *MalformedCatalogError
	idx := 0
	products.ForEach(func(_, p gjson.Result) bool {
		malformed = checkRawProduct(idx, p)
		idx++
		return malformed == nil
	})
	if malformed != nil {
		return nil, malformed
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog document: %w", err)
	}
	return &doc, nil
}

func checkRawProduct(idx int, p gjson.Result) *MalformedCatalogError {
	if !p.IsObject() {
		return &MalformedCatalogError{Index: idx, Field: "product", Reason: "not an object"}
	}
	for _, f := range requiredFields {
		v := p.Get(f)
		if !v.Exists() || v.Type == gjson.Null || (v.Type == gjson.String && v.Str == "") {
			return &MalformedCatalogError{Index: idx, Field: f, Reason: "missing required field"}
		}
		if v.Type != gjson.String {
			return &MalformedCatalogError{Index: idx, Field: f, Reason: "must be a string"}
		}
	}
	items := p.Get("items")
	if !items.IsArray() {
		return &MalformedCatalogError{Index: idx, Field: "items", Reason: "missing items list"}
	}
	for _, it := range items.Array() {
		if !it.IsObject() {
			return &MalformedCatalogError{Index: idx, Field: "items", Reason: "item is not an object"}
		}
	}
	return nil
}

// Validate checks an already decoded document. It returns nil when the
// document may be ingested, or a *MalformedCatalogError for the first
// offending product.
func Validate(doc *Document) error {
	if doc == nil || doc.Products == nil {
		return &MalformedCatalogError{Index: -1, Field: "products", Reason: "missing products list"}
	}
	for i, p := range doc.Products {
		switch {
		case p.Name == "":
			return &MalformedCatalogError{Index: i, Field: "name", Reason: "missing required field"}
		case p.ID == "":
			return &MalformedCatalogError{Index: i, Field: "id", Reason: "missing required field"}
		case p.Category == "":
			return &MalformedCatalogError{Index: i, Field: "category", Reason: "missing required field"}
		case p.Items == nil:
			return &MalformedCatalogError{Index: i, Field: "items", Reason: "missing items list"}
		}
	}
	return nil
}
