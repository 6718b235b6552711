package catalog

import (
	"errors"
	"testing"
)

func TestParseDocumentValid(t *testing.T) {
	raw := []byte(`{"products":[
		{"id":"a","name":"Apple","category":"Fruit","totals":100,"items":[{"name":"apple","price":50,"amount":2,"url":"https://example.com/a"}]},
		{"id":"b","name":"Banana","category":"Fruit","totals":"50","items":[]}
	],"ignored":true}`)

	doc, err := ParseDocument(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(doc.Products))
	}
	if doc.Products[1].Totals.Float() != 50 {
		t.Fatalf("expected string totals to coerce to 50, got %v", doc.Products[1].Totals)
	}
	if got := doc.Products[0].ComputedTotal(); got != 100 {
		t.Fatalf("expected computed total 100, got %v", got)
	}
}

func TestParseDocumentReportsFirstOffender(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		index int
		field string
	}{
		{"missing products", `{"items":[]}`, -1, "products"},
		{"products not a list", `{"products":{}}`, -1, "products"},
		{"missing category", `{"products":[{"id":"a","name":"A","category":"C","items":[]},{"id":"b","name":"B","items":[]}]}`, 1, "category"},
		{"empty name", `{"products":[{"id":"a","name":"","category":"C","items":[]}]}`, 0, "name"},
		{"name checked before id", `{"products":[{"category":"C","items":[]}]}`, 0, "name"},
		{"missing items", `{"products":[{"id":"a","name":"A","category":"C"}]}`, 0, "items"},
		{"items not a list", `{"products":[{"id":"a","name":"A","category":"C","items":"x"}]}`, 0, "items"},
		{"item not an object", `{"products":[{"id":"a","name":"A","category":"C","items":[]},{"id":"b","name":"B","category":"C","items":[{"name":"x"},1]}]}`, 1, "items"},
		{"numeric id", `{"products":[{"id":7,"name":"A","category":"C","items":[]}]}`, 0, "id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocument([]byte(tt.raw))
			var m *MalformedCatalogError
			if !errors.As(err, &m) {
				t.Fatalf("expected MalformedCatalogError, got %v", err)
			}
			if m.Index != tt.index || m.Field != tt.field {
				t.Fatalf("expected index %d field %q, got index %d field %q", tt.index, tt.field, m.Index, m.Field)
			}
		})
	}
}

func TestParseDocumentInvalidJSON(t *testing.T) {
	_, err := ParseDocument([]byte(`{"products":[`))
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
	if IsMalformed(err) {
		t.Fatalf("invalid JSON should not be reported as malformed catalog: %v", err)
	}
}

func TestValidate(t *testing.T) {
	ok := &Document{Products: []Product{{ID: "a", Name: "A", Category: "C", Items: []ProductItem{}}}}
	if err := Validate(ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := Validate(&Document{Products: []Product{}}); err != nil {
		t.Fatalf("empty product list should be valid: %v", err)
	}

	err := Validate(&Document{Products: []Product{{ID: "a", Name: "A", Items: []ProductItem{}}}})
	var m *MalformedCatalogError
	if !errors.As(err, &m) || m.Index != 0 || m.Field != "category" {
		t.Fatalf("expected category failure at 0, got %v", err)
	}

	if err := Validate(nil); !IsMalformed(err) {
		t.Fatalf("expected malformed error for nil document, got %v", err)
	}
}
