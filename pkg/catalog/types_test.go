package catalog

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestProductTotalsCoercion(t *testing.T) {
	tests := []struct {
		raw    string
		finite bool
		value  float64
	}{
		{`{"totals":120.5}`, true, 120.5},
		{`{"totals":"300"}`, true, 300},
		{`{"totals":null}`, true, 0},
		{`{"totals":""}`, true, 0},
		{`{"totals":"abc"}`, false, 0},
		{`{"totals":[1]}`, false, 0},
		{`{}`, false, 0},
	}
	for _, tt := range tests {
		var p Product
		if err := json.Unmarshal([]byte(tt.raw), &p); err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.raw, err)
		}
		if p.Totals.Finite() != tt.finite {
			t.Fatalf("%s: expected finite=%v, got %v", tt.raw, tt.finite, p.Totals)
		}
		if tt.finite && p.Totals.Float() != tt.value {
			t.Fatalf("%s: expected %v, got %v", tt.raw, tt.value, p.Totals)
		}
	}
}

func TestNonFiniteTotalsMarshalAsNull(t *testing.T) {
	var p Product
	if err := json.Unmarshal([]byte(`{"id":"x","totals":"n/a","items":[]}`), &p); err != nil {
		t.Fatal(err)
	}
	out, err := json.Marshal(p.Totals)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "null" {
		t.Fatalf("expected null, got %s", out)
	}
}

func TestNormalizeKeepsOrder(t *testing.T) {
	products := []Product{
		{ID: "a", Items: []ProductItem{{Name: "a0"}, {Name: "a1"}}},
		{ID: "b", Items: []ProductItem{}},
		{ID: "c", Items: []ProductItem{{Name: "c0"}}},
	}
	got := Normalize(products)
	var keys []string
	for _, n := range got {
		keys = append(keys, n.ProductID+":"+n.Name)
	}
	expect := []string{"a:a0", "a:a1", "c:c0"}
	if !reflect.DeepEqual(keys, expect) {
		t.Fatalf("unexpected items.\nwant: %#v\ngot:  %#v", expect, keys)
	}
	if got[1].Index != 1 || got[2].Index != 0 {
		t.Fatalf("unexpected indexes: %+v", got)
	}
}

func TestComputedTotalMayDisagreeWithTotals(t *testing.T) {
	p := Product{
		Totals: 999,
		Items: []ProductItem{
			{Price: 100, Amount: 3},
			{Price: 25.5, Amount: 2},
		},
	}
	if got := p.ComputedTotal(); got != 351 {
		t.Fatalf("expected 351, got %v", got)
	}
}
