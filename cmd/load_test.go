package cmd

import (
	"testing"

	"github.com/wakamono/shokuhi/pkg/loader"
)

func TestSourceFor(t *testing.T) {
	src, err := sourceFor("catalog.json")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := src.(loader.File); !ok {
		t.Errorf("expected a file source, got %T", src)
	}

	src, err = sourceFor("https://example.com/catalog.json")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := src.(*loader.HTTP); !ok {
		t.Errorf("expected an HTTP source, got %T", src)
	}
}
