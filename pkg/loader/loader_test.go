package loader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wakamono/shokuhi/pkg/catalog"
)

func TestBundledSampleIsValid(t *testing.T) {
	doc, err := Bundled{}.Load(context.Background())
	require.NoError(t, err)
	require.NoError(t, catalog.Validate(doc))
	require.Len(t, doc.Products, 5)
	require.Equal(t, 1290.0, doc.Products[4].Totals.Float())
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"products":[{"id":"a","name":"A","category":"C","totals":1,"items":[]}]}`), 0644))
	doc, err := File{Path: good}.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, doc.Products, 1)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"products":[{"id":"a","name":"A","items":[]}]}`), 0644))
	_, err = File{Path: bad}.Load(context.Background())
	require.True(t, catalog.IsMalformed(err))

	_, err = File{Path: filepath.Join(dir, "missing.json")}.Load(context.Background())
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestHTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"products":[{"id":"a","name":"A","category":"C","totals":10,"items":[]}]}`))
	}))
	defer srv.Close()

	src, err := NewHTTP(srv.URL+"/products.json", 0, "")
	require.NoError(t, err)
	doc, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "a", doc.Products[0].ID)

	missing, err := NewHTTP(srv.URL+"/nope.json", 0, "")
	require.NoError(t, err)
	_, err = missing.Load(context.Background())
	require.Error(t, err)
}

func TestSampleSourceSelection(t *testing.T) {
	src, err := SampleSource("", "", 1, "")
	require.NoError(t, err)
	require.IsType(t, Bundled{}, src)

	src, err = SampleSource("/tmp/sample.json", "", 1, "")
	require.NoError(t, err)
	require.Equal(t, File{Path: "/tmp/sample.json"}, src)

	src, err = SampleSource("/tmp/sample.json", "https://example.com/products.json", 1, "")
	require.NoError(t, err)
	require.IsType(t, &HTTP{}, src)

	_, err = SampleSource("", "https://example.com/products.json", 1, "://bad")
	require.Error(t, err)
}
