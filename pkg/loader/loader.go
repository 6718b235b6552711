// Package loader supplies catalog documents to the service: user-selected
// files, a sample fetched over HTTP, or the sample bundled in the binary.
package loader

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/wakamono/shokuhi/pkg/catalog"
)

//go:embed sample.json
var bundledSample []byte

// maxDocumentSize bounds how much of a remote document is read.
const maxDocumentSize = 64 << 20

// Source produces a parsed catalog document.
type Source interface {
	Load(ctx context.Context) (*catalog.Document, error)
	String() string
}

// File reads a document from disk.
type File struct {
	Path string
}

func (f File) Load(_ context.Context) (*catalog.Document, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, err
	}
	doc, err := catalog.ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Path, err)
	}
	return doc, nil
}

func (f File) String() string { return f.Path }

// Bundled returns the sample document compiled into the binary.
type Bundled struct{}

func (Bundled) Load(_ context.Context) (*catalog.Document, error) {
	return catalog.ParseDocument(bundledSample)
}

func (Bundled) String() string { return "bundled sample" }

// HTTP fetches a document from a URL, retrying transient failures.
type HTTP struct {
	URL    string
	client *retryablehttp.Client
}

// NewHTTP builds an HTTP source. proxy may be empty.
func NewHTTP(rawURL string, retries int, proxy string) (*HTTP, error) {
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = log.New(io.Discard, "", 0)
	retryClient.RetryMax = retries

	if proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %v", err)
		}
		retryClient.HTTPClient.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	}
	return &HTTP{URL: rawURL, client: retryClient}, nil
}

func (h *HTTP) Load(ctx context.Context) (*catalog.Document, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", h.URL, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, err
	}
	doc, err := catalog.ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", h.URL, err)
	}
	return doc, nil
}

func (h *HTTP) String() string { return h.URL }

// SampleSource picks where the fallback sample comes from: a URL if set,
// else a file path if set, else the bundled sample.
func SampleSource(path, rawURL string, retries int, proxy string) (Source, error) {
	switch {
	case rawURL != "":
		return NewHTTP(rawURL, retries, proxy)
	case path != "":
		return File{Path: path}, nil
	}
	return Bundled{}, nil
}
