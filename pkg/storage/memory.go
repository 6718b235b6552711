package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wakamono/shokuhi/pkg/catalog"
)

// Memory is a process-local store with the same contract as DB. It backs a
// session when the database cannot be opened.
type Memory struct {
	mu        sync.RWMutex
	products  []catalog.Product
	items     []catalog.NormalizedItem
	meta      *catalog.Metadata
	favorites []string
	now       func() time.Time
}

func NewMemory() *Memory {
	return &Memory{now: time.Now}
}

func (m *Memory) ReplaceAll(_ context.Context, products []catalog.Product, prov catalog.Provenance) error {
	stored := make([]catalog.Product, 0, len(products))
	for _, p := range products {
		stored = append(stored, cloneProduct(p))
	}
	// Same overwrite semantics as the products table keyed by id.
	stored = lastByID(stored)
	items := catalog.Normalize(products)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = stored
	m.items = items
	m.meta = &catalog.Metadata{
		LastIngestedAt: m.now().UTC(),
		Provenance:     prov,
		Counts:         catalog.Counts{Products: len(products), Items: len(items)},
		IngestID:       uuid.NewString(),
		SchemaVersion:  SchemaVersion,
	}
	return nil
}

func (m *Memory) ReadAll(_ context.Context) ([]catalog.Product, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.meta == nil {
		return nil, false, nil
	}
	out := make([]catalog.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, cloneProduct(p))
	}
	return out, true, nil
}

func (m *Memory) ItemsFor(_ context.Context, productID string) ([]catalog.NormalizedItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []catalog.NormalizedItem
	for _, it := range m.items {
		if it.ProductID == productID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *Memory) Counts(_ context.Context) (*catalog.Counts, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return &catalog.Counts{Products: len(m.products), Items: len(m.items)}, nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = nil
	m.items = nil
	m.meta = nil
	return nil
}

func (m *Memory) Provenance(_ context.Context) (catalog.Provenance, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.meta == nil {
		return "", false, nil
	}
	return m.meta.Provenance, true, nil
}

func (m *Memory) Metadata(_ context.Context) (*catalog.Metadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.meta == nil {
		return nil, nil
	}
	meta := *m.meta
	return &meta, nil
}

func (m *Memory) LoadFavorites(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string{}, m.favorites...), nil
}

func (m *Memory) AddFavorite(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.favorites {
		if f == id {
			return nil
		}
	}
	m.favorites = append(m.favorites, id)
	return nil
}

func (m *Memory) RemoveFavorite(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, f := range m.favorites {
		if f == id {
			m.favorites = append(m.favorites[:i], m.favorites[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *Memory) ClearFavorites(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.favorites = nil
	return nil
}

func cloneProduct(p catalog.Product) catalog.Product {
	if p.Images != nil {
		p.Images = append([]string{}, p.Images...)
	}
	items := make([]catalog.ProductItem, len(p.Items))
	copy(items, p.Items)
	p.Items = items
	return p
}

// lastByID keeps one product per id: the last occurrence's data at the
// position of that last occurrence.
func lastByID(products []catalog.Product) []catalog.Product {
	last := make(map[string]int, len(products))
	for i, p := range products {
		last[p.ID] = i
	}
	out := products[:0]
	for i, p := range products {
		if last[p.ID] == i {
			out = append(out, p)
		}
	}
	return out
}
