// Package service runs the catalog session: it bootstraps the active
// catalog from the store (falling back to a sample document), ingests new
// documents and answers queries against the active collection.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/wakamono/shokuhi/pkg/catalog"
	"github.com/wakamono/shokuhi/pkg/collation"
	"github.com/wakamono/shokuhi/pkg/favorites"
	"github.com/wakamono/shokuhi/pkg/loader"
	"github.com/wakamono/shokuhi/pkg/notify"
	"github.com/wakamono/shokuhi/pkg/query"
	"github.com/wakamono/shokuhi/pkg/storage"
)

// Store is the persistent catalog store contract.
type Store interface {
	ReplaceAll(ctx context.Context, products []catalog.Product, prov catalog.Provenance) error
	ReadAll(ctx context.Context) ([]catalog.Product, bool, error)
	Counts(ctx context.Context) (*catalog.Counts, error)
	Clear(ctx context.Context) error
	Provenance(ctx context.Context) (catalog.Provenance, bool, error)
	Metadata(ctx context.Context) (*catalog.Metadata, error)
}

// Logger abstracts logging so callers can use logrus, stdlib log, or any
// other logger that satisfies this interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// Config holds everything New needs.
type Config struct {
	Store    Store               // nil = storage could not be opened
	OpenErr  error               // why Store is nil, if known
	Sample   loader.Source       // optional fallback document
	Collator *collation.Collator // defaults to collation.Default()
	Notifier *notify.Notifier    // optional
	Log      Logger              // optional; nil = no logging
}

// Service owns the active catalog of a session.
type Service struct {
	mu       sync.RWMutex
	store    Store
	degraded bool

	sample   loader.Source
	col      *collation.Collator
	engine   *query.Engine
	notifier *notify.Notifier
	log      Logger
	favs     *favorites.Registry

	snap  atomic.Pointer[catalog.Snapshot]
	group singleflight.Group
}

func New(cfg Config) *Service {
	log := cfg.Log
	if log == nil {
		log = nopLogger{}
	}
	col := cfg.Collator
	if col == nil {
		col = collation.Default()
	}
	s := &Service{
		store:    cfg.Store,
		sample:   cfg.Sample,
		col:      col,
		engine:   query.New(col),
		notifier: cfg.Notifier,
		log:      log,
	}
	if s.store == nil {
		openErr := cfg.OpenErr
		if openErr == nil {
			openErr = catalog.ErrStorageUnavailable
		}
		s.degrade(openErr)
	}

	var backend favorites.Backend
	if b, ok := s.currentStore().(favorites.Backend); ok {
		backend = b
	}
	s.favs = favorites.New(backend, log)
	return s
}

// Degraded reports whether the session fell back to in-memory storage.
func (s *Service) Degraded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.degraded
}

// Favorites returns the session's favorites registry.
func (s *Service) Favorites() *favorites.Registry {
	return s.favs
}

// Snapshot returns the active catalog, or nil when none is loaded.
func (s *Service) Snapshot() *catalog.Snapshot {
	return s.snap.Load()
}

func (s *Service) currentStore() Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

// degrade swaps the store for an in-memory one for the rest of the session.
// The storage-unavailable notification is emitted only once.
func (s *Service) degrade(cause error) {
	s.mu.Lock()
	if s.degraded {
		s.mu.Unlock()
		return
	}
	s.degraded = true
	mem := storage.NewMemory()
	s.store = mem
	s.mu.Unlock()

	// nil while New is still running; New binds the registry to mem itself.
	if s.favs != nil {
		s.favs.Rebind(context.Background(), mem)
	}

	s.log.Warnf("Storage unavailable, continuing with an in-memory catalog: %v", cause)
	s.notifier.Publish(notify.Event{
		Kind:    notify.StorageUnavailable,
		Title:   "Storage unavailable",
		Message: "The catalog will not be saved after this session.",
		Err:     cause,
	})
}

func (s *Service) activate(products []catalog.Product, prov catalog.Provenance) *catalog.Snapshot {
	snap := catalog.NewSnapshot(products, prov, s.col)
	s.snap.Store(snap)
	return snap
}

// Bootstrap loads the persisted catalog. When nothing is stored it loads
// the sample document and persists it as the baseline, so later sessions
// start from the same catalog. A nil snapshot with a nil error means there
// is neither a stored catalog nor a sample source. Concurrent calls share
// one load.
func (s *Service) Bootstrap(ctx context.Context) (*catalog.Snapshot, error) {
	v, err, _ := s.group.Do("bootstrap", func() (interface{}, error) {
		return s.bootstrap(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*catalog.Snapshot), nil
}

func (s *Service) bootstrap(ctx context.Context) (*catalog.Snapshot, error) {
	if err := s.favs.Load(ctx); err != nil && errors.Is(err, catalog.ErrStorageUnavailable) {
		s.degrade(err)
	}

	products, ok, err := s.readAll(ctx)
	if err != nil {
		s.notifier.Publish(notify.Event{
			Kind:    notify.CatalogLoadFailed,
			Title:   "Load failed",
			Message: "The saved catalog could not be read.",
			Err:     err,
		})
		return nil, err
	}
	if ok {
		prov, _, perr := s.currentStore().Provenance(ctx)
		if perr != nil {
			s.log.Warnf("Could not read catalog provenance: %v", perr)
		}
		snap := s.activate(products, prov)
		s.log.Debugf("Loaded %d products from the store (%s)", len(products), prov)
		s.notifier.Publish(notify.Event{
			Kind:     notify.CatalogLoaded,
			Title:    "Catalog loaded",
			Message:  fmt.Sprintf("Loaded %d products.", len(products)),
			Products: len(products),
			Items:    countItems(products),
		})
		return snap, nil
	}

	if s.sample == nil {
		return nil, nil
	}
	s.log.Infof("No stored catalog, loading %s", s.sample)
	doc, err := s.sample.Load(ctx)
	if err == nil {
		err = catalog.Validate(doc)
	}
	if err != nil {
		s.notifier.Publish(notify.Event{
			Kind:    notify.CatalogLoadFailed,
			Title:   "Load failed",
			Message: fmt.Sprintf("The sample catalog could not be loaded from %s.", s.sample),
			Err:     err,
		})
		return nil, err
	}

	snap := s.activate(doc.Products, catalog.ProvenanceSample)
	if err := s.replaceAll(ctx, doc.Products, catalog.ProvenanceSample); err != nil {
		// The sample stays active for this session even if it was not saved.
		s.log.Errorf("Could not save the sample catalog: %v", err)
	}
	return snap, nil
}

func (s *Service) readAll(ctx context.Context) ([]catalog.Product, bool, error) {
	products, ok, err := s.currentStore().ReadAll(ctx)
	if errors.Is(err, catalog.ErrStorageUnavailable) {
		s.degrade(err)
		return s.currentStore().ReadAll(ctx)
	}
	return products, ok, err
}

// replaceAll persists products and reports the outcome. A store that turns
// out to be unavailable is swapped for memory and the write is retried there.
func (s *Service) replaceAll(ctx context.Context, products []catalog.Product, prov catalog.Provenance) error {
	err := s.currentStore().ReplaceAll(ctx, products, prov)
	if errors.Is(err, catalog.ErrStorageUnavailable) {
		s.degrade(err)
		err = s.currentStore().ReplaceAll(ctx, products, prov)
	}
	if err != nil {
		s.notifier.Publish(notify.Event{
			Kind:    notify.CatalogSaveFailed,
			Title:   "Save failed",
			Message: "The catalog could not be saved.",
			Err:     err,
		})
		return err
	}
	s.notifier.Publish(notify.Event{
		Kind:     notify.CatalogSaved,
		Title:    "Catalog saved",
		Message:  fmt.Sprintf("Saved %d products.", len(products)),
		Products: len(products),
		Items:    countItems(products),
	})
	return nil
}

// Ingest validates doc and atomically replaces the stored catalog with it.
// A malformed document is rejected before the store is touched. When the
// write fails the previously active catalog stays active.
func (s *Service) Ingest(ctx context.Context, doc *catalog.Document) error {
	if err := catalog.Validate(doc); err != nil {
		s.notifier.Publish(notify.Event{
			Kind:    notify.CatalogLoadFailed,
			Title:   "Invalid catalog",
			Message: err.Error(),
			Err:     err,
		})
		return err
	}
	if err := s.replaceAll(ctx, doc.Products, catalog.ProvenanceUser); err != nil {
		return err
	}
	s.activate(doc.Products, catalog.ProvenanceUser)
	s.log.Infof("Ingested %d products", len(doc.Products))
	return nil
}

// IngestFrom loads a document from src and ingests it.
func (s *Service) IngestFrom(ctx context.Context, src loader.Source) error {
	doc, err := src.Load(ctx)
	if err != nil {
		s.notifier.Publish(notify.Event{
			Kind:    notify.CatalogLoadFailed,
			Title:   "Load failed",
			Message: fmt.Sprintf("Could not read %s.", src),
			Err:     err,
		})
		return err
	}
	return s.Ingest(ctx, doc)
}

// Clear empties the store and unloads the active catalog. Favorites are
// kept.
func (s *Service) Clear(ctx context.Context) error {
	err := s.currentStore().Clear(ctx)
	if errors.Is(err, catalog.ErrStorageUnavailable) {
		s.degrade(err)
		err = s.currentStore().Clear(ctx)
	}
	if err != nil {
		return err
	}
	s.snap.Store(nil)
	return nil
}

// Counts returns the stored record counts, or nil on any storage failure.
func (s *Service) Counts(ctx context.Context) *catalog.Counts {
	c, err := s.currentStore().Counts(ctx)
	if err != nil {
		s.log.Warnf("Could not count stored records: %v", err)
		return nil
	}
	return c
}

// Metadata returns what is recorded about the stored catalog.
func (s *Service) Metadata(ctx context.Context) (*catalog.Metadata, error) {
	return s.currentStore().Metadata(ctx)
}

// Facets returns the facets of the active catalog. Without one, there are
// no categories and the price bounds are catalog.DefaultPriceBounds.
func (s *Service) Facets() catalog.Facets {
	if snap := s.snap.Load(); snap != nil {
		return snap.Facets
	}
	return catalog.Facets{Categories: []string{}, Price: catalog.DefaultPriceBounds}
}

// CategoriesFor returns every category id was seen under in the active
// catalog.
func (s *Service) CategoriesFor(id string) []string {
	if snap := s.snap.Load(); snap != nil {
		return snap.Categories.For(id)
	}
	return nil
}

// Product returns the first active product with id and every category
// the id appears under.
func (s *Service) Product(id string) (catalog.Product, []string, bool) {
	snap := s.snap.Load()
	p, ok := snap.Lookup(id)
	if !ok {
		return catalog.Product{}, nil, false
	}
	return p, snap.Categories.For(id), true
}

// Query filters and sorts the active catalog. Favorites come from the
// session registry.
func (s *Service) Query(f query.Filter, key query.SortKey) []catalog.Product {
	snap := s.snap.Load()
	if snap == nil {
		return []catalog.Product{}
	}
	return s.engine.Run(snap.Products, f, key, s.favs)
}

// ResetFilter returns an unconstrained filter spanning the active price
// bounds, together with the default sort key.
func (s *Service) ResetFilter() (query.Filter, query.SortKey) {
	bounds := s.Facets().Price
	return query.Filter{PriceRange: query.PriceRange{bounds.Min, bounds.Max}}, query.DefaultSort
}

func countItems(products []catalog.Product) int {
	n := 0
	for _, p := range products {
		n += len(p.Items)
	}
	return n
}
