package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/wakamono/shokuhi/pkg/catalog"
)

// SchemaVersion is the only schema this binary knows. Migrations are
// forward-only and recorded in PRAGMA user_version.
const SchemaVersion = 1

const (
	metaLastIngestedAt = "last_ingested_at"
	metaProvenance     = "provenance"
	metaProductCount   = "product_count"
	metaItemCount      = "item_count"
	metaIngestID       = "ingest_id"
)

const schemaV1 = `
CREATE TABLE IF NOT EXISTS products (
  id          TEXT PRIMARY KEY,
  position    INTEGER NOT NULL,
  name        TEXT NOT NULL,
  category    TEXT NOT NULL,
  thumb       TEXT,
  images      TEXT NOT NULL DEFAULT 'null',
  detail      TEXT,
  detail_url  TEXT,
  totals      REAL
);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(category);
CREATE INDEX IF NOT EXISTS idx_products_name ON products(name);
CREATE INDEX IF NOT EXISTS idx_products_totals ON products(totals);
CREATE TABLE IF NOT EXISTS items (
  item_key          INTEGER PRIMARY KEY AUTOINCREMENT,
  product_id        TEXT NOT NULL,
  product_position  INTEGER NOT NULL,
  idx               INTEGER NOT NULL CHECK (idx >= 0),
  name              TEXT,
  price             REAL,
  amount            INTEGER NOT NULL DEFAULT 0,
  url               TEXT
);
CREATE INDEX IF NOT EXISTS idx_items_product ON items(product_id, idx);
CREATE TABLE IF NOT EXISTS meta (
  name   TEXT PRIMARY KEY,
  value  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS favorites (
  product_id  TEXT PRIMARY KEY,
  added_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// DB is the persistent catalog store. It holds a single connection, so
// transactions are serialized within the process.
type DB struct {
	sql *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the SQLite database at path and brings
// its schema up to SchemaVersion. Failures wrap catalog.ErrStorageUnavailable.
func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, unavailable(err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, unavailable(err)
	}
	d := &DB{sql: db, now: time.Now}
	if err := d.migrate(context.Background()); err != nil {
		db.Close()
		return nil, unavailable(err)
	}
	return d, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	err := d.sql.Close()
	d.sql = nil
	return err
}

func (d *DB) migrate(ctx context.Context) (err error) {
	var version int
	if err = d.sql.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return err
	}
	switch {
	case version > SchemaVersion:
		return fmt.Errorf("%w: found %d, want %d", catalog.ErrNewerSchema, version, SchemaVersion)
	case version == SchemaVersion:
		return nil
	}

	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.ExecContext(ctx, schemaV1); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

// SchemaVersion reports the version recorded in the database file.
func (d *DB) SchemaVersion(ctx context.Context) (int, error) {
	if d == nil || d.sql == nil {
		return 0, catalog.ErrStorageUnavailable
	}
	var version int
	if err := d.sql.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, failed(err)
	}
	return version, nil
}

// ReplaceAll atomically swaps the stored catalog for products: products,
// normalized items and metadata are cleared and rewritten in one
// transaction. Products sharing an id overwrite each other; the last
// occurrence wins.
func (d *DB) ReplaceAll(ctx context.Context, products []catalog.Product, prov catalog.Provenance) (err error) {
	if d == nil || d.sql == nil {
		return catalog.ErrStorageUnavailable
	}

	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return failed(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			err = failed(err)
		}
	}()

	for _, table := range []string{"products", "items", "meta"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}

	productStmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO products(id, position, name, category, thumb, images, detail, detail_url, totals) VALUES(?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer productStmt.Close()
	itemStmt, err := tx.PrepareContext(ctx, `INSERT INTO items(product_id, product_position, idx, name, price, amount, url) VALUES(?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer itemStmt.Close()

	itemCount := 0
	for pos, p := range products {
		var images []byte
		images, err = json.Marshal(p.Images)
		if err != nil {
			return err
		}
		if _, err = productStmt.ExecContext(ctx, p.ID, pos, p.Name, p.Category, nullIfEmpty(p.Thumb), string(images), nullIfEmpty(p.Detail), nullIfEmpty(p.DetailURL), nullIfNotFinite(p.Totals)); err != nil {
			return err
		}
		for idx, it := range p.Items {
			if _, err = itemStmt.ExecContext(ctx, p.ID, pos, idx, nullIfEmpty(it.Name), nullIfNotFinite(it.Price), int(it.Amount), nullIfEmpty(it.URL)); err != nil {
				return err
			}
			itemCount++
		}
	}

	meta := map[string]string{
		metaLastIngestedAt: d.now().UTC().Format(time.RFC3339Nano),
		metaProvenance:     string(prov),
		metaProductCount:   strconv.Itoa(len(products)),
		metaItemCount:      strconv.Itoa(itemCount),
		metaIngestID:       uuid.NewString(),
	}
	for name, value := range meta {
		if _, err = tx.ExecContext(ctx, `INSERT INTO meta(name, value) VALUES(?, ?)`, name, value); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ReadAll reconstructs the stored catalog in document order. The boolean is
// false when the store has never been populated (or was cleared), which is
// distinct from a stored empty catalog.
func (d *DB) ReadAll(ctx context.Context) (products []catalog.Product, ok bool, err error) {
	if d == nil || d.sql == nil {
		return nil, false, catalog.ErrStorageUnavailable
	}

	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, failed(err)
	}
	defer tx.Rollback()

	var stamp string
	err = tx.QueryRowContext(ctx, `SELECT value FROM meta WHERE name = ?`, metaLastIngestedAt).Scan(&stamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, failed(err)
	}

	rows, err := tx.QueryContext(ctx, `SELECT id, position, name, category, thumb, images, detail, detail_url, totals FROM products ORDER BY position`)
	if err != nil {
		return nil, false, failed(err)
	}
	products = []catalog.Product{}
	byPosition := make(map[int]int)
	for rows.Next() {
		var (
			p                        catalog.Product
			pos                      int
			images                   string
			thumb, detail, detailURL sql.NullString
			totals                   sql.NullFloat64
		)
		if err = rows.Scan(&p.ID, &pos, &p.Name, &p.Category, &thumb, &images, &detail, &detailURL, &totals); err != nil {
			rows.Close()
			return nil, false, failed(err)
		}
		if err = json.Unmarshal([]byte(images), &p.Images); err != nil {
			rows.Close()
			return nil, false, failed(fmt.Errorf("decode images of %q: %w", p.ID, err))
		}
		p.Thumb = thumb.String
		p.Detail = detail.String
		p.DetailURL = detailURL.String
		p.Totals = priceFromNull(totals)
		p.Items = []catalog.ProductItem{}
		byPosition[pos] = len(products)
		products = append(products, p)
	}
	if err = rows.Close(); err != nil {
		return nil, false, failed(err)
	}

	itemRows, err := tx.QueryContext(ctx, `SELECT product_position, name, price, amount, url FROM items ORDER BY product_position, idx`)
	if err != nil {
		return nil, false, failed(err)
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var (
			pos       int
			name, url sql.NullString
			price     sql.NullFloat64
			amount    int
		)
		if err = itemRows.Scan(&pos, &name, &price, &amount, &url); err != nil {
			return nil, false, failed(err)
		}
		// Items of an occurrence overwritten by a later duplicate id have no
		// product row left at their position.
		i, found := byPosition[pos]
		if !found {
			continue
		}
		products[i].Items = append(products[i].Items, catalog.ProductItem{
			Name:   name.String,
			Price:  priceFromNull(price),
			Amount: catalog.Quantity(amount),
			URL:    url.String,
		})
	}
	if err = itemRows.Err(); err != nil {
		return nil, false, failed(err)
	}
	return products, true, nil
}

// ItemsFor returns the normalized items stored for a product id in their
// original order, without reading the rest of the catalog.
func (d *DB) ItemsFor(ctx context.Context, productID string) ([]catalog.NormalizedItem, error) {
	if d == nil || d.sql == nil {
		return nil, catalog.ErrStorageUnavailable
	}
	rows, err := d.sql.QueryContext(ctx, `SELECT idx, name, price, amount, url FROM items WHERE product_id = ? ORDER BY product_position, idx`, productID)
	if err != nil {
		return nil, failed(err)
	}
	defer rows.Close()

	var out []catalog.NormalizedItem
	for rows.Next() {
		var (
			n         catalog.NormalizedItem
			name, url sql.NullString
			price     sql.NullFloat64
			amount    int
		)
		if err := rows.Scan(&n.Index, &name, &price, &amount, &url); err != nil {
			return nil, failed(err)
		}
		n.ProductID = productID
		n.Name = name.String
		n.Price = priceFromNull(price)
		n.Amount = catalog.Quantity(amount)
		n.URL = url.String
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, failed(err)
	}
	return out, nil
}

// Counts returns the stored product and item counts.
func (d *DB) Counts(ctx context.Context) (*catalog.Counts, error) {
	if d == nil || d.sql == nil {
		return nil, catalog.ErrStorageUnavailable
	}
	var c catalog.Counts
	err := d.sql.QueryRowContext(ctx, `SELECT (SELECT COUNT(*) FROM products), (SELECT COUNT(*) FROM items)`).Scan(&c.Products, &c.Items)
	if err != nil {
		return nil, failed(err)
	}
	return &c, nil
}

// Clear removes every product, item and metadata row. Favorites are kept.
func (d *DB) Clear(ctx context.Context) (err error) {
	if d == nil || d.sql == nil {
		return catalog.ErrStorageUnavailable
	}
	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return failed(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			err = failed(err)
		}
	}()
	for _, table := range []string{"products", "items", "meta"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Provenance returns the provenance tag of the stored catalog, if any.
func (d *DB) Provenance(ctx context.Context) (catalog.Provenance, bool, error) {
	if d == nil || d.sql == nil {
		return "", false, catalog.ErrStorageUnavailable
	}
	var value string
	err := d.sql.QueryRowContext(ctx, `SELECT value FROM meta WHERE name = ?`, metaProvenance).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, failed(err)
	}
	prov, ok := catalog.ParseProvenance(value)
	return prov, ok, nil
}

// Metadata returns everything recorded about the stored catalog, or nil when
// nothing has been ingested.
func (d *DB) Metadata(ctx context.Context) (*catalog.Metadata, error) {
	if d == nil || d.sql == nil {
		return nil, catalog.ErrStorageUnavailable
	}
	rows, err := d.sql.QueryContext(ctx, `SELECT name, value FROM meta`)
	if err != nil {
		return nil, failed(err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, failed(err)
		}
		values[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, failed(err)
	}
	if _, ok := values[metaLastIngestedAt]; !ok {
		return nil, nil
	}

	m := &catalog.Metadata{IngestID: values[metaIngestID], SchemaVersion: SchemaVersion}
	if t, perr := time.Parse(time.RFC3339Nano, values[metaLastIngestedAt]); perr == nil {
		m.LastIngestedAt = t
	}
	m.Provenance, _ = catalog.ParseProvenance(values[metaProvenance])
	m.Counts.Products, _ = strconv.Atoi(values[metaProductCount])
	m.Counts.Items, _ = strconv.Atoi(values[metaItemCount])
	return m, nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", catalog.ErrStorageUnavailable, err)
}

func failed(err error) error {
	if errors.Is(err, catalog.ErrTransactionFailed) || errors.Is(err, catalog.ErrStorageUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", catalog.ErrTransactionFailed, err)
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullIfNotFinite(p catalog.Price) interface{} {
	if !p.Finite() {
		return nil
	}
	return p.Float()
}

func priceFromNull(f sql.NullFloat64) catalog.Price {
	if !f.Valid {
		return catalog.Price(math.NaN())
	}
	return catalog.Price(f.Float64)
}
