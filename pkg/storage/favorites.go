package storage

import (
	"context"

	"github.com/wakamono/shokuhi/pkg/catalog"
)

// LoadFavorites returns the favorited product ids in the order they were
// added. Favorites are independent of the catalog and survive ReplaceAll
// and Clear.
func (d *DB) LoadFavorites(ctx context.Context) ([]string, error) {
	if d == nil || d.sql == nil {
		return nil, catalog.ErrStorageUnavailable
	}
	rows, err := d.sql.QueryContext(ctx, "SELECT product_id FROM favorites ORDER BY added_at, rowid")
	if err != nil {
		return nil, failed(err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, failed(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, failed(err)
	}
	return ids, nil
}

func (d *DB) AddFavorite(ctx context.Context, id string) error {
	if d == nil || d.sql == nil {
		return catalog.ErrStorageUnavailable
	}
	if _, err := d.sql.ExecContext(ctx, "INSERT OR IGNORE INTO favorites(product_id, added_at) VALUES(?, CURRENT_TIMESTAMP)", id); err != nil {
		return failed(err)
	}
	return nil
}

func (d *DB) RemoveFavorite(ctx context.Context, id string) error {
	if d == nil || d.sql == nil {
		return catalog.ErrStorageUnavailable
	}
	if _, err := d.sql.ExecContext(ctx, "DELETE FROM favorites WHERE product_id = ?", id); err != nil {
		return failed(err)
	}
	return nil
}

func (d *DB) ClearFavorites(ctx context.Context) error {
	if d == nil || d.sql == nil {
		return catalog.ErrStorageUnavailable
	}
	if _, err := d.sql.ExecContext(ctx, "DELETE FROM favorites"); err != nil {
		return failed(err)
	}
	return nil
}
