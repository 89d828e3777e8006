package folders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/snaplog/internal/client/models"
	"github.com/dmitrijs2005/snaplog/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) (models.FolderIDs, bool, error) {
	var ids models.FolderIDs
	err := r.db.QueryRowContext(ctx,
		`SELECT root_id, inventory_id, entries_id FROM folders WHERE key = ?`, key).
		Scan(&ids.RootID, &ids.InventoryID, &ids.EntriesID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.FolderIDs{}, false, nil
	}
	if err != nil {
		return models.FolderIDs{}, false, fmt.Errorf("failed to get folders[%s]: %w", key, err)
	}
	return ids, true, nil
}

func (r *SQLiteRepository) Put(ctx context.Context, key string, ids models.FolderIDs) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO folders (key, root_id, inventory_id, entries_id) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET root_id = excluded.root_id,
			inventory_id = excluded.inventory_id,
			entries_id = excluded.entries_id
	`, key, ids.RootID, ids.InventoryID, ids.EntriesID)
	if err != nil {
		return fmt.Errorf("failed to put folders[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM folders`); err != nil {
		return fmt.Errorf("failed to clear folders: %w", err)
	}
	return nil
}
