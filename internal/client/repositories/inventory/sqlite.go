package inventory

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

func (r *SQLiteRepository) Put(ctx context.Context, item models.InventoryItem) error {
	query := `INSERT INTO inventory (id, name, mime_type, content_link)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name,
				mime_type = excluded.mime_type,
				content_link = excluded.content_link`
	if _, err := r.db.ExecContext(ctx, query, item.ID, item.Name, item.MimeType, item.ContentLink); err != nil {
		return fmt.Errorf("failed to upsert inventory item: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, mime_type, content_link FROM inventory WHERE id = ?`, id).
		Scan(&item.ID, &item.Name, &item.MimeType, &item.ContentLink)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory item %s: %w", id, err)
	}
	return &item, nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.InventoryItem, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, mime_type, content_link FROM inventory ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to select inventory: %w", err)
	}
	defer rows.Close()

	result := make([]models.InventoryItem, 0)
	for rows.Next() {
		var item models.InventoryItem
		if err := rows.Scan(&item.ID, &item.Name, &item.MimeType, &item.ContentLink); err != nil {
			return nil, fmt.Errorf("failed to scan inventory item: %w", err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate inventory: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM inventory WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete inventory item %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM inventory`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count inventory: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM inventory`); err != nil {
		return fmt.Errorf("failed to clear inventory: %w", err)
	}
	return nil
}
