package thumbnails

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

func (r *SQLiteRepository) Put(ctx context.Context, t models.Thumbnail) error {
	data := t.Data
	if data == nil {
		data = []byte{}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO thumbnails (id, data) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data
	`, t.ID, data)
	if err != nil {
		return fmt.Errorf("failed to upsert thumbnail %s: %w", t.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.Thumbnail, error) {
	t := models.Thumbnail{ID: id}
	err := r.db.QueryRowContext(ctx, `SELECT data FROM thumbnails WHERE id = ?`, id).Scan(&t.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get thumbnail %s: %w", id, err)
	}
	return &t, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM thumbnails WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete thumbnail %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM thumbnails`); err != nil {
		return fmt.Errorf("failed to clear thumbnails: %w", err)
	}
	return nil
}
