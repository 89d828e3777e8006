package entries

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/snaplog/internal/client/models"
	"github.com/dmitrijs2005/snaplog/internal/dbx"
)

// SQLiteRepository implements Repository over a dbx.DBTX.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Put(ctx context.Context, e models.Entry) error {
	ids := e.ImageIDs
	if ids == nil {
		ids = []string{}
	}
	imageIDs, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to encode image ids: %w", err)
	}

	query := `INSERT INTO entries (id, date, image_ids, label, content_link)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET date = excluded.date,
				image_ids = excluded.image_ids,
				label = excluded.label,
				content_link = excluded.content_link`
	if _, err := r.db.ExecContext(ctx, query, e.ID, e.Date, string(imageIDs), e.Label, e.ContentLink); err != nil {
		return fmt.Errorf("failed to upsert entry: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.Entry, error) {
	query := `SELECT id, date, image_ids, label, content_link FROM entries WHERE id = ?`

	e, err := scanEntry(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry %s: %w", id, err)
	}
	return e, nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Entry, error) {
	query := `SELECT id, date, image_ids, label, content_link FROM entries ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	result := make([]models.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		result = append(result, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entries: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete entry %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM entries`); err != nil {
		return fmt.Errorf("failed to clear entries: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*models.Entry, error) {
	var (
		e        models.Entry
		imageIDs string
	)
	if err := s.Scan(&e.ID, &e.Date, &imageIDs, &e.Label, &e.ContentLink); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(imageIDs), &e.ImageIDs); err != nil {
		return nil, fmt.Errorf("decode image ids: %w", err)
	}
	if e.ImageIDs == nil {
		e.ImageIDs = []string{}
	}
	return &e, nil
}
