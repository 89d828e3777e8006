package entries

import (
	"context"

	"github.com/dmitrijs2005/snaplog/internal/client/models"
)

type Repository interface {
	// Put inserts the entry or replaces the record with the same id.
	Put(ctx context.Context, e models.Entry) error

	// Get returns nil, nil when no record with id exists.
	Get(ctx context.Context, id string) (*models.Entry, error)

	GetAll(ctx context.Context) ([]models.Entry, error)

	// Delete is a no-op for absent ids.
	Delete(ctx context.Context, id string) error

	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}
