// Package inventory provides the cache partition for uploaded inventory
// items, keyed by remote object id.
package inventory

import (
	"context"

	"github.com/dmitrijs2005/snaplog/internal/client/models"
)

type Repository interface {
	Put(ctx context.Context, item models.InventoryItem) error
	// Get returns nil, nil when no item with id exists.
	Get(ctx context.Context, id string) (*models.InventoryItem, error)
	GetAll(ctx context.Context) ([]models.InventoryItem, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}
