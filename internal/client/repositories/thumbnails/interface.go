// Package thumbnails provides the cache partition for generated thumbnail
// images. A thumbnail is keyed by the id of the object it was made from.
package thumbnails

import (
	"context"

	"github.com/dmitrijs2005/snaplog/internal/client/models"
)

type Repository interface {
	Put(ctx context.Context, t models.Thumbnail) error
	// Get returns nil, nil when no thumbnail for id exists.
	Get(ctx context.Context, id string) (*models.Thumbnail, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}
