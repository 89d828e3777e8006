// Package folders provides the cache partition for resolved folder ids.
// The application stores a single record under common.FolderIDsKey, which
// may be partial while a bootstrap is still in progress.
package folders

import (
	"context"

	"github.com/dmitrijs2005/snaplog/internal/client/models"
)

type Repository interface {
	// Get returns the zero value and false when key is absent.
	Get(ctx context.Context, key string) (models.FolderIDs, bool, error)
	Put(ctx context.Context, key string, ids models.FolderIDs) error
	Clear(ctx context.Context) error
}
