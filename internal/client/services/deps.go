package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/snaplog/internal/client/client"
	"github.com/dmitrijs2005/snaplog/internal/client/models"
)

// Remote is the part of remote.Store the services use.
type Remote interface {
	ListObjects(ctx context.Context, folderID string) ([]models.RemoteObject, error)
	UploadObject(ctx context.Context, data []byte, parentID, name, mimeType string, onProgress func(float64)) (string, error)
	DeleteObject(ctx context.Context, id string) error
	Download(ctx context.Context, id string) ([]byte, error)
}

type Folders interface {
	Resolve(ctx context.Context) (models.FolderIDs, error)
	Current() (models.FolderIDs, bool)
}

type Connectivity interface {
	IsOnline() bool
}

type Verifier interface {
	VerifyDeletions(ctx context.Context, folderID string, ids []string, maxRetries int) bool
}

// Cache is the part of cache.Cache the services use.
type Cache interface {
	GetFolderIDs(ctx context.Context) (models.FolderIDs, bool, error)

	PutEntry(ctx context.Context, e models.Entry) error
	GetEntry(ctx context.Context, id string) (*models.Entry, bool, error)
	GetAllEntries(ctx context.Context) ([]models.Entry, error)
	DeleteEntry(ctx context.Context, id string) error

	PutInventoryItem(ctx context.Context, item models.InventoryItem) error
	GetInventoryItem(ctx context.Context, id string) (*models.InventoryItem, bool, error)
	GetAllInventoryItems(ctx context.Context) ([]models.InventoryItem, error)
	DeleteInventoryItem(ctx context.Context, id string) error

	PutThumbnail(ctx context.Context, t models.Thumbnail) error
	GetThumbnail(ctx context.Context, id string) (*models.Thumbnail, bool, error)
	DeleteThumbnail(ctx context.Context, id string) error
}

// knownFolders returns the folder ids without touching the remote store when
// offline: first the memoized ids, then the cached record.
func knownFolders(ctx context.Context, folders Folders, cache Cache, online bool) (models.FolderIDs, error) {
	if ids, ok := folders.Current(); ok {
		return ids, nil
	}
	if online {
		return folders.Resolve(ctx)
	}

	ids, ok, err := cache.GetFolderIDs(ctx)
	if err != nil {
		return models.FolderIDs{}, fmt.Errorf("%w: %w", client.ErrLocalDataNotAvailable, err)
	}
	if !ok || !ids.Complete() {
		return models.FolderIDs{}, fmt.Errorf("folders: %w", client.ErrLocalDataNotAvailable)
	}
	return ids, nil
}

func requireOnline(conn Connectivity, op string) error {
	if !conn.IsOnline() {
		return fmt.Errorf("%s: offline: %w", op, client.ErrNetwork)
	}
	return nil
}
