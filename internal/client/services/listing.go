package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/snaplog/internal/client/models"
	"github.com/dmitrijs2005/snaplog/internal/logging"
)

// ListingService lists a folder from the remote store when online and from
// the cache when offline.
type ListingService struct {
	remote  Remote
	cache   Cache
	folders Folders
	conn    Connectivity
	log     logging.Logger
}

func NewListingService(remote Remote, cache Cache, folders Folders, conn Connectivity, log logging.Logger) *ListingService {
	if log == nil {
		log = logging.NewNop()
	}
	return &ListingService{remote: remote, cache: cache, folders: folders, conn: conn, log: log.With("service", "listing")}
}

// List returns the objects in folderID. Offline, the entries and inventory
// folders are served from their cache partitions and any other folder is
// empty.
func (s *ListingService) List(ctx context.Context, folderID string) ([]models.RemoteObject, error) {
	if s.conn.IsOnline() {
		return s.remote.ListObjects(ctx, folderID)
	}

	ids, err := knownFolders(ctx, s.folders, s.cache, false)
	if err != nil {
		return nil, err
	}

	switch folderID {
	case ids.EntriesID:
		entries, err := s.cache.GetAllEntries(ctx)
		if err != nil {
			return nil, fmt.Errorf("cached entries: %w", err)
		}
		out := make([]models.RemoteObject, 0, len(entries))
		for _, e := range entries {
			out = append(out, e.Object())
		}
		return out, nil

	case ids.InventoryID:
		items, err := s.cache.GetAllInventoryItems(ctx)
		if err != nil {
			return nil, fmt.Errorf("cached inventory: %w", err)
		}
		out := make([]models.RemoteObject, 0, len(items))
		for _, it := range items {
			out = append(out, it.Object())
		}
		return out, nil

	default:
		s.log.Debug(ctx, "offline listing of an unknown folder", "folder", folderID)
		return []models.RemoteObject{}, nil
	}
}
