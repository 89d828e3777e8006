// Package folders resolves, and creates when missing, the three-level remote
// folder layout: an application root holding an inventory folder and an
// entries folder.
package folders

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrijs2005/snaplog/internal/client/models"
	"github.com/dmitrijs2005/snaplog/internal/common"
	"github.com/dmitrijs2005/snaplog/internal/logging"
)

// RemoteFolders is the part of the remote store the resolver needs.
type RemoteFolders interface {
	ListFolders(ctx context.Context, parentID string) ([]models.RemoteObject, error)
	CreateFolder(ctx context.Context, name, parentID string) (string, error)
}

// FolderCache persists the resolved ids.
type FolderCache interface {
	GetFolderIDs(ctx context.Context) (models.FolderIDs, bool, error)
	PutFolderIDs(ctx context.Context, ids models.FolderIDs) error
}

// Names are the display names searched for and created on the remote.
type Names struct {
	Root      string
	Inventory string
	Entries   string
}

type Resolver struct {
	store RemoteFolders
	cache FolderCache
	names Names
	log   logging.Logger

	group singleflight.Group

	mu   sync.RWMutex
	memo models.FolderIDs
}

func NewResolver(store RemoteFolders, cache FolderCache, names Names, log logging.Logger) *Resolver {
	if log == nil {
		log = logging.NewNop()
	}
	return &Resolver{
		store: store,
		cache: cache,
		names: names,
		log:   log.With("component", "folders"),
	}
}

// Current returns the memoized ids, if a resolution has completed.
func (r *Resolver) Current() (models.FolderIDs, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.memo, r.memo.Complete()
}

// Reset forgets the memoized ids. The cached record is left to the caller.
func (r *Resolver) Reset() {
	r.mu.Lock()
	r.memo = models.FolderIDs{}
	r.mu.Unlock()
}

// Resolve returns the folder ids, creating whatever is missing on the remote.
// Concurrent callers share a single resolution. The shared work is detached
// from any one caller's cancellation; each caller stops waiting when its own
// ctx is done.
func (r *Resolver) Resolve(ctx context.Context) (models.FolderIDs, error) {
	if ids, ok := r.Current(); ok {
		return ids, nil
	}

	shared := context.WithoutCancel(ctx)
	ch := r.group.DoChan("resolve", func() (any, error) {
		if ids, ok := r.Current(); ok {
			return ids, nil
		}
		ids, err := r.resolveOnce(shared)
		if err != nil {
			return models.FolderIDs{}, err
		}
		r.mu.Lock()
		r.memo = ids
		r.mu.Unlock()
		return ids, nil
	})

	select {
	case <-ctx.Done():
		return models.FolderIDs{}, fmt.Errorf("failed to resolve folders: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return models.FolderIDs{}, res.Err
		}
		if res.Shared {
			r.log.Debug(ctx, "joined in-flight folder resolution")
		}
		return res.Val.(models.FolderIDs), nil
	}
}

// resolveOnce performs one resolution without any guard against concurrent
// callers. Two overlapping calls on a cold cache may both create folders.
func (r *Resolver) resolveOnce(ctx context.Context) (models.FolderIDs, error) {
	ids, ok, err := r.cache.GetFolderIDs(ctx)
	if err != nil {
		r.log.Warn(ctx, "reading cached folder ids failed, resolving remotely", "error", err)
		ids, ok = models.FolderIDs{}, false
	}
	if ok && ids.Complete() {
		return ids, nil
	}

	if ids.RootID == "" {
		top, err := r.store.ListFolders(ctx, common.RemoteRootID)
		if err != nil {
			return models.FolderIDs{}, fmt.Errorf("failed to list top-level folders: %w", err)
		}
		id, err := r.findOrCreate(ctx, common.RemoteRootID, r.names.Root, top)
		if err != nil {
			return models.FolderIDs{}, err
		}
		// a partial record lets an interrupted bootstrap resume at the subfolders
		ids = models.FolderIDs{RootID: id}
		r.persist(ctx, ids)
	}

	if ids.InventoryID == "" || ids.EntriesID == "" {
		children, err := r.store.ListFolders(ctx, ids.RootID)
		if err != nil {
			return models.FolderIDs{}, fmt.Errorf("failed to list %s: %w", r.names.Root, err)
		}

		if ids.InventoryID == "" {
			if ids.InventoryID, err = r.findOrCreate(ctx, ids.RootID, r.names.Inventory, children); err != nil {
				return models.FolderIDs{}, err
			}
		}
		if ids.EntriesID == "" {
			if ids.EntriesID, err = r.findOrCreate(ctx, ids.RootID, r.names.Entries, children); err != nil {
				return models.FolderIDs{}, err
			}
		}
	}

	r.persist(ctx, ids)
	r.log.Info(ctx, "folders resolved", "root", ids.RootID, "inventory", ids.InventoryID, "entries", ids.EntriesID)
	return ids, nil
}

// findOrCreate looks name up among the listed children of parentID and
// creates the folder only when it is absent.
func (r *Resolver) findOrCreate(ctx context.Context, parentID, name string, children []models.RemoteObject) (string, error) {
	for _, c := range children {
		if c.Name == name && c.IsFolder() {
			return c.ID, nil
		}
	}

	id, err := r.store.CreateFolder(ctx, name, parentID)
	if err != nil {
		return "", fmt.Errorf("failed to create folder %s: %w", name, err)
	}
	r.log.Info(ctx, "folder created", "name", name, "id", id)
	return id, nil
}

func (r *Resolver) persist(ctx context.Context, ids models.FolderIDs) {
	if err := r.cache.PutFolderIDs(ctx, ids); err != nil {
		r.log.Warn(ctx, "caching folder ids failed", "error", err)
	}
}
