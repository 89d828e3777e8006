// Package syncer keeps the local cache loosely in step with the remote store.
//
// Reconciliation is insert-only: remote items without a cache record are
// added, nothing is ever pruned, and failures are logged and reported to the
// Observer instead of being returned.
package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/snaplog/internal/client/models"
	"github.com/dmitrijs2005/snaplog/internal/logging"
)

type Lister interface {
	ListObjects(ctx context.Context, folderID string) ([]models.RemoteObject, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type FolderSource interface {
	Resolve(ctx context.Context) (models.FolderIDs, error)
}

type Cache interface {
	GetEntry(ctx context.Context, id string) (*models.Entry, bool, error)
	PutEntry(ctx context.Context, e models.Entry) error
	CountEntries(ctx context.Context) (int, error)

	GetInventoryItem(ctx context.Context, id string) (*models.InventoryItem, bool, error)
	PutInventoryItem(ctx context.Context, item models.InventoryItem) error
	CountInventoryItems(ctx context.Context) (int, error)
}

type Option func(*Coordinator)

func WithLogger(l logging.Logger) Option {
	return func(c *Coordinator) { c.log = l }
}

func WithObserver(o Observer) Option {
	return func(c *Coordinator) { c.obs = o }
}

// WithIntervals sets how often Run refreshes the status and probes
// connectivity. Non-positive values keep the defaults.
func WithIntervals(status, onlineCheck time.Duration) Option {
	return func(c *Coordinator) {
		if status > 0 {
			c.syncInterval = status
		}
		if onlineCheck > 0 {
			c.onlineCheckInterval = onlineCheck
		}
	}
}

type Coordinator struct {
	remote  Lister
	cache   Cache
	folders FolderSource

	log logging.Logger
	obs Observer
	now func() time.Time

	syncInterval        time.Duration
	onlineCheckInterval time.Duration

	syncMu sync.Mutex

	mu       sync.RWMutex
	online   bool
	lastSync time.Time
}

func New(remote Lister, cache Cache, folders FolderSource, opts ...Option) *Coordinator {
	c := &Coordinator{
		remote:              remote,
		cache:               cache,
		folders:             folders,
		log:                 logging.NewNop(),
		obs:                 nopObserver{},
		now:                 time.Now,
		syncInterval:        30 * time.Second,
		onlineCheckInterval: 3 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With("component", "syncer")
	return c
}

func (c *Coordinator) emit(e Event) {
	e.Time = c.now()
	c.obs.OnSyncEvent(e)
}

func (c *Coordinator) IsOnline() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.online
}

// LastSyncTime is the end of the last pass in which both folders were
// listed. It is zero before the first such pass.
func (c *Coordinator) LastSyncTime() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastSync
}

// SetOnline records connectivity. Going from offline to online runs a sync
// pass before returning.
func (c *Coordinator) SetOnline(ctx context.Context, online bool) {
	c.mu.Lock()
	prev := c.online
	c.online = online
	c.mu.Unlock()

	if prev == online {
		return
	}

	c.log.Info(ctx, "connectivity changed", "online", online)
	c.emit(Event{Kind: ConnectivityChanged, Online: online})

	if online {
		c.SyncOnce(ctx)
	}
}

// SyncOnce inserts every remote entry and inventory item that has no cache
// record yet. Passes are serialized.
func (c *Coordinator) SyncOnce(ctx context.Context) {
	c.syncMu.Lock()
	defer c.syncMu.Unlock()

	c.emit(Event{Kind: SyncStarted})

	ids, err := c.folders.Resolve(ctx)
	if err != nil {
		c.log.Warn(ctx, "sync skipped, folders unavailable", "error", err)
		c.emit(Event{Kind: SyncFailed, Err: err})
		return
	}

	entries, entriesErr := c.syncEntries(ctx, ids.EntriesID)
	if entriesErr != nil {
		c.log.Warn(ctx, "entries sync failed", "folder", ids.EntriesID, "error", entriesErr)
		c.emit(Event{Kind: SyncFailed, Folder: ids.EntriesID, Err: entriesErr})
	}

	items, itemsErr := c.syncInventory(ctx, ids.InventoryID)
	if itemsErr != nil {
		c.log.Warn(ctx, "inventory sync failed", "folder", ids.InventoryID, "error", itemsErr)
		c.emit(Event{Kind: SyncFailed, Folder: ids.InventoryID, Err: itemsErr})
	}

	if entriesErr != nil || itemsErr != nil {
		return
	}

	c.mu.Lock()
	c.lastSync = c.now()
	c.mu.Unlock()

	c.log.Info(ctx, "sync finished", "entries_inserted", entries, "items_inserted", items)
	c.emit(Event{Kind: SyncSucceeded, Inserted: entries + items})
}

func (c *Coordinator) syncEntries(ctx context.Context, folderID string) (int, error) {
	objs, err := c.remote.ListObjects(ctx, folderID)
	if err != nil {
		return 0, err
	}

	inserted := 0
	for _, obj := range objs {
		if obj.IsFolder() {
			continue
		}
		_, ok, err := c.cache.GetEntry(ctx, obj.ID)
		if err != nil {
			return inserted, err
		}
		if ok {
			continue
		}
		if err := c.cache.PutEntry(ctx, models.EntryFromObject(obj)); err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

func (c *Coordinator) syncInventory(ctx context.Context, folderID string) (int, error) {
	objs, err := c.remote.ListObjects(ctx, folderID)
	if err != nil {
		return 0, err
	}

	inserted := 0
	for _, obj := range objs {
		if obj.IsFolder() {
			continue
		}
		_, ok, err := c.cache.GetInventoryItem(ctx, obj.ID)
		if err != nil {
			return inserted, err
		}
		if ok {
			continue
		}
		if err := c.cache.PutInventoryItem(ctx, models.ItemFromObject(obj)); err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

// Status reports the current state. Counts fall back to zero when the cache
// cannot be read.
func (c *Coordinator) Status(ctx context.Context) Status {
	c.mu.RLock()
	s := Status{Online: c.online, LastSync: c.lastSync}
	c.mu.RUnlock()

	var err error
	if s.Entries, err = c.cache.CountEntries(ctx); err != nil {
		c.log.Warn(ctx, "counting cached entries failed", "error", err)
	}
	if s.Items, err = c.cache.CountInventoryItems(ctx); err != nil {
		c.log.Warn(ctx, "counting cached items failed", "error", err)
	}
	return s
}

func (c *Coordinator) checkConnectivity(ctx context.Context, p Pinger) {
	err := p.Ping(ctx)
	if err != nil && ctx.Err() != nil {
		return
	}
	if err != nil {
		c.log.Debug(ctx, "connectivity probe failed", "error", err)
	}
	c.SetOnline(ctx, err == nil)
}

func (c *Coordinator) refreshStatus(ctx context.Context) {
	s := c.Status(ctx)
	c.emit(Event{Kind: StatusRefreshed, Online: s.Online, Status: s})
}

// Run probes connectivity at the online check interval and refreshes the
// status at the sync interval until ctx is done. The status refresh never
// forces a resync.
func (c *Coordinator) Run(ctx context.Context, p Pinger) {
	check := time.NewTicker(c.onlineCheckInterval)
	defer check.Stop()
	refresh := time.NewTicker(c.syncInterval)
	defer refresh.Stop()

	c.checkConnectivity(ctx, p)

	for {
		select {
		case <-ctx.Done():
			return
		case <-check.C:
			c.checkConnectivity(ctx, p)
		case <-refresh.C:
			c.refreshStatus(ctx)
		}
	}
}
