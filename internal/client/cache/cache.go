// Package cache is the persistent local store of the Snaplog client. It
// groups the folder, entry, inventory and thumbnail partitions behind one
// handle that opens itself on first use.
//
// Each call runs in its own statement or transaction; there is no atomicity
// across calls. Every failure is wrapped with client.ErrCache.
package cache

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/snaplog/internal/client/client"
	"github.com/dmitrijs2005/snaplog/internal/client/models"
	"github.com/dmitrijs2005/snaplog/internal/client/repositories/entries"
	"github.com/dmitrijs2005/snaplog/internal/client/repositories/folders"
	"github.com/dmitrijs2005/snaplog/internal/client/repositories/inventory"
	"github.com/dmitrijs2005/snaplog/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/snaplog/internal/client/repositories/thumbnails"
	"github.com/dmitrijs2005/snaplog/internal/common"
	"github.com/dmitrijs2005/snaplog/internal/dbx"
	"github.com/dmitrijs2005/snaplog/internal/logging"
)

type Cache struct {
	dsn string
	log logging.Logger

	mu  sync.Mutex
	db  *sql.DB
	rep repos
}

type repos struct {
	folders    folders.Repository
	entries    entries.Repository
	inventory  inventory.Repository
	thumbnails thumbnails.Repository
	metadata   metadata.Repository
}

func newRepos(db dbx.DBTX) repos {
	return repos{
		folders:    folders.NewSQLiteRepository(db),
		entries:    entries.NewSQLiteRepository(db),
		inventory:  inventory.NewSQLiteRepository(db),
		thumbnails: thumbnails.NewSQLiteRepository(db),
		metadata:   metadata.NewSQLiteRepository(db),
	}
}

// New returns a cache for the SQLite database at dsn. Nothing is opened
// until Open or the first operation.
func New(dsn string, log logging.Logger) *Cache {
	if log == nil {
		log = logging.NewNop()
	}
	return &Cache{dsn: dsn, log: log.With("component", "cache")}
}

// Open creates the store if needed and migrates it. Calling it again is a
// no-op; a failed Open may be retried.
func (c *Cache) Open(ctx context.Context) error {
	_, err := c.ready(ctx)
	return err
}

func (c *Cache) ready(ctx context.Context) (repos, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return c.rep, nil
	}

	db, err := client.InitDatabase(ctx, c.dsn)
	if err != nil {
		c.log.Error(ctx, "cache setup failed", "dsn", c.dsn, "error", err)
		return repos{}, wrap("open", err)
	}
	c.db = db
	c.rep = newRepos(db)
	c.log.Debug(ctx, "cache ready", "dsn", c.dsn)
	return c.rep, nil
}

func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	c.rep = repos{}
	return err
}

func wrap(op string, err error) error {
	return fmt.Errorf("cache %s: %w: %w", op, client.ErrCache, err)
}

// Folders

func (c *Cache) PutFolderIDs(ctx context.Context, ids models.FolderIDs) error {
	r, err := c.ready(ctx)
	if err != nil {
		return err
	}
	if err := r.folders.Put(ctx, common.FolderIDsKey, ids); err != nil {
		return wrap("put folder ids", err)
	}
	return nil
}

// GetFolderIDs returns false when no record was stored yet.
func (c *Cache) GetFolderIDs(ctx context.Context) (models.FolderIDs, bool, error) {
	r, err := c.ready(ctx)
	if err != nil {
		return models.FolderIDs{}, false, err
	}
	ids, ok, err := r.folders.Get(ctx, common.FolderIDsKey)
	if err != nil {
		return models.FolderIDs{}, false, wrap("get folder ids", err)
	}
	return ids, ok, nil
}

// Entries

func (c *Cache) PutEntry(ctx context.Context, e models.Entry) error {
	r, err := c.ready(ctx)
	if err != nil {
		return err
	}
	if err := r.entries.Put(ctx, e); err != nil {
		return wrap("put entry", err)
	}
	return nil
}

func (c *Cache) GetEntry(ctx context.Context, id string) (*models.Entry, bool, error) {
	r, err := c.ready(ctx)
	if err != nil {
		return nil, false, err
	}
	e, err := r.entries.Get(ctx, id)
	if err != nil {
		return nil, false, wrap("get entry", err)
	}
	return e, e != nil, nil
}

func (c *Cache) GetAllEntries(ctx context.Context) ([]models.Entry, error) {
	r, err := c.ready(ctx)
	if err != nil {
		return nil, err
	}
	all, err := r.entries.GetAll(ctx)
	if err != nil {
		return nil, wrap("get entries", err)
	}
	return all, nil
}

func (c *Cache) DeleteEntry(ctx context.Context, id string) error {
	r, err := c.ready(ctx)
	if err != nil {
		return err
	}
	if err := r.entries.Delete(ctx, id); err != nil {
		return wrap("delete entry", err)
	}
	return nil
}

func (c *Cache) CountEntries(ctx context.Context) (int, error) {
	r, err := c.ready(ctx)
	if err != nil {
		return 0, err
	}
	n, err := r.entries.Count(ctx)
	if err != nil {
		return 0, wrap("count entries", err)
	}
	return n, nil
}

// Inventory

func (c *Cache) PutInventoryItem(ctx context.Context, item models.InventoryItem) error {
	r, err := c.ready(ctx)
	if err != nil {
		return err
	}
	if err := r.inventory.Put(ctx, item); err != nil {
		return wrap("put inventory item", err)
	}
	return nil
}

func (c *Cache) GetInventoryItem(ctx context.Context, id string) (*models.InventoryItem, bool, error) {
	r, err := c.ready(ctx)
	if err != nil {
		return nil, false, err
	}
	item, err := r.inventory.Get(ctx, id)
	if err != nil {
		return nil, false, wrap("get inventory item", err)
	}
	return item, item != nil, nil
}

func (c *Cache) GetAllInventoryItems(ctx context.Context) ([]models.InventoryItem, error) {
	r, err := c.ready(ctx)
	if err != nil {
		return nil, err
	}
	all, err := r.inventory.GetAll(ctx)
	if err != nil {
		return nil, wrap("get inventory", err)
	}
	return all, nil
}

func (c *Cache) DeleteInventoryItem(ctx context.Context, id string) error {
	r, err := c.ready(ctx)
	if err != nil {
		return err
	}
	if err := r.inventory.Delete(ctx, id); err != nil {
		return wrap("delete inventory item", err)
	}
	return nil
}

func (c *Cache) CountInventoryItems(ctx context.Context) (int, error) {
	r, err := c.ready(ctx)
	if err != nil {
		return 0, err
	}
	n, err := r.inventory.Count(ctx)
	if err != nil {
		return 0, wrap("count inventory", err)
	}
	return n, nil
}

// Thumbnails

func (c *Cache) PutThumbnail(ctx context.Context, t models.Thumbnail) error {
	r, err := c.ready(ctx)
	if err != nil {
		return err
	}
	if err := r.thumbnails.Put(ctx, t); err != nil {
		return wrap("put thumbnail", err)
	}
	return nil
}

func (c *Cache) GetThumbnail(ctx context.Context, id string) (*models.Thumbnail, bool, error) {
	r, err := c.ready(ctx)
	if err != nil {
		return nil, false, err
	}
	t, err := r.thumbnails.Get(ctx, id)
	if err != nil {
		return nil, false, wrap("get thumbnail", err)
	}
	return t, t != nil, nil
}

func (c *Cache) DeleteThumbnail(ctx context.Context, id string) error {
	r, err := c.ready(ctx)
	if err != nil {
		return err
	}
	if err := r.thumbnails.Delete(ctx, id); err != nil {
		return wrap("delete thumbnail", err)
	}
	return nil
}

// Metadata

func (c *Cache) GetMetadata(ctx context.Context, key string) ([]byte, bool, error) {
	r, err := c.ready(ctx)
	if err != nil {
		return nil, false, err
	}
	v, ok, err := r.metadata.Get(ctx, key)
	if err != nil {
		return nil, false, wrap("get metadata", err)
	}
	return v, ok, nil
}

func (c *Cache) SetMetadata(ctx context.Context, key string, value []byte) error {
	r, err := c.ready(ctx)
	if err != nil {
		return err
	}
	if err := r.metadata.Set(ctx, key, value); err != nil {
		return wrap("set metadata", err)
	}
	return nil
}

func (c *Cache) DeleteMetadata(ctx context.Context, key string) error {
	r, err := c.ready(ctx)
	if err != nil {
		return err
	}
	if err := r.metadata.Delete(ctx, key); err != nil {
		return wrap("delete metadata", err)
	}
	return nil
}

// Clear wipes the folder, entry, inventory and thumbnail partitions in one
// transaction. Metadata is left alone.
func (c *Cache) Clear(ctx context.Context) error {
	if _, err := c.ready(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	db := c.db
	c.mu.Unlock()
	if db == nil {
		return wrap("clear", sql.ErrConnDone)
	}

	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		r := newRepos(tx)
		if err := r.folders.Clear(ctx); err != nil {
			return err
		}
		if err := r.entries.Clear(ctx); err != nil {
			return err
		}
		if err := r.inventory.Clear(ctx); err != nil {
			return err
		}
		return r.thumbnails.Clear(ctx)
	})
	if err != nil {
		return wrap("clear", err)
	}
	c.log.Info(ctx, "cache cleared")
	return nil
}
