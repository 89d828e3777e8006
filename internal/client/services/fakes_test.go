package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/snaplog/internal/client/cache"
	"github.com/dmitrijs2005/snaplog/internal/client/client"
	"github.com/dmitrijs2005/snaplog/internal/client/deletion"
	"github.com/dmitrijs2005/snaplog/internal/client/models"
)

var testFolders = models.FolderIDs{RootID: "root", InventoryID: "inv", EntriesID: "ent"}

type upload struct {
	parent, name, mimeType string
	data                   []byte
}

type fakeRemote struct {
	mu        sync.Mutex
	objects   map[string][]models.RemoteObject
	content   map[string][]byte
	uploads   []upload
	deleted   []string
	calls     int
	seq       int
	failNames map[string]error
	deleteErr error
	// linger keeps deleted objects in listings
	linger bool
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		objects:   map[string][]models.RemoteObject{},
		content:   map[string][]byte{},
		failNames: map[string]error{},
	}
}

func (f *fakeRemote) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeRemote) ListObjects(ctx context.Context, folderID string) ([]models.RemoteObject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return append([]models.RemoteObject(nil), f.objects[folderID]...), nil
}

func (f *fakeRemote) UploadObject(ctx context.Context, data []byte, parentID, name, mimeType string, onProgress func(float64)) (string, error) {
	f.mu.Lock()
	f.calls++
	err := f.failNames[name]
	f.mu.Unlock()

	if onProgress != nil {
		onProgress(0)
		onProgress(0.5)
	}
	if err != nil {
		return "", err
	}
	if onProgress != nil {
		onProgress(1)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	id := fmt.Sprintf("obj-%d", f.seq)
	f.uploads = append(f.uploads, upload{parent: parentID, name: name, mimeType: mimeType, data: data})
	f.objects[parentID] = append(f.objects[parentID], models.RemoteObject{ID: id, Name: name, MimeType: mimeType})
	f.content[id] = data
	return id, nil
}

func (f *fakeRemote) DeleteObject(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	if f.linger {
		return nil
	}
	for folder, objs := range f.objects {
		kept := objs[:0]
		for _, o := range objs {
			if o.ID != id {
				kept = append(kept, o)
			}
		}
		f.objects[folder] = kept
	}
	return nil
}

func (f *fakeRemote) Download(ctx context.Context, id string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	data, ok := f.content[id]
	if !ok {
		return nil, fmt.Errorf("download %s: %w", id, client.ErrNotFound)
	}
	return data, nil
}

type fakeFolders struct {
	ids      models.FolderIDs
	memo     bool
	resolves int
}

func (f *fakeFolders) Resolve(ctx context.Context) (models.FolderIDs, error) {
	f.resolves++
	f.memo = true
	return f.ids, nil
}

func (f *fakeFolders) Current() (models.FolderIDs, bool) {
	if !f.memo {
		return models.FolderIDs{}, false
	}
	return f.ids, true
}

func (f *fakeFolders) Reset() { f.memo = false }

type online bool

func (o *online) IsOnline() bool { return bool(*o) }

type env struct {
	remote  *fakeRemote
	cache   *cache.Cache
	folders *fakeFolders
	conn    *online
	verify  *deletion.Verifier
}

func newEnv(t *testing.T, isOnline bool) *env {
	t.Helper()
	c := cache.New(filepath.Join(t.TempDir(), "snaplog.db"), nil)
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.Open(context.Background()))

	remote := newFakeRemote()
	conn := online(isOnline)
	return &env{
		remote:  remote,
		cache:   c,
		folders: &fakeFolders{ids: testFolders},
		conn:    &conn,
		verify:  deletion.NewVerifier(remote, deletion.WithDelay(time.Millisecond)),
	}
}

func (e *env) entries() *EntryService {
	return NewEntryService(e.remote, e.cache, e.folders, e.conn, e.verify, 3, nil)
}

func (e *env) inventory() *InventoryService {
	return NewInventoryService(e.remote, e.cache, e.folders, e.conn, e.verify, 3, nil)
}

func (e *env) listing() *ListingService {
	return NewListingService(e.remote, e.cache, e.folders, e.conn, nil)
}
