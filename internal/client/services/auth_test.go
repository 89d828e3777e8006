package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/snaplog/internal/client/models"
)

type fakeProvider struct {
	mu        sync.Mutex
	signedIn  bool
	subs      map[int]func(bool)
	next      int
	signOutEr error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{signedIn: true, subs: map[int]func(bool){}}
}

func (p *fakeProvider) IsAuthenticated() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.signedIn
}

func (p *fakeProvider) SignOut(ctx context.Context) error {
	if p.signOutEr != nil {
		return p.signOutEr
	}
	p.drop()
	return nil
}

// drop ends the session the way a rejected token refresh does.
func (p *fakeProvider) drop() {
	p.mu.Lock()
	p.signedIn = false
	fns := make([]func(bool), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.mu.Unlock()
	for _, fn := range fns {
		fn(false)
	}
}

func (p *fakeProvider) Subscribe(fn func(bool)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.next
	p.next++
	p.subs[id] = fn
	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

func (p *fakeProvider) subscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

func seed(t *testing.T, e *env) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.cache.PutFolderIDs(ctx, testFolders))
	require.NoError(t, e.cache.PutEntry(ctx, models.Entry{ID: "e1"}))
	e.folders.memo = true
}

func assertWiped(t *testing.T, e *env) {
	t.Helper()
	ctx := context.Background()
	_, ok, err := e.cache.GetFolderIDs(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	entries, err := e.cache.GetAllEntries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
	_, memo := e.folders.Current()
	assert.False(t, memo)
}

func TestAuth_WatchClearsOnProviderSignOut(t *testing.T) {
	e := newEnv(t, true)
	seed(t, e)
	p := newFakeProvider()
	svc := NewAuthService(p, e.cache, e.folders, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Watch(ctx)

	assert.True(t, svc.IsAuthenticated())
	p.drop()
	assert.False(t, svc.IsAuthenticated())
	assertWiped(t, e)
}

func TestAuth_SignOutWithoutWatcherStillClears(t *testing.T) {
	e := newEnv(t, true)
	seed(t, e)
	svc := NewAuthService(newFakeProvider(), e.cache, e.folders, nil)

	require.NoError(t, svc.SignOut(context.Background()))
	assertWiped(t, e)
}

func TestAuth_SignOutErrorKeepsData(t *testing.T) {
	e := newEnv(t, true)
	seed(t, e)
	p := newFakeProvider()
	p.signOutEr = errors.New("store locked")
	svc := NewAuthService(p, e.cache, e.folders, nil)

	require.ErrorIs(t, svc.SignOut(context.Background()), p.signOutEr)
	_, ok, err := e.cache.GetFolderIDs(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAuth_WatchStopsWithContext(t *testing.T) {
	e := newEnv(t, true)
	p := newFakeProvider()
	svc := NewAuthService(p, e.cache, e.folders, nil)

	ctx, cancel := context.WithCancel(context.Background())
	svc.Watch(ctx)
	assert.Equal(t, 1, p.subscribers())

	cancel()
	require.Eventually(t, func() bool { return p.subscribers() == 0 }, time.Second, 5*time.Millisecond)
}
