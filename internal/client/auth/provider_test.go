package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/dmitrijs2005/snaplog/internal/client/client"
)

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStore() *memStore { return &memStore{data: map[string][]byte{}} }

func (m *memStore) GetMetadata(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memStore) SetMetadata(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memStore) DeleteMetadata(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memStore) token(t *testing.T) *oauth2.Token {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[TokenKey]
	if !ok {
		return nil
	}
	tok := new(oauth2.Token)
	require.NoError(t, json.Unmarshal(raw, tok))
	return tok
}

// tokenServer answers the token endpoint; reject makes every grant fail.
func tokenServer(t *testing.T, reject bool) *httptest.Server {
	t.Helper()
	var n int
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		if reject {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		mu.Lock()
		n++
		access := fmt.Sprintf("access-%s-%d", r.Form.Get("grant_type"), n)
		mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  access,
			"token_type":    "Bearer",
			"refresh_token": "refresh-1",
			"expires_in":    3600,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(url string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "id",
		ClientSecret: "secret",
		Endpoint: oauth2.Endpoint{
			AuthURL:   url + "/auth",
			TokenURL:  url + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: LoopbackRedirect,
	}
}

func TestProvider_ExchangePersistsAndNotifies(t *testing.T) {
	srv := tokenServer(t, false)
	store := newMemStore()
	p := NewProvider(testConfig(srv.URL), store)

	var states []bool
	unsubscribe := p.Subscribe(func(ok bool) { states = append(states, ok) })
	defer unsubscribe()

	assert.False(t, p.IsAuthenticated())
	require.NoError(t, p.Exchange(context.Background(), "code-1"))
	assert.True(t, p.IsAuthenticated())
	assert.Equal(t, []bool{true}, states)

	tok := store.token(t)
	require.NotNil(t, tok)
	assert.Equal(t, "refresh-1", tok.RefreshToken)

	current, err := p.Token()
	require.NoError(t, err)
	assert.Equal(t, tok.AccessToken, current.AccessToken)
}

func TestProvider_LoadRestoresToken(t *testing.T) {
	store := newMemStore()
	raw, err := json.Marshal(&oauth2.Token{AccessToken: "a", RefreshToken: "r", Expiry: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	store.data[TokenKey] = raw

	p := NewProvider(testConfig("http://unused"), store)
	require.NoError(t, p.Load(context.Background()))
	assert.True(t, p.IsAuthenticated())

	current, err := p.Token()
	require.NoError(t, err)
	assert.Equal(t, "a", current.AccessToken)
}

func TestProvider_LoadDiscardsGarbage(t *testing.T) {
	store := newMemStore()
	store.data[TokenKey] = []byte("{not json")

	p := NewProvider(testConfig("http://unused"), store)
	require.NoError(t, p.Load(context.Background()))
	assert.False(t, p.IsAuthenticated())
	assert.NotContains(t, store.data, TokenKey)
}

func TestProvider_RefreshesExpiredTokenAndStoresIt(t *testing.T) {
	srv := tokenServer(t, false)
	store := newMemStore()
	raw, err := json.Marshal(&oauth2.Token{AccessToken: "old", RefreshToken: "refresh-0", Expiry: time.Now().Add(-time.Hour)})
	require.NoError(t, err)
	store.data[TokenKey] = raw

	p := NewProvider(testConfig(srv.URL), store)
	require.NoError(t, p.Load(context.Background()))
	require.True(t, p.IsAuthenticated(), "an expired token with a refresh token is usable")

	tok, err := p.Token()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(tok.AccessToken, "access-refresh_token"))
	assert.Equal(t, tok.AccessToken, store.token(t).AccessToken)
}

func TestProvider_RejectedRefreshSignsOut(t *testing.T) {
	srv := tokenServer(t, true)
	store := newMemStore()
	raw, err := json.Marshal(&oauth2.Token{AccessToken: "old", RefreshToken: "revoked", Expiry: time.Now().Add(-time.Hour)})
	require.NoError(t, err)
	store.data[TokenKey] = raw

	p := NewProvider(testConfig(srv.URL), store)
	require.NoError(t, p.Load(context.Background()))

	var states []bool
	p.Subscribe(func(ok bool) { states = append(states, ok) })

	_, err = p.Token()
	require.ErrorIs(t, err, client.ErrAuth)
	assert.False(t, p.IsAuthenticated())
	assert.Nil(t, store.token(t))
	assert.Equal(t, []bool{false}, states)
}

func TestProvider_SignOut(t *testing.T) {
	store := newMemStore()
	raw, err := json.Marshal(&oauth2.Token{AccessToken: "a", Expiry: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	store.data[TokenKey] = raw

	p := NewProvider(testConfig("http://unused"), store)
	require.NoError(t, p.Load(context.Background()))

	var states []bool
	unsubscribe := p.Subscribe(func(ok bool) { states = append(states, ok) })

	require.NoError(t, p.SignOut(context.Background()))
	assert.False(t, p.IsAuthenticated())
	assert.NotContains(t, store.data, TokenKey)

	_, err = p.Token()
	require.ErrorIs(t, err, client.ErrAuth)

	// a second sign out is silent
	require.NoError(t, p.SignOut(context.Background()))
	unsubscribe()
	assert.Equal(t, []bool{false}, states)
}

func TestProvider_AuthCodeURL(t *testing.T) {
	p := NewProvider(testConfig("https://idp.example"), newMemStore())
	u := p.AuthCodeURL("state-1")

	assert.True(t, strings.HasPrefix(u, "https://idp.example/auth?"))
	assert.Contains(t, u, "state=state-1")
	assert.Contains(t, u, "access_type=offline")
}

func TestStatic(t *testing.T) {
	s := Static("tok")
	assert.True(t, s.IsAuthenticated())
	tok, err := s.Token()
	require.NoError(t, err)
	assert.Equal(t, "tok", tok.AccessToken)

	empty := Static("")
	assert.False(t, empty.IsAuthenticated())
	_, err = empty.Token()
	require.ErrorIs(t, err, client.ErrAuth)
}

func TestStatic_SignOutNotifiesOnce(t *testing.T) {
	s := Static("tok")
	var states []bool
	unsubscribe := s.Subscribe(func(ok bool) { states = append(states, ok) })
	defer unsubscribe()

	require.NoError(t, s.SignOut(context.Background()))
	require.NoError(t, s.SignOut(context.Background()))

	assert.False(t, s.IsAuthenticated())
	assert.Equal(t, []bool{false}, states)
}

func TestGoogleConfig(t *testing.T) {
	cfg := GoogleConfig("id", "secret")
	assert.Equal(t, "id", cfg.ClientID)
	assert.Equal(t, LoopbackRedirect, cfg.RedirectURL)
	assert.NotEmpty(t, cfg.Scopes)
	assert.Contains(t, cfg.Endpoint.TokenURL, "google")
}
