// Package auth keeps the OAuth2 session of the Snaplog client. The token is
// persisted in the local metadata store and refreshed on demand; listeners
// are told whenever the user signs in or out.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/oauth2"

	"github.com/dmitrijs2005/snaplog/internal/client/client"
	"github.com/dmitrijs2005/snaplog/internal/logging"
)

// TokenKey is the metadata key the token is stored under.
const TokenKey = "oauth_token"

type TokenStore interface {
	GetMetadata(ctx context.Context, key string) ([]byte, bool, error)
	SetMetadata(ctx context.Context, key string, value []byte) error
	DeleteMetadata(ctx context.Context, key string) error
}

type Option func(*Provider)

func WithLogger(l logging.Logger) Option {
	return func(p *Provider) { p.log = l }
}

// Provider is an oauth2.TokenSource that stores every new token it obtains.
type Provider struct {
	cfg   *oauth2.Config
	store TokenStore
	log   logging.Logger
	ctx   context.Context

	mu     sync.Mutex
	token  *oauth2.Token
	source oauth2.TokenSource

	subMu  sync.Mutex
	subs   map[int]func(bool)
	nextID int
}

func NewProvider(cfg *oauth2.Config, store TokenStore, opts ...Option) *Provider {
	p := &Provider{
		cfg:   cfg,
		store: store,
		log:   logging.NewNop(),
		ctx:   context.Background(),
		subs:  map[int]func(bool){},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.With("component", "auth")
	return p
}

// Load restores a previously stored token. A missing token is not an error;
// an unreadable one is discarded.
func (p *Provider) Load(ctx context.Context) error {
	raw, ok, err := p.store.GetMetadata(ctx, TokenKey)
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}
	if !ok {
		return nil
	}

	tok := new(oauth2.Token)
	if err := json.Unmarshal(raw, tok); err != nil {
		p.log.Warn(ctx, "stored token is unreadable, discarding", "error", err)
		return p.store.DeleteMetadata(ctx, TokenKey)
	}

	p.mu.Lock()
	p.token = tok
	p.source = nil
	p.mu.Unlock()

	p.notify(p.IsAuthenticated())
	return nil
}

// IsAuthenticated reports whether a usable or refreshable token is held.
func (p *Provider) IsAuthenticated() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return usable(p.token)
}

func usable(t *oauth2.Token) bool {
	return t != nil && (t.Valid() || t.RefreshToken != "")
}

func (p *Provider) AuthCodeURL(state string) string {
	return p.cfg.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange completes sign-in with an authorization code.
func (p *Provider) Exchange(ctx context.Context, code string) error {
	tok, err := p.cfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("%w: code exchange: %w", client.ErrAuth, err)
	}
	if err := p.persist(ctx, tok); err != nil {
		return err
	}

	p.mu.Lock()
	p.token = tok
	p.source = nil
	p.mu.Unlock()

	p.log.Info(ctx, "signed in")
	p.notify(true)
	return nil
}

// Token returns a valid access token, refreshing and storing it when it has
// expired. A refresh the identity provider rejects signs the user out.
func (p *Provider) Token() (*oauth2.Token, error) {
	p.mu.Lock()

	if !usable(p.token) {
		p.mu.Unlock()
		return nil, fmt.Errorf("%w: not signed in", client.ErrAuth)
	}
	if p.source == nil {
		p.source = p.cfg.TokenSource(p.ctx, p.token)
	}

	tok, err := p.source.Token()
	if err != nil {
		p.mu.Unlock()

		var rErr *oauth2.RetrieveError
		if errors.As(err, &rErr) {
			p.log.Warn(p.ctx, "token refresh rejected, signing out", "error", err)
			if sErr := p.SignOut(p.ctx); sErr != nil {
				p.log.Error(p.ctx, "sign out after rejected refresh failed", "error", sErr)
			}
			return nil, fmt.Errorf("%w: %w", client.ErrAuth, err)
		}
		return nil, fmt.Errorf("couldn't fetch token: %w", err)
	}

	changed := tok.AccessToken != p.token.AccessToken ||
		tok.RefreshToken != p.token.RefreshToken ||
		!tok.Expiry.Equal(p.token.Expiry)
	p.token = tok
	p.mu.Unlock()

	if changed {
		if err := p.persist(p.ctx, tok); err != nil {
			p.log.Warn(p.ctx, "storing refreshed token failed", "error", err)
		}
	}
	return tok, nil
}

// SignOut forgets the token locally and in the store.
func (p *Provider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	was := p.token != nil
	p.token = nil
	p.source = nil
	p.mu.Unlock()

	if err := p.store.DeleteMetadata(ctx, TokenKey); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	if was {
		p.log.Info(ctx, "signed out")
		p.notify(false)
	}
	return nil
}

// Subscribe registers fn for sign-in (true) and sign-out (false)
// notifications. The returned function removes it.
func (p *Provider) Subscribe(fn func(authenticated bool)) func() {
	p.subMu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	p.subMu.Unlock()

	return func() {
		p.subMu.Lock()
		delete(p.subs, id)
		p.subMu.Unlock()
	}
}

func (p *Provider) notify(authenticated bool) {
	p.subMu.Lock()
	fns := make([]func(bool), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.subMu.Unlock()

	for _, fn := range fns {
		fn(authenticated)
	}
}

func (p *Provider) persist(ctx context.Context, tok *oauth2.Token) error {
	raw, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := p.store.SetMetadata(ctx, TokenKey, raw); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}
