package auth

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/oauth2"

	"github.com/dmitrijs2005/snaplog/internal/client/client"
)

// StaticProvider serves a fixed access token, for backends with their own
// credentials and for tests. An empty token means signed out.
type StaticProvider struct {
	mu    sync.Mutex
	token string
	subs  map[int]func(bool)
	next  int
}

func Static(accessToken string) *StaticProvider {
	return &StaticProvider{token: accessToken, subs: map[int]func(bool){}}
}

func (s *StaticProvider) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != ""
}

func (s *StaticProvider) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return nil, fmt.Errorf("%w: no static token", client.ErrAuth)
	}
	return &oauth2.Token{AccessToken: s.token, TokenType: "Bearer"}, nil
}

// SignOut drops the token for the rest of the process.
func (s *StaticProvider) SignOut(ctx context.Context) error {
	s.mu.Lock()
	was := s.token != ""
	s.token = ""
	fns := make([]func(bool), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	if was {
		for _, fn := range fns {
			fn(false)
		}
	}
	return nil
}

func (s *StaticProvider) Subscribe(fn func(bool)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}
