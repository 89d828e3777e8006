package services

import (
	"context"
	"sync/atomic"

	"github.com/dmitrijs2005/snaplog/internal/logging"
)

type AuthProvider interface {
	IsAuthenticated() bool
	SignOut(ctx context.Context) error
	Subscribe(fn func(authenticated bool)) (unsubscribe func())
}

type CacheClearer interface {
	Clear(ctx context.Context) error
}

type FolderResetter interface {
	Reset()
}

// AuthService wipes local state when the user signs out, whether through
// SignOut or because the provider dropped the session.
type AuthService struct {
	provider AuthProvider
	cache    CacheClearer
	folders  FolderResetter
	log      logging.Logger

	watching atomic.Bool
}

func NewAuthService(provider AuthProvider, cache CacheClearer, folders FolderResetter, log logging.Logger) *AuthService {
	if log == nil {
		log = logging.NewNop()
	}
	return &AuthService{provider: provider, cache: cache, folders: folders, log: log.With("service", "auth")}
}

func (s *AuthService) IsAuthenticated() bool {
	return s.provider.IsAuthenticated()
}

// Watch reacts to sign-out notifications until ctx is done.
func (s *AuthService) Watch(ctx context.Context) {
	unsubscribe := s.provider.Subscribe(func(authenticated bool) {
		if !authenticated {
			s.clearLocal(ctx)
		}
	})
	s.watching.Store(true)

	context.AfterFunc(ctx, func() {
		s.watching.Store(false)
		unsubscribe()
	})
}

func (s *AuthService) SignOut(ctx context.Context) error {
	if err := s.provider.SignOut(ctx); err != nil {
		return err
	}
	if !s.watching.Load() {
		s.clearLocal(ctx)
	}
	return nil
}

func (s *AuthService) clearLocal(ctx context.Context) {
	s.folders.Reset()
	if err := s.cache.Clear(context.WithoutCancel(ctx)); err != nil {
		s.log.Error(ctx, "clearing local data after sign out failed", "error", err)
		return
	}
	s.log.Info(ctx, "local data cleared after sign out")
}
