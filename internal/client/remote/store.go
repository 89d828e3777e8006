// Package remote wraps a client.Client with the authentication gate and the
// bounded retry policy every remote call goes through.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/snaplog/internal/client/client"
	"github.com/dmitrijs2005/snaplog/internal/client/models"
	"github.com/dmitrijs2005/snaplog/internal/logging"
)

// Authenticator reports whether remote calls may be attempted.
type Authenticator interface {
	IsAuthenticated() bool
}

// Policy bounds retries of transient failures: MaxRetries extra attempts
// after the first, with a fixed Delay between them.
type Policy struct {
	MaxRetries int
	Delay      time.Duration
}

func DefaultPolicy() Policy {
	return Policy{MaxRetries: 3, Delay: time.Second}
}

type Option func(*Store)

func WithPolicy(p Policy) Option {
	return func(s *Store) { s.policy = p }
}

func WithLogger(l logging.Logger) Option {
	return func(s *Store) { s.log = l }
}

type Store struct {
	c      client.Client
	auth   Authenticator
	policy Policy
	log    logging.Logger
}

type alwaysAuthenticated struct{}

func (alwaysAuthenticated) IsAuthenticated() bool { return true }

// New builds a Store over c. A nil auth never blocks calls.
func New(c client.Client, auth Authenticator, opts ...Option) *Store {
	if auth == nil {
		auth = alwaysAuthenticated{}
	}
	s := &Store{c: c, auth: auth, policy: DefaultPolicy(), log: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("component", "remote")
	return s
}

func (s *Store) Policy() Policy {
	return s.policy
}

// backoff is built per call so concurrent operations never share a retry
// budget.
func (s *Store) backoff() retry.Backoff {
	delay := s.policy.Delay
	if delay <= 0 {
		delay = time.Nanosecond
	}
	retries := s.policy.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return retry.WithMaxRetries(uint64(retries), retry.NewConstant(delay))
}

func (s *Store) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var (
		attempts int
		last     error
	)

	err := retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		if !s.auth.IsAuthenticated() {
			return fmt.Errorf("%s: %w", op, client.ErrAuth)
		}

		attempts++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		last = err

		if client.IsTransient(err) {
			s.log.Debug(ctx, "remote call failed, will retry", "op", op, "attempt", attempts, "error", err)
			return retry.RetryableError(err)
		}
		return err
	})
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if client.IsTransient(err) {
		s.log.Warn(ctx, "remote call gave up", "op", op, "attempts", attempts, "error", last)
		return &client.NetworkError{Op: op, Attempts: attempts, Err: last}
	}
	return err
}

// Init checks that the caller is signed in and the backend answers.
func (s *Store) Init(ctx context.Context) error {
	if !s.auth.IsAuthenticated() {
		return fmt.Errorf("init: %w", client.ErrAuth)
	}
	return s.do(ctx, "init", s.c.Ping)
}

// Ping makes a single attempt, for connectivity probing.
func (s *Store) Ping(ctx context.Context) error {
	if !s.auth.IsAuthenticated() {
		return fmt.Errorf("ping: %w", client.ErrAuth)
	}
	return s.c.Ping(ctx)
}

func (s *Store) ListObjects(ctx context.Context, folderID string) ([]models.RemoteObject, error) {
	var out []models.RemoteObject
	err := s.do(ctx, "list objects", func(ctx context.Context) error {
		objs, err := s.c.List(ctx, folderID)
		if err != nil {
			return err
		}
		out = objs
		return nil
	})
	return out, err
}

func (s *Store) ListFolders(ctx context.Context, parentID string) ([]models.RemoteObject, error) {
	var out []models.RemoteObject
	err := s.do(ctx, "list folders", func(ctx context.Context) error {
		objs, err := s.c.ListFolders(ctx, parentID)
		if err != nil {
			return err
		}
		out = objs
		return nil
	})
	return out, err
}

func (s *Store) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	var id string
	err := s.do(ctx, "create folder", func(ctx context.Context) error {
		created, err := s.c.CreateFolder(ctx, name, parentID)
		if err != nil {
			return err
		}
		id = created
		return nil
	})
	return id, err
}

// UploadObject sends data as name under parentID. onProgress, when set,
// receives the transferred fraction; every retry starts again from 0.
func (s *Store) UploadObject(ctx context.Context, data []byte, parentID, name, mimeType string, onProgress func(float64)) (string, error) {
	var id string
	err := s.do(ctx, "upload", func(ctx context.Context) error {
		if onProgress != nil {
			onProgress(0)
		}
		r := client.NewProgressReader(bytes.NewReader(data), int64(len(data)), onProgress)

		uploaded, err := s.c.Upload(ctx, r, parentID, name, mimeType)
		if err != nil {
			return err
		}
		id = uploaded
		return nil
	})
	return id, err
}

func (s *Store) DeleteObject(ctx context.Context, id string) error {
	return s.do(ctx, "delete", func(ctx context.Context) error {
		return s.c.Delete(ctx, id)
	})
}

func (s *Store) Download(ctx context.Context, id string) ([]byte, error) {
	var data []byte
	err := s.do(ctx, "download", func(ctx context.Context) error {
		b, err := s.c.Download(ctx, id)
		if err != nil {
			return err
		}
		data = b
		return nil
	})
	return data, err
}
