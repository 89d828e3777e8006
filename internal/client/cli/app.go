package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"google.golang.org/api/option"

	"github.com/dmitrijs2005/snaplog/internal/client/auth"
	"github.com/dmitrijs2005/snaplog/internal/client/cache"
	"github.com/dmitrijs2005/snaplog/internal/client/client"
	"github.com/dmitrijs2005/snaplog/internal/client/config"
	"github.com/dmitrijs2005/snaplog/internal/client/deletion"
	"github.com/dmitrijs2005/snaplog/internal/client/folders"
	"github.com/dmitrijs2005/snaplog/internal/client/metrics"
	"github.com/dmitrijs2005/snaplog/internal/client/models"
	"github.com/dmitrijs2005/snaplog/internal/client/remote"
	"github.com/dmitrijs2005/snaplog/internal/client/services"
	"github.com/dmitrijs2005/snaplog/internal/client/syncer"
	"github.com/dmitrijs2005/snaplog/internal/filex"
	"github.com/dmitrijs2005/snaplog/internal/logging"
)

type session interface {
	IsAuthenticated() bool
	Watch(ctx context.Context)
	SignOut(ctx context.Context) error
}

// loginFlow is the interactive half of an OAuth2 provider. Backends with
// static credentials have none.
type loginFlow interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) error
}

type folderSource interface {
	Resolve(ctx context.Context) (models.FolderIDs, error)
	Current() (models.FolderIDs, bool)
}

type coordinator interface {
	IsOnline() bool
	LastSyncTime() time.Time
	Status(ctx context.Context) syncer.Status
	SyncOnce(ctx context.Context)
	Run(ctx context.Context, p syncer.Pinger)
}

type remoteStatus interface {
	Init(ctx context.Context) error
	Ping(ctx context.Context) error
}

type objectLister interface {
	List(ctx context.Context, folderID string) ([]models.RemoteObject, error)
}

type entryOps interface {
	List(ctx context.Context) ([]models.Entry, error)
	Create(ctx context.Context, date time.Time, items []models.InventoryItem) (*models.Entry, error)
	DeleteAndVerify(ctx context.Context, ids ...string) (bool, error)
}

type inventoryOps interface {
	List(ctx context.Context) ([]models.InventoryItem, error)
	Upload(ctx context.Context, req services.UploadRequest) <-chan services.UploadEvent
	DeleteAndVerify(ctx context.Context, ids ...string) (bool, error)
}

type App struct {
	cfg *config.Config
	log logging.Logger
	in  io.Reader
	out io.Writer
	now func() time.Time

	session   session
	login     loginFlow
	folders   folderSource
	coord     coordinator
	listing   objectLister
	entries   entryOps
	inventory inventoryOps

	remote   remoteStatus
	gatherer prometheus.Gatherer
	closer   io.Closer
}

// NewApp opens the cache and builds every component for the configured
// backend. Nothing talks to the network until Run.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	if log == nil {
		log = logging.NewNop()
	}

	if err := filex.EnsureParentDir(cfg.DatabasePath); err != nil {
		return nil, fmt.Errorf("failed to prepare data directory: %w", err)
	}
	db := cache.New(cfg.DatabasePath, log)
	if err := db.Open(ctx); err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	c, provider, flow, err := newBackend(ctx, cfg, db, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	store := remote.New(c, provider,
		remote.WithPolicy(remote.Policy{MaxRetries: cfg.MaxRetries, Delay: cfg.RetryDelay}),
		remote.WithLogger(log),
	)

	resolver := folders.NewResolver(store, db, folders.Names{
		Root:      cfg.RootFolderName,
		Inventory: cfg.InventoryFolderName,
		Entries:   cfg.EntriesFolderName,
	}, log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	observer := metrics.NewPrometheusObserver(reg)

	a := &App{
		cfg:      cfg,
		log:      log,
		in:       os.Stdin,
		out:      os.Stdout,
		now:      time.Now,
		login:    flow,
		folders:  resolver,
		remote:   store,
		gatherer: reg,
		closer:   db,
	}

	coord := syncer.New(store, db, resolver,
		syncer.WithLogger(log),
		syncer.WithIntervals(cfg.SyncInterval, cfg.OnlineCheckInterval),
		syncer.WithObserver(syncer.Observers{observer, syncer.ObserverFunc(a.onSyncEvent)}),
	)
	verifier := deletion.NewVerifier(store, deletion.WithDelay(cfg.VerifyDelay), deletion.WithLogger(log))

	a.coord = coord
	a.session = services.NewAuthService(provider, db, resolver, log)
	a.listing = services.NewListingService(store, db, resolver, coord, log)
	a.entries = services.NewEntryService(store, db, resolver, coord, verifier, cfg.VerifyRetries, log)
	a.inventory = services.NewInventoryService(store, db, resolver, coord, verifier, cfg.VerifyRetries, log)

	return a, nil
}

type provider interface {
	remote.Authenticator
	services.AuthProvider
}

func newBackend(ctx context.Context, cfg *config.Config, db *cache.Cache, log logging.Logger) (client.Client, provider, loginFlow, error) {
	switch cfg.Backend {
	case config.BackendS3:
		c, err := client.NewS3ClientFromOptions(ctx, client.S3Options{
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to create s3 client: %w", err)
		}
		// the bucket credentials are the session; logout ends it for this run
		return c, auth.Static("s3://" + cfg.S3Bucket), nil, nil

	default:
		p := auth.NewProvider(auth.GoogleConfig(cfg.OAuthClientID, cfg.OAuthClientSecret), db, auth.WithLogger(log))
		if err := p.Load(ctx); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to load token: %w", err)
		}

		opts := []option.ClientOption{option.WithTokenSource(p)}
		if cfg.DriveEndpoint != "" {
			opts = append(opts, option.WithEndpoint(cfg.DriveEndpoint))
		}
		c, err := client.NewDriveClient(ctx, opts...)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to create drive client: %w", err)
		}
		return c, p, p, nil
	}
}

// Run starts the background watchers and blocks in the REPL until the user
// leaves or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.close(ctx)

	a.session.Watch(ctx)

	if a.session.IsAuthenticated() {
		if err := a.remote.Init(ctx); err != nil {
			a.log.Warn(ctx, "remote store not ready, starting offline", "error", err)
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		a.coord.Run(ctx, a.remote)
	}()

	if a.cfg.MetricsAddr != "" && a.gatherer != nil {
		go func() {
			if err := metrics.Serve(ctx, a.cfg.MetricsAddr, a.gatherer, a.log); err != nil {
				a.log.Error(ctx, "metrics server stopped", "error", err)
			}
		}()
	}

	// a blocked stdin read cannot be interrupted, so a signal leaves the
	// REPL goroutine behind
	repl := make(chan struct{})
	go func() {
		defer close(repl)
		runREPL(ctx, a, a.statusLine, bufio.NewScanner(a.in))
	}()

	select {
	case <-repl:
	case <-ctx.Done():
	}
	cancel()
	<-done
}

func (a *App) close(ctx context.Context) {
	if a.closer == nil {
		return
	}
	if err := a.closer.Close(); err != nil {
		a.log.Error(ctx, "failed to close cache", "error", err)
	}
}

func (a *App) isLoggedIn() bool {
	return a.session.IsAuthenticated()
}

func (a *App) statusLine() string {
	mode := "offline"
	if a.coord.IsOnline() {
		mode = "online"
	}
	if !a.isLoggedIn() {
		return mode + ", signed out"
	}
	return mode
}

func (a *App) onSyncEvent(e syncer.Event) {
	if e.Kind != syncer.ConnectivityChanged {
		return
	}
	mode := "offline"
	if e.Online {
		mode = "online"
	}
	a.log.Info(context.Background(), fmt.Sprintf("Switched to %s mode", mode))
}
