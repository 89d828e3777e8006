// Package metrics exports sync coordinator events as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrijs2005/snaplog/internal/client/syncer"
	"github.com/dmitrijs2005/snaplog/internal/logging"
)

const (
	namespace = "snaplog"
	Path      = "/metrics"
)

// PrometheusObserver is a syncer.Observer that counts sync runs, inserted
// items and connectivity changes.
type PrometheusObserver struct {
	SyncRuns            *prometheus.CounterVec
	ItemsInserted       prometheus.Counter
	ConnectivityChanges *prometheus.CounterVec
	LastSync            prometheus.Gauge
	Online              prometheus.Gauge
	CachedEntries       prometheus.Gauge
	CachedItems         prometheus.Gauge
}

// NewPrometheusObserver creates the collectors and registers them with reg
// when it is not nil.
func NewPrometheusObserver(reg prometheus.Registerer) *PrometheusObserver {
	o := &PrometheusObserver{
		SyncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_runs_total",
			Help:      "Sync passes by result.",
		}, []string{"result"}),
		ItemsInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_items_inserted_total",
			Help:      "Remote records added to the local cache by sync.",
		}),
		ConnectivityChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connectivity_changes_total",
			Help:      "Connectivity transitions by new state.",
		}, []string{"state"}),
		LastSync: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_sync_timestamp_seconds",
			Help:      "Unix time of the last complete sync pass.",
		}),
		Online: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online",
			Help:      "1 when the remote store is reachable.",
		}),
		CachedEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cached_entries",
			Help:      "Entries in the local cache at the last status refresh.",
		}),
		CachedItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cached_inventory_items",
			Help:      "Inventory items in the local cache at the last status refresh.",
		}),
	}
	if reg != nil {
		for _, c := range o.Collectors() {
			reg.MustRegister(c)
		}
	}
	return o
}

func (o *PrometheusObserver) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		o.SyncRuns,
		o.ItemsInserted,
		o.ConnectivityChanges,
		o.LastSync,
		o.Online,
		o.CachedEntries,
		o.CachedItems,
	}
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func (o *PrometheusObserver) OnSyncEvent(e syncer.Event) {
	switch e.Kind {
	case syncer.SyncSucceeded:
		o.SyncRuns.WithLabelValues("success").Inc()
		o.ItemsInserted.Add(float64(e.Inserted))
		o.LastSync.Set(float64(e.Time.Unix()))
	case syncer.SyncFailed:
		o.SyncRuns.WithLabelValues("failure").Inc()
	case syncer.ConnectivityChanged:
		state := "offline"
		if e.Online {
			state = "online"
		}
		o.ConnectivityChanges.WithLabelValues(state).Inc()
		o.Online.Set(boolGauge(e.Online))
	case syncer.StatusRefreshed:
		o.Online.Set(boolGauge(e.Status.Online))
		o.CachedEntries.Set(float64(e.Status.Entries))
		o.CachedItems.Set(float64(e.Status.Items))
	}
}

// Handler serves the metrics gathered by g at Path.
func Handler(g prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get(Path, promhttp.HandlerFor(g, promhttp.HandlerOpts{}).ServeHTTP)
	return r
}

// Serve runs a metrics endpoint on addr until ctx is done.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer, log logging.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           Handler(g),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "metrics server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
