// Package daemon assembles the engine (bus, store, controller, persistence,
// blocking service, metrics and the HTTP API) and runs it as one process.
// Construction is atomic: nothing is reachable until every piece is wired.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/grove-app/grove/internal/api"
	"github.com/grove-app/grove/internal/blocking"
	"github.com/grove-app/grove/internal/bus"
	"github.com/grove-app/grove/internal/config"
	"github.com/grove-app/grove/internal/domain"
	"github.com/grove-app/grove/internal/metrics"
	"github.com/grove-app/grove/internal/persist"
	"github.com/grove-app/grove/internal/session"
	"github.com/grove-app/grove/internal/store"
)

// expireInterval is how often expired app unlocks are swept.
const expireInterval = 30 * time.Second

// Daemon is the assembled grove engine.
type Daemon struct {
	cfg       config.Config
	log       *zap.Logger
	bus       *bus.Bus
	store     *store.Store
	ctrl      *session.Controller
	blocker   *blocking.Service
	persister *persist.Persister
	server    *api.Server
}

// New builds the full engine from configuration. The returned daemon owns
// the KV backend until Run finishes.
func New(cfg config.Config, log *zap.Logger) (*Daemon, error) {
	if log == nil {
		log = zap.NewNop()
	}
	clock := domain.SystemClock{}

	b := bus.New(log.Named("bus"))
	st := store.New(clock, b, log.Named("store"), cfg.User.ID)
	metrics.Observe(b)

	path, err := cfg.StorePath()
	if err != nil {
		return nil, err
	}
	kv, err := persist.Open(cfg.Storage.Backend, path)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	var opts []persist.Option
	if cfg.Storage.FlushMillis > 0 {
		opts = append(opts, persist.WithFlushDelay(time.Duration(cfg.Storage.FlushMillis)*time.Millisecond))
	}
	persister := persist.New(kv, st, log.Named("persist"), opts...)
	persister.Watch(b)

	ctrl := session.New(st, clock, log.Named("session"))
	blocker := blocking.New(st, clock, log.Named("blocking"))
	blocker.Watch(b)

	server := api.NewServer(st, ctrl, blocker, clock, log.Named("api"))
	if cfg.API.Metrics {
		server.EnableMetrics()
	}

	return &Daemon{
		cfg:       cfg,
		log:       log,
		bus:       b,
		store:     st,
		ctrl:      ctrl,
		blocker:   blocker,
		persister: persister,
		server:    server,
	}, nil
}

// Store exposes the engine store (used by the CLI when running in-process).
func (d *Daemon) Store() *store.Store { return d.store }

// Controller exposes the session controller.
func (d *Daemon) Controller() *session.Controller { return d.ctrl }

// Blocker exposes the blocking service.
func (d *Daemon) Blocker() *blocking.Service { return d.blocker }

// Hydrate restores the store from disk and re-attaches the controller to any
// restored current session.
func (d *Daemon) Hydrate() error {
	if err := d.persister.Hydrate(); err != nil {
		return fmt.Errorf("hydrate: %w", err)
	}
	d.ctrl.Adopt()
	return nil
}

// Run hydrates the engine and serves the API until ctx is cancelled, then
// shuts everything down, flushing pending state on the way out.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Hydrate(); err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    d.cfg.ListenAddr(),
		Handler: d.server.Handler(),
	}

	errc := make(chan error, 1)
	go func() {
		d.log.Info("api listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	sweep := time.NewTicker(expireInterval)
	defer sweep.Stop()

	for {
		select {
		case <-sweep.C:
			d.blocker.ExpireUnlocks()
		case err := <-errc:
			d.Close()
			return err
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := httpServer.Shutdown(shutdownCtx)
			cancel()
			if cerr := d.Close(); cerr != nil && err == nil {
				err = cerr
			}
			return err
		}
	}
}

// Close stops the controller timer and flushes and closes the persister.
func (d *Daemon) Close() error {
	d.ctrl.Close()
	if err := d.persister.Close(); err != nil {
		return fmt.Errorf("close persister: %w", err)
	}
	d.log.Info("engine stopped")
	return nil
}
