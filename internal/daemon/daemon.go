package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"animedb/internal/api"
	"animedb/internal/config"
	"animedb/internal/logging"
	"animedb/internal/metrics"
)

const shutdownTimeout = 5 * time.Second

// ErrAlreadyRunning reports that another daemon holds the instance lock.
var ErrAlreadyRunning = errors.New("another animedb daemon instance is already running")

// Daemon serves the HTTP API and enforces single-instance execution.
type Daemon struct {
	logger *slog.Logger
	server *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ready   chan struct{}
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Address      string
	LockFilePath string
}

// New constructs a daemon serving catalog and uploads.
func New(cfg *config.Config, catalog *api.Service, uploads Uploader, m *metrics.Manager, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || catalog == nil || uploads == nil {
		return nil, errors.New("daemon requires config, catalog service, and uploader")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := filepath.Join(cfg.Paths.DataDir, "animedb.lock")
	return &Daemon{
		logger:   logging.NewComponentLogger(logger, "daemon"),
		server:   newAPIServer(cfg.API.Bind, cfg.API.Token, catalog, uploads, m, logger),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
		ready:    make(chan struct{}),
	}, nil
}

// Run acquires the instance lock and serves until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return errors.New("daemon already running")
	}
	defer d.running.Store(false)

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}
	defer func() {
		if err := d.lock.Unlock(); err != nil {
			d.logger.Warn("failed to release daemon lock", logging.Error(err))
		}
	}()

	if err := d.server.start(); err != nil {
		return err
	}
	close(d.ready)
	d.logger.Info("animedb daemon started",
		logging.String("lock", d.lockPath),
		logging.String("address", d.server.addr()),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(d.server.serve)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return d.server.shutdown(shutdownCtx)
	})
	err = g.Wait()
	d.logger.Info("animedb daemon stopped")
	return err
}

// Ready is closed once the API listener is bound.
func (d *Daemon) Ready() <-chan struct{} {
	return d.ready
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		Address:      d.server.addr(),
		LockFilePath: d.lockPath,
	}
}
