package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/gofrs/flock"

	"captionize/internal/acquire"
	"captionize/internal/config"
	"captionize/internal/deps"
	"captionize/internal/jobs"
	"captionize/internal/logging"
	"captionize/internal/workflow"
)

// ErrInstanceRunning reports that another server holds the instance lock.
var ErrInstanceRunning = errors.New("another captionize server instance is already running")

// Server coordinates the workflow loop and API listener and enforces
// single-instance execution.
type Server struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *jobs.Store
	workflow *workflow.Manager
	api      *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents server runtime information.
type Status struct {
	Running      bool
	PID          int
	Workflow     workflow.StatusSummary
	DatabasePath string
	LockFilePath string
	Dependencies []deps.Status
}

// New constructs a server with initialized dependencies.
func New(cfg *config.Config, store *jobs.Store, wf *workflow.Manager, logger *slog.Logger) (*Server, error) {
	if cfg == nil || store == nil || wf == nil {
		return nil, errors.New("server requires config, store, and workflow manager")
	}
	logger = logging.NewComponentLogger(logger, "server")
	s := &Server{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		workflow: wf,
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}
	s.api = newAPIServer(cfg, s, logger)
	return s, nil
}

// Start acquires the instance lock, then launches the workflow loop and the
// API listener.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return errors.New("server already running")
	}

	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrInstanceRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := s.workflow.Start(runCtx); err != nil {
		cancel()
		_ = s.lock.Unlock()
		return fmt.Errorf("start workflow: %w", err)
	}
	if err := s.api.start(runCtx); err != nil {
		cancel()
		s.workflow.Stop()
		_ = s.lock.Unlock()
		return err
	}

	s.cancel = cancel
	s.running.Store(true)
	s.logger.Info("captionize server started",
		logging.String(logging.FieldEventType, "server_started"),
		logging.String("lock", s.lockPath),
		logging.String("address", s.Addr()),
	)
	return nil
}

// Stop stops background processing and releases the instance lock.
func (s *Server) Stop() {
	if !s.running.Load() {
		return
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.api.stop()
	s.workflow.Stop()
	if err := s.lock.Unlock(); err != nil {
		logging.WarnWithContext(s.logger, "failed to release server lock", "lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove "+s.lockPath+" if the next start reports a running instance"),
		)
	}
	s.running.Store(false)
	s.logger.Info("captionize server stopped", logging.String(logging.FieldEventType, "server_stopped"))
}

// Close stops the server and releases the job store.
func (s *Server) Close() error {
	s.Stop()
	return s.store.Close()
}

// Addr reports the API listen address once started.
func (s *Server) Addr() string {
	return s.api.addr()
}

// Status returns the current server status.
func (s *Server) Status(ctx context.Context) Status {
	return Status{
		Running:      s.running.Load(),
		PID:          os.Getpid(),
		Workflow:     s.workflow.Status(ctx),
		DatabasePath: s.store.Path(),
		LockFilePath: s.lockPath,
		Dependencies: deps.CheckBinaries(deps.Requirements(s.cfg)),
	}
}

// submit hands a source to the workflow.
func (s *Server) submit(ctx context.Context, src acquire.Source) (*jobs.Job, error) {
	return s.workflow.Submit(ctx, src)
}
