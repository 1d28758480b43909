package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"captionize/internal/acquire"
	"captionize/internal/config"
	"captionize/internal/jobs"
	"captionize/internal/logging"
	"captionize/internal/services/assemblyai"
)

// Transcriber is the speech-to-text provider surface the workflow needs.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
	Status(ctx context.Context, jobID string) (*assemblyai.Transcript, error)
}

// Manager coordinates job submission and provider polling.
type Manager struct {
	cfg      *config.Config
	store    *jobs.Store
	fetcher  acquire.Fetcher
	provider Transcriber
	logger   *slog.Logger

	pollInterval time.Duration
	waitInterval time.Duration
	jobTimeout   time.Duration
	now          func() time.Time

	jobLocks sync.Map

	mu       sync.RWMutex
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	lastErr  error
	lastPoll time.Time
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithClock overrides the time source used for timeout checks.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithWaitInterval overrides how often Wait polls the provider.
func WithWaitInterval(interval time.Duration) ManagerOption {
	return func(m *Manager) {
		if interval > 0 {
			m.waitInterval = interval
		}
	}
}

// NewManager constructs a workflow manager.
func NewManager(cfg *config.Config, store *jobs.Store, fetcher acquire.Fetcher, provider Transcriber, logger *slog.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		cfg:          cfg,
		store:        store,
		fetcher:      fetcher,
		provider:     provider,
		logger:       logging.NewComponentLogger(logger, "workflow"),
		pollInterval: cfg.QueuePollInterval(),
		waitInterval: cfg.PollInterval(),
		jobTimeout:   cfg.JobTimeout(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewProvider builds the AssemblyAI client described by cfg.
func NewProvider(cfg *config.Config) *assemblyai.Client {
	return assemblyai.NewClient(assemblyai.Config{
		APIKey:         cfg.AssemblyAI.APIKey,
		BaseURL:        cfg.AssemblyAI.BaseURL,
		TimeoutSeconds: cfg.AssemblyAI.TimeoutSeconds,
		RetryAttempts:  cfg.AssemblyAI.RetryAttempts,
	})
}

// Store exposes the backing job store.
func (m *Manager) Store() *jobs.Store {
	return m.store
}

// lockJob serializes read-modify-write cycles on a single job.
func (m *Manager) lockJob(id string) func() {
	value, _ := m.jobLocks.LoadOrStore(id, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
