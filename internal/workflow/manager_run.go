package workflow

import (
	"context"
	"errors"
	"time"

	"captionize/internal/jobs"
	"captionize/internal/logging"
	"captionize/internal/services"
)

// Start begins background polling of active jobs.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	go m.run(runCtx)
	return nil
}

// Stop terminates background polling and waits for the loop to exit.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()
	m.logger.Info("workflow loop started",
		logging.String(logging.FieldEventType, "workflow_started"),
		logging.Duration("poll_interval", m.pollInterval),
	)
	for {
		m.PollOnce(ctx)
		select {
		case <-ctx.Done():
			m.logger.Info("workflow loop stopped", logging.String(logging.FieldEventType, "workflow_stopped"))
			return
		case <-time.After(m.pollInterval):
		}
	}
}

// PollOnce fails jobs past the timeout and refreshes every active job.
func (m *Manager) PollOnce(ctx context.Context) {
	if m.jobTimeout > 0 {
		cutoff := m.now().Add(-m.jobTimeout)
		affected, err := m.store.FailStale(ctx, cutoff, jobs.TimeoutReason)
		if err != nil {
			m.setLastError(err)
			logging.ErrorWithContext(m.logger, "failed to expire stale jobs", "stale_reap_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check job database access"),
			)
		} else if affected > 0 {
			logging.WarnWithContext(m.logger, "jobs exceeded the transcription timeout", "jobs_timed_out",
				logging.Int64("count", affected),
				logging.Duration("timeout", m.jobTimeout),
				logging.String(logging.FieldErrorHint, "raise workflow.job_timeout_seconds for long media"),
				logging.String(logging.FieldImpact, "timed out jobs were marked failed"),
			)
		}
	}

	active, err := m.store.ListActive(ctx)
	if err != nil {
		m.setLastError(err)
		logging.ErrorWithContext(m.logger, "failed to list active jobs", "active_list_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check job database access"),
		)
		return
	}
	for _, job := range active {
		if ctx.Err() != nil {
			return
		}
		if _, err := m.Refresh(ctx, job.ID); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			m.setLastError(err)
		}
	}
	m.mu.Lock()
	m.lastPoll = m.now()
	m.mu.Unlock()
}

// Wait refreshes the job until it reaches a terminal state or ctx ends.
// Provider errors that are not validation or not-found failures are retried
// on the next tick.
func (m *Manager) Wait(ctx context.Context, id string) (*jobs.Job, error) {
	for {
		job, err := m.Refresh(ctx, id)
		if err != nil {
			switch services.Kind(err) {
			case "not_found", "validation", "configuration":
				return job, err
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return job, err
			}
		}
		if job != nil && job.IsTerminal() {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-time.After(m.waitInterval):
		}
	}
}
