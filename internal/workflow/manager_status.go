package workflow

import (
	"context"
	"time"

	"captionize/internal/jobs"
	"captionize/internal/logging"
)

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running   bool
	LastError string
	LastPoll  time.Time
	Stats     jobs.Stats
}

// Status returns the latest workflow information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	summary := StatusSummary{Running: m.running, LastPoll: m.lastPoll}
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	m.mu.RUnlock()

	stats, err := m.store.Stats(ctx)
	if err != nil {
		m.logger.Warn("failed to read job stats", logging.Error(err))
	}
	summary.Stats = stats
	return summary
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}
