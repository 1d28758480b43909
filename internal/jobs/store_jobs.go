package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Create inserts a new job. Missing identifiers are generated and an empty
// status defaults to idle.
func (s *Store) Create(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.New("job is nil")
	}
	if strings.TrimSpace(job.SourceURL) == "" {
		return errors.New("job source url is required")
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = StatusIdle
	}
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now

	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO transcriptions (
            id, source_url, title, duration, status, progress, provider_job_id,
            srt_content, captions_json, error, metadata_json, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID,
		job.SourceURL,
		nullableString(job.Title),
		nullableFloat(job.Duration),
		job.Status,
		job.Progress,
		nullableString(job.ProviderJobID),
		nullableString(job.SRTContent),
		nullableString(job.CaptionsJSON),
		nullableString(job.Error),
		nullableString(job.MetadataJSON),
		formatTime(job.CreatedAt),
		formatTime(job.UpdatedAt),
	); err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// Get fetches a job by identifier. A missing job returns (nil, nil).
func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM transcriptions WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// Update persists changes to an existing job.
func (s *Store) Update(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.New("job is nil")
	}
	job.UpdatedAt = time.Now().UTC()
	res, err := s.execWithRetry(
		ctx,
		`UPDATE transcriptions
         SET source_url = ?, title = ?, duration = ?, status = ?, progress = ?,
             provider_job_id = ?, srt_content = ?, captions_json = ?, error = ?,
             metadata_json = ?, updated_at = ?
         WHERE id = ?`,
		job.SourceURL,
		nullableString(job.Title),
		nullableFloat(job.Duration),
		job.Status,
		job.Progress,
		nullableString(job.ProviderJobID),
		nullableString(job.SRTContent),
		nullableString(job.CaptionsJSON),
		nullableString(job.Error),
		nullableString(job.MetadataJSON),
		formatTime(job.UpdatedAt),
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update job %s: no such job", job.ID)
	}
	return nil
}

// List returns jobs filtered by status set (or all jobs when no status is
// provided), newest first.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Job, error) {
	baseQuery := `SELECT ` + jobColumns + ` FROM transcriptions`
	orderClause := ` ORDER BY created_at DESC`

	var (
		rows *sql.Rows
		err  error
	)
	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return scanJobs(rows)
}

// ListActive returns jobs still waiting on the provider, oldest first so the
// poller services them in submission order.
func (s *Store) ListActive(ctx context.Context) ([]*Job, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM transcriptions WHERE status = ? AND provider_job_id IS NOT NULL ORDER BY created_at`,
		StatusProcessing,
	)
	if err != nil {
		return nil, fmt.Errorf("list active jobs: %w", err)
	}
	return scanJobs(rows)
}

// Delete removes a job by identifier.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM transcriptions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// FailStale marks processing jobs created before cutoff as failed.
func (s *Store) FailStale(ctx context.Context, cutoff time.Time, reason string) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE transcriptions SET status = ?, error = ?, updated_at = ?
         WHERE status = ? AND created_at < ?`,
		StatusFailed,
		reason,
		formatTime(time.Now()),
		StatusProcessing,
		formatTime(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("fail stale jobs: %w", err)
	}
	return res.RowsAffected()
}

// ClearFinished removes completed and failed jobs.
func (s *Store) ClearFinished(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM transcriptions WHERE status IN (?, ?)`, StatusCompleted, StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("clear finished: %w", err)
	}
	return res.RowsAffected()
}
