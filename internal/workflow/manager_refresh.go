package workflow

import (
	"context"
	"fmt"
	"strings"

	"captionize/internal/captions"
	"captionize/internal/jobs"
	"captionize/internal/logging"
	"captionize/internal/services"
	"captionize/internal/services/assemblyai"
)

// Refresh polls the provider once for the job and persists any change. When
// the provider call fails the stored job is returned alongside the error.
func (m *Manager) Refresh(ctx context.Context, id string) (*jobs.Job, error) {
	unlock := m.lockJob(id)
	defer unlock()

	ctx = m.jobContext(ctx, id, "refresh")
	job, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "refresh", "load job", "failed to read job", err)
	}
	if job == nil {
		return nil, services.Wrap(services.ErrNotFound, "refresh", "load job", fmt.Sprintf("job %s not found", id), nil)
	}
	if job.IsTerminal() || strings.TrimSpace(job.ProviderJobID) == "" {
		return job, nil
	}

	if m.expired(job) {
		return job, m.fail(ctx, job, jobs.TimeoutReason)
	}

	transcript, err := m.provider.Status(ctx, job.ProviderJobID)
	if err != nil {
		logging.WarnWithContext(m.loggerFor(ctx), "provider status check failed", "provider_status_failed",
			append(logging.ErrorAttrs(err),
				logging.String("provider_job_id", job.ProviderJobID),
				logging.String(logging.FieldImpact, "job progress is stale until the next poll"),
			)...,
		)
		return job, err
	}

	if transcript.Done() {
		if !transcript.Failed() {
			return job, m.complete(ctx, job, transcript)
		}
		reason := strings.TrimSpace(transcript.Error)
		if reason == "" {
			reason = "unknown error"
		}
		return job, m.fail(ctx, job, "Transcription failed: "+reason)
	}

	progress := transcript.Progress()
	if progress == job.Progress {
		return job, nil
	}
	job.Progress = progress
	if err := m.store.Update(ctx, job); err != nil {
		return job, services.Wrap(services.ErrTransient, "refresh", "update progress", "failed to persist progress", err)
	}
	return job, nil
}

func (m *Manager) complete(ctx context.Context, job *jobs.Job, transcript *assemblyai.Transcript) error {
	cues, srt, err := captions.Render(transcript.CaptionWords())
	if err != nil {
		return m.fail(ctx, job, "Transcription failed: "+err.Error())
	}
	if err := job.SetCaptions(cues); err != nil {
		return m.fail(ctx, job, "Transcription failed: "+err.Error())
	}
	job.SRTContent = srt
	job.Status = jobs.StatusCompleted
	job.Progress = 100
	job.Error = ""
	if job.Duration == 0 && transcript.AudioDuration > 0 {
		job.Duration = transcript.AudioDuration
	}
	if err := m.store.Update(ctx, job); err != nil {
		return services.Wrap(services.ErrTransient, "refresh", "persist captions", "failed to persist captions", err)
	}
	m.loggerFor(ctx).Info("transcription completed",
		logging.String(logging.FieldEventType, "job_completed"),
		logging.Int("caption_count", len(cues)),
		logging.Int("word_count", len(transcript.Words)),
		logging.Float64("duration_seconds", job.Duration),
	)
	return nil
}

func (m *Manager) fail(ctx context.Context, job *jobs.Job, message string) error {
	job.Status = jobs.StatusFailed
	job.Error = message
	if err := m.store.Update(ctx, job); err != nil {
		return services.Wrap(services.ErrTransient, "refresh", "persist failure", "failed to persist job failure", err)
	}
	logging.ErrorWithContext(m.loggerFor(ctx), "transcription failed", "job_failed",
		logging.String("error_message", message),
		logging.String(logging.FieldErrorHint, "resubmit the media or check the provider dashboard"),
	)
	return nil
}

func (m *Manager) expired(job *jobs.Job) bool {
	if m.jobTimeout <= 0 || job.CreatedAt.IsZero() {
		return false
	}
	return m.now().Sub(job.CreatedAt) > m.jobTimeout
}
