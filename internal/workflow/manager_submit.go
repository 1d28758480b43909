package workflow

import (
	"context"
	"strings"

	"captionize/internal/acquire"
	"captionize/internal/jobs"
	"captionize/internal/logging"
	"captionize/internal/services"
)

const defaultTitle = "Video Transcription"

// Submit fetches audio for src, hands it to the provider, and records a
// processing job. The temporary audio file is removed before returning.
func (m *Manager) Submit(ctx context.Context, src acquire.Source) (*jobs.Job, error) {
	ctx = m.jobContext(ctx, "", "submit")
	logger := m.loggerFor(ctx)

	if err := src.Validate(); err != nil {
		return nil, err
	}

	audio, err := m.fetcher.FetchAudio(ctx, src)
	if err != nil {
		logging.ErrorWithContext(logger, "audio acquisition failed", "acquire_failed", logging.ErrorAttrs(err)...)
		m.setLastError(err)
		return nil, err
	}
	defer func() {
		if cleanupErr := audio.Cleanup(); cleanupErr != nil {
			logging.WarnWithContext(logger, "temporary audio cleanup failed", "audio_cleanup_failed",
				logging.Error(cleanupErr),
				logging.String(logging.FieldErrorHint, "remove stale files from the staging directory"),
				logging.String(logging.FieldImpact, "staging directory keeps an orphaned audio file"),
			)
		}
	}()

	providerID, err := m.provider.Transcribe(ctx, audio.Path)
	if err != nil {
		logging.ErrorWithContext(logger, "provider submission failed", "provider_submit_failed", logging.ErrorAttrs(err)...)
		m.setLastError(err)
		return nil, err
	}

	job := &jobs.Job{
		SourceURL:     sourceLabel(src),
		Title:         strings.TrimSpace(audio.Metadata.Title),
		Duration:      audio.Metadata.Duration,
		Status:        jobs.StatusProcessing,
		ProviderJobID: providerID,
	}
	if job.Title == "" {
		job.Title = defaultTitle
	}
	meta := jobs.Metadata{Author: audio.Metadata.Author, Origin: "url"}
	if src.FilePath != "" {
		meta.Origin = "upload"
		meta.FileName = src.FileName
	}
	if err := job.SetMetadata(meta); err != nil {
		return nil, services.Wrap(services.ErrValidation, "submit", "encode metadata", "metadata not serializable", err)
	}
	if err := m.store.Create(ctx, job); err != nil {
		return nil, services.Wrap(services.ErrTransient, "submit", "create job", "failed to persist job", err)
	}

	m.loggerFor(m.jobContext(ctx, job.ID, "submit")).Info("transcription submitted",
		logging.String(logging.FieldEventType, "job_submitted"),
		logging.String("provider_job_id", providerID),
		logging.String("title", job.Title),
		logging.String("source", job.SourceURL),
	)
	return job, nil
}

func sourceLabel(src acquire.Source) string {
	if url := strings.TrimSpace(src.URL); url != "" {
		return url
	}
	name := strings.TrimSpace(src.FileName)
	if name == "" {
		name = "file"
	}
	return "upload:" + name
}
