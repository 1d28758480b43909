package api

import (
	"encoding/json"

	"captionize/internal/captions"
	"captionize/internal/deps"
	"captionize/internal/jobs"
	"captionize/internal/workflow"
)

// FromJob converts a job record to its summary representation. Captions and
// SRT content are omitted; use FromJobDetail for the full view.
func FromJob(job *jobs.Job) Job {
	if job == nil {
		return Job{}
	}
	dto := Job{
		ID:           job.ID,
		SourceURL:    job.SourceURL,
		Title:        job.Title,
		Duration:     job.Duration,
		Status:       string(job.Status),
		Progress:     job.Progress,
		ErrorMessage: job.Error,
	}
	if !job.CreatedAt.IsZero() {
		dto.CreatedAt = job.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !job.UpdatedAt.IsZero() {
		dto.UpdatedAt = job.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	if raw := job.MetadataJSON; raw != "" && json.Valid([]byte(raw)) {
		dto.Metadata = json.RawMessage(raw)
	}
	return dto
}

// FromJobDetail converts a job including preview captions and SRT content.
// Stored captions that fail to decode are omitted.
func FromJobDetail(job *jobs.Job) Job {
	dto := FromJob(job)
	if job == nil || job.Status != jobs.StatusCompleted {
		return dto
	}
	if cues, err := job.Captions(); err == nil {
		dto.Captions = FromCaptions(cues)
	}
	dto.SRTContent = job.SRTContent
	return dto
}

// FromJobs converts a slice of job records.
func FromJobs(list []*jobs.Job) []Job {
	out := make([]Job, 0, len(list))
	for _, job := range list {
		out = append(out, FromJob(job))
	}
	return out
}

// FromCaptions converts captions to preview form.
func FromCaptions(cues []captions.Caption) []PreviewCaption {
	preview := captions.Preview(cues)
	out := make([]PreviewCaption, len(preview))
	for i, cue := range preview {
		out[i] = PreviewCaption(cue)
	}
	return out
}

// FromStatusSummary converts workflow diagnostics.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	stats := make(map[string]int, len(jobs.AllStatuses))
	for _, status := range jobs.AllStatuses {
		stats[string(status)] = summary.Stats.ByStatus[status]
	}
	out := WorkflowStatus{
		Running:   summary.Running,
		JobStats:  stats,
		LastError: summary.LastError,
	}
	if !summary.LastPoll.IsZero() {
		out.LastPoll = summary.LastPoll.UTC().Format(dateTimeFormat)
	}
	return out
}

// FromDependencies converts dependency probe results.
func FromDependencies(statuses []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, len(statuses))
	for i, dep := range statuses {
		out[i] = DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		}
	}
	return out
}
