package jobs

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"captionize/internal/captions"
)

// Status represents the lifecycle of a transcription job.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// AllStatuses lists every known status in lifecycle order.
var AllStatuses = []Status{StatusIdle, StatusProcessing, StatusCompleted, StatusFailed}

// ParseStatus converts user input into a Status.
func ParseStatus(value string) (Status, bool) {
	status := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range AllStatuses {
		if status == known {
			return status, true
		}
	}
	return "", false
}

// TimeoutReason is the error recorded when a job exceeds the configured timeout.
const TimeoutReason = "Transcription timed out"

// Job is one transcription request and its results.
type Job struct {
	ID            string
	SourceURL     string
	Title         string
	Duration      float64
	Status        Status
	Progress      int
	ProviderJobID string
	SRTContent    string
	CaptionsJSON  string
	Error         string
	MetadataJSON  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Metadata is the free-form description stored alongside a job.
type Metadata struct {
	Author   string `json:"author,omitempty"`
	Origin   string `json:"origin,omitempty"`
	FileName string `json:"file_name,omitempty"`
}

// IsTerminal reports whether the job reached completed or failed.
func (j *Job) IsTerminal() bool {
	return j != nil && (j.Status == StatusCompleted || j.Status == StatusFailed)
}

// Captions decodes the stored caption list.
func (j *Job) Captions() ([]captions.Caption, error) {
	if j == nil || strings.TrimSpace(j.CaptionsJSON) == "" {
		return []captions.Caption{}, nil
	}
	var cues []captions.Caption
	if err := json.Unmarshal([]byte(j.CaptionsJSON), &cues); err != nil {
		return nil, fmt.Errorf("decode captions for job %s: %w", j.ID, err)
	}
	return cues, nil
}

// SetCaptions encodes the caption list onto the job.
func (j *Job) SetCaptions(cues []captions.Caption) error {
	if cues == nil {
		cues = []captions.Caption{}
	}
	data, err := json.Marshal(cues)
	if err != nil {
		return fmt.Errorf("encode captions: %w", err)
	}
	j.CaptionsJSON = string(data)
	return nil
}

// Metadata decodes the stored metadata, returning the zero value when absent.
func (j *Job) Metadata() Metadata {
	var meta Metadata
	if j == nil || strings.TrimSpace(j.MetadataJSON) == "" {
		return meta
	}
	_ = json.Unmarshal([]byte(j.MetadataJSON), &meta)
	return meta
}

// SetMetadata encodes metadata onto the job.
func (j *Job) SetMetadata(meta Metadata) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	j.MetadataJSON = string(data)
	return nil
}

// Stats summarizes job counts by status.
type Stats struct {
	Total      int            `json:"total"`
	ByStatus   map[Status]int `json:"by_status"`
	Processing int            `json:"processing"`
	Completed  int            `json:"completed"`
	Failed     int            `json:"failed"`
}
