package api

import "encoding/json"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Job describes a transcription job in a transport-friendly format.
type Job struct {
	ID           string           `json:"id"`
	SourceURL    string           `json:"sourceUrl"`
	Title        string           `json:"title"`
	Duration     float64          `json:"duration"`
	Status       string           `json:"status"`
	Progress     int              `json:"progress"`
	ErrorMessage string           `json:"errorMessage,omitempty"`
	CreatedAt    string           `json:"createdAt,omitempty"`
	UpdatedAt    string           `json:"updatedAt,omitempty"`
	Captions     []PreviewCaption `json:"captions,omitempty"`
	SRTContent   string           `json:"srtContent,omitempty"`
	Metadata     json.RawMessage  `json:"metadata,omitempty"`
}

// PreviewCaption is a caption with HH:MM:SS display boundaries.
type PreviewCaption struct {
	ID    int    `json:"id"`
	Start string `json:"start"`
	End   string `json:"end"`
	Text  string `json:"text"`
}

// TranscribeRequest is the body of POST /api/transcribe.
type TranscribeRequest struct {
	URL string `json:"url"`
}

// TranscribeResponse acknowledges a submitted job.
type TranscribeResponse struct {
	JobID    string  `json:"jobId"`
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
	Status   string  `json:"status"`
}

// JobResponse wraps a single job.
type JobResponse struct {
	Job Job `json:"job"`
}

// JobListResponse wraps a collection of jobs.
type JobListResponse struct {
	Jobs []Job `json:"jobs"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running   bool           `json:"running"`
	JobStats  map[string]int `json:"jobStats"`
	LastError string         `json:"lastError,omitempty"`
	LastPoll  string         `json:"lastPoll,omitempty"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// ServerStatus aggregates server runtime information for API consumers.
type ServerStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	DatabasePath string             `json:"databasePath"`
	LockFilePath string             `json:"lockFilePath"`
	Workflow     WorkflowStatus     `json:"workflow"`
	Dependencies []DependencyStatus `json:"dependencies"`
}

// ErrorResponse is the body of every non-2xx API reply.
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}
