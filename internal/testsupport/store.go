package testsupport

import (
	"context"
	"testing"

	"captionize/internal/config"
	"captionize/internal/jobs"
)

// MustOpenStore opens a jobs.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *jobs.Store {
	t.Helper()

	store, err := jobs.Open(cfg)
	if err != nil {
		t.Fatalf("jobs.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewJob inserts a job with the given source and status.
func NewJob(t testing.TB, store *jobs.Store, sourceURL string, status jobs.Status) *jobs.Job {
	t.Helper()

	job := &jobs.Job{SourceURL: sourceURL, Title: "Test Video", Status: status}
	if err := store.Create(context.Background(), job); err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return job
}
