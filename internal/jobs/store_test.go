package jobs_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"captionize/internal/captions"
	"captionize/internal/jobs"
	"captionize/internal/testsupport"
)

func TestCreateAndGet(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	job := &jobs.Job{SourceURL: "https://youtu.be/abc", Title: "Sample", Duration: 42.5}
	if err := job.SetMetadata(jobs.Metadata{Author: "Channel", Origin: "url"}); err != nil {
		t.Fatalf("SetMetadata: %v", err)
	}
	if err := store.Create(ctx, job); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if job.ID == "" {
		t.Fatal("expected job ID to be assigned")
	}
	if job.Status != jobs.StatusIdle {
		t.Fatalf("expected default status idle, got %q", job.Status)
	}

	fetched, err := store.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if fetched == nil || fetched.Title != "Sample" || fetched.Duration != 42.5 {
		t.Fatalf("unexpected fetched job: %#v", fetched)
	}
	if fetched.Metadata().Author != "Channel" {
		t.Fatalf("expected metadata round trip, got %#v", fetched.Metadata())
	}
	if fetched.CreatedAt.IsZero() || fetched.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps")
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	job, err := store.Get(context.Background(), "missing")
	if err != nil || job != nil {
		t.Fatalf("expected nil job without error, got %#v, %v", job, err)
	}
}

func TestCreateRequiresSource(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	if err := store.Create(context.Background(), &jobs.Job{}); err == nil {
		t.Fatal("expected error when source url missing")
	}
}

func TestUpdatePersistsCaptions(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	job := testsupport.NewJob(t, store, "https://youtu.be/abc", jobs.StatusProcessing)

	cues := []captions.Caption{{Index: 1, Start: 0, End: 1.5, Text: "Hello there."}}
	if err := job.SetCaptions(cues); err != nil {
		t.Fatalf("SetCaptions: %v", err)
	}
	job.Status = jobs.StatusCompleted
	job.Progress = 100
	job.SRTContent = captions.Serialize(cues)
	if err := store.Update(ctx, job); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	fetched, err := store.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	got, err := fetched.Captions()
	if err != nil {
		t.Fatalf("Captions: %v", err)
	}
	if len(got) != 1 || got[0] != cues[0] {
		t.Fatalf("unexpected captions %#v", got)
	}
	if fetched.SRTContent != "1\n00:00:00,000 --> 00:00:01,500\nHello there.\n" {
		t.Fatalf("unexpected srt %q", fetched.SRTContent)
	}
	if !fetched.IsTerminal() {
		t.Fatal("expected completed job to be terminal")
	}
}

func TestUpdateMissingJob(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	if err := store.Update(context.Background(), &jobs.Job{ID: "ghost", SourceURL: "x"}); err == nil {
		t.Fatal("expected error updating missing job")
	}
}

func TestListFiltersAndOrders(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	first := testsupport.NewJob(t, store, "https://a.example/1", jobs.StatusCompleted)
	time.Sleep(2 * time.Millisecond)
	second := testsupport.NewJob(t, store, "https://a.example/2", jobs.StatusProcessing)
	second.ProviderJobID = "tx-2"
	if err := store.Update(ctx, second); err != nil {
		t.Fatalf("Update: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	testsupport.NewJob(t, store, "https://a.example/3", jobs.StatusProcessing)

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 || all[2].ID != first.ID {
		t.Fatalf("expected newest first with oldest last, got %d jobs", len(all))
	}

	completed, err := store.List(ctx, jobs.StatusCompleted)
	if err != nil || len(completed) != 1 || completed[0].ID != first.ID {
		t.Fatalf("unexpected completed list %v (%v)", completed, err)
	}

	active, err := store.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(active) != 1 || active[0].ID != second.ID {
		t.Fatalf("expected only the job with a provider id to be active, got %d", len(active))
	}
}

func TestDeleteAndStats(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	keep := testsupport.NewJob(t, store, "https://a.example/1", jobs.StatusProcessing)
	drop := testsupport.NewJob(t, store, "https://a.example/2", jobs.StatusFailed)
	testsupport.NewJob(t, store, "https://a.example/3", jobs.StatusCompleted)

	removed, err := store.Delete(ctx, drop.ID)
	if err != nil || !removed {
		t.Fatalf("expected delete to succeed, got %v %v", removed, err)
	}
	if removed, _ := store.Delete(ctx, drop.ID); removed {
		t.Fatal("expected second delete to report nothing removed")
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 2 || stats.Processing != 1 || stats.Completed != 1 || stats.Failed != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if stats.ByStatus[jobs.StatusProcessing] != 1 {
		t.Fatalf("unexpected by-status map %v", stats.ByStatus)
	}
	if _, err := store.Get(ctx, keep.ID); err != nil {
		t.Fatalf("Get: %v", err)
	}
}

func TestFailStale(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	stale := testsupport.NewJob(t, store, "https://a.example/1", jobs.StatusProcessing)

	affected, err := store.FailStale(ctx, time.Now().Add(time.Minute), jobs.TimeoutReason)
	if err != nil {
		t.Fatalf("FailStale: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 stale job, got %d", affected)
	}
	fetched, _ := store.Get(ctx, stale.ID)
	if fetched.Status != jobs.StatusFailed || fetched.Error != jobs.TimeoutReason {
		t.Fatalf("unexpected job after FailStale: %#v", fetched)
	}
}

func TestReopenKeepsSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := jobs.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	job := testsupport.NewJob(t, store, "https://a.example/1", jobs.StatusIdle)
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := testsupport.MustOpenStore(t, cfg)
	fetched, err := reopened.Get(context.Background(), job.ID)
	if err != nil || fetched == nil {
		t.Fatalf("expected job after reopen, got %#v (%v)", fetched, err)
	}
}

func TestOpenRejectsNewerSchema(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "jobs.db")
	store, err := jobs.OpenPath(dbPath)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("set user_version: %v", err)
	}
	_ = db.Close()

	if _, err := jobs.OpenPath(dbPath); !errors.Is(err, jobs.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := jobs.ParseStatus(" Completed "); !ok || status != jobs.StatusCompleted {
		t.Fatalf("unexpected parse result %q %v", status, ok)
	}
	if _, ok := jobs.ParseStatus("review"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
}
