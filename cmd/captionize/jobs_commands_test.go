package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"captionize/internal/jobs"
	"captionize/internal/testsupport"
)

func TestJobsListAndShow(t *testing.T) {
	env := setupCLITestEnv(t)
	done := seedCompletedJob(t, env.store, "Weekly Sync")
	testsupport.NewJob(t, env.store, "https://youtu.be/other", jobs.StatusFailed)

	out, _, err := runCLI(t, []string{"jobs", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs list: %v", err)
	}
	requireContains(t, out, "Weekly Sync")
	requireContains(t, out, "failed")
	requireContains(t, out, "1:15")

	out, _, err = runCLI(t, []string{"jobs", "list", "--status", "completed", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs list --json: %v", err)
	}
	requireContains(t, out, `"title": "Weekly Sync"`)

	if _, _, err := runCLI(t, []string{"jobs", "list", "--status", "bogus"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown status")
	}

	out, _, err = runCLI(t, []string{"jobs", "show", done.ID[:8]}, env.configPath)
	if err != nil {
		t.Fatalf("jobs show: %v", err)
	}
	requireContains(t, out, "== Weekly Sync ==")
	requireContains(t, out, "Hello world.")
	requireContains(t, out, "completed (100%)")
}

func TestJobsSRTWritesFile(t *testing.T) {
	env := setupCLITestEnv(t)
	done := seedCompletedJob(t, env.store, "Weekly Sync")

	out, _, err := runCLI(t, []string{"jobs", "srt", done.ID}, env.configPath)
	if err != nil {
		t.Fatalf("jobs srt: %v", err)
	}
	if out != done.SRTContent {
		t.Fatalf("unexpected srt %q", out)
	}

	t.Chdir(t.TempDir())
	if _, _, err := runCLI(t, []string{"jobs", "srt", "-o", ".", done.ID}, env.configPath); err != nil {
		t.Fatalf("jobs srt -o .: %v", err)
	}
	cwd, _ := os.Getwd()
	if _, err := os.Stat(filepath.Join(cwd, "Weekly Sync.srt")); err != nil {
		t.Fatalf("expected file named after title: %v", err)
	}

	pending := testsupport.NewJob(t, env.store, "https://youtu.be/p", jobs.StatusProcessing)
	if _, _, err := runCLI(t, []string{"jobs", "srt", pending.ID}, env.configPath); err == nil {
		t.Fatal("expected error for job without captions")
	}
}

func TestJobsSRTFromProviderReportsTimingDifferences(t *testing.T) {
	providerDoc := "1\n00:00:00,000 --> 00:00:01,200\nHello world.\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transcript/tx-42/srt" || r.Header.Get("Authorization") != "key" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, providerDoc)
	}))
	t.Cleanup(srv.Close)

	env := setupCLITestEnv(t, testsupport.WithAssemblyAI(srv.URL, "key"))
	done := seedCompletedJob(t, env.store, "Weekly Sync")
	done.ProviderJobID = "tx-42"
	if err := env.store.Update(context.Background(), done); err != nil {
		t.Fatalf("Update: %v", err)
	}

	out, errOut, err := runCLI(t, []string{"jobs", "srt", "--provider", done.ID}, env.configPath)
	if err != nil {
		t.Fatalf("jobs srt --provider: %v", err)
	}
	if out != providerDoc {
		t.Fatalf("unexpected provider srt %q", out)
	}
	requireContains(t, errOut, "differs from stored captions in 1 cue(s)")
	requireContains(t, errOut, "cue 1: 00:00:00,000 --> 00:00:01,000, got 00:00:00,000 --> 00:00:01,200")

	providerDoc = done.SRTContent
	_, errOut, err = runCLI(t, []string{"jobs", "srt", "--provider", done.ID}, env.configPath)
	if err != nil {
		t.Fatalf("jobs srt --provider: %v", err)
	}
	requireContains(t, errOut, "matches stored captions (1 cues)")

	local := seedCompletedJob(t, env.store, "Local Only")
	if _, _, err := runCLI(t, []string{"jobs", "srt", "--provider", local.ID}, env.configPath); err == nil {
		t.Fatal("expected error for job without provider transcript")
	}
}

func TestJobsRemoveAndClear(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()
	keep := testsupport.NewJob(t, env.store, "https://youtu.be/a", jobs.StatusProcessing)
	gone := testsupport.NewJob(t, env.store, "https://youtu.be/b", jobs.StatusProcessing)
	seedCompletedJob(t, env.store, "Done")

	out, _, err := runCLI(t, []string{"jobs", "remove", gone.ID}, env.configPath)
	if err != nil {
		t.Fatalf("jobs remove: %v", err)
	}
	requireContains(t, out, "Removed job")

	out, _, err = runCLI(t, []string{"jobs", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs clear: %v", err)
	}
	requireContains(t, out, "Cleared 1 finished jobs")

	remaining, err := env.store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != keep.ID {
		t.Fatalf("expected only %s to remain, got %d jobs", keep.ID, len(remaining))
	}

	if _, _, err := runCLI(t, []string{"jobs", "show", "nope"}, env.configPath); err == nil {
		t.Fatal("expected not found error")
	}
}
