package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"captionize/internal/captions"
	"captionize/internal/config"
	"captionize/internal/jobs"
	"captionize/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	store      *jobs.Store
	configPath string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)
	store := testsupport.MustOpenStore(t, cfg)
	return &cliTestEnv{cfg: cfg, store: store, configPath: configPath}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func seedCompletedJob(t *testing.T, store *jobs.Store, title string) *jobs.Job {
	t.Helper()
	job := testsupport.NewJob(t, store, "https://youtu.be/abc", jobs.StatusProcessing)
	cues, srt, err := captions.Render([]captions.Word{
		{Text: "Hello", Start: 0, End: 0.5},
		{Text: "world.", Start: 0.5, End: 1},
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if err := job.SetCaptions(cues); err != nil {
		t.Fatalf("SetCaptions: %v", err)
	}
	job.Title = title
	job.SRTContent = srt
	job.Status = jobs.StatusCompleted
	job.Progress = 100
	job.Duration = 75
	if err := store.Update(context.Background(), job); err != nil {
		t.Fatalf("Update: %v", err)
	}
	return job
}
