package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"captionize/internal/captions"
	"captionize/internal/config"
	"captionize/internal/jobs"
	"captionize/internal/workflow"
)

// providerSRT downloads the provider's rendering of a job's transcript and
// reports, on stderr, every cue whose timing differs from the stored captions.
func providerSRT(cmd *cobra.Command, cfg *config.Config, job *jobs.Job) (string, error) {
	if strings.TrimSpace(job.ProviderJobID) == "" {
		return "", fmt.Errorf("job %s has no provider transcript", job.ID)
	}
	content, err := workflow.NewProvider(cfg).SRT(cmd.Context(), job.ProviderJobID)
	if err != nil {
		return "", err
	}
	remote, err := captions.Parse(content)
	if err != nil {
		return "", fmt.Errorf("parse provider srt: %w", err)
	}
	stored, err := job.Captions()
	if err != nil {
		return "", err
	}

	w := cmd.ErrOrStderr()
	diff := captions.CompareTimings(stored, remote)
	if len(diff) == 0 {
		fmt.Fprintf(w, "Provider SRT matches stored captions (%d cues)\n", len(remote))
		return content, nil
	}
	fmt.Fprintf(w, "Provider SRT differs from stored captions in %d cue(s):\n", len(diff))
	for _, m := range diff {
		fmt.Fprintf(w, "  %s\n", m)
	}
	return content, nil
}
