package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"captionize/internal/api"
	"captionize/internal/config"
	"captionize/internal/jobs"
	"captionize/internal/textutil"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and manage transcription jobs",
	}
	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	jobsCmd.AddCommand(newJobsSRTCommand(ctx))
	jobsCmd.AddCommand(newJobsRemoveCommand(ctx))
	jobsCmd.AddCommand(newJobsClearCommand(ctx))
	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var statusFlags []string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := parseStatuses(statusFlags)
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, store *jobs.Store) error {
				list, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, api.JobListResponse{Jobs: api.FromJobs(list)})
				}
				out := cmd.OutOrStdout()
				if len(list) == 0 {
					fmt.Fprintln(out, "No jobs found")
					return nil
				}
				fmt.Fprintln(out, renderJobTable(list))
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVarP(&statusFlags, "status", "s", nil, "Filter by status (idle, processing, completed, failed)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of a table")
	return cmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show job details and caption preview",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *jobs.Store) error {
				job, err := findJob(cmd, store, args[0])
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, api.JobResponse{Job: api.FromJobDetail(job)})
				}
				out := cmd.OutOrStdout()
				printer := newStatusPrinter(out)
				printer.header(job.Title)
				printer.line("ID", statusInfo, job.ID)
				printer.line("Source", statusInfo, job.SourceURL)
				printer.line("Status", jobStatusKind(job.Status), fmt.Sprintf("%s (%d%%)", job.Status, job.Progress))
				printer.line("Duration", statusInfo, formatDuration(job.Duration))
				if job.Error != "" {
					printer.line("Error", statusError, job.Error)
				}
				if job.Status != jobs.StatusCompleted {
					return nil
				}
				cues, err := job.Captions()
				if err != nil {
					return fmt.Errorf("decode captions: %w", err)
				}
				fmt.Fprintln(out, renderCaptionTable(cues))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of text")
	return cmd
}

func newJobsSRTCommand(ctx *commandContext) *cobra.Command {
	var (
		outputPath   string
		fromProvider bool
	)
	cmd := &cobra.Command{
		Use:   "srt <id>",
		Short: "Write a completed job's SRT captions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *jobs.Store) error {
				job, err := findJob(cmd, store, args[0])
				if err != nil {
					return err
				}
				if job.Status != jobs.StatusCompleted || job.SRTContent == "" {
					return fmt.Errorf("job %s has no captions yet (status %s)", job.ID, job.Status)
				}
				path := outputPath
				if path == "." {
					path = textutil.SRTFileName(job.Title)
				}
				content := job.SRTContent
				if fromProvider {
					if content, err = providerSRT(cmd, cfg, job); err != nil {
						return err
					}
				}
				return writeSRT(cmd, path, content)
			})
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write to this file (\".\" names it after the job title)")
	cmd.Flags().BoolVar(&fromProvider, "provider", false, "Fetch the provider's own SRT and report cue timings that differ from the stored captions")
	return cmd
}

func newJobsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *jobs.Store) error {
				job, err := findJob(cmd, store, args[0])
				if err != nil {
					return err
				}
				if _, err := store.Delete(cmd.Context(), job.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed job %s\n", job.ID)
				return nil
			})
		},
	}
}

func newJobsClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete completed and failed jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *jobs.Store) error {
				removed, err := store.ClearFinished(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d finished jobs\n", removed)
				return nil
			})
		},
	}
}

// findJob resolves a full ID or a unique prefix of at least four characters.
func findJob(cmd *cobra.Command, store *jobs.Store, ref string) (*jobs.Job, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, errors.New("job id is required")
	}
	job, err := store.Get(cmd.Context(), ref)
	if err != nil {
		return nil, err
	}
	if job != nil {
		return job, nil
	}
	if len(ref) < 4 {
		return nil, fmt.Errorf("job %s not found", ref)
	}
	all, err := store.List(cmd.Context())
	if err != nil {
		return nil, err
	}
	var match *jobs.Job
	for _, candidate := range all {
		if !strings.HasPrefix(candidate.ID, ref) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("job prefix %s is ambiguous", ref)
		}
		match = candidate
	}
	if match == nil {
		return nil, fmt.Errorf("job %s not found", ref)
	}
	return match, nil
}

func parseStatuses(values []string) ([]jobs.Status, error) {
	var statuses []jobs.Status
	for _, value := range values {
		if strings.TrimSpace(value) == "" {
			continue
		}
		status, ok := jobs.ParseStatus(value)
		if !ok {
			return nil, fmt.Errorf("unknown status %q", value)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatDuration(seconds float64) string {
	if seconds <= 0 {
		return "-"
	}
	total := int(seconds)
	if total >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", total/3600, (total%3600)/60, total%60)
	}
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
