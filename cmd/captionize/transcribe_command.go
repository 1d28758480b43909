package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"captionize/internal/acquire"
	"captionize/internal/api"
	"captionize/internal/jobs"
	"captionize/internal/workflow"
)

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var outputPath string
	var jsonOutput bool
	var detach bool
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "transcribe <url|file>",
		Short: "Transcribe a video URL or local file and write SRT captions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.cliLogger(cfg)
			if err != nil {
				return err
			}
			src, err := sourceFromArg(args[0])
			if err != nil {
				return err
			}

			store, err := jobs.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			manager := workflow.NewManager(cfg, store, acquire.NewFetcher(cfg, logger), workflow.NewProvider(cfg), logger)
			runCtx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				runCtx, cancel = context.WithTimeout(runCtx, timeout)
				defer cancel()
			}

			job, err := manager.Submit(runCtx, src)
			if err != nil {
				return err
			}
			if detach {
				if jsonOutput {
					return writeJSON(cmd, api.JobResponse{Job: api.FromJob(job)})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Submitted job %s (%s)\n", job.ID, job.Title)
				return nil
			}

			job, err = manager.Wait(runCtx, job.ID)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, api.JobResponse{Job: api.FromJobDetail(job)})
			}
			if job.Status != jobs.StatusCompleted {
				return fmt.Errorf("job %s %s: %s", job.ID, job.Status, job.Error)
			}
			return writeSRT(cmd, outputPath, job.SRTContent)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write SRT to this file instead of stdout")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the finished job as JSON")
	cmd.Flags().BoolVar(&detach, "detach", false, "Submit the job and return without waiting (the server finishes it)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Give up waiting after this long (0 uses workflow.job_timeout_seconds)")
	return cmd
}

// sourceFromArg treats anything with an http(s) scheme as a URL and
// everything else as a local file path.
func sourceFromArg(arg string) (acquire.Source, error) {
	arg = strings.TrimSpace(arg)
	lower := strings.ToLower(arg)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return acquire.Source{URL: arg}, nil
	}
	abs, err := filepath.Abs(arg)
	if err != nil {
		return acquire.Source{}, fmt.Errorf("resolve %s: %w", arg, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return acquire.Source{}, fmt.Errorf("stat %s: %w", abs, err)
	}
	if info.IsDir() {
		return acquire.Source{}, fmt.Errorf("%s is a directory", abs)
	}
	return acquire.Source{FilePath: abs, FileName: filepath.Base(abs)}, nil
}

func writeSRT(cmd *cobra.Command, path, content string) error {
	path = strings.TrimSpace(path)
	if path == "" || path == "-" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), content)
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote captions to %s\n", path)
	return nil
}
