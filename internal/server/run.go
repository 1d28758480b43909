package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"captionize/internal/acquire"
	"captionize/internal/config"
	"captionize/internal/deps"
	"captionize/internal/jobs"
	"captionize/internal/logging"
	"captionize/internal/staging"
	"captionize/internal/workflow"
)

// Options configures server process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the captionize server and blocks until SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := checkInstanceFree(cfg.LockPath()); err != nil {
		return err
	}

	rotated, rotateErr := logging.RotateLog(cfg.Paths.LogDir, time.Now())
	logger, err := logging.New(logging.ServerOptions(cfg, opts.LogLevel, opts.Development))
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if rotateErr != nil {
		logging.WarnWithContext(logger, "log rotation failed; appending to existing log", "log_rotation_failed",
			logging.Error(rotateErr),
			logging.String(logging.FieldErrorHint, "check paths.log_dir permissions"),
		)
	} else if rotated != "" {
		logger.Debug("rotated previous server log", logging.String("path", rotated))
	}

	logDependencySnapshot(logger, cfg)
	logging.PruneLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays)
	staging.CleanStale(signalCtx, cfg.Paths.StagingDir, cfg.JobTimeout(), logger)

	pidPath := filepath.Join(cfg.Paths.LogDir, "captionize.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := jobs.Open(cfg)
	if err != nil {
		logger.Error("open job store", logging.Error(err))
		return err
	}

	manager := workflow.NewManager(cfg, store, acquire.NewFetcher(cfg, logger), workflow.NewProvider(cfg), logger)
	srv, err := New(cfg, store, manager, logger)
	if err != nil {
		store.Close()
		return fmt.Errorf("create server: %w", err)
	}
	defer srv.Close()

	if err := srv.Start(signalCtx); err != nil {
		return err
	}

	<-signalCtx.Done()
	logger.Info("captionize server shutting down", logging.String(logging.FieldEventType, "server_shutdown"))
	return nil
}

// checkInstanceFree probes the instance lock so a second server fails before
// it rotates the live log or overwrites the PID file. Start takes the lock
// for real.
func checkInstanceFree(lockPath string) error {
	probe := flock.New(lockPath)
	ok, err := probe.TryLock()
	if err != nil {
		return fmt.Errorf("probe lock: %w", err)
	}
	if !ok {
		return ErrInstanceRunning
	}
	return probe.Unlock()
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.String("acquisition_method", cfg.Acquisition.Method),
		logging.Bool("assemblyai_key_present", strings.TrimSpace(cfg.AssemblyAI.APIKey) != ""),
		logging.Bool("rapidapi_key_present", strings.TrimSpace(cfg.Acquisition.RapidAPIKey) != ""),
	}
	for _, status := range deps.CheckBinaries(deps.Requirements(cfg)) {
		key := strings.ToLower(strings.ReplaceAll(status.Name, "-", "_"))
		attrs = append(attrs,
			logging.Bool(key+"_available", status.Available),
			logging.String(key+"_binary", status.Command),
		)
	}
	logger.Info("dependency snapshot", logging.Args(attrs...)...)
	if strings.TrimSpace(cfg.AssemblyAI.APIKey) == "" {
		logging.WarnWithContext(logger, "AssemblyAI API key missing", "assemblyai_key_missing",
			logging.String(logging.FieldErrorHint, "set assemblyai.api_key or ASSEMBLY_AI_API_KEY"),
			logging.String(logging.FieldImpact, "transcription requests will fail"),
		)
	}
}
