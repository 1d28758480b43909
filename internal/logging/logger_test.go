package logging_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"captionize/internal/config"
	"captionize/internal/logging"
	"captionize/internal/services"
)

func TestServerOptionsWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "logs")

	opts := logging.ServerOptions(&cfg, "debug", false)
	if opts.Level != "debug" {
		t.Fatalf("expected level override, got %q", opts.Level)
	}
	opts.OutputPaths = opts.OutputPaths[1:]
	opts.ErrorOutputPaths = opts.ErrorOutputPaths[1:]
	logger, err := logging.New(opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("server started")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, logging.LogFileName))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "server started") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestCLIOptionsUseStderrOnly(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Level = "warn"
	opts := logging.CLIOptions(&cfg, "")
	if opts.Level != "warn" {
		t.Fatalf("expected configured level, got %q", opts.Level)
	}
	for _, out := range append(opts.OutputPaths, opts.ErrorOutputPaths...) {
		if out != "stderr" {
			t.Fatalf("expected stderr only, got %v / %v", opts.OutputPaths, opts.ErrorOutputPaths)
		}
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")

	logger, err := logging.New(logging.Options{
		Format:           "console",
		Level:            "info",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-debug.log")

	logger, err := logging.New(logging.Options{
		Format:           "console",
		Level:            "debug",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message with caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestConsoleLoggerRendersJobSubject(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-subject.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}, ErrorOutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithJobID(context.Background(), "0123456789abcdef")
	ctx = services.WithStage(ctx, "transcribing")
	logging.WithContext(ctx, logging.NewComponentLogger(logger, "workflow")).Info("polling provider", logging.Int("progress", 50))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	for _, want := range []string{"[workflow]", "Job 01234567 (transcribing)", "polling provider", "- progress: 50"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
}

func TestJSONLoggerRenamesKeys(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}, ErrorOutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("json message", logging.String("k", "v"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(content, &record); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if record["msg"] != "json message" || record["level"] != "info" || record["k"] != "v" {
		t.Fatalf("unexpected record: %v", record)
	}
	if _, err := time.Parse(time.RFC3339Nano, record["ts"].(string)); err != nil {
		t.Fatalf("expected RFC3339 ts, got %v", record["ts"])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewInvalidLevelDefaultsToInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "level.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "invalid", OutputPaths: []string{logPath}, ErrorOutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("visible")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), "hidden") || !strings.Contains(string(content), "visible") {
		t.Fatalf("expected info level filtering, got %q", content)
	}
}

func TestContextFields(t *testing.T) {
	ctx := services.WithJobID(context.Background(), "job-1")
	ctx = services.WithStage(ctx, "uploading")
	ctx = services.WithRequestID(ctx, "req-xyz")

	fields := logging.ContextFields(ctx)
	got := map[string]string{}
	for _, f := range fields {
		got[f.Key] = f.Value.String()
	}
	if got[logging.FieldJobID] != "job-1" || got[logging.FieldStage] != "uploading" || got[logging.FieldCorrelationID] != "req-xyz" {
		t.Fatalf("unexpected context fields: %v", got)
	}
}

func TestErrorAttrsIncludesKind(t *testing.T) {
	err := services.Wrap(services.ErrTimeout, "workflow", "poll", "provider did not finish", errors.New("deadline"))
	attrs := logging.ErrorAttrs(err)
	if len(attrs) != 2 || attrs[1].Key != logging.FieldErrorKind || attrs[1].Value.String() != "timeout" {
		t.Fatalf("unexpected attrs: %v", attrs)
	}
	if logging.ErrorAttrs(nil) != nil {
		t.Fatal("expected nil attrs for nil error")
	}
}

func TestConsoleLoggerFoldsExtraFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "fold.log")
	logger, err := logging.New(logging.Options{Format: "console", OutputPaths: []string{logPath}, ErrorOutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	attrs := make([]logging.Attr, 0, 10)
	for i := 0; i < 10; i++ {
		attrs = append(attrs, logging.Int("f"+strconv.Itoa(i), i))
	}
	logger.Info("many fields", logging.Args(attrs...)...)

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "+ 2 more fields hidden") || strings.Contains(string(content), "f9:") {
		t.Fatalf("expected fields folded, got %q", content)
	}
}

func TestRotateAndPruneLogs(t *testing.T) {
	dir := t.TempDir()
	live := filepath.Join(dir, logging.LogFileName)
	if err := os.WriteFile(live, []byte("previous run\n"), 0o644); err != nil {
		t.Fatalf("write live log: %v", err)
	}

	rotated, err := logging.RotateLog(dir, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	if err != nil {
		t.Fatalf("RotateLog: %v", err)
	}
	if filepath.Base(rotated) != "captionize-20260102T030405.log" {
		t.Fatalf("unexpected rotated name %q", rotated)
	}
	if _, err := os.Stat(live); !os.IsNotExist(err) {
		t.Fatalf("expected live log moved, stat err=%v", err)
	}
	if again, err := logging.RotateLog(dir, time.Now()); err != nil || again != "" {
		t.Fatalf("expected no-op rotation without live log, got %q %v", again, err)
	}

	fresh := filepath.Join(dir, "captionize-20990101T000000.log")
	if err := os.WriteFile(fresh, []byte("x"), 0o644); err != nil {
		t.Fatalf("write fresh: %v", err)
	}
	if err := os.WriteFile(live, []byte("x"), 0o644); err != nil {
		t.Fatalf("write live: %v", err)
	}
	past := time.Now().AddDate(0, 0, -30)
	for _, p := range []string{rotated, live} {
		if err := os.Chtimes(p, past, past); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	if removed := logging.PruneLogs(logging.NewNop(), dir, 14); removed != 1 {
		t.Fatalf("expected 1 pruned log, got %d", removed)
	}
	if _, err := os.Stat(rotated); !os.IsNotExist(err) {
		t.Fatalf("expected old rotated log removed, stat err=%v", err)
	}
	for _, p := range []string{fresh, live} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected %s kept: %v", p, err)
		}
	}
	if removed := logging.PruneLogs(logging.NewNop(), dir, 0); removed != 0 {
		t.Fatalf("expected pruning disabled, got %d", removed)
	}
}
