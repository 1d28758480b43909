package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const rotatedLayout = "20060102T150405"

// RotateLog renames a non-empty server log in dir to
// captionize-<timestamp>.log so each server run starts a fresh file.
func RotateLog(dir string, now time.Time) (string, error) {
	current := filepath.Join(dir, LogFileName)
	info, err := os.Stat(current)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("stat log file: %w", err)
	}
	if info.Size() == 0 {
		return "", nil
	}
	stem := strings.TrimSuffix(LogFileName, filepath.Ext(LogFileName))
	rotated := filepath.Join(dir, stem+"-"+now.Format(rotatedLayout)+".log")
	if err := os.Rename(current, rotated); err != nil {
		return "", fmt.Errorf("rotate log file: %w", err)
	}
	return rotated, nil
}

// PruneLogs removes rotated server logs in dir older than retentionDays.
// The live log is never touched. A retentionDays value of 0 disables pruning.
func PruneLogs(logger *slog.Logger, dir string, retentionDays int) int {
	if retentionDays <= 0 || strings.TrimSpace(dir) == "" {
		return 0
	}
	stem := strings.TrimSuffix(LogFileName, filepath.Ext(LogFileName))
	matches, err := filepath.Glob(filepath.Join(dir, stem+"-*.log"))
	if err != nil {
		return 0
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	removed := 0
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
				String("path", path),
				Error(err),
				String(FieldErrorHint, "check file permissions and log_dir ownership"),
				String(FieldImpact, "old log file remains on disk"),
			)
			continue
		}
		removed++
		if logger != nil {
			logger.Debug("log pruned", String("path", path), String(FieldEventType, "log_pruned"))
		}
	}
	return removed
}
