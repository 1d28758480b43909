package logging

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"captionize/internal/config"
)

// LogFileName is the server log written under the configured log directory.
const LogFileName = "captionize.log"

// Options describes logger construction parameters. Output paths accept
// "stdout", "stderr", or a file path; duplicates are written once.
type Options struct {
	Level            string
	Format           string
	OutputPaths      []string
	ErrorOutputPaths []string
	Development      bool
}

// ServerOptions logs to the console and the server log file.
func ServerOptions(cfg *config.Config, levelOverride string, development bool) Options {
	logPath := filepath.Join(cfg.Paths.LogDir, LogFileName)
	return Options{
		Level:            pickLevel(cfg.Logging.Level, levelOverride),
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      development,
	}
}

// CLIOptions keeps stdout free for command output by logging to stderr only.
func CLIOptions(cfg *config.Config, levelOverride string) Options {
	return Options{
		Level:            pickLevel(cfg.Logging.Level, levelOverride),
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
}

func pickLevel(configured, override string) string {
	if strings.TrimSpace(override) != "" {
		return override
	}
	return configured
}

// New constructs a slog logger using the provided options. Source locations
// are attached in development mode and at debug level.
func New(opts Options) (*slog.Logger, error) {
	levelVar := new(slog.LevelVar)
	levelVar.Set(parseLevel(opts.Level))
	addSource := opts.Development || levelVar.Level() <= slog.LevelDebug

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format != "" && format != "console" && format != "json" {
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	out, err := openSinks(opts.OutputPaths, opts.ErrorOutputPaths)
	if err != nil {
		return nil, err
	}

	if format == "json" {
		return slog.New(newJSONHandler(out, levelVar, addSource)), nil
	}
	return slog.New(newConsoleHandler(out, levelVar, addSource)), nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
