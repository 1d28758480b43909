package acquire

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"captionize/internal/config"
	"captionize/internal/logging"
	"captionize/internal/services"
)

// Extractor converts an uploaded video file into mp3 audio with ffmpeg.
type Extractor struct {
	binary     string
	stagingDir string
	timeout    time.Duration
	logger     *slog.Logger
	run        commandRunner
}

// ExtractorOption customizes an Extractor.
type ExtractorOption func(*Extractor)

// WithExtractorRunner injects a custom command runner (primarily for tests).
func WithExtractorRunner(r commandRunner) ExtractorOption {
	return func(e *Extractor) {
		if r != nil {
			e.run = r
		}
	}
}

// NewExtractor constructs an ffmpeg-backed extractor from configuration.
func NewExtractor(cfg *config.Config, logger *slog.Logger, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		binary:     cfg.Acquisition.FFmpegBinary,
		stagingDir: cfg.Paths.StagingDir,
		timeout:    time.Duration(cfg.Acquisition.DownloadTimeoutSeconds) * time.Second,
		logger:     componentLogger(logger, "extract"),
		run:        defaultCommandRunner,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FetchAudio implements Fetcher for file sources. The uploaded file itself is
// left in place; the caller owns both it and the returned audio.
func (e *Extractor) FetchAudio(ctx context.Context, src Source) (*Audio, error) {
	input := strings.TrimSpace(src.FilePath)
	if input == "" {
		return nil, services.Wrap(services.ErrValidation, "acquire", "extract", "file path required", nil)
	}
	if info, err := os.Stat(input); err != nil || info.IsDir() {
		return nil, services.Wrap(services.ErrValidation, "acquire", "extract", "uploaded file not readable", err)
	}
	if err := ensureStagingDir(e.stagingDir); err != nil {
		return nil, err
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	output := filepath.Join(e.stagingDir, uuid.NewString()+".mp3")
	args := []string{"-hide_banner", "-loglevel", "error", "-y", "-i", input, "-vn", "-acodec", "libmp3lame", output}
	logger := logging.WithContext(ctx, e.logger)
	logger.Info("extracting audio", logging.String("input", input), logging.String("command", e.binary))
	if _, err := e.run(ctx, e.binary, args...); err != nil {
		_ = os.Remove(output)
		if ctx.Err() != nil {
			return nil, services.Wrap(services.ErrTimeout, "acquire", "extract", "ffmpeg did not finish in time", err)
		}
		return nil, services.Wrap(services.ErrExternalTool, "acquire", "extract", "ffmpeg failed", err)
	}

	name := src.FileName
	if strings.TrimSpace(name) == "" {
		name = filepath.Base(input)
	}
	return &Audio{Path: output, Metadata: Metadata{Title: TitleFromFilename(name)}}, nil
}

// TitleFromFilename turns an upload name such as "team_sync-notes.mp4" into
// a display title ("Team Sync Notes").
func TitleFromFilename(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(base)
	base = strings.Join(strings.Fields(base), " ")
	if base == "" {
		return "Uploaded Video"
	}
	return cases.Title(language.Und).String(base)
}
