package acquire

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"captionize/internal/config"
	"captionize/internal/logging"
	"captionize/internal/services"
)

// networkFlags are shared by the download and metadata passes.
var networkFlags = []string{
	"--force-ipv4",
	"--geo-bypass",
	"--no-check-certificate",
	"--extractor-retries", "3",
	"--ignore-errors",
}

// YTDLP downloads the smallest usable stream with yt-dlp and extracts mp3 audio.
type YTDLP struct {
	binary     string
	stagingDir string
	timeout    time.Duration
	logger     *slog.Logger
	run        commandRunner
}

// YTDLPOption customizes a YTDLP fetcher.
type YTDLPOption func(*YTDLP)

// WithYTDLPRunner injects a custom command runner (primarily for tests).
func WithYTDLPRunner(r commandRunner) YTDLPOption {
	return func(y *YTDLP) {
		if r != nil {
			y.run = r
		}
	}
}

// NewYTDLP constructs a yt-dlp fetcher from configuration.
func NewYTDLP(cfg *config.Config, logger *slog.Logger, opts ...YTDLPOption) *YTDLP {
	y := &YTDLP{
		binary:     cfg.Acquisition.YTDLPBinary,
		stagingDir: cfg.Paths.StagingDir,
		timeout:    time.Duration(cfg.Acquisition.DownloadTimeoutSeconds) * time.Second,
		logger:     componentLogger(logger, "ytdlp"),
		run:        defaultCommandRunner,
	}
	for _, opt := range opts {
		opt(y)
	}
	return y
}

// FetchAudio implements Fetcher.
func (y *YTDLP) FetchAudio(ctx context.Context, src Source) (*Audio, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if err := ensureStagingDir(y.stagingDir); err != nil {
		return nil, err
	}
	if y.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, y.timeout)
		defer cancel()
	}

	fileID := uuid.NewString()
	template := filepath.Join(y.stagingDir, fileID+".%(ext)s")
	args := []string{"-S", "+size,+br,+res,+fps", "-x", "--audio-format", "mp3"}
	args = append(args, networkFlags...)
	args = append(args, "-o", template, src.URL)

	logger := logging.WithContext(ctx, y.logger)
	logger.Info("downloading audio", logging.String("url", src.URL), logging.String("command", y.binary))
	if _, err := y.run(ctx, y.binary, args...); err != nil {
		removeMatching(y.stagingDir, fileID)
		return nil, downloadError(ctx, err)
	}

	path, err := findDownloaded(y.stagingDir, fileID)
	if err != nil {
		return nil, err
	}
	audio := &Audio{Path: path}

	metaArgs := append([]string{"--print", "title", "--print", "duration", "--print", "channel"}, networkFlags...)
	metaArgs = append(metaArgs, src.URL)
	out, err := y.run(ctx, y.binary, metaArgs...)
	if err != nil {
		logging.WarnWithContext(logger, "yt-dlp metadata lookup failed; continuing without title", "ytdlp_metadata_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "job title falls back to a generic label"),
		)
		return audio, nil
	}
	audio.Metadata = parseYTDLPMetadata(string(out))
	logger.Info("audio downloaded",
		logging.String("path", path),
		logging.String("title", audio.Metadata.Title),
		logging.Float64("duration_seconds", audio.Metadata.Duration),
	)
	return audio, nil
}

// parseYTDLPMetadata reads the title, duration, and channel lines printed by
// yt-dlp. Unparseable durations are left at zero.
func parseYTDLPMetadata(output string) Metadata {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	var meta Metadata
	if len(lines) > 0 {
		meta.Title = strings.TrimSpace(lines[0])
	}
	if len(lines) > 1 {
		if d, err := strconv.ParseFloat(strings.TrimSpace(lines[1]), 64); err == nil && d >= 0 {
			meta.Duration = d
		}
	}
	if len(lines) > 2 {
		meta.Author = strings.TrimSpace(lines[2])
	}
	if meta.Title == "NA" {
		meta.Title = ""
	}
	if meta.Author == "NA" {
		meta.Author = ""
	}
	return meta
}

var ytdlpFailures = []struct {
	signature string
	message   string
}{
	{"HTTP Error 403: Forbidden", "access to this video is forbidden; it may be private or region-restricted"},
	{"This video is unavailable", "this video is unavailable; it may have been removed or made private"},
	{"Sign in to confirm your age", "this video requires age verification and cannot be accessed"},
	{"ERROR: unable to download", "unable to download the video due to access restrictions or network issues"},
}

func downloadError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return services.Wrap(services.ErrTimeout, "acquire", "yt-dlp download", "download did not finish in time", err)
	}
	var cmdErr *commandError
	if errors.As(err, &cmdErr) {
		for _, failure := range ytdlpFailures {
			if strings.Contains(cmdErr.Stderr, failure.signature) {
				return services.Wrap(services.ErrValidation, "acquire", "yt-dlp download", failure.message, err)
			}
		}
	}
	return services.Wrap(services.ErrExternalTool, "acquire", "yt-dlp download", "yt-dlp failed", err)
}

func findDownloaded(dir, fileID string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "acquire", "yt-dlp download", "read staging directory", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), fileID) {
			return filepath.Join(dir, entry.Name()), nil
		}
	}
	return "", services.Wrap(services.ErrExternalTool, "acquire", "yt-dlp download", "downloaded file not found", nil)
}

func removeMatching(dir, prefix string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), prefix) {
			_ = os.Remove(filepath.Join(dir, entry.Name()))
		}
	}
}
