package acquire

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/exec"
	"strings"

	"captionize/internal/config"
	"captionize/internal/logging"
	"captionize/internal/services"
)

// Source identifies the media to transcribe. Exactly one of URL or FilePath
// is set; FileName carries the client-supplied name of an upload.
type Source struct {
	URL      string
	FilePath string
	FileName string
}

// Metadata describes the fetched media when the source exposes it.
type Metadata struct {
	Title    string  `json:"title,omitempty"`
	Duration float64 `json:"duration,omitempty"`
	Author   string  `json:"author,omitempty"`
}

// Audio is a local audio file owned by the caller.
type Audio struct {
	Path     string
	Metadata Metadata
}

// Cleanup removes the audio file. It is safe to call more than once.
func (a *Audio) Cleanup() error {
	if a == nil || a.Path == "" {
		return nil
	}
	if err := os.Remove(a.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove audio %s: %w", a.Path, err)
	}
	return nil
}

// Fetcher produces local audio for a source.
type Fetcher interface {
	FetchAudio(ctx context.Context, src Source) (*Audio, error)
}

// Validate checks that the source names either an http(s) URL or a file.
func (s Source) Validate() error {
	switch {
	case strings.TrimSpace(s.FilePath) != "":
		return nil
	case strings.TrimSpace(s.URL) == "":
		return services.Wrap(services.ErrValidation, "acquire", "validate source", "url or file required", nil)
	}
	parsed, err := url.Parse(strings.TrimSpace(s.URL))
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return services.Wrap(services.ErrValidation, "acquire", "validate source", "invalid URL", err)
	}
	return nil
}

// Router dispatches URL sources to the configured downloader and file
// sources to the upload extractor.
type Router struct {
	Remote Fetcher
	Local  Fetcher
}

// NewFetcher builds the fetcher selected by acquisition.method.
func NewFetcher(cfg *config.Config, logger *slog.Logger) *Router {
	var remote Fetcher
	switch cfg.Acquisition.Method {
	case "rapidapi":
		remote = NewRapidAPI(cfg, logger)
	default:
		remote = NewYTDLP(cfg, logger)
	}
	return &Router{Remote: remote, Local: NewExtractor(cfg, logger)}
}

// FetchAudio implements Fetcher.
func (r *Router) FetchAudio(ctx context.Context, src Source) (*Audio, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(src.FilePath) != "" {
		return r.Local.FetchAudio(ctx, src)
	}
	return r.Remote.FetchAudio(ctx, src)
}

// commandRunner executes an external binary and returns its stdout. Failures
// carry stderr in a *commandError.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

type commandError struct {
	Command string
	Stderr  string
	Err     error
}

func (e *commandError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Command, e.Err, e.Stderr)
}

func (e *commandError) Unwrap() error { return e.Err }

func defaultCommandRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), &commandError{
			Command: name,
			Stderr:  strings.TrimSpace(stderr.String()),
			Err:     err,
		}
	}
	return stdout.Bytes(), nil
}

func ensureStagingDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return services.Wrap(services.ErrConfiguration, "acquire", "staging", "staging directory not configured", nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "acquire", "staging", "create staging directory", err)
	}
	return nil
}

func componentLogger(logger *slog.Logger, name string) *slog.Logger {
	return logging.NewComponentLogger(logger, name)
}
