package assemblyai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"captionize/internal/services"
)

const (
	defaultBaseURL        = "https://api.assemblyai.com/v2"
	defaultHTTPTimeout    = 60 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryAttempts  = 3
)

// Config captures the runtime settings required to talk to AssemblyAI.
type Config struct {
	APIKey         string
	BaseURL        string
	TimeoutSeconds int
	RetryAttempts  int
}

// Client wraps the AssemblyAI transcript API.
type Client struct {
	cfg        Config
	httpClient *http.Client

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs an AssemblyAI client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	attempts := cfg.RetryAttempts
	if attempts <= 0 {
		attempts = defaultRetryAttempts
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			TimeoutSeconds: cfg.TimeoutSeconds,
			RetryAttempts:  attempts,
		},
		httpClient:       &http.Client{Timeout: timeout},
		retryMaxAttempts: attempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	return client
}

type httpStatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("assemblyai request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// Upload sends a local audio file to AssemblyAI storage and returns the
// private URL the transcript request should reference.
func (c *Client) Upload(ctx context.Context, path string) (string, error) {
	if err := c.requireKey("upload"); err != nil {
		return "", err
	}
	var resp uploadResponse
	err := c.doWithRetry(ctx, "upload", func() (*http.Request, error) {
		file, err := os.Open(path)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "assemblyai", "upload", "open audio file", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/upload", file)
		if err != nil {
			file.Close()
			return nil, err
		}
		if info, statErr := file.Stat(); statErr == nil {
			req.ContentLength = info.Size()
		}
		req.Header.Set("Content-Type", "application/octet-stream")
		return req, nil
	}, &resp)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.UploadURL) == "" {
		return "", services.Wrap(services.ErrExternalTool, "assemblyai", "upload", "response missing upload_url", nil)
	}
	return resp.UploadURL, nil
}

// Submit requests a transcript for audio that is already reachable by URL and
// returns the provider job identifier.
func (c *Client) Submit(ctx context.Context, audioURL string) (string, error) {
	if err := c.requireKey("submit"); err != nil {
		return "", err
	}
	audioURL = strings.TrimSpace(audioURL)
	if audioURL == "" {
		return "", services.Wrap(services.ErrValidation, "assemblyai", "submit", "audio url required", nil)
	}
	body, err := json.Marshal(transcriptRequest{AudioURL: audioURL})
	if err != nil {
		return "", fmt.Errorf("assemblyai submit: encode body: %w", err)
	}
	var transcript Transcript
	err = c.doWithRetry(ctx, "submit", func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/transcript", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}, &transcript)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(transcript.ID) == "" {
		return "", services.Wrap(services.ErrExternalTool, "assemblyai", "submit", "response missing transcript id", nil)
	}
	return transcript.ID, nil
}

// Transcribe uploads a local audio file and submits it in one step.
func (c *Client) Transcribe(ctx context.Context, path string) (string, error) {
	uploadURL, err := c.Upload(ctx, path)
	if err != nil {
		return "", err
	}
	return c.Submit(ctx, uploadURL)
}

// Status fetches the current state of a transcript. Unknown identifiers
// return an error marked services.ErrNotFound.
func (c *Client) Status(ctx context.Context, jobID string) (*Transcript, error) {
	if err := c.requireKey("status"); err != nil {
		return nil, err
	}
	endpoint, err := c.transcriptURL(jobID)
	if err != nil {
		return nil, err
	}
	var transcript Transcript
	err = c.doWithRetry(ctx, "status", func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	}, &transcript)
	if err != nil {
		return nil, err
	}
	return &transcript, nil
}

// SRT fetches the provider's own SRT rendering of a completed transcript.
func (c *Client) SRT(ctx context.Context, jobID string) (string, error) {
	if err := c.requireKey("srt"); err != nil {
		return "", err
	}
	endpoint, err := c.transcriptURL(jobID, "srt")
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	err = c.doWithRetry(ctx, "srt", func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	}, &buf)
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// HealthCheck verifies the key against the transcript listing endpoint with a
// single attempt.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.requireKey("health check"); err != nil {
		return err
	}
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "transcript")
	if err != nil {
		return fmt.Errorf("assemblyai request: build url: %w", err)
	}
	var buf bytes.Buffer
	err = c.doOnce(func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?limit=1", nil)
	}, &buf)
	return classify("health check", err)
}

func (c *Client) transcriptURL(jobID string, extra ...string) (string, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return "", services.Wrap(services.ErrValidation, "assemblyai", "status", "transcript id required", nil)
	}
	endpoint, err := url.JoinPath(c.cfg.BaseURL, append([]string{"transcript", jobID}, extra...)...)
	if err != nil {
		return "", fmt.Errorf("assemblyai request: build url: %w", err)
	}
	return endpoint, nil
}

func (c *Client) requireKey(op string) error {
	if c.cfg.APIKey == "" {
		return services.Wrap(services.ErrConfiguration, "assemblyai", op, "api key required (set ASSEMBLY_AI_API_KEY)", nil)
	}
	return nil
}

// doWithRetry sends the request built by build and decodes the body into out.
// A *bytes.Buffer target receives the raw body.
func (c *Client) doWithRetry(ctx context.Context, op string, build func() (*http.Request, error), out any) error {
	attempts := c.retryAttempts()
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		err := c.doOnce(build, out)
		if err == nil {
			return nil
		}

		delay, retry := c.retryDelay(ctx, err, attempt, attempts)
		if !retry {
			return classify(op, err)
		}
		if err := c.sleep(ctx, delay); err != nil {
			return classify(op, err)
		}
		lastErr = err
	}

	if lastErr == nil {
		lastErr = errors.New("unknown retry failure")
	}
	return classify(op, fmt.Errorf("failed after %d attempts: %w", attempts, lastErr))
}

func (c *Client) doOnce(build func() (*http.Request, error), out any) error {
	req, err := build()
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http error (timeout=%s): %w", c.httpClient.Timeout, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return &httpStatusError{
			StatusCode: resp.StatusCode,
			Body:       providerMessage(body),
			RetryAfter: retryAfter,
		}
	}
	if buf, ok := out.(*bytes.Buffer); ok {
		buf.Reset()
		buf.Write(body)
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// classify tags err with the services marker matching its cause.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if services.Kind(err) != "transient" {
		return err
	}
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusNotFound:
			return services.Wrap(services.ErrNotFound, "assemblyai", op, "transcript not found", err)
		case statusErr.StatusCode == http.StatusUnauthorized, statusErr.StatusCode == http.StatusForbidden:
			return services.Wrap(services.ErrConfiguration, "assemblyai", op, "api key rejected", err)
		case statusErr.StatusCode == http.StatusBadRequest:
			return services.Wrap(services.ErrValidation, "assemblyai", op, "request rejected", err)
		case statusErr.StatusCode >= http.StatusInternalServerError:
			return services.Wrap(services.ErrExternalTool, "assemblyai", op, "provider unavailable", err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "assemblyai", op, "request timed out", err)
	}
	return services.Wrap(services.ErrTransient, "assemblyai", op, "request failed", err)
}

func providerMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && strings.TrimSpace(payload.Error) != "" {
		return strings.TrimSpace(payload.Error)
	}
	return strings.TrimSpace(string(body))
}

func (c *Client) retryAttempts() int {
	if c == nil || c.retryMaxAttempts <= 0 {
		return 1
	}
	return c.retryMaxAttempts
}

func (c *Client) retryDelay(ctx context.Context, err error, attempt, maxAttempts int) (time.Duration, bool) {
	if attempt >= maxAttempts || err == nil || ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError:
			if statusErr.RetryAfter > 0 {
				return c.capDelay(statusErr.RetryAfter), true
			}
			return c.backoffDelay(attempt), true
		default:
			return 0, false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return c.backoffDelay(attempt), true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return c.backoffDelay(attempt), true
	}

	return 0, false
}

func (c *Client) backoffDelay(attempt int) time.Duration {
	base := c.retryBaseDelay
	if base <= 0 {
		return 0
	}
	if attempt <= 0 {
		attempt = 1
	}
	maxDelay := c.retryMaxDelay
	if maxDelay <= 0 {
		maxDelay = defaultRetryMaxDelay
	}
	// attempt 1 -> base, attempt 2 -> base*2, attempt 3 -> base*4, ...
	delay := base
	for i := 1; i < attempt; i++ {
		if delay > maxDelay/2 {
			delay = maxDelay
			break
		}
		delay *= 2
	}
	return c.capDelay(delay)
}

func (c *Client) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	maxDelay := c.retryMaxDelay
	if maxDelay <= 0 {
		maxDelay = defaultRetryMaxDelay
	}
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}
