package acquire

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"

	"captionize/internal/config"
	"captionize/internal/logging"
	"captionize/internal/services"
)

const (
	rapidAPIPath       = "/v1/social/autolink"
	defaultRapidTitle  = "Video Transcription"
	rapidAPIErrorLimit = 512
)

var (
	youtubeAudioFormats   = map[string]bool{"139": true, "140": true, "141": true, "249": true, "250": true, "251": true}
	youtubeSilentFormats  = map[string]bool{"160": true, "133": true, "134": true, "135": true, "136": true}
	commonAudioFormatHint = "251"
)

// RapidAPI resolves download links through the social-download-all-in-one
// service and streams the chosen media into the staging directory.
type RapidAPI struct {
	key        string
	host       string
	baseURL    string
	stagingDir string
	httpClient *http.Client
	logger     *slog.Logger
}

// RapidAPIOption customizes a RapidAPI fetcher.
type RapidAPIOption func(*RapidAPI)

// WithRapidAPIBaseURL points the fetcher at a different API origin (used in tests).
func WithRapidAPIBaseURL(base string) RapidAPIOption {
	return func(r *RapidAPI) {
		r.baseURL = strings.TrimRight(base, "/")
	}
}

// WithRapidAPIHTTPClient overrides the default HTTP client.
func WithRapidAPIHTTPClient(client *http.Client) RapidAPIOption {
	return func(r *RapidAPI) {
		if client != nil {
			r.httpClient = client
		}
	}
}

// NewRapidAPI constructs a RapidAPI fetcher from configuration.
func NewRapidAPI(cfg *config.Config, logger *slog.Logger, opts ...RapidAPIOption) *RapidAPI {
	r := &RapidAPI{
		key:        cfg.Acquisition.RapidAPIKey,
		host:       cfg.Acquisition.RapidAPIHost,
		baseURL:    "https://" + cfg.Acquisition.RapidAPIHost,
		stagingDir: cfg.Paths.StagingDir,
		httpClient: &http.Client{Timeout: time.Duration(cfg.Acquisition.DownloadTimeoutSeconds) * time.Second},
		logger:     componentLogger(logger, "rapidapi"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FetchAudio implements Fetcher.
func (r *RapidAPI) FetchAudio(ctx context.Context, src Source) (*Audio, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if r.key == "" {
		return nil, services.Wrap(services.ErrConfiguration, "acquire", "rapidapi", "api key required (set RAPID_API_KEY)", nil)
	}
	if err := ensureStagingDir(r.stagingDir); err != nil {
		return nil, err
	}
	logger := logging.WithContext(ctx, r.logger)

	payload, err := r.resolve(ctx, src.URL)
	if err != nil {
		return nil, err
	}
	link, ok := selectLink(payload)
	if !ok {
		return nil, services.Wrap(services.ErrExternalTool, "acquire", "rapidapi", "no download links found in the response", nil)
	}
	logger.Info("rapidapi link selected",
		logging.String("extension", link.Extension),
		logging.String("format_id", link.FormatID),
		logging.String(logging.FieldEventType, "rapidapi_link_selected"),
	)

	ext := link.Extension
	if ext == "" {
		ext = "mp3"
	}
	path := filepath.Join(r.stagingDir, uuid.NewString()+"."+ext)
	if err := r.download(ctx, link.URL, path); err != nil {
		_ = os.Remove(path)
		return nil, err
	}

	meta := Metadata{
		Title:    stringField(payload, "title"),
		Duration: numberField(payload, "duration"),
		Author:   stringField(payload, "author"),
	}
	if meta.Title == "" {
		meta.Title = defaultRapidTitle
	}
	return &Audio{Path: path, Metadata: meta}, nil
}

func (r *RapidAPI) resolve(ctx context.Context, videoURL string) (any, error) {
	body, err := json.Marshal(map[string]string{"url": videoURL})
	if err != nil {
		return nil, fmt.Errorf("rapidapi: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+rapidAPIPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("rapidapi: new request: %w", err)
	}
	req.Header.Set("x-rapidapi-key", r.key)
	req.Header.Set("x-rapidapi-host", r.host)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", gofakeit.UserAgent())

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "acquire", "rapidapi", "request failed", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "acquire", "rapidapi", "read response", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		snippet := strings.TrimSpace(string(raw))
		if len(snippet) > rapidAPIErrorLimit {
			snippet = snippet[:rapidAPIErrorLimit]
		}
		return nil, services.Wrap(services.ErrExternalTool, "acquire", "rapidapi", fmt.Sprintf("http %d: %s", resp.StatusCode, snippet), nil)
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "acquire", "rapidapi", "failed to parse response", err)
	}
	return payload, nil
}

func (r *RapidAPI) download(ctx context.Context, link, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "acquire", "rapidapi download", "invalid media url", err)
	}
	req.Header.Set("User-Agent", gofakeit.UserAgent())
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "acquire", "rapidapi download", "request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return services.Wrap(services.ErrExternalTool, "acquire", "rapidapi download", "failed to download audio file: "+resp.Status, nil)
	}
	file, err := os.Create(path)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "acquire", "rapidapi download", "create staging file", err)
	}
	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		return services.Wrap(services.ErrExternalTool, "acquire", "rapidapi download", "write audio", err)
	}
	if err := file.Close(); err != nil {
		return services.Wrap(services.ErrExternalTool, "acquire", "rapidapi download", "close audio", err)
	}
	return nil
}

// mediaLink is the normalized view of one downloadable entry in a response.
type mediaLink struct {
	URL       string
	Type      string
	MimeType  string
	Extension string
	FormatID  string
	Quality   int
	Bitrate   float64
	Height    float64
}

func (l mediaLink) isAudio(allowFormatHint bool) bool {
	switch {
	case strings.Contains(strings.ToLower(l.Type), "audio"):
		return true
	case strings.Contains(strings.ToLower(l.MimeType), "audio"):
		return true
	case strings.EqualFold(l.Extension, "mp3"):
		return true
	case allowFormatHint && strings.Contains(l.FormatID, commonAudioFormatHint):
		return true
	}
	return false
}

// selectLink picks the best audio download from the response. Preference
// order: audio-only entries (mp3 first, then higher quality), then any entry
// with a URL. YouTube responses with a medias array override this with the
// highest-bitrate audio-only format, or the smallest video that carries audio.
func selectLink(payload any) (mediaLink, bool) {
	audio, all := candidateLinks(payload)
	candidates := audio
	if len(candidates) == 0 && len(all) > 0 {
		candidates = all[:1]
	}

	var best mediaLink
	if len(candidates) > 0 {
		sort.SliceStable(candidates, func(i, j int) bool {
			a, b := candidates[i], candidates[j]
			aMP3, bMP3 := strings.EqualFold(a.Extension, "mp3"), strings.EqualFold(b.Extension, "mp3")
			if aMP3 != bMP3 {
				return aMP3
			}
			if a.Quality != 0 && b.Quality != 0 {
				return a.Quality > b.Quality
			}
			return false
		})
		best = candidates[0]
	}

	if obj, ok := payload.(map[string]any); ok && stringField(obj, "source") == "youtube" {
		medias := linksFrom(obj["medias"])
		var audioOnly []mediaLink
		for _, m := range medias {
			if m.isAudio(false) || youtubeAudioFormats[m.FormatID] {
				audioOnly = append(audioOnly, m)
			}
		}
		switch {
		case len(audioOnly) > 0:
			sort.SliceStable(audioOnly, func(i, j int) bool { return audioOnly[i].Bitrate > audioOnly[j].Bitrate })
			best = audioOnly[0]
		case best.URL == "" && len(medias) > 0:
			var withAudio []mediaLink
			for _, m := range medias {
				if m.FormatID == "" || !youtubeSilentFormats[m.FormatID] {
					withAudio = append(withAudio, m)
				}
			}
			sort.SliceStable(withAudio, func(i, j int) bool { return heightOr1080(withAudio[i]) < heightOr1080(withAudio[j]) })
			if len(withAudio) > 0 {
				best = withAudio[0]
			}
		}
	}

	return best, best.URL != ""
}

func heightOr1080(l mediaLink) float64 {
	if l.Height == 0 {
		return 1080
	}
	return l.Height
}

// candidateLinks returns the audio links and every link with a URL across the
// response shapes the service is known to return.
func candidateLinks(payload any) (audio []mediaLink, all []mediaLink) {
	switch v := payload.(type) {
	case map[string]any:
		if links, ok := v["links"].([]any); ok {
			all = linksFrom(links)
			for _, l := range all {
				if l.isAudio(false) {
					audio = append(audio, l)
				}
			}
			return audio, all
		}
		if result, ok := v["result"]; ok && result != nil {
			switch r := result.(type) {
			case []any:
				all = linksFrom(r)
				return all, all
			case map[string]any:
				if formats, ok := r["formats"].([]any); ok {
					all = linksFrom(formats)
					for _, l := range all {
						if l.isAudio(true) {
							audio = append(audio, l)
						}
					}
					return audio, all
				}
				if link := linkFrom(r); link.URL != "" {
					return nil, []mediaLink{link}
				}
			}
			return nil, nil
		}
		if link := linkFrom(v); link.URL != "" {
			return nil, []mediaLink{link}
		}
	case []any:
		all = linksFrom(v)
		for _, l := range all {
			if l.isAudio(true) {
				audio = append(audio, l)
			}
		}
	}
	return audio, all
}

func linksFrom(value any) []mediaLink {
	items, ok := value.([]any)
	if !ok {
		return nil
	}
	links := make([]mediaLink, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if link := linkFrom(obj); link.URL != "" {
			links = append(links, link)
		}
	}
	return links
}

func linkFrom(obj map[string]any) mediaLink {
	mime := stringField(obj, "mimeType")
	if mime == "" {
		mime = stringField(obj, "mime_type")
	}
	return mediaLink{
		URL:       stringField(obj, "url"),
		Type:      stringField(obj, "type"),
		MimeType:  mime,
		Extension: stringField(obj, "extension"),
		FormatID:  stringField(obj, "formatId"),
		Quality:   int(numberField(obj, "quality")),
		Bitrate:   numberField(obj, "bitrate"),
		Height:    numberField(obj, "height"),
	}
}

// stringField reads a string or number field as text.
func stringField(obj any, key string) string {
	m, ok := obj.(map[string]any)
	if !ok {
		return ""
	}
	switch v := m[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// numberField reads a numeric field, accepting numeric strings such as "128kbps".
func numberField(obj any, key string) float64 {
	m, ok := obj.(map[string]any)
	if !ok {
		return 0
	}
	switch v := m[key].(type) {
	case float64:
		return v
	case string:
		digits := strings.TrimSpace(v)
		end := 0
		for end < len(digits) && (digits[end] >= '0' && digits[end] <= '9' || digits[end] == '.') {
			end++
		}
		f, err := strconv.ParseFloat(digits[:end], 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
