package acquire

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"captionize/internal/config"
	"captionize/internal/logging"
	"captionize/internal/services"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.StagingDir = filepath.Join(t.TempDir(), "staging")
	return &cfg
}

func TestSourceValidate(t *testing.T) {
	cases := []struct {
		name string
		src  Source
		ok   bool
	}{
		{"https url", Source{URL: "https://youtu.be/abc"}, true},
		{"file", Source{FilePath: "/tmp/clip.mp4"}, true},
		{"empty", Source{}, false},
		{"no scheme", Source{URL: "youtu.be/abc"}, false},
		{"ftp", Source{URL: "ftp://example.com/a"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.src.Validate()
			if tc.ok && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tc.ok && !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestYTDLPFetchAudio(t *testing.T) {
	cfg := testConfig(t)
	var calls [][]string
	runner := func(ctx context.Context, name string, args ...string) ([]byte, error) {
		calls = append(calls, append([]string{name}, args...))
		if len(calls) == 1 {
			tmpl := args[indexOf(args, "-o")+1]
			path := strings.Replace(tmpl, "%(ext)s", "mp3", 1)
			if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
				t.Fatalf("write fake download: %v", err)
			}
			return nil, nil
		}
		return []byte("Launch Keynote\n1834.5\nAcme Corp\n"), nil
	}
	y := NewYTDLP(cfg, logging.NewNop(), WithYTDLPRunner(runner))

	audio, err := y.FetchAudio(context.Background(), Source{URL: "https://youtu.be/abc"})
	if err != nil {
		t.Fatalf("FetchAudio returned error: %v", err)
	}
	t.Cleanup(func() { _ = audio.Cleanup() })

	if len(calls) != 2 {
		t.Fatalf("expected download and metadata passes, got %d calls", len(calls))
	}
	download := strings.Join(calls[0], " ")
	for _, flag := range []string{"-S +size,+br,+res,+fps", "-x", "--audio-format mp3", "--force-ipv4", "--geo-bypass", "--extractor-retries 3"} {
		if !strings.Contains(download, flag) {
			t.Fatalf("download command missing %q: %s", flag, download)
		}
	}
	if filepath.Dir(audio.Path) != cfg.Paths.StagingDir || filepath.Ext(audio.Path) != ".mp3" {
		t.Fatalf("unexpected audio path %q", audio.Path)
	}
	want := Metadata{Title: "Launch Keynote", Duration: 1834.5, Author: "Acme Corp"}
	if audio.Metadata != want {
		t.Fatalf("metadata = %+v, want %+v", audio.Metadata, want)
	}
	if err := audio.Cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if _, err := os.Stat(audio.Path); !os.IsNotExist(err) {
		t.Fatalf("expected audio removed after cleanup")
	}
}

func TestYTDLPMapsKnownFailures(t *testing.T) {
	cfg := testConfig(t)
	runner := func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, &commandError{Command: name, Stderr: "ERROR: [youtube] abc: Sign in to confirm your age", Err: errors.New("exit status 1")}
	}
	y := NewYTDLP(cfg, logging.NewNop(), WithYTDLPRunner(runner))

	_, err := y.FetchAudio(context.Background(), Source{URL: "https://youtu.be/abc"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "age verification") {
		t.Fatalf("expected friendly message, got %v", err)
	}
}

func TestYTDLPUnknownFailureIsExternalTool(t *testing.T) {
	cfg := testConfig(t)
	runner := func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, &commandError{Command: name, Stderr: "boom", Err: errors.New("exit status 2")}
	}
	y := NewYTDLP(cfg, logging.NewNop(), WithYTDLPRunner(runner))
	if _, err := y.FetchAudio(context.Background(), Source{URL: "https://youtu.be/abc"}); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
}

func TestParseYTDLPMetadata(t *testing.T) {
	meta := parseYTDLPMetadata("Title Only\nNA\nNA\n")
	if meta.Title != "Title Only" || meta.Duration != 0 || meta.Author != "" {
		t.Fatalf("unexpected metadata %+v", meta)
	}
}

func TestSelectLinkPrefersMP3ThenQuality(t *testing.T) {
	payload := decode(t, `{"links":[
		{"url":"https://cdn/a.m4a","type":"audio","extension":"m4a","quality":"256"},
		{"url":"https://cdn/b.mp3","type":"audio","extension":"mp3","quality":"128"},
		{"url":"https://cdn/c.mp3","type":"audio","extension":"mp3","quality":"320"},
		{"url":"https://cdn/v.mp4","type":"video","extension":"mp4"}]}`)
	link, ok := selectLink(payload)
	if !ok || link.URL != "https://cdn/c.mp3" {
		t.Fatalf("expected highest quality mp3, got %+v", link)
	}
}

func TestSelectLinkFallsBackToFirstURL(t *testing.T) {
	payload := decode(t, `{"result":{"formats":[{"url":"https://cdn/v1.mp4","mimeType":"video/mp4"},{"url":"https://cdn/v2.mp4"}]}}`)
	link, ok := selectLink(payload)
	if !ok || link.URL != "https://cdn/v1.mp4" {
		t.Fatalf("expected first available url, got %+v", link)
	}

	payload = decode(t, `[{"url":"https://cdn/x.webm","formatId":"251"},{"url":"https://cdn/y.mp4"}]`)
	link, ok = selectLink(payload)
	if !ok || link.URL != "https://cdn/x.webm" {
		t.Fatalf("expected format 251 audio, got %+v", link)
	}
}

func TestSelectLinkYouTubeMedias(t *testing.T) {
	payload := decode(t, `{"source":"youtube","title":"T","medias":[
		{"url":"https://cdn/140","formatId":140,"bitrate":129000},
		{"url":"https://cdn/251","formatId":251,"bitrate":160000},
		{"url":"https://cdn/18","formatId":18,"height":360}]}`)
	link, ok := selectLink(payload)
	if !ok || link.URL != "https://cdn/251" {
		t.Fatalf("expected highest bitrate audio, got %+v", link)
	}

	payload = decode(t, `{"source":"youtube","medias":[
		{"url":"https://cdn/134","formatId":134,"height":360},
		{"url":"https://cdn/22","formatId":22,"height":720},
		{"url":"https://cdn/18","formatId":18,"height":360}]}`)
	link, ok = selectLink(payload)
	if !ok || link.URL != "https://cdn/18" {
		t.Fatalf("expected smallest video with audio, got %+v", link)
	}
}

func TestSelectLinkNoLinks(t *testing.T) {
	if _, ok := selectLink(decode(t, `{"error":"unsupported"}`)); ok {
		t.Fatal("expected no link")
	}
}

func TestRapidAPIFetchAudio(t *testing.T) {
	cfg := testConfig(t)
	cfg.Acquisition.RapidAPIKey = "rapid-key"

	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case rapidAPIPath:
			if r.Header.Get("x-rapidapi-key") != "rapid-key" || r.Header.Get("User-Agent") == "" {
				t.Errorf("missing rapidapi headers: %v", r.Header)
			}
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["url"] != "https://www.tiktok.com/@a/video/1" {
				t.Errorf("unexpected url %q", body["url"])
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"title":    "Dance",
				"duration": 12.5,
				"author":   "someone",
				"links":    []any{map[string]any{"url": server.URL + "/media.mp3", "type": "audio", "extension": "mp3"}},
			})
		case "/media.mp3":
			_, _ = io.WriteString(w, "mp3-bytes")
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	r := NewRapidAPI(cfg, logging.NewNop(), WithRapidAPIBaseURL(server.URL))
	audio, err := r.FetchAudio(context.Background(), Source{URL: "https://www.tiktok.com/@a/video/1"})
	if err != nil {
		t.Fatalf("FetchAudio returned error: %v", err)
	}
	defer audio.Cleanup()

	data, err := os.ReadFile(audio.Path)
	if err != nil || string(data) != "mp3-bytes" {
		t.Fatalf("unexpected downloaded content %q (%v)", data, err)
	}
	if audio.Metadata.Title != "Dance" || audio.Metadata.Duration != 12.5 || audio.Metadata.Author != "someone" {
		t.Fatalf("unexpected metadata %+v", audio.Metadata)
	}
}

func TestRapidAPIRemovesPartialDownload(t *testing.T) {
	cfg := testConfig(t)
	cfg.Acquisition.RapidAPIKey = "rapid-key"

	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == rapidAPIPath {
			_ = json.NewEncoder(w).Encode(map[string]any{"url": server.URL + "/gone.mp3"})
			return
		}
		w.WriteHeader(http.StatusGone)
	}))
	defer server.Close()

	r := NewRapidAPI(cfg, logging.NewNop(), WithRapidAPIBaseURL(server.URL))
	if _, err := r.FetchAudio(context.Background(), Source{URL: "https://example.com/v"}); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	entries, _ := os.ReadDir(cfg.Paths.StagingDir)
	if len(entries) != 0 {
		t.Fatalf("expected staging dir empty after failure, found %d entries", len(entries))
	}
}

func TestRapidAPIRequiresKey(t *testing.T) {
	cfg := testConfig(t)
	r := NewRapidAPI(cfg, logging.NewNop())
	if _, err := r.FetchAudio(context.Background(), Source{URL: "https://example.com/v"}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestExtractorConvertsUpload(t *testing.T) {
	cfg := testConfig(t)
	input := filepath.Join(t.TempDir(), "upload.bin")
	if err := os.WriteFile(input, []byte("video"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	var got []string
	runner := func(ctx context.Context, name string, args ...string) ([]byte, error) {
		got = append([]string{name}, args...)
		return nil, os.WriteFile(args[len(args)-1], []byte("mp3"), 0o644)
	}
	e := NewExtractor(cfg, logging.NewNop(), WithExtractorRunner(runner))

	audio, err := e.FetchAudio(context.Background(), Source{FilePath: input, FileName: "quarterly_all-hands.mp4"})
	if err != nil {
		t.Fatalf("FetchAudio returned error: %v", err)
	}
	defer audio.Cleanup()

	cmd := strings.Join(got, " ")
	if !strings.HasPrefix(cmd, "ffmpeg ") || !strings.Contains(cmd, "-vn -acodec libmp3lame") {
		t.Fatalf("unexpected ffmpeg command %q", cmd)
	}
	if audio.Metadata.Title != "Quarterly All Hands" {
		t.Fatalf("unexpected title %q", audio.Metadata.Title)
	}
}

func TestRouterDispatches(t *testing.T) {
	remote := &recordingFetcher{}
	local := &recordingFetcher{}
	r := &Router{Remote: remote, Local: local}

	if _, err := r.FetchAudio(context.Background(), Source{URL: "https://example.com/v"}); err != nil {
		t.Fatalf("remote fetch: %v", err)
	}
	if _, err := r.FetchAudio(context.Background(), Source{FilePath: "/tmp/x.mp4"}); err != nil {
		t.Fatalf("local fetch: %v", err)
	}
	if remote.calls != 1 || local.calls != 1 {
		t.Fatalf("unexpected dispatch remote=%d local=%d", remote.calls, local.calls)
	}
	if _, err := r.FetchAudio(context.Background(), Source{URL: "not a url"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTitleFromFilename(t *testing.T) {
	cases := map[string]string{
		"team_sync-notes.mp4": "Team Sync Notes",
		"/tmp/IMG.0042.MOV":   "Img 0042",
		".mp4":                "Uploaded Video",
	}
	for in, want := range cases {
		if got := TitleFromFilename(in); got != want {
			t.Fatalf("TitleFromFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

type recordingFetcher struct{ calls int }

func (f *recordingFetcher) FetchAudio(context.Context, Source) (*Audio, error) {
	f.calls++
	return &Audio{}, nil
}

func decode(t *testing.T, raw string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return v
}

func indexOf(values []string, target string) int {
	for i, v := range values {
		if v == target {
			return i
		}
	}
	return -1
}
