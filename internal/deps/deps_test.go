package deps

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"captionize/internal/config"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}

	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}

	if results[1].Available {
		t.Fatalf("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatalf("expected detail message for missing binary")
	}

	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}

	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}
}

func TestCheckFFmpegForYTDLPSidecar(t *testing.T) {
	tmp := t.TempDir()
	ytdlpName := executableName("yt-dlp")
	ffmpegName := executableName("ffmpeg")
	ytdlpPath := filepath.Join(tmp, ytdlpName)
	ffmpegPath := filepath.Join(tmp, ffmpegName)
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(ytdlpPath, script, 0o755); err != nil {
		t.Fatalf("write yt-dlp stub: %v", err)
	}
	if err := os.WriteFile(ffmpegPath, script, 0o755); err != nil {
		t.Fatalf("write ffmpeg sidecar: %v", err)
	}

	status := CheckFFmpegForYTDLP(ytdlpPath, "")
	if !status.Available {
		t.Fatalf("expected ffmpeg sidecar to be available, got detail %q", status.Detail)
	}
	if status.Command != ffmpegPath {
		t.Fatalf("expected ffmpeg command %q, got %q", ffmpegPath, status.Command)
	}
}

func TestCheckFFmpegForYTDLPPathFallback(t *testing.T) {
	tmp := t.TempDir()
	ytdlpPath := filepath.Join(tmp, executableName("yt-dlp"))
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(ytdlpPath, script, 0o755); err != nil {
		t.Fatalf("write yt-dlp stub: %v", err)
	}

	binDir := filepath.Join(tmp, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin: %v", err)
	}
	ffmpegPath := filepath.Join(binDir, executableName("ffmpeg"))
	if err := os.WriteFile(ffmpegPath, script, 0o755); err != nil {
		t.Fatalf("write ffmpeg stub: %v", err)
	}
	oldPath := os.Getenv("PATH")
	newPath := binDir
	if oldPath != "" {
		newPath = binDir + string(os.PathListSeparator) + oldPath
	}
	t.Setenv("PATH", newPath)

	status := CheckFFmpegForYTDLP(ytdlpPath, "")
	if !status.Available {
		t.Fatalf("expected ffmpeg fallback to be available, got detail %q", status.Detail)
	}
	if status.Command != ffmpegPath {
		t.Fatalf("expected ffmpeg command %q, got %q", ffmpegPath, status.Command)
	}
}

func TestCheckFFmpegForYTDLPNotFound(t *testing.T) {
	tmp := t.TempDir()
	ytdlpPath := filepath.Join(tmp, executableName("yt-dlp"))
	t.Setenv("PATH", "")
	status := CheckFFmpegForYTDLP(ytdlpPath, "")
	if status.Available {
		t.Fatal("expected ffmpeg resolution to fail")
	}
	if status.Detail == "" {
		t.Fatal("expected detail message when ffmpeg is unavailable")
	}
}

func executableName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}

func TestCheckFFmpegForYTDLPConfiguredPathWins(t *testing.T) {
	tmp := t.TempDir()
	custom := filepath.Join(tmp, executableName("ffmpeg-custom"))
	if err := os.WriteFile(custom, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write ffmpeg stub: %v", err)
	}
	status := CheckFFmpegForYTDLP("yt-dlp", custom)
	if !status.Available || status.Command != custom {
		t.Fatalf("expected configured ffmpeg %q, got %#v", custom, status)
	}

	status = CheckFFmpegForYTDLP("yt-dlp", filepath.Join(tmp, "missing-ffmpeg"))
	if status.Available || status.Detail == "" {
		t.Fatalf("expected missing configured ffmpeg to be reported, got %#v", status)
	}
}

func TestRequirementsFollowAcquisitionMethod(t *testing.T) {
	cfg := config.Default()
	reqs := Requirements(&cfg)
	if len(reqs) != 2 || reqs[0].Command != "yt-dlp" || reqs[0].Optional {
		t.Fatalf("expected required yt-dlp for ytdlp method, got %#v", reqs)
	}

	cfg.Acquisition.Method = "rapidapi"
	reqs = Requirements(&cfg)
	if !reqs[0].Optional {
		t.Fatal("expected yt-dlp optional for rapidapi method")
	}
	if reqs[1].Optional {
		t.Fatal("expected ffmpeg to stay required")
	}
	if Requirements(nil) != nil {
		t.Fatal("expected nil requirements for nil config")
	}
}
