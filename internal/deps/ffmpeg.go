package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// CheckFFmpegForYTDLP reports the FFmpeg binary yt-dlp will use for audio
// extraction.
//
// yt-dlp prefers an ffmpeg binary that sits next to its own executable and
// falls back to resolving "ffmpeg" from PATH. An explicitly configured ffmpeg
// command wins over both.
func CheckFFmpegForYTDLP(ytdlpCommand, ffmpegCommand string) Status {
	result := Status{
		Name:        "FFmpeg",
		Description: "Used by yt-dlp for audio extraction",
	}

	if configured := strings.TrimSpace(ffmpegCommand); configured != "" && configured != "ffmpeg" {
		if resolved, err := exec.LookPath(configured); err == nil {
			result.Command = resolved
			result.Available = true
			return result
		}
		result.Command = configured
		result.Detail = fmt.Sprintf("binary %q not found", configured)
		return result
	}

	ytdlpBinary := strings.TrimSpace(ytdlpCommand)
	if ytdlpBinary != "" {
		if resolved, err := exec.LookPath(ytdlpBinary); err == nil {
			if candidate, ok := ffmpegSidecarCandidate(resolved); ok {
				if info, statErr := os.Stat(candidate); statErr == nil && isExecutable(info) {
					result.Command = candidate
					result.Available = true
					return result
				}
			}
		}
	}

	ffmpegName := "ffmpeg"
	if ffmpegPath, err := exec.LookPath(ffmpegName); err == nil {
		result.Command = ffmpegPath
		result.Available = true
		return result
	}

	result.Command = ffmpegName
	result.Available = false
	result.Detail = fmt.Sprintf("binary %q not found", ffmpegName)
	return result
}

func ffmpegSidecarCandidate(ytdlpPath string) (string, bool) {
	if ytdlpPath == "" {
		return "", false
	}
	dir := filepath.Dir(ytdlpPath)
	name := "ffmpeg"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(dir, name), true
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
