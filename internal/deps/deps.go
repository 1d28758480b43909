package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"captionize/internal/config"
)

// Requirement defines an external dependency Captionize relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Requirements lists the binaries the configured acquisition method needs.
// yt-dlp is optional when downloads go through RapidAPI; ffmpeg is always
// needed for file uploads.
func Requirements(cfg *config.Config) []Requirement {
	if cfg == nil {
		return nil
	}
	return []Requirement{
		{
			Name:        "yt-dlp",
			Command:     cfg.Acquisition.YTDLPBinary,
			Description: "Downloads audio from video URLs",
			Optional:    cfg.Acquisition.Method != "ytdlp",
		},
		{
			Name:        "FFmpeg",
			Command:     cfg.Acquisition.FFmpegBinary,
			Description: "Extracts audio from uploaded video files",
		},
	}
}
