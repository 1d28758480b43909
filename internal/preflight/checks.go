package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"captionize/internal/config"
	"captionize/internal/deps"
	"captionize/internal/services/assemblyai"
)

// CheckAssemblyAI verifies that the provider is reachable and the key is valid.
// It uses a 30-second timeout and a single attempt (no retries).
func CheckAssemblyAI(ctx context.Context, cfg *config.Config) Result {
	const name = "AssemblyAI"
	if strings.TrimSpace(cfg.AssemblyAI.APIKey) == "" {
		return Result{Name: name, Detail: "API key missing (set ASSEMBLY_AI_API_KEY)"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := assemblyai.NewClient(assemblyai.Config{
		APIKey:         cfg.AssemblyAI.APIKey,
		BaseURL:        cfg.AssemblyAI.BaseURL,
		TimeoutSeconds: cfg.AssemblyAI.TimeoutSeconds,
		RetryAttempts:  1,
	})
	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeProviderError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckRapidAPIKey reports whether the RapidAPI downloader has a key.
func CheckRapidAPIKey(cfg *config.Config) Result {
	const name = "RapidAPI"
	if strings.TrimSpace(cfg.Acquisition.RapidAPIKey) == "" {
		return Result{Name: name, Detail: "API key missing (set RAPID_API_KEY)"}
	}
	return Result{Name: name, Passed: true, Detail: "API key configured"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates the binaries the configured acquisition method
// needs. The FFmpeg entry resolves the binary yt-dlp will actually use.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	statuses := deps.CheckBinaries(deps.Requirements(cfg))
	if cfg.Acquisition.Method != "ytdlp" {
		return statuses
	}
	for i, status := range statuses {
		if status.Name != "FFmpeg" {
			continue
		}
		resolved := deps.CheckFFmpegForYTDLP(cfg.Acquisition.YTDLPBinary, cfg.Acquisition.FFmpegBinary)
		resolved.Optional = status.Optional
		statuses[i] = resolved
	}
	return statuses
}

// summarizeProviderError produces a human-readable summary for health check failures.
func summarizeProviderError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (AssemblyAI API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (AssemblyAI API unreachable)"
	}
	return err.Error()
}
