package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	StagingDir string `toml:"staging_dir"`
	LogDir     string `toml:"log_dir"`
	APIBind    string `toml:"api_bind"`
	APIToken   string `toml:"api_token"`
}

// AssemblyAI contains configuration for the speech-to-text provider.
type AssemblyAI struct {
	APIKey              string `toml:"api_key"`
	BaseURL             string `toml:"base_url"`
	TimeoutSeconds      int    `toml:"timeout_seconds"`
	RetryAttempts       int    `toml:"retry_attempts"`
	PollIntervalSeconds int    `toml:"poll_interval_seconds"`
}

// Acquisition contains configuration for turning a video source into audio.
type Acquisition struct {
	// Method selects the URL downloader: "ytdlp" or "rapidapi".
	Method                 string `toml:"method"`
	YTDLPBinary            string `toml:"ytdlp_binary"`
	FFmpegBinary           string `toml:"ffmpeg_binary"`
	RapidAPIKey            string `toml:"rapidapi_key"`
	RapidAPIHost           string `toml:"rapidapi_host"`
	DownloadTimeoutSeconds int    `toml:"download_timeout_seconds"`
	MaxUploadMB            int    `toml:"max_upload_mb"`
}

// Workflow contains configuration for background job polling.
type Workflow struct {
	QueuePollInterval int `toml:"queue_poll_interval"`
	JobTimeoutSeconds int `toml:"job_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for Captionize.
//
// Configuration sections by subsystem:
//   - Paths: staging/log directories and the API bind address
//   - AssemblyAI: speech-to-text credentials, retries, and poll cadence
//   - Acquisition: yt-dlp / RapidAPI download and ffmpeg extraction settings
//   - Workflow: background job polling and timeouts
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	AssemblyAI  AssemblyAI  `toml:"assemblyai"`
	Acquisition Acquisition `toml:"acquisition"`
	Workflow    Workflow    `toml:"workflow"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/captionize/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("captionize.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for server operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// PollInterval returns how often an in-flight provider job is checked.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.AssemblyAI.PollIntervalSeconds) * time.Second
}

// QueuePollInterval returns how often the background loop scans active jobs.
func (c *Config) QueuePollInterval() time.Duration {
	return time.Duration(c.Workflow.QueuePollInterval) * time.Second
}

// JobTimeout returns how long a job may stay in processing before it fails.
func (c *Config) JobTimeout() time.Duration {
	return time.Duration(c.Workflow.JobTimeoutSeconds) * time.Second
}

// MaxUploadBytes returns the upload size limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Acquisition.MaxUploadMB) << 20
}

// DatabasePath returns the location of the job store.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.LogDir, "jobs.db")
}

// LockPath returns the location of the single-instance server lock.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "captionize.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
