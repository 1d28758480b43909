package config

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Validate ensures the configuration is usable. The AssemblyAI key is not
// required here so offline commands keep working; the provider client
// reports a missing key when it is first used.
func (c *Config) Validate() error {
	if err := c.validateAssemblyAI(); err != nil {
		return err
	}
	if err := c.validateAcquisition(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateAssemblyAI() error {
	parsed, err := url.Parse(c.AssemblyAI.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("assemblyai.base_url must be an absolute URL, got %q", c.AssemblyAI.BaseURL)
	}
	return ensurePositiveMap(map[string]int{
		"assemblyai.timeout_seconds":       c.AssemblyAI.TimeoutSeconds,
		"assemblyai.poll_interval_seconds": c.AssemblyAI.PollIntervalSeconds,
	})
}

func (c *Config) validateAcquisition() error {
	switch c.Acquisition.Method {
	case "ytdlp":
	case "rapidapi":
		if c.Acquisition.RapidAPIKey == "" {
			return errors.New("acquisition.rapidapi_key must be set when acquisition.method is rapidapi (or set RAPID_API_KEY)")
		}
	default:
		return fmt.Errorf("acquisition.method must be ytdlp or rapidapi, got %q", c.Acquisition.Method)
	}
	return ensurePositiveMap(map[string]int{
		"acquisition.download_timeout_seconds": c.Acquisition.DownloadTimeoutSeconds,
		"acquisition.max_upload_mb":            c.Acquisition.MaxUploadMB,
	})
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"workflow.queue_poll_interval": c.Workflow.QueuePollInterval,
		"workflow.job_timeout_seconds": c.Workflow.JobTimeoutSeconds,
	}); err != nil {
		return err
	}
	if c.Workflow.JobTimeoutSeconds <= c.AssemblyAI.PollIntervalSeconds {
		return errors.New("workflow.job_timeout_seconds must be greater than assemblyai.poll_interval_seconds")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be zero or positive")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", strings.TrimSpace(key))
		}
	}
	return nil
}
