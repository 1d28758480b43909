package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAssemblyAI()
	c.normalizeAcquisition()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		c.Paths.StagingDir = defaultStagingDir
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = envOverride("CAPTIONIZE_API_TOKEN", c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeAssemblyAI() {
	c.AssemblyAI.APIKey = envOverride("ASSEMBLY_AI_API_KEY", c.AssemblyAI.APIKey)
	c.AssemblyAI.BaseURL = strings.TrimRight(strings.TrimSpace(c.AssemblyAI.BaseURL), "/")
	if c.AssemblyAI.BaseURL == "" {
		c.AssemblyAI.BaseURL = defaultAssemblyAIBaseURL
	}
	if c.AssemblyAI.RetryAttempts <= 0 {
		c.AssemblyAI.RetryAttempts = defaultAssemblyAIRetries
	}
}

func (c *Config) normalizeAcquisition() {
	c.Acquisition.Method = strings.ToLower(strings.TrimSpace(c.Acquisition.Method))
	if c.Acquisition.Method == "" {
		c.Acquisition.Method = defaultAcquisitionMethod
	}
	c.Acquisition.YTDLPBinary = strings.TrimSpace(c.Acquisition.YTDLPBinary)
	if c.Acquisition.YTDLPBinary == "" {
		c.Acquisition.YTDLPBinary = defaultYTDLPBinary
	}
	c.Acquisition.FFmpegBinary = strings.TrimSpace(c.Acquisition.FFmpegBinary)
	if c.Acquisition.FFmpegBinary == "" {
		c.Acquisition.FFmpegBinary = defaultFFmpegBinary
	}
	c.Acquisition.RapidAPIKey = envOverride("RAPID_API_KEY", c.Acquisition.RapidAPIKey)
	c.Acquisition.RapidAPIHost = strings.TrimSpace(c.Acquisition.RapidAPIHost)
	if c.Acquisition.RapidAPIHost == "" {
		c.Acquisition.RapidAPIHost = defaultRapidAPIHost
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// envOverride returns the trimmed environment value when set, otherwise the
// trimmed file value. Secrets in the environment win over the config file.
func envOverride(key, fileValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return strings.TrimSpace(fileValue)
}
