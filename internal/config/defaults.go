package config

const (
	defaultStagingDir             = "~/.local/share/captionize/staging"
	defaultLogDir                 = "~/.local/share/captionize/logs"
	defaultAPIBind                = "127.0.0.1:7490"
	defaultAssemblyAIBaseURL      = "https://api.assemblyai.com/v2"
	defaultAssemblyAITimeout      = 60
	defaultAssemblyAIRetries      = 3
	defaultAssemblyAIPollInterval = 3
	defaultAcquisitionMethod      = "ytdlp"
	defaultYTDLPBinary            = "yt-dlp"
	defaultFFmpegBinary           = "ffmpeg"
	defaultRapidAPIHost           = "social-download-all-in-one.p.rapidapi.com"
	defaultDownloadTimeout        = 600
	defaultMaxUploadMB            = 500
	defaultQueuePollInterval      = 5
	defaultJobTimeoutSeconds      = 3600
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultLogRetentionDays       = 14
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
		},
		AssemblyAI: AssemblyAI{
			BaseURL:             defaultAssemblyAIBaseURL,
			TimeoutSeconds:      defaultAssemblyAITimeout,
			RetryAttempts:       defaultAssemblyAIRetries,
			PollIntervalSeconds: defaultAssemblyAIPollInterval,
		},
		Acquisition: Acquisition{
			Method:                 defaultAcquisitionMethod,
			YTDLPBinary:            defaultYTDLPBinary,
			FFmpegBinary:           defaultFFmpegBinary,
			RapidAPIHost:           defaultRapidAPIHost,
			DownloadTimeoutSeconds: defaultDownloadTimeout,
			MaxUploadMB:            defaultMaxUploadMB,
		},
		Workflow: Workflow{
			QueuePollInterval: defaultQueuePollInterval,
			JobTimeoutSeconds: defaultJobTimeoutSeconds,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
