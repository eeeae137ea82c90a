package config

const (
	defaultDataDir                = "~/.local/share/igreport"
	defaultLogDir                 = "~/.local/share/igreport/logs"
	defaultImageDir               = "~/.local/share/igreport/images"
	defaultExtractionMode         = "hybrid"
	defaultTesseractLanguage      = "eng"
	defaultTesseractPSM           = 6
	defaultRemoteBaseURL          = "https://api.openai.com/v1/chat/completions"
	defaultRemoteModel            = "gpt-4o-mini"
	defaultRemoteTimeoutSeconds   = 60
	defaultMaxRequestsPerMinute   = 3
	defaultMaxTokensPerMinute     = 100000
	defaultEstimatedTokensPerCall = 900
	defaultRemoteMaxAttempts      = 5
	defaultNotifyThresholdSeconds = 5
	defaultMaxStartWaitSeconds    = 300
	defaultMatchThreshold         = 75
	defaultNotifyRequestTimeout   = 10
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultActor                  = "local"
	defaultJobs                   = 4
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			LogDir:   defaultLogDir,
			ImageDir: defaultImageDir,
		},
		Extraction: Extraction{
			Mode:              defaultExtractionMode,
			TesseractLanguage: defaultTesseractLanguage,
			TesseractPSM:      defaultTesseractPSM,
		},
		Remote: Remote{
			BaseURL:                defaultRemoteBaseURL,
			Model:                  defaultRemoteModel,
			TimeoutSeconds:         defaultRemoteTimeoutSeconds,
			MaxRequestsPerMinute:   defaultMaxRequestsPerMinute,
			MaxTokensPerMinute:     defaultMaxTokensPerMinute,
			EstimatedTokensPerCall: defaultEstimatedTokensPerCall,
			MaxAttempts:            defaultRemoteMaxAttempts,
		},
		Queue: Queue{
			NotifyThresholdSeconds: defaultNotifyThresholdSeconds,
			MaxStartWaitSeconds:    defaultMaxStartWaitSeconds,
		},
		Matching: Matching{
			Threshold: defaultMatchThreshold,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		CLI: CLI{
			DefaultActor: defaultActor,
			Jobs:         defaultJobs,
		},
	}
}
