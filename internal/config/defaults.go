package config

const (
	defaultConfigPath           = "~/.config/animedb/config.toml"
	defaultDataDir              = "~/.local/share/animedb"
	defaultLogDir               = "~/.local/share/animedb/logs"
	defaultStoreBackend         = BackendSQLite
	defaultLLMBaseURL           = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel             = "google/gemini-2.0-flash-001"
	defaultLLMReferer           = "https://github.com/animedb/animedb"
	defaultLLMTitle             = "animedb"
	defaultLLMTimeoutSeconds    = 60
	defaultLLMRequestsPerMinute = 30
	defaultIngestAITimeout      = 45
	defaultMaxReportedErrors    = 5
	defaultLogURLLimit          = 20
	defaultQueryAITimeout       = 15
	defaultTitleHintLimit       = 20
	defaultAPIBind              = "127.0.0.1:7490"
	defaultNotifyTimeout        = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogMaxSizeMB         = 20
	defaultLogMaxBackups        = 5
	defaultLogMaxAgeDays        = 30
)

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendCSV    = "csv"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Store: Store{
			Backend: defaultStoreBackend,
		},
		LLM: LLM{
			BaseURL:           defaultLLMBaseURL,
			Model:             defaultLLMModel,
			Referer:           defaultLLMReferer,
			Title:             defaultLLMTitle,
			TimeoutSeconds:    defaultLLMTimeoutSeconds,
			RequestsPerMinute: defaultLLMRequestsPerMinute,
		},
		Ingest: Ingest{
			AIEnabled:         true,
			AITimeoutSeconds:  defaultIngestAITimeout,
			MaxReportedErrors: defaultMaxReportedErrors,
			LogURLLimit:       defaultLogURLLimit,
		},
		Query: Query{
			AIEnabled:        true,
			AITimeoutSeconds: defaultQueryAITimeout,
			TitleHintLimit:   defaultTitleHintLimit,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Uploads:        true,
			Errors:         true,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
	}
}
