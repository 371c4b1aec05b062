package config

const (
	defaultResultsDir = "~/.local/share/traceloom/results"
	defaultDataDir    = "~/.local/share/traceloom/data"
	defaultLogDir     = "~/.local/share/traceloom/logs"

	defaultLLMBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel          = "qwen/qwen2.5-vl-72b-instruct"
	defaultLLMTextModel      = "google/gemini-2.0-flash-001"
	defaultLLMReferer        = "https://github.com/traceloom/traceloom"
	defaultLLMTitle          = "Traceloom Reasoning Pipeline"
	defaultLLMTimeoutSeconds = 120

	defaultMaxWorkers             = 4
	defaultItemTimeoutSeconds     = 600
	defaultSinkLockTimeoutSeconds = 30

	defaultMaxStrategies             = 3
	defaultMaxTokens                 = 1500
	defaultRefinementMaxTokens       = 1000
	defaultNaturalReasoningMaxTokens = 1000
	defaultFinalResponseMaxTokens    = 1000
	defaultTemperature               = 1.0

	defaultLogFormat = "console"
	defaultLogLevel  = "info"

	defaultDocumentsGranularity = "line"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ResultsDir: defaultResultsDir,
			DataDir:    defaultDataDir,
			LogDir:     defaultLogDir,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			TextModel:      defaultLLMTextModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Batch: Batch{
			MaxWorkers:             defaultMaxWorkers,
			ItemTimeoutSeconds:     defaultItemTimeoutSeconds,
			SinkLockTimeoutSeconds: defaultSinkLockTimeoutSeconds,
		},
		Pipeline: Pipeline{
			MaxStrategies:             defaultMaxStrategies,
			MaxTokens:                 defaultMaxTokens,
			RefinementMaxTokens:       defaultRefinementMaxTokens,
			NaturalReasoningMaxTokens: defaultNaturalReasoningMaxTokens,
			FinalResponseMaxTokens:    defaultFinalResponseMaxTokens,
			Temperature:               defaultTemperature,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Documents: Documents{
			Granularity: defaultDocumentsGranularity,
		},
	}
}
