package config

const (
	defaultConfigPath                   = "~/.config/nutriverify/config.toml"
	defaultDataDir                      = "~/.local/share/nutriverify"
	defaultLogDir                       = "~/.local/share/nutriverify/logs"
	defaultReferenceBaseURL             = "https://api.nal.usda.gov/fdc/v1"
	defaultReferencePageSize            = 5
	defaultReferenceTimeoutSeconds      = 15
	defaultReferenceCacheTTLSeconds     = 600
	defaultReferenceMinIntervalMS       = 250
	defaultLLMBaseURL                   = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel                     = "google/gemini-3-flash-preview"
	defaultLLMReferer                   = "https://github.com/nutriverify/nutriverify"
	defaultLLMTitle                     = "nutriverify correction oracle"
	defaultLLMTimeoutSeconds            = 60
	defaultBatchSize                    = 5
	maxBatchSize                        = 5
	defaultInterRecordDelayMS           = 1500
	defaultMaxAttempts                  = 3
	defaultFinalValidationMinConfidence = 80
	defaultOracleCategoryMinConfidence  = 70
	defaultCalorieTolerance             = 0.20
	defaultAlcoholCalorieTolerance      = 0.50
	defaultExemptCalorieCeiling         = 10
	defaultDensityBuffer                = 0.05
	defaultDedupeThreshold              = 0.8
	defaultNtfyTimeoutSeconds           = 10
	defaultLogFormat                    = "console"
	defaultLogLevel                     = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Reference: Reference{
			BaseURL:         defaultReferenceBaseURL,
			PageSize:        defaultReferencePageSize,
			TimeoutSeconds:  defaultReferenceTimeoutSeconds,
			CacheTTLSeconds: defaultReferenceCacheTTLSeconds,
			MinIntervalMS:   defaultReferenceMinIntervalMS,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Pipeline: Pipeline{
			BatchSize:                    defaultBatchSize,
			InterRecordDelayMS:           defaultInterRecordDelayMS,
			MaxAttempts:                  defaultMaxAttempts,
			FinalValidationMinConfidence: defaultFinalValidationMinConfidence,
			ClassifyWithOracle:           true,
			OracleCategoryMinConfidence:  defaultOracleCategoryMinConfidence,
			ReferenceEvidence:            true,
		},
		Rules: Rules{
			CalorieTolerance:        defaultCalorieTolerance,
			AlcoholCalorieTolerance: defaultAlcoholCalorieTolerance,
			ExemptCalorieCeiling:    defaultExemptCalorieCeiling,
			DensityBuffer:           defaultDensityBuffer,
		},
		Dedupe: Dedupe{
			Threshold: defaultDedupeThreshold,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeoutSeconds,
			NotifyFlagged:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
