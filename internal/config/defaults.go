package config

const (
	defaultCacheRoot            = "~/.local/share/vidgen/cache"
	defaultLogDir               = "~/.local/share/vidgen/logs"
	defaultOutputDir            = "~/videos/vidgen"
	defaultMinSegments          = 5
	defaultMaxSegments          = 10
	defaultSegmentDuration      = 45
	defaultProposalAttempts     = 3
	defaultExactKeywordWeight   = 3.0
	defaultPartialTokenWeight   = 1.0
	defaultTitleTokenWeight     = 1.5
	defaultReasoningBaseURL     = "https://openrouter.ai/api/v1/chat/completions"
	defaultReasoningModel       = "openai/gpt-4o"
	defaultReasoningTimeout     = 60
	defaultStockRequestsPerMin  = 30
	defaultVoiceID              = "21m00Tcm4TlvDq8ikWAM"
	defaultVoiceStability       = 0.5
	defaultVoiceSimilarity      = 0.75
	defaultVoiceLanguage        = "en"
	defaultImageGenerationModel = "dall-e-3"
	defaultImageGenerationSize  = "1024x1024"
	defaultImageGenerationGrade = "standard"
	defaultRetryAttempts        = 3
	defaultBackoffBaseSeconds   = 1.0
	defaultBackoffMaxSeconds    = 10.0
	defaultCacheMaxGiB          = 10
	defaultLogFormat            = "auto"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CacheRoot: defaultCacheRoot,
			LogDir:    defaultLogDir,
			OutputDir: defaultOutputDir,
		},
		Segmentation: Segmentation{
			MinSegments:           defaultMinSegments,
			MaxSegments:           defaultMaxSegments,
			TargetSegmentDuration: defaultSegmentDuration,
			ProposalAttempts:      defaultProposalAttempts,
		},
		MatchWeights: MatchWeights{
			ExactKeyword: defaultExactKeywordWeight,
			PartialToken: defaultPartialTokenWeight,
			TitleToken:   defaultTitleTokenWeight,
		},
		Reasoning: Reasoning{
			BaseURL:        defaultReasoningBaseURL,
			Model:          defaultReasoningModel,
			TimeoutSeconds: defaultReasoningTimeout,
		},
		StockImages: StockImages{
			Enabled:        true,
			ProviderOrder:  []string{"unsplash", "pexels"},
			RequestsPerMin: defaultStockRequestsPerMin,
		},
		Voice: Voice{
			ProviderOrder: []string{"elevenlabs", "googletts"},
			VoiceID:       defaultVoiceID,
			Stability:     defaultVoiceStability,
			Similarity:    defaultVoiceSimilarity,
			Language:      defaultVoiceLanguage,
		},
		ImageGeneration: ImageGeneration{
			Model:   defaultImageGenerationModel,
			Size:    defaultImageGenerationSize,
			Quality: defaultImageGenerationGrade,
		},
		Retry: Retry{
			Attempts:           defaultRetryAttempts,
			BackoffBaseSeconds: defaultBackoffBaseSeconds,
			BackoffMaxSeconds:  defaultBackoffMaxSeconds,
		},
		Cache: Cache{
			MaxGiB: defaultCacheMaxGiB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
