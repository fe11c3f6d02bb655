package config

const (
	defaultDataDir          = "~/.local/share/vecna"
	defaultAPIBind          = "127.0.0.1:7490"
	defaultFetchTimeout     = 60
	defaultMaxRulebookBytes = 64 << 20
	defaultMinTextChars     = 200
	defaultGeneratorBaseURL = "https://openrouter.ai/api/v1/chat/completions"
	defaultGeneratorModel   = "anthropic/claude-sonnet-4"
	defaultGeneratorTitle   = "Vecna Pipeline"
	defaultGeneratorTimeout = 120
	defaultTemperature      = 0.4
	defaultMaxTokens        = 2048
	defaultInFlightTimeout  = 1800
	defaultReclaimInterval  = 60
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

var defaultContentTypes = []string{"overview", "how_to_play", "strategy"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			APIBind: defaultAPIBind,
		},
		Rulebook: Rulebook{
			FetchTimeout: defaultFetchTimeout,
			MaxBytes:     defaultMaxRulebookBytes,
			MinTextChars: defaultMinTextChars,
		},
		Generator: Generator{
			BaseURL:        defaultGeneratorBaseURL,
			Model:          defaultGeneratorModel,
			ContentTypes:   append([]string(nil), defaultContentTypes...),
			Title:          defaultGeneratorTitle,
			TimeoutSeconds: defaultGeneratorTimeout,
			Temperature:    defaultTemperature,
			MaxTokens:      defaultMaxTokens,
		},
		Pipeline: Pipeline{
			InFlightTimeout: defaultInFlightTimeout,
			ReclaimInterval: defaultReclaimInterval,
			SkipBlocked:     true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
