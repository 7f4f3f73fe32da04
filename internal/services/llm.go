package services

// LLMParameters tunes a single generation. Nil fields are left to the provider's default.
type LLMParameters struct {
	Temperature *float32 `yaml:"temperature"`
	MaxTokens   *int     `yaml:"maxTokens"`
}

const (
	errLoggerKey = "err"

	defaultMaxTokens = 700
)

func (p LLMParameters) maxTokens() int {
	if p.MaxTokens != nil && *p.MaxTokens > 0 {
		return *p.MaxTokens
	}
	return defaultMaxTokens
}
