package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/wellness-assistant/wellness-web-ui/internal/backend"
	"github.com/wellness-assistant/wellness-web-ui/internal/services"
	"gopkg.in/yaml.v3"
)

type llmConfig interface {
	generator(logger *slog.Logger) (backend.Generator, error)
}

// BaseLLMConfig contains the common fields for all LLM configurations.
type BaseLLMConfig struct {
	Provider   string                 `yaml:"provider"`
	Model      string                 `yaml:"model"`
	Parameters services.LLMParameters `yaml:"parameters"`
}

type config struct {
	Port   string `yaml:"port"`
	DBPath string `yaml:"dbPath"`
	// NoPacing streams answers without the typing effect.
	NoPacing bool      `yaml:"noPacing"`
	LLM      llmConfig `yaml:"llm"`
	// SearchEndpoint overrides the DuckDuckGo endpoint used for web search.
	SearchEndpoint string `yaml:"searchEndpoint"`
}

type ollamaConfig struct {
	BaseLLMConfig `yaml:",inline"`
	Host          string `yaml:"host"`
}

type openAIConfig struct {
	BaseLLMConfig `yaml:",inline"`
	APIKey        string `yaml:"apiKey"`
	BaseURL       string `yaml:"baseURL"`
}

type openRouterConfig struct {
	BaseLLMConfig `yaml:",inline"`
	APIKey        string `yaml:"apiKey"`
}

type anthropicConfig struct {
	BaseLLMConfig `yaml:",inline"`
	APIKey        string `yaml:"apiKey"`
}

type cannedConfig struct {
	BaseLLMConfig `yaml:",inline"`
}

const defaultPort = "8000"

func (c *config) UnmarshalYAML(value *yaml.Node) error {
	var rawConfig struct {
		Port           string         `yaml:"port"`
		DBPath         string         `yaml:"dbPath"`
		NoPacing       bool           `yaml:"noPacing"`
		LLM            map[string]any `yaml:"llm"`
		SearchEndpoint string         `yaml:"searchEndpoint"`
	}

	if err := value.Decode(&rawConfig); err != nil {
		return err
	}

	c.Port = rawConfig.Port
	c.DBPath = rawConfig.DBPath
	c.NoPacing = rawConfig.NoPacing
	c.SearchEndpoint = rawConfig.SearchEndpoint

	if rawConfig.LLM == nil {
		c.LLM = cannedConfig{}
		return nil
	}

	llmProvider, ok := rawConfig.LLM["provider"].(string)
	if !ok {
		return fmt.Errorf("llm provider is required")
	}

	llmRawYAML, err := yaml.Marshal(rawConfig.LLM)
	if err != nil {
		return err
	}

	var llm llmConfig
	switch llmProvider {
	case "ollama":
		llm = &ollamaConfig{}
	case "openai":
		llm = &openAIConfig{}
	case "openrouter":
		llm = &openRouterConfig{}
	case "anthropic":
		llm = &anthropicConfig{}
	case "canned":
		llm = &cannedConfig{}
	default:
		return fmt.Errorf("unknown llm provider: %s", llmProvider)
	}

	if err := yaml.Unmarshal(llmRawYAML, llm); err != nil {
		return err
	}

	c.LLM = llm

	return nil
}

func (c config) port() string {
	if c.Port == "" {
		return defaultPort
	}
	return c.Port
}

func (c config) pacing() backend.Pacing {
	if c.NoPacing {
		return backend.Pacing{}
	}
	return backend.DefaultPacing
}

func (o ollamaConfig) generator(*slog.Logger) (backend.Generator, error) {
	if o.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	host := o.Host
	if host == "" {
		host = os.Getenv("OLLAMA_HOST")
	}
	if host == "" {
		host = "http://localhost:11434"
	}
	return services.NewOllama(host, o.Model, o.Parameters)
}

func (o openAIConfig) generator(logger *slog.Logger) (backend.Generator, error) {
	if o.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	apiKey := o.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	return services.NewOpenAI(apiKey, o.BaseURL, o.Model, o.Parameters, logger), nil
}

func (o openRouterConfig) generator(logger *slog.Logger) (backend.Generator, error) {
	if o.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	apiKey := o.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENROUTER_API_KEY")
	}
	return services.NewOpenRouter(apiKey, "", o.Model, o.Parameters, logger), nil
}

func (a anthropicConfig) generator(*slog.Logger) (backend.Generator, error) {
	if a.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	apiKey := a.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	return services.NewAnthropic(apiKey, "", a.Model, a.Parameters), nil
}

func (cannedConfig) generator(*slog.Logger) (backend.Generator, error) {
	return services.Canned{}, nil
}
