package main

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func TestConfigUnmarshalYAML(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		want    any
		wantErr bool
	}{
		{
			name: "No llm block falls back to canned",
			yaml: "port: \"9000\"\n",
			want: cannedConfig{},
		},
		{
			name: "Ollama",
			yaml: "llm:\n  provider: ollama\n  model: llama3\n  host: http://ollama:11434\n  parameters:\n    temperature: 0.7\n",
			want: &ollamaConfig{},
		},
		{
			name: "OpenAI",
			yaml: "llm:\n  provider: openai\n  model: gpt-4o-mini\n  baseURL: http://localhost:1234/v1\n",
			want: &openAIConfig{},
		},
		{
			name: "OpenRouter",
			yaml: "llm:\n  provider: openrouter\n  model: meta/llama\n",
			want: &openRouterConfig{},
		},
		{
			name: "Anthropic",
			yaml: "llm:\n  provider: anthropic\n  model: claude\n",
			want: &anthropicConfig{},
		},
		{
			name:    "Unknown provider",
			yaml:    "llm:\n  provider: watson\n",
			wantErr: true,
		},
		{
			name:    "Missing provider",
			yaml:    "llm:\n  model: x\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg config
			err := yaml.Unmarshal([]byte(tt.yaml), &cfg)
			if tt.wantErr {
				if err == nil {
					t.Error("Unmarshal() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}

			switch tt.want.(type) {
			case cannedConfig:
				if _, ok := cfg.LLM.(cannedConfig); !ok {
					t.Errorf("LLM = %T, want cannedConfig", cfg.LLM)
				}
			case *ollamaConfig:
				o, ok := cfg.LLM.(*ollamaConfig)
				if !ok {
					t.Fatalf("LLM = %T, want *ollamaConfig", cfg.LLM)
				}
				if o.Model != "llama3" || o.Host != "http://ollama:11434" {
					t.Errorf("ollama config = %+v", o)
				}
				if o.Parameters.Temperature == nil || *o.Parameters.Temperature != 0.7 {
					t.Errorf("temperature = %v, want 0.7", o.Parameters.Temperature)
				}
			case *openAIConfig:
				o, ok := cfg.LLM.(*openAIConfig)
				if !ok {
					t.Fatalf("LLM = %T, want *openAIConfig", cfg.LLM)
				}
				if o.BaseURL != "http://localhost:1234/v1" {
					t.Errorf("openai config = %+v", o)
				}
			case *openRouterConfig:
				if _, ok := cfg.LLM.(*openRouterConfig); !ok {
					t.Errorf("LLM = %T, want *openRouterConfig", cfg.LLM)
				}
			case *anthropicConfig:
				if _, ok := cfg.LLM.(*anthropicConfig); !ok {
					t.Errorf("LLM = %T, want *anthropicConfig", cfg.LLM)
				}
			}
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	var cfg config
	if err := yaml.Unmarshal([]byte("noPacing: true\n"), &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.port() != defaultPort {
		t.Errorf("port() = %q, want %q", cfg.port(), defaultPort)
	}
	if p := cfg.pacing(); p.ResponseWord != 0 {
		t.Errorf("pacing() = %+v, want no delays", p)
	}

	if _, err := (ollamaConfig{}).generator(nil); err == nil {
		t.Error("generator() without model error = nil")
	}
	if _, err := (cannedConfig{}).generator(nil); err != nil {
		t.Errorf("canned generator() error = %v", err)
	}
}
