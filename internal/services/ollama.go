package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

// Ollama generates wellness answers with a model served by an Ollama instance.
type Ollama struct {
	host   string
	model  string
	params LLMParameters

	client *api.Client
}

// NewOllama creates a new Ollama instance with the specified host URL and model name. The host parameter
// should be a valid URL pointing to an Ollama server.
func NewOllama(host, model string, params LLMParameters) (Ollama, error) {
	u, err := url.Parse(host)
	if err != nil {
		return Ollama{}, fmt.Errorf("invalid ollama host %q: %w", host, err)
	}

	return Ollama{
		host:   host,
		model:  model,
		params: params,
		client: api.NewClient(u, &http.Client{}),
	}, nil
}

// Generate sends prompt as a single user message and returns the whole answer. The answer is streamed from
// the server and accumulated; the context can be used to cancel the request.
func (o Ollama) Generate(ctx context.Context, prompt string) (string, error) {
	options := map[string]any{
		"num_predict": o.params.maxTokens(),
	}
	if o.params.Temperature != nil {
		options["temperature"] = *o.params.Temperature
	}

	t := true
	req := api.ChatRequest{
		Model: o.model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: prompt,
			},
		},
		Stream:  &t,
		Options: options,
	}

	var sb strings.Builder
	if err := o.client.Chat(ctx, &req, func(res api.ChatResponse) error {
		sb.WriteString(res.Message.Content)
		return nil
	}); err != nil {
		return "", fmt.Errorf("error sending request: %w", err)
	}

	return sb.String(), nil
}
