package llm

import (
	"fmt"

	"github.com/tmc/langchaingo/llms/openai"
)

// newOpenAI builds a provider for OpenAI or any OpenAI-compatible
// endpoint (set BaseURL for vLLM, LiteLLM and the like).
func newOpenAI(config Config) (*provider, error) {
	opts := []openai.Option{
		openai.WithToken(config.APIKey),
		openai.WithModel(config.Model),
	}
	if config.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(config.BaseURL))
	}
	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating openai client: %w", err)
	}

	p := &provider{
		name:       config.Name,
		kind:       KindOpenAI,
		model:      model,
		costWeight: config.CostWeight,
		timeout:    config.Timeout,
	}
	p.ping = probePing(p, config.PingTimeout)
	return p, nil
}
