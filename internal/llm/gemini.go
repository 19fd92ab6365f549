package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms/googleai"
)

// newGemini builds a Gemini provider. Gemini has no status endpoint, so
// health probes issue a one-token generation.
func newGemini(ctx context.Context, config Config) (*provider, error) {
	model, err := googleai.New(ctx,
		googleai.WithAPIKey(config.APIKey),
		googleai.WithDefaultModel(config.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	p := &provider{
		name:       config.Name,
		kind:       KindGemini,
		model:      model,
		costWeight: config.CostWeight,
		timeout:    config.Timeout,
	}
	p.ping = probePing(p, config.PingTimeout)
	return p, nil
}
