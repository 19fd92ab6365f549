package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/tmc/langchaingo/llms/ollama"
)

// newOllama builds an Ollama provider. Health probes hit GET /api/tags,
// which answers fast whether or not a model is loaded.
func newOllama(config Config) (*provider, error) {
	model, err := ollama.New(
		ollama.WithServerURL(config.BaseURL),
		ollama.WithModel(config.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ollama client: %w", err)
	}

	baseURL := strings.TrimRight(config.BaseURL, "/")
	pingTimeout := config.PingTimeout
	ping := func(ctx context.Context) bool {
		ctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/tags", nil)
		if err != nil {
			return false
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}

	return &provider{
		name:       config.Name,
		kind:       KindOllama,
		model:      model,
		costWeight: config.CostWeight,
		timeout:    config.Timeout,
		ping:       ping,
	}, nil
}
