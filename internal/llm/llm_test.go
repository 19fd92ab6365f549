package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{"unknown kind", Config{Kind: "hal9000", Model: "m"}, ErrUnknownKind},
		{"missing model", Config{Kind: KindOllama, BaseURL: "http://localhost:11434"}, ErrInvalidConfig},
		{"gemini without key", Config{Kind: KindGemini, Model: "gemini-pro"}, ErrInvalidConfig},
		{"ollama without url", Config{Kind: KindOllama, Model: "llama3"}, ErrInvalidConfig},
		{"openai without key", Config{Kind: KindOpenAI, Model: "gpt-4o-mini"}, ErrInvalidConfig},
		{"valid ollama", Config{Kind: KindOllama, Model: "llama3", BaseURL: "http://localhost:11434"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	c := Config{Kind: KindOllama, Model: "llama3", BaseURL: "http://localhost:11434"}
	c.ApplyDefaults()
	assert.Equal(t, DefaultTimeout, c.Timeout)
	assert.Equal(t, DefaultPingTimeout, c.PingTimeout)
	assert.Equal(t, "llama3", c.Name)

	named := Config{Name: "local", Kind: KindOllama, Model: "llama3", BaseURL: "x"}
	named.ApplyDefaults()
	assert.Equal(t, "local", named.Name)
}

func TestNewProvider_UnknownKind(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Kind: "hal9000", Model: "m"})
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestOllamaPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			w.Write([]byte(`{"models":[{"name":"llama3"}]}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	p, err := NewProvider(context.Background(), Config{
		Name:    "local",
		Kind:    KindOllama,
		Model:   "llama3",
		BaseURL: srv.URL,
	})
	require.NoError(t, err)
	assert.Equal(t, KindOllama, p.Kind())
	assert.True(t, p.Ping(context.Background()))
}

func TestOllamaPing_Down(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	addr := srv.URL
	srv.Close()

	p, err := NewProvider(context.Background(), Config{
		Kind:        KindOllama,
		Model:       "llama3",
		BaseURL:     addr,
		PingTimeout: 500 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.False(t, p.Ping(context.Background()))
}

func TestEstimateUsage(t *testing.T) {
	u := EstimateUsage("12345678", "1234")
	assert.Equal(t, 2, u.Prompt)
	assert.Equal(t, 1, u.Completion)
	assert.Equal(t, 3, u.Total)
	assert.True(t, u.Estimated)
}

func TestUsageFromChoice_BackendReported(t *testing.T) {
	choice := &llms.ContentChoice{
		Content: "reply",
		GenerationInfo: map[string]any{
			"PromptTokens":     10,
			"CompletionTokens": 5,
		},
	}
	u := usageFromChoice("prompt", choice)
	assert.Equal(t, 10, u.Prompt)
	assert.Equal(t, 5, u.Completion)
	assert.Equal(t, 15, u.Total)
	assert.False(t, u.Estimated)
}

func TestUsageFromChoice_FallsBackToEstimate(t *testing.T) {
	choice := &llms.ContentChoice{Content: "12345678"}
	u := usageFromChoice("1234", choice)
	assert.True(t, u.Estimated)
	assert.Equal(t, 1, u.Prompt)
	assert.Equal(t, 2, u.Completion)
}
