package embeddings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{Model: "nomic-embed-text"}
	cfg.ApplyDefaults()

	assert.Equal(t, KindOpenAI, cfg.Kind)
	assert.Equal(t, 768, cfg.Dimension)
	assert.NotZero(t, cfg.Timeout)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "valid openai",
			cfg:     Config{Kind: KindOpenAI, Model: "text-embedding-3-small"},
			wantErr: false,
		},
		{
			name:    "ollama requires base URL",
			cfg:     Config{Kind: KindOllama, Model: "mxbai-embed-large"},
			wantErr: true,
		},
		{
			name:    "model required",
			cfg:     Config{Kind: KindOpenAI},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDetectDimension(t *testing.T) {
	tests := []struct {
		model string
		want  int
	}{
		{"text-embedding-3-large", 3072},
		{"text-embedding-3-small", 1536},
		{"text-embedding-ada-002", 1536},
		{"mxbai-embed-large", 1024},
		{"bge-small-en-v1.5", 384},
		{"nomic-embed-text", 768},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, detectDimension(tt.model))
		})
	}
}

func TestNewProvider_UnknownKind(t *testing.T) {
	_, err := NewProvider(Config{Kind: "fancy", Model: "m", BaseURL: "http://localhost"})
	require.ErrorIs(t, err, ErrUnknownProvider)
}

func TestNewProvider_OpenAI(t *testing.T) {
	p, err := NewProvider(Config{
		Kind:    KindOpenAI,
		Model:   "text-embedding-3-small",
		BaseURL: "http://localhost:8080",
	})
	require.NoError(t, err)
	defer p.Close()
	assert.Equal(t, 1536, p.Dimension())
}
