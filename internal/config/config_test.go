package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "ollama", cfg.Embeddings.Kind)
	assert.Equal(t, "http://localhost:11434", cfg.Embeddings.BaseURL)
	assert.Equal(t, "nomic-embed-text", cfg.Embeddings.Model)
	assert.Equal(t, "memory", cfg.VectorStore.Provider)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeConfigFile(t, `
log:
  level: debug
  format: json
embeddings:
  kind: openai
  model: text-embedding-3-small
  api_key: sk-test
vectorstore:
  provider: chromem
  chromem:
    path: /tmp/vectors
    compress: true
orchestrator:
  health_ttl: 45s
  providers:
    - name: gemini-pro
      kind: gemini
      model: gemini-pro
      api_key: g-test
    - name: ollama-llama3
      kind: ollama
      model: llama3
      base_url: http://localhost:11434
engine:
  write_back_timeout: 5s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "openai", cfg.Embeddings.Kind)
	assert.Equal(t, "sk-test", cfg.Embeddings.APIKey.Value())
	assert.Equal(t, "chromem", cfg.VectorStore.Provider)
	assert.Equal(t, "/tmp/vectors", cfg.VectorStore.Chromem.Path)
	assert.True(t, cfg.VectorStore.Chromem.Compress)
	assert.Equal(t, 45*time.Second, cfg.Orchestrator.HealthTTL.Duration())
	require.Len(t, cfg.Orchestrator.Providers, 2)
	assert.Equal(t, "gemini-pro", cfg.Orchestrator.Providers[0].Name)
	assert.Equal(t, 5*time.Second, cfg.Engine.WriteBackTimeout.Duration())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
log:
  level: debug
`)
	t.Setenv("BRANDFORGE_LOG_LEVEL", "error")
	t.Setenv("BRANDFORGE_EMBEDDINGS_BASE_URL", "http://embedder:8080")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, "http://embedder:8080", cfg.Embeddings.BaseURL)
}

func TestLoad_RejectsInsecurePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: info\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insecure config file permissions")
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "invalid log level"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "invalid log format"},
		{"bad store provider", func(c *Config) { c.VectorStore.Provider = "pinecone" }, "invalid vectorstore provider"},
		{"bad embeddings kind", func(c *Config) { c.Embeddings.Kind = "psychic" }, "embeddings"},
		{"provider missing model", func(c *Config) {
			c.Orchestrator.Providers = []ProviderConfig{{Name: "x", Kind: "ollama", BaseURL: "http://x"}}
		}, "provider 0"},
		{"duplicate provider name", func(c *Config) {
			c.Orchestrator.Providers = []ProviderConfig{
				{Name: "x", Kind: "ollama", Model: "llama3", BaseURL: "http://x"},
				{Name: "x", Kind: "ollama", Model: "mistral", BaseURL: "http://x"},
			}
		}, "duplicate name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tt.mutate(cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestSecretRedaction(t *testing.T) {
	s := Secret("sk-very-secret")
	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", s))
	assert.Equal(t, "Secret([REDACTED])", fmt.Sprintf("%#v", s))
	assert.Equal(t, "sk-very-secret", s.Value())
	assert.True(t, s.IsSet())

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, `"[REDACTED]"`, string(data))

	var empty Secret
	assert.Equal(t, "", empty.String())
	assert.False(t, empty.IsSet())
}

func TestDuration(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("90s")))
	assert.Equal(t, 90*time.Second, d.Duration())

	assert.Error(t, d.UnmarshalText([]byte("-5s")))
	assert.Error(t, d.UnmarshalText([]byte("fast")))

	text, err := Duration(time.Minute).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m0s", string(text))
}
