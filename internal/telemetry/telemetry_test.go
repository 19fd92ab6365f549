package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	assert.Equal(t, "brandforge", cfg.ServiceName)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.Equal(t, "grpc", cfg.Protocol)
	assert.Equal(t, 1.0, cfg.SamplingRate)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(c *Config) {}, false},
		{"http protocol valid", func(c *Config) { c.Protocol = "http/protobuf" }, false},
		{"bad protocol", func(c *Config) { c.Protocol = "carrier-pigeon" }, true},
		{"negative sampling", func(c *Config) { c.SamplingRate = -0.1 }, true},
		{"sampling above one", func(c *Config) { c.SamplingRate = 1.5 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Config
			cfg.ApplyDefaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNew_Disabled(t *testing.T) {
	tel, err := New(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	assert.False(t, tel.Degraded())
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(context.Background(), Config{Enabled: true, Protocol: "smoke-signals"})
	assert.Error(t, err)
}

func TestStripScheme(t *testing.T) {
	assert.Equal(t, "otel:4318", stripScheme("https://otel:4318"))
	assert.Equal(t, "otel:4318", stripScheme("http://otel:4318"))
	assert.Equal(t, "otel:4318", stripScheme("otel:4318"))
}
