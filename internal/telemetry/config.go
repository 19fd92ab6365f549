package telemetry

import (
	"fmt"
	"time"
)

// Config holds tracing configuration.
type Config struct {
	Enabled         bool          `koanf:"enabled"`
	ServiceName     string        `koanf:"service_name"`
	ServiceVersion  string        `koanf:"service_version"`
	Endpoint        string        `koanf:"endpoint"`
	Protocol        string        `koanf:"protocol"` // grpc, http/protobuf
	Insecure        bool          `koanf:"insecure"`
	SamplingRate    float64       `koanf:"sampling_rate"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// ApplyDefaults fills zero values with production defaults.
func (c *Config) ApplyDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "brandforge"
	}
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4317"
	}
	if c.Protocol == "" {
		c.Protocol = "grpc"
	}
	if c.SamplingRate == 0 {
		c.SamplingRate = 1.0
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Protocol {
	case "grpc", "http/protobuf":
	default:
		return fmt.Errorf("invalid protocol: %q", c.Protocol)
	}
	if c.SamplingRate < 0 || c.SamplingRate > 1 {
		return fmt.Errorf("sampling rate must be in [0, 1], got %g", c.SamplingRate)
	}
	return nil
}
