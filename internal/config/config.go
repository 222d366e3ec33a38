// Package config holds the configuration of the product API binaries.
package config

import (
	"strings"

	"github.com/abgdnv/productapi/pkg/config"
	"github.com/abgdnv/productapi/pkg/config/configloader"
)

var (
	_ configloader.Validator = (*Config)(nil)
	_ configloader.Validator = (*CatalogCtlConfig)(nil)
)

// Config is the configuration of the product_api server.
type Config struct {
	HTTPServer config.HTTPConfig       `koanf:"server"`
	Database   config.DatabaseConfig   `koanf:"database"`
	Log        config.LogConfig        `koanf:"log"`
	PProf      config.PProfConfig      `koanf:"pprof"`
	GRPC       config.GrpcServerConfig `koanf:"grpc"`
	Shutdown   config.ShutdownConfig   `koanf:"shutdown"`
	NATS       config.NATSConfig       `koanf:"nats"`
	Redis      config.RedisConfig      `koanf:"redis"`
	Telemetry  config.TelemetryConfig  `koanf:"telemetry"`
}

// String renders every section with credentials masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString(c.HTTPServer.String())
	b.WriteString(c.Database.String())
	b.WriteString(c.GRPC.String())
	b.WriteString(c.NATS.String())
	b.WriteString(c.Redis.String())
	b.WriteString(c.Telemetry.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Shutdown.String())
	return b.String()
}

// Validate checks every section and stops at the first error.
func (c *Config) Validate() error {
	validators := []configloader.Validator{
		&c.HTTPServer,
		&c.Database,
		&c.Log,
		&c.PProf,
		&c.Shutdown,
		&c.GRPC,
		&c.NATS,
		&c.Redis,
		&c.Telemetry,
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// CatalogCtlConfig is the configuration of the catalogctl command line client.
// Watch is only used, and only validated, when NATS is enabled.
type CatalogCtlConfig struct {
	Catalog config.GrpcClientConfig `koanf:"catalog"`
	NATS    config.NATSConfig       `koanf:"nats"`
	Watch   config.SubscriberConfig `koanf:"watch"`
	Log     config.LogConfig        `koanf:"log"`
}

func (c *CatalogCtlConfig) String() string {
	s := c.Catalog.String() + c.NATS.String()
	if c.NATS.Enabled {
		s += c.Watch.String()
	}
	return s + c.Log.String()
}

func (c *CatalogCtlConfig) Validate() error {
	if err := c.Catalog.Validate(); err != nil {
		return err
	}
	if err := c.NATS.Validate(); err != nil {
		return err
	}
	if c.NATS.Enabled {
		if err := c.Watch.Validate(); err != nil {
			return err
		}
	}
	return c.Log.Validate()
}
