// Package config defines the storefront service configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/sleepoutside/storefront/internal/checkout"
	"github.com/sleepoutside/storefront/internal/platform/configloader"
)

var _ configloader.Validator = (*Config)(nil)

// Storage drivers for the persistent key/value store.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Catalog sources.
const (
	CatalogHTTP = "http"
	CatalogDir  = "dir"
)

type Config struct {
	HTTPServer HTTPConfig             `koanf:"server"`
	Storage    StorageConfig          `koanf:"storage"`
	Catalog    CatalogConfig          `koanf:"catalog"`
	Cart       CartConfig             `koanf:"cart"`
	Accounts   AccountsConfig         `koanf:"accounts"`
	Pricing    checkout.PricingConfig `koanf:"pricing"`
	Order      OrderConfig            `koanf:"order"`
	PProf      PProfConfig            `koanf:"pprof"`
	Log        LogConfig              `koanf:"log"`
	Shutdown   ShutdownConfig         `koanf:"shutdown"`
}

type HTTPConfig struct {
	Port           int `koanf:"port"`
	MaxHeaderBytes int `koanf:"maxHeaderBytes"`
	Timeout        struct {
		Read       time.Duration `koanf:"read"`
		Write      time.Duration `koanf:"write"`
		Idle       time.Duration `koanf:"idle"`
		ReadHeader time.Duration `koanf:"readHeader"`
	} `koanf:"timeout"`
}

func (c *HTTPConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid HTTP server port: %d", c.Port)
	}
	if c.Timeout.Read <= 0 {
		return fmt.Errorf("invalid HTTP server read timeout: %v", c.Timeout.Read)
	}
	if c.Timeout.Write <= 0 {
		return fmt.Errorf("invalid HTTP server write timeout: %v", c.Timeout.Write)
	}
	if c.Timeout.Idle <= 0 {
		return fmt.Errorf("invalid HTTP server idle timeout: %v", c.Timeout.Idle)
	}
	if c.Timeout.ReadHeader <= 0 {
		return fmt.Errorf("invalid HTTP server read header timeout: %v", c.Timeout.ReadHeader)
	}
	return nil
}

type StorageConfig struct {
	Driver   string         `koanf:"driver"`
	File     FileStorage    `koanf:"file"`
	Postgres PostgresConfig `koanf:"postgres"`
	Redis    RedisConfig    `koanf:"redis"`
}

type FileStorage struct {
	Path string `koanf:"path"`
}

type PostgresConfig struct {
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	Prefix   string `koanf:"prefix"`
}

func (c *StorageConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = DriverFile
	}
	switch c.Driver {
	case DriverMemory:
	case DriverFile:
		if c.File.Path == "" {
			c.File.Path = "storefront.json"
		}
	case DriverPostgres:
		if c.Postgres.URL == "" {
			return fmt.Errorf("storage driver is postgres but storage.postgres.url is not configured")
		}
		if !isValidPostgresURL(c.Postgres.URL) {
			return fmt.Errorf("database URL must start with 'postgres://': %s", maskURL(c.Postgres.URL))
		}
		if c.Postgres.Timeout <= 0 {
			c.Postgres.Timeout = 10 * time.Second
		}
	case DriverRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("storage driver is redis but storage.redis.addr is not configured")
		}
		if c.Redis.Prefix == "" {
			c.Redis.Prefix = "storefront:"
		}
	default:
		return fmt.Errorf("unknown storage driver: %q", c.Driver)
	}
	return nil
}

type CatalogConfig struct {
	Source  string        `koanf:"source"`
	BaseURL string        `koanf:"baseUrl"`
	Dir     string        `koanf:"dir"`
	Timeout time.Duration `koanf:"timeout"`
}

func (c *CatalogConfig) Validate() error {
	if c.Source == "" {
		c.Source = CatalogDir
	}
	switch c.Source {
	case CatalogHTTP:
		if c.BaseURL == "" {
			return fmt.Errorf("catalog source is http but catalog.baseUrl is not configured")
		}
		if c.Timeout <= 0 {
			c.Timeout = 10 * time.Second
		}
	case CatalogDir:
		if c.Dir == "" {
			c.Dir = "json"
		}
	default:
		return fmt.Errorf("unknown catalog source: %q", c.Source)
	}
	return nil
}

type CartConfig struct {
	StorageKey string `koanf:"storageKey"`
}

func (c *CartConfig) Validate() error {
	if c.StorageKey == "" {
		c.StorageKey = "so-cart"
	}
	return nil
}

type AccountsConfig struct {
	StorageKey string `koanf:"storageKey"`
}

func (c *AccountsConfig) Validate() error {
	if c.StorageKey == "" {
		c.StorageKey = "so-users"
	}
	return nil
}

type OrderConfig struct {
	EndpointURL string        `koanf:"endpointUrl"`
	Timeout     time.Duration `koanf:"timeout"`
}

func (c *OrderConfig) Validate() error {
	if c.EndpointURL == "" {
		return fmt.Errorf("order endpoint URL is not configured")
	}
	if !strings.HasPrefix(c.EndpointURL, "http://") && !strings.HasPrefix(c.EndpointURL, "https://") {
		return fmt.Errorf("order endpoint URL must be http(s): %s", c.EndpointURL)
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return nil
}

type PProfConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

func (c *PProfConfig) Validate() error {
	if c.Enabled && c.Addr == "" {
		return fmt.Errorf("pprof is enabled but address is not configured")
	}
	return nil
}

type LogConfig struct {
	Level string `koanf:"level"`
}

func (c *LogConfig) Validate() error {
	return nil
}

type ShutdownConfig struct {
	Timeout time.Duration `koanf:"timeout"`
}

func (c *ShutdownConfig) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("shutdown timeout is not configured")
	}
	return nil
}

func (c *Config) String() string {
	var b strings.Builder

	b.WriteString("\n--- Server Configuration ---\n")
	b.WriteString(fmt.Sprintf("  server.port: %d\n", c.HTTPServer.Port))
	b.WriteString(fmt.Sprintf("  server.maxHeaderBytes: %d\n", c.HTTPServer.MaxHeaderBytes))
	b.WriteString(fmt.Sprintf("  server.timeout.read: %v\n", c.HTTPServer.Timeout.Read))
	b.WriteString(fmt.Sprintf("  server.timeout.write: %v\n", c.HTTPServer.Timeout.Write))
	b.WriteString(fmt.Sprintf("  server.timeout.idle: %v\n", c.HTTPServer.Timeout.Idle))
	b.WriteString(fmt.Sprintf("  server.timeout.readHeader: %v\n", c.HTTPServer.Timeout.ReadHeader))

	b.WriteString("\n--- Storage Configuration ---\n")
	b.WriteString(fmt.Sprintf("  storage.driver: %s\n", c.Storage.Driver))
	b.WriteString(fmt.Sprintf("  storage.file.path: %s\n", c.Storage.File.Path))
	b.WriteString(fmt.Sprintf("  storage.postgres.url: %s\n", maskURL(c.Storage.Postgres.URL)))
	b.WriteString(fmt.Sprintf("  storage.redis.addr: %s\n", c.Storage.Redis.Addr))

	b.WriteString("\n--- Catalog & Order ---\n")
	b.WriteString(fmt.Sprintf("  catalog.source: %s\n", c.Catalog.Source))
	b.WriteString(fmt.Sprintf("  catalog.baseUrl: %s\n", c.Catalog.BaseURL))
	b.WriteString(fmt.Sprintf("  catalog.dir: %s\n", c.Catalog.Dir))
	b.WriteString(fmt.Sprintf("  order.endpointUrl: %s\n", c.Order.EndpointURL))
	b.WriteString(fmt.Sprintf("  order.timeout: %s\n", c.Order.Timeout))

	b.WriteString("\n--- Cart & Pricing ---\n")
	b.WriteString(fmt.Sprintf("  cart.storageKey: %s\n", c.Cart.StorageKey))
	b.WriteString(fmt.Sprintf("  pricing.taxRate: %v\n", c.Pricing.TaxRate))
	b.WriteString(fmt.Sprintf("  pricing.shipping.policy: %s\n", c.Pricing.Shipping.Policy))

	b.WriteString("\n--- Observability & Logging ---\n")
	b.WriteString(fmt.Sprintf("  log.level: %s\n", c.Log.Level))
	b.WriteString(fmt.Sprintf("  pprof.enabled: %t\n", c.PProf.Enabled))
	b.WriteString(fmt.Sprintf("  pprof.address: %s\n", c.PProf.Addr))

	b.WriteString("\n--- Application Behavior ---\n")
	b.WriteString(fmt.Sprintf("  shutdown.timeout: %s\n", c.Shutdown.Timeout))

	return b.String()
}

// Validate checks the configuration and fills domain defaults: a 6% tax rate
// and tiered shipping at $10 base + $2 per additional line item.
func (c *Config) Validate() error {
	if c.Pricing.TaxRate == 0 {
		c.Pricing.TaxRate = 0.06
	}
	if c.Pricing.Shipping.Policy == "" {
		c.Pricing.Shipping = checkout.ShippingConfig{
			Policy: checkout.ShippingTiered,
			Base:   10,
			Step:   2,
		}
	}

	if err := c.HTTPServer.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Catalog.Validate(); err != nil {
		return err
	}
	if err := c.Cart.Validate(); err != nil {
		return err
	}
	if err := c.Accounts.Validate(); err != nil {
		return err
	}
	if err := c.Pricing.Validate(); err != nil {
		return err
	}
	if err := c.Order.Validate(); err != nil {
		return err
	}
	if err := c.PProf.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	return c.Shutdown.Validate()
}

func maskURL(url string) string {
	if url == "" {
		return "<not configured>"
	}
	// Mask the URL by replacing the username and password with "****"
	parts := strings.Split(url, "@")
	if len(parts) == 2 {
		return "****@" + parts[1]
	}
	return "****"
}

// isValidPostgresURL checks if the provided URL is a valid PostgreSQL URL
func isValidPostgresURL(url string) bool {
	return strings.HasPrefix(url, "postgres://") ||
		strings.HasPrefix(url, "postgresql://")
}
