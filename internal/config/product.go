package config

import (
	"fmt"
	"strings"
	"time"

	"ProductService/pkg/kit"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

var _ Validator = (*Product)(nil)

type Product struct {
	HTTPServer HTTPConfig     `koanf:"server"`
	Store      StoreConfig    `koanf:"store"`
	Database   DatabaseConfig `koanf:"database"`
	Log        LogConfig      `koanf:"log"`
	Metrics    MetricsConfig  `koanf:"metrics"`
	Shutdown   ShutdownConfig `koanf:"shutdown"`
}

type StoreConfig struct {
	Driver string `koanf:"driver" validate:"oneof=memory postgres"`
}

type DatabaseConfig struct {
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
	Migrate bool          `koanf:"migrate"`
}

func ProductDefaults() map[string]any {
	d := httpDefaults(8080)
	d["store.driver"] = DriverMemory
	d["database.timeout"] = 5 * time.Second
	d["database.migrate"] = true
	return d
}

func LoadProduct(src Sources) (*Product, error) {
	return Load[*Product]("product", ProductDefaults(), src)
}

func (c *Product) Validate() error {
	if err := validateStruct(c); err != nil {
		return err
	}
	if c.Store.Driver == DriverPostgres {
		if c.Database.URL == "" {
			return fmt.Errorf("database URL is required for store driver %q", DriverPostgres)
		}
		if !isValidPostgresURL(c.Database.URL) {
			return fmt.Errorf("database URL must start with 'postgres://' or 'postgresql://'")
		}
	}
	return nil
}

func (c *Product) Server() kit.ServerConfig {
	return serverConfig(c.HTTPServer, c.Shutdown)
}

func (c *Product) String() string {
	var b strings.Builder

	writeCommon(&b, c.HTTPServer, c.Log, c.Metrics, c.Shutdown)

	b.WriteString("\n--- Store Configuration ---\n")
	fmt.Fprintf(&b, "  store.driver: %s\n", c.Store.Driver)
	fmt.Fprintf(&b, "  database.url: %s\n", maskURL(c.Database.URL))
	fmt.Fprintf(&b, "  database.timeout: %s\n", c.Database.Timeout)
	fmt.Fprintf(&b, "  database.migrate: %t\n", c.Database.Migrate)

	return b.String()
}

func isValidPostgresURL(url string) bool {
	return strings.HasPrefix(url, "postgres://") ||
		strings.HasPrefix(url, "postgresql://")
}
