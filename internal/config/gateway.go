package config

import (
	"fmt"
	"strings"

	"ProductService/pkg/kit"
)

var _ Validator = (*Gateway)(nil)

type Gateway struct {
	HTTPServer HTTPConfig     `koanf:"server"`
	Product    UpstreamConfig `koanf:"product"`
	CORS       CORSConfig     `koanf:"cors"`
	Log        LogConfig      `koanf:"log"`
	Metrics    MetricsConfig  `koanf:"metrics"`
	Shutdown   ShutdownConfig `koanf:"shutdown"`
}

type UpstreamConfig struct {
	URL string `koanf:"url" validate:"required,http_url"`
}

type CORSConfig struct {
	// Comma separated so a single env var can carry the list.
	Origins string `koanf:"origins" validate:"required"`
}

func GatewayDefaults() map[string]any {
	d := httpDefaults(5000)
	d["product.url"] = "http://localhost:8080"
	d["cors.origins"] = "*"
	return d
}

func LoadGateway(src Sources) (*Gateway, error) {
	return Load[*Gateway]("gateway", GatewayDefaults(), src)
}

func (c *Gateway) Validate() error {
	return validateStruct(c)
}

func (c *Gateway) Server() kit.ServerConfig {
	return serverConfig(c.HTTPServer, c.Shutdown)
}

func (c CORSConfig) AllowedOrigins() []string {
	parts := strings.Split(c.Origins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Gateway) String() string {
	var b strings.Builder

	writeCommon(&b, c.HTTPServer, c.Log, c.Metrics, c.Shutdown)

	b.WriteString("\n--- Upstreams ---\n")
	fmt.Fprintf(&b, "  product.url: %s\n", c.Product.URL)
	fmt.Fprintf(&b, "  cors.origins: %s\n", c.CORS.Origins)

	return b.String()
}
