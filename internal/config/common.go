package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"ProductService/pkg/kit"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type HTTPConfig struct {
	Port    int `koanf:"port" validate:"min=1,max=65535"`
	Timeout struct {
		Read   time.Duration `koanf:"read" validate:"gt=0"`
		Write  time.Duration `koanf:"write" validate:"gt=0"`
		Idle   time.Duration `koanf:"idle" validate:"gt=0"`
		Header time.Duration `koanf:"header" validate:"gt=0"`
	} `koanf:"timeout"`
}

type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
}

type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Token   string `koanf:"token"`
}

type ShutdownConfig struct {
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
}

func httpDefaults(port int) map[string]any {
	return map[string]any{
		"server.port":           port,
		"server.timeout.read":   10 * time.Second,
		"server.timeout.write":  10 * time.Second,
		"server.timeout.idle":   60 * time.Second,
		"server.timeout.header": 5 * time.Second,
		"log.level":             "info",
		"metrics.enabled":       false,
		"shutdown.timeout":      10 * time.Second,
	}
}

func serverConfig(h HTTPConfig, s ShutdownConfig) kit.ServerConfig {
	return kit.ServerConfig{
		Addr:            fmt.Sprintf(":%d", h.Port),
		ReadTimeout:     h.Timeout.Read,
		WriteTimeout:    h.Timeout.Write,
		IdleTimeout:     h.Timeout.Idle,
		ReadHeader:      h.Timeout.Header,
		ShutdownTimeout: s.Timeout,
	}
}

// validateStruct flattens validator errors into a single readable error.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on rule %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

func maskURL(url string) string {
	if url == "" {
		return "<not configured>"
	}
	if i := strings.LastIndex(url, "@"); i >= 0 {
		return "****" + url[i:]
	}
	return "****"
}

func mask(secret string) string {
	if secret == "" {
		return "<not configured>"
	}
	return "****"
}

func writeCommon(b *strings.Builder, h HTTPConfig, l LogConfig, m MetricsConfig, s ShutdownConfig) {
	b.WriteString("\n--- Server Configuration ---\n")
	fmt.Fprintf(b, "  server.port: %d\n", h.Port)
	fmt.Fprintf(b, "  server.timeout.read: %v\n", h.Timeout.Read)
	fmt.Fprintf(b, "  server.timeout.write: %v\n", h.Timeout.Write)
	fmt.Fprintf(b, "  server.timeout.idle: %v\n", h.Timeout.Idle)
	fmt.Fprintf(b, "  server.timeout.header: %v\n", h.Timeout.Header)

	b.WriteString("\n--- Observability & Logging ---\n")
	fmt.Fprintf(b, "  log.level: %s\n", l.Level)
	fmt.Fprintf(b, "  metrics.enabled: %t\n", m.Enabled)
	fmt.Fprintf(b, "  metrics.token: %s\n", mask(m.Token))

	b.WriteString("\n--- Application Behavior ---\n")
	fmt.Fprintf(b, "  shutdown.timeout: %s\n", s.Timeout)
}
