// Package config loads service configuration from defaults, a YAML file,
// a .env file and the process environment, in increasing priority.
package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	defaultConfigFile = "config.yaml"
	defaultEnvFile    = ".env"
)

type Validator interface {
	Validate() error
}

// Sources overrides where Load looks for its file-based layers. Zero values
// fall back to config.yaml and .env in the working directory.
type Sources struct {
	ConfigFile string
	EnvFile    string
}

// Load builds a T for the named service. Environment keys are prefixed with
// the upper-cased service name, e.g. PRODUCT_DATABASE_URL -> database.url.
func Load[T Validator](service string, defaults map[string]any, src Sources) (T, error) {
	var cfg T
	k := koanf.New(".")

	configFile := src.ConfigFile
	if configFile == "" {
		configFile = defaultConfigFile
	}
	envFile := src.EnvFile
	if envFile == "" {
		envFile = defaultEnvFile
	}
	envPrefix := strings.ToUpper(service) + "_"

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return cfg, fmt.Errorf("load defaults: %w", err)
	}

	if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("load %s: %w", configFile, err)
		}
	}

	envTransformer := func(key string) string {
		key = strings.ToLower(key)
		key = strings.TrimPrefix(key, strings.ToLower(envPrefix))
		return strings.ReplaceAll(key, "_", ".")
	}

	if envFileMap, err := godotenv.Read(envFile); err == nil {
		envMap := make(map[string]any)
		for key, value := range envFileMap {
			if !strings.HasPrefix(key, envPrefix) {
				continue
			}
			envMap[envTransformer(key)] = value
		}
		if err := k.Load(confmap.Provider(envMap, "."), nil); err != nil {
			return cfg, fmt.Errorf("load %s: %w", envFile, err)
		}
	} else if !os.IsNotExist(err) {
		log.Printf("WARN: error reading %s: %v", envFile, err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransformer), nil); err != nil {
		return cfg, fmt.Errorf("load env: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}
