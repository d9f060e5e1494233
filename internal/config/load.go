package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog/log"
)

// ConfigPathEnvVar names an optional YAML file layered between defaults and the environment.
const ConfigPathEnvVar = "CONFIG_PATH"

// knownKeys limits the environment layer to the variables this service reads.
var knownKeys = map[string]bool{
	"env": true, "log_level": true, "host": true, "port": true, "debug": true,
	"mmsi": true, "vesselfinder_api_key": true, "vesselfinder_api_url": true, "http_timeout": true,
	"cache_timeout": true, "refresh_interval": true,
	"display_width": true, "display_height": true,
	"stale_policy": true, "max_stale_age": true,
	"trmnl_api_key": true, "trmnl_plugin_uuid": true,
	"image_bucket": true, "image_key": true, "s3_endpoint": true,
	"cors_allowed_origins": true, "rate_limit_requests": true, "rate_limit_window": true,
	"render_cache_size": true,
}

// Load builds the configuration from defaults, an optional YAML file and environment variables,
// in increasing order of precedence.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	// Comma-separated env values arrive as a single string.
	if raw, ok := k.Get("cors_allowed_origins").(string); ok {
		if err := k.Set("cors_allowed_origins", splitList(raw)); err != nil {
			return nil, fmt.Errorf("parsing cors_allowed_origins: %w", err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling configuration: %w", err)
	}

	log.Debug().
		Str("mmsi", cfg.MMSI).
		Int("cache_timeout", cfg.CacheTimeoutSeconds).
		Int("display_width", cfg.DisplayWidth).
		Int("display_height", cfg.DisplayHeight).
		Str("stale_policy", string(cfg.StalePolicy)).
		Bool("image_mirror", cfg.ImageBucket != "").
		Msg("Configuration loaded")

	return cfg, nil
}

// envTransform maps VESSELFINDER_API_KEY to vesselfinder_api_key and drops unrelated variables.
func envTransform(key string) string {
	key = strings.ToLower(key)
	if !knownKeys[key] {
		return ""
	}
	return key
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
