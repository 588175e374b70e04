package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the global application configuration
var Config AppConfig

// DefaultBaseURL is the subway realtime feed root.
const DefaultBaseURL = "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds"

// LoadAppConfig loads and validates the application configuration from
// config.yml. Missing file is not an error: the defaults describe a working
// unauthenticated setup. The MTA_API_KEY environment variable overrides any
// key in the file.
func LoadAppConfig() error {
	paths := []string{"config.yml", "./config/config.yml"}
	var cfg AppConfig
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return err
		}
		break
	}

	applyDefaults(&cfg)
	if key := os.Getenv("MTA_API_KEY"); key != "" {
		cfg.Upstream.APIKey = key
	}

	v := validator.New()
	if err := v.Struct(cfg.Server); err != nil {
		return err
	}
	if err := v.Struct(cfg.Upstream); err != nil {
		return err
	}

	Config = cfg
	return nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 16181
	}
	if cfg.Upstream.BaseURL == "" {
		cfg.Upstream.BaseURL = DefaultBaseURL
	}
	if cfg.Upstream.CacheTTLMS == 0 {
		cfg.Upstream.CacheTTLMS = 10000
	}
	if cfg.Upstream.Retries == 0 {
		cfg.Upstream.Retries = 1
	}
	if cfg.Upstream.BackoffMS == 0 {
		cfg.Upstream.BackoffMS = 250
	}
	if cfg.Upstream.TimeoutMS == 0 {
		cfg.Upstream.TimeoutMS = 15000
	}
}
