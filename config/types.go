package config

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port int `yaml:"port" validate:"gt=0"`
}

// UpstreamConfig contains realtime feed upstream configuration. The API key
// is optional; without it the upstream may still serve unauthenticated
// requests, and a total outage degrades to synthetic data rather than an
// error.
type UpstreamConfig struct {
	BaseURL    string `yaml:"baseURL" validate:"omitempty,url"`
	APIKey     string `yaml:"apiKey"`
	CacheTTLMS int    `yaml:"cacheTTLMS" validate:"gte=0"`
	Retries    int    `yaml:"retries" validate:"gte=0"`
	BackoffMS  int    `yaml:"backoffMS" validate:"gte=0"`
	TimeoutMS  int    `yaml:"timeoutMS" validate:"gte=0"`
}

// StationsConfig points at an optional stations table override. When empty
// the table bundled with the binary is used.
type StationsConfig struct {
	File string `yaml:"file"`
}

// AppConfig is the root configuration structure
type AppConfig struct {
	Server   ServerConfig   `yaml:"server" validate:"required"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Stations StationsConfig `yaml:"stations"`
}
