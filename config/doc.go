// Package config loads and validates application configuration from YAML,
// with environment overrides for secrets.
package config
