package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gallery/internal/flagx"
	"github.com/dmitrijs2005/gallery/internal/timex"
)

// ConfigEnvVar names the environment variable consulted for the config file
// path when neither -c nor -config is given.
const ConfigEnvVar = "GALLERY_CONFIG"

// JsonConfig is the on-disk form of Config. Pointer fields distinguish
// "absent" from zero values so a partial file only overrides what it names.
// Durations accept strings such as "24h" or integer nanoseconds.
type JsonConfig struct {
	EndpointAddrHTTP      *string         `json:"endpoint_addr_http"`
	DatabaseDSN           *string         `json:"database_dsn"`
	SecretKey             *string         `json:"secret_key"`
	TokenValidityDuration *timex.Duration `json:"token_validity_duration"`
	BcryptCost            *int            `json:"bcrypt_cost"`
	HashConcurrency       *int            `json:"hash_concurrency"`
	RequestTimeout        *timex.Duration `json:"request_timeout"`
	ShutdownTimeout       *timex.Duration `json:"shutdown_timeout"`
	Profile               *string         `json:"profile"`
	LogLevel              *string         `json:"log_level"`
}

// parseJson overlays values from the JSON file named by -c / -config or
// GALLERY_CONFIG. No file means no changes.
func parseJson(config *Config) error {
	path := flagx.ConfigFile(ConfigEnvVar)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	c.apply(config)
	return nil
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.Profile, c.Profile)
	setString(&config.LogLevel, c.LogLevel)

	if c.BcryptCost != nil {
		config.BcryptCost = *c.BcryptCost
	}
	if c.HashConcurrency != nil {
		config.HashConcurrency = *c.HashConcurrency
	}
	if c.TokenValidityDuration != nil {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	if c.RequestTimeout != nil {
		config.RequestTimeout = c.RequestTimeout.Duration
	}
	if c.ShutdownTimeout != nil {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
