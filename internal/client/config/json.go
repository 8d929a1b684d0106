package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gallery/internal/flagx"
	"github.com/dmitrijs2005/gallery/internal/timex"
)

// ConfigEnvVar names the environment variable consulted for the config file
// path when -c / -config is absent.
const ConfigEnvVar = "GALLERY_CLIENT_CONFIG"

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations may
// be strings like "3s" or integer nanoseconds.
type JsonConfig struct {
	ServerURL      string         `json:"server_url"`
	RequestTimeout timex.Duration `json:"request_timeout"`
}

// parseJson overlays cfg with the non-zero values of the JSON config file.
func parseJson(cfg *Config) error {
	path := flagx.ConfigFile(ConfigEnvVar)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return err
	}

	if jc.ServerURL != "" {
		cfg.ServerURL = jc.ServerURL
	}
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	return nil
}
