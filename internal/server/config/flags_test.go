package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected *Config
		name     string
		args     []string
		wantErr  bool
	}{
		{
			name: "all flags",
			args: []string{
				"-a", "127.0.0.1:9090", "-d", "memory", "-s", "secret",
				"-t", "1h", "-b", "10", "-w", "2", "-rt", "5s", "-st", "3s",
				"-profile", "production", "-l", "debug",
			},
			expected: &Config{
				EndpointAddrHTTP:      "127.0.0.1:9090",
				DatabaseDSN:           "memory",
				SecretKey:             "secret",
				TokenValidityDuration: time.Hour,
				BcryptCost:            10,
				HashConcurrency:       2,
				RequestTimeout:        5 * time.Second,
				ShutdownTimeout:       3 * time.Second,
				Profile:               "production",
				LogLevel:              "debug",
			},
		},
		{
			name:     "foreign flags are ignored",
			args:     []string{"-c", "cfg.json", "-x", "1", "-s=abc"},
			expected: &Config{SecretKey: "abc"},
		},
		{
			name:    "bad duration",
			args:    []string{"-t", "forever"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setArgs(t, tt.args...)

			config := &Config{}
			err := parseFlags(config)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
