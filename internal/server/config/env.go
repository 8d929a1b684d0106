package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const envPrefix = "GALLERY_"

// parseEnv overlays GALLERY_* environment variables. Unset variables leave
// the current value untouched.
func parseEnv(config *Config) error {
	lookupString("ADDRESS", &config.EndpointAddrHTTP)
	lookupString("DATABASE_DSN", &config.DatabaseDSN)
	lookupString("SECRET_KEY", &config.SecretKey)
	lookupString("PROFILE", &config.Profile)
	lookupString("LOG_LEVEL", &config.LogLevel)

	if err := lookupInt("BCRYPT_COST", &config.BcryptCost); err != nil {
		return err
	}
	if err := lookupInt("HASH_CONCURRENCY", &config.HashConcurrency); err != nil {
		return err
	}
	if err := lookupDuration("TOKEN_VALIDITY", &config.TokenValidityDuration); err != nil {
		return err
	}
	if err := lookupDuration("REQUEST_TIMEOUT", &config.RequestTimeout); err != nil {
		return err
	}
	return lookupDuration("SHUTDOWN_TIMEOUT", &config.ShutdownTimeout)
}

func lookupString(name string, dst *string) {
	if v, ok := os.LookupEnv(envPrefix + name); ok {
		*dst = v
	}
}

func lookupInt(name string, dst *int) error {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s%s: %w", envPrefix, name, err)
	}
	*dst = n
	return nil
}

func lookupDuration(name string, dst *time.Duration) error {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s%s: %w", envPrefix, name, err)
	}
	*dst = d
	return nil
}
