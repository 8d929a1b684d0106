// Package config loads settings for the gallery CLI client: defaults, then an
// optional JSON file, then command-line flags.
package config
