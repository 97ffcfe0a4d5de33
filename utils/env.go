// utils/env.go
package utils

import (
	"log"
	"os"
	"time"
)

// MustGetenv returns the value of key or aborts startup
func MustGetenv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("%s environment variable not set", key)
	}
	return v
}

// GetenvDefault returns the value of key or def when unset
func GetenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// GetenvDuration parses key as a Go duration, falling back to def on
// absence or a malformed value.
func GetenvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("⚠️  invalid %s=%q, using default %s", key, v, def)
		return def
	}
	return d
}
