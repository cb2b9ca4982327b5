// Package envx reads typed settings from environment variables, falling back
// to the supplied value when a variable is unset or unparsable.
package envx

import (
	"log"
	"os"
	"strconv"
	"time"
)

// GetString retrieves an environment variable or returns fallback when unset.
func GetString(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// GetInt retrieves an environment variable as an integer.
func GetInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("invalid value for %s: %v", key, err)
		return fallback
	}
	return parsed
}

// GetUint retrieves an environment variable as an unsigned integer that
// fits in bitSize bits. Negative or out-of-range values keep the fallback.
func GetUint(key string, fallback uint64, bitSize int) uint64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseUint(value, 10, bitSize)
	if err != nil {
		log.Printf("invalid value for %s: %v", key, err)
		return fallback
	}
	return parsed
}

// GetBool retrieves an environment variable as a bool.
func GetBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("invalid value for %s: %v", key, err)
		return fallback
	}
	return parsed
}

// GetDuration retrieves an environment variable as a Go duration string.
func GetDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("invalid value for %s: %v", key, err)
		return fallback
	}
	return parsed
}
