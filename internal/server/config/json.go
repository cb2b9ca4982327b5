package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/credgate/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "30m" and integer nanoseconds are accepted.
// Keys missing from the file leave the current value untouched.
type JsonConfig struct {
	EndpointAddrHTTP            string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC            string         `json:"endpoint_addr_grpc"`
	DatabaseDriver              string         `json:"database_driver"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	SessionCookieName           string         `json:"session_cookie_name"`
	SecureCookies               bool           `json:"secure_cookies"`
	MaxCredentialLength         int            `json:"max_credential_length"`
	CaseInsensitiveIdentifiers  bool           `json:"case_insensitive_identifiers"`
	Argon2Time                  uint32         `json:"argon2_time"`
	Argon2MemoryKiB             uint32         `json:"argon2_memory_kib"`
	Argon2Threads               uint8          `json:"argon2_threads"`
	Argon2KeyLen                uint32         `json:"argon2_key_len"`
	Argon2SaltLen               uint32         `json:"argon2_salt_len"`
	RedisAddr                   string         `json:"redis_addr"`
	RedisPassword               string         `json:"redis_password"`
	RedisDB                     int            `json:"redis_db"`
	LoginRateLimit              int            `json:"login_rate_limit"`
	LoginRateWindow             timex.Duration `json:"login_rate_window"`
	TrustProxyHeaders           bool           `json:"trust_proxy_headers"`
	LogLevel                    string         `json:"log_level"`
}

func toJSON(c *Config) *JsonConfig {
	return &JsonConfig{
		EndpointAddrHTTP:            c.EndpointAddrHTTP,
		EndpointAddrGRPC:            c.EndpointAddrGRPC,
		DatabaseDriver:              c.DatabaseDriver,
		DatabaseDSN:                 c.DatabaseDSN,
		SecretKey:                   c.SecretKey,
		AccessTokenValidityDuration: timex.Duration{Duration: c.AccessTokenValidityDuration},
		SessionCookieName:           c.SessionCookieName,
		SecureCookies:               c.SecureCookies,
		MaxCredentialLength:         c.MaxCredentialLength,
		CaseInsensitiveIdentifiers:  c.CaseInsensitiveIdentifiers,
		Argon2Time:                  c.Argon2Time,
		Argon2MemoryKiB:             c.Argon2MemoryKiB,
		Argon2Threads:               c.Argon2Threads,
		Argon2KeyLen:                c.Argon2KeyLen,
		Argon2SaltLen:               c.Argon2SaltLen,
		RedisAddr:                   c.RedisAddr,
		RedisPassword:               c.RedisPassword,
		RedisDB:                     c.RedisDB,
		LoginRateLimit:              c.LoginRateLimit,
		LoginRateWindow:             timex.Duration{Duration: c.LoginRateWindow},
		TrustProxyHeaders:           c.TrustProxyHeaders,
		LogLevel:                    c.LogLevel,
	}
}

func (j *JsonConfig) apply(c *Config) {
	c.EndpointAddrHTTP = j.EndpointAddrHTTP
	c.EndpointAddrGRPC = j.EndpointAddrGRPC
	c.DatabaseDriver = j.DatabaseDriver
	c.DatabaseDSN = j.DatabaseDSN
	c.SecretKey = j.SecretKey
	c.AccessTokenValidityDuration = j.AccessTokenValidityDuration.Duration
	c.SessionCookieName = j.SessionCookieName
	c.SecureCookies = j.SecureCookies
	c.MaxCredentialLength = j.MaxCredentialLength
	c.CaseInsensitiveIdentifiers = j.CaseInsensitiveIdentifiers
	c.Argon2Time = j.Argon2Time
	c.Argon2MemoryKiB = j.Argon2MemoryKiB
	c.Argon2Threads = j.Argon2Threads
	c.Argon2KeyLen = j.Argon2KeyLen
	c.Argon2SaltLen = j.Argon2SaltLen
	c.RedisAddr = j.RedisAddr
	c.RedisPassword = j.RedisPassword
	c.RedisDB = j.RedisDB
	c.LoginRateLimit = j.LoginRateLimit
	c.LoginRateWindow = j.LoginRateWindow.Duration
	c.TrustProxyHeaders = j.TrustProxyHeaders
	c.LogLevel = j.LogLevel
}

// parseJSON overlays the JSON file at path onto config. An empty path is a
// no-op.
func parseJSON(config *Config, path string) error {
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	c := toJSON(config)
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}
	c.apply(config)

	return nil
}
