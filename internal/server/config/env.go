package config

import "github.com/dmitrijs2005/credgate/internal/envx"

// parseEnv overlays CREDGATE_* environment variables onto config.
func parseEnv(config *Config) {
	config.EndpointAddrHTTP = envx.GetString("CREDGATE_HTTP_ADDR", config.EndpointAddrHTTP)
	config.EndpointAddrGRPC = envx.GetString("CREDGATE_GRPC_ADDR", config.EndpointAddrGRPC)
	config.DatabaseDriver = envx.GetString("CREDGATE_DB_DRIVER", config.DatabaseDriver)
	config.DatabaseDSN = envx.GetString("CREDGATE_DB_DSN", config.DatabaseDSN)
	config.SecretKey = envx.GetString("CREDGATE_SECRET_KEY", config.SecretKey)
	config.AccessTokenValidityDuration = envx.GetDuration("CREDGATE_SESSION_TTL", config.AccessTokenValidityDuration)
	config.SessionCookieName = envx.GetString("CREDGATE_SESSION_COOKIE", config.SessionCookieName)
	config.SecureCookies = envx.GetBool("CREDGATE_SECURE_COOKIES", config.SecureCookies)
	config.MaxCredentialLength = envx.GetInt("CREDGATE_MAX_CREDENTIAL_LENGTH", config.MaxCredentialLength)
	config.CaseInsensitiveIdentifiers = envx.GetBool("CREDGATE_CASE_INSENSITIVE", config.CaseInsensitiveIdentifiers)
	config.Argon2Time = uint32(envx.GetUint("CREDGATE_ARGON2_TIME", uint64(config.Argon2Time), 32))
	config.Argon2MemoryKiB = uint32(envx.GetUint("CREDGATE_ARGON2_MEMORY_KIB", uint64(config.Argon2MemoryKiB), 32))
	config.Argon2Threads = uint8(envx.GetUint("CREDGATE_ARGON2_THREADS", uint64(config.Argon2Threads), 8))
	config.RedisAddr = envx.GetString("CREDGATE_REDIS_ADDR", config.RedisAddr)
	config.RedisPassword = envx.GetString("CREDGATE_REDIS_PASSWORD", config.RedisPassword)
	config.RedisDB = envx.GetInt("CREDGATE_REDIS_DB", config.RedisDB)
	config.LoginRateLimit = envx.GetInt("CREDGATE_LOGIN_RATE_LIMIT", config.LoginRateLimit)
	config.LoginRateWindow = envx.GetDuration("CREDGATE_LOGIN_RATE_WINDOW", config.LoginRateWindow)
	config.TrustProxyHeaders = envx.GetBool("CREDGATE_TRUST_PROXY_HEADERS", config.TrustProxyHeaders)
	config.LogLevel = envx.GetString("CREDGATE_LOG_LEVEL", config.LogLevel)
}
