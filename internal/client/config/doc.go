// Package config loads runtime configuration for the credctl client side:
// where the gRPC endpoint lives and how long a call may take.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config. The file may be the
//     server's own config file; keys that belong to the server are ignored.
//  3. CREDCTL_* environment variables.
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-e string   address:port of the credgate gRPC endpoint
//	-T int      per-call timeout (seconds)
//
// # JSON schema
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "request_timeout": "5s"
//	}
package config
