package config

import (
	"time"

	"github.com/dmitrijs2005/credgate/internal/envx"
	"github.com/dmitrijs2005/credgate/internal/flagx"
)

// Config holds runtime settings for the credctl client side.
type Config struct {
	ServerEndpointAddr string
	RequestTimeout     time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.RequestTimeout = 5 * time.Second
}

// Load constructs a Config, applies defaults, then overlays the JSON file,
// the environment and flags found in args. Later sources take precedence.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg, flagx.ConfigPath(args)); err != nil {
		return nil, err
	}

	cfg.ServerEndpointAddr = envx.GetString("CREDCTL_ENDPOINT", cfg.ServerEndpointAddr)
	cfg.RequestTimeout = envx.GetDuration("CREDCTL_TIMEOUT", cfg.RequestTimeout)

	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
