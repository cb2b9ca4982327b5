package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/credgate/internal/timex"
)

type JsonConfig struct {
	ServerEndpointAddr string         `json:"server_endpoint_addr"`
	RequestTimeout     timex.Duration `json:"request_timeout"`
}

func parseJSON(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	c := &JsonConfig{
		ServerEndpointAddr: cfg.ServerEndpointAddr,
		RequestTimeout:     timex.Duration{Duration: cfg.RequestTimeout},
	}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}

	cfg.ServerEndpointAddr = c.ServerEndpointAddr
	cfg.RequestTimeout = c.RequestTimeout.Duration
	return nil
}
