package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:50051", cfg.ServerEndpointAddr)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
}

func TestLoad_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"server_endpoint_addr": "json:1",
		"request_timeout": "1500ms",
		"database_dsn": "ignored by the client"
	}`), 0o600))

	cfg, err := Load([]string{"-c", path})
	require.NoError(t, err)
	assert.Equal(t, "json:1", cfg.ServerEndpointAddr)
	assert.Equal(t, 1500*time.Millisecond, cfg.RequestTimeout)

	t.Setenv("CREDCTL_ENDPOINT", "env:2")
	cfg, err = Load([]string{"-c", path})
	require.NoError(t, err)
	assert.Equal(t, "env:2", cfg.ServerEndpointAddr)

	cfg, err = Load([]string{"-c", path, "-e", "flag:3", "-T", "9", "-d", "server-only"})
	require.NoError(t, err)
	assert.Equal(t, "flag:3", cfg.ServerEndpointAddr)
	assert.Equal(t, 9*time.Second, cfg.RequestTimeout)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load([]string{"-c", filepath.Join(t.TempDir(), "nope.json")})
	assert.ErrorContains(t, err, "error reading config file")

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{`), 0o600))
	_, err = Load([]string{"-c", bad})
	assert.ErrorContains(t, err, "error parsing config file")

	_, err = Load([]string{"-T", "soon"})
	assert.Error(t, err)
}
