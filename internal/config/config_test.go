package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `proxy:
  listen: "127.0.0.1:9999"
  database: /tmp/known_hosts
policy:
  exclude:
    - "*.test"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", cfg.Proxy.Listen)
	assert.Equal(t, []string{"*.test"}, cfg.Policy.Exclude)

	db, err := cfg.DatabasePath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/known_hosts", db)
}

func TestLoadDefaultsListen(t *testing.T) {
	path := writeConfig(t, `policy:
  exclude:
    - "*.local"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, defaultListen, cfg.Proxy.Listen)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := writeConfig(t, "proxy: [not: a: mapping\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Run("valid listen", func(t *testing.T) {
		cfg := &Config{Proxy: ProxyConfig{Listen: "127.0.0.1:8808"}}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("missing port", func(t *testing.T) {
		cfg := &Config{Proxy: ProxyConfig{Listen: "not-an-address"}}
		assert.Error(t, cfg.Validate())
	})
}
