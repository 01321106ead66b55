package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/nonexistent/chat.yaml")
	t.Setenv("APP_ENV", "production")

	cfg := Load()
	require.Equal(t, ":8080", cfg.ServerAddr)
	require.Equal(t, "memory", cfg.DirectoryBackend)
	require.Equal(t, 15*time.Second, cfg.ReadTimeout)
	require.Equal(t, 10000, cfg.MaxWSConnections)
	require.Equal(t, 10, cfg.DBMaxConnections())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/nonexistent/chat.yaml")
	t.Setenv("APP_ENV", "production")
	t.Setenv("SERVER_ADDR", ":9999")
	t.Setenv("DIRECTORY_BACKEND", "redis")
	t.Setenv("MAX_WS_CONNECTIONS", "50")
	t.Setenv("READ_TIMEOUT", "not-a-number")

	cfg := Load()
	require.Equal(t, ":9999", cfg.ServerAddr)
	require.Equal(t, "redis", cfg.DirectoryBackend)
	require.Equal(t, 50, cfg.MaxWSConnections)
	// Unparseable values fall back to the default.
	require.Equal(t, 15*time.Second, cfg.ReadTimeout)
}
