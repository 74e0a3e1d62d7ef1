package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.AppAddr)
	require.Equal(t, "postgres", cfg.StoreBackend)
	require.False(t, cfg.IsProduction())
}

func TestLoadConfigRejectsUnknownBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "dynamo")
	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigAcceptsEveryBackend(t *testing.T) {
	for _, backend := range []string{"postgres", "redis", "memory"} {
		t.Setenv("STORE_BACKEND", backend)
		cfg, err := LoadConfig()
		require.NoError(t, err)
		require.Equal(t, backend, cfg.StoreBackend)
	}
}

func TestTestModeFlag(t *testing.T) {
	t.Setenv("LABABIL_TEST_MODE", "1")
	RefreshTestMode()
	require.True(t, InTestMode())

	t.Setenv("LABABIL_TEST_MODE", "")
	RefreshTestMode()
	require.False(t, InTestMode())
}
