package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/rbac-console/internal/credentials"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3000/api", cfg.APIBaseURL)
	assert.Equal(t, credentials.BackendFile, cfg.CredentialBackend)
	assert.Equal(t, 15*time.Second, cfg.RefreshTimeout)
	assert.Equal(t, 5, cfg.WorkerConcurrency)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("API_BASE_URL", "https://rbac.example.com/api")
	t.Setenv("CREDENTIAL_BACKEND", "redis")
	t.Setenv("REFRESH_TIMEOUT", "3s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "https://rbac.example.com/api", cfg.APIBaseURL)
	assert.Equal(t, credentials.BackendRedis, cfg.CredentialBackend)
	assert.Equal(t, 3*time.Second, cfg.RefreshTimeout)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown backend": {"CREDENTIAL_BACKEND": "keychain"},
		"relative url":    {"API_BASE_URL": "/api"},
		"ftp url":         {"API_BASE_URL": "ftp://host/api"},
		"no workers":      {"WORKER_CONCURRENCY": "0"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestUnknownBackendWrapsSentinel(t *testing.T) {
	t.Setenv("CREDENTIAL_BACKEND", "keychain")

	_, err := LoadConfig()

	assert.ErrorIs(t, err, credentials.ErrUnknownBackend)
}
