package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalizeEnvKey_UsesExistingCamelCaseKeys(t *testing.T) {
	existing := map[string]any{
		"storage": map[string]any{
			"bucketUrl":       "",
			"createIfMissing": true,
			"postgres": map[string]any{
				"sslMode": "disable",
			},
		},
		"http": map[string]any{
			"statusCodes": "legacy",
		},
		"accounts": map[string]any{
			"exposeDigests": true,
		},
	}

	tests := []struct {
		envKey string
		want   string
	}{
		{envKey: "STORAGE_BUCKETURL", want: "storage.bucketUrl"},
		{envKey: "STORAGE_CREATEIFMISSING", want: "storage.createIfMissing"},
		{envKey: "STORAGE_POSTGRES_SSLMODE", want: "storage.postgres.sslMode"},
		{envKey: "HTTP_STATUSCODES", want: "http.statusCodes"},
		{envKey: "ACCOUNTS_EXPOSEDIGESTS", want: "accounts.exposeDigests"},
		{envKey: "NEW_FEATURE_FLAG", want: "new.feature.flag"},
	}

	for _, tt := range tests {
		t.Run(tt.envKey, func(t *testing.T) {
			if got := canonicalizeEnvKey(tt.envKey, existing); got != tt.want {
				t.Fatalf("canonicalizeEnvKey(%q) = %q, want %q", tt.envKey, got, tt.want)
			}
		})
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.yaml"), []byte(body), 0o600))

	return dir
}

func TestLoadWithEnv_FileAndEnvOverride(t *testing.T) {
	dir := writeConfig(t, `
http:
  port: 8080
storage:
  driver: file
  path: /var/lib/credstore/accounts.json
auth:
  hasher: sha3
`)
	t.Setenv("CREDSTORE_STORAGE_PATH", "/tmp/override.json")
	t.Setenv("CREDSTORE_HTTP_PORT", "9090")

	cfg, err := LoadWithEnv[Config]("test", dir)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	require.NotNil(t, cfg.Storage)
	assert.Equal(t, "/tmp/override.json", cfg.Storage.Path)
	assert.Equal(t, StorageDriverFile, cfg.Storage.Driver)
}

func TestLoadWithEnv_MissingFile(t *testing.T) {
	_, err := LoadWithEnv[Config]("does-not-exist", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()

	assert.Equal(t, defaultPort, cfg.HTTP.Port)
	assert.Equal(t, defaultMaxRequestBodySize, cfg.HTTP.MaxRequestBodySize)
	assert.Equal(t, StatusCodesLegacy, cfg.HTTP.StatusCodes)
	assert.Equal(t, StorageDriverFile, cfg.Storage.Driver)
	assert.Equal(t, defaultStoragePath, cfg.Storage.Path)
	assert.Equal(t, HasherSHA3, cfg.Auth.Hasher)
	assert.Equal(t, defaultBcryptCost, cfg.Auth.BcryptCost)
	assert.Equal(t, 5, cfg.Validation.MinLength)
	assert.True(t, cfg.Accounts.ExposeDigests)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{
			name:   "unknown driver",
			mutate: func(c *Config) { c.Storage.Driver = "redis" },
			errMsg: "unknown storage driver",
		},
		{
			name:   "blob without bucket",
			mutate: func(c *Config) { c.Storage.Driver = StorageDriverBlob },
			errMsg: "bucketUrl",
		},
		{
			name:   "unknown status code mapping",
			mutate: func(c *Config) { c.HTTP.StatusCodes = "teapot" },
			errMsg: "http.statusCodes",
		},
		{
			name:   "unknown hasher",
			mutate: func(c *Config) { c.Auth.Hasher = "md5" },
			errMsg: "unknown password hasher",
		},
		{
			name:   "negative min length",
			mutate: func(c *Config) { c.Validation.MinLength = -1 },
			errMsg: "minLength",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.ApplyDefaults()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
