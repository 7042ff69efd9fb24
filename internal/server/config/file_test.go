package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("loads from json", func(t *testing.T) {
		path := writeTempJSON(t, dir, "cfg.json", map[string]any{
			"http_addr":              "www.example:8000",
			"grpc_addr":              "www.example:9000",
			"database_dsn":           "postgres://x",
			"secret_key":             "my_secret_key",
			"algorithm":              "HS384",
			"access_token_lifetime":  "1m",
			"refresh_token_lifetime": "3h",
			"bcrypt_cost":            11,
			"log_level":              "debug",
		})

		cfg := &Config{}
		parseFile(cfg, []string{"-config", path})

		assert.Equal(t, "www.example:8000", cfg.HTTPAddr)
		assert.Equal(t, "www.example:9000", cfg.GRPCAddr)
		assert.Equal(t, "postgres://x", cfg.DatabaseDSN)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, "HS384", cfg.Algorithm)
		assert.Equal(t, time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, 3*time.Hour, cfg.RefreshTokenValidityDuration)
		assert.Equal(t, 11, cfg.BcryptCost)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("loads from yaml and keeps unset fields", func(t *testing.T) {
		path := filepath.Join(dir, "cfg.yml")
		require.NoError(t, os.WriteFile(path, []byte("secret_key: yaml-key\naccess_token_lifetime: 15m\n"), 0o600))

		cfg := defaults()
		parseFile(cfg, []string{"-c", path})

		assert.Equal(t, "yaml-key", cfg.SecretKey)
		assert.Equal(t, 15*time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, 72*time.Hour, cfg.RefreshTokenValidityDuration)
		assert.Equal(t, "HS256", cfg.Algorithm)
	})

	t.Run("no file flag, no changes", func(t *testing.T) {
		cfg := defaults()
		parseFile(cfg, nil)
		assert.Equal(t, defaults(), cfg)
	})

	t.Run("invalid JSON panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		require.Panics(t, func() { parseFile(&Config{}, []string{"-config", bad}) })
	})

	t.Run("missing file panics", func(t *testing.T) {
		require.Panics(t, func() { parseFile(&Config{}, []string{"-c", filepath.Join(dir, "nope.yaml")}) })
	})
}
