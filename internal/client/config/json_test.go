package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name, data string) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	dir := t.TempDir()
	full := writeTempJSON(t, dir, "full.json", `{
		// backend
		"api_base_url": "https://api.example.com",
		"store_driver": "postgres",
		"store_dsn": "postgres://u:p@db/fs",
		"business_timezone": "UTC",
		"request_timeout": "15s",
		"version_manifest_url": "s3://releases/version.json",
		"version_check_timeout": 2000000000,
		"platform": "ios",
		"s3_region": "eu-west-1",
		"s3_base_endpoint": "http://127.0.0.1:9000",
		"s3_access_key": "minio",
		"s3_secret_key": "secret",
		"session_passphrase": "pw",
		"latitude": 6.9271,
		"longitude": 79.8612,
		"gps_enabled": true,
		"log_level": "debug",
		"log_format": "json", /* trailing comma next */
	}`)

	t.Run("loads every field", func(t *testing.T) {
		cfg := &Config{}
		require.NoError(t, parseJson(cfg, []string{"--config", full}))

		assert.Equal(t, Config{
			APIBaseURL:          "https://api.example.com",
			StoreDriver:         "postgres",
			StoreDSN:            "postgres://u:p@db/fs",
			BusinessTimezone:    "UTC",
			RequestTimeout:      15 * time.Second,
			VersionManifestURL:  "s3://releases/version.json",
			VersionCheckTimeout: 2 * time.Second,
			Platform:            "ios",
			S3Region:            "eu-west-1",
			S3BaseEndpoint:      "http://127.0.0.1:9000",
			S3AccessKey:         "minio",
			S3SecretKey:         "secret",
			SessionPassphrase:   "pw",
			Latitude:            6.9271,
			Longitude:           79.8612,
			GPSEnabled:          true,
			LogLevel:            "debug",
			LogFormat:           "json",
		}, *cfg)
	})

	t.Run("partial file keeps other values", func(t *testing.T) {
		partial := writeTempJSON(t, dir, "partial.json", `{"store_dsn": "other.db"}`)

		cfg := &Config{APIBaseURL: "http://keep", RequestTimeout: time.Minute}
		require.NoError(t, parseJson(cfg, []string{"-c", partial}))

		assert.Equal(t, "other.db", cfg.StoreDSN)
		assert.Equal(t, "http://keep", cfg.APIBaseURL)
		assert.Equal(t, time.Minute, cfg.RequestTimeout)
	})

	t.Run("no flag, no changes", func(t *testing.T) {
		cfg := &Config{APIBaseURL: "defaults:1234", RequestTimeout: 42 * time.Second}
		require.NoError(t, parseJson(cfg, []string{"-a", "http://ignored"}))

		assert.Equal(t, "defaults:1234", cfg.APIBaseURL)
		assert.Equal(t, 42*time.Second, cfg.RequestTimeout)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		bad := writeTempJSON(t, dir, "bad.json", `{ this is not valid json`)

		err := parseJson(&Config{}, []string{"--config=" + bad})
		assert.ErrorContains(t, err, "parse config")
	})

	t.Run("invalid duration", func(t *testing.T) {
		bad := writeTempJSON(t, dir, "dur.json", `{"request_timeout": "forever"}`)

		err := parseJson(&Config{}, []string{"-c", bad})
		assert.ErrorContains(t, err, "invalid duration")
	})
}
