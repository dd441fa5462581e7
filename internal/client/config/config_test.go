package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/spotlight/internal/client/upload"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) (string, bool) { return "", false }

func envOf(m map[string]string) lookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func writeJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spotlight.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func defaults() *Config {
	c := &Config{}
	c.LoadDefaults()
	return c
}

func TestLoadDefaults(t *testing.T) {
	c := defaults()
	assert.Equal(t, "http://127.0.0.1:8080/api/v1", c.APIBaseURL)
	assert.Equal(t, 30*time.Second, c.RequestTimeout)
	assert.Equal(t, "spotlight.db", c.DatabasePath)
	assert.Equal(t, 10, c.PageLimit)
	assert.Equal(t, 300*time.Millisecond, c.SearchDebounce)
	assert.Equal(t, 10.0, c.RateLimit)
	assert.Equal(t, 5, c.RateBurst)
	assert.Equal(t, upload.Config{}, c.Upload)
	assert.NoError(t, c.Validate())
}

func TestLoad_NoSources(t *testing.T) {
	cfg, err := load(nil, "", noEnv)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(defaults(), cfg))
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"SPOTLIGHT_API_URL=http://from-file/api/v1\n"+
			"SPOTLIGHT_PAGE_LIMIT=7\n"+
			"SPOTLIGHT_LOG_LEVEL=debug\n"), 0o600))

	jsonPath := writeJSON(t, map[string]any{
		"page_limit":      12,
		"request_timeout": "15s",
		"upload":          map[string]any{"provider": "cloudinary", "cloudinary_cloud_name": "demo", "cloudinary_upload_preset": "unsigned"},
	})

	env := envOf(map[string]string{
		"SPOTLIGHT_API_URL":         "http://from-env/api/v1",
		"SPOTLIGHT_SEARCH_DEBOUNCE": "150ms",
	})

	cfg, err := load([]string{"-c", jsonPath, "-l", "25", "search"}, envFile, env)
	require.NoError(t, err)

	want := defaults()
	want.APIBaseURL = "http://from-env/api/v1"
	want.LogLevel = "debug"
	want.SearchDebounce = 150 * time.Millisecond
	want.RequestTimeout = 15 * time.Second
	want.PageLimit = 25
	want.Upload = upload.Config{Provider: "cloudinary", CloudinaryCloudName: "demo", CloudinaryUploadPreset: "unsigned"}

	assert.Empty(t, cmp.Diff(want, cfg))
}

func TestParseEnv(t *testing.T) {
	cfg := defaults()
	err := parseEnv(cfg, envOf(map[string]string{
		"SPOTLIGHT_REQUEST_TIMEOUT": "5s",
		"SPOTLIGHT_DB_PATH":         "/var/lib/spotlight.db",
		"SPOTLIGHT_RATE_LIMIT":      "2.5",
		"SPOTLIGHT_RATE_BURST":      "3",
		"SPOTLIGHT_LOG_FORMAT":      "json",
		"SPOTLIGHT_UPLOAD_PROVIDER": "s3",
		"SPOTLIGHT_S3_BUCKET":       "avatars",
		"SPOTLIGHT_S3_REGION":       "eu-central-1",
		"SPOTLIGHT_S3_ENDPOINT":     "http://minio:9000",
		"SPOTLIGHT_S3_ACCESS_KEY":   "ak",
		"SPOTLIGHT_S3_SECRET_KEY":   "sk",
		"SPOTLIGHT_S3_PUBLIC_URL":   "https://cdn.example.com",
		"SPOTLIGHT_PAGE_LIMIT":      "",
	}))
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "/var/lib/spotlight.db", cfg.DatabasePath)
	assert.Equal(t, 2.5, cfg.RateLimit)
	assert.Equal(t, 3, cfg.RateBurst)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10, cfg.PageLimit, "empty values are ignored")
	assert.Equal(t, upload.Config{
		Provider: "s3", S3Bucket: "avatars", S3Region: "eu-central-1", S3Endpoint: "http://minio:9000",
		S3AccessKey: "ak", S3SecretKey: "sk", S3PublicURL: "https://cdn.example.com",
	}, cfg.Upload)
}

func TestParseEnv_InvalidValues(t *testing.T) {
	cfg := defaults()
	err := parseEnv(cfg, envOf(map[string]string{
		"SPOTLIGHT_PAGE_LIMIT":      "ten",
		"SPOTLIGHT_REQUEST_TIMEOUT": "soon",
		"SPOTLIGHT_RATE_LIMIT":      "fast",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SPOTLIGHT_PAGE_LIMIT")
	assert.Contains(t, err.Error(), "SPOTLIGHT_REQUEST_TIMEOUT")
	assert.Contains(t, err.Error(), "SPOTLIGHT_RATE_LIMIT")
	assert.Equal(t, 10, cfg.PageLimit)
}

func TestParseJSON(t *testing.T) {
	t.Run("overlays non-zero fields", func(t *testing.T) {
		path := writeJSON(t, map[string]any{
			"api_base_url":    "https://api.example.com/api/v1",
			"search_debounce": 1000000,
			"rate_burst":      9,
		})
		cfg := defaults()
		require.NoError(t, parseJSON(cfg, []string{"-config", path}))

		assert.Equal(t, "https://api.example.com/api/v1", cfg.APIBaseURL)
		assert.Equal(t, time.Millisecond, cfg.SearchDebounce)
		assert.Equal(t, 9, cfg.RateBurst)
		assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	})

	t.Run("no file flag", func(t *testing.T) {
		cfg := defaults()
		require.NoError(t, parseJSON(cfg, []string{"-a", "http://x"}))
		assert.Empty(t, cmp.Diff(defaults(), cfg))
	})

	t.Run("missing file", func(t *testing.T) {
		err := parseJSON(defaults(), []string{"-c", filepath.Join(t.TempDir(), "nope.json")})
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("invalid json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(path, []byte(`{ not json`), 0o600))
		require.Error(t, parseJSON(defaults(), []string{"-c", path}))
	})
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    func(*Config)
		wantErr bool
	}{
		{
			name: "all flags",
			args: []string{"-a", "http://h:1/api/v1", "-t", "3", "-d", "/tmp/s.db", "-l", "4"},
			want: func(c *Config) {
				c.APIBaseURL = "http://h:1/api/v1"
				c.RequestTimeout = 3 * time.Second
				c.DatabasePath = "/tmp/s.db"
				c.PageLimit = 4
			},
		},
		{
			name: "unset timeout keeps sub-second value",
			args: []string{"-l", "2"},
			want: func(c *Config) {
				c.RequestTimeout = 1500 * time.Millisecond
				c.PageLimit = 2
			},
		},
		{name: "bad int", args: []string{"-t", "abc"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			cfg.RequestTimeout = 1500 * time.Millisecond
			err := parseFlags(cfg, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			want := defaults()
			want.RequestTimeout = 1500 * time.Millisecond
			tt.want(want)
			assert.Empty(t, cmp.Diff(want, cfg))
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"relative url", func(c *Config) { c.APIBaseURL = "/api/v1" }},
		{"zero timeout", func(c *Config) { c.RequestTimeout = 0 }},
		{"zero page limit", func(c *Config) { c.PageLimit = 0 }},
		{"negative debounce", func(c *Config) { c.SearchDebounce = -time.Second }},
		{"zero burst", func(c *Config) { c.RateBurst = 0 }},
		{"no database", func(c *Config) { c.DatabasePath = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := defaults()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoad_InvalidFlagFails(t *testing.T) {
	_, err := load([]string{"-l", "0"}, "", noEnv)
	require.Error(t, err)
}
