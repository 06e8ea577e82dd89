package config

import (
	"testing"

	"github.com/qrforge/qrforge/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServerConfig(t *testing.T) {
	dir, cleanup := testutil.TempDir(t)
	defer cleanup()

	content := `
listen: ":9090"
api_secret: "s3cret"
min_contrast_ratio: 7
max_upload_size: "2MB"
cors:
  allowed_origins: ["https://app.example.com"]
rate_limit:
  requests_per_second: 5
  burst: 10
render:
  box_size: 8
  border: 0
  logo_scale: 0.2
  max_basic_size: 1024
admin:
  listen: "127.0.0.1:9100"
`
	configPath := testutil.TempFile(t, dir, "server.yaml", content)

	cfg, err := LoadServerConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, "s3cret", cfg.APISecret)
	assert.Equal(t, 7.0, cfg.MinContrastRatio)
	assert.Equal(t, "2MB", cfg.MaxUploadSize)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 5.0, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 10, cfg.RateLimit.Burst)
	assert.Equal(t, 8, cfg.Render.BoxSize)
	assert.Equal(t, 0, cfg.Render.Border)
	assert.Equal(t, 0.2, cfg.Render.LogoScale)
	assert.Equal(t, 1024, cfg.Render.MaxBasicSize)
	assert.Equal(t, "127.0.0.1:9100", cfg.Admin.Listen)
	assert.NoError(t, cfg.Validate())
}

func TestLoadServerConfig_Defaults(t *testing.T) {
	dir, cleanup := testutil.TempDir(t)
	defer cleanup()

	configPath := testutil.TempFile(t, dir, "server.yaml", "api_secret: \"secret\"\n")

	cfg, err := LoadServerConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Listen)
	assert.Equal(t, 4.5, cfg.MinContrastRatio)
	assert.Equal(t, "5MB", cfg.MaxUploadSize)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 10, cfg.Render.BoxSize)
	assert.Equal(t, 4, cfg.Render.Border)
	assert.Equal(t, 0.25, cfg.Render.LogoScale)
	assert.Empty(t, cfg.Admin.Listen)
	assert.NoError(t, cfg.Validate())
}

func TestLoadServerConfig_FileNotFound(t *testing.T) {
	_, err := LoadServerConfig("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func TestLoadServerConfig_InvalidYAML(t *testing.T) {
	dir, cleanup := testutil.TempDir(t)
	defer cleanup()

	configPath := testutil.TempFile(t, dir, "server.yaml", "listen: [invalid yaml\n")

	_, err := LoadServerConfig(configPath)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvPort:             "8123",
		EnvAPISecret:        "from-env",
		EnvMinContrastRatio: " 7.0 ",
		EnvMaxUploadSize:    "1MB",
		EnvAdminListen:      ":9200",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(lookup))

	assert.Equal(t, ":8123", cfg.Listen)
	assert.Equal(t, "from-env", cfg.APISecret)
	assert.Equal(t, 7.0, cfg.MinContrastRatio)
	assert.Equal(t, "1MB", cfg.MaxUploadSize)
	assert.Equal(t, ":9200", cfg.Admin.Listen)

	// an explicit listen address wins over PORT
	env[EnvListen] = "127.0.0.1:7000"
	require.NoError(t, cfg.ApplyEnv(lookup))
	assert.Equal(t, "127.0.0.1:7000", cfg.Listen)
}

func TestApplyEnv_BadRatio(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(func(k string) (string, bool) {
		if k == EnvMinContrastRatio {
			return "strict", true
		}
		return "", false
	})
	assert.Error(t, err)
}

func TestMaxUploadBytes(t *testing.T) {
	cfg := Default()
	n, err := cfg.MaxUploadBytes()
	require.NoError(t, err)
	assert.Equal(t, int64(5*1024*1024), n)
}

func TestServerConfig_Validate(t *testing.T) {
	valid := func() *ServerConfig {
		cfg := Default()
		cfg.APISecret = "secret"
		return cfg
	}

	tests := []struct {
		name    string
		modify  func(*ServerConfig)
		wantErr bool
	}{
		{name: "valid config", modify: func(c *ServerConfig) {}},
		{name: "rate limit disabled", modify: func(c *ServerConfig) { c.RateLimit = RateLimitConfig{} }},
		{name: "missing listen", modify: func(c *ServerConfig) { c.Listen = "" }, wantErr: true},
		{name: "missing secret", modify: func(c *ServerConfig) { c.APISecret = "" }, wantErr: true},
		{name: "ratio below one", modify: func(c *ServerConfig) { c.MinContrastRatio = 0.5 }, wantErr: true},
		{name: "ratio above max", modify: func(c *ServerConfig) { c.MinContrastRatio = 22 }, wantErr: true},
		{name: "bad upload size", modify: func(c *ServerConfig) { c.MaxUploadSize = "lots" }, wantErr: true},
		{name: "zero upload size", modify: func(c *ServerConfig) { c.MaxUploadSize = "0" }, wantErr: true},
		{name: "negative rate", modify: func(c *ServerConfig) { c.RateLimit.RequestsPerSecond = -1 }, wantErr: true},
		{name: "rate without burst", modify: func(c *ServerConfig) { c.RateLimit.Burst = 0 }, wantErr: true},
		{name: "zero box size", modify: func(c *ServerConfig) { c.Render.BoxSize = 0 }, wantErr: true},
		{name: "border too wide", modify: func(c *ServerConfig) { c.Render.Border = 50 }, wantErr: true},
		{name: "logo too big", modify: func(c *ServerConfig) { c.Render.LogoScale = 0.5 }, wantErr: true},
		{name: "zero basic size", modify: func(c *ServerConfig) { c.Render.MaxBasicSize = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
