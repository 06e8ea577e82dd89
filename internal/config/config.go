// Package config handles configuration loading and validation for qrforge.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/qrforge/qrforge/internal/contrast"
	"github.com/qrforge/qrforge/internal/render"
	"github.com/qrforge/qrforge/pkg/bytesize"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file values.
const (
	EnvListen           = "QRFORGE_LISTEN"
	EnvPort             = "PORT"
	EnvAPISecret        = "QRFORGE_API_SECRET"
	EnvMinContrastRatio = "QRFORGE_MIN_CONTRAST_RATIO"
	EnvMaxUploadSize    = "QRFORGE_MAX_UPLOAD_SIZE"
	EnvAdminListen      = "QRFORGE_ADMIN_LISTEN"
)

const (
	defaultListen        = ":8000"
	defaultMaxUploadSize = "5MB"
	defaultMaxBasicSize  = 2048
)

// ServerConfig holds configuration for the QR code server.
type ServerConfig struct {
	Listen           string          `yaml:"listen"`
	APISecret        string          `yaml:"api_secret"`
	MinContrastRatio float64         `yaml:"min_contrast_ratio"`
	MaxUploadSize    string          `yaml:"max_upload_size"`
	CORS             CORSConfig      `yaml:"cors"`
	RateLimit        RateLimitConfig `yaml:"rate_limit"`
	Render           RenderConfig    `yaml:"render"`
	Admin            AdminConfig     `yaml:"admin"`
}

// CORSConfig holds cross-origin settings for browser clients.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// RateLimitConfig holds the global request rate limit. Zero disables it.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// RenderConfig holds QR geometry settings.
type RenderConfig struct {
	BoxSize      int     `yaml:"box_size"`
	Border       int     `yaml:"border"`
	LogoScale    float64 `yaml:"logo_scale"`
	MaxBasicSize int     `yaml:"max_basic_size"`
}

// AdminConfig holds the optional ops listener serving health and metrics.
type AdminConfig struct {
	Listen string `yaml:"listen"`
}

// Default returns a config with every default applied and no secret.
func Default() *ServerConfig {
	return &ServerConfig{
		Listen:           defaultListen,
		MinContrastRatio: contrast.DefaultMinRatio,
		MaxUploadSize:    defaultMaxUploadSize,
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
		},
		Render: RenderConfig{
			BoxSize:      render.DefaultBoxSize,
			Border:       render.DefaultBorder,
			LogoScale:    render.DefaultLogoScale,
			MaxBasicSize: defaultMaxBasicSize,
		},
	}
}

// LoadServerConfig loads server configuration from a YAML file. Keys missing
// from the file keep their Default values.
func LoadServerConfig(path string) (*ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS.AllowedOrigins = []string{"*"}
	}

	return cfg, nil
}

// ApplyEnv overrides settings from the environment. lookup is usually
// os.LookupEnv.
func (c *ServerConfig) ApplyEnv(lookup func(string) (string, bool)) error {
	if port, ok := lookup(EnvPort); ok && port != "" {
		c.Listen = ":" + port
	}
	if v, ok := lookup(EnvListen); ok && v != "" {
		c.Listen = v
	}
	if v, ok := lookup(EnvAPISecret); ok && v != "" {
		c.APISecret = v
	}
	if v, ok := lookup(EnvMinContrastRatio); ok && v != "" {
		ratio, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvMinContrastRatio, err)
		}
		c.MinContrastRatio = ratio
	}
	if v, ok := lookup(EnvMaxUploadSize); ok && v != "" {
		c.MaxUploadSize = v
	}
	if v, ok := lookup(EnvAdminListen); ok {
		c.Admin.Listen = v
	}
	return nil
}

// MaxUploadBytes returns MaxUploadSize in bytes.
func (c *ServerConfig) MaxUploadBytes() (int64, error) {
	n, err := bytesize.Parse(c.MaxUploadSize)
	if err != nil {
		return 0, fmt.Errorf("invalid max_upload_size: %w", err)
	}
	return n, nil
}

// Validate checks if the server configuration is valid.
func (c *ServerConfig) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.APISecret == "" {
		return fmt.Errorf("api_secret is required")
	}
	if _, err := contrast.NewValidator(c.MinContrastRatio); err != nil {
		return fmt.Errorf("invalid min_contrast_ratio: %w", err)
	}
	n, err := c.MaxUploadBytes()
	if err != nil {
		return err
	}
	if n <= 0 {
		return fmt.Errorf("max_upload_size must be positive")
	}
	if c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("rate_limit values cannot be negative")
	}
	if c.RateLimit.RequestsPerSecond > 0 && c.RateLimit.Burst < 1 {
		return fmt.Errorf("rate_limit.burst must be at least 1 when a rate is set")
	}
	if c.Render.BoxSize < 1 || c.Render.BoxSize > render.MaxBoxSize {
		return fmt.Errorf("render.box_size must be between 1 and %d", render.MaxBoxSize)
	}
	if c.Render.Border < 0 || c.Render.Border > render.MaxBorder {
		return fmt.Errorf("render.border must be between 0 and %d", render.MaxBorder)
	}
	if c.Render.LogoScale <= 0 || c.Render.LogoScale > render.MaxLogoScale {
		return fmt.Errorf("render.logo_scale must be in (0, %g]", render.MaxLogoScale)
	}
	if c.Render.MaxBasicSize < 1 {
		return fmt.Errorf("render.max_basic_size must be positive")
	}
	return nil
}
