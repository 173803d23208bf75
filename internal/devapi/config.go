package devapi

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/fieldsales/internal/flagx"
	"github.com/spf13/pflag"
)

// Config holds settings of the development backend.
//
// Fields:
//   - Addr: listen address.
//   - SecretKey: HMAC secret for HS256 access tokens. Development only.
//   - AccessTTL / RefreshTTL: token lifetimes reported to clients.
//   - LatestVersion / Mandatory / UpdateURL: served at /version.json.
type Config struct {
	Addr          string
	SecretKey     string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	LatestVersion string
	Mandatory     bool
	UpdateURL     string
	LogLevel      string
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.Addr = ":8080"
	c.SecretKey = "secretKey"
	c.AccessTTL = 15 * time.Minute
	c.RefreshTTL = 24 * time.Hour
	c.LatestVersion = "1.0.7"
	c.UpdateURL = "https://example.com/fieldsales/latest"
	c.LogLevel = "info"
}

// LoadConfig applies defaults, then the flags found in args.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	fs := pflag.NewFlagSet("devapi", pflag.ContinueOnError)
	fs.StringVarP(&cfg.Addr, "addr", "a", cfg.Addr, "listen address")
	fs.StringVarP(&cfg.SecretKey, "secret", "s", cfg.SecretKey, "JWT secret key")
	fs.DurationVar(&cfg.AccessTTL, "access-ttl", cfg.AccessTTL, "access token lifetime")
	fs.DurationVar(&cfg.RefreshTTL, "refresh-ttl", cfg.RefreshTTL, "refresh token lifetime")
	fs.StringVar(&cfg.LatestVersion, "latest-version", cfg.LatestVersion, "version announced by the manifest")
	fs.BoolVar(&cfg.Mandatory, "mandatory", cfg.Mandatory, "mark the announced version mandatory")
	fs.StringVar(&cfg.UpdateURL, "update-url", cfg.UpdateURL, "download link in the manifest")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")

	args = flagx.FilterArgs(args, []string{
		"-a", "--addr", "-s", "--secret", "--access-ttl", "--refresh-ttl",
		"--latest-version", "--mandatory", "--update-url", "--log-level",
	})
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}
	return cfg, nil
}
