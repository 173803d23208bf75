package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/dmitrijs2005/fieldsales/internal/clock"
)

var ErrMissingAPIBaseURL = errors.New("api_base_url is required")

// Config holds runtime settings for the field-sales CLI.
//
// Fields:
//   - APIBaseURL: base URL of the sales REST API, e.g. "https://api.example.com".
//   - StoreDriver / StoreDSN: local key/value store ("sqlite" file or "postgres" DSN).
//   - BusinessTimezone: IANA zone that defines "today" for the day cycle.
//   - RequestTimeout: per-request timeout of the API client.
//   - VersionManifestURL: http(s):// or s3://bucket/key of the version manifest;
//     empty disables the version gate.
//   - S3*: object storage settings for s3:// manifests.
//   - SessionPassphrase: when set, the stored session is encrypted at rest.
//   - Latitude / Longitude / GPSEnabled: location reported with day events.
type Config struct {
	APIBaseURL          string
	StoreDriver         string
	StoreDSN            string
	BusinessTimezone    string
	RequestTimeout      time.Duration
	VersionManifestURL  string
	VersionCheckTimeout time.Duration
	Platform            string
	S3Region            string
	S3BaseEndpoint      string
	S3AccessKey         string
	S3SecretKey         string
	SessionPassphrase   string
	Latitude            float64
	Longitude           float64
	GPSEnabled          bool
	LogLevel            string
	LogFormat           string
}

// LoadDefaults populates c with development defaults. APIBaseURL has no
// default and must come from the config file or flags.
func (c *Config) LoadDefaults() {
	c.StoreDriver = "sqlite"
	c.StoreDSN = "fieldsales.db"
	c.BusinessTimezone = clock.DefaultZone
	c.RequestTimeout = 30 * time.Second
	c.VersionCheckTimeout = 10 * time.Second
	c.Platform = "android"
	c.S3Region = "us-east-1"
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// Validate reports the first setting that makes the config unusable.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return ErrMissingAPIBaseURL
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api_base_url %q", c.APIBaseURL)
	}
	switch c.StoreDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("invalid store_driver %q", c.StoreDriver)
	}
	switch c.Platform {
	case "android", "ios":
	default:
		return fmt.Errorf("invalid platform %q", c.Platform)
	}
	if c.RequestTimeout <= 0 || c.VersionCheckTimeout <= 0 {
		return errors.New("timeouts must be positive")
	}
	if _, err := clock.New(c.BusinessTimezone); err != nil {
		return err
	}
	return nil
}

// LoadConfig constructs a Config from defaults, then the JSON file named by
// -c/--config (if any), then the remaining flags in args. Later sources take
// precedence over earlier ones. args excludes the program name.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
