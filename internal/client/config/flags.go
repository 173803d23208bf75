package config

import (
	"fmt"

	"github.com/dmitrijs2005/fieldsales/internal/flagx"
	"github.com/spf13/pflag"
)

var knownFlags = []string{
	"-a", "--api",
	"--store-driver",
	"-d", "--store-dsn",
	"--timezone",
	"--request-timeout",
	"--version-url",
	"--version-timeout",
	"--platform",
	"--s3-region", "--s3-endpoint", "--s3-access-key", "--s3-secret-key",
	"--passphrase",
	"--lat", "--lon", "--gps",
	"--log-level", "--log-format",
}

// parseFlags overlays cfg with command-line flags. Arguments it does not know
// (including -c/--config) are filtered out with flagx.FilterArgs first.
//
// Durations use Go syntax ("30s", "1m"). Booleans take the --gps=false form.
func parseFlags(cfg *Config, args []string) error {
	fs := pflag.NewFlagSet("fieldsales", pflag.ContinueOnError)

	fs.StringVarP(&cfg.APIBaseURL, "api", "a", cfg.APIBaseURL, "base URL of the sales API")
	fs.StringVar(&cfg.StoreDriver, "store-driver", cfg.StoreDriver, "local store driver: sqlite or postgres")
	fs.StringVarP(&cfg.StoreDSN, "store-dsn", "d", cfg.StoreDSN, "local store DSN or SQLite file")
	fs.StringVar(&cfg.BusinessTimezone, "timezone", cfg.BusinessTimezone, "business time zone")
	fs.DurationVar(&cfg.RequestTimeout, "request-timeout", cfg.RequestTimeout, "API request timeout")
	fs.StringVar(&cfg.VersionManifestURL, "version-url", cfg.VersionManifestURL, "version manifest URL (http(s) or s3)")
	fs.DurationVar(&cfg.VersionCheckTimeout, "version-timeout", cfg.VersionCheckTimeout, "version check timeout")
	fs.StringVar(&cfg.Platform, "platform", cfg.Platform, "manifest platform: android or ios")
	fs.StringVar(&cfg.S3Region, "s3-region", cfg.S3Region, "S3 region")
	fs.StringVar(&cfg.S3BaseEndpoint, "s3-endpoint", cfg.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&cfg.S3AccessKey, "s3-access-key", cfg.S3AccessKey, "S3 access key")
	fs.StringVar(&cfg.S3SecretKey, "s3-secret-key", cfg.S3SecretKey, "S3 secret key")
	fs.StringVar(&cfg.SessionPassphrase, "passphrase", cfg.SessionPassphrase, "encrypt the stored session with this passphrase")
	fs.Float64Var(&cfg.Latitude, "lat", cfg.Latitude, "reported latitude")
	fs.Float64Var(&cfg.Longitude, "lon", cfg.Longitude, "reported longitude")
	fs.BoolVar(&cfg.GPSEnabled, "gps", cfg.GPSEnabled, "report location as enabled")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: text or json")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	return nil
}
