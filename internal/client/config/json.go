package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/fieldsales/internal/flagx"
	"github.com/dmitrijs2005/fieldsales/internal/timex"
	"github.com/tidwall/jsonc"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields tell "absent" from "zero", so a file only overrides what it names.
type JsonConfig struct {
	APIBaseURL          *string         `json:"api_base_url"`
	StoreDriver         *string         `json:"store_driver"`
	StoreDSN            *string         `json:"store_dsn"`
	BusinessTimezone    *string         `json:"business_timezone"`
	RequestTimeout      *timex.Duration `json:"request_timeout"`
	VersionManifestURL  *string         `json:"version_manifest_url"`
	VersionCheckTimeout *timex.Duration `json:"version_check_timeout"`
	Platform            *string         `json:"platform"`
	S3Region            *string         `json:"s3_region"`
	S3BaseEndpoint      *string         `json:"s3_base_endpoint"`
	S3AccessKey         *string         `json:"s3_access_key"`
	S3SecretKey         *string         `json:"s3_secret_key"`
	SessionPassphrase   *string         `json:"session_passphrase"`
	Latitude            *float64        `json:"latitude"`
	Longitude           *float64        `json:"longitude"`
	GPSEnabled          *bool           `json:"gps_enabled"`
	LogLevel            *string         `json:"log_level"`
	LogFormat           *string         `json:"log_format"`
}

// parseJson overlays cfg with the file given by -c/--config. The file may
// contain comments and trailing commas. No flag means no change.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(jsonc.ToJSON(data), &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	jc.apply(cfg)
	return nil
}

func (jc *JsonConfig) apply(cfg *Config) {
	setString(&cfg.APIBaseURL, jc.APIBaseURL)
	setString(&cfg.StoreDriver, jc.StoreDriver)
	setString(&cfg.StoreDSN, jc.StoreDSN)
	setString(&cfg.BusinessTimezone, jc.BusinessTimezone)
	setString(&cfg.VersionManifestURL, jc.VersionManifestURL)
	setString(&cfg.Platform, jc.Platform)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	setString(&cfg.S3AccessKey, jc.S3AccessKey)
	setString(&cfg.S3SecretKey, jc.S3SecretKey)
	setString(&cfg.SessionPassphrase, jc.SessionPassphrase)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)

	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.VersionCheckTimeout != nil {
		cfg.VersionCheckTimeout = jc.VersionCheckTimeout.Duration
	}
	if jc.Latitude != nil {
		cfg.Latitude = *jc.Latitude
	}
	if jc.Longitude != nil {
		cfg.Longitude = *jc.Longitude
	}
	if jc.GPSEnabled != nil {
		cfg.GPSEnabled = *jc.GPSEnabled
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
