// Package config loads runtime configuration for the field-sales CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or --config. Comments and trailing
//     commas are allowed.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a, --api string            base URL of the sales API (required)
//	    --store-driver string   sqlite | postgres
//	-d, --store-dsn string      SQLite file or PostgreSQL DSN
//	    --timezone string       business time zone (Asia/Colombo)
//	    --request-timeout dur   API request timeout (30s)
//	    --version-url string    version manifest, http(s):// or s3://bucket/key
//	    --version-timeout dur   version check timeout (10s)
//	    --platform string       android | ios
//	    --s3-region, --s3-endpoint, --s3-access-key, --s3-secret-key
//	    --passphrase string     encrypt the stored session
//	    --lat, --lon float      reported location
//	    --gps                   report location as enabled
//	    --log-level, --log-format
//
// # JSON schema
//
// Durations go through timex.Duration, so either "30s" or integer
// nanoseconds work:
//
//	{
//	  // sales backend
//	  "api_base_url": "https://api.example.com",
//	  "store_driver": "sqlite",
//	  "store_dsn": "fieldsales.db",
//	  "request_timeout": "30s",
//	  "version_manifest_url": "s3://releases/version.json",
//	  "s3_base_endpoint": "http://127.0.0.1:9000",
//	  "gps_enabled": true,
//	}
//
// The package does not read environment variables.
package config
