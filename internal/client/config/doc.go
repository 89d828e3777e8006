// Package config loads runtime configuration for the Snaplog CLI.
//
// # Sources and precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags, which override earlier values.
//
// # JSON schema
//
// Durations use timex.Duration, so they may be strings like "30s" or integer
// nanoseconds. Keys that are absent keep their previous value:
//
//	{
//	  "backend": "drive",
//	  "database_path": "snaplog.db",
//	  "root_folder_name": "Snaplog",
//	  "max_retries": 3,
//	  "retry_delay": "1s",
//	  "sync_interval": "30s",
//	  "online_check_interval": "3s",
//	  "oauth_client_id": "...",
//	  "s3_bucket": "snaplog",
//	  "metrics_addr": ":9102",
//	  "log_level": "debug"
//	}
//
// The package does not read environment variables.
package config
