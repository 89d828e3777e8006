package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/snaplog/internal/flagx"
	"github.com/dmitrijs2005/snaplog/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Pointer fields tell
// "absent" apart from zero values so a partial file only overrides what it
// names.
type JsonConfig struct {
	Backend      *string `json:"backend"`
	DatabasePath *string `json:"database_path"`

	RootFolderName      *string `json:"root_folder_name"`
	InventoryFolderName *string `json:"inventory_folder_name"`
	EntriesFolderName   *string `json:"entries_folder_name"`

	MaxRetries *int            `json:"max_retries"`
	RetryDelay *timex.Duration `json:"retry_delay"`

	SyncInterval        *timex.Duration `json:"sync_interval"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`

	VerifyRetries *int            `json:"verify_retries"`
	VerifyDelay   *timex.Duration `json:"verify_delay"`

	OAuthClientID     *string `json:"oauth_client_id"`
	OAuthClientSecret *string `json:"oauth_client_secret"`
	DriveEndpoint     *string `json:"drive_endpoint"`

	S3Bucket       *string `json:"s3_bucket"`
	S3Region       *string `json:"s3_region"`
	S3BaseEndpoint *string `json:"s3_base_endpoint"`
	S3AccessKey    *string `json:"s3_access_key"`
	S3SecretKey    *string `json:"s3_secret_key"`

	MetricsAddr *string `json:"metrics_addr"`
	LogLevel    *string `json:"log_level"`
}

// parseJson overlays cfg with the file named by -c/-config. It does nothing
// when no file is given and panics when the file cannot be read or parsed.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	jc.apply(cfg)
}

func (jc *JsonConfig) apply(cfg *Config) {
	setString(&cfg.Backend, jc.Backend)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.RootFolderName, jc.RootFolderName)
	setString(&cfg.InventoryFolderName, jc.InventoryFolderName)
	setString(&cfg.EntriesFolderName, jc.EntriesFolderName)
	setString(&cfg.OAuthClientID, jc.OAuthClientID)
	setString(&cfg.OAuthClientSecret, jc.OAuthClientSecret)
	setString(&cfg.DriveEndpoint, jc.DriveEndpoint)
	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	setString(&cfg.S3AccessKey, jc.S3AccessKey)
	setString(&cfg.S3SecretKey, jc.S3SecretKey)
	setString(&cfg.MetricsAddr, jc.MetricsAddr)
	setString(&cfg.LogLevel, jc.LogLevel)

	if jc.MaxRetries != nil {
		cfg.MaxRetries = *jc.MaxRetries
	}
	if jc.VerifyRetries != nil {
		cfg.VerifyRetries = *jc.VerifyRetries
	}
	if jc.RetryDelay != nil {
		cfg.RetryDelay = jc.RetryDelay.Duration
	}
	if jc.SyncInterval != nil {
		cfg.SyncInterval = jc.SyncInterval.Duration
	}
	if jc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.VerifyDelay != nil {
		cfg.VerifyDelay = jc.VerifyDelay.Duration
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
