package config

import (
	"fmt"
	"time"
)

const (
	BackendDrive = "drive"
	BackendS3    = "s3"
)

// Config holds runtime settings for the Snaplog CLI.
type Config struct {
	Backend      string
	DatabasePath string

	RootFolderName      string
	InventoryFolderName string
	EntriesFolderName   string

	MaxRetries int
	RetryDelay time.Duration

	SyncInterval        time.Duration
	OnlineCheckInterval time.Duration

	VerifyRetries int
	VerifyDelay   time.Duration

	OAuthClientID     string
	OAuthClientSecret string
	DriveEndpoint     string

	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
	S3AccessKey    string
	S3SecretKey    string

	MetricsAddr string
	LogLevel    string
}

// LoadDefaults populates c with the built-in defaults.
func (c *Config) LoadDefaults() {
	c.Backend = BackendDrive
	c.DatabasePath = "snaplog.db"

	c.RootFolderName = "Snaplog"
	c.InventoryFolderName = "Inventory"
	c.EntriesFolderName = "Entries"

	c.MaxRetries = 3
	c.RetryDelay = time.Second

	c.SyncInterval = 30 * time.Second
	c.OnlineCheckInterval = 3 * time.Second

	c.VerifyRetries = 3
	c.VerifyDelay = time.Second

	c.S3Bucket = "snaplog"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"

	c.LogLevel = "info"
}

// Validate reports settings the application cannot run with.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendDrive, BackendS3:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must not be negative, got %d", c.MaxRetries)
	}
	if c.SyncInterval <= 0 || c.OnlineCheckInterval <= 0 {
		return fmt.Errorf("intervals must be positive")
	}
	if c.RootFolderName == "" || c.InventoryFolderName == "" || c.EntriesFolderName == "" {
		return fmt.Errorf("folder names must not be empty")
	}
	return nil
}

// LoadConfig applies defaults, then the optional JSON file, then flags.
// Later sources take precedence.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
