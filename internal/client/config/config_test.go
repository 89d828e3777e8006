package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, BackendDrive, c.Backend)
	assert.Equal(t, "snaplog.db", c.DatabasePath)
	assert.Equal(t, "Snaplog", c.RootFolderName)
	assert.Equal(t, "Inventory", c.InventoryFolderName)
	assert.Equal(t, "Entries", c.EntriesFolderName)
	assert.Equal(t, 3, c.MaxRetries)
	assert.Equal(t, time.Second, c.RetryDelay)
	assert.Equal(t, 30*time.Second, c.SyncInterval)
	assert.Equal(t, 3*time.Second, c.OnlineCheckInterval)
	assert.Equal(t, 3, c.VerifyRetries)
	assert.Equal(t, time.Second, c.VerifyDelay)
	assert.Equal(t, "info", c.LogLevel)
	assert.Empty(t, c.MetricsAddr)
	require.NoError(t, c.Validate())
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"snaplog"}

	cfg := LoadConfig()

	require.NotNil(t, cfg)
	assert.Equal(t, BackendDrive, cfg.Backend)
	assert.Equal(t, 30*time.Second, cfg.SyncInterval)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "unknown backend", mutate: func(c *Config) { c.Backend = "ftp" }},
		{name: "negative retries", mutate: func(c *Config) { c.MaxRetries = -1 }},
		{name: "zero sync interval", mutate: func(c *Config) { c.SyncInterval = 0 }},
		{name: "empty folder name", mutate: func(c *Config) { c.EntriesFolderName = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			c.LoadDefaults()
			tt.mutate(&c)
			require.Error(t, c.Validate())
		})
	}
}
