package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/snaplog/internal/flagx"
)

// parseFlags overlays cfg with command-line flags:
//
//	-b string   remote backend (drive|s3)
//	-d string   path of the local cache database
//	-r int      retries after a transient remote failure
//	-s int      sync-status refresh interval (seconds)
//	-i int      online check interval (seconds)
//	-m string   address for the /metrics endpoint
//	-l string   log level
//
// os.Args is filtered first so flags owned by other components are ignored.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-b", "-d", "-r", "-s", "-i", "-m", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.Backend, "b", cfg.Backend, "remote backend (drive|s3)")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "local cache database path")
	fs.IntVar(&cfg.MaxRetries, "r", cfg.MaxRetries, "retries after a transient remote failure")
	flagx.SecondsVar(fs, &cfg.SyncInterval, "s", "sync status refresh interval (in seconds)")
	flagx.SecondsVar(fs, &cfg.OnlineCheckInterval, "i", "online check interval (in seconds)")
	fs.StringVar(&cfg.MetricsAddr, "m", cfg.MetricsAddr, "metrics listen address, empty disables")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug|info|warn|error)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
