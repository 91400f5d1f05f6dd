package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DBPath      string `long:"db-path" env:"DB_PATH" default:"./podpuppy.db" description:"Path to the SQLite state database"`
	DownloadDir string `long:"download-dir" env:"DOWNLOAD_DIR" default:"./downloads" description:"Base directory for downloaded episodes"`

	// Application configuration
	Port               string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	WorkerCount        int    `long:"worker-count" env:"WORKER_COUNT" default:"3" description:"Number of concurrent download workers"`
	RefreshInterval    int    `long:"refresh-interval" env:"REFRESH_INTERVAL" default:"1800" description:"Automatic refresh interval in seconds"`
	SubscriptionsFile  string `long:"subscriptions" env:"SUBSCRIPTIONS_FILE" description:"Optional YAML file with feed subscriptions to import on startup"`
	DownloadOnlyLatest bool   `long:"download-only-latest" env:"DOWNLOAD_ONLY_LATEST" description:"For dynamically added feeds, skip all but the most recent episode"`
	APIAccessKey       string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for mutating endpoints (optional)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"PodPuppy/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:             raw.DBPath,
		DownloadDir:        raw.DownloadDir,
		Port:               raw.Port,
		WorkerCount:        raw.WorkerCount,
		RefreshInterval:    raw.RefreshInterval,
		SubscriptionsFile:  raw.SubscriptionsFile,
		DownloadOnlyLatest: raw.DownloadOnlyLatest,
		APIAccessKey:       raw.APIAccessKey,
		UserAgent:          raw.UserAgent,
		Timezone:           raw.Timezone,
		Debug:              raw.Debug,
		Version:            GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// SetForTest replaces the global configuration. Test helper only.
func SetForTest(c *Cfg) {
	globalCfg = c
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
