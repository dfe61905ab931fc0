// Package config loads the client's runtime settings. Sources are applied
// in order: built-in defaults, then a JSON file (-c/-config), then
// command-line flags. Later sources take precedence.
package config

import "time"

// Config holds runtime settings for the artsync client.
type Config struct {
	// LocalDBPath is the SQLite file holding the authoritative local store.
	LocalDBPath string

	// SyncInterval is the reconciliation cadence of the sync engine.
	SyncInterval time.Duration

	// OnlineCheckInterval is how often the connectivity monitor probes.
	OnlineCheckInterval time.Duration
	// ProbeAddr is the TCP endpoint dialed to decide online/offline.
	ProbeAddr    string
	ProbeTimeout time.Duration

	// Mirror is the remote document store the local data is replicated to.
	MirrorAddr      string
	MirrorAccessKey string
	MirrorSecretKey string
	MirrorTimeout   time.Duration

	// UploadBackend selects where article images go: "ftp" or "s3".
	UploadBackend string

	FTPHost          string
	FTPUser          string
	FTPPass          string
	FTPRemoteDir     string
	FTPPublicURLBase string
	FTPTimeout       time.Duration
	FTPPassiveMode   bool

	S3AccessKey     string
	S3SecretKey     string
	S3Bucket        string
	S3Region        string
	S3Endpoint      string
	S3KeyPrefix     string
	S3PublicURLBase string

	ImageCacheDir     string
	ImageFetchTimeout time.Duration

	// AdminUsername/AdminPassword seed the first admin account on an empty
	// store. An existing account with that username is never overwritten.
	AdminUsername string
	AdminPassword string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.LocalDBPath = "artsync.db"
	c.SyncInterval = 30 * time.Second
	c.OnlineCheckInterval = 30 * time.Second
	c.ProbeAddr = "8.8.8.8:53"
	c.ProbeTimeout = 3 * time.Second
	c.MirrorAddr = "http://127.0.0.1:8080"
	c.MirrorTimeout = 10 * time.Second
	c.UploadBackend = "ftp"
	c.FTPRemoteDir = "images"
	c.FTPTimeout = 15 * time.Second
	c.FTPPassiveMode = true
	c.ImageCacheDir = "image_cache"
	c.ImageFetchTimeout = 15 * time.Second
	c.AdminUsername = "admin"
	c.AdminPassword = "admin1"
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present) and command-line flags (if present).
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
