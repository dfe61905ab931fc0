package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/nexuzy/artsync/internal/flagx"
	"github.com/nexuzy/artsync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "30s"
// or as integer nanoseconds. Absent keys keep the value already in Config.
type JsonConfig struct {
	LocalDBPath string `json:"local_db_path"`

	SyncInterval        timex.Duration `json:"sync_interval"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	ProbeAddr           string         `json:"probe_addr"`
	ProbeTimeout        timex.Duration `json:"probe_timeout"`

	MirrorAddr      string         `json:"mirror_addr"`
	MirrorAccessKey string         `json:"mirror_access_key"`
	MirrorSecretKey string         `json:"mirror_secret_key"`
	MirrorTimeout   timex.Duration `json:"mirror_timeout"`

	UploadBackend string `json:"upload_backend"`

	FTPHost          string         `json:"ftp_host"`
	FTPUser          string         `json:"ftp_user"`
	FTPPass          string         `json:"ftp_pass"`
	FTPRemoteDir     string         `json:"ftp_remote_dir"`
	FTPPublicURLBase string         `json:"ftp_public_url_base"`
	FTPTimeout       timex.Duration `json:"ftp_timeout"`
	FTPPassiveMode   *bool          `json:"ftp_passive_mode"`

	S3AccessKey     string `json:"s3_access_key"`
	S3SecretKey     string `json:"s3_secret_key"`
	S3Bucket        string `json:"s3_bucket"`
	S3Region        string `json:"s3_region"`
	S3Endpoint      string `json:"s3_endpoint"`
	S3KeyPrefix     string `json:"s3_key_prefix"`
	S3PublicURLBase string `json:"s3_public_url_base"`

	ImageCacheDir     string         `json:"image_cache_dir"`
	ImageFetchTimeout timex.Duration `json:"image_fetch_timeout"`

	AdminUsername string `json:"admin_username"`
	AdminPassword string `json:"admin_password"`
}

// parseJson overlays Config with values loaded from a JSON file. The file
// path comes from the -c/-config flags via flagx.JsonConfigFlags; when no
// path is given nothing is loaded. Read and unmarshal errors panic; the
// client cannot run on a half-applied config.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	overlayString(&cfg.LocalDBPath, jc.LocalDBPath)
	overlayDuration(&cfg.SyncInterval, jc.SyncInterval)
	overlayDuration(&cfg.OnlineCheckInterval, jc.OnlineCheckInterval)
	overlayString(&cfg.ProbeAddr, jc.ProbeAddr)
	overlayDuration(&cfg.ProbeTimeout, jc.ProbeTimeout)

	overlayString(&cfg.MirrorAddr, jc.MirrorAddr)
	overlayString(&cfg.MirrorAccessKey, jc.MirrorAccessKey)
	overlayString(&cfg.MirrorSecretKey, jc.MirrorSecretKey)
	overlayDuration(&cfg.MirrorTimeout, jc.MirrorTimeout)

	overlayString(&cfg.UploadBackend, jc.UploadBackend)

	overlayString(&cfg.FTPHost, jc.FTPHost)
	overlayString(&cfg.FTPUser, jc.FTPUser)
	overlayString(&cfg.FTPPass, jc.FTPPass)
	overlayString(&cfg.FTPRemoteDir, jc.FTPRemoteDir)
	overlayString(&cfg.FTPPublicURLBase, jc.FTPPublicURLBase)
	overlayDuration(&cfg.FTPTimeout, jc.FTPTimeout)
	if jc.FTPPassiveMode != nil {
		cfg.FTPPassiveMode = *jc.FTPPassiveMode
	}

	overlayString(&cfg.S3AccessKey, jc.S3AccessKey)
	overlayString(&cfg.S3SecretKey, jc.S3SecretKey)
	overlayString(&cfg.S3Bucket, jc.S3Bucket)
	overlayString(&cfg.S3Region, jc.S3Region)
	overlayString(&cfg.S3Endpoint, jc.S3Endpoint)
	overlayString(&cfg.S3KeyPrefix, jc.S3KeyPrefix)
	overlayString(&cfg.S3PublicURLBase, jc.S3PublicURLBase)

	overlayString(&cfg.ImageCacheDir, jc.ImageCacheDir)
	overlayDuration(&cfg.ImageFetchTimeout, jc.ImageFetchTimeout)

	overlayString(&cfg.AdminUsername, jc.AdminUsername)
	overlayString(&cfg.AdminPassword, jc.AdminPassword)
}

func overlayString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func overlayDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = time.Duration(v.Duration)
	}
}
