package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/nexuzy/artsync/internal/flagx"
	"github.com/nexuzy/artsync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Absent keys
// keep the value already in Config.
type JsonConfig struct {
	EndpointAddr          string         `json:"endpoint_addr"`
	DatabaseDSN           string         `json:"database_dsn"`
	AccessKey             string         `json:"access_key"`
	AccessSecret          string         `json:"access_secret"`
	SecretKey             string         `json:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	ShutdownTimeout       timex.Duration `json:"shutdown_timeout"`
}

// parseJson overlays Config with values loaded from a JSON file resolved
// via the -c/-config flags. Read and unmarshal errors panic.
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

	if jc.EndpointAddr != "" {
		cfg.EndpointAddr = jc.EndpointAddr
	}
	if jc.DatabaseDSN != "" {
		cfg.DatabaseDSN = jc.DatabaseDSN
	}
	if jc.AccessKey != "" {
		cfg.AccessKey = jc.AccessKey
	}
	if jc.AccessSecret != "" {
		cfg.AccessSecret = jc.AccessSecret
	}
	if jc.SecretKey != "" {
		cfg.SecretKey = jc.SecretKey
	}
	if jc.TokenValidityDuration.Duration != 0 {
		cfg.TokenValidityDuration = time.Duration(jc.TokenValidityDuration.Duration)
	}
	if jc.ShutdownTimeout.Duration != 0 {
		cfg.ShutdownTimeout = time.Duration(jc.ShutdownTimeout.Duration)
	}
}
