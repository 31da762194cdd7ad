package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/gophshop/internal/flagx"
	"github.com/dmitrijs2005/gophshop/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "3s" or as integer nanoseconds. Only keys present in the
// file are copied into the runtime Config.
type JsonConfig struct {
	Transport           *string         `json:"transport"`
	ServerEndpointAddr  *string         `json:"server_endpoint_addr"`
	ServerBaseURL       *string         `json:"server_base_url"`
	RequestTimeout      *timex.Duration `json:"request_timeout"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	StorageDriver       *string         `json:"storage_driver"`
	StoragePath         *string         `json:"storage_path"`
	StorageSecret       *string         `json:"storage_secret"`
	OTPResendCooldown   *timex.Duration `json:"otp_resend_cooldown"`
	LogFormat           *string         `json:"log_format"`
	LogLevel            *string         `json:"log_level"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c or -config. Without the flag nothing happens. Read or decode errors
// panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JSONConfigFile()
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

	setString(&cfg.Transport, jc.Transport)
	setString(&cfg.ServerEndpointAddr, jc.ServerEndpointAddr)
	setString(&cfg.ServerBaseURL, jc.ServerBaseURL)
	setDuration(&cfg.RequestTimeout, jc.RequestTimeout)
	setDuration(&cfg.OnlineCheckInterval, jc.OnlineCheckInterval)
	setString(&cfg.StorageDriver, jc.StorageDriver)
	setString(&cfg.StoragePath, jc.StoragePath)
	setString(&cfg.StorageSecret, jc.StorageSecret)
	setDuration(&cfg.OTPResendCooldown, jc.OTPResendCooldown)
	setString(&cfg.LogFormat, jc.LogFormat)
	setString(&cfg.LogLevel, jc.LogLevel)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
