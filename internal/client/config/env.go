package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/dmitrijs2005/gophshop/internal/flagx"
	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvTransport           = "GOPHSHOP_TRANSPORT"
	EnvServerAddr          = "GOPHSHOP_SERVER_ADDR"
	EnvServerURL           = "GOPHSHOP_SERVER_URL"
	EnvRequestTimeout      = "GOPHSHOP_REQUEST_TIMEOUT"
	EnvOnlineCheckInterval = "GOPHSHOP_ONLINE_CHECK_INTERVAL"
	EnvStorageDriver       = "GOPHSHOP_STORAGE_DRIVER"
	EnvStoragePath         = "GOPHSHOP_STORAGE_PATH"
	EnvStorageSecret       = "GOPHSHOP_STORAGE_SECRET"
	EnvOTPResendCooldown   = "GOPHSHOP_OTP_RESEND_COOLDOWN"
	EnvLogFormat           = "GOPHSHOP_LOG_FORMAT"
	EnvLogLevel            = "GOPHSHOP_LOG_LEVEL"
)

const defaultEnvFile = ".env"

// loadEnvFile seeds the process environment from the dotenv file named by
// -env, or from ./.env when it exists. Variables already set win.
func loadEnvFile() {
	path := flagx.EnvFile()
	if path == "" {
		if _, err := os.Stat(defaultEnvFile); errors.Is(err, fs.ErrNotExist) {
			return
		}
		path = defaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		panic(err)
	}
}

// parseEnv overlays Config with GOPHSHOP_* variables. Durations use
// time.ParseDuration syntax ("15s").
func parseEnv(cfg *Config) {
	loadEnvFile()

	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) {
		v, ok := os.LookupEnv(name)
		if !ok || v == "" {
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		*dst = d
	}

	str(EnvTransport, &cfg.Transport)
	str(EnvServerAddr, &cfg.ServerEndpointAddr)
	str(EnvServerURL, &cfg.ServerBaseURL)
	dur(EnvRequestTimeout, &cfg.RequestTimeout)
	dur(EnvOnlineCheckInterval, &cfg.OnlineCheckInterval)
	str(EnvStorageDriver, &cfg.StorageDriver)
	str(EnvStoragePath, &cfg.StoragePath)
	str(EnvStorageSecret, &cfg.StorageSecret)
	dur(EnvOTPResendCooldown, &cfg.OTPResendCooldown)
	str(EnvLogFormat, &cfg.LogFormat)
	str(EnvLogLevel, &cfg.LogLevel)
}
