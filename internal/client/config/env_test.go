package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parseEnv(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}

	t.Run("variables overlay config", func(t *testing.T) {
		t.Setenv(EnvServerURL, "https://env.example")
		t.Setenv(EnvRequestTimeout, "7s")
		t.Setenv(EnvStorageSecret, "hunter2")

		cfg := &Config{ServerBaseURL: "default", RequestTimeout: time.Second}
		parseEnv(cfg)

		assert.Equal(t, "https://env.example", cfg.ServerBaseURL)
		assert.Equal(t, 7*time.Second, cfg.RequestTimeout)
		assert.Equal(t, "hunter2", cfg.StorageSecret)
	})

	t.Run("empty variable keeps value", func(t *testing.T) {
		t.Setenv(EnvLogLevel, "")

		cfg := &Config{LogLevel: "warn"}
		parseEnv(cfg)

		assert.Equal(t, "warn", cfg.LogLevel)
	})

	t.Run("bad duration panics", func(t *testing.T) {
		t.Setenv(EnvOTPResendCooldown, "a minute")

		require.Panics(t, func() { parseEnv(&Config{}) })
	})
}

func Test_parseEnv_DotenvFile(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	// godotenv sets process variables directly; register them with t.Setenv
	// first so they are restored afterwards.
	t.Setenv(EnvStorageDriver, "")
	t.Setenv(EnvOnlineCheckInterval, "")
	require.NoError(t, os.Unsetenv(EnvStorageDriver))
	require.NoError(t, os.Unsetenv(EnvOnlineCheckInterval))

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("GOPHSHOP_STORAGE_DRIVER=memory\nGOPHSHOP_ONLINE_CHECK_INTERVAL=9s\n"), 0o600))
	os.Args = []string{"testbin", "-env", path}

	cfg := &Config{}
	parseEnv(cfg)

	assert.Equal(t, "memory", cfg.StorageDriver)
	assert.Equal(t, 9*time.Second, cfg.OnlineCheckInterval)
}

func Test_parseEnv_MissingDotenvPanics(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin", "-env", filepath.Join(t.TempDir(), "nope.env")}

	require.Panics(t, func() { parseEnv(&Config{}) })
}
