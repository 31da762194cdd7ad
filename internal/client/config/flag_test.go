package config

import (
	"flag"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	// Test cases
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "Test1 OK", args: []string{"cmd", "-a", "127.0.0.1:9090", "-i", "10"}, expectPanic: false,
			expected: &Config{ServerEndpointAddr: "127.0.0.1:9090", OnlineCheckInterval: 10 * time.Second}},
		{name: "Test2 incorrect check interval", args: []string{"cmd", "-a", "127.0.0.1:9090", "-i", "abc"}, expectPanic: true, expected: &Config{}},
		{name: "Test3 http transport", args: []string{"cmd", "-t", "http", "-u", "https://shop.example", "-timeout", "5s", "-i", "1"}, expectPanic: false,
			expected: &Config{Transport: "http", ServerBaseURL: "https://shop.example", RequestTimeout: 5 * time.Second, OnlineCheckInterval: time.Second}},
		{name: "Test4 storage and logging", args: []string{"cmd", "-d", "bbolt", "-p", "/tmp/x.bolt", "-cooldown", "30s", "-log-format", "zerolog", "-log-level", "debug", "-i", "2"}, expectPanic: false,
			expected: &Config{StorageDriver: "bbolt", StoragePath: "/tmp/x.bolt", OTPResendCooldown: 30 * time.Second, LogFormat: "zerolog", LogLevel: "debug", OnlineCheckInterval: 2 * time.Second}},
		{name: "Test5 unknown flags are filtered out", args: []string{"cmd", "-c", "cfg.json", "-env", ".env", "-a", "h:1", "-i", "3"}, expectPanic: false,
			expected: &Config{ServerEndpointAddr: "h:1", OnlineCheckInterval: 3 * time.Second}},
		{name: "Test6 bad duration", args: []string{"cmd", "-timeout", "soon"}, expectPanic: true, expected: &Config{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)

			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {

				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
