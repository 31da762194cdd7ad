package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/gophshop/internal/flagx"
)

var knownFlags = []string{"-a", "-u", "-t", "-i", "-timeout", "-d", "-p", "-cooldown", "-log-format", "-log-level"}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string           host:port of the gRPC endpoint
//	-u string           base URL of the REST API
//	-t string           transport: grpc or http
//	-i int              online check interval (seconds)
//	-timeout duration   per-request timeout
//	-d string           storage driver: sqlite, bbolt or memory
//	-p string           storage path
//	-cooldown duration  OTP resend cooldown
//	-log-format string  text, json or zerolog
//	-log-level string   debug, info, warn or error
//
// The storage secret is deliberately not a flag; it would show up in the
// process list.
//
// os.Args is filtered with flagx.FilterArgs so flags meant for other
// components do not trip the parser.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	fs.StringVar(&cfg.ServerBaseURL, "u", cfg.ServerBaseURL, "base url of the REST api")
	fs.StringVar(&cfg.Transport, "t", cfg.Transport, "transport (grpc|http)")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.DurationVar(&cfg.RequestTimeout, "timeout", cfg.RequestTimeout, "per-request timeout")
	fs.StringVar(&cfg.StorageDriver, "d", cfg.StorageDriver, "storage driver (sqlite|bbolt|memory)")
	fs.StringVar(&cfg.StoragePath, "p", cfg.StoragePath, "storage path")
	fs.DurationVar(&cfg.OTPResendCooldown, "cooldown", cfg.OTPResendCooldown, "otp resend cooldown")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format (text|json|zerolog)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
}
