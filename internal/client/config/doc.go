// Package config loads runtime configuration for the gophshop CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. GOPHSHOP_* environment variables, optionally seeded from a dotenv file
//     given with -env (or ./.env when present).
//  3. Optional JSON file selected with -c or -config.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// # JSON schema
//
// Intervals use timex.Duration, so values can be either strings like "3s"
// or integer nanoseconds:
//
//	{
//	  "transport": "http",
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "server_base_url": "https://shop.example",
//	  "request_timeout": "15s",
//	  "online_check_interval": "3s",
//	  "storage_driver": "sqlite",
//	  "storage_path": "data/gophshop.db",
//	  "otp_resend_cooldown": "60s",
//	  "log_format": "zerolog",
//	  "log_level": "debug"
//	}
package config
