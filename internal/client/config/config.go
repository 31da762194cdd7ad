package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophshop/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophshop/internal/logging"
)

// Supported transports.
const (
	TransportGRPC = "grpc"
	TransportHTTP = "http"
)

// Config holds runtime settings for the gophshop CLI.
//
// Units: all intervals are time.Duration values.
type Config struct {
	// Transport selects the remote API flavour: TransportGRPC or TransportHTTP.
	Transport string
	// ServerEndpointAddr is the host:port of the gRPC endpoint.
	ServerEndpointAddr string
	// ServerBaseURL is the root of the REST API.
	ServerBaseURL string
	// RequestTimeout bounds each remote call; zero means no bound.
	RequestTimeout      time.Duration
	OnlineCheckInterval time.Duration

	// StorageDriver is one of metadata.DriverSQLite, DriverBolt, DriverMemory.
	StorageDriver string
	StoragePath   string
	// StorageSecret seals stored credentials. Empty stores them in clear.
	StorageSecret string

	// OTPResendCooldown is the wait before a code may be requested again.
	OTPResendCooldown time.Duration

	LogFormat string
	LogLevel  string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.Transport = TransportGRPC
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.ServerBaseURL = "http://127.0.0.1:8080"
	c.RequestTimeout = 15 * time.Second
	c.OnlineCheckInterval = 3 * time.Second
	c.StorageDriver = metadata.DriverSQLite
	c.StoragePath = "data/gophshop.db"
	c.OTPResendCooldown = 60 * time.Second
	c.LogFormat = logging.FormatText
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays the
// environment (optionally seeded from a dotenv file), a JSON file and
// command-line flags. Later sources take precedence over earlier ones.
// Malformed input panics, as with the flag package's PanicOnError.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportGRPC:
		if c.ServerEndpointAddr == "" {
			return fmt.Errorf("grpc transport needs a server address")
		}
	case TransportHTTP:
		if c.ServerBaseURL == "" {
			return fmt.Errorf("http transport needs a base url")
		}
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}

	switch c.StorageDriver {
	case metadata.DriverSQLite, metadata.DriverBolt:
		if c.StoragePath == "" {
			return fmt.Errorf("storage driver %q needs a path", c.StorageDriver)
		}
	case metadata.DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}

	if c.RequestTimeout < 0 || c.OnlineCheckInterval <= 0 || c.OTPResendCooldown < 0 {
		return fmt.Errorf("intervals must not be negative")
	}
	return nil
}
