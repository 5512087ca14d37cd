package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	ErrConfigFileNotFound    = errors.New("could not find config file in any config path")
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
)

// CurrentVersion is the expected version of the config file.
const CurrentVersion = 1

// Config represents the entire application configuration.
type Config struct {
	// Version of the config file.
	Version        int            `koanf:"version"`
	Debug          Debug          `koanf:"debug"`
	Server         Server         `koanf:"server"`
	Steam          Steam          `koanf:"steam"`
	Redis          Redis          `koanf:"redis"`
	Session        Session        `koanf:"session"`
	Auth           Auth           `koanf:"auth"`
	CircuitBreaker CircuitBreaker `koanf:"circuit_breaker"`
	Retry          Retry          `koanf:"retry"`
}

// Debug contains debug-related configuration.
type Debug struct {
	// Log level (debug, info, warn, error).
	LogLevel string `koanf:"log_level"`
	// Maximum log sessions to keep.
	MaxLogsToKeep int `koanf:"max_logs_to_keep"`
}

// Server contains inbound HTTP server configuration.
type Server struct {
	// Bind hostname.
	Host string `koanf:"host"`
	// Bind port.
	Port int `koanf:"port"`
	// Allowed CORS origins.
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// Steam contains Steam Web API configuration.
type Steam struct {
	// Web API key.
	APIKey string `koanf:"api_key"`
	// Web API base URL.
	APIURL string `koanf:"api_url"`
	// Storefront base URL for app details.
	StoreURL string `koanf:"store_url"`
	// Path to the app list snapshot file.
	AppListFile string `koanf:"app_list_file"`
	// Request timeout in milliseconds.
	RequestTimeout int `koanf:"request_timeout"`
}

// Redis contains Redis connection configuration.
type Redis struct {
	// Redis hostname.
	Host string `koanf:"host"`
	// Redis port.
	Port int `koanf:"port"`
	// Redis username.
	Username string `koanf:"username"`
	// Redis password.
	Password string `koanf:"password"`
}

// Session contains session cookie configuration.
type Session struct {
	// Name of the session cookie.
	CookieName string `koanf:"cookie_name"`
	// Domain the cookie is scoped to.
	CookieDomain string `koanf:"cookie_domain"`
	// Whether the cookie requires HTTPS.
	Secure bool `koanf:"secure"`
	// Session lifetime in hours.
	TTLHours int `koanf:"ttl_hours"`
}

// Auth contains Steam OpenID configuration.
type Auth struct {
	// OpenID realm, the root URL this service is reachable at.
	Realm string `koanf:"realm"`
	// Absolute URL of the OpenID return endpoint.
	ReturnURL string `koanf:"return_url"`
	// Frontend URL to redirect to after a completed login.
	RedirectURL string `koanf:"redirect_url"`
}

// CircuitBreaker contains circuit breaker configuration.
type CircuitBreaker struct {
	// Maximum number of requests allowed to pass through when the circuit is half-open.
	MaxRequests uint32 `koanf:"max_requests"`
	// The cyclic period of the closed state in milliseconds.
	Interval int `koanf:"interval"`
	// The period of the open state in milliseconds.
	Timeout int `koanf:"timeout"`
}

// Retry contains retry configuration.
type Retry struct {
	// Maximum retry attempts.
	MaxRetries uint64 `koanf:"max_retries"`
	// Initial retry delay in milliseconds.
	Delay int `koanf:"delay"`
	// Maximum retry delay in milliseconds.
	MaxDelay int `koanf:"max_delay"`
}

// LoadConfig loads the configuration from the first config.toml found in the
// search paths. Returns the config along with the used config directory.
func LoadConfig() (*Config, string, error) {
	k := koanf.New(".")

	// Get user's home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get home directory: %w", err)
	}

	// List search paths
	configPaths := []string{
		".steamdex",
		homeDir + "/.steamdex/config",
		"/etc/steamdex/config",
		"/app/config",
		"config",
		".",
	}

	var usedConfigPath string

	for _, path := range configPaths {
		configPath := path + "/config.toml"
		if err := k.Load(file.Provider(configPath), toml.Parser()); err == nil {
			usedConfigPath = path
			break
		}
	}

	if usedConfigPath == "" {
		return nil, "", fmt.Errorf("%w: config.toml", ErrConfigFileNotFound)
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, "", fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Check the config file version
	if config.Version == 0 {
		return nil, "", ErrConfigVersionMissing
	}

	if config.Version != CurrentVersion {
		return nil, "", fmt.Errorf("%w: expected version %d, got %d",
			ErrConfigVersionMismatch, CurrentVersion, config.Version)
	}

	return &config, usedConfigPath, nil
}
