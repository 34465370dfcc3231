/*
Package configs loads the settings of the terminal client and of the development backend.

Values are layered: built-in defaults, then an optional TOML file, then a .env file, then
process environment variables. Command-line flags applied by cmd take precedence over all of
them.
*/
package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	// DefaultPollInterval is the message re-fetch cadence for the selected conversation.
	DefaultPollInterval = 10 * time.Second

	// SessionStorageKey is the durable key holding the serialized session.
	SessionStorageKey = "chatapp"
)

// AppConfig contains all configuration parameters of the application.
type AppConfig struct {
	// General Settings
	Environment string `toml:"environment"`

	// Client Settings
	APIBaseURL     string        `toml:"api_base_url"`
	PresenceURL    string        `toml:"presence_url"`
	DataDir        string        `toml:"data_dir"`
	PollInterval   time.Duration `toml:"poll_interval"`
	RequestTimeout time.Duration `toml:"request_timeout"`
	RequestRate    float64       `toml:"request_rate"`

	// Development Backend Settings
	Port           int      `toml:"port"`
	JWTSecret      string   `toml:"jwt_secret"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// IsDevelopment reports whether the application runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	dataDir := ".whatsgram"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".whatsgram")
	}

	return &AppConfig{
		Environment:    "development",
		APIBaseURL:     "http://localhost:5000",
		DataDir:        dataDir,
		PollInterval:   DefaultPollInterval,
		RequestTimeout: 15 * time.Second,
		RequestRate:    5,
		Port:           5000,
		AllowedOrigins: []string{},
	}
}

// configFilePath returns the TOML file to read, if any.
func configFilePath() string {
	if path := os.Getenv("WHATSGRAM_CONFIG"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "whatsgram", "config.toml")
}

// LoadConfig reads the configuration from the TOML file, .env and environment variables.
func LoadConfig() (*AppConfig, error) {
	cfg := Default()

	if path := configFilePath(); path != "" {
		if err := LoadTOML(cfg, path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadTOML decodes the TOML file at path over cfg.
func LoadTOML(cfg *AppConfig, path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides cfg with environment variables that are set.
func applyEnv(cfg *AppConfig) error {
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		cfg.Environment = env
	}

	if apiURL := os.Getenv("API_BASE_URL"); apiURL != "" {
		cfg.APIBaseURL = apiURL
	}

	if presenceURL := os.Getenv("PRESENCE_URL"); presenceURL != "" {
		cfg.PresenceURL = presenceURL
	}

	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		cfg.DataDir = dataDir
	}

	if intervalStr := os.Getenv("POLL_INTERVAL"); intervalStr != "" {
		interval, err := time.ParseDuration(intervalStr)
		if err != nil {
			return fmt.Errorf("invalid POLL_INTERVAL environment variable: %w", err)
		}
		cfg.PollInterval = interval
	}

	if timeoutStr := os.Getenv("REQUEST_TIMEOUT"); timeoutStr != "" {
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return fmt.Errorf("invalid REQUEST_TIMEOUT environment variable: %w", err)
		}
		cfg.RequestTimeout = timeout
	}

	if rateStr := os.Getenv("REQUEST_RATE"); rateStr != "" {
		requestRate, err := strconv.ParseFloat(rateStr, 64)
		if err != nil {
			return fmt.Errorf("invalid REQUEST_RATE environment variable: %w", err)
		}
		cfg.RequestRate = requestRate
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid PORT environment variable: %w", err)
		}
		cfg.Port = port
	}

	if jwtSecret := os.Getenv("JWT_SECRET"); jwtSecret != "" {
		cfg.JWTSecret = jwtSecret
	}

	if originsStr := os.Getenv("ALLOWED_ORIGINS"); originsStr != "" {
		cfg.AllowedOrigins = splitList(originsStr)
	}

	return nil
}

// splitList splits a comma separated list, dropping blanks.
func splitList(s string) []string {
	out := []string{}
	for _, item := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Validate checks the loaded values and fills derived defaults.
func (c *AppConfig) Validate() error {
	base, err := url.Parse(c.APIBaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return fmt.Errorf("API_BASE_URL %q must be an absolute http(s) URL", c.APIBaseURL)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return fmt.Errorf("API_BASE_URL scheme %q is not supported", base.Scheme)
	}

	if c.PresenceURL == "" {
		c.PresenceURL = DerivePresenceURL(base)
	}

	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}

	if c.RequestRate <= 0 {
		return fmt.Errorf("request rate must be positive, got %v", c.RequestRate)
	}

	if c.Port < 1024 || c.Port > 65535 {
		return fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", c.Port, 1024, 65535)
	}

	if c.DataDir == "" {
		return errors.New("DATA_DIR must not be empty")
	}

	if c.JWTSecret == "" {
		if !c.IsDevelopment() {
			return fmt.Errorf("JWT_SECRET environment variable is required in %s environment for security", c.Environment)
		}
		c.JWTSecret = "your_default_insecure_secret_key_change_me"
	}

	return nil
}

// DerivePresenceURL maps the REST base URL to the presence websocket endpoint.
func DerivePresenceURL(base *url.URL) string {
	u := *base
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	u.RawQuery = ""
	return u.String()
}
