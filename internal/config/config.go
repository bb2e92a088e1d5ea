// Package config handles loading and managing pokesag configuration.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config represents the pokesag configuration.
type Config struct {
	Data   DataConfig   `toml:"data"`
	Server ServerConfig `toml:"server"`
	Client ClientConfig `toml:"client"`

	// Computed paths (not from config file)
	HomeDir    string `toml:"-"`
	ConfigPath string `toml:"-"`
}

// DataConfig holds data storage configuration.
type DataConfig struct {
	DataDir      string `toml:"data_dir"`
	DatabasePath string `toml:"database_path"`
}

// ServerConfig holds HTTP API server configuration.
type ServerConfig struct {
	APIPort        int      `toml:"api_port"`         // HTTP server port (default: 8000)
	BindAddr       string   `toml:"bind_addr"`        // Listen address (default: 127.0.0.1)
	HoverCodes     string   `toml:"hover_codes"`      // Tooltip dictionary file served at /hoverCodes.json
	CORSOrigins    []string `toml:"cors_origins"`     // Allowed browser origins; empty disables CORS
	CORSMaxAge     int      `toml:"cors_max_age"`     // Preflight cache seconds
	RateLimitRPS   float64  `toml:"rate_limit_rps"`   // Per-client requests per second
	RateLimitBurst int      `toml:"rate_limit_burst"` // Per-client burst
}

// ClientConfig holds the viewer's constants.
type ClientConfig struct {
	ServerURL       string   `toml:"server_url"`       // Remote API; empty means open the local database
	PageSize        int      `toml:"page_size"`        // Rows per page
	RefreshInterval Duration `toml:"refresh_interval"` // Auto-refresh period
	AutoRefresh     bool     `toml:"auto_refresh"`     // Start with auto-refresh on
	FullText        bool     `toml:"full_text"`        // Search box uses full-text mode (else substring)
	Clock24h        bool     `toml:"clock_24h"`        // 24-hour receive times
	Timeout         Duration `toml:"timeout"`          // Remote request timeout
}

// Duration is a time.Duration read from a TOML string such as "10s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Environment variables that override file values.
const (
	EnvHome       = "POKESAG_HOME"
	EnvDatabase   = "POKESAG_DB"
	EnvPort       = "POKESAG_PORT"
	EnvBind       = "POKESAG_BIND"
	EnvHoverCodes = "POKESAG_HOVER_CODES"
	EnvServerURL  = "POKESAG_SERVER_URL"
	EnvPageSize   = "POKESAG_PAGE_SIZE"
	EnvRefresh    = "POKESAG_REFRESH_INTERVAL"
)

// DefaultHome returns the default pokesag home directory.
// Respects the POKESAG_HOME environment variable.
func DefaultHome() string {
	if h := os.Getenv(EnvHome); h != "" {
		return expandPath(h)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pokesag"
	}
	return filepath.Join(home, ".pokesag")
}

// NewDefaultConfig returns the configuration used when no file exists.
func NewDefaultConfig() *Config {
	homeDir := DefaultHome()
	return &Config{
		HomeDir:    homeDir,
		ConfigPath: filepath.Join(homeDir, "config.toml"),
		Data: DataConfig{
			DataDir: homeDir,
		},
		Server: ServerConfig{
			APIPort:        8000,
			BindAddr:       "127.0.0.1",
			CORSMaxAge:     86400,
			RateLimitRPS:   10,
			RateLimitBurst: 20,
		},
		Client: ClientConfig{
			PageSize:        100,
			RefreshInterval: Duration{10 * time.Second},
			FullText:        true,
			Clock24h:        true,
			Timeout:         Duration{30 * time.Second},
		},
	}
}

// Load reads the configuration. If path is empty, it uses config.toml in the
// home directory; homeDir overrides the default home when non-empty. A
// missing file is not an error. A .env file in the home directory and then
// the process environment override file values.
func Load(path, homeDir string) (*Config, error) {
	cfg := NewDefaultConfig()
	if homeDir != "" {
		homeDir = expandPath(homeDir)
		cfg.HomeDir = homeDir
		cfg.Data.DataDir = homeDir
		cfg.ConfigPath = filepath.Join(homeDir, "config.toml")
	}
	if path != "" {
		cfg.ConfigPath = expandPath(path)
	}

	if _, err := os.Stat(cfg.ConfigPath); err == nil {
		if _, err := toml.DecodeFile(cfg.ConfigPath, cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat config: %w", err)
	} else if path != "" {
		return nil, fmt.Errorf("config file not found: %s", cfg.ConfigPath)
	}

	env, err := loadEnv(filepath.Join(cfg.HomeDir, ".env"))
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(env); err != nil {
		return nil, err
	}

	cfg.Data.DataDir = expandPath(cfg.Data.DataDir)
	cfg.Data.DatabasePath = expandPath(cfg.Data.DatabasePath)
	cfg.Server.HoverCodes = expandPath(cfg.Server.HoverCodes)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadEnv merges the .env file at path (if any) with the process
// environment, whose non-empty values win. The process environment is not
// modified.
func loadEnv(path string) (map[string]string, error) {
	env := map[string]string{}
	if _, err := os.Stat(path); err == nil {
		fileEnv, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		env = fileEnv
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && v != "" {
			env[k] = v
		}
	}
	return env, nil
}

func (c *Config) applyEnv(env map[string]string) error {
	if v := env[EnvDatabase]; v != "" {
		c.Data.DatabasePath = v
	}
	if v := env[EnvBind]; v != "" {
		c.Server.BindAddr = v
	}
	if v := env[EnvHoverCodes]; v != "" {
		c.Server.HoverCodes = v
	}
	if v := env[EnvServerURL]; v != "" {
		c.Client.ServerURL = v
	}

	port := env[EnvPort]
	if port == "" {
		port = env["PORT"]
	}
	if port != "" {
		n, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid port %q: %w", port, err)
		}
		c.Server.APIPort = n
	}
	if v := env[EnvPageSize]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPageSize, v, err)
		}
		c.Client.PageSize = n
	}
	if v := env[EnvRefresh]; v != "" {
		if err := c.Client.RefreshInterval.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvRefresh, v, err)
		}
	}
	return nil
}

// Validate checks values that would otherwise fail later and less clearly.
func (c *Config) Validate() error {
	if c.Server.APIPort < 1 || c.Server.APIPort > 65535 {
		return fmt.Errorf("server.api_port %d out of range", c.Server.APIPort)
	}
	if c.Client.PageSize < 1 {
		return fmt.Errorf("client.page_size must be positive, got %d", c.Client.PageSize)
	}
	if c.Client.RefreshInterval.Duration < time.Second {
		return fmt.Errorf("client.refresh_interval must be at least 1s, got %s", c.Client.RefreshInterval)
	}
	if c.Server.RateLimitRPS <= 0 || c.Server.RateLimitBurst < 1 {
		return fmt.Errorf("server rate limit must be positive (rps %v, burst %d)", c.Server.RateLimitRPS, c.Server.RateLimitBurst)
	}
	if c.Client.ServerURL != "" {
		u, err := url.Parse(c.Client.ServerURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("client.server_url %q must be an http(s) URL", c.Client.ServerURL)
		}
	}
	return nil
}

// DatabasePath returns the path to the SQLite database.
func (c *Config) DatabasePath() string {
	if c.Data.DatabasePath != "" {
		return c.Data.DatabasePath
	}
	return filepath.Join(c.Data.DataDir, "pokesag.db")
}

// ListenAddr returns host:port for the API server.
func (c *Config) ListenAddr() string {
	bind := c.Server.BindAddr
	if bind == "" {
		bind = "127.0.0.1"
	}
	return net.JoinHostPort(bind, strconv.Itoa(c.Server.APIPort))
}

// RemoteMode reports whether the viewer talks to a server instead of a
// local database.
func (c *Config) RemoteMode() bool {
	return c.Client.ServerURL != ""
}

// EnsureHomeDir creates the home directory if needed.
func (c *Config) EnsureHomeDir() error {
	return os.MkdirAll(c.HomeDir, 0700)
}

// expandPath expands a leading ~ to the user's home directory.
func expandPath(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	if len(path) > 1 && path[1] != '/' && path[1] != filepath.Separator {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
