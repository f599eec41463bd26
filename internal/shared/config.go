package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
)

const appName = "ytplay"

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Player   PlayerConfig   `toml:"player"`
	API      APIConfig      `toml:"api"`
	Catalog  CatalogConfig  `toml:"catalog"`
	LastFM   LastFMConfig   `toml:"lastfm"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
}

// PlayerConfig contains playback engine settings.
type PlayerConfig struct {
	ElementID        string        `toml:"element_id"`
	PollInterval     time.Duration `toml:"poll_interval"`
	WatchdogInterval time.Duration `toml:"watchdog_interval"`
	DefaultVolume    int           `toml:"default_volume"`
	Backend          string        `toml:"backend"`
	MPVPath          string        `toml:"mpv_path"`
	KeepAlive        string        `toml:"keepalive"`
}

// APIConfig contains the hosted engagement API settings.
type APIConfig struct {
	BaseURL   string        `toml:"base_url"`
	Token     string        `toml:"token"`
	UserID    string        `toml:"user_id"`
	Timeout   time.Duration `toml:"timeout"`
	RateLimit float64       `toml:"rate_limit"`
	Burst     int           `toml:"burst"`
}

// CatalogConfig points at the search/playlist proxy.
type CatalogConfig struct {
	ProxyURL string `toml:"proxy_url"`
}

// LastFMConfig contains Last.fm credentials. An empty API key disables the sink.
type LastFMConfig struct {
	APIKey     string `toml:"api_key"`
	APISecret  string `toml:"api_secret"`
	SessionKey string `toml:"session_key"`
}

// Enabled reports whether enough credentials are present to publish now-playing updates.
func (c LastFMConfig) Enabled() bool {
	return c.APIKey != "" && c.APISecret != "" && c.SessionKey != ""
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns host:port.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogConfig controls log level and destination.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks values the engine cannot run without.
func (c *Config) Validate() error {
	if c.Player.PollInterval <= 0 {
		return fmt.Errorf("%w: player.poll_interval must be positive", ErrInvalidConfig)
	}
	if c.Player.WatchdogInterval <= 0 {
		return fmt.Errorf("%w: player.watchdog_interval must be positive", ErrInvalidConfig)
	}
	if c.Player.DefaultVolume < 0 || c.Player.DefaultVolume > 100 {
		return fmt.Errorf("%w: player.default_volume must be within 0-100", ErrInvalidConfig)
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("%w: api.rate_limit cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfigPath returns the XDG config location, e.g. ~/.config/ytplay/config.toml.
func DefaultConfigPath() (string, error) {
	return xdg.ConfigFile(filepath.Join(appName, "config.toml"))
}

// DefaultDatabasePath returns the XDG data location for the local database.
func DefaultDatabasePath() (string, error) {
	return xdg.DataFile(filepath.Join(appName, appName+".db"))
}
