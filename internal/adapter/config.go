package adapter

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	appName   = "scandesk"
	envPrefix = "SCANDESK"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Cache         CacheConfig         `mapstructure:"cache"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Channel       ChannelConfig       `mapstructure:"channel"`
	Sync          SyncConfig          `mapstructure:"sync"`
	UI            UIConfig            `mapstructure:"ui"`
	Logging       LoggingConfig       `mapstructure:"logging"`

	path string // file the config was read from, if any
}

// ServerConfig holds scan server configuration
type ServerConfig struct {
	URL        string        `mapstructure:"url"`
	EventsPath string        `mapstructure:"events_path"` // websocket endpoint for push events
	Timeout    time.Duration `mapstructure:"timeout"`     // per-request timeout
}

// CacheConfig holds local cache configuration
type CacheConfig struct {
	Dir string `mapstructure:"dir"` // empty keeps the photo list in memory only
}

// NotificationsConfig holds notification display settings
type NotificationsConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// ChannelConfig tunes the push channel
type ChannelConfig struct {
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay"`
	PingPeriod     time.Duration `mapstructure:"ping_period"`
}

// SyncConfig holds reconciliation settings
type SyncConfig struct {
	RenameRollback bool `mapstructure:"rename_rollback"` // restore the old name when a rename fails
}

// UIConfig holds UI configuration
type UIConfig struct {
	Language string `mapstructure:"language"` // "en" or "he"
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			URL:        "http://localhost:9000",
			EventsPath: "/ws",
			Timeout:    30 * time.Second,
		},
		Cache: CacheConfig{
			Dir: defaultCachePath(),
		},
		Notifications: NotificationsConfig{
			TTL: 3 * time.Second,
		},
		Channel: ChannelConfig{
			ReconnectDelay: 2 * time.Second,
			PingPeriod:     54 * time.Second,
		},
		UI: UIConfig{
			Language: "en",
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// setDefaults registers every key so environment overrides apply on Unmarshal
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.url", cfg.Server.URL)
	v.SetDefault("server.events_path", cfg.Server.EventsPath)
	v.SetDefault("server.timeout", cfg.Server.Timeout)
	v.SetDefault("cache.dir", cfg.Cache.Dir)
	v.SetDefault("notifications.ttl", cfg.Notifications.TTL)
	v.SetDefault("channel.reconnect_delay", cfg.Channel.ReconnectDelay)
	v.SetDefault("channel.ping_period", cfg.Channel.PingPeriod)
	v.SetDefault("sync.rename_rollback", cfg.Sync.RenameRollback)
	v.SetDefault("ui.language", cfg.UI.Language)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), appName, appName+".log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", appName, appName+".log")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), appName)
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", appName)
	}
}

// defaultCachePath returns the default cache directory path for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), appName, "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", appName, "cache")
	}
}

// DefaultConfigFile returns the file SaveConfig writes when no path is given
func DefaultConfigFile() string {
	return filepath.Join(defaultConfigPath(), "config.yaml")
}

// LoadDotEnv loads KEY=VALUE pairs from path into the environment. Variables
// already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error reading %s: %w", path, err)
	}
	return nil
}

// LoadConfig loads configuration from file and environment. An empty path
// searches the default config directory and the working directory; an
// explicit path must exist.
func LoadConfig(path string) (*Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	v := viper.New()
	setDefaults(v, cfg)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(defaultConfigPath())
		v.AddConfigPath(".")
	}

	// Environment variable overrides: SCANDESK_SERVER_URL -> server.url
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	cfg.path = v.ConfigFileUsed()
	cfg.Cache.Dir = expandHome(cfg.Cache.Dir)
	cfg.Logging.File = expandHome(cfg.Logging.File)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns the file the configuration was read from, or "" for defaults
func (c *Config) Path() string {
	return c.path
}

// Validate checks the values the application cannot start without
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.URL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("invalid server.url %q: expected http(s)://host[:port]", c.Server.URL)
	}
	if c.Server.Timeout < 0 {
		return fmt.Errorf("invalid server.timeout %s", c.Server.Timeout)
	}
	return nil
}

// SaveConfig writes cfg to path, or to the default config file when path
// is empty.
func SaveConfig(cfg *Config, path string) error {
	if path == "" {
		path = DefaultConfigFile()
	}

	// Ensure config directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set fields individually to keep snake_case key names
	v := viper.New()
	v.Set("server.url", cfg.Server.URL)
	v.Set("server.events_path", cfg.Server.EventsPath)
	v.Set("server.timeout", cfg.Server.Timeout.String())
	v.Set("cache.dir", cfg.Cache.Dir)
	v.Set("notifications.ttl", cfg.Notifications.TTL.String())
	v.Set("channel.reconnect_delay", cfg.Channel.ReconnectDelay.String())
	v.Set("channel.ping_period", cfg.Channel.PingPeriod.String())
	v.Set("sync.rename_rollback", cfg.Sync.RenameRollback)
	v.Set("ui.language", cfg.UI.Language)
	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	cfg.path = path
	return nil
}

// expandHome replaces a leading ~ with the user's home directory
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
