// Package config loads and persists Brandy Box's application settings:
// the sync folder, autostart flag, base-URL mode, and the refresh token
// the auth collaborator needs to mint new access tokens. Settings persist
// as plain JSON using a viper-backed Init/Get/Save pattern, and every path
// is redirectable through BRANDYBOX_CONFIG_DIR so tests never touch a
// real user's home directory.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/brandstaetter/brandybox/internal/atomicfile"
)

// BaseURLMode selects how internal/baseurl picks a backend to talk to.
type BaseURLMode string

const (
	BaseURLAuto   BaseURLMode = "auto"   // LAN probe, falling back to remote
	BaseURLManual BaseURLMode = "manual" // always use BaseURL below
)

// Config holds the application configuration. The window geometry field
// keeps only an opaque string, never interpreted here, so a future
// desktop shell can round-trip it; nothing in this package renders a
// window.
type Config struct {
	SyncFolder     string      `mapstructure:"sync_folder" json:"sync_folder"`
	Autostart      bool        `mapstructure:"autostart" json:"autostart"`
	BaseURLMode    BaseURLMode `mapstructure:"base_url_mode" json:"base_url_mode"`
	BaseURL        string      `mapstructure:"base_url" json:"base_url"`
	RefreshToken   string      `mapstructure:"refresh_token" json:"refresh_token"`
	WindowGeometry string      `mapstructure:"window_geometry" json:"window_geometry"`
	APIPort        int         `mapstructure:"api_port" json:"api_port"`
	APIKey         string      `mapstructure:"api_key" json:"api_key"`
}

var (
	cfg        *Config
	configPath string
)

// Dir returns the configuration directory: BRANDYBOX_CONFIG_DIR when set
// (the test-mode override), otherwise ~/.config/brandybox.
func Dir() (string, error) {
	if dir := os.Getenv("BRANDYBOX_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "brandybox"), nil
}

// IsTestMode reports whether BRANDYBOX_CONFIG_DIR is set, the same signal
// internal/lock uses to skip the single-instance advisory lock.
func IsTestMode() bool {
	return os.Getenv("BRANDYBOX_CONFIG_DIR") != ""
}

// Init initializes the configuration system, creating the config
// directory and reading any existing config.json.
func Init() error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	configPath = filepath.Join(dir, "config.json")

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	viper.SetConfigFile(configPath)
	viper.SetConfigType("json")

	viper.SetDefault("api_port", 8080)
	viper.SetDefault("base_url_mode", string(BaseURLAuto))

	viper.SetEnvPrefix("BRANDYBOX")
	_ = viper.BindEnv("sync_folder", "BRANDYBOX_SYNC_FOLDER")
	_ = viper.BindEnv("base_url", "BRANDYBOX_BASE_URL")
	_ = viper.BindEnv("api_key", "BRANDYBOX_API_KEY")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg = &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.BaseURLMode == "" {
		cfg.BaseURLMode = BaseURLAuto
	}

	return nil
}

// Get returns the current configuration. Never nil, even before Init.
func Get() *Config {
	if cfg == nil {
		cfg = &Config{BaseURLMode: BaseURLAuto, APIPort: 8080}
	}
	return cfg
}

// Save writes the current configuration to disk as pretty-printed JSON,
// atomically (temp file + rename, the same idiom internal/state uses)
// and at 0600: the file carries the plaintext refresh token, a
// credential, not just settings.
func Save() error {
	data, err := json.MarshalIndent(Get(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return atomicfile.Write(configPath, data, 0o600)
}

// SetSyncFolder updates the configured sync folder.
func SetSyncFolder(path string) {
	Get().SyncFolder = path
}

// SetAutostart updates the autostart flag.
func SetAutostart(enabled bool) {
	Get().Autostart = enabled
}

// SetBaseURL updates the manual base URL and switches the mode to manual.
func SetBaseURL(url string) {
	c := Get()
	c.BaseURL = url
	c.BaseURLMode = BaseURLManual
}

// SetRefreshToken updates the persisted refresh token.
func SetRefreshToken(token string) {
	Get().RefreshToken = token
}

// SetAPIKey updates the local status API's access key.
func SetAPIKey(key string) {
	Get().APIKey = key
}

// SetAPIPort updates the local status API's listen port.
func SetAPIPort(port int) {
	Get().APIPort = port
}

// GetConfigPath returns the path to the config file.
func GetConfigPath() string {
	return configPath
}

// IsConfigured reports whether a sync folder has been set. The driver
// refuses to run a cycle until this is true.
func IsConfigured() bool {
	return Get().SyncFolder != ""
}

// IsConfigured reports whether this config has a sync folder set.
func (c *Config) IsConfigured() bool {
	return c.SyncFolder != ""
}
