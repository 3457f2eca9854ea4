package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/tailscale/hujson"
)

const (
	// AppDirName is the per-extension directory under the user config dir.
	AppDirName     = "bm-whiskers"
	StoreFileName  = "bookmarks.json"
	SQLiteFileName = "bookmarks.db"
	ConfigFileName = "config.json"
	FaviconDirName = "favicons"
	LogFileName    = "bm-whiskers.log"

	BackendJSON   = "json"
	BackendSQLite = "sqlite"

	// SettingCopyURL is the host setting that turns bookmark results into
	// copy-to-clipboard actions and hides groups.
	SettingCopyURL = "copy_url"
)

var ErrConfigInvalid = errors.New("invalid config file")

// Config holds application configuration.
type Config struct {
	CopyURL          bool   `json:"copyUrl"`
	Backend          string `json:"backend"`
	OpenDelayMs      int    `json:"openDelayMs"`
	FaviconService   string `json:"faviconService"`
	FaviconSize      int    `json:"faviconSize"`
	FaviconTimeoutMs int    `json:"faviconTimeoutMs"`
	IconsDir         string `json:"iconsDir"`
	LogLevel         string `json:"logLevel"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		CopyURL:          false,
		Backend:          BackendJSON,
		OpenDelayMs:      1000,
		FaviconService:   "https://www.google.com/s2/favicons?sz=256&domain=",
		FaviconSize:      64,
		FaviconTimeoutMs: 5000,
		LogLevel:         "info",
	}
}

// OpenDelay returns the pause between successive opens of a group.
func (c Config) OpenDelay() time.Duration {
	return time.Duration(c.OpenDelayMs) * time.Millisecond
}

// FaviconTimeout returns the HTTP timeout for favicon fetches.
func (c Config) FaviconTimeout() time.Duration {
	return time.Duration(c.FaviconTimeoutMs) * time.Millisecond
}

// Setting implements a read-only key lookup over the config file.
func (c Config) Setting(key string) (string, bool) {
	switch key {
	case SettingCopyURL:
		return strconv.FormatBool(c.CopyURL), true
	}
	return "", false
}

// LoadConfig reads config from the JSON (with comments) file.
// Creates the file with defaults if it doesn't exist.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			config := DefaultConfig()
			// Non-fatal: return defaults even if save fails
			_ = SaveConfig(path, &config)
			return &config, nil
		}
		return nil, err
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrConfigInvalid, path, err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(standardized, &config); err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrConfigInvalid, path, err)
	}

	// Apply defaults for unusable values
	defaults := DefaultConfig()
	if config.Backend == "" {
		config.Backend = defaults.Backend
	}
	if config.OpenDelayMs < 0 {
		config.OpenDelayMs = defaults.OpenDelayMs
	}
	if config.FaviconService == "" {
		config.FaviconService = defaults.FaviconService
	}
	if config.FaviconSize <= 0 {
		config.FaviconSize = defaults.FaviconSize
	}
	if config.FaviconTimeoutMs <= 0 {
		config.FaviconTimeoutMs = defaults.FaviconTimeoutMs
	}
	if config.Backend != BackendJSON && config.Backend != BackendSQLite {
		return nil, fmt.Errorf("%w %s: unknown backend %q", ErrConfigInvalid, path, config.Backend)
	}

	return &config, nil
}

// SaveConfig writes config to the JSON file.
// Creates the directory if it doesn't exist.
func SaveConfig(path string, config *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultDir returns the extension directory: <user config dir>/bm-whiskers.
// $XDG_CONFIG_HOME is honoured on Linux.
func DefaultDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, AppDirName), nil
}
