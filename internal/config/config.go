// pattern: Imperative Shell
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"envtrack/internal/logging"
	"envtrack/internal/style"
)

// AppName names the per-user config, cache and data directories.
const AppName = "envtrack"

// FileName is the config file looked up inside the config directory.
const FileName = "config.yaml"

// registryDirName is the registry root under the cache directory.
const registryDirName = "registered_environments"

// Environment variables that override the config file.
const (
	EnvConfigDir  = "ENVTRACK_CONFIG_DIR"
	EnvCacheDir   = "ENVTRACK_CACHE_DIR"
	EnvDataDir    = "ENVTRACK_DATA_DIR"
	EnvLogLevel   = "ENVTRACK_LOG_LEVEL"
	EnvPruneStale = "ENVTRACK_PRUNE_STALE"
)

type Config struct {
	Theme      string `yaml:"theme"`
	LogLevel   string `yaml:"log_level"`
	CacheDir   string `yaml:"cache_dir"`
	DataDir    string `yaml:"data_dir"`
	PruneStale bool   `yaml:"prune_stale"`

	// ConfigDir is where the config was loaded from. Not read from the file.
	ConfigDir string `yaml:"-"`
}

// GetenvFunc is the function signature for reading environment variables.
type GetenvFunc func(key string) string

func DefaultConfig() Config {
	return Config{
		Theme:      style.DefaultTheme,
		LogLevel:   "info",
		CacheDir:   filepath.Join(xdg.CacheHome, AppName),
		DataDir:    filepath.Join(xdg.DataHome, AppName),
		PruneStale: true,
		ConfigDir:  filepath.Join(xdg.ConfigHome, AppName),
	}
}

// Load reads the config from configDir, or from the default location when
// configDir is empty, and applies environment overrides read through getenv.
func Load(configDir string, getenv GetenvFunc) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if configDir == "" {
		configDir = getenv(EnvConfigDir)
	}
	if configDir == "" {
		configDir = DefaultConfig().ConfigDir
	}

	cfg, err := LoadFrom(filepath.Join(configDir, FileName))
	cfg.ConfigDir = configDir
	if err != nil {
		return cfg, err
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadFrom reads a single config file. A missing file yields the defaults.
func LoadFrom(configPath string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parse %s: %w", configPath, err)
	}

	defaults := DefaultConfig()
	if cfg.Theme == "" {
		cfg.Theme = defaults.Theme
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaults.LogLevel
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = defaults.CacheDir
	}
	if cfg.DataDir == "" {
		cfg.DataDir = defaults.DataDir
	}
	cfg.CacheDir = expandHome(cfg.CacheDir)
	cfg.DataDir = expandHome(cfg.DataDir)

	return cfg, nil
}

func (c *Config) applyEnv(getenv GetenvFunc) error {
	if v := getenv(EnvCacheDir); v != "" {
		c.CacheDir = expandHome(v)
	}
	if v := getenv(EnvDataDir); v != "" {
		c.DataDir = expandHome(v)
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := getenv(EnvPruneStale); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", EnvPruneStale, v, err)
		}
		c.PruneStale = b
	}
	return nil
}

// Validate checks values that cannot be corrected silently.
func (c *Config) Validate() error {
	if !logging.ValidLevel(c.LogLevel) {
		return fmt.Errorf("invalid log_level %q (expected debug, info, warn or error)", c.LogLevel)
	}
	if !style.ValidTheme(c.Theme) {
		return fmt.Errorf("invalid theme %q (expected latte, frappe, macchiato or mocha)", c.Theme)
	}
	return nil
}

// RegistryRoot is the directory holding registry entries.
func (c *Config) RegistryRoot() string {
	return filepath.Join(c.CacheDir, registryDirName)
}

// LogPath is the rotating log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.DataDir, AppName+".log")
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
