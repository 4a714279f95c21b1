package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tailscale/hujson"
)

const (
	configDirName  = ".tcman"
	configFileName = "config.json"

	// HomeEnv overrides the tcman home directory.
	HomeEnv = "TCMAN_HOME"

	defaultDownloadRetries = 2
	defaultReleaseCacheTTL = time.Hour
)

// ConfigManager locates and reads the tcman configuration.
type ConfigManager struct {
	configDir string
	mu        sync.RWMutex
}

// NewConfigManager creates a ConfigManager rooted at $TCMAN_HOME, or
// ~/.tcman when the variable is unset.
func NewConfigManager() (*ConfigManager, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return &ConfigManager{configDir: dir}, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting home directory: %w", err)
	}
	return &ConfigManager{
		configDir: filepath.Join(home, configDirName),
	}, nil
}

// NewConfigManagerWithDir creates a ConfigManager using a custom directory.
// Useful for testing.
func NewConfigManagerWithDir(dir string) *ConfigManager {
	return &ConfigManager{configDir: dir}
}

// ConfigDir returns the tcman home directory.
func (cm *ConfigManager) ConfigDir() string {
	return cm.configDir
}

// ConfigPath returns the full path to the config file.
func (cm *ConfigManager) ConfigPath() string {
	return filepath.Join(cm.configDir, configFileName)
}

// ToolchainsDir returns where toolchains are extracted.
func (cm *ConfigManager) ToolchainsDir() string {
	return filepath.Join(cm.configDir, "toolchains")
}

// DownloadsDir returns the scratch directory for downloads.
func (cm *ConfigManager) DownloadsDir() string {
	return filepath.Join(cm.configDir, "downloads")
}

// CacheDir returns the directory for cached release metadata.
func (cm *ConfigManager) CacheDir() string {
	return filepath.Join(cm.configDir, "cache")
}

// Load reads the config from disk. Returns default config if file doesn't exist.
func (cm *ConfigManager) Load() (*Config, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	data, err := os.ReadFile(cm.ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return defaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg := defaultConfig()
	if err := json.Unmarshal(std, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.DownloadRetries < 1 {
		cfg.DownloadRetries = defaultDownloadRetries
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		VerifySignatures: true,
		DownloadRetries:  defaultDownloadRetries,
	}
}
