package scrape

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// SourceConfig describes one configured source. The name is derived from the
// configuration filename.
type SourceConfig struct {
	Name     string         `yaml:"-"`
	Adapter  string         `yaml:"adapter"`
	FeedURLs []string       `yaml:"feed_urls"`
	Settings SourceSettings `yaml:"settings"`
}

type SourceSettings struct {
	Enabled         bool `yaml:"enabled"`
	RefreshInterval int  `yaml:"refresh_interval"` // seconds between crawl runs
}

// ConfigCache loads and caches per-source YAML configuration files from a
// directory.
type ConfigCache struct {
	sourcesDir string
	cache      map[string]*SourceConfig
	mu         sync.RWMutex
}

func NewConfigCache(sourcesDir string) *ConfigCache {
	return &ConfigCache{
		sourcesDir: sourcesDir,
		cache:      make(map[string]*SourceConfig),
	}
}

func (cc *ConfigCache) Run() error {
	if _, err := os.Stat(cc.sourcesDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(cc.sourcesDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		fileName := filepath.Base(file)
		sourceName := fileName[:len(fileName)-4] // Remove .yml extension

		config, err := cc.LoadConfig(sourceName)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Source configuration loaded", "source", sourceName,
			"adapter", config.Adapter, "enabled", config.Settings.Enabled,
			"refresh_interval", config.Settings.RefreshInterval)
	}

	return nil
}

func (cc *ConfigCache) LoadConfig(sourceName string) (*SourceConfig, error) {
	configFile := filepath.Join(cc.sourcesDir, sourceName+".yml")

	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var config SourceConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	config.Name = sourceName
	if config.Settings.RefreshInterval == 0 {
		config.Settings.RefreshInterval = 3600
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.cache[config.Name] = &config

	return &config, nil
}

func (cc *ConfigCache) GetConfig(sourceName string) (*SourceConfig, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	config, ok := cc.cache[sourceName]
	if !ok {
		return nil, fmt.Errorf("source config with name '%s' not found", sourceName)
	}
	return config, nil
}

func (cc *ConfigCache) GetConfigs() map[string]*SourceConfig {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	configsCopy := make(map[string]*SourceConfig, len(cc.cache))
	for k, v := range cc.cache {
		configsCopy[k] = v
	}
	return configsCopy
}

func (cc *ConfigCache) GetEnabledConfigs() map[string]*SourceConfig {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	enabledConfigs := make(map[string]*SourceConfig)
	for k, v := range cc.cache {
		if v.Settings.Enabled {
			enabledConfigs[k] = v
		}
	}
	return enabledConfigs
}

func (cc *ConfigCache) GetConfigCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.cache)
}

func validateConfig(config *SourceConfig) error {
	switch config.Adapter {
	case "qiita", "zenn", "hateb":
	case "feed":
		if len(config.FeedURLs) == 0 {
			return fmt.Errorf("feed adapter requires at least one feed URL")
		}
	case "":
		return fmt.Errorf("adapter is required")
	default:
		return fmt.Errorf("unknown adapter type: %s", config.Adapter)
	}

	if config.Settings.RefreshInterval < 0 {
		return fmt.Errorf("refresh interval must be non-negative")
	}

	return nil
}

// BuildAdapter constructs the adapter a source configuration names.
func BuildAdapter(config *SourceConfig, daysBack int) (SourceAdapter, error) {
	switch config.Adapter {
	case "qiita":
		return NewQiitaAdapter(daysBack), nil
	case "zenn":
		return NewZennAdapter(daysBack), nil
	case "hateb":
		return NewHatebAdapter(daysBack), nil
	case "feed":
		return NewFeedAdapter(config.Name, config.FeedURLs, daysBack), nil
	default:
		return nil, fmt.Errorf("unknown adapter type: %s", config.Adapter)
	}
}
