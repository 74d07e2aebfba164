package watch

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Config is one watch definition: a named set of transaction codes to keep.
type Config struct {
	Name    string   // Derived from filename (without .yml extension)
	Codes   []string `yaml:"codes"`
	Enabled bool     `yaml:"enabled"`
	Comment string   `yaml:"comment"`
}

// Cache loads watch configuration files from a directory and exposes the
// merged active code set. A missing directory is not an error: the default
// codes passed at construction apply.
type Cache struct {
	watchDir     string
	defaultCodes []string
	cache        map[string]*Config
	mu           sync.RWMutex
}

func NewCache(watchDir string, defaultCodes []string) *Cache {
	normalized := make([]string, 0, len(defaultCodes))
	for _, code := range defaultCodes {
		if code = strings.TrimSpace(code); code != "" {
			normalized = append(normalized, code)
		}
	}

	return &Cache{
		watchDir:     watchDir,
		defaultCodes: normalized,
		cache:        make(map[string]*Config),
	}
}

func (c *Cache) Run() error {
	// Default codes face the same rules as watch-file codes.
	if len(c.defaultCodes) == 0 {
		return fmt.Errorf("at least one default transaction code is required")
	}
	for _, code := range c.defaultCodes {
		if err := validateCode(code); err != nil {
			return fmt.Errorf("invalid default transaction code: %w", err)
		}
	}

	if _, err := os.Stat(c.watchDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(c.watchDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		fileName := filepath.Base(file)
		watchName := strings.TrimSuffix(fileName, ".yml")

		config, err := c.loadConfig(watchName)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Watch configuration loaded", "watch", watchName, "enabled", config.Enabled, "codes", config.Codes)
	}

	return nil
}

func (c *Cache) loadConfig(watchName string) (*Config, error) {
	configFile := filepath.Join(c.watchDir, watchName+".yml")

	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	config.Name = watchName

	if err := c.validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[config.Name] = &config

	return &config, nil
}

func (c *Cache) validateConfig(config *Config) error {
	if len(config.Codes) == 0 {
		return fmt.Errorf("at least one transaction code is required")
	}
	for i, code := range config.Codes {
		if err := validateCode(code); err != nil {
			return fmt.Errorf("invalid transaction code at index %d: %w", i, err)
		}
	}
	return nil
}

func validateCode(code string) error {
	if len(code) != 1 || code[0] < 'A' || code[0] > 'Z' {
		return fmt.Errorf("%q is not a single uppercase letter", code)
	}
	return nil
}

// ActiveCodes returns the merged, sorted code set of all enabled watches,
// falling back to the default codes when no watch is enabled.
func (c *Cache) ActiveCodes() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	set := make(map[string]bool)
	for _, config := range c.cache {
		if !config.Enabled {
			continue
		}
		for _, code := range config.Codes {
			set[code] = true
		}
	}

	if len(set) == 0 {
		return append([]string(nil), c.defaultCodes...)
	}

	codes := make([]string, 0, len(set))
	for code := range set {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func (c *Cache) GetConfigs() map[string]*Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	configsCopy := make(map[string]*Config, len(c.cache))
	for k, v := range c.cache {
		configsCopy[k] = v
	}
	return configsCopy
}

func (c *Cache) GetConfigCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}
