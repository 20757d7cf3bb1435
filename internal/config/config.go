package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ksyq12/sitectl/internal/errors"
)

// Config represents the application configuration and the site records
type Config struct {
	Settings Settings         `yaml:"settings"`
	Sites    map[string]*Site `yaml:"sites"`
}

// configDir is the default config directory
const configDir = ".config/sitectl"
const configFile = "config.yaml"

// New creates a new Config with default values
func New() *Config {
	return &Config{
		Settings: DefaultSettings(),
		Sites:    make(map[string]*Site),
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, configDir), nil
}

// ConfigPath returns the config file path
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Load reads the config from the default location and applies
// environment overrides
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Settings.ApplyEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads the config from path. A missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return New(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := New()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfig, "failed to parse config", err)
	}

	if cfg.Sites == nil {
		cfg.Sites = make(map[string]*Site)
	}
	for name, site := range cfg.Sites {
		if site.Name == "" {
			site.Name = name
		}
	}

	return cfg, nil
}

// Save writes the config to the default location
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the config to path, creating its directory
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Records may hold owner emails and key paths
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// AddSite adds a site to the config. Names are unique.
func (c *Config) AddSite(site *Site) error {
	if _, exists := c.Sites[site.Name]; exists {
		return errors.AlreadyExists(site.Name)
	}
	if err := c.CheckDomain(site.Name, site.Domain); err != nil {
		return err
	}
	c.Sites[site.Name] = site
	return nil
}

// CheckDomain returns an error when another site already uses domain as
// its primary domain. The live configuration file is named after it.
func (c *Config) CheckDomain(name, domain string) error {
	if domain == "" {
		return nil
	}
	for _, s := range c.Sites {
		if s.Name != name && strings.EqualFold(s.Domain, domain) {
			return &errors.SiteError{
				Code:    errors.ErrCodeAlreadyExists,
				Message: fmt.Sprintf("domain %s is already used by site %s", domain, s.Name),
				Site:    name,
			}
		}
	}
	return nil
}

// GetSite returns a site by name
func (c *Config) GetSite(name string) (*Site, error) {
	site, exists := c.Sites[name]
	if !exists {
		return nil, errors.NotFound(name)
	}
	return site, nil
}

// RemoveSite removes a site from the config
func (c *Config) RemoveSite(name string) error {
	if _, exists := c.Sites[name]; !exists {
		return errors.NotFound(name)
	}
	delete(c.Sites, name)
	return nil
}

// ListSites returns all sites sorted by name
func (c *Config) ListSites() []*Site {
	sites := make([]*Site, 0, len(c.Sites))
	for _, s := range c.Sites {
		sites = append(sites, s)
	}
	sort.Slice(sites, func(i, j int) bool {
		return sites[i].Name < sites[j].Name
	})
	return sites
}
