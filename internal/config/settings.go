package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Settings holds the runtime settings used by the activation pipeline.
// SITECTL_* environment variables override the file.
type Settings struct {
	WebServer     string        `yaml:"web_server"`
	NginxBinary   string        `yaml:"nginx_binary" env:"SITECTL_NGINX_BIN"`
	CertbotBinary string        `yaml:"certbot_binary" env:"SITECTL_CERTBOT_BIN"`
	SitesDir      string        `yaml:"sites_dir,omitempty" env:"SITECTL_SITES_DIR"` // empty: detected per platform
	TempDir       string        `yaml:"temp_dir,omitempty" env:"SITECTL_TEMP_DIR"`   // empty: os.TempDir()
	CertDir       string        `yaml:"cert_dir" env:"SITECTL_CERT_DIR"`
	ACMEDirectory string        `yaml:"acme_directory" env:"SITECTL_ACME_DIRECTORY"`
	ACMEAccounts  string        `yaml:"acme_accounts" env:"SITECTL_ACME_ACCOUNTS"` // lego account keys
	DefaultEmail  string        `yaml:"default_email,omitempty" env:"SITECTL_DEFAULT_EMAIL"`
	Timeout       time.Duration `yaml:"timeout" env:"SITECTL_TIMEOUT"`
	Concurrency   int           `yaml:"concurrency" env:"SITECTL_CONCURRENCY"`
}

// Defaults
const (
	DefaultCertDir       = "/etc/letsencrypt/live"
	DefaultACMEDirectory = "https://acme-v02.api.letsencrypt.org/directory"
	DefaultACMEAccounts  = "/etc/sitectl/acme"
	DefaultTimeout       = 2 * time.Minute
	DefaultConcurrency   = 4
)

// DefaultSettings returns the settings used when none are configured
func DefaultSettings() Settings {
	return Settings{
		WebServer:     WebServerNginx,
		NginxBinary:   "nginx",
		CertbotBinary: "certbot",
		CertDir:       DefaultCertDir,
		ACMEDirectory: DefaultACMEDirectory,
		ACMEAccounts:  DefaultACMEAccounts,
		Timeout:       DefaultTimeout,
		Concurrency:   DefaultConcurrency,
	}
}

// ApplyEnv loads envFile when it exists, then overrides settings from
// SITECTL_* environment variables. Variables already set in the process
// environment take precedence over the file.
func (s *Settings) ApplyEnv(envFile string) error {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return fmt.Errorf("failed to load %s: %w", envFile, err)
			}
		}
	}

	// unset and empty variables leave the field as loaded
	if err := env.Parse(s); err != nil {
		return fmt.Errorf("invalid environment override: %w", err)
	}
	s.normalize()
	return nil
}

func (s *Settings) normalize() {
	d := DefaultSettings()
	if s.WebServer == "" {
		s.WebServer = d.WebServer
	}
	if s.NginxBinary == "" {
		s.NginxBinary = d.NginxBinary
	}
	if s.CertbotBinary == "" {
		s.CertbotBinary = d.CertbotBinary
	}
	if s.CertDir == "" {
		s.CertDir = d.CertDir
	}
	if s.ACMEDirectory == "" {
		s.ACMEDirectory = d.ACMEDirectory
	}
	if s.ACMEAccounts == "" {
		s.ACMEAccounts = d.ACMEAccounts
	}
	if s.Timeout <= 0 {
		s.Timeout = d.Timeout
	}
	if s.Concurrency <= 0 {
		s.Concurrency = d.Concurrency
	}
}
