package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Status is the lifecycle status of a site
type Status int

// Status values. The numeric values are stable and match the stored records.
const (
	StatusReady Status = iota
	StatusValid
	StatusSuspend
	StatusExpired
	StatusDisabled
	StatusError
)

var statusNames = map[Status]string{
	StatusReady:    "ready",
	StatusValid:    "valid",
	StatusSuspend:  "suspend",
	StatusExpired:  "expired",
	StatusDisabled: "disabled",
	StatusError:    "error",
}

// String returns the lower-case status name
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// ParseStatus converts a status name to a Status
func ParseStatus(name string) (Status, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for s, n := range statusNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown status: %s", name)
}

// MarshalYAML stores the status by name
func (s Status) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// UnmarshalYAML accepts a status name or its numeric value
func (s *Status) UnmarshalYAML(node *yaml.Node) error {
	var n int
	if err := node.Decode(&n); err == nil {
		if _, ok := statusNames[Status(n)]; !ok {
			return fmt.Errorf("unknown status: %d", n)
		}
		*s = Status(n)
		return nil
	}

	var name string
	if err := node.Decode(&name); err != nil {
		return err
	}
	parsed, err := ParseStatus(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// SSLClient identifies the certificate issuing client
type SSLClient struct {
	Email    string `yaml:"email"`
	Provider string `yaml:"provider"`
}

// SSLPaths are the certificate and private key locations on disk
type SSLPaths struct {
	Certificate string `yaml:"certificate"`
	Key         string `yaml:"key"`
}

// SSLConfig describes the SSL material of a site
type SSLConfig struct {
	Client SSLClient `yaml:"client"`
	Paths  SSLPaths  `yaml:"paths"`
	Method string    `yaml:"method"` // http-01, nginx, standalone
}

// IsSet reports whether the descriptor has been initialized
func (c *SSLConfig) IsSet() bool {
	return c != nil && c.Client.Provider != ""
}

// Site represents a hosted site record
type Site struct {
	Name         string            `yaml:"name"`
	Domain       string            `yaml:"domain"`
	ExtraDomains string            `yaml:"extra_domains,omitempty"` // comma separated
	Owner        string            `yaml:"owner,omitempty"`         // owner email
	SSLEnabled   bool              `yaml:"ssl_enabled"`
	SSL          *SSLConfig        `yaml:"ssl,omitempty"`
	Root         string            `yaml:"root"`
	WebServer    string            `yaml:"web_server"`
	Application  string            `yaml:"application"`
	AppConfig    map[string]string `yaml:"app_config,omitempty"`
	ValidConfig  string            `yaml:"valid_config,omitempty"`
	Status       Status            `yaml:"status"`
	StatusInfo   string            `yaml:"status_info,omitempty"`
	CreatedAt    time.Time         `yaml:"created_at"`
	UpdatedAt    time.Time         `yaml:"updated_at,omitempty"`
}

// Clone returns a copy of the site that shares no SSL descriptor or
// AppConfig map with the original
func (s *Site) Clone() *Site {
	c := *s
	if s.SSL != nil {
		ssl := *s.SSL
		c.SSL = &ssl
	}
	if s.AppConfig != nil {
		c.AppConfig = make(map[string]string, len(s.AppConfig))
		for k, v := range s.AppConfig {
			c.AppConfig[k] = v
		}
	}
	return &c
}

// Web server kinds
const (
	WebServerNginx = "nginx"
)

// DefaultRoot is the document root used when a site does not set one
const DefaultRoot = "/var/www/html"

// ServerNames returns the primary domain followed by the additional domains
func (s *Site) ServerNames() []string {
	names := []string{s.Domain}
	for _, d := range strings.Split(s.ExtraDomains, ",") {
		d = strings.TrimSpace(d)
		if d != "" && d != s.Domain {
			names = append(names, d)
		}
	}
	return names
}

// Setting returns an application setting or fallback when unset
func (s *Site) Setting(key, fallback string) string {
	if v, ok := s.AppConfig[key]; ok && v != "" {
		return v
	}
	return fallback
}
