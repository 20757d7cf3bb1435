package driver

import "context"

// Driver is the interface of the managed web server
type Driver interface {
	// Name returns the web server name
	Name() string

	// Paths returns the driver's config paths
	Paths() Paths

	// ConfigPath returns the live configuration path of a domain
	ConfigPath(domain string) string

	// Write commits content to the live path and enables it
	Write(domain, content string) error

	// Remove deletes a domain's configuration
	Remove(domain string) error

	// Enable activates a domain's configuration
	Enable(domain string) error

	// Disable deactivates a domain's configuration without deleting it
	Disable(domain string) error

	// IsEnabled checks if a domain's configuration is active
	IsEnabled(domain string) (bool, error)

	// List returns all domains with a configuration
	List() ([]string, error)

	// Reload reloads the running web server
	Reload(ctx context.Context) error
}

// Paths contains the web server config directory paths.
// When Available and Enabled are the same directory, configurations are
// activated in place instead of through symlinks.
type Paths struct {
	Available string // config available directory
	Enabled   string // config enabled directory
}

func (p Paths) inPlace() bool {
	return p.Available == p.Enabled
}
