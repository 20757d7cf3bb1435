package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ksyq12/sitectl/internal/errors"
	"github.com/ksyq12/sitectl/internal/executor"
	"github.com/ksyq12/sitectl/internal/logger"
)

const (
	confExt     = ".conf"
	disabledExt = ".disabled"
)

// NginxDriver implements the Driver interface for Nginx
type NginxDriver struct {
	paths  Paths
	binary string
	exec   executor.CommandExecutor
}

// NewNginx creates a new Nginx driver with the Debian default paths
func NewNginx(exec executor.CommandExecutor) *NginxDriver {
	return NewNginxWithPaths("/etc/nginx/sites-available", "/etc/nginx/sites-enabled", exec)
}

// NewNginxWithPaths creates a new Nginx driver with custom paths
func NewNginxWithPaths(available, enabled string, exec executor.CommandExecutor) *NginxDriver {
	return &NginxDriver{
		paths: Paths{
			Available: available,
			Enabled:   enabled,
		},
		binary: "nginx",
		exec:   exec,
	}
}

// SetBinary sets the nginx binary used for the reload fallback
func (n *NginxDriver) SetBinary(binary string) {
	if binary != "" {
		n.binary = binary
	}
}

// Name returns the driver name
func (n *NginxDriver) Name() string {
	return "nginx"
}

// Paths returns the config paths
func (n *NginxDriver) Paths() Paths {
	return n.paths
}

// ConfigPath returns <available>/<domain>.conf
func (n *NginxDriver) ConfigPath(domain string) string {
	return filepath.Join(n.paths.Available, domain+confExt)
}

func (n *NginxDriver) linkPath(domain string) string {
	return filepath.Join(n.paths.Enabled, domain+confExt)
}

func (n *NginxDriver) disabledPath(domain string) string {
	return n.ConfigPath(domain) + disabledExt
}

// Write writes content to the live path and enables it.
// The file is replaced atomically so nginx never reads a partial file.
func (n *NginxDriver) Write(domain, content string) error {
	if err := os.MkdirAll(n.paths.Available, 0755); err != nil {
		return fmt.Errorf("failed to create sites-available directory: %w", err)
	}
	if err := os.MkdirAll(n.paths.Enabled, 0755); err != nil {
		return fmt.Errorf("failed to create sites-enabled directory: %w", err)
	}

	path := n.ConfigPath(domain)
	f, err := os.CreateTemp(n.paths.Available, "."+domain+confExt+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	tmp := f.Name()
	_, err = f.WriteString(content)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Chmod(tmp, 0644)
	}
	if err == nil {
		err = os.Rename(tmp, path)
	}
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write config file: %w", err)
	}

	if n.paths.inPlace() {
		os.Remove(n.disabledPath(domain))
		return nil
	}

	if enabled, _ := n.IsEnabled(domain); enabled {
		return nil
	}
	if err := n.Enable(domain); err != nil {
		// another writer may have linked it in the meantime
		if enabled, _ := n.IsEnabled(domain); enabled {
			return nil
		}
		return err
	}
	return nil
}

// Remove deletes a domain's configuration
func (n *NginxDriver) Remove(domain string) error {
	if !n.paths.inPlace() {
		if enabled, _ := n.IsEnabled(domain); enabled {
			if err := n.Disable(domain); err != nil {
				return err
			}
		}
	}

	removed := false
	for _, path := range []string{n.ConfigPath(domain), n.disabledPath(domain)} {
		err := os.Remove(path)
		if err == nil {
			removed = true
			continue
		}
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove config file: %w", err)
		}
	}
	if !removed {
		return errors.LiveConfigNotFound(domain)
	}

	return nil
}

// Enable activates a configuration by creating a symlink, or by restoring
// the .disabled file when configurations live in a single directory
func (n *NginxDriver) Enable(domain string) error {
	if n.paths.inPlace() {
		if _, err := os.Stat(n.ConfigPath(domain)); err == nil {
			return fmt.Errorf("%s is already enabled", domain)
		}
		if err := os.Rename(n.disabledPath(domain), n.ConfigPath(domain)); err != nil {
			if os.IsNotExist(err) {
				return errors.LiveConfigNotFound(domain)
			}
			return fmt.Errorf("failed to enable %s: %w", domain, err)
		}
		return nil
	}

	source := n.ConfigPath(domain)
	target := n.linkPath(domain)

	if _, err := os.Stat(source); os.IsNotExist(err) {
		return errors.LiveConfigNotFound(domain)
	}

	if _, err := os.Lstat(target); err == nil {
		return fmt.Errorf("%s is already enabled", domain)
	}

	if err := os.Symlink(source, target); err != nil {
		return fmt.Errorf("failed to enable %s: %w", domain, err)
	}

	return nil
}

// Disable deactivates a configuration by removing the symlink, or by
// renaming it to .disabled when configurations live in a single directory
func (n *NginxDriver) Disable(domain string) error {
	if n.paths.inPlace() {
		if err := os.Rename(n.ConfigPath(domain), n.disabledPath(domain)); err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("%s is not enabled", domain)
			}
			return fmt.Errorf("failed to disable %s: %w", domain, err)
		}
		return nil
	}

	target := n.linkPath(domain)

	info, err := os.Lstat(target)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s is not enabled", domain)
	}
	if err != nil {
		return fmt.Errorf("failed to check status of %s: %w", domain, err)
	}

	if info.Mode()&os.ModeSymlink == 0 {
		return fmt.Errorf("%s is not a symlink, refusing to remove", target)
	}

	if err := os.Remove(target); err != nil {
		return fmt.Errorf("failed to disable %s: %w", domain, err)
	}

	return nil
}

// IsEnabled checks if a configuration is active
func (n *NginxDriver) IsEnabled(domain string) (bool, error) {
	target := n.linkPath(domain)
	_, err := os.Lstat(target)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check status of %s: %w", domain, err)
	}
	return true, nil
}

// List returns all domains with a configuration in sites-available
func (n *NginxDriver) List() ([]string, error) {
	entries, err := os.ReadDir(n.paths.Available)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read sites-available: %w", err)
	}

	domains := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		name = strings.TrimSuffix(name, disabledExt)
		if !strings.HasSuffix(name, confExt) {
			continue
		}
		domains = append(domains, strings.TrimSuffix(name, confExt))
	}

	return domains, nil
}

// Reload reloads nginx to apply changes
func (n *NginxDriver) Reload(ctx context.Context) error {
	res, err := n.exec.Run(ctx, "systemctl", "reload", "nginx")
	if err == nil {
		return nil
	}
	logger.Debug("systemctl reload nginx failed, falling back to %s -s reload: %s", n.binary, res.Output())

	res, err = n.exec.Run(ctx, n.binary, "-s", "reload")
	if err != nil {
		return fmt.Errorf("failed to reload nginx: %w: %s", err, res.Output())
	}
	return nil
}
