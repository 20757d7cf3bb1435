// Package platform provides platform-specific path detection for nginx.
package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Paths contains the nginx configuration locations of a host.
type Paths struct {
	ConfDir   string // main configuration directory, holds nginx.conf and mime.types
	Available string
	Enabled   string
}

// InPlace reports whether sites are activated in place instead of through symlinks.
func (p Paths) InPlace() bool {
	return p.Available == p.Enabled
}

type layout struct {
	probe string
	paths Paths
}

// Known layouts, checked in order.
var (
	darwinLayouts = []layout{
		{"/opt/homebrew/etc/nginx", Paths{
			ConfDir:   "/opt/homebrew/etc/nginx",
			Available: "/opt/homebrew/etc/nginx/servers",
			Enabled:   "/opt/homebrew/etc/nginx/servers",
		}},
		{"/usr/local/etc/nginx", Paths{
			ConfDir:   "/usr/local/etc/nginx",
			Available: "/usr/local/etc/nginx/servers",
			Enabled:   "/usr/local/etc/nginx/servers",
		}},
	}
	linuxLayouts = []layout{
		// Debian/Ubuntu
		{"/etc/nginx/sites-available", Paths{
			ConfDir:   "/etc/nginx",
			Available: "/etc/nginx/sites-available",
			Enabled:   "/etc/nginx/sites-enabled",
		}},
		// RHEL/CentOS
		{"/etc/nginx/conf.d", Paths{
			ConfDir:   "/etc/nginx",
			Available: "/etc/nginx/conf.d",
			Enabled:   "/etc/nginx/conf.d",
		}},
	}
)

// DetectPaths returns the nginx paths of the running host.
func DetectPaths() (*Paths, error) {
	return detectIn("", runtime.GOOS)
}

// Resolve returns the detected paths, with sitesDir overriding the site
// directories when set. An override is used as a single in-place directory.
func Resolve(sitesDir string) (*Paths, error) {
	if sitesDir != "" {
		paths := &Paths{ConfDir: "/etc/nginx", Available: sitesDir, Enabled: sitesDir}
		if detected, err := DetectPaths(); err == nil {
			paths.ConfDir = detected.ConfDir
		}
		return paths, nil
	}
	return DetectPaths()
}

// detectIn probes the layouts of goos below root.
func detectIn(root, goos string) (*Paths, error) {
	var layouts []layout
	switch goos {
	case "darwin":
		layouts = darwinLayouts
	case "linux":
		layouts = linuxLayouts
	default:
		return nil, fmt.Errorf("unsupported platform: %s", goos)
	}

	for _, l := range layouts {
		if pathExists(filepath.Join(root, l.probe)) {
			p := l.paths
			return &p, nil
		}
	}

	// nginx installed without a site directory layout
	if goos == "linux" && pathExists(filepath.Join(root, "/etc/nginx")) {
		p := linuxLayouts[0].paths
		return &p, nil
	}

	return nil, fmt.Errorf("nginx configuration paths not found on %s", goos)
}

// pathExists checks if a path exists on the filesystem.
func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Platform returns a string describing the current platform.
func Platform() string {
	return fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
}
