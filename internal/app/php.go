package app

import (
	"context"
	"fmt"
	"regexp"

	"github.com/ksyq12/sitectl/internal/config"
	"github.com/ksyq12/sitectl/internal/executor"
)

// DefaultPHPVersion is used when a site does not set php_version
const DefaultPHPVersion = "8.2"

var phpVersionPattern = regexp.MustCompile(`^\d+\.\d+$`)

// PHP passes .php requests to the php-fpm pool of the configured version
type PHP struct {
	version  string
	socket   string
	fallback string // try_files fallback
	extra    []string
	exec     executor.CommandExecutor
}

// NewPHP creates a PHP adapter from AppConfig "php_version" and "fpm_socket"
func NewPHP(site *config.Site, exec executor.CommandExecutor) (Adapter, error) {
	version := site.Setting("php_version", DefaultPHPVersion)
	return &PHP{
		version:  version,
		socket:   site.Setting("fpm_socket", fmt.Sprintf("/run/php/php%s-fpm.sock", version)),
		fallback: "/index.php?$query_string",
		exec:     exec,
	}, nil
}

// NewWordPress creates a PHP adapter with the WordPress permalink and
// static asset rules
func NewWordPress(site *config.Site, exec executor.CommandExecutor) (Adapter, error) {
	a, err := NewPHP(site, exec)
	if err != nil {
		return nil, err
	}
	p := a.(*PHP)
	p.fallback = "/index.php?$args"
	p.extra = []string{
		"location = /favicon.ico { log_not_found off; access_log off; }",
		"location = /robots.txt { log_not_found off; access_log off; allow all; }",
		"location ~* \\.(css|gif|ico|jpeg|jpg|js|png|svg|webp)$ {",
		"    expires max;",
		"    log_not_found off;",
		"}",
	}
	return p, nil
}

// Service returns the systemd unit of the php-fpm pool
func (p *PHP) Service() string {
	return fmt.Sprintf("php%s-fpm", p.version)
}

// Update checks the configured version
func (p *PHP) Update(ctx context.Context) error {
	if !phpVersionPattern.MatchString(p.version) {
		return fmt.Errorf("invalid php version %q", p.version)
	}
	return nil
}

// Reload reloads the php-fpm service
func (p *PHP) Reload(ctx context.Context) error {
	res, err := p.exec.Run(ctx, "systemctl", "reload", p.Service())
	if err != nil {
		return fmt.Errorf("failed to reload %s: %w: %s", p.Service(), err, res.Output())
	}
	return nil
}

func (p *PHP) Read() string {
	lines := []string{
		"index index.php index.html;",
		"location / {",
		"    try_files $uri $uri/ " + p.fallback + ";",
		"}",
		"location ~ \\.php$ {",
		"    include snippets/fastcgi-php.conf;",
		"    fastcgi_pass unix:" + p.socket + ";",
		"}",
		"location ~ /\\.ht {",
		"    deny all;",
		"}",
	}
	lines = append(lines, p.extra...)
	return indent(lines...)
}
