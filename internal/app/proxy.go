package app

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/ksyq12/sitectl/internal/config"
	"github.com/ksyq12/sitectl/internal/executor"
)

// Proxy forwards every request to an upstream
type Proxy struct {
	upstream string
}

// NewProxy creates a Proxy adapter from AppConfig "upstream".
// A bare host:port is treated as http.
func NewProxy(site *config.Site, _ executor.CommandExecutor) (Adapter, error) {
	upstream := strings.TrimSpace(site.Setting("upstream", ""))
	if upstream != "" && !strings.Contains(upstream, "://") {
		upstream = "http://" + upstream
	}
	return &Proxy{upstream: upstream}, nil
}

// Update checks that the upstream is a usable URL
func (p *Proxy) Update(ctx context.Context) error {
	if p.upstream == "" {
		return fmt.Errorf("proxy upstream is not set")
	}
	u, err := url.Parse(p.upstream)
	if err != nil {
		return fmt.Errorf("invalid proxy upstream %q: %w", p.upstream, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid proxy upstream %q", p.upstream)
	}
	return nil
}

func (p *Proxy) Reload(ctx context.Context) error { return nil }

func (p *Proxy) Read() string {
	return indent(
		"location / {",
		"    proxy_pass "+p.upstream+";",
		"    proxy_http_version 1.1;",
		"    proxy_set_header Host $host;",
		"    proxy_set_header X-Real-IP $remote_addr;",
		"    proxy_set_header X-Forwarded-For $proxy_add_x_forwarded_for;",
		"    proxy_set_header X-Forwarded-Proto $scheme;",
		"    proxy_set_header Upgrade $http_upgrade;",
		"    proxy_set_header Connection \"upgrade\";",
		"}",
	)
}
