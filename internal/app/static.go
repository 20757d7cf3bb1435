package app

import (
	"context"

	"github.com/ksyq12/sitectl/internal/config"
	"github.com/ksyq12/sitectl/internal/executor"
)

// Static serves files from the site root
type Static struct {
	index string
}

// NewStatic creates a Static adapter. AppConfig "index" overrides the index files.
func NewStatic(site *config.Site, _ executor.CommandExecutor) (Adapter, error) {
	return &Static{index: site.Setting("index", "index.html")}, nil
}

func (s *Static) Update(ctx context.Context) error { return nil }

func (s *Static) Reload(ctx context.Context) error { return nil }

func (s *Static) Read() string {
	return indent(
		"index "+s.index+";",
		"location / {",
		"    try_files $uri $uri/ =404;",
		"}",
	)
}
