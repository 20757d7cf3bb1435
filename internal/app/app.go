// Package app provides the per-kind application adapters that contribute
// the APP section of a site configuration.
//
// An Adapter refreshes the application's own runtime configuration
// (Update), applies it to the running application (Reload) and renders the
// fragment placed in the APP section (Read). Read is pure.
//
// Adapters are resolved by application kind through a Registry. The
// activation pipeline only depends on the Resolver interface.
//
//	reg := app.NewRegistry(executor.NewSystemExecutor())
//	adapter, err := reg.Resolve(site)
//	if errors.Is(err, errors.ErrUnknownApplication) {
//	    // site.Application names no registered kind
//	}
package app

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/ksyq12/sitectl/internal/config"
	"github.com/ksyq12/sitectl/internal/errors"
	"github.com/ksyq12/sitectl/internal/executor"
)

// Adapter is the capability interface of an application kind
type Adapter interface {
	// Update refreshes the application's own configuration.
	Update(ctx context.Context) error
	// Reload applies the updated configuration to the running application.
	Reload(ctx context.Context) error
	// Read returns the fragment for the APP section.
	Read() string
}

// Resolver returns the adapter for a site
type Resolver interface {
	Resolve(site *config.Site) (Adapter, error)
}

// Factory builds an adapter for a site
type Factory func(site *config.Site, exec executor.CommandExecutor) (Adapter, error)

// Application kinds
const (
	KindStatic    = "static"
	KindPHP       = "php"
	KindWordPress = "wordpress"
	KindProxy     = "proxy"
)

// Registry maps application kinds to adapter factories
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	exec      executor.CommandExecutor
}

// NewRegistry creates a Registry with the built-in kinds registered
func NewRegistry(exec executor.CommandExecutor) *Registry {
	r := &Registry{
		factories: make(map[string]Factory),
		exec:      exec,
	}
	r.Register(KindStatic, NewStatic)
	r.Register(KindPHP, NewPHP)
	r.Register(KindWordPress, NewWordPress)
	r.Register(KindProxy, NewProxy)
	return r
}

// Register binds a factory to a kind, replacing any previous one
func (r *Registry) Register(kind string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[strings.ToLower(kind)] = f
}

// Resolve builds the adapter for the site's application kind
func (r *Registry) Resolve(site *config.Site) (Adapter, error) {
	kind := strings.ToLower(site.Application)
	if kind == "" {
		kind = KindStatic
	}

	r.mu.RLock()
	f, ok := r.factories[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, &errors.SiteError{
			Code:    errors.ErrCodeApplication,
			Message: "unknown application " + site.Application,
			Site:    site.Name,
		}
	}
	return f(site, r.exec)
}

// Kinds returns the registered kinds in sorted order
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// IsValidKind reports whether kind is registered
func (r *Registry) IsValidKind(kind string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[strings.ToLower(kind)]
	return ok
}

// indent prefixes every non-empty line with four spaces
func indent(lines ...string) string {
	out := make([]string, len(lines))
	for i, l := range lines {
		if l != "" {
			l = "    " + l
		}
		out[i] = l
	}
	return strings.Join(out, "\n")
}
