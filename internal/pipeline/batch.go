package pipeline

import (
	"context"
	stderrors "errors"

	"golang.org/x/sync/errgroup"

	"github.com/ksyq12/sitectl/internal/config"
)

// ActivateAll activates sites with at most concurrency attempts in flight.
// Reports are returned in the order of sites. One site's failure does not
// stop the others; the returned error joins every fatal error.
func (p *Pipeline) ActivateAll(ctx context.Context, sites []*config.Site, concurrency int) ([]*Report, error) {
	if concurrency <= 0 {
		concurrency = config.DefaultConcurrency
	}

	reports := make([]*Report, len(sites))
	errs := make([]error, len(sites))

	var g errgroup.Group
	g.SetLimit(concurrency)

	for i, site := range sites {
		g.Go(func() error {
			reports[i], errs[i] = p.Activate(ctx, site)
			return nil
		})
	}
	_ = g.Wait()

	return reports, stderrors.Join(errs...)
}
