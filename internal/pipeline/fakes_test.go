package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ksyq12/sitectl/internal/app"
	"github.com/ksyq12/sitectl/internal/config"
	"github.com/ksyq12/sitectl/internal/errors"
	"github.com/ksyq12/sitectl/internal/validator"
)

type fakeCerts struct {
	calls int32
	err   *errors.StageError
}

func (f *fakeCerts) IssueCertificate(ctx context.Context, site *config.Site) *errors.StageError {
	atomic.AddInt32(&f.calls, 1)
	return f.err
}

type fakeAdapter struct {
	fragment  string
	updateErr error
	reloadErr error
	block     bool // Update waits for ctx
	updates   int32
	reloads   int32
}

func (f *fakeAdapter) Update(ctx context.Context) error {
	atomic.AddInt32(&f.updates, 1)
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.updateErr
}

func (f *fakeAdapter) Reload(ctx context.Context) error {
	atomic.AddInt32(&f.reloads, 1)
	return f.reloadErr
}

func (f *fakeAdapter) Read() string { return f.fragment }

type fakeResolver struct {
	adapter app.Adapter
	err     error
}

func (f *fakeResolver) Resolve(site *config.Site) (app.Adapter, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.adapter, nil
}

type fakeValidator struct {
	ok    bool
	diag  string
	err   error
	delay time.Duration

	mu       sync.Mutex
	calls    int
	inflight int
	peak     int
	seen     []string
}

func (f *fakeValidator) Validate(ctx context.Context, candidate string) (*validator.Result, error) {
	f.mu.Lock()
	f.calls++
	f.inflight++
	if f.inflight > f.peak {
		f.peak = f.inflight
	}
	f.seen = append(f.seen, candidate)
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.inflight--
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	return &validator.Result{OK: f.ok, Diagnostics: f.diag}, nil
}

func (f *fakeValidator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
