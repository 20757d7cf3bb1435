package pipeline

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksyq12/sitectl/internal/app"
	"github.com/ksyq12/sitectl/internal/assembler"
	"github.com/ksyq12/sitectl/internal/config"
	"github.com/ksyq12/sitectl/internal/driver"
	"github.com/ksyq12/sitectl/internal/errors"
	"github.com/ksyq12/sitectl/internal/executor"
	"github.com/ksyq12/sitectl/internal/section"
	"github.com/ksyq12/sitectl/internal/ssl"
	"github.com/ksyq12/sitectl/internal/validator"
)

const staticFragment = "    index index.html;"

func newSite(status config.Status) *config.Site {
	return &config.Site{
		Name:        "example",
		Domain:      "example.com",
		Application: app.KindStatic,
		Status:      status,
	}
}

type fixture struct {
	certs     *fakeCerts
	adapter   *fakeAdapter
	validator *fakeValidator
	driver    *driver.MockDriver
	assembles int32
	pipeline  *Pipeline
}

func newFixture(opts ...Option) *fixture {
	f := &fixture{
		certs:     &fakeCerts{},
		adapter:   &fakeAdapter{fragment: staticFragment},
		validator: &fakeValidator{ok: true},
		driver:    driver.NewMockDriver("nginx", "/live/available", "/live/enabled"),
	}
	counting := func(site *config.Site, appFragment, userFragment string) (string, error) {
		atomic.AddInt32(&f.assembles, 1)
		return assembler.Assemble(site, appFragment, userFragment)
	}
	opts = append([]Option{WithAssembler(counting)}, opts...)
	f.pipeline = New(f.certs, &fakeResolver{adapter: f.adapter}, f.validator, f.driver, opts...)
	return f
}

func TestActivate_Success(t *testing.T) {
	f := newFixture(WithClock(func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }))
	site := newSite(config.StatusError)

	report, err := f.pipeline.Activate(context.Background(), site)
	require.NoError(t, err)

	assert.Equal(t, StateReloaded, report.State)
	assert.True(t, report.OK())
	assert.Zero(t, report.Errors.Len())

	writes := f.driver.Writes()
	require.Len(t, writes, 1)
	assert.Equal(t, "example.com", writes[0].Domain)
	assert.Equal(t, report.Candidate, writes[0].Content)

	assert.Equal(t, report.Candidate, site.ValidConfig)
	assert.Equal(t, config.StatusValid, site.Status)
	assert.Empty(t, site.StatusInfo)
	assert.Equal(t, 2026, site.UpdatedAt.Year())
	assert.Equal(t, 1, f.driver.ReloadCalls)

	appText, err := section.Get(site.ValidConfig, "app")
	require.NoError(t, err)
	assert.Equal(t, staticFragment, appText)
}

func TestActivate_BrokenSectionMarkers(t *testing.T) {
	broken := func(*config.Site, string, string) (string, error) {
		return "", errors.SectionNotFound("app")
	}
	f := newFixture(WithAssembler(broken))
	site := newSite(config.StatusValid)

	report, err := f.pipeline.Activate(context.Background(), site)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrSectionNotFound))
	assert.Contains(t, report.Errors.ByStage(), errors.StageSection)
	assert.Zero(t, f.validator.callCount())
	assert.Empty(t, f.driver.Writes())
}

func TestActivate_ReadyIsNoop(t *testing.T) {
	f := newFixture()
	site := newSite(config.StatusReady)

	report, err := f.pipeline.Activate(context.Background(), site)
	require.NoError(t, err)

	assert.True(t, report.Skipped)
	assert.Equal(t, StateStart, report.State)
	assert.Zero(t, f.certs.calls)
	assert.Zero(t, f.validator.callCount())
	assert.Empty(t, f.driver.Writes())
	assert.Equal(t, config.StatusReady, site.Status)
}

func TestActivate_ReadyRunsNoProcesses(t *testing.T) {
	exec := &executor.MockExecutor{}
	dir := t.TempDir()

	orch := ssl.NewOrchestrator(dir, "")
	orch.Register(ssl.ProviderDefault, ssl.NewCertbotIssuer(exec, ""))
	p := New(
		orch,
		app.NewRegistry(exec),
		validator.NewNginxValidator(exec, validator.WithTempDir(dir)),
		driver.NewNginxWithPaths(filepath.Join(dir, "a"), filepath.Join(dir, "e"), exec),
	)

	site := newSite(config.StatusReady)
	site.SSLEnabled = true
	site.Application = app.KindPHP

	_, err := p.Activate(context.Background(), site)
	require.NoError(t, err)
	assert.Zero(t, exec.CallCount())
}

func TestActivate_ValidationFailureLeavesLivePathUntouched(t *testing.T) {
	dir := t.TempDir()
	drv := driver.NewNginxWithPaths(filepath.Join(dir, "available"), filepath.Join(dir, "enabled"), &executor.MockExecutor{})

	previous := "server { listen 80; server_name example.com; }"
	require.NoError(t, drv.Write("example.com", previous))

	diag := `nginx: [emerg] unknown directive "lisen" in /tmp/sitectl-1.conf:4` + "\nnginx: configuration file test failed"
	v := &fakeValidator{ok: false, diag: diag}

	p := New(&fakeCerts{}, &fakeResolver{adapter: &fakeAdapter{fragment: staticFragment}}, v, drv)

	site := newSite(config.StatusValid)
	site.ValidConfig = previous

	report, err := p.Activate(context.Background(), site)
	require.Error(t, err)
	assert.Equal(t, StateFailed, report.State)
	assert.True(t, errors.Is(err, errors.ErrValidationFailed))

	var stageErr *errors.StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, diag, stageErr.Diagnostics)

	data, readErr := os.ReadFile(drv.ConfigPath("example.com"))
	require.NoError(t, readErr)
	assert.Equal(t, previous, string(data))

	assert.Equal(t, previous, site.ValidConfig)
	assert.Equal(t, config.StatusError, site.Status)
	assert.Contains(t, site.StatusInfo, "invalid configuration")
}

func TestActivate_CertificateFailureAbortsEarly(t *testing.T) {
	exec := &executor.MockExecutor{
		RunFunc: func(name string, args ...string) (*executor.Result, error) {
			return executor.Failure(1, "Saving debug log", "Timeout during connect (likely firewall problem)")
		},
	}
	orch := ssl.NewOrchestrator(t.TempDir(), "")
	orch.Register(ssl.ProviderDefault, ssl.NewCertbotIssuer(exec, ""))

	f := newFixture()
	f.pipeline.certs = orch

	site := newSite(config.StatusValid)
	site.SSLEnabled = true

	report, err := f.pipeline.Activate(context.Background(), site)
	require.Error(t, err)

	assert.True(t, errors.Is(err, errors.ErrCertificateIssuanceFailed))
	assert.Equal(t, StateFailed, report.State)
	assert.Zero(t, atomic.LoadInt32(&f.assembles), "no assembly after a certificate failure")
	assert.Zero(t, f.validator.callCount(), "no validation after a certificate failure")
	assert.Zero(t, f.adapter.updates)
	assert.Empty(t, f.driver.Writes())

	msg := report.Errors.ByStage()[errors.StageCertificate]
	assert.Contains(t, msg, "Timeout during connect")
}

func TestActivate_AdapterFailures(t *testing.T) {
	t.Run("update failure is fatal", func(t *testing.T) {
		f := newFixture()
		f.adapter.updateErr = stderrors.New("upstream missing")

		report, err := f.pipeline.Activate(context.Background(), newSite(config.StatusValid))
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrAdapterUpdateFailed))
		assert.Equal(t, StateFailed, report.State)
		assert.Zero(t, f.adapter.reloads)
		assert.Zero(t, f.validator.callCount())
	})

	t.Run("reload failure is a warning", func(t *testing.T) {
		f := newFixture()
		f.adapter.reloadErr = stderrors.New("php8.2-fpm.service not loaded")

		report, err := f.pipeline.Activate(context.Background(), newSite(config.StatusValid))
		require.NoError(t, err)
		assert.Equal(t, StateReloaded, report.State)

		warnings := report.Warnings()
		require.Len(t, warnings, 1)
		assert.Equal(t, errors.StageApplicationReload, warnings[0].Stage)
		assert.Len(t, f.driver.Writes(), 1)
	})

	t.Run("warnings accumulate with the fatal error", func(t *testing.T) {
		f := newFixture()
		f.adapter.reloadErr = stderrors.New("reload failed")
		f.validator.ok = false
		f.validator.diag = "nginx: configuration file test failed"

		report, err := f.pipeline.Activate(context.Background(), newSite(config.StatusValid))
		require.Error(t, err)

		byStage := report.Errors.ByStage()
		assert.Len(t, byStage, 2)
		assert.Contains(t, byStage, errors.StageApplicationReload)
		assert.Contains(t, byStage, errors.StageValidation)
		assert.Equal(t, errors.StageValidation, report.Errors.Fatal().Stage)
	})

	t.Run("unknown application", func(t *testing.T) {
		f := newFixture()
		f.pipeline.apps = app.NewRegistry(nil)

		site := newSite(config.StatusValid)
		site.Application = "cobol"

		_, err := f.pipeline.Activate(context.Background(), site)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrUnknownApplication))
		assert.True(t, errors.Is(err, errors.ErrAdapterUpdateFailed))
	})
}

func TestActivate_CommitAndReloadFailures(t *testing.T) {
	t.Run("commit failure keeps previous config", func(t *testing.T) {
		f := newFixture()
		f.driver.WriteFunc = func(domain, content string) error {
			return stderrors.New("read-only file system")
		}

		site := newSite(config.StatusValid)
		site.ValidConfig = "previous"

		report, err := f.pipeline.Activate(context.Background(), site)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrCommitFailed))
		assert.Equal(t, StateFailed, report.State)
		assert.Equal(t, "previous", site.ValidConfig)
		assert.Equal(t, config.StatusError, site.Status)
		assert.Zero(t, f.driver.ReloadCalls)
	})

	t.Run("service reload failure keeps the commit", func(t *testing.T) {
		f := newFixture()
		f.driver.ReloadFunc = func(ctx context.Context) error {
			return stderrors.New("nginx.service is not active")
		}

		site := newSite(config.StatusError)
		report, err := f.pipeline.Activate(context.Background(), site)
		require.NoError(t, err)

		assert.Equal(t, StateCommitted, report.State)
		assert.Equal(t, config.StatusValid, site.Status)
		assert.Equal(t, report.Candidate, site.ValidConfig)
		assert.Contains(t, site.StatusInfo, "service reload failed")

		warnings := report.Warnings()
		require.Len(t, warnings, 1)
		assert.True(t, errors.Is(warnings[0], errors.ErrServiceReloadFailed))
	})
}

func TestActivate_ValidatorCannotRun(t *testing.T) {
	f := newFixture()
	f.validator.err = stderrors.New(`exec: "nginx": executable file not found in $PATH`)

	_, err := f.pipeline.Activate(context.Background(), newSite(config.StatusValid))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidationFailed))
	assert.Empty(t, f.driver.Writes())
}

func TestActivate_StageTimeout(t *testing.T) {
	f := newFixture(WithTimeout(20 * time.Millisecond))
	f.adapter.block = true

	start := time.Now()
	_, err := f.pipeline.Activate(context.Background(), newSite(config.StatusValid))
	require.Error(t, err)

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.True(t, errors.Is(err, errors.ErrAdapterUpdateFailed))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestActivate_CancelledContext(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := f.pipeline.Activate(ctx, newSite(config.StatusValid))
	require.Error(t, err)
	assert.Equal(t, StateFailed, report.State)
	assert.Zero(t, f.certs.calls)
}

func TestActivate_UserSectionCarriedOver(t *testing.T) {
	f := newFixture()
	site := newSite(config.StatusValid)

	_, err := f.pipeline.Activate(context.Background(), site)
	require.NoError(t, err)

	edited, err := section.Insert(site.ValidConfig, "user", "    client_max_body_size 64m;")
	require.NoError(t, err)
	site.ValidConfig = edited

	_, err = f.pipeline.Activate(context.Background(), site)
	require.NoError(t, err)

	user, err := section.Get(site.ValidConfig, "user")
	require.NoError(t, err)
	assert.Equal(t, "    client_max_body_size 64m;", user)
}

func TestActivate_SameSiteIsSerialized(t *testing.T) {
	f := newFixture()
	f.validator.delay = 30 * time.Millisecond

	var inflight, peak int32
	f.driver.WriteFunc = func(domain, content string) error {
		n := atomic.AddInt32(&inflight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&inflight, -1)
		return nil
	}

	site := newSite(config.StatusValid)

	var wg sync.WaitGroup
	reports := make([]*Report, 2)
	for i := range reports {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := f.pipeline.Activate(context.Background(), site)
			assert.NoError(t, err)
			reports[i] = r
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, f.validator.peak, "validation ran concurrently for one site")
	assert.Equal(t, int32(1), peak, "commit ran concurrently for one site")
	assert.Len(t, f.driver.Writes(), 2)
	assert.Equal(t, StateReloaded, reports[0].State)
	assert.Equal(t, StateReloaded, reports[1].State)
	assert.Zero(t, f.pipeline.locks.size())
}

func TestActivate_SharedDomainIsSerialized(t *testing.T) {
	f := newFixture()

	var inflight, peak int32
	f.driver.WriteFunc = func(domain, content string) error {
		n := atomic.AddInt32(&inflight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&inflight, -1)
		return nil
	}

	a := newSite(config.StatusValid)
	b := newSite(config.StatusValid)
	b.Name = "example-copy"

	var wg sync.WaitGroup
	for _, site := range []*config.Site{a, b} {
		wg.Add(1)
		go func(site *config.Site) {
			defer wg.Done()
			_, err := f.pipeline.Activate(context.Background(), site)
			assert.NoError(t, err)
		}(site)
	}
	wg.Wait()

	assert.Equal(t, int32(1), peak, "two sites wrote the same live path at once")
	assert.Len(t, f.driver.Writes(), 2)
	assert.Zero(t, f.pipeline.paths.size())
}

func TestRender(t *testing.T) {
	t.Run("assemble only", func(t *testing.T) {
		f := newFixture()
		site := newSite(config.StatusReady)
		site.SSLEnabled = true

		report, err := f.pipeline.Render(context.Background(), site, false)
		require.NoError(t, err)
		assert.Equal(t, StateAssembled, report.State)
		assert.Contains(t, report.Candidate, "server_name example.com;")
		assert.Zero(t, f.validator.callCount())
		assert.Zero(t, f.certs.calls)
		assert.Empty(t, f.driver.Writes())
		assert.Nil(t, site.SSL, "render must not modify the site")
	})

	t.Run("with check", func(t *testing.T) {
		f := newFixture()
		report, err := f.pipeline.Render(context.Background(), newSite(config.StatusValid), true)
		require.NoError(t, err)
		assert.Equal(t, StateValidated, report.State)
		assert.Equal(t, 1, f.validator.callCount())
	})

	t.Run("check fails", func(t *testing.T) {
		f := newFixture()
		f.validator.ok = false
		f.validator.diag = "nginx: [emerg] bad"

		site := newSite(config.StatusValid)
		report, err := f.pipeline.Render(context.Background(), site, true)
		require.Error(t, err)
		assert.Equal(t, StateFailed, report.State)
		assert.Equal(t, config.StatusValid, site.Status)
		assert.Empty(t, f.driver.Writes())
	})
}

func TestState(t *testing.T) {
	assert.Equal(t, "certificate_checked", StateCertificateChecked.String())
	assert.Equal(t, "unknown", State(42).String())
	assert.True(t, StateReloaded.Terminal())
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StateCommitted.Terminal())
}
