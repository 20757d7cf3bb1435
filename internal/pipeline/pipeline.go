// Package pipeline activates site configurations.
//
// An activation attempt issues certificates, refreshes the application,
// assembles the candidate configuration, dry-runs it against the web
// server, commits it to the live path and reloads the service:
//
//	start -> certificate_checked -> app_refreshed -> assembled
//	      -> validated -> committed -> reloaded
//
// Any stage may end the attempt in the failed state instead. Nothing is
// written to the live path unless validation succeeded.
//
// Fatal stage errors abort the attempt at once. Non-fatal ones (application
// reload, service reload) are collected and the attempt carries on. All of
// them end up in the attempt's errors.Set, keyed by stage.
//
// Attempts for the same site name are serialized. Attempts for different
// sites may run concurrently, see ActivateAll.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ksyq12/sitectl/internal/app"
	"github.com/ksyq12/sitectl/internal/assembler"
	"github.com/ksyq12/sitectl/internal/config"
	"github.com/ksyq12/sitectl/internal/driver"
	"github.com/ksyq12/sitectl/internal/errors"
	"github.com/ksyq12/sitectl/internal/logger"
	"github.com/ksyq12/sitectl/internal/validator"
)

// CertificateIssuer prepares the SSL material of a site
type CertificateIssuer interface {
	IssueCertificate(ctx context.Context, site *config.Site) *errors.StageError
}

// AssembleFunc composes the candidate configuration of a site
type AssembleFunc func(site *config.Site, appFragment, userFragment string) (string, error)

// Report describes the outcome of one activation attempt
type Report struct {
	Site      string
	State     State
	Skipped   bool   // site was READY, nothing ran
	Candidate string // assembled configuration, if assembly was reached
	Errors    *errors.Set
}

// OK reports whether the attempt committed without a fatal error
func (r *Report) OK() bool {
	return r.State != StateFailed
}

// Warnings returns the non-fatal errors of the attempt
func (r *Report) Warnings() []*errors.StageError {
	return r.Errors.Warnings()
}

// Pipeline runs activation attempts
type Pipeline struct {
	certs     CertificateIssuer
	apps      app.Resolver
	validator validator.Validator
	driver    driver.Driver
	assemble  AssembleFunc
	timeout   time.Duration
	now       func() time.Time
	locks     *keyedMutex // per site name
	paths     *keyedMutex // per live configuration path
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithTimeout bounds every stage that calls out to another process
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.timeout = d }
}

// WithAssembler replaces the config assembler
func WithAssembler(fn AssembleFunc) Option {
	return func(p *Pipeline) { p.assemble = fn }
}

// WithClock sets the clock used for UpdatedAt
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates a Pipeline
func New(certs CertificateIssuer, apps app.Resolver, v validator.Validator, drv driver.Driver, opts ...Option) *Pipeline {
	p := &Pipeline{
		certs:     certs,
		apps:      apps,
		validator: v,
		driver:    drv,
		assemble:  assembler.Assemble,
		timeout:   config.DefaultTimeout,
		now:       time.Now,
		locks:     newKeyedMutex(),
		paths:     newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) stageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.timeout)
}

// attempt carries the state of one activation
type attempt struct {
	site   *config.Site
	report *Report
	log    *logrus.Entry
}

func (a *attempt) enter(s State) {
	a.report.State = s
	log := a.log.WithField("state", s.String())
	if s.Terminal() {
		log.Info("activation finished")
		return
	}
	log.Debug("stage finished")
}

// fail records a fatal error and ends the attempt
func (a *attempt) fail(e *errors.StageError) error {
	e.Fatal = true
	e.Site = a.site.Name
	a.report.Errors.Add(e)
	a.report.State = StateFailed

	a.site.Status = config.StatusError
	a.site.StatusInfo = e.Error()

	a.log.WithField("stage", string(e.Stage)).WithError(e).Error("activation failed")
	return a.report.Errors.Err()
}

// warn records a non-fatal error
func (a *attempt) warn(e *errors.StageError) {
	e.Fatal = false
	e.Site = a.site.Name
	a.report.Errors.Add(e)
	a.log.WithField("stage", string(e.Stage)).WithError(e).Warn("stage failed, continuing")
}

func stageErr(stage errors.Stage, msg string, err error) *errors.StageError {
	return &errors.StageError{Stage: stage, Message: msg, Err: err}
}

// assembleErr reports broken template markers under the section stage
func assembleErr(err error) *errors.StageError {
	if errors.Is(err, errors.ErrSectionNotFound) {
		return stageErr(errors.StageSection, "template section markers are broken", err)
	}
	return stageErr(errors.StageAssemble, "configuration assembly failed", err)
}

// Activate runs one activation attempt for site. The site is updated in
// place: a committed attempt stores the configuration in ValidConfig and
// sets VALID, a failed one sets ERROR and leaves ValidConfig untouched.
// The returned error is the attempt's errors.Set when a fatal error occurred.
func (p *Pipeline) Activate(ctx context.Context, site *config.Site) (*Report, error) {
	unlock := p.locks.Lock(site.Name)
	defer unlock()
	// records sharing a domain share the live file; name lock first, then path
	unlockPath := p.paths.Lock(p.driver.ConfigPath(site.Domain))
	defer unlockPath()

	a := &attempt{
		site:   site,
		report: &Report{Site: site.Name, State: StateStart, Errors: &errors.Set{}},
		log:    logger.ForSite(site.Name),
	}

	if site.Status == config.StatusReady {
		a.log.Info("site is ready, skipping activation")
		a.report.Skipped = true
		return a.report, nil
	}

	if err := ctx.Err(); err != nil {
		return a.report, a.fail(stageErr(errors.StageCertificate, "activation cancelled", err))
	}

	// certificate
	stageCtx, cancel := p.stageContext(ctx)
	certErr := p.certs.IssueCertificate(stageCtx, site)
	cancel()
	if certErr != nil {
		return a.report, a.fail(certErr)
	}
	a.enter(StateCertificateChecked)

	// application
	adapter, err := p.apps.Resolve(site)
	if err != nil {
		return a.report, a.fail(stageErr(errors.StageApplication, "application update failed", err))
	}

	stageCtx, cancel = p.stageContext(ctx)
	err = adapter.Update(stageCtx)
	cancel()
	if err != nil {
		return a.report, a.fail(stageErr(errors.StageApplication, "application update failed", err))
	}

	stageCtx, cancel = p.stageContext(ctx)
	err = adapter.Reload(stageCtx)
	cancel()
	if err != nil {
		a.warn(stageErr(errors.StageApplicationReload, "application reload failed", err))
	}
	a.enter(StateAppRefreshed)

	// assemble
	candidate, err := p.assemble(site, adapter.Read(), assembler.UserFragment(site))
	if err != nil {
		return a.report, a.fail(assembleErr(err))
	}
	a.report.Candidate = candidate
	a.enter(StateAssembled)

	// validate
	stageCtx, cancel = p.stageContext(ctx)
	result, err := p.validator.Validate(stageCtx, candidate)
	cancel()
	if err != nil {
		return a.report, a.fail(stageErr(errors.StageValidation, "configuration check could not run", err))
	}
	if !result.OK {
		e := stageErr(errors.StageValidation, "invalid configuration", nil)
		e.Diagnostics = result.Diagnostics
		return a.report, a.fail(e)
	}
	a.enter(StateValidated)

	// commit
	if err := p.driver.Write(site.Domain, candidate); err != nil {
		return a.report, a.fail(stageErr(errors.StageCommit, "commit failed", err))
	}
	site.ValidConfig = candidate
	site.Status = config.StatusValid
	site.StatusInfo = ""
	site.UpdatedAt = p.now()
	a.enter(StateCommitted)
	a.log.WithField("path", p.driver.ConfigPath(site.Domain)).Info("configuration committed")

	// service reload
	stageCtx, cancel = p.stageContext(ctx)
	err = p.driver.Reload(stageCtx)
	cancel()
	if err != nil {
		e := stageErr(errors.StageServiceReload, "service reload failed", err)
		a.warn(e)
		site.StatusInfo = e.Error()
		return a.report, nil
	}
	a.enter(StateReloaded)

	return a.report, nil
}

// Render assembles and optionally validates the candidate configuration
// without committing it. The site is not modified.
func (p *Pipeline) Render(ctx context.Context, site *config.Site, validate bool) (*Report, error) {
	view := site.Clone()

	report := &Report{Site: site.Name, State: StateStart, Errors: &errors.Set{}}
	failed := func(e *errors.StageError) (*Report, error) {
		e.Fatal = true
		e.Site = site.Name
		report.Errors.Add(e)
		report.State = StateFailed
		return report, report.Errors.Err()
	}

	adapter, err := p.apps.Resolve(view)
	if err != nil {
		return failed(stageErr(errors.StageApplication, "unknown application", err))
	}

	candidate, err := p.assemble(view, adapter.Read(), assembler.UserFragment(view))
	if err != nil {
		return failed(assembleErr(err))
	}
	report.Candidate = candidate
	report.State = StateAssembled

	if !validate {
		return report, nil
	}

	stageCtx, cancel := p.stageContext(ctx)
	defer cancel()
	result, err := p.validator.Validate(stageCtx, candidate)
	if err != nil {
		return failed(stageErr(errors.StageValidation, "configuration check could not run", err))
	}
	if !result.OK {
		e := stageErr(errors.StageValidation, "invalid configuration", nil)
		e.Diagnostics = result.Diagnostics
		return failed(e)
	}
	report.State = StateValidated
	return report, nil
}

// String summarizes the report for logs
func (r *Report) String() string {
	if r.Skipped {
		return fmt.Sprintf("%s: skipped", r.Site)
	}
	return fmt.Sprintf("%s: %s (%d errors)", r.Site, r.State, r.Errors.Len())
}
