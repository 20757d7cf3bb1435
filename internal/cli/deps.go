package cli

import (
	"os"
	"os/exec"

	"github.com/ksyq12/sitectl/internal/app"
	"github.com/ksyq12/sitectl/internal/config"
	"github.com/ksyq12/sitectl/internal/driver"
	"github.com/ksyq12/sitectl/internal/executor"
	"github.com/ksyq12/sitectl/internal/input"
	"github.com/ksyq12/sitectl/internal/pipeline"
	"github.com/ksyq12/sitectl/internal/platform"
	"github.com/ksyq12/sitectl/internal/ssl"
	"github.com/ksyq12/sitectl/internal/validator"
)

// Dependencies aggregates all CLI external dependencies for testability
type Dependencies struct {
	ConfigLoader     ConfigLoader
	PlatformDetector PlatformDetector
	DriverFactory    DriverFactory
	Executor         executor.CommandExecutor
	RootChecker      RootChecker
	StdinReader      input.Reader
	EditorRunner     EditorRunner
}

// ConfigLoader handles configuration loading and saving
type ConfigLoader interface {
	Load() (*config.Config, error)
	Save(cfg *config.Config) error
}

// PlatformDetector resolves the nginx paths, honouring a sites directory override
type PlatformDetector interface {
	Resolve(sitesDir string) (*platform.Paths, error)
}

// DriverFactory creates the web server driver
type DriverFactory interface {
	Create(paths *platform.Paths, settings config.Settings, exec executor.CommandExecutor) (driver.Driver, error)
}

// RootChecker checks root privileges
type RootChecker interface {
	RequireRoot() error
}

// EditorRunner opens a file in an interactive editor
type EditorRunner interface {
	Edit(path string) error
}

// Package-level dependencies (can be overridden for testing)
var deps = defaultDeps()

func defaultDeps() *Dependencies {
	return &Dependencies{
		ConfigLoader:     &realConfigLoader{},
		PlatformDetector: &realPlatformDetector{},
		DriverFactory:    &realDriverFactory{},
		Executor:         executor.NewSystemExecutor(),
		RootChecker:      &realRootChecker{},
		StdinReader:      input.NewStdinReader(),
		EditorRunner:     &realEditorRunner{},
	}
}

// SetDeps replaces the package dependencies (for testing)
func SetDeps(d *Dependencies) {
	deps = d
}

// GetDeps returns the current dependencies (for testing)
func GetDeps() *Dependencies {
	return deps
}

type realConfigLoader struct{}

func (r *realConfigLoader) Load() (*config.Config, error) {
	if configFile != "" {
		cfg, err := config.LoadFile(configFile)
		if err != nil {
			return nil, err
		}
		if err := cfg.Settings.ApplyEnv(""); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return config.Load()
}

func (r *realConfigLoader) Save(cfg *config.Config) error {
	if configFile != "" {
		return cfg.SaveFile(configFile)
	}
	return cfg.Save()
}

type realPlatformDetector struct{}

func (r *realPlatformDetector) Resolve(sitesDir string) (*platform.Paths, error) {
	return platform.Resolve(sitesDir)
}

type realDriverFactory struct{}

func (r *realDriverFactory) Create(paths *platform.Paths, settings config.Settings, exec executor.CommandExecutor) (driver.Driver, error) {
	drv := driver.NewNginxWithPaths(paths.Available, paths.Enabled, exec)
	drv.SetBinary(settings.NginxBinary)
	return drv, nil
}

type realRootChecker struct{}

func (r *realRootChecker) RequireRoot() error {
	if os.Geteuid() != 0 {
		return errRootRequired
	}
	return nil
}

type realEditorRunner struct{}

func (r *realEditorRunner) Edit(path string) error {
	editor := getEditor()
	editorPath, err := exec.LookPath(editor)
	if err != nil {
		return errEditorNotFound(editor)
	}
	c := exec.Command(editorPath, path)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	return c.Run()
}

// services are the activation components built from the loaded settings
type services struct {
	cfg       *config.Config
	paths     *platform.Paths
	exec      executor.CommandExecutor
	driver    driver.Driver
	certs     *ssl.Orchestrator
	certbot   *ssl.CertbotIssuer
	apps      *app.Registry
	validator *validator.NginxValidator
	pipeline  *pipeline.Pipeline
}

// loadServices loads the config and wires the activation pipeline from its settings
func loadServices() (*services, error) {
	cfg, err := deps.ConfigLoader.Load()
	if err != nil {
		return nil, errLoadConfig(err)
	}
	s := cfg.Settings

	paths, err := deps.PlatformDetector.Resolve(s.SitesDir)
	if err != nil {
		return nil, err
	}

	run := deps.Executor
	if sys, ok := run.(*executor.SystemExecutor); ok {
		sys.Timeout = s.Timeout
	}

	drv, err := deps.DriverFactory.Create(paths, s, run)
	if err != nil {
		return nil, err
	}

	certbot := ssl.NewCertbotIssuer(run, s.CertbotBinary)
	certs := ssl.NewOrchestrator(s.CertDir, s.DefaultEmail)
	certs.Register(ssl.ProviderDefault, certbot)
	certs.Register(ssl.ProviderCertbot, certbot)
	certs.Register(ssl.ProviderLego, ssl.NewLegoIssuer(s.ACMEDirectory, s.ACMEAccounts))

	apps := app.NewRegistry(run)

	vopts := []validator.Option{validator.WithBinary(s.NginxBinary), validator.WithConfDir(paths.ConfDir)}
	if s.TempDir != "" {
		vopts = append(vopts, validator.WithTempDir(s.TempDir))
	}
	v := validator.NewNginxValidator(run, vopts...)

	return &services{
		cfg:       cfg,
		paths:     paths,
		exec:      run,
		driver:    drv,
		certs:     certs,
		certbot:   certbot,
		apps:      apps,
		validator: v,
		pipeline:  pipeline.New(certs, apps, v, drv, pipeline.WithTimeout(s.Timeout)),
	}, nil
}
