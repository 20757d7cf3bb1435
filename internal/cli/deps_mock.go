package cli

import (
	"errors"
	"os"

	"github.com/ksyq12/sitectl/internal/config"
	"github.com/ksyq12/sitectl/internal/driver"
	"github.com/ksyq12/sitectl/internal/executor"
	"github.com/ksyq12/sitectl/internal/input"
	"github.com/ksyq12/sitectl/internal/platform"
)

// MockConfigLoader is a test double for ConfigLoader
type MockConfigLoader struct {
	Cfg       *config.Config
	LoadErr   error
	SaveErr   error
	SaveCalls int
}

func (m *MockConfigLoader) Load() (*config.Config, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	if m.Cfg == nil {
		m.Cfg = config.New()
	}
	return m.Cfg, nil
}

func (m *MockConfigLoader) Save(cfg *config.Config) error {
	m.SaveCalls++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Cfg = cfg
	return nil
}

// MockPlatformDetector is a test double for PlatformDetector
type MockPlatformDetector struct {
	Paths *platform.Paths
	Err   error
}

func (m *MockPlatformDetector) Resolve(sitesDir string) (*platform.Paths, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Paths != nil {
		return m.Paths, nil
	}
	return &platform.Paths{
		ConfDir:   "/etc/nginx",
		Available: "/etc/nginx/sites-available",
		Enabled:   "/etc/nginx/sites-enabled",
	}, nil
}

// MockDriverFactory is a test double for DriverFactory
type MockDriverFactory struct {
	Driver driver.Driver
	Err    error
}

func (m *MockDriverFactory) Create(paths *platform.Paths, settings config.Settings, exec executor.CommandExecutor) (driver.Driver, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Driver != nil {
		return m.Driver, nil
	}
	return driver.NewMockDriver("nginx", paths.Available, paths.Enabled), nil
}

// MockRootChecker is a test double for RootChecker
type MockRootChecker struct {
	IsRoot bool
	Calls  int
}

func (m *MockRootChecker) RequireRoot() error {
	m.Calls++
	if !m.IsRoot {
		return errRootRequired
	}
	return nil
}

// MockEditorRunner is a test double for EditorRunner. Content, when set,
// replaces the file being edited.
type MockEditorRunner struct {
	Content string
	Err     error
	Paths   []string
}

func (m *MockEditorRunner) Edit(path string) error {
	m.Paths = append(m.Paths, path)
	if m.Err != nil {
		return m.Err
	}
	if m.Content == "" {
		return nil
	}
	return os.WriteFile(path, []byte(m.Content), 0600)
}

// MockDependenciesBuilder helps create mock dependencies for tests
type MockDependenciesBuilder struct {
	deps *Dependencies
}

// NewMockDeps creates a new MockDependenciesBuilder with sensible defaults
func NewMockDeps() *MockDependenciesBuilder {
	return &MockDependenciesBuilder{
		deps: &Dependencies{
			ConfigLoader:     &MockConfigLoader{Cfg: config.New()},
			PlatformDetector: &MockPlatformDetector{},
			DriverFactory:    &MockDriverFactory{},
			Executor:         &executor.MockExecutor{},
			RootChecker:      &MockRootChecker{IsRoot: true},
			StdinReader:      input.NewStringReader("y\n"),
			EditorRunner:     &MockEditorRunner{Err: errors.New("no editor in tests")},
		},
	}
}

// WithConfig sets the config for the mock
func (b *MockDependenciesBuilder) WithConfig(cfg *config.Config) *MockDependenciesBuilder {
	b.deps.ConfigLoader = &MockConfigLoader{Cfg: cfg}
	return b
}

// WithConfigLoader sets a custom config loader
func (b *MockDependenciesBuilder) WithConfigLoader(loader ConfigLoader) *MockDependenciesBuilder {
	b.deps.ConfigLoader = loader
	return b
}

// WithDriver sets the driver for the mock
func (b *MockDependenciesBuilder) WithDriver(drv driver.Driver) *MockDependenciesBuilder {
	b.deps.DriverFactory = &MockDriverFactory{Driver: drv}
	return b
}

// WithExecutor sets the process executor
func (b *MockDependenciesBuilder) WithExecutor(exec executor.CommandExecutor) *MockDependenciesBuilder {
	b.deps.Executor = exec
	return b
}

// WithRootAccess sets whether root access is available
func (b *MockDependenciesBuilder) WithRootAccess(isRoot bool) *MockDependenciesBuilder {
	b.deps.RootChecker = &MockRootChecker{IsRoot: isRoot}
	return b
}

// WithStdinInput sets the stdin lines for the mock
func (b *MockDependenciesBuilder) WithStdinInput(lines ...string) *MockDependenciesBuilder {
	b.deps.StdinReader = input.NewStringReader(lines...)
	return b
}

// WithEditor sets the editor runner
func (b *MockDependenciesBuilder) WithEditor(editor EditorRunner) *MockDependenciesBuilder {
	b.deps.EditorRunner = editor
	return b
}

// WithPlatformPaths sets custom platform paths
func (b *MockDependenciesBuilder) WithPlatformPaths(paths *platform.Paths) *MockDependenciesBuilder {
	b.deps.PlatformDetector = &MockPlatformDetector{Paths: paths}
	return b
}

// WithPlatformError sets an error for platform detection
func (b *MockDependenciesBuilder) WithPlatformError(err error) *MockDependenciesBuilder {
	b.deps.PlatformDetector = &MockPlatformDetector{Err: err}
	return b
}

// Build returns the configured Dependencies
func (b *MockDependenciesBuilder) Build() *Dependencies {
	return b.deps
}

// TestHelper provides utilities for CLI tests
type TestHelper struct {
	T interface {
		Helper()
		Cleanup(func())
		TempDir() string
	}
	OldDeps      *Dependencies
	MockDriver   *driver.MockDriver
	MockConfig   *MockConfigLoader
	MockExecutor *executor.MockExecutor
}

// NewTestHelper installs mock dependencies for the duration of a test.
// Validation temp files go to a per-test directory.
func NewTestHelper(t interface {
	Helper()
	Cleanup(func())
	TempDir() string
}) *TestHelper {
	t.Helper()

	cfg := config.New()
	cfg.Settings.TempDir = t.TempDir()

	helper := &TestHelper{
		T:            t,
		OldDeps:      deps,
		MockDriver:   driver.NewMockDriver("nginx", "/etc/nginx/sites-available", "/etc/nginx/sites-enabled"),
		MockConfig:   &MockConfigLoader{Cfg: cfg},
		MockExecutor: &executor.MockExecutor{},
	}

	deps = NewMockDeps().
		WithDriver(helper.MockDriver).
		WithConfigLoader(helper.MockConfig).
		WithExecutor(helper.MockExecutor).
		Build()

	t.Cleanup(func() {
		deps = helper.OldDeps
	})

	return helper
}

// SetRootAccess sets whether root access is available
func (h *TestHelper) SetRootAccess(isRoot bool) {
	deps.RootChecker = &MockRootChecker{IsRoot: isRoot}
}

// SetStdinInput sets the stdin lines
func (h *TestHelper) SetStdinInput(lines ...string) {
	deps.StdinReader = input.NewStringReader(lines...)
}

// SetEditor sets the editor runner
func (h *TestHelper) SetEditor(editor EditorRunner) {
	deps.EditorRunner = editor
}

// AddSite adds a site to the mock config
func (h *TestHelper) AddSite(site *config.Site) {
	h.MockConfig.Cfg.Sites[site.Name] = site
}

// GetConfig returns the current mock config
func (h *TestHelper) GetConfig() *config.Config {
	return h.MockConfig.Cfg
}
