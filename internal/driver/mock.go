package driver

import (
	"context"
	"path/filepath"
	"sync"
)

// MockDriver is a test double for Driver interface.
// It is safe for concurrent use.
type MockDriver struct {
	name  string
	paths Paths

	// Function mocks - set these to customize behavior
	WriteFunc     func(domain, content string) error
	RemoveFunc    func(domain string) error
	EnableFunc    func(domain string) error
	DisableFunc   func(domain string) error
	ListFunc      func() ([]string, error)
	IsEnabledFunc func(domain string) (bool, error)
	ReloadFunc    func(ctx context.Context) error

	mu sync.Mutex

	// Call tracking - check these to verify interactions
	WriteCalls     []WriteCall
	RemoveCalls    []string
	EnableCalls    []string
	DisableCalls   []string
	ListCalls      int
	IsEnabledCalls []string
	ReloadCalls    int
}

// WriteCall records arguments passed to Write
type WriteCall struct {
	Domain  string
	Content string
}

// NewMockDriver creates a new MockDriver with default no-op implementations
func NewMockDriver(name, availableDir, enabledDir string) *MockDriver {
	return &MockDriver{
		name: name,
		paths: Paths{
			Available: availableDir,
			Enabled:   enabledDir,
		},
	}
}

// Name returns the driver name
func (m *MockDriver) Name() string {
	return m.name
}

// Paths returns the configured paths
func (m *MockDriver) Paths() Paths {
	return m.paths
}

// ConfigPath returns <available>/<domain>.conf
func (m *MockDriver) ConfigPath(domain string) string {
	return filepath.Join(m.paths.Available, domain+confExt)
}

// Write records the call and invokes the mock function if set
func (m *MockDriver) Write(domain, content string) error {
	m.mu.Lock()
	m.WriteCalls = append(m.WriteCalls, WriteCall{Domain: domain, Content: content})
	m.mu.Unlock()
	if m.WriteFunc != nil {
		return m.WriteFunc(domain, content)
	}
	return nil
}

// Remove records the call and invokes the mock function if set
func (m *MockDriver) Remove(domain string) error {
	m.mu.Lock()
	m.RemoveCalls = append(m.RemoveCalls, domain)
	m.mu.Unlock()
	if m.RemoveFunc != nil {
		return m.RemoveFunc(domain)
	}
	return nil
}

// Enable records the call and invokes the mock function if set
func (m *MockDriver) Enable(domain string) error {
	m.mu.Lock()
	m.EnableCalls = append(m.EnableCalls, domain)
	m.mu.Unlock()
	if m.EnableFunc != nil {
		return m.EnableFunc(domain)
	}
	return nil
}

// Disable records the call and invokes the mock function if set
func (m *MockDriver) Disable(domain string) error {
	m.mu.Lock()
	m.DisableCalls = append(m.DisableCalls, domain)
	m.mu.Unlock()
	if m.DisableFunc != nil {
		return m.DisableFunc(domain)
	}
	return nil
}

// List records the call and invokes the mock function if set
func (m *MockDriver) List() ([]string, error) {
	m.mu.Lock()
	m.ListCalls++
	m.mu.Unlock()
	if m.ListFunc != nil {
		return m.ListFunc()
	}
	return []string{}, nil
}

// IsEnabled records the call and invokes the mock function if set
func (m *MockDriver) IsEnabled(domain string) (bool, error) {
	m.mu.Lock()
	m.IsEnabledCalls = append(m.IsEnabledCalls, domain)
	m.mu.Unlock()
	if m.IsEnabledFunc != nil {
		return m.IsEnabledFunc(domain)
	}
	return false, nil
}

// Reload records the call and invokes the mock function if set
func (m *MockDriver) Reload(ctx context.Context) error {
	m.mu.Lock()
	m.ReloadCalls++
	m.mu.Unlock()
	if m.ReloadFunc != nil {
		return m.ReloadFunc(ctx)
	}
	return nil
}

// Writes returns a copy of the recorded Write calls
func (m *MockDriver) Writes() []WriteCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]WriteCall(nil), m.WriteCalls...)
}

// Reset clears all call tracking
func (m *MockDriver) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WriteCalls = nil
	m.RemoveCalls = nil
	m.EnableCalls = nil
	m.DisableCalls = nil
	m.IsEnabledCalls = nil
	m.ListCalls = 0
	m.ReloadCalls = 0
}
