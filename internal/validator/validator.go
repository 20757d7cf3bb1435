// Package validator checks candidate configurations against the real web
// server binary before they are committed.
//
// The candidate is wrapped in a minimal main configuration, written to a
// uniquely named file in the temp directory and checked with "nginx -t".
// The live configuration is never touched and the temp file is always
// removed.
package validator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/ksyq12/sitectl/internal/executor"
	"github.com/ksyq12/sitectl/internal/logger"
	"github.com/ksyq12/sitectl/internal/template"
)

// Result is the outcome of a dry-run check
type Result struct {
	OK          bool
	Diagnostics string // captured stdout and stderr
}

// Validator dry-runs a candidate configuration.
// The error is non-nil only when the check itself could not run.
type Validator interface {
	Validate(ctx context.Context, candidate string) (*Result, error)
}

// NginxValidator runs nginx -t against a temp file
type NginxValidator struct {
	exec    executor.CommandExecutor
	binary  string
	tempDir string
	confDir string
}

// Option configures a NginxValidator
type Option func(*NginxValidator)

// WithBinary sets the nginx binary
func WithBinary(binary string) Option {
	return func(v *NginxValidator) {
		if binary != "" {
			v.binary = binary
		}
	}
}

// WithTempDir sets the directory the candidate file is written to
func WithTempDir(dir string) Option {
	return func(v *NginxValidator) {
		if dir != "" {
			v.tempDir = dir
		}
	}
}

// WithConfDir sets the nginx configuration directory used for includes
func WithConfDir(dir string) Option {
	return func(v *NginxValidator) {
		if dir != "" {
			v.confDir = dir
		}
	}
}

// NewNginxValidator creates a NginxValidator
func NewNginxValidator(exec executor.CommandExecutor, opts ...Option) *NginxValidator {
	v := &NginxValidator{
		exec:    exec,
		binary:  "nginx",
		tempDir: os.TempDir(),
		confDir: "/etc/nginx",
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// TempPath returns a collision-free path for one validation attempt
func (v *NginxValidator) TempPath() string {
	return filepath.Join(v.tempDir, fmt.Sprintf("sitectl-%s.conf", uuid.NewString()))
}

// Validate writes the wrapped candidate to a temp file and runs nginx -t -c on it
func (v *NginxValidator) Validate(ctx context.Context, candidate string) (*Result, error) {
	harness, err := template.RenderHarness("nginx", template.HarnessData{
		ConfDir:   v.confDir,
		Candidate: candidate,
	})
	if err != nil {
		return nil, err
	}

	path := v.TempPath()
	if err := os.WriteFile(path, []byte(harness), 0600); err != nil {
		return nil, fmt.Errorf("failed to write validation file: %w", err)
	}
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.Warn("failed to remove validation file %s: %v", path, err)
		}
	}()

	logger.Debug("Validating candidate with %s -t -c %s", v.binary, path)
	res, err := v.exec.Run(ctx, v.binary, "-t", "-c", path)
	if res == nil || errors.Is(err, executor.ErrTimeout) {
		// the check did not complete: binary missing, not executable or timed out
		return nil, fmt.Errorf("failed to run %s: %w", v.binary, err)
	}

	result := &Result{OK: err == nil && res.ExitCode == 0, Diagnostics: res.Output()}
	if err != nil && result.Diagnostics == "" {
		result.Diagnostics = err.Error()
	}
	return result, nil
}
