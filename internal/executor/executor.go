package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// DefaultTimeout bounds every external command unless overridden.
const DefaultTimeout = 2 * time.Minute

// ErrTimeout is returned when a command does not finish within its timeout.
var ErrTimeout = errors.New("command timed out")

// Result holds the outcome of a finished command
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Output returns stdout followed by stderr, separated by a newline when both are present
func (r *Result) Output() string {
	if r == nil {
		return ""
	}
	out := strings.TrimRight(string(r.Stdout), "\n")
	errOut := strings.TrimRight(string(r.Stderr), "\n")
	switch {
	case out == "":
		return errOut
	case errOut == "":
		return out
	default:
		return out + "\n" + errOut
	}
}

// CommandExecutor is an interface for executing system commands
type CommandExecutor interface {
	// Run executes a command and captures its exit code and output streams.
	// A non-nil Result is returned whenever the process ran, even if it
	// exited with a non-zero status; in that case err is also non-nil.
	Run(ctx context.Context, name string, args ...string) (*Result, error)

	// LookPath searches for an executable in the directories named by the PATH
	LookPath(file string) (string, error)
}

// SystemExecutor implements CommandExecutor using os/exec
type SystemExecutor struct {
	Timeout time.Duration
}

// NewSystemExecutor creates a new SystemExecutor with DefaultTimeout
func NewSystemExecutor() *SystemExecutor {
	return &SystemExecutor{Timeout: DefaultTimeout}
}

// NewSystemExecutorWithTimeout creates a SystemExecutor with a custom timeout
func NewSystemExecutorWithTimeout(timeout time.Duration) *SystemExecutor {
	return &SystemExecutor{Timeout: timeout}
}

// Run executes the command, killing it when the timeout or ctx expires
func (e *SystemExecutor) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := &Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}

	if ctx.Err() != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		res.ExitCode = -1
		return res, fmt.Errorf("%s: %w after %s", name, ErrTimeout, e.Timeout)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, fmt.Errorf("%s exited with status %d", name, res.ExitCode)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// LookPath searches for an executable
func (e *SystemExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// MockExecutor is a mock implementation for testing.
// It is safe for concurrent use.
type MockExecutor struct {
	RunFunc      func(name string, args ...string) (*Result, error)
	LookPathFunc func(file string) (string, error)

	mu    sync.Mutex
	Calls []CommandCall
}

// CommandCall records a command execution for verification
type CommandCall struct {
	Name string
	Args []string
}

// Run records the call and invokes the mock function if set
func (m *MockExecutor) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, CommandCall{Name: name, Args: args})
	m.mu.Unlock()

	if m.RunFunc != nil {
		return m.RunFunc(name, args...)
	}
	return &Result{}, nil
}

// LookPath calls the mock function
func (m *MockExecutor) LookPath(file string) (string, error) {
	if m.LookPathFunc != nil {
		return m.LookPathFunc(file)
	}
	return "/usr/bin/" + file, nil
}

// CallCount returns the number of recorded calls
func (m *MockExecutor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// CallsTo returns the recorded calls for a command name
func (m *MockExecutor) CallsTo(name string) []CommandCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []CommandCall
	for _, c := range m.Calls {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Failure builds a Result for a command that exited with the given status
func Failure(code int, stdout, stderr string) (*Result, error) {
	return &Result{ExitCode: code, Stdout: []byte(stdout), Stderr: []byte(stderr)},
		fmt.Errorf("exited with status %d", code)
}
