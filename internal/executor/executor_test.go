package executor

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSystemExecutor_Run(t *testing.T) {
	exec := NewSystemExecutor()
	ctx := context.Background()

	t.Run("echo command", func(t *testing.T) {
		res, err := exec.Run(ctx, "echo", "hello")
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if string(res.Stdout) != "hello\n" {
			t.Errorf("expected 'hello\\n', got '%s'", string(res.Stdout))
		}
		if res.ExitCode != 0 {
			t.Errorf("expected exit code 0, got %d", res.ExitCode)
		}
	})

	t.Run("separate streams and exit code", func(t *testing.T) {
		res, err := exec.Run(ctx, "sh", "-c", "echo out; echo err 1>&2; exit 3")
		if err == nil {
			t.Fatal("expected error for non-zero exit")
		}
		if res == nil {
			t.Fatal("expected result for a process that ran")
		}
		if res.ExitCode != 3 {
			t.Errorf("expected exit code 3, got %d", res.ExitCode)
		}
		if string(res.Stdout) != "out\n" || string(res.Stderr) != "err\n" {
			t.Errorf("unexpected streams: stdout=%q stderr=%q", res.Stdout, res.Stderr)
		}
		if res.Output() != "out\nerr" {
			t.Errorf("unexpected combined output %q", res.Output())
		}
	})

	t.Run("timeout", func(t *testing.T) {
		short := NewSystemExecutorWithTimeout(50 * time.Millisecond)
		_, err := short.Run(ctx, "sleep", "5")
		if !errors.Is(err, ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})

	t.Run("nonexistent command", func(t *testing.T) {
		_, err := exec.Run(ctx, "nonexistent-command-xyz-12345")
		if err == nil {
			t.Error("expected error for nonexistent command")
		}
	})
}

func TestSystemExecutor_LookPath(t *testing.T) {
	exec := NewSystemExecutor()

	t.Run("find sh", func(t *testing.T) {
		path, err := exec.LookPath("sh")
		if err != nil {
			t.Fatalf("LookPath failed: %v", err)
		}
		if path == "" {
			t.Error("expected non-empty path")
		}
	})

	t.Run("nonexistent command", func(t *testing.T) {
		_, err := exec.LookPath("nonexistent-command-xyz-12345")
		if err == nil {
			t.Error("expected error for nonexistent command")
		}
	})
}

func TestResult_Output(t *testing.T) {
	tests := []struct {
		name string
		res  *Result
		want string
	}{
		{"nil", nil, ""},
		{"stdout only", &Result{Stdout: []byte("a\n")}, "a"},
		{"stderr only", &Result{Stderr: []byte("b\n")}, "b"},
		{"both", &Result{Stdout: []byte("a"), Stderr: []byte("b")}, "a\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.res.Output(); got != tt.want {
				t.Errorf("Output() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMockExecutor_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("default behavior", func(t *testing.T) {
		mock := &MockExecutor{}
		res, err := mock.Run(ctx, "test", "arg1", "arg2")
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if res.Output() != "" {
			t.Errorf("expected empty output, got '%s'", res.Output())
		}
		if mock.CallCount() != 1 {
			t.Errorf("expected 1 call, got %d", mock.CallCount())
		}
		if mock.Calls[0].Name != "test" {
			t.Errorf("expected command 'test', got '%s'", mock.Calls[0].Name)
		}
	})

	t.Run("failure helper", func(t *testing.T) {
		mock := &MockExecutor{
			RunFunc: func(name string, args ...string) (*Result, error) {
				return Failure(1, "", "error output")
			},
		}
		res, err := mock.Run(ctx, "test")
		if err == nil {
			t.Error("expected error")
		}
		if res.ExitCode != 1 || res.Output() != "error output" {
			t.Errorf("unexpected result: %+v", res)
		}
	})

	t.Run("calls to", func(t *testing.T) {
		mock := &MockExecutor{}
		_, _ = mock.Run(ctx, "nginx", "-t")
		_, _ = mock.Run(ctx, "systemctl", "reload", "nginx")
		_, _ = mock.Run(ctx, "nginx", "-s", "reload")

		if n := len(mock.CallsTo("nginx")); n != 2 {
			t.Errorf("expected 2 nginx calls, got %d", n)
		}
	})
}

func TestMockExecutor_LookPath(t *testing.T) {
	t.Run("default behavior", func(t *testing.T) {
		mock := &MockExecutor{}
		path, err := mock.LookPath("certbot")
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if path != "/usr/bin/certbot" {
			t.Errorf("expected '/usr/bin/certbot', got '%s'", path)
		}
	})

	t.Run("custom function", func(t *testing.T) {
		mock := &MockExecutor{
			LookPathFunc: func(file string) (string, error) {
				if file == "certbot" {
					return "/usr/local/bin/certbot", nil
				}
				return "", errors.New("not found")
			},
		}

		_, err := mock.LookPath("unknown")
		if err == nil {
			t.Error("expected error for unknown command")
		}
	})
}
