package ssl

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ksyq12/sitectl/internal/executor"
)

func hasArg(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}

func TestIsInstalled(t *testing.T) {
	t.Run("certbot installed", func(t *testing.T) {
		mock := &executor.MockExecutor{}
		if !NewCertbotIssuer(mock, "").IsInstalled() {
			t.Error("IsInstalled should return true")
		}
	})

	t.Run("certbot not installed", func(t *testing.T) {
		mock := &executor.MockExecutor{
			LookPathFunc: func(file string) (string, error) {
				return "", errors.New("not found")
			},
		}
		if NewCertbotIssuer(mock, "").IsInstalled() {
			t.Error("IsInstalled should return false")
		}
	})
}

func TestGetCertPaths(t *testing.T) {
	cert := GetCertPaths("", "example.com")

	if cert.Domain != "example.com" {
		t.Errorf("expected domain example.com, got %s", cert.Domain)
	}
	if cert.CertPath != "/etc/letsencrypt/live/example.com/fullchain.pem" {
		t.Errorf("unexpected cert path: %s", cert.CertPath)
	}
	if cert.KeyPath != "/etc/letsencrypt/live/example.com/privkey.pem" {
		t.Errorf("unexpected key path: %s", cert.KeyPath)
	}

	custom := GetCertPaths("/tmp/certs", "example.com")
	if custom.CertPath != "/tmp/certs/example.com/fullchain.pem" {
		t.Errorf("unexpected cert path: %s", custom.CertPath)
	}
}

func TestCertbotArgs(t *testing.T) {
	issuer := NewCertbotIssuer(&executor.MockExecutor{}, "")

	tests := []struct {
		name     string
		req      Request
		contains []string
		absent   []string
	}{
		{
			name:     "webroot",
			req:      Request{Domains: []string{"example.com", "www.example.com"}, Email: "a@example.com", Method: MethodHTTP01, Webroot: "/var/www/html"},
			contains: []string{"certonly", "--keep-until-expiring", "--webroot", "/var/www/html", "a@example.com", "www.example.com"},
			absent:   []string{"--nginx", "--register-unsafely-without-email"},
		},
		{
			name:     "nginx plugin",
			req:      Request{Domains: []string{"example.com"}, Email: "a@example.com", Method: MethodNginx},
			contains: []string{"--nginx"},
			absent:   []string{"--webroot"},
		},
		{
			name:     "standalone",
			req:      Request{Domains: []string{"example.com"}, Method: MethodStandalone},
			contains: []string{"--standalone", "--register-unsafely-without-email"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := issuer.Args(tt.req)
			for _, want := range tt.contains {
				if !hasArg(args, want) {
					t.Errorf("expected %q in %v", want, args)
				}
			}
			for _, unwanted := range tt.absent {
				if hasArg(args, unwanted) {
					t.Errorf("did not expect %q in %v", unwanted, args)
				}
			}
			if args[2] != "--agree-tos" || !hasArg(args, "--cert-name") {
				t.Errorf("unexpected leading args %v", args)
			}
		})
	}
}

func TestCertbotIssue(t *testing.T) {
	ctx := context.Background()
	req := Request{Domains: []string{"example.com"}, Email: "a@example.com", Webroot: "/var/www/html"}

	t.Run("successful issue", func(t *testing.T) {
		mock := &executor.MockExecutor{}
		if err := NewCertbotIssuer(mock, "").Issue(ctx, req); err != nil {
			t.Fatalf("Issue failed: %v", err)
		}
		if len(mock.CallsTo("certbot")) != 1 {
			t.Errorf("expected one certbot call, got %d", mock.CallCount())
		}
	})

	t.Run("custom binary", func(t *testing.T) {
		mock := &executor.MockExecutor{}
		if err := NewCertbotIssuer(mock, "/snap/bin/certbot").Issue(ctx, req); err != nil {
			t.Fatalf("Issue failed: %v", err)
		}
		if len(mock.CallsTo("/snap/bin/certbot")) != 1 {
			t.Error("expected call to custom binary")
		}
	})

	t.Run("certbot not installed", func(t *testing.T) {
		mock := &executor.MockExecutor{
			LookPathFunc: func(file string) (string, error) {
				return "", errors.New("not found")
			},
		}
		if err := NewCertbotIssuer(mock, "").Issue(ctx, req); err == nil {
			t.Error("Issue should fail when certbot not installed")
		}
		if mock.CallCount() != 0 {
			t.Error("certbot should not run when it is not installed")
		}
	})

	t.Run("non-zero exit keeps output", func(t *testing.T) {
		mock := &executor.MockExecutor{
			RunFunc: func(name string, args ...string) (*executor.Result, error) {
				return executor.Failure(1, "Requesting a certificate", "Rate limit exceeded")
			},
		}
		err := NewCertbotIssuer(mock, "").Issue(ctx, req)

		var issueErr *IssueError
		if !errors.As(err, &issueErr) {
			t.Fatalf("expected IssueError, got %v", err)
		}
		if !strings.Contains(issueErr.Output, "Requesting a certificate") || !strings.Contains(issueErr.Output, "Rate limit exceeded") {
			t.Errorf("output not captured: %q", issueErr.Output)
		}
	})
}

func TestCertbotDeleteAndList(t *testing.T) {
	ctx := context.Background()

	mock := &executor.MockExecutor{
		RunFunc: func(name string, args ...string) (*executor.Result, error) {
			if args[0] == "certificates" {
				return &executor.Result{Stdout: []byte("  Certificate Name: example.com\n    Domains: example.com\n  Certificate Name: blog.example.com\n")}, nil
			}
			return &executor.Result{}, nil
		},
	}
	issuer := NewCertbotIssuer(mock, "")

	if err := issuer.Delete(ctx, "example.com"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !hasArg(mock.Calls[0].Args, "delete") {
		t.Errorf("expected delete call, got %v", mock.Calls[0].Args)
	}

	names, err := issuer.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(names) != 2 || names[0] != "example.com" || names[1] != "blog.example.com" {
		t.Errorf("unexpected names %v", names)
	}
}
