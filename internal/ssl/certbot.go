package ssl

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ksyq12/sitectl/internal/executor"
)

// Cert represents an SSL certificate
type Cert struct {
	Domain   string
	CertPath string
	KeyPath  string
}

// letsencryptDir is the base directory for Let's Encrypt certificates
const letsencryptDir = "/etc/letsencrypt/live"

// GetCertPaths returns the certificate paths for a domain under certDir.
// An empty certDir means the Let's Encrypt live directory.
func GetCertPaths(certDir, domain string) *Cert {
	if certDir == "" {
		certDir = letsencryptDir
	}
	return &Cert{
		Domain:   domain,
		CertPath: filepath.Join(certDir, domain, "fullchain.pem"),
		KeyPath:  filepath.Join(certDir, domain, "privkey.pem"),
	}
}

// CertbotIssuer issues certificates by running the certbot client
type CertbotIssuer struct {
	exec   executor.CommandExecutor
	binary string
}

// NewCertbotIssuer creates a CertbotIssuer. An empty binary means "certbot".
func NewCertbotIssuer(exec executor.CommandExecutor, binary string) *CertbotIssuer {
	if binary == "" {
		binary = "certbot"
	}
	return &CertbotIssuer{exec: exec, binary: binary}
}

// IsInstalled checks if certbot is installed
func (c *CertbotIssuer) IsInstalled() bool {
	_, err := c.exec.LookPath(c.binary)
	return err == nil
}

// Args returns the certbot arguments for a request
func (c *CertbotIssuer) Args(req Request) []string {
	args := []string{
		"certonly",
		"--non-interactive",
		"--agree-tos",
		"--keep-until-expiring",
		"--cert-name", req.Domains[0],
	}

	if req.Email != "" {
		args = append(args, "-m", req.Email)
	} else {
		args = append(args, "--register-unsafely-without-email")
	}

	switch req.Method {
	case MethodNginx:
		args = append(args, "--nginx")
	case MethodStandalone:
		args = append(args, "--standalone")
	default:
		args = append(args, "--webroot", "-w", req.Webroot)
	}

	for _, d := range req.Domains {
		args = append(args, "-d", d)
	}
	return args
}

// Issue runs certbot certonly for the request. A non-zero exit is returned
// as an *IssueError carrying the captured output.
func (c *CertbotIssuer) Issue(ctx context.Context, req Request) error {
	if len(req.Domains) == 0 {
		return fmt.Errorf("no domains to issue for")
	}
	if !c.IsInstalled() {
		return &IssueError{Provider: ProviderCertbot, Err: fmt.Errorf("certbot is not installed. Install it with: apt install certbot")}
	}

	res, err := c.exec.Run(ctx, c.binary, c.Args(req)...)
	if err != nil {
		return &IssueError{Provider: ProviderCertbot, Output: res.Output(), Err: err}
	}
	return nil
}

// Delete removes a certificate managed by certbot
func (c *CertbotIssuer) Delete(ctx context.Context, domain string) error {
	res, err := c.exec.Run(ctx, c.binary, "delete", "--cert-name", domain, "--non-interactive")
	if err != nil {
		return &IssueError{Provider: ProviderCertbot, Output: res.Output(), Err: err}
	}
	return nil
}

// List returns the names of all certificates managed by certbot
func (c *CertbotIssuer) List(ctx context.Context) ([]string, error) {
	res, err := c.exec.Run(ctx, c.binary, "certificates")
	if err != nil {
		return nil, fmt.Errorf("certbot certificates failed: %s", res.Output())
	}

	var names []string
	for _, line := range strings.Split(string(res.Stdout), "\n") {
		if strings.Contains(line, "Certificate Name:") {
			parts := strings.SplitN(line, ":", 2)
			names = append(names, strings.TrimSpace(parts[1]))
		}
	}
	return names, nil
}
