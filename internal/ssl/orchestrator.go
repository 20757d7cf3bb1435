package ssl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ksyq12/sitectl/internal/config"
	"github.com/ksyq12/sitectl/internal/errors"
	"github.com/ksyq12/sitectl/internal/logger"
)

// Providers
const (
	ProviderDefault = "default"
	ProviderCertbot = "certbot"
	ProviderLego    = "lego"
)

// Challenge methods
const (
	MethodHTTP01     = "http-01"
	MethodNginx      = "nginx"
	MethodStandalone = "standalone"
)

// Request describes one certificate issuance
type Request struct {
	Domains  []string // first entry is the certificate name
	Email    string
	Method   string
	Webroot  string
	CertPath string
	KeyPath  string
}

// Issuer obtains a certificate for a request
type Issuer interface {
	Issue(ctx context.Context, req Request) error
}

// IssueError is an issuance failure with the client's captured output
type IssueError struct {
	Provider string
	Output   string
	Err      error
}

func (e *IssueError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *IssueError) Unwrap() error {
	return e.Err
}

// Orchestrator makes sure the SSL material a configuration references
// exists before the configuration is generated.
type Orchestrator struct {
	certDir      string
	defaultEmail string
	issuers      map[string]Issuer
}

// NewOrchestrator creates an Orchestrator rooted at certDir with no issuers
func NewOrchestrator(certDir, defaultEmail string) *Orchestrator {
	if certDir == "" {
		certDir = letsencryptDir
	}
	return &Orchestrator{
		certDir:      certDir,
		defaultEmail: defaultEmail,
		issuers:      make(map[string]Issuer),
	}
}

// Register binds an issuer to a provider name
func (o *Orchestrator) Register(provider string, issuer Issuer) {
	o.issuers[provider] = issuer
}

// EnsureIssued fills in the default SSL descriptor when the site has none.
// A descriptor that already names a provider is left untouched, so the
// paths of an issued certificate never move.
func (o *Orchestrator) EnsureIssued(site *config.Site) error {
	if site.SSL.IsSet() {
		if site.SSL.Paths.Certificate == "" || site.SSL.Paths.Key == "" {
			// provider chosen up front, paths still to derive
			cert := GetCertPaths(o.certDir, site.Domain)
			site.SSL.Paths = config.SSLPaths{Certificate: cert.CertPath, Key: cert.KeyPath}
			if site.SSL.Method == "" {
				site.SSL.Method = MethodHTTP01
			}
			return o.mkCertDir(cert.CertPath)
		}
		return nil
	}

	email := site.Owner
	if email == "" {
		email = o.defaultEmail
	}

	cert := GetCertPaths(o.certDir, site.Domain)
	site.SSL = &config.SSLConfig{
		Client: config.SSLClient{Email: email, Provider: ProviderDefault},
		Paths:  config.SSLPaths{Certificate: cert.CertPath, Key: cert.KeyPath},
		Method: MethodHTTP01,
	}
	logger.ForSite(site.Name).WithField("domain", site.Domain).Debug("ssl is enabled for the first time")

	return o.mkCertDir(cert.CertPath)
}

func (o *Orchestrator) mkCertDir(certPath string) error {
	if err := os.MkdirAll(filepath.Dir(certPath), 0755); err != nil {
		return errors.Wrap(errors.ErrCodeSSL, "failed to create certificate directory", err)
	}
	return nil
}

// IssueCertificate runs the issuer of the site's provider when SSL is
// enabled. Failures are returned as a fatal certificate StageError and are
// not retried.
func (o *Orchestrator) IssueCertificate(ctx context.Context, site *config.Site) *errors.StageError {
	if !site.SSLEnabled {
		return nil
	}
	if err := o.EnsureIssued(site); err != nil {
		return errors.NewStageError(errors.StageCertificate, site.Name, "certificate issuance failed", true, err)
	}

	provider := site.SSL.Client.Provider
	issuer, ok := o.issuers[provider]
	if !ok {
		return errors.NewStageError(errors.StageCertificate, site.Name, "certificate issuance failed", true,
			fmt.Errorf("no issuer for provider %q", provider))
	}

	root := site.Root
	if root == "" {
		root = config.DefaultRoot
	}
	req := Request{
		Domains:  site.ServerNames(),
		Email:    site.SSL.Client.Email,
		Method:   site.SSL.Method,
		Webroot:  root,
		CertPath: site.SSL.Paths.Certificate,
		KeyPath:  site.SSL.Paths.Key,
	}

	logger.ForSite(site.Name).WithField("provider", provider).Info("issuing certificate")
	if err := issuer.Issue(ctx, req); err != nil {
		stageErr := errors.NewStageError(errors.StageCertificate, site.Name, "certificate issuance failed", true, err)
		var issueErr *IssueError
		if errors.As(err, &issueErr) {
			stageErr.Diagnostics = issueErr.Output
		}
		return stageErr
	}
	return nil
}
