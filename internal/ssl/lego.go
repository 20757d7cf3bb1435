package ssl

import (
	"context"
	"crypto"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-acme/lego/v4/certcrypto"
	"github.com/go-acme/lego/v4/certificate"
	"github.com/go-acme/lego/v4/challenge/http01"
	"github.com/go-acme/lego/v4/lego"
	"github.com/go-acme/lego/v4/registration"

	"github.com/ksyq12/sitectl/internal/logger"
)

// acmeUser implements registration.User
type acmeUser struct {
	Email        string
	Registration *registration.Resource
	key          crypto.PrivateKey
}

func (u *acmeUser) GetEmail() string                        { return u.Email }
func (u *acmeUser) GetRegistration() *registration.Resource { return u.Registration }
func (u *acmeUser) GetPrivateKey() crypto.PrivateKey        { return u.key }

// webrootProvider answers HTTP-01 challenges by writing the key
// authorization under the site root, where the web server already serves it.
type webrootProvider struct {
	root string
}

func (p *webrootProvider) path(token string) string {
	return filepath.Join(p.root, filepath.FromSlash(http01.ChallengePath(token)))
}

// Present writes the challenge file
func (p *webrootProvider) Present(domain, token, keyAuth string) error {
	path := p.path(token)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create challenge directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(keyAuth), 0644); err != nil {
		return fmt.Errorf("failed to write challenge for %s: %w", domain, err)
	}
	return nil
}

// CleanUp removes the challenge file
func (p *webrootProvider) CleanUp(domain, token, keyAuth string) error {
	if err := os.Remove(p.path(token)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// DefaultRenewBefore is how close to expiry an existing certificate may be
// before LegoIssuer orders a new one
const DefaultRenewBefore = 30 * 24 * time.Hour

// LegoIssuer issues certificates in-process through an ACME directory.
// The ACME account key and registration are kept under accountDir and
// reused, one account per directory host and email.
type LegoIssuer struct {
	directoryURL string
	accountDir   string
	renewBefore  time.Duration
	now          func() time.Time
}

// NewLegoIssuer creates a LegoIssuer for the given ACME directory URL
func NewLegoIssuer(directoryURL, accountDir string) *LegoIssuer {
	if directoryURL == "" {
		directoryURL = lego.LEDirectoryProduction
	}
	return &LegoIssuer{
		directoryURL: directoryURL,
		accountDir:   accountDir,
		renewBefore:  DefaultRenewBefore,
		now:          time.Now,
	}
}

// Issue solves HTTP-01 through the site root and writes the bundled
// certificate and key to the request paths. It does nothing while the
// certificate already at CertPath covers every domain and is not due
// for renewal.
func (l *LegoIssuer) Issue(ctx context.Context, req Request) error {
	if len(req.Domains) == 0 {
		return fmt.Errorf("no domains to issue for")
	}
	if req.Method != "" && req.Method != MethodHTTP01 {
		return &IssueError{Provider: ProviderLego, Err: fmt.Errorf("unsupported challenge method %q", req.Method)}
	}

	if l.current(req) {
		logger.Debug("certificate for %s is current, not ordering a new one", req.Domains[0])
		return nil
	}

	user, err := l.loadAccount(req.Email)
	if err != nil {
		return &IssueError{Provider: ProviderLego, Err: err}
	}

	config := lego.NewConfig(user)
	config.CADirURL = l.directoryURL

	// lego takes no context; the stage deadline still ends the wait
	var certs *certificate.Resource
	err = withContext(ctx, func() error {
		client, err := lego.NewClient(config)
		if err != nil {
			return fmt.Errorf("failed to create lego client: %w", err)
		}
		if err := client.Challenge.SetHTTP01Provider(&webrootProvider{root: req.Webroot}); err != nil {
			return fmt.Errorf("failed to set http01 provider: %w", err)
		}

		if user.Registration == nil {
			reg, err := client.Registration.Register(registration.RegisterOptions{TermsOfServiceAgreed: true})
			if err != nil {
				return fmt.Errorf("failed to register ACME account: %w", err)
			}
			user.Registration = reg
			if err := l.saveRegistration(user); err != nil {
				return err
			}
		}

		certs, err = client.Certificate.Obtain(certificate.ObtainRequest{
			Domains: req.Domains,
			Bundle:  true,
		})
		if err != nil {
			return fmt.Errorf("failed to obtain certificate: %w", err)
		}
		return nil
	})
	if err != nil {
		return &IssueError{Provider: ProviderLego, Err: err}
	}

	return writeCertificate(req, certs.Certificate, certs.PrivateKey)
}

// withContext runs fn and returns early when ctx is done first
func withContext(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// current reports whether the certificate and key at the request paths can
// be kept as they are
func (l *LegoIssuer) current(req Request) bool {
	certPEM, err := os.ReadFile(req.CertPath)
	if err != nil {
		return false
	}
	if _, err := os.Stat(req.KeyPath); err != nil {
		return false
	}
	cert, err := certcrypto.ParsePEMCertificate(certPEM)
	if err != nil {
		return false
	}
	if l.now().Add(l.renewBefore).After(cert.NotAfter) {
		return false
	}

	covered := make(map[string]bool)
	for _, d := range certcrypto.ExtractDomains(cert) {
		covered[strings.ToLower(d)] = true
	}
	for _, d := range req.Domains {
		if !covered[strings.ToLower(d)] {
			return false
		}
	}
	return true
}

// accountPath returns the directory holding the account for email
func (l *LegoIssuer) accountPath(email string) string {
	host := "default"
	if u, err := url.Parse(l.directoryURL); err == nil && u.Host != "" {
		host = u.Host
	}
	name := email
	if name == "" {
		name = "anonymous"
	}
	return filepath.Join(l.accountDir, host, name)
}

// loadAccount reads the stored account for email, creating and storing a
// new key when there is none. Registration is nil until the account has
// been registered with the directory.
func (l *LegoIssuer) loadAccount(email string) (*acmeUser, error) {
	if l.accountDir == "" {
		return nil, fmt.Errorf("no ACME account directory configured")
	}
	dir := l.accountPath(email)
	keyFile := filepath.Join(dir, "account.key")
	user := &acmeUser{Email: email}

	keyPEM, err := os.ReadFile(keyFile)
	switch {
	case err == nil:
		key, err := certcrypto.ParsePEMPrivateKey(keyPEM)
		if err != nil {
			return nil, fmt.Errorf("failed to parse account key %s: %w", keyFile, err)
		}
		user.key = key
	case os.IsNotExist(err):
		key, err := certcrypto.GeneratePrivateKey(certcrypto.EC256)
		if err != nil {
			return nil, fmt.Errorf("failed to generate account key: %w", err)
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create account directory: %w", err)
		}
		if err := os.WriteFile(keyFile, certcrypto.PEMEncode(key), 0600); err != nil {
			return nil, fmt.Errorf("failed to write account key: %w", err)
		}
		user.key = key
		return user, nil
	default:
		return nil, fmt.Errorf("failed to read account key: %w", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "account.json"))
	if os.IsNotExist(err) {
		return user, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read account registration: %w", err)
	}
	var reg registration.Resource
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("failed to parse account registration: %w", err)
	}
	if reg.URI != "" {
		user.Registration = &reg
	}
	return user, nil
}

// saveRegistration stores the registration next to the account key
func (l *LegoIssuer) saveRegistration(user *acmeUser) error {
	data, err := json.MarshalIndent(user.Registration, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode account registration: %w", err)
	}
	path := filepath.Join(l.accountPath(user.Email), "account.json")
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write account registration: %w", err)
	}
	return nil
}

// writeCertificate stores the PEM material at the request paths
func writeCertificate(req Request, certPEM, keyPEM []byte) error {
	if err := os.MkdirAll(filepath.Dir(req.CertPath), 0755); err != nil {
		return fmt.Errorf("failed to create certificate directory: %w", err)
	}
	if err := os.WriteFile(req.CertPath, certPEM, 0644); err != nil {
		return fmt.Errorf("failed to write certificate: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(req.KeyPath), 0755); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}
	if err := os.WriteFile(req.KeyPath, keyPEM, 0600); err != nil {
		return fmt.Errorf("failed to write private key: %w", err)
	}
	return nil
}
