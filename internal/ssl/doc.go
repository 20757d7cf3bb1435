// Package ssl makes sure the SSL material a site configuration references
// exists before the configuration is generated.
//
// # Descriptor
//
// EnsureIssued fills in a default descriptor the first time a site needs
// one: the owner's email, provider "default", the Let's Encrypt live paths
// derived from the domain, and the http-01 challenge. Once a provider is
// recorded the descriptor is never regenerated.
//
//	/etc/letsencrypt/live/{domain}/fullchain.pem  (certificate chain)
//	/etc/letsencrypt/live/{domain}/privkey.pem    (private key)
//
// # Issuers
//
// The Orchestrator dispatches on the descriptor's provider:
//   - default, certbot: CertbotIssuer runs "certbot certonly" through an
//     executor.CommandExecutor
//   - lego: LegoIssuer talks to the ACME directory in-process and answers
//     HTTP-01 from the site root
//
//	orch := ssl.NewOrchestrator(settings.CertDir, settings.DefaultEmail)
//	certbot := ssl.NewCertbotIssuer(exec, settings.CertbotBinary)
//	orch.Register(ssl.ProviderDefault, certbot)
//	orch.Register(ssl.ProviderCertbot, certbot)
//	orch.Register(ssl.ProviderLego, ssl.NewLegoIssuer(settings.ACMEDirectory, settings.ACMEAccounts))
//
//	if stageErr := orch.IssueCertificate(ctx, site); stageErr != nil {
//	    fmt.Println(stageErr.Diagnostics) // certbot's stdout and stderr
//	}
//
// # Testing
//
// Inject an executor.MockExecutor into NewCertbotIssuer, or register a fake
// Issuer on the Orchestrator.
package ssl
