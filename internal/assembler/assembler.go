// Package assembler composes the candidate configuration of a site from
// the base template and its SSL, USER and APP sections.
package assembler

import (
	"fmt"

	"github.com/ksyq12/sitectl/internal/config"
	"github.com/ksyq12/sitectl/internal/section"
	"github.com/ksyq12/sitectl/internal/ssl"
	"github.com/ksyq12/sitectl/internal/template"
)

// Section names of the base template
const (
	SectionBasic = "basic"
	SectionSSL   = "ssl"
	SectionUser  = "user"
	SectionApp   = "app"
)

// Assemble renders the base template for the site's web server, toggles
// the SSL section from the site's SSL flag, and fills the USER and APP
// sections. Section errors mean the template itself is malformed.
func Assemble(site *config.Site, appFragment, userFragment string) (string, error) {
	webServer := site.WebServer
	if webServer == "" {
		webServer = config.WebServerNginx
	}

	root := site.Root
	if root == "" {
		root = config.DefaultRoot
	}

	data := template.SiteData{
		ServerNames: site.ServerNames(),
		Root:        root,
	}
	if site.SSL.IsSet() {
		data.SSLCertificate = site.SSL.Paths.Certificate
		data.SSLKey = site.SSL.Paths.Key
	} else {
		cert := ssl.GetCertPaths("", site.Domain)
		data.SSLCertificate = cert.CertPath
		data.SSLKey = cert.KeyPath
	}

	text, err := template.RenderSite(webServer, data)
	if err != nil {
		return "", fmt.Errorf("failed to render base template: %w", err)
	}
	if _, err := section.Get(text, SectionBasic); err != nil {
		return "", err
	}

	if site.SSLEnabled {
		text, err = section.Enable(text, SectionSSL)
	} else {
		text, err = section.Disable(text, SectionSSL)
	}
	if err != nil {
		return "", err
	}

	if text, err = section.Insert(text, SectionUser, userFragment); err != nil {
		return "", err
	}
	if text, err = section.Insert(text, SectionApp, appFragment); err != nil {
		return "", err
	}

	return text, nil
}

// UserFragment returns the USER section of the site's last validated
// configuration, or "" when there is none.
func UserFragment(site *config.Site) string {
	if site.ValidConfig == "" {
		return ""
	}
	fragment, err := section.Get(site.ValidConfig, SectionUser)
	if err != nil {
		return ""
	}
	return fragment
}
