// Package template provides the embedded web server configuration
// templates used to assemble site configurations.
//
// Two templates exist per web server:
//
//	nginx/site.conf.tmpl     base server block with BASIC, SSL, USER and APP sections
//	nginx/harness.conf.tmpl  minimal main configuration used by the validator
//
// The templates are read-only data embedded in the binary, so concurrent
// renders never observe each other.
//
// # Rendering
//
//	text, err := template.RenderSite("nginx", template.SiteData{
//	    ServerNames:    []string{"example.com", "www.example.com"},
//	    Root:           "/var/www/html",
//	    SSLCertificate: "/etc/letsencrypt/live/example.com/fullchain.pem",
//	    SSLKey:         "/etc/letsencrypt/live/example.com/privkey.pem",
//	})
//
// The SSL section is rendered enabled. Toggling it, and filling the USER
// and APP sections, is left to the section package.
package template
