package template

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed nginx/*.tmpl
var nginxTemplates embed.FS

// Template names
const (
	SiteTemplate    = "site"
	HarnessTemplate = "harness"
)

// SiteData contains the values substituted into the site server block
type SiteData struct {
	ServerNames    []string
	Root           string
	SSLCertificate string
	SSLKey         string
}

// HarnessData contains the values for the validation main configuration
type HarnessData struct {
	ConfDir   string // web server configuration directory, for mime.types
	Candidate string
}

var funcMap = template.FuncMap{
	"join":    strings.Join,
	"replace": strings.ReplaceAll,
}

// getTemplateFS returns the embed.FS for the given web server
func getTemplateFS(webServer string) (embed.FS, error) {
	switch webServer {
	case "nginx":
		return nginxTemplates, nil
	default:
		return embed.FS{}, fmt.Errorf("unknown web server: %s", webServer)
	}
}

// Raw returns the unrendered template text
func Raw(webServer, name string) (string, error) {
	fs, err := getTemplateFS(webServer)
	if err != nil {
		return "", err
	}

	content, err := fs.ReadFile(fmt.Sprintf("%s/%s.conf.tmpl", webServer, name))
	if err != nil {
		return "", fmt.Errorf("template not found: %s/%s", webServer, name)
	}
	return string(content), nil
}

func render(webServer, name string, data interface{}) (string, error) {
	content, err := Raw(webServer, name)
	if err != nil {
		return "", err
	}

	tmpl, err := template.New(name).Funcs(funcMap).Option("missingkey=error").Parse(content)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}

	return buf.String(), nil
}

// RenderSite renders the base server block for a site
func RenderSite(webServer string, data SiteData) (string, error) {
	if len(data.ServerNames) == 0 || data.ServerNames[0] == "" {
		return "", fmt.Errorf("at least one server name is required")
	}
	return render(webServer, SiteTemplate, data)
}

// RenderHarness wraps a candidate server block in a minimal main
// configuration the web server can check on its own
func RenderHarness(webServer string, data HarnessData) (string, error) {
	if data.ConfDir == "" {
		data.ConfDir = "/etc/nginx"
	}
	return render(webServer, HarnessTemplate, data)
}
