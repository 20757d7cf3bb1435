package cli

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ksyq12/sitectl/internal/config"
	"github.com/ksyq12/sitectl/internal/errors"
	"github.com/ksyq12/sitectl/internal/output"
	"github.com/ksyq12/sitectl/internal/pipeline"
)

// errRootRequired matches errors.ErrRootRequired
var errRootRequired = &errors.SiteError{
	Code:    errors.ErrCodePermission,
	Message: "this operation requires root privileges. Please run with sudo",
}

func errLoadConfig(err error) error {
	return fmt.Errorf("failed to load config: %w", err)
}

func errEditorNotFound(editor string) error {
	return fmt.Errorf("editor not found: %s", editor)
}

// getEditor returns the user's editor, defaulting to vi
func getEditor() string {
	if e := os.Getenv("VISUAL"); e != "" {
		return e
	}
	if e := os.Getenv("EDITOR"); e != "" {
		return e
	}
	return "vi"
}

// commandContext returns the command's context, or a background context
// when the command runs outside Execute
func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

// saveConfig saves the config and returns error instead of just warning
func saveConfig(cfg *config.Config) error {
	if err := deps.ConfigLoader.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// outputResult handles JSON or human-readable output
func outputResult(data interface{}, successMsg string, args ...interface{}) error {
	if jsonOutput {
		return output.JSON(data)
	}
	output.Success(successMsg, args...)
	return nil
}

// lookupSite returns the named site or a not-found error with a hint
func lookupSite(cfg *config.Config, name string) (*config.Site, error) {
	site, err := cfg.GetSite(name)
	if err != nil {
		return nil, fmt.Errorf("%w. Create it first with: sitectl add %s --domain <domain>", err, name)
	}
	return site, nil
}

// validateName checks if a site name is usable as a record key
func validateName(name string) error {
	if name == "" {
		return errors.Validation("name cannot be empty")
	}
	if strings.ContainsAny(name, " /\\") {
		return errors.Validation("name cannot contain spaces or slashes")
	}
	return nil
}

// validateDomain checks if domain is valid
func validateDomain(domain string) error {
	if domain == "" {
		return errors.Validation("domain cannot be empty")
	}
	if strings.Contains(domain, " ") {
		return errors.Validation("domain cannot contain spaces")
	}
	if strings.HasPrefix(domain, "-") || strings.HasSuffix(domain, "-") {
		return errors.Validation("domain cannot start or end with hyphen")
	}
	return nil
}

// validateDomains checks a comma separated domain list
func validateDomains(list string) error {
	for _, d := range strings.Split(list, ",") {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		if err := validateDomain(d); err != nil {
			return err
		}
	}
	return nil
}

// validateRoot checks if root path is valid
func validateRoot(root string) error {
	if root == "" {
		return nil
	}
	if !filepath.IsAbs(root) {
		return errors.Validation(fmt.Sprintf("root path must be absolute: %s", root))
	}
	return nil
}

// validateProxyURL checks if proxy URL is valid
func validateProxyURL(proxyURL string) error {
	if proxyURL == "" {
		return nil
	}
	if !strings.Contains(proxyURL, "://") {
		proxyURL = "http://" + proxyURL
	}
	u, err := url.Parse(proxyURL)
	if err != nil || u.Host == "" {
		return errors.Validation(fmt.Sprintf("invalid proxy URL: %s", proxyURL))
	}
	return nil
}

// reportResult is the JSON form of an activation report
type reportResult struct {
	Site     string            `json:"site"`
	State    string            `json:"state"`
	Skipped  bool              `json:"skipped,omitempty"`
	Success  bool              `json:"success"`
	Errors   map[string]string `json:"errors,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
}

func newReportResult(r *pipeline.Report) reportResult {
	res := reportResult{
		Site:    r.Site,
		State:   r.State.String(),
		Skipped: r.Skipped,
		Success: r.OK(),
	}
	if r.Errors.Len() > 0 {
		res.Errors = make(map[string]string)
		for stage, msg := range r.Errors.ByStage() {
			res.Errors[string(stage)] = msg
		}
	}
	for _, w := range r.Warnings() {
		res.Warnings = append(res.Warnings, string(w.Stage))
	}
	return res
}

// printReport prints an activation report in human-readable form
func printReport(r *pipeline.Report) {
	switch {
	case r.Skipped:
		output.Info("%s: not provisioned yet, skipped", r.Site)
		return
	case !r.OK():
		output.Error("%s: activation failed", r.Site)
	case len(r.Warnings()) > 0:
		output.Warn("%s: activated with warnings (%s)", r.Site, r.State)
	default:
		output.Success("%s: activated", r.Site)
	}

	for _, e := range r.Errors.Errors() {
		msg := e.Message
		if e.Err != nil {
			msg = fmt.Sprintf("%s: %v", msg, e.Err)
		}
		if e.Fatal {
			output.Error("  %s: %s", e.Stage, msg)
		} else {
			output.Warn("  %s: %s", e.Stage, msg)
		}
		output.Diagnostics("output", e.Diagnostics)
	}
}
