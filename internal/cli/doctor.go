package cli

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ksyq12/sitectl/internal/app"
	"github.com/ksyq12/sitectl/internal/config"
	"github.com/ksyq12/sitectl/internal/output"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check system status and diagnose issues",
	Long: `Run diagnostic checks on the host and the site records.

Checks:
  - nginx and certbot installation
  - PHP-FPM services used by php sites
  - nginx configuration directories
  - Site status against the live configuration, document roots and certificates

Examples:
  sitectl doctor
  sitectl doctor --json`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// Check statuses
const (
	checkSuccess = "success"
	checkWarning = "warning"
	checkError   = "error"
)

// CheckResult represents a single diagnostic check result
type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// SiteCheck represents the diagnosis of a single site
type SiteCheck struct {
	Name    string        `json:"name"`
	Domain  string        `json:"domain"`
	Status  string        `json:"status"`
	Enabled bool          `json:"enabled"`
	Checks  []CheckResult `json:"checks"`
}

// DoctorReport contains all diagnostic results
type DoctorReport struct {
	SystemRequirements []CheckResult `json:"system_requirements"`
	Configuration      []CheckResult `json:"configuration"`
	Sites              []SiteCheck   `json:"sites"`
}

// HasErrors reports whether any check failed
func (r *DoctorReport) HasErrors() bool {
	all := append(append([]CheckResult{}, r.SystemRequirements...), r.Configuration...)
	for _, s := range r.Sites {
		all = append(all, s.Checks...)
	}
	for _, c := range all {
		if c.Status == checkError {
			return true
		}
	}
	return false
}

var nginxVersionPattern = regexp.MustCompile(`nginx/(\d+\.\d+\.\d+)`)

func runDoctor(cmd *cobra.Command, args []string) error {
	svc, err := loadServices()
	if err != nil {
		return err
	}

	report := &DoctorReport{
		SystemRequirements: checkSystemRequirements(commandContext(cmd), svc),
		Configuration:      checkConfiguration(svc),
		Sites:              checkSites(svc),
	}

	if jsonOutput {
		return output.JSON(report)
	}
	displayDoctorResults(report)
	return nil
}

func checkSystemRequirements(ctx context.Context, svc *services) []CheckResult {
	var results []CheckResult
	s := svc.cfg.Settings

	if _, err := svc.exec.LookPath(s.NginxBinary); err == nil {
		version := "unknown"
		if res, err := svc.exec.Run(ctx, s.NginxBinary, "-v"); err == nil {
			// nginx prints its version on stderr
			if m := nginxVersionPattern.FindStringSubmatch(res.Output()); len(m) >= 2 {
				version = m[1]
			}
		}
		results = append(results, CheckResult{checkSuccess, fmt.Sprintf("nginx installed (%s)", version)})
	} else {
		results = append(results, CheckResult{checkError, "nginx not installed"})
	}

	needsSSL := false
	phpVersions := map[string]bool{}
	for _, site := range svc.cfg.Sites {
		if site.SSLEnabled {
			needsSSL = true
		}
		if site.Application == app.KindPHP || site.Application == app.KindWordPress {
			phpVersions[site.Setting("php_version", app.DefaultPHPVersion)] = true
		}
	}

	if svc.certbot.IsInstalled() {
		results = append(results, CheckResult{checkSuccess, "certbot installed"})
	} else {
		status := checkWarning
		if needsSSL {
			status = checkError
		}
		results = append(results, CheckResult{status, "certbot not installed"})
	}

	versions := make([]string, 0, len(phpVersions))
	for v := range phpVersions {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	for _, v := range versions {
		if isPHPFPMRunning(ctx, svc, v) {
			results = append(results, CheckResult{checkSuccess, fmt.Sprintf("PHP-FPM %s running", v)})
		} else {
			results = append(results, CheckResult{checkError, fmt.Sprintf("PHP-FPM %s not detected", v)})
		}
	}

	return results
}

func isPHPFPMRunning(ctx context.Context, svc *services, version string) bool {
	serviceName := fmt.Sprintf("php%s-fpm", version)

	if res, err := svc.exec.Run(ctx, "systemctl", "is-active", serviceName); err == nil {
		if strings.TrimSpace(string(res.Stdout)) == "active" {
			return true
		}
	}

	socketPath := fmt.Sprintf("/run/php/php%s-fpm.sock", version)
	if _, err := os.Stat(socketPath); err == nil {
		return true
	}
	return false
}

func checkConfiguration(svc *services) []CheckResult {
	var results []CheckResult

	if configFile == "" {
		if path, err := config.ConfigPath(); err == nil {
			if _, err := os.Stat(path); err == nil {
				display := strings.Replace(path, os.Getenv("HOME"), "~", 1)
				results = append(results, CheckResult{checkSuccess, fmt.Sprintf("Site records found (%s)", display)})
			} else {
				results = append(results, CheckResult{checkWarning, "Site records file not found, no sites added yet"})
			}
		}
	}

	dirs := []struct{ label, path string }{
		{"nginx configuration directory", svc.paths.ConfDir},
		{"Sites available directory", svc.paths.Available},
	}
	if !svc.paths.InPlace() {
		dirs = append(dirs, struct{ label, path string }{"Sites enabled directory", svc.paths.Enabled})
	}
	for _, d := range dirs {
		if _, err := os.Stat(d.path); err == nil {
			results = append(results, CheckResult{checkSuccess, fmt.Sprintf("%s exists (%s)", d.label, d.path)})
		} else {
			results = append(results, CheckResult{checkError, fmt.Sprintf("%s missing (%s)", d.label, d.path)})
		}
	}

	return results
}

func checkSites(svc *services) []SiteCheck {
	checks := []SiteCheck{}

	for _, site := range svc.cfg.ListSites() {
		sc := SiteCheck{
			Name:   site.Name,
			Domain: site.Domain,
			Status: site.Status.String(),
		}
		if enabled, err := svc.driver.IsEnabled(site.Domain); err == nil {
			sc.Enabled = enabled
		}

		add := func(status, msg string) { sc.Checks = append(sc.Checks, CheckResult{status, msg}) }

		switch site.Status {
		case config.StatusReady:
			add(checkSuccess, "not provisioned")
			checks = append(checks, sc)
			continue
		case config.StatusError:
			add(checkError, "last activation failed: "+firstLine(site.StatusInfo))
		case config.StatusValid:
			if !sc.Enabled {
				add(checkWarning, "valid but not enabled in nginx")
			}
		case config.StatusDisabled, config.StatusSuspend, config.StatusExpired:
			if sc.Enabled {
				add(checkWarning, fmt.Sprintf("%s but still enabled in nginx", site.Status))
			}
		}

		if site.Root != "" {
			if _, err := os.Stat(site.Root); os.IsNotExist(err) {
				add(checkWarning, "document root missing")
			}
		}

		if site.SSLEnabled && site.SSL.IsSet() {
			for _, p := range []string{site.SSL.Paths.Certificate, site.SSL.Paths.Key} {
				if p == "" {
					continue
				}
				if _, err := os.Stat(p); os.IsNotExist(err) {
					add(checkError, "SSL material missing: "+p)
				}
			}
		}

		if len(sc.Checks) == 0 {
			state := "disabled"
			if sc.Enabled {
				state = "enabled"
			}
			add(checkSuccess, fmt.Sprintf("%s, %s", site.Status, state))
		}
		checks = append(checks, sc)
	}

	return checks
}

func displayDoctorResults(report *DoctorReport) {
	output.Print("Checking system requirements...")
	for _, check := range report.SystemRequirements {
		displayCheck(check)
	}
	output.Print("")

	output.Print("Checking configuration...")
	for _, check := range report.Configuration {
		displayCheck(check)
	}
	output.Print("")

	if len(report.Sites) == 0 {
		output.Print("No sites configured")
	} else {
		output.Print("Checking sites...")
		for _, site := range report.Sites {
			for _, check := range site.Checks {
				displayCheck(CheckResult{check.Status, fmt.Sprintf("%s - %s", site.Name, check.Message)})
			}
		}
	}
	output.Print("")

	if report.HasErrors() {
		output.Error("Problems found, see the errors above")
		return
	}
	output.Success("No problems found")
}

func displayCheck(check CheckResult) {
	switch check.Status {
	case checkSuccess:
		output.Success("%s", check.Message)
	case checkWarning:
		output.Warn("%s", check.Message)
	case checkError:
		output.Error("%s", check.Message)
	}
}
