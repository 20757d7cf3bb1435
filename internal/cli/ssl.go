package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ksyq12/sitectl/internal/output"
)

var sslCmd = &cobra.Command{
	Use:   "ssl",
	Short: "SSL certificate management",
	Long:  `Issue certificates for sites and inspect the managed certificates.`,
}

var sslIssueCmd = &cobra.Command{
	Use:   "issue <name>",
	Short: "Issue the certificate of a site",
	Long: `Enable SSL on a site and issue its certificate now, without activating
the site. The certificate provider and paths are recorded on the site.

Examples:
  sitectl ssl issue blog
  sitectl ssl issue blog && sitectl activate blog`,
	Args: cobra.ExactArgs(1),
	RunE: runSSLIssue,
}

var sslStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show SSL certificate status",
	Long: `Show the SSL material of every site with SSL enabled, and the
certificates certbot manages.

Examples:
  sitectl ssl status`,
	RunE: runSSLStatus,
}

func init() {
	sslCmd.AddCommand(sslIssueCmd)
	sslCmd.AddCommand(sslStatusCmd)

	rootCmd.AddCommand(sslCmd)
}

func runSSLIssue(cmd *cobra.Command, args []string) error {
	if err := deps.RootChecker.RequireRoot(); err != nil {
		return err
	}

	svc, err := loadServices()
	if err != nil {
		return err
	}
	site, err := lookupSite(svc.cfg, args[0])
	if err != nil {
		return err
	}

	site.SSLEnabled = true
	output.Info("Issuing SSL certificate for %s...", site.Domain)
	if stageErr := svc.certs.IssueCertificate(commandContext(cmd), site); stageErr != nil {
		output.Diagnostics("output", stageErr.Diagnostics)
		return stageErr
	}

	if err := saveConfig(svc.cfg); err != nil {
		output.Warn("Certificate issued but config save failed: %v", err)
	}

	if jsonOutput {
		return output.JSON(map[string]interface{}{
			"success":   true,
			"site":      site.Name,
			"provider":  site.SSL.Client.Provider,
			"cert_path": site.SSL.Paths.Certificate,
			"key_path":  site.SSL.Paths.Key,
		})
	}

	output.Success("SSL certificate issued for %s", site.Domain)
	output.Print("  Certificate: %s", site.SSL.Paths.Certificate)
	output.Print("  Private Key: %s", site.SSL.Paths.Key)
	output.Info("Run 'sitectl activate %s' to serve it", site.Name)
	return nil
}

type sslStatusItem struct {
	Site        string `json:"site"`
	Domain      string `json:"domain"`
	Provider    string `json:"provider,omitempty"`
	Certificate string `json:"certificate,omitempty"`
	Present     bool   `json:"present"`
}

type sslStatusReport struct {
	Sites   []sslStatusItem `json:"sites"`
	Certbot []string        `json:"certbot,omitempty"`
}

func runSSLStatus(cmd *cobra.Command, args []string) error {
	svc, err := loadServices()
	if err != nil {
		return err
	}

	report := sslStatusReport{Sites: []sslStatusItem{}}
	for _, site := range svc.cfg.ListSites() {
		if !site.SSLEnabled {
			continue
		}
		item := sslStatusItem{Site: site.Name, Domain: site.Domain}
		if site.SSL.IsSet() {
			item.Provider = site.SSL.Client.Provider
			item.Certificate = site.SSL.Paths.Certificate
			if _, err := os.Stat(item.Certificate); err == nil {
				item.Present = true
			}
		}
		report.Sites = append(report.Sites, item)
	}

	if svc.certbot.IsInstalled() {
		names, err := svc.certbot.List(commandContext(cmd))
		if err != nil {
			output.Warn("Could not list certbot certificates: %v", err)
		}
		report.Certbot = names
	}

	if jsonOutput {
		return output.JSON(report)
	}

	if len(report.Sites) == 0 {
		output.Info("No sites with SSL enabled")
	} else {
		rows := make([][]string, 0, len(report.Sites))
		for _, item := range report.Sites {
			provider := item.Provider
			if provider == "" {
				provider = "(not issued)"
			}
			rows = append(rows, []string{item.Site, item.Domain, provider, yesNo(item.Present), item.Certificate})
		}
		output.Table([]string{"NAME", "DOMAIN", "PROVIDER", "PRESENT", "CERTIFICATE"}, rows)
	}

	if len(report.Certbot) > 0 {
		output.Print("")
		output.Print("Certificates managed by certbot:")
		for _, name := range report.Certbot {
			output.Print("  - %s", name)
		}
	}
	return nil
}

