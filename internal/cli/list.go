package cli

import (
	"github.com/spf13/cobra"

	"github.com/ksyq12/sitectl/internal/output"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all sites",
	Long: `List all site records with their status and whether their
configuration is enabled in nginx.

Examples:
  sitectl list
  sitectl ls --json`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

type siteListItem struct {
	Name        string `json:"name"`
	Domain      string `json:"domain"`
	Application string `json:"application"`
	SSL         bool   `json:"ssl"`
	Status      string `json:"status"`
	Enabled     bool   `json:"enabled"`
	Info        string `json:"info,omitempty"`
}

func runList(cmd *cobra.Command, args []string) error {
	svc, err := loadServices()
	if err != nil {
		return err
	}

	items := make([]siteListItem, 0, len(svc.cfg.Sites))
	for _, site := range svc.cfg.ListSites() {
		enabled, err := svc.driver.IsEnabled(site.Domain)
		if err != nil {
			output.Warn("Could not check %s: %v", site.Domain, err)
		}
		items = append(items, siteListItem{
			Name:        site.Name,
			Domain:      site.Domain,
			Application: site.Application,
			SSL:         site.SSLEnabled,
			Status:      site.Status.String(),
			Enabled:     enabled,
			Info:        firstLine(site.StatusInfo),
		})
	}

	if jsonOutput {
		return output.JSON(items)
	}
	if len(items) == 0 {
		output.Info("No sites configured")
		return nil
	}

	headers := []string{"NAME", "DOMAIN", "APP", "SSL", "STATUS", "ENABLED"}
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			item.Name,
			item.Domain,
			item.Application,
			yesNo(item.SSL),
			item.Status,
			yesNo(item.Enabled),
		})
	}
	output.Table(headers, rows)
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func firstLine(s string) string {
	for i, c := range s {
		if c == '\n' {
			return s[:i]
		}
	}
	return s
}
