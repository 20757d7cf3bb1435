package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ksyq12/sitectl/internal/config"
	"github.com/ksyq12/sitectl/internal/output"
)

var disableCmd = &cobra.Command{
	Use:   "disable <name>",
	Short: "Disable a site",
	Long: `Disable a site's configuration in nginx without deleting it. The site's
status becomes disabled; 'sitectl enable' or 'sitectl activate' brings it back.

Examples:
  sitectl disable blog`,
	Args: cobra.ExactArgs(1),
	RunE: runDisable,
}

func init() {
	disableCmd.Flags().BoolVar(&noReload, "no-reload", false, "Don't reload nginx")

	rootCmd.AddCommand(disableCmd)
}

func runDisable(cmd *cobra.Command, args []string) error {
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

	output.Info("Disabling site...")
	if err := svc.driver.Disable(site.Domain); err != nil {
		return fmt.Errorf("failed to disable site: %w", err)
	}

	if !noReload {
		output.Info("Reloading nginx...")
		if err := svc.driver.Reload(commandContext(cmd)); err != nil {
			if rbErr := svc.driver.Enable(site.Domain); rbErr != nil {
				output.Warn("Rollback failed: %v", rbErr)
			}
			return fmt.Errorf("failed to reload nginx: %w", err)
		}
	}

	site.Status = config.StatusDisabled
	if err := saveConfig(svc.cfg); err != nil {
		output.Warn("Site disabled but config save failed: %v", err)
	}

	return outputResult(
		map[string]interface{}{
			"success": true,
			"site":    site.Name,
			"enabled": false,
		},
		"Site %s disabled", site.Name,
	)
}
