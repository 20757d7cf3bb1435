package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ksyq12/sitectl/internal/config"
	"github.com/ksyq12/sitectl/internal/output"
)

var enableCmd = &cobra.Command{
	Use:   "enable <name>",
	Short: "Enable a site",
	Long: `Enable a site's committed configuration in nginx. The configuration is
checked with nginx -t again before it is enabled.

Examples:
  sitectl enable blog`,
	Args: cobra.ExactArgs(1),
	RunE: runEnable,
}

func init() {
	enableCmd.Flags().BoolVar(&noReload, "no-reload", false, "Don't reload nginx")

	rootCmd.AddCommand(enableCmd)
}

func runEnable(cmd *cobra.Command, args []string) error {
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
	if site.ValidConfig == "" {
		return fmt.Errorf("site %s has no committed configuration. Run: sitectl activate %s --provision", site.Name, site.Name)
	}

	output.Info("Testing configuration...")
	result, err := svc.validator.Validate(commandContext(cmd), site.ValidConfig)
	if err != nil {
		return fmt.Errorf("configuration test could not run: %w", err)
	}
	if !result.OK {
		output.Error("Configuration of %s no longer passes nginx -t", site.Name)
		output.Diagnostics("nginx", result.Diagnostics)
		return fmt.Errorf("configuration test failed")
	}

	output.Info("Enabling site...")
	if err := svc.driver.Enable(site.Domain); err != nil {
		return fmt.Errorf("failed to enable site: %w", err)
	}

	if !noReload {
		output.Info("Reloading nginx...")
		if err := svc.driver.Reload(commandContext(cmd)); err != nil {
			output.Warn("Site enabled but reload failed: %v", err)
		}
	}

	site.Status = config.StatusValid
	site.StatusInfo = ""
	if err := saveConfig(svc.cfg); err != nil {
		output.Warn("Site enabled but config save failed: %v", err)
	}

	return outputResult(
		map[string]interface{}{
			"success": true,
			"site":    site.Name,
			"enabled": true,
		},
		"Site %s enabled", site.Name,
	)
}
