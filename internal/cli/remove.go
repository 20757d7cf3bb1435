package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ksyq12/sitectl/internal/errors"
	"github.com/ksyq12/sitectl/internal/input"
	"github.com/ksyq12/sitectl/internal/output"
)

var (
	forceRemove bool
	noReload    bool
	purgeCert   bool
)

var removeCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm", "delete"},
	Short:   "Remove a site",
	Long: `Remove a site record and its live nginx configuration.

Examples:
  sitectl remove blog
  sitectl rm blog --force --purge-cert`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

func init() {
	removeCmd.Flags().BoolVarP(&forceRemove, "force", "f", false, "Force removal without confirmation")
	removeCmd.Flags().BoolVar(&noReload, "no-reload", false, "Don't reload nginx")
	removeCmd.Flags().BoolVar(&purgeCert, "purge-cert", false, "Also delete the certbot certificate")

	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	name := args[0]

	if err := deps.RootChecker.RequireRoot(); err != nil {
		return err
	}

	svc, err := loadServices()
	if err != nil {
		return err
	}
	site, err := lookupSite(svc.cfg, name)
	if err != nil {
		return err
	}

	if !forceRemove {
		output.Print("Are you sure you want to remove site '%s' (%s)? [y/N]: ", name, site.Domain)
		if !input.Confirm(deps.StdinReader) {
			output.Info("Removal cancelled")
			return nil
		}
	}

	output.Info("Removing nginx configuration...")
	live := true
	if err := svc.driver.Remove(site.Domain); err != nil {
		if !errors.Is(err, errors.ErrLiveConfigNotFound) {
			return fmt.Errorf("failed to remove configuration: %w", err)
		}
		// never activated, or removed by hand
		output.Info("No nginx configuration for %s", site.Domain)
		live = false
	}

	if live && !noReload {
		if err := svc.driver.Reload(commandContext(cmd)); err != nil {
			// the configuration is already gone, keep going
			output.Warn("Reload failed: %v", err)
		}
	}

	if purgeCert && site.SSLEnabled {
		if err := svc.certbot.Delete(commandContext(cmd), site.Domain); err != nil {
			output.Warn("Certificate removal failed: %v", err)
		}
	}

	if err := svc.cfg.RemoveSite(name); err != nil {
		return err
	}
	if err := saveConfig(svc.cfg); err != nil {
		return fmt.Errorf("configuration removed but %w", err)
	}

	return outputResult(
		map[string]interface{}{
			"success": true,
			"site":    name,
			"removed": true,
		},
		"Site %s removed", name,
	)
}
