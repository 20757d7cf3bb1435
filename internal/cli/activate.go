package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ksyq12/sitectl/internal/config"
	"github.com/ksyq12/sitectl/internal/logger"
	"github.com/ksyq12/sitectl/internal/output"
	"github.com/ksyq12/sitectl/internal/pipeline"
)

var (
	activateAll  bool
	provisionNew bool
	concurrency  int
)

var activateCmd = &cobra.Command{
	Use:   "activate [name...]",
	Short: "Activate site configurations",
	Long: `Run the activation pipeline for the named sites, or every site with --all.

Each attempt issues the certificate when SSL is enabled, refreshes the
application, assembles the configuration and checks it with nginx -t. Only
a configuration that passes the check is written to the live path, after
which nginx is reloaded. Sites that are not provisioned yet (status ready)
are skipped unless --provision is given.

Examples:
  sitectl activate blog
  sitectl activate blog shop --provision
  sitectl activate --all --concurrency 8`,
	RunE: runActivate,
}

func init() {
	activateCmd.Flags().BoolVar(&activateAll, "all", false, "Activate every site")
	activateCmd.Flags().BoolVar(&provisionNew, "provision", false, "Provision ready sites before activating them")
	activateCmd.Flags().IntVarP(&concurrency, "concurrency", "c", 0, "Sites activated in parallel (default from settings)")

	rootCmd.AddCommand(activateCmd)
}

func runActivate(cmd *cobra.Command, args []string) error {
	if activateAll == (len(args) > 0) {
		return fmt.Errorf("give site names or --all")
	}
	if err := deps.RootChecker.RequireRoot(); err != nil {
		return err
	}

	svc, err := loadServices()
	if err != nil {
		return err
	}

	var sites []*config.Site
	if activateAll {
		sites = svc.cfg.ListSites()
	} else {
		for _, name := range args {
			site, err := lookupSite(svc.cfg, name)
			if err != nil {
				return err
			}
			sites = append(sites, site)
		}
	}
	if len(sites) == 0 {
		output.Info("No sites configured")
		return nil
	}

	if provisionNew {
		for _, site := range sites {
			if provision(site) {
				logger.ForSite(site.Name).Info("site provisioned")
			}
		}
	}

	n := concurrency
	if n <= 0 {
		n = svc.cfg.Settings.Concurrency
	}

	var reports []*pipeline.Report
	var actErr error
	if len(sites) == 1 {
		var report *pipeline.Report
		report, actErr = svc.pipeline.Activate(commandContext(cmd), sites[0])
		reports = []*pipeline.Report{report}
	} else {
		reports, actErr = svc.pipeline.ActivateAll(commandContext(cmd), sites, n)
	}

	// Records are saved whatever the outcome: failures carry their status info
	if err := saveConfig(svc.cfg); err != nil {
		output.Warn("Config save failed: %v", err)
	}

	if jsonOutput {
		results := make([]reportResult, 0, len(reports))
		for _, r := range reports {
			results = append(results, newReportResult(r))
		}
		if err := output.JSON(results); err != nil {
			return err
		}
	} else {
		for _, r := range reports {
			printReport(r)
		}
	}

	if actErr != nil {
		failed := 0
		for _, r := range reports {
			if !r.OK() {
				failed++
			}
		}
		return fmt.Errorf("%d of %d site(s) failed to activate", failed, len(reports))
	}
	return nil
}
