package cli

import (
	"github.com/spf13/cobra"

	"github.com/ksyq12/sitectl/internal/output"
)

var renderCheck bool

var renderCmd = &cobra.Command{
	Use:   "render <name>",
	Short: "Print the configuration a site would activate with",
	Long: `Assemble a site's configuration and print it without committing it.
--check also runs it through nginx -t. The site record is not modified.

Examples:
  sitectl render blog
  sitectl render blog --check`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().BoolVar(&renderCheck, "check", false, "Validate the configuration with nginx -t")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	svc, err := loadServices()
	if err != nil {
		return err
	}
	site, err := lookupSite(svc.cfg, args[0])
	if err != nil {
		return err
	}

	report, renderErr := svc.pipeline.Render(commandContext(cmd), site, renderCheck)

	if jsonOutput {
		res := struct {
			reportResult
			Config string `json:"config,omitempty"`
		}{newReportResult(report), report.Candidate}
		if err := output.JSON(res); err != nil {
			return err
		}
		return renderErr
	}

	if report.Candidate != "" {
		output.Raw(report.Candidate)
	}
	if renderErr != nil {
		printReport(report)
		return renderErr
	}
	if renderCheck {
		output.Success("Configuration for %s is valid", site.Name)
	}
	return nil
}
