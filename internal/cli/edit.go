package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ksyq12/sitectl/internal/assembler"
	"github.com/ksyq12/sitectl/internal/config"
	"github.com/ksyq12/sitectl/internal/output"
	"github.com/ksyq12/sitectl/internal/section"
)

var editCmd = &cobra.Command{
	Use:   "edit <name>",
	Short: "Edit the custom directives of a site",
	Long: `Open the USER section of a site's committed configuration in an editor,
then activate the site with the edited directives. If the result does not
pass nginx -t, the committed configuration stays as it was.

Uses $VISUAL or $EDITOR, defaulting to vi.

Examples:
  sitectl edit blog
  EDITOR=nano sitectl edit blog`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	rootCmd.AddCommand(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
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
	if site.Status == config.StatusReady || site.ValidConfig == "" {
		return fmt.Errorf("site %s has no committed configuration. Run: sitectl activate %s --provision", site.Name, site.Name)
	}

	current, err := section.Get(site.ValidConfig, assembler.SectionUser)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp("", "sitectl-"+site.Name+"-*.conf")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(current + "\n"); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	tmp.Close()

	output.Info("Opening USER section of %s...", site.Name)
	if err := deps.EditorRunner.Edit(tmp.Name()); err != nil {
		return fmt.Errorf("editor exited with error: %w", err)
	}

	data, err := os.ReadFile(tmp.Name())
	if err != nil {
		return fmt.Errorf("failed to read edited section: %w", err)
	}
	edited := strings.TrimRight(string(data), "\n")
	if edited == current {
		output.Info("No changes")
		return nil
	}

	// Activate a working copy so a rejected edit never reaches ValidConfig
	work := site.Clone()
	work.ValidConfig, err = section.Insert(site.ValidConfig, assembler.SectionUser, edited)
	if err != nil {
		return err
	}

	report, actErr := svc.pipeline.Activate(commandContext(cmd), work)
	if report.OK() {
		*site = *work
	} else {
		site.Status = work.Status
		site.StatusInfo = work.StatusInfo
	}
	if err := saveConfig(svc.cfg); err != nil {
		output.Warn("Config save failed: %v", err)
	}

	if jsonOutput {
		if err := output.JSON(newReportResult(report)); err != nil {
			return err
		}
	} else {
		printReport(report)
	}
	return actErr
}
