package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ksyq12/sitectl/internal/input"
	"github.com/ksyq12/sitectl/internal/output"
	"github.com/ksyq12/sitectl/internal/section"
)

var sectionCmd = &cobra.Command{
	Use:   "section",
	Short: "Read and change marked sections of a configuration file",
	Long: `Configuration files written by sitectl are divided into named sections
delimited by ` + section.Marker("NAME") + ` lines. A disabled section keeps
its lines, each prefixed with ` + section.DisablePrefix + `.`,
}

var sectionGetCmd = &cobra.Command{
	Use:   "get <file> <section>",
	Short: "Print the interior of a section",
	Args:  cobra.ExactArgs(2),
	RunE:  runSectionGet,
}

var sectionSetCmd = &cobra.Command{
	Use:   "set <file> <section>",
	Short: "Replace the interior of a section with stdin",
	Long: `Replace the interior of a section with the text read from stdin.

Examples:
  echo '    client_max_body_size 64m;' | sitectl section set site.conf user`,
	Args: cobra.ExactArgs(2),
	RunE: runSectionSet,
}

var sectionEnableCmd = &cobra.Command{
	Use:   "enable <file> <section>",
	Short: "Enable a section",
	Args:  cobra.ExactArgs(2),
	RunE:  runSectionToggle(section.Enable, "enabled"),
}

var sectionDisableCmd = &cobra.Command{
	Use:   "disable <file> <section>",
	Short: "Disable a section",
	Args:  cobra.ExactArgs(2),
	RunE:  runSectionToggle(section.Disable, "disabled"),
}

func init() {
	sectionCmd.AddCommand(sectionGetCmd, sectionSetCmd, sectionEnableCmd, sectionDisableCmd)
	rootCmd.AddCommand(sectionCmd)
}

type sectionResult struct {
	File     string `json:"file"`
	Section  string `json:"section"`
	Disabled bool   `json:"disabled"`
	Content  string `json:"content,omitempty"`
}

func runSectionGet(cmd *cobra.Command, args []string) error {
	text, err := readConfigFile(args[0])
	if err != nil {
		return err
	}
	content, err := section.Get(text, args[1])
	if err != nil {
		return err
	}
	disabled, err := section.IsDisabled(text, args[1])
	if err != nil {
		return err
	}

	if jsonOutput {
		return output.JSON(sectionResult{File: args[0], Section: args[1], Disabled: disabled, Content: content})
	}
	if content != "" {
		output.Raw(content)
	}
	return nil
}

func runSectionSet(cmd *cobra.Command, args []string) error {
	text, err := readConfigFile(args[0])
	if err != nil {
		return err
	}
	content, err := input.ReadAll(deps.StdinReader)
	if err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}
	updated, err := section.Insert(text, args[1], content)
	if err != nil {
		return err
	}
	if err := writeConfigFile(args[0], updated); err != nil {
		return err
	}
	return outputResult(
		sectionResult{File: args[0], Section: args[1], Content: content},
		"Section %s of %s replaced", args[1], args[0],
	)
}

func runSectionToggle(op func(text, name string) (string, error), verb string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		text, err := readConfigFile(args[0])
		if err != nil {
			return err
		}
		updated, err := op(text, args[1])
		if err != nil {
			return err
		}
		if updated != text {
			if err := writeConfigFile(args[0], updated); err != nil {
				return err
			}
		}
		return outputResult(
			sectionResult{File: args[0], Section: args[1], Disabled: verb == "disabled"},
			"Section %s of %s %s", args[1], args[0], verb,
		)
	}
}

func readConfigFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// writeConfigFile replaces path, keeping its permissions
func writeConfigFile(path, text string) error {
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(text), mode); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
