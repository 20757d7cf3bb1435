package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ksyq12/sitectl/internal/app"
	"github.com/ksyq12/sitectl/internal/config"
	"github.com/ksyq12/sitectl/internal/ssl"
)

var (
	setSSL      bool
	setStatus   string
	setDomain   string
	setExtra    string
	setRoot     string
	setApp      string
	setOwner    string
	setProvider string
	setMethod   string
	setValues   map[string]string
	unsetValues []string
)

var setCmd = &cobra.Command{
	Use:   "set <name>",
	Short: "Change a site record",
	Long: `Change fields of a site record. The live configuration is not touched;
run 'sitectl activate' to apply the change.

Examples:
  sitectl set blog --ssl
  sitectl set blog --ssl=false
  sitectl set shop --app php --set php_version=8.3
  sitectl set api --set upstream=http://127.0.0.1:4000 --unset index
  sitectl set old --status suspend`,
	Args: cobra.ExactArgs(1),
	RunE: runSet,
}

func init() {
	setCmd.Flags().BoolVar(&setSSL, "ssl", false, "Enable or disable SSL")
	setCmd.Flags().StringVar(&setStatus, "status", "", "Lifecycle status (ready, valid, suspend, expired, disabled, error)")
	setCmd.Flags().StringVarP(&setDomain, "domain", "d", "", "Primary domain")
	setCmd.Flags().StringVar(&setExtra, "extra", "", "Additional domains, comma separated")
	setCmd.Flags().StringVarP(&setRoot, "root", "r", "", "Document root")
	setCmd.Flags().StringVarP(&setApp, "app", "a", "", "Application kind")
	setCmd.Flags().StringVar(&setOwner, "owner", "", "Owner email")
	setCmd.Flags().StringVar(&setProvider, "provider", "", "Certificate provider (default, certbot, lego)")
	setCmd.Flags().StringVar(&setMethod, "method", "", "Challenge method (http-01, nginx, standalone)")
	setCmd.Flags().StringToStringVar(&setValues, "set", nil, "Application setting key=value, repeatable")
	setCmd.Flags().StringSliceVar(&unsetValues, "unset", nil, "Remove application settings")

	rootCmd.AddCommand(setCmd)
}

func runSet(cmd *cobra.Command, args []string) error {
	cfg, err := deps.ConfigLoader.Load()
	if err != nil {
		return errLoadConfig(err)
	}
	site, err := lookupSite(cfg, args[0])
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	var changed []string
	mark := func(field string) { changed = append(changed, field) }

	if flags.Changed("domain") {
		if err := validateDomain(setDomain); err != nil {
			return err
		}
		if err := cfg.CheckDomain(site.Name, setDomain); err != nil {
			return err
		}
		site.Domain = setDomain
		mark("domain")
	}
	if flags.Changed("extra") {
		if err := validateDomains(setExtra); err != nil {
			return err
		}
		site.ExtraDomains = setExtra
		mark("extra_domains")
	}
	if flags.Changed("root") {
		if err := validateRoot(setRoot); err != nil {
			return err
		}
		site.Root = setRoot
		mark("root")
	}
	if flags.Changed("owner") {
		site.Owner = setOwner
		mark("owner")
	}
	if flags.Changed("app") {
		registry := app.NewRegistry(nil)
		if !registry.IsValidKind(setApp) {
			return fmt.Errorf("invalid application: %s. Valid kinds: %s", setApp, strings.Join(registry.Kinds(), ", "))
		}
		site.Application = setApp
		mark("application")
	}
	if len(setValues) > 0 || len(unsetValues) > 0 {
		if site.AppConfig == nil {
			site.AppConfig = make(map[string]string)
		}
		for k, v := range setValues {
			site.AppConfig[k] = v
		}
		for _, k := range unsetValues {
			delete(site.AppConfig, k)
		}
		mark("app_config")
	}
	if flags.Changed("ssl") {
		site.SSLEnabled = setSSL
		mark("ssl_enabled")
	}
	if flags.Changed("provider") || flags.Changed("method") {
		if err := validateSSLOptions(setProvider, setMethod); err != nil {
			return err
		}
		if site.SSL == nil {
			site.SSL = &config.SSLConfig{Client: config.SSLClient{Email: site.Owner, Provider: ssl.ProviderDefault}}
		}
		if setProvider != "" && setProvider != site.SSL.Client.Provider {
			// a new provider issues to freshly derived paths
			site.SSL.Client.Provider = setProvider
			site.SSL.Paths = config.SSLPaths{}
		}
		if setMethod != "" {
			site.SSL.Method = setMethod
		}
		mark("ssl")
	}
	if flags.Changed("status") {
		status, err := config.ParseStatus(setStatus)
		if err != nil {
			return err
		}
		site.Status = status
		mark("status")
	}

	if len(changed) == 0 {
		return fmt.Errorf("nothing to change")
	}

	// Fail on an application config the adapter cannot use
	if _, err := app.NewRegistry(nil).Resolve(site); err != nil {
		return err
	}

	if err := saveConfig(cfg); err != nil {
		return err
	}
	return outputResult(
		map[string]interface{}{
			"success": true,
			"site":    site.Name,
			"changed": changed,
		},
		"Site %s updated (%s)", site.Name, strings.Join(changed, ", "),
	)
}
