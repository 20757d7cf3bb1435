package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ksyq12/sitectl/internal/app"
	"github.com/ksyq12/sitectl/internal/config"
	"github.com/ksyq12/sitectl/internal/output"
	"github.com/ksyq12/sitectl/internal/ssl"
)

var (
	siteDomain   string
	siteExtra    string
	siteRoot     string
	siteApp      string
	sitePHP      string
	siteProxy    string
	siteOwner    string
	withSSL      bool
	sslProvider  string
	sslMethod    string
	activateNow  bool
	addAppConfig map[string]string
)

var addCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a site record",
	Long: `Add a site record. New sites are stored as ready (not provisioned) and
are skipped by activation until provisioned. --activate provisions and
activates the site at once.

Examples:
  sitectl add blog --domain blog.example.com --root /var/www/blog
  sitectl add shop --domain shop.example.com --extra www.shop.example.com --app php --php 8.2
  sitectl add api --domain api.example.com --app proxy --proxy localhost:3000 --ssl --activate`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVarP(&siteDomain, "domain", "d", "", "Primary domain (required)")
	addCmd.Flags().StringVar(&siteExtra, "extra", "", "Additional domains, comma separated")
	addCmd.Flags().StringVarP(&siteRoot, "root", "r", "", "Document root (default "+config.DefaultRoot+")")
	addCmd.Flags().StringVarP(&siteApp, "app", "a", app.KindStatic, "Application kind ("+strings.Join(app.NewRegistry(nil).Kinds(), ", ")+")")
	addCmd.Flags().StringVar(&sitePHP, "php", "", "PHP version (php and wordpress)")
	addCmd.Flags().StringVarP(&siteProxy, "proxy", "p", "", "Upstream URL (proxy)")
	addCmd.Flags().StringVar(&siteOwner, "owner", "", "Owner email, used for certificate registration")
	addCmd.Flags().StringToStringVar(&addAppConfig, "set", nil, "Application setting key=value, repeatable")
	addCmd.Flags().BoolVar(&withSSL, "ssl", false, "Enable SSL")
	addCmd.Flags().StringVar(&sslProvider, "provider", "", "Certificate provider (default, certbot, lego)")
	addCmd.Flags().StringVar(&sslMethod, "method", "", "Challenge method (http-01, nginx, standalone)")
	addCmd.Flags().BoolVar(&activateNow, "activate", false, "Provision and activate the site")
	_ = addCmd.MarkFlagRequired("domain")

	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	name := args[0]

	if err := validateName(name); err != nil {
		return err
	}
	if err := validateDomain(siteDomain); err != nil {
		return err
	}
	if err := validateDomains(siteExtra); err != nil {
		return err
	}
	if err := validateRoot(siteRoot); err != nil {
		return err
	}
	if err := validateProxyURL(siteProxy); err != nil {
		return err
	}

	registry := app.NewRegistry(nil)
	if !registry.IsValidKind(siteApp) {
		return fmt.Errorf("invalid application: %s. Valid kinds: %s", siteApp, strings.Join(registry.Kinds(), ", "))
	}
	if siteApp == app.KindProxy && siteProxy == "" {
		return fmt.Errorf("--proxy is required for application proxy")
	}
	if err := validateSSLOptions(sslProvider, sslMethod); err != nil {
		return err
	}

	site := &config.Site{
		Name:         name,
		Domain:       siteDomain,
		ExtraDomains: siteExtra,
		Owner:        siteOwner,
		SSLEnabled:   withSSL,
		Root:         siteRoot,
		WebServer:    config.WebServerNginx,
		Application:  siteApp,
		AppConfig:    buildAppConfig(),
		Status:       config.StatusReady,
		CreatedAt:    time.Now(),
	}
	if site.Root == "" {
		site.Root = config.DefaultRoot
	}
	if sslProvider != "" || sslMethod != "" {
		site.SSL = &config.SSLConfig{
			Client: config.SSLClient{Email: siteOwner, Provider: sslProvider},
			Method: sslMethod,
		}
		if site.SSL.Client.Provider == "" {
			site.SSL.Client.Provider = ssl.ProviderDefault
		}
		if site.SSL.Method == "" {
			site.SSL.Method = ssl.MethodHTTP01
		}
	}

	// Fail on a bad application config before anything is stored
	if _, err := registry.Resolve(site); err != nil {
		return err
	}

	if !activateNow {
		cfg, err := deps.ConfigLoader.Load()
		if err != nil {
			return errLoadConfig(err)
		}
		if err := cfg.AddSite(site); err != nil {
			return err
		}
		if err := saveConfig(cfg); err != nil {
			return err
		}
		return outputResult(
			map[string]interface{}{
				"success": true,
				"site":    name,
				"domain":  siteDomain,
				"status":  site.Status.String(),
			},
			"Site %s added (run 'sitectl activate %s --provision' to go live)", name, name,
		)
	}

	if err := deps.RootChecker.RequireRoot(); err != nil {
		return err
	}
	svc, err := loadServices()
	if err != nil {
		return err
	}
	if err := svc.cfg.AddSite(site); err != nil {
		return err
	}

	provision(site)
	report, actErr := svc.pipeline.Activate(commandContext(cmd), site)
	if err := saveConfig(svc.cfg); err != nil {
		output.Warn("Site activated but config save failed: %v", err)
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

// buildAppConfig merges the dedicated flags into the --set settings
func buildAppConfig() map[string]string {
	settings := make(map[string]string, len(addAppConfig)+2)
	for k, v := range addAppConfig {
		settings[k] = v
	}
	if sitePHP != "" {
		settings["php_version"] = sitePHP
	}
	if siteProxy != "" {
		settings["upstream"] = siteProxy
	}
	if len(settings) == 0 {
		return nil
	}
	return settings
}

func validateSSLOptions(provider, method string) error {
	switch provider {
	case "", ssl.ProviderDefault, ssl.ProviderCertbot, ssl.ProviderLego:
	default:
		return fmt.Errorf("invalid provider: %s", provider)
	}
	switch method {
	case "", ssl.MethodHTTP01, ssl.MethodNginx, ssl.MethodStandalone:
	default:
		return fmt.Errorf("invalid challenge method: %s", method)
	}
	if provider == ssl.ProviderLego && method != "" && method != ssl.MethodHTTP01 {
		return fmt.Errorf("provider lego only supports %s", ssl.MethodHTTP01)
	}
	return nil
}

// provision moves a ready site out of the ready state so activation runs
func provision(site *config.Site) bool {
	if site.Status != config.StatusReady {
		return false
	}
	site.Status = config.StatusDisabled
	return true
}
