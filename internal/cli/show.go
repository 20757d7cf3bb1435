package cli

import (
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/ksyq12/sitectl/internal/output"
)

var showConfig bool

var showCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show details of a site",
	Long: `Show a site record. --config prints the last committed configuration.

Examples:
  sitectl show blog
  sitectl show blog --config
  sitectl show blog --json`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showConfig, "config", false, "Print the committed configuration")
	rootCmd.AddCommand(showCmd)
}

// showDetail represents the detailed site information for output
type showDetail struct {
	Name         string            `json:"name"`
	Domain       string            `json:"domain"`
	ExtraDomains string            `json:"extra_domains,omitempty"`
	Owner        string            `json:"owner,omitempty"`
	Root         string            `json:"root"`
	Application  string            `json:"application"`
	AppConfig    map[string]string `json:"app_config,omitempty"`
	SSL          bool              `json:"ssl"`
	SSLProvider  string            `json:"ssl_provider,omitempty"`
	SSLCert      string            `json:"ssl_cert,omitempty"`
	SSLKey       string            `json:"ssl_key,omitempty"`
	Status       string            `json:"status"`
	StatusInfo   string            `json:"status_info,omitempty"`
	Enabled      bool              `json:"enabled"`
	LivePath     string            `json:"live_path"`
	Config       string            `json:"config,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    *time.Time        `json:"updated_at,omitempty"`
}

func runShow(cmd *cobra.Command, args []string) error {
	svc, err := loadServices()
	if err != nil {
		return err
	}
	site, err := lookupSite(svc.cfg, args[0])
	if err != nil {
		return err
	}

	enabled, _ := svc.driver.IsEnabled(site.Domain)
	detail := showDetail{
		Name:         site.Name,
		Domain:       site.Domain,
		ExtraDomains: site.ExtraDomains,
		Owner:        site.Owner,
		Root:         site.Root,
		Application:  site.Application,
		AppConfig:    site.AppConfig,
		SSL:          site.SSLEnabled,
		Status:       site.Status.String(),
		StatusInfo:   site.StatusInfo,
		Enabled:      enabled,
		LivePath:     svc.driver.ConfigPath(site.Domain),
		CreatedAt:    site.CreatedAt,
	}
	if site.SSL.IsSet() {
		detail.SSLProvider = site.SSL.Client.Provider
		detail.SSLCert = site.SSL.Paths.Certificate
		detail.SSLKey = site.SSL.Paths.Key
	}
	if !site.UpdatedAt.IsZero() {
		updated := site.UpdatedAt
		detail.UpdatedAt = &updated
	}
	if showConfig {
		detail.Config = site.ValidConfig
	}

	if jsonOutput {
		return output.JSON(detail)
	}

	fields := [][2]string{
		{"Name", detail.Name},
		{"Domain", detail.Domain},
	}
	if detail.ExtraDomains != "" {
		fields = append(fields, [2]string{"Extra domains", detail.ExtraDomains})
	}
	fields = append(fields,
		[2]string{"Root", detail.Root},
		[2]string{"Application", detail.Application},
	)
	keys := make([]string, 0, len(detail.AppConfig))
	for k := range detail.AppConfig {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, [2]string{"  " + k, detail.AppConfig[k]})
	}
	fields = append(fields, [2]string{"SSL", yesNo(detail.SSL)})
	if detail.SSLProvider != "" {
		fields = append(fields,
			[2]string{"  Provider", detail.SSLProvider},
			[2]string{"  Certificate", detail.SSLCert},
			[2]string{"  Key", detail.SSLKey},
		)
	}
	fields = append(fields,
		[2]string{"Status", detail.Status},
		[2]string{"Enabled", yesNo(detail.Enabled)},
		[2]string{"Live path", detail.LivePath},
		[2]string{"Created", detail.CreatedAt.Format("2006-01-02 15:04:05")},
	)
	if detail.UpdatedAt != nil {
		fields = append(fields, [2]string{"Updated", detail.UpdatedAt.Format("2006-01-02 15:04:05")})
	}
	output.Fields(fields)

	if detail.StatusInfo != "" {
		output.Diagnostics("status info", detail.StatusInfo)
	}
	if showConfig {
		if detail.Config == "" {
			output.Info("No committed configuration")
		} else {
			output.Print("")
			output.Raw(detail.Config)
		}
	}
	return nil
}
