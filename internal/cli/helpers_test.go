package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ksyq12/sitectl/internal/config"
	"github.com/ksyq12/sitectl/internal/output"
)

func init() {
	color.NoColor = true
}

// captureOutput redirects user output for the duration of the test
func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	output.SetOutput(&buf)
	t.Cleanup(func() { output.SetOutput(nil) })
	return &buf
}

// resetFlags restores scalar flags of cmd to their defaults
func resetFlags(t *testing.T, cmd *cobra.Command) {
	t.Helper()
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		switch f.Value.Type() {
		case "bool", "string", "int":
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
	jsonOutput = false
}

func testCmd() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	return cmd
}

func newTestSite(name string, status config.Status) *config.Site {
	return &config.Site{
		Name:        name,
		Domain:      name + ".example.com",
		Root:        "/var/www/" + name,
		WebServer:   config.WebServerNginx,
		Application: "static",
		Status:      status,
	}
}

func assertContains(t *testing.T, got, want string) {
	t.Helper()
	if !strings.Contains(got, want) {
		t.Errorf("expected %q in:\n%s", want, got)
	}
}
