package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/ksyq12/sitectl/internal/config"
)

func TestRunList(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		NewTestHelper(t)
		buf := captureOutput(t)
		resetFlags(t, listCmd)

		if err := runList(testCmd(), nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertContains(t, buf.String(), "No sites configured")
	})

	t.Run("table sorted by name", func(t *testing.T) {
		h := NewTestHelper(t)
		buf := captureOutput(t)
		resetFlags(t, listCmd)

		h.AddSite(newTestSite("zeta", config.StatusError))
		h.AddSite(newTestSite("alpha", config.StatusValid))
		h.MockDriver.IsEnabledFunc = func(domain string) (bool, error) {
			return domain == "alpha.example.com", nil
		}

		if err := runList(testCmd(), nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := buf.String()
		if strings.Index(out, "alpha") > strings.Index(out, "zeta") {
			t.Errorf("sites not sorted:\n%s", out)
		}
		assertContains(t, out, "NAME")
		assertContains(t, out, "valid")
		assertContains(t, out, "error")
	})

	t.Run("json", func(t *testing.T) {
		h := NewTestHelper(t)
		buf := captureOutput(t)
		resetFlags(t, listCmd)
		jsonOutput = true

		site := newTestSite("blog", config.StatusError)
		site.StatusInfo = "validation: invalid configuration\nnginx: [emerg]"
		h.AddSite(site)

		if err := runList(testCmd(), nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var items []siteListItem
		if err := json.Unmarshal(buf.Bytes(), &items); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(items) != 1 || items[0].Status != "error" || items[0].Info != "validation: invalid configuration" {
			t.Errorf("unexpected items %+v", items)
		}
	})
}

func TestRunShow(t *testing.T) {
	t.Run("details", func(t *testing.T) {
		h := NewTestHelper(t)
		buf := captureOutput(t)
		resetFlags(t, showCmd)

		site := newTestSite("shop", config.StatusValid)
		site.Application = "php"
		site.AppConfig = map[string]string{"php_version": "8.3", "fpm_socket": "/run/php.sock"}
		site.SSLEnabled = true
		site.SSL = &config.SSLConfig{
			Client: config.SSLClient{Provider: "certbot"},
			Paths:  config.SSLPaths{Certificate: "/etc/ssl/shop.pem", Key: "/etc/ssl/shop.key"},
		}
		h.AddSite(site)

		if err := runShow(testCmd(), []string{"shop"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := buf.String()
		assertContains(t, out, "shop.example.com")
		assertContains(t, out, "/etc/ssl/shop.pem")
		assertContains(t, out, "/etc/nginx/sites-available/shop.example.com.conf")
		if strings.Index(out, "fpm_socket") > strings.Index(out, "php_version") {
			t.Error("app settings should be sorted")
		}
	})

	t.Run("committed config", func(t *testing.T) {
		h := NewTestHelper(t)
		buf := captureOutput(t)
		resetFlags(t, showCmd)
		showConfig = true

		site := newTestSite("blog", config.StatusValid)
		site.ValidConfig = "server { listen 80; }"
		h.AddSite(site)

		if err := runShow(testCmd(), []string{"blog"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertContains(t, buf.String(), "server { listen 80; }")
	})

	t.Run("not found", func(t *testing.T) {
		NewTestHelper(t)
		captureOutput(t)
		resetFlags(t, showCmd)
		if err := runShow(testCmd(), []string{"missing"}); err == nil {
			t.Error("expected error")
		}
	})
}
