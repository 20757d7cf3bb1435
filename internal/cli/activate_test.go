package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/ksyq12/sitectl/internal/config"
	"github.com/ksyq12/sitectl/internal/executor"
	"github.com/ksyq12/sitectl/internal/section"
)

func failingNginx(diag string) func(name string, args ...string) (*executor.Result, error) {
	return func(name string, args ...string) (*executor.Result, error) {
		if name == "nginx" && len(args) > 0 && args[0] == "-t" {
			return executor.Failure(1, "", diag)
		}
		return &executor.Result{}, nil
	}
}

func TestRunActivate(t *testing.T) {
	t.Run("requires names or --all", func(t *testing.T) {
		NewTestHelper(t)
		resetFlags(t, activateCmd)

		if err := runActivate(testCmd(), nil); err == nil {
			t.Error("expected error without names")
		}
		activateAll = true
		if err := runActivate(testCmd(), []string{"blog"}); err == nil {
			t.Error("expected error for names with --all")
		}
	})

	t.Run("ready site is skipped without processes", func(t *testing.T) {
		h := NewTestHelper(t)
		buf := captureOutput(t)
		resetFlags(t, activateCmd)
		h.AddSite(newTestSite("blog", config.StatusReady))

		if err := runActivate(testCmd(), []string{"blog"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if h.MockExecutor.CallCount() != 0 {
			t.Errorf("expected no processes, got %v", h.MockExecutor.Calls)
		}
		if len(h.MockDriver.Writes()) != 0 {
			t.Error("ready site must not be committed")
		}
		assertContains(t, buf.String(), "skipped")
	})

	t.Run("provision activates a ready site", func(t *testing.T) {
		h := NewTestHelper(t)
		captureOutput(t)
		resetFlags(t, activateCmd)
		provisionNew = true
		h.AddSite(newTestSite("blog", config.StatusReady))

		if err := runActivate(testCmd(), []string{"blog"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		site := h.GetConfig().Sites["blog"]
		if site.Status != config.StatusValid {
			t.Errorf("expected valid, got %s", site.Status)
		}
		if h.MockDriver.ReloadCalls != 1 {
			t.Errorf("expected 1 reload, got %d", h.MockDriver.ReloadCalls)
		}
		if h.MockConfig.SaveCalls != 1 {
			t.Errorf("expected 1 save, got %d", h.MockConfig.SaveCalls)
		}
	})

	t.Run("validation failure leaves live config and stored config", func(t *testing.T) {
		h := NewTestHelper(t)
		buf := captureOutput(t)
		resetFlags(t, activateCmd)

		diag := `nginx: [emerg] invalid number of arguments in "root" directive`
		h.MockExecutor.RunFunc = failingNginx(diag)

		site := newTestSite("blog", config.StatusValid)
		site.ValidConfig = "previous"
		h.AddSite(site)

		err := runActivate(testCmd(), []string{"blog"})
		if err == nil {
			t.Fatal("expected activation error")
		}
		if len(h.MockDriver.Writes()) != 0 {
			t.Error("nothing may be written after a failed validation")
		}
		if site.ValidConfig != "previous" {
			t.Error("stored configuration must be kept")
		}
		if site.Status != config.StatusError {
			t.Errorf("expected error status, got %s", site.Status)
		}
		assertContains(t, site.StatusInfo, diag)
		assertContains(t, buf.String(), diag)
		if h.MockConfig.SaveCalls != 1 {
			t.Error("failed attempts must still be saved")
		}
	})

	t.Run("all sites with one failure", func(t *testing.T) {
		h := NewTestHelper(t)
		buf := captureOutput(t)
		resetFlags(t, activateCmd)
		activateAll = true
		jsonOutput = true

		h.AddSite(newTestSite("a", config.StatusValid))
		h.AddSite(newTestSite("b", config.StatusError))
		h.AddSite(newTestSite("c", config.StatusReady))
		h.MockDriver.WriteFunc = func(domain, content string) error {
			if domain == "b.example.com" {
				return executor.ErrTimeout
			}
			return nil
		}

		err := runActivate(testCmd(), nil)
		if err == nil {
			t.Fatal("expected error")
		}
		assertContains(t, err.Error(), "1 of 3")

		var results []reportResult
		if err := json.Unmarshal(buf.Bytes(), &results); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
		}
		if len(results) != 3 {
			t.Fatalf("expected 3 results, got %d", len(results))
		}
		if !results[0].Success || results[1].Success || !results[2].Skipped {
			t.Errorf("unexpected results %+v", results)
		}
		if _, ok := results[1].Errors["commit"]; !ok {
			t.Errorf("expected commit error, got %v", results[1].Errors)
		}
	})

	t.Run("unknown site", func(t *testing.T) {
		NewTestHelper(t)
		resetFlags(t, activateCmd)
		err := runActivate(testCmd(), []string{"missing"})
		if err == nil || !strings.Contains(err.Error(), "site not found") {
			t.Errorf("expected not found, got %v", err)
		}
	})
}

func TestRunRender(t *testing.T) {
	t.Run("prints without committing", func(t *testing.T) {
		h := NewTestHelper(t)
		buf := captureOutput(t)
		resetFlags(t, renderCmd)

		site := newTestSite("blog", config.StatusReady)
		site.SSLEnabled = true
		h.AddSite(site)

		if err := runRender(testCmd(), []string{"blog"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := buf.String()
		assertContains(t, out, "server_name blog.example.com;")
		if disabled, err := section.IsDisabled(out, "ssl"); err != nil || disabled {
			t.Errorf("ssl section should be enabled: %v", err)
		}
		if h.MockExecutor.CallCount() != 0 {
			t.Error("render without --check runs no process")
		}
		if site.SSL != nil || site.Status != config.StatusReady {
			t.Error("render must not modify the site")
		}
		if h.MockConfig.SaveCalls != 0 || len(h.MockDriver.Writes()) != 0 {
			t.Error("render must not save or commit")
		}
	})

	t.Run("check reports diagnostics", func(t *testing.T) {
		h := NewTestHelper(t)
		buf := captureOutput(t)
		resetFlags(t, renderCmd)
		renderCheck = true

		h.MockExecutor.RunFunc = failingNginx("nginx: [emerg] unexpected end of file")
		h.AddSite(newTestSite("blog", config.StatusValid))

		if err := runRender(testCmd(), []string{"blog"}); err == nil {
			t.Fatal("expected validation error")
		}
		assertContains(t, buf.String(), "unexpected end of file")
		if h.GetConfig().Sites["blog"].Status != config.StatusValid {
			t.Error("render must not change the status")
		}
	})

	t.Run("check passes", func(t *testing.T) {
		h := NewTestHelper(t)
		buf := captureOutput(t)
		resetFlags(t, renderCmd)
		renderCheck = true
		h.AddSite(newTestSite("blog", config.StatusValid))

		if err := runRender(testCmd(), []string{"blog"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertContains(t, buf.String(), "is valid")
	})
}
