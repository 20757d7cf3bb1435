package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestStageError_Error(t *testing.T) {
	err := &StageError{
		Stage:       StageValidation,
		Site:        "blog",
		Message:     "invalid configuration",
		Diagnostics: "nginx: [emerg] unknown directive \"lisen\"\n",
	}

	got := err.Error()
	want := "site blog: validation: invalid configuration\nnginx: [emerg] unknown directive \"lisen\""
	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestStageError_Is(t *testing.T) {
	err := NewStageError(StageCertificate, "blog", "certbot exited with status 1", true, nil)

	if !errors.Is(err, ErrCertificateIssuanceFailed) {
		t.Error("expected match on certificate stage")
	}
	if errors.Is(err, ErrValidationFailed) {
		t.Error("did not expect match on validation stage")
	}

	wrapped := fmt.Errorf("activate: %w", err)
	if !errors.Is(wrapped, ErrCertificateIssuanceFailed) {
		t.Error("expected match through wrapping")
	}
}

func TestSet(t *testing.T) {
	t.Run("empty set is nil error", func(t *testing.T) {
		var s Set
		if s.Err() != nil {
			t.Error("expected nil error for empty set")
		}
		if s.Fatal() != nil {
			t.Error("expected no fatal error")
		}
	})

	t.Run("warnings and fatal", func(t *testing.T) {
		var s Set
		s.Add(NewStageError(StageApplicationReload, "blog", "reload failed", false, fmt.Errorf("exit 1")))
		s.Add(nil)
		s.Add(&StageError{Stage: StageValidation, Site: "blog", Message: "invalid configuration", Diagnostics: "bad", Fatal: true})

		if s.Len() != 2 {
			t.Fatalf("expected 2 errors, got %d", s.Len())
		}
		if f := s.Fatal(); f == nil || f.Stage != StageValidation {
			t.Errorf("expected validation as fatal, got %v", f)
		}
		if w := s.Warnings(); len(w) != 1 || w[0].Stage != StageApplicationReload {
			t.Errorf("unexpected warnings: %v", w)
		}

		err := s.Err()
		if !errors.Is(err, ErrValidationFailed) {
			t.Error("set should match validation sentinel")
		}
		if !errors.Is(err, ErrAdapterReloadFailed) {
			t.Error("set should match application reload sentinel")
		}

		byStage := s.ByStage()
		if !strings.Contains(byStage[StageValidation], "bad") {
			t.Errorf("expected diagnostics in validation entry, got %q", byStage[StageValidation])
		}
		if byStage[StageApplicationReload] != "reload failed: exit 1" {
			t.Errorf("unexpected reload entry %q", byStage[StageApplicationReload])
		}
	})
}
