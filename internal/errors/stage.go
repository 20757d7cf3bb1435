package errors

import (
	"fmt"
	"strings"
)

// Stage names a step of the activation pipeline.
type Stage string

// Pipeline stages that can fail.
const (
	StageSection           Stage = "section"
	StageCertificate       Stage = "certificate"
	StageApplication       Stage = "application"
	StageApplicationReload Stage = "application_reload"
	StageAssemble          Stage = "assemble"
	StageValidation        Stage = "validation"
	StageCommit            Stage = "commit"
	StageServiceReload     Stage = "service_reload"
)

// StageError is a failure of one activation stage.
type StageError struct {
	Stage       Stage  // Failing stage
	Site        string // Site name
	Message     string // Human-readable message
	Diagnostics string // Captured stdout/stderr, verbatim
	Fatal       bool   // Whether the stage aborted the attempt
	Err         error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *StageError) Error() string {
	var b strings.Builder
	if e.Site != "" {
		fmt.Fprintf(&b, "site %s: ", e.Site)
	}
	fmt.Fprintf(&b, "%s: %s", e.Stage, e.Message)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.Diagnostics != "" {
		b.WriteString("\n")
		b.WriteString(strings.TrimRight(e.Diagnostics, "\n"))
	}
	return b.String()
}

// Unwrap returns the underlying error for error chain traversal.
func (e *StageError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a StageError for the same stage.
func (e *StageError) Is(target error) bool {
	t, ok := target.(*StageError)
	if !ok {
		return false
	}
	return e.Stage == t.Stage
}

// Stage sentinels for use with errors.Is.
var (
	ErrCertificateIssuanceFailed = &StageError{Stage: StageCertificate, Message: "certificate issuance failed", Fatal: true}
	ErrAdapterUpdateFailed       = &StageError{Stage: StageApplication, Message: "application update failed", Fatal: true}
	ErrAdapterReloadFailed       = &StageError{Stage: StageApplicationReload, Message: "application reload failed"}
	ErrAssembleFailed            = &StageError{Stage: StageAssemble, Message: "configuration assembly failed", Fatal: true}
	ErrValidationFailed          = &StageError{Stage: StageValidation, Message: "invalid configuration", Fatal: true}
	ErrCommitFailed              = &StageError{Stage: StageCommit, Message: "commit failed", Fatal: true}
	ErrServiceReloadFailed       = &StageError{Stage: StageServiceReload, Message: "service reload failed"}
)

// NewStageError creates a StageError for the given stage.
func NewStageError(stage Stage, site, msg string, fatal bool, err error) *StageError {
	return &StageError{
		Stage:   stage,
		Site:    site,
		Message: msg,
		Fatal:   fatal,
		Err:     err,
	}
}

// Set aggregates the stage errors of a single activation attempt.
// It holds any number of non-fatal errors and at most one fatal error,
// which is always the last one added.
type Set struct {
	errs []*StageError
}

// Add appends a stage error. Nil values are ignored.
func (s *Set) Add(err *StageError) {
	if err == nil {
		return
	}
	s.errs = append(s.errs, err)
}

// Len returns the number of collected errors.
func (s *Set) Len() int {
	return len(s.errs)
}

// Errors returns all collected errors in the order they occurred.
func (s *Set) Errors() []*StageError {
	return s.errs
}

// Fatal returns the fatal error, or nil when the attempt did not abort.
func (s *Set) Fatal() *StageError {
	for _, e := range s.errs {
		if e.Fatal {
			return e
		}
	}
	return nil
}

// Warnings returns the non-fatal errors.
func (s *Set) Warnings() []*StageError {
	var out []*StageError
	for _, e := range s.errs {
		if !e.Fatal {
			out = append(out, e)
		}
	}
	return out
}

// ByStage returns the error messages keyed by stage name.
func (s *Set) ByStage() map[Stage]string {
	out := make(map[Stage]string, len(s.errs))
	for _, e := range s.errs {
		msg := e.Message
		if e.Err != nil {
			msg = fmt.Sprintf("%s: %v", msg, e.Err)
		}
		if e.Diagnostics != "" {
			msg += "\n" + strings.TrimRight(e.Diagnostics, "\n")
		}
		out[e.Stage] = msg
	}
	return out
}

// Err returns the set as an error, or nil when it is empty.
func (s *Set) Err() error {
	if s == nil || len(s.errs) == 0 {
		return nil
	}
	return s
}

// Error implements the error interface.
func (s *Set) Error() string {
	parts := make([]string, 0, len(s.errs))
	for _, e := range s.errs {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "\n")
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (s *Set) Unwrap() []error {
	out := make([]error, 0, len(s.errs))
	for _, e := range s.errs {
		out = append(out, e)
	}
	return out
}
