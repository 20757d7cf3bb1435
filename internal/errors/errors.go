// Package errors provides standardized error types for sitectl.
//
// The errors package defines domain-specific error types that enable
// structured error handling and consistent error messages throughout
// the application.
//
// # Error Types
//
// SiteError is the general error type, containing:
//   - Code: Categorizes the error (NOT_FOUND, ALREADY_EXISTS, etc.)
//   - Message: Human-readable error description
//   - Site: The site name involved (if applicable)
//   - Err: The underlying wrapped error (if any)
//
// StageError is produced by the activation pipeline. It is keyed by the
// stage that failed and carries the captured process diagnostics verbatim.
// A Set collects the stage errors of one activation attempt.
//
// # Error Checking
//
// Use errors.Is for sentinel comparison. SiteError values match by code,
// StageError values match by stage:
//
//	if errors.Is(err, errors.ErrValidationFailed) {
//	    // the candidate configuration was rejected by nginx -t
//	}
//
// Use errors.As to reach the structured value:
//
//	var stageErr *errors.StageError
//	if errors.As(err, &stageErr) {
//	    fmt.Println(stageErr.Stage, stageErr.Diagnostics)
//	}
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes errors for programmatic handling.
type ErrorCode string

// Error codes for different error categories.
const (
	ErrCodeNotFound        ErrorCode = "NOT_FOUND"         // Resource not found
	ErrCodeAlreadyExists   ErrorCode = "ALREADY_EXISTS"    // Resource already exists
	ErrCodeValidation      ErrorCode = "VALIDATION"        // Input validation failed
	ErrCodePermission      ErrorCode = "PERMISSION"        // Permission denied
	ErrCodeConfig          ErrorCode = "CONFIG"            // Configuration error
	ErrCodeDriver          ErrorCode = "DRIVER"            // Web server driver error
	ErrCodeSSL             ErrorCode = "SSL"               // SSL/TLS related error
	ErrCodeSectionNotFound ErrorCode = "SECTION_NOT_FOUND" // Template markers missing or malformed
	ErrCodeApplication     ErrorCode = "APPLICATION"       // Application adapter error
	ErrCodeLiveNotFound    ErrorCode = "LIVE_NOT_FOUND"    // No live configuration file for a domain
	ErrCodeInternal        ErrorCode = "INTERNAL"          // Internal/unexpected error
)

// SiteError represents a structured error with context about the operation.
type SiteError struct {
	Code    ErrorCode // Error category
	Message string    // Human-readable message
	Site    string    // Site name (if applicable)
	Err     error     // Underlying error (if any)
}

// Error implements the error interface.
func (e *SiteError) Error() string {
	if e.Site != "" && e.Err != nil {
		return fmt.Sprintf("site %s: %s: %v", e.Site, e.Message, e.Err)
	}
	if e.Site != "" {
		return fmt.Sprintf("site %s: %s", e.Site, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for error chain traversal.
func (e *SiteError) Unwrap() error {
	return e.Err
}

// Is reports whether target matches this error.
// Comparison is based on error code.
func (e *SiteError) Is(target error) bool {
	t, ok := target.(*SiteError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Sentinel errors for common error scenarios.
// Use these with errors.Is() for error checking.
var (
	// ErrSiteNotFound indicates the requested site does not exist.
	ErrSiteNotFound = &SiteError{Code: ErrCodeNotFound, Message: "site not found"}

	// ErrSiteExists indicates a site with the same name already exists.
	ErrSiteExists = &SiteError{Code: ErrCodeAlreadyExists, Message: "site already exists"}

	// ErrInvalidDomain indicates the domain name is not valid.
	ErrInvalidDomain = &SiteError{Code: ErrCodeValidation, Message: "invalid domain"}

	// ErrPermissionDenied indicates insufficient privileges for the operation.
	ErrPermissionDenied = &SiteError{Code: ErrCodePermission, Message: "permission denied"}

	// ErrConfigInvalid indicates the configuration is invalid or corrupt.
	ErrConfigInvalid = &SiteError{Code: ErrCodeConfig, Message: "invalid configuration"}

	// ErrDriverNotFound indicates the specified web server is not supported.
	ErrDriverNotFound = &SiteError{Code: ErrCodeDriver, Message: "driver not found"}

	// ErrSSLNotInstalled indicates certbot is not installed.
	ErrSSLNotInstalled = &SiteError{Code: ErrCodeSSL, Message: "certbot not installed"}

	// ErrSectionNotFound indicates a section's marker lines are absent or unmatched.
	ErrSectionNotFound = &SiteError{Code: ErrCodeSectionNotFound, Message: "section not found"}

	// ErrRootRequired indicates root privileges are required.
	ErrRootRequired = &SiteError{Code: ErrCodePermission, Message: "root privileges required"}

	// ErrUnknownApplication indicates no adapter is registered for an application kind.
	ErrUnknownApplication = &SiteError{Code: ErrCodeApplication, Message: "unknown application"}

	// ErrLiveConfigNotFound indicates no configuration file exists for a domain.
	ErrLiveConfigNotFound = &SiteError{Code: ErrCodeLiveNotFound, Message: "configuration not found"}
)

// NotFound creates an error for a site that doesn't exist.
func NotFound(name string) error {
	return &SiteError{
		Code:    ErrCodeNotFound,
		Message: "site not found",
		Site:    name,
	}
}

// AlreadyExists creates an error for a site that already exists.
func AlreadyExists(name string) error {
	return &SiteError{
		Code:    ErrCodeAlreadyExists,
		Message: "site already exists",
		Site:    name,
	}
}

// Validation creates a validation error with a custom message.
func Validation(msg string) error {
	return &SiteError{
		Code:    ErrCodeValidation,
		Message: msg,
	}
}

// SectionNotFound creates an error for a missing or malformed section.
func SectionNotFound(name string) error {
	return &SiteError{
		Code:    ErrCodeSectionNotFound,
		Message: fmt.Sprintf("section %q not found or has unmatched markers", name),
	}
}

// LiveConfigNotFound creates an error for a domain without a configuration file.
func LiveConfigNotFound(domain string) error {
	return &SiteError{
		Code:    ErrCodeLiveNotFound,
		Message: fmt.Sprintf("configuration for %s not found", domain),
	}
}

// Wrap creates an error with the specified code, message, and underlying error.
func Wrap(code ErrorCode, msg string, err error) error {
	return &SiteError{
		Code:    code,
		Message: msg,
		Err:     err,
	}
}

// WrapSite creates an error with site context and underlying error.
func WrapSite(code ErrorCode, site string, err error) error {
	return &SiteError{
		Code: code,
		Site: site,
		Err:  err,
	}
}

// Is reports whether any error in err's chain matches target.
// This is a re-export of errors.Is for convenience.
var Is = errors.Is

// As finds the first error in err's chain that matches target.
// This is a re-export of errors.As for convenience.
var As = errors.As
