package errors

import (
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Authentication errors (AUTH-001 to AUTH-099)
	ErrCodeAuthInvalidCredentials ErrorCode = "AUTH-001"
	ErrCodeAuthRequired           ErrorCode = "AUTH-002"
	ErrCodeAuthForbidden          ErrorCode = "AUTH-003"
	ErrCodeAuthTokenExpired       ErrorCode = "AUTH-004"

	// API errors (API-001 to API-099)
	ErrCodeAPIValidation ErrorCode = "API-001"
	ErrCodeAPINotFound   ErrorCode = "API-002"
	ErrCodeAPIServer     ErrorCode = "API-003"
	ErrCodeAPIResponse   ErrorCode = "API-004"

	// Network errors (NET-001 to NET-099)
	ErrCodeNetUnreachable ErrorCode = "NET-001"
	ErrCodeNetTimeout     ErrorCode = "NET-002"

	// Session errors (SESSION-001 to SESSION-099)
	ErrCodeSessionCorrupt    ErrorCode = "SESSION-001"
	ErrCodeSessionSuperseded ErrorCode = "SESSION-002"
	ErrCodeSessionPersist    ErrorCode = "SESSION-003"

	// Routing errors (ROUTE-001 to ROUTE-099)
	ErrCodeRouteNotFound     ErrorCode = "ROUTE-001"
	ErrCodeRouteRedirectLoop ErrorCode = "ROUTE-002"

	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigInvalid ErrorCode = "CONFIG-001"
	ErrCodeConfigRead    ErrorCode = "CONFIG-002"

	// File I/O errors (IO-001 to IO-099)
	ErrCodeFileReadFailed  ErrorCode = "IO-001"
	ErrCodeFileWriteFailed ErrorCode = "IO-002"
	ErrCodeDirectoryFailed ErrorCode = "IO-003"
)

// Category is the prefix of an ErrorCode
type Category string

const (
	CategoryAuth    Category = "AUTH"
	CategoryAPI     Category = "API"
	CategoryNet     Category = "NET"
	CategorySession Category = "SESSION"
	CategoryRoute   Category = "ROUTE"
	CategoryConfig  Category = "CONFIG"
	CategoryIO      Category = "IO"
)

// Category returns the part of c before the dash, e.g. AUTH for AUTH-002
func (c ErrorCode) Category() Category {
	prefix, _, _ := strings.Cut(string(c), "-")
	return Category(prefix)
}

// ParkError is an error with a code, suggestions and an optional cause
type ParkError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	Cause       error
}

// Error implements the error interface
func (e *ParkError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *ParkError) Unwrap() error {
	return e.Cause
}

// Is matches another ParkError by code so sentinel values can be compared
func (e *ParkError) Is(target error) bool {
	t, ok := target.(*ParkError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New creates a new ParkError
func New(code ErrorCode, message string) *ParkError {
	return &ParkError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new ParkError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *ParkError {
	return &ParkError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *ParkError) WithSuggestion(suggestion string) *ParkError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *ParkError) WithSuggestions(suggestions ...string) *ParkError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// CodeOf returns the code of the first ParkError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	for err != nil {
		if pe, ok := err.(*ParkError); ok {
			return pe.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}

// Common error constructors

// NewInvalidCredentialsError creates a login failure error
func NewInvalidCredentialsError(cause error) *ParkError {
	return Wrap(ErrCodeAuthInvalidCredentials, "invalid username or password", cause).
		WithSuggestion("Check your username and password").
		WithSuggestion("Administrators sign in with 'parkspot auth login --admin'")
}

// NewAuthRequiredError creates a not-logged-in error
func NewAuthRequiredError() *ParkError {
	return New(ErrCodeAuthRequired, "you are not logged in").
		WithSuggestion("Run 'parkspot auth login' to sign in").
		WithSuggestion("Run 'parkspot auth register' to create an account")
}

// NewForbiddenError creates a role mismatch error
func NewForbiddenError(role string) *ParkError {
	return New(ErrCodeAuthForbidden, fmt.Sprintf("this action requires the %s role", role)).
		WithSuggestion("Sign in with an account that has the required role")
}

// NewTokenExpiredError creates an expired session error
func NewTokenExpiredError() *ParkError {
	return New(ErrCodeAuthTokenExpired, "your session has expired").
		WithSuggestion("Run 'parkspot auth login' to sign in again")
}

// NewUnreachableError creates a backend connectivity error
func NewUnreachableError(baseURL string, cause error) *ParkError {
	return Wrap(ErrCodeNetUnreachable, fmt.Sprintf("cannot reach parking API at %s", baseURL), cause).
		WithSuggestion("Check that the backend is running").
		WithSuggestion("Set PARKSPOT_API_URL or pass --api-url to point at another host")
}

// NewSessionPersistError creates a session storage write error
func NewSessionPersistError(path string, cause error) *ParkError {
	return Wrap(ErrCodeSessionPersist, fmt.Sprintf("failed to persist session to %s", path), cause).
		WithSuggestion("Check the permissions of the session directory").
		WithSuggestion("Use --session-file to store the session elsewhere")
}

// NewRouteNotFoundError creates an unknown route error
func NewRouteNotFoundError(path string) *ParkError {
	return New(ErrCodeRouteNotFound, fmt.Sprintf("no route matches %s", path)).
		WithSuggestion("Run 'parkspot route --list' to see available routes")
}

// NewConfigInvalidError creates a configuration validation error
func NewConfigInvalidError(details string) *ParkError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", details)).
		WithSuggestion("Review ~/.parkspot/config.yaml and PARKSPOT_* environment variables")
}
