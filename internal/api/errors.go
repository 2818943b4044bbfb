package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Kind classifies an API failure
type Kind string

const (
	// KindNetwork is a transport failure: refused, DNS, timeout
	KindNetwork Kind = "network"
	// KindCanceled means the caller's context ended before a response
	KindCanceled Kind = "canceled"
	// KindAuth is a 401: bad credentials or a rejected token
	KindAuth Kind = "auth"
	// KindForbidden is a 403: authenticated but not allowed
	KindForbidden Kind = "forbidden"
	// KindValidation is a 400, 409 or 422 from the backend
	KindValidation Kind = "validation"
	// KindNotFound is a 404
	KindNotFound Kind = "not_found"
	// KindServer is any 5xx
	KindServer Kind = "server"
	// KindDecode is a 2xx whose body could not be decoded
	KindDecode Kind = "decode"
	// KindUnknown covers the remaining statuses
	KindUnknown Kind = "unknown"
)

// APIError is the normalized error for every failed request
type APIError struct {
	Kind      Kind
	Status    int
	Message   string
	Method    string
	Path      string
	RequestID string
	Cause     error
}

// Error implements the error interface
func (e *APIError) Error() string {
	var b strings.Builder
	if e.Method != "" {
		b.WriteString(e.Method + " " + e.Path + ": ")
	}
	if e.Status > 0 {
		b.WriteString(fmt.Sprintf("%d ", e.Status))
	}
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}
	return b.String()
}

// Unwrap returns the transport error, if any
func (e *APIError) Unwrap() error {
	return e.Cause
}

// LogAttrs describes the error as structured log attributes
func (e *APIError) LogAttrs() []any {
	return []any{
		"kind", string(e.Kind),
		"status", e.Status,
		"method", e.Method,
		"path", e.Path,
		"request_id", e.RequestID,
	}
}

// IsKind reports whether err is an *APIError of the given kind
func IsKind(err error, kind Kind) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Kind == kind
}

// errorBody is the JSON error shape the backend uses. Flask handlers
// answer with either {"error": ...} or {"message": ...}.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func statusError(status int, body []byte) *APIError {
	msg := http.StatusText(status)

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		switch {
		case eb.Error != "":
			msg = eb.Error
		case eb.Message != "":
			msg = eb.Message
		}
	} else if trimmed := strings.TrimSpace(string(body)); trimmed != "" && len(trimmed) <= 200 {
		msg = trimmed
	}

	return &APIError{
		Kind:    kindForStatus(status),
		Status:  status,
		Message: msg,
	}
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindAuth
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusBadRequest, status == http.StatusConflict, status == http.StatusUnprocessableEntity:
		return KindValidation
	case status >= 500:
		return KindServer
	default:
		return KindUnknown
	}
}

func transportError(err error) *APIError {
	kind := KindNetwork
	msg := "network error"

	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		kind, msg = KindCanceled, "request canceled"
	case errors.Is(err, context.DeadlineExceeded):
		msg = "request timed out"
	case errors.As(err, &netErr) && netErr.Timeout():
		msg = "request timed out"
	}

	return &APIError{Kind: kind, Message: msg, Cause: err}
}
