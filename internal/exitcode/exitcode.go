package exitcode

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"

	"github.com/felixgeelhaar/parkspot/internal/api"
	"github.com/felixgeelhaar/parkspot/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// AuthError indicates an authentication or authorization failure
	AuthError = 5

	// NetworkError indicates the parking API could not be reached
	NetworkError = 6

	// ValidationError indicates the API rejected the request's content
	ValidationError = 7

	// Interrupted indicates the user stopped the command (SIGINT)
	Interrupted = 130
)

// DetermineExitCode maps err to an exit code. Typed errors decide first;
// cobra's untyped usage errors are recognized by message.
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	var apiErr *api.APIError
	if stderrors.As(err, &apiErr) {
		switch apiErr.Kind {
		case api.KindAuth, api.KindForbidden:
			return AuthError
		case api.KindNetwork:
			return NetworkError
		case api.KindValidation:
			return ValidationError
		}
	}

	code := errors.CodeOf(err)
	switch {
	case code.Category() == errors.CategoryAuth:
		return AuthError
	case code.Category() == errors.CategoryNet:
		return NetworkError
	case code == errors.ErrCodeAPIValidation:
		return ValidationError
	case code == errors.ErrCodeConfigInvalid, code == errors.ErrCodeRouteNotFound:
		return UsageError
	}

	errMsg := strings.ToLower(err.Error())
	for _, marker := range []string{"unknown flag", "unknown command", "invalid argument", "required flag", "accepts ", "requires at least"} {
		if strings.Contains(errMsg, marker) {
			return UsageError
		}
	}

	return GeneralError
}

var descriptions = map[int]string{
	Success:         "success",
	GeneralError:    "general error",
	UsageError:      "invalid flags, arguments or configuration",
	AuthError:       "not signed in, session expired or role not allowed",
	NetworkError:    "parking API unreachable",
	ValidationError: "request rejected by the parking API",
	Interrupted:     "interrupted",
}

// Describe returns a short description of code
func Describe(code int) string {
	if d, ok := descriptions[code]; ok {
		return d
	}
	return "unknown"
}

// Help lists every exit code for the root command's help text
func Help() string {
	codes := make([]int, 0, len(descriptions))
	for code := range descriptions {
		codes = append(codes, code)
	}
	sort.Ints(codes)

	var b strings.Builder
	b.WriteString("Exit codes:")
	for _, code := range codes {
		fmt.Fprintf(&b, "\n  %3d  %s", code, descriptions[code])
	}
	return b.String()
}
