package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *ParkError
		want string
	}{
		{
			name: "message only",
			err:  New(ErrCodeConfigInvalid, "bad api url"),
			want: "[CONFIG-001] bad api url",
		},
		{
			name: "with cause",
			err:  Wrap(ErrCodeFileWriteFailed, "write failed", fmt.Errorf("permission denied")),
			want: "[IO-002] write failed: permission denied",
		},
		{
			name: "with suggestions",
			err:  New(ErrCodeAPIValidation, "lot rejected").WithSuggestion("Check the pin code").WithSuggestions("Use a positive price"),
			want: "[API-001] lot rejected\n\nSuggestions:\n  • Check the pin code\n  • Use a positive price",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestWrapUnwraps(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Wrap(ErrCodeSessionPersist, "save failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Same(t, cause, errors.Unwrap(err))
	assert.Nil(t, New(ErrCodeAPINotFound, "missing").Cause)
}

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("navigate: %w", NewRouteNotFoundError("/nowhere"))

	assert.ErrorIs(t, err, New(ErrCodeRouteNotFound, ""))
	assert.NotErrorIs(t, err, New(ErrCodeRouteRedirectLoop, ""))
	assert.NotErrorIs(t, err, fmt.Errorf("ROUTE-001"))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrCodeAuthTokenExpired, CodeOf(fmt.Errorf("outer: %w", NewTokenExpiredError())))
	assert.Equal(t, ErrCodeAuthRequired, CodeOf(fmt.Errorf("a: %w", fmt.Errorf("b: %w", NewAuthRequiredError()))))
	assert.Empty(t, CodeOf(fmt.Errorf("plain")))
	assert.Empty(t, CodeOf(nil))
}

func TestCategory(t *testing.T) {
	tests := map[ErrorCode]Category{
		ErrCodeAuthInvalidCredentials: CategoryAuth,
		ErrCodeAPIResponse:            CategoryAPI,
		ErrCodeNetTimeout:             CategoryNet,
		ErrCodeSessionSuperseded:      CategorySession,
		ErrCodeRouteRedirectLoop:      CategoryRoute,
		ErrCodeConfigRead:             CategoryConfig,
		ErrCodeDirectoryFailed:        CategoryIO,
		ErrorCode(""):                 Category(""),
	}
	for code, want := range tests {
		assert.Equal(t, want, code.Category(), string(code))
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *ParkError
		code     ErrorCode
		contains string
	}{
		{"invalid credentials", NewInvalidCredentialsError(nil), ErrCodeAuthInvalidCredentials, "--admin"},
		{"auth required", NewAuthRequiredError(), ErrCodeAuthRequired, "parkspot auth register"},
		{"forbidden", NewForbiddenError("admin"), ErrCodeAuthForbidden, "requires the admin role"},
		{"token expired", NewTokenExpiredError(), ErrCodeAuthTokenExpired, "sign in again"},
		{"unreachable", NewUnreachableError("http://localhost:5000/api", fmt.Errorf("refused")), ErrCodeNetUnreachable, "http://localhost:5000/api"},
		{"persist", NewSessionPersistError("/tmp/s.json", fmt.Errorf("read-only")), ErrCodeSessionPersist, "--session-file"},
		{"route", NewRouteNotFoundError("/nope"), ErrCodeRouteNotFound, "route --list"},
		{"config", NewConfigInvalidError("api_url is empty"), ErrCodeConfigInvalid, "invalid configuration: api_url is empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.code, tt.err.Code)
			assert.NotEmpty(t, tt.err.Suggestions)
			assert.Contains(t, tt.err.Error(), tt.contains)
		})
	}
}

func TestCodesAreWellFormed(t *testing.T) {
	known := map[Category]bool{
		CategoryAuth: true, CategoryAPI: true, CategoryNet: true, CategorySession: true,
		CategoryRoute: true, CategoryConfig: true, CategoryIO: true,
	}
	seen := map[ErrorCode]bool{}

	for _, code := range []ErrorCode{
		ErrCodeAuthInvalidCredentials, ErrCodeAuthRequired, ErrCodeAuthForbidden, ErrCodeAuthTokenExpired,
		ErrCodeAPIValidation, ErrCodeAPINotFound, ErrCodeAPIServer, ErrCodeAPIResponse,
		ErrCodeNetUnreachable, ErrCodeNetTimeout,
		ErrCodeSessionCorrupt, ErrCodeSessionSuperseded, ErrCodeSessionPersist,
		ErrCodeRouteNotFound, ErrCodeRouteRedirectLoop,
		ErrCodeConfigInvalid, ErrCodeConfigRead,
		ErrCodeFileReadFailed, ErrCodeFileWriteFailed, ErrCodeDirectoryFailed,
	} {
		assert.True(t, known[code.Category()], "unknown category in %s", code)
		assert.Regexp(t, `^[A-Z]+-\d{3}$`, string(code))
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
}
