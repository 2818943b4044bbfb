package ux

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/felixgeelhaar/parkspot/internal/api"
	"github.com/felixgeelhaar/parkspot/internal/errors"
)

// EnhanceError turns low-level failures into ParkErrors that carry a
// code and recovery suggestions. apiURL is quoted in network errors.
// Errors that are already ParkErrors and cancellations pass through.
func EnhanceError(err error, apiURL string) error {
	if err == nil {
		return nil
	}

	var pe *errors.ParkError
	if stderrors.As(err, &pe) {
		return err
	}

	var apiErr *api.APIError
	if stderrors.As(err, &apiErr) {
		return enhanceAPIError(apiErr, apiURL)
	}

	switch {
	case stderrors.Is(err, context.Canceled):
		return err
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.Wrap(errors.ErrCodeNetTimeout, "operation timed out", err).
			WithSuggestion("Raise --timeout or PARKSPOT_TIMEOUT")
	case stderrors.Is(err, fs.ErrPermission):
		return errors.Wrap(errors.ErrCodeFileReadFailed, "permission denied", err).
			WithSuggestion("Check the permissions of ~/.parkspot")
	case stderrors.Is(err, fs.ErrNotExist):
		return errors.Wrap(errors.ErrCodeFileReadFailed, "file not found", err).
			WithSuggestion("Run 'parkspot config init' to create a configuration file")
	}

	return err
}

func enhanceAPIError(e *api.APIError, apiURL string) error {
	switch e.Kind {
	case api.KindCanceled:
		return e
	case api.KindNetwork:
		if strings.Contains(e.Message, "timed out") {
			return errors.Wrap(errors.ErrCodeNetTimeout, fmt.Sprintf("request to %s timed out", apiURL), e).
				WithSuggestion("Check that the backend is responsive").
				WithSuggestion("Raise --timeout or PARKSPOT_TIMEOUT")
		}
		return errors.NewUnreachableError(apiURL, e)
	case api.KindAuth:
		if strings.HasPrefix(e.Path, "/auth/") {
			return errors.NewInvalidCredentialsError(e)
		}
		return errors.Wrap(errors.ErrCodeAuthTokenExpired, "the parking API rejected your session", e).
			WithSuggestion("Run 'parkspot auth login' to sign in again")
	case api.KindForbidden:
		return errors.Wrap(errors.ErrCodeAuthForbidden, "you are not allowed to do that", e).
			WithSuggestion("Admin commands need an account signed in with 'parkspot auth login --admin'")
	case api.KindValidation:
		return errors.Wrap(errors.ErrCodeAPIValidation, "the parking API rejected the request", e).
			WithSuggestion("Check the values you entered and try again")
	case api.KindNotFound:
		return errors.Wrap(errors.ErrCodeAPINotFound, "not found", e).
			WithSuggestion("Run 'parkspot lots list' to see valid lot IDs")
	case api.KindServer:
		return errors.Wrap(errors.ErrCodeAPIServer, "the parking API failed", e).
			WithSuggestion("Try again in a moment").
			WithSuggestion("Run 'parkspot doctor' to check the backend")
	default:
		return errors.Wrap(errors.ErrCodeAPIResponse, "unexpected response from the parking API", e).
			WithSuggestion("Check that --api-url points at the parking API")
	}
}

// FormatError prefixes err with what was being attempted
func FormatError(err error, context string) error {
	if err == nil {
		return nil
	}
	if context == "" {
		return err
	}
	return fmt.Errorf("%s: %w", context, err)
}
