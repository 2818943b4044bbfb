package cmd

import (
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/parkspot/internal/api"
	"github.com/felixgeelhaar/parkspot/internal/errors"
)

// parseID reads a positive numeric id argument. The message is worded so
// that exitcode classifies it as a usage error.
func parseID(what, raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(raw), "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid argument %q: %s must be a positive number", raw, what)
	}
	return id, nil
}

// lotNotFoundError creates a helpful error for an unknown lot reference
func lotNotFoundError(ref string) error {
	return errors.New(errors.ErrCodeAPINotFound, fmt.Sprintf("no parking lot matches %q", ref)).
		WithSuggestions(
			"List lots with their ids: parkspot lots list",
			"Lots can be referenced by id or by name, e.g. 'city-centre-plaza'",
		)
}

// spotTakenError is returned before calling the API for a spot the
// catalog already knows is occupied.
func spotTakenError(spot api.ParkingSpot) error {
	return errors.New(errors.ErrCodeAPIValidation, fmt.Sprintf("spot %s is already taken", spotLabel(spot))).
		WithSuggestion(fmt.Sprintf("See free spots: parkspot lots spots %d", spot.LotID))
}

// missingInputError explains how to supply what a prompt would have asked
func missingInputError(what string, flags ...string) error {
	hints := make([]string, 0, len(flags))
	for _, f := range flags {
		hints = append(hints, "Pass --"+f)
	}
	hints = append(hints, "Run in an interactive terminal without --no-input to be prompted")
	return errors.New(errors.ErrCodeConfigInvalid, "missing "+what).WithSuggestions(hints...)
}

// rejectedSession reports whether err is the backend refusing a token the
// client still believed in. Auth failures of login and register are
// credential errors, not rejected sessions.
func rejectedSession(err error) bool {
	var apiErr *api.APIError
	if !stderrors.As(err, &apiErr) || apiErr.Kind != api.KindAuth {
		return false
	}
	return !strings.HasPrefix(apiErr.Path, "/auth/")
}
