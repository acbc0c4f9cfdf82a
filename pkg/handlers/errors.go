package handlers

import (
	"errors"

	"github.com/LoganMeitz/votefinder/pkg/tally"

	"github.com/danielgtaylor/huma/v2"
)

// HumaError maps domain errors to HTTP errors. Anything unrecognized becomes a 500 with msg.
func HumaError(err error, msg string) error {
	var statusErr huma.StatusError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &statusErr):
		return err
	case errors.Is(err, tally.ErrNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, tally.ErrConflict):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, tally.ErrMissingDayBoundary):
		return huma.Error409Conflict(err.Error())
	}
	return huma.Error500InternalServerError(msg, err)
}
