package handlers

import (
	"errors"
	"net/http"

	"github.com/arman306/storyloop/backend/internal/repositories"
	"github.com/arman306/storyloop/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// httpError maps domain errors onto HTTP statuses. Anything unrecognized is
// a 500.
func httpError(err error) *echo.HTTPError {
	var rejected *services.ContentRejectedError
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Not found")
	case errors.Is(err, repositories.ErrNotAuthorized):
		return echo.NewHTTPError(http.StatusForbidden, "You do not own this resource")
	case errors.As(err, &rejected):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, echo.Map{
			"message":    "Content rejected",
			"violations": rejected.Violations,
		})
	case errors.Is(err, services.ErrMediaTooLarge):
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, services.ErrInvalidMedia):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
