package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/recipe-box/internal/logutil"
	"github.com/iliyamo/recipe-box/internal/repository"
	"github.com/iliyamo/recipe-box/internal/service"
)

// writeError maps domain errors onto status codes.  Anything unrecognised
// is a storage failure: logged in full, answered with an opaque 500.
func writeError(c echo.Context, err error) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": verr.Error(), "field": verr.Field})
	case errors.Is(err, repository.ErrUsernameTaken):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username already exists"})
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid credentials"})
	case errors.Is(err, repository.ErrUnknownOwner):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "unknown user"})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "recipe not found"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "recipe was modified concurrently, retry"})
	}
	log := logutil.GetOrDefault(c.Request().Context())
	log.Error().Err(err).
		Str("path", c.Request().URL.Path).Msg("request failed")
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

func badBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
}
