package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/goodmove/logistics-api/internal/api/middleware"
)

// ctxClaims extracts the auth claims injected by the Auth middleware and
// performs a fast-fail check before any service call. The email claim is the
// identity key for every store lookup, so a token without one is rejected.
func ctxClaims(c echo.Context) (email, role string, err error) {
	email, _ = c.Get(middleware.KeyEmail).(string)
	if email == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	role, _ = c.Get(middleware.KeyRole).(string)
	return email, role, nil
}

// bindAndValidate decodes the request body and runs the registered validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return c.Validate(req)
}
